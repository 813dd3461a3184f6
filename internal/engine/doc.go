// Package engine dispatches web views to a rendering backend.
//
// The backend is chosen once per Engine from the configured root:
//   - no root: stub views
//   - root without libcef.so: stub views, logged as cef-missing
//   - root with libcef.so: placeholder views until bindings are wired
//
// Views report navigations and permission prompts through callbacks; the
// surrogate views expose Navigate, NavigateSameOrigin and
// NavigateExternalExample so front-ends can drive them.
//
// Tick pumps the backend's message loop. The UI loop calls it about every
// 16ms; it is non-reentrant and safe before Init and after Shutdown.
package engine
