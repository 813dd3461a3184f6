// Package portal talks to xdg-desktop-portal over the session bus.
//
// Every host integration sitewrap performs goes through here: launcher
// install and removal (DynamicLauncher), notifications, opening URIs in the
// default browser and the save dialog (FileChooser).
//
// Calls are synchronous. A single executor goroutine owns the bus
// connection and serializes requests; request/response portals are
// awaited by subscribing to the Request object's Response signal before
// issuing the call.
//
// Errors:
//   - PortalUnavailable: no session bus, or the portal does not implement
//     the interface
//   - PortalError: any other failure, including a rejected request
//
// Probes (IsSupported and friends) never fail; they return false.
package portal
