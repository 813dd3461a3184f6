// Package app implements the sitewrap user intents.
//
// The Orchestrator composes the registry, the permission store, the icon
// pipeline, the portal adapter and the engine. Manager intents are Create,
// Edit, Launch, Reset and Remove; a Session holds the state of one shell
// window and applies the navigation policy to what its view reports.
//
// Threading:
//   - Registry and permission writes happen synchronously on the caller,
//     which is the UI loop
//   - Icon rendering and launcher install run on background goroutines and
//     post their completion back to the loop
//   - Only one Create runs at a time; a second returns ErrBusy
//
// Errors reach the user through the Presenter: invalid input as a field
// error, background failures as toasts, foreground failures as dialogs.
//
// Example Usage:
//
//	o := app.New(app.Deps{Paths: p, Registry: reg, Permissions: perms,
//	    Icons: fetcher, Portal: adapter, Loop: loop, Presenter: ui})
//	def, err := o.Create(ctx, app.NewCreateInput("example.com", ""))
package app
