// Package console provides the line-oriented manager and shell front-ends.
//
// Both read commands from an input stream and run them on the UI loop, the
// same way a window toolkit would deliver clicks. Feedback from the
// orchestrator arrives through Presenter: toasts and field errors become
// single lines, dialogs become a heading plus message, and a confirmation
// takes the next input line as its answer.
//
// Example Usage:
//
//	ui := console.NewPresenter(os.Stdout)
//	o := app.New(app.Deps{..., Loop: loop, Presenter: ui})
//	err := console.NewManager(o, ui, loop, log).Run(ctx, os.Stdin)
package console
