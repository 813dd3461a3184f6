package app

// Prompt is a two-choice question shown to the user
type Prompt struct {
	Heading string
	Body    string
	Accept  string
	Reject  string
}

// Presenter is the front-end surface the orchestrator reports to.
// Every method is called on the UI loop.
type Presenter interface {
	// Refresh redraws the app list
	Refresh()
	// FieldError shows message next to a form field and keeps the form open
	FieldError(field, message string)
	// Toast shows a transient notice
	Toast(message string)
	// ErrorDialog shows a foreground failure
	ErrorDialog(heading string, err error)
	// Confirm asks the user and calls answer exactly once with the choice.
	// Dismissing the prompt counts as rejecting it.
	Confirm(p Prompt, answer func(accepted bool))
}
