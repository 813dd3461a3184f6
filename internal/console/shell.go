package console

import (
	"context"
	"errors"
	"io"

	"go.uber.org/zap"

	"github.com/sitewrap/sitewrap/internal/app"
	"github.com/sitewrap/sitewrap/internal/mainloop"
	"github.com/sitewrap/sitewrap/internal/shared/id"
	"github.com/sitewrap/sitewrap/internal/shared/types"
)

const shellHelp = `Commands:
  go URL            Follow a link
  external          Follow a link to another site
  where             Show the current page
  copy              Copy the page link
  browser           Open the page in the default browser
  notify            Send a test notification
  save              Save the page
  request KIND      Let the page ask for a permission
  perms             Show permissions
  clear             Delete this app's data
  quit`

const navigationHelp = `  home              Go to the start page
  reload            Reload the page`

// Shell is the console rendition of one app window
type Shell struct {
	o    *app.Orchestrator
	ui   *Presenter
	loop *mainloop.Loop
	log  *zap.Logger

	session *app.Session
}

// NewShell creates a shell front-end. ui must be the presenter o was built
// with.
func NewShell(o *app.Orchestrator, ui *Presenter, loop *mainloop.Loop, log *zap.Logger) *Shell {
	return &Shell{o: o, ui: ui, loop: loop, log: log.Named("shell")}
}

// Open loads the app and builds its view. An unknown id is returned as a
// NotFound error.
func (s *Shell) Open(ctx context.Context, appID id.WebAppID) error {
	session, err := s.o.OpenSession(ctx, appID)
	if err != nil {
		return err
	}
	s.session = session
	return nil
}

// Session returns the open session, or nil before Open
func (s *Shell) Session() *app.Session {
	return s.session
}

// Run reads commands from in until quit, EOF or ctx cancellation
func (s *Shell) Run(ctx context.Context, in io.Reader) error {
	if s.session == nil {
		return types.Errorf(types.KindInvalidInput, "shell.run", "no session open")
	}

	def := s.session.Definition()
	s.ui.Println(titleStyle.Render(def.Name) + " " + mutedStyle.Render(def.StartURL))
	s.ui.Println(mutedStyle.Render(s.session.View().Placeholder()))

	r := &repl{loop: s.loop, ui: s.ui, prompt: def.Name + ">", handle: s.handle, log: s.log}
	return r.run(ctx, in)
}

func (s *Shell) handle(_ context.Context, args []string) bool {
	cmd, args := args[0], args[1:]
	showNav := s.session.Definition().Behavior.ShowNavigation

	switch cmd {
	case "quit", "exit", "close":
		return false
	case "help", "?":
		s.ui.Println(shellHelp)
		if showNav {
			s.ui.Println(navigationHelp)
		}
	case "go":
		if len(args) != 1 {
			s.ui.FieldError("url", "Please enter a URL")
			break
		}
		s.session.View().Navigate(args[0])
	case "external":
		s.session.View().NavigateExternalExample()
	case "home":
		if s.navigationHidden() {
			break
		}
		s.session.View().NavigateSameOrigin()
	case "reload":
		if s.navigationHidden() {
			break
		}
		_ = s.session.Reload()
	case "where":
		s.ui.Println(s.session.CurrentURL())
	case "copy":
		s.ui.Println(s.session.CopyLink())
	case "browser":
		s.report(s.session.OpenInBrowser())
	case "notify":
		s.report(s.session.TriggerNotification())
	case "save":
		s.report(s.session.SaveExport())
	case "request":
		if len(args) != 1 {
			s.ui.FieldError("kind", "Please name a permission")
			break
		}
		kind, err := types.ParsePermissionKind(args[0])
		if err != nil {
			s.ui.FieldError("kind", err.Error())
			break
		}
		s.session.View().RequestPermission(kind)
	case "perms":
		if rows, err := s.session.OpenPermissions(); err == nil {
			printPermissions(s.ui, rows)
		}
	case "clear":
		s.ui.Confirm(app.Prompt{
			Heading: "Clear data?",
			Body:    "Cookies, storage, permissions and icons for this app will be deleted.",
			Accept:  "Clear",
			Reject:  "Cancel",
		}, func(yes bool) {
			if yes {
				_ = s.session.ClearData()
			}
		})
	default:
		s.ui.Println("Unknown command " + cmd + "; try help")
	}
	return true
}

func (s *Shell) navigationHidden() bool {
	if s.session.Definition().Behavior.ShowNavigation {
		return false
	}
	s.ui.Println(mutedStyle.Render("Navigation controls are turned off for this app"))
	return true
}

// report explains actions disabled for lack of a portal
func (s *Shell) report(err error) {
	if errors.Is(err, app.ErrActionDisabled) {
		s.ui.Println(mutedStyle.Render("Unavailable without desktop portals"))
	}
}
