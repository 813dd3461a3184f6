package console

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sitewrap/sitewrap/internal/app"
	"github.com/sitewrap/sitewrap/internal/mainloop"
	"github.com/sitewrap/sitewrap/internal/shared/id"
	"github.com/sitewrap/sitewrap/internal/shared/types"
)

const managerHelp = `Commands:
  list [query]                              List web apps
  stats                                     Count web apps and launches
  create [--no-external] [--nav] URL [NAME] Create a web app
  edit ID [--no-external] [--nav] URL [NAME]
  launch ID                                 Open the app window
  reset ID                                  Delete permissions, profile and icons
  remove ID                                 Delete the app
  perms ID                                  Show permissions
  set ID ORIGIN KIND ask|allow|block        Change a permission
  add-origin ID ORIGIN                      Add an origin to the permission list
  quit`

// Manager is the console rendition of the manager window
type Manager struct {
	o     *app.Orchestrator
	ui    *Presenter
	loop  *mainloop.Loop
	log   *zap.Logger
	query string
}

// NewManager creates a manager front-end. ui must be the presenter o was
// built with.
func NewManager(o *app.Orchestrator, ui *Presenter, loop *mainloop.Loop, log *zap.Logger) *Manager {
	m := &Manager{o: o, ui: ui, loop: loop, log: log.Named("manager")}
	ui.OnRefresh(m.render)
	return m
}

// Run reads commands from in until quit, EOF or ctx cancellation
func (m *Manager) Run(ctx context.Context, in io.Reader) error {
	m.o.CheckHostIntegration(ctx)
	m.loop.Post(m.render)

	r := &repl{loop: m.loop, ui: m.ui, prompt: "sitewrap>", handle: m.handle, log: m.log}
	return r.run(ctx, in)
}

func (m *Manager) handle(ctx context.Context, args []string) bool {
	cmd, args := args[0], args[1:]

	switch cmd {
	case "quit", "exit":
		return false
	case "help", "?":
		m.ui.Println(managerHelp)
	case "list", "ls":
		m.query = strings.Join(args, " ")
		m.render()
	case "stats":
		stats, err := m.o.Stats()
		if err != nil {
			m.ui.ErrorDialog("Load failed", err)
			break
		}
		m.ui.Printf("Web apps: %d, launched: %d, last launch: %s\n",
			stats.Total, stats.Launched, FormatLastLaunched(stats.LastLaunched))
	case "create":
		in, ok := m.formInput("create", args)
		if ok {
			if _, err := m.o.Create(ctx, in); errors.Is(err, app.ErrBusy) {
				m.ui.Toast("A web app is already being created")
			}
		}
	case "edit":
		if appID, ok := m.appID(args); ok {
			if in, ok := m.formInput("edit", args[1:]); ok {
				_, _ = m.o.Edit(ctx, appID, in)
			}
		}
	case "launch":
		if appID, ok := m.appID(args); ok {
			_, _ = m.o.Launch(ctx, appID)
		}
	case "reset":
		if def, ok := m.definition(args); ok {
			m.ui.Confirm(app.Prompt{
				Heading: "Reset " + def.Name + "?",
				Body:    "Permissions, cookies, storage and icons will be deleted.",
				Accept:  "Reset",
				Reject:  "Cancel",
			}, func(yes bool) {
				if yes {
					_ = m.o.Reset(ctx, def.ID)
				}
			})
		}
	case "remove", "rm":
		if def, ok := m.definition(args); ok {
			m.ui.Confirm(app.Prompt{
				Heading: "Remove " + def.Name + "?",
				Body:    "The app, its data and its launcher will be deleted.",
				Accept:  "Remove",
				Reject:  "Cancel",
			}, func(yes bool) {
				if yes {
					_ = m.o.Remove(ctx, def.ID)
				}
			})
		}
	case "perms":
		if appID, ok := m.appID(args); ok {
			if rows, err := m.o.OpenPermissions(appID); err == nil {
				printPermissions(m.ui, rows)
			}
		}
	case "set":
		m.setPermission(args)
	case "add-origin":
		if appID, ok := m.appID(args); ok {
			if len(args) < 2 {
				m.ui.FieldError("origin", "Please enter an origin")
				break
			}
			if o, err := m.o.AddOrigin(appID, strings.Join(args[1:], " ")); err == nil {
				m.ui.Toast("Added " + o)
			}
		}
	default:
		m.ui.Println("Unknown command " + cmd + "; try help")
	}
	return true
}

func (m *Manager) setPermission(args []string) {
	appID, ok := m.appID(args)
	if !ok {
		return
	}
	if len(args) != 4 {
		m.ui.Println("usage: set ID ORIGIN KIND ask|allow|block")
		return
	}
	kind, err := types.ParsePermissionKind(args[2])
	if err != nil {
		m.ui.FieldError("kind", err.Error())
		return
	}
	state, err := types.ParsePermissionState(args[3])
	if err != nil {
		m.ui.FieldError("state", err.Error())
		return
	}
	if err := m.o.SetPermission(appID, args[1], kind, state); err == nil {
		m.ui.Toast(kind.Title() + ": " + state.Label())
	}
}

// formInput reads [--no-external] [--nav] URL [NAME...]
func (m *Manager) formInput(op string, args []string) (app.CreateInput, bool) {
	flags, rest := splitFlags(args)
	if len(rest) == 0 {
		m.ui.FieldError("url", "Please enter a URL")
		return app.CreateInput{}, false
	}
	in := app.NewCreateInput(rest[0], strings.Join(rest[1:], " "))
	in.OpenExternalLinks = !flags["no-external"]
	in.ShowNavigation = flags["nav"]
	m.log.Debug("Form submitted", zap.String("op", op), zap.String("url", in.URL))
	return in, true
}

func (m *Manager) appID(args []string) (id.WebAppID, bool) {
	if len(args) == 0 {
		m.ui.FieldError("id", "Please enter an app id")
		return id.WebAppID{}, false
	}
	appID, err := id.Parse(args[0])
	if err != nil {
		m.ui.FieldError("id", err.Error())
		return id.WebAppID{}, false
	}
	return appID, true
}

func (m *Manager) definition(args []string) (*types.WebAppDefinition, bool) {
	appID, ok := m.appID(args)
	if !ok {
		return nil, false
	}
	defs, err := m.o.List("")
	if err != nil {
		m.ui.ErrorDialog("Load failed", err)
		return nil, false
	}
	for _, def := range defs {
		if def.ID == appID {
			return def, true
		}
	}
	m.ui.ErrorDialog("Unknown web app", types.Errorf(types.KindNotFound, "manager", "no web app %s", appID))
	return nil, false
}

// render prints the app list for the current query
func (m *Manager) render() {
	defs, err := m.o.List(m.query)
	if err != nil {
		m.ui.ErrorDialog("Load failed", err)
		return
	}

	if len(defs) == 0 {
		if m.query != "" {
			m.ui.Println(mutedStyle.Render("No web apps match " + m.query))
		} else {
			m.ui.Println(mutedStyle.Render("No web apps yet; create one with: create URL [NAME]"))
		}
		return
	}

	for _, def := range defs {
		m.ui.Println(FormatDefinition(def))
	}
}

// FormatDefinition renders one row of the app list
func FormatDefinition(def *types.WebAppDefinition) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(def.Name))
	b.WriteString("\n  " + def.StartURL)
	b.WriteString("\n  " + mutedStyle.Render("id "+def.ID.String()))
	b.WriteString("\n  Last launched: " + FormatLastLaunched(def.LastLaunchedAt))
	var flags []string
	if def.Behavior.OpenExternalLinks {
		flags = append(flags, "external links open in browser")
	}
	if def.Behavior.ShowNavigation {
		flags = append(flags, "navigation bar")
	}
	if len(flags) > 0 {
		b.WriteString("\n  " + strings.Join(flags, ", "))
	}
	return b.String()
}

// FormatLastLaunched renders a launch time as RFC 3339, or Never
func FormatLastLaunched(t *time.Time) string {
	if t == nil {
		return "Never"
	}
	return t.UTC().Format(time.RFC3339)
}

func printPermissions(ui *Presenter, rows []app.OriginPermissions) {
	for _, row := range rows {
		ui.Println(titleStyle.Render(row.Host) + " " + mutedStyle.Render(row.Origin))
		for _, kind := range types.PermissionKinds() {
			ui.Printf("  %-14s %s\n", kind.Title(), row.Permissions.Get(kind).Label())
		}
	}
}
