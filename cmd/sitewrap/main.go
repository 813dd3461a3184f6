package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/sitewrap/sitewrap/internal/app"
	"github.com/sitewrap/sitewrap/internal/console"
	"github.com/sitewrap/sitewrap/internal/domain/permissions"
	"github.com/sitewrap/sitewrap/internal/domain/registry"
	"github.com/sitewrap/sitewrap/internal/engine"
	"github.com/sitewrap/sitewrap/internal/infrastructure/config"
	"github.com/sitewrap/sitewrap/internal/logging"
	"github.com/sitewrap/sitewrap/internal/mainloop"
	"github.com/sitewrap/sitewrap/internal/providers/icons"
	"github.com/sitewrap/sitewrap/internal/providers/portal"
	"github.com/sitewrap/sitewrap/internal/shared/id"
	"github.com/sitewrap/sitewrap/internal/shared/paths"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("sitewrap", flag.ContinueOnError)
	flags.SetOutput(stderr)
	manager := flags.Bool("manager", false, "Open the web app manager (default)")
	shell := flags.String("shell", "", "Open the window of the web app with this `id`")
	if err := flags.Parse(args); err != nil {
		return exitUsage
	}
	if *manager && *shell != "" {
		fmt.Fprintln(stderr, "sitewrap: --manager and --shell cannot be combined")
		flags.Usage()
		return exitUsage
	}
	if flags.NArg() > 0 {
		fmt.Fprintf(stderr, "sitewrap: unexpected argument %q\n", flags.Arg(0))
		flags.Usage()
		return exitUsage
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "sitewrap: %v\n", err)
		return exitFailure
	}

	logger := logging.FromLevel(cfg.Logging.Level, cfg.Logging.Development)
	defer func() { _ = logger.Sync() }()
	log := logger.Logger

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := paths.Resolve(cfg.Paths.Root)
	if err != nil {
		log.Error("Resolve directories failed", zap.Error(err))
		fmt.Fprintf(stderr, "sitewrap: %v\n", err)
		return exitFailure
	}
	if err := p.EnsureStandardDirectories(); err != nil {
		log.Error("Create directories failed", zap.Error(err))
		fmt.Fprintf(stderr, "sitewrap: %v\n", err)
		return exitFailure
	}

	if err := engine.Init(log); err != nil {
		fmt.Fprintf(stderr, "sitewrap: %v\n", err)
		return exitFailure
	}
	defer engine.Shutdown(log)

	adapter := portal.NewSession(log)
	defer adapter.Close()

	loop := mainloop.New(mainloop.Options{
		TickInterval: cfg.UI.TickInterval,
		OnTick:       engine.Tick,
	}, log)

	ui := console.NewPresenter(stdout)
	o := app.New(app.Deps{
		Paths:       p,
		Registry:    registry.NewManager(p, log),
		Permissions: permissions.NewRepository(p, log),
		Icons: icons.NewFetcher(icons.Options{
			Timeout:           cfg.Icons.Timeout,
			UserAgent:         cfg.Icons.UserAgent,
			RequestsPerSecond: cfg.Icons.RequestsPerSecond,
			RetryMax:          iconRetries(cfg.Icons.RetryMax),
		}, log),
		Portal:     adapter,
		Loop:       loop,
		Presenter:  ui,
		EngineRoot: cfg.Engine.ResolvedRoot(),
		Executable: cfg.Launcher.Executable,
		Log:        log,
	})
	defer o.Wait()

	if *shell != "" {
		return runShell(ctx, o, ui, loop, log, *shell, stdin, stderr)
	}

	log.Info("Starting manager", zap.String("config_dir", p.ConfigDir))
	if err := console.NewManager(o, ui, loop, log).Run(ctx, stdin); err != nil {
		log.Error("Manager stopped", zap.Error(err))
		return exitFailure
	}
	return exitOK
}

func runShell(ctx context.Context, o *app.Orchestrator, ui *console.Presenter, loop *mainloop.Loop, log *zap.Logger, rawID string, stdin io.Reader, stderr io.Writer) int {
	appID, err := id.Parse(rawID)
	if err != nil {
		fmt.Fprintf(stderr, "sitewrap: invalid web app id %q\n", rawID)
		return exitFailure
	}

	sh := console.NewShell(o, ui, loop, log)
	if err := sh.Open(ctx, appID); err != nil {
		log.Error("Open shell failed", zap.String("id", rawID), zap.Error(err))
		fmt.Fprintf(stderr, "sitewrap: %v\n", err)
		return exitFailure
	}

	log.Info("Starting shell", zap.String("id", rawID))
	if err := sh.Run(ctx, stdin); err != nil {
		log.Error("Shell stopped", zap.Error(err))
		return exitFailure
	}
	return exitOK
}

// iconRetries maps the configured retry count onto icons.Options, where zero
// selects the default
func iconRetries(n int) int {
	if n <= 0 {
		return -1
	}
	return n
}
