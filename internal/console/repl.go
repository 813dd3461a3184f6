package console

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/sitewrap/sitewrap/internal/mainloop"
)

// handler runs one command on the UI loop; false ends the session
type handler func(ctx context.Context, args []string) bool

// repl feeds input lines to the UI loop and runs it until quit or EOF
type repl struct {
	loop   *mainloop.Loop
	ui     *Presenter
	prompt string
	handle handler
	log    *zap.Logger
}

func (r *repl) run(ctx context.Context, in io.Reader) error {
	r.showPrompt()

	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			line := scanner.Text()
			if !r.loop.Post(func() { r.dispatch(ctx, line) }) {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			r.log.Warn("Read input failed", zap.Error(err))
		}
		r.loop.Post(r.loop.Quit)
	}()

	err := r.loop.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (r *repl) dispatch(ctx context.Context, line string) {
	if r.ui.Answer(line) {
		r.showPrompt()
		return
	}

	args := strings.Fields(line)
	if len(args) == 0 {
		r.showPrompt()
		return
	}
	if !r.handle(ctx, args) {
		r.loop.Quit()
		return
	}
	r.showPrompt()
}

func (r *repl) showPrompt() {
	if r.ui.Pending() {
		return
	}
	r.ui.Printf("%s ", r.prompt)
}

// splitFlags separates leading --flags from positional arguments
func splitFlags(args []string) (flags map[string]bool, rest []string) {
	flags = make(map[string]bool)
	for i, a := range args {
		if !strings.HasPrefix(a, "--") {
			return flags, args[i:]
		}
		flags[strings.TrimPrefix(a, "--")] = true
	}
	return flags, nil
}
