package console

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/sitewrap/sitewrap/internal/app"
	"github.com/sitewrap/sitewrap/internal/shared/types"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	toastStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	fieldStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

// Presenter renders orchestrator feedback as lines of text.
// A pending confirmation consumes the next input line.
type Presenter struct {
	mu      sync.Mutex
	out     io.Writer
	refresh func()
	pending func(bool)
	accept  string
}

var _ app.Presenter = (*Presenter)(nil)

// NewPresenter creates a presenter writing to out
func NewPresenter(out io.Writer) *Presenter {
	return &Presenter{out: out}
}

// OnRefresh sets the function run when the app list changes
func (p *Presenter) OnRefresh(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.refresh = fn
}

func (p *Presenter) Refresh() {
	p.mu.Lock()
	fn := p.refresh
	p.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (p *Presenter) FieldError(field, message string) {
	p.Println(fieldStyle.Render(field + ": " + message))
}

func (p *Presenter) Toast(message string) {
	p.Println(toastStyle.Render("* " + message))
}

func (p *Presenter) ErrorDialog(heading string, err error) {
	p.Println(errorStyle.Render(heading))
	if err != nil {
		p.Println("  " + types.Message(err))
	}
}

// Confirm prints the prompt and hands the next input line to answer
func (p *Presenter) Confirm(prompt app.Prompt, answer func(bool)) {
	p.mu.Lock()
	p.pending = answer
	p.accept = prompt.Accept
	p.mu.Unlock()

	p.Println(titleStyle.Render(prompt.Heading))
	if prompt.Body != "" {
		p.Println("  " + prompt.Body)
	}
	p.Println(mutedStyle.Render(fmt.Sprintf("  [y] %s  [n] %s", prompt.Accept, prompt.Reject)))
}

// Pending reports whether a confirmation is waiting for an answer
func (p *Presenter) Pending() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pending != nil
}

// Answer resolves a pending confirmation with line. It returns false when
// nothing was pending.
func (p *Presenter) Answer(line string) bool {
	p.mu.Lock()
	answer, accept := p.pending, p.accept
	p.pending = nil
	p.mu.Unlock()

	if answer == nil {
		return false
	}

	word := strings.ToLower(strings.TrimSpace(line))
	answer(word == "y" || word == "yes" || (accept != "" && word == strings.ToLower(accept)))
	return true
}

// Println writes one line
func (p *Presenter) Println(line string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, line)
}

// Printf writes formatted text
func (p *Presenter) Printf(format string, args ...interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, format, args...)
}
