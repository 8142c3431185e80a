// Package repl implements an interactive session that evaluates template
// expressions against a scope stack.
package repl

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ardnew/tmplexpr/lang"
	"github.com/ardnew/tmplexpr/log"
)

// Environment is the evaluation environment a session runs against.
type Environment interface {
	Evaluate(ctx context.Context, source string) (any, error)
	Lookup(ctx context.Context, path string) (any, bool)
	Define(ctx context.Context, name, source string) error
	Named() map[string]*lang.Expression
	Frames() []any
	Vars() map[string]any
	SetVars(vars map[string]any)
	Policy() lang.AccessPolicy
	SetPolicy(p lang.AccessPolicy)
}

// Outcomes of an edit of the variables frame.
type (
	editVarsMsg      struct{ vars map[string]any }
	editCancelledMsg struct{}
	editDeclinedMsg  struct{}
	editErrorMsg     struct{ err error }
)

// inputMode selects whether a submitted line is evaluated or run as a
// command.
type inputMode int

const (
	modeEval inputMode = iota
	modeCtrl
)

var (
	evalPromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
	ctrlPromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("5")).Bold(true)
	inputStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	resultStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	hintStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	suggestionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	selectedStyle   = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4"))
)

func (i inputMode) prompt() string {
	if i == modeCtrl {
		return ctrlPromptStyle.Render(" :")
	}

	return evalPromptStyle.Render("➜ ")
}

// echo renders a submitted line the way it appeared at the prompt.
func (i inputMode) echo(line string) string {
	return i.prompt() + inputStyle.Render(line)
}

func (i inputMode) hint() string {
	if i == modeCtrl {
		return "Commands: " + strings.Join(ctrlCommands, ", ") + " (Esc to return)"
	}

	return "Type an expression, or press Esc for commands"
}

const defaultWidth = 80

// model is the Bubble Tea model of a session. browse is the index of the
// history entry shown in the input, or the history length when none is.
type model struct {
	ctxFunc  func() context.Context
	input    textinput.Model
	env      Environment
	logger   log.Logger
	history  *History
	browse   int
	comp     completion
	detour   detour
	saved    [2]buffer
	mode     inputMode
	width    int
	quitting bool
}

// Run starts an interactive session evaluating input against env. History
// is kept in cacheDir.
func Run(
	ctx context.Context,
	env Environment,
	cacheDir string,
	logger log.Logger,
) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	history := NewHistory(filepath.Join(cacheDir, baseHistory))
	if err := history.Load(); err != nil {
		logger.WarnContext(ctx, "could not load history", slog.Any("error", err))
	}

	logger.TraceContext(ctx, "repl start",
		slog.String("cache_dir", cacheDir),
		slog.Int("frames", len(env.Frames())),
		slog.Int("named", len(env.Named())),
		slog.Int("history", history.Len()),
	)

	_, err = tea.NewProgram(
		newModel(ctx, env, history, logger),
		tea.WithContext(ctx),
	).Run()

	return err
}

func newModel(
	ctx context.Context,
	env Environment,
	history *History,
	logger log.Logger,
) model {
	in := textinput.New()
	in.Prompt = modeEval.prompt()
	in.CharLimit = 1024
	in.Width = defaultWidth
	in.Focus()

	return model{
		ctxFunc: func() context.Context { return ctx },
		input:   in,
		env:     env,
		logger:  logger,
		history: history,
		browse:  history.Len(),
		comp:    completion{selected: -1},
		width:   defaultWidth,
	}
}

func (m model) Init() tea.Cmd { return textinput.Blink }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = msg.Width - lipgloss.Width(m.input.Prompt) - 1

		return m, nil

	case editVarsMsg:
		m.env.SetVars(msg.vars)
		m.logger.TraceContext(m.ctxFunc(), "repl vars edited",
			slog.Int("vars", len(msg.vars)),
		)

		return m, tea.Println(resultStyle.Render("✔ variables updated"))

	case editCancelledMsg:
		return m, tea.Println(hintStyle.Render("edit cancelled"))

	case editDeclinedMsg:
		return m.quit()

	case editErrorMsg:
		return m, tea.Println(errorStyle.Render("error: " + msg.err.Error()))
	}

	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)

	return m, cmd
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	return m.input.View() + "\n" + m.status() + "\n"
}

// status is the line beneath the input: the history position while
// browsing, a signature inside a call, or the completion bar.
func (m model) status() string {
	line := m.input.Value()

	if m.browse < m.history.Len() {
		pos := lipgloss.NewStyle().Bold(true).Render(fmt.Sprint(m.browse + 1))

		return hintStyle.Render(fmt.Sprintf("%s/%d", pos, m.history.Len()))
	}

	if strings.TrimSpace(line) == "" {
		return hintStyle.Render(m.mode.hint())
	}

	if m.mode == modeEval {
		call := detectFunctionCall(line, m.input.Position())
		if call.inCall {
			sig, params := getSignature(m.ctxFunc(), m.env, call.name)
			if sig != "" {
				return renderSignatureHint(sig, params, call.argIndex)
			}
		}
	}

	return m.comp.view(m.width)
}
