package repl

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ardnew/tmplexpr/lang"
)

// ctrlCommands are the command-mode commands offered for completion.
var ctrlCommands = []string{"help", "list", "def", "policy", "edit", "clear", "quit"}

const usage = `
Type an expression to evaluate it against the scope stack. Completions
appear as you type. Press Esc for command mode.

Commands:
  help               Print this text
  list               List scope frames and named expressions
  def NAME EXPR      Define NAME, callable as NAME(args...)
  policy [POLICY]    Show or set the access policy (current, root, full)
  edit               Edit the variables frame in $EDITOR
  clear              Clear the screen
  quit               Exit

Keys:
`

// submit records the input line in history and runs it in the current mode.
func (m model) submit() (model, tea.Cmd) {
	line := strings.TrimSpace(m.input.Value())
	if line == "" {
		return m, nil
	}

	m.saved = [2]buffer{}
	m.input.SetValue("")

	if err := m.history.Add(line, m.mode); err != nil {
		m.logger.WarnContext(m.ctxFunc(), "could not write history",
			slog.Any("error", err))
	}

	m.browse = m.history.Len()

	if m.mode == modeCtrl {
		return m.command(line)
	}

	return m, tea.Sequence(tea.Println(m.mode.echo(line)), m.evaluate(line))
}

func (m model) evaluate(line string) tea.Cmd {
	result, err := m.env.Evaluate(m.ctxFunc(), line)
	if err != nil {
		m.logger.TraceContext(m.ctxFunc(), "repl eval failed",
			slog.String("input", line),
			slog.Any("error", err),
		)

		return tea.Println(errorStyle.Render("error: " + err.Error()))
	}

	m.logger.TraceContext(m.ctxFunc(), "repl eval",
		slog.String("input", line),
		slog.String("result", fmt.Sprintf("%T", result)),
	)

	return tea.Println(resultStyle.Render(lang.Format(result)))
}

// command runs a command-mode line. Every command has a one-letter alias.
func (m model) command(line string) (model, tea.Cmd) {
	name, args, _ := strings.Cut(line, " ")
	args = strings.TrimSpace(args)

	m.logger.TraceContext(m.ctxFunc(), "repl command",
		slog.String("command", name),
		slog.String("args", args),
	)

	echo := tea.Println(m.mode.echo(line))

	var out string

	switch name {
	case "q", "quit", "exit":
		m.quitting = true

		return m, tea.Sequence(echo, tea.Quit)

	case "c", "clear":
		return m, tea.ClearScreen

	case "e", "edit":
		return m, tea.Sequence(echo, m.edit())

	case "h", "help":
		out = usage + keys.help()

	case "l", "list":
		out = m.list()

	case "d", "def", "define":
		out = m.define(args)

	case "p", "policy":
		out = m.policy(args)

	default:
		return m, tea.Println(
			errorStyle.Render("unknown command: " + name + " (try help)"))
	}

	return m, tea.Sequence(echo, tea.Println(out))
}

// define parses "NAME EXPR" or "NAME = EXPR" and defines the expression.
func (m model) define(args string) string {
	name, source, ok := splitDefinition(args)
	if !ok {
		return errorStyle.Render("usage: def NAME EXPR")
	}

	if err := m.env.Define(m.ctxFunc(), name, source); err != nil {
		return errorStyle.Render("error: " + err.Error())
	}

	return resultStyle.Render("✔ defined " + name)
}

func splitDefinition(args string) (name, source string, ok bool) {
	i := strings.IndexAny(args, " \t=")
	if i <= 0 {
		return "", "", false
	}

	name = args[:i]
	source = strings.TrimSpace(args[i:])
	source = strings.TrimSpace(strings.TrimPrefix(source, "="))

	return name, source, source != ""
}

func (m model) policy(args string) string {
	if args == "" {
		return resultStyle.Render(m.env.Policy().String())
	}

	p, ok := lang.ParseAccessPolicy(args)
	if !ok {
		return errorStyle.Render("unknown policy: " + args)
	}

	m.env.SetPolicy(p)

	return resultStyle.Render("✔ policy " + p.String())
}

// edit suspends the session while the variables frame is edited.
func (m model) edit() tea.Cmd {
	cmd := &editVarsCommand{
		vars:    m.env.Vars(),
		ctxFunc: m.ctxFunc,
		logger:  m.logger,
	}

	return tea.Exec(cmd, func(err error) tea.Msg {
		switch {
		case errors.Is(err, ErrEditDeclined):
			return editDeclinedMsg{}
		case err != nil:
			return editErrorMsg{err: err}
		case cmd.cancelled:
			return editCancelledMsg{}
		default:
			return editVarsMsg{vars: cmd.newVars}
		}
	})
}

// list summarizes each frame of the scope stack, innermost last, then the
// named expressions.
func (m model) list() string {
	var b strings.Builder

	frames := m.env.Frames()
	for i, frame := range frames {
		fmt.Fprintf(&b, "  %s %s\n",
			frameLabel(i, len(frames)), hintStyle.Render(framePreview(frame)))
	}

	named := m.env.Named()
	for _, name := range slices.Sorted(maps.Keys(named)) {
		fmt.Fprintf(&b, "  %s %s\n",
			name+"(...)", hintStyle.Render(preview(named[name].Source())))
	}

	return b.String()
}

func frameLabel(i, n int) string {
	switch i {
	case 0:
		return "[root]"
	case n - 1:
		return "[vars]"
	default:
		return "[" + strconv.Itoa(i) + "]"
	}
}

func framePreview(frame any) string {
	switch f := frame.(type) {
	case map[string]any:
		names := slices.Sorted(maps.Keys(f))

		return preview(fmt.Sprintf("{ %d keys: %s }", len(names), strings.Join(names, ", ")))
	case []any:
		return fmt.Sprintf("[ %d items ]", len(f))
	default:
		return preview(lang.Format(frame))
	}
}

const previewWidth = 60

func preview(s string) string {
	r := []rune(s)
	if len(r) > previewWidth {
		return string(r[:previewWidth-3]) + "..."
	}

	return s
}
