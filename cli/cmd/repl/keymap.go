package repl

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/key"

	tea "github.com/charmbracelet/bubbletea"
)

// keyMap binds the keys a session reacts to. Keys not bound here are passed
// to the text input.
type keyMap struct {
	Interrupt key.Binding
	EOF       key.Binding
	Submit    key.Binding
	Next      key.Binding
	Prev      key.Binding
	Older     key.Binding
	Newer     key.Binding
	OlderMode key.Binding
	NewerMode key.Binding
	OlderCtrl key.Binding
	NewerCtrl key.Binding
	Toggle    key.Binding
}

var keys = keyMap{
	Interrupt: key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("ctrl+c", "clear line, or exit on an empty line"),
	),
	EOF: key.NewBinding(
		key.WithKeys("ctrl+d"),
		key.WithHelp("ctrl+d", "exit on an empty line"),
	),
	Submit: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "evaluate, or accept the selected candidate"),
	),
	Next: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "next candidate"),
	),
	Prev: key.NewBinding(
		key.WithKeys("shift+tab"),
		key.WithHelp("shift+tab", "previous candidate"),
	),
	Older: key.NewBinding(
		key.WithKeys("up"),
		key.WithHelp("up", "older history entry, switching mode to match"),
	),
	Newer: key.NewBinding(
		key.WithKeys("down"),
		key.WithHelp("down", "newer history entry, switching mode to match"),
	),
	OlderMode: key.NewBinding(
		key.WithKeys("shift+up"),
		key.WithHelp("shift+up", "older history entry in the current mode"),
	),
	NewerMode: key.NewBinding(
		key.WithKeys("shift+down"),
		key.WithHelp("shift+down", "newer history entry in the current mode"),
	),
	OlderCtrl: key.NewBinding(
		key.WithKeys("alt+up"),
		key.WithHelp("alt+up", "older command, restoring the input past the end"),
	),
	NewerCtrl: key.NewBinding(
		key.WithKeys("alt+down"),
		key.WithHelp("alt+down", "newer command, restoring the input past the end"),
	),
	Toggle: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "cancel cycling, or toggle eval and command mode"),
	),
}

// bindings returns every binding in the order help lists them.
func (k keyMap) bindings() []key.Binding {
	return []key.Binding{
		k.Toggle, k.Next, k.Prev, k.Submit,
		k.Older, k.Newer, k.OlderMode, k.NewerMode, k.OlderCtrl, k.NewerCtrl,
		k.Interrupt, k.EOF,
	}
}

func (k keyMap) help() string {
	var b strings.Builder

	for _, binding := range k.bindings() {
		h := binding.Help()
		fmt.Fprintf(&b, "  %-12s %s\n", h.Key, h.Desc)
	}

	return b.String()
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	m.logger.TraceContext(m.ctxFunc(), "repl key",
		slog.String("key", msg.String()),
	)

	switch {
	case key.Matches(msg, keys.Interrupt):
		if m.input.Value() == "" {
			return m.quit()
		}

		m.input.SetValue("")
		m.comp.cycling = false
		m.detour.active = false
		m.browse = m.history.Len()
		m.refresh(false)

		return m, nil

	case key.Matches(msg, keys.EOF):
		if m.input.Value() == "" {
			return m.quit()
		}

		return m, nil

	case key.Matches(msg, keys.Submit):
		m.detour.active = false

		if m.comp.cycling && !m.comp.empty() {
			m.comp.cycling = false
			m.refresh(true)

			return m, nil
		}

		return m.submit()

	case key.Matches(msg, keys.Next):
		return m.cycle(1), nil

	case key.Matches(msg, keys.Prev):
		return m.cycle(-1), nil

	case key.Matches(msg, keys.OlderCtrl):
		return m.walkCommands(-1), nil

	case key.Matches(msg, keys.NewerCtrl):
		return m.walkCommands(1), nil

	case key.Matches(msg, keys.Older):
		return m.walk(-1), nil

	case key.Matches(msg, keys.Newer):
		return m.walk(1), nil

	case key.Matches(msg, keys.OlderMode):
		return m.walkMode(-1), nil

	case key.Matches(msg, keys.NewerMode):
		return m.walkMode(1), nil

	case key.Matches(msg, keys.Toggle):
		if m.comp.cycling {
			m.comp.cycling = false
			m.restore(m.comp.origin)
			m.refresh(false)

			return m, nil
		}

		m.detour.active = false

		return m.switchTo(1 - m.mode), nil
	}

	// Typed text may auto-accept a sole exact candidate. Editing and cursor
	// keys only recompute.
	typed := msg.Type == tea.KeyRunes
	if typed && m.comp.cycling && msg.String() == " " {
		m.comp.cycling = false
	}

	if !typed {
		m.comp.cycling = false
		m.detour.active = false
	}

	var cmd tea.Cmd

	m.browse = m.history.Len()
	m.input, cmd = m.input.Update(msg)
	m.refresh(typed)

	return m, cmd
}

func (m model) quit() (model, tea.Cmd) {
	m.quitting = true

	return m, tea.Quit
}

// cycle moves the selected candidate by step, starting a cycle if none is
// active. A sole candidate is completed immediately.
func (m model) cycle(step int) model {
	n := len(m.comp.matches)

	switch {
	case n == 0:
		return m

	case n == 1:
		m.replaceWord(m.comp.matches[0].Str)
		m.comp = completion{selected: -1}

		return m

	case m.comp.cycling:
		m.comp.selected = (m.comp.selected + step + n) % n

	default:
		m.comp.cycling = true
		m.comp.origin = m.buffer()

		m.comp.selected = 0
		if step < 0 {
			m.comp.selected = n - 1
		}
	}

	m.replaceWord(m.comp.matches[m.comp.selected].Str)

	return m
}

// replaceWord substitutes the word being completed and moves the cursor to
// its end.
func (m *model) replaceWord(s string) {
	input := m.input.Value()
	end := m.comp.start + len(s)

	m.input.SetValue(input[:m.comp.start] + s + input[m.comp.end:])
	m.input.SetCursor(end)

	m.comp.end = end
}

// refresh recomputes the completion for the current input. With accept, a
// sole candidate equal to the typed word is taken and the bar cleared.
func (m *model) refresh(accept bool) {
	cycling, selected, origin := m.comp.cycling, m.comp.selected, m.comp.origin

	m.comp = complete(m.ctxFunc(), m.env, m.mode, m.input.Value(), m.input.Position())
	if cycling && selected < len(m.comp.matches) {
		m.comp.cycling, m.comp.selected, m.comp.origin = true, selected, origin
	}

	if !accept || len(m.comp.matches) != 1 {
		return
	}

	only := m.comp.matches[0].Str
	if m.input.Value()[m.comp.start:m.comp.end] == only {
		m.replaceWord(only)
		m.comp = completion{selected: -1}
	}
}
