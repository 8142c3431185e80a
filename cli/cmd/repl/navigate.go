package repl

// buffer is the text of the input line and the cursor position within it.
type buffer struct {
	text   string
	cursor int
}

// detour is an Alt+Up/Down walk through command history. The input and mode
// it started from are restored when the walk runs off either end.
type detour struct {
	active bool
	mode   inputMode
	origin buffer
}

func (m model) buffer() buffer {
	return buffer{text: m.input.Value(), cursor: m.input.Position()}
}

func (m *model) restore(b buffer) {
	m.input.SetValue(b.text)
	m.input.SetCursor(b.cursor)
}

// switchTo changes the input mode. Each mode keeps its own unsubmitted line.
func (m model) switchTo(mode inputMode) model {
	m.saved[m.mode] = m.buffer()
	m.mode = mode
	m.input.Prompt = mode.prompt()
	m.restore(m.saved[mode])
	m.refresh(false)

	return m
}

// show loads history entry i into the input, switching to its mode.
func (m model) show(i int) (model, bool) {
	entry, err := m.history.Entry(i)
	if err != nil {
		return m, false
	}

	if entry.Mode != m.mode {
		m = m.switchTo(entry.Mode)
	}

	m.browse = i
	m.restore(buffer{text: entry.Line, cursor: len(entry.Line)})
	m.refresh(false)

	return m, true
}

// leave stops browsing history and clears the input.
func (m model) leave() model {
	m.browse = m.history.Len()
	m.input.SetValue("")
	m.refresh(false)

	return m
}

// walk steps through all history regardless of mode. Stepping past the
// newest entry clears the input.
func (m model) walk(step int) model {
	next := m.browse + step

	switch {
	case next < 0:
		return m
	case next >= m.history.Len():
		return m.leave()
	}

	m, _ = m.show(next)

	return m
}

// nearest returns the index of the closest entry entered in mode, searching
// from the browse position by step, or -1.
func (m model) nearest(mode inputMode, step int) int {
	for i := m.browse + step; i >= 0 && i < m.history.Len(); i += step {
		if entry, err := m.history.Entry(i); err == nil && entry.Mode == mode {
			return i
		}
	}

	return -1
}

// walkMode steps through the history of the current mode only.
func (m model) walkMode(step int) model {
	if i := m.nearest(m.mode, step); i >= 0 {
		m, _ = m.show(i)

		return m
	}

	if step > 0 && m.browse < m.history.Len() {
		return m.leave()
	}

	return m
}

// walkCommands steps through command history, switching to command mode for
// the duration of the walk.
func (m model) walkCommands(step int) model {
	if !m.detour.active {
		m.detour = detour{active: true, mode: m.mode, origin: m.buffer()}
		if m.mode != modeCtrl {
			m = m.switchTo(modeCtrl)
		}
	}

	if i := m.nearest(modeCtrl, step); i >= 0 {
		m, _ = m.show(i)

		return m
	}

	m.detour.active = false
	if m.mode != m.detour.mode {
		m = m.switchTo(m.detour.mode)
	}

	m.restore(m.detour.origin)
	m.browse = m.history.Len()
	m.refresh(false)

	return m
}
