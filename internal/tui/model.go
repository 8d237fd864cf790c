package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"rentcal/internal/app/picker"
	"rentcal/internal/domain/calendar"
	"rentcal/internal/domain/shared/daterange"
)

// Options wires the optional side effects of the picker.
type Options struct {
	Title string
	// Reload fetches the blocked dates again; nil disables the key.
	Reload func() ([]string, error)
	// Save stores the current selection; nil disables the key.
	Save   func(calendar.DatesSelected) error
	Styles *Styles
}

type reloadedMsg struct {
	dates []string
	err   error
}

// Model is the interactive picker. All selection logic lives in the store;
// the model only moves a day cursor and translates keys into actions.
type Model struct {
	store   *picker.Store
	now     func() time.Time
	opts    Options
	styles  Styles
	keys    keyMap
	help    help.Model
	cursor  time.Time
	status  string
	failed  bool
	emitted []calendar.DatesSelected
	quit    bool
}

func New(store *picker.Store, now func() time.Time, opts Options) Model {
	if now == nil {
		now = time.Now
	}
	st := DefaultStyles()
	if opts.Styles != nil {
		st = *opts.Styles
	}
	m := Model{store: store, now: now, opts: opts, styles: st, keys: defaultKeys(), help: help.New()}
	m.cursor = m.initialCursor()
	return m
}

// Emitted lists every emission in order, the way an embedding page would
// have received them.
func (m Model) Emitted() []calendar.DatesSelected { return m.emitted }

// Dates is the selection at the time the model stopped.
func (m Model) Dates() calendar.DatesSelected { return m.store.State().Selection.Dates() }

func (m Model) Cursor() time.Time { return m.cursor }

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil
	case reloadedMsg:
		if msg.err != nil {
			m.setError("reload failed: " + msg.err.Error())
			return m, nil
		}
		m.store.Dispatch(picker.ReplaceBlocked{Dates: msg.dates})
		m.setStatus(fmt.Sprintf("%d blocked days loaded", len(msg.dates)))
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quit = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Left):
		m.moveCursor(0, -1)
	case key.Matches(msg, m.keys.Right):
		m.moveCursor(0, 1)
	case key.Matches(msg, m.keys.Up):
		m.moveCursor(0, -7)
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(0, 7)
	case key.Matches(msg, m.keys.Next):
		m.moveCursor(1, 0)
	case key.Matches(msg, m.keys.Prev):
		m.moveCursor(-1, 0)
	case key.Matches(msg, m.keys.Click):
		m.click()
	case key.Matches(msg, m.keys.Clear):
		m.record(m.store.Dispatch(picker.ClearDates{}))
		m.setStatus("Dates cleared")
	case key.Matches(msg, m.keys.Refresh):
		if m.opts.Reload == nil {
			return m, nil
		}
		m.setStatus("Reloading availability…")
		reload := m.opts.Reload
		return m, func() tea.Msg {
			dates, err := reload()
			return reloadedMsg{dates: dates, err: err}
		}
	case key.Matches(msg, m.keys.Save):
		m.save()
	}
	return m, nil
}

func (m *Model) click() {
	emitted := m.store.Dispatch(picker.ClickDay{Date: m.cursor})
	if emitted == nil {
		day := calendar.DayFor(m.cursor, m.store.State().Blocked, m.store.State().Selection, m.now().In(m.zone()))
		switch {
		case day.IsPast:
			m.setError("That day is in the past")
		case day.IsBlocked:
			m.setError("That day is not available")
		}
		return
	}
	m.record(emitted)
	m.setStatus(Summary(*emitted, m.store.State().Selection.Nights()))
}

func (m *Model) save() {
	if m.opts.Save == nil {
		return
	}
	if err := m.opts.Save(m.Dates()); err != nil {
		m.setError("save failed: " + err.Error())
		return
	}
	m.setStatus("Draft saved")
}

func (m *Model) record(d *calendar.DatesSelected) {
	if d != nil {
		m.emitted = append(m.emitted, *d)
	}
}

// moveCursor shifts the cursor and scrolls the two-month window so that the
// cursor stays visible. The cursor never enters a month before the current.
func (m *Model) moveCursor(months, days int) {
	zone := m.zone()
	next := m.cursor.AddDate(0, months, days)
	if months != 0 {
		// Keep the day of month where possible: Jan 31 + 1 month is Feb 28.
		first := daterange.FirstOfMonth(m.cursor).AddDate(0, months, 0)
		day := min(m.cursor.Day(), daterange.DaysInMonth(first.Year(), first.Month()))
		next = time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, zone)
	}
	current := daterange.FirstOfMonth(m.now().In(zone))
	if next.Before(current) {
		next = current
	}
	m.cursor = next

	state := m.store.State()
	first := daterange.FirstOfMonth(state.Month.In(zone))
	switch {
	case m.cursor.Before(first):
		m.store.Dispatch(picker.ShowMonth{Month: m.cursor})
	case !m.cursor.Before(state.VisibleUntil()):
		m.store.Dispatch(picker.ShowMonth{Month: daterange.FirstOfMonth(m.cursor).AddDate(0, -1, 0)})
	}
}

func (m *Model) setStatus(s string) { m.status, m.failed = s, false }
func (m *Model) setError(s string)  { m.status, m.failed = s, true }

func (m Model) zone() *time.Location {
	if z := m.store.State().Zone; z != nil {
		return z
	}
	return time.Local
}

// initialCursor starts on the check-in when one is seeded, else on today or
// the first day of the shown month, whichever is later.
func (m Model) initialCursor() time.Time {
	state := m.store.State()
	zone := m.zone()
	if !state.Selection.CheckIn.IsZero() {
		return daterange.StartOfDay(state.Selection.CheckIn.In(zone))
	}
	today := daterange.StartOfDay(m.now().In(zone))
	first := daterange.FirstOfMonth(state.Month.In(zone))
	if first.After(today) {
		return first
	}
	return today
}

func (m Model) View() string {
	if m.quit {
		return ""
	}
	view := m.store.View()
	var b strings.Builder
	if m.opts.Title != "" {
		b.WriteString(m.styles.Title.Render(m.opts.Title) + "\n\n")
	}
	b.WriteString(RenderMonths(view.Months, m.cursor, m.styles))
	b.WriteString("\n\n")
	b.WriteString(Summary(view.Dates, view.Nights) + "\n")
	if m.status != "" {
		style := m.styles.Status
		if m.failed {
			style = m.styles.Error
		}
		b.WriteString(style.Render(m.status) + "\n")
	}
	b.WriteString("\n" + m.help.View(m.keys))
	return b.String()
}

// Run starts the picker full screen and returns the final model.
func Run(store *picker.Store, opts Options) (Model, error) {
	final, err := tea.NewProgram(New(store, time.Now, opts), tea.WithAltScreen()).Run()
	if err != nil {
		return Model{}, err
	}
	return final.(Model), nil
}
