package sim

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"fleetops-sim/internal/alarm"
	"fleetops-sim/internal/fleet"
)

// teaProgram abstracts bubbletea.Program for testing.
type teaProgram interface {
	Send(tea.Msg)
}

// snapshotMsg carries one asset snapshot into the model.
type snapshotMsg struct{ fleet.SnapshotRow }

// alarmMsg carries a rendered alarm line.
type alarmMsg struct{ line string }

const maxAlarmLines = 500

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	warningStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	criticalStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// TUIWriter renders the live fleet table and alarm feed using bubbletea.
type TUIWriter struct {
	program    teaProgram
	done       chan struct{}
	sendSignal atomic.Bool
}

// NewTUIWriter starts a bubbletea program and returns a TUIWriter.
func NewTUIWriter() *TUIWriter {
	w := &TUIWriter{done: make(chan struct{})}
	w.sendSignal.Store(true)
	p := tea.NewProgram(newTUIModel(), tea.WithAltScreen())
	w.program = p
	go func() {
		_, _ = p.Run()
		close(w.done)
		if w.sendSignal.Load() {
			if proc, err := os.FindProcess(os.Getpid()); err == nil {
				_ = proc.Signal(os.Interrupt)
			}
		}
	}()
	return w
}

// WriteSnapshot implements SnapshotWriter.
func (w *TUIWriter) WriteSnapshot(row fleet.SnapshotRow) error {
	w.program.Send(snapshotMsg{row})
	return nil
}

// WriteSnapshots outputs multiple snapshot rows.
func (w *TUIWriter) WriteSnapshots(rows []fleet.SnapshotRow) error {
	for _, r := range rows {
		_ = w.WriteSnapshot(r)
	}
	return nil
}

// WriteAlarm implements AlarmWriter.
func (w *TUIWriter) WriteAlarm(a alarm.Alarm) error {
	style := dimStyle
	switch a.Severity {
	case alarm.SeverityWarning:
		style = warningStyle
	case alarm.SeverityCritical:
		style = criticalStyle
	}
	line := fmt.Sprintf("%s %s asset=%s %s",
		dimStyle.Render(a.Timestamp.Format(time.RFC3339)),
		style.Render(string(a.Type)),
		a.AssetID,
		a.Rule,
	)
	w.program.Send(alarmMsg{line: line})
	return nil
}

// Close shuts down the TUI program and waits for cleanup.
func (w *TUIWriter) Close() error {
	w.sendSignal.Store(false)
	if w.program != nil {
		w.program.Send(tea.Quit())
	}
	if w.done != nil {
		<-w.done
	}
	return nil
}

type tuiModel struct {
	table     table.Model
	vp        viewport.Model
	latest    map[string]fleet.SnapshotRow
	alarmLog  []string
	width     int
	height    int
	wrap      bool
	numAlarms int
}

func newTUIModel() tuiModel {
	cols := []table.Column{
		{Title: "Asset", Width: 34},
		{Title: "Kind", Width: 14},
		{Title: "Status", Width: 12},
		{Title: "Lat", Width: 10},
		{Title: "Lon", Width: 10},
		{Title: "Energy", Width: 12},
	}
	t := table.New(table.WithColumns(cols), table.WithHeight(12))
	return tuiModel{
		table:  t,
		vp:     viewport.New(0, 0),
		latest: make(map[string]fleet.SnapshotRow),
	}
}

func (m tuiModel) Init() tea.Cmd { return nil }

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.vp.Width = msg.Width
		m.resize()
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "w":
			m.wrap = !m.wrap
			m.refreshAlarms()
		case "j", "down":
			m.vp.LineDown(1)
		case "k", "up":
			m.vp.LineUp(1)
		}
	case snapshotMsg:
		m.latest[msg.AssetID] = msg.SnapshotRow
		m.refreshTable()
	case alarmMsg:
		m.numAlarms++
		m.alarmLog = append(m.alarmLog, msg.line)
		if len(m.alarmLog) > maxAlarmLines {
			m.alarmLog = m.alarmLog[len(m.alarmLog)-maxAlarmLines:]
		}
		m.refreshAlarms()
	}
	return m, nil
}

func (m *tuiModel) resize() {
	tableHeight := m.table.Height() + 3
	h := m.height - tableHeight - 4
	if h < 1 {
		h = 1
	}
	m.vp.Height = h
}

func (m *tuiModel) refreshTable() {
	ids := make([]string, 0, len(m.latest))
	for id := range m.latest {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	rows := make([]table.Row, 0, len(ids))
	for _, id := range ids {
		r := m.latest[id]
		energy := "-"
		if r.HasEnergySource && r.EnergyLevel != nil {
			energy = fmt.Sprintf("%.1f%% %s", *r.EnergyLevel, r.EnergyKind)
		}
		rows = append(rows, table.Row{
			r.AssetID,
			string(r.Kind),
			string(r.Status),
			fmt.Sprintf("%.5f", r.Lat),
			fmt.Sprintf("%.5f", r.Lon),
			energy,
		})
	}
	m.table.SetRows(rows)
}

func (m *tuiModel) refreshAlarms() {
	lines := m.alarmLog
	if m.wrap && m.vp.Width > 0 {
		wrapped := make([]string, len(lines))
		for i, l := range lines {
			wrapped[i] = wordwrap.String(l, m.vp.Width)
		}
		lines = wrapped
	}
	content := "none"
	if len(lines) > 0 {
		content = strings.Join(lines, "\n")
	}
	m.vp.SetContent(content)
	m.vp.GotoBottom()
}

func (m tuiModel) View() string {
	divider := strings.Repeat("─", m.width)
	sections := []string{
		headerStyle.Render(fmt.Sprintf("fleetops-sim  assets=%d  alarms=%d", len(m.latest), m.numAlarms)),
		m.table.View(),
		divider,
		"Alarms:",
		m.vp.View(),
		divider,
		dimStyle.Render("q quit · w wrap · j/k scroll"),
	}
	return strings.Join(sections, "\n")
}
