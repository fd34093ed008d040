package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/evertras/bubble-table/table"

	serialstream "github.com/allbin/go-serialstream"
)

const (
	signalPollInterval = 250 * time.Millisecond
	breakDuration      = 250 * time.Millisecond
	readChunkSize      = 1024
	maxDataLines       = 500
)

type signalsMsg struct {
	signals serialstream.Signals
	err     error
}

type dataMsg struct {
	data []byte
	err  error
}

type actionMsg struct {
	label string
	err   error
}

type tickMsg time.Time

// Model is the bubbletea model for the interactive monitor.
type Model struct {
	stream *serialstream.Stream
	ctx    context.Context
	cancel context.CancelFunc

	keys     KeyMap
	help     help.Model
	viewport viewport.Model
	table    table.Model

	signals    serialstream.Signals
	signalsErr error
	lines      []string
	status     string
	eof        bool

	width  int
	height int
	ready  bool
}

// New builds a monitor model for an already-open stream. The model does
// not close the stream; the caller owns its lifecycle.
func New(stream *serialstream.Stream) Model {
	ctx, cancel := context.WithCancel(context.Background())

	columns := []table.Column{
		table.NewColumn("signal", "Signal", 8),
		table.NewColumn("dir", "Direction", 10),
		table.NewColumn("state", "State", 6),
	}

	return Model{
		stream: stream,
		ctx:    ctx,
		cancel: cancel,
		keys:   DefaultKeyMap(),
		help:   help.New(),
		table:  table.New(columns).WithBaseStyle(tableBaseStyle),
		status: "connected",
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.pollSignals(), m.readChunk(), tickCmd())
}

func tickCmd() tea.Cmd {
	return tea.Tick(signalPollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) pollSignals() tea.Cmd {
	return func() tea.Msg {
		signals, err := m.stream.GetModemSignals()
		return signalsMsg{signals: signals, err: err}
	}
}

func (m Model) readChunk() tea.Cmd {
	return func() tea.Msg {
		data, err := m.stream.ReceiveSome(m.ctx, readChunkSize)
		return dataMsg{data: data, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		vpHeight := msg.Height - 12
		if vpHeight < 3 {
			vpHeight = 3
		}
		if !m.ready {
			m.viewport = viewport.New(msg.Width-4, vpHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width - 4
			m.viewport.Height = vpHeight
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.cancel()
			return m, tea.Quit
		case key.Matches(msg, m.keys.ToggleRTS):
			target := !m.signals.RTS
			return m, m.action(fmt.Sprintf("RTS %s", stateLabel(target)), func() error {
				return m.stream.SetRTS(target)
			})
		case key.Matches(msg, m.keys.ToggleDTR):
			target := !m.signals.DTR
			return m, m.action(fmt.Sprintf("DTR %s", stateLabel(target)), func() error {
				return m.stream.SetDTR(target)
			})
		case key.Matches(msg, m.keys.SendBreak):
			return m, m.action("break sent", func() error {
				return m.stream.SendBreak(breakDuration)
			})
		case key.Matches(msg, m.keys.DiscardInput):
			return m, m.action("input flushed", m.stream.DiscardInput)
		case key.Matches(msg, m.keys.DiscardOutput):
			return m, m.action("output flushed", m.stream.DiscardOutput)
		}

	case tickMsg:
		return m, tea.Batch(m.pollSignals(), tickCmd())

	case signalsMsg:
		m.signals = msg.signals
		m.signalsErr = msg.err
		m.table = m.table.WithRows(m.signalRows())
		return m, nil

	case dataMsg:
		return m.handleData(msg)

	case actionMsg:
		if msg.err != nil {
			m.status = errorStyle.Render(fmt.Sprintf("%s failed: %v", msg.label, msg.err))
		} else {
			m.status = msg.label
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) action(label string, fn func() error) tea.Cmd {
	return func() tea.Msg {
		return actionMsg{label: label, err: fn()}
	}
}

func (m Model) handleData(msg dataMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.err == nil:
		m.appendData(msg.data)
		return m, m.readChunk()
	case errors.Is(msg.err, io.EOF):
		m.eof = true
		m.status = errorStyle.Render("peer hung up (end of stream)")
		return m, nil
	case errors.Is(msg.err, context.Canceled):
		return m, nil
	default:
		m.status = errorStyle.Render(fmt.Sprintf("read failed: %v", msg.err))
		return m, nil
	}
}

func (m *Model) appendData(data []byte) {
	stamp := time.Now().Format("15:04:05.000")
	for offset := 0; offset < len(data); offset += 16 {
		end := offset + 16
		if end > len(data) {
			end = len(data)
		}
		m.lines = append(m.lines, fmt.Sprintf("%s  %s", stamp, hexLine(data[offset:end])))
	}
	if len(m.lines) > maxDataLines {
		m.lines = m.lines[len(m.lines)-maxDataLines:]
	}
	if m.ready {
		m.viewport.SetContent(strings.Join(m.lines, "\n"))
		m.viewport.GotoBottom()
	}
}

func hexLine(chunk []byte) string {
	var hexPart strings.Builder
	var asciiPart strings.Builder
	for _, b := range chunk {
		fmt.Fprintf(&hexPart, "%02x ", b)
		if b >= 0x20 && b < 0x7f {
			asciiPart.WriteByte(b)
		} else {
			asciiPart.WriteByte('.')
		}
	}
	return fmt.Sprintf("%-48s |%s|", hexPart.String(), asciiPart.String())
}

func (m Model) signalRows() []table.Row {
	if m.signalsErr != nil {
		return nil
	}
	return []table.Row{
		signalRow("RTS", "output", m.signals.RTS),
		signalRow("DTR", "output", m.signals.DTR),
		signalRow("CTS", "input", m.signals.CTS),
		signalRow("DSR", "input", m.signals.DSR),
		signalRow("DCD", "input", m.signals.DCD),
		signalRow("RI", "input", m.signals.RI),
	}
}

func signalRow(name, direction string, state bool) table.Row {
	style := lowStyle
	if state {
		style = highStyle
	}
	return table.NewRow(table.RowData{
		"signal": name,
		"dir":    direction,
		"state":  table.NewStyledCell(stateLabel(state), style),
	})
}

func stateLabel(state bool) string {
	if state {
		return "HIGH"
	}
	return "LOW"
}

func (m Model) View() string {
	if !m.ready {
		return "initializing..."
	}

	title := titleStyle.Render(fmt.Sprintf(" %s  %s ", m.stream.Port(), m.stream.Config()))

	signalView := m.table.View()
	if m.signalsErr != nil {
		signalView = statusStyle.Render(fmt.Sprintf("modem signals unavailable: %v", m.signalsErr))
	}

	status := statusStyle.Render(m.status)
	if m.eof {
		status = errorStyle.Render("end of stream")
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		"",
		signalView,
		"",
		viewportStyle.Render(m.viewport.View()),
		status,
		helpStyle.Render(m.help.View(m.keys)),
	)
}
