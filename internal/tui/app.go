// Package tui is the interactive demo shell: an address bar, the live
// surface state as it arrives from the poll bridge, and the inbound page
// message feed.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	websurface "github.com/kestrelview/websurface"
)

const maxShownMessages = 8

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("62")).Padding(0, 1)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	valueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	loadingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	idleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("78"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	msgStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("110"))
)

type stateMsg websurface.State

type pageMsg string

type model struct {
	view    *websurface.View
	address textinput.Model

	state    websurface.State
	messages []string

	states chan websurface.State
	msgs   chan string

	width  int
	height int
}

func newModel(view *websurface.View) model {
	address := textinput.New()
	address.Placeholder = "https://…"
	address.Prompt = "url> "
	address.Focus()

	return model{
		view:    view,
		address: address,
		states:  make(chan websurface.State, 16),
		msgs:    make(chan string, 64),
	}
}

// Run drives the shell until the user quits. The caller keeps ownership of
// the view.
func Run(view *websurface.View) error {
	m := newModel(view)

	// Bridge the view's callbacks into bubbletea messages. A full channel
	// drops the update; the next poll snapshot supersedes it anyway.
	removeState := view.OnStateChange(func(st websurface.State) {
		select {
		case m.states <- st:
		default:
		}
	})
	defer removeState()
	removeMsgs := view.OnMessage(func(msg string) {
		select {
		case m.msgs <- msg:
		default:
		}
	})
	defer removeMsgs()

	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

func (m model) Init() tea.Cmd {
	return tea.Batch(waitForState(m.states), waitForPageMsg(m.msgs), textinput.Blink)
}

func waitForState(ch chan websurface.State) tea.Cmd {
	return func() tea.Msg { return stateMsg(<-ch) }
}

func waitForPageMsg(ch chan string) tea.Cmd {
	return func() tea.Msg { return pageMsg(<-ch) }
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.address.Width = max(20, m.width-10)
		return m, nil

	case stateMsg:
		m.state = websurface.State(msg)
		return m, waitForState(m.states)

	case pageMsg:
		m.messages = append(m.messages, string(msg))
		if len(m.messages) > maxShownMessages {
			m.messages = m.messages[len(m.messages)-maxShownMessages:]
		}
		return m, waitForPageMsg(m.msgs)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.address, cmd = m.address.Update(msg)
	return m, cmd
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "tab":
		if m.address.Focused() {
			m.address.Blur()
		} else {
			m.address.Focus()
		}
		return m, nil
	case "enter":
		if m.address.Focused() {
			if target := strings.TrimSpace(m.address.Value()); target != "" {
				m.view.LoadURL(target, nil)
			}
			m.address.Blur()
			return m, nil
		}
	}

	if !m.address.Focused() {
		switch msg.String() {
		case "q", "esc":
			return m, tea.Quit
		case "b":
			m.view.GoBack()
			return m, nil
		case "f":
			m.view.GoForward()
			return m, nil
		case "r":
			m.view.Reload()
			return m, nil
		case "x":
			m.view.StopLoading()
			return m, nil
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.address, cmd = m.address.Update(msg)
	return m, cmd
}

func (m model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("websurface"))
	b.WriteString("\n\n")
	b.WriteString(m.address.View())
	b.WriteString("\n\n")

	b.WriteString(labelStyle.Render("status  "))
	b.WriteString(renderStatus(m.state))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("url     "))
	b.WriteString(valueStyle.Render(m.state.URL))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("title   "))
	b.WriteString(valueStyle.Render(m.state.Title))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("history "))
	b.WriteString(valueStyle.Render(renderHistory(m.state)))
	b.WriteString("\n")

	if len(m.messages) > 0 {
		b.WriteString("\n")
		b.WriteString(labelStyle.Render("page messages"))
		b.WriteString("\n")
		for _, msg := range m.messages {
			b.WriteString(msgStyle.Render("  " + msg))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("tab focus address • enter load • b/f history • r reload • x stop • q quit"))
	return b.String()
}

func renderStatus(st websurface.State) string {
	switch st.Status {
	case websurface.StatusLoading:
		return loadingStyle.Render(fmt.Sprintf("loading %s", progressBar(st.Progress)))
	case websurface.StatusIdle:
		return idleStyle.Render("idle")
	default:
		return labelStyle.Render("initializing")
	}
}

func renderHistory(st websurface.State) string {
	back, forward := "-", "-"
	if st.CanGoBack {
		back = "back"
	}
	if st.CanGoForward {
		forward = "forward"
	}
	return back + " / " + forward
}

func progressBar(progress float64) string {
	const width = 20
	filled := int(progress * width)
	if filled > width {
		filled = width
	}
	return fmt.Sprintf("[%s%s] %3.0f%%",
		strings.Repeat("█", filled),
		strings.Repeat("░", width-filled),
		progress*100)
}
