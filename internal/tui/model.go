// Package tui renders the alert banner for the watch command.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mr1hm/go-campus-alerts/internal/client"
	"github.com/mr1hm/go-campus-alerts/internal/models"
)

const refreshEvery = 250 * time.Millisecond

// Poller is the part of client.Poller the banner drives.
type Poller interface {
	Refresh()
	Failures() int
}

// tickMsg redraws the banner from the controller's latest state
type tickMsg time.Time

type Model struct {
	ctrl   *client.Controller
	poller Poller
	user   models.User

	keys    keyMap
	help    help.Model
	spinner spinner.Model

	width int
	err   error
}

func NewModel(ctrl *client.Controller, poller Poller, user models.User) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(colorMuted)

	return Model{
		ctrl:    ctrl,
		poller:  poller,
		user:    user,
		keys:    defaultKeyMap(),
		help:    help.New(),
		spinner: s,
	}
}

func tick() tea.Cmd {
	return tea.Tick(refreshEvery, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tick())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case tickMsg:
		return m, tick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Dismiss):
		m.ctrl.Dismiss()
		m.err = nil
	case key.Matches(msg, m.keys.Mute):
		m.ctrl.Mute()
	case key.Matches(msg, m.keys.EnableSound):
		m.err = m.ctrl.EnableSound()
	case key.Matches(msg, m.keys.Refresh):
		if m.poller != nil {
			m.poller.Refresh()
		}
	}
	return m, nil
}

func (m Model) View() string {
	if m.user.Role.IsAdmin() {
		return idleStyle.Render(fmt.Sprintf(
			"Signed in as %s (%s). The alert banner is only shown to students and staff.\nPress q to quit.",
			m.user.Email, m.user.Role,
		)) + "\n"
	}

	sections := []string{m.renderState(m.ctrl.Snapshot())}

	if m.poller != nil {
		if n := m.poller.Failures(); n > 0 {
			sections = append(sections, errorStyle.Render(fmt.Sprintf("  connection problem: %d failed update(s), retrying", n)))
		}
	}
	if m.err != nil {
		sections = append(sections, errorStyle.Render("  sound: "+m.err.Error()))
	}
	sections = append(sections, "  "+m.help.View(m.keys))

	return lipgloss.JoinVertical(lipgloss.Left, sections...) + "\n"
}

func (m Model) renderState(v client.View) string {
	d, ok := v.State.(client.Displaying)
	if !ok {
		return idleStyle.Render(m.spinner.View() + " No active alerts for your area.")
	}

	a := d.Alert
	var b strings.Builder
	b.WriteString(badgeFor(a.Severity).Render(strings.ToUpper(string(a.Severity))))
	b.WriteString(" ")
	b.WriteString(titleStyle.Render(a.Title))
	b.WriteString("\n\n")
	b.WriteString(a.Description)
	b.WriteString("\n\n")
	b.WriteString(metaStyle.Render(fmt.Sprintf("%s · %s", a.Source, a.CreatedAt.Local().Format("Jan 2 15:04"))))

	if a.Severity == models.SeverityEmergency {
		b.WriteString("\n")
		switch {
		case d.SoundBlocked:
			b.WriteString(hintStyle.Render("Alarm blocked. Press s to enable sound."))
		case d.Muted:
			b.WriteString(metaStyle.Render("Alarm muted. Press s to turn it back on."))
		case v.Playing:
			b.WriteString(hintStyle.Render("Alarm sounding. Press m to mute."))
		}
	}
	if v.Waiting > 0 {
		b.WriteString("\n")
		b.WriteString(metaStyle.Render(fmt.Sprintf("%d more alert(s) after this one", v.Waiting)))
	}

	style := bannerFor(a.Severity)
	if m.width > 4 {
		style = style.Width(m.width - 4)
	}
	return style.Render(b.String())
}
