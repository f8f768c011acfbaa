package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mr1hm/go-campus-alerts/internal/client"
	"github.com/mr1hm/go-campus-alerts/internal/models"
)

type stubPoller struct {
	refreshes int
	failures  int
}

func (s *stubPoller) Refresh()      { s.refreshes++ }
func (s *stubPoller) Failures() int { return s.failures }

func newTestModel(role models.Role) (Model, *client.Controller, *stubPoller) {
	ctrl := client.NewController(nil)
	poller := &stubPoller{}
	user := models.User{ID: "u1", Email: "u@example.com", Role: role}
	return NewModel(ctrl, poller, user), ctrl, poller
}

func press(m Model, r rune) (Model, tea.Cmd) {
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	return updated.(Model), cmd
}

func emergency(id, title string) models.Alert {
	return models.Alert{
		ID:          id,
		Title:       title,
		Description: "Evacuate the building",
		Severity:    models.SeverityEmergency,
		Source:      "Institution Admin",
		Active:      true,
		CreatedAt:   time.Now(),
	}
}

func TestModel_IdleView(t *testing.T) {
	m, _, _ := newTestModel(models.RoleUser)

	if !strings.Contains(m.View(), "No active alerts") {
		t.Errorf("expected idle message, got:\n%s", m.View())
	}
}

func TestModel_EmergencyBanner(t *testing.T) {
	m, ctrl, _ := newTestModel(models.RoleUser)
	ctrl.Apply([]models.Alert{emergency("e1", "Gas leak in Block C")})

	view := m.View()
	for _, want := range []string{"EMERGENCY", "Gas leak in Block C", "Evacuate the building", "Press m to mute"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected view to contain %q, got:\n%s", want, view)
		}
	}
}

func TestModel_KeysDriveController(t *testing.T) {
	m, ctrl, poller := newTestModel(models.RoleUser)
	ctrl.Apply([]models.Alert{emergency("e1", "First"), {ID: "w1", Title: "Second", Severity: models.SeverityWarning, Active: true}})

	m, _ = press(m, 'm')
	if d, ok := ctrl.Snapshot().State.(client.Displaying); !ok || !d.Muted {
		t.Errorf("expected muted emergency, got %+v", ctrl.Snapshot().State)
	}

	m, _ = press(m, 's')
	if !ctrl.Snapshot().Playing {
		t.Error("expected alarm playing after enabling sound")
	}

	m, _ = press(m, 'd')
	if d, ok := ctrl.Snapshot().State.(client.Displaying); !ok || d.Alert.ID != "w1" {
		t.Errorf("expected next alert after dismiss, got %+v", ctrl.Snapshot().State)
	}

	m, _ = press(m, 'r')
	if poller.refreshes != 1 {
		t.Errorf("expected 1 refresh, got %d", poller.refreshes)
	}

	if !strings.Contains(m.View(), "Second") {
		t.Errorf("expected second alert on screen, got:\n%s", m.View())
	}
}

func TestModel_Quit(t *testing.T) {
	m, _, _ := newTestModel(models.RoleUser)

	_, cmd := press(m, 'q')
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestModel_AdminSeesNotice(t *testing.T) {
	m, ctrl, _ := newTestModel(models.RoleSuperAdmin)
	ctrl.Apply([]models.Alert{emergency("e1", "Gas leak")})

	view := m.View()
	if strings.Contains(view, "Gas leak") {
		t.Errorf("admins must not get the banner, got:\n%s", view)
	}
	if !strings.Contains(view, "only shown to students and staff") {
		t.Errorf("expected admin notice, got:\n%s", view)
	}
}

func TestModel_ShowsFetchFailures(t *testing.T) {
	m, _, poller := newTestModel(models.RoleUser)
	poller.failures = 3

	if !strings.Contains(m.View(), "3 failed update(s)") {
		t.Errorf("expected failure notice, got:\n%s", m.View())
	}
}

func TestModel_WindowSize(t *testing.T) {
	m, _, _ := newTestModel(models.RoleUser)

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	if updated.(Model).width != 100 {
		t.Errorf("expected width 100, got %d", updated.(Model).width)
	}
}
