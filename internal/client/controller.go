// Package client keeps the watch client's view of the alerts visible to the
// signed-in user: which one is on screen, which were dismissed this session,
// and whether the emergency alarm is sounding.
package client

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/mr1hm/go-campus-alerts/internal/models"
)

// DisplayState is either Idle or Displaying.
type DisplayState interface {
	isDisplayState()
}

type Idle struct{}

type Displaying struct {
	Alert models.Alert
	Muted bool
	// SoundBlocked is set when the alarm could not start on its own and
	// waits for EnableSound.
	SoundBlocked bool
}

func (Idle) isDisplayState() {}
func (Displaying) isDisplayState() {}

// View is a point-in-time copy of the controller for rendering.
type View struct {
	State   DisplayState
	Playing bool
	// Waiting counts undismissed alerts queued behind the displayed one.
	Waiting int
}

type Controller struct {
	mu        sync.Mutex
	alarm     Alarm
	alerts    []models.Alert
	dismissed map[string]struct{}
	state     DisplayState
}

func NewController(alarm Alarm) *Controller {
	if alarm == nil {
		alarm = &NopAlarm{}
	}
	return &Controller{
		alarm:     alarm,
		dismissed: make(map[string]struct{}),
		state:     Idle{},
	}
}

// SelectAlert picks the first emergency in input order, else the first candidate.
func SelectAlert(candidates []models.Alert) (models.Alert, bool) {
	if len(candidates) == 0 {
		return models.Alert{}, false
	}
	for _, a := range candidates {
		if a.Severity == models.SeverityEmergency {
			return a, true
		}
	}
	return candidates[0], true
}

// Apply replaces the known alert list with a fresh fetch result.
func (c *Controller) Apply(alerts []models.Alert) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.alerts = append([]models.Alert(nil), alerts...)
	c.reselect()
}

// Dismiss hides the displayed alert for the rest of the session. It reports
// whether anything was dismissed.
func (c *Controller) Dismiss() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	d, ok := c.state.(Displaying)
	if !ok {
		return false
	}

	c.dismissed[d.Alert.ID] = struct{}{}
	c.alarm.Stop()
	c.state = Idle{}
	slog.Debug("alert dismissed", "alert_id", d.Alert.ID)

	c.reselect()
	return true
}

// Mute silences the alarm of a displayed emergency.
func (c *Controller) Mute() {
	c.mu.Lock()
	defer c.mu.Unlock()

	d, ok := c.displayedEmergency()
	if !ok {
		return
	}
	c.alarm.Stop()
	d.Muted = true
	c.state = d
}

// EnableSound starts the alarm from a user gesture, which autoplay policy
// always allows.
func (c *Controller) EnableSound() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	d, ok := c.displayedEmergency()
	if !ok {
		return nil
	}
	if err := c.alarm.Start(true); err != nil {
		return err
	}
	d.Muted = false
	d.SoundBlocked = false
	c.state = d
	return nil
}

// Reset starts a fresh session: dismissals are forgotten and the screen is cleared.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.alarm.Stop()
	c.alerts = nil
	c.dismissed = make(map[string]struct{})
	c.state = Idle{}
}

// StopAlarm silences the alarm without changing what is displayed.
func (c *Controller) StopAlarm() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.alarm.Stop()
}

func (c *Controller) Snapshot() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := View{
		State:   c.state,
		Playing: c.alarm.Playing(),
	}
	if _, ok := c.state.(Displaying); ok {
		v.Waiting = len(c.candidates()) - 1
	}
	return v
}

func (c *Controller) candidates() []models.Alert {
	out := make([]models.Alert, 0, len(c.alerts))
	for _, a := range c.alerts {
		if !a.Active {
			continue
		}
		if _, gone := c.dismissed[a.ID]; gone {
			continue
		}
		out = append(out, a)
	}
	return out
}

// reselect must be called with c.mu held.
func (c *Controller) reselect() {
	selected, ok := SelectAlert(c.candidates())
	if !ok {
		if _, displaying := c.state.(Displaying); displaying {
			c.alarm.Stop()
		}
		c.state = Idle{}
		return
	}

	if d, displaying := c.state.(Displaying); displaying && d.Alert.ID == selected.ID {
		d.Alert = selected
		c.state = d
		return
	}

	c.alarm.Stop()
	next := Displaying{Alert: selected}
	if selected.Severity == models.SeverityEmergency {
		err := c.alarm.Start(false)
		switch {
		case errors.Is(err, ErrAutoplayBlocked):
			next.SoundBlocked = true
		case err != nil:
			slog.Warn("failed to start alarm", "alert_id", selected.ID, "error", err)
		}
	}
	c.state = next
	slog.Debug("displaying alert", "alert_id", selected.ID, "severity", selected.Severity)
}

func (c *Controller) displayedEmergency() (Displaying, bool) {
	d, ok := c.state.(Displaying)
	if !ok || d.Alert.Severity != models.SeverityEmergency {
		return Displaying{}, false
	}
	return d, true
}
