package client

import (
	"errors"
	"io"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

// ErrAutoplayBlocked is returned when an alarm may only start after a user gesture.
var ErrAutoplayBlocked = errors.New("alarm autoplay blocked")

// Alarm is the looping emergency sound.
type Alarm interface {
	Start(userInitiated bool) error
	Stop()
	Playing() bool
}

const bellInterval = time.Second

// BellAlarm rings the terminal bell on out until stopped. Automatic starts are
// refused when autoplay is off or out is not a terminal.
type BellAlarm struct {
	out      io.Writer
	autoplay bool
	interval time.Duration

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

func NewBellAlarm(out io.Writer, autoplay bool) *BellAlarm {
	return &BellAlarm{
		out:      out,
		autoplay: autoplay,
		interval: bellInterval,
	}
}

func (b *BellAlarm) Start(userInitiated bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.stop != nil {
		return nil
	}
	if !userInitiated && !b.autoplayAllowed() {
		return ErrAutoplayBlocked
	}

	b.stop = make(chan struct{})
	b.done = make(chan struct{})
	go b.ring(b.stop, b.done)
	return nil
}

func (b *BellAlarm) ring(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		io.WriteString(b.out, "\a") // best effort

		select {
		case <-stop:
			return
		case <-ticker.C:
		}
	}
}

func (b *BellAlarm) Stop() {
	b.mu.Lock()
	stop, done := b.stop, b.done
	b.stop, b.done = nil, nil
	b.mu.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}
}

func (b *BellAlarm) Playing() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stop != nil
}

func (b *BellAlarm) autoplayAllowed() bool {
	if !b.autoplay {
		return false
	}
	f, ok := b.out.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// NopAlarm tracks playing state without making a sound.
type NopAlarm struct {
	mu      sync.Mutex
	playing bool
}

func (n *NopAlarm) Start(bool) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.playing = true
	return nil
}

func (n *NopAlarm) Stop() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.playing = false
}

func (n *NopAlarm) Playing() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.playing
}
