// Package session walks a client through one training day: a short
// countdown, the exercises in order, then the acknowledgement that records
// the day as done.
package session

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/TezottoWell/app-rodrigo-martins/internal/domain"
)

// State of a Player.
type State string

const (
	StateIdle       State = "idle"
	StateCountdown  State = "countdown"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
)

// CountdownSeconds is the length of the countdown before a day starts.
const CountdownSeconds = 5

// ErrInvalidTransition is returned when an operation does not apply to the
// current state.
var ErrInvalidTransition = errors.New("operation not allowed in current session state")

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock in UTC.
var SystemClock = ClockFunc(func() time.Time { return time.Now().UTC() })

// Completion describes an acknowledged day.
type Completion struct {
	Day           int
	CycleComplete bool
	Plan          *domain.WorkoutPlan
}

// Player is the state machine for a single training session. It is not safe
// for concurrent use.
type Player struct {
	clock Clock

	state          State
	plan           *domain.WorkoutPlan
	day            int
	countdown      int
	countdownSince time.Time
	startedAt      time.Time
	elapsed        time.Duration
	remaining      []domain.WorkoutItem
	completed      []domain.WorkoutItem
}

// NewPlayer returns an idle player. A nil clock uses SystemClock.
func NewPlayer(clock Clock) *Player {
	if clock == nil {
		clock = SystemClock
	}
	return &Player{clock: clock, state: StateIdle}
}

func (p *Player) State() State { return p.state }

// SelectDay loads the items of day and starts the countdown. The plan is
// copied, so later changes to it do not affect the session.
func (p *Player) SelectDay(plan *domain.WorkoutPlan, day int) error {
	if p.state != StateIdle {
		return fmt.Errorf("select day while %s: %w", p.state, ErrInvalidTransition)
	}
	items := plan.Days[day]
	if len(items) == 0 {
		return domain.Invalid("day", "day %d has no items", day)
	}
	p.plan = plan.Clone()
	p.day = day
	p.remaining = p.plan.Days[day]
	p.completed = nil
	p.countdown = CountdownSeconds
	p.countdownSince = p.clock.Now()
	p.state = StateCountdown
	return nil
}

// Tick decrements the countdown by one second. Reaching zero starts the
// session.
func (p *Player) Tick() error {
	if p.state != StateCountdown {
		return fmt.Errorf("tick while %s: %w", p.state, ErrInvalidTransition)
	}
	p.countdown--
	if p.countdown <= 0 {
		p.start(p.clock.Now())
	}
	return nil
}

// Sync applies one tick for every whole second elapsed since the countdown
// began. It is a no-op outside the countdown.
func (p *Player) Sync() {
	if p.state != StateCountdown {
		return
	}
	due := int(p.clock.Now().Sub(p.countdownSince)/time.Second) - (CountdownSeconds - p.countdown)
	for ; due > 0 && p.state == StateCountdown; due-- {
		p.countdown--
		if p.countdown <= 0 {
			p.start(p.countdownSince.Add(CountdownSeconds * time.Second))
		}
	}
}

func (p *Player) start(at time.Time) {
	p.countdown = 0
	p.startedAt = at
	p.state = StateInProgress
}

// CompleteItem moves the item at index from remaining to completed. When
// nothing remains the session is Completed and the elapsed time is fixed.
func (p *Player) CompleteItem(index int) error {
	if p.state != StateInProgress {
		return fmt.Errorf("complete item while %s: %w", p.state, ErrInvalidTransition)
	}
	if index < 0 || index >= len(p.remaining) {
		return domain.Invalid("index", "no remaining item %d", index)
	}
	item := p.remaining[index]
	p.remaining = append(p.remaining[:index:index], p.remaining[index+1:]...)
	p.completed = append(p.completed, item)
	if len(p.remaining) == 0 {
		p.elapsed = p.clock.Now().Sub(p.startedAt)
		p.state = StateCompleted
	}
	return nil
}

// Acknowledge records the finished day on the plan and returns to Idle.
// save, when not nil, persists the updated plan first; if it fails the
// player stays Completed so the caller can retry. A plan that no longer
// exists cannot be retried: the session is dropped and the player is Idle.
func (p *Player) Acknowledge(save func(*domain.WorkoutPlan) error) (Completion, error) {
	if p.state != StateCompleted {
		return Completion{}, fmt.Errorf("acknowledge while %s: %w", p.state, ErrInvalidTransition)
	}
	plan := p.plan.Clone()
	cycle, err := plan.CompleteDay(p.day, p.clock.Now())
	if err != nil {
		return Completion{}, err
	}
	if save != nil {
		if err := save(plan); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				p.reset()
			}
			return Completion{}, err
		}
	}
	done := Completion{Day: p.day, CycleComplete: cycle, Plan: plan}
	p.reset()
	return done, nil
}

// LeaveDay abandons the countdown or the session in progress without
// recording anything. Leaving while idle does nothing.
func (p *Player) LeaveDay() error {
	switch p.state {
	case StateIdle:
		return nil
	case StateCountdown, StateInProgress:
		p.reset()
		return nil
	default:
		return fmt.Errorf("leave day while %s: %w", p.state, ErrInvalidTransition)
	}
}

func (p *Player) reset() {
	clock := p.clock
	*p = Player{clock: clock, state: StateIdle}
}

// Snapshot is a read-only view of the player.
type Snapshot struct {
	State       State                `json:"state"`
	PlanID      string               `json:"planId,omitempty"`
	Day         int                  `json:"day,omitempty"`
	Countdown   int                  `json:"countdown"`
	Remaining   []domain.WorkoutItem `json:"remaining"`
	Completed   []domain.WorkoutItem `json:"completed"`
	StartedAt   *time.Time           `json:"startedAt,omitempty"`
	Elapsed     time.Duration        `json:"elapsedNanos"`
	ElapsedText string               `json:"elapsed,omitempty"`
}

// Latest is the most recently completed item, if any.
func (s Snapshot) Latest() (domain.WorkoutItem, bool) {
	if len(s.Completed) == 0 {
		return domain.WorkoutItem{}, false
	}
	return s.Completed[len(s.Completed)-1], true
}

// Snapshot copies the current state.
func (p *Player) Snapshot() Snapshot {
	s := Snapshot{
		State:     p.state,
		Day:       p.day,
		Countdown: p.countdown,
		Remaining: domain.DayPlans{0: p.remaining}.Clone()[0],
		Completed: domain.DayPlans{0: p.completed}.Clone()[0],
	}
	if p.plan != nil {
		s.PlanID = p.plan.ID.Hex()
	}
	switch p.state {
	case StateInProgress:
		started := p.startedAt
		s.StartedAt = &started
		s.Elapsed = p.clock.Now().Sub(p.startedAt)
	case StateCompleted:
		started := p.startedAt
		s.StartedAt = &started
		s.Elapsed = p.elapsed
		s.ElapsedText = FormatElapsed(p.elapsed)
	}
	return s
}

// FormatElapsed renders d as "1h 2min 3s", leaving out zero hours and zero
// minutes. Seconds are always shown.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	h, m, s := total/3600, total%3600/60, total%60
	var parts []string
	if h > 0 {
		parts = append(parts, fmt.Sprintf("%dh", h))
	}
	if m > 0 {
		parts = append(parts, fmt.Sprintf("%dmin", m))
	}
	parts = append(parts, fmt.Sprintf("%ds", s))
	return strings.Join(parts, " ")
}
