package session

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/TezottoWell/app-rodrigo-martins/internal/domain"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 6, 7, 0, 0, 0, time.UTC)}
}

func exercise(name string) domain.Exercise {
	return domain.Exercise{MuscleGroup: domain.MuscleBack, Name: name, RepsOrDuration: "10", Sets: "3"}
}

func testPlan(t *testing.T) *domain.WorkoutPlan {
	t.Helper()
	combo, err := domain.ComboItem([]domain.Exercise{exercise("Pull-up"), exercise("Row")})
	if err != nil {
		t.Fatal(err)
	}
	return &domain.WorkoutPlan{
		ID:        primitive.NewObjectID(),
		OwnerID:   primitive.NewObjectID(),
		Frequency: 2,
		Days: domain.DayPlans{
			1: {domain.SingleItem(exercise("Deadlift")), combo, domain.SingleItem(exercise("Shrug"))},
			2: {domain.SingleItem(exercise("Plank"))},
		},
		CompletedDays: domain.DaySet{},
	}
}

// startSession selects day and ticks through the countdown.
func startSession(t *testing.T, p *Player, plan *domain.WorkoutPlan, day int) {
	t.Helper()
	if err := p.SelectDay(plan, day); err != nil {
		t.Fatalf("SelectDay: %v", err)
	}
	for i := 0; i < CountdownSeconds; i++ {
		if err := p.Tick(); err != nil {
			t.Fatalf("Tick %d: %v", i, err)
		}
	}
	if p.State() != StateInProgress {
		t.Fatalf("state after countdown = %s", p.State())
	}
}

func TestCountdown(t *testing.T) {
	clock := newClock()
	p := NewPlayer(clock)
	if err := p.SelectDay(testPlan(t), 1); err != nil {
		t.Fatal(err)
	}
	for want := CountdownSeconds - 1; want > 0; want-- {
		clock.Advance(time.Second)
		_ = p.Tick()
		if s := p.Snapshot(); s.State != StateCountdown || s.Countdown != want {
			t.Fatalf("snapshot = %s/%d, want countdown/%d", s.State, s.Countdown, want)
		}
	}
	clock.Advance(time.Second)
	_ = p.Tick()
	s := p.Snapshot()
	if s.State != StateInProgress || s.StartedAt == nil || !s.StartedAt.Equal(clock.now) {
		t.Fatalf("snapshot after countdown = %+v", s)
	}
	if err := p.Tick(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("tick in progress: err = %v", err)
	}
}

func TestSyncCatchesUpCountdown(t *testing.T) {
	clock := newClock()
	p := NewPlayer(clock)
	_ = p.SelectDay(testPlan(t), 1)
	start := clock.now

	clock.Advance(2500 * time.Millisecond)
	p.Sync()
	if s := p.Snapshot(); s.Countdown != 3 {
		t.Fatalf("countdown = %d, want 3", s.Countdown)
	}

	clock.Advance(10 * time.Second)
	p.Sync()
	s := p.Snapshot()
	if s.State != StateInProgress {
		t.Fatalf("state = %s", s.State)
	}
	if want := start.Add(CountdownSeconds * time.Second); !s.StartedAt.Equal(want) {
		t.Errorf("startedAt = %v, want %v", s.StartedAt, want)
	}
}

// TestCompleteAllItems verifies every completion keeps the item count and
// the last one finishes the session exactly once.
func TestCompleteAllItems(t *testing.T) {
	clock := newClock()
	p := NewPlayer(clock)
	plan := testPlan(t)
	n := len(plan.Days[1])
	startSession(t, p, plan, 1)

	transitions := 0
	for i := 0; i < n; i++ {
		clock.Advance(90 * time.Second)
		before := p.State()
		if err := p.CompleteItem(0); err != nil {
			t.Fatalf("CompleteItem %d: %v", i, err)
		}
		s := p.Snapshot()
		if got := len(s.Completed) + len(s.Remaining); got != n {
			t.Fatalf("completed+remaining = %d, want %d", got, n)
		}
		if before == StateInProgress && s.State == StateCompleted {
			transitions++
		}
	}
	if transitions != 1 {
		t.Fatalf("transitions to completed = %d", transitions)
	}
	s := p.Snapshot()
	if s.ElapsedText != "4min 30s" {
		t.Errorf("elapsed = %q", s.ElapsedText)
	}
	if latest, _ := s.Latest(); !latest.Equal(plan.Days[1][2]) {
		t.Errorf("latest = %+v", latest)
	}
	if err := p.CompleteItem(0); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("complete after done: err = %v", err)
	}
}

func TestCompleteItemOutOfOrder(t *testing.T) {
	p := NewPlayer(newClock())
	plan := testPlan(t)
	startSession(t, p, plan, 1)

	if err := p.CompleteItem(2); err != nil {
		t.Fatal(err)
	}
	if err := p.CompleteItem(7); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("bad index: err = %v", err)
	}
	s := p.Snapshot()
	want := []string{"Deadlift", "combo"}
	var got []string
	for _, it := range s.Remaining {
		if e, ok := it.Exercise(); ok {
			got = append(got, e.Name)
		} else {
			got = append(got, "combo")
		}
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("remaining (-want +got):\n%s", diff)
	}
	if len(plan.Days[1]) != 3 {
		t.Error("session modified the plan's day")
	}
}

func TestAcknowledge(t *testing.T) {
	clock := newClock()
	p := NewPlayer(clock)
	plan := testPlan(t)

	startSession(t, p, plan, 2)
	_ = p.CompleteItem(0)

	var saved *domain.WorkoutPlan
	done, err := p.Acknowledge(func(updated *domain.WorkoutPlan) error {
		saved = updated
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if done.Day != 2 || done.CycleComplete || saved == nil {
		t.Fatalf("completion = %+v", done)
	}
	if diff := cmp.Diff(domain.DaySet{2}, saved.CompletedDays); diff != "" {
		t.Errorf("completed days (-want +got):\n%s", diff)
	}
	if p.State() != StateIdle || len(p.Snapshot().Remaining) != 0 {
		t.Errorf("player not reset: %+v", p.Snapshot())
	}

	startSession(t, p, saved, 1)
	for p.State() == StateInProgress {
		_ = p.CompleteItem(0)
	}
	done, err = p.Acknowledge(nil)
	if err != nil {
		t.Fatal(err)
	}
	if !done.CycleComplete || len(done.Plan.CompletedDays) != 0 {
		t.Errorf("second day: %+v completed=%v", done, done.Plan.CompletedDays)
	}
}

func TestAcknowledgeSaveFailureKeepsCompleted(t *testing.T) {
	p := NewPlayer(newClock())
	startSession(t, p, testPlan(t), 2)
	_ = p.CompleteItem(0)

	boom := errors.New("boom")
	if _, err := p.Acknowledge(func(*domain.WorkoutPlan) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if p.State() != StateCompleted {
		t.Fatalf("state = %s, want completed", p.State())
	}
	if _, err := p.Acknowledge(nil); err != nil {
		t.Errorf("retry: %v", err)
	}
}

func TestAcknowledgeMissingPlanDropsSession(t *testing.T) {
	p := NewPlayer(newClock())
	plan := testPlan(t)
	startSession(t, p, plan, 2)
	_ = p.CompleteItem(0)

	gone := &domain.NotFoundError{Resource: "plan", ID: plan.ID.Hex()}
	if _, err := p.Acknowledge(func(*domain.WorkoutPlan) error { return gone }); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
	if p.State() != StateIdle {
		t.Fatalf("state = %s, want idle", p.State())
	}
	startSession(t, p, plan, 1)
}

func TestLeaveDay(t *testing.T) {
	p := NewPlayer(newClock())
	plan := testPlan(t)

	_ = p.SelectDay(plan, 1)
	if err := p.LeaveDay(); err != nil || p.State() != StateIdle {
		t.Fatalf("leave countdown: %v %s", err, p.State())
	}
	startSession(t, p, plan, 1)
	_ = p.CompleteItem(0)
	if err := p.LeaveDay(); err != nil || p.State() != StateIdle {
		t.Fatalf("leave in progress: %v %s", err, p.State())
	}
	if err := p.LeaveDay(); err != nil {
		t.Errorf("leave idle: %v", err)
	}
	if len(plan.CompletedDays) != 0 {
		t.Error("leaving recorded progress")
	}

	startSession(t, p, plan, 2)
	_ = p.CompleteItem(0)
	if err := p.LeaveDay(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("leave completed: err = %v", err)
	}
}

func TestSelectDayGuards(t *testing.T) {
	p := NewPlayer(newClock())
	plan := testPlan(t)
	plan.Days[2] = nil
	if err := p.SelectDay(plan, 2); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("empty day: err = %v", err)
	}
	if p.State() != StateIdle {
		t.Errorf("state = %s", p.State())
	}
	_ = p.SelectDay(plan, 1)
	if err := p.SelectDay(plan, 1); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("select during countdown: err = %v", err)
	}
}

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0s"},
		{42 * time.Second, "42s"},
		{5*time.Minute + 3*time.Second, "5min 3s"},
		{time.Hour + 2*time.Minute + 9*time.Second, "1h 2min 9s"},
		{2*time.Hour + 7*time.Second, "2h 7s"},
		{90*time.Second + 900*time.Millisecond, "1min 30s"},
	}
	for _, tt := range tests {
		if got := FormatElapsed(tt.d); got != tt.want {
			t.Errorf("FormatElapsed(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
