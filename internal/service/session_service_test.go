package service

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/TezottoWell/app-rodrigo-martins/internal/domain"
	"github.com/TezottoWell/app-rodrigo-martins/internal/repository/memory"
	"github.com/TezottoWell/app-rodrigo-martins/internal/session"
)

type stepClock struct{ now time.Time }

func (c *stepClock) Now() time.Time { return c.now }

func TestSessionLifecycle(t *testing.T) {
	store := memory.New()
	clock := &stepClock{now: monday}
	svc := NewSessionService(store.Users(), store.Plans(), clock)
	ana := addUser(t, store, "Ana Souza", domain.RoleClient, true)
	plan, err := newPlanService(store).CreatePlan(ctx, ana.ID, twoDays(t))
	if err != nil {
		t.Fatal(err)
	}

	snap, err := svc.Start(ctx, ana.ID, plan.ID, 1)
	if err != nil {
		t.Fatal(err)
	}
	if snap.State != session.StateCountdown || snap.Countdown != session.CountdownSeconds {
		t.Fatalf("start = %+v", snap)
	}
	if _, err := svc.CompleteItem(ctx, ana.ID, 0); !errors.Is(err, session.ErrInvalidTransition) {
		t.Errorf("complete during countdown: err = %v", err)
	}

	clock.now = clock.now.Add(6 * time.Second)
	snap, _ = svc.State(ctx, ana.ID)
	if snap.State != session.StateInProgress {
		t.Fatalf("state = %s", snap.State)
	}
	clock.now = clock.now.Add(10 * time.Minute)
	for i := 0; i < 2; i++ {
		if snap, err = svc.CompleteItem(ctx, ana.ID, 0); err != nil {
			t.Fatal(err)
		}
	}
	if snap.State != session.StateCompleted || snap.ElapsedText != "10min 1s" {
		t.Errorf("completed = %s %q", snap.State, snap.ElapsedText)
	}

	done, err := svc.Acknowledge(ctx, ana.ID)
	if err != nil {
		t.Fatal(err)
	}
	if done.Day != 1 || done.CycleComplete {
		t.Errorf("completion = %+v", done)
	}
	stored, _ := store.Plans().GetByID(ctx, plan.ID)
	if diff := cmp.Diff(domain.DaySet{1}, stored.CompletedDays); diff != "" {
		t.Errorf("stored completed days (-want +got):\n%s", diff)
	}
	if snap, _ := svc.State(ctx, ana.ID); snap.State != session.StateIdle {
		t.Errorf("state after acknowledge = %s", snap.State)
	}
}

func TestSessionAcknowledgeFailureKeepsResult(t *testing.T) {
	store := memory.New()
	clock := &stepClock{now: monday}
	svc := NewSessionService(store.Users(), store.Plans(), clock)
	ana := addUser(t, store, "Ana Souza", domain.RoleClient, true)
	plan, _ := newPlanService(store).CreatePlan(ctx, ana.ID, twoDays(t))

	if _, err := svc.Start(ctx, ana.ID, plan.ID, 2); err != nil {
		t.Fatal(err)
	}
	clock.now = clock.now.Add(time.Minute)
	if _, err := svc.CompleteItem(ctx, ana.ID, 0); err != nil {
		t.Fatal(err)
	}

	store.Fail = func(string, string) error { return errors.New("write timeout") }
	if _, err := svc.Acknowledge(ctx, ana.ID); !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("err = %v", err)
	}
	if snap, _ := svc.State(ctx, ana.ID); snap.State != session.StateCompleted {
		t.Fatalf("state = %s", snap.State)
	}
	store.Fail = nil
	if _, err := svc.Acknowledge(ctx, ana.ID); err != nil {
		t.Errorf("retry: %v", err)
	}
}

func TestSessionGuards(t *testing.T) {
	store := memory.New()
	svc := NewSessionService(store.Users(), store.Plans(), &stepClock{now: monday})
	ana := addUser(t, store, "Ana Souza", domain.RoleClient, true)
	bia := addUser(t, store, "Bia Lima", domain.RoleClient, false)
	plan, _ := newPlanService(store).CreatePlan(ctx, ana.ID, twoDays(t))

	if _, err := svc.Start(ctx, bia.ID, plan.ID, 1); !errors.Is(err, ErrAccessInactive) {
		t.Errorf("inactive: err = %v", err)
	}
	if _, err := svc.Start(ctx, ana.ID, oid(), 1); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("missing plan: err = %v", err)
	}
	if _, err := svc.Start(ctx, ana.ID, plan.ID, 1); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Start(ctx, ana.ID, plan.ID, 2); !errors.Is(err, session.ErrInvalidTransition) {
		t.Errorf("second start: err = %v", err)
	}
	if snap, err := svc.Leave(ctx, ana.ID); err != nil || snap.State != session.StateIdle {
		t.Errorf("leave = %+v, %v", snap, err)
	}
}

func TestSessionAcknowledgeDeletedPlan(t *testing.T) {
	store := memory.New()
	clock := &stepClock{now: monday}
	svc := NewSessionService(store.Users(), store.Plans(), clock)
	plans := newPlanService(store)
	ana := addUser(t, store, "Ana Souza", domain.RoleClient, true)
	gone, _ := plans.CreatePlan(ctx, ana.ID, twoDays(t))
	next, _ := plans.CreatePlan(ctx, ana.ID, twoDays(t))

	if _, err := svc.Start(ctx, ana.ID, gone.ID, 2); err != nil {
		t.Fatal(err)
	}
	clock.now = clock.now.Add(time.Minute)
	if _, err := svc.CompleteItem(ctx, ana.ID, 0); err != nil {
		t.Fatal(err)
	}
	if err := plans.DeletePlan(ctx, gone.ID, domain.Confirmed); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Acknowledge(ctx, ana.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("acknowledge: err = %v", err)
	}
	if snap, _ := svc.State(ctx, ana.ID); snap.State != session.StateIdle {
		t.Fatalf("state = %s, want idle", snap.State)
	}
	if _, err := svc.Leave(ctx, ana.ID); err != nil {
		t.Errorf("leave: %v", err)
	}
	if _, err := svc.Start(ctx, ana.ID, next.ID, 1); err != nil {
		t.Errorf("start another plan: %v", err)
	}
}

func TestSessionForgetsIdleClients(t *testing.T) {
	store := memory.New()
	clock := &stepClock{now: monday}
	svc := NewSessionService(store.Users(), store.Plans(), clock)
	impl := svc.(*sessionService)
	ana := addUser(t, store, "Ana Souza", domain.RoleClient, true)
	plan, _ := newPlanService(store).CreatePlan(ctx, ana.ID, twoDays(t))

	if _, err := svc.State(ctx, ana.ID); err != nil {
		t.Fatal(err)
	}
	if n := len(impl.players); n != 0 {
		t.Fatalf("players after state = %d", n)
	}

	if _, err := svc.Start(ctx, ana.ID, plan.ID, 2); err != nil {
		t.Fatal(err)
	}
	if n := len(impl.players); n != 1 {
		t.Fatalf("players during session = %d", n)
	}
	if _, err := svc.Leave(ctx, ana.ID); err != nil {
		t.Fatal(err)
	}
	if n := len(impl.players); n != 0 {
		t.Errorf("players after leave = %d", n)
	}

	_, _ = svc.Start(ctx, ana.ID, plan.ID, 2)
	clock.now = clock.now.Add(time.Minute)
	_, _ = svc.CompleteItem(ctx, ana.ID, 0)
	if _, err := svc.Acknowledge(ctx, ana.ID); err != nil {
		t.Fatal(err)
	}
	if n := len(impl.players); n != 0 {
		t.Errorf("players after acknowledge = %d", n)
	}
}
