package service

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/TezottoWell/app-rodrigo-martins/internal/domain"
	"github.com/TezottoWell/app-rodrigo-martins/internal/repository"
	"github.com/TezottoWell/app-rodrigo-martins/internal/repository/memory"
)

func TestCreatePlan(t *testing.T) {
	store := memory.New()
	svc := newPlanService(store)
	ana := addUser(t, store, "Ana Souza", domain.RoleClient, true)

	b := twoDays(t)
	plan, err := svc.CreatePlan(ctx, ana.ID, b)
	if err != nil {
		t.Fatal(err)
	}
	if plan.OwnerName != "Ana Souza" || !plan.CreatedAt.Equal(monday) || len(plan.CompletedDays) != 0 {
		t.Errorf("plan = %+v", plan)
	}
	if b.Dirty() {
		t.Error("builder still dirty after save")
	}
	stored, err := svc.GetPlan(ctx, plan.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !stored.Days.Equal(plan.Days) {
		t.Errorf("stored days differ")
	}

	if _, err := svc.CreatePlan(ctx, oid(), twoDays(t)); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("unknown owner: err = %v", err)
	}
	if _, err := svc.CreatePlan(ctx, ana.ID, build(t, 2, nil)); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("empty plan: err = %v", err)
	}
}

func TestPlanEdits(t *testing.T) {
	store := memory.New()
	svc := newPlanService(store)
	ana := addUser(t, store, "Ana Souza", domain.RoleClient, true)
	plan, err := svc.CreatePlan(ctx, ana.ID, twoDays(t))
	if err != nil {
		t.Fatal(err)
	}

	plan, err = svc.AddItem(ctx, plan.ID, 2, single(squat))
	if err != nil {
		t.Fatal(err)
	}
	if len(plan.Days[2]) != 2 {
		t.Fatalf("day 2 = %v", plan.Days[2])
	}

	if _, err := svc.RemoveItem(ctx, plan.ID, 2, 0, domain.Declined); !errors.Is(err, domain.ErrCancelled) {
		t.Fatalf("declined remove: err = %v", err)
	}
	if p, _ := svc.GetPlan(ctx, plan.ID); len(p.Days[2]) != 2 {
		t.Fatal("declined remove changed the plan")
	}
	plan, err = svc.RemoveItem(ctx, plan.ID, 2, 0, domain.Confirmed)
	if err != nil {
		t.Fatal(err)
	}
	if e, _ := plan.Days[2][0].Exercise(); e.Name != "Squat" {
		t.Errorf("remaining = %+v", plan.Days[2])
	}

	plan, collapsed, err := svc.RemoveComboMember(ctx, plan.ID, 1, 1, 0, domain.Confirmed)
	if err != nil {
		t.Fatal(err)
	}
	if collapsed == nil || collapsed.Exercise.Name != "Curl" || plan.Days[1][1].IsCombo() {
		t.Errorf("collapse = %+v item = %+v", collapsed, plan.Days[1][1])
	}

	plan, err = svc.ReplaceItem(ctx, plan.ID, 1, 1, combo(curl, press))
	if err != nil {
		t.Fatal(err)
	}
	if !plan.Days[1][1].IsCombo() {
		t.Errorf("replace did not make a combo")
	}
}

func TestCopyDayAsksBeforeOverwrite(t *testing.T) {
	store := memory.New()
	svc := newPlanService(store)
	ana := addUser(t, store, "Ana Souza", domain.RoleClient, true)
	plan, _ := svc.CreatePlan(ctx, ana.ID, twoDays(t))

	var asked []domain.PromptKind
	record := func(answer bool) domain.Confirm {
		return func(p domain.Prompt) bool {
			asked = append(asked, p.Kind)
			return answer
		}
	}
	if _, err := svc.CopyDay(ctx, plan.ID, 1, 2, record(false)); !errors.Is(err, domain.ErrCancelled) {
		t.Fatalf("err = %v", err)
	}
	updated, err := svc.CopyDay(ctx, plan.ID, 1, 2, record(true))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]domain.PromptKind{domain.PromptOverwriteDay, domain.PromptOverwriteDay}, asked); diff != "" {
		t.Errorf("prompts (-want +got):\n%s", diff)
	}
	if !cmpItems(updated.Days[1], updated.Days[2]) {
		t.Errorf("day 2 is not a copy of day 1")
	}
}

func cmpItems(a, b []domain.WorkoutItem) bool {
	return domain.DayPlans{1: a}.Equal(domain.DayPlans{1: b})
}

func TestChangeFrequencyDropsDays(t *testing.T) {
	store := memory.New()
	svc := newPlanService(store)
	ana := addUser(t, store, "Ana Souza", domain.RoleClient, true)
	plan, _ := svc.CreatePlan(ctx, ana.ID, twoDays(t))
	_ = store.Plans().UpdateCompletion(ctx, plan.ID, domain.DaySet{2}, monday)

	if _, err := svc.ChangeFrequency(ctx, plan.ID, 1, nil); !errors.Is(err, domain.ErrCancelled) {
		t.Fatalf("nil confirm: err = %v", err)
	}
	updated, err := svc.ChangeFrequency(ctx, plan.ID, 1, domain.Confirmed)
	if err != nil {
		t.Fatal(err)
	}
	if updated.Frequency != 1 || len(updated.Days[2]) != 0 || len(updated.CompletedDays) != 0 {
		t.Errorf("plan = %+v", updated)
	}
	grown, err := svc.ChangeFrequency(ctx, plan.ID, 4, domain.Declined)
	if err != nil {
		t.Fatalf("growing needs no confirmation: %v", err)
	}
	if grown.Frequency != 4 {
		t.Errorf("frequency = %d", grown.Frequency)
	}
}

func TestRenameAndDelete(t *testing.T) {
	store := memory.New()
	svc := newPlanService(store)
	ana := addUser(t, store, "Ana Souza", domain.RoleClient, true)
	plan, _ := svc.CreatePlan(ctx, ana.ID, twoDays(t))

	if _, err := svc.Rename(ctx, plan.ID, "   "); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("blank name: err = %v", err)
	}
	renamed, err := svc.RenameClientPlan(ctx, ana.ID, plan.ID, "  Leg day ")
	if err != nil {
		t.Fatal(err)
	}
	if renamed.DisplayName() != "Leg day" {
		t.Errorf("name = %q", renamed.DisplayName())
	}

	if err := svc.DeletePlan(ctx, plan.ID, domain.Declined); !errors.Is(err, domain.ErrCancelled) {
		t.Errorf("declined delete: err = %v", err)
	}
	if err := svc.DeletePlan(ctx, plan.ID, domain.Confirmed); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.GetPlan(ctx, plan.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("after delete: err = %v", err)
	}
}

func TestClientAccess(t *testing.T) {
	store := memory.New()
	svc := newPlanService(store)
	ana := addUser(t, store, "Ana Souza", domain.RoleClient, true)
	bia := addUser(t, store, "Bia Lima", domain.RoleClient, false)
	plan, _ := svc.CreatePlan(ctx, ana.ID, twoDays(t))

	if _, err := svc.ListClientPlans(ctx, bia.ID); !errors.Is(err, ErrAccessInactive) {
		t.Errorf("inactive client: err = %v", err)
	}
	_ = store.Users().SetActivePlan(ctx, bia.ID, true)
	if _, err := svc.GetClientPlan(ctx, bia.ID, plan.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("foreign plan: err = %v", err)
	}
	if _, err := svc.Watch(ctx, bia.ID, plan.ID, func(repository.PlanChange) {}); !errors.Is(err, ErrForbidden) {
		t.Errorf("foreign watch: err = %v", err)
	}
}

// TestListClientPlansWeeklyReset verifies stale progress is cleared and the
// reset is written back, while recent progress survives.
func TestListClientPlansWeeklyReset(t *testing.T) {
	store := memory.New()
	svc := newPlanService(store)
	ana := addUser(t, store, "Ana Souza", domain.RoleClient, true)
	stale, _ := svc.CreatePlan(ctx, ana.ID, twoDays(t))
	fresh, _ := svc.CreatePlan(ctx, ana.ID, twoDays(t))
	_ = store.Plans().UpdateCompletion(ctx, stale.ID, domain.DaySet{1}, monday.Add(-8*24*time.Hour))
	_ = store.Plans().UpdateCompletion(ctx, fresh.ID, domain.DaySet{1}, monday.Add(-6*24*time.Hour))

	plans, err := svc.ListClientPlans(ctx, ana.ID)
	if err != nil {
		t.Fatal(err)
	}
	got := map[string]domain.DaySet{}
	for _, p := range plans {
		got[p.ID.Hex()] = p.CompletedDays
	}
	want := map[string]domain.DaySet{stale.ID.Hex(): {}, fresh.ID.Hex(): {1}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("completed days (-want +got):\n%s", diff)
	}
	stored, _ := store.Plans().GetByID(ctx, stale.ID)
	if len(stored.CompletedDays) != 0 || !stored.LastUpdatedAt.Equal(monday) {
		t.Errorf("reset not persisted: %+v", stored)
	}
}

func TestGetClientPlanWeeklyReset(t *testing.T) {
	store := memory.New()
	svc := newPlanService(store)
	ana := addUser(t, store, "Ana Souza", domain.RoleClient, true)
	plan, _ := svc.CreatePlan(ctx, ana.ID, twoDays(t))
	_ = store.Plans().UpdateCompletion(ctx, plan.ID, domain.DaySet{1, 2}, monday.Add(-7*24*time.Hour))

	got, err := svc.GetClientPlan(ctx, ana.ID, plan.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.CompletedDays) != 0 || !got.LastUpdatedAt.Equal(monday) {
		t.Errorf("plan = %+v", got)
	}
	stored, _ := store.Plans().GetByID(ctx, plan.ID)
	if len(stored.CompletedDays) != 0 {
		t.Errorf("reset not persisted: %v", stored.CompletedDays)
	}

	_ = store.Plans().UpdateCompletion(ctx, plan.ID, domain.DaySet{1}, monday.Add(-8*24*time.Hour))
	store.Fail = func(string, string) error { return errors.New("write timeout") }
	got, err = svc.GetClientPlan(ctx, ana.ID, plan.ID)
	if err != nil {
		t.Fatalf("failed reset write must not fail the read: %v", err)
	}
	if len(got.CompletedDays) != 0 {
		t.Errorf("returned plan not reset: %v", got.CompletedDays)
	}
	stored, _ = store.Plans().GetByID(ctx, plan.ID)
	if diff := cmp.Diff(domain.DaySet{1}, stored.CompletedDays); diff != "" {
		t.Errorf("stored completed days (-want +got):\n%s", diff)
	}
}

func TestPersistenceFailureIsWrapped(t *testing.T) {
	store := memory.New()
	svc := newPlanService(store)
	ana := addUser(t, store, "Ana Souza", domain.RoleClient, true)
	plan, _ := svc.CreatePlan(ctx, ana.ID, twoDays(t))

	outage := errors.New("connection reset")
	store.Fail = func(collection, op string) error { return outage }
	_, err := svc.AddItem(ctx, plan.ID, 1, single(curl))
	if !errors.Is(err, domain.ErrPersistence) || !errors.Is(err, outage) {
		t.Fatalf("err = %v", err)
	}
	var pe *domain.PersistenceError
	if !errors.As(err, &pe) || pe.Component != "plans" || pe.IDs["planId"] != plan.ID.Hex() {
		t.Errorf("persistence error = %+v", pe)
	}
}
