package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/TezottoWell/app-rodrigo-martins/internal/authoring"
	"github.com/TezottoWell/app-rodrigo-martins/internal/domain"
	"github.com/TezottoWell/app-rodrigo-martins/internal/repository/memory"
)

var (
	ctx     = context.Background()
	monday  = time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC)
	squat   = domain.ExerciseDraft{MuscleGroup: "lower_body", Name: "Squat", RepsOrDuration: "8", Sets: "4"}
	press   = domain.ExerciseDraft{MuscleGroup: "shoulders", Name: "Press", RepsOrDuration: "10", Sets: "3"}
	curl    = domain.ExerciseDraft{MuscleGroup: "biceps", Name: "Curl", RepsOrDuration: "12", Sets: "3"}
	rowing  = domain.ExerciseDraft{MuscleGroup: "cardio", Name: "Rowing", RepsOrDuration: "10min"}
	fixedAt = func() time.Time { return monday }
)

func single(d domain.ExerciseDraft) authoring.ItemDraft {
	return authoring.ItemDraft{Exercises: []domain.ExerciseDraft{d}}
}

func combo(ds ...domain.ExerciseDraft) authoring.ItemDraft {
	return authoring.ItemDraft{Kind: domain.ItemCombo, Exercises: ds}
}

func addUser(t *testing.T, store *memory.Store, name string, role domain.Role, active bool) *domain.User {
	t.Helper()
	u := &domain.User{Name: name, Email: strings.ReplaceAll(domain.SearchKey(name), " ", ".") + "@example.com", Role: role, ActivePlan: active}
	if _, err := store.Users().Create(ctx, u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func build(t *testing.T, frequency int, days map[int][]authoring.ItemDraft) *authoring.Builder {
	t.Helper()
	b, err := authoring.Build(frequency, days)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return b
}

// twoDays is a two-day plan: squat and a press+curl combo, then rowing.
func twoDays(t *testing.T) *authoring.Builder {
	return build(t, 2, map[int][]authoring.ItemDraft{
		1: {single(squat), combo(press, curl)},
		2: {single(rowing)},
	})
}

func newPlanService(store *memory.Store) *planService {
	s := NewPlanService(store.Users(), store.Plans()).(*planService)
	s.now = fixedAt
	return s
}

func oid() primitive.ObjectID { return primitive.NewObjectID() }
