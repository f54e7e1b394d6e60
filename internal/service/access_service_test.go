package service

import (
	"errors"
	"testing"

	"github.com/TezottoWell/app-rodrigo-martins/internal/domain"
	"github.com/TezottoWell/app-rodrigo-martins/internal/repository/memory"
)

func TestAccessRequestFlow(t *testing.T) {
	store := memory.New()
	svc := NewAccessService(store.Users(), store.AccessRequests())
	ana := addUser(t, store, "Ana Souza", domain.RoleClient, false)

	req, err := svc.Request(ctx, ana.ID)
	if err != nil {
		t.Fatal(err)
	}
	if req.Status != domain.RequestPending || req.UserEmail != ana.Email {
		t.Errorf("request = %+v", req)
	}
	if _, err := svc.Request(ctx, ana.ID); !errors.Is(err, ErrDuplicateRequest) {
		t.Errorf("second request: err = %v", err)
	}

	pending, _ := svc.List(ctx, domain.RequestPending)
	if len(pending) != 1 {
		t.Fatalf("pending = %d", len(pending))
	}
	answered, err := svc.Respond(ctx, req.ID, true)
	if err != nil {
		t.Fatal(err)
	}
	if answered.Status != domain.RequestApproved || answered.RespondedAt == nil {
		t.Errorf("answered = %+v", answered)
	}
	if u, _ := store.Users().GetByID(ctx, ana.ID); !u.ActivePlan {
		t.Error("approval did not activate the user")
	}
	if _, err := svc.Respond(ctx, req.ID, false); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("answering twice: err = %v", err)
	}
	if _, err := svc.Request(ctx, ana.ID); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("request while active: err = %v", err)
	}
	if _, err := svc.List(ctx, "weird"); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("bad status: err = %v", err)
	}
}

func TestRejectDeactivates(t *testing.T) {
	store := memory.New()
	svc := NewAccessService(store.Users(), store.AccessRequests())
	ana := addUser(t, store, "Ana Souza", domain.RoleClient, false)
	req, _ := svc.Request(ctx, ana.ID)

	if _, err := svc.Respond(ctx, req.ID, false); err != nil {
		t.Fatal(err)
	}
	if u, _ := store.Users().GetByID(ctx, ana.ID); u.ActivePlan {
		t.Error("rejection activated the user")
	}
	mine, _ := svc.MyRequests(ctx, ana.ID)
	if len(mine) != 1 || mine[0].Status != domain.RequestRejected {
		t.Errorf("own requests = %+v", mine)
	}
	if _, err := svc.Request(ctx, ana.ID); err != nil {
		t.Errorf("new request after rejection: %v", err)
	}
}
