package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/TezottoWell/app-rodrigo-martins/internal/domain"
	"github.com/TezottoWell/app-rodrigo-martins/internal/repository"
)

// AccessService handles clients asking for the training area and admins
// answering.
type AccessService interface {
	Request(ctx context.Context, userID primitive.ObjectID) (*domain.AccessRequest, error)
	MyRequests(ctx context.Context, userID primitive.ObjectID) ([]domain.AccessRequest, error)
	List(ctx context.Context, status domain.RequestStatus) ([]domain.AccessRequest, error)
	// Respond approves or rejects a pending request and sets the user's
	// activePlan accordingly.
	Respond(ctx context.Context, requestID primitive.ObjectID, approve bool) (*domain.AccessRequest, error)
}

type accessService struct {
	userRepo    repository.UserRepository
	requestRepo repository.AccessRequestRepository
	now         func() time.Time
}

func NewAccessService(userRepo repository.UserRepository, requestRepo repository.AccessRequestRepository) AccessService {
	return &accessService{
		userRepo:    userRepo,
		requestRepo: requestRepo,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *accessService) Request(ctx context.Context, userID primitive.ObjectID) (*domain.AccessRequest, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fromRepo("access", "request", "user", userID, err)
	}
	if user.ActivePlan {
		return nil, domain.Invalid("activePlan", "training area is already active")
	}
	req := &domain.AccessRequest{
		UserID:      user.ID,
		UserName:    user.Name,
		UserEmail:   user.Email,
		Status:      domain.RequestPending,
		RequestedAt: s.now(),
	}
	// One pending request per user is enforced by the store.
	if _, err := s.requestRepo.Create(ctx, req); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrDuplicateRequest
		}
		return nil, persistFailure("access", "request", err, map[string]string{"userId": userID.Hex()})
	}
	return req, nil
}

func (s *accessService) MyRequests(ctx context.Context, userID primitive.ObjectID) ([]domain.AccessRequest, error) {
	reqs, err := s.requestRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, persistFailure("access", "list own", err, map[string]string{"userId": userID.Hex()})
	}
	return reqs, nil
}

func (s *accessService) List(ctx context.Context, status domain.RequestStatus) ([]domain.AccessRequest, error) {
	switch status {
	case "", domain.RequestPending, domain.RequestApproved, domain.RequestRejected:
	default:
		return nil, domain.Invalid("status", "unknown status %q", status)
	}
	reqs, err := s.requestRepo.List(ctx, status)
	if err != nil {
		return nil, persistFailure("access", "list", err, nil)
	}
	return reqs, nil
}

func (s *accessService) Respond(ctx context.Context, requestID primitive.ObjectID, approve bool) (*domain.AccessRequest, error) {
	req, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, fromRepo("access", "respond", "request", requestID, err)
	}
	if req.Status != domain.RequestPending {
		return nil, domain.Invalid("status", "request was already %s", req.Status)
	}
	status := domain.RequestRejected
	if approve {
		status = domain.RequestApproved
	}
	if err := s.userRepo.SetActivePlan(ctx, req.UserID, approve); err != nil {
		return nil, fromRepo("access", "respond", "user", req.UserID, err)
	}
	now := s.now()
	if err := s.requestRepo.UpdateStatus(ctx, requestID, status, now); err != nil {
		return nil, fromRepo("access", "respond", "request", requestID, err)
	}
	req.Status = status
	req.RespondedAt = &now
	log.Info().Str("requestId", requestID.Hex()).Str("uid", req.UserID.Hex()).Str("status", string(status)).Msg("access request answered")
	return req, nil
}
