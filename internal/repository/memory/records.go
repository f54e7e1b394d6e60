package memory

import (
	"context"
	"sort"
	"time"

	"github.com/TezottoWell/app-rodrigo-martins/internal/domain"
	"github.com/TezottoWell/app-rodrigo-martins/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type levelRepository struct{ s *Store }

func (r *levelRepository) Create(ctx context.Context, level *domain.CustomLevel) (primitive.ObjectID, error) {
	if err := level.Validate(); err != nil {
		return primitive.NilObjectID, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("niveisPersonalizados", "create"); err != nil {
		return primitive.NilObjectID, err
	}
	level.ID = primitive.NewObjectID()
	level.CreatedAt = time.Now().UTC()
	r.s.levels[level.ID] = *level
	return level.ID, nil
}

func (r *levelRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.CustomLevel, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	l, ok := r.s.levels[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &l, nil
}

func (r *levelRepository) List(ctx context.Context) ([]domain.CustomLevel, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []domain.CustomLevel{}
	for _, l := range r.s.levels {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *levelRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("niveisPersonalizados", "delete"); err != nil {
		return err
	}
	if _, ok := r.s.levels[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.levels, id)
	return nil
}

type accessRequestRepository struct{ s *Store }

func (r *accessRequestRepository) Create(ctx context.Context, req *domain.AccessRequest) (primitive.ObjectID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("solicitacoes", "create"); err != nil {
		return primitive.NilObjectID, err
	}
	if req.Status == "" {
		req.Status = domain.RequestPending
	}
	if req.Status == domain.RequestPending {
		for _, existing := range r.s.requests {
			if existing.UserID == req.UserID && existing.Status == domain.RequestPending {
				return primitive.NilObjectID, repository.ErrDuplicateKey
			}
		}
	}
	req.ID = primitive.NewObjectID()
	if req.RequestedAt.IsZero() {
		req.RequestedAt = time.Now().UTC()
	}
	r.s.requests[req.ID] = *req
	return req.ID, nil
}

func (r *accessRequestRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.AccessRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	req, ok := r.s.requests[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &req, nil
}

func (r *accessRequestRepository) List(ctx context.Context, status domain.RequestStatus) ([]domain.AccessRequest, error) {
	return r.find(func(req domain.AccessRequest) bool { return status == "" || req.Status == status }), nil
}

func (r *accessRequestRepository) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]domain.AccessRequest, error) {
	return r.find(func(req domain.AccessRequest) bool { return req.UserID == userID }), nil
}

func (r *accessRequestRepository) FindPendingByUser(ctx context.Context, userID primitive.ObjectID) (*domain.AccessRequest, error) {
	found := r.find(func(req domain.AccessRequest) bool {
		return req.UserID == userID && req.Status == domain.RequestPending
	})
	if len(found) == 0 {
		return nil, repository.ErrNotFound
	}
	return &found[0], nil
}

func (r *accessRequestRepository) find(match func(domain.AccessRequest) bool) []domain.AccessRequest {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []domain.AccessRequest{}
	for _, req := range r.s.requests {
		if match(req) {
			out = append(out, req)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RequestedAt.After(out[j].RequestedAt) })
	return out
}

func (r *accessRequestRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, status domain.RequestStatus, respondedAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("solicitacoes", "update"); err != nil {
		return err
	}
	req, ok := r.s.requests[id]
	if !ok {
		return repository.ErrNotFound
	}
	req.Status = status
	req.RespondedAt = &respondedAt
	r.s.requests[id] = req
	return nil
}

func (r *accessRequestRepository) DeleteByUser(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("solicitacoes", "delete"); err != nil {
		return 0, err
	}
	var n int64
	for id, req := range r.s.requests {
		if req.UserID == userID {
			delete(r.s.requests, id)
			n++
		}
	}
	return n, nil
}

type weightRepository struct{ s *Store }

func (r *weightRepository) Create(ctx context.Context, entry *domain.WeightEntry) (primitive.ObjectID, error) {
	if err := domain.ValidateWeight(entry.WeightKg); err != nil {
		return primitive.NilObjectID, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("weights", "create"); err != nil {
		return primitive.NilObjectID, err
	}
	entry.ID = primitive.NewObjectID()
	r.s.weights[entry.ID] = *entry
	return entry.ID, nil
}

func (r *weightRepository) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]domain.WeightEntry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []domain.WeightEntry{}
	for _, e := range r.s.weights {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID.Hex() > out[j].ID.Hex()
	})
	return out, nil
}

func (r *weightRepository) DeleteByUser(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("weights", "delete"); err != nil {
		return 0, err
	}
	var n int64
	for id, e := range r.s.weights {
		if e.UserID == userID {
			delete(r.s.weights, id)
			n++
		}
	}
	return n, nil
}
