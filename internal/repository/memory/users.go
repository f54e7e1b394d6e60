package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/TezottoWell/app-rodrigo-martins/internal/domain"
	"github.com/TezottoWell/app-rodrigo-martins/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type userRepository struct{ s *Store }

func (r *userRepository) Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("users", "create"); err != nil {
		return primitive.NilObjectID, err
	}
	for _, u := range r.s.users {
		if u.Email == user.Email {
			return primitive.NilObjectID, repository.ErrDuplicateKey
		}
	}
	user.ID = primitive.NewObjectID()
	user.NameLower = domain.SearchKey(user.Name)
	now := time.Now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now
	r.s.users[user.ID] = *user
	return user.ID, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *userRepository) SearchClients(ctx context.Context, prefix string, limit int64) ([]domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	key := domain.SearchKey(prefix)
	out := []domain.User{}
	for _, u := range r.s.users {
		if u.Role == domain.RoleClient && strings.HasPrefix(u.NameLower, key) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NameLower < out[j].NameLower })
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *userRepository) SetActivePlan(ctx context.Context, id primitive.ObjectID, active bool) error {
	return r.update(id, func(u *domain.User) { u.ActivePlan = active })
}

func (r *userRepository) SetRole(ctx context.Context, id primitive.ObjectID, role domain.Role) error {
	return r.update(id, func(u *domain.User) { u.Role = role })
}

func (r *userRepository) SetPhotoKey(ctx context.Context, id primitive.ObjectID, key string) error {
	return r.update(id, func(u *domain.User) { u.PhotoKey = key })
}

func (r *userRepository) update(id primitive.ObjectID, fn func(*domain.User)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("users", "update"); err != nil {
		return err
	}
	u, ok := r.s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	fn(&u)
	u.UpdatedAt = time.Now().UTC()
	r.s.users[id] = u
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("users", "delete"); err != nil {
		return err
	}
	if _, ok := r.s.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.users, id)
	return nil
}
