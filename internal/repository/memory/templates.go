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

type templateRepository struct{ s *Store }

func cloneTemplate(t *domain.WorkoutTemplate) *domain.WorkoutTemplate {
	out := *t
	out.Days = t.Days.Clone()
	return &out
}

func (r *templateRepository) Create(ctx context.Context, tpl *domain.WorkoutTemplate) (primitive.ObjectID, error) {
	if err := tpl.Validate(); err != nil {
		return primitive.NilObjectID, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("treinosModelo", "create"); err != nil {
		return primitive.NilObjectID, err
	}
	tpl.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	tpl.CreatedAt, tpl.UpdatedAt = now, now
	r.s.templates[tpl.ID] = cloneTemplate(tpl)
	return tpl.ID, nil
}

func (r *templateRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutTemplate, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.templates[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneTemplate(t), nil
}

func (r *templateRepository) List(ctx context.Context) ([]domain.WorkoutTemplate, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []domain.WorkoutTemplate{}
	for _, t := range r.s.templates {
		out = append(out, *cloneTemplate(t))
	}
	sort.Slice(out, func(i, j int) bool {
		if c := strings.Compare(out[i].Level, out[j].Level); c != 0 {
			return c < 0
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *templateRepository) Update(ctx context.Context, tpl *domain.WorkoutTemplate) error {
	if err := tpl.Validate(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("treinosModelo", "update"); err != nil {
		return err
	}
	existing, ok := r.s.templates[tpl.ID]
	if !ok {
		return repository.ErrNotFound
	}
	tpl.CreatedAt = existing.CreatedAt
	tpl.UpdatedAt = time.Now().UTC()
	r.s.templates[tpl.ID] = cloneTemplate(tpl)
	return nil
}

func (r *templateRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("treinosModelo", "delete"); err != nil {
		return err
	}
	if _, ok := r.s.templates[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.templates, id)
	return nil
}

func (r *templateRepository) CountByLevel(ctx context.Context, level string) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var n int64
	for _, t := range r.s.templates {
		if t.Level == level {
			n++
		}
	}
	return n, nil
}
