package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/TezottoWell/app-rodrigo-martins/internal/domain"
	"github.com/TezottoWell/app-rodrigo-martins/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type planRepository struct{ s *Store }

func (r *planRepository) Create(ctx context.Context, plan *domain.WorkoutPlan) (primitive.ObjectID, error) {
	if err := plan.Validate(); err != nil {
		return primitive.NilObjectID, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("treinos", "create"); err != nil {
		return primitive.NilObjectID, err
	}
	plan.ID = primitive.NewObjectID()
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = time.Now().UTC()
	}
	if plan.CompletedDays == nil {
		plan.CompletedDays = domain.DaySet{}
	}
	r.s.plans[plan.ID] = plan.Clone()
	return plan.ID, nil
}

func (r *planRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutPlan, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.plans[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return p.Clone(), nil
}

func (r *planRepository) ListByOwner(ctx context.Context, ownerID primitive.ObjectID) ([]domain.WorkoutPlan, error) {
	return r.list(func(p *domain.WorkoutPlan) bool { return p.OwnerID == ownerID }), nil
}

func (r *planRepository) ListByOwnerAndFrequency(ctx context.Context, ownerID primitive.ObjectID, frequency int) ([]domain.WorkoutPlan, error) {
	return r.list(func(p *domain.WorkoutPlan) bool {
		return p.OwnerID == ownerID && p.Frequency == frequency
	}), nil
}

func (r *planRepository) list(match func(*domain.WorkoutPlan) bool) []domain.WorkoutPlan {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []domain.WorkoutPlan{}
	for _, p := range r.s.plans {
		if match(p) {
			out = append(out, *p.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *planRepository) UpdateContent(ctx context.Context, plan *domain.WorkoutPlan) error {
	if err := plan.Validate(); err != nil {
		return err
	}
	return r.update(plan.ID, func(p *domain.WorkoutPlan) {
		p.Frequency = plan.Frequency
		p.Days = plan.Days.Clone()
		p.CompletedDays = append(domain.DaySet{}, plan.CompletedDays...)
	})
}

func (r *planRepository) UpdateCompletion(ctx context.Context, id primitive.ObjectID, completed domain.DaySet, lastUpdatedAt time.Time) error {
	return r.update(id, func(p *domain.WorkoutPlan) {
		p.CompletedDays = append(domain.DaySet{}, completed...)
		p.LastUpdatedAt = lastUpdatedAt
	})
}

func (r *planRepository) Rename(ctx context.Context, id primitive.ObjectID, customName string) error {
	return r.update(id, func(p *domain.WorkoutPlan) { p.CustomName = customName })
}

func (r *planRepository) update(id primitive.ObjectID, fn func(*domain.WorkoutPlan)) error {
	r.s.mu.Lock()
	if err := r.s.fail("treinos", "update"); err != nil {
		r.s.mu.Unlock()
		return err
	}
	p, ok := r.s.plans[id]
	if !ok {
		r.s.mu.Unlock()
		return repository.ErrNotFound
	}
	fn(p)
	change := repository.PlanChange{PlanID: id, Plan: p.Clone()}
	subs := r.s.subscribers(id)
	r.s.mu.Unlock()

	for _, fn := range subs {
		fn(change)
	}
	return nil
}

func (r *planRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	r.s.mu.Lock()
	if err := r.s.fail("treinos", "delete"); err != nil {
		r.s.mu.Unlock()
		return err
	}
	if _, ok := r.s.plans[id]; !ok {
		r.s.mu.Unlock()
		return repository.ErrNotFound
	}
	delete(r.s.plans, id)
	subs := r.s.subscribers(id)
	r.s.mu.Unlock()

	for _, fn := range subs {
		fn(repository.PlanChange{PlanID: id})
	}
	return nil
}

func (r *planRepository) DeleteByOwner(ctx context.Context, ownerID primitive.ObjectID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("treinos", "delete"); err != nil {
		return 0, err
	}
	var n int64
	for id, p := range r.s.plans {
		if p.OwnerID == ownerID {
			delete(r.s.plans, id)
			n++
		}
	}
	return n, nil
}

// Watch registers onChange for updates and deletes of one plan.
func (r *planRepository) Watch(ctx context.Context, id primitive.ObjectID, onChange func(repository.PlanChange)) (repository.Unsubscribe, error) {
	r.s.mu.Lock()
	if r.s.watchers[id] == nil {
		r.s.watchers[id] = map[int]func(repository.PlanChange){}
	}
	key := r.s.nextWatch
	r.s.nextWatch++
	r.s.watchers[id][key] = onChange
	r.s.mu.Unlock()

	var once sync.Once
	stop := make(chan struct{})
	unsubscribe := func() {
		once.Do(func() {
			close(stop)
			r.s.mu.Lock()
			delete(r.s.watchers[id], key)
			r.s.mu.Unlock()
		})
	}
	go func() {
		select {
		case <-ctx.Done():
			unsubscribe()
		case <-stop:
		}
	}()
	return unsubscribe, nil
}

// subscribers copies the callbacks for id. The caller holds the lock.
func (s *Store) subscribers(id primitive.ObjectID) []func(repository.PlanChange) {
	subs := make([]func(repository.PlanChange), 0, len(s.watchers[id]))
	for _, fn := range s.watchers[id] {
		subs = append(subs, fn)
	}
	return subs
}
