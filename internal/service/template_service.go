package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/TezottoWell/app-rodrigo-martins/internal/authoring"
	"github.com/TezottoWell/app-rodrigo-martins/internal/domain"
	"github.com/TezottoWell/app-rodrigo-martins/internal/repository"
)

// TemplateGroup is one level with its templates.
type TemplateGroup struct {
	Level     domain.LevelOption       `json:"level"`
	Templates []domain.WorkoutTemplate `json:"templates"`
}

type TemplateService interface {
	// SaveTemplate creates a template when id is nil and updates it
	// otherwise. Empty days are dropped; an existing template left without
	// exercises is deleted, reported by deleted.
	SaveTemplate(ctx context.Context, id *primitive.ObjectID, level string, b *authoring.Builder) (tpl *domain.WorkoutTemplate, deleted bool, err error)
	GetTemplate(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutTemplate, error)
	ListTemplates(ctx context.Context) ([]TemplateGroup, error)
	DeleteTemplate(ctx context.Context, id primitive.ObjectID, confirm domain.Confirm) error
	// Assign copies a template into a new plan for userID. An existing plan
	// with the same content needs confirmation.
	Assign(ctx context.Context, templateID, userID primitive.ObjectID, confirm domain.Confirm) (*domain.WorkoutPlan, error)

	ListLevels(ctx context.Context) ([]domain.LevelOption, error)
	CreateLevel(ctx context.Context, label, icon string) (*domain.CustomLevel, error)
	DeleteLevel(ctx context.Context, key string) error
}

type templateService struct {
	templateRepo repository.TemplateRepository
	levelRepo    repository.LevelRepository
	planRepo     repository.WorkoutPlanRepository
	userRepo     repository.UserRepository
	now          func() time.Time
}

// NewTemplateService creates a new instance of templateService.
func NewTemplateService(
	templateRepo repository.TemplateRepository,
	levelRepo repository.LevelRepository,
	planRepo repository.WorkoutPlanRepository,
	userRepo repository.UserRepository,
) TemplateService {
	return &templateService{
		templateRepo: templateRepo,
		levelRepo:    levelRepo,
		planRepo:     planRepo,
		userRepo:     userRepo,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (s *templateService) resolveLevel(ctx context.Context, key string) (domain.LevelOption, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return domain.LevelOption{}, domain.Invalid("level", "is required")
	}
	if l, ok := domain.BuiltInLevel(key); ok {
		return l, nil
	}
	id, err := primitive.ObjectIDFromHex(key)
	if err != nil {
		return domain.LevelOption{}, domain.Invalid("level", "unknown level %q", key)
	}
	custom, err := s.levelRepo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.LevelOption{}, domain.Invalid("level", "unknown level %q", key)
	}
	if err != nil {
		return domain.LevelOption{}, persistFailure("templates", "resolve level", err, map[string]string{"levelId": key})
	}
	return custom.Option(), nil
}

func (s *templateService) SaveTemplate(ctx context.Context, id *primitive.ObjectID, level string, b *authoring.Builder) (*domain.WorkoutTemplate, bool, error) {
	days := b.Days().Pruned()

	if id == nil {
		if err := b.Validate(); err != nil {
			return nil, false, err
		}
		lvl, err := s.resolveLevel(ctx, level)
		if err != nil {
			return nil, false, err
		}
		tpl := &domain.WorkoutTemplate{
			Level:      lvl.Key,
			LevelLabel: lvl.Label,
			Frequency:  b.Frequency(),
			Days:       days,
		}
		if _, err := s.templateRepo.Create(ctx, tpl); err != nil {
			return nil, false, persistFailure("templates", "create", err, map[string]string{"level": lvl.Key})
		}
		b.MarkSaved()
		log.Info().Str("templateId", tpl.ID.Hex()).Str("level", tpl.Level).Msg("template created")
		return tpl, false, nil
	}

	existing, err := s.templateRepo.GetByID(ctx, *id)
	if err != nil {
		return nil, false, fromRepo("templates", "update", "template", *id, err)
	}
	if days.IsEmpty() {
		if err := s.templateRepo.Delete(ctx, *id); err != nil {
			return nil, false, fromRepo("templates", "delete emptied", "template", *id, err)
		}
		b.MarkSaved()
		log.Info().Str("templateId", id.Hex()).Msg("emptied template deleted")
		return nil, true, nil
	}
	if err := b.Validate(); err != nil {
		return nil, false, err
	}
	if level == "" {
		level = existing.Level
	}
	lvl, err := s.resolveLevel(ctx, level)
	if err != nil {
		return nil, false, err
	}
	existing.Level = lvl.Key
	existing.LevelLabel = lvl.Label
	existing.Frequency = b.Frequency()
	existing.Days = days
	if err := s.templateRepo.Update(ctx, existing); err != nil {
		return nil, false, fromRepo("templates", "update", "template", *id, err)
	}
	b.MarkSaved()
	return existing, false, nil
}

func (s *templateService) GetTemplate(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutTemplate, error) {
	tpl, err := s.templateRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fromRepo("templates", "get", "template", id, err)
	}
	return tpl, nil
}

// ListTemplates groups templates by level: built-ins first, then custom
// levels, then levels that no longer exist. Empty levels are kept.
func (s *templateService) ListTemplates(ctx context.Context) ([]TemplateGroup, error) {
	levels, err := s.ListLevels(ctx)
	if err != nil {
		return nil, err
	}
	templates, err := s.templateRepo.List(ctx)
	if err != nil {
		return nil, persistFailure("templates", "list", err, nil)
	}

	groups := make([]TemplateGroup, 0, len(levels))
	index := make(map[string]int, len(levels))
	for _, l := range levels {
		index[l.Key] = len(groups)
		groups = append(groups, TemplateGroup{Level: l, Templates: []domain.WorkoutTemplate{}})
	}
	for _, tpl := range templates {
		i, ok := index[tpl.Level]
		if !ok {
			i = len(groups)
			index[tpl.Level] = i
			groups = append(groups, TemplateGroup{
				Level:     domain.LevelOption{Key: tpl.Level, Label: tpl.LevelLabel},
				Templates: []domain.WorkoutTemplate{},
			})
		}
		groups[i].Templates = append(groups[i].Templates, tpl)
	}
	return groups, nil
}

func (s *templateService) DeleteTemplate(ctx context.Context, id primitive.ObjectID, confirm domain.Confirm) error {
	tpl, err := s.GetTemplate(ctx, id)
	if err != nil {
		return err
	}
	if err := domain.Ask(confirm, domain.Prompt{
		Kind:    domain.PromptDeleteTemplate,
		Message: fmt.Sprintf("Delete the %d-day %s template?", tpl.Frequency, tpl.LevelLabel),
	}); err != nil {
		return err
	}
	if err := s.templateRepo.Delete(ctx, id); err != nil {
		return fromRepo("templates", "delete", "template", id, err)
	}
	return nil
}

func (s *templateService) Assign(ctx context.Context, templateID, userID primitive.ObjectID, confirm domain.Confirm) (*domain.WorkoutPlan, error) {
	tpl, err := s.GetTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fromRepo("templates", "assign", "user", userID, err)
	}

	candidates, err := s.planRepo.ListByOwnerAndFrequency(ctx, userID, tpl.Frequency)
	if err != nil {
		return nil, persistFailure("templates", "assign", err, map[string]string{"userId": userID.Hex()})
	}
	for _, p := range candidates {
		if !p.Days.Equal(tpl.Days) {
			continue
		}
		if err := domain.Ask(confirm, domain.Prompt{
			Kind:    domain.PromptDuplicateAssignment,
			Message: fmt.Sprintf("%s already has %q with the same exercises. Assign anyway?", user.Name, p.DisplayName()),
		}); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDuplicateAssignment, err)
		}
		break
	}

	plan := &domain.WorkoutPlan{
		OwnerID:       user.ID,
		OwnerName:     user.Name,
		Frequency:     tpl.Frequency,
		Days:          tpl.Days.Clone(),
		CompletedDays: domain.DaySet{},
		CreatedAt:     s.now(),
	}
	if _, err := s.planRepo.Create(ctx, plan); err != nil {
		return nil, persistFailure("templates", "assign", err, map[string]string{
			"templateId": templateID.Hex(),
			"userId":     userID.Hex(),
		})
	}
	log.Info().Str("templateId", templateID.Hex()).Str("uid", userID.Hex()).Str("planId", plan.ID.Hex()).Msg("template assigned")
	return plan, nil
}

// === Levels ===

func (s *templateService) ListLevels(ctx context.Context) ([]domain.LevelOption, error) {
	custom, err := s.levelRepo.List(ctx)
	if err != nil {
		return nil, persistFailure("levels", "list", err, nil)
	}
	out := append([]domain.LevelOption(nil), domain.BuiltInLevels...)
	for _, l := range custom {
		out = append(out, l.Option())
	}
	return out, nil
}

func (s *templateService) CreateLevel(ctx context.Context, label, icon string) (*domain.CustomLevel, error) {
	level := &domain.CustomLevel{Label: strings.TrimSpace(label), Icon: strings.TrimSpace(icon)}
	if err := level.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.levelRepo.Create(ctx, level); err != nil {
		return nil, persistFailure("levels", "create", err, nil)
	}
	return level, nil
}

// DeleteLevel removes a custom level. Built-in levels and levels still used
// by a template are refused.
func (s *templateService) DeleteLevel(ctx context.Context, key string) error {
	if _, ok := domain.BuiltInLevel(key); ok {
		return domain.Invalid("level", "built-in level %q cannot be deleted", key)
	}
	id, err := primitive.ObjectIDFromHex(key)
	if err != nil {
		return &domain.NotFoundError{Resource: "level", ID: key}
	}
	n, err := s.templateRepo.CountByLevel(ctx, key)
	if err != nil {
		return persistFailure("levels", "delete", err, map[string]string{"levelId": key})
	}
	if n > 0 {
		return domain.Invalid("level", "%d template(s) still use this level", n)
	}
	if err := s.levelRepo.Delete(ctx, id); err != nil {
		return fromRepo("levels", "delete", "level", id, err)
	}
	return nil
}
