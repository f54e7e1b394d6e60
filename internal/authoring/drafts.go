package authoring

import (
	"sort"

	"github.com/TezottoWell/app-rodrigo-martins/internal/domain"
)

// ItemDraft is unvalidated input for one workout item. A combo kind, or more
// than one exercise, makes a combo.
type ItemDraft struct {
	Kind      domain.ItemKind        `json:"kind,omitempty"`
	Exercises []domain.ExerciseDraft `json:"exercises"`
}

func (d ItemDraft) combo() bool {
	return d.Kind == domain.ItemCombo || len(d.Exercises) > 1
}

// DraftOf turns a stored item back into editable input.
func DraftOf(item domain.WorkoutItem) ItemDraft {
	d := ItemDraft{Kind: item.Kind()}
	for _, e := range item.Exercises() {
		d.Exercises = append(d.Exercises, e.Draft())
	}
	return d
}

// AddDraft appends d to the selected day, going through the combo buffer
// for combos. A combo in progress is discarded first.
func (b *Builder) AddDraft(d ItemDraft) error {
	if !d.combo() {
		if len(d.Exercises) != 1 {
			return domain.Invalid("exercises", "a single item needs exactly one exercise")
		}
		return b.AddExercise(d.Exercises[0])
	}
	b.DiscardCombo()
	for _, e := range d.Exercises {
		if err := b.AddToCombo(e); err != nil {
			b.DiscardCombo()
			return err
		}
	}
	if err := b.FinalizeCombo(); err != nil {
		b.DiscardCombo()
		return err
	}
	return nil
}

// ReplaceDraft replaces the item at index with d.
func (b *Builder) ReplaceDraft(day, index int, d ItemDraft) error {
	if d.combo() {
		return b.EditCombo(day, index, d.Exercises)
	}
	if len(d.Exercises) != 1 {
		return domain.Invalid("exercises", "a single item needs exactly one exercise")
	}
	return b.EditItem(day, index, d.Exercises[0])
}

// Build assembles a builder from a full set of drafts keyed by day. The
// first failing item aborts the build.
func Build(frequency int, days map[int][]ItemDraft) (*Builder, error) {
	b := New()
	if err := b.SetFrequency(frequency); err != nil {
		return nil, err
	}
	keys := make([]int, 0, len(days))
	for day := range days {
		keys = append(keys, day)
	}
	sort.Ints(keys)
	for _, day := range keys {
		if len(days[day]) == 0 {
			continue
		}
		if err := b.SelectDay(day); err != nil {
			return nil, err
		}
		for _, d := range days[day] {
			if err := b.AddDraft(d); err != nil {
				return nil, err
			}
		}
	}
	return b, nil
}
