// Package authoring assembles workout plans and templates step by step:
// pick a frequency, pick a day, then enter exercises and combos for it.
package authoring

import (
	"github.com/TezottoWell/app-rodrigo-martins/internal/domain"
)

// ComboCollapsed is reported when removing a member leaves a combo with a
// single exercise, which then replaces the combo in place.
type ComboCollapsed struct {
	Day      int             `json:"day"`
	Index    int             `json:"index"`
	Exercise domain.Exercise `json:"exercise"`
}

// Builder holds the authoring state of one plan or template. It never talks
// to storage; callers save what Days returns once Validate passes.
type Builder struct {
	frequency int
	days      domain.DayPlans
	current   int
	combo     []domain.Exercise
	dirty     bool
}

// New returns an empty builder with no frequency chosen.
func New() *Builder {
	return &Builder{days: domain.DayPlans{}}
}

// FromDays reopens a stored plan or template for editing.
func FromDays(frequency int, days domain.DayPlans) (*Builder, error) {
	if err := domain.ValidateFrequency(frequency); err != nil {
		return nil, err
	}
	if err := days.Validate(frequency); err != nil {
		return nil, err
	}
	b := &Builder{frequency: frequency, days: days.Clone()}
	b.fillDays()
	return b, nil
}

func (b *Builder) Frequency() int { return b.frequency }

// CurrentDay is the selected day, or 0 when none is selected.
func (b *Builder) CurrentDay() int { return b.current }

// Dirty reports unsaved changes since construction or MarkSaved.
func (b *Builder) Dirty() bool { return b.dirty }

func (b *Builder) MarkSaved() { b.dirty = false }

// Days returns a deep copy of every day, including empty ones.
func (b *Builder) Days() domain.DayPlans { return b.days.Clone() }

// Day returns a copy of one day's items.
func (b *Builder) Day(day int) []domain.WorkoutItem {
	return domain.DayPlans{day: b.days[day]}.Clone()[day]
}

// PendingCombo returns the exercises buffered for the combo in progress.
func (b *Builder) PendingCombo() []domain.Exercise {
	return append([]domain.Exercise(nil), b.combo...)
}

// SetFrequency chooses how many days the plan trains. Days beyond the new
// frequency are dropped and the day selection is cleared.
func (b *Builder) SetFrequency(n int) error {
	if err := domain.ValidateFrequency(n); err != nil {
		return err
	}
	for day := range b.days {
		if day > n {
			delete(b.days, day)
		}
	}
	if n != b.frequency {
		b.dirty = true
	}
	b.frequency = n
	b.current = 0
	b.combo = nil
	b.fillDays()
	return nil
}

// DroppedBy lists the populated days a switch to frequency n would discard.
func (b *Builder) DroppedBy(n int) []int {
	var dropped []int
	for _, day := range b.days.Populated() {
		if day > n {
			dropped = append(dropped, day)
		}
	}
	return dropped
}

// SelectDay makes day the target of AddExercise and FinalizeCombo.
// Switching to another day discards a combo in progress.
func (b *Builder) SelectDay(day int) error {
	if err := b.checkDay(day); err != nil {
		return err
	}
	if day != b.current {
		b.combo = nil
	}
	b.current = day
	return nil
}

// AddExercise validates draft and appends it to the selected day. On
// failure the days are left untouched.
func (b *Builder) AddExercise(draft domain.ExerciseDraft) error {
	if err := b.requireDay(); err != nil {
		return err
	}
	e, err := draft.Validate()
	if err != nil {
		return err
	}
	b.days[b.current] = append(b.days[b.current], domain.SingleItem(e))
	b.dirty = true
	return nil
}

// AddToCombo validates draft and buffers it for the combo in progress.
func (b *Builder) AddToCombo(draft domain.ExerciseDraft) error {
	if err := b.requireDay(); err != nil {
		return err
	}
	e, err := draft.Validate()
	if err != nil {
		return err
	}
	b.combo = append(b.combo, e)
	return nil
}

// FinalizeCombo appends the buffered exercises to the selected day as one
// combo and empties the buffer.
func (b *Builder) FinalizeCombo() error {
	if err := b.requireDay(); err != nil {
		return err
	}
	item, err := domain.ComboItem(b.combo)
	if err != nil {
		return err
	}
	b.days[b.current] = append(b.days[b.current], item)
	b.combo = nil
	b.dirty = true
	return nil
}

// DiscardCombo empties the combo buffer.
func (b *Builder) DiscardCombo() { b.combo = nil }

// RemoveItem deletes one item and returns it. Asking the operator first is
// the caller's job.
func (b *Builder) RemoveItem(day, index int) (domain.WorkoutItem, error) {
	if err := b.checkItem(day, index); err != nil {
		return domain.WorkoutItem{}, err
	}
	items := b.days[day]
	removed := items[index]
	b.days[day] = append(items[:index:index], items[index+1:]...)
	b.dirty = true
	return removed, nil
}

// EditItem replaces the item at index with a single exercise.
func (b *Builder) EditItem(day, index int, draft domain.ExerciseDraft) error {
	if err := b.checkItem(day, index); err != nil {
		return err
	}
	e, err := draft.Validate()
	if err != nil {
		return err
	}
	b.days[day][index] = domain.SingleItem(e)
	b.dirty = true
	return nil
}

// EditCombo replaces the item at index with a combo of drafts.
func (b *Builder) EditCombo(day, index int, drafts []domain.ExerciseDraft) error {
	if err := b.checkItem(day, index); err != nil {
		return err
	}
	members := make([]domain.Exercise, 0, len(drafts))
	for _, d := range drafts {
		e, err := d.Validate()
		if err != nil {
			return err
		}
		members = append(members, e)
	}
	item, err := domain.ComboItem(members)
	if err != nil {
		return err
	}
	b.days[day][index] = item
	b.dirty = true
	return nil
}

// RemoveComboMember drops one exercise from a combo. When a single exercise
// remains it replaces the combo and a ComboCollapsed notice is returned.
func (b *Builder) RemoveComboMember(day, index, member int) (*ComboCollapsed, error) {
	if err := b.checkItem(day, index); err != nil {
		return nil, err
	}
	item := b.days[day][index]
	if !item.IsCombo() {
		return nil, domain.Invalid("item", "item %d of day %d is not a combo", index, day)
	}
	members := item.Members()
	if member < 0 || member >= len(members) {
		return nil, domain.Invalid("member", "combo has no member %d", member)
	}
	members = append(members[:member], members[member+1:]...)
	b.dirty = true
	if len(members) == 1 {
		b.days[day][index] = domain.SingleItem(members[0])
		return &ComboCollapsed{Day: day, Index: index, Exercise: members[0]}, nil
	}
	combo, err := domain.ComboItem(members)
	if err != nil {
		return nil, err
	}
	b.days[day][index] = combo
	return nil, nil
}

// NeedsOverwriteConfirmation reports whether copying onto day would
// replace existing items.
func (b *Builder) NeedsOverwriteConfirmation(day int) bool {
	return len(b.days[day]) > 0
}

// CopyDay replaces day to with an independent copy of day from. The
// overwrite is unconditional; confirm with NeedsOverwriteConfirmation first.
func (b *Builder) CopyDay(from, to int) error {
	if from == to {
		return domain.Invalid("toDay", "cannot copy a day onto itself")
	}
	if err := b.checkDay(from); err != nil {
		return err
	}
	if err := b.checkDay(to); err != nil {
		return err
	}
	if len(b.days[from]) == 0 {
		return domain.Invalid("fromDay", "day %d has no items to copy", from)
	}
	b.days[to] = b.Day(from)
	b.dirty = true
	return nil
}

// Validate is the save precondition: a frequency is chosen and at least one
// day holds an item.
func (b *Builder) Validate() error {
	if b.frequency == 0 {
		return domain.Invalid("frequency", "is required")
	}
	if b.days.IsEmpty() {
		return domain.Invalid("days", "at least one day needs an exercise")
	}
	return b.days.Validate(b.frequency)
}

func (b *Builder) fillDays() {
	for day := domain.MinDay; day <= b.frequency; day++ {
		if b.days[day] == nil {
			b.days[day] = []domain.WorkoutItem{}
		}
	}
}

func (b *Builder) checkDay(day int) error {
	if b.frequency == 0 {
		return domain.Invalid("frequency", "is required")
	}
	if day < domain.MinDay || day > b.frequency {
		return domain.Invalid("day", "day %d outside 1..%d", day, b.frequency)
	}
	return nil
}

func (b *Builder) requireDay() error {
	if b.current == 0 {
		return domain.Invalid("day", "no day selected")
	}
	return nil
}

func (b *Builder) checkItem(day, index int) error {
	if err := b.checkDay(day); err != nil {
		return err
	}
	if index < 0 || index >= len(b.days[day]) {
		return domain.Invalid("index", "day %d has no item %d", day, index)
	}
	return nil
}
