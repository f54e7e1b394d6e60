// internal/domain/workout_plan.go
package domain

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WeeklyResetAfter is how long completion tracking survives without activity.
const WeeklyResetAfter = 7 * 24 * time.Hour

// WorkoutPlan is a weekly schedule owned by one client.
type WorkoutPlan struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OwnerID       primitive.ObjectID `bson:"ownerId" json:"ownerId"`
	OwnerName     string             `bson:"ownerName" json:"ownerName"` // Denormalized for admin listings
	Frequency     int                `bson:"frequency" json:"frequency"` // Training days per week, 1..7
	Days          DayPlans           `bson:"days" json:"days"`
	CompletedDays DaySet             `bson:"completedDays" json:"completedDays"`
	CustomName    string             `bson:"customName,omitempty" json:"customName,omitempty"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	LastUpdatedAt time.Time          `bson:"lastUpdatedAt,omitempty" json:"lastUpdatedAt,omitzero"`
}

// ValidateFrequency checks n is a usable training frequency.
func ValidateFrequency(n int) error {
	if n < MinDay || n > MaxDay {
		return Invalid("frequency", "must be between %d and %d, got %d", MinDay, MaxDay, n)
	}
	return nil
}

// Validate checks the invariants a stored plan must satisfy.
func (p *WorkoutPlan) Validate() error {
	if p.OwnerID.IsZero() {
		return Invalid("ownerId", "is required")
	}
	if err := ValidateFrequency(p.Frequency); err != nil {
		return err
	}
	if err := p.Days.Validate(p.Frequency); err != nil {
		return err
	}
	populated := p.Days.Populated()
	for _, day := range p.CompletedDays {
		if !DaySet(populated).Has(day) {
			return Invalid("completedDays", "day %d has no items", day)
		}
	}
	return nil
}

// DisplayName is the custom name when set, otherwise a name derived from
// the frequency.
func (p *WorkoutPlan) DisplayName() string {
	if name := strings.TrimSpace(p.CustomName); name != "" {
		return name
	}
	if p.Frequency == 1 {
		return "1-day plan"
	}
	return fmt.Sprintf("%d-day plan", p.Frequency)
}

// PopulatedDays lists the days holding at least one item, ascending.
func (p *WorkoutPlan) PopulatedDays() []int { return p.Days.Populated() }

// Clone deep-copies the plan.
func (p *WorkoutPlan) Clone() *WorkoutPlan {
	out := *p
	out.Days = p.Days.Clone()
	out.CompletedDays = append(DaySet{}, p.CompletedDays...)
	return &out
}

// ResetIfNewWeek clears completion tracking once WeeklyResetAfter has passed
// since the last update, or when the plan was never updated. It reports
// whether the plan changed and needs to be saved.
func (p *WorkoutPlan) ResetIfNewWeek(now time.Time) bool {
	if !p.LastUpdatedAt.IsZero() && now.Sub(p.LastUpdatedAt) < WeeklyResetAfter {
		return false
	}
	p.CompletedDays = DaySet{}
	p.LastUpdatedAt = now
	return true
}

// CompleteDay marks day as done. When that finishes every populated day the
// set is cleared instead and cycleComplete is true.
func (p *WorkoutPlan) CompleteDay(day int, now time.Time) (cycleComplete bool, err error) {
	populated := p.Days.Populated()
	if !DaySet(populated).Has(day) {
		return false, Invalid("day", "day %d has no items", day)
	}
	completed := p.CompletedDays.Within(populated).With(day)
	if completed.Covers(populated) {
		completed = DaySet{}
		cycleComplete = true
	}
	p.CompletedDays = completed
	p.LastUpdatedAt = now
	return cycleComplete, nil
}

// ApplyDays replaces frequency and days, dropping completion marks on days
// that are no longer populated.
func (p *WorkoutPlan) ApplyDays(frequency int, days DayPlans) {
	p.Frequency = frequency
	p.Days = days.Clone()
	p.CompletedDays = p.CompletedDays.Within(p.Days.Populated())
}
