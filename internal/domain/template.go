package domain

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Built-in template levels.
const (
	LevelBeginner     = "beginner"
	LevelIntermediate = "intermediate"
	LevelAdvanced     = "advanced"
)

// LevelOption is a level an operator can file a template under.
type LevelOption struct {
	Key     string `json:"key"`
	Label   string `json:"label"`
	Icon    string `json:"icon,omitempty"`
	BuiltIn bool   `json:"builtIn"`
}

// BuiltInLevels lists the levels that always exist, in display order.
var BuiltInLevels = []LevelOption{
	{Key: LevelBeginner, Label: "Beginner", Icon: "leaf", BuiltIn: true},
	{Key: LevelIntermediate, Label: "Intermediate", Icon: "flame", BuiltIn: true},
	{Key: LevelAdvanced, Label: "Advanced", Icon: "trophy", BuiltIn: true},
}

// BuiltInLevel looks up a built-in level by key.
func BuiltInLevel(key string) (LevelOption, bool) {
	for _, l := range BuiltInLevels {
		if l.Key == key {
			return l, true
		}
	}
	return LevelOption{}, false
}

// CustomLevel is an operator-defined level; templates reference it by hex id.
type CustomLevel struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Label     string             `bson:"label" json:"label"`
	Icon      string             `bson:"icon,omitempty" json:"icon,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// Option presents the custom level alongside the built-ins.
func (l CustomLevel) Option() LevelOption {
	return LevelOption{Key: l.ID.Hex(), Label: l.Label, Icon: l.Icon}
}

// Validate checks the label is present.
func (l CustomLevel) Validate() error {
	if strings.TrimSpace(l.Label) == "" {
		return Invalid("label", "is required")
	}
	return nil
}

// WorkoutTemplate is a reusable, level-tagged plan blueprint.
type WorkoutTemplate struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Level      string             `bson:"level" json:"level"`
	LevelLabel string             `bson:"levelLabel" json:"levelLabel"`
	Frequency  int                `bson:"frequency" json:"frequency"`
	Days       DayPlans           `bson:"days" json:"days"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Validate checks a template is fit to be stored.
func (t *WorkoutTemplate) Validate() error {
	if strings.TrimSpace(t.Level) == "" {
		return Invalid("level", "is required")
	}
	if err := ValidateFrequency(t.Frequency); err != nil {
		return err
	}
	if err := t.Days.Validate(t.Frequency); err != nil {
		return err
	}
	if t.Days.IsEmpty() {
		return Invalid("days", "at least one day needs an exercise")
	}
	return nil
}
