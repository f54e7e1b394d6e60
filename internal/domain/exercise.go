// internal/domain/exercise.go
package domain

import (
	"net/url"
	"strings"
)

// MuscleGroup is the closed set of body areas an exercise can target.
type MuscleGroup string

const (
	MuscleChest     MuscleGroup = "chest"
	MuscleBack      MuscleGroup = "back"
	MuscleShoulders MuscleGroup = "shoulders"
	MuscleTrapezius MuscleGroup = "trapezius"
	MuscleBiceps    MuscleGroup = "biceps"
	MuscleTriceps   MuscleGroup = "triceps"
	MuscleLowerBody MuscleGroup = "lower_body"
	MuscleAbdomen   MuscleGroup = "abdomen"
	MuscleCardio    MuscleGroup = "cardio"
	MuscleMobility  MuscleGroup = "mobility"
)

// MuscleGroups lists every valid group in display order.
var MuscleGroups = []MuscleGroup{
	MuscleChest, MuscleBack, MuscleShoulders, MuscleTrapezius, MuscleBiceps,
	MuscleTriceps, MuscleLowerBody, MuscleAbdomen, MuscleCardio, MuscleMobility,
}

// Valid reports whether m is one of the known groups.
func (m MuscleGroup) Valid() bool {
	for _, g := range MuscleGroups {
		if g == m {
			return true
		}
	}
	return false
}

// ParseMuscleGroup maps typed or display text ("Cardio", "Lower body") to
// its group key. The result still needs Valid.
func ParseMuscleGroup(s string) MuscleGroup {
	s = strings.ToLower(strings.TrimSpace(s))
	return MuscleGroup(strings.Join(strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '-' || r == '_'
	}), "_"))
}

// IsDuration reports whether RepsOrDuration holds a duration ("20min")
// rather than a rep count for this group.
func (m MuscleGroup) IsDuration() bool {
	return m == MuscleCardio || m == MuscleMobility
}

// cardioSets is the only set count a cardio exercise may carry.
const cardioSets = "1"

// Exercise is one prescribed movement inside a day plan.
type Exercise struct {
	MuscleGroup    MuscleGroup `bson:"muscleGroup" json:"muscleGroup"`
	Name           string      `bson:"name" json:"name"`
	RepsOrDuration string      `bson:"repsOrDuration" json:"repsOrDuration"`
	Sets           string      `bson:"sets" json:"sets"`
	Note           string      `bson:"note,omitempty" json:"note,omitempty"`
	DemoLink       string      `bson:"demoLink,omitempty" json:"demoLink,omitempty"` // Optional video/image URL
}

// Validate checks an already-built exercise, e.g. one decoded from storage.
func (e Exercise) Validate() error {
	if !e.MuscleGroup.Valid() {
		return Invalid("muscleGroup", "unknown muscle group %q", e.MuscleGroup)
	}
	if strings.TrimSpace(e.Name) == "" {
		return Invalid("name", "is required")
	}
	if strings.TrimSpace(e.RepsOrDuration) == "" {
		return Invalid("repsOrDuration", "is required")
	}
	if e.MuscleGroup == MuscleCardio {
		if e.Sets != cardioSets {
			return Invalid("sets", "cardio exercises always have %s set", cardioSets)
		}
	} else if strings.TrimSpace(e.Sets) == "" {
		return Invalid("sets", "is required")
	}
	if e.DemoLink != "" {
		u, err := url.ParseRequestURI(e.DemoLink)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return Invalid("demoLink", "must be an http(s) URL")
		}
	}
	return nil
}

// Draft turns e back into editable input.
func (e Exercise) Draft() ExerciseDraft {
	return ExerciseDraft{
		MuscleGroup:    string(e.MuscleGroup),
		Name:           e.Name,
		RepsOrDuration: e.RepsOrDuration,
		Sets:           e.Sets,
		Note:           e.Note,
		DemoLink:       e.DemoLink,
	}
}

// ExerciseDraft is unvalidated exercise input as typed by an operator.
type ExerciseDraft struct {
	MuscleGroup    string `json:"muscleGroup"`
	Name           string `json:"name"`
	RepsOrDuration string `json:"repsOrDuration"`
	Sets           string `json:"sets"`
	Note           string `json:"note,omitempty"`
	DemoLink       string `json:"demoLink,omitempty"`
}

// Validate normalizes the draft and returns the Exercise it describes.
// Cardio drafts always end up with a single set, whatever was typed.
func (d ExerciseDraft) Validate() (Exercise, error) {
	e := Exercise{
		MuscleGroup:    ParseMuscleGroup(d.MuscleGroup),
		Name:           strings.TrimSpace(d.Name),
		RepsOrDuration: strings.TrimSpace(d.RepsOrDuration),
		Sets:           strings.TrimSpace(d.Sets),
		Note:           strings.TrimSpace(d.Note),
		DemoLink:       strings.TrimSpace(d.DemoLink),
	}
	if e.MuscleGroup == "" {
		return Exercise{}, Invalid("muscleGroup", "is required")
	}
	if e.MuscleGroup == MuscleCardio {
		e.Sets = cardioSets
	}
	if err := e.Validate(); err != nil {
		return Exercise{}, err
	}
	return e, nil
}
