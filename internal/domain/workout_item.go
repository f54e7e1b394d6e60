package domain

import (
	"encoding/json"

	"go.mongodb.org/mongo-driver/bson"
)

// ItemKind discriminates the two shapes a WorkoutItem can take.
type ItemKind string

const (
	ItemSingle ItemKind = "single"
	ItemCombo  ItemKind = "combo"
)

// MinComboSize is the smallest number of exercises a combo may hold.
const MinComboSize = 2

// WorkoutItem is either a single Exercise or a Combo of two or more
// exercises performed back to back. The zero value is not a valid item;
// build one with SingleItem or ComboItem.
type WorkoutItem struct {
	kind     ItemKind
	exercise Exercise
	combo    []Exercise
}

// SingleItem wraps one exercise.
func SingleItem(e Exercise) WorkoutItem {
	return WorkoutItem{kind: ItemSingle, exercise: e}
}

// ComboItem groups members into a combo. Members are copied.
func ComboItem(members []Exercise) (WorkoutItem, error) {
	if len(members) < MinComboSize {
		return WorkoutItem{}, Invalid("combo", "needs at least %d exercises, got %d", MinComboSize, len(members))
	}
	return WorkoutItem{kind: ItemCombo, combo: append([]Exercise(nil), members...)}, nil
}

func (it WorkoutItem) Kind() ItemKind { return it.kind }

func (it WorkoutItem) IsCombo() bool { return it.kind == ItemCombo }

// Exercise returns the wrapped exercise of a single item.
func (it WorkoutItem) Exercise() (Exercise, bool) {
	return it.exercise, it.kind == ItemSingle
}

// Members returns a copy of the exercises of a combo, or nil for a single.
func (it WorkoutItem) Members() []Exercise {
	if it.kind != ItemCombo {
		return nil
	}
	return append([]Exercise(nil), it.combo...)
}

// Exercises flattens the item: one entry for a single, every member for a combo.
func (it WorkoutItem) Exercises() []Exercise {
	switch it.kind {
	case ItemSingle:
		return []Exercise{it.exercise}
	case ItemCombo:
		return it.Members()
	default:
		return nil
	}
}

// Validate checks the item and every exercise inside it.
func (it WorkoutItem) Validate() error {
	switch it.kind {
	case ItemSingle:
		return it.exercise.Validate()
	case ItemCombo:
		if len(it.combo) < MinComboSize {
			return Invalid("combo", "needs at least %d exercises, got %d", MinComboSize, len(it.combo))
		}
		for _, e := range it.combo {
			if err := e.Validate(); err != nil {
				return err
			}
		}
		return nil
	default:
		return Invalid("item", "unknown item kind %q", it.kind)
	}
}

// Clone returns an item sharing no memory with it.
func (it WorkoutItem) Clone() WorkoutItem {
	out := WorkoutItem{kind: it.kind, exercise: it.exercise}
	if it.combo != nil {
		out.combo = append([]Exercise(nil), it.combo...)
	}
	return out
}

// Equal reports structural equality. Member order inside a combo matters.
func (it WorkoutItem) Equal(other WorkoutItem) bool {
	if it.kind != other.kind {
		return false
	}
	switch it.kind {
	case ItemSingle:
		return it.exercise == other.exercise
	case ItemCombo:
		if len(it.combo) != len(other.combo) {
			return false
		}
		for i := range it.combo {
			if it.combo[i] != other.combo[i] {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// comboDocument is the stored shape of a combo. A single exercise is stored
// as the bare exercise document, without a kind marker.
type comboDocument struct {
	Kind      ItemKind   `bson:"kind" json:"kind"`
	Exercises []Exercise `bson:"exercises" json:"exercises"`
}

// itemDocument accepts both stored shapes on decode.
type itemDocument struct {
	Kind           ItemKind    `bson:"kind,omitempty"`
	Exercises      []Exercise  `bson:"exercises,omitempty"`
	MuscleGroup    MuscleGroup `bson:"muscleGroup,omitempty"`
	Name           string      `bson:"name,omitempty"`
	RepsOrDuration string      `bson:"repsOrDuration,omitempty"`
	Sets           string      `bson:"sets,omitempty"`
	Note           string      `bson:"note,omitempty"`
	DemoLink       string      `bson:"demoLink,omitempty"`
}

func (d itemDocument) item() (WorkoutItem, error) {
	var it WorkoutItem
	switch d.Kind {
	case ItemCombo:
		it = WorkoutItem{kind: ItemCombo, combo: d.Exercises}
	case "", ItemSingle:
		if len(d.Exercises) > 0 {
			return WorkoutItem{}, Invalid("item", "exercise list without combo marker")
		}
		it = SingleItem(Exercise{
			MuscleGroup:    d.MuscleGroup,
			Name:           d.Name,
			RepsOrDuration: d.RepsOrDuration,
			Sets:           d.Sets,
			Note:           d.Note,
			DemoLink:       d.DemoLink,
		})
	default:
		return WorkoutItem{}, Invalid("item", "unknown item kind %q", d.Kind)
	}
	if err := it.Validate(); err != nil {
		return WorkoutItem{}, err
	}
	return it, nil
}

// MarshalBSON implements bson.Marshaler.
func (it WorkoutItem) MarshalBSON() ([]byte, error) {
	switch it.kind {
	case ItemSingle:
		return bson.Marshal(it.exercise)
	case ItemCombo:
		return bson.Marshal(comboDocument{Kind: ItemCombo, Exercises: it.combo})
	default:
		return nil, Invalid("item", "cannot store an empty workout item")
	}
}

// UnmarshalBSON implements bson.Unmarshaler. Malformed documents are
// rejected with a ValidationError.
func (it *WorkoutItem) UnmarshalBSON(data []byte) error {
	var doc itemDocument
	if err := bson.Unmarshal(data, &doc); err != nil {
		return Invalid("item", "malformed document: %v", err)
	}
	decoded, err := doc.item()
	if err != nil {
		return err
	}
	*it = decoded
	return nil
}

// singleJSON is the API shape of a single exercise.
type singleJSON struct {
	Kind ItemKind `json:"kind"`
	Exercise
}

// MarshalJSON implements json.Marshaler. Both shapes carry a kind field.
func (it WorkoutItem) MarshalJSON() ([]byte, error) {
	switch it.kind {
	case ItemSingle:
		return json.Marshal(singleJSON{Kind: ItemSingle, Exercise: it.exercise})
	case ItemCombo:
		return json.Marshal(comboDocument{Kind: ItemCombo, Exercises: it.combo})
	default:
		return nil, Invalid("item", "cannot encode an empty workout item")
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (it *WorkoutItem) UnmarshalJSON(data []byte) error {
	var raw struct {
		Kind      ItemKind   `json:"kind"`
		Exercises []Exercise `json:"exercises"`
		Exercise
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Invalid("item", "malformed document: %v", err)
	}
	decoded, err := itemDocument{
		Kind:           raw.Kind,
		Exercises:      raw.Exercises,
		MuscleGroup:    raw.MuscleGroup,
		Name:           raw.Name,
		RepsOrDuration: raw.RepsOrDuration,
		Sets:           raw.Sets,
		Note:           raw.Note,
		DemoLink:       raw.DemoLink,
	}.item()
	if err != nil {
		return err
	}
	*it = decoded
	return nil
}
