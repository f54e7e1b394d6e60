package domain

import (
	"sort"
	"strconv"

	"go.mongodb.org/mongo-driver/bson"
)

// Days of the week are numbered 1..7. A plan trains on days 1..Frequency.
const (
	MinDay = 1
	MaxDay = 7
)

// DayPlans maps a day number to its ordered list of workout items.
type DayPlans map[int][]WorkoutItem

// Clone deep-copies every day and item.
func (d DayPlans) Clone() DayPlans {
	out := make(DayPlans, len(d))
	for day, items := range d {
		copied := make([]WorkoutItem, len(items))
		for i, it := range items {
			copied[i] = it.Clone()
		}
		out[day] = copied
	}
	return out
}

// Equal is canonical structural equality: a day with no items equals an
// absent day, item order matters.
func (d DayPlans) Equal(other DayPlans) bool {
	for _, pair := range [][2]DayPlans{{d, other}, {other, d}} {
		for day, a := range pair[0] {
			b := pair[1][day]
			if len(a) != len(b) {
				return false
			}
			for i := range a {
				if !a[i].Equal(b[i]) {
					return false
				}
			}
		}
	}
	return true
}

// Populated returns the sorted day numbers that hold at least one item.
func (d DayPlans) Populated() []int {
	days := make([]int, 0, len(d))
	for day, items := range d {
		if len(items) > 0 {
			days = append(days, day)
		}
	}
	sort.Ints(days)
	return days
}

// IsEmpty reports whether no day holds an item.
func (d DayPlans) IsEmpty() bool { return len(d.Populated()) == 0 }

// Pruned returns a copy without the empty days.
func (d DayPlans) Pruned() DayPlans {
	out := d.Clone()
	for day, items := range out {
		if len(items) == 0 {
			delete(out, day)
		}
	}
	return out
}

// Validate checks every key lies within 1..frequency and every item is well formed.
func (d DayPlans) Validate(frequency int) error {
	for day, items := range d {
		if day < MinDay || day > frequency {
			return Invalid("days", "day %d outside 1..%d", day, frequency)
		}
		for _, it := range items {
			if err := it.Validate(); err != nil {
				return err
			}
		}
	}
	return nil
}

// MarshalBSON stores the map as a document keyed by the day number.
func (d DayPlans) MarshalBSON() ([]byte, error) {
	doc := make(map[string][]WorkoutItem, len(d))
	for day, items := range d {
		if items == nil {
			items = []WorkoutItem{}
		}
		doc[strconv.Itoa(day)] = items
	}
	return bson.Marshal(doc)
}

// UnmarshalBSON implements bson.Unmarshaler.
func (d *DayPlans) UnmarshalBSON(data []byte) error {
	var doc map[string][]WorkoutItem
	if err := bson.Unmarshal(data, &doc); err != nil {
		return err
	}
	out := make(DayPlans, len(doc))
	for key, items := range doc {
		day, err := strconv.Atoi(key)
		if err != nil || day < MinDay || day > MaxDay {
			return Invalid("days", "invalid day key %q", key)
		}
		if items == nil {
			items = []WorkoutItem{}
		}
		out[day] = items
	}
	*d = out
	return nil
}

// DaySet is a sorted set of day numbers.
type DaySet []int

// Has reports whether day is in the set.
func (s DaySet) Has(day int) bool {
	i := sort.SearchInts(s, day)
	return i < len(s) && s[i] == day
}

// With returns a new set that also holds day.
func (s DaySet) With(day int) DaySet {
	if s.Has(day) {
		return append(DaySet{}, s...)
	}
	out := append(DaySet{}, s...)
	out = append(out, day)
	sort.Ints(out)
	return out
}

// Normalize sorts the set and drops duplicates.
func (s DaySet) Normalize() DaySet {
	out := DaySet{}
	for _, day := range s {
		out = out.With(day)
	}
	return out
}

// Covers reports whether every day in days is in the set.
func (s DaySet) Covers(days []int) bool {
	for _, day := range days {
		if !s.Has(day) {
			return false
		}
	}
	return true
}

// Within returns the subset of s that is also in days.
func (s DaySet) Within(days []int) DaySet {
	out := DaySet{}
	for _, day := range days {
		if s.Has(day) {
			out = append(out, day)
		}
	}
	sort.Ints(out)
	return out
}
