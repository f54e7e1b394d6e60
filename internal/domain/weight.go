package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Accepted body weight range in kilograms.
const (
	MinWeightKg = 10
	MaxWeightKg = 400
)

// WeightEntry is one body-weight measurement logged by a client.
type WeightEntry struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID   primitive.ObjectID `bson:"userId" json:"userId"`
	WeightKg float64            `bson:"weightKg" json:"weightKg"`
	Date     time.Time          `bson:"date" json:"date"`
}

// ValidateWeight checks kg lies in the accepted range.
func ValidateWeight(kg float64) error {
	if kg < MinWeightKg || kg > MaxWeightKg {
		return Invalid("weightKg", "must be between %d and %d kg", MinWeightKg, MaxWeightKg)
	}
	return nil
}
