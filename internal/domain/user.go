package domain

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role type to distinguish between user roles
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleClient Role = "client"
)

// User is either an admin (who authors plans) or a client (who trains).
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	NameLower    string             `bson:"nameLower" json:"-"`    // Prefix search key
	Email        string             `bson:"email" json:"email"`    // Unique
	PasswordHash string             `bson:"passwordHash" json:"-"` // Never expose this via JSON
	Role         Role               `bson:"role" json:"role"`
	ActivePlan   bool               `bson:"activePlan" json:"activePlan"` // Client may use the training area
	PhotoKey     string             `bson:"photoKey,omitempty" json:"-"`  // Object key of the profile photo
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) IsClient() bool {
	return u.Role == RoleClient
}

// SearchKey normalizes a name for prefix search.
func SearchKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
