package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RequestStatus tracks an access request through review.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// AccessRequest is a client asking an admin to unlock the training area.
type AccessRequest struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      primitive.ObjectID `bson:"userId" json:"userId"`
	UserName    string             `bson:"userName" json:"userName"` // Denormalized for the admin queue
	UserEmail   string             `bson:"userEmail" json:"userEmail"`
	Status      RequestStatus      `bson:"status" json:"status"`
	RequestedAt time.Time          `bson:"requestedAt" json:"requestedAt"`
	RespondedAt *time.Time         `bson:"respondedAt,omitempty" json:"respondedAt,omitempty"`
}
