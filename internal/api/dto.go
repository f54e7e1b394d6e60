package api

import (
	"time"

	"github.com/TezottoWell/app-rodrigo-martins/internal/domain"
)

// UserResponse excludes sensitive info like password hash and photo key
type UserResponse struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Email      string      `json:"email"`
	Role       domain.Role `json:"role"`
	ActivePlan bool        `json:"activePlan"`
	HasPhoto   bool        `json:"hasPhoto"`
	CreatedAt  time.Time   `json:"createdAt"`
}

// MapUserToResponse converts a domain User to a UserResponse DTO.
func MapUserToResponse(user *domain.User) UserResponse {
	if user == nil {
		return UserResponse{}
	}
	return UserResponse{
		ID:         user.ID.Hex(),
		Name:       user.Name,
		Email:      user.Email,
		Role:       user.Role,
		ActivePlan: user.ActivePlan,
		HasPhoto:   user.PhotoKey != "",
		CreatedAt:  user.CreatedAt,
	}
}

func MapUsersToResponse(users []domain.User) []UserResponse {
	resp := make([]UserResponse, len(users))
	for i := range users {
		resp[i] = MapUserToResponse(&users[i])
	}
	return resp
}

// PlanResponse is a plan as shown to both admins and clients.
type PlanResponse struct {
	ID            string          `json:"id"`
	OwnerID       string          `json:"ownerId"`
	OwnerName     string          `json:"ownerName"`
	Name          string          `json:"name"`
	CustomName    string          `json:"customName,omitempty"`
	Frequency     int             `json:"frequency"`
	Days          domain.DayPlans `json:"days"`
	PopulatedDays []int           `json:"populatedDays"`
	CompletedDays []int           `json:"completedDays"`
	CreatedAt     time.Time       `json:"createdAt"`
	LastUpdatedAt *time.Time      `json:"lastUpdatedAt,omitempty"`
}

func MapPlanToResponse(plan *domain.WorkoutPlan) PlanResponse {
	resp := PlanResponse{
		ID:            plan.ID.Hex(),
		OwnerID:       plan.OwnerID.Hex(),
		OwnerName:     plan.OwnerName,
		Name:          plan.DisplayName(),
		CustomName:    plan.CustomName,
		Frequency:     plan.Frequency,
		Days:          plan.Days,
		PopulatedDays: plan.PopulatedDays(),
		CompletedDays: append([]int{}, plan.CompletedDays...),
		CreatedAt:     plan.CreatedAt,
	}
	if resp.Days == nil {
		resp.Days = domain.DayPlans{}
	}
	if !plan.LastUpdatedAt.IsZero() {
		t := plan.LastUpdatedAt
		resp.LastUpdatedAt = &t
	}
	return resp
}

func MapPlansToResponse(plans []domain.WorkoutPlan) []PlanResponse {
	resp := make([]PlanResponse, len(plans))
	for i := range plans {
		resp[i] = MapPlanToResponse(&plans[i])
	}
	return resp
}
