package dto

import (
	"time"

	"github.com/splitr/splitr/internal/model"
)

// CreateGroupRequest is the body for POST /create_group.
// Auth carries the session token; the Authorization header is accepted as a
// fallback for clients that prefer it.
type CreateGroupRequest struct {
	GroupName string `json:"group_name"`
	GroupCode string `json:"group_code"`
	Auth      string `json:"auth,omitempty"`
}

// JoinGroupRequest is the body for POST /join_group.
type JoinGroupRequest struct {
	GroupCode string `json:"group_code"`
	Auth      string `json:"auth,omitempty"`
}

// PurchaseRequest is the body for POST /groups/{code}/purchases.
type PurchaseRequest struct {
	Cost        float64            `json:"cost"`
	Description string             `json:"description"`
	Percentages map[string]float64 `json:"percentages,omitempty"`
}

// PurchaseResponse mirrors a recorded purchase.
type PurchaseResponse struct {
	ID          string             `json:"id"`
	Purchaser   string             `json:"purchaser"`
	Cost        float64            `json:"cost"`
	Description string             `json:"description"`
	Percentages map[string]float64 `json:"percentages,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
}

// GroupResponse mirrors a group document.
type GroupResponse struct {
	Code        string             `json:"code"`
	Name        string             `json:"name"`
	CreatedBy   string             `json:"created_by"`
	MemberUIDs  []string           `json:"member_uids"`
	MemberNames map[string]string  `json:"member_names"`
	Purchases   []PurchaseResponse `json:"purchases"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// CreateGroupResponse is the success body for POST /create_group.
type CreateGroupResponse struct {
	Message string        `json:"message"`
	Group   GroupResponse `json:"group"`
}

// ProfileResponse mirrors a user profile document.
type ProfileResponse struct {
	UID        string    `json:"uid"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	GroupCodes []string  `json:"group_codes"`
	CreatedAt  time.Time `json:"created_at"`
}

// ToGroupResponse converts a group model to its response shape.
func ToGroupResponse(g *model.Group) GroupResponse {
	purchases := make([]PurchaseResponse, 0, len(g.Purchases))
	for _, p := range g.Purchases {
		purchases = append(purchases, PurchaseResponse{
			ID:          p.ID,
			Purchaser:   p.Purchaser,
			Cost:        p.Cost,
			Description: p.Description,
			Percentages: p.Percentages,
			CreatedAt:   p.CreatedAt,
		})
	}
	return GroupResponse{
		Code:        g.Code,
		Name:        g.Name,
		CreatedBy:   g.CreatedBy,
		MemberUIDs:  g.MemberUIDs,
		MemberNames: g.MemberNames,
		Purchases:   purchases,
		CreatedAt:   g.CreatedAt,
		UpdatedAt:   g.UpdatedAt,
	}
}

// ToProfileResponse converts a profile model to its response shape.
func ToProfileResponse(p *model.UserProfile) ProfileResponse {
	return ProfileResponse{
		UID:        p.UID,
		Name:       p.Name,
		Email:      p.Email,
		GroupCodes: p.GroupCodes,
		CreatedAt:  p.CreatedAt,
	}
}
