package model

import "time"

// MinGroupCodeLength is the minimum length of a group code.
const MinGroupCodeLength = 6

// Group is the document stored per expense-sharing group, keyed by Code.
type Group struct {
	Code        string            `json:"code"`
	Name        string            `json:"name"`
	CreatedBy   string            `json:"created_by"`
	MemberUIDs  []string          `json:"member_uids"`
	MemberNames map[string]string `json:"member_names"`
	Purchases   []Purchase        `json:"purchases"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// HasMember reports whether uid is a member of the group.
func (g *Group) HasMember(uid string) bool {
	for _, m := range g.MemberUIDs {
		if m == uid {
			return true
		}
	}
	return false
}

// Purchase is a single shared expense recorded inside a group document.
// Percentages maps member uid to that member's share of the cost.
type Purchase struct {
	ID          string             `json:"id"`
	Purchaser   string             `json:"purchaser"`
	Cost        float64            `json:"cost"`
	Description string             `json:"description"`
	Percentages map[string]float64 `json:"percentages"`
	CreatedAt   time.Time          `json:"created_at"`
}
