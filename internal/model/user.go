// Package model defines domain entities for the application.
package model

import "time"

// UserProfile is the document stored per authenticated user.
// Keyed by the identity provider's uid; mirrors what the mobile client reads.
type UserProfile struct {
	UID        string    `json:"uid"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	GroupCodes []string  `json:"group_codes"`
	CreatedAt  time.Time `json:"created_at"`
}

// AuthContext carries the authenticated identity for a single request.
// Derived from a verified session token; never persisted.
type AuthContext struct {
	UID   string `json:"uid"`
	Email string `json:"email,omitempty"`
}
