// Package dto defines request and response shapes for the HTTP API.
package dto

// LoginRequest is the body for POST /login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignupRequest is the body for POST /signup.
// Name is optional; it seeds the user's profile document.
type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

// AuthResponse is the success body for login and signup.
type AuthResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

// ErrorResponse is the standard error body.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
