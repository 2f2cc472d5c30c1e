package dto

import (
	identityDomain "github.com/allisson/identity/internal/identity/domain"
)

// LoginResponse is the payload of a successful login.
type LoginResponse struct {
	Token    string                    `json:"token"`
	Redirect string                    `json:"redirect"`
	User     identityDomain.PublicUser `json:"user"`
}
