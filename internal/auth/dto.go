package auth

import (
	"github.com/carstoreapp/carstore-backend/internal/users"
)

// RegisterInput holds the validated signup payload.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Phone    *string
}

// LoginInput holds the validated credentials payload.
type LoginInput struct {
	Email    string
	Password string
}

// AuthResultDTO carries the minted credentials and the account profile.
type AuthResultDTO struct {
	AccessToken  string           `json:"accessToken"`
	RefreshToken string           `json:"refreshToken"`
	User         users.ProfileDTO `json:"user"`
}
