package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is an account in the local auth system
type User struct {
	ID                  primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email               string             `bson:"email" json:"email"`
	PasswordHash        string             `bson:"passwordHash" json:"-"` // Argon2id hash, never exposed
	FirstName           string             `bson:"firstName" json:"first_name"`
	LastName            string             `bson:"lastName" json:"last_name"`
	Role                string             `bson:"role,omitempty" json:"role,omitempty"` // "admin" or "user"
	RefreshTokenVersion int                `bson:"refreshTokenVersion" json:"-"`         // Bumped on logout to invalidate tokens
	CreatedAt           time.Time          `bson:"createdAt" json:"created_at"`
	LastLoginAt         time.Time          `bson:"lastLoginAt,omitempty" json:"last_login_at,omitempty"`
}

// UserSummary is the compact user shape embedded in task/requirement responses
type UserSummary struct {
	ID        string `json:"id"`
	Email     string `json:"email,omitempty"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Summary converts a user to its compact form
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:        u.ID.Hex(),
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

// RegisterRequest is the signup payload
type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// LoginRequest is the login payload
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse carries a fresh token pair
type TokenResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	User         UserSummary `json:"user"`
}
