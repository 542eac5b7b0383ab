package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Account represents a login account. The identity is the email-like
// string the role is resolved from; the account itself carries no role.
type Account struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Identity   string             `bson:"identity" json:"identity"`
	SecretHash string             `bson:"secret_hash" json:"-"`
	IsActive   bool               `bson:"is_active" json:"is_active"`
	LastLogin  *time.Time         `bson:"last_login,omitempty" json:"last_login,omitempty"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time          `bson:"updated_at" json:"updated_at"`
}

// LoginRequest represents a login request. Drivers may send either their
// bare plate number or the full identity string.
type LoginRequest struct {
	Plate    string `json:"plate,omitempty"`
	Identity string `json:"identity,omitempty"`
	Password string `json:"password"`
}

// RegisterRequest represents an account registration request (admin only).
type RegisterRequest struct {
	Plate    string `json:"plate,omitempty"`
	Identity string `json:"identity,omitempty"`
	Password string `json:"password"`
}

// LoginResponse represents a successful login response
type LoginResponse struct {
	Token   string  `json:"token"`
	Session Session `json:"session"`
}
