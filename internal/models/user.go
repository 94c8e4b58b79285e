package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)

// Subscription status values mirror what the payment gateway reports.
const (
	SubscriptionCreated   = "created"
	SubscriptionActive    = "active"
	SubscriptionCancelled = "cancelled"
)

// Media is a reference to an asset stored on Cloudinary.
type Media struct {
	PublicID  string `bson:"public_id" json:"public_id"`
	SecureURL string `bson:"secure_url" json:"secure_url"`
}

// Subscription mirrors the gateway-managed subscription by id and status.
type Subscription struct {
	ID     string `bson:"id,omitempty" json:"id,omitempty"`
	Status string `bson:"status,omitempty" json:"status,omitempty"`
}

type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`

	FullName string `bson:"full_name" json:"full_name"`
	Email    string `bson:"email" json:"email"`
	Password string `bson:"password" json:"-"` // Argon2id hash, never returned to clients
	Role     string `bson:"role" json:"role"`

	Avatar       Media        `bson:"avatar" json:"avatar"`
	Subscription Subscription `bson:"subscription" json:"subscription"`

	// Password-reset state. Only the SHA-256 of the raw token is stored;
	// both fields are set together and cleared together.
	ResetToken       string    `bson:"reset_token,omitempty" json:"-"`
	ResetTokenExpiry time.Time `bson:"reset_token_expiry,omitempty" json:"-"`
}

// IsSubscribed reports whether the user currently holds an active
// subscription. Admins get access without one.
func (u *User) IsSubscribed() bool {
	return u.Role == RoleAdmin || u.Subscription.Status == SubscriptionActive
}
