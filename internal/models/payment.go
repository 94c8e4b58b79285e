package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Payment is an append-only record of a verified gateway payment. It is
// created only after the signature check succeeds and is never mutated.
type Payment struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`

	PaymentID      string `bson:"razorpay_payment_id" json:"razorpay_payment_id"`
	Signature      string `bson:"razorpay_signature" json:"razorpay_signature"`
	SubscriptionID string `bson:"razorpay_subscription_id" json:"razorpay_subscription_id"`
}
