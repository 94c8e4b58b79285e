package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Lecture struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Media       Media              `bson:"media" json:"media"`
}

type Course struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`

	Title       string `bson:"title" json:"title"`
	Description string `bson:"description" json:"description"`
	Category    string `bson:"category" json:"category"`
	CreatedBy   string `bson:"created_by" json:"created_by"`

	Thumbnail Media     `bson:"thumbnail" json:"thumbnail"`
	Lectures  []Lecture `bson:"lectures" json:"lectures,omitempty"`

	// Always recomputed as len(Lectures) on mutation, never incremented
	// independently, so it cannot drift if lectures are removed later.
	NumberOfLectures int `bson:"number_of_lectures" json:"number_of_lectures"`
}
