package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/gyanpath/lms-backend/internal/models"
)

type MongoCourseStore struct {
	col *mongo.Collection
}

func NewMongoCourseStore(db *mongo.Database) *MongoCourseStore {
	return &MongoCourseStore{col: db.Collection("courses")}
}

func (s *MongoCourseStore) List(ctx context.Context) ([]models.Course, error) {
	cur, err := s.col.Find(ctx, bson.M{},
		options.Find().SetProjection(bson.M{"lectures": 0}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	courses := []models.Course{}
	if err := cur.All(ctx, &courses); err != nil {
		return nil, err
	}
	return courses, nil
}

func (s *MongoCourseStore) Get(ctx context.Context, id string) (*models.Course, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var c models.Course
	err = s.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&c)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *MongoCourseStore) Create(ctx context.Context, c *models.Course) error {
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	if c.Lectures == nil {
		c.Lectures = []models.Lecture{}
	}
	c.NumberOfLectures = len(c.Lectures)

	_, err := s.col.InsertOne(ctx, c)
	return err
}

func (s *MongoCourseStore) Update(ctx context.Context, id string, upd CourseUpdate) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.Title != nil {
		set["title"] = *upd.Title
	}
	if upd.Description != nil {
		set["description"] = *upd.Description
	}
	if upd.Category != nil {
		set["category"] = *upd.Category
	}
	return s.updateByID(ctx, id, bson.M{"$set": set})
}

func (s *MongoCourseStore) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	res, err := s.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoCourseStore) SetThumbnail(ctx context.Context, id string, thumb models.Media) error {
	return s.updateByID(ctx, id, bson.M{"$set": bson.M{
		"thumbnail":  thumb,
		"updated_at": time.Now().UTC(),
	}})
}

func (s *MongoCourseStore) AddLecture(ctx context.Context, courseID string, lec models.Lecture) (int, error) {
	oid, err := primitive.ObjectIDFromHex(courseID)
	if err != nil {
		return 0, ErrNotFound
	}
	if lec.ID.IsZero() {
		lec.ID = primitive.NewObjectID()
	}

	// Push then recompute the count from the stored sequence length in one
	// pipeline update, so the denormalized field can never drift.
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"lectures":   bson.M{"$concatArrays": bson.A{bson.M{"$ifNull": bson.A{"$lectures", bson.A{}}}, bson.A{lec}}},
			"updated_at": time.Now().UTC(),
		}}},
		{{Key: "$set", Value: bson.M{
			"number_of_lectures": bson.M{"$size": "$lectures"},
		}}},
	}

	var c models.Course
	err = s.col.FindOneAndUpdate(ctx, bson.M{"_id": oid}, pipeline,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&c)
	if err == mongo.ErrNoDocuments {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return c.NumberOfLectures, nil
}

func (s *MongoCourseStore) updateByID(ctx context.Context, id string, update bson.M) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	res, err := s.col.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
