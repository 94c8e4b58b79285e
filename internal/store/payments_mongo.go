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

type MongoPaymentStore struct {
	col *mongo.Collection
}

func NewMongoPaymentStore(db *mongo.Database) *MongoPaymentStore {
	return &MongoPaymentStore{col: db.Collection("payments")}
}

// EnsureIndexes creates the unique index on the gateway payment id, which is
// what makes Create idempotent under replayed verifications.
func (s *MongoPaymentStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "razorpay_payment_id", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("idx_payment_id_unique"),
	})
	return err
}

func (s *MongoPaymentStore) Create(ctx context.Context, p *models.Payment) error {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	p.CreatedAt = time.Now().UTC()

	_, err := s.col.InsertOne(ctx, p)
	if mongo.IsDuplicateKeyError(err) {
		// Same payment verified twice; the ledger already holds it.
		return nil
	}
	return err
}

func (s *MongoPaymentStore) List(ctx context.Context, limit int64) ([]models.Payment, error) {
	if limit <= 0 {
		limit = 10
	}
	cur, err := s.col.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	payments := []models.Payment{}
	if err := cur.All(ctx, &payments); err != nil {
		return nil, err
	}
	return payments, nil
}
