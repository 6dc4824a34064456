package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"feedbacksurvey/internal/model"
)

type mongoResponseRepo struct {
	collection *mongo.Collection
}

// NewMongoResponseRepo stores responses in the "responses" collection
func NewMongoResponseRepo(db *mongo.Database) ResponseRepo {
	return &mongoResponseRepo{
		collection: db.Collection("responses"),
	}
}

// EnsureResponseIndexes creates the submittedAt index used by List
func EnsureResponseIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("responses").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "submittedAt", Value: -1}},
	})
	return err
}

func (r *mongoResponseRepo) Create(ctx context.Context, resp *model.Response) error {
	_, err := r.collection.InsertOne(ctx, resp)
	return err
}

func (r *mongoResponseRepo) GetByID(ctx context.Context, id string) (*model.Response, error) {
	var resp model.Response
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&resp)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (r *mongoResponseRepo) List(ctx context.Context, limit int) ([]*model.Response, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "submittedAt", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var responses []*model.Response
	if err := cursor.All(ctx, &responses); err != nil {
		return nil, err
	}
	return responses, nil
}

func (r *mongoResponseRepo) Count(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{})
}
