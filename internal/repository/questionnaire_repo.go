package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"feedbacksurvey/internal/model"
)

// QuestionnaireRepo handles MongoDB operations for stored questionnaires
type QuestionnaireRepo interface {
	// Save upserts by name
	Save(ctx context.Context, q *model.Questionnaire) error
	GetByName(ctx context.Context, name string) (*model.Questionnaire, error)
}

type questionnaireRepo struct {
	collection *mongo.Collection
}

// NewQuestionnaireRepo creates a new questionnaire repository
func NewQuestionnaireRepo(db *mongo.Database) QuestionnaireRepo {
	return &questionnaireRepo{
		collection: db.Collection("questionnaires"),
	}
}

func (r *questionnaireRepo) Save(ctx context.Context, q *model.Questionnaire) error {
	now := time.Now()
	q.UpdatedAt = now

	update := bson.M{
		"$set": bson.M{
			"name":      q.Name,
			"questions": q.Questions,
			"updatedAt": now,
		},
		"$setOnInsert": bson.M{"createdAt": now},
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"name": q.Name}, update, options.Update().SetUpsert(true))
	return err
}

func (r *questionnaireRepo) GetByName(ctx context.Context, name string) (*model.Questionnaire, error) {
	var q model.Questionnaire
	err := r.collection.FindOne(ctx, bson.M{"name": name}).Decode(&q)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}
