// internal/app/store/applications/applicationstore.go
package applicationstore

import (
	"context"
	"time"

	"github.com/dalemusser/clinsync/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store holds submitted volunteer applications until the backend's report
// agent picks them up.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("volunteer_applications")}
}

// EnsureIndexes creates the lookup indexes.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
		{
			Keys: bson.D{
				{Key: "email_ci", Value: 1},
				{Key: "created_at", Value: -1},
			},
		},
	})
	return err
}

// Create stores app and returns it with its generated ID.
func (s *Store) Create(ctx context.Context, app models.VolunteerApplication) (models.VolunteerApplication, error) {
	app.ID = primitive.NewObjectID()
	app.EmailCI = text.Fold(app.Email)
	if app.Status == "" {
		app.Status = models.ApplicationSubmitted
	}
	app.CreatedAt = time.Now().UTC()
	if _, err := s.c.InsertOne(ctx, app); err != nil {
		return models.VolunteerApplication{}, err
	}
	return app, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.VolunteerApplication, error) {
	var app models.VolunteerApplication
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&app); err != nil {
		return models.VolunteerApplication{}, err
	}
	return app, nil
}

// ListRecent returns the newest applications first. A non-positive limit
// means 50.
func (s *Store) ListRecent(ctx context.Context, limit int64) ([]models.VolunteerApplication, error) {
	return s.find(ctx, bson.M{}, limit)
}

// ListByEmail returns one volunteer's applications, newest first.
func (s *Store) ListByEmail(ctx context.Context, email string, limit int64) ([]models.VolunteerApplication, error) {
	return s.find(ctx, bson.M{"email_ci": text.Fold(email)}, limit)
}

func (s *Store) find(ctx context.Context, filter bson.M, limit int64) ([]models.VolunteerApplication, error) {
	if limit <= 0 {
		limit = 50
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.VolunteerApplication
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
