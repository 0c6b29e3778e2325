// internal/app/store/audit/store.go
package audit

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Event categories
const (
	CategoryAuth   = "auth"
	CategoryAction = "action"
)

// Auth event types
const (
	EventLoginSuccess  = "login_success"
	EventLoginFailed   = "login_failed"
	EventSignupSuccess = "signup_success"
	EventSignupFailed  = "signup_failed"
	EventLogout        = "logout"
)

// Action event types
const (
	EventMatchApproved        = "match_approved"
	EventMatchRejected        = "match_rejected"
	EventMatchDecisionFailed  = "match_decision_failed"
	EventTrialCreated         = "trial_created"
	EventTrialCreateFailed    = "trial_create_failed"
	EventApplicationSubmitted = "application_submitted"
)

// Event represents an audit event. OrganizationID is the backend's id for
// the organization, kept as the string the backend returns.
type Event struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	Timestamp      time.Time          `bson:"timestamp"`
	OrganizationID string             `bson:"organization_id,omitempty"`

	Category  string `bson:"category"`
	EventType string `bson:"event_type"`

	// Subject of the event: a match id, trial id or application id.
	Subject string `bson:"subject,omitempty"`

	IP        string `bson:"ip"`
	UserAgent string `bson:"user_agent,omitempty"`

	Success       bool   `bson:"success"`
	FailureReason string `bson:"failure_reason,omitempty"`

	Details map[string]string `bson:"details,omitempty"`
}

// Store manages audit event records.
type Store struct {
	c *mongo.Collection
}

// New creates a new audit Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("audit_events")}
}

// EnsureIndexes creates the indexes used by the queries below.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "timestamp", Value: -1}}},
		{
			Keys: bson.D{
				{Key: "organization_id", Value: 1},
				{Key: "timestamp", Value: -1},
			},
		},
		{
			Keys: bson.D{
				{Key: "category", Value: 1},
				{Key: "event_type", Value: 1},
				{Key: "timestamp", Value: -1},
			},
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Log records an audit event.
func (s *Store) Log(ctx context.Context, event Event) error {
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_, err := s.c.InsertOne(ctx, event)
	return err
}

// GetByOrganization returns an organization's most recent events, newest
// first. A non-positive limit means 100.
func (s *Store) GetByOrganization(ctx context.Context, orgID string, limit int64) ([]Event, error) {
	return s.find(ctx, bson.M{"organization_id": orgID}, limit)
}

// GetRecent returns the most recent events across all organizations.
func (s *Store) GetRecent(ctx context.Context, limit int64) ([]Event, error) {
	return s.find(ctx, bson.M{}, limit)
}

// QueryFilter narrows Query and CountByFilter. Zero fields match anything.
type QueryFilter struct {
	OrganizationID string
	Category       string
	EventType      string
	StartTime      *time.Time
	EndTime        *time.Time
	Limit          int64
	Offset         int64
}

func (f QueryFilter) bson() bson.M {
	q := bson.M{}
	if f.OrganizationID != "" {
		q["organization_id"] = f.OrganizationID
	}
	if f.Category != "" {
		q["category"] = f.Category
	}
	if f.EventType != "" {
		q["event_type"] = f.EventType
	}
	if f.StartTime != nil || f.EndTime != nil {
		ts := bson.M{}
		if f.StartTime != nil {
			ts["$gte"] = *f.StartTime
		}
		if f.EndTime != nil {
			ts["$lte"] = *f.EndTime
		}
		q["timestamp"] = ts
	}
	return q
}

// Query returns one page of matching events, newest first.
func (s *Store) Query(ctx context.Context, f QueryFilter) ([]Event, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetSkip(f.Offset).
		SetLimit(limit)

	cursor, err := s.c.Find(ctx, f.bson(), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []Event
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// CountByFilter counts matching events, ignoring Limit and Offset.
func (s *Store) CountByFilter(ctx context.Context, f QueryFilter) (int64, error) {
	return s.c.CountDocuments(ctx, f.bson())
}

func (s *Store) find(ctx context.Context, query bson.M, limit int64) ([]Event, error) {
	if limit <= 0 {
		limit = 100
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit)

	cursor, err := s.c.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []Event
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}
