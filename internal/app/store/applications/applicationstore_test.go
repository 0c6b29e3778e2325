package applicationstore_test

import (
	"errors"
	"testing"

	applicationstore "github.com/dalemusser/clinsync/internal/app/store/applications"
	"github.com/dalemusser/clinsync/internal/domain/models"
	"github.com/dalemusser/clinsync/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func sampleApplication(email string) models.VolunteerApplication {
	return models.VolunteerApplication{
		Name:          "Ada Lovelace",
		Email:         email,
		DateOfBirth:   "1990-12-10",
		Gender:        "female",
		DocumentNames: []string{"labs.pdf"},
		ReportText:    "--- labs.pdf ---\nA1C 5.2",
	}
}

func TestStore_CreateAndGet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := applicationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, sampleApplication("Ada@Example.com"))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID.IsZero() || created.CreatedAt.IsZero() {
		t.Errorf("expected ID and CreatedAt to be set: %+v", created)
	}
	if created.Status != models.ApplicationSubmitted {
		t.Errorf("expected default status, got %q", created.Status)
	}
	if created.EmailCI != "ada@example.com" {
		t.Errorf("expected folded email, got %q", created.EmailCI)
	}

	got, err := store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Name != "Ada Lovelace" || got.ReportText != created.ReportText || len(got.DocumentNames) != 1 {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestStore_GetByID_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := applicationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.GetByID(ctx, primitive.NewObjectID())
	if !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("expected ErrNoDocuments, got %v", err)
	}
}

func TestStore_ListRecentAndByEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := applicationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes failed: %v", err)
	}
	for _, email := range []string{"a@example.com", "b@example.com", "A@example.com"} {
		if _, err := store.Create(ctx, sampleApplication(email)); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	recent, err := store.ListRecent(ctx, 2)
	if err != nil {
		t.Fatalf("ListRecent failed: %v", err)
	}
	if len(recent) != 2 {
		t.Errorf("expected 2 (limit), got %d", len(recent))
	}

	mine, err := store.ListByEmail(ctx, "a@EXAMPLE.com", 0)
	if err != nil {
		t.Fatalf("ListByEmail failed: %v", err)
	}
	if len(mine) != 2 {
		t.Errorf("expected 2 applications for a@example.com, got %d", len(mine))
	}
}
