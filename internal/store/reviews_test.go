package store

import (
	"context"
	"errors"
	"testing"

	"github.com/campusfound/campusfound/internal/db"
	"github.com/campusfound/campusfound/internal/model"
)

func TestReviewLifecycle(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	poster := createTestUser(t, database, "poster@campus.edu")
	claimer := createTestUser(t, database, "claimer@campus.edu")
	item := createTestItem(t, database, poster.ID, model.ItemTypeFound, "Water Bottle")

	ClaimItem(ctx, database, item.ID, claimer.ID)

	// No review before the item is returned.
	if _, err := CreateReview(ctx, database, item.ID, claimer.ID, 5, "great"); !errors.Is(err, ErrNotReturned) {
		t.Errorf("expected ErrNotReturned, got %v", err)
	}

	MarkReturned(ctx, database, item.ID, poster.ID)

	// Only the claimant may review.
	if _, err := CreateReview(ctx, database, item.ID, poster.ID, 5, ""); !errors.Is(err, ErrNotClaimant) {
		t.Errorf("expected ErrNotClaimant, got %v", err)
	}

	review, err := CreateReview(ctx, database, item.ID, claimer.ID, 4, "Quick handover, thanks!")
	if err != nil {
		t.Fatalf("CreateReview: %v", err)
	}
	if review.Rating != 4 {
		t.Errorf("expected rating 4, got %d", review.Rating)
	}
	if review.ReviewerName != "Test User" {
		t.Errorf("expected reviewer name joined in, got %q", review.ReviewerName)
	}

	// One review per claimant per item.
	if _, err := CreateReview(ctx, database, item.ID, claimer.ID, 5, "again"); !errors.Is(err, ErrAlreadyReviewed) {
		t.Errorf("expected ErrAlreadyReviewed, got %v", err)
	}

	reviewed, _ := HasReviewed(ctx, database, item.ID, claimer.ID)
	if !reviewed {
		t.Error("expected HasReviewed to be true")
	}
}

func TestReviewRatingBounds(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	poster := createTestUser(t, database, "poster@campus.edu")
	claimer := createTestUser(t, database, "claimer@campus.edu")
	item := createTestItem(t, database, poster.ID, model.ItemTypeFound, "Glasses")

	ClaimItem(ctx, database, item.ID, claimer.ID)
	MarkReturned(ctx, database, item.ID, poster.ID)

	if _, err := CreateReview(ctx, database, item.ID, claimer.ID, 0, ""); err == nil {
		t.Error("expected error for rating 0")
	}
	if _, err := CreateReview(ctx, database, item.ID, claimer.ID, 6, ""); err == nil {
		t.Error("expected error for rating 6")
	}
}

func TestListReviewsByItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	poster := createTestUser(t, database, "poster@campus.edu")
	claimer := createTestUser(t, database, "claimer@campus.edu")
	item := createTestItem(t, database, poster.ID, model.ItemTypeFound, "Jacket")

	ClaimItem(ctx, database, item.ID, claimer.ID)
	MarkReturned(ctx, database, item.ID, poster.ID)
	CreateReview(ctx, database, item.ID, claimer.ID, 5, "Honest finder")

	reviews, err := ListReviewsByItem(ctx, database, item.ID)
	if err != nil {
		t.Fatalf("ListReviewsByItem: %v", err)
	}
	if len(reviews) != 1 {
		t.Fatalf("expected 1 review, got %d", len(reviews))
	}
	if reviews[0].Comment != "Honest finder" {
		t.Errorf("expected comment, got %q", reviews[0].Comment)
	}
}
