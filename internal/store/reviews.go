package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/campusfound/campusfound/internal/model"
)

// CreateReview records the claimant's review of a returned item. Exactly one
// review is allowed per (item, reviewer); the unique index plus INSERT OR
// IGNORE makes the duplicate check race-free.
func CreateReview(ctx context.Context, db *sql.DB, itemID, reviewerID int64, rating int, comment string) (*model.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, fmt.Errorf("rating must be between 1 and 5")
	}

	item, err := GetItem(ctx, db, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrItemNotFound
	}
	if item.ClaimedBy == nil || *item.ClaimedBy != reviewerID {
		return nil, ErrNotClaimant
	}
	if item.Status != model.ItemStatusReturned {
		return nil, ErrNotReturned
	}

	result, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO reviews (item_id, reviewer_id, rating, comment)
		 VALUES (?, ?, ?, ?)`,
		itemID, reviewerID, rating, comment,
	)
	if err != nil {
		return nil, fmt.Errorf("creating review: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("creating review: %w", err)
	}
	if n == 0 {
		return nil, ErrAlreadyReviewed
	}

	id, _ := result.LastInsertId()
	return GetReview(ctx, db, id)
}

// GetReview returns a review by ID.
func GetReview(ctx context.Context, db *sql.DB, id int64) (*model.Review, error) {
	r := &model.Review{}
	var comment, reviewerName, reviewerEmail sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT r.id, r.item_id, r.reviewer_id, r.rating, r.comment, r.created_at,
		        u.full_name, u.email
		 FROM reviews r JOIN users u ON u.id = r.reviewer_id
		 WHERE r.id = ?`, id,
	).Scan(&r.ID, &r.ItemID, &r.ReviewerID, &r.Rating, &comment, &r.CreatedAt,
		&reviewerName, &reviewerEmail)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting review: %w", err)
	}
	r.Comment = comment.String
	r.ReviewerName = displayName(reviewerName, reviewerEmail)
	return r, nil
}

// ListReviewsByItem returns an item's reviews, newest first.
func ListReviewsByItem(ctx context.Context, db *sql.DB, itemID int64) ([]model.Review, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT r.id, r.item_id, r.reviewer_id, r.rating, r.comment, r.created_at,
		        u.full_name, u.email
		 FROM reviews r JOIN users u ON u.id = r.reviewer_id
		 WHERE r.item_id = ?
		 ORDER BY r.created_at DESC, r.id DESC`, itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing reviews: %w", err)
	}
	defer rows.Close()

	var reviews []model.Review
	for rows.Next() {
		var r model.Review
		var comment, reviewerName, reviewerEmail sql.NullString
		if err := rows.Scan(&r.ID, &r.ItemID, &r.ReviewerID, &r.Rating, &comment, &r.CreatedAt,
			&reviewerName, &reviewerEmail); err != nil {
			return nil, fmt.Errorf("scanning review: %w", err)
		}
		r.Comment = comment.String
		r.ReviewerName = displayName(reviewerName, reviewerEmail)
		reviews = append(reviews, r)
	}
	return reviews, rows.Err()
}

// HasReviewed reports whether the user already reviewed the item.
func HasReviewed(ctx context.Context, db *sql.DB, itemID, reviewerID int64) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reviews WHERE item_id = ? AND reviewer_id = ?`,
		itemID, reviewerID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking review existence: %w", err)
	}
	return count > 0, nil
}
