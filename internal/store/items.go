package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/campusfound/campusfound/internal/model"
)

// ItemFilter selects items for listing queries. Zero values mean "no filter".
type ItemFilter struct {
	Type     string // "lost", "found" or "" / "all"
	Query    string // case-insensitive substring across title/description/category/location
	Sort     string // "newest" (default) or "oldest"
	PosterID int64  // restrict to a single poster (dashboard)
}

const itemColumns = `i.id, i.poster_id, u.full_name, u.email, i.item_type, i.title, i.category,
       i.location, i.photo_mime, i.description, i.date_lost, i.reward_offered,
       i.verification_question, i.contact_preference, i.phone_number, i.email,
       i.status, i.claimed_by, i.created_at, i.updated_at`

// CreateItem creates a new listing and returns it with generated fields filled.
func CreateItem(ctx context.Context, db *sql.DB, item *model.Item) (*model.Item, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO items (poster_id, item_type, title, category, location, description,
		                    date_lost, reward_offered, verification_question,
		                    contact_preference, phone_number, email)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.PosterID, item.Type, item.Title, item.Category, item.Location, item.Description,
		item.DateLost, item.RewardOffered, item.VerificationQuestion,
		item.ContactPreference, item.PhoneNumber, item.Email,
	)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting item id: %w", err)
	}

	return GetItem(ctx, db, id)
}

// GetItem returns an item by ID, with the poster's display name joined in.
func GetItem(ctx context.Context, db *sql.DB, id int64) (*model.Item, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+itemColumns+`
		 FROM items i JOIN users u ON u.id = i.poster_id
		 WHERE i.id = ?`, id,
	)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// ListItems returns listings matching the filter. The type filter and the
// free-text query are conjunctive; an empty query returns the full catalog
// under the type filter alone. Sorted by creation time, newest first unless
// Sort is "oldest".
func ListItems(ctx context.Context, db *sql.DB, filter ItemFilter) ([]model.Item, error) {
	query := `SELECT ` + itemColumns + `
	          FROM items i JOIN users u ON u.id = i.poster_id
	          WHERE 1=1`
	var args []any

	if filter.Type == model.ItemTypeLost || filter.Type == model.ItemTypeFound {
		query += ` AND i.item_type = ?`
		args = append(args, filter.Type)
	}

	if filter.Query != "" {
		q := "%" + strings.ToLower(filter.Query) + "%"
		query += ` AND (lower(i.title) LIKE ? OR lower(i.description) LIKE ?
		           OR lower(i.category) LIKE ? OR lower(i.location) LIKE ?)`
		args = append(args, q, q, q, q)
	}

	if filter.PosterID > 0 {
		query += ` AND i.poster_id = ?`
		args = append(args, filter.PosterID)
	}

	if filter.Sort == "oldest" {
		query += ` ORDER BY i.created_at ASC, i.id ASC`
	} else {
		query += ` ORDER BY i.created_at DESC, i.id DESC`
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// UpdateItem updates a listing's user-editable fields. Status and claimant
// are managed exclusively by ClaimItem and MarkReturned.
func UpdateItem(ctx context.Context, db *sql.DB, item *model.Item) error {
	_, err := db.ExecContext(ctx,
		`UPDATE items SET item_type = ?, title = ?, category = ?, location = ?,
		        description = ?, date_lost = ?, reward_offered = ?,
		        verification_question = ?, contact_preference = ?,
		        phone_number = ?, email = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		item.Type, item.Title, item.Category, item.Location,
		item.Description, item.DateLost, item.RewardOffered,
		item.VerificationQuestion, item.ContactPreference,
		item.PhoneNumber, item.Email, item.ID,
	)
	if err != nil {
		return fmt.Errorf("updating item: %w", err)
	}
	return nil
}

// DeleteItem removes a listing and, via cascade, its conversations and reviews.
func DeleteItem(ctx context.Context, db *sql.DB, id int64) error {
	_, err := db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	return nil
}

// ClaimItem transitions an item from active to claimed on behalf of userID.
// The transition is a single conditional UPDATE so that two concurrent claims
// cannot both succeed; the affected-row count decides the outcome.
func ClaimItem(ctx context.Context, db *sql.DB, itemID, userID int64) error {
	result, err := db.ExecContext(ctx,
		`UPDATE items SET status = ?, claimed_by = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = ? AND poster_id <> ?`,
		model.ItemStatusClaimed, userID, itemID, model.ItemStatusActive, userID,
	)
	if err != nil {
		return fmt.Errorf("claiming item: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("claiming item: %w", err)
	}
	if n == 1 {
		return nil
	}

	// Nothing was updated; work out why for a precise user-facing message.
	item, err := GetItem(ctx, db, itemID)
	if err != nil {
		return err
	}
	switch {
	case item == nil:
		return ErrItemNotFound
	case item.PosterID == userID:
		return ErrOwnItemClaim
	default:
		return ErrAlreadyClaimed
	}
}

// MarkReturned transitions an item to returned. Only the poster may do this,
// from either active or claimed. Same conditional-UPDATE pattern as ClaimItem.
func MarkReturned(ctx context.Context, db *sql.DB, itemID, posterID int64) error {
	result, err := db.ExecContext(ctx,
		`UPDATE items SET status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND poster_id = ? AND status IN (?, ?)`,
		model.ItemStatusReturned, itemID, posterID,
		model.ItemStatusActive, model.ItemStatusClaimed,
	)
	if err != nil {
		return fmt.Errorf("marking item returned: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("marking item returned: %w", err)
	}
	if n == 1 {
		return nil
	}

	item, err := GetItem(ctx, db, itemID)
	if err != nil {
		return err
	}
	switch {
	case item == nil:
		return ErrItemNotFound
	case item.PosterID != posterID:
		return ErrNotPoster
	default:
		return ErrAlreadyReturned
	}
}

// SetItemPhoto sets an item's photo data.
func SetItemPhoto(ctx context.Context, db *sql.DB, id int64, photo []byte, mime string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE items SET photo = ?, photo_mime = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		photo, mime, id,
	)
	if err != nil {
		return fmt.Errorf("setting item photo: %w", err)
	}
	return nil
}

// GetItemPhoto returns an item's photo data and MIME type.
func GetItemPhoto(ctx context.Context, db *sql.DB, id int64) ([]byte, string, error) {
	var photo []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT photo, photo_mime FROM items WHERE id = ?`, id,
	).Scan(&photo, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting item photo: %w", err)
	}
	return photo, mime.String, nil
}

// CountItemsByPoster returns the poster's total and returned item counts.
func CountItemsByPoster(ctx context.Context, db *sql.DB, posterID int64) (total, returned int, err error) {
	err = db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(status = ?), 0) FROM items WHERE poster_id = ?`,
		model.ItemStatusReturned, posterID,
	).Scan(&total, &returned)
	if err != nil {
		return 0, 0, fmt.Errorf("counting items: %w", err)
	}
	return total, returned, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanItem(s scanner) (*model.Item, error) {
	item := &model.Item{}
	var posterName, posterEmail sql.NullString
	var category, location, photoMime, description sql.NullString
	var rewardOffered, verificationQuestion, contactPreference sql.NullString
	var phoneNumber, email sql.NullString
	var dateLost sql.NullTime

	err := s.Scan(
		&item.ID, &item.PosterID, &posterName, &posterEmail, &item.Type, &item.Title, &category,
		&location, &photoMime, &description, &dateLost, &rewardOffered,
		&verificationQuestion, &contactPreference, &phoneNumber, &email,
		&item.Status, &item.ClaimedBy, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	item.PosterName = posterName.String
	if item.PosterName == "" {
		item.PosterName = posterEmail.String
	}
	item.Category = category.String
	item.Location = location.String
	item.PhotoMime = photoMime.String
	item.Description = description.String
	item.RewardOffered = rewardOffered.String
	item.VerificationQuestion = verificationQuestion.String
	item.ContactPreference = contactPreference.String
	item.PhoneNumber = phoneNumber.String
	item.Email = email.String
	if dateLost.Valid {
		item.DateLost = &dateLost.Time
	}
	return item, nil
}
