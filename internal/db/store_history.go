package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/petalworks/bloom-server/internal/models"
)

// MaxHistoryItemsPerUser is the number of history items retained per user.
// Appending beyond the bound evicts the oldest items by generated_at.
const MaxHistoryItemsPerUser = 50

// HistoryFilter defines filters for querying a user's history.
type HistoryFilter struct {
	Search string
	Limit  int
	Offset int
}

// UpsertHistoryItem inserts a history item or, when its item_id already
// exists, updates prompt, image URLs and generated_at in place. After the
// write the user's history is trimmed to MaxHistoryItemsPerUser. Returns the
// post-eviction item count for the user. The upsert is not rolled back when
// eviction or counting fails; the error is still reported.
func (db *DB) UpsertHistoryItem(ctx context.Context, item *models.HistoryItem) (int64, error) {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO history_items (id, user_id, item_id, prompt, image_url, original_image_url,
		                           frame_id, frame_name, quality, width, height, generated_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (item_id) DO UPDATE SET
			prompt = EXCLUDED.prompt,
			image_url = EXCLUDED.image_url,
			original_image_url = EXCLUDED.original_image_url,
			generated_at = EXCLUDED.generated_at
	`, item.ID, item.UserID, item.ItemID, item.Prompt, item.ImageURL, item.OriginalImageURL,
		item.FrameID, item.FrameName, item.Quality, item.Width, item.Height, item.Timestamp, item.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("upsert history item: %w", err)
	}

	if _, err := db.EvictHistoryOverflow(ctx, item.UserID, MaxHistoryItemsPerUser); err != nil {
		return 0, err
	}

	return db.CountHistoryItems(ctx, item.UserID, HistoryFilter{})
}

// EvictHistoryOverflow deletes a user's history items beyond the keep most
// recent by generated_at. Returns the number of evicted rows.
func (db *DB) EvictHistoryOverflow(ctx context.Context, userID string, keep int) (int64, error) {
	tag, err := db.Pool.Exec(ctx, `
		DELETE FROM history_items
		WHERE id IN (
			SELECT id FROM history_items
			WHERE user_id = $1
			ORDER BY generated_at DESC
			OFFSET $2
		)
	`, userID, keep)
	if err != nil {
		return 0, fmt.Errorf("evict history overflow: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ListHistoryItems returns a user's history items, newest first, with
// optional prompt search and paging.
func (db *DB) ListHistoryItems(ctx context.Context, userID string, filter HistoryFilter) ([]*models.HistoryItem, error) {
	query := `
		SELECT id, user_id, item_id, prompt, image_url, original_image_url,
		       frame_id, frame_name, quality, width, height, generated_at, created_at
		FROM history_items
		WHERE user_id = $1
	`
	args := []any{userID}
	argIdx := 2

	query, args, argIdx = appendHistoryFilters(query, args, argIdx, filter)

	query += " ORDER BY generated_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, filter.Limit)
		argIdx++

		if filter.Offset > 0 {
			query += fmt.Sprintf(" OFFSET $%d", argIdx)
			args = append(args, filter.Offset)
		}
	}

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list history items: %w", err)
	}
	defer rows.Close()

	return scanHistoryItems(rows)
}

// CountHistoryItems returns the number of a user's history items matching
// the filter's search term. Limit and Offset are ignored.
func (db *DB) CountHistoryItems(ctx context.Context, userID string, filter HistoryFilter) (int64, error) {
	query := `SELECT COUNT(*) FROM history_items WHERE user_id = $1`
	args := []any{userID}
	argIdx := 2

	query, args, _ = appendHistoryFilters(query, args, argIdx, filter)

	var count int64
	err := db.Pool.QueryRow(ctx, query, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count history items: %w", err)
	}
	return count, nil
}

// UpdateHistoryFrame sets the frame id on the item matching both user and
// item id. Returns the number of rows updated, 0 when no such item exists.
func (db *DB) UpdateHistoryFrame(ctx context.Context, userID, itemID, frameID string) (int64, error) {
	tag, err := db.Pool.Exec(ctx, `
		UPDATE history_items
		SET frame_id = $3
		WHERE user_id = $1 AND item_id = $2
	`, userID, itemID, frameID)
	if err != nil {
		return 0, fmt.Errorf("update history frame: %w", err)
	}
	return tag.RowsAffected(), nil
}

// UsersOverRetention returns the ids of users holding more than keep history
// items. Used by the retention sweeper.
func (db *DB) UsersOverRetention(ctx context.Context, keep int) ([]string, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT user_id FROM history_items GROUP BY user_id HAVING COUNT(*) > $1
	`, keep)
	if err != nil {
		return nil, fmt.Errorf("find users over retention: %w", err)
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		users = append(users, userID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	return users, nil
}

// CountAllHistoryItems returns the total number of stored history items.
func (db *DB) CountAllHistoryItems(ctx context.Context) (int64, error) {
	var count int64
	err := db.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM history_items").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count all history items: %w", err)
	}
	return count, nil
}

// appendHistoryFilters appends WHERE clauses for the given filter to the query.
func appendHistoryFilters(query string, args []any, argIdx int, filter HistoryFilter) (string, []any, int) {
	if filter.Search != "" {
		query += fmt.Sprintf(" AND prompt ILIKE $%d", argIdx)
		args = append(args, "%"+strings.ReplaceAll(filter.Search, "%", "\\%")+"%")
		argIdx++
	}

	return query, args, argIdx
}

func scanHistoryItems(rows pgx.Rows) ([]*models.HistoryItem, error) {
	var items []*models.HistoryItem
	for rows.Next() {
		var item models.HistoryItem
		if err := rows.Scan(&item.ID, &item.UserID, &item.ItemID, &item.Prompt,
			&item.ImageURL, &item.OriginalImageURL, &item.FrameID, &item.FrameName,
			&item.Quality, &item.Width, &item.Height, &item.Timestamp, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history item: %w", err)
		}
		items = append(items, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history items: %w", err)
	}

	return items, nil
}
