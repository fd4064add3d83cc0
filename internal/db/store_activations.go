package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/petalworks/bloom-server/internal/models"
)

// GetActivationByKey returns the activation for a license key, or nil when
// the key has never been redeemed.
func (db *DB) GetActivationByKey(ctx context.Context, licenseKey string) (*models.Activation, error) {
	var a models.Activation
	err := db.Pool.QueryRow(ctx, `
		SELECT id, license_key, user_id, product_id, tier, flowers_granted,
		       status, metadata, activated_at
		FROM license_activations
		WHERE license_key = $1
	`, licenseKey).Scan(&a.ID, &a.LicenseKey, &a.UserID, &a.ProductID, &a.Tier,
		&a.FlowersGranted, &a.Status, &a.Metadata, &a.ActivatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get activation: %w", err)
	}
	return &a, nil
}

// InsertActivation persists a new activation. The unique constraint on
// license_key makes the insert atomic with respect to concurrent redemptions
// of the same key; the loser receives ErrDuplicateKey.
func (db *DB) InsertActivation(ctx context.Context, a *models.Activation) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO license_activations (id, license_key, user_id, product_id, tier,
		                                 flowers_granted, status, metadata, activated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, a.ID, a.LicenseKey, a.UserID, a.ProductID, a.Tier,
		a.FlowersGranted, a.Status, a.Metadata, a.ActivatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert activation: %w", ErrDuplicateKey)
		}
		return fmt.Errorf("insert activation: %w", err)
	}
	return nil
}

// ListActivations returns activations ordered by activation time, newest
// first. A limit of 0 returns all activations.
func (db *DB) ListActivations(ctx context.Context, limit, offset int) ([]*models.Activation, error) {
	query := `
		SELECT id, license_key, user_id, product_id, tier, flowers_granted,
		       status, metadata, activated_at
		FROM license_activations
		ORDER BY activated_at DESC
	`
	args := []any{}
	argIdx := 1

	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, limit)
		argIdx++

		if offset > 0 {
			query += fmt.Sprintf(" OFFSET $%d", argIdx)
			args = append(args, offset)
		}
	}

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list activations: %w", err)
	}
	defer rows.Close()

	var activations []*models.Activation
	for rows.Next() {
		var a models.Activation
		if err := rows.Scan(&a.ID, &a.LicenseKey, &a.UserID, &a.ProductID, &a.Tier,
			&a.FlowersGranted, &a.Status, &a.Metadata, &a.ActivatedAt); err != nil {
			return nil, fmt.Errorf("scan activation: %w", err)
		}
		activations = append(activations, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activations: %w", err)
	}

	return activations, nil
}

// CountActivations returns the total number of activations.
func (db *DB) CountActivations(ctx context.Context) (int64, error) {
	var count int64
	err := db.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM license_activations").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count activations: %w", err)
	}
	return count, nil
}
