package license

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/petalworks/bloom-server/internal/db"
	"github.com/petalworks/bloom-server/internal/models"
)

// ActivationStore provides persistence for license activations.
type ActivationStore interface {
	GetActivationByKey(ctx context.Context, licenseKey string) (*models.Activation, error)
	InsertActivation(ctx context.Context, a *models.Activation) error
}

// RedemptionResult is the outcome of a redemption attempt. AlreadyUsed and
// a rejected verification are expected business outcomes, not errors; only
// storage and verifier availability problems surface as errors.
type RedemptionResult struct {
	Success     bool
	AlreadyUsed bool
	Message     string
	Tier        models.Tier
	Flowers     int
	Purchase    map[string]interface{}
	UserID      string
	ActivatedAt time.Time
}

// Service redeems license keys. Each key grants flowers exactly once; the
// unique constraint on the activation store is the authoritative guard, the
// lookup before verification only avoids pointless verifier calls.
type Service struct {
	store    ActivationStore
	verifier Verifier
	catalog  *Catalog
	logger   zerolog.Logger
}

// NewService creates a redemption service.
func NewService(store ActivationStore, verifier Verifier, catalog *Catalog, logger zerolog.Logger) *Service {
	return &Service{
		store:    store,
		verifier: verifier,
		catalog:  catalog,
		logger:   logger.With().Str("component", "license_service").Logger(),
	}
}

// Redeem validates licenseKey for productID and, on first use, records the
// activation for userID. Concurrent attempts on the same key are settled by
// the store's unique constraint: the loser observes the conflict and reports
// the winning activation as already used.
func (s *Service) Redeem(ctx context.Context, productID, licenseKey, userID string) (*RedemptionResult, error) {
	existing, err := s.store.GetActivationByKey(ctx, licenseKey)
	if err != nil {
		return nil, fmt.Errorf("look up activation: %w", err)
	}
	if existing != nil {
		return alreadyUsedResult(existing), nil
	}

	// No storage locks are held here; a slow verifier never serializes
	// redemptions of other keys.
	verification, err := s.verifier.Verify(ctx, productID, licenseKey)
	if err != nil {
		return nil, fmt.Errorf("verify license: %w", err)
	}
	if !verification.Authentic {
		msg := verification.Message
		if msg == "" {
			msg = "License verification failed"
		}
		s.logger.Info().Str("product_id", productID).Msg("license rejected by verifier")
		return &RedemptionResult{Success: false, Message: msg}, nil
	}

	product := s.catalog.Resolve(productID)

	activation := models.NewActivation(licenseKey, userID, productID, product.Tier, product.Flowers).
		WithMetadata(verification.Purchase)

	if err := s.store.InsertActivation(ctx, activation); err != nil {
		if errors.Is(err, db.ErrDuplicateKey) {
			// Lost the race: another request redeemed the key between the
			// lookup and the insert. Report the winner.
			winner, lookupErr := s.store.GetActivationByKey(ctx, licenseKey)
			if lookupErr != nil {
				return nil, fmt.Errorf("look up winning activation: %w", lookupErr)
			}
			if winner == nil {
				return nil, fmt.Errorf("activation conflict for key with no stored record")
			}
			return alreadyUsedResult(winner), nil
		}
		return nil, fmt.Errorf("record activation: %w", err)
	}

	s.logger.Info().
		Str("user_id", userID).
		Str("product_id", productID).
		Str("tier", string(product.Tier)).
		Int("flowers", product.Flowers).
		Msg("license redeemed")

	result := &RedemptionResult{
		Success:  true,
		Tier:     product.Tier,
		Flowers:  product.Flowers,
		Purchase: verification.Purchase,
	}
	if product.Tier == models.TierUnknown {
		result.Message = "Unrecognized product; no flowers granted"
	}
	return result, nil
}

func alreadyUsedResult(a *models.Activation) *RedemptionResult {
	return &RedemptionResult{
		Success:     false,
		AlreadyUsed: true,
		Message:     "License key has already been used",
		UserID:      a.UserID,
		ActivatedAt: a.ActivatedAt,
	}
}
