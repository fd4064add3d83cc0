package models

import (
	"time"

	"github.com/google/uuid"
)

// Tier identifies the product level a license key was purchased at.
type Tier string

const (
	TierStarter Tier = "starter"
	TierCreator Tier = "creator"
	TierPro     Tier = "pro"
	// TierUnknown is assigned when a verified key references a product id
	// missing from the catalog. The redemption still succeeds; no flowers
	// are granted.
	TierUnknown Tier = "unknown"
)

// IsValidTier checks if the given value is a known tier.
func IsValidTier(t string) bool {
	switch Tier(t) {
	case TierStarter, TierCreator, TierPro, TierUnknown:
		return true
	}
	return false
}

// ActivationStatus represents the lifecycle state of an activation.
type ActivationStatus string

const (
	ActivationStatusActive  ActivationStatus = "active"
	ActivationStatusRevoked ActivationStatus = "revoked"
)

// Activation records the redemption of a license key. Each key is redeemed
// at most once; activations are never mutated or deleted.
type Activation struct {
	ID             uuid.UUID              `json:"id"`
	LicenseKey     string                 `json:"licenseKey"`
	UserID         string                 `json:"userId"`
	ProductID      string                 `json:"productId"`
	Tier           Tier                   `json:"tier"`
	FlowersGranted int                    `json:"flowersGranted"`
	Status         ActivationStatus       `json:"status"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
	ActivatedAt    time.Time              `json:"activatedAt"`
}

// NewActivation creates a new active Activation for the given key.
func NewActivation(licenseKey, userID, productID string, tier Tier, flowers int) *Activation {
	return &Activation{
		ID:             uuid.New(),
		LicenseKey:     licenseKey,
		UserID:         userID,
		ProductID:      productID,
		Tier:           tier,
		FlowersGranted: flowers,
		Status:         ActivationStatusActive,
		ActivatedAt:    time.Now(),
	}
}

// WithMetadata attaches the verifier's purchase metadata.
func (a *Activation) WithMetadata(meta map[string]interface{}) *Activation {
	a.Metadata = meta
	return a
}
