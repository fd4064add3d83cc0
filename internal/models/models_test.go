package models

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
)

func TestNewHistoryItem(t *testing.T) {
	item := NewHistoryItem("user-1", "item-abc", "a field of tulips")

	if item.ID == uuid.Nil {
		t.Error("expected ID to be set")
	}
	if item.UserID != "user-1" {
		t.Errorf("expected UserID 'user-1', got %s", item.UserID)
	}
	if item.ItemID != "item-abc" {
		t.Errorf("expected ItemID 'item-abc', got %s", item.ItemID)
	}
	if item.Prompt != "a field of tulips" {
		t.Errorf("expected prompt to be set, got %s", item.Prompt)
	}
	if item.Timestamp.IsZero() || item.CreatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}
}

func TestHistoryItemBuilders(t *testing.T) {
	item := NewHistoryItem("user-1", "item-abc", "pressed ferns").
		WithImage("/images/item-abc.png", "/images/item-abc-raw.png").
		WithFrame("frame-oak", "Oak").
		WithDimensions(1024, 768, "high")

	if item.ImageURL != "/images/item-abc.png" || item.OriginalImageURL != "/images/item-abc-raw.png" {
		t.Errorf("image URLs not set: %+v", item)
	}
	if item.FrameID != "frame-oak" || item.FrameName != "Oak" {
		t.Errorf("frame not set: %+v", item)
	}
	if item.Width != 1024 || item.Height != 768 || item.Quality != "high" {
		t.Errorf("dimensions not set: %+v", item)
	}
}

func TestHistoryItem_JSONKeys(t *testing.T) {
	item := NewHistoryItem("user-1", "item-abc", "lavender rows").
		WithImage("/images/item-abc.png", "").
		WithFrame("frame-oak", "Oak")

	data, err := json.Marshal(item)
	if err != nil {
		t.Fatalf("failed to marshal HistoryItem: %v", err)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("failed to unmarshal to map: %v", err)
	}

	// The plugin client reads camelCase keys.
	for _, key := range []string{"userId", "itemId", "prompt", "imageUrl", "frameId", "frameName", "timestamp", "createdAt"} {
		if _, exists := raw[key]; !exists {
			t.Errorf("expected key %q in JSON output, got %v", key, raw)
		}
	}

	// Empty optional fields stay out of the payload.
	if _, exists := raw["originalImageUrl"]; exists {
		t.Error("empty originalImageUrl should be omitted")
	}
	if _, exists := raw["width"]; exists {
		t.Error("zero width should be omitted")
	}
}

func TestNewActivation(t *testing.T) {
	a := NewActivation("KEY-1234", "user-1", "prod_bloom_creator", TierCreator, 300)

	if a.ID == uuid.Nil {
		t.Error("expected ID to be set")
	}
	if a.LicenseKey != "KEY-1234" {
		t.Errorf("expected LicenseKey 'KEY-1234', got %s", a.LicenseKey)
	}
	if a.UserID != "user-1" {
		t.Errorf("expected UserID 'user-1', got %s", a.UserID)
	}
	if a.Tier != TierCreator {
		t.Errorf("expected tier creator, got %s", a.Tier)
	}
	if a.FlowersGranted != 300 {
		t.Errorf("expected 300 flowers, got %d", a.FlowersGranted)
	}
	if a.Status != ActivationStatusActive {
		t.Errorf("expected active status, got %s", a.Status)
	}
	if a.ActivatedAt.IsZero() {
		t.Error("expected ActivatedAt to be set")
	}
}

func TestActivationWithMetadata(t *testing.T) {
	purchase := map[string]interface{}{"order_id": "ord_123", "email": "buyer@example.com"}
	a := NewActivation("KEY-1234", "user-1", "prod_bloom_pro", TierPro, 1000).WithMetadata(purchase)

	if a.Metadata["order_id"] != "ord_123" {
		t.Errorf("expected metadata to be set, got %v", a.Metadata)
	}
}

func TestActivation_JSONKeys(t *testing.T) {
	a := NewActivation("KEY-1234", "user-1", "prod_bloom_starter", TierStarter, 100)

	data, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("failed to marshal Activation: %v", err)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("failed to unmarshal to map: %v", err)
	}

	for _, key := range []string{"licenseKey", "userId", "productId", "tier", "flowersGranted", "status", "activatedAt"} {
		if _, exists := raw[key]; !exists {
			t.Errorf("expected key %q in JSON output, got %v", key, raw)
		}
	}
}

func TestIsValidTier(t *testing.T) {
	for _, tier := range []Tier{TierStarter, TierCreator, TierPro, TierUnknown} {
		if !IsValidTier(string(tier)) {
			t.Errorf("expected %q to be valid", tier)
		}
	}

	if IsValidTier("platinum") {
		t.Error("expected unrecognized tier to be invalid")
	}
}
