package license

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/petalworks/bloom-server/internal/models"
)

// Product describes what redeeming a key for a product id grants.
type Product struct {
	Tier    models.Tier `yaml:"tier" json:"tier"`
	Flowers int         `yaml:"flowers" json:"flowers"`
}

// Catalog maps storefront product ids to tier and flower grants. The
// mapping is business data, so it lives in a config file rather than code.
type Catalog struct {
	products map[string]Product
}

// DefaultCatalog returns the built-in catalog covering the known products.
func DefaultCatalog() *Catalog {
	return &Catalog{products: map[string]Product{
		"prod_bloom_starter": {Tier: models.TierStarter, Flowers: 100},
		"prod_bloom_creator": {Tier: models.TierCreator, Flowers: 300},
		"prod_bloom_pro":     {Tier: models.TierPro, Flowers: 1000},
	}}
}

// LoadCatalog reads a product catalog from a YAML file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}

	var file struct {
		Products map[string]Product `yaml:"products"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse catalog file: %w", err)
	}

	for id, p := range file.Products {
		if !models.IsValidTier(string(p.Tier)) {
			return nil, fmt.Errorf("catalog product %s: invalid tier %q", id, p.Tier)
		}
		if p.Flowers < 0 {
			return nil, fmt.Errorf("catalog product %s: negative flowers", id)
		}
	}

	return &Catalog{products: file.Products}, nil
}

// Resolve maps a product id to its grant. Unknown ids resolve to TierUnknown
// with zero flowers; redemption proceeds either way.
func (c *Catalog) Resolve(productID string) Product {
	if p, ok := c.products[productID]; ok {
		return p
	}
	return Product{Tier: models.TierUnknown, Flowers: 0}
}

// Size returns the number of products in the catalog.
func (c *Catalog) Size() int {
	return len(c.products)
}
