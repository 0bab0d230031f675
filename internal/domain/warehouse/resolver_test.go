package warehouse

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/erp/bulkship/internal/domain/shipment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolver_Resolve(t *testing.T) {
	r := NewResolver(nil)

	t.Run("category specific warehouse", func(t *testing.T) {
		res := r.Resolve("California", shipment.CategoryBeauty, nil)
		assert.Equal(t, SourceTable, res.Source)
		assert.Equal(t, "Irvine", res.Address.City)
		assert.Equal(t, "California", res.Region)
	})

	t.Run("alias is case insensitive", func(t *testing.T) {
		res := r.Resolve("  los   ANGELES ", shipment.CategoryApparel, nil)
		assert.Equal(t, SourceTable, res.Source)
		assert.Equal(t, "90058", res.Address.Zip)
	})

	t.Run("region default when category missing", func(t *testing.T) {
		res := r.Resolve("NY", shipment.CategoryFood, nil)
		assert.Equal(t, SourceRegionDefault, res.Source)
		assert.Equal(t, "Brooklyn", res.Address.City)
	})

	t.Run("fallback region when region unknown", func(t *testing.T) {
		res := r.Resolve("Mars", shipment.CategoryElectronics, nil)
		assert.Equal(t, SourceFallbackRegion, res.Source)
		assert.Equal(t, "San Jose", res.Address.City)
	})

	t.Run("fallback region default", func(t *testing.T) {
		res := r.Resolve("", shipment.CategoryDefault, nil)
		assert.Equal(t, SourceFallbackRegion, res.Source)
		assert.Equal(t, "90021", res.Address.Zip)
	})

	t.Run("explicit sender wins", func(t *testing.T) {
		sender := &shipment.Address{Name: "Acme Returns", Street1: "9 Elm St", City: "Austin", State: "TX", Zip: "78701", Country: "US"}
		res := r.Resolve("California", shipment.CategoryBeauty, sender)
		assert.Equal(t, SourceExplicit, res.Source)
		assert.Equal(t, *sender, res.Address)
	})

	t.Run("explicit sender country is normalized", func(t *testing.T) {
		sender := &shipment.Address{Name: " Acme Shipper ", Street1: "1 Market St", City: "San Francisco", Zip: "94105", Country: "United States"}
		res := r.Resolve("California", shipment.CategoryBeauty, sender)
		assert.Equal(t, SourceExplicit, res.Source)
		assert.Equal(t, "US", res.Address.Country)
		assert.Equal(t, "Acme Shipper", res.Address.Name)
		assert.Equal(t, "United States", sender.Country)
	})

	t.Run("explicit sender without country takes the warehouse country", func(t *testing.T) {
		sender := &shipment.Address{Name: "Acme Shipper", Street1: "1 Market St", City: "San Francisco", Zip: "94105"}
		res := r.Resolve("California", shipment.CategoryBeauty, sender)
		assert.Equal(t, SourceExplicit, res.Source)
		assert.Equal(t, "US", res.Address.Country)
	})

	t.Run("explicit sender with unknown country keeps it for the caller to reject", func(t *testing.T) {
		sender := &shipment.Address{Name: "Acme Shipper", Street1: "1 Market St", Country: "Atlantis"}
		res := r.Resolve("California", shipment.CategoryBeauty, sender)
		assert.Equal(t, "ATLANTIS", res.Address.Country)
	})

	t.Run("sender without a name is ignored", func(t *testing.T) {
		res := r.Resolve("Texas", shipment.CategoryDefault, &shipment.Address{Street1: "9 Elm St"})
		assert.Equal(t, SourceRegionDefault, res.Source)
		assert.Equal(t, "Dallas", res.Address.City)
	})

	t.Run("contact-only sender overrides site contact", func(t *testing.T) {
		res := r.Resolve("Texas", shipment.CategoryDefault, &shipment.Address{Phone: "214-555-0199", Email: "ops@example.com"})
		assert.Equal(t, "Dallas", res.Address.City)
		assert.Equal(t, "214-555-0199", res.Address.Phone)
		assert.Equal(t, "ops@example.com", res.Address.Email)
		assert.NotEqual(t, "214-555-0199", DefaultDirectory().DefaultRegion().Sites[DefaultKey].Address.Phone)
	})
}

func TestResolver_AlwaysResolvable(t *testing.T) {
	r := NewResolver(DefaultDirectory())
	regions := append(r.Directory().Regions(), "", "Unknown", "CA", "chicago")
	for _, reg := range regions {
		for _, cat := range append(categories(), shipment.Category("unlisted")) {
			res := r.Resolve(reg, cat, nil)
			assert.NotEmpty(t, res.Address.Street1, "%s/%s", reg, cat)
			assert.Len(t, res.Address.Country, 2)
		}
	}
}

func categories() []shipment.Category {
	out := []shipment.Category{shipment.CategoryDefault}
	for _, r := range shipment.DefaultClassifier().Rules() {
		out = append(out, r.Category)
	}
	return out
}

func TestNewDirectory_Validation(t *testing.T) {
	good := Site{Address: shipment.Address{Street1: "1 Main", Country: "US"}}

	_, err := NewDirectory("A", nil)
	assert.ErrorIs(t, err, ErrInvalidDirectory)

	_, err = NewDirectory("A", []Region{{Name: "A", Sites: map[string]Site{"apparel": good}}})
	assert.ErrorIs(t, err, ErrInvalidDirectory)
	assert.Contains(t, err.Error(), "default")

	_, err = NewDirectory("B", []Region{{Name: "A", Sites: map[string]Site{DefaultKey: good}}})
	assert.ErrorIs(t, err, ErrInvalidDirectory)

	_, err = NewDirectory("A", []Region{
		{Name: "A", Aliases: []string{"x"}, Sites: map[string]Site{DefaultKey: good}},
		{Name: "B", Aliases: []string{"X"}, Sites: map[string]Site{DefaultKey: good}},
	})
	assert.ErrorIs(t, err, ErrInvalidDirectory)

	_, err = NewDirectory("A", []Region{{Name: "A", Sites: map[string]Site{DefaultKey: {Address: shipment.Address{Street1: "1 Main"}}}}})
	assert.ErrorIs(t, err, ErrInvalidDirectory)
}

func TestLoadDirectory(t *testing.T) {
	content := `
default_region: Ontario
regions:
  - name: Ontario
    aliases: [ON, Toronto]
    warehouses:
      default:
        description: Toronto general
        name: Dock 3
        company: Maple Fulfillment
        street1: 100 Queens Quay E
        city: Toronto
        state: ON
        zip: M5E 1V3
        country: Canada
      Books:
        description: Toronto books
        street1: 5 Front St
        city: Toronto
        zip: M5J 1A1
        country: CA
`
	path := filepath.Join(t.TempDir(), "warehouses.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	dir, err := LoadDirectory(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Ontario"}, dir.Regions())
	assert.True(t, dir.IsRegion("toronto"))

	r := NewResolver(dir)
	res := r.Resolve("Toronto", shipment.CategoryBooks, nil)
	assert.Equal(t, SourceTable, res.Source)
	assert.Equal(t, "5 Front St", res.Address.Street1)

	res = r.Resolve("anywhere", shipment.CategoryToys, nil)
	assert.Equal(t, SourceFallbackRegion, res.Source)
	assert.Equal(t, "CA", res.Address.Country)
	assert.Equal(t, "Maple Fulfillment", res.Address.Company)
}

func TestLoadDirectory_Errors(t *testing.T) {
	_, err := LoadDirectory(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, ErrDirectoryNotFound)

	_, err = ParseDirectory([]byte("regions: [unterminated"))
	assert.Error(t, err)
}
