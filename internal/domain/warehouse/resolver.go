package warehouse

import (
	"fmt"
	"strings"

	"github.com/erp/bulkship/internal/domain/shipment"
)

// Source tells how a ship-from address was chosen.
type Source string

const (
	SourceExplicit       Source = "explicit"
	SourceTable          Source = "table"
	SourceRegionDefault  Source = "region-default"
	SourceFallbackRegion Source = "fallback-region"
)

// Resolution is the ship-from address picked for one shipment.
type Resolution struct {
	Address     shipment.Address `json:"address"`
	Description string           `json:"description"`
	Region      string           `json:"region,omitempty"`
	Source      Source           `json:"source"`
}

// Resolver picks the origin warehouse of a shipment.
type Resolver struct {
	dir *Directory
}

// NewResolver creates a Resolver. A nil directory uses DefaultDirectory.
func NewResolver(dir *Directory) *Resolver {
	if dir == nil {
		dir = DefaultDirectory()
	}
	return &Resolver{dir: dir}
}

// Directory returns the directory the resolver reads from.
func (r *Resolver) Directory() *Directory {
	return r.dir
}

// Resolve returns the ship-from address for region and category.
// An explicit sender with a name always wins. Its fields are trimmed and
// its country converted to alpha-2; a blank country is taken from the
// region's warehouse. Otherwise the region's warehouse for the category is
// used, then the region's default warehouse, then the default region's.
// A sender without a name only contributes its phone and email. It always
// returns an address.
func (r *Resolver) Resolve(region string, category shipment.Category, sender *shipment.Address) Resolution {
	reg, ok := r.dir.Lookup(region)
	source := SourceTable
	if !ok {
		reg = r.dir.DefaultRegion()
		source = SourceFallbackRegion
	}

	s, ok := reg.Sites[strings.ToLower(string(category))]
	if !ok {
		s = reg.Sites[DefaultKey]
		if source == SourceTable {
			source = SourceRegionDefault
		}
	}

	if sender != nil && strings.TrimSpace(sender.Name) != "" {
		addr, _ := shipment.NormalizeAddress(*sender)
		if addr.Country == "" {
			addr.Country = s.Address.Country
		}
		return Resolution{
			Address:     addr,
			Description: fmt.Sprintf("Custom sender: %s", addr.Name),
			Region:      reg.Name,
			Source:      SourceExplicit,
		}
	}

	addr := s.Address
	if sender != nil {
		// contact-only sender: keep the site, reach the shipper directly
		if v := strings.TrimSpace(sender.Phone); v != "" {
			addr.Phone = v
		}
		if v := strings.TrimSpace(sender.Email); v != "" {
			addr.Email = v
		}
	}

	return Resolution{
		Address:     addr,
		Description: s.Description,
		Region:      reg.Name,
		Source:      source,
	}
}
