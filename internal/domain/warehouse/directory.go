package warehouse

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/erp/bulkship/internal/domain/shipment"
	"gopkg.in/yaml.v3"
)

// DefaultKey is the category key used when a region has no category-specific warehouse.
const DefaultKey = "default"

// Directory errors
var (
	ErrDirectoryNotFound = errors.New("warehouse directory file not found")
	ErrInvalidDirectory  = errors.New("invalid warehouse directory")
)

// Site is one warehouse: the ship-from address plus a human description.
type Site struct {
	Address     shipment.Address
	Description string
}

// Region groups the warehouses of one origin region by category.
type Region struct {
	Name    string
	Aliases []string
	Sites   map[string]Site
}

// Directory is an immutable lookup of regions and their warehouses.
// It is built once at startup and only read afterwards.
type Directory struct {
	defaultRegion string
	regions       map[string]Region
	keys          map[string]string // folded name or alias -> canonical region key
}

// NewDirectory validates regions and builds a Directory. Every region must
// have a "default" site and defaultRegion must name one of the regions.
func NewDirectory(defaultRegion string, regions []Region) (*Directory, error) {
	if len(regions) == 0 {
		return nil, fmt.Errorf("%w: at least one region is required", ErrInvalidDirectory)
	}

	d := &Directory{
		regions: make(map[string]Region, len(regions)),
		keys:    make(map[string]string, len(regions)*3),
	}
	for i, r := range regions {
		key := foldRegion(r.Name)
		if key == "" {
			return nil, fmt.Errorf("%w: region[%d].name is required", ErrInvalidDirectory, i)
		}
		if _, dup := d.regions[key]; dup {
			return nil, fmt.Errorf("%w: duplicate region: %s", ErrInvalidDirectory, r.Name)
		}
		sites := make(map[string]Site, len(r.Sites))
		for cat, s := range r.Sites {
			if s.Address.Street1 == "" || s.Address.Country == "" {
				return nil, fmt.Errorf("%w: region %s warehouse %s needs street1 and country", ErrInvalidDirectory, r.Name, cat)
			}
			if code, ok := shipment.NormalizeCountry(s.Address.Country); ok {
				s.Address.Country = code
			}
			sites[strings.ToLower(cat)] = s
		}
		if _, ok := sites[DefaultKey]; !ok {
			return nil, fmt.Errorf("%w: region %s has no %q warehouse", ErrInvalidDirectory, r.Name, DefaultKey)
		}
		d.regions[key] = Region{Name: r.Name, Aliases: append([]string(nil), r.Aliases...), Sites: sites}
		d.keys[key] = key

		for _, a := range r.Aliases {
			ak := foldRegion(a)
			if ak == "" {
				continue
			}
			if other, taken := d.keys[ak]; taken && other != key {
				return nil, fmt.Errorf("%w: alias %q used by two regions", ErrInvalidDirectory, a)
			}
			d.keys[ak] = key
		}
	}

	def, ok := d.keys[foldRegion(defaultRegion)]
	if !ok {
		return nil, fmt.Errorf("%w: default region %q is not defined", ErrInvalidDirectory, defaultRegion)
	}
	d.defaultRegion = def
	return d, nil
}

func foldRegion(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// Lookup finds a region by name or alias, case-insensitively.
func (d *Directory) Lookup(name string) (Region, bool) {
	key, ok := d.keys[foldRegion(name)]
	if !ok {
		return Region{}, false
	}
	return d.regions[key], true
}

// IsRegion reports whether name is a known region or alias.
func (d *Directory) IsRegion(name string) bool {
	_, ok := d.keys[foldRegion(name)]
	return ok
}

// DefaultRegion returns the region used for unknown origins.
func (d *Directory) DefaultRegion() Region {
	return d.regions[d.defaultRegion]
}

// Regions returns the canonical region names, sorted.
func (d *Directory) Regions() []string {
	names := make([]string, 0, len(d.regions))
	for _, r := range d.regions {
		names = append(names, r.Name)
	}
	sort.Strings(names)
	return names
}

// directoryFile is the YAML layout of a directory file.
type directoryFile struct {
	DefaultRegion string `yaml:"default_region"`
	Regions       []struct {
		Name       string              `yaml:"name"`
		Aliases    []string            `yaml:"aliases"`
		Warehouses map[string]siteFile `yaml:"warehouses"`
	} `yaml:"regions"`
}

type siteFile struct {
	Description string `yaml:"description"`
	Name        string `yaml:"name"`
	Company     string `yaml:"company"`
	Street1     string `yaml:"street1"`
	Street2     string `yaml:"street2"`
	City        string `yaml:"city"`
	State       string `yaml:"state"`
	Zip         string `yaml:"zip"`
	Country     string `yaml:"country"`
	Phone       string `yaml:"phone"`
	Email       string `yaml:"email"`
}

// LoadDirectory reads a directory from a YAML file.
func LoadDirectory(path string) (*Directory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrDirectoryNotFound, path)
		}
		return nil, fmt.Errorf("reading warehouse directory: %w", err)
	}
	return ParseDirectory(data)
}

// ParseDirectory builds a directory from YAML bytes.
func ParseDirectory(data []byte) (*Directory, error) {
	var f directoryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing warehouse directory: %w", err)
	}

	regions := make([]Region, 0, len(f.Regions))
	for _, r := range f.Regions {
		sites := make(map[string]Site, len(r.Warehouses))
		for cat, s := range r.Warehouses {
			sites[cat] = Site{
				Description: s.Description,
				Address: shipment.Address{
					Name:    s.Name,
					Company: s.Company,
					Street1: s.Street1,
					Street2: s.Street2,
					City:    s.City,
					State:   s.State,
					Zip:     s.Zip,
					Country: s.Country,
					Phone:   s.Phone,
					Email:   s.Email,
				},
			}
		}
		regions = append(regions, Region{Name: r.Name, Aliases: r.Aliases, Sites: sites})
	}
	return NewDirectory(f.DefaultRegion, regions)
}
