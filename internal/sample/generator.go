// Package sample generates synthetic batch input for trying out the
// pipeline against a sandbox carrier account.
package sample

import (
	"errors"
	"fmt"
	"strings"

	"github.com/brianvoe/gofakeit/v7"
)

// ErrInvalidConfig is returned for unusable generator settings
var ErrInvalidConfig = errors.New("sample: invalid generator configuration")

// Format is the layout of generated records
type Format string

const (
	FormatTabular  Format = "tabular"
	FormatFreeText Format = "freetext"
)

// freeTextSeparator separates free-text blocks
const freeTextSeparator = "---"

// Config controls a Generator
type Config struct {
	Count  int
	Seed   uint64 // zero picks a random seed
	Format Format
	// InternationalRatio is the share of tabular records shipped abroad
	InternationalRatio float64
	// Regions are the origin regions to draw from
	Regions []string
}

// DefaultConfig returns ten tabular records with one in five going abroad
func DefaultConfig() Config {
	return Config{
		Count:              10,
		Format:             FormatTabular,
		InternationalRatio: 0.2,
		Regions:            []string{"California", "New York", "Texas", "Illinois"},
	}
}

// Validate checks the configuration
func (c Config) Validate() error {
	switch {
	case c.Count < 1:
		return fmt.Errorf("%w: count must be at least 1", ErrInvalidConfig)
	case c.InternationalRatio < 0 || c.InternationalRatio > 1:
		return fmt.Errorf("%w: international ratio must be between 0 and 1", ErrInvalidConfig)
	case c.Format != FormatTabular && c.Format != FormatFreeText:
		return fmt.Errorf("%w: unknown format %q", ErrInvalidConfig, c.Format)
	case len(c.Regions) == 0:
		return fmt.Errorf("%w: at least one region is required", ErrInvalidConfig)
	}
	return nil
}

// destination is a foreign recipient city
type destination struct {
	city, state, zip, country string
}

var (
	carriers = []string{"USPS", "UPS", "FEDEX", "DHL", "USPS- Priority Mail", "USPS- First Class Mail", "FedEx- Ground"}

	contents = []string{
		"Beauty products", "Lipstick set (2 x $18)", "Cotton t-shirts", "Running shoes",
		"Hardcover books", "Bluetooth headphones", "Phone charger ($15 each)", "Yoga mat",
		"Board game", "Ceramic mugs", "Silver necklace", "Coffee beans", "Wool sweater",
	}

	foreign = []destination{
		{"London", "", "SW1A 2AA", "GB"},
		{"Toronto", "ON", "M5V 2T6", "Canada"},
		{"Berlin", "", "10115", "DE"},
		{"Sydney", "NSW", "2000", "AU"},
		{"Paris", "", "75001", "France"},
	}
)

// Generator produces batch records from fake people and addresses
type Generator struct {
	faker *gofakeit.Faker
	cfg   Config
}

// New creates a Generator
func New(cfg Config) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Generator{faker: gofakeit.New(cfg.Seed), cfg: cfg}, nil
}

// Batch returns Count records in the configured format
func (g *Generator) Batch() string {
	records := make([]string, 0, g.cfg.Count)
	for i := 0; i < g.cfg.Count; i++ {
		records = append(records, g.Record())
	}
	if g.cfg.Format == FormatFreeText {
		return strings.Join(records, "\n"+freeTextSeparator+"\n") + "\n"
	}
	return strings.Join(records, "\n") + "\n"
}

// Record returns one record in the configured format
func (g *Generator) Record() string {
	if g.cfg.Format == FormatFreeText {
		return g.freeText()
	}
	return g.tabular()
}

func (g *Generator) tabular() string {
	f := g.faker
	city, state, zip, country := f.City(), f.StateAbr(), f.Zip(), "US"
	if f.Float64Range(0, 1) < g.cfg.InternationalRatio {
		d := foreign[f.IntRange(0, len(foreign)-1)]
		city, state, zip, country = d.city, d.state, d.zip, d.country
	}

	street2 := ""
	if f.Bool() {
		street2 = fmt.Sprintf("Apt %d", f.IntRange(1, 40))
	}

	return strings.Join([]string{
		g.cfg.Regions[f.IntRange(0, len(g.cfg.Regions)-1)],
		carriers[f.IntRange(0, len(carriers)-1)],
		f.FirstName(),
		f.LastName(),
		f.Phone(),
		f.Email(),
		f.Street(),
		street2,
		city,
		state,
		zip,
		country,
		"Package",
		g.dimensions(),
		g.weight(),
		contents[f.IntRange(0, len(contents)-1)],
	}, "\t")
}

func (g *Generator) freeText() string {
	f := g.faker
	return strings.Join([]string{
		f.FirstName() + " " + f.LastName(),
		f.Street(),
		fmt.Sprintf("%s, %s %s", f.City(), f.StateAbr(), f.Zip()),
		"",
		"Email: " + f.Email(),
		"Phone: " + f.Phone(),
		"Dimensions: " + g.dimensions(),
		"Weight: " + g.weight(),
		"Customs item: " + contents[f.IntRange(0, len(contents)-1)],
	}, "\n")
}

func (g *Generator) dimensions() string {
	f := g.faker
	return fmt.Sprintf("%d x %d x %d", f.IntRange(4, 24), f.IntRange(4, 18), f.IntRange(1, 12))
}

// weight writes the same kind of value in the unit styles seen in real batches
func (g *Generator) weight() string {
	f := g.faker
	switch f.IntRange(0, 3) {
	case 0:
		return fmt.Sprintf("%.1f lbs", f.Float64Range(0.2, 30))
	case 1:
		return fmt.Sprintf("%d oz", f.IntRange(2, 80))
	case 2:
		return fmt.Sprintf("%dlb %doz", f.IntRange(1, 20), f.IntRange(1, 15))
	default:
		return fmt.Sprintf("%.2f kg", f.Float64Range(0.1, 12))
	}
}
