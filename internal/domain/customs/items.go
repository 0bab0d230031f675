package customs

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/erp/bulkship/internal/domain/shipment"
	"github.com/shopspring/decimal"
)

// Item synthesis errors
var (
	ErrNoContents = errors.New("customs: contents description is empty")
	ErrNoItems    = errors.New("customs: no line items could be derived")
)

// DefaultUnitValue is declared for items whose contents carry no price.
var DefaultUnitValue = decimal.NewFromInt(25)

const maxDescriptionLen = 50

// ItemSource derives customs line items from a shipment.
type ItemSource interface {
	Items(ctx context.Context, req Request) ([]shipment.CustomsItem, error)
}

// TariffLookup returns the HS code for an item description.
type TariffLookup interface {
	HSCode(ctx context.Context, description string, category shipment.Category) (string, error)
}

var categoryHSCodes = map[shipment.Category]string{
	shipment.CategoryApparel:     "610910",
	shipment.CategoryFootwear:    "640419",
	shipment.CategorySporting:    "950691",
	shipment.CategoryElectronics: "851762",
	shipment.CategoryBeauty:      "330499",
	shipment.CategoryBedding:     "630231",
	shipment.CategoryArt:         "970110",
	shipment.CategoryBooks:       "490199",
	shipment.CategoryToys:        "950300",
	shipment.CategoryJewelry:     "711319",
	shipment.CategoryFood:        "210690",
	shipment.CategoryHomeGoods:   "691200",
}

// CategoryTariffs looks HS codes up by product category.
type CategoryTariffs struct{}

// HSCode implements TariffLookup. Unknown categories have no code.
func (CategoryTariffs) HSCode(_ context.Context, _ string, category shipment.Category) (string, error) {
	return categoryHSCodes[category], nil
}

var (
	qtyPriceRe  = regexp.MustCompile(`(?i)\(\s*(\d+)\s*(?:x|×|@)\s*\$?\s*(\d+(?:\.\d{1,2})?)\s*(?:each|ea)?\s*\)`)
	eachPriceRe = regexp.MustCompile(`(?i)\(\s*\$?\s*(\d+(?:\.\d{1,2})?)\s*(?:each|ea)\s*\)`)
	leadQtyRe   = regexp.MustCompile(`(?i)^(\d+)\s*(?:x|×|pcs?|units?)\s+(.+)$`)
	priceRe     = regexp.MustCompile(`\$\s*(\d+(?:\.\d{1,2})?)`)
)

// parsedItem is one line item read from a contents description.
type parsedItem struct {
	description string
	quantity    int
	unitValue   decimal.Decimal
	priced      bool
}

// parseContents splits contents on ';' and reads "(N x $P)", "($P each)",
// "N x item" and a bare "$P" from each part.
func parseContents(contents string) []parsedItem {
	var items []parsedItem
	for _, part := range strings.FieldsFunc(contents, func(r rune) bool { return r == ';' || r == '\n' }) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		it := parsedItem{quantity: 1}

		switch {
		case qtyPriceRe.MatchString(part):
			m := qtyPriceRe.FindStringSubmatch(part)
			it.quantity, _ = strconv.Atoi(m[1])
			it.unitValue, it.priced = parsePrice(m[2])
			part = qtyPriceRe.ReplaceAllString(part, "")
		case eachPriceRe.MatchString(part):
			m := eachPriceRe.FindStringSubmatch(part)
			it.unitValue, it.priced = parsePrice(m[1])
			part = eachPriceRe.ReplaceAllString(part, "")
		case priceRe.MatchString(part):
			m := priceRe.FindStringSubmatch(part)
			it.unitValue, it.priced = parsePrice(m[1])
			part = priceRe.ReplaceAllString(part, "")
		}

		part = strings.TrimSpace(part)
		if m := leadQtyRe.FindStringSubmatch(part); m != nil {
			if q, err := strconv.Atoi(m[1]); err == nil && q > 0 {
				it.quantity = q
				part = m[2]
			}
		}
		if it.quantity < 1 {
			it.quantity = 1
		}

		it.description = cleanDescription(part)
		if it.description == "" {
			continue
		}
		items = append(items, it)
	}
	return items
}

func parsePrice(s string) (decimal.Decimal, bool) {
	v, err := decimal.NewFromString(s)
	if err != nil || !v.IsPositive() {
		return decimal.Zero, false
	}
	return v, true
}

func cleanDescription(s string) string {
	s = strings.Trim(strings.Join(strings.Fields(s), " "), " -,:")
	if r := []rune(s); len(r) > maxDescriptionLen {
		s = strings.TrimSpace(string(r[:maxDescriptionLen]))
	}
	return s
}

// DescriptionItems derives line items from the contents text.
type DescriptionItems struct {
	Tariffs      TariffLookup
	DefaultValue decimal.Decimal
}

// NewDescriptionItems creates an item source. A nil lookup uses CategoryTariffs.
func NewDescriptionItems(tariffs TariffLookup) *DescriptionItems {
	if tariffs == nil {
		tariffs = CategoryTariffs{}
	}
	return &DescriptionItems{Tariffs: tariffs, DefaultValue: DefaultUnitValue}
}

// Items implements ItemSource. The parcel weight is split across items by
// quantity; unpriced items are declared at DefaultValue each.
func (s *DescriptionItems) Items(ctx context.Context, req Request) ([]shipment.CustomsItem, error) {
	if strings.TrimSpace(req.Contents) == "" {
		return nil, ErrNoContents
	}
	parsed := parseContents(req.Contents)
	if len(parsed) == 0 {
		return nil, fmt.Errorf("%w from %q", ErrNoItems, req.Contents)
	}

	defaultValue := s.DefaultValue
	if !defaultValue.IsPositive() {
		defaultValue = DefaultUnitValue
	}

	totalQty := 0
	for _, p := range parsed {
		totalQty += p.quantity
	}

	items := make([]shipment.CustomsItem, 0, len(parsed))
	for _, p := range parsed {
		value := p.unitValue
		if !p.priced {
			value = defaultValue
		}

		hs := ""
		if s.Tariffs != nil {
			code, err := s.Tariffs.HSCode(ctx, p.description, req.Category)
			if err != nil {
				return nil, fmt.Errorf("tariff lookup for %q: %w", p.description, err)
			}
			hs = code
		}

		items = append(items, shipment.CustomsItem{
			Description:   p.description,
			Quantity:      p.quantity,
			Value:         value,
			WeightOz:      shareWeight(req.WeightOz, p.quantity, totalQty),
			HSCode:        hs,
			OriginCountry: req.OriginCountry,
		})
	}
	return items, nil
}

// shareWeight returns the weight of qty units out of totalQty, rounded to
// 0.1 oz and never below 0.1.
func shareWeight(total float64, qty, totalQty int) float64 {
	if totalQty <= 0 {
		totalQty = 1
	}
	w := math.Round(total*float64(qty)/float64(totalQty)*10) / 10
	if w < 0.1 {
		w = 0.1
	}
	return w
}
