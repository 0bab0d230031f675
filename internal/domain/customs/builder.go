package customs

import (
	"context"
	"strings"

	"github.com/erp/bulkship/internal/domain/shipment"
)

// Contents types declared on customs forms.
const (
	ContentsMerchandise   = "merchandise"
	ContentsGift          = "gift"
	ContentsDocuments     = "documents"
	ContentsSample        = "sample"
	ContentsReturnedGoods = "returned_goods"
)

// FallbackDescription is declared when no items can be derived.
const FallbackDescription = "Merchandise"

// dutyPaidCarriers are the carriers for which the seller prepays duties.
var dutyPaidCarriers = []string{"FedEx", "UPS", "DHL"}

// Request describes the shipment a declaration is built for.
type Request struct {
	Contents          string
	Category          shipment.Category
	WeightOz          float64
	OriginCountry     string
	DestCountry       string
	SenderCompany     string
	CarrierPreference string
}

// Builder synthesizes customs declarations for cross-border shipments.
type Builder struct {
	items   ItemSource
	signers *SignerDirectory
}

// NewBuilder creates a Builder. A nil item source uses DescriptionItems with
// category tariffs; a nil signer directory signs everything as DefaultSigner.
func NewBuilder(items ItemSource, signers *SignerDirectory) *Builder {
	if items == nil {
		items = NewDescriptionItems(nil)
	}
	return &Builder{items: items, signers: signers}
}

// IsInternational reports whether origin and destination differ after
// country normalization.
func IsInternational(origin, dest string) bool {
	o, _ := shipment.NormalizeCountry(origin)
	d, _ := shipment.NormalizeCountry(dest)
	return o != d
}

// Build returns the declaration for req. Item synthesis failures never fail
// the build: a single generic item is declared instead and a warning is
// returned alongside.
func (b *Builder) Build(ctx context.Context, req Request) (shipment.CustomsDeclaration, []string) {
	var warnings []string

	origin, _ := shipment.NormalizeCountry(req.OriginCountry)
	req.OriginCountry = origin

	items, err := b.items.Items(ctx, req)
	if err != nil || len(items) == 0 {
		reason := "no items found in contents"
		if err != nil {
			reason = err.Error()
		}
		warnings = append(warnings, "customs items declared as "+FallbackDescription+": "+reason)
		items = []shipment.CustomsItem{fallbackItem(req)}
	}

	return shipment.CustomsDeclaration{
		Items:        items,
		SignerName:   b.signers.Signer(req.SenderCompany),
		Incoterm:     ChooseIncoterm(req.CarrierPreference),
		ContentsType: ContentsTypeFor(req.Contents),
		Certified:    true,
	}, warnings
}

func fallbackItem(req Request) shipment.CustomsItem {
	weight := req.WeightOz
	if weight <= 0 {
		weight = 0.1
	}
	return shipment.CustomsItem{
		Description:   FallbackDescription,
		Quantity:      1,
		Value:         DefaultUnitValue,
		WeightOz:      weight,
		HSCode:        categoryHSCodes[req.Category],
		OriginCountry: req.OriginCountry,
	}
}

// ChooseIncoterm returns DDP when the carrier preference names FedEx, UPS or
// DHL and DDU otherwise.
func ChooseIncoterm(preference string) shipment.Incoterm {
	pref := shipment.ParsePreference(preference)
	for _, c := range dutyPaidCarriers {
		if shipment.CarrierMatches(pref.Carrier, c) {
			return shipment.IncotermDDP
		}
	}
	return shipment.IncotermDDU
}

// ContentsTypeFor picks the contents type from keywords in the description.
func ContentsTypeFor(contents string) string {
	lower := strings.ToLower(contents)
	switch {
	case strings.Contains(lower, "gift"):
		return ContentsGift
	case strings.Contains(lower, "document"):
		return ContentsDocuments
	case strings.Contains(lower, "sample"):
		return ContentsSample
	case strings.Contains(lower, "return"):
		return ContentsReturnedGoods
	default:
		return ContentsMerchandise
	}
}
