package shipment

import (
	"strings"

	"github.com/shopspring/decimal"
)

// MaxWeightOz is the heaviest parcel accepted (150 lb).
const MaxWeightOz = 2400.0

// Address is a postal address as sent to the carrier gateway.
// Country is an ISO-3166 alpha-2 code once it has passed NormalizeAddress.
type Address struct {
	Name    string `json:"name" validate:"required,max=100"`
	Company string `json:"company,omitempty" validate:"max=100"`
	Street1 string `json:"street1" validate:"required,max=200"`
	Street2 string `json:"street2,omitempty" validate:"max=200"`
	City    string `json:"city" validate:"max=100"`
	State   string `json:"state,omitempty" validate:"max=50"`
	Zip     string `json:"zip" validate:"max=20"`
	Country string `json:"country" validate:"required,len=2,alpha"`
	Phone   string `json:"phone,omitempty" validate:"max=40"`
	Email   string `json:"email,omitempty" validate:"omitempty,email"`
}

// IsZero reports whether no identifying field is set.
func (a Address) IsZero() bool {
	return a.Name == "" && a.Company == "" && a.Street1 == "" && a.City == "" && a.Zip == ""
}

// OneLine renders the address for logs and descriptions.
func (a Address) OneLine() string {
	parts := make([]string, 0, 6)
	for _, p := range []string{a.Street1, a.Street2, a.City, strings.TrimSpace(a.State + " " + a.Zip), a.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// Parcel is the physical package in inches and ounces.
type Parcel struct {
	Length   float64 `json:"length" validate:"gt=0"`
	Width    float64 `json:"width" validate:"gt=0"`
	Height   float64 `json:"height" validate:"gt=0"`
	WeightOz float64 `json:"weight_oz" validate:"gt=0,lte=2400"`
}

// Incoterm is the trade term attached to a customs declaration.
type Incoterm string

const (
	IncotermDDP Incoterm = "DDP" // seller pays duties
	IncotermDDU Incoterm = "DDU" // buyer pays duties
)

// CustomsItem is one line item of a customs declaration.
type CustomsItem struct {
	Description   string          `json:"description" validate:"required"`
	Quantity      int             `json:"quantity" validate:"gte=1"`
	Value         decimal.Decimal `json:"value"`
	WeightOz      float64         `json:"weight_oz" validate:"gt=0"`
	HSCode        string          `json:"hs_code,omitempty"`
	OriginCountry string          `json:"origin_country" validate:"required,len=2"`
}

// CustomsDeclaration is attached to cross-border quote requests.
type CustomsDeclaration struct {
	Items        []CustomsItem `json:"items" validate:"required,min=1,dive"`
	SignerName   string        `json:"signer_name" validate:"required"`
	Incoterm     Incoterm      `json:"incoterm" validate:"oneof=DDP DDU"`
	ContentsType string        `json:"contents_type"`
	Certified    bool          `json:"certified"`
}

// TotalValue sums item value times quantity.
func (c CustomsDeclaration) TotalValue() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.Items {
		total = total.Add(it.Value.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}

// RateOption is one purchasable carrier+service+price combination on a quote.
type RateOption struct {
	ID           string          `json:"id"`
	Carrier      string          `json:"carrier"`
	Service      string          `json:"service"`
	Price        decimal.Decimal `json:"price"`
	Currency     string          `json:"currency,omitempty"`
	DeliveryDays *int            `json:"delivery_days,omitempty"`
}

// QuoteRequest is the input for CarrierGateway.CreateQuote.
type QuoteRequest struct {
	To        Address             `json:"to_address"`
	From      Address             `json:"from_address"`
	Parcel    Parcel              `json:"parcel"`
	Customs   *CustomsDeclaration `json:"customs,omitempty"`
	Reference string              `json:"reference,omitempty"`
}

// Quote is the provider-side shipment object with its rate options.
type Quote struct {
	ID          string              `json:"id"`
	Rates       []RateOption        `json:"rates"`
	ToAddress   Address             `json:"to_address"`
	FromAddress Address             `json:"from_address"`
	Customs     *CustomsDeclaration `json:"customs,omitempty"`
	Messages    []string            `json:"messages,omitempty"`
}

// FindRate returns the rate with the given id, if present.
func (q *Quote) FindRate(rateID string) (RateOption, bool) {
	for _, r := range q.Rates {
		if r.ID == rateID {
			return r, true
		}
	}
	return RateOption{}, false
}

// RateIDs lists the ids of all rate options on the quote.
func (q *Quote) RateIDs() []string {
	ids := make([]string, 0, len(q.Rates))
	for _, r := range q.Rates {
		ids = append(ids, r.ID)
	}
	return ids
}

// Label is the result of a successful purchase.
type Label struct {
	TrackingCode string `json:"tracking_code"`
	LabelURL     string `json:"label_url"`
	RateID       string `json:"rate_id,omitempty"`
}

// VerificationStatus is the result state of an address verification.
type VerificationStatus string

const (
	VerificationSuccess VerificationStatus = "success"
	VerificationWarning VerificationStatus = "warning"
	VerificationFailure VerificationStatus = "failure"
)

// Verification is the result of CarrierGateway.VerifyAddress.
type Verification struct {
	Success   bool     `json:"success"`
	Corrected *Address `json:"corrected_address,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
	Errors    []string `json:"errors,omitempty"`
}

// Status folds the verification result into success / warning / failure.
func (v *Verification) Status() VerificationStatus {
	switch {
	case v == nil || !v.Success:
		return VerificationFailure
	case len(v.Warnings) > 0:
		return VerificationWarning
	default:
		return VerificationSuccess
	}
}
