package shipment

import (
	"fmt"
	"strings"
)

// ParseStrategy records which intake path produced a Draft.
type ParseStrategy string

const (
	StrategyPositional ParseStrategy = "positional"
	StrategyHeuristic  ParseStrategy = "heuristic"
	StrategyFreeText   ParseStrategy = "freetext"
)

// Draft is a loosely-typed shipment record as read from one input line.
// Any field may be empty; nothing here has been validated.
type Draft struct {
	OriginRegion      string `json:"origin_region,omitempty"`
	CarrierPreference string `json:"carrier_preference,omitempty"`

	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Company   string `json:"company,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Email     string `json:"email,omitempty"`

	Street1 string `json:"street1,omitempty"`
	Street2 string `json:"street2,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Zip     string `json:"zip,omitempty"`
	Country string `json:"country,omitempty"`

	RawDimensions string `json:"dimensions,omitempty"`
	RawWeight     string `json:"weight,omitempty"`
	Contents      string `json:"contents,omitempty"`

	// Sender is set when the record carries its own ship-from block.
	Sender *Address `json:"sender,omitempty"`

	Strategy ParseStrategy `json:"strategy,omitempty"`
}

// RecipientName joins first and last name.
func (d Draft) RecipientName() string {
	return strings.TrimSpace(strings.Join(strings.Fields(d.FirstName+" "+d.LastName), " "))
}

// ValidatedShipment is a Draft with parsed measurements and a category.
// When Valid is true the parcel numbers are positive, Zip, Street1 and
// Country are set and Country is an ISO alpha-2 code.
type ValidatedShipment struct {
	Draft
	Line int `json:"line"`

	Length   float64  `json:"length"`
	Width    float64  `json:"width"`
	Height   float64  `json:"height"`
	WeightOz float64  `json:"weight_oz"`
	Category Category `json:"category"`

	Valid  bool        `json:"valid"`
	Errors []LineError `json:"errors,omitempty"`
}

// Messages returns the validation messages as plain strings.
func (v ValidatedShipment) Messages() []string {
	msgs := make([]string, 0, len(v.Errors))
	for _, e := range v.Errors {
		msgs = append(msgs, e.Error())
	}
	return msgs
}

// Parcel returns the parcel built from the parsed measurements.
func (v ValidatedShipment) Parcel() Parcel {
	return Parcel{Length: v.Length, Width: v.Width, Height: v.Height, WeightOz: v.WeightOz}
}

// Destination returns the recipient address.
func (v ValidatedShipment) Destination() Address {
	return Address{
		Name:    TitleName(v.RecipientName()),
		Company: v.Company,
		Street1: strings.TrimSpace(v.Street1),
		Street2: strings.TrimSpace(v.Street2),
		City:    strings.TrimSpace(v.City),
		State:   strings.TrimSpace(v.State),
		Zip:     strings.TrimSpace(v.Zip),
		Country: v.Country,
		Phone:   strings.TrimSpace(v.Phone),
		Email:   strings.TrimSpace(v.Email),
	}
}

// Validate parses measurements, normalizes the country and classifies the
// contents of d. Every problem found is recorded; Valid is true only when
// there are none. A nil classifier uses DefaultClassifier.
func Validate(line int, d Draft, c *Classifier) ValidatedShipment {
	if c == nil {
		c = DefaultClassifier()
	}
	v := ValidatedShipment{Draft: d, Line: line}
	add := func(field, code, msg, value string) {
		v.Errors = append(v.Errors, NewLineErrorWithValue(line, field, code, msg, value))
	}

	if v.RecipientName() == "" {
		add("recipient_name", ErrCodeRequiredField, "recipient name is required", "")
	}
	if strings.TrimSpace(d.Street1) == "" {
		add("street1", ErrCodeRequiredField, "street address is required", "")
	}
	if strings.TrimSpace(d.Zip) == "" {
		add("zip", ErrCodeRequiredField, "postal code is required", "")
	}

	switch code, ok := NormalizeCountry(d.Country); {
	case strings.TrimSpace(d.Country) == "":
		add("country", ErrCodeRequiredField, "country is required", "")
	case ok:
		v.Country = code
	case len(code) == 2 && isAlpha(code):
		v.Country = code
	default:
		add("country", ErrCodeUnknownCountry, "country is not a recognised name or ISO code", d.Country)
	}

	l, w, h, err := ParseDimensions(d.RawDimensions)
	if err != nil {
		add("dimensions", ErrCodeInvalidDimensions, strings.TrimPrefix(err.Error(), ErrInvalidDimensions.Error()+": "), d.RawDimensions)
	} else {
		v.Length, v.Width, v.Height = l, w, h
	}

	oz, err := ParseWeight(d.RawWeight)
	switch {
	case err != nil:
		add("weight", ErrCodeInvalidWeight, strings.TrimPrefix(err.Error(), ErrInvalidWeight.Error()+": "), d.RawWeight)
	case oz > MaxWeightOz:
		add("weight", ErrCodeInvalidRange, fmt.Sprintf("%.1f oz exceeds the %.0f oz (150 lb) limit", oz, MaxWeightOz), d.RawWeight)
	default:
		v.WeightOz = oz
	}

	if email := strings.TrimSpace(d.Email); email != "" {
		if msgs := CheckStruct(Address{Name: "x", Street1: "x", Country: "US", Email: email}); len(msgs) > 0 {
			add("email", ErrCodeInvalidFormat, "email address is not valid", email)
		}
	}

	v.Category = c.Classify(d.Contents)
	v.Valid = len(v.Errors) == 0
	return v
}

// ValidationError converts an invalid shipment into an error for the caller.
// It wraps ErrInvalidDimensions or ErrInvalidWeight when those were the
// only problems so ClassifyError reports a normalization failure.
func (v ValidatedShipment) ValidationError() error {
	if v.Valid {
		return nil
	}
	normalization := true
	var sentinel error
	for _, e := range v.Errors {
		switch e.Code {
		case ErrCodeInvalidDimensions:
			sentinel = ErrInvalidDimensions
		case ErrCodeInvalidWeight:
			sentinel = ErrInvalidWeight
		default:
			normalization = false
		}
	}
	msg := strings.Join(v.Messages(), "; ")
	if normalization && sentinel != nil {
		return fmt.Errorf("%w: %s", sentinel, msg)
	}
	return fmt.Errorf("%w: %s", ErrInvalidShipment, msg)
}

func isAlpha(s string) bool {
	for _, r := range s {
		if (r < 'A' || r > 'Z') && (r < 'a' || r > 'z') {
			return false
		}
	}
	return s != ""
}
