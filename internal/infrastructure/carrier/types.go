package carrier

import (
	"strings"

	"github.com/erp/bulkship/internal/domain/shipment"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Request payloads
// ---------------------------------------------------------------------------

type addressPayload struct {
	ID      string `json:"id,omitempty"`
	Name    string `json:"name,omitempty"`
	Company string `json:"company,omitempty"`
	Street1 string `json:"street1,omitempty"`
	Street2 string `json:"street2,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Zip     string `json:"zip,omitempty"`
	Country string `json:"country,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
}

type parcelPayload struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Weight float64 `json:"weight"` // ounces
}

type customsItemPayload struct {
	Description    string          `json:"description"`
	Quantity       int             `json:"quantity"`
	Value          decimal.Decimal `json:"value"`
	Weight         float64         `json:"weight"`
	HSTariffNumber string          `json:"hs_tariff_number,omitempty"`
	OriginCountry  string          `json:"origin_country"`
}

type customsPayload struct {
	ContentsType      string               `json:"contents_type"`
	CustomsCertify    bool                 `json:"customs_certify"`
	CustomsSigner     string               `json:"customs_signer"`
	NonDeliveryOption string               `json:"non_delivery_option"`
	RestrictionType   string               `json:"restriction_type"`
	Items             []customsItemPayload `json:"customs_items"`
}

type shipmentOptions struct {
	Incoterm string `json:"incoterm,omitempty"`
}

type createShipmentRequest struct {
	Shipment struct {
		ToAddress   addressPayload   `json:"to_address"`
		FromAddress addressPayload   `json:"from_address"`
		Parcel      parcelPayload    `json:"parcel"`
		CustomsInfo *customsPayload  `json:"customs_info,omitempty"`
		Options     *shipmentOptions `json:"options,omitempty"`
		Reference   string           `json:"reference,omitempty"`
	} `json:"shipment"`
}

type buyRequest struct {
	Rate struct {
		ID string `json:"id"`
	} `json:"rate"`
}

type verifyRequest struct {
	Address       addressPayload `json:"address"`
	Verify        []string       `json:"verify"`
	VerifyCarrier string         `json:"verify_carrier,omitempty"`
}

// ---------------------------------------------------------------------------
// Response payloads
// ---------------------------------------------------------------------------

type ratePayload struct {
	ID           string          `json:"id"`
	Carrier      string          `json:"carrier"`
	Service      string          `json:"service"`
	Rate         decimal.Decimal `json:"rate"`
	Currency     string          `json:"currency"`
	DeliveryDays *int            `json:"delivery_days"`
}

type messagePayload struct {
	Carrier string `json:"carrier"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

type shipmentResponse struct {
	ID           string           `json:"id"`
	Rates        []ratePayload    `json:"rates"`
	ToAddress    addressPayload   `json:"to_address"`
	FromAddress  addressPayload   `json:"from_address"`
	Messages     []messagePayload `json:"messages"`
	TrackingCode string           `json:"tracking_code"`
	SelectedRate *ratePayload     `json:"selected_rate"`
	PostageLabel *struct {
		LabelURL string `json:"label_url"`
	} `json:"postage_label"`
}

type verificationDetail struct {
	Code       string `json:"code"`
	Field      string `json:"field"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion"`
}

type addressResponse struct {
	addressPayload
	Verifications map[string]struct {
		Success bool                 `json:"success"`
		Errors  []verificationDetail `json:"errors"`
	} `json:"verifications"`
}

type errorEnvelope struct {
	Error *struct {
		Code    string                 `json:"code"`
		Message string                 `json:"message"`
		Errors  []shipment.FieldDetail `json:"errors"`
	} `json:"error"`
}

// ---------------------------------------------------------------------------
// Conversions
// ---------------------------------------------------------------------------

func toAddressPayload(a shipment.Address) addressPayload {
	return addressPayload{
		Name:    a.Name,
		Company: a.Company,
		Street1: a.Street1,
		Street2: a.Street2,
		City:    a.City,
		State:   a.State,
		Zip:     a.Zip,
		Country: a.Country,
		Phone:   a.Phone,
		Email:   a.Email,
	}
}

func (p addressPayload) toAddress() shipment.Address {
	return shipment.Address{
		Name:    p.Name,
		Company: p.Company,
		Street1: p.Street1,
		Street2: p.Street2,
		City:    p.City,
		State:   p.State,
		Zip:     p.Zip,
		Country: strings.ToUpper(p.Country),
		Phone:   p.Phone,
		Email:   p.Email,
	}
}

func toCustomsPayload(c *shipment.CustomsDeclaration) *customsPayload {
	if c == nil {
		return nil
	}
	items := make([]customsItemPayload, 0, len(c.Items))
	for _, it := range c.Items {
		items = append(items, customsItemPayload{
			Description:    it.Description,
			Quantity:       it.Quantity,
			Value:          it.Value,
			Weight:         it.WeightOz,
			HSTariffNumber: it.HSCode,
			OriginCountry:  it.OriginCountry,
		})
	}
	return &customsPayload{
		ContentsType:      c.ContentsType,
		CustomsCertify:    c.Certified,
		CustomsSigner:     c.SignerName,
		NonDeliveryOption: "return",
		RestrictionType:   "none",
		Items:             items,
	}
}

func (r ratePayload) toRate() shipment.RateOption {
	return shipment.RateOption{
		ID:           r.ID,
		Carrier:      r.Carrier,
		Service:      r.Service,
		Price:        r.Rate,
		Currency:     r.Currency,
		DeliveryDays: r.DeliveryDays,
	}
}

func (s *shipmentResponse) toQuote(customs *shipment.CustomsDeclaration) *shipment.Quote {
	q := &shipment.Quote{
		ID:          s.ID,
		Rates:       make([]shipment.RateOption, 0, len(s.Rates)),
		ToAddress:   s.ToAddress.toAddress(),
		FromAddress: s.FromAddress.toAddress(),
		Customs:     customs,
	}
	for _, r := range s.Rates {
		q.Rates = append(q.Rates, r.toRate())
	}
	for _, m := range s.Messages {
		if m.Message == "" {
			continue
		}
		if m.Carrier != "" {
			q.Messages = append(q.Messages, m.Carrier+": "+m.Message)
		} else {
			q.Messages = append(q.Messages, m.Message)
		}
	}
	return q
}

func (v verificationDetail) text() string {
	msg := v.Message
	if v.Field != "" {
		msg = v.Field + ": " + msg
	}
	if v.Suggestion != "" {
		msg += " (suggestion: " + v.Suggestion + ")"
	}
	return msg
}

func (a *addressResponse) toVerification() *shipment.Verification {
	corrected := a.addressPayload.toAddress()
	v := &shipment.Verification{Corrected: &corrected}

	result, ok := a.Verifications["delivery"]
	if !ok {
		for _, r := range a.Verifications {
			result = r
			ok = true
			break
		}
	}
	if !ok {
		v.Success = true
		return v
	}

	v.Success = result.Success
	for _, d := range result.Errors {
		if result.Success {
			v.Warnings = append(v.Warnings, d.text())
		} else {
			v.Errors = append(v.Errors, d.text())
		}
	}
	return v
}
