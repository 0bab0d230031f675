package intake

import (
	"strings"

	"github.com/erp/bulkship/internal/domain/shipment"
)

// Positional column layout. Columns before colOrigin may hold a reference
// block that is skipped by detectOffset.
const (
	colOrigin = iota
	colCarrier
	colFirstName
	colLastName
	colPhone
	colEmail
	colStreet1
	colStreet2
	colCity
	colState
	colZip
	colCountry
	colUnused
	colDimensions
	colWeight
	colContents

	// sender block
	colSenderName
	colSenderCompany
	colSenderStreet1
	colSenderStreet2
	colSenderCity
	colSenderState
	colSenderZip
	colSenderCountry
	colSenderPhone

	// PositionalColumns is the minimum column count of a positional record.
	PositionalColumns = colContents + 1
	// SenderColumns is the column count of a record carrying a full sender
	// block. A sender is recognised from its name and street1 alone.
	SenderColumns = colSenderPhone + 1
)

// offsetScan is how many leading columns are searched for the carrier token.
const offsetScan = 5

// detectOffset returns how many leading reference columns precede the
// origin column. The carrier column is expected right after origin, so a
// carrier token found at index i means i-1 columns are skipped.
func detectOffset(cols []string) int {
	for i := 1; i < offsetScan && i < len(cols); i++ {
		if IsCarrierToken(cols[i]) {
			return i - colCarrier
		}
	}
	return 0
}

// parsePositional maps cols onto a Draft by fixed position. It returns false
// when there are too few columns after the reference offset.
func parsePositional(cols []string) (shipment.Draft, bool) {
	cols = cols[detectOffset(cols):]
	if len(cols) < PositionalColumns {
		return shipment.Draft{}, false
	}
	get := func(i int) string {
		if i >= len(cols) {
			return ""
		}
		return strings.TrimSpace(cols[i])
	}

	d := shipment.Draft{
		OriginRegion:      get(colOrigin),
		CarrierPreference: get(colCarrier),
		FirstName:         get(colFirstName),
		LastName:          get(colLastName),
		Phone:             get(colPhone),
		Email:             get(colEmail),
		Street1:           get(colStreet1),
		Street2:           get(colStreet2),
		City:              get(colCity),
		State:             get(colState),
		Zip:               get(colZip),
		Country:           get(colCountry),
		RawDimensions:     get(colDimensions),
		RawWeight:         get(colWeight),
		Strategy:          shipment.StrategyPositional,
	}

	if hasSender(cols, get) {
		d.Sender = &shipment.Address{
			Name:    get(colSenderName),
			Company: get(colSenderCompany),
			Street1: get(colSenderStreet1),
			Street2: get(colSenderStreet2),
			City:    get(colSenderCity),
			State:   get(colSenderState),
			Zip:     get(colSenderZip),
			Country: get(colSenderCountry),
			Phone:   get(colSenderPhone),
		}
		extra := []string{get(colContents)}
		if len(cols) > SenderColumns {
			extra = append(extra, cols[SenderColumns:]...)
		}
		d.Contents = joinNonEmpty(extra)
	} else {
		d.Contents = joinNonEmpty(cols[colContents:])
	}
	return d, true
}

// hasSender reports whether cols carry a sender block. A full block needs a
// name and street1; a block cut short must also have a street-like street1
// so trailing contents cells are not taken for an address.
func hasSender(cols []string, get func(int) string) bool {
	if get(colSenderName) == "" || get(colSenderStreet1) == "" {
		return false
	}
	return len(cols) >= SenderColumns || isStreet(get(colSenderStreet1))
}

func joinNonEmpty(parts []string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}
