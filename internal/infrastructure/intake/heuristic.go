package intake

import (
	"strings"

	"github.com/erp/bulkship/internal/domain/shipment"
)

// RegionSet recognises origin region names. warehouse.Directory satisfies it.
type RegionSet interface {
	IsRegion(name string) bool
}

type token struct {
	idx   int
	value string
	kind  FieldType
	used  bool
}

type tokens []*token

func (ts tokens) take(kind FieldType) *token {
	for _, t := range ts {
		if !t.used && t.kind == kind {
			t.used = true
			return t
		}
	}
	return nil
}

func (ts tokens) takeLast(kind FieldType) *token {
	for i := len(ts) - 1; i >= 0; i-- {
		if t := ts[i]; !t.used && t.kind == kind {
			t.used = true
			return t
		}
	}
	return nil
}

// detectFields classifies every non-empty column and assigns the values to
// draft fields by priority. The first email and phone belong to the
// recipient and the second ones to the sender.
func (p *Parser) detectFields(cols []string) shipment.Draft {
	ts := make(tokens, 0, len(cols))
	for i, c := range cols {
		v := strings.TrimSpace(c)
		if v == "" {
			continue
		}
		ts = append(ts, &token{idx: i, value: v, kind: p.detector.Detect(v)})
	}

	d := shipment.Draft{Strategy: shipment.StrategyHeuristic}
	if len(ts) > 0 && p.regions != nil && p.regions.IsRegion(ts[0].value) {
		d.OriginRegion = ts[0].value
		ts[0].used = true
	}

	var sender shipment.Address
	if t := ts.take(FieldEmail); t != nil {
		d.Email = t.value
	}
	if t := ts.take(FieldEmail); t != nil {
		sender.Email = t.value
	}
	if t := ts.take(FieldPhone); t != nil {
		d.Phone = t.value
	}
	if t := ts.take(FieldPhone); t != nil {
		sender.Phone = t.value
	}
	if t := ts.take(FieldCarrier); t != nil {
		d.CarrierPreference = t.value
	}
	if t := ts.take(FieldWeight); t != nil {
		d.RawWeight = t.value
	}
	if t := ts.take(FieldDimensions); t != nil {
		d.RawDimensions = t.value
	}
	if t := ts.take(FieldStreet); t != nil {
		d.Street1 = t.value
	}
	if t := ts.take(FieldStreet2); t != nil {
		d.Street2 = t.value
	}

	var stateTok, zipTok *token
	if t := ts.take(FieldState); t != nil {
		d.State, stateTok = t.value, t
	}
	if t := ts.take(FieldPostalCode); t != nil {
		d.Zip, zipTok = t.value, t
	}

	d.Country = ts.country(d)
	if zipTok == nil && d.Country == "JP" {
		for _, t := range ts {
			if !t.used && IsJapanesePostalCode(t.value) {
				t.used = true
				d.Zip, zipTok = t.value, t
				break
			}
		}
	}

	if t := ts.city(stateTok, zipTok); t != nil {
		d.City = t.value
	}

	d.FirstName, d.LastName = ts.name()
	d.Contents = p.contents(ts)

	if sender.Email != "" || sender.Phone != "" {
		// contact-only sender; merged over the warehouse address downstream
		d.Sender = &sender
	}
	return d
}

// country picks the last country-typed token. Without one, a second
// state-shaped token that is also a country code is used ("CA" for Canada
// after "ON"), and a US state with a US ZIP implies "US".
func (ts tokens) country(d shipment.Draft) string {
	if t := ts.takeLast(FieldCountry); t != nil {
		return t.value
	}
	for _, t := range ts {
		if !t.used && t.kind == FieldState && shipment.IsCountryToken(t.value) {
			t.used = true
			return t.value
		}
	}
	if usStateCodes[strings.ToUpper(d.State)] || usStateNames[foldSpaces(d.State)] {
		if d.Zip == "" || usZipRe.MatchString(d.Zip) {
			return "US"
		}
	}
	return ""
}

// city is the free token right before the earlier of state and zip.
func (ts tokens) city(state, zip *token) *token {
	anchor := -1
	for _, t := range []*token{state, zip} {
		if t != nil && (anchor < 0 || t.idx < anchor) {
			anchor = t.idx
		}
	}
	if anchor < 0 {
		return nil
	}
	var best *token
	for _, t := range ts {
		if t.idx >= anchor {
			break
		}
		if !t.used && (t.kind == FieldName || t.kind == FieldUnknown || t.kind == FieldCountry) {
			best = t
		}
	}
	if best != nil {
		best.used = true
	}
	return best
}

// name takes the first name-shaped token, or two adjacent single words
// when first and last name sit in separate columns.
func (ts tokens) name() (first, last string) {
	for i, t := range ts {
		if t.used {
			continue
		}
		if t.kind == FieldName {
			t.used = true
			return splitName(t.value)
		}
		if t.kind != FieldUnknown || !wordRe.MatchString(t.value) {
			continue
		}
		t.used = true
		if i+1 < len(ts) {
			n := ts[i+1]
			if !n.used && n.idx == t.idx+1 && n.kind == FieldUnknown && wordRe.MatchString(n.value) {
				n.used = true
				return t.value, n.value
			}
		}
		return t.value, ""
	}
	return "", ""
}

func splitName(full string) (first, last string) {
	parts := strings.Fields(full)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return strings.Join(parts[:len(parts)-1], " "), parts[len(parts)-1]
}

// contents prefers a keyword match, then any token the classifier can
// place, then the last unclassified token.
func (p *Parser) contents(ts tokens) string {
	if t := ts.take(FieldContents); t != nil {
		return t.value
	}
	for _, t := range ts {
		if !t.used && (t.kind == FieldUnknown || t.kind == FieldName) &&
			p.classifier.Classify(t.value) != shipment.CategoryDefault {
			t.used = true
			return t.value
		}
	}
	for i := len(ts) - 1; i >= 0; i-- {
		if t := ts[i]; !t.used && (t.kind == FieldUnknown || t.kind == FieldName) {
			t.used = true
			return t.value
		}
	}
	return ""
}
