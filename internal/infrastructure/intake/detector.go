package intake

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/erp/bulkship/internal/domain/shipment"
)

// FieldType is the shape a single column value was recognised as.
type FieldType string

const (
	FieldEmail      FieldType = "email"
	FieldPhone      FieldType = "phone"
	FieldCountry    FieldType = "country"
	FieldPostalCode FieldType = "postal_code"
	FieldState      FieldType = "state"
	FieldStreet     FieldType = "street"
	FieldStreet2    FieldType = "street2"
	FieldWeight     FieldType = "weight"
	FieldDimensions FieldType = "dimensions"
	FieldCarrier    FieldType = "carrier"
	FieldContents   FieldType = "contents"
	FieldName       FieldType = "name"
	FieldUnknown    FieldType = "unknown"
)

var (
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]{2,}$`)

	phoneRe    = regexp.MustCompile(`(?i)^\+?[\d\s().\-/]+(?:\s*(?:x|ext\.?|extension)\s*\d{1,6})?$`)
	phoneExtRe = regexp.MustCompile(`(?i)(?:x|ext\.?|extension)\s*\d{1,6}$`)

	postalPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^\d{5}(?:-\d{4})?$`),                      // US ZIP / ZIP+4, generic 5-digit EU
		regexp.MustCompile(`(?i)^[A-Z]\d[A-Z]\s?\d[A-Z]\d$`),          // Canada
		regexp.MustCompile(`(?i)^[A-Z]{1,2}\d[A-Z\d]?\s?\d[A-Z]{2}$`), // United Kingdom
		regexp.MustCompile(`(?i)^\d{4}\s?[A-Z]{2}$`),                  // Netherlands
		regexp.MustCompile(`^\d{5}-\d{3}$`),                           // Brazil
		regexp.MustCompile(`^\d{4}$`),                                 // Australia and other 4-digit
		regexp.MustCompile(`^\d{6}$`),                                 // India, China, Singapore
	}
	usZipRe       = regexp.MustCompile(`^\d{5}(?:-\d{4})?$`)
	japanPostalRe = regexp.MustCompile(`^\d{3}-\d{4}$`)

	poBoxRe     = regexp.MustCompile(`(?i)^(?:p\.?\s*o\.?\s*box|post\s+office\s+box)\s*#?\s*\d+`)
	militaryRe  = regexp.MustCompile(`(?i)^(?:psc|cmr)\s+\d+|^unit\s+\d+\s+box\s+\d+`)
	streetNumRe = regexp.MustCompile(`^\d+[A-Za-z]?(?:[-/]\d+[A-Za-z]?)?,?\s+\p{L}`)
	streetEUre  = regexp.MustCompile(`(?i)^\p{L}[\p{L}.' -]*\s\d+[A-Za-z]?(?:[-/]\d+)?$`)
	secondaryRe = regexp.MustCompile(`(?i)^(?:apt|apartment|suite|ste|unit|fl|floor|rm|room|bldg|building|dept|#)\.?\s*#?\s*[\w-]+$`)

	weightValueRe = regexp.MustCompile(`(?i)^(?:\d+(?:\.\d+)?|\.\d+)\s*(?:lbs?|pounds?|oz|ounces?|kgs?|kilograms?|g|grams?)(?:\s*(?:\d+(?:\.\d+)?|\.\d+)\s*(?:lbs?|pounds?|oz|ounces?|kgs?|kilograms?|g|grams?))*\.?$`)
	dimsValueRe   = regexp.MustCompile(`(?i)^[\d./ ]+\s*(?:"|in|cm)?\s*(?:x|×|\*|by)\s*[\d./ ]+\s*(?:"|in|cm)?\s*(?:x|×|\*|by)\s*[\d./ ]+\s*(?:"|in|inches|cm)?$`)

	nameRe = regexp.MustCompile(`^\p{L}[\p{L}'’.\-]*(?:\s+\p{L}[\p{L}'’.\-]*){1,3}$`)
	wordRe = regexp.MustCompile(`^\p{L}[\p{L}'’.\-]*$`)
)

var streetSuffixes = map[string]bool{
	"st": true, "street": true, "ave": true, "avenue": true, "rd": true, "road": true, "blvd": true,
	"boulevard": true, "ln": true, "lane": true, "dr": true, "drive": true, "way": true, "ct": true,
	"court": true, "pl": true, "place": true, "pkwy": true, "parkway": true, "hwy": true, "highway": true,
	"ter": true, "terrace": true, "cir": true, "circle": true, "sq": true, "square": true,
	"strasse": true, "straße": true, "str": true, "weg": true, "laan": true, "gracht": true,
	"rue": true, "via": true, "calle": true, "avenida": true, "rua": true,
}

var knownCarriers = []string{
	"USPS", "UPS", "UPSDAP", "FEDEX", "FEDEXDEFAULT", "DHL", "DHLEXPRESS", "DHLECOMMERCE",
	"ASENDIA", "USAEXPORT", "ONTRAC", "LSO", "CANADAPOST", "PUROLATOR", "ROYALMAIL", "AUSTRALIAPOST",
}

var usStateCodes = map[string]bool{
	"AL": true, "AK": true, "AZ": true, "AR": true, "CA": true, "CO": true, "CT": true, "DE": true,
	"FL": true, "GA": true, "HI": true, "ID": true, "IL": true, "IN": true, "IA": true, "KS": true,
	"KY": true, "LA": true, "ME": true, "MD": true, "MA": true, "MI": true, "MN": true, "MS": true,
	"MO": true, "MT": true, "NE": true, "NV": true, "NH": true, "NJ": true, "NM": true, "NY": true,
	"NC": true, "ND": true, "OH": true, "OK": true, "OR": true, "PA": true, "RI": true, "SC": true,
	"SD": true, "TN": true, "TX": true, "UT": true, "VT": true, "VA": true, "WA": true, "WV": true,
	"WI": true, "WY": true, "DC": true, "PR": true,
}

// Canadian provinces and Australian states also fill the state column.
var otherStateCodes = map[string]bool{
	"ON": true, "QC": true, "BC": true, "AB": true, "MB": true, "SK": true, "NS": true, "NB": true,
	"NL": true, "PE": true, "YT": true, "NT": true, "NU": true,
	"NSW": true, "VIC": true, "QLD": true, "TAS": true, "ACT": true,
}

var usStateNames = map[string]bool{
	"alabama": true, "alaska": true, "arizona": true, "arkansas": true, "california": true,
	"colorado": true, "connecticut": true, "delaware": true, "florida": true, "georgia": true,
	"hawaii": true, "idaho": true, "illinois": true, "indiana": true, "iowa": true, "kansas": true,
	"kentucky": true, "louisiana": true, "maine": true, "maryland": true, "massachusetts": true,
	"michigan": true, "minnesota": true, "mississippi": true, "missouri": true, "montana": true,
	"nebraska": true, "nevada": true, "new hampshire": true, "new jersey": true, "new mexico": true,
	"new york": true, "north carolina": true, "north dakota": true, "ohio": true, "oklahoma": true,
	"oregon": true, "pennsylvania": true, "rhode island": true, "south carolina": true,
	"south dakota": true, "tennessee": true, "texas": true, "utah": true, "vermont": true,
	"virginia": true, "washington": true, "west virginia": true, "wisconsin": true, "wyoming": true,
	"district of columbia": true,
}

// Detector classifies single column values. It is safe for concurrent use.
type Detector struct {
	classifier *shipment.Classifier
}

// NewDetector creates a Detector. A nil classifier uses the default rules.
func NewDetector(c *shipment.Classifier) *Detector {
	if c == nil {
		c = shipment.DefaultClassifier()
	}
	return &Detector{classifier: c}
}

// DetectField classifies value with the default detector.
func DetectField(value string) FieldType {
	return defaultDetector.Detect(value)
}

var defaultDetector = NewDetector(nil)

// Detect returns the most likely field type of value. Checks run from the
// most to the least distinctive shape.
func (d *Detector) Detect(value string) FieldType {
	v := strings.TrimSpace(value)
	switch {
	case v == "":
		return FieldUnknown
	case emailRe.MatchString(v):
		return FieldEmail
	case weightValueRe.MatchString(v):
		return FieldWeight
	case dimsValueRe.MatchString(v) && countDigits(v) >= 3:
		return FieldDimensions
	case IsCarrierToken(v):
		return FieldCarrier
	case IsPostalCode(v):
		return FieldPostalCode
	case isPhone(v):
		return FieldPhone
	case isStateLike(v):
		return FieldState
	case shipment.IsCountryToken(v):
		return FieldCountry
	case poBoxRe.MatchString(v), militaryRe.MatchString(v):
		return FieldStreet
	case secondaryRe.MatchString(v):
		return FieldStreet2
	case isStreet(v):
		return FieldStreet
	case d.classifier.HasKeyword(v):
		return FieldContents
	case nameRe.MatchString(v):
		return FieldName
	default:
		return FieldUnknown
	}
}

// IsCarrierToken reports whether v starts with a known carrier name,
// e.g. "USPS", "FedEx Ground" or "UPS- Next Day Air".
func IsCarrierToken(v string) bool {
	head := strings.TrimSpace(v)
	if idx := strings.IndexAny(head, "-:/"); idx > 0 {
		head = head[:idx]
	}
	compact := compactUpper(head)
	for _, c := range knownCarriers {
		if compact == c {
			return true
		}
	}
	// "FedEx Ground": first word alone
	if fields := strings.Fields(head); len(fields) > 1 {
		first := compactUpper(fields[0])
		for _, c := range knownCarriers {
			if first == c {
				return true
			}
		}
	}
	return false
}

// IsPostalCode reports whether v matches one of the supported postal code
// formats. The Japanese NNN-NNNN shape is not included since it collides with
// seven-digit US phone numbers; see IsJapanesePostalCode.
func IsPostalCode(v string) bool {
	v = strings.TrimSpace(v)
	for _, re := range postalPatterns {
		if re.MatchString(v) {
			return true
		}
	}
	return false
}

// IsJapanesePostalCode reports whether v has the NNN-NNNN shape.
func IsJapanesePostalCode(v string) bool {
	return japanPostalRe.MatchString(strings.TrimSpace(v))
}

// IsStateCode reports whether v is a US state or Canadian/Australian province code.
func IsStateCode(v string) bool {
	u := strings.ToUpper(strings.TrimSpace(v))
	return usStateCodes[u] || otherStateCodes[u]
}

// isStateLike reports whether v can fill the state column.
func isStateLike(v string) bool {
	return IsStateCode(v) || usStateNames[foldSpaces(v)]
}

func isPhone(v string) bool {
	if !phoneRe.MatchString(v) {
		return false
	}
	digits := countDigits(phoneExtRe.ReplaceAllString(v, ""))
	return digits >= 7 && digits <= 15
}

func isStreet(v string) bool {
	if streetNumRe.MatchString(v) {
		return true
	}
	return streetEUre.MatchString(v) && hasStreetSuffix(strings.Fields(v))
}

// hasStreetSuffix reports whether any word is a street type such as "St" or
// "Avenue", or ends in a long one as in "Hauptstrasse".
func hasStreetSuffix(words []string) bool {
	for _, w := range words {
		w = strings.ToLower(strings.Trim(w, ".,"))
		if streetSuffixes[w] {
			return true
		}
		for suffix := range streetSuffixes {
			if len(suffix) > 4 && strings.HasSuffix(w, suffix) {
				return true
			}
		}
	}
	return false
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			n++
		}
	}
	return n
}

func compactUpper(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(unicode.ToUpper(r))
		}
	}
	return sb.String()
}

func foldSpaces(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
