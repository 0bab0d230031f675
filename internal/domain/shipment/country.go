package shipment

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// country holds the ISO codes and the names accepted for one country.
type country struct {
	alpha2 string
	alpha3 string
	names  []string
}

var countries = []country{
	{"US", "USA", []string{"united states", "united states of america", "america", "u.s.", "u.s.a."}},
	{"CA", "CAN", []string{"canada"}},
	{"MX", "MEX", []string{"mexico"}},
	{"GB", "GBR", []string{"united kingdom", "great britain", "uk", "england", "scotland", "wales", "northern ireland", "britain"}},
	{"IE", "IRL", []string{"ireland", "eire"}},
	{"DE", "DEU", []string{"germany", "deutschland"}},
	{"FR", "FRA", []string{"france"}},
	{"ES", "ESP", []string{"spain", "espana"}},
	{"PT", "PRT", []string{"portugal"}},
	{"IT", "ITA", []string{"italy", "italia"}},
	{"NL", "NLD", []string{"netherlands", "the netherlands", "holland", "nederland"}},
	{"BE", "BEL", []string{"belgium", "belgique", "belgie"}},
	{"LU", "LUX", []string{"luxembourg"}},
	{"CH", "CHE", []string{"switzerland", "schweiz", "suisse"}},
	{"AT", "AUT", []string{"austria", "osterreich"}},
	{"DK", "DNK", []string{"denmark", "danmark"}},
	{"SE", "SWE", []string{"sweden", "sverige"}},
	{"NO", "NOR", []string{"norway", "norge"}},
	{"FI", "FIN", []string{"finland", "suomi"}},
	{"IS", "ISL", []string{"iceland"}},
	{"PL", "POL", []string{"poland", "polska"}},
	{"CZ", "CZE", []string{"czech republic", "czechia"}},
	{"SK", "SVK", []string{"slovakia"}},
	{"HU", "HUN", []string{"hungary"}},
	{"RO", "ROU", []string{"romania"}},
	{"BG", "BGR", []string{"bulgaria"}},
	{"GR", "GRC", []string{"greece"}},
	{"HR", "HRV", []string{"croatia"}},
	{"SI", "SVN", []string{"slovenia"}},
	{"EE", "EST", []string{"estonia"}},
	{"LV", "LVA", []string{"latvia"}},
	{"LT", "LTU", []string{"lithuania"}},
	{"UA", "UKR", []string{"ukraine"}},
	{"TR", "TUR", []string{"turkey", "turkiye"}},
	{"IL", "ISR", []string{"israel"}},
	{"AE", "ARE", []string{"united arab emirates", "uae"}},
	{"SA", "SAU", []string{"saudi arabia"}},
	{"IN", "IND", []string{"india"}},
	{"PK", "PAK", []string{"pakistan"}},
	{"BD", "BGD", []string{"bangladesh"}},
	{"CN", "CHN", []string{"china", "people's republic of china", "prc"}},
	{"HK", "HKG", []string{"hong kong"}},
	{"TW", "TWN", []string{"taiwan"}},
	{"JP", "JPN", []string{"japan", "nippon"}},
	{"KR", "KOR", []string{"south korea", "korea", "republic of korea"}},
	{"SG", "SGP", []string{"singapore"}},
	{"MY", "MYS", []string{"malaysia"}},
	{"TH", "THA", []string{"thailand"}},
	{"VN", "VNM", []string{"vietnam", "viet nam"}},
	{"PH", "PHL", []string{"philippines"}},
	{"ID", "IDN", []string{"indonesia"}},
	{"AU", "AUS", []string{"australia"}},
	{"NZ", "NZL", []string{"new zealand", "aotearoa"}},
	{"BR", "BRA", []string{"brazil", "brasil"}},
	{"AR", "ARG", []string{"argentina"}},
	{"CL", "CHL", []string{"chile"}},
	{"CO", "COL", []string{"colombia"}},
	{"PE", "PER", []string{"peru"}},
	{"ZA", "ZAF", []string{"south africa"}},
	{"NG", "NGA", []string{"nigeria"}},
	{"EG", "EGY", []string{"egypt"}},
	{"KE", "KEN", []string{"kenya"}},
	{"PR", "PRI", []string{"puerto rico"}},
}

var (
	countryByAlpha2 = make(map[string]string, len(countries))
	countryByAlpha3 = make(map[string]string, len(countries))
	countryByName   = make(map[string]string, len(countries)*2)
)

func init() {
	for _, c := range countries {
		countryByAlpha2[c.alpha2] = c.alpha2
		countryByAlpha3[c.alpha3] = c.alpha2
		for _, n := range c.names {
			countryByName[n] = c.alpha2
		}
	}
}

// foldName lower-cases s, strips diacritics and collapses inner whitespace.
func foldName(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	folded = cases.Fold().String(folded)
	return strings.Join(strings.Fields(folded), " ")
}

// NormalizeCountry converts a country code or name to ISO-3166 alpha-2.
// The second return value is false when the input is not recognised; the
// upper-cased input is returned in that case so callers can still report it.
func NormalizeCountry(s string) (string, bool) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return "", false
	}
	upper := strings.ToUpper(strings.Trim(raw, "."))
	if code, ok := countryByAlpha2[upper]; ok {
		return code, true
	}
	if code, ok := countryByAlpha3[upper]; ok {
		return code, true
	}
	if code, ok := countryByName[foldName(raw)]; ok {
		return code, true
	}
	return upper, false
}

// NormalizeAddress trims every field of a and converts its country to
// ISO-3166 alpha-2. It reports false when the country is blank or not
// recognised; a is returned trimmed either way.
func NormalizeAddress(a Address) (Address, bool) {
	for _, f := range []*string{&a.Name, &a.Company, &a.Street1, &a.Street2, &a.City, &a.State, &a.Zip, &a.Phone, &a.Email} {
		*f = strings.TrimSpace(*f)
	}
	code, ok := NormalizeCountry(a.Country)
	a.Country = code
	return a, ok
}

// IsCountryToken reports whether s names a country by code or name.
func IsCountryToken(s string) bool {
	_, ok := NormalizeCountry(s)
	return ok
}

// TitleName title-cases a personal or company name typed in all caps or lower case.
// Mixed-case input is left untouched.
func TitleName(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return s
	}
	if s == strings.ToUpper(s) || s == strings.ToLower(s) {
		// Casers carry state, so each call gets its own.
		return cases.Title(language.English).String(s)
	}
	return s
}
