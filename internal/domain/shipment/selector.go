package shipment

import (
	"strings"
	"unicode"
)

// Normalized service keywords recognised in a carrier preference.
const (
	ServiceFirstClass = "FIRSTCLASS"
	ServicePriority   = "PRIORITY"
	ServiceExpress    = "EXPRESS"
	ServiceGround     = "GROUND"
	ServiceEconomy    = "ECONOMY"
)

// Preference is a parsed carrier preference such as "USPS- First Class Mail".
type Preference struct {
	Carrier string
	Service string
}

// IsZero reports whether the preference names nothing.
func (p Preference) IsZero() bool {
	return p.Carrier == "" && p.Service == ""
}

// ParsePreference splits a preference into a carrier token and a normalized
// service keyword. "CARRIER- SERVICE" and "CARRIER SERVICE" are both accepted.
func ParsePreference(s string) Preference {
	s = strings.TrimSpace(s)
	if s == "" {
		return Preference{}
	}

	var carrier, service string
	if idx := strings.Index(s, "-"); idx > 0 {
		carrier, service = s[:idx], s[idx+1:]
	} else {
		fields := strings.Fields(s)
		carrier = fields[0]
		service = strings.Join(fields[1:], " ")
	}

	return Preference{
		Carrier: compact(carrier),
		Service: normalizeService(service),
	}
}

func normalizeService(s string) string {
	c := compact(s)
	switch {
	case c == "":
		return ""
	case strings.Contains(c, "FIRST"):
		return ServiceFirstClass
	case strings.Contains(c, "EXPRESS"):
		return ServiceExpress
	case strings.Contains(c, "PRIORITY"):
		return ServicePriority
	case strings.Contains(c, "GROUND"):
		return ServiceGround
	case strings.Contains(c, "ECONOMY"):
		return ServiceEconomy
	default:
		return c
	}
}

// compact upper-cases s and drops everything but letters and digits.
func compact(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(unicode.ToUpper(r))
		}
	}
	return sb.String()
}

// carrierAliases groups preference tokens with the provider account names
// they should match.
var carrierAliases = []struct {
	tokens   []string
	carriers []string
}{
	{[]string{"FEDEX", "FEDERALEXPRESS"}, []string{"FEDEX"}},
	{[]string{"UPS"}, []string{"UPS"}},
	{[]string{"USPS", "POSTAL"}, []string{"USPS"}},
	{[]string{"USA", "EXPORT", "USAEXPORT", "ASENDIA"}, []string{"USAEXPORT", "ASENDIA"}},
	{[]string{"DHL"}, []string{"DHL"}},
	{[]string{"CANADAPOST", "CANADA"}, []string{"CANADAPOST"}},
}

// CarrierMatches reports whether a preference carrier token matches a rate's
// carrier name ("FEDEX" matches "FedExDefault", "UPS" matches "UPSDAP").
func CarrierMatches(pref, carrier string) bool {
	p, c := compact(pref), compact(carrier)
	if p == "" || c == "" {
		return false
	}
	if strings.HasPrefix(c, p) {
		return true
	}
	for _, a := range carrierAliases {
		if !containsString(a.tokens, p) {
			continue
		}
		for _, name := range a.carriers {
			if strings.Contains(c, name) {
				return true
			}
		}
	}
	return false
}

// ServiceMatches reports whether a normalized service keyword matches a rate's service name.
func ServiceMatches(keyword, service string) bool {
	s := compact(service)
	if keyword == "" || s == "" {
		return false
	}
	if keyword == ServiceFirstClass {
		return strings.Contains(s, "FIRST")
	}
	return strings.Contains(s, keyword)
}

// SelectBest picks the rate to report or purchase.
// With a carrier and service preference the cheapest rate matching both wins;
// with a carrier only, the cheapest rate of that carrier; otherwise, or when
// nothing matches, the cheapest rate overall. When wantPurchase is set,
// rates without an id are skipped unless no rate has one. The result points
// into rates and is nil only when rates is empty.
func SelectBest(rates []RateOption, wantPurchase bool, preference string) *RateOption {
	if len(rates) == 0 {
		return nil
	}

	candidates := make([]int, 0, len(rates))
	for i := range rates {
		if !wantPurchase || rates[i].ID != "" {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		for i := range rates {
			candidates = append(candidates, i)
		}
	}

	pref := ParsePreference(preference)
	if pref.Carrier != "" {
		byCarrier := filterRates(rates, candidates, func(r RateOption) bool {
			return CarrierMatches(pref.Carrier, r.Carrier)
		})
		if pref.Service != "" {
			both := filterRates(rates, byCarrier, func(r RateOption) bool {
				return ServiceMatches(pref.Service, r.Service)
			})
			if len(both) > 0 {
				return &rates[cheapest(rates, both)]
			}
		}
		if len(byCarrier) > 0 {
			return &rates[cheapest(rates, byCarrier)]
		}
	}
	return &rates[cheapest(rates, candidates)]
}

func filterRates(rates []RateOption, idx []int, keep func(RateOption) bool) []int {
	out := make([]int, 0, len(idx))
	for _, i := range idx {
		if keep(rates[i]) {
			out = append(out, i)
		}
	}
	return out
}

// cheapest returns the index with the lowest price, then the fewest delivery
// days, then the earliest position. idx must be non-empty.
func cheapest(rates []RateOption, idx []int) int {
	best := idx[0]
	for _, i := range idx[1:] {
		if lessRate(rates[i], rates[best]) {
			best = i
		}
	}
	return best
}

func lessRate(a, b RateOption) bool {
	if c := a.Price.Cmp(b.Price); c != 0 {
		return c < 0
	}
	switch {
	case a.DeliveryDays == nil:
		return false
	case b.DeliveryDays == nil:
		return true
	default:
		return *a.DeliveryDays < *b.DeliveryDays
	}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
