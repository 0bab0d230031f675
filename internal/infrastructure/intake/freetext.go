package intake

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/erp/bulkship/internal/domain/shipment"
)

var (
	annotationRe  = regexp.MustCompile(`(?i)^\s*(e-?mail|phone|tel|telephone|mobile|dimensions|dims|size|weight|wt|customs\s+items?|customs\s+value|items?|contents|description|price|value|quantity|qty|carrier|service|origin|warehouse|ship\s+from|ship\s+to|from|to|sender|recipient)\s*[:=]\s*(.*)$`)
	inlineEmailRe = regexp.MustCompile(`[^\s@<>(),;]+@[^\s@<>(),;]+\.[A-Za-z]{2,}`)
	priceValueRe  = regexp.MustCompile(`(\d+(?:,\d{3})*(?:\.\d+)?)`)
	qtyValueRe    = regexp.MustCompile(`(\d+)`)

	cityStateZipRe = regexp.MustCompile(`^(.+?),\s*([\p{L} .]+?)\.?,?\s+([A-Za-z0-9][A-Za-z0-9 -]{2,9})$`)
	cityStateRe    = regexp.MustCompile(`^(.+?),\s*([\p{L} .]+)$`)
)

// addressBlock is one postal-address section of a free-text record.
type addressBlock struct {
	name    string
	company string
	street1 string
	street2 string
	city    string
	state   string
	zip     string
	country string
	phone   string
	email   string
}

func (a addressBlock) empty() bool {
	return a.name == "" && a.street1 == ""
}

type section struct {
	role  string // "from", "to" or ""
	lines []string
	email []string
	phone []string
}

type freeText struct {
	origin, carrier  string
	dims, weight     string
	item, qty, price string
	emails, phones   []string
}

// FreeTextToColumns converts an unstructured address block into the
// positional column layout. The block holds one or two address sections
// separated by blank lines and may carry "Label: value" annotations on any
// line. With two unlabeled sections the first is the sender; "From:" and
// "To:" labels override that.
func FreeTextToColumns(text string) ([]string, error) {
	var ft freeText
	var sections []*section
	var cur *section

	closeSection := func() {
		if cur != nil && (len(cur.lines) > 0 || cur.role != "") {
			sections = append(sections, cur)
		}
		cur = nil
	}
	open := func(role string) {
		if cur == nil {
			cur = &section{role: role}
		}
	}

	for _, raw := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		line := strings.TrimSpace(strings.ReplaceAll(raw, "\t", " "))
		if line == "" {
			closeSection()
			continue
		}

		m := annotationRe.FindStringSubmatch(line)
		if m == nil {
			open("")
			cur.lines = append(cur.lines, line)
			continue
		}

		key := strings.ToLower(strings.Join(strings.Fields(m[1]), " "))
		value := strings.TrimSpace(m[2])
		switch key {
		case "from", "ship from", "sender":
			closeSection()
			open("from")
			if value != "" {
				cur.lines = append(cur.lines, value)
			}
		case "to", "ship to", "recipient":
			closeSection()
			open("to")
			if value != "" {
				cur.lines = append(cur.lines, value)
			}
		case "email", "e-mail":
			if cur != nil {
				cur.email = append(cur.email, value)
			} else {
				ft.emails = append(ft.emails, value)
			}
		case "phone", "tel", "telephone", "mobile":
			if cur != nil {
				cur.phone = append(cur.phone, value)
			} else {
				ft.phones = append(ft.phones, value)
			}
		case "dimensions", "dims", "size":
			ft.dims = value
		case "weight", "wt":
			ft.weight = value
		case "customs item", "customs items", "item", "items", "contents", "description":
			ft.item = value
		case "price", "value", "customs value":
			if pm := priceValueRe.FindString(value); pm != "" {
				ft.price = strings.ReplaceAll(pm, ",", "")
			}
		case "quantity", "qty":
			ft.qty = qtyValueRe.FindString(value)
		case "carrier", "service":
			ft.carrier = value
		case "origin", "warehouse":
			ft.origin = value
		}
	}
	closeSection()

	sender, recipient := assignSections(sections)
	if recipient.empty() {
		return nil, ErrNoAddress
	}

	// unassigned annotation contacts: first to the recipient, second to the sender
	for _, e := range ft.emails {
		if recipient.email == "" {
			recipient.email = e
		} else if sender.email == "" {
			sender.email = e
		}
	}
	for _, p := range ft.phones {
		if recipient.phone == "" {
			recipient.phone = p
		} else if sender.phone == "" {
			sender.phone = p
		}
	}

	first, last := splitName(recipient.name)
	cols := make([]string, PositionalColumns, SenderColumns)
	cols[colOrigin] = ft.origin
	cols[colCarrier] = ft.carrier
	cols[colFirstName] = first
	cols[colLastName] = last
	cols[colPhone] = recipient.phone
	cols[colEmail] = recipient.email
	cols[colStreet1] = recipient.street1
	cols[colStreet2] = recipient.street2
	cols[colCity] = recipient.city
	cols[colState] = recipient.state
	cols[colZip] = recipient.zip
	cols[colCountry] = recipient.country
	cols[colDimensions] = ft.dims
	cols[colWeight] = ft.weight
	cols[colContents] = ft.contents()

	if sender.name != "" && sender.street1 != "" {
		cols = append(cols,
			sender.name, sender.company, sender.street1, sender.street2,
			sender.city, sender.state, sender.zip, sender.country, sender.phone)
	}
	for i := range cols {
		cols[i] = strings.TrimSpace(strings.ReplaceAll(cols[i], "\t", " "))
	}
	return cols, nil
}

// contents renders the customs annotations in the forms the customs
// builder reads back: "Item (2 x $5.00)", "Item ($5.00 each)" or "2 x Item".
func (ft freeText) contents() string {
	item := ft.item
	if item == "" {
		return ""
	}
	qty, _ := strconv.Atoi(ft.qty)
	switch {
	case qty > 0 && ft.price != "":
		return item + " (" + strconv.Itoa(qty) + " x $" + ft.price + ")"
	case ft.price != "":
		return item + " ($" + ft.price + " each)"
	case qty > 1:
		return strconv.Itoa(qty) + " x " + item
	default:
		return item
	}
}

// assignSections picks the sender and recipient sections. Labeled sections
// win; otherwise two address sections are sender then recipient and a
// single one is the recipient.
func assignSections(sections []*section) (sender, recipient addressBlock) {
	var from, to *section
	var unlabeled []*section
	for _, s := range sections {
		switch s.role {
		case "from":
			if from == nil {
				from = s
			}
		case "to":
			if to == nil {
				to = s
			}
		default:
			if b := parseSection(s); !b.empty() {
				unlabeled = append(unlabeled, s)
			}
		}
	}

	switch {
	case from == nil && to == nil && len(unlabeled) >= 2:
		from, to = unlabeled[0], unlabeled[1]
	case to == nil && len(unlabeled) > 0:
		to = unlabeled[len(unlabeled)-1]
	case from == nil && to != nil && len(unlabeled) > 0:
		from = unlabeled[0]
	}

	if from != nil {
		sender = parseSection(from)
	}
	if to != nil {
		recipient = parseSection(to)
	}
	return sender, recipient
}

// parseSection reads one address section line by line. Contact, country
// and city/state/zip lines are recognised by shape; the remaining lines
// are name, company, street1 and street2 in that order.
func parseSection(s *section) addressBlock {
	var b addressBlock
	if len(s.email) > 0 {
		b.email = s.email[0]
	}
	if len(s.phone) > 0 {
		b.phone = s.phone[0]
	}

	var plain []string
	cityFound, streetSeen := false, false
	for i, line := range s.lines {
		last := i == len(s.lines)-1
		switch {
		case emailRe.MatchString(line):
			if b.email == "" {
				b.email = line
			}
		case isPhone(line) && !IsPostalCode(line):
			if b.phone == "" {
				b.phone = line
			}
		case shipment.IsCountryToken(line) && (!isStateLike(line) || (last && cityFound)):
			b.country = line
		case !cityFound && parseCityLine(line, streetSeen, &b):
			cityFound = true
		default:
			if e := inlineEmailRe.FindString(line); e != "" && b.email == "" {
				b.email = e
				line = strings.TrimSpace(strings.Trim(strings.Replace(line, e, "", 1), "<>(),; "))
				if line == "" {
					continue
				}
			}
			plain = append(plain, line)
			streetSeen = streetSeen || isStreetLine(line)
		}
	}

	streetAt := -1
	for i, l := range plain {
		if isStreetLine(l) {
			streetAt = i
			break
		}
	}
	switch {
	case streetAt > 0:
		b.name = plain[0]
		if streetAt > 1 {
			b.company = strings.Join(plain[1:streetAt], " ")
		}
		b.street1 = plain[streetAt]
		if streetAt+1 < len(plain) {
			b.street2 = strings.Join(plain[streetAt+1:], " ")
		}
	case streetAt == 0:
		b.street1 = plain[0]
		if len(plain) > 1 {
			b.street2 = strings.Join(plain[1:], " ")
		}
	default:
		if len(plain) > 0 {
			b.name = plain[0]
		}
		if len(plain) > 1 {
			b.street1 = plain[1]
		}
		if len(plain) > 2 {
			b.street2 = strings.Join(plain[2:], " ")
		}
	}

	if b.country == "" {
		b.country = inferCountry(b.state, b.zip)
	}
	return b
}

func isStreetLine(l string) bool {
	return isStreet(l) || poBoxRe.MatchString(l) || militaryRe.MatchString(l)
}

// parseCityLine recognises "City, ST 12345", "City, State", "City ST 12345",
// "London SW1A 1AA" and, once a street line has been seen, "75008 Paris".
func parseCityLine(line string, afterStreet bool, b *addressBlock) bool {
	if !afterStreet && isStreetLine(line) {
		return false
	}
	if m := cityStateZipRe.FindStringSubmatch(line); m != nil && IsPostalCode(m[3]) {
		b.city, b.state, b.zip = strings.TrimSpace(m[1]), strings.TrimSpace(m[2]), strings.TrimSpace(m[3])
		return true
	}
	if m := cityStateRe.FindStringSubmatch(line); m != nil {
		if rest := strings.TrimSpace(m[2]); isStateLike(rest) {
			b.city, b.state = strings.TrimSpace(m[1]), rest
			return true
		}
		// "City, ST 12345" with a postal code of two words, e.g. "Toronto, ON M5V 2T6"
		if parseTrailingPostal(strings.TrimSpace(m[1])+" "+strings.TrimSpace(m[2]), b) {
			return true
		}
	}
	if parseTrailingPostal(line, b) {
		return true
	}

	if !afterStreet {
		return false
	}
	words := strings.Fields(line)
	for n := 2; n >= 1; n-- {
		if len(words) > n && IsPostalCode(strings.Join(words[:n], " ")) && !hasStreetSuffix(words[n:]) {
			b.zip = strings.Join(words[:n], " ")
			b.city = strings.Join(words[n:], " ")
			return true
		}
	}
	return false
}

func parseTrailingPostal(line string, b *addressBlock) bool {
	words := strings.Fields(strings.ReplaceAll(line, ",", " "))
	for n := 2; n >= 1; n-- {
		if len(words) <= n {
			continue
		}
		zip := strings.Join(words[len(words)-n:], " ")
		if !IsPostalCode(zip) {
			continue
		}
		rest := words[:len(words)-n]
		if hasStreetSuffix(rest) {
			return false
		}
		b.zip = zip
		if len(rest) > 1 && isStateLike(rest[len(rest)-1]) {
			b.state = rest[len(rest)-1]
			rest = rest[:len(rest)-1]
		}
		b.city = strings.Join(rest, " ")
		return true
	}
	return false
}

// inferCountry returns "US" for a US state with a missing or US-shaped ZIP.
func inferCountry(state, zip string) string {
	if !usStateCodes[strings.ToUpper(strings.TrimSpace(state))] && !usStateNames[foldSpaces(state)] {
		return ""
	}
	if zip == "" || usZipRe.MatchString(strings.TrimSpace(zip)) {
		return "US"
	}
	return ""
}
