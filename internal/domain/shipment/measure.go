package shipment

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Unit conversion constants.
const (
	OuncesPerPound     = 16.0
	OuncesPerKilogram  = 35.274
	GramsPerOunce      = 28.35
	CentimetersPerInch = 2.54

	MinDimension = 0.1
	MaxDimension = 999.0
)

var (
	dimSeparatorRe = regexp.MustCompile(`(?i)×|\*|\bby\b|x|,`)
	digitUnitRe    = regexp.MustCompile(`(\d)([a-zA-Z"])`)
	decimalRe      = regexp.MustCompile(`^(\d+\.?\d*|\.\d+)$`)
	fractionRe     = regexp.MustCompile(`^(\d+)/(\d+)$`)
	centimeterRe   = regexp.MustCompile(`(?i)\bcm\b|centimet`)

	weightUnitRe = regexp.MustCompile(`(\d+(?:\.\d+)?|\.\d+)\s*([a-zA-Z]+)`)
	bareNumberRe = regexp.MustCompile(`\d+(?:\.\d+)?|\.\d+`)
)

// ParseDimensions reads a free-form "L x W x H" string and returns inches.
// Separators may be x, ×, *, commas or the word "by"; whole numbers may be
// followed by a fraction ("11 1/2"). Centimetre input is converted.
func ParseDimensions(s string) (length, width, height float64, err error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return 0, 0, 0, dimensionsError(s, "value is empty")
	}

	cleaned := digitUnitRe.ReplaceAllString(raw, "$1 $2")
	metric := centimeterRe.MatchString(cleaned)
	cleaned = dimSeparatorRe.ReplaceAllString(cleaned, " ")
	tokens := strings.Fields(cleaned)

	nums := make([]float64, 0, 3)
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if decimalRe.MatchString(tok) {
			v, perr := strconv.ParseFloat(tok, 64)
			if perr != nil {
				continue
			}
			if !strings.Contains(tok, ".") && i+1 < len(tokens) {
				if frac, ok := parseFraction(tokens[i+1]); ok {
					v += frac
					i++
				}
			}
			nums = append(nums, v)
			continue
		}
		if frac, ok := parseFraction(tok); ok {
			nums = append(nums, frac)
		}
	}

	if len(nums) < 3 {
		return 0, 0, 0, dimensionsError(s, fmt.Sprintf("found %d number(s), need 3", len(nums)))
	}
	nums = nums[:3]
	if metric {
		for i := range nums {
			nums[i] = math.Round(nums[i]/CentimetersPerInch*100) / 100
		}
	}
	for _, v := range nums {
		if v < MinDimension || v > MaxDimension {
			return 0, 0, 0, dimensionsError(s, fmt.Sprintf("%g is outside %.1f-%.0f inches", v, MinDimension, MaxDimension))
		}
	}
	return nums[0], nums[1], nums[2], nil
}

func parseFraction(tok string) (float64, bool) {
	m := fractionRe.FindStringSubmatch(tok)
	if m == nil {
		return 0, false
	}
	num, _ := strconv.ParseFloat(m[1], 64)
	den, _ := strconv.ParseFloat(m[2], 64)
	if den == 0 {
		return 0, false
	}
	return num / den, true
}

func dimensionsError(input, reason string) error {
	return fmt.Errorf("%w: %q: %s (example: \"12 x 9 x 6\" or \"11 1/2 x 9 3/4 x 2 1/4\")", ErrInvalidDimensions, input, reason)
}

// ParseWeight reads a free-form weight and returns ounces.
// Explicit units are summed ("5lb 2oz" = 82). Without a unit the magnitude
// decides: above 100 is ounces; above 16 is ounces when written with a
// decimal point and pounds otherwise; 16 or less is pounds.
func ParseWeight(s string) (float64, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return 0, weightError(s, "value is empty")
	}

	total, found := 0.0, false
	for _, m := range weightUnitRe.FindAllStringSubmatch(raw, -1) {
		unit, ok := weightUnit(m[2])
		if !ok {
			continue
		}
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return 0, weightError(s, "unreadable number "+m[1])
		}
		total += toOunces(v, unit)
		found = true
	}
	if found {
		if total <= 0 {
			return 0, weightError(s, "weight must be greater than zero")
		}
		return total, nil
	}

	numTok := bareNumberRe.FindString(raw)
	if numTok == "" {
		return 0, weightError(s, "no number found")
	}
	v, err := strconv.ParseFloat(numTok, 64)
	if err != nil {
		return 0, weightError(s, "unreadable number "+numTok)
	}
	if v <= 0 {
		return 0, weightError(s, "weight must be greater than zero")
	}
	return inferOunces(v, strings.Contains(numTok, ".")), nil
}

// inferOunces applies the unit-less magnitude heuristic.
func inferOunces(v float64, hasDecimal bool) float64 {
	switch {
	case v > 100:
		return v
	case v > 16:
		if hasDecimal {
			return v
		}
		return v * OuncesPerPound
	default:
		return v * OuncesPerPound
	}
}

// weightUnit maps a unit word to lb, oz, kg or g.
func weightUnit(word string) (string, bool) {
	switch strings.ToLower(word) {
	case "lb", "lbs", "pound", "pounds":
		return "lb", true
	case "oz", "ounce", "ounces":
		return "oz", true
	case "kg", "kgs", "kilogram", "kilograms":
		return "kg", true
	case "g", "gram", "grams":
		return "g", true
	default:
		return "", false
	}
}

func toOunces(v float64, unit string) float64 {
	switch unit {
	case "lb":
		return v * OuncesPerPound
	case "kg":
		return v * OuncesPerKilogram
	case "g":
		return v / GramsPerOunce
	default:
		return v
	}
}

func weightError(input, reason string) error {
	return fmt.Errorf("%w: %q: %s (example: \"1.5 lbs\", \"24 oz\" or \"5lb 2oz\")", ErrInvalidWeight, input, reason)
}
