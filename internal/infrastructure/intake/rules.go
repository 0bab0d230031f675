package intake

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/erp/bulkship/internal/domain/shipment"
)

// FieldRule defines the checks applied to one draft field
type FieldRule struct {
	Field       string
	Required    bool
	MaxLength   int
	Pattern     *regexp.Regexp
	PatternDesc string
	CustomFunc  func(value string) error
}

// FieldRuleBuilder helps build field rules fluently
type FieldRuleBuilder struct {
	rule FieldRule
}

// Field creates a new field rule builder
func Field(name string) *FieldRuleBuilder {
	return &FieldRuleBuilder{rule: FieldRule{Field: name}}
}

// Required marks the field as required
func (b *FieldRuleBuilder) Required() *FieldRuleBuilder {
	b.rule.Required = true
	return b
}

// MaxLength sets the maximum length in runes
func (b *FieldRuleBuilder) MaxLength(n int) *FieldRuleBuilder {
	b.rule.MaxLength = n
	return b
}

// Pattern sets a regex pattern for validation
func (b *FieldRuleBuilder) Pattern(pattern, description string) *FieldRuleBuilder {
	b.rule.Pattern = regexp.MustCompile(pattern)
	b.rule.PatternDesc = description
	return b
}

// Custom sets a custom validation function
func (b *FieldRuleBuilder) Custom(fn func(value string) error) *FieldRuleBuilder {
	b.rule.CustomFunc = fn
	return b
}

// Build returns the built field rule
func (b *FieldRuleBuilder) Build() FieldRule {
	return b.rule
}

// DefaultRules are the checks every parsed draft must pass.
func DefaultRules() []FieldRule {
	return []FieldRule{
		Field("recipient_name").Required().MaxLength(100).Build(),
		Field("street1").Required().MaxLength(200).Build(),
		Field("country").Required().MaxLength(60).Build(),
		Field("weight").Required().MaxLength(40).Pattern(`\d`, "a number with an optional unit").Build(),
		Field("street2").MaxLength(200).Build(),
		Field("city").MaxLength(100).Build(),
		Field("zip").MaxLength(20).Build(),
		Field("phone").MaxLength(40).Build(),
		Field("email").MaxLength(254).Pattern(`@`, "an email address").Build(),
		Field("dimensions").MaxLength(60).Build(),
	}
}

// draftField reads a named field from d.
func draftField(d shipment.Draft, name string) string {
	switch name {
	case "origin_region":
		return d.OriginRegion
	case "carrier_preference":
		return d.CarrierPreference
	case "recipient_name":
		return d.RecipientName()
	case "first_name":
		return d.FirstName
	case "last_name":
		return d.LastName
	case "company":
		return d.Company
	case "phone":
		return d.Phone
	case "email":
		return d.Email
	case "street1":
		return d.Street1
	case "street2":
		return d.Street2
	case "city":
		return d.City
	case "state":
		return d.State
	case "zip":
		return d.Zip
	case "country":
		return d.Country
	case "dimensions":
		return d.RawDimensions
	case "weight":
		return d.RawWeight
	case "contents":
		return d.Contents
	}
	return ""
}

// checkDraft applies rules to d and returns the missing required fields and
// the invalid ones.
func checkDraft(line int, d shipment.Draft, rules []FieldRule) (missing []string, invalid []shipment.LineError) {
	for _, rule := range rules {
		value := strings.TrimSpace(draftField(d, rule.Field))
		if value == "" {
			if rule.Required {
				missing = append(missing, rule.Field)
			}
			continue
		}

		if rule.MaxLength > 0 && len([]rune(value)) > rule.MaxLength {
			invalid = append(invalid, shipment.NewLineErrorWithValue(line, rule.Field, shipment.ErrCodeInvalidFormat,
				fmt.Sprintf("must be at most %d characters", rule.MaxLength), value))
			continue
		}
		if rule.Pattern != nil && !rule.Pattern.MatchString(value) {
			invalid = append(invalid, shipment.NewLineErrorWithValue(line, rule.Field, shipment.ErrCodeInvalidFormat,
				fmt.Sprintf("invalid format, expected %s", rule.PatternDesc), value))
			continue
		}
		if rule.CustomFunc != nil {
			if err := rule.CustomFunc(value); err != nil {
				invalid = append(invalid, shipment.NewLineErrorWithValue(line, rule.Field, shipment.ErrCodeInvalidFormat, err.Error(), value))
			}
		}
	}
	return missing, invalid
}
