package intake

import (
	"strings"

	"github.com/erp/bulkship/internal/domain/shipment"
)

// Parser turns raw records into shipment drafts. It is safe for concurrent use.
type Parser struct {
	classifier *shipment.Classifier
	detector   *Detector
	regions    RegionSet
	rules      []FieldRule
}

// ParserOption is a functional option for Parser configuration
type ParserOption func(*Parser)

// WithClassifier sets the category rules used for contents detection
func WithClassifier(c *shipment.Classifier) ParserOption {
	return func(p *Parser) {
		p.classifier = c
	}
}

// WithRegions sets the origin regions recognised in heuristic mode
func WithRegions(r RegionSet) ParserOption {
	return func(p *Parser) {
		p.regions = r
	}
}

// WithRules replaces the draft field rules
func WithRules(rules []FieldRule) ParserOption {
	return func(p *Parser) {
		p.rules = rules
	}
}

// NewParser creates a new record parser
func NewParser(opts ...ParserOption) *Parser {
	p := &Parser{rules: DefaultRules()}
	for _, opt := range opts {
		opt(p)
	}
	if p.classifier == nil {
		p.classifier = shipment.DefaultClassifier()
	}
	p.detector = NewDetector(p.classifier)
	return p
}

// ParseRecord parses one record produced by Reader.
func (p *Parser) ParseRecord(rec Record) (shipment.Draft, error) {
	if rec.Kind == KindFreeText {
		return p.parseFreeText(rec.Line, rec.Text)
	}
	return p.ParseLine(rec.Line, rec.Text)
}

// ParseLine parses one input line. Tab-separated lines are mapped by
// position first and by heuristic field detection when that leaves a
// required field empty; other text is treated as a free-text block.
// A draft is returned only when every rule passes, otherwise the error
// is a *ParseError naming the fields at fault.
func (p *Parser) ParseLine(line int, text string) (shipment.Draft, error) {
	if !strings.Contains(text, "\t") {
		return p.parseFreeText(line, text)
	}
	cols := strings.Split(text, "\t")

	var positionalErr *ParseError
	if d, ok := parsePositional(cols); ok {
		err := p.check(line, d)
		if err == nil {
			return d, nil
		}
		if len(err.Missing) == 0 {
			// every field was found, but some are unusable
			return shipment.Draft{}, err
		}
		positionalErr = err
	}

	d := p.detectFields(cols)
	if err := p.check(line, d); err != nil {
		if positionalErr != nil && len(positionalErr.Missing) < len(err.Missing) {
			return shipment.Draft{}, positionalErr
		}
		return shipment.Draft{}, err
	}
	return d, nil
}

func (p *Parser) parseFreeText(line int, text string) (shipment.Draft, error) {
	cols, err := FreeTextToColumns(text)
	if err != nil {
		return shipment.Draft{}, &ParseError{
			Line:     line,
			Strategy: shipment.StrategyFreeText,
			Invalid: []shipment.LineError{
				shipment.NewLineError(line, "", shipment.ErrCodeUnparseable, err.Error()),
			},
		}
	}
	d, _ := parsePositional(cols)
	d.Strategy = shipment.StrategyFreeText
	if err := p.check(line, d); err != nil {
		return shipment.Draft{}, err
	}
	return d, nil
}

func (p *Parser) check(line int, d shipment.Draft) *ParseError {
	missing, invalid := checkDraft(line, d, p.rules)
	if len(missing) == 0 && len(invalid) == 0 {
		return nil
	}
	return &ParseError{Line: line, Strategy: d.Strategy, Missing: missing, Invalid: invalid}
}
