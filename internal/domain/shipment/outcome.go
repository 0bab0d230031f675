package shipment

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// OutcomeStatus is the result state of one record.
type OutcomeStatus string

const (
	StatusSuccess OutcomeStatus = "success"
	StatusError   OutcomeStatus = "error"
)

// Outcome is the result of processing one input record.
// Outcomes are created once and only ever aggregated afterwards.
type Outcome struct {
	LineNumber      int           `json:"line_number"`
	Status          OutcomeStatus `json:"status"`
	QuoteID         string        `json:"quote_id,omitempty"`
	PurchasedRateID string        `json:"purchased_rate_id,omitempty"`
	TrackingCode    string        `json:"tracking_code,omitempty"`
	LabelURL        string        `json:"label_url,omitempty"`
	AllRates        []RateOption  `json:"all_rates,omitempty"`
	SelectedRate    *RateOption   `json:"selected_rate,omitempty"`
	ErrorKind       ErrorKind     `json:"error_kind,omitempty"`
	ErrorMessage    string        `json:"error_message,omitempty"`
	Warnings        []string      `json:"warnings,omitempty"`
	Warehouse       string        `json:"warehouse,omitempty"`
	International   bool          `json:"international,omitempty"`
}

// FailedOutcome builds an error outcome, classifying err and flattening any
// provider detail into the message.
func FailedOutcome(line int, err error) Outcome {
	return Outcome{
		LineNumber:   line,
		Status:       StatusError,
		ErrorKind:    ClassifyError(err),
		ErrorMessage: FlattenError(err),
	}
}

// Succeeded reports whether the outcome is a success.
func (o Outcome) Succeeded() bool {
	return o.Status == StatusSuccess
}

// Cost returns the price of the selected or purchased rate, if any.
func (o Outcome) Cost() (decimal.Decimal, bool) {
	if o.SelectedRate == nil {
		return decimal.Zero, false
	}
	return o.SelectedRate.Price, true
}

// SortOutcomes orders outcomes by line number.
func SortOutcomes(outcomes []Outcome) {
	sort.SliceStable(outcomes, func(i, j int) bool {
		return outcomes[i].LineNumber < outcomes[j].LineNumber
	})
}

// CarrierStat is the per-carrier part of a BatchSummary.
type CarrierStat struct {
	Count int             `json:"count"`
	Cost  decimal.Decimal `json:"cost"`
}

// BatchSummary is derived from an outcome list and never stored on its own.
type BatchSummary struct {
	Total            int                    `json:"total"`
	Successful       int                    `json:"successful"`
	Failed           int                    `json:"failed"`
	TotalCost        decimal.Decimal        `json:"total_cost"`
	AverageCost      decimal.Decimal        `json:"average_cost"`
	CarrierBreakdown map[string]CarrierStat `json:"carrier_breakdown"`
	DurationSeconds  float64                `json:"duration_seconds"`
	Throughput       float64                `json:"throughput"`
}

// Summarize folds outcomes into a BatchSummary. Costs are summed over
// successful outcomes that report one; throughput is outcomes per second.
func Summarize(outcomes []Outcome, duration time.Duration) BatchSummary {
	s := BatchSummary{
		Total:            len(outcomes),
		TotalCost:        decimal.Zero,
		AverageCost:      decimal.Zero,
		CarrierBreakdown: make(map[string]CarrierStat),
		DurationSeconds:  duration.Seconds(),
	}

	costed := 0
	for _, o := range outcomes {
		if !o.Succeeded() {
			s.Failed++
			continue
		}
		s.Successful++

		cost, ok := o.Cost()
		if !ok {
			continue
		}
		costed++
		s.TotalCost = s.TotalCost.Add(cost)

		carrier := o.SelectedRate.Carrier
		if carrier == "" {
			carrier = "unknown"
		}
		stat := s.CarrierBreakdown[carrier]
		stat.Count++
		stat.Cost = stat.Cost.Add(cost)
		s.CarrierBreakdown[carrier] = stat
	}

	if costed > 0 {
		s.AverageCost = s.TotalCost.Div(decimal.NewFromInt(int64(costed))).Round(2)
	}
	if s.DurationSeconds > 0 {
		s.Throughput = float64(s.Total) / s.DurationSeconds
	}
	return s
}
