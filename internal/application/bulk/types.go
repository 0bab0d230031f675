package bulk

import (
	"sort"

	"github.com/erp/bulkship/internal/domain/shipment"
	"github.com/erp/bulkship/internal/domain/warehouse"
)

// Batch phases reported in progress and metrics
const (
	PhaseQuote    = "quote"
	PhasePurchase = "purchase"
)

// Progress is reported after every completed chunk
type Progress struct {
	BatchID   string `json:"batch_id"`
	Phase     string `json:"phase"`
	Done      int    `json:"done"`
	Total     int    `json:"total"`
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
}

// BatchOptions controls one CreateBatch call
type BatchOptions struct {
	// DryRun resolves and previews every record without calling the gateway
	DryRun bool
	// AutoPurchase buys the selected rate of every successful quote
	AutoPurchase bool
	// OnProgress, when set, is called after each chunk from the calling goroutine
	OnProgress func(Progress)
}

// Plan is everything decided about one record before the gateway is involved
type Plan struct {
	Line              int                          `json:"line"`
	Strategy          shipment.ParseStrategy       `json:"strategy"`
	Category          shipment.Category            `json:"category"`
	CarrierPreference string                       `json:"carrier_preference,omitempty"`
	Warehouse         string                       `json:"warehouse"`
	WarehouseSource   warehouse.Source             `json:"warehouse_source"`
	From              shipment.Address             `json:"from_address"`
	To                shipment.Address             `json:"to_address"`
	Parcel            shipment.Parcel              `json:"parcel"`
	International     bool                         `json:"international"`
	Customs           *shipment.CustomsDeclaration `json:"customs,omitempty"`
	Warnings          []string                     `json:"warnings,omitempty"`
}

// BatchResult is the result of CreateBatch
type BatchResult struct {
	BatchID               string                `json:"batch_id"`
	DryRun                bool                  `json:"dry_run,omitempty"`
	ValidationErrors      []shipment.LineError  `json:"validation_errors"`
	ValidationErrorsTotal int                   `json:"validation_errors_total"`
	RejectedLines         []int                 `json:"rejected_lines,omitempty"`
	Outcomes              []shipment.Outcome    `json:"outcomes"`
	Plans                 []Plan                `json:"plans,omitempty"`
	WarehousesUsed        []string              `json:"warehouses_used"`
	Summary               shipment.BatchSummary `json:"summary"`
}

// PurchaseResult is the result of PurchaseBatch
type PurchaseResult struct {
	BatchID   string                `json:"batch_id"`
	Purchased []shipment.Outcome    `json:"purchased"`
	Failed    []shipment.Outcome    `json:"failed"`
	Summary   shipment.BatchSummary `json:"summary"`
}

// warehouseSet collects distinct warehouse descriptions
type warehouseSet map[string]struct{}

func (w warehouseSet) add(name string) {
	if name != "" {
		w[name] = struct{}{}
	}
}

func (w warehouseSet) sorted() []string {
	out := make([]string, 0, len(w))
	for name := range w {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
