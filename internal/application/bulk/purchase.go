package bulk

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/erp/bulkship/internal/domain/shipment"
	"github.com/erp/bulkship/internal/infrastructure/logger"
	"github.com/erp/bulkship/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// purchasePair is one (quote id, rate id) request with its 1-based position
type purchasePair struct {
	line    int
	quoteID string
	rateID  string
}

// PurchaseBatch buys the rate rateIDs[i] on quote quoteIDs[i] for every i.
// Mismatched lengths and empty input are rejected before any gateway call.
// A quote id is bought at most once: repeats within the request and quote
// ids already bought within the idempotency TTL fail as duplicates.
func (s *Service) PurchaseBatch(ctx context.Context, quoteIDs, rateIDs []string) (*PurchaseResult, error) {
	if len(quoteIDs) != len(rateIDs) {
		return nil, fmt.Errorf("%w: %d quote ids, %d rate ids", shipment.ErrLengthMismatch, len(quoteIDs), len(rateIDs))
	}
	if len(quoteIDs) == 0 {
		return nil, shipment.ErrEmptyBatch
	}
	if s.gateway == nil {
		return nil, ErrNoGateway
	}

	start := time.Now()
	batchID := uuid.NewString()
	ctx = logger.WithBatchID(logger.EnsureContext(ctx, s.logger), batchID)
	ctx, span := telemetry.StartSpan(ctx, "bulk.purchase_batch",
		telemetry.AttrBatchID, batchID,
		telemetry.AttrRecords, len(quoteIDs),
	)
	defer span.End()

	log := logger.L(ctx)
	log.Info("Purchase batch started", zap.Int("pairs", len(quoteIDs)))

	var (
		outcomes = make([]shipment.Outcome, 0, len(quoteIDs))
		pairs    = make([]purchasePair, 0, len(quoteIDs))
		seen     = make(map[string]int, len(quoteIDs))
	)
	for i := range quoteIDs {
		p := purchasePair{line: i + 1, quoteID: strings.TrimSpace(quoteIDs[i]), rateID: strings.TrimSpace(rateIDs[i])}
		if first, dup := seen[p.quoteID]; dup && p.quoteID != "" {
			err := fmt.Errorf("%w: quote %s is already requested at position %d", shipment.ErrAlreadyPurchased, p.quoteID, first)
			outcomes = append(outcomes, s.failedPurchase(ctx, p, err))
			continue
		}
		seen[p.quoteID] = p.line
		pairs = append(pairs, p)
	}

	runChunks(ctx, pairs, s.cfg.ChunkSize,
		func(p purchasePair) int { return p.line },
		s.purchaseOne,
		func(chunk []shipment.Outcome) {
			outcomes = append(outcomes, chunk...)
		},
	)
	shipment.SortOutcomes(outcomes)

	elapsed := time.Since(start)
	result := &PurchaseResult{
		BatchID:   batchID,
		Purchased: []shipment.Outcome{},
		Failed:    []shipment.Outcome{},
		Summary:   shipment.Summarize(outcomes, elapsed),
	}
	for _, o := range outcomes {
		if o.Succeeded() {
			result.Purchased = append(result.Purchased, o)
		} else {
			result.Failed = append(result.Failed, o)
		}
	}
	s.metrics.RecordBatch(ctx, PhasePurchase, elapsed)

	log.Info("Purchase batch finished",
		zap.Int("purchased", len(result.Purchased)),
		zap.Int("failed", len(result.Failed)),
		zap.String("total_cost", result.Summary.TotalCost.StringFixed(2)),
		zap.Duration("duration", elapsed),
	)
	telemetry.SetOK(span)
	return result, nil
}

func (s *Service) purchaseOne(ctx context.Context, p purchasePair) shipment.Outcome {
	ctx, span := telemetry.StartSpan(ctx, "bulk.purchase",
		telemetry.AttrLine, p.line,
		telemetry.AttrQuoteID, p.quoteID,
		telemetry.AttrRateID, p.rateID,
	)
	defer span.End()

	out, err := s.withSlot(ctx, func() shipment.Outcome {
		quote, err := s.retrieveQuote(ctx, p.quoteID)
		if err != nil {
			return s.failedPurchase(ctx, p, err)
		}
		rate, ok := quote.FindRate(p.rateID)
		if !ok {
			err := fmt.Errorf("%w: %s is not a rate of quote %s (valid rate ids: %s)",
				shipment.ErrRateNotFound, p.rateID, p.quoteID, strings.Join(quote.RateIDs(), ", "))
			return s.failedPurchase(ctx, p, err)
		}

		label, err := s.purchaseRate(ctx, quote, rate)
		if err != nil {
			out := s.failedPurchase(ctx, p, err)
			out.AllRates = quote.Rates
			return out
		}
		return shipment.Outcome{
			LineNumber:      p.line,
			Status:          shipment.StatusSuccess,
			QuoteID:         p.quoteID,
			PurchasedRateID: label.RateID,
			TrackingCode:    label.TrackingCode,
			LabelURL:        label.LabelURL,
			AllRates:        quote.Rates,
			SelectedRate:    &rate,
		}
	})
	if err != nil {
		out = s.failedPurchase(ctx, p, err)
	}

	if out.Succeeded() {
		telemetry.SetOK(span)
	} else {
		telemetry.SetAttributes(span, telemetry.AttrErrorKind, string(out.ErrorKind))
		telemetry.RecordError(span, errors.New(out.ErrorMessage))
	}
	return out
}

func (s *Service) retrieveQuote(ctx context.Context, quoteID string) (*shipment.Quote, error) {
	if quoteID == "" {
		return nil, fmt.Errorf("%w: quote id is empty", shipment.ErrInvalidShipment)
	}
	var quote *shipment.Quote
	err := s.call(ctx, func(ctx context.Context) error {
		var err error
		quote, err = s.gateway.RetrieveQuote(ctx, quoteID)
		return err
	})
	if err == nil && quote == nil {
		err = fmt.Errorf("%w: quote %s", shipment.ErrNoRates, quoteID)
	}
	return quote, err
}

// purchaseRate buys rate on quote at most once per quote id. The claim is
// released when the provider rejects the purchase so the pair can be
// retried; after a timeout it is kept because the label may exist upstream.
func (s *Service) purchaseRate(ctx context.Context, quote *shipment.Quote, rate shipment.RateOption) (*shipment.Label, error) {
	claimed, err := s.idem.MarkProcessed(ctx, quote.ID, s.cfg.IdempotencyTTL)
	if err != nil {
		return nil, fmt.Errorf("idempotency check failed: %w", err)
	}
	if !claimed {
		s.metrics.RecordPurchase(ctx, rate.Carrier, string(shipment.ErrorKindDuplicate))
		return nil, fmt.Errorf("%w: %s", shipment.ErrAlreadyPurchased, quote.ID)
	}

	var label *shipment.Label
	err = s.call(ctx, func(ctx context.Context) error {
		var err error
		label, err = s.gateway.Purchase(ctx, quote.ID, rate.ID)
		return err
	})
	if err == nil && label == nil {
		err = fmt.Errorf("%w: purchase of %s returned no label", shipment.ErrGatewayRejected, quote.ID)
	}

	kind := shipment.ClassifyError(err)
	s.metrics.RecordPurchase(ctx, rate.Carrier, string(kind))
	if err != nil {
		if kind != shipment.ErrorKindTimeout {
			if relErr := s.idem.Release(context.WithoutCancel(ctx), quote.ID); relErr != nil {
				logger.L(ctx).Error("Failed to release purchase claim",
					zap.String("quote_id", quote.ID),
					zap.Error(relErr),
				)
			}
		}
		return nil, err
	}
	if label.RateID == "" {
		label.RateID = rate.ID
	}
	return label, nil
}

func (s *Service) failedPurchase(ctx context.Context, p purchasePair, err error) shipment.Outcome {
	out := shipment.FailedOutcome(p.line, err)
	out.QuoteID = p.quoteID
	logger.ForLine(ctx, p.line).Warn("Purchase failed",
		zap.String("quote_id", p.quoteID),
		zap.String("rate_id", p.rateID),
		zap.String("error_kind", string(out.ErrorKind)),
		zap.String("error", out.ErrorMessage),
	)
	return out
}
