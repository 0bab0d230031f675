package bulk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/erp/bulkship/internal/domain/customs"
	"github.com/erp/bulkship/internal/domain/shipment"
	"github.com/erp/bulkship/internal/domain/warehouse"
	"github.com/erp/bulkship/internal/infrastructure/cache"
	"github.com/erp/bulkship/internal/infrastructure/intake"
	"github.com/erp/bulkship/internal/infrastructure/logger"
	"github.com/erp/bulkship/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateBatch parses records, plans every valid one and quotes it.
// Records that fail parsing or validation are reported in ValidationErrors
// and get no outcome. Only unusable input as a whole is returned as error.
func (s *Service) CreateBatch(ctx context.Context, records string, opts BatchOptions) (*BatchResult, error) {
	start := time.Now()
	batchID := uuid.NewString()
	ctx = logger.WithBatchID(logger.EnsureContext(ctx, s.logger), batchID)

	ctx, span := telemetry.StartSpan(ctx, "bulk.create_batch",
		telemetry.AttrBatchID, batchID,
		"bulk.dry_run", opts.DryRun,
		"bulk.auto_purchase", opts.AutoPurchase,
	)
	defer span.End()

	if !opts.DryRun && s.gateway == nil {
		telemetry.RecordError(span, ErrNoGateway)
		return nil, ErrNoGateway
	}

	recs, err := s.reader.Split(records)
	if err != nil {
		if errors.Is(err, intake.ErrEmptyInput) {
			err = fmt.Errorf("%w: %v", shipment.ErrEmptyBatch, err)
		}
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.AttrRecords, len(recs))

	log := logger.L(ctx)
	log.Info("Batch started",
		zap.Int("records", len(recs)),
		zap.Bool("dry_run", opts.DryRun),
		zap.Bool("auto_purchase", opts.AutoPurchase),
	)

	errs := intake.NewErrorCollection(maxLineErrors)
	plans := make([]*Plan, 0, len(recs))
	for _, rec := range recs {
		p, lineErrs := s.plan(ctx, batchID, rec)
		if len(lineErrs) > 0 {
			errs.AddAll(lineErrs)
			logger.ForLine(ctx, rec.Line).Debug("Record rejected", zap.Int("errors", len(lineErrs)))
			continue
		}
		plans = append(plans, p)
	}

	result := &BatchResult{
		BatchID:               batchID,
		DryRun:                opts.DryRun,
		ValidationErrors:      errs.Errors(),
		ValidationErrorsTotal: errs.TotalCount(),
		RejectedLines:         errs.Lines(),
		Outcomes:              []shipment.Outcome{},
	}
	used := make(warehouseSet)

	if opts.DryRun {
		result.Plans = make([]Plan, 0, len(plans))
		for _, p := range plans {
			result.Plans = append(result.Plans, *p)
			used.add(p.Warehouse)
		}
		result.WarehousesUsed = used.sorted()
		result.Summary = shipment.Summarize(result.Outcomes, time.Since(start))
		if opts.OnProgress != nil {
			opts.OnProgress(Progress{BatchID: batchID, Phase: PhaseQuote, Done: len(plans), Total: len(plans)})
		}
		log.Info("Dry run finished", zap.Int("planned", len(plans)), zap.Int("rejected", len(result.RejectedLines)))
		telemetry.SetOK(span)
		return result, nil
	}

	progress := Progress{BatchID: batchID, Phase: PhaseQuote, Total: len(plans)}
	runChunks(ctx, plans, s.cfg.ChunkSize,
		func(p *Plan) int { return p.Line },
		func(ctx context.Context, p *Plan) shipment.Outcome {
			return s.quoteOne(ctx, p, opts.AutoPurchase)
		},
		func(chunk []shipment.Outcome) {
			for _, o := range chunk {
				result.Outcomes = append(result.Outcomes, o)
				used.add(o.Warehouse)
				if o.Succeeded() {
					progress.Succeeded++
				} else {
					progress.Failed++
				}
			}
			progress.Done += len(chunk)
			if opts.OnProgress != nil {
				opts.OnProgress(progress)
			}
		},
	)

	shipment.SortOutcomes(result.Outcomes)
	elapsed := time.Since(start)
	result.WarehousesUsed = used.sorted()
	result.Summary = shipment.Summarize(result.Outcomes, elapsed)
	s.metrics.RecordBatch(ctx, PhaseQuote, elapsed)

	log.Info("Batch finished",
		zap.Int("outcomes", result.Summary.Total),
		zap.Int("successful", result.Summary.Successful),
		zap.Int("failed", result.Summary.Failed),
		zap.Int("rejected", len(result.RejectedLines)),
		zap.String("total_cost", result.Summary.TotalCost.StringFixed(2)),
		zap.Duration("duration", elapsed),
	)
	telemetry.SetOK(span)
	return result, nil
}

// plan parses, validates and resolves one record. It performs no gateway calls.
func (s *Service) plan(ctx context.Context, batchID string, rec intake.Record) (*Plan, []shipment.LineError) {
	draft, err := s.parser.ParseRecord(rec)
	if err != nil {
		ec := intake.NewErrorCollection(0)
		ec.AddError(rec.Line, err)
		return nil, ec.Errors()
	}

	v := shipment.Validate(rec.Line, draft, s.classifier)
	if !v.Valid {
		logger.ForLine(ctx, rec.Line).Debug("Record invalid",
			zap.String("error_kind", string(shipment.ClassifyError(v.ValidationError()))),
			zap.Error(v.ValidationError()),
		)
		return nil, v.Errors
	}

	region := v.OriginRegion
	if strings.TrimSpace(region) == "" {
		region = s.cfg.DefaultRegion
	}
	res := s.resolver.Resolve(region, v.Category, v.Sender)
	if res.Source == warehouse.SourceExplicit {
		if _, ok := shipment.NormalizeCountry(res.Address.Country); !ok {
			return nil, []shipment.LineError{shipment.NewLineErrorWithValue(rec.Line, "sender_country",
				shipment.ErrCodeUnknownCountry, "sender country is not a recognised name or ISO code", v.Sender.Country)}
		}
	}

	p := &Plan{
		Line:              rec.Line,
		Strategy:          v.Strategy,
		Category:          v.Category,
		CarrierPreference: v.CarrierPreference,
		Warehouse:         res.Description,
		WarehouseSource:   res.Source,
		From:              res.Address,
		To:                v.Destination(),
		Parcel:            v.Parcel(),
		International:     customs.IsInternational(res.Address.Country, v.Country),
	}
	if msgs := shipment.CheckStruct(p.From); len(msgs) > 0 {
		p.Warnings = append(p.Warnings, "ship-from address: "+strings.Join(msgs, "; "))
	}

	if p.International {
		decl, warnings := s.buildCustoms(ctx, batchID, customs.Request{
			Contents:          v.Contents,
			Category:          v.Category,
			WeightOz:          v.WeightOz,
			OriginCountry:     p.From.Country,
			DestCountry:       p.To.Country,
			SenderCompany:     p.From.Company,
			CarrierPreference: v.CarrierPreference,
		})
		p.Customs = &decl
		p.Warnings = append(p.Warnings, warnings...)
	}
	return p, nil
}

// quoteOne runs the gateway section of one planned record
func (s *Service) quoteOne(ctx context.Context, p *Plan, autoPurchase bool) shipment.Outcome {
	ctx, span := telemetry.StartSpan(ctx, "bulk.quote",
		telemetry.AttrLine, p.Line,
		telemetry.AttrCarrier, shipment.ParsePreference(p.CarrierPreference).Carrier,
	)
	defer span.End()
	log := logger.ForLine(ctx, p.Line)

	out, err := s.withSlot(ctx, func() shipment.Outcome {
		return s.quoteWithSlot(ctx, p, autoPurchase)
	})
	if err != nil {
		out = s.failed(p, err)
	}

	if out.Succeeded() {
		if out.SelectedRate != nil {
			telemetry.SetAttributes(span, telemetry.AttrCarrier, out.SelectedRate.Carrier)
		}
		telemetry.SetOK(span)
	} else {
		telemetry.SetAttributes(span, telemetry.AttrErrorKind, string(out.ErrorKind))
		telemetry.RecordError(span, errors.New(out.ErrorMessage))
		log.Warn("Shipment failed",
			zap.String("error_kind", string(out.ErrorKind)),
			zap.String("error", out.ErrorMessage),
		)
	}
	return out
}

func (s *Service) quoteWithSlot(ctx context.Context, p *Plan, autoPurchase bool) shipment.Outcome {
	warnings := append([]string(nil), p.Warnings...)

	to := p.To
	if p.International && s.shouldVerify(p.CarrierPreference) {
		var vw []string
		to, vw = s.verifyAddress(ctx, p.To, shipment.ParsePreference(p.CarrierPreference).Carrier)
		warnings = append(warnings, vw...)
	}

	var quote *shipment.Quote
	err := s.call(ctx, func(ctx context.Context) error {
		var err error
		quote, err = s.gateway.CreateQuote(ctx, shipment.QuoteRequest{
			To:        to,
			From:      p.From,
			Parcel:    p.Parcel,
			Customs:   p.Customs,
			Reference: "line-" + strconv.Itoa(p.Line),
		})
		return err
	})
	if err == nil && (quote == nil || len(quote.Rates) == 0) {
		msg := ""
		if quote != nil && len(quote.Messages) > 0 {
			msg = ": " + strings.Join(quote.Messages, "; ")
		}
		err = fmt.Errorf("%w%s", shipment.ErrNoRates, msg)
	}
	if err != nil {
		s.metrics.RecordQuote(ctx, "", string(shipment.ClassifyError(err)))
		out := s.failed(p, err)
		out.Warnings = warnings
		if quote != nil {
			out.QuoteID = quote.ID
		}
		return out
	}

	selected := shipment.SelectBest(quote.Rates, autoPurchase, p.CarrierPreference)
	s.metrics.RecordQuote(ctx, selected.Carrier, "")
	warnings = append(warnings, quote.Messages...)

	out := shipment.Outcome{
		LineNumber:    p.Line,
		Status:        shipment.StatusSuccess,
		QuoteID:       quote.ID,
		AllRates:      quote.Rates,
		SelectedRate:  selected,
		Warnings:      warnings,
		Warehouse:     p.Warehouse,
		International: p.International,
	}
	if !autoPurchase {
		return out
	}

	label, err := s.purchaseRate(ctx, quote, *selected)
	if err != nil {
		out.Status = shipment.StatusError
		out.ErrorKind = shipment.ClassifyError(err)
		out.ErrorMessage = "purchase failed: " + shipment.FlattenError(err)
		return out
	}
	out.PurchasedRateID = label.RateID
	out.TrackingCode = label.TrackingCode
	out.LabelURL = label.LabelURL
	return out
}

func (s *Service) failed(p *Plan, err error) shipment.Outcome {
	out := shipment.FailedOutcome(p.Line, err)
	out.Warehouse = p.Warehouse
	out.International = p.International
	out.Warnings = p.Warnings
	return out
}

// verified is the memoized result of an address verification
type verified struct {
	Address  shipment.Address `json:"address"`
	Warnings []string         `json:"warnings,omitempty"`
}

// verifyAddress checks addr with the gateway. It never fails: on any
// problem the original address is kept and the problem becomes a warning.
func (s *Service) verifyAddress(ctx context.Context, addr shipment.Address, carrier string) (shipment.Address, []string) {
	key := cache.ContentKey("verify", logger.GetBatchID(ctx), carrier,
		addr.Name, addr.Company, addr.Street1, addr.Street2, addr.City, addr.State, addr.Zip, addr.Country)

	var memo verified
	if s.memoGet(ctx, key, &memo) {
		return memo.Address, memo.Warnings
	}

	var v *shipment.Verification
	err := s.call(ctx, func(ctx context.Context) error {
		var err error
		v, err = s.gateway.VerifyAddress(ctx, addr, carrier)
		return err
	})
	if err != nil {
		logger.L(ctx).Error("Address verification failed",
			zap.String("carrier", carrier),
			zap.String("error_kind", string(shipment.ClassifyError(err))),
			zap.Error(err),
		)
		return addr, []string{"address verification unavailable: " + shipment.FlattenError(err)}
	}

	switch v.Status() {
	case shipment.VerificationSuccess:
		memo = verified{Address: mergeCorrected(addr, v.Corrected)}
	case shipment.VerificationWarning:
		memo = verified{Address: mergeCorrected(addr, v.Corrected), Warnings: prefixed("address corrected: ", v.Warnings)}
	default:
		msgs := append(append([]string(nil), v.Errors...), v.Warnings...)
		if len(msgs) == 0 {
			msgs = []string{"address could not be verified"}
		}
		memo = verified{Address: addr, Warnings: prefixed("address verification failed: ", msgs)}
	}
	s.memoSet(ctx, key, memo)
	return memo.Address, memo.Warnings
}

// mergeCorrected takes the provider's corrected postal fields and keeps the
// contact fields of the original when the provider drops them.
func mergeCorrected(orig shipment.Address, corrected *shipment.Address) shipment.Address {
	if corrected == nil {
		return orig
	}
	out := *corrected
	fill := func(dst *string, src string) {
		if strings.TrimSpace(*dst) == "" {
			*dst = src
		}
	}
	fill(&out.Name, orig.Name)
	fill(&out.Company, orig.Company)
	fill(&out.Street1, orig.Street1)
	fill(&out.City, orig.City)
	fill(&out.State, orig.State)
	fill(&out.Zip, orig.Zip)
	fill(&out.Country, orig.Country)
	fill(&out.Phone, orig.Phone)
	fill(&out.Email, orig.Email)
	return out
}

func prefixed(prefix string, msgs []string) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, prefix+m)
	}
	return out
}

// customsMemo is the memoized result of a customs build
type customsMemo struct {
	Declaration shipment.CustomsDeclaration `json:"declaration"`
	Warnings    []string                    `json:"warnings,omitempty"`
}

func (s *Service) buildCustoms(ctx context.Context, batchID string, req customs.Request) (shipment.CustomsDeclaration, []string) {
	key := cache.ContentKey("customs", batchID, req.Contents, string(req.Category),
		strconv.FormatFloat(req.WeightOz, 'f', -1, 64),
		req.OriginCountry, req.DestCountry, req.SenderCompany, req.CarrierPreference)

	var memo customsMemo
	if s.memoGet(ctx, key, &memo) {
		return memo.Declaration, memo.Warnings
	}

	var decl shipment.CustomsDeclaration
	var warnings []string
	_ = s.call(ctx, func(ctx context.Context) error {
		decl, warnings = s.customs.Build(ctx, req)
		return nil
	})
	s.memoSet(ctx, key, customsMemo{Declaration: decl, Warnings: warnings})
	return decl, warnings
}

func (s *Service) memoGet(ctx context.Context, key string, v any) bool {
	b, found, err := s.memo.Get(ctx, key)
	if err != nil {
		logger.L(ctx).Warn("Memo read failed", zap.Error(err))
		return false
	}
	if !found {
		return false
	}
	if err := json.Unmarshal(b, v); err != nil {
		logger.L(ctx).Warn("Memo entry unreadable", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (s *Service) memoSet(ctx context.Context, key string, v any) {
	b, err := json.Marshal(v)
	if err == nil {
		err = s.memo.Set(ctx, key, b, s.cfg.MemoTTL)
	}
	if err != nil {
		logger.L(ctx).Warn("Memo write failed", zap.Error(err))
	}
}
