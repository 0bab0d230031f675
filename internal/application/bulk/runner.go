package bulk

import (
	"context"
	"fmt"

	"github.com/erp/bulkship/internal/domain/shipment"
	"golang.org/x/sync/errgroup"
)

// runChunks processes items chunkSize at a time. Every item of a chunk runs
// in its own goroutine; merge sees the chunk's outcomes in input order once
// all of them are done. A failing or panicking item never stops the others.
func runChunks[T any](
	ctx context.Context,
	items []T,
	chunkSize int,
	lineOf func(T) int,
	work func(context.Context, T) shipment.Outcome,
	merge func([]shipment.Outcome),
) {
	if chunkSize < 1 {
		chunkSize = 1
	}
	for start := 0; start < len(items); start += chunkSize {
		chunk := items[start:min(start+chunkSize, len(items))]
		results := make([]shipment.Outcome, len(chunk))

		var g errgroup.Group
		for i, item := range chunk {
			g.Go(func() error {
				defer func() {
					if r := recover(); r != nil {
						results[i] = shipment.FailedOutcome(lineOf(item), fmt.Errorf("internal error: %v", r))
					}
				}()
				results[i] = work(ctx, item)
				return nil
			})
		}
		_ = g.Wait()
		merge(results)
	}
}

// withSlot runs fn while holding one limiter slot
func (s *Service) withSlot(ctx context.Context, fn func() shipment.Outcome) (shipment.Outcome, error) {
	if err := s.limiter.Acquire(ctx, 1); err != nil {
		return shipment.Outcome{}, err
	}
	defer s.limiter.Release(1)
	return fn(), nil
}

// call bounds one external call by the per-item timeout
func (s *Service) call(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.ItemTimeout)
	defer cancel()
	return fn(ctx)
}
