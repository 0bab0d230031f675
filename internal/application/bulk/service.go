// Package bulk runs shipment batches: quoting every record of an input
// (phase 1) and buying labels for chosen rates (phase 2).
package bulk

import (
	"errors"
	"strings"
	"time"

	"github.com/erp/bulkship/internal/domain/customs"
	"github.com/erp/bulkship/internal/domain/shipment"
	"github.com/erp/bulkship/internal/domain/warehouse"
	"github.com/erp/bulkship/internal/infrastructure/cache"
	"github.com/erp/bulkship/internal/infrastructure/config"
	"github.com/erp/bulkship/internal/infrastructure/intake"
	"github.com/erp/bulkship/internal/infrastructure/telemetry"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// ErrNoGateway is returned when a batch needs the carrier gateway but none is configured
var ErrNoGateway = errors.New("bulk: carrier gateway is not configured")

// maxLineErrors caps the validation errors reported for one batch
const maxLineErrors = 1000

// Config holds batch processing settings
type Config struct {
	// Concurrency bounds simultaneous gateway sections across all batches
	Concurrency int
	// ChunkSize is the number of records started together between progress reports
	ChunkSize int
	// ItemTimeout bounds every external call made for one record
	ItemTimeout time.Duration
	// DefaultRegion is the origin region for records that name none
	DefaultRegion string
	// AutoVerifyCarriers are the carrier preferences whose international
	// destinations are verified before quoting
	AutoVerifyCarriers []string
	// IdempotencyTTL is how long a purchased quote id stays claimed
	IdempotencyTTL time.Duration
	// MemoTTL is how long verification and customs results are reused
	MemoTTL time.Duration
}

// DefaultConfig returns the default batch settings
func DefaultConfig() Config {
	return Config{
		Concurrency:        8,
		ChunkSize:          8,
		ItemTimeout:        30 * time.Second,
		AutoVerifyCarriers: []string{"FEDEX", "UPS"},
		IdempotencyTTL:     24 * time.Hour,
		MemoTTL:            time.Hour,
	}
}

// ConfigFromSettings maps the application config
func ConfigFromSettings(cfg *config.Config) Config {
	return Config{
		Concurrency:        cfg.Batch.Concurrency,
		ChunkSize:          cfg.Batch.ChunkSize,
		ItemTimeout:        cfg.Batch.ItemTimeout,
		DefaultRegion:      cfg.Batch.DefaultRegion,
		AutoVerifyCarriers: cfg.Batch.AutoVerifyCarriers,
		IdempotencyTTL:     cfg.Redis.IdempotencyTTL,
		MemoTTL:            cfg.Redis.MemoTTL,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	switch {
	case c.Concurrency < config.MinConcurrency:
		c.Concurrency = d.Concurrency
	case c.Concurrency > config.MaxConcurrency:
		c.Concurrency = config.MaxConcurrency
	}
	if c.ChunkSize < 1 {
		c.ChunkSize = d.ChunkSize
	}
	if c.ItemTimeout <= 0 {
		c.ItemTimeout = d.ItemTimeout
	}
	if c.AutoVerifyCarriers == nil {
		c.AutoVerifyCarriers = d.AutoVerifyCarriers
	}
	if c.IdempotencyTTL <= 0 {
		c.IdempotencyTTL = d.IdempotencyTTL
	}
	if c.MemoTTL <= 0 {
		c.MemoTTL = d.MemoTTL
	}
	return c
}

// Service runs quote and purchase batches against a carrier gateway
type Service struct {
	gateway    shipment.CarrierGateway
	cfg        Config
	reader     *intake.Reader
	parser     *intake.Parser
	classifier *shipment.Classifier
	resolver   *warehouse.Resolver
	customs    *customs.Builder
	idem       shipment.IdempotencyStore
	memo       shipment.MemoStore
	limiter    *semaphore.Weighted
	metrics    *telemetry.BatchMetrics
	logger     *zap.Logger

	directory *warehouse.Directory
	signers   *customs.SignerDirectory
	items     customs.ItemSource
}

// Option is a functional option for Service
type Option func(*Service)

// WithLogger sets the logger used when the request context carries none
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// WithMetrics records batch metrics on m
func WithMetrics(m *telemetry.BatchMetrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithDirectory replaces the built-in warehouse directory
func WithDirectory(d *warehouse.Directory) Option {
	return func(s *Service) {
		s.directory = d
	}
}

// WithSigners sets the company to customs signer table
func WithSigners(d *customs.SignerDirectory) Option {
	return func(s *Service) {
		s.signers = d
	}
}

// WithItemSource replaces the customs item synthesis
func WithItemSource(src customs.ItemSource) Option {
	return func(s *Service) {
		s.items = src
	}
}

// WithClassifier replaces the category rules
func WithClassifier(c *shipment.Classifier) Option {
	return func(s *Service) {
		s.classifier = c
	}
}

// WithReader replaces the input reader
func WithReader(r *intake.Reader) Option {
	return func(s *Service) {
		s.reader = r
	}
}

// WithStores sets the idempotency and memo stores. Nil members keep the in-memory defaults
func WithStores(st cache.Stores) Option {
	return func(s *Service) {
		if st.Idempotency != nil {
			s.idem = st.Idempotency
		}
		if st.Memo != nil {
			s.memo = st.Memo
		}
	}
}

// NewService creates a Service. gateway may be nil for dry runs only.
func NewService(gateway shipment.CarrierGateway, cfg Config, opts ...Option) *Service {
	s := &Service{
		gateway: gateway,
		cfg:     cfg.withDefaults(),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.classifier == nil {
		s.classifier = shipment.DefaultClassifier()
	}
	if s.reader == nil {
		s.reader = intake.NewReader()
	}
	if s.idem == nil {
		s.idem = cache.NewInMemoryIdempotencyStore()
	}
	if s.memo == nil {
		s.memo = cache.NewInMemoryMemoStore()
	}
	s.resolver = warehouse.NewResolver(s.directory)
	s.customs = customs.NewBuilder(s.items, s.signers)
	s.parser = intake.NewParser(
		intake.WithClassifier(s.classifier),
		intake.WithRegions(s.resolver.Directory()),
	)
	s.limiter = semaphore.NewWeighted(int64(s.cfg.Concurrency))
	return s
}

// Config returns the effective settings
func (s *Service) Config() Config {
	return s.cfg
}

// Close releases the stores
func (s *Service) Close() error {
	return cache.Stores{Idempotency: s.idem, Memo: s.memo}.Close()
}

// shouldVerify reports whether the preference names an auto-verify carrier
func (s *Service) shouldVerify(preference string) bool {
	pref := shipment.ParsePreference(preference)
	if pref.Carrier == "" {
		return false
	}
	for _, c := range s.cfg.AutoVerifyCarriers {
		if shipment.CarrierMatches(pref.Carrier, c) || strings.EqualFold(pref.Carrier, c) {
			return true
		}
	}
	return false
}
