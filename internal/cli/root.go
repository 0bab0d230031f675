// Package cli implements the bulkship command line.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/erp/bulkship/internal/application/bulk"
	"github.com/erp/bulkship/internal/domain/customs"
	"github.com/erp/bulkship/internal/domain/shipment"
	"github.com/erp/bulkship/internal/domain/warehouse"
	"github.com/erp/bulkship/internal/infrastructure/cache"
	"github.com/erp/bulkship/internal/infrastructure/carrier"
	"github.com/erp/bulkship/internal/infrastructure/config"
	"github.com/erp/bulkship/internal/infrastructure/logger"
	"github.com/erp/bulkship/internal/infrastructure/telemetry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Runtime is a wired batch service with the logger it reports to
type Runtime struct {
	Service *bulk.Service
	Logger  *zap.Logger
}

// Close releases the service stores and flushes the logger
func (r *Runtime) Close() error {
	err := r.Service.Close()
	_ = r.Logger.Sync()
	return err
}

// CommandFactory builds commands around a runtime constructor so tests can
// swap the carrier gateway out.
type CommandFactory struct {
	// CreateRuntime wires a service. needGateway is false for dry runs,
	// which must work without carrier credentials.
	CreateRuntime func(ctx context.Context, flgs *Flags, needGateway bool) (*Runtime, error)
}

var defaultCommandFactory = CommandFactory{
	CreateRuntime: createRuntime,
}

// NewRootCommand returns the bulkship command tree
func (f CommandFactory) NewRootCommand(flgs *Flags) *cobra.Command {
	root := &cobra.Command{
		Use:   "bulkship",
		Short: "Bulk shipment quoting and label purchase",
		Long: `bulkship turns batches of loosely formatted shipment records into
carrier quotes, picks the best rate per record and buys labels.`,
		SilenceUsage: true,
	}
	addPersistentFlags(root.PersistentFlags(), flgs)
	root.AddCommand(
		f.CreateQuoteCommand(flgs),
		f.CreatePurchaseCommand(flgs),
		f.CreateSampleCommand(flgs),
	)
	return root
}

// Execute runs the command line with process arguments
func Execute() {
	root := defaultCommandFactory.NewRootCommand(&Flags{})
	if err := root.ExecuteContext(context.Background()); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

func createRuntime(ctx context.Context, flgs *Flags, needGateway bool) (*Runtime, error) {
	cfg, err := config.Load(flgs.ConfigFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	metrics, err := telemetry.NewGlobalBatchMetrics()
	if err != nil {
		log.Warn("Batch metrics disabled", zap.Error(err))
	}

	opts := []bulk.Option{
		bulk.WithLogger(log),
		bulk.WithMetrics(metrics),
	}
	if path := cfg.Directory.WarehouseFile; path != "" {
		dir, err := warehouse.LoadDirectory(path)
		if err != nil {
			return nil, err
		}
		log.Info("Warehouse directory loaded", zap.String("path", path), zap.Strings("regions", dir.Regions()))
		opts = append(opts, bulk.WithDirectory(dir))
	}
	if path := cfg.Directory.SignerFile; path != "" {
		signers, err := customs.LoadSignerDirectory(path)
		if err != nil {
			return nil, err
		}
		log.Info("Signer directory loaded", zap.String("path", path), zap.Int("signers", signers.Len()))
		opts = append(opts, bulk.WithSigners(signers))
	}

	var gateway shipment.CarrierGateway
	if needGateway {
		client, err := carrier.NewClient(carrier.FromSettings(cfg.Gateway),
			carrier.WithLogger(log),
			carrier.WithMetrics(metrics),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create carrier client: %w", err)
		}
		gateway = client
	}

	stores, err := cache.NewFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(!cfg.IsProduction()),
	).Create(ctx)
	if err != nil {
		return nil, err
	}
	opts = append(opts, bulk.WithStores(stores))

	log.Debug("Runtime ready",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.Bool("gateway", gateway != nil),
	)
	return &Runtime{
		Service: bulk.NewService(gateway, bulk.ConfigFromSettings(cfg), opts...),
		Logger:  log,
	}, nil
}
