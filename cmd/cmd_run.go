package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/btcsuite/btcd/rpcclient"
	"github.com/btcsuite/btclog"
	"github.com/cockroachdb/errors"
	"github.com/samber/do/v2"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/subfrost/runicbtcfederation/common"
	"github.com/subfrost/runicbtcfederation/common/errs"
	"github.com/subfrost/runicbtcfederation/core/indexer"
	"github.com/subfrost/runicbtcfederation/internal/config"
	"github.com/subfrost/runicbtcfederation/modules/protorune"
	"github.com/subfrost/runicbtcfederation/pkg/logger"
	"github.com/subfrost/runicbtcfederation/pkg/logger/slogx"
	"go.uber.org/automaxprocs/maxprocs"
	"golang.org/x/sync/errgroup"
)

// Register Modules
var Modules = do.Package(
	do.LazyNamed(common.ModuleProtorune.String(), protorune.New),
)

func NewRunCommand() *cobra.Command {
	// Create command
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Start protorune indexer",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := maxprocs.Set(maxprocs.Logger(func(format string, v ...any) {
				logger.Info(fmt.Sprintf(format, v...), slogx.String("package", "automaxprocs"))
			})); err != nil {
				logger.Error("Failed to set GOMAXPROCS", slogx.Error(err))
			}
			return runHandler(cmd, args)
		},
	}

	// Add local flags
	flags := runCmd.Flags()
	flags.String("modules", "", "Enable specific modules to run. E.g. `protorune`")
	flags.Bool("receipts", false, "Record per-address deposit receipts")

	// Bind flags to configuration
	config.BindPFlag("enable_modules", flags.Lookup("modules"))
	config.BindPFlag("modules.protorune.receipts", flags.Lookup("receipts"))

	return runCmd
}

const (
	shutdownTimeout = 60 * time.Second
)

func runHandler(cmd *cobra.Command, _ []string) error {
	conf := config.Load()

	// Validate inputs and configurations
	{
		if !conf.Network.IsSupported() {
			return errors.Wrapf(errs.Unsupported, "%q network is not supported", conf.Network.String())
		}
	}

	// Initialize application process context
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Route rpcclient logs through btclog
	{
		backend := btclog.NewBackend(os.Stdout)
		rpcLogger := backend.Logger("RPCC")
		rpcLogger.SetLevel(btclog.LevelWarn)
		if conf.Logger.Debug {
			rpcLogger.SetLevel(btclog.LevelDebug)
		}
		rpcclient.UseLogger(rpcLogger)
	}

	// Initialize worker context to separate worker's lifecycle from main process
	ctxWorker, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()

	// Add logger context
	ctxWorker = logger.WithContext(ctxWorker, slogx.Stringer("network", conf.Network))

	injector := do.New(Modules)
	do.ProvideValue(injector, conf)
	do.ProvideValue(injector, ctxWorker)

	// Initialize Bitcoin RPC client
	do.Provide(injector, func(i do.Injector) (*rpcclient.Client, error) {
		conf := do.MustInvoke[config.Config](i)

		client, err := rpcclient.New(&rpcclient.ConnConfig{
			Host:         conf.BitcoinNode.Host,
			User:         conf.BitcoinNode.User,
			Pass:         conf.BitcoinNode.Pass,
			DisableTLS:   conf.BitcoinNode.DisableTLS,
			HTTPPostMode: true,
		}, nil)
		if err != nil {
			return nil, errors.Wrap(err, "invalid Bitcoin node configuration")
		}

		// Check Bitcoin RPC connection
		{
			start := time.Now()
			logger.InfoContext(ctx, "Connecting to Bitcoin Core RPC Server...", slogx.String("host", conf.BitcoinNode.Host))
			if err := client.Ping(); err != nil {
				return nil, errors.Wrapf(err, "can't connect to Bitcoin Core RPC Server %q", conf.BitcoinNode.Host)
			}
			logger.InfoContext(ctx, "Connected to Bitcoin Core RPC Server", slog.Duration("latency", time.Since(start)))
		}

		return client, nil
	})

	// Initialize modules
	modules := lo.Uniq(conf.EnableModules)
	modules = lo.Map(modules, func(item string, _ int) string { return strings.TrimSpace(item) })
	modules = lo.Filter(modules, func(item string, _ int) bool { return item != "" })
	if len(modules) == 0 {
		return errors.Wrap(errs.InvalidArgument, "no module is enabled")
	}

	workers := make(map[string]indexer.IndexerWorker, len(modules))
	for _, module := range modules {
		worker, err := do.InvokeNamed[indexer.IndexerWorker](injector, module)
		if err != nil {
			if errors.Is(err, do.ErrServiceNotFound) {
				return errors.Errorf("Module %q is not supported", module)
			}
			return errors.Wrapf(err, "can't init module %q", module)
		}
		workers[module] = worker
	}

	// Run indexers, stop main process if any indexer stopped
	group, groupCtx := errgroup.WithContext(ctxWorker)
	for module, worker := range workers {
		module, worker := module, worker
		group.Go(func() error {
			defer stop()

			ctx := logger.WithContext(groupCtx, slogx.String("module", module))
			logger.InfoContext(ctx, "Starting Protorune Indexer")
			if err := worker.Run(ctx); err != nil {
				return errors.Wrapf(err, "indexer %q stopped", module)
			}
			return nil
		})
	}

	logger.InfoContext(ctxWorker, "Protorune Indexer started", slogx.Any("modules", modules))

	// Wait for interrupt signal to gracefully stop the indexers
	<-ctx.Done()

	// Force shutdown if timeout exceeded or got signal again
	go func() {
		defer os.Exit(1)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		select {
		case <-ctx.Done():
			logger.FatalContext(ctx, "Received exit signal again. Force shutdown...")
		case <-time.After(shutdownTimeout + 15*time.Second):
			logger.FatalContext(ctx, "Shutdown timeout exceeded. Force shutdown...")
		}
	}()

	for module, worker := range workers {
		if err := worker.Shutdown(); err != nil {
			logger.ErrorContext(ctxWorker, "Failed to shutdown indexer", err, slogx.String("module", module))
		}
	}
	stopWorker()

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.ErrorContext(ctxWorker, "Something went wrong, error during running indexer", err)
	}

	if err := injector.Shutdown(); err != nil {
		logger.PanicContext(ctxWorker, "Failed while gracefully shutting down", slogx.Error(err))
	}

	return nil
}
