package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/favicon"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/ovl-network/ido-engine/common/errs"
	"github.com/ovl-network/ido-engine/core/chain"
	"github.com/ovl-network/ido-engine/internal/config"
	"github.com/ovl-network/ido-engine/modules/sale"
	salehttphandler "github.com/ovl-network/ido-engine/modules/sale/api/httphandler"
	"github.com/ovl-network/ido-engine/pkg/automaxprocs"
	"github.com/ovl-network/ido-engine/pkg/errorhandler"
	"github.com/ovl-network/ido-engine/pkg/logger"
	"github.com/ovl-network/ido-engine/pkg/logger/slogx"
	"github.com/ovl-network/ido-engine/pkg/middleware/requestcontext"
	"github.com/ovl-network/ido-engine/pkg/middleware/requestlogger"
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"
)

func NewRunCommand() *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Start the read-only view API over a persisted chain state",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := automaxprocs.Init(); err != nil {
				logger.Error("Failed to set GOMAXPROCS", slogx.Error(err))
			}
			return runHandler(cmd, args)
		},
	}

	flags := runCmd.Flags()
	flags.String("state", "", "chain state snapshot file, E.g. `./data/state.json`")
	config.BindPFlag("state_path", flags.Lookup("state"))

	return runCmd
}

const shutdownTimeout = 60 * time.Second

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

	injector := do.New()
	do.ProvideValue(injector, conf)
	do.ProvideValue(injector, ctx)

	// Load the simulated chain from its persisted snapshot
	do.Provide(injector, func(i do.Injector) (*chain.Chain, error) {
		conf := do.MustInvoke[config.Config](i)
		loaded, err := loadChain(conf.StatePath)
		if err != nil {
			return nil, errors.Wrapf(err, "can't load chain state from %q", conf.StatePath)
		}
		return loaded, nil
	})

	// Initialize HTTP server
	do.Provide(injector, func(i do.Injector) (*fiber.App, error) {
		app := fiber.New(fiber.Config{
			AppName:      "IDO Engine",
			ErrorHandler: errorhandler.NewHTTPErrorHandler(),
		})
		app.
			Use(favicon.New()).
			Use(cors.New()).
			Use(requestid.New()).
			Use(requestcontext.New(
				requestcontext.WithRequestId(),
				requestcontext.WithClientIP(conf.HTTPServer.RequestIP),
			)).
			Use(requestlogger.New(conf.HTTPServer.Logger)).
			Use(fiberrecover.New(fiberrecover.Config{
				EnableStackTrace: true,
				StackTraceHandler: func(c *fiber.Ctx, e interface{}) {
					buf := make([]byte, 1024) // bufLen = 1024
					buf = buf[:runtime.Stack(buf, false)]
					logger.ErrorContext(c.UserContext(), "Something went wrong, panic in http handler", nil, slogx.Any("panic", e), slogx.String("stacktrace", string(buf)))
				},
			})).
			Use(compress.New(compress.Config{
				Level: compress.LevelDefault,
			}))

		// Health check
		app.Get("/", func(c *fiber.Ctx) error {
			return errors.WithStack(c.SendStatus(http.StatusOK))
		})

		return app, nil
	})

	// Mount module view APIs over the loaded chain
	httpServer := do.MustInvoke[*fiber.App](injector)
	{
		loaded := do.MustInvoke[*chain.Chain](injector)
		mounted := false
		for _, name := range []string{ContractNameSale, ContractNameSaleToken} {
			contract, address, err := loaded.FindContract(name)
			if err != nil {
				continue
			}
			saleContract, ok := contract.(*sale.Contract)
			if !ok {
				return errors.Wrapf(errs.SomethingWentWrong, "contract %q is not a sale contract", name)
			}
			if err := salehttphandler.New(saleContract, loaded).Mount(httpServer); err != nil {
				return errors.Wrap(err, "can't mount sale API")
			}
			logger.InfoContext(ctx, "Mounted sale view API",
				slogx.String("contract", name),
				slogx.Stringer("address", address))
			mounted = true
			break
		}
		if !mounted {
			logger.WarnContext(ctx, "No sale contract in chain state, view API serves health check only")
		}
	}

	// Run API server
	go func() {
		// stop main process if API stopped
		defer stop()

		logger.InfoContext(ctx, "Started HTTP server", slogx.Int("port", conf.HTTPServer.Port))
		if err := httpServer.Listen(fmt.Sprintf(":%d", conf.HTTPServer.Port)); err != nil {
			logger.PanicContext(ctx, "Something went wrong, error during running HTTP server", slogx.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully stop the server
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

	if err := httpServer.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.ErrorContext(ctx, "Error during shutting down HTTP server", err)
	}
	if err := injector.Shutdown(); err != nil {
		logger.PanicContext(ctx, "Failed while gracefully shutting down", slogx.Error(err))
	}

	return nil
}
