package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"walletcore/internal/accountserver"
	"walletcore/internal/accountserver/store/account"
	attestationstore "walletcore/internal/attestation/store"
	"walletcore/internal/configuration"
	historystore "walletcore/internal/history/store"
	"walletcore/internal/lock/workers/inactivity"
	"walletcore/internal/mockparty"
	"walletcore/internal/platform/config"
	"walletcore/internal/platform/leveldb"
	"walletcore/internal/platform/logger"
	"walletcore/internal/platform/metrics"
	"walletcore/internal/platform/tracer"
	httptransport "walletcore/internal/transport/http"
	"walletcore/internal/wallet/models"
	"walletcore/internal/wallet/service"
	"walletcore/internal/wallet/store/registration"
	"walletcore/pkg/platform/middleware/request"
)

const shutdownTimeout = 10 * time.Second

// newServeCmd binds the flags over the environment defaults and hands the
// result to run.
func newServeCmd(run func(ctx context.Context, cfg config.Server) error) *cobra.Command {
	cfg := config.FromEnv()
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the wallet core with its HTTP bridge",
		Long: "Run the wallet core, an embedded account server and reference issuer and verifier, " +
			"the HTTP bridge, the configuration watcher and the inactivity lock worker.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg)
		},
	}
	cmd.Flags().StringVar(&cfg.Addr, "addr", cfg.Addr, "listen address of the HTTP bridge (WALLETD_ADDR)")
	cmd.Flags().StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "directory of the LevelDB stores; empty keeps everything in memory (WALLETD_DATA_DIR)")
	cmd.Flags().StringVar(&cfg.ConfigFile, "config", cfg.ConfigFile, "wallet configuration file, watched for changes (WALLETD_CONFIG_FILE)")
	cmd.Flags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error (WALLETD_LOG_LEVEL)")
	cmd.Flags().IntVar(&cfg.HistoryBuffer, "history-buffer", cfg.HistoryBuffer, "capacity of the recent history stream (WALLETD_HISTORY_BUFFER)")
	return cmd
}

type stores struct {
	accounts      accountserver.Store
	registrations service.RegistrationStore
	attestations  service.AttestationStore
	history       service.HistoryStore
	close         func() error
}

// openStores returns in-memory stores, or LevelDB stores under dataDir. The
// account server keeps its own database, as it would on a separate host.
func openStores(dataDir string) (*stores, error) {
	if dataDir == "" {
		return &stores{
			accounts:      account.NewInMemory(),
			registrations: registration.NewInMemory(),
			attestations:  attestationstore.NewInMemory(),
			history:       historystore.NewInMemory(),
			close:         func() error { return nil },
		}, nil
	}

	walletDB, err := leveldb.Open(dataDir, "wallet")
	if err != nil {
		return nil, err
	}
	providerDB, err := leveldb.Open(dataDir, "accountserver")
	if err != nil {
		_ = walletDB.Close()
		return nil, err
	}
	closeAll := func() error {
		return errors.Join(walletDB.Close(), providerDB.Close())
	}

	s := &stores{close: closeAll}
	if s.accounts, err = account.NewLevelDB(providerDB); err != nil {
		return nil, errors.Join(err, closeAll())
	}
	if s.registrations, err = registration.NewLevelDB(walletDB); err != nil {
		return nil, errors.Join(err, closeAll())
	}
	if s.attestations, err = attestationstore.NewLevelDB(walletDB); err != nil {
		return nil, errors.Join(err, closeAll())
	}
	if s.history, err = historystore.NewLevelDB(walletDB); err != nil {
		return nil, errors.Join(err, closeAll())
	}
	return s, nil
}

func serve(ctx context.Context, cfg config.Server) error {
	log := logger.New(cfg.LogLevel)
	log.Info("initializing walletd",
		"addr", cfg.Addr,
		"in_memory", cfg.InMemory(),
		"config_file", cfg.ConfigFile,
	)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	st, err := openStores(cfg.DataDir)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.close(); err != nil {
			log.Error("failed to close stores", "error", err)
		}
	}()

	provider, err := accountserver.New(st.accounts,
		accountserver.WithLogger(log),
		accountserver.WithMetrics(m),
	)
	if err != nil {
		return fmt.Errorf("start account server: %w", err)
	}
	issuer := mockparty.NewIssuer(models.DefaultUniversalLinkBase)
	verifier := mockparty.NewVerifier(issuer)

	wallet, err := service.New(service.Dependencies{
		AccountServer: provider,
		Issuer:        issuer,
		Verifier:      verifier,
		Registrations: st.registrations,
		Attestations:  st.attestations,
		History:       st.history,
	},
		service.WithLogger(log),
		service.WithMetrics(m),
		service.WithTracer(tracer.NewOTel()),
		service.WithHistoryBuffer(cfg.HistoryBuffer),
	)
	if err != nil {
		return err
	}
	defer wallet.Close()
	if err := wallet.Init(ctx); err != nil {
		return fmt.Errorf("init wallet: %w", err)
	}

	var source *configuration.FileSource
	if cfg.ConfigFile != "" {
		source = configuration.NewFileSource(cfg.ConfigFile, wallet.Configuration(), log)
		if err := source.Load(ctx); err != nil {
			return err
		}
	}

	worker, err := inactivity.New(wallet.Locker(), wallet.Configuration(), inactivity.WithLogger(log))
	if err != nil {
		return err
	}

	router := httptransport.NewRouter(httptransport.NewHandler(wallet, log), log,
		httptransport.WithRequestMetrics(request.NewMetrics(reg)),
		httptransport.WithMetricsEndpoint(reg),
	)
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting http server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down server gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return ignoreCanceled(worker.Start(ctx))
	})
	if source != nil {
		g.Go(func() error {
			return ignoreCanceled(source.Watch(ctx))
		})
	}

	err = g.Wait()
	log.Info("walletd stopped")
	return err
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
