package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/SMRFT/Cosmetalogy-final/internal/config"
	"github.com/SMRFT/Cosmetalogy-final/internal/domain/billing"
	"github.com/SMRFT/Cosmetalogy-final/internal/domain/clinical"
	"github.com/SMRFT/Cosmetalogy-final/internal/domain/identity"
	"github.com/SMRFT/Cosmetalogy-final/internal/domain/pharmacy"
	"github.com/SMRFT/Cosmetalogy-final/internal/domain/scheduling"
	"github.com/SMRFT/Cosmetalogy-final/internal/platform/apperr"
	"github.com/SMRFT/Cosmetalogy-final/internal/platform/blobstore"
	"github.com/SMRFT/Cosmetalogy-final/internal/platform/db"
	"github.com/SMRFT/Cosmetalogy-final/internal/platform/middleware"
	"github.com/SMRFT/Cosmetalogy-final/internal/platform/mongodb"
)

const version = "0.1.0"

// defaultBodyLimit applies to every JSON endpoint; BODY_LIMIT covers uploads.
const defaultBodyLimit = "4M"

func main() {
	rootCmd := &cobra.Command{
		Use:   "cosmo-server",
		Short: "Clinic and cosmetology API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(mongoCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if dir == "" {
				dir = cfg.MigrationsDir
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, poolConfig(cfg))
			if err != nil {
				return err
			}
			defer pool.Close()

			count, err := db.NewMigrator(pool, dir).Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "", "Path to migrations directory (defaults to MIGRATIONS_DIR)")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if dir == "" {
				dir = cfg.MigrationsDir
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, poolConfig(cfg))
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := db.NewMigrator(pool, dir).Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status, appliedAt := "pending", ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format(time.RFC3339)
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "", "Path to migrations directory (defaults to MIGRATIONS_DIR)")
	cmd.AddCommand(statusCmd)

	return cmd
}

func mongoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mongo",
		Short: "MongoDB maintenance",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "indexes",
		Short: "Create the ledger collection indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.MongoURL == "" {
				return fmt.Errorf("MONGO_URL is required")
			}

			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()

			client, err := mongodb.Connect(ctx, cfg.MongoURL, cfg.MongoDatabase)
			if err != nil {
				return err
			}
			defer client.Close(context.Background())

			if err := billing.EnsureIndexes(ctx, client); err != nil {
				return fmt.Errorf("billing indexes: %w", err)
			}
			if err := pharmacy.EnsureIndexes(ctx, client); err != nil {
				return fmt.Errorf("pharmacy indexes: %w", err)
			}
			fmt.Printf("Indexes ready on database %s.\n", cfg.MongoDatabase)
			return nil
		},
	})

	return cmd
}

func poolConfig(cfg *config.Config) db.PoolConfig {
	return db.PoolConfig{
		URL:      cfg.DatabaseURL,
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	if cfg != nil && cfg.IsDev() {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func rateLimitConfig(cfg *config.Config) middleware.RateLimitConfig {
	rl := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rl.RequestsPerSecond <= 0 || rl.BurstSize <= 0 {
		rl = middleware.DefaultRateLimitConfig()
	}
	return rl
}

// newEcho builds the server with global middleware and the liveness route.
func newEcho(cfg *config.Config, logger zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = apperr.ErrorHandler

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Content-Type", "X-Request-ID"},
	}))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.BodyLimit(defaultBodyLimit, cfg.BodyLimit))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok", "version": version})
	})
	return e
}

// ledgerStores holds the billing and pharmacy persistence chosen by LEDGER_STORE.
type ledgerStores struct {
	counters  billing.CounterRepository
	records   billing.RecordRepository
	procBills billing.ProcedureBillRepository
	billingTx billing.TxRunner

	medicines  pharmacy.Repository
	pharmacyTx pharmacy.TxRunner
}

func buildLedgerStores(cfg *config.Config, pool *pgxpool.Pool, mc *mongodb.Client) (*ledgerStores, error) {
	switch cfg.LedgerStore {
	case config.LedgerStorePostgres:
		if pool == nil {
			return nil, fmt.Errorf("postgres ledger store requires a connection pool")
		}
		tx := db.NewTxRunner(pool)
		return &ledgerStores{
			counters:   billing.NewCounterRepoPG(pool),
			records:    billing.NewRecordRepoPG(pool),
			procBills:  billing.NewProcedureBillRepoPG(pool),
			billingTx:  tx,
			medicines:  pharmacy.NewRepoPG(pool),
			pharmacyTx: tx,
		}, nil
	case config.LedgerStoreMongo:
		if mc == nil {
			return nil, fmt.Errorf("mongo ledger store requires a mongo client")
		}
		tx := mongodb.NewTxRunner(mc, cfg.MongoTransactions)
		return &ledgerStores{
			counters:   billing.NewCounterRepoMongo(mc),
			records:    billing.NewRecordRepoMongo(mc),
			procBills:  billing.NewProcedureBillRepoMongo(mc),
			billingTx:  tx,
			medicines:  pharmacy.NewRepoMongo(mc),
			pharmacyTx: tx,
		}, nil
	default:
		return nil, fmt.Errorf("unknown ledger store %q", cfg.LedgerStore)
	}
}

func buildBlobStore(cfg *config.Config, mc *mongodb.Client) (blobstore.Store, error) {
	switch cfg.BlobStore {
	case config.BlobStoreMemory:
		return blobstore.NewMemoryStore(), nil
	case config.BlobStoreGridFS:
		if mc == nil {
			return nil, fmt.Errorf("gridfs blob store requires a mongo client")
		}
		return blobstore.NewGridFSStore(mc.Database()), nil
	default:
		return nil, fmt.Errorf("unknown blob store %q", cfg.BlobStore)
	}
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		logger := newLogger(nil)
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	logger := newLogger(cfg)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, poolConfig(cfg))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	var mc *mongodb.Client
	if cfg.NeedsMongo() {
		mc, err = mongodb.Connect(ctx, cfg.MongoURL, cfg.MongoDatabase)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to mongodb")
		}
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = mc.Close(closeCtx)
		}()
		logger.Info().Str("database", cfg.MongoDatabase).Msg("connected to mongodb")
	}

	stores, err := buildLedgerStores(cfg, pool, mc)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build ledger stores")
	}
	blobs, err := buildBlobStore(cfg, mc)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build blob store")
	}

	e := newEcho(cfg, logger)
	e.GET("/health/db", db.HealthHandler(pool))
	if mc != nil {
		e.GET("/health/mongo", db.PingHandler("mongo", mc))
	}

	apiV1 := e.Group("/api/v1")
	apiV1.Use(middleware.RateLimit(rateLimitConfig(cfg)))

	// Patients and appointments
	identitySvc := identity.NewService(identity.NewPatientRepoPG(pool), logger)
	identity.NewHandler(identitySvc).RegisterRoutes(apiV1)

	schedulingSvc := scheduling.NewService(scheduling.NewAppointmentRepoPG(pool), identitySvc, logger)
	scheduling.NewHandler(schedulingSvc).RegisterRoutes(apiV1)

	// Vitals, visit summaries and catalogs
	clinicalSvc := clinical.NewService(
		clinical.NewVitalRepoPG(pool),
		clinical.NewSummaryRepoPG(pool),
		clinical.NewCatalogRepoPG(pool),
		cfg.UpcomingVisitDays,
		logger,
	)
	clinical.NewHandler(clinicalSvc).RegisterRoutes(apiV1)

	// Billing ledger
	billingSvc := billing.NewService(stores.records, stores.procBills, stores.counters, stores.billingTx, logger)
	billingSvc.SetConflictRetries(cfg.ConflictRetries)
	billing.NewHandler(billingSvc).RegisterRoutes(apiV1)

	pharmacySvc := pharmacy.NewService(stores.medicines, stores.pharmacyTx, pharmacy.AlertThresholds{
		LowQuantity:      cfg.StockLowThreshold,
		ExpiryWindowDays: cfg.StockExpiryWindowDays,
	}, logger)
	pharmacySvc.Ledger().SetRetries(cfg.ConflictRetries)
	pharmacy.NewHandler(pharmacySvc).RegisterRoutes(apiV1)

	// Images
	blobstore.NewHandler(blobs, logger).RegisterRoutes(apiV1)

	logger.Info().
		Str("ledger_store", cfg.LedgerStore).
		Str("blob_store", cfg.BlobStore).
		Msg("routes registered")

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
