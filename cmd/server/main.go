package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fadedpez/inkwell/internal/config"
	"github.com/fadedpez/inkwell/internal/logging"
	"github.com/fadedpez/inkwell/pkg/api"
	"github.com/fadedpez/inkwell/pkg/archive"
	"github.com/fadedpez/inkwell/pkg/locks"
	catalogRepo "github.com/fadedpez/inkwell/pkg/repositories/catalog"
	ledgerRepo "github.com/fadedpez/inkwell/pkg/repositories/ledger"
	progressionRepo "github.com/fadedpez/inkwell/pkg/repositories/progression"
	referralRepo "github.com/fadedpez/inkwell/pkg/repositories/referral"
	unlockRepo "github.com/fadedpez/inkwell/pkg/repositories/unlock"
	"github.com/fadedpez/inkwell/pkg/scheduler"
	catalogService "github.com/fadedpez/inkwell/pkg/services/catalog"
	ledgerService "github.com/fadedpez/inkwell/pkg/services/ledger"
	progressionService "github.com/fadedpez/inkwell/pkg/services/progression"
	referralService "github.com/fadedpez/inkwell/pkg/services/referral"
	rewardService "github.com/fadedpez/inkwell/pkg/services/reward"
	unlockService "github.com/fadedpez/inkwell/pkg/services/unlock"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	logLevel := logging.INFO
	if cfg.IsDevelopment() {
		logLevel = logging.DEBUG
	}
	logger := logging.NewLogger(logLevel)

	stores, err := buildRepositories(cfg)
	if err != nil {
		log.Fatalf("Error initializing storage: %v", err)
	}
	defer stores.close()

	userLocks := locks.NewUserLocks()

	ledgerSvc := ledgerService.NewService(stores.ledger)
	unlockSvc := unlockService.NewService(stores.unlocks, ledgerSvc, stores.catalog, userLocks, cfg.Economy.UnlockPrice)
	catalogSvc := catalogService.NewService(stores.catalog, unlockSvc)
	progressionSvc := progressionService.NewService(stores.progression, userLocks)
	rewardSvc := rewardService.NewService(stores.progression, ledgerSvc, userLocks, cfg.Economy)
	referralSvc := referralService.NewService(stores.referrals, ledgerSvc, userLocks, cfg.Economy)

	server := api.NewServer(ledgerSvc, catalogSvc, unlockSvc, progressionSvc, rewardSvc, referralSvc, logger)
	server.EnableMetrics()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.ArchiveEnabled {
		archiveCfg := archive.DefaultConfig()
		archiveCfg.Addresses = cfg.ArchiveAddresses
		arc, err := archive.New(archiveCfg)
		if err != nil {
			logger.Warn("Archive disabled, could not connect to Elasticsearch: %v", err)
		} else {
			server.SetArchive(arc)
			maintenance := scheduler.NewArchiveMaintenanceScheduler(arc)
			maintenance.Start(ctx)
			defer maintenance.Stop()
			logger.Info("Elasticsearch archive enabled at %v", cfg.ArchiveAddresses)
		}
	}

	httpServer := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: server.Handler(),
	}

	go func() {
		logger.Info("Server listening on %s", cfg.ServerAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown: %v", err)
	}
}

// repositories bundles the storage layer so the wiring in main stays flat
type repositories struct {
	ledger      ledgerRepo.Repository
	unlocks     unlockRepo.Repository
	catalog     catalogRepo.Repository
	progression progressionRepo.Repository
	referrals   referralRepo.Repository
}

func (r *repositories) close() {
	r.ledger.Close()
	r.unlocks.Close()
	r.catalog.Close()
	r.progression.Close()
	r.referrals.Close()
}

// buildRepositories selects the storage backend from configuration.
// SQLite failures fall back to in-memory storage so a broken database
// file doesn't keep the whole platform down.
func buildRepositories(cfg *config.Config) (*repositories, error) {
	if cfg.StorageType == "sqlite" {
		stores, err := buildSQLiteRepositories(cfg.SQLitePath)
		if err == nil {
			log.Printf("Using SQLite storage at %s", cfg.SQLitePath)
			return stores, nil
		}
		log.Printf("Error initializing SQLite storage: %v", err)
		log.Println("Falling back to in-memory storage")
	} else {
		log.Println("Using in-memory storage")
	}

	return &repositories{
		ledger:      ledgerRepo.NewMemoryRepository(),
		unlocks:     unlockRepo.NewMemoryRepository(),
		catalog:     catalogRepo.NewMemoryRepository(),
		progression: progressionRepo.NewMemoryRepository(),
		referrals:   referralRepo.NewMemoryRepository(),
	}, nil
}

func buildSQLiteRepositories(dbPath string) (*repositories, error) {
	ledgerStore, err := ledgerRepo.NewSQLiteRepository(dbPath)
	if err != nil {
		return nil, err
	}
	unlockStore, err := unlockRepo.NewSQLiteRepository(dbPath)
	if err != nil {
		return nil, err
	}
	catalogStore, err := catalogRepo.NewSQLiteRepository(dbPath)
	if err != nil {
		return nil, err
	}
	progressionStore, err := progressionRepo.NewSQLiteRepository(dbPath)
	if err != nil {
		return nil, err
	}
	referralStore, err := referralRepo.NewSQLiteRepository(dbPath)
	if err != nil {
		return nil, err
	}

	return &repositories{
		ledger:      ledgerStore,
		unlocks:     unlockStore,
		catalog:     catalogStore,
		progression: progressionStore,
		referrals:   referralStore,
	}, nil
}
