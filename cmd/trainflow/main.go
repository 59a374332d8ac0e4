package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Meesho/BharatMLStack/trainflow/internal/configs"
	"github.com/Meesho/BharatMLStack/trainflow/internal/dataset/mockgen"
	"github.com/Meesho/BharatMLStack/trainflow/internal/export"
	"github.com/Meesho/BharatMLStack/trainflow/internal/externalcall"
	"github.com/Meesho/BharatMLStack/trainflow/internal/importer"
	"github.com/Meesho/BharatMLStack/trainflow/internal/repositories/sql/importledger"
	"github.com/Meesho/BharatMLStack/trainflow/internal/repositories/sql/rowstore"
	"github.com/Meesho/BharatMLStack/trainflow/internal/repositories/sql/trainingjob"
	"github.com/Meesho/BharatMLStack/trainflow/internal/trainer"
	"github.com/Meesho/BharatMLStack/trainflow/pkg/infra"
	"github.com/Meesho/BharatMLStack/trainflow/pkg/logger"
	"github.com/Meesho/BharatMLStack/trainflow/pkg/metric"
	"github.com/Meesho/BharatMLStack/trainflow/pkg/neural"
	"github.com/rs/zerolog/log"
)

// AppConfig holds the application configuration.
type AppConfig struct {
	Configs configs.Configs
}

func (cfg *AppConfig) GetStaticConfig() interface{} {
	return &cfg.Configs
}

func main() {
	var appConfig AppConfig

	configs.InitConfig(&appConfig)
	logger.Init(appConfig.Configs)
	metric.Init(appConfig.Configs)
	infra.InitDBConnectors()

	facade, err := infra.SQL.GetConnection()
	if err != nil {
		log.Fatal().Err(err).Msg("SQL connection unavailable")
	}
	connection, ok := facade.(*infra.SQLConnection)
	if !ok {
		log.Fatal().Msg("Unexpected SQL connection facade type")
	}

	ledgerRepo, err := importledger.NewRepository(connection)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize import ledger repository")
	}
	jobRepo, err := trainingjob.NewRepository(connection)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize training job repository")
	}

	var rows trainer.RowSource
	if appConfig.Configs.TrainerMockRowsEnabled {
		log.Warn().Msg("Mock row source enabled, local tables will not be read")
		rows = &mockgen.Source{
			Columns: []string{"age", "income", "score", "category", "label"},
			Seed:    time.Now().UnixNano(),
		}
	} else {
		store, err := rowstore.NewRepository(connection)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize row store")
		}
		rows = store
	}

	importClient := externalcall.NewImportClient(appConfig.Configs.CatalogBaseUrl, appConfig.Configs.CatalogApiKey)
	gate := importer.NewGate(ledgerRepo, importClient)

	var statusRepo trainingjob.Repository
	if appConfig.Configs.TrainerStatusPersistence {
		statusRepo = jobRepo
	}

	orchestrator := trainer.NewOrchestrator(trainer.Options{
		RowSource:  rows,
		Backend:    neural.NewBackend(),
		Resolver:   gate,
		Manifests:  export.NewPackager(),
		StatusRepo: statusRepo,
		FetchLimit: appConfig.Configs.TrainerRowFetchLimit,
		JobTTL:     time.Duration(appConfig.Configs.TrainerJobTtlMinutes) * time.Minute,
	})

	if cronExpr := appConfig.Configs.TrainerEvictionCron; cronExpr != "" {
		if err := orchestrator.StartEvictionScheduler(cronExpr); err != nil {
			log.Fatal().Err(err).Str("cron", cronExpr).Msg("Failed to start eviction scheduler")
		}
	}

	catalog := externalcall.NewCatalogClient(
		appConfig.Configs.CatalogBaseUrl,
		appConfig.Configs.CatalogApiKey,
		time.Duration(appConfig.Configs.CatalogCacheTtlMinutes)*time.Minute,
	)
	if datasets, err := catalog.ListDatasets(""); err != nil {
		log.Warn().Err(err).Msg("Catalog unreachable at startup")
	} else {
		log.Info().Int("datasets", len(datasets)).Msg("Catalog reachable")
	}

	log.Info().Str("app", appConfig.Configs.AppName).Msg("Trainflow started")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	orchestrator.StopEvictionScheduler()
	log.Info().Msg("Trainflow stopped")
}
