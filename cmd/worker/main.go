package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/yungbote/claimsbridge-backend/internal/data/db"
	"github.com/yungbote/claimsbridge-backend/internal/data/repos"
	"github.com/yungbote/claimsbridge-backend/internal/evidence"
	"github.com/yungbote/claimsbridge-backend/internal/extraction"
	"github.com/yungbote/claimsbridge-backend/internal/platform/gcp"
	"github.com/yungbote/claimsbridge-backend/internal/platform/logger"
	"github.com/yungbote/claimsbridge-backend/internal/platform/openai"
	"github.com/yungbote/claimsbridge-backend/internal/services"
	"github.com/yungbote/claimsbridge-backend/internal/temporalx"
	"github.com/yungbote/claimsbridge-backend/internal/temporalx/temporalworker"
)

func main() {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Fatal("Postgres init failed", "error", err)
	}
	thePG := postgresService.DB()
	if err := db.AutoMigrateAll(thePG); err != nil {
		log.Fatal("Postgres auto migration failed", "error", err)
	}
	allRepos := repos.NewAll(thePG, log)

	// Platform clients
	bucketService, err := gcp.NewBucketService(log)
	if err != nil {
		log.Fatal("Could not init BucketService", "error", err)
	}
	ocr, err := gcp.NewDocument(log)
	if err != nil {
		log.Fatal("Could not init Document AI", "error", err)
	}
	defer ocr.Close()
	aiClient, err := openai.NewClient(log)
	if err != nil {
		log.Fatal("Could not init OpenAI client", "error", err)
	}

	// Pipeline components
	extractor, err := extraction.NewExtractor(log, ocr, aiClient)
	if err != nil {
		log.Fatal("Could not init extractor", "error", err)
	}
	writer := evidence.NewWriter(log, allRepos.Conditions)
	associator := evidence.NewAssociator(log, thePG, aiClient, allRepos)
	visits := evidence.NewVisitProcessor(log, thePG, writer, associator)
	nexus := evidence.NewNexusEngine(log, thePG, allRepos)

	// Seed the eligibility tag catalog before taking work.
	tagCatalog := services.NewTagCatalogService(thePG, log, aiClient, allRepos.Tags)
	if err := tagCatalog.Seed(context.Background()); err != nil {
		log.Warn("Tag catalog seed failed", "error", err)
	}

	// Temporal
	temporalClient, err := temporalx.NewClient(log)
	if err != nil {
		log.Fatal("Could not init Temporal client", "error", err)
	}
	if temporalClient == nil {
		log.Fatal("TEMPORAL_ADDRESS is required for the worker")
	}
	defer temporalClient.Close()

	runner, err := temporalworker.NewRunner(log, temporalClient, thePG, allRepos, bucketService, extractor, visits, nexus)
	if err != nil {
		log.Fatal("Could not init Temporal worker", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := runner.Start(ctx); err != nil {
		log.Fatal("Temporal worker failed to start", "error", err)
	}
	log.Info("Worker running")
	<-ctx.Done()
	log.Info("Worker shutting down")
}
