package main

import (
	"fmt"
	"os"

	"github.com/yungbote/claimsbridge-backend/internal/data/db"
	"github.com/yungbote/claimsbridge-backend/internal/data/repos"
	"github.com/yungbote/claimsbridge-backend/internal/evidence"
	httpserver "github.com/yungbote/claimsbridge-backend/internal/http"
	"github.com/yungbote/claimsbridge-backend/internal/http/handlers"
	"github.com/yungbote/claimsbridge-backend/internal/platform/envutil"
	"github.com/yungbote/claimsbridge-backend/internal/platform/gcp"
	"github.com/yungbote/claimsbridge-backend/internal/platform/logger"
	"github.com/yungbote/claimsbridge-backend/internal/services"
	"github.com/yungbote/claimsbridge-backend/internal/temporalx"
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

	// Repos
	log.Info("Setting up repos from main...")
	allRepos := repos.NewAll(thePG, log)

	// Platform clients
	bucketService, err := gcp.NewBucketService(log)
	if err != nil {
		log.Fatal("Could not init BucketService", "error", err)
	}
	temporalClient, err := temporalx.NewClient(log)
	if err != nil {
		log.Fatal("Could not init Temporal client", "error", err)
	}
	if temporalClient != nil {
		defer temporalClient.Close()
	}

	// Services
	log.Info("Setting up services from main...")
	nexusEngine := evidence.NewNexusEngine(log, thePG, allRepos)
	veteranService := services.NewVeteranService(thePG, log, allRepos)
	documentService := services.NewDocumentService(thePG, log, bucketService, allRepos, temporalClient)
	conditionService := services.NewConditionService(thePG, log, allRepos, nexusEngine)

	// Handlers
	router := httpserver.NewServer(httpserver.RouterConfig{
		VeteranHandler:   handlers.NewVeteranHandler(log, veteranService),
		DocumentHandler:  handlers.NewDocumentHandler(log, documentService),
		ConditionHandler: handlers.NewConditionHandler(log, conditionService),
		HealthHandler:    handlers.NewHealthHandler(),
	})

	addr := fmt.Sprintf(":%s", envutil.GetEnv("API_PORT", "8080", log))
	log.Info("Starting API", "addr", addr)
	if err := router.Run(addr); err != nil {
		log.Fatal("API server exited", "error", err)
	}
}
