package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/MKhiriev/notero-sync/internal/adapter"
	"github.com/MKhiriev/notero-sync/internal/config"
	handler "github.com/MKhiriev/notero-sync/internal/handler/http"
	"github.com/MKhiriev/notero-sync/internal/logger"
	"github.com/MKhiriev/notero-sync/internal/store"
	"github.com/MKhiriev/notero-sync/internal/sync"
	"github.com/MKhiriev/notero-sync/internal/workers"
	"github.com/MKhiriev/notero-sync/models"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	printBuildInfo()

	log := logger.NewLogger("notero-sync")
	cfg, err := config.GetStructuredConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("error getting configs")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, err := store.NewStateBackend(ctx, cfg.Storage.DSN, cfg.Storage.StateFile, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating state backend")
	}

	st, err := store.NewStore(ctx, backend, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error loading sync state")
	}

	notion := adapter.NewNotionClient(adapter.NotionClientConfig{
		BaseURL: cfg.Notion.BaseURL,
		APIKey:  cfg.Notion.APIKey,
		Timeout: cfg.Server.RequestTimeout,
	})
	zotero := adapter.NewZoteroClient(adapter.ZoteroClientConfig{
		BaseURL: cfg.Zotero.BaseURL,
		APIKey:  cfg.Zotero.APIKey,
		Timeout: cfg.Server.RequestTimeout,
	})

	resolver := sync.NewCollectionResolver(zotero, st, log)
	engine := sync.NewEngine(notion, zotero, st, resolver, cfg.Sync.OriginTag, log)
	notes := sync.NewNoteEngine(notion, zotero, st, cfg.Sync.NotesHeading, cfg.Sync.OriginTag, cfg.Sync.DeleteOrphanedNotes, log)
	poller := sync.NewPoller(notion, engine, notes, st, cfg.Notion.DatabaseID, log)
	importer := sync.NewImporter(notion, zotero, st, resolver, cfg.Notion.DatabaseID, cfg.Zotero.GroupID, log)

	buildInfo := models.NewAppBuildInfo(buildVersion, buildDate, buildCommit)
	handlers := handler.NewHandler(st, poller, importer, buildInfo, storageDriver(cfg.Storage.DSN), log)

	server := &http.Server{
		Addr:         cfg.Server.HTTPAddress,
		Handler:      handlers.Init(),
		ReadTimeout:  cfg.Server.RequestTimeout,
		WriteTimeout: cfg.Server.RequestTimeout,
	}

	go func() {
		log.Info().Str("address", cfg.Server.HTTPAddress).Msg("http server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server error")
		}
	}()

	syncWorker := sync.NewSyncWorker(ctx, poller, cfg.Sync.PollInterval, log)
	workers.NewWorkers(syncWorker).Run()

	<-ctx.Done()
	log.Info().Msg("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Err(err).Msg("http server shutdown error")
	}
	if err := st.Save(shutdownCtx); err != nil {
		log.Err(err).Msg("error saving sync state on shutdown")
	}
	if err := st.Close(); err != nil {
		log.Err(err).Msg("error closing state backend")
	}

	log.Info().Msg("shutdown complete")
}

// storageDriver names the backend selected by the DSN for status reporting.
func storageDriver(dsn string) string {
	switch {
	case dsn == "":
		return "file"
	case strings.HasPrefix(dsn, "postgres"):
		return "postgres"
	case strings.HasPrefix(dsn, "sqlite"):
		return "sqlite"
	default:
		return "unknown"
	}
}

func printBuildInfo() {
	if buildVersion == "" {
		buildVersion = "N/A"
	}
	if buildDate == "" {
		buildDate = "N/A"
	}
	if buildCommit == "" {
		buildCommit = "N/A"
	}

	fmt.Printf("Build version: %s\n", buildVersion)
	fmt.Printf("Build date: %s\n", buildDate)
	fmt.Printf("Build commit: %s\n", buildCommit)
}
