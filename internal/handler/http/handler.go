package http

import (
	"github.com/MKhiriev/notero-sync/internal/logger"
	"github.com/MKhiriev/notero-sync/internal/store"
	"github.com/MKhiriev/notero-sync/internal/sync"
	"github.com/MKhiriev/notero-sync/models"
)

type Handler struct {
	store    *store.Store
	poller   *sync.Poller
	importer *sync.Importer

	buildInfo     models.AppBuildInfo
	storageDriver string

	logger *logger.Logger
}

func NewHandler(st *store.Store, poller *sync.Poller, importer *sync.Importer, buildInfo models.AppBuildInfo, storageDriver string, logger *logger.Logger) *Handler {
	logger.Info().Msg("http handler created")
	return &Handler{
		store:         st,
		poller:        poller,
		importer:      importer,
		buildInfo:     buildInfo,
		storageDriver: storageDriver,
		logger:        logger,
	}
}
