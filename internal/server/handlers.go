package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	downloadsHttp "github.com/streampull/stream-downloader/internal/downloads/delivery/http"
	"github.com/streampull/stream-downloader/internal/downloads/fetcher"
	"github.com/streampull/stream-downloader/internal/downloads/repository"
	"github.com/streampull/stream-downloader/internal/downloads/resolver"
	"github.com/streampull/stream-downloader/internal/downloads/usecase"
	"github.com/streampull/stream-downloader/internal/worker"
	"github.com/streampull/stream-downloader/pkg/utils"
)

func (s *Server) MapHandlers(e *echo.Echo) error {
	store, err := repository.NewDiskStore(s.cfg, s.logger)
	if err != nil {
		return err
	}
	s.store = store

	segmentFetcher := fetcher.NewHTTPFetcher(s.cfg, nil, s.logger)
	playlistResolver := resolver.NewHLSResolver(s.cfg, nil, s.logger)
	engine := worker.NewEngine(s.cfg, segmentFetcher, s.logger)
	assembler := worker.NewAssembler(s.logger)
	manager := usecase.NewJobManager()

	downloadsUC := usecase.NewDownloadsUseCase(s.cfg, manager, playlistResolver, engine, assembler, store, s.logger)
	downloadsHandlers := downloadsHttp.NewDownloadsHandler(s.cfg, downloadsUC, store, s.logger)

	root := e.Group("")
	downloadsHttp.MapDownloadsRoutes(root, downloadsHandlers)

	e.GET("/health", func(c echo.Context) error {
		s.logger.Infof("Health check RequestID: %s", utils.GetRequestID(c))
		return c.JSON(http.StatusOK, map[string]string{"status": "OK"})
	})
	return nil
}
