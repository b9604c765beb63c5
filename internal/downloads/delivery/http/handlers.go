package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/streampull/stream-downloader/internal/config"
	"github.com/streampull/stream-downloader/internal/downloads"
	"github.com/streampull/stream-downloader/internal/models"
	"github.com/streampull/stream-downloader/pkg/logger"
	"github.com/streampull/stream-downloader/pkg/utils"
)

const closeGracePeriod = time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type downloadsHandler struct {
	cfg         *config.Config
	downloadsUC downloads.UseCase
	store       downloads.FileStore
	logger      logger.Logger
}

func NewDownloadsHandler(cfg *config.Config, downloadsUC downloads.UseCase, store downloads.FileStore, log logger.Logger) downloads.Handler {
	return &downloadsHandler{
		cfg:         cfg,
		downloadsUC: downloadsUC,
		store:       store,
		logger:      log,
	}
}

// DownloadStatus upgrades the connection to a WebSocket, reads exactly one
// download request and streams status messages until the job reaches a
// terminal state. Dropping the connection cancels the job's fetches.
func (h *downloadsHandler) DownloadStatus() echo.HandlerFunc {
	return func(c echo.Context) error {
		ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
		if err != nil {
			return err
		}
		defer ws.Close()

		req := &models.DownloadRequest{}
		if err := ws.ReadJSON(req); err != nil {
			h.closeWithError(ws, "invalid request payload")
			return nil
		}
		if err := utils.ValidateStruct(c.Request().Context(), req); err != nil {
			h.closeWithError(ws, "invalid request: "+err.Error())
			return nil
		}

		// The request context is not watched after the hijack, so a reader
		// goroutine is the drop signal. Further inbound frames are discarded.
		ctx, cancel := context.WithCancel(c.Request().Context())
		defer cancel()
		go func() {
			for {
				if _, _, err := ws.ReadMessage(); err != nil {
					cancel()
					return
				}
			}
		}()

		h.downloadsUC.Run(ctx, req, func(msg models.StatusMessage) {
			if err := ws.WriteJSON(msg); err != nil {
				h.logger.Warnf("DownloadStatus - write failed, cancelling job: %v", err)
				cancel()
			}
		})

		h.sendClose(ws)
		return nil
	}
}

// GetFile serves a stored artifact by id for GET and probes existence for
// HEAD. With ?search=true the id matches as a case-insensitive substring.
func (h *downloadsHandler) GetFile() echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Param("id")

		var artifact *models.Artifact
		var err error
		if c.QueryParam("search") == "true" {
			artifact, err = h.store.LookupByPrefix(id)
		} else {
			artifact, err = h.store.Lookup(id)
		}
		if err != nil {
			if errors.Is(err, downloads.ErrNotFound) {
				return c.JSON(http.StatusNotFound, map[string]string{"error": "file not found"})
			}
			h.logger.Errorf("GetFile - lookup %s: %v", id, err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}

		if c.Request().Method == http.MethodHead {
			c.Response().Header().Set(echo.HeaderContentType, "video/mp4")
			c.Response().Header().Set(echo.HeaderContentLength, strconv.FormatInt(artifact.SizeBytes, 10))
			return c.NoContent(http.StatusOK)
		}

		c.Response().Header().Set(echo.HeaderContentType, "video/mp4")
		return c.Attachment(artifact.Path, artifact.ID)
	}
}

func (h *downloadsHandler) ListFiles() echo.HandlerFunc {
	return func(c echo.Context) error {
		files, err := h.store.List()
		if err != nil {
			h.logger.Errorf("ListFiles: %v", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, models.FileList{Files: files})
	}
}

func (h *downloadsHandler) closeWithError(ws *websocket.Conn, message string) {
	if err := ws.WriteJSON(models.NewErrorStatus(0, message)); err != nil {
		h.logger.Warnf("closeWithError - write: %v", err)
	}
	h.sendClose(ws)
}

func (h *downloadsHandler) sendClose(ws *websocket.Conn) {
	deadline := time.Now().Add(closeGracePeriod)
	_ = ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
}
