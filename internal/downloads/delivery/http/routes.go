package http

import (
	"github.com/labstack/echo/v4"

	"github.com/streampull/stream-downloader/internal/downloads"
)

func MapDownloadsRoutes(group *echo.Group, h downloads.Handler) {
	group.GET("/download/status", h.DownloadStatus())
	group.GET("/files", h.ListFiles())
	group.GET("/file/:id", h.GetFile())
	group.HEAD("/file/:id", h.GetFile())
}
