package downloads

import "github.com/labstack/echo/v4"

type Handler interface {
	DownloadStatus() echo.HandlerFunc
	GetFile() echo.HandlerFunc
	ListFiles() echo.HandlerFunc
}
