package main

import (
	"log"
	"os"

	"github.com/streampull/stream-downloader/internal/config"
	"github.com/streampull/stream-downloader/internal/server"
	"github.com/streampull/stream-downloader/pkg/logger"
)

func main() {
	log.Println("Starting server")

	configFile := "config.yml"
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		configFile = path
	}

	cfgFile, err := config.LoadConfig(configFile)
	if err != nil {
		log.Fatalf("loadConfig: %v", err)
	}
	cfg, err := config.ParseConfig(cfgFile)
	if err != nil {
		log.Fatalf("parseConfig: %v", err)
	}

	appLogger := logger.NewApiLogger(cfg)
	appLogger.InitLogger()
	appLogger.Infof("AppVersion: %s, LogLevel: %s, Mode: %s", cfg.Server.AppVersion, cfg.Logger.Level, cfg.Server.Mode)

	s := server.NewServer(cfg, appLogger)
	if err = s.Run(); err != nil {
		appLogger.Fatalf("could not start server: %s", err)
	}
}
