package config

import (
	"errors"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Logger     Logger
	Downloader DownloaderConfig
	Store      StoreConfig
}

type ServerConfig struct {
	AppVersion string
	Port       string
	Mode       string
}

type Logger struct {
	Development       bool
	DisableCaller     bool
	DisableStacktrace bool
	Encoding          string
	Level             string
}

type DownloaderConfig struct {
	Concurrency    int
	RetryMax       int
	RequestTimeout int
	UserAgent      string
	Referer        string
	MaxCPUUsage    float64
}

type StoreConfig struct {
	Root          string
	TempDir       string
	TTLMinutes    int
	SweepSeconds  int
	MaxTotalBytes int64
}

func LoadConfig(filename string) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigFile(filename)
	v.AddConfigPath(".")
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFound viper.ConfigFileNotFoundError
		if errors.Is(err, configFileNotFound) {
			return nil, errors.New("config file not found")
		}
		return nil, err
	}
	return v, nil
}

func ParseConfig(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	return &c, nil
}
