package config

import (
	"log"
	"os"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"github.com/customeros/mailchecker/internal/logger"
	"github.com/customeros/mailchecker/internal/tracing"
)

type Config struct {
	AppConfig    *AppConfig
	Logger       *logger.Config
	Tracing      *tracing.JaegerConfig
	NotifyConfig *NotifyConfig
}

func InitConfig() (*Config, error) {
	config := &Config{
		AppConfig:    &AppConfig{},
		Logger:       &logger.Config{},
		Tracing:      &tracing.JaegerConfig{},
		NotifyConfig: &NotifyConfig{},
	}

	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		log.Printf("Unable to load .env file: %v", err)
	}

	err = env.Parse(config)
	if err != nil {
		return nil, errors.Wrap(err, "loading mailchecker config")
	}

	return config, nil
}
