package config

import (
	"flag"

	"github.com/caarlos0/env/v6"
)

/*
адрес и порт запуска сервиса: переменная окружения ОС RUN_ADDRESS или флаг -a;
адрес подключения к базе данных: переменная окружения ОС DATABASE_URI или флаг -d.
*/

type ServerConfig struct {
	RunAddress  string `env:"RUN_ADDRESS"`
	DatabaseDSN string `env:"DATABASE_URI"`
	// Carriers maps an uppercase carrier code to a tracking URL template with
	// a single %s slot for the escaped tracking number.
	Carriers map[string]string
}

func NewConfig() (*ServerConfig, error) {
	var params ServerConfig
	err := env.Parse(&params)
	if err != nil {
		return nil, err
	}

	var commandLineParams ServerConfig

	flag.StringVar(&commandLineParams.RunAddress, "a", "localhost:8080", "Base address to listen on")
	flag.StringVar(&commandLineParams.DatabaseDSN, "d", "postgres://postgres@localhost:5432/ordertrack?sslmode=disable", "Database DSN")
	flag.Parse()

	if params.RunAddress == "" {
		params.RunAddress = commandLineParams.RunAddress
	}
	if params.DatabaseDSN == "" {
		params.DatabaseDSN = commandLineParams.DatabaseDSN
	}

	params.Carriers = DefaultCarriers()

	return &params, nil
}

func DefaultCarriers() map[string]string {
	return map[string]string{
		"FEDEX": "https://www.fedex.com/fedextrack/?trknbr=%s",
		"UPS":   "https://www.ups.com/track?tracknum=%s",
	}
}
