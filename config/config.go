package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

func Load() (*config, error) {
	// A missing .env is fine; the environment may carry everything.
	_ = godotenv.Load()

	return &config{
		Exchange: ExchangeConfig{
			APIKey:    os.Getenv("BINANCE_API_KEY"),
			SecretKey: os.Getenv("BINANCE_SECRET_KEY"),
		},
		Database: DatabaseConfig{
			Host:     os.Getenv("DB_HOST"),
			Port:     EnvtoInt(os.Getenv("DB_PORT")),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			DBName:   os.Getenv("DB_NAME"),
		},
		MetricsAddr: os.Getenv("METRICS_ADDR"),
		Demo: DemoConfig{
			Bars:           envOrInt("DEMO_BARS", 60),
			InitialBalance: envOr("DEMO_INITIAL_BALANCE", "100000"),
		},
	}, nil
}

// helper env(string) to int
func EnvtoInt(s string) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return i
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}
