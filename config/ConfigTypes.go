package config

type config struct {
	Exchange    ExchangeConfig
	Database    DatabaseConfig
	MetricsAddr string
	Demo        DemoConfig
}

type ExchangeConfig struct {
	APIKey    string
	SecretKey string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

type DemoConfig struct {
	Bars           int
	InitialBalance string
}
