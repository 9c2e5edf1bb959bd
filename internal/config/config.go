package config

import "os"

type LoyaltyServiceConfig struct {
	Port        string
	LoyaltyCfg  PostgresConfig
	BillingCfg  PostgresConfig
	RedisCfg    RedisConfig
	RabbitMQCfg RabbitMQConfig
	PrinterCfg  PrinterConfig
}

type PostgresConfig struct {
	DBname   string
	Username string
	Password string
	Host     string
	Port     string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type RabbitMQConfig struct {
	Username string
	Password string
	Host     string
	Port     string
}

type PrinterConfig struct {
	Host string
	Port string
}

func New() *LoyaltyServiceConfig {
	return &LoyaltyServiceConfig{
		Port: getEnvOrDefault("PORT", "8085"),
		LoyaltyCfg: PostgresConfig{
			DBname:   getEnvOrDefault("LOYALTY_DB", "loyalty"),
			Username: getEnvOrDefault("LOYALTY_DB_USER", "postgres"),
			Password: getEnvOrDefault("LOYALTY_DB_PASSWORD", "postgres"),
			Host:     getEnvOrDefault("LOYALTY_DB_HOST", "localhost"),
			Port:     getEnvOrDefault("LOYALTY_DB_PORT", "5432"),
		},
		BillingCfg: PostgresConfig{
			DBname:   getEnvOrDefault("BILLING_DB", "billing"),
			Username: getEnvOrDefault("BILLING_DB_USER", "postgres"),
			Password: getEnvOrDefault("BILLING_DB_PASSWORD", "postgres"),
			Host:     getEnvOrDefault("BILLING_DB_HOST", "localhost"),
			Port:     getEnvOrDefault("BILLING_DB_PORT", "5432"),
		},
		RedisCfg: RedisConfig{
			Host:     getEnvOrDefault("REDIS_HOST", "localhost"),
			Port:     getEnvOrDefault("REDIS_PORT", "6379"),
			Password: getEnvOrDefault("REDIS_PASSWORD", ""),
			DB:       0,
		},
		RabbitMQCfg: RabbitMQConfig{
			Username: getEnvOrDefault("RABBITMQ_USER", "admin"),
			Password: getEnvOrDefault("RABBITMQ_PWD", "admin"),
			Host:     getEnvOrDefault("RABBITMQ_HOST", "localhost"),
			Port:     getEnvOrDefault("RABBITMQ_PORT", "5672"),
		},
		PrinterCfg: PrinterConfig{
			Host: getEnvOrDefault("PRINTER_HOST", ""),
			Port: getEnvOrDefault("PRINTER_PORT", "9100"),
		},
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
