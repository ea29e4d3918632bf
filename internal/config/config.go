package config

import (
	"fmt"
	"os"
)

// Config is populated from the environment with sensible local defaults.
type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	ServerPort string
	// StorageDriver selects the persistence adapter: "postgres" (default)
	// or "memory" for the in-process reference store.
	StorageDriver string
	BankName      string
	DefaultBranch string
}

func Load() *Config {
	return &Config{
		DBHost:        getEnv("DB_HOST", "localhost"),
		DBPort:        getEnv("DB_PORT", "5432"),
		DBUser:        getEnv("DB_USER", "postgres"),
		DBPassword:    getEnv("DB_PASSWORD", "password"),
		DBName:        getEnv("DB_NAME", "bankledger"),
		ServerPort:    getEnv("SERVER_PORT", "8080"),
		StorageDriver: getEnv("STORAGE_DRIVER", "postgres"),
		BankName:      getEnv("BANK_NAME", "Kgalagadi Retail Bank"),
		DefaultBranch: getEnv("DEFAULT_BRANCH", "Main Branch"),
	}
}

func (c *Config) GetDBConnectionString() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
