package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv overlays Config fields from environment variables, loading a .env
// file first when one is present in the working directory. Unset variables
// leave the current value untouched.
func parseEnv(config *Config) {
	// Missing .env is fine; the environment may be set by the runtime.
	_ = godotenv.Load()

	setString := func(dst *string, key string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}

	setString(&config.EndpointAddrHTTP, "ENDPOINT_ADDR_HTTP")
	setString(&config.DatabaseDSN, "DATABASE_DSN")
	setString(&config.SecretKey, "SECRET_KEY")
	setString(&config.ServerBaseURL, "SERVER_BASE_URL")
	setString(&config.SMTPHost, "SMTP_HOST")
	setString(&config.SMTPPort, "SMTP_PORT")
	setString(&config.SMTPUsername, "SMTP_USERNAME")
	setString(&config.SMTPPassword, "SMTP_PASSWORD")
	setString(&config.EmailFrom, "EMAIL_FROM")

	if v, ok := os.LookupEnv("MAX_LOGIN_ATTEMPTS"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			config.MaxLoginAttempts = n
		}
	}
	if v, ok := os.LookupEnv("BCRYPT_COST"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			config.BcryptCost = n
		}
	}
	if v, ok := os.LookupEnv("ACCESS_TOKEN_VALIDITY"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			config.AccessTokenValidityDuration = d
		}
	}
}
