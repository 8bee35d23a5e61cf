package config

import (
	"encoding/json"
	"os"
	"time"

	"userhub/internal/flagx"
	"userhub/internal/timex"
)

// JsonConfig is the JSON-file view of Config. It uses timex.Duration for
// interval fields, which allows parsing both string values such as "30m" and
// integer nanoseconds. Values are copied into the runtime Config after
// unmarshalling.
type JsonConfig struct {
	EndpointAddrHTTP            string         `json:"endpoint_addr_http"`
	DatabaseDSN                 string         `json:"database_dsn"`
	SecretKey                   string         `json:"secret_key"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration"`
	MaxLoginAttempts            int            `json:"max_login_attempts"`
	BcryptCost                  int            `json:"bcrypt_cost"`
	ServerBaseURL               string         `json:"server_base_url"`
	SMTPHost                    string         `json:"smtp_host"`
	SMTPPort                    string         `json:"smtp_port"`
	SMTPUsername                string         `json:"smtp_username"`
	SMTPPassword                string         `json:"smtp_password"`
	EmailFrom                   string         `json:"email_from"`
}

// parseJson loads configuration values from the JSON file named by the
// -c/-config flags into the provided Config. If no flag is set, nothing is
// loaded. Unreadable or invalid files panic: a misconfigured server should
// not start.
func parseJson(config *Config) {

	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	config.EndpointAddrHTTP = c.EndpointAddrHTTP
	config.DatabaseDSN = c.DatabaseDSN
	config.SecretKey = c.SecretKey
	config.AccessTokenValidityDuration = time.Duration(c.AccessTokenValidityDuration.Duration)
	config.MaxLoginAttempts = c.MaxLoginAttempts
	config.BcryptCost = c.BcryptCost
	config.ServerBaseURL = c.ServerBaseURL
	config.SMTPHost = c.SMTPHost
	config.SMTPPort = c.SMTPPort
	config.SMTPUsername = c.SMTPUsername
	config.SMTPPassword = c.SMTPPassword
	config.EmailFrom = c.EmailFrom
}
