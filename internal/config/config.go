// Package config loads runtime configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the full runtime configuration.
type Config struct {
	// Env selects log formatting and gateway sandboxes: development, production.
	Env string `mapstructure:"env" validate:"required,oneof=development production test"`

	// PublicBaseURL is the externally reachable origin callbacks are built on.
	PublicBaseURL string `mapstructure:"public_base_url" validate:"required,url"`

	HTTP     HTTPConfig     `mapstructure:"http"`
	Database DatabaseConfig `mapstructure:"database"`
	NATS     NATSConfig     `mapstructure:"nats"`
	Payment  PaymentPages   `mapstructure:"payment"`

	Bkash      GatewayConfig `mapstructure:"bkash"`
	Nagad      GatewayConfig `mapstructure:"nagad"`
	SSLCommerz GatewayConfig `mapstructure:"sslcommerz"`
	Rocket     GatewayConfig `mapstructure:"rocket"`
}

type HTTPConfig struct {
	Addr            string        `mapstructure:"addr" validate:"required"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	URL      string `mapstructure:"url" validate:"required"`
	MaxConns int32  `mapstructure:"max_conns" validate:"min=1"`
}

type NATSConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// PaymentPages are the storefront pages browser payment callbacks land on.
// Relative paths resolve against the storefront origin.
type PaymentPages struct {
	SuccessURL string `mapstructure:"success_url" validate:"required"`
	FailureURL string `mapstructure:"failure_url" validate:"required"`
}

// GatewayConfig is one payment provider's credentials. Field meaning varies
// by provider: bKash uses Key/Secret/Username/Password, Nagad uses
// MerchantID/Secret, SSLCommerz uses MerchantID (store id) and Password, and
// Rocket uses MerchantID/Key/Secret. Disabled gateways are not registered.
type GatewayConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	BaseURL    string        `mapstructure:"base_url"`
	MerchantID string        `mapstructure:"merchant_id"`
	Key        string        `mapstructure:"key"`
	Secret     string        `mapstructure:"secret"`
	Username   string        `mapstructure:"username"`
	Password   string        `mapstructure:"password"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("DOKAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	bindKeys(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the loaded configuration. Gateway credential completeness
// is checked by the adapter constructors; this only guards the core fields.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var errs validator.ValidationErrors
		if errors.As(err, &errs) {
			msgs := make([]string, 0, len(errs))
			for _, fe := range errs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("config: invalid: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("config: invalid: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")
	v.SetDefault("public_base_url", "http://localhost:8080")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.read_timeout", 10*time.Second)
	v.SetDefault("http.write_timeout", 30*time.Second)
	v.SetDefault("http.shutdown_timeout", 15*time.Second)
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("payment.success_url", "/checkout/success")
	v.SetDefault("payment.failure_url", "/checkout/failure")

	for _, gw := range []string{"bkash", "nagad", "sslcommerz", "rocket"} {
		v.SetDefault(gw+".enabled", false)
		v.SetDefault(gw+".timeout", 30*time.Second)
	}
}

// bindKeys registers every key with viper so AutomaticEnv picks up variables
// that have no default, like database.url.
func bindKeys(v *viper.Viper) {
	keys := []string{
		"env", "public_base_url",
		"http.addr", "http.read_timeout", "http.write_timeout", "http.shutdown_timeout",
		"database.url", "database.max_conns",
		"nats.url",
		"payment.success_url", "payment.failure_url",
	}
	gatewayKeys := []string{"enabled", "base_url", "merchant_id", "key", "secret", "username", "password", "timeout"}
	for _, gw := range []string{"bkash", "nagad", "sslcommerz", "rocket"} {
		for _, k := range gatewayKeys {
			keys = append(keys, gw+"."+k)
		}
	}
	for _, key := range keys {
		// viper's AutomaticEnv only resolves keys it knows about.
		_ = v.BindEnv(key)
	}
}
