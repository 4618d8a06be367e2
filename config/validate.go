package config

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
)

// Validate checks the configuration for valid values. The returned
// validation.Errors is keyed by the yaml section.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Environment, validation.Required),
		validation.Field(&c.Server),
		validation.Field(&c.Auth),
		validation.Field(&c.Database),
		validation.Field(&c.Log),
	)
}

func (s ServerConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&s.ShutdownTimeout, validation.Min(0)),
	)
}

func (a AuthConfig) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.TokenTTL, validation.Required, validation.Min(0)),
		validation.Field(&a.LookupTimeout, validation.Required, validation.Min(0)),
		validation.Field(&a.TokenLookup, validation.Required),
		validation.Field(&a.AuthScheme, validation.Required),
		validation.Field(&a.SigningKeys, validation.By(validateSigningKeys)),
	)
}

func (d DatabaseConfig) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Driver, validation.Required, validation.In("sqlite", "postgres")),
		validation.Field(&d.DSN, validation.By(func(value any) error {
			if d.Driver == "postgres" && d.DSN == "" {
				return errors.New("is required for postgres")
			}
			return nil
		})),
		validation.Field(&d.MaxOpenConns, validation.Min(0)),
		validation.Field(&d.MaxIdleConns, validation.Min(0)),
	)
}

func (l LogConfig) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Level, validation.Required, validation.In("debug", "info", "warn", "error")),
		validation.Field(&l.Format, validation.Required, validation.In("text", "json")),
	)
}

func validateSigningKeys(value any) error {
	keys, _ := value.(map[string]string)
	for kid, secret := range keys {
		if strings.TrimSpace(kid) == "" || secret == "" {
			return errors.New("must have a key id and a secret")
		}
	}
	return nil
}
