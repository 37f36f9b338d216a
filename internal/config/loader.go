package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/roach88/wallet/internal/format"
)

// EnvConfigPath names the environment variable that selects a TOML file.
const EnvConfigPath = "WALLET_CONFIG"

// DefaultEnvFile is read from the working directory when present.
const DefaultEnvFile = ".env"

// Load builds the configuration. path selects a TOML file; when empty,
// WALLET_CONFIG is consulted, and with neither set no file is read.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	return loadFrom(path, DefaultEnvFile)
}

// loadFrom applies defaults, the TOML file at path (if any), the .env file
// at envFile (if it exists) and the process environment, then validates.
func loadFrom(path, envFile string) (*Config, error) {
	cfg := &Config{}

	if err := applyDefaults(reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if path != "" {
		md, err := toml.DecodeFile(path, cfg)
		if err != nil {
			return nil, fmt.Errorf("config load: %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("config load: %s: unknown keys %v", path, undecoded)
		}
	}

	dotenv, err := readEnvFile(envFile)
	if err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	lookup := func(key string) string {
		// A non-empty real environment value always wins over .env.
		if v := os.Getenv(key); v != "" {
			return v
		}
		return dotenv[key]
	}
	if err := loadStruct(reflect.ValueOf(cfg).Elem(), lookup); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func readEnvFile(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	values, err := godotenv.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return values, nil
}

// applyDefaults sets every field that carries a default tag.
func applyDefaults(v reflect.Value) error {
	return walkFields(v, func(field reflect.StructField, fieldVal reflect.Value) error {
		def := field.Tag.Get("default")
		if def == "" {
			return nil
		}
		if err := setField(fieldVal, def); err != nil {
			return fmt.Errorf("invalid default for %s=%q: %w", field.Name, def, err)
		}
		return nil
	})
}

// loadStruct overrides fields from their env variables when set and non-empty.
func loadStruct(v reflect.Value, lookup func(string) string) error {
	return walkFields(v, func(field reflect.StructField, fieldVal reflect.Value) error {
		envName := field.Tag.Get("env")
		if envName == "" {
			return nil
		}
		value := lookup(envName)
		if value == "" {
			return nil
		}
		if err := setField(fieldVal, value); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", envName, value, err)
		}
		return nil
	})
}

// walkFields calls fn for every settable leaf field, recursing into nested
// structs.
func walkFields(v reflect.Value, fn func(reflect.StructField, reflect.Value) error) error {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldVal := v.Field(i)

		if !fieldVal.CanSet() {
			continue
		}
		if field.Type.Kind() == reflect.Struct && field.Type != reflect.TypeOf(time.Time{}) {
			if err := walkFields(fieldVal, fn); err != nil {
				return err
			}
			continue
		}
		if err := fn(field, fieldVal); err != nil {
			return err
		}
	}
	return nil
}

// setField sets a reflect.Value from a string based on its type.
func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid duration: %w", err)
			}
			field.Set(reflect.ValueOf(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer: %w", err)
			}
			field.SetInt(i)
		}

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}
	return nil
}

// Validate checks that the configuration is usable.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	if strings.TrimSpace(c.Database.Path) == "" {
		errs = append(errs, "WALLET_DB must not be empty")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("WALLET_LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("WALLET_LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if _, err := c.TransferFormat(); err != nil {
		errs = append(errs, fmt.Sprintf("WALLET_FORMAT (%q): %v", c.Transfer.Format, err))
	}
	if c.Transfer.Timeout <= 0 {
		errs = append(errs, "WALLET_TIMEOUT must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// TransferFormat resolves the default interchange format against the
// built-in registry.
func (c *Config) TransferFormat() (format.ID, error) {
	id, err := format.ParseID(c.Transfer.Format)
	if err != nil {
		return "", err
	}
	if _, err := format.Lookup(id); err != nil {
		return "", err
	}
	return id, nil
}
