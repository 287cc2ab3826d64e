// Package config loads the nodewire configuration file.
//
// The file is TOML, found at $XDG_CONFIG_HOME/nodewire/config.toml or
// ~/.config/nodewire/config.toml. Every setting has a default, so a missing
// file is not an error:
//
//	[layout]
//	engine = "graphviz"      # graphviz | grid | none
//	policy = "batch"         # batch | each-insert | off
//	cache = "file"           # file | redis | none
//	cache_ttl = "168h"
//
//	[storage]
//	backend = "file"         # file | redis | mongo
//	redis_addr = "localhost:6379"
//	redis_key = "nodewire:doc:"
//	mongo_uri = "mongodb://localhost:27017"
//	mongo_database = "nodewire"
//	mongo_collection = "documents"
//
//	[server]
//	addr = ":8080"
//
//	[kinds]
//	file = "my-kinds.toml"   # extra node definitions
//
// [Config.Validate] checks the values with go-playground/validator struct
// tags.
package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"

	"github.com/matzehuels/nodewire/pkg/errors"
)

const appName = "nodewire"

// Config is the full configuration.
type Config struct {
	Layout  Layout  `toml:"layout"`
	Storage Storage `toml:"storage"`
	Server  Server  `toml:"server"`
	Kinds   Kinds   `toml:"kinds"`
}

// Layout configures automatic layout.
type Layout struct {
	Engine   string        `toml:"engine" validate:"oneof=graphviz grid none"`
	Policy   string        `toml:"policy" validate:"oneof=batch each-insert off"`
	Cache    string        `toml:"cache" validate:"oneof=file redis none"`
	CacheTTL time.Duration `toml:"cache_ttl" validate:"gte=0"`
}

// Storage configures the remote document store used by push and pull.
type Storage struct {
	Backend         string `toml:"backend" validate:"oneof=file redis mongo"`
	Dir             string `toml:"dir"`
	RedisAddr       string `toml:"redis_addr" validate:"required_if=Backend redis"`
	RedisKey        string `toml:"redis_key"`
	MongoURI        string `toml:"mongo_uri" validate:"required_if=Backend mongo"`
	MongoDatabase   string `toml:"mongo_database"`
	MongoCollection string `toml:"mongo_collection"`
}

// Server configures nodewire serve.
type Server struct {
	Addr string `toml:"addr" validate:"required,hostname_port|startswith=:"`
}

// Kinds points at extra node definitions.
type Kinds struct {
	File string `toml:"file"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Layout: Layout{
			Engine:   "graphviz",
			Policy:   "batch",
			Cache:    "file",
			CacheTTL: 7 * 24 * time.Hour,
		},
		Storage: Storage{
			Backend:         "file",
			RedisAddr:       "localhost:6379",
			RedisKey:        "nodewire:doc:",
			MongoURI:        "mongodb://localhost:27017",
			MongoDatabase:   "nodewire",
			MongoCollection: "documents",
		},
		Server: Server{Addr: ":8080"},
	}
}

// DefaultPath returns the default configuration file path.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeExternalIO, err, "get home dir")
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// Load reads the configuration at path over the defaults. An empty path
// means [DefaultPath], which may be absent. An explicit path must exist.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return cfg, errors.Wrap(errors.ErrCodeExternalIO, err, "read config %s", path)
	}
	if err := Decode(data, &cfg); err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidInput, err, "config %s", path)
	}

	// Relative kinds files are relative to the config file.
	if cfg.Kinds.File != "" && !filepath.IsAbs(cfg.Kinds.File) {
		cfg.Kinds.File = filepath.Join(filepath.Dir(path), cfg.Kinds.File)
	}
	return cfg, nil
}

// Decode parses TOML over cfg and validates the result. Unknown keys are
// errors.
func Decode(data []byte, cfg *Config) error {
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "parse config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return errors.New(errors.ErrCodeInvalidInput, "unknown config keys: %s", strings.Join(keys, ", "))
	}
	return cfg.Validate()
}

// =============================================================================
// Validation
// =============================================================================

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("toml"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		cfg := sl.Current().Interface().(Config)
		if cfg.Layout.Cache == "redis" && cfg.Storage.RedisAddr == "" {
			sl.ReportError(cfg.Storage.RedisAddr, "redis_addr", "RedisAddr", "required_for_redis_cache", "")
		}
	}, Config{})
	return v
}

// Validate checks every field against its constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}
	return nil
}

func formatValidationError(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "validate config")
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, formatFieldError(e))
	}
	return errors.New(errors.ErrCodeInvalidInput, "%s", strings.Join(msgs, "; "))
}

func formatFieldError(e validator.FieldError) string {
	field := strings.TrimPrefix(e.Namespace(), "Config.")
	switch e.Tag() {
	case "required", "required_if":
		return field + " is required"
	case "oneof":
		return field + " must be one of: " + strings.ReplaceAll(e.Param(), " ", ", ")
	case "required_for_redis_cache":
		return field + " is required when layout.cache is redis"
	default:
		return field + " is invalid"
	}
}
