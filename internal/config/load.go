package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/yungbote/neurobridge-curriculum/internal/platform/envutil"
)

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	s := strings.TrimSpace(node.Value)
	if s == "" || s == "null" {
		d.Duration = 0
		return nil
	}
	if dd, err := time.ParseDuration(s); err == nil {
		d.Duration = dd
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("duration must be a string like \"1h\" or integer seconds: %q", s)
	}
	d.Duration = time.Duration(n) * time.Second
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// Load builds a Config from defaults, an optional YAML file, an optional .env file
// and environment overrides, in that order. An empty path falls back to
// CURRICULUM_CONFIG_PATH.
func Load(path string) (Config, error) {
	cfg := Default()

	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	path = strings.TrimSpace(path)
	if path == "" {
		path = envutil.String("CURRICULUM_CONFIG_PATH", "")
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Environment = envutil.String("APP_ENV", cfg.Environment)
	cfg.Log.Mode = envutil.String("LOG_MODE", cfg.Log.Mode)
	cfg.Log.Level = envutil.String("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Redaction = envutil.Bool("LOG_REDACTION_ENABLED", cfg.Log.Redaction)
	cfg.Log.HashSalt = envutil.String("LOG_HASH_SALT", cfg.Log.HashSalt)

	cfg.GCP.ProjectID = envutil.String("GOOGLE_CLOUD_PROJECT", cfg.GCP.ProjectID)
	cfg.GCP.Region = envutil.String("GOOGLE_CLOUD_REGION", cfg.GCP.Region)
	cfg.GCP.Credentials = envutil.String("GOOGLE_APPLICATION_CREDENTIALS", cfg.GCP.Credentials)
	cfg.GCP.Credentials = envutil.String("GOOGLE_APPLICATION_CREDENTIALS_JSON", cfg.GCP.Credentials)

	cfg.Storage.Mode = envutil.String("OBJECT_STORAGE_MODE", cfg.Storage.Mode)
	cfg.Storage.EmulatorHost = envutil.String("STORAGE_EMULATOR_HOST", cfg.Storage.EmulatorHost)
	cfg.Storage.Bucket = envutil.String("MATERIAL_GCS_BUCKET_NAME", cfg.Storage.Bucket)
	cfg.Storage.Namespace = envutil.String("MATERIAL_NAMESPACE", cfg.Storage.Namespace)
	cfg.Storage.PublicBaseURL = envutil.String("OBJECT_STORAGE_PUBLIC_BASE_URL", cfg.Storage.PublicBaseURL)
	cfg.Storage.Concurrency = envutil.Int("MATERIAL_UPLOAD_CONCURRENCY", cfg.Storage.Concurrency)
	cfg.Storage.UploadTimeout.Duration = envutil.Duration("MATERIAL_UPLOAD_TIMEOUT", cfg.Storage.UploadTimeout.Duration)

	cfg.Cache.Model = envutil.String("SPECIALIST_MODEL", cfg.Cache.Model)
	cfg.Cache.DefaultTTL.Duration = envutil.Duration("CACHE_DEFAULT_TTL", cfg.Cache.DefaultTTL.Duration)
	cfg.Cache.Registry = envutil.String("CACHE_REGISTRY", cfg.Cache.Registry)
	cfg.Cache.RedisAddr = envutil.String("REDIS_ADDR", cfg.Cache.RedisAddr)
	cfg.Cache.RedisKeyPrefix = envutil.String("REDIS_KEY_PREFIX", cfg.Cache.RedisKeyPrefix)

	cfg.Plan.ResourceTypeParsing = envutil.String("RESOURCE_TYPE_PARSING", cfg.Plan.ResourceTypeParsing)
	cfg.Plan.MaxRepairAttempts = envutil.Int("PLAN_MAX_REPAIR_ATTEMPTS", cfg.Plan.MaxRepairAttempts)

	cfg.Ledger.Driver = envutil.String("LEDGER_DRIVER", cfg.Ledger.Driver)
	cfg.Ledger.DSN = envutil.String("LEDGER_DSN", cfg.Ledger.DSN)

	cfg.HTTP.Addr = envutil.String("HTTP_ADDR", cfg.HTTP.Addr)
	cfg.HTTP.AllowedOrigins = envutil.List("HTTP_ALLOWED_ORIGINS", cfg.HTTP.AllowedOrigins)
	cfg.HTTP.MaxUploadBytes = envutil.Int64("HTTP_MAX_UPLOAD_BYTES", cfg.HTTP.MaxUploadBytes)
	cfg.HTTP.ShutdownTimeout.Duration = envutil.Duration("HTTP_SHUTDOWN_TIMEOUT", cfg.HTTP.ShutdownTimeout.Duration)

	cfg.Otel.Enabled = envutil.Bool("OTEL_ENABLED", cfg.Otel.Enabled)
	cfg.Otel.ServiceName = envutil.String("OTEL_SERVICE_NAME", cfg.Otel.ServiceName)
	cfg.Otel.Endpoint = envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Otel.Endpoint)
	cfg.Otel.Insecure = envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", cfg.Otel.Insecure)
	cfg.Otel.SampleRatio = envutil.Float("OTEL_SAMPLER_RATIO", cfg.Otel.SampleRatio)
}

func (c Config) Validate() error {
	var errs []error
	switch strings.ToLower(strings.TrimSpace(c.Storage.Mode)) {
	case "", "gcs", "gcs_emulator":
	default:
		errs = append(errs, fmt.Errorf("storage.mode=%q (allowed: gcs, gcs_emulator, or empty to infer)", c.Storage.Mode))
	}
	if c.HTTP.MaxUploadBytes < 1 {
		errs = append(errs, fmt.Errorf("http.max_upload_bytes must be >= 1 (got %d)", c.HTTP.MaxUploadBytes))
	}
	if strings.TrimSpace(c.Storage.Bucket) == "" {
		errs = append(errs, errors.New("storage.bucket is required"))
	}
	if strings.Trim(strings.TrimSpace(c.Storage.Namespace), "/") == "" {
		errs = append(errs, errors.New("storage.namespace is required"))
	}
	if c.Storage.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("storage.concurrency must be >= 1 (got %d)", c.Storage.Concurrency))
	}
	if strings.TrimSpace(c.Cache.Model) == "" {
		errs = append(errs, errors.New("cache.model is required"))
	}
	if c.Cache.DefaultTTL.Duration <= 0 {
		errs = append(errs, fmt.Errorf("cache.default_ttl must be positive (got %s)", c.Cache.DefaultTTL.Duration))
	}
	switch c.Cache.Registry {
	case "memory", "none":
	case "redis":
		if strings.TrimSpace(c.Cache.RedisAddr) == "" {
			errs = append(errs, errors.New("cache.redis_addr is required when cache.registry=redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("cache.registry=%q (allowed: memory, redis, none)", c.Cache.Registry))
	}
	switch c.Plan.ResourceTypeParsing {
	case "strict", "lenient":
	default:
		errs = append(errs, fmt.Errorf("plan.resource_type_parsing=%q (allowed: strict, lenient)", c.Plan.ResourceTypeParsing))
	}
	if c.Plan.MaxRepairAttempts < 0 {
		errs = append(errs, fmt.Errorf("plan.max_repair_attempts must be >= 0 (got %d)", c.Plan.MaxRepairAttempts))
	}
	switch c.Ledger.Driver {
	case "none":
	case "postgres", "sqlite":
		if strings.TrimSpace(c.Ledger.DSN) == "" {
			errs = append(errs, fmt.Errorf("ledger.dsn is required when ledger.driver=%s", c.Ledger.Driver))
		}
	default:
		errs = append(errs, fmt.Errorf("ledger.driver=%q (allowed: none, postgres, sqlite)", c.Ledger.Driver))
	}
	if c.Otel.SampleRatio < 0 || c.Otel.SampleRatio > 1 {
		errs = append(errs, fmt.Errorf("otel.sample_ratio must be within [0,1] (got %v)", c.Otel.SampleRatio))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
