package config

import "time"

type Duration struct {
	Duration time.Duration
}

type LogConfig struct {
	Mode      string `yaml:"mode"`
	Level     string `yaml:"level"`
	Redaction bool   `yaml:"redaction"`
	HashSalt  string `yaml:"hash_salt"`
}

type GCPConfig struct {
	ProjectID string `yaml:"project_id"`
	Region    string `yaml:"region"`
	// Credentials is either a path to a service-account key or the inline JSON.
	Credentials string `yaml:"credentials"`
}

type StorageConfig struct {
	// Mode is "gcs" or "gcs_emulator".
	Mode          string   `yaml:"mode"`
	EmulatorHost  string   `yaml:"emulator_host"`
	Bucket        string   `yaml:"bucket"`
	Namespace     string   `yaml:"namespace"`
	PublicBaseURL string   `yaml:"public_base_url"`
	Concurrency   int      `yaml:"concurrency"`
	UploadTimeout Duration `yaml:"upload_timeout"`
}

type CacheConfig struct {
	Model              string   `yaml:"model"`
	DefaultTTL         Duration `yaml:"default_ttl"`
	DefaultInstruction string   `yaml:"default_instruction"`
	DisplayNamePrefix  string   `yaml:"display_name_prefix"`
	// Registry is "memory", "redis" or "none".
	Registry       string `yaml:"registry"`
	RedisAddr      string `yaml:"redis_addr"`
	RedisKeyPrefix string `yaml:"redis_key_prefix"`
}

type PlanConfig struct {
	// ResourceTypeParsing is "strict" or "lenient".
	ResourceTypeParsing string `yaml:"resource_type_parsing"`
	MaxRepairAttempts   int    `yaml:"max_repair_attempts"`
}

type LedgerConfig struct {
	// Driver is "none", "postgres" or "sqlite".
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

type HTTPConfig struct {
	Addr            string   `yaml:"addr"`
	AllowedOrigins  []string `yaml:"allowed_origins"`
	MaxUploadBytes  int64    `yaml:"max_upload_bytes"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

type OtelConfig struct {
	Enabled     bool    `yaml:"enabled"`
	ServiceName string  `yaml:"service_name"`
	Endpoint    string  `yaml:"endpoint"`
	Insecure    bool    `yaml:"insecure"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

type Config struct {
	Environment string        `yaml:"environment"`
	Log         LogConfig     `yaml:"log"`
	GCP         GCPConfig     `yaml:"gcp"`
	Storage     StorageConfig `yaml:"storage"`
	Cache       CacheConfig   `yaml:"cache"`
	Plan        PlanConfig    `yaml:"plan"`
	Ledger      LedgerConfig  `yaml:"ledger"`
	HTTP        HTTPConfig    `yaml:"http"`
	Otel        OtelConfig    `yaml:"otel"`
}

const DefaultInstruction = "You are analyzing course materials including lecture slides, " +
	"textbooks, and curriculum documents. Use these documents to " +
	"generate detailed, accurate lesson plans that align with the " +
	"content and learning objectives presented in the materials."

func Default() Config {
	return Config{
		Environment: "development",
		Log: LogConfig{
			Mode:      "development",
			Level:     "debug",
			Redaction: true,
		},
		GCP: GCPConfig{
			Region: "us-central1",
		},
		Storage: StorageConfig{
			Mode:          "gcs",
			Bucket:        "teacher-assistant-uploads",
			Namespace:     "lesson-materials",
			Concurrency:   4,
			UploadTimeout: Duration{Duration: 2 * time.Minute},
		},
		Cache: CacheConfig{
			Model:              "gemini-2.0-flash-001",
			DefaultTTL:         Duration{Duration: time.Hour},
			DefaultInstruction: DefaultInstruction,
			DisplayNamePrefix:  "lesson-materials",
			Registry:           "memory",
			RedisKeyPrefix:     "curriculum:cache:",
		},
		Plan: PlanConfig{
			ResourceTypeParsing: "strict",
		},
		Ledger: LedgerConfig{
			Driver: "none",
		},
		HTTP: HTTPConfig{
			Addr: ":8080",
			AllowedOrigins: []string{
				"http://localhost:3000",
				"http://localhost:5173",
			},
			MaxUploadBytes:  64 << 20,
			ShutdownTimeout: Duration{Duration: 15 * time.Second},
		},
		Otel: OtelConfig{
			ServiceName: "neurobridge-curriculum",
			SampleRatio: 0.1,
		},
	}
}
