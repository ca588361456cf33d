package config

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"

	"github.com/yoockh/brdextractor/internal/utils"
)

const (
	STTAssemblyAI = "assemblyai"
	STTWhisper    = "whisper"

	LLMOpenAI = "openai"
	LLMVertex = "vertex"
)

// Config is built once at startup and handed to every component that needs it.
type Config struct {
	Port    string `env:"PORT" envDefault:"8080"`
	GinMode string `env:"GIN_MODE" envDefault:"release"`

	OpenAIAPIKey     string `env:"OPENAI_API_KEY"`
	AssemblyAIAPIKey string `env:"ASSEMBLYAI_API_KEY"`

	STTProvider string `env:"STT_PROVIDER" envDefault:"assemblyai"`
	LLMProvider string `env:"LLM_PROVIDER" envDefault:"openai"`
	LLMModel    string `env:"LLM_MODEL" envDefault:"o1-mini"`

	VertexProjectID string `env:"VERTEX_PROJECT_ID"`
	VertexLocation  string `env:"VERTEX_LOCATION" envDefault:"us-central1"`
	VertexModel     string `env:"VERTEX_MODEL" envDefault:"gemini-1.5-flash"`

	FFmpegPath        string        `env:"FFMPEG_PATH" envDefault:"ffmpeg"`
	TempDir           string        `env:"TEMP_DIR"`
	MaxUploadMB       int64         `env:"MAX_UPLOAD_MB" envDefault:"500"`
	AllowedExtensions []string      `env:"ALLOWED_EXTENSIONS" envDefault:"mp4,mkv,mov" envSeparator:","`
	PipelineTimeout   time.Duration `env:"PIPELINE_TIMEOUT" envDefault:"30m"`

	ResultTTL time.Duration `env:"RESULT_TTL" envDefault:"1h"`
	RedisAddr string        `env:"REDIS_ADDR"`

	RateLimitRPM   int `env:"RATE_LIMIT_RPM" envDefault:"10"`
	RateLimitBurst int `env:"RATE_LIMIT_BURST" envDefault:"3"`

	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile       string `env:"LOG_FILE"`
	LogMaxSizeMB  int    `env:"LOG_MAX_SIZE_MB" envDefault:"10"`
	LogMaxBackups int    `env:"LOG_MAX_BACKUPS" envDefault:"3"`
	LogMaxAgeDays int    `env:"LOG_MAX_AGE_DAYS" envDefault:"28"`
}

// Load reads an optional .env file and then the process environment.
// It does not validate; call Validate before building providers.
func Load() (*Config, error) {
	const op = "config.Load"

	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, utils.E(utils.CodeInvalidArgument, op, "invalid environment", err)
	}
	cfg.normalize()
	return cfg, nil
}

func (c *Config) normalize() {
	c.STTProvider = strings.ToLower(strings.TrimSpace(c.STTProvider))
	c.LLMProvider = strings.ToLower(strings.TrimSpace(c.LLMProvider))
	c.OpenAIAPIKey = strings.TrimSpace(c.OpenAIAPIKey)
	c.AssemblyAIAPIKey = strings.TrimSpace(c.AssemblyAIAPIKey)
	c.VertexProjectID = strings.TrimSpace(c.VertexProjectID)

	if c.TempDir == "" {
		c.TempDir = os.TempDir()
	}

	exts := make([]string, 0, len(c.AllowedExtensions))
	for _, e := range c.AllowedExtensions {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		if !slices.Contains(exts, e) {
			exts = append(exts, e)
		}
	}
	c.AllowedExtensions = exts
}

// Validate reports every problem at once. Missing provider credentials
// come back as a configuration pipeline error; anything else is an
// invalid-argument error.
func (c *Config) Validate() error {
	const op = "Config.Validate"

	var missing []string
	need := func(name, val string) {
		if val == "" && !slices.Contains(missing, name) {
			missing = append(missing, name)
		}
	}

	var problems *multierror.Error

	switch c.STTProvider {
	case STTAssemblyAI:
		need("ASSEMBLYAI_API_KEY", c.AssemblyAIAPIKey)
	case STTWhisper:
		need("OPENAI_API_KEY", c.OpenAIAPIKey)
	default:
		problems = multierror.Append(problems, fmt.Errorf("unknown STT_PROVIDER %q", c.STTProvider))
	}

	switch c.LLMProvider {
	case LLMOpenAI:
		need("OPENAI_API_KEY", c.OpenAIAPIKey)
	case LLMVertex:
		need("VERTEX_PROJECT_ID", c.VertexProjectID)
	default:
		problems = multierror.Append(problems, fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider))
	}

	var merr *multierror.Error
	for _, name := range missing {
		merr = multierror.Append(merr, fmt.Errorf("%s is not set", name))
	}
	// An unknown provider decides which keys are needed, so it is reported
	// first and blocks startup instead of looking like a missing key.
	if err := problems.ErrorOrNil(); err != nil {
		return utils.E(utils.CodeInvalidArgument, op, "invalid configuration", multierror.Append(problems, merr.ErrorOrNil()).ErrorOrNil())
	}
	if len(missing) > 0 {
		return utils.Configuration(op, merr.ErrorOrNil())
	}

	if c.LLMProvider == LLMOpenAI && strings.TrimSpace(c.LLMModel) == "" {
		problems = multierror.Append(problems, fmt.Errorf("LLM_MODEL must not be empty"))
	}
	switch c.GinMode {
	case "debug", "release", "test":
	default:
		problems = multierror.Append(problems, fmt.Errorf("GIN_MODE %q must be debug, release or test", c.GinMode))
	}
	if len(c.AllowedExtensions) == 0 {
		problems = multierror.Append(problems, fmt.Errorf("ALLOWED_EXTENSIONS must list at least one extension"))
	}
	if c.MaxUploadMB <= 0 {
		problems = multierror.Append(problems, fmt.Errorf("MAX_UPLOAD_MB must be positive"))
	}
	if c.RateLimitRPM <= 0 || c.RateLimitBurst <= 0 {
		problems = multierror.Append(problems, fmt.Errorf("RATE_LIMIT_RPM and RATE_LIMIT_BURST must be positive"))
	}
	if c.ResultTTL <= 0 {
		problems = multierror.Append(problems, fmt.Errorf("RESULT_TTL must be positive"))
	}
	if err := os.MkdirAll(c.TempDir, 0o755); err != nil {
		problems = multierror.Append(problems, fmt.Errorf("TEMP_DIR %q: %w", c.TempDir, err))
	}

	if err := problems.ErrorOrNil(); err != nil {
		return utils.E(utils.CodeInvalidArgument, op, "invalid configuration", err)
	}
	return nil
}

func (c *Config) MaxUploadBytes() int64 { return c.MaxUploadMB << 20 }

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string { return ":" + c.Port }
