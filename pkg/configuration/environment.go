package configuration

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/iota-uz/utils/fs"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/campsite-dev/campseed/pkg/ingest"
	"github.com/campsite-dev/campseed/pkg/logging"
	"github.com/campsite-dev/campseed/pkg/repo"
)

var DefaultEnvFiles = []string{".env", ".env.local"}

func LoadEnv(envFiles []string) (int, error) {
	existingFiles := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		if fs.FileExists(file) {
			existingFiles = append(existingFiles, file)
		}
	}
	if len(existingFiles) == 0 {
		return 0, nil
	}
	return len(existingFiles), godotenv.Load(existingFiles...)
}

type Configuration struct {
	LogLevel  string `env:"LOG_LEVEL" envDefault:"warn"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	InputEncoding string `env:"CAMPSEED_INPUT_ENCODING" envDefault:"utf-8"`
	// Path to a YAML or TOML file of header aliases.
	ProfilePath string `env:"CAMPSEED_PROFILE"`

	// ordinal (1-based position in camps.json) or id.
	CampJoin string `env:"CAMPSEED_CAMP_JOIN" envDefault:"ordinal"`
	// null keeps rows with an unresolved camp; skip drops them.
	CampMiss string `env:"CAMPSEED_CAMP_MISS" envDefault:"null"`

	FilterMode   string `env:"CAMPSEED_FILTER_MODE" envDefault:"lenient"`
	SeedValidate bool   `env:"CAMPSEED_SEED_VALIDATE" envDefault:"false"`

	// Node-exporter textfile written after each run; empty disables it.
	MetricsFile string `env:"CAMPSEED_METRICS_FILE"`

	DatabaseURL  string `env:"DATABASE_URL"`
	DefaultLimit int    `env:"CAMPSEED_DEFAULT_LIMIT" envDefault:"1000"`

	// LogOutput receives log lines; nil means stderr.
	LogOutput io.Writer `env:"-"`

	logger *logrus.Logger
}

// Load reads the given .env files (missing ones are ignored), parses the
// environment and validates the result.
func Load(envFiles ...string) (*Configuration, error) {
	if _, err := LoadEnv(envFiles); err != nil {
		return nil, err
	}
	c := &Configuration{}
	if err := env.Parse(c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Configuration) Logger() *logrus.Logger {
	if c.logger == nil {
		var out io.Writer = os.Stderr
		if c.LogOutput != nil {
			out = c.LogOutput
		}
		logger, err := logging.ConsoleLogger(out, c.LogrusLogLevel(), c.LogFormat)
		if err != nil {
			logger = logrus.New()
			logger.SetOutput(out)
			logger.SetLevel(c.LogrusLogLevel())
		}
		c.logger = logger
	}
	return c.logger
}

func (c *Configuration) LogrusLogLevel() logrus.Level {
	switch c.LogLevel {
	case "silent":
		return logrus.PanicLevel
	case "error":
		return logrus.ErrorLevel
	case "warn":
		return logrus.WarnLevel
	case "info":
		return logrus.InfoLevel
	case "debug":
		return logrus.DebugLevel
	default:
		return logrus.WarnLevel
	}
}

// Validate normalizes enum settings and rejects unknown values. It is safe
// to call again after flags have overridden fields.
func (c *Configuration) Validate() error {
	c.logger = nil
	if err := normalize(&c.LogLevel, "LOG_LEVEL", "warn", "silent", "error", "warn", "info", "debug"); err != nil {
		return err
	}
	if err := normalize(&c.LogFormat, "LOG_FORMAT", logging.FormatText, logging.FormatText, logging.FormatJSON); err != nil {
		return err
	}
	if err := normalize(&c.CampJoin, "CAMPSEED_CAMP_JOIN", "ordinal", "ordinal", "id"); err != nil {
		return err
	}
	if err := normalize(&c.CampMiss, "CAMPSEED_CAMP_MISS", "null", "null", "skip"); err != nil {
		return err
	}
	if _, err := repo.ParseFilterMode(c.FilterMode); err != nil {
		return fmt.Errorf("invalid CAMPSEED_FILTER_MODE: %w", err)
	}
	if err := ingest.ValidateEncoding(c.InputEncoding); err != nil {
		return fmt.Errorf("invalid CAMPSEED_INPUT_ENCODING: %w", err)
	}
	if c.DefaultLimit < 0 {
		return fmt.Errorf("CAMPSEED_DEFAULT_LIMIT must be non-negative, got %d", c.DefaultLimit)
	}
	return nil
}

func normalize(v *string, name, fallback string, allowed ...string) error {
	s := strings.ToLower(strings.TrimSpace(*v))
	if s == "" {
		s = fallback
	}
	for _, a := range allowed {
		if s == a {
			*v = s
			return nil
		}
	}
	return fmt.Errorf("invalid %s=%q (expected %s)", name, *v, strings.Join(allowed, "|"))
}
