package app

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/secopslab/harmonizer/pkg/constants"
	"github.com/secopslab/harmonizer/pkg/errors"
	"github.com/secopslab/harmonizer/pkg/sources"
)

// Config holds the application configuration loaded from config files,
// environment variables and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string

	// Config file
	ConfigFile string

	// Inputs
	PolicyFile string
	RosterFile string
	DataDir    string
	Sources    sources.Config

	// Runs
	FetchTimeout    time.Duration
	AutoRunInterval time.Duration

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string

	// LogLevelFlag is the --log-level value, which beats -v and -q
	LogLevelFlag string
}

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (applied later by UpdateFromFlags)
// 2. Environment variables (HARMONIZER_ prefix, plus LOG_* for logging)
// 3. .env files
// 4. Config file (--config, or .harmonizer.yaml in $HOME or the working dir)
// 5. Defaults
func LoadConfig(configFile string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.SetEnvPrefix("harmonizer")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	v.SetDefault("data_dir", constants.DefaultDataDir)
	v.SetDefault("sample", true)
	v.SetDefault("fetch_timeout", constants.SourceFetchTimeout)
	v.SetDefault("auto_run_interval", constants.DefaultAutoRunInterval)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.NewConfigError("config", "failed to read "+configFile, err)
		}
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(constants.DefaultConfigName)

		// A missing config file is fine; a broken one is not.
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, errors.NewConfigError("config", "failed to read config file", err)
			}
		}
	}

	config := &Config{
		Verbose: v.GetBool("verbose"),
		Quiet:   v.GetBool("quiet"),
		NoColor: v.GetBool("no_color"),
		Format:  v.GetString("format"),

		ConfigFile: v.ConfigFileUsed(),

		PolicyFile: expandHome(v.GetString("policy_file")),
		RosterFile: expandHome(v.GetString("roster_file")),
		DataDir:    expandHome(v.GetString("data_dir")),

		FetchTimeout:    v.GetDuration("fetch_timeout"),
		AutoRunInterval: v.GetDuration("auto_run_interval"),

		LogLevel:  getEnvOrDefault("LOG_LEVEL", v.GetString("log_level")),
		LogFormat: getEnvOrDefault("LOG_FORMAT", v.GetString("log_format")),
		LogOutput: getEnvOrDefault("LOG_OUTPUT", v.GetString("log_output")),
	}
	if config.LogFormat == "" {
		config.LogFormat = "auto"
	}
	if config.LogOutput == "" {
		config.LogOutput = "stderr"
	}

	config.Sources.Sample = v.GetBool("sample")
	if err := v.UnmarshalKey("sources", &config.Sources.Sources); err != nil {
		return nil, errors.NewConfigError("config", "invalid sources section", err)
	}
	for id, sc := range config.Sources.Sources {
		sc.File = expandHome(sc.File)
		config.Sources.Sources[id] = sc
	}

	return config, nil
}

// UpdateFromFlags applies parsed command flags, which take precedence over
// config file and environment values.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, format, logLevel string) {
	c.Verbose = verbose
	c.Quiet = quiet
	c.NoColor = noColor
	if format != "" {
		c.Format = format
	}
	c.LogLevelFlag = logLevel
}

// loadEnvFiles loads environment variables from .env files. Variables
// already set in the environment are not overridden.
func loadEnvFiles() {
	for _, envFile := range []string{".env.local", ".env"} {
		_ = godotenv.Load(envFile)
	}
}

// expandHome resolves a leading ~ to the user's home directory.
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// getEnvOrDefault returns the environment variable value or the default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
