package config

import (
	"flag"
	"os"
	"path/filepath"
	"time"

	env "github.com/caarlos0/env/v6"
	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config drives both binaries. Values are resolved defaults -> flags -> env.
type Config struct {
	APIURL         string        `env:"HABITS_API_URL" validate:"url"`
	SettingsPath   string        `env:"HABITS_SETTINGS_PATH" validate:"filepath"`
	LogLevel       string        `env:"HABITS_LOG_LEVEL" validate:"loglevel"`
	LogFile        string        `env:"HABITS_LOG_FILE"`
	Theme          string        `env:"HABITS_THEME" validate:"theme"`
	RequestTimeout time.Duration `env:"HABITS_REQUEST_TIMEOUT" validate:"gt=0"`
	ServerAddress  string        `env:"HABITSD_ADDRESS" validate:"hostname_port"`
	SeedFile       string        `env:"HABITSD_SEED_FILE" validate:"omitempty,filepath"`
}

var defaultConfig = Config{
	APIURL:         "http://localhost:8080",
	LogLevel:       "info",
	Theme:          "classic",
	RequestTimeout: 10 * time.Second,
	ServerAddress:  "localhost:8080",
}

// Dir is the per-user directory holding settings, credentials and logs.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".habits"
	}
	return filepath.Join(home, ".habits")
}

func validateFilePath(fieldLevel validator.FieldLevel) bool {
	path := fieldLevel.Field().String()
	_, err := os.Stat(path)

	return err == nil || os.IsNotExist(err)
}

func validateLogLevel(fieldLevel validator.FieldLevel) bool {
	allowedLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	return allowedLogLevels[fieldLevel.Field().String()]
}

func validateTheme(fieldLevel validator.FieldLevel) bool {
	switch fieldLevel.Field().String() {
	case "classic", "neon", "mono":
		return true
	}
	return false
}

func (c *Config) validate() error {
	validate := validator.New()

	if err := validate.RegisterValidation("loglevel", validateLogLevel); err != nil {
		return err
	}
	if err := validate.RegisterValidation("filepath", validateFilePath); err != nil {
		return err
	}
	if err := validate.RegisterValidation("theme", validateTheme); err != nil {
		return err
	}

	return validate.Struct(c)
}

type InitOption func(*initOptions)

type initOptions struct {
	disableFlagsParsing bool
	disableDotEnv       bool
	flagSet             *flag.FlagSet
	args                []string
}

// WithDisableFlagsParsing skips flag registration entirely (tests).
func WithDisableFlagsParsing(disableFlagsParsing bool) InitOption {
	return func(options *initOptions) {
		options.disableFlagsParsing = disableFlagsParsing
	}
}

// WithDisableDotEnv skips loading a .env file from the working directory.
func WithDisableDotEnv(disable bool) InitOption {
	return func(options *initOptions) {
		options.disableDotEnv = disable
	}
}

// WithFlagSet parses args with fs instead of the process command line.
// Positional arguments left over are available from fs.Args().
func WithFlagSet(fs *flag.FlagSet, args []string) InitOption {
	return func(options *initOptions) {
		options.flagSet = fs
		options.args = args
	}
}

func applyDefaults(values *Config, defaults Config) {
	*values = defaults
	values.SettingsPath = filepath.Join(Dir(), "settings.json")
	values.LogFile = filepath.Join(Dir(), "habits.log")
}

func (c *Config) registerFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.APIURL, "u", c.APIURL, "base URL of the user directory API")
	fs.StringVar(&c.SettingsPath, "s", c.SettingsPath, "settings file holding followed users")
	fs.StringVar(&c.LogLevel, "l", c.LogLevel, "logger level")
	fs.StringVar(&c.LogFile, "log-file", c.LogFile, "log file (empty for stderr)")
	fs.StringVar(&c.Theme, "t", c.Theme, "output theme: classic, neon or mono")
	fs.DurationVar(&c.RequestTimeout, "timeout", c.RequestTimeout, "user directory request timeout")
	fs.StringVar(&c.ServerAddress, "a", c.ServerAddress, "directory server listen address")
	fs.StringVar(&c.SeedFile, "seed", c.SeedFile, "JSON file with users served by the directory server")
}

// overrideFromEnv copies every non-zero value found in the environment.
func (c *Config) overrideFromEnv() error {
	var valuesFromEnv Config
	if err := env.Parse(&valuesFromEnv); err != nil {
		return err
	}

	if valuesFromEnv.APIURL != "" {
		c.APIURL = valuesFromEnv.APIURL
	}
	if valuesFromEnv.SettingsPath != "" {
		c.SettingsPath = valuesFromEnv.SettingsPath
	}
	if valuesFromEnv.LogLevel != "" {
		c.LogLevel = valuesFromEnv.LogLevel
	}
	if _, ok := os.LookupEnv("HABITS_LOG_FILE"); ok {
		c.LogFile = valuesFromEnv.LogFile
	}
	if valuesFromEnv.Theme != "" {
		c.Theme = valuesFromEnv.Theme
	}
	if valuesFromEnv.RequestTimeout != 0 {
		c.RequestTimeout = valuesFromEnv.RequestTimeout
	}
	if valuesFromEnv.ServerAddress != "" {
		c.ServerAddress = valuesFromEnv.ServerAddress
	}
	if valuesFromEnv.SeedFile != "" {
		c.SeedFile = valuesFromEnv.SeedFile
	}

	return nil
}

// New resolves the configuration and validates it.
func New(optionsProto ...InitOption) (*Config, error) {
	options := &initOptions{}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	if !options.disableDotEnv {
		// A missing .env is the normal case.
		_ = godotenv.Load()
	}

	values := &Config{}
	applyDefaults(values, defaultConfig)

	if !options.disableFlagsParsing {
		fs, args := options.flagSet, options.args
		if fs == nil {
			fs, args = flag.CommandLine, os.Args[1:]
		}
		values.registerFlags(fs)
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
	}

	if err := values.overrideFromEnv(); err != nil {
		return nil, err
	}

	if err := values.validate(); err != nil {
		return nil, err
	}

	return values, nil
}
