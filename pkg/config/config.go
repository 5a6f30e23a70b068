// Package config resolves runtime settings from command-line flags, the
// environment and an optional .env file. Flags win over the environment,
// which wins over built-in defaults.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"signal_router/pkg/osrm"
	"signal_router/pkg/playback"
)

// EnvPrefix prefixes every environment variable read by this package.
const EnvPrefix = "SIGNAL_ROUTER_"

// Config holds settings shared by the server and the CLIs.
type Config struct {
	Port          int
	GraphPath     string // empty = built-in Dehradun scenario
	StepDelay     time.Duration
	CORSOrigin    string
	OSRMURL       string
	MaxConcurrent int
	LogLevel      string
}

// Defaults returns the built-in settings.
func Defaults() Config {
	return Config{
		Port:          8080,
		StepDelay:     playback.DefaultStepDelay,
		OSRMURL:       osrm.DefaultBaseURL,
		MaxConcurrent: runtime.NumCPU() * 2,
		LogLevel:      "info",
	}
}

// Addr returns the listen address for Port.
func (c Config) Addr() string { return fmt.Sprintf(":%d", c.Port) }

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.StepDelay <= 0 {
		return fmt.Errorf("step delay must be positive, got %s", c.StepDelay)
	}
	if c.MaxConcurrent < 1 {
		return fmt.Errorf("max concurrent must be at least 1, got %d", c.MaxConcurrent)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// LoadDotEnv loads files (default ".env") into the environment without
// overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(files ...string) error {
	err := godotenv.Load(files...)
	if errors.Is(err, os.ErrNotExist) {
		log.Debug("No .env file found, using environment variables")
		return nil
	}
	return err
}

// FromEnv overlays SIGNAL_ROUTER_* variables on base.
func FromEnv(base Config) (Config, error) {
	c := base
	var err error
	c.Port, err = envInt("PORT", c.Port)
	if err != nil {
		return c, err
	}
	c.MaxConcurrent, err = envInt("MAX_CONCURRENT", c.MaxConcurrent)
	if err != nil {
		return c, err
	}
	c.StepDelay, err = envDuration("STEP_DELAY", c.StepDelay)
	if err != nil {
		return c, err
	}
	c.GraphPath = envString("GRAPH", c.GraphPath)
	c.CORSOrigin = envString("CORS_ORIGIN", c.CORSOrigin)
	c.OSRMURL = envString("OSRM_URL", c.OSRMURL)
	c.LogLevel = envString("LOG_LEVEL", c.LogLevel)
	return c, nil
}

// Bind registers flags for c on fs, using the current values as defaults.
func (c *Config) Bind(fs *flag.FlagSet) {
	fs.IntVar(&c.Port, "port", c.Port, "HTTP port")
	fs.StringVar(&c.GraphPath, "graph", c.GraphPath, "Path to waypoint graph JSON (empty = built-in Dehradun scenario)")
	fs.DurationVar(&c.StepDelay, "step-delay", c.StepDelay, "Default delay per waypoint during playback")
	fs.StringVar(&c.CORSOrigin, "cors-origin", c.CORSOrigin, "CORS allowed origin (empty = same-origin)")
	fs.StringVar(&c.OSRMURL, "osrm-url", c.OSRMURL, "OSRM base URL for road geometry")
	fs.IntVar(&c.MaxConcurrent, "max-concurrent", c.MaxConcurrent, "Maximum concurrent API requests")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level (debug, info, warn, error)")
}

// Load resolves a Config for the program name from the environment and args.
func Load(name string, args []string) (Config, error) {
	c, err := FromEnv(Defaults())
	if err != nil {
		return c, err
	}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	c.Bind(fs)
	if err := fs.Parse(args); err != nil {
		return c, err
	}
	return c, c.Validate()
}

// SetupLogging configures the global logrus logger.
func SetupLogging(level string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return err
	}
	log.SetLevel(lvl)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	return nil
}

func envString(key, def string) string {
	if v, ok := os.LookupEnv(EnvPrefix + key); ok {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	v, ok := os.LookupEnv(EnvPrefix + key)
	if !ok || v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
	}
	return n, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(EnvPrefix + key)
	if !ok || v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def, fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
	}
	return d, nil
}
