package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pocgg/arthivescrape/arthive"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Endpoint  string        // Catalogue query url.
	BaseURL   string        // Scheme and host of the image server.
	DestDir   string        // Directory to save images to.
	Serve     string        // Address to serve DestDir on; empty disables.
	Verbose   bool          // True for verbose output.
	LogFormat string        // "text" or "json".
	Attempts  int           // Tries per image before giving up.
	Timeout   time.Duration // Bound on each try.
	Keys      arthive.Keys  // Image variant axes to enumerate.
}

// DefaultConfig returns the configuration used when nothing overrides it.
func DefaultConfig() Config {
	return Config{
		Endpoint:  arthive.DefaultEndpoint,
		BaseURL:   arthive.DefaultBaseURL,
		DestDir:   ".",
		LogFormat: "text",
		Attempts:  3,
		Timeout:   30 * time.Second,
		Keys:      arthive.DefaultKeys(),
	}
}

// yamlConfig mirrors Config for config files. Durations are strings.
type yamlConfig struct {
	Endpoint  string `yaml:"endpoint"`
	BaseURL   string `yaml:"base_url"`
	DestDir   string `yaml:"dest_dir"`
	Serve     string `yaml:"serve"`
	Verbose   bool   `yaml:"verbose"`
	LogFormat string `yaml:"log_format"`
	Attempts  int    `yaml:"attempts"`
	Timeout   string `yaml:"timeout"`
	Keys      struct {
		Versions    []string `yaml:"versions"`
		Axes        []string `yaml:"axes"`
		Resolutions []string `yaml:"resolutions"`
	} `yaml:"keys"`
}

// loadFile applies the settings of a yaml config file to cfg. Keys absent
// from the file leave cfg unchanged.
func (cfg *Config) loadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var yc yamlConfig
	err = yaml.Unmarshal(b, &yc)
	if err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	setString(&cfg.Endpoint, yc.Endpoint)
	setString(&cfg.BaseURL, yc.BaseURL)
	setString(&cfg.DestDir, yc.DestDir)
	setString(&cfg.Serve, yc.Serve)
	setString(&cfg.LogFormat, yc.LogFormat)
	if yc.Verbose {
		cfg.Verbose = true
	}
	if yc.Attempts != 0 {
		cfg.Attempts = yc.Attempts
	}
	if yc.Timeout != "" {
		d, err := time.ParseDuration(yc.Timeout)
		if err != nil {
			return fmt.Errorf("parse timeout: %w", err)
		}
		cfg.Timeout = d
	}
	if len(yc.Keys.Versions) > 0 {
		cfg.Keys.Versions = yc.Keys.Versions
	}
	if len(yc.Keys.Axes) > 0 {
		cfg.Keys.Axes = yc.Keys.Axes
	}
	if len(yc.Keys.Resolutions) > 0 {
		cfg.Keys.Resolutions = yc.Keys.Resolutions
	}

	return nil
}

// loadEnv applies ARTHIVE_* environment variables to cfg. Variables defined
// in envFile, if it exists, are loaded into the environment first; variables
// already set take precedence over the file.
func (cfg *Config) loadEnv(envFile string) error {
	err := godotenv.Load(envFile)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", envFile, err)
	}

	setString(&cfg.Endpoint, os.Getenv("ARTHIVE_ENDPOINT"))
	setString(&cfg.BaseURL, os.Getenv("ARTHIVE_BASE_URL"))
	setString(&cfg.DestDir, os.Getenv("ARTHIVE_DEST_DIR"))
	setString(&cfg.Serve, os.Getenv("ARTHIVE_SERVE"))
	setString(&cfg.LogFormat, os.Getenv("ARTHIVE_LOG_FORMAT"))

	if v := os.Getenv("ARTHIVE_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse ARTHIVE_ATTEMPTS: %w", err)
		}
		cfg.Attempts = n
	}
	if v := os.Getenv("ARTHIVE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse ARTHIVE_TIMEOUT: %w", err)
		}
		cfg.Timeout = d
	}

	return nil
}

// Validate checks that cfg can drive a run.
func (cfg *Config) Validate() error {
	if cfg.Endpoint == "" {
		return errors.New("config: endpoint is required")
	}
	if cfg.BaseURL == "" {
		return errors.New("config: base url is required")
	}
	if cfg.DestDir == "" {
		return errors.New("config: destination directory is required")
	}
	if cfg.Attempts <= 0 {
		return errors.New("config: attempts must be positive")
	}
	if cfg.Timeout <= 0 {
		return errors.New("config: timeout must be positive")
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return fmt.Errorf("config: unknown log format: %s", cfg.LogFormat)
	}
	if len(cfg.Keys.Versions) == 0 || len(cfg.Keys.Axes) == 0 || len(cfg.Keys.Resolutions) == 0 {
		return errors.New("config: every key axis needs at least one key")
	}
	return nil
}

// parseArgs builds the run configuration. Later sources override earlier
// ones: defaults, config file (-c), environment (and .env), command line.
func parseArgs(args []string) (*Config, error) {
	fset := flag.NewFlagSet("arthivescrape", flag.ContinueOnError)
	fset.Usage = func() { usage(fset) }

	configFile := fset.String("c", "", "yaml config file")
	envFile := fset.String("env", ".env", "dotenv file to load, if present")
	endpoint := fset.String("endpoint", "", "catalogue query url")
	baseURL := fset.String("base", "", "image server base url")
	serve := fset.String("serve", "", "serve downloaded images on this address (e.g. :8080)")
	verbose := fset.Bool("v", false, "verbose output")
	logFormat := fset.String("log-format", "", "log format: text or json")
	attempts := fset.Int("attempts", 0, "tries per image")
	timeout := fset.Duration("timeout", 0, "bound on each try")

	err := fset.Parse(args)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()

	if *configFile != "" {
		err := cfg.loadFile(*configFile)
		if err != nil {
			return nil, err
		}
	}

	err = cfg.loadEnv(*envFile)
	if err != nil {
		return nil, err
	}

	setString(&cfg.Endpoint, *endpoint)
	setString(&cfg.BaseURL, *baseURL)
	setString(&cfg.Serve, *serve)
	setString(&cfg.LogFormat, *logFormat)
	if *verbose {
		cfg.Verbose = true
	}
	if *attempts != 0 {
		cfg.Attempts = *attempts
	}
	if *timeout != 0 {
		cfg.Timeout = *timeout
	}
	if fset.NArg() > 0 {
		cfg.DestDir = fset.Arg(0)
	}

	err = cfg.Validate()
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func usage(fset *flag.FlagSet) {
	out := fset.Output()
	printUsage(out)
	fset.PrintDefaults()
}

func printUsage(out io.Writer) {
	fmt.Fprintf(out, "Usage: %s [option]... [dest_dir]\n", filepath.Base(os.Args[0]))
	fmt.Fprintf(out, "Downloads every image variant of an arthive catalogue query.\n")
	fmt.Fprintf(out, "Type a line on stdin to stop the run early.\n")
}
