// Copyright 2016 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package gizmo

import (
	"fmt"
	"io/ioutil"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

// Regional API endpoints.
const (
	RegionUS = "us"
	RegionEU = "eu"
)

// RegionURLs maps each known region to its API base URL.
var RegionURLs = map[string]string{
	RegionUS: "https://restapi.surveygizmo.com",
	RegionEU: "https://restapi.surveygizmo.eu",
}

// Defaults for Config fields.
const (
	DefaultAPIVersion       = "v4"
	DefaultResultsPerPage   = 50
	DefaultTimeout          = 30 * time.Second
	DefaultRetries          = 1
	DefaultRetryInterval    = 60 * time.Second
	DefaultMaxRetryInterval = 5 * time.Minute
)

// Config holds everything a client needs to talk to the remote API.
// Build one at startup, usually with DefaultConfig and then
// LoadConfigYaml or ConfigFromEnv, and treat it as read-only once a
// client is using it.
type Config struct {
	// APIToken and APITokenSecret are sent with every request.
	APIToken       string `yaml:"api_token"`
	APITokenSecret string `yaml:"api_token_secret"`

	// Region selects a regional endpoint when APIURL is empty.
	Region string `yaml:"region"`

	// APIURL overrides the regional base URL, for instance to
	// point at a fake server.
	APIURL string `yaml:"api_url"`

	// APIVersion is the versioned path prefix, "v4".
	APIVersion string `yaml:"api_version"`

	// ResultsPerPage is the default page size of list requests.
	ResultsPerPage int `yaml:"results_per_page"`

	// Timeout bounds each individual HTTP request.
	Timeout time.Duration `yaml:"timeout"`

	// Retries is the number of additional attempts after a
	// retryable failure.
	Retries int `yaml:"retries"`

	// RetryInterval is the first delay between attempts; later
	// delays grow up to MaxRetryInterval.
	RetryInterval    time.Duration `yaml:"retry_interval"`
	MaxRetryInterval time.Duration `yaml:"max_retry_interval"`

	// RetryEverything retries unsuccessful HTTP statuses too, not
	// just timeouts and rate limiting.
	RetryEverything bool `yaml:"retry_everything"`

	// Debug logs every decoded response.
	Debug bool `yaml:"debug"`

	// Logger receives request and retry logging.  If nil the
	// logrus standard logger is used.
	Logger *logrus.Logger `yaml:"-"`

	// Clock is the time source for retry scheduling.  If nil the
	// real clock is used.
	Clock clock.Clock `yaml:"-"`
}

// DefaultConfig returns a configuration with every default filled
// in, but no credentials.
func DefaultConfig() Config {
	return Config{
		Region:           RegionUS,
		APIVersion:       DefaultAPIVersion,
		ResultsPerPage:   DefaultResultsPerPage,
		Timeout:          DefaultTimeout,
		Retries:          DefaultRetries,
		RetryInterval:    DefaultRetryInterval,
		MaxRetryInterval: DefaultMaxRetryInterval,
		Debug:            truthy(os.Getenv("GIZMO_DEBUG")),
		Logger:           logrus.StandardLogger(),
		Clock:            clock.New(),
	}
}

var truthyPattern = regexp.MustCompile(`(?i)^(true|t|yes|y|1)$`)

func truthy(s string) bool {
	return truthyPattern.MatchString(strings.TrimSpace(s))
}

// LoadConfigYaml overlays the contents of a YAML file on c.  Fields
// absent from the file keep their current values.
func (c *Config) LoadConfigYaml(filename string) error {
	bytes, err := ioutil.ReadFile(filename)
	if err == nil {
		err = yaml.Unmarshal(bytes, c)
	}
	return err
}

// ConfigFromEnv overlays GIZMO_* environment variables on c.  Any
// of the named .env files are loaded first; missing files are
// ignored, and variables already set in the environment win.  A .env
// file that cannot be read or parsed is an error, and c is left
// unchanged.
func (c *Config) ConfigFromEnv(envFiles ...string) error {
	for _, file := range envFiles {
		err := godotenv.Load(file)
		if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("%s: %w", file, err)
		}
	}
	if v := os.Getenv("GIZMO_API_TOKEN"); v != "" {
		c.APIToken = v
	}
	if v := os.Getenv("GIZMO_API_TOKEN_SECRET"); v != "" {
		c.APITokenSecret = v
	}
	if v := os.Getenv("GIZMO_REGION"); v != "" {
		c.Region = strings.ToLower(v)
	}
	if v := os.Getenv("GIZMO_API_URL"); v != "" {
		c.APIURL = v
	}
	if v := os.Getenv("GIZMO_RESULTS_PER_PAGE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.ResultsPerPage = n
		}
	}
	if v := os.Getenv("GIZMO_DEBUG"); v != "" {
		c.Debug = truthy(v)
	}
	return nil
}

// Validate checks that c can be used to build a client.
func (c Config) Validate() error {
	if c.APIToken == "" || c.APITokenSecret == "" {
		return ErrNoCredentials
	}
	if c.APIURL == "" {
		if _, known := RegionURLs[c.Region]; !known {
			return ErrUnknownRegion{Region: c.Region}
		}
	}
	return validation.ValidateStruct(&c,
		validation.Field(&c.APIVersion, validation.Required),
		validation.Field(&c.ResultsPerPage, validation.Required, validation.Min(1)),
		validation.Field(&c.Retries, validation.Min(0)),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
		validation.Field(&c.RetryInterval, validation.Min(time.Duration(0))),
	)
}

// BaseURL returns the API root including the version prefix, with no
// trailing slash.
func (c Config) BaseURL() string {
	base := c.APIURL
	if base == "" {
		base = RegionURLs[c.Region]
	}
	return strings.TrimRight(base, "/") + "/" + c.APIVersion
}

// GetLogger returns the configured logger or the standard one.
func (c Config) GetLogger() *logrus.Logger {
	if c.Logger == nil {
		return logrus.StandardLogger()
	}
	return c.Logger
}

// GetClock returns the configured clock or the real one.
func (c Config) GetClock() clock.Clock {
	if c.Clock == nil {
		return clock.New()
	}
	return c.Clock
}
