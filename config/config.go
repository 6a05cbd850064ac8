// Package config loads the bordo configuration file.
package config

import (
	"io"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/jd3nn1s/bordo/forwarder"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	SampleIntervalMS  int
	MonitorIntervalMS int

	LogLevel string
	// LogFile enables a rotating log file in addition to stderr
	LogFile string

	API      APIConfig
	CAN      CANConfig
	UDP      *forwarder.UDPConfig
	Pushover PushoverConfig
}

type APIConfig struct {
	Listen string
}

type CANConfig struct {
	Enabled   bool
	Interface string
}

type PushoverConfig struct {
	Token string
	User  string
	Title string
}

func (p PushoverConfig) Enabled() bool {
	return p.Token != "" && p.User != ""
}

func Default() Config {
	return Config{
		SampleIntervalMS:  100,
		MonitorIntervalMS: 5000,
		LogLevel:          "info",
		API: APIConfig{
			Listen: ":5000",
		},
		CAN: CANConfig{
			Interface: "can0",
		},
		Pushover: PushoverConfig{
			Title: "Opala",
		},
	}
}

// Load reads the TOML file at path over the defaults. A missing file leaves the defaults.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		log.WithField("path", path).Info("no config file, using defaults")
		c := Default()
		return c, c.Validate()
	}
	if err != nil {
		return Config{}, errors.Wrapf(err, "unable to open config %s", path)
	}
	defer f.Close()
	return Decode(f)
}

func Decode(r io.Reader) (Config, error) {
	c := Default()
	if _, err := toml.NewDecoder(r).Decode(&c); err != nil {
		return Config{}, errors.Wrap(err, "unable to decode config")
	}
	return c, c.Validate()
}

// LoadEnv loads a .env file when present and applies secrets from the environment.
func (c *Config) LoadEnv(files ...string) {
	if err := godotenv.Load(files...); err != nil {
		log.Debug("no .env file, using process environment")
	}
	if v := os.Getenv("PUSHOVER_TOKEN"); v != "" {
		c.Pushover.Token = v
	}
	if v := os.Getenv("PUSHOVER_USER"); v != "" {
		c.Pushover.User = v
	}
}

func (c *Config) Validate() error {
	if c.SampleIntervalMS <= 0 {
		return errors.Errorf("SampleIntervalMS must be positive, got %d", c.SampleIntervalMS)
	}
	if c.MonitorIntervalMS <= 0 {
		return errors.Errorf("MonitorIntervalMS must be positive, got %d", c.MonitorIntervalMS)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrap(err, "invalid LogLevel")
	}
	return nil
}

func (c *Config) SampleInterval() time.Duration {
	return time.Duration(c.SampleIntervalMS) * time.Millisecond
}

func (c *Config) MonitorInterval() time.Duration {
	return time.Duration(c.MonitorIntervalMS) * time.Millisecond
}
