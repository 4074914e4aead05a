package config

import (
	"net"
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	er "github.com/customeros/mailchecker/internal/errors"
)

const (
	DefaultMaxRetry  = 5
	DefaultWaitTime  = 60 // seconds
	DefaultTLSPort   = 993
	DefaultPlainPort = 143

	envPrefix = "MAILCHECK"
)

// Settings describes the watched mailbox. It is built once at startup and
// passed by value; nothing mutates it afterwards.
type Settings struct {
	Server   string
	Port     int
	SSL      bool
	User     string
	Password string
	MaxRetry int
	WaitTime time.Duration
}

// settingsFile mirrors the keys of the settings document.
type settingsFile struct {
	Server   string `mapstructure:"server"`
	Port     int    `mapstructure:"port"`
	SSL      bool   `mapstructure:"ssl"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	MaxRetry int    `mapstructure:"max_retry"`
	WaitTime int    `mapstructure:"wait_time"`
}

// Address returns host:port for dialing.
func (s Settings) Address() string {
	return net.JoinHostPort(s.Server, strconv.Itoa(s.Port))
}

func (s Settings) Validate() error {
	if s.Server == "" {
		return er.ErrServerRequired
	}
	if s.User == "" {
		return er.ErrUserRequired
	}
	if s.Port < 0 || s.Port > 65535 {
		return er.ErrInvalidPort
	}
	if s.MaxRetry < 0 {
		return er.ErrInvalidMaxRetry
	}
	if s.WaitTime <= 0 {
		return er.ErrInvalidWaitTime
	}
	return nil
}

// LoadSettings reads the JSON settings document at path. Missing keys take
// their defaults, unknown keys are ignored and MAILCHECK_* environment
// variables override file values.
func LoadSettings(path string) (Settings, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	v.SetDefault("server", "")
	v.SetDefault("port", 0)
	v.SetDefault("ssl", false)
	v.SetDefault("user", "")
	v.SetDefault("password", "")
	v.SetDefault("max_retry", DefaultMaxRetry)
	v.SetDefault("wait_time", DefaultWaitTime)

	if err := v.ReadInConfig(); err != nil {
		var pathErr *os.PathError
		if errors.As(err, &pathErr) && os.IsNotExist(pathErr) {
			return Settings{}, errors.Wrap(er.ErrSettingsNotFound, path)
		}
		return Settings{}, errors.Wrapf(err, "reading settings %s", path)
	}

	var raw settingsFile
	if err := v.Unmarshal(&raw); err != nil {
		return Settings{}, errors.Wrapf(err, "parsing settings %s", path)
	}

	settings := raw.toSettings()
	if err := settings.Validate(); err != nil {
		return Settings{}, errors.Wrapf(err, "invalid settings %s", path)
	}

	return settings, nil
}

func (f settingsFile) toSettings() Settings {
	port := f.Port
	if port == 0 {
		if f.SSL {
			port = DefaultTLSPort
		} else {
			port = DefaultPlainPort
		}
	}

	return Settings{
		Server:   f.Server,
		Port:     port,
		SSL:      f.SSL,
		User:     f.User,
		Password: f.Password,
		MaxRetry: f.MaxRetry,
		WaitTime: time.Duration(f.WaitTime) * time.Second,
	}
}
