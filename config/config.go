package config

import (
	"time"
)

type AppConfig struct {
	SettingsFile   string        `env:"MAILCHECK_SETTINGS_FILE" envDefault:"settings.json"`
	DialTimeout    time.Duration `env:"MAILCHECK_DIAL_TIMEOUT" envDefault:"5s"`
	CommandTimeout time.Duration `env:"MAILCHECK_COMMAND_TIMEOUT" envDefault:"30s"`
	LogoutTimeout  time.Duration `env:"MAILCHECK_LOGOUT_TIMEOUT" envDefault:"5s"`
}

type NotifyConfig struct {
	// Bell rings the terminal bell on new mail
	Bell bool `env:"MAILCHECK_NOTIFY_BELL" envDefault:"true"`
	// Command is run on new mail, e.g. "paplay /usr/share/sounds/freedesktop/stereo/message-new-instant.oga"
	Command        string        `env:"MAILCHECK_NOTIFY_COMMAND"`
	CommandTimeout time.Duration `env:"MAILCHECK_NOTIFY_COMMAND_TIMEOUT" envDefault:"10s"`
	// RabbitMQURL enables publishing new mail events when set
	RabbitMQURL string `env:"RABBITMQ_URL"`
	Exchange    string `env:"MAILCHECK_NOTIFY_EXCHANGE" envDefault:"mailchecker"`
}
