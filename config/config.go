// Package config loads server configuration from config.yml and the
// environment.
package config

import (
	"github.com/gotify/configor"
)

type Configuration struct {
	App struct {
		ListenAddr string `default:"" env:"APP_HOST"`
		Port       int    `default:"8080" env:"APP_PORT"`
	}
	Database struct {
		// Path is the SQLite database file; ":memory:" for ephemeral.
		Path string `default:"leave.db" env:"DB_PATH"`
	}
	Notify struct {
		// WebhookURL, when set, enables the webhook sink alongside the
		// log sink.
		WebhookURL string `default:"" env:"NOTIFY_WEBHOOK_URL"`
	}
	Log struct {
		Level string `default:"info" env:"LOG_LEVEL"`
	}
}

func configFiles() []string {
	return []string{"config.yml"}
}

// Load reads configuration; missing config.yml falls back to defaults
// and environment variables.
func Load() (*Configuration, error) {
	conf := new(Configuration)
	err := configor.New(&configor.Config{}).Load(conf, configFiles()...)
	if err != nil {
		return nil, err
	}
	return conf, nil
}
