package cmd

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-letters/config"
)

func configureLogging(cfg *config.Config) error {
	level, err := logrus.ParseLevel(strings.TrimSpace(cfg.Log.Level))
	if err != nil {
		return err
	}

	logrus.SetOutput(os.Stdout)
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetLevel(level)
	logrus.StandardLogger().WithField("service", cfg.App.ServiceName).Debug("Logging configured")
	return nil
}

// configureClientLogging keeps client output on stdout free of log lines.
func configureClientLogging(cfg *config.ClientConfig) {
	level, err := logrus.ParseLevel(strings.TrimSpace(cfg.LogLevel))
	if err != nil {
		level = logrus.WarnLevel
	}

	logrus.SetOutput(os.Stderr)
	logrus.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	logrus.SetLevel(level)
}
