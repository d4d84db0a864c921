// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package config loads the chipsim process configuration from the
// environment.
//
package config

import (
	"os"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Config holds the process configuration.
//
type Config struct {
	DB       string `env:"CHIPSIM_DB,default=chipsim.db"`
	Defs     string `env:"CHIPSIM_DEFS"`
	Listen   string `env:"CHIPSIM_LISTEN,default=:8080"`
	LogLevel string `env:"CHIPSIM_LOG_LEVEL,default=info"`
}

// Load reads the optional env files, or ".env" if none is given, then
// decodes the environment. Variables already set in the environment take
// precedence over the files.
//
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return nil, errors.Wrap(err, f)
		}
	}
	var c Config
	if err := envdecode.Decode(&c); err != nil && err != envdecode.ErrNoTargetFieldsAreSet {
		return nil, errors.Wrap(err, "decode environment")
	}
	return &c, nil
}

// Level returns the logrus level for c.LogLevel.
//
func (c *Config) Level() (logrus.Level, error) {
	return logrus.ParseLevel(c.LogLevel)
}
