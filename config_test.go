/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{bind: "127.0.0.1", port: 8080, maxMessageSize: 4096}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"tls pair", func(c *Config) { c.tlsCert, c.tlsKey = "cert.pem", "key.pem" }, false},
		{"cert without key", func(c *Config) { c.tlsCert = "cert.pem" }, true},
		{"key without cert", func(c *Config) { c.tlsKey = "key.pem" }, true},
		{"port zero", func(c *Config) { c.port = 0 }, true},
		{"port too high", func(c *Config) { c.port = 65536 }, true},
		{"negative session timeout", func(c *Config) { c.sessionTimeout = -time.Second }, true},
		{"reaper enabled", func(c *Config) { c.sessionTimeout = time.Hour }, false},
		{"zero message size", func(c *Config) { c.maxMessageSize = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.validate()
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestConfigScheme(t *testing.T) {
	cfg := validConfig()
	require.Equal(t, "http", cfg.scheme())

	cfg.tlsCert, cfg.tlsKey = "cert.pem", "key.pem"
	require.Equal(t, "https", cfg.scheme())
}

func TestNewCmdReadsEnvironment(t *testing.T) {
	req := require.New(t)
	t.Setenv("QUIZBOX_PORT", "9191")
	t.Setenv("QUIZBOX_SESSION_TIMEOUT", "15m")

	cfg := &Config{}
	cmd := newCmd(cfg)

	req.Equal(9191, cfg.port)
	req.Equal(15*time.Minute, cfg.sessionTimeout)
	req.Equal(int64(4096), cfg.maxMessageSize)
	req.Equal("quizbox", cmd.Use)
}

func TestHumanReadableSize(t *testing.T) {
	require.Equal(t, "999 B", humanReadableSize(999))
	require.Equal(t, "1.5 kB", humanReadableSize(1500))
	require.Equal(t, "2.0 MB", humanReadableSize(2_000_000))
}
