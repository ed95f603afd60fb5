package storage

import (
	"net/url"
	"strings"

	"boscoin.io/benor/lib/errors"
)

// Config is parsed from a uri, `memory://` or `file:///path/to/db`.
type Config struct {
	Scheme string
	Path   string
}

func NewConfigFromString(s string) (*Config, error) {
	parsed, err := url.Parse(s)
	if err != nil {
		return nil, errors.InvalidStorageConfig.Clone().SetData("error", err.Error())
	}

	config := &Config{Scheme: strings.ToLower(parsed.Scheme)}
	switch config.Scheme {
	case "memory":
	case "file":
		config.Path = parsed.Path
		if len(config.Path) < 1 {
			return nil, errors.InvalidStorageConfig.Clone().SetData("error", "empty path")
		}
	default:
		return nil, errors.InvalidStorageConfig.Clone().SetData("scheme", parsed.Scheme)
	}

	return config, nil
}

func (c *Config) String() string {
	if c.Scheme == "memory" {
		return "memory://"
	}

	return (&url.URL{Scheme: c.Scheme, Path: c.Path}).String()
}
