package config

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
)

// Keys read from the environment file.
const (
	EnvAPIURL   = "ZBX_API_URL"
	EnvAPIToken = "ZBX_API_TOKEN"
)

// LoadEnvFile reads key/value pairs from path. A missing file is treated as empty.
func LoadEnvFile(path string) (map[string]string, error) {
	if path == "" {
		return map[string]string{}, nil
	}
	env, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, err
	}
	for k, v := range env {
		env[k] = strings.TrimSpace(v)
	}
	return env, nil
}
