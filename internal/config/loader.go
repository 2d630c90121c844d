package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"pokemcp/pkg/logging"
)

const (
	userConfigDir  = ".config/pokemcp"
	configFileName = "config.yaml"
	tokenFileName  = "session.json"
)

// Environment variables that override the file.
const (
	EnvSupabaseURL     = "SUPABASE_URL"
	EnvSupabaseAnonKey = "SUPABASE_ANON_KEY"
	EnvServiceRoleKey  = "SUPABASE_SERVICE_ROLE_KEY"
	EnvTokenFile       = "POKEMCP_TOKEN_FILE"
	EnvEndpoint        = "POKEMCP_ENDPOINT"
	EnvAccessToken     = "POKEMCP_ACCESS_TOKEN"
)

// package-level seams for tests
var (
	osUserHomeDir = os.UserHomeDir
	getenv        = os.Getenv
)

// GetDefaultConfigPathOrPanic returns ~/.config/pokemcp.
func GetDefaultConfigPathOrPanic() string {
	homeDir, err := osUserHomeDir()
	if err != nil {
		panic(fmt.Errorf("could not determine user config directory: %w", err))
	}

	return filepath.Join(homeDir, userConfigDir)
}

// LoadConfig loads config.yaml from configPath on top of the defaults, then
// applies environment overrides and resolves the token file path.
func LoadConfig(configPath string) (Config, error) {
	configFilePath := filepath.Join(configPath, configFileName)
	config := GetDefaultConfig()

	data, err := os.ReadFile(configFilePath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		logging.Debug("ConfigLoader", "No config.yaml found at %s, using defaults", configFilePath)
	case err != nil:
		return Config{}, fmt.Errorf("error reading config from %s: %w", configFilePath, err)
	default:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return Config{}, fmt.Errorf("error loading config from %s: %w", configFilePath, err)
		}
		logging.Debug("ConfigLoader", "Loaded configuration from %s", configFilePath)
	}

	applyEnv(&config)

	tokenFile, err := resolveTokenFile(config.Session.TokenFile, configPath)
	if err != nil {
		return Config{}, err
	}
	config.Session.TokenFile = tokenFile

	return config, nil
}

func applyEnv(c *Config) {
	override := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	override(&c.Identity.URL, EnvSupabaseURL)
	override(&c.Identity.AnonKey, EnvSupabaseAnonKey)
	override(&c.Identity.ServiceRoleKey, EnvServiceRoleKey)
	override(&c.Session.TokenFile, EnvTokenFile)
	override(&c.Client.Endpoint, EnvEndpoint)
	override(&c.Server.AccessToken, EnvAccessToken)
}

// resolveTokenFile expands "~/" and defaults to session.json next to
// config.yaml.
func resolveTokenFile(path, configPath string) (string, error) {
	if path == "" {
		return filepath.Join(configPath, tokenFileName), nil
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := osUserHomeDir()
		if err != nil {
			return "", fmt.Errorf("could not expand %s: %w", path, err)
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
	}
	return filepath.Clean(path), nil
}
