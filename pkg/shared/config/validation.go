package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mendio-dev/mendio/pkg/shared/files"
)

// ValidateConfig checks the loaded configuration, fills defaults, and
// materializes the home folder layout.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("YAML global config: configuration object is nil")
	}
	if err := ValidateMendioConfig(cfg); err != nil {
		return fmt.Errorf("YAML global config: mendio directive is invalid: %w", err)
	}
	if err := ValidateHTTPConfig(&cfg.HTTPClient); err != nil {
		return fmt.Errorf("YAML global config: http_client directive is invalid: %w", err)
	}
	if err := ValidateGitConfig(&cfg.GitClient); err != nil {
		return fmt.Errorf("YAML global config: git_client directive is invalid: %w", err)
	}
	if err := ValidateEngineConfig(&cfg.Engine); err != nil {
		return fmt.Errorf("YAML global config: engine directive is invalid: %w", err)
	}
	if err := ValidateQueueConfig(&cfg.Queue); err != nil {
		return fmt.Errorf("YAML global config: queue directive is invalid: %w", err)
	}
	if err := ValidateServerConfig(&cfg.Server); err != nil {
		return fmt.Errorf("YAML global config: server directive is invalid: %w", err)
	}
	if err := validateRulepacks(cfg.Rulepacks); err != nil {
		return fmt.Errorf("YAML global config: rulepacks directive is invalid: %w", err)
	}
	return nil
}

// ValidateMendioConfig resolves the home folder layout from the config and
// environment and creates any missing folders.
func ValidateMendioConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("mendio configuration is nil")
	}
	if err := updateHome(cfg); err != nil {
		return fmt.Errorf("failed to update home folder: %w", err)
	}
	if err := updateFolder(&cfg.Mendio.PluginsFolder, "MENDIO_PLUGINS_FOLDER", "plugins", cfg); err != nil {
		return fmt.Errorf("failed to update plugins folder: %w", err)
	}
	if err := updateFolder(&cfg.Mendio.ProjectsFolder, "MENDIO_PROJECTS_FOLDER", "projects", cfg); err != nil {
		return fmt.Errorf("failed to update projects folder: %w", err)
	}
	if err := updateFolder(&cfg.Mendio.ReportsFolder, "MENDIO_REPORTS_FOLDER", "reports", cfg); err != nil {
		return fmt.Errorf("failed to update reports folder: %w", err)
	}
	if err := updateFolder(&cfg.Mendio.TempFolder, "MENDIO_TEMP_FOLDER", "tmp", cfg); err != nil {
		return fmt.Errorf("failed to update temp folder: %w", err)
	}
	updateMode(cfg)
	return nil
}

// ValidateGitConfig checks git client settings and fills defaults.
func ValidateGitConfig(gitConfig *GitClient) error {
	if gitConfig == nil {
		return fmt.Errorf("git configuration is nil")
	}
	if err := validateDuration(gitConfig.Timeout, "timeout", 1*time.Hour); err != nil {
		return err
	}
	if gitConfig.Depth < 0 {
		return fmt.Errorf("depth cannot be negative: %d", gitConfig.Depth)
	}
	switch gitConfig.AuthType {
	case "", "none", "http", "ssh-key", "ssh-agent":
	default:
		return fmt.Errorf("unknown auth_type %q", gitConfig.AuthType)
	}
	return nil
}

// ValidateHTTPConfig checks HTTP client settings.
func ValidateHTTPConfig(httpConfig *HTTPClient) error {
	if httpConfig == nil {
		return fmt.Errorf("HTTP configuration is nil")
	}
	if httpConfig.RetryCount < 0 || httpConfig.RetryCount > 20 {
		return fmt.Errorf("retry_count must be between 0 and 20: %d", httpConfig.RetryCount)
	}

	durations := map[string]time.Duration{
		"RetryMaxWaitTime": httpConfig.RetryMaxWaitTime,
		"RetryWaitTime":    httpConfig.RetryWaitTime,
		"Timeout":          httpConfig.Timeout,
	}
	for name, duration := range durations {
		if err := validateDuration(duration, name, 100*time.Second); err != nil {
			return err
		}
	}

	return validateProxy(&httpConfig.Proxy)
}

// ValidateEngineConfig checks analysis engine settings.
func ValidateEngineConfig(engineConfig *Engine) error {
	if engineConfig == nil {
		return fmt.Errorf("engine configuration is nil")
	}
	for _, layer := range engineConfig.DefaultLayers {
		if layer < MinLayer || layer > MaxLayer {
			return fmt.Errorf("default layer %d out of supported range %d..%d", layer, MinLayer, MaxLayer)
		}
	}
	if engineConfig.MaxFileSizeKB < 0 {
		return fmt.Errorf("max_file_size_kb cannot be negative: %d", engineConfig.MaxFileSizeKB)
	}
	if engineConfig.MaxFileSizeKB == 0 {
		engineConfig.MaxFileSizeKB = DefaultMaxFileSizeKB
	}
	return nil
}

// ValidateQueueConfig checks queue settings and fills defaults.
func ValidateQueueConfig(queueConfig *Queue) error {
	if queueConfig == nil {
		return fmt.Errorf("queue configuration is nil")
	}
	if queueConfig.Workers < 0 || queueConfig.Workers > 64 {
		return fmt.Errorf("workers must be between 0 and 64: %d", queueConfig.Workers)
	}
	if queueConfig.Workers == 0 {
		queueConfig.Workers = DefaultQueueWorkers
	}
	if queueConfig.JobTTL < 0 {
		return fmt.Errorf("job_ttl cannot be negative: %v", queueConfig.JobTTL)
	}
	if queueConfig.JobTTL == 0 {
		queueConfig.JobTTL = DefaultJobTTL
	}
	if queueConfig.SweepInterval < 0 {
		return fmt.Errorf("sweep_interval cannot be negative: %v", queueConfig.SweepInterval)
	}
	if queueConfig.SweepInterval == 0 {
		queueConfig.SweepInterval = DefaultSweepInterval
	}
	return nil
}

// ValidateServerConfig checks the API server settings and the caller table.
func ValidateServerConfig(serverConfig *Server) error {
	if serverConfig == nil {
		return fmt.Errorf("server configuration is nil")
	}
	if serverConfig.Addr == "" {
		serverConfig.Addr = DefaultServerAddr
	}
	for i, caller := range serverConfig.Callers {
		if caller.Key == "" {
			return fmt.Errorf("caller %d has an empty key", i)
		}
		if caller.Name == "" {
			return fmt.Errorf("caller %d has an empty name", i)
		}
		switch caller.Tier {
		case TierFree, TierPro, TierEnterprise:
		default:
			return fmt.Errorf("caller %q has unknown tier %q", caller.Name, caller.Tier)
		}
	}
	return nil
}

func validateRulepacks(rulepacks []Rulepack) error {
	for i, pack := range rulepacks {
		if pack.Name == "" {
			return fmt.Errorf("rulepack %d has an empty name", i)
		}
	}
	return nil
}

// validateDuration checks that a time.Duration is valid and within a specified maximum duration.
func validateDuration(d time.Duration, name string, max time.Duration) error {
	if d < 0 {
		return fmt.Errorf("invalid duration for %q: %v cannot be negative", name, d)
	}
	if d > max {
		return fmt.Errorf("%q duration is too long: %v exceeds maximum of %v", name, d, max)
	}
	return nil
}

// validateProxy checks if the given Proxy settings are valid.
func validateProxy(proxy *Proxy) error {
	if proxy == nil {
		return fmt.Errorf("proxy configuration is nil")
	}

	// If host or port is not set, skip further validation
	if proxy.Host == "" || proxy.Port == 0 {
		return nil
	}

	if err := validateHost(&proxy.Host); err != nil {
		return err
	}
	return validatePort(proxy.Port)
}

// validateHost checks if the host part of the proxy configuration is valid.
// It ensures the host includes a scheme; adds "http" if missing.
func validateHost(host *string) error {
	if host == nil {
		return fmt.Errorf("host string pointer is nil")
	}

	if !strings.Contains(*host, "://") {
		*host = "http://" + *host
	}
	*host = strings.TrimRight(*host, "/")

	if _, err := url.Parse(*host); err != nil {
		return fmt.Errorf("invalid host URL: %w", err)
	}
	return nil
}

// validatePort checks if the port part of the proxy configuration is valid.
func validatePort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", port)
	}
	return nil
}

// updateHome resolves the home folder from environment variables or sets a default value.
func updateHome(cfg *Config) error {
	if mendioHomeFolder := os.Getenv("MENDIO_HOME"); mendioHomeFolder != "" {
		cfg.Mendio.HomeFolder = mendioHomeFolder
	} else if cfg.Mendio.HomeFolder == "" {
		homeFolder, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("unable to get user home folder: %w", err)
		}
		cfg.Mendio.HomeFolder = filepath.Join(homeFolder, ".mendio")
	}

	expandedHomePath, err := files.ExpandPath(cfg.Mendio.HomeFolder)
	if err != nil {
		return fmt.Errorf("failed to expand home path %q: %w", cfg.Mendio.HomeFolder, err)
	}
	cfg.Mendio.HomeFolder = expandedHomePath

	if err := files.CreateFolderIfNotExists(expandedHomePath); err != nil {
		return fmt.Errorf("failed to create home folder %q: %w", cfg.Mendio.HomeFolder, err)
	}
	return nil
}

// updateFolder resolves one home sub-folder from the environment, the config,
// or its default location, and creates it.
func updateFolder(folder *string, envVar, defaultSubFolder string, cfg *Config) error {
	if envVarValue := os.Getenv(envVar); envVarValue != "" {
		*folder = envVarValue
	} else if *folder == "" {
		*folder = filepath.Join(GetMendioHome(cfg), defaultSubFolder)
	}

	expandedPath, err := files.ExpandPath(*folder)
	if err != nil {
		return fmt.Errorf("failed to expand path %q: %w", *folder, err)
	}
	*folder = expandedPath

	if err := files.CreateFolderIfNotExists(expandedPath); err != nil {
		return fmt.Errorf("failed to create folder %q: %w", expandedPath, err)
	}
	return nil
}

// updateMode sets the run mode based on environment variables.
func updateMode(cfg *Config) {
	if os.Getenv("MENDIO_MODE") == "CI" || os.Getenv("CI") == "true" {
		cfg.Mendio.Mode = "CI"
		return
	}

	if envVarValue := os.Getenv("MENDIO_MODE"); envVarValue != "" {
		cfg.Mendio.Mode = envVarValue
		return
	}

	cfg.Mendio.Mode = "user"
}
