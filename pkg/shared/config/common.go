package config

import "time"

// Supported analysis layers. Layer identifiers are stable integers; new
// layers are appended, never renumbered.
const (
	MinLayer = 1
	MaxLayer = 8
)

// Caller service tiers.
const (
	TierFree       = "free"
	TierPro        = "pro"
	TierEnterprise = "enterprise"
)

// Defaults applied by ValidateConfig.
const (
	DefaultMaxFileSizeKB = 1024
	DefaultQueueWorkers  = 4
	DefaultJobTTL        = 24 * time.Hour
	DefaultSweepInterval = 1 * time.Minute
	DefaultServerAddr    = ":8617"
)

// GetMendioHome returns the resolved application home folder.
func GetMendioHome(cfg *Config) string {
	return cfg.Mendio.HomeFolder
}

// GetMendioPluginsHome returns the folder holding rule-provider plugin binaries.
func GetMendioPluginsHome(cfg *Config) string {
	return cfg.Mendio.PluginsFolder
}

// GetMendioProjectsHome returns the folder holding fetched analysis targets.
func GetMendioProjectsHome(cfg *Config) string {
	return cfg.Mendio.ProjectsFolder
}

// GetMendioReportsHome returns the folder holding saved analysis reports.
func GetMendioReportsHome(cfg *Config) string {
	return cfg.Mendio.ReportsFolder
}

// GetMendioTempHome returns the scratch folder.
func GetMendioTempHome(cfg *Config) string {
	return cfg.Mendio.TempFolder
}

// IsCI reports whether mendio runs in CI mode.
func IsCI(cfg *Config) bool {
	return cfg.Mendio.Mode == "CI"
}

// DefaultLayers returns the configured default layer set, or the full
// supported range when none is configured.
func DefaultLayers(cfg *Config) []int {
	if cfg != nil && len(cfg.Engine.DefaultLayers) > 0 {
		layers := make([]int, len(cfg.Engine.DefaultLayers))
		copy(layers, cfg.Engine.DefaultLayers)
		return layers
	}
	layers := make([]int, 0, MaxLayer)
	for l := MinLayer; l <= MaxLayer; l++ {
		layers = append(layers, l)
	}
	return layers
}
