package config

import (
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v2"
)

// Config is the root of the mendio YAML configuration.
type Config struct {
	Mendio     Mendio     `yaml:"mendio"`
	Logger     Logger     `yaml:"logger"`
	HTTPClient HTTPClient `yaml:"http_client"`
	GitClient  GitClient  `yaml:"git_client"`
	Engine     Engine     `yaml:"engine"`
	Queue      Queue      `yaml:"queue"`
	Server     Server     `yaml:"server"`
	Artifacts  Artifacts  `yaml:"artifacts"`
	Tracker    Tracker    `yaml:"tracker"`
	Rulepacks  []Rulepack `yaml:"rulepacks"`
}

// Mendio holds the application home folders and the run mode.
type Mendio struct {
	HomeFolder     string `yaml:"home_folder"`
	PluginsFolder  string `yaml:"plugins_folder"`
	ProjectsFolder string `yaml:"projects_folder"`
	ReportsFolder  string `yaml:"reports_folder"`
	TempFolder     string `yaml:"temp_folder"`
	Mode           string `yaml:"mode"`
}

// Logger holds logging settings.
type Logger struct {
	Level string `yaml:"level"`
}

// HTTPClient holds settings for outgoing HTTP clients.
type HTTPClient struct {
	Debug            bool            `yaml:"debug"`
	RetryCount       int             `yaml:"retry_count"`
	RetryWaitTime    time.Duration   `yaml:"retry_wait_time"`
	RetryMaxWaitTime time.Duration   `yaml:"retry_max_wait_time"`
	Timeout          time.Duration   `yaml:"timeout"`
	TLSClientConfig  TLSClientConfig `yaml:"tls_client_config"`
	Proxy            Proxy           `yaml:"proxy"`
}

// TLSClientConfig holds TLS settings for outgoing HTTP clients.
type TLSClientConfig struct {
	Verify bool `yaml:"verify"`
}

// Proxy holds outbound proxy settings.
type Proxy struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// GitClient holds settings for fetching remote analysis targets.
type GitClient struct {
	Timeout    time.Duration `yaml:"timeout"`
	Depth      int           `yaml:"depth"`
	AuthType   string        `yaml:"auth_type"` // none | http | ssh-key | ssh-agent
	SSHKeyPath string        `yaml:"ssh_key_path"`
}

// Engine holds analysis engine settings.
type Engine struct {
	DefaultLayers []int `yaml:"default_layers"`
	MaxFileSizeKB int   `yaml:"max_file_size_kb"`
}

// Queue holds analysis job queue settings.
type Queue struct {
	Workers       int           `yaml:"workers"`
	JobTTL        time.Duration `yaml:"job_ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

// Server holds HTTP API settings, including the caller/tier table.
type Server struct {
	Addr    string   `yaml:"addr"`
	Callers []Caller `yaml:"callers"`
}

// Caller maps an API key to a named caller and its service tier.
type Caller struct {
	Key  string `yaml:"key"`
	Name string `yaml:"name"`
	Tier string `yaml:"tier"` // free | pro | enterprise
}

// Artifacts holds report artifact storage settings.
type Artifacts struct {
	S3 S3 `yaml:"s3"`
}

// S3 holds settings for uploading report artifacts to an S3 bucket.
type S3 struct {
	Bucket   string `yaml:"bucket"`
	Prefix   string `yaml:"prefix"`
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"`
}

// Tracker holds issue tracker integration settings.
type Tracker struct {
	GitHub TrackerAuth `yaml:"github"`
	GitLab TrackerAuth `yaml:"gitlab"`
}

// TrackerAuth holds authentication settings for one tracker platform.
type TrackerAuth struct {
	Token   string `yaml:"token"`
	BaseURL string `yaml:"base_url"`
}

// Rulepack references an adaptive rule-provider plugin by binary name.
type Rulepack struct {
	Name    string `yaml:"name"`
	Enabled bool   `yaml:"enabled"`
}

// LoadYAML decodes a YAML file into data.
func LoadYAML(configPath string, data interface{}) error {
	if err := ValidateConfigPath(configPath); err != nil {
		return err
	}

	file, err := os.Open(configPath)
	if err != nil {
		return err
	}
	defer file.Close()

	d := yaml.NewDecoder(file)
	if err := d.Decode(data); err != nil {
		return fmt.Errorf("failed to decode %q: %w", configPath, err)
	}
	return nil
}

// ValidateConfigPath checks that the given path points at a regular file.
func ValidateConfigPath(path string) error {
	s, err := os.Stat(path)
	if err != nil {
		return err
	}
	if s.IsDir() {
		return fmt.Errorf("'%s' is a directory, not a file", path)
	}
	return nil
}

// LoadConfig reads the configuration file at path. When the file does not
// exist and the path was not explicitly requested, defaults are returned so
// the CLI stays usable without a config file.
func LoadConfig(path string, explicit bool) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return nil, err
	}
	if err := LoadYAML(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
