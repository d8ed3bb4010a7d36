package config

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigPath = "/etc/orchard/config"
	ConfigFileName    = "orchard.yml"
)

// ValidLogFormats lists the accepted log_format values
var ValidLogFormats = []string{"console", "json"}

// OrchardConfig holds all orchard configuration settings
type OrchardConfig struct {
	// BindAddress is the address the HTTP server listens on
	BindAddress string `yaml:"bind_address" json:"bind_address"`

	// Port is the HTTP port
	Port int `yaml:"port" json:"port"`

	// DatabaseURL selects the store (postgres:// or sqlite://)
	DatabaseURL string `yaml:"database_url" json:"database_url"`

	// LogLevel is one of debug, info, warn, error
	LogLevel string `yaml:"log_level" json:"log_level"`

	// LogFormat is console or json
	LogFormat string `yaml:"log_format" json:"log_format"`

	// TrustedProxies is a list of CIDR ranges whose X-Forwarded-For is honoured
	TrustedProxies []string `yaml:"trusted_proxies" json:"trusted_proxies"`

	// ListLimitMax caps the limit query parameter of listing requests
	ListLimitMax int `yaml:"list_limit_max" json:"list_limit_max"`

	// AuditEnabled writes audit events to stdout
	AuditEnabled *bool `yaml:"audit_enabled" json:"audit_enabled"`

	// AuditDatabase additionally persists audit events to audit_messages
	AuditDatabase *bool `yaml:"audit_database" json:"audit_database"`

	// MetricsEnabled serves /metrics
	MetricsEnabled *bool `yaml:"metrics_enabled" json:"metrics_enabled"`

	// ReadTimeout and WriteTimeout bound a single request, in seconds
	ReadTimeout  int `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout int `yaml:"write_timeout" json:"write_timeout"`

	// sources tracks where each value came from
	sources map[string]string

	// configFilePath is the path to the config file
	configFilePath string
}

// Attribute represents a configuration attribute with its value and source
type Attribute struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Source string `json:"source"`
}

// Default returns a config with default values and no sources recorded
func Default() *OrchardConfig {
	return &OrchardConfig{
		BindAddress:    "127.0.0.1",
		Port:           8080,
		LogLevel:       "info",
		LogFormat:      "console",
		TrustedProxies: []string{},
		ListLimitMax:   1000,
		AuditEnabled:   boolPtr(true),
		AuditDatabase:  boolPtr(false),
		MetricsEnabled: boolPtr(true),
		ReadTimeout:    15,
		WriteTimeout:   15,
		sources:        make(map[string]string),
	}
}

// Load loads configuration from file and environment variables
// Environment variables take precedence over file values
func Load() (*OrchardConfig, error) {
	config := Default()

	for _, name := range attributeNames() {
		config.sources[name] = "default"
	}

	configPath := os.Getenv("ORCHARD_CONFIG_PATH")
	if configPath == "" {
		configPath = DefaultConfigPath
	}
	config.configFilePath = filepath.Join(configPath, ConfigFileName)

	if data, err := os.ReadFile(config.configFilePath); err == nil {
		var fileConfig OrchardConfig
		if err := yaml.Unmarshal(data, &fileConfig); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", config.configFilePath, err)
		}
		config.applyFileConfig(&fileConfig)
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file %s: %w", config.configFilePath, err)
	}

	if err := config.applyEnvConfig(); err != nil {
		return nil, err
	}

	return config, nil
}

func attributeNames() []string {
	return []string{
		"bind_address", "port", "database_url", "log_level", "log_format",
		"trusted_proxies", "list_limit_max", "audit_enabled", "audit_database",
		"metrics_enabled", "read_timeout", "write_timeout",
	}
}

func (c *OrchardConfig) applyFileConfig(file *OrchardConfig) {
	if file.BindAddress != "" {
		c.BindAddress = file.BindAddress
		c.sources["bind_address"] = "file"
	}
	if file.Port != 0 {
		c.Port = file.Port
		c.sources["port"] = "file"
	}
	if file.DatabaseURL != "" {
		c.DatabaseURL = file.DatabaseURL
		c.sources["database_url"] = "file"
	}
	if file.LogLevel != "" {
		c.LogLevel = file.LogLevel
		c.sources["log_level"] = "file"
	}
	if file.LogFormat != "" {
		c.LogFormat = file.LogFormat
		c.sources["log_format"] = "file"
	}
	if len(file.TrustedProxies) > 0 {
		c.TrustedProxies = file.TrustedProxies
		c.sources["trusted_proxies"] = "file"
	}
	if file.ListLimitMax != 0 {
		c.ListLimitMax = file.ListLimitMax
		c.sources["list_limit_max"] = "file"
	}
	if file.AuditEnabled != nil {
		c.AuditEnabled = file.AuditEnabled
		c.sources["audit_enabled"] = "file"
	}
	if file.AuditDatabase != nil {
		c.AuditDatabase = file.AuditDatabase
		c.sources["audit_database"] = "file"
	}
	if file.MetricsEnabled != nil {
		c.MetricsEnabled = file.MetricsEnabled
		c.sources["metrics_enabled"] = "file"
	}
	if file.ReadTimeout != 0 {
		c.ReadTimeout = file.ReadTimeout
		c.sources["read_timeout"] = "file"
	}
	if file.WriteTimeout != 0 {
		c.WriteTimeout = file.WriteTimeout
		c.sources["write_timeout"] = "file"
	}
}

func (c *OrchardConfig) applyEnvConfig() error {
	if val := firstEnv("ORCHARD_BIND_ADDRESS", "BIND_ADDRESS"); val != "" {
		c.BindAddress = val
		c.sources["bind_address"] = "environment"
	}
	if val := firstEnv("ORCHARD_PORT", "PORT"); val != "" {
		i, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid port %q: %w", val, err)
		}
		c.Port = i
		c.sources["port"] = "environment"
	}
	if val := firstEnv("ORCHARD_DATABASE_URL", "DATABASE_URL"); val != "" {
		c.DatabaseURL = val
		c.sources["database_url"] = "environment"
	}
	if val := os.Getenv("ORCHARD_LOG_LEVEL"); val != "" {
		c.LogLevel = val
		c.sources["log_level"] = "environment"
	}
	if val := os.Getenv("ORCHARD_LOG_FORMAT"); val != "" {
		c.LogFormat = val
		c.sources["log_format"] = "environment"
	}
	if val := os.Getenv("ORCHARD_TRUSTED_PROXIES"); val != "" {
		c.TrustedProxies = splitAndTrim(val)
		c.sources["trusted_proxies"] = "environment"
	}
	if val := os.Getenv("ORCHARD_LIST_LIMIT_MAX"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			c.ListLimitMax = i
			c.sources["list_limit_max"] = "environment"
		}
	}
	if val := os.Getenv("ORCHARD_AUDIT_ENABLED"); val != "" {
		c.AuditEnabled = boolPtr(parseBool(val))
		c.sources["audit_enabled"] = "environment"
	}
	if val := os.Getenv("ORCHARD_AUDIT_DATABASE"); val != "" {
		c.AuditDatabase = boolPtr(parseBool(val))
		c.sources["audit_database"] = "environment"
	}
	if val := os.Getenv("ORCHARD_METRICS_ENABLED"); val != "" {
		c.MetricsEnabled = boolPtr(parseBool(val))
		c.sources["metrics_enabled"] = "environment"
	}
	if val := os.Getenv("ORCHARD_READ_TIMEOUT"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			c.ReadTimeout = i
			c.sources["read_timeout"] = "environment"
		}
	}
	if val := os.Getenv("ORCHARD_WRITE_TIMEOUT"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			c.WriteTimeout = i
			c.sources["write_timeout"] = "environment"
		}
	}
	return nil
}

// ConfigFilePath returns the path to the config file
func (c *OrchardConfig) ConfigFilePath() string {
	return c.configFilePath
}

// Source returns the source of a configuration attribute
func (c *OrchardConfig) Source(name string) string {
	if c.sources == nil {
		return "default"
	}
	if s, ok := c.sources[name]; ok {
		return s
	}
	return "default"
}

// Address returns host:port for the HTTP listener
func (c *OrchardConfig) Address() string {
	return net.JoinHostPort(c.BindAddress, strconv.Itoa(c.Port))
}

// ReadTimeoutDuration returns the read timeout as a duration
func (c *OrchardConfig) ReadTimeoutDuration() time.Duration {
	return time.Duration(c.ReadTimeout) * time.Second
}

// WriteTimeoutDuration returns the write timeout as a duration
func (c *OrchardConfig) WriteTimeoutDuration() time.Duration {
	return time.Duration(c.WriteTimeout) * time.Second
}

func (c *OrchardConfig) IsAuditEnabled() bool   { return c.AuditEnabled != nil && *c.AuditEnabled }
func (c *OrchardConfig) IsAuditDatabase() bool  { return c.AuditDatabase != nil && *c.AuditDatabase }
func (c *OrchardConfig) IsMetricsEnabled() bool { return c.MetricsEnabled != nil && *c.MetricsEnabled }

// IsTrustedProxy checks if an IP is from a trusted proxy
func (c *OrchardConfig) IsTrustedProxy(ip string) bool {
	if len(c.TrustedProxies) == 0 {
		return false
	}

	parsedIP := net.ParseIP(ip)
	if parsedIP == nil {
		return false
	}

	for _, cidr := range c.TrustedProxies {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			// Try as plain IP
			if proxy := net.ParseIP(cidr); proxy != nil && proxy.Equal(parsedIP) {
				return true
			}
			continue
		}
		if network.Contains(parsedIP) {
			return true
		}
	}
	return false
}

// Validate validates the configuration
func (c *OrchardConfig) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}

	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level: %s", c.LogLevel)
	}

	validFormat := false
	for _, f := range ValidLogFormats {
		if c.LogFormat == f {
			validFormat = true
		}
	}
	if !validFormat {
		return fmt.Errorf("invalid log_format: %s (expected one of %s)", c.LogFormat, strings.Join(ValidLogFormats, ", "))
	}

	for _, cidr := range c.TrustedProxies {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			if net.ParseIP(cidr) == nil {
				return fmt.Errorf("invalid trusted_proxies value: %s", cidr)
			}
		}
	}

	if c.ListLimitMax < 1 {
		return fmt.Errorf("list_limit_max must be positive, got %d", c.ListLimitMax)
	}
	if c.ReadTimeout < 0 || c.WriteTimeout < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}

	return nil
}

// Attributes returns all configuration attributes with their values and sources
func (c *OrchardConfig) Attributes() []Attribute {
	return []Attribute{
		{Name: "bind_address", Value: c.BindAddress, Source: c.Source("bind_address")},
		{Name: "port", Value: strconv.Itoa(c.Port), Source: c.Source("port")},
		{Name: "database_url", Value: redactURL(c.DatabaseURL), Source: c.Source("database_url")},
		{Name: "log_level", Value: c.LogLevel, Source: c.Source("log_level")},
		{Name: "log_format", Value: c.LogFormat, Source: c.Source("log_format")},
		{Name: "trusted_proxies", Value: strings.Join(c.TrustedProxies, ","), Source: c.Source("trusted_proxies")},
		{Name: "list_limit_max", Value: strconv.Itoa(c.ListLimitMax), Source: c.Source("list_limit_max")},
		{Name: "audit_enabled", Value: strconv.FormatBool(c.IsAuditEnabled()), Source: c.Source("audit_enabled")},
		{Name: "audit_database", Value: strconv.FormatBool(c.IsAuditDatabase()), Source: c.Source("audit_database")},
		{Name: "metrics_enabled", Value: strconv.FormatBool(c.IsMetricsEnabled()), Source: c.Source("metrics_enabled")},
		{Name: "read_timeout", Value: strconv.Itoa(c.ReadTimeout), Source: c.Source("read_timeout")},
		{Name: "write_timeout", Value: strconv.Itoa(c.WriteTimeout), Source: c.Source("write_timeout")},
	}
}

// FormatText returns a text representation of the configuration
func (c *OrchardConfig) FormatText() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Config file: %s\n\n", c.configFilePath))
	sb.WriteString(fmt.Sprintf("%-20s %-40s %s\n", "NAME", "VALUE", "SOURCE"))
	sb.WriteString(fmt.Sprintf("%-20s %-40s %s\n", "----", "-----", "------"))

	for _, attr := range c.Attributes() {
		value := attr.Value
		if value == "" {
			value = "(not set)"
		}
		sb.WriteString(fmt.Sprintf("%-20s %-40s %s\n", attr.Name, value, attr.Source))
	}
	return sb.String()
}

// FormatJSON returns a JSON representation of the configuration
func (c *OrchardConfig) FormatJSON() (string, error) {
	result := map[string]interface{}{
		"config_file": c.configFilePath,
		"attributes":  c.Attributes(),
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// redactURL hides the password of a database URL.
func redactURL(raw string) string {
	at := strings.LastIndex(raw, "@")
	scheme := strings.Index(raw, "://")
	if at < 0 || scheme < 0 || at < scheme {
		return raw
	}
	userinfo := raw[scheme+3 : at]
	if colon := strings.Index(userinfo, ":"); colon >= 0 {
		return raw[:scheme+3] + userinfo[:colon] + ":xxxxx" + raw[at:]
	}
	return raw
}

func firstEnv(names ...string) string {
	for _, name := range names {
		if val := os.Getenv(name); val != "" {
			return val
		}
	}
	return ""
}

func parseBool(val string) bool {
	return val == "true" || val == "1"
}

func boolPtr(b bool) *bool {
	return &b
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
