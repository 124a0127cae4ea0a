// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	// Base config
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like AZURE_SUBSCRIPTION_ID
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment-specific overrides, e.g. config.production.yaml
	envConfigFile := fmt.Sprintf("config.%s", env)
	viper.SetConfigName(envConfigFile)
	_ = viper.MergeInConfig() // ignore error if not found

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Load .env from multiple possible locations so the binary and the tests can
// both find it.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// Expand ${VAR} placeholders in string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		val := v.Get(key)

		if strVal, ok := val.(string); ok {
			if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
				expanded := os.ExpandEnv(strVal)
				if expanded != strVal && expanded != "" {
					v.Set(key, expanded)
				}
			}
		}
	}
}

// Direct override if config values are still empty after expansion.
func overrideEmptyConfig(cfg *Config) {
	if cfg.Azure.SubscriptionID == "" {
		if val := os.Getenv("AZURE_SUBSCRIPTION_ID"); val != "" {
			cfg.Azure.SubscriptionID = val
		}
	}
	if cfg.Azure.Region == "" {
		if val := os.Getenv("AZURE_REGION"); val != "" {
			cfg.Azure.Region = val
		}
	}
	if cfg.Messaging.AMQP.URL == "" {
		if val := os.Getenv("AMQP_URL"); val != "" {
			cfg.Messaging.AMQP.URL = val
		}
	}
	if cfg.Messaging.SNS.TopicARN == "" {
		if val := os.Getenv("SNS_TOPIC_ARN"); val != "" {
			cfg.Messaging.SNS.TopicARN = val
		}
	}
	if cfg.Redis.Address == "" {
		if val := os.Getenv("REDIS_ADDRESS"); val != "" {
			cfg.Redis.Address = val
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "cloud-image-tests"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}

	if cfg.Azure.Region == "" {
		cfg.Azure.Region = "westus3"
	}
	if len(cfg.Azure.SupportedImageDefinitions) == 0 {
		cfg.Azure.SupportedImageDefinitions = []string{
			"Fedora-Cloud-Rawhide-x64",
			"Fedora-Cloud-41-x64",
			"Fedora-Cloud-41-Arm64",
			"Fedora-Cloud-Rawhide-Arm64",
			"Fedora-Cloud-42-x64",
			"Fedora-Cloud-42-Arm64",
		}
	}

	if cfg.Lisa.Binary == "" {
		cfg.Lisa.Binary = "lisa"
	}
	if cfg.Lisa.Runbook == "" {
		cfg.Lisa.Runbook = "microsoft/runbook/azure_fedora.yml"
	}
	if cfg.Lisa.Tier == 0 {
		cfg.Lisa.Tier = 1
	}
	if cfg.Lisa.TestCaseName == "" {
		cfg.Lisa.TestCaseName = "verify_boot_error_fail_warnings"
	}
	if cfg.Lisa.ReportSuffix == "" {
		cfg.Lisa.ReportSuffix = "junit.xml"
	}

	if cfg.Workspace.BaseDir == "" {
		cfg.Workspace.BaseDir = os.TempDir()
	}
	if cfg.Workspace.KeygenBinary == "" {
		cfg.Workspace.KeygenBinary = "ssh-keygen"
	}
	if cfg.Workspace.KeyType == "" {
		cfg.Workspace.KeyType = "rsa"
	}
	if cfg.Workspace.KeyFileName == "" {
		cfg.Workspace.KeyFileName = "id_rsa"
	}

	if cfg.Messaging.Transport == "" {
		cfg.Messaging.Transport = "amqp"
	}
	if cfg.Messaging.AMQP.Exchange == "" {
		cfg.Messaging.AMQP.Exchange = "amq.topic"
	}
	if cfg.Messaging.AMQP.Queue == "" {
		cfg.Messaging.AMQP.Queue = "azure_published_consumer"
	}
	if len(cfg.Messaging.AMQP.RoutingKeys) == 0 {
		cfg.Messaging.AMQP.RoutingKeys = []string{
			"org.fedoraproject.prod.fedora_image_uploader.published.v1.azure.#",
		}
	}
	if cfg.Messaging.AMQP.PublishTopic == "" {
		cfg.Messaging.AMQP.PublishTopic = "org.fedoraproject.prod.fedora_cloud_tests.published.v1.azure"
	}

	if cfg.Redis.DedupeTTL == 0 {
		cfg.Redis.DedupeTTL = 24 * time.Hour
	}

	if cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = ":9464"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Azure.SubscriptionID == "" {
		return fmt.Errorf("azure.subscription_id is required")
	}

	switch cfg.Messaging.Transport {
	case "amqp":
		if cfg.Messaging.AMQP.URL == "" {
			return fmt.Errorf("messaging.amqp.url is required for the amqp transport")
		}
	case "sns":
		if cfg.Messaging.SNS.TopicARN == "" {
			return fmt.Errorf("messaging.sns.topic_arn is required for the sns transport")
		}
		if cfg.Messaging.SNS.Region == "" {
			return fmt.Errorf("messaging.sns.region is required for the sns transport")
		}
		if cfg.Messaging.AMQP.URL == "" {
			return fmt.Errorf("messaging.amqp.url is required for the inbound consumer")
		}
	default:
		return fmt.Errorf("messaging.transport must be amqp or sns, got %q", cfg.Messaging.Transport)
	}

	if cfg.Lisa.Tier < 0 {
		return fmt.Errorf("lisa.tier must not be negative")
	}

	return nil
}
