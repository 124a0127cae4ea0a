// internal/common/config/config.go
package config

import "time"

// Config is the main application configuration struct. It is constructed once
// at startup and passed by reference into each component; nothing mutates it
// afterwards.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Azure     AzureConfig     `mapstructure:"azure"`
	Lisa      LisaConfig      `mapstructure:"lisa"`
	Workspace WorkspaceConfig `mapstructure:"workspace"`
	Messaging MessagingConfig `mapstructure:"messaging"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// AzureConfig scopes a run to a region and subscription and carries the image
// family allow-list used by the resolver.
type AzureConfig struct {
	Region                    string   `mapstructure:"region"`
	SubscriptionID            string   `mapstructure:"subscription_id"`
	SupportedImageDefinitions []string `mapstructure:"supported_image_definitions"`

	// AllowEmptyScopeSegment controls whether a resource id like "//" (three
	// segments, the third empty) yields an image reference with an empty
	// subscription segment instead of a not-applicable verdict.
	AllowEmptyScopeSegment bool `mapstructure:"allow_empty_scope_segment"`
}

// LisaConfig describes how the external test tool is invoked.
type LisaConfig struct {
	Binary       string `mapstructure:"binary"`
	Runbook      string `mapstructure:"runbook"`
	Tier         int    `mapstructure:"tier"`
	TestCaseName string `mapstructure:"test_case_name"`
	ReportSuffix string `mapstructure:"report_suffix"`
}

// WorkspaceConfig describes per-run workspace and key pair provisioning.
type WorkspaceConfig struct {
	BaseDir      string `mapstructure:"base_dir"`
	KeygenBinary string `mapstructure:"keygen_binary"`
	KeyType      string `mapstructure:"key_type"`
	KeyFileName  string `mapstructure:"key_file_name"`
}

// MessagingConfig selects and configures the bus transports.
type MessagingConfig struct {
	// Transport selects the outbound result transport: "amqp" or "sns".
	Transport string     `mapstructure:"transport"`
	AMQP      AMQPConfig `mapstructure:"amqp"`
	SNS       SNSConfig  `mapstructure:"sns"`
}

type AMQPConfig struct {
	URL          string   `mapstructure:"url"`
	Exchange     string   `mapstructure:"exchange"`
	Queue        string   `mapstructure:"queue"`
	RoutingKeys  []string `mapstructure:"routing_keys"`
	PublishTopic string   `mapstructure:"publish_topic"`
}

type SNSConfig struct {
	Region   string `mapstructure:"region"`
	TopicARN string `mapstructure:"topic_arn"`
}

type RedisConfig struct {
	Address   string        `mapstructure:"address"`
	Password  string        `mapstructure:"password"`
	DB        int           `mapstructure:"db"`
	DedupeTTL time.Duration `mapstructure:"dedupe_ttl"`
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
