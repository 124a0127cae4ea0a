// internal/workers/azure/image-test/config.go
package imagetest

import (
	"cloud-image-tests/internal/common/config"
)

// Config carries the pipeline settings for one consumer process, copied out
// of the application config at startup.
type Config struct {
	Region                 string
	SubscriptionID         string
	SupportedDefinitions   []string
	AllowEmptyScopeSegment bool

	LisaBinary   string
	Runbook      string
	Tier         int
	TestCaseName string
	ReportSuffix string

	WorkspaceBaseDir string
	KeygenBinary     string
	KeyType          string
	KeyFileName      string
}

func LoadConfig(cfg *config.Config) *Config {
	return &Config{
		Region:                 cfg.Azure.Region,
		SubscriptionID:         cfg.Azure.SubscriptionID,
		SupportedDefinitions:   cfg.Azure.SupportedImageDefinitions,
		AllowEmptyScopeSegment: cfg.Azure.AllowEmptyScopeSegment,

		LisaBinary:   cfg.Lisa.Binary,
		Runbook:      cfg.Lisa.Runbook,
		Tier:         cfg.Lisa.Tier,
		TestCaseName: cfg.Lisa.TestCaseName,
		ReportSuffix: cfg.Lisa.ReportSuffix,

		WorkspaceBaseDir: cfg.Workspace.BaseDir,
		KeygenBinary:     cfg.Workspace.KeygenBinary,
		KeyType:          cfg.Workspace.KeyType,
		KeyFileName:      cfg.Workspace.KeyFileName,
	}
}
