// internal/models/result.go
package models

// ResultMessage is the outbound payload published after a run: identifying
// fields copied from the notification plus the three test groups. Built once,
// published once, then discarded.
type ResultMessage struct {
	Architecture    string    `json:"architecture"`
	ComposeID       string    `json:"compose_id"`
	ImageID         string    `json:"image_id"`
	ImageResourceID string    `json:"image_resource_id"`
	PassedTests     TestGroup `json:"passed_tests"`
	FailedTests     TestGroup `json:"failed_tests"`
	SkippedTests    TestGroup `json:"skipped_tests"`
}

// NewResultMessage copies the notification's identifying fields verbatim and
// embeds the report groups as-is. The image id is the image definition name.
func NewResultMessage(n Notification, summary *ReportSummary) *ResultMessage {
	return &ResultMessage{
		Architecture:    n.Body.Architecture,
		ComposeID:       n.Body.ComposeID,
		ImageID:         n.Body.ImageDefinitionName,
		ImageResourceID: n.Body.ImageResourceID,
		PassedTests:     summary.Passed,
		FailedTests:     summary.Failed,
		SkippedTests:    summary.Skipped,
	}
}
