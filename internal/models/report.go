// internal/models/report.go
package models

// TestStatus classifies one external test case outcome.
type TestStatus string

const (
	TestPassed  TestStatus = "passed"
	TestFailed  TestStatus = "failed"
	TestSkipped TestStatus = "skipped"
)

// TestOutcome is one external test case: identifier ("suite.testName"),
// status, and a human-readable explanation (timing for passed, failure text
// for failed, skip reason for skipped).
type TestOutcome struct {
	ID          string
	Status      TestStatus
	Explanation string
}

// TestGroup is one per-status bucket of the report summary. Count always
// equals len(Tests); use NewTestGroup so the invariant holds at construction.
type TestGroup struct {
	Count int               `json:"count"`
	Tests map[string]string `json:"tests"`
}

func NewTestGroup(tests map[string]string) TestGroup {
	if tests == nil {
		tests = map[string]string{}
	}
	return TestGroup{Count: len(tests), Tests: tests}
}

// ReportSummary aggregates all classified outcomes of one run.
type ReportSummary struct {
	Passed  TestGroup
	Failed  TestGroup
	Skipped TestGroup
}

// NewReportSummary buckets outcomes by status. Counts are recomputed from the
// classified list, never taken from report document attributes.
func NewReportSummary(outcomes []TestOutcome) *ReportSummary {
	passed := map[string]string{}
	failed := map[string]string{}
	skipped := map[string]string{}

	for _, o := range outcomes {
		switch o.Status {
		case TestFailed:
			failed[o.ID] = o.Explanation
		case TestSkipped:
			skipped[o.ID] = o.Explanation
		default:
			passed[o.ID] = o.Explanation
		}
	}

	return &ReportSummary{
		Passed:  NewTestGroup(passed),
		Failed:  NewTestGroup(failed),
		Skipped: NewTestGroup(skipped),
	}
}
