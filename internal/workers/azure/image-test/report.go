// internal/workers/azure/image-test/report.go
package imagetest

import (
	"encoding/xml"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	stderrors "cloud-image-tests/internal/common/errors"
	"cloud-image-tests/internal/common/logger"
	"cloud-image-tests/internal/models"
)

// Extractor locates the JUnit report the test tool wrote under the workspace
// run directory and classifies every test case. The XML body is the ground
// truth: counts are recomputed from the classified cases, never taken from
// the document's own summary attributes.
type Extractor struct {
	config *Config
	logger logger.Logger
}

func NewExtractor(config *Config, log logger.Logger) *Extractor {
	return &Extractor{
		config: config,
		logger: log.WithFields(map[string]interface{}{"component": "report"}),
	}
}

// Extract finds and parses the report for one run. A missing directory,
// missing report file, or malformed document all yield an error: partial or
// garbage data is never published.
func (e *Extractor) Extract(ws *Workspace) (*models.ReportSummary, error) {
	searchRoot := filepath.Join(ws.LogPath, ws.RunName)

	reportPath, err := e.findReportFile(searchRoot)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(reportPath)
	if err != nil {
		return nil, stderrors.NewReportNotFoundError(reportPath)
	}

	outcomes, err := parseJUnitReport(data)
	if err != nil {
		return nil, stderrors.NewReportParseFailedError(err)
	}

	summary := models.NewReportSummary(outcomes)
	e.logger.Info("Report extracted", map[string]interface{}{
		"report":  reportPath,
		"passed":  summary.Passed.Count,
		"failed":  summary.Failed.Count,
		"skipped": summary.Skipped.Count,
	})
	return summary, nil
}

var errReportFound = fmt.Errorf("report found")

// findReportFile returns the first file under root whose name ends with the
// configured report suffix.
func (e *Extractor) findReportFile(root string) (string, error) {
	if _, err := os.Stat(root); err != nil {
		return "", stderrors.NewReportNotFoundError(root)
	}

	var found string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), e.config.ReportSuffix) {
			found = path
			return errReportFound
		}
		return nil
	})
	if err != nil && err != errReportFound {
		return "", stderrors.NewReportNotFoundError(root)
	}
	if found == "" {
		return "", stderrors.NewReportNotFoundError(root)
	}
	return found, nil
}

// ==========================
// JUnit document parsing
// ==========================

type junitTestSuites struct {
	XMLName xml.Name         `xml:"testsuites"`
	Suites  []junitTestSuite `xml:"testsuite"`
}

type junitTestSuite struct {
	XMLName xml.Name        `xml:"testsuite"`
	Name    string          `xml:"name,attr"`
	Cases   []junitTestCase `xml:"testcase"`
}

type junitTestCase struct {
	Name    string        `xml:"name,attr"`
	Time    string        `xml:"time,attr"`
	Failure *junitMessage `xml:"failure"`
	Error   *junitMessage `xml:"error"`
	Skipped *junitMessage `xml:"skipped"`
}

type junitMessage struct {
	Message string `xml:"message,attr"`
	Text    string `xml:",chardata"`
}

// entityReplacer un-escapes the fixed set of HTML entities the test tool
// writes into failure messages.
var entityReplacer = strings.NewReplacer(
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&apos;", "'",
	"&#39;", "'",
	"&amp;", "&",
)

// parseJUnitReport accepts a document rooted at either a test-suite
// collection or a single test-suite.
func parseJUnitReport(data []byte) ([]models.TestOutcome, error) {
	var suites []junitTestSuite

	var collection junitTestSuites
	if err := xml.Unmarshal(data, &collection); err == nil {
		suites = collection.Suites
	} else {
		var single junitTestSuite
		if err := xml.Unmarshal(data, &single); err != nil {
			return nil, fmt.Errorf("malformed report document: %w", err)
		}
		suites = []junitTestSuite{single}
	}

	var outcomes []models.TestOutcome
	for _, suite := range suites {
		for _, tc := range suite.Cases {
			outcomes = append(outcomes, classifyTestCase(suite.Name, tc))
		}
	}
	return outcomes, nil
}

func classifyTestCase(suiteName string, tc junitTestCase) models.TestOutcome {
	id := fmt.Sprintf("%s.%s", suiteName, tc.Name)

	if failure := firstOf(tc.Failure, tc.Error); failure != nil {
		return models.TestOutcome{
			ID:          id,
			Status:      models.TestFailed,
			Explanation: failureExplanation(failure),
		}
	}

	if tc.Skipped != nil {
		return models.TestOutcome{
			ID:          id,
			Status:      models.TestSkipped,
			Explanation: entityReplacer.Replace(tc.Skipped.Message),
		}
	}

	seconds, _ := strconv.ParseFloat(tc.Time, 64)
	return models.TestOutcome{
		ID:          id,
		Status:      models.TestPassed,
		Explanation: fmt.Sprintf("Test passed in %.2f seconds", seconds),
	}
}

func firstOf(candidates ...*junitMessage) *junitMessage {
	for _, c := range candidates {
		if c != nil {
			return c
		}
	}
	return nil
}

// failureExplanation joins the failure message and the optional free-text
// trace into one explanation string.
func failureExplanation(m *junitMessage) string {
	message := entityReplacer.Replace(m.Message)
	trace := strings.TrimSpace(entityReplacer.Replace(m.Text))
	if trace == "" {
		return message
	}
	if message == "" {
		return trace
	}
	return message + "\n" + trace
}
