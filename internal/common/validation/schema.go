// Package validation enforces the outbound result message contract before
// anything reaches the bus.
package validation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"cloud-image-tests/internal/models"
)

// resultMessageSchema is the draft-07 contract for the published test results
// body. The testResults definition is shared by the three per-status groups.
const resultMessageSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "$defs": {
    "testResults": {
      "type": "object",
      "properties": {
        "count": {
          "type": "integer",
          "description": "Number of tests in this category"
        },
        "tests": {
          "type": "object",
          "patternProperties": {
            ".*": {"type": "string"}
          },
          "additionalProperties": false,
          "description": "Explanation for the test result (e.g., reason for skip or failure)"
        }
      },
      "required": ["count", "tests"],
      "additionalProperties": false
    }
  },
  "description": "Schema for Azure image test results published after a LISA run",
  "type": "object",
  "properties": {
    "architecture": {"type": "string"},
    "compose_id": {"type": "string"},
    "image_id": {"type": "string"},
    "image_resource_id": {"type": "string"},
    "failed_tests": {"$ref": "#/$defs/testResults"},
    "skipped_tests": {"$ref": "#/$defs/testResults"},
    "passed_tests": {"$ref": "#/$defs/testResults"}
  },
  "required": [
    "architecture",
    "compose_id",
    "image_id",
    "image_resource_id",
    "failed_tests",
    "skipped_tests",
    "passed_tests"
  ]
}`

var schemaLoader = gojsonschema.NewStringLoader(resultMessageSchema)

// ValidateResultBody checks an encoded result body against the contract plus
// the count invariant the schema alone cannot express: each group's count
// must equal the number of entries in its tests map.
func ValidateResultBody(body []byte) error {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("schema evaluation failed: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return fmt.Errorf("result body violates schema: %s", strings.Join(msgs, "; "))
	}

	var msg models.ResultMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("result body is not a result message: %w", err)
	}
	for name, group := range map[string]models.TestGroup{
		"passed_tests":  msg.PassedTests,
		"failed_tests":  msg.FailedTests,
		"skipped_tests": msg.SkippedTests,
	} {
		if group.Count != len(group.Tests) {
			return fmt.Errorf("%s count %d does not match %d test entries", name, group.Count, len(group.Tests))
		}
	}

	return nil
}
