// internal/workers/azure/image-test/publisher_test.go
package imagetest

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"cloud-image-tests/internal/common/logger"
	"cloud-image-tests/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

// fakeTransport records published messages and fails on demand.
type fakeTransport struct {
	publishErr error

	topics []string
	bodies [][]byte
}

func (f *fakeTransport) Publish(ctx context.Context, topic string, body []byte) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.topics = append(f.topics, topic)
	f.bodies = append(f.bodies, body)
	return nil
}

func createTestSummary() *models.ReportSummary {
	return models.NewReportSummary([]models.TestOutcome{
		{ID: "lisa.verify_boot", Status: models.TestPassed, Explanation: "Test passed in 5.49 seconds"},
		{ID: "lisa.verify_dmesg", Status: models.TestFailed, Explanation: "found errors in dmesg"},
		{ID: "lisa.verify_gen2", Status: models.TestSkipped, Explanation: "not supported"},
	})
}

// ==========================
// Core Functionality Tests
// ==========================

func TestPublisher_Publish_Success(t *testing.T) {
	transport := &fakeTransport{}
	topic := "org.fedoraproject.prod.fedora_cloud_tests.published.v1.azure"
	publisher := NewPublisher(topic, transport, logger.NewTestLogger(t))

	notification := createNotification(
		"Fedora-Cloud-42-x64",
		"42.20260830.0",
		"/subscriptions/abc-123/resourceGroups/fedora",
	)

	ok := publisher.Publish(context.Background(), notification, createTestSummary())
	require.True(t, ok)

	require.Len(t, transport.bodies, 1)
	assert.Equal(t, topic, transport.topics[0])

	var msg models.ResultMessage
	require.NoError(t, json.Unmarshal(transport.bodies[0], &msg))
	assert.Equal(t, "x86_64", msg.Architecture)
	assert.Equal(t, "Fedora-Cloud-42-20260830.0", msg.ComposeID)
	assert.Equal(t, "Fedora-Cloud-42-x64", msg.ImageID)
	assert.Equal(t, "/subscriptions/abc-123/resourceGroups/fedora", msg.ImageResourceID)
	assert.Equal(t, 1, msg.PassedTests.Count)
	assert.Equal(t, 1, msg.FailedTests.Count)
	assert.Equal(t, 1, msg.SkippedTests.Count)
	assert.Equal(t, "found errors in dmesg", msg.FailedTests.Tests["lisa.verify_dmesg"])
}

func TestPublisher_Publish_EmptySummary(t *testing.T) {
	transport := &fakeTransport{}
	publisher := NewPublisher("results", transport, logger.NewTestLogger(t))

	notification := createNotification("Fedora-Cloud-42-x64", "42.20260830.0", "/subscriptions/abc-123")

	ok := publisher.Publish(context.Background(), notification, models.NewReportSummary(nil))
	require.True(t, ok)

	var msg models.ResultMessage
	require.NoError(t, json.Unmarshal(transport.bodies[0], &msg))
	assert.Equal(t, 0, msg.PassedTests.Count)
	assert.Empty(t, msg.PassedTests.Tests)
}

// ==========================
// Error Handling Tests
// ==========================

func TestPublisher_Publish_TransportFailure(t *testing.T) {
	transport := &fakeTransport{publishErr: fmt.Errorf("channel closed")}
	publisher := NewPublisher("results", transport, logger.NewTestLogger(t))

	notification := createNotification("Fedora-Cloud-42-x64", "42.20260830.0", "/subscriptions/abc-123")

	ok := publisher.Publish(context.Background(), notification, createTestSummary())

	assert.False(t, ok)
	assert.Empty(t, transport.bodies)
}
