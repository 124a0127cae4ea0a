// internal/models/notification.go
package models

import "encoding/json"

// Notification is one inbound image-published event. It is decoded from the
// raw delivery at the consumer, owned by exactly one pipeline run, and
// discarded when that run ends.
type Notification struct {
	// MessageID is the broker-assigned message id, used for delivery dedupe.
	MessageID string `json:"-"`
	Topic     string `json:"-"`
	Body      NotificationBody
}

// NotificationBody carries the identifying fields of the published image.
type NotificationBody struct {
	Architecture        string `json:"architecture"`
	ComposeID           string `json:"compose_id"`
	ImageDefinitionName string `json:"image_definition_name"`
	ImageVersionName    string `json:"image_version_name"`
	ImageResourceID     string `json:"image_resource_id"`
}

// DecodeNotification parses a raw delivery body into a Notification. A body
// that is not a JSON object fails here and is handled by the caller as a
// not-applicable delivery, never as a crash.
func DecodeNotification(topic, messageID string, raw []byte) (Notification, error) {
	var body NotificationBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return Notification{}, err
	}
	return Notification{
		MessageID: messageID,
		Topic:     topic,
		Body:      body,
	}, nil
}
