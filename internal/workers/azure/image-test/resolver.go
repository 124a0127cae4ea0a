// internal/workers/azure/image-test/resolver.go
package imagetest

import (
	"strings"

	"cloud-image-tests/internal/common/logger"
	"cloud-image-tests/internal/models"
)

// Resolver turns a notification body into the community gallery image
// reference the test tool consumes. It never errors: anything it cannot
// resolve is a not-applicable verdict and the run ends silently.
type Resolver struct {
	config *Config
	logger logger.Logger

	supported map[string]bool
}

func NewResolver(config *Config, log logger.Logger) *Resolver {
	supported := make(map[string]bool, len(config.SupportedDefinitions))
	for _, name := range config.SupportedDefinitions {
		supported[name] = true
	}
	return &Resolver{
		config:    config,
		logger:    log.WithFields(map[string]interface{}{"component": "resolver"}),
		supported: supported,
	}
}

// Resolve returns "region/subscriptionSegment/imageDefinitionName/imageVersionName"
// and true, or "" and false when the notification is out of scope.
func (r *Resolver) Resolve(n models.Notification) (string, bool) {
	definition := n.Body.ImageDefinitionName

	if !r.supported[definition] {
		r.logger.Info("Image definition not in supported versions, skipping", map[string]interface{}{
			"imageDefinitionName": definition,
		})
		return "", false
	}

	version := n.Body.ImageVersionName
	resourceID := n.Body.ImageResourceID

	if definition == "" || version == "" || resourceID == "" {
		r.logger.Error("Missing required image fields in message body", map[string]interface{}{
			"imageDefinitionName": definition,
			"imageVersionName":    version,
			"imageResourceId":     resourceID,
		})
		return "", false
	}

	parts := strings.Split(resourceID, "/")
	if len(parts) < 3 {
		r.logger.Error("Image resource id format is invalid", map[string]interface{}{
			"imageResourceId": resourceID,
		})
		return "", false
	}

	scopeSegment := parts[2]
	if scopeSegment == "" && !r.config.AllowEmptyScopeSegment {
		r.logger.Error("Image resource id has an empty subscription segment", map[string]interface{}{
			"imageResourceId": resourceID,
		})
		return "", false
	}

	ref := r.config.Region + "/" + scopeSegment + "/" + definition + "/" + version
	r.logger.Info("Constructed community gallery image", map[string]interface{}{
		"communityGalleryImage": ref,
	})
	return ref, true
}
