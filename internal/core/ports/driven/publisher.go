package driven

import "context"

// ArtifactPublisher promotes a validated result downstream.
type ArtifactPublisher interface {
	// Publish uploads localPath under key and returns its remote URI.
	Publish(ctx context.Context, localPath, key string) (string, error)
}
