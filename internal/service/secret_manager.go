package service

import (
	"context"
	"fmt"
	"sync"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
)

// SecretManagerService resolves provider API keys. In production the keys
// live in GCP Secret Manager under focusai-<provider>-key; in development the
// env fallback passed at construction is used directly.
type SecretManagerService interface {
	ProviderKey(ctx context.Context, provider string) (string, error)
	// KeyFunc adapts a provider to the lazy lookup the HTTP clients take.
	KeyFunc(provider string) func(ctx context.Context) string
}

type secretManagerService struct {
	client    *secretmanager.Client
	projectID string
	fallback  map[string]string
	logger    zerolog.Logger

	mu     sync.Mutex
	cached map[string]string
}

// NewSecretManagerService creates the resolver. With an empty projectID no
// GCP client is created and only the fallback map serves keys.
func NewSecretManagerService(ctx context.Context, projectID string, fallback map[string]string, logger zerolog.Logger, opts ...option.ClientOption) (SecretManagerService, error) {
	s := &secretManagerService{
		projectID: projectID,
		fallback:  fallback,
		logger:    logger.With().Str("service", "SecretManagerService").Logger(),
		cached:    make(map[string]string),
	}
	if projectID == "" {
		return s, nil
	}
	client, err := secretmanager.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating secret manager client: %w", err)
	}
	s.client = client
	return s, nil
}

func (s *secretManagerService) ProviderKey(ctx context.Context, provider string) (string, error) {
	s.mu.Lock()
	if key, ok := s.cached[provider]; ok {
		s.mu.Unlock()
		return key, nil
	}
	s.mu.Unlock()

	if s.client != nil {
		name := fmt.Sprintf("projects/%s/secrets/focusai-%s-key/versions/latest", s.projectID, provider)
		result, err := s.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: name})
		if err == nil {
			key := string(result.Payload.Data)
			s.mu.Lock()
			s.cached[provider] = key
			s.mu.Unlock()
			return key, nil
		}
		s.logger.Warn().Err(err).Str("provider", provider).Msg("Secret Manager lookup failed, using env fallback")
	}

	if key, ok := s.fallback[provider]; ok && key != "" {
		return key, nil
	}
	return "", fmt.Errorf("no API key configured for provider %s", provider)
}

func (s *secretManagerService) KeyFunc(provider string) func(ctx context.Context) string {
	return func(ctx context.Context) string {
		key, err := s.ProviderKey(ctx, provider)
		if err != nil {
			s.logger.Error().Err(err).Str("provider", provider).Msg("API key resolution failed")
			return ""
		}
		return key
	}
}
