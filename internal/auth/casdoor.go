package auth

import (
	"context"
	"fmt"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
)

// CasdoorVerifier validates Casdoor-issued JWTs and maps them to principals.
type CasdoorVerifier struct {
	client *casdoorsdk.Client
}

// CasdoorConfig mirrors the Casdoor SDK connection settings.
type CasdoorConfig struct {
	Endpoint     string
	ClientID     string
	ClientSecret string
	Certificate  string
	Organization string
	Application  string
}

func NewCasdoorVerifier(cfg CasdoorConfig) *CasdoorVerifier {
	return &CasdoorVerifier{
		client: casdoorsdk.NewClient(
			cfg.Endpoint,
			cfg.ClientID,
			cfg.ClientSecret,
			cfg.Certificate,
			cfg.Organization,
			cfg.Application,
		),
	}
}

func (v *CasdoorVerifier) Verify(ctx context.Context, token string) (*Principal, error) {
	claims, err := v.client.ParseJwtToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.User.Id == "" {
		return nil, ErrInvalidToken
	}
	return &Principal{
		ID:    claims.User.Id,
		Name:  claims.User.Name,
		Email: claims.User.Email,
	}, nil
}

// StaticVerifier accepts a fixed token-to-principal mapping. Used by tests
// and local single-user deployments that do not run an identity provider.
type StaticVerifier struct {
	Principals map[string]Principal
}

func (v *StaticVerifier) Verify(ctx context.Context, token string) (*Principal, error) {
	principal, ok := v.Principals[token]
	if !ok {
		return nil, ErrInvalidToken
	}
	return &principal, nil
}
