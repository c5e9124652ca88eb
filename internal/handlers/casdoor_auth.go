package handlers

import (
	"context"
	"fmt"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"

	"github.com/SAP-F-2025/course-service/internal/config"
	"github.com/SAP-F-2025/course-service/internal/services"
)

// CasdoorAuthenticator validates tokens issued by a Casdoor instance
type CasdoorAuthenticator struct {
	client *casdoorsdk.Client
}

func NewCasdoorAuthenticator(cfg config.CasdoorConfig) *CasdoorAuthenticator {
	client := casdoorsdk.NewClient(
		cfg.Endpoint,
		cfg.ClientID,
		cfg.ClientSecret,
		cfg.Cert,
		cfg.Application,
		cfg.Organization,
	)

	return &CasdoorAuthenticator{client: client}
}

func (a *CasdoorAuthenticator) Authenticate(ctx context.Context, token string) (*services.Identity, error) {
	claims, err := a.client.ParseJwtToken(token)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	if claims.Id == "" {
		return nil, fmt.Errorf("invalid user ID in token")
	}
	if claims.User.Email == "" {
		return nil, fmt.Errorf("token carries no email")
	}

	identity := &services.Identity{
		ID:       claims.Id,
		Email:    claims.User.Email,
		FullName: claims.User.DisplayName,
	}
	if claims.User.Avatar != "" {
		avatar := claims.User.Avatar
		identity.AvatarURL = &avatar
	}
	return identity, nil
}
