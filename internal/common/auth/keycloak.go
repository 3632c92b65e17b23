// internal/common/auth/keycloak.go
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"card-assistant/internal/common/errors"
	"card-assistant/internal/common/logger"
	"card-assistant/internal/models"
)

// MetadataKeyAccessToken is the conversation metadata key holding the
// caller's bearer token.
const MetadataKeyAccessToken = "access_token"

// KeycloakClient authenticates callers by introspecting their access token.
type KeycloakClient struct {
	baseURL      string
	realm        string
	clientID     string
	clientSecret string
	httpClient   *http.Client
	logger       logger.Logger
}

// Introspection is the subset of the token introspection response we use.
type Introspection struct {
	Active    bool   `json:"active"`
	Subject   string `json:"sub"`
	Username  string `json:"username"`
	ClientID  string `json:"client_id"`
	ExpiresAt int64  `json:"exp"`
}

func NewKeycloakClient(baseURL, realm, clientID, clientSecret string, log logger.Logger) *KeycloakClient {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &KeycloakClient{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		realm:        realm,
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		logger:       log,
	}
}

// Introspect returns the token's claims. An inactive token yields a
// TOKEN_INVALID error.
func (k *KeycloakClient) Introspect(ctx context.Context, token string) (*Introspection, error) {
	introspectURL := fmt.Sprintf("%s/realms/%s/protocol/openid-connect/token/introspect", k.baseURL, k.realm)

	data := url.Values{}
	data.Set("token", token)
	data.Set("client_id", k.clientID)
	data.Set("client_secret", k.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, introspectURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create introspection request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := k.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewExternalServiceError("keycloak", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, errors.NewAuthenticationError(fmt.Sprintf("keycloak rejected client %s", k.clientID))
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, errors.NewExternalServiceError("keycloak",
			fmt.Errorf("introspection failed with status %d: %s", resp.StatusCode, string(body)))
	}

	var info Introspection
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, errors.NewExternalServiceError("keycloak", fmt.Errorf("decode introspection response: %w", err))
	}
	if !info.Active {
		return nil, errors.NewTokenInvalidError("token is not active")
	}
	return &info, nil
}

// VerifyIdentity reports whether the conversation carries an active token
// issued to the conversation's client. Missing or inactive tokens are a
// negative answer, not an error.
func (k *KeycloakClient) VerifyIdentity(ctx context.Context, conv *models.ConversationContext) (bool, error) {
	token := conv.GetMetadata(MetadataKeyAccessToken, "")
	if token == "" {
		return false, nil
	}

	info, err := k.Introspect(ctx, token)
	if err != nil {
		if errors.CodeOf(err) == errors.ErrCodeTokenInvalid {
			return false, nil
		}
		return false, err
	}

	if info.Subject != conv.ClientID {
		k.logger.Warn("token subject does not match client", map[string]interface{}{
			"clientId": conv.ClientID,
			"subject":  info.Subject,
		})
		return false, nil
	}
	return true, nil
}
