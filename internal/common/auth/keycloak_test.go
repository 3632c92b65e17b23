package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"card-assistant/internal/agent"
	"card-assistant/internal/common/errors"
	"card-assistant/internal/common/logger"
	"card-assistant/internal/models"
)

var (
	_ agent.AuthenticationProvider = (*KeycloakClient)(nil)
	_ agent.AuthenticationProvider = Static{}
)

func introspectionServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/realms/cards/protocol/openid-connect/token/introspect" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.PostForm.Get("client_id") != "assistant" || r.PostForm.Get("client_secret") != "secret" {
			t.Errorf("missing client credentials: %v", r.PostForm)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func conversationWithToken(token string) *models.ConversationContext {
	conv := models.NewConversationContext("client-1", "chat")
	if token != "" {
		conv.SetMetadata(MetadataKeyAccessToken, token)
	}
	return conv
}

func TestKeycloak_VerifyIdentity(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		token  string
		want   bool
	}{
		{name: "active matching subject", status: http.StatusOK, body: `{"active":true,"sub":"client-1"}`, token: "tok", want: true},
		{name: "inactive token", status: http.StatusOK, body: `{"active":false}`, token: "tok", want: false},
		{name: "subject mismatch", status: http.StatusOK, body: `{"active":true,"sub":"someone-else"}`, token: "tok", want: false},
		{name: "no token", status: http.StatusOK, body: `{"active":true,"sub":"client-1"}`, token: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := introspectionServer(t, tt.status, tt.body)
			kc := NewKeycloakClient(srv.URL+"/", "cards", "assistant", "secret", logger.NewTestLogger(t))

			ok, err := kc.VerifyIdentity(context.Background(), conversationWithToken(tt.token))
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestKeycloak_BackendErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		code   errors.ErrorCode
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `boom`, code: errors.ErrCodeExternalService},
		{name: "client rejected", status: http.StatusUnauthorized, body: `{}`, code: errors.ErrCodeAuthentication},
		{name: "bad json", status: http.StatusOK, body: `{not json`, code: errors.ErrCodeExternalService},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := introspectionServer(t, tt.status, tt.body)
			kc := NewKeycloakClient(srv.URL, "cards", "assistant", "secret", nil)

			ok, err := kc.VerifyIdentity(context.Background(), conversationWithToken("tok"))
			require.Error(t, err)
			assert.False(t, ok)
			assert.Equal(t, tt.code, errors.CodeOf(err))
		})
	}
}

func TestKeycloak_Introspect(t *testing.T) {
	srv := introspectionServer(t, http.StatusOK, `{"active":true,"sub":"client-1","username":"jane","exp":1700000000}`)
	kc := NewKeycloakClient(srv.URL, "cards", "assistant", "secret", nil)

	info, err := kc.Introspect(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "jane", info.Username)
	assert.Equal(t, int64(1700000000), info.ExpiresAt)
}

func TestStatic(t *testing.T) {
	conv := models.NewConversationContext("client-1", "chat")

	ok, err := Static{Allow: true}.VerifyIdentity(context.Background(), conv)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Static{}.VerifyIdentity(context.Background(), conv)
	require.NoError(t, err)
	assert.False(t, ok)
}
