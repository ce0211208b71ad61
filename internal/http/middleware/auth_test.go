package middleware

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ironclad/ironclad/pkg/logger"
)

const testSecret = "test-hmac-secret"

func signHS256(t *testing.T, claims ClerkClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func validClaims() ClerkClaims {
	return ClerkClaims{
		SessionID: "sess_123",
		Email:     "admin@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user_abc",
			Issuer:    "https://clerk.example.com",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
}

// echoUser writes the context user as JSON.
var echoUser = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusTeapot)
		return
	}
	_ = json.NewEncoder(w).Encode(user)
})

func TestNewAuthenticator(t *testing.T) {
	log := logger.NewTestLogger(t)

	_, err := NewAuthenticator(AuthOptions{}, log)
	assert.Error(t, err, "a key is required unless disabled")

	_, err = NewAuthenticator(AuthOptions{PublicKeyPEM: "not a pem"}, log)
	assert.Error(t, err)

	a, err := NewAuthenticator(AuthOptions{Disabled: true}, log)
	require.NoError(t, err)
	assert.True(t, a.disabled)
}

func TestRequireAuth_HS256(t *testing.T) {
	a, err := NewAuthenticator(AuthOptions{HMACSecret: testSecret, Issuer: "https://clerk.example.com"}, logger.NewTestLogger(t))
	require.NoError(t, err)
	handler := a.RequireAuth()(echoUser)

	expired := validClaims()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
	wrongIssuer := validClaims()
	wrongIssuer.Issuer = "https://evil.example.com"
	noSubject := validClaims()
	noSubject.Subject = ""
	noExpiry := validClaims()
	noExpiry.ExpiresAt = nil

	otherSecret, err := jwt.NewWithClaims(jwt.SigningMethodHS256, validClaims()).SignedString([]byte("other"))
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid token", "Bearer " + signHS256(t, validClaims()), http.StatusOK},
		{"lowercase scheme", "bearer " + signHS256(t, validClaims()), http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"empty token", "Bearer ", http.StatusUnauthorized},
		{"expired", "Bearer " + signHS256(t, expired), http.StatusUnauthorized},
		{"wrong issuer", "Bearer " + signHS256(t, wrongIssuer), http.StatusUnauthorized},
		{"no subject", "Bearer " + signHS256(t, noSubject), http.StatusUnauthorized},
		{"no expiry", "Bearer " + signHS256(t, noExpiry), http.StatusUnauthorized},
		{"wrong secret", "Bearer " + otherSecret, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/agent.process", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusUnauthorized {
				var body map[string]interface{}
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				assert.Equal(t, "not_authenticated", body["kind"])
				assert.Equal(t, "sign_in", body["recovery"])
				assert.NotEmpty(t, w.Header().Get("WWW-Authenticate"))
			}
		})
	}

	t.Run("user is stored in context", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/agent.process", nil)
		req.Header.Set("Authorization", "Bearer "+signHS256(t, validClaims()))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		var user AuthenticatedUser
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &user))
		assert.Equal(t, AuthenticatedUser{ID: "user_abc", Email: "admin@example.com", SessionID: "sess_123"}, user)
	})
}

func TestRequireAuth_RS256(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pemKey := string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))

	// env files carry the key on one line with escaped newlines
	escaped := strings.ReplaceAll(pemKey, "\n", `\n`)
	a, err := NewAuthenticator(AuthOptions{PublicKeyPEM: escaped}, logger.NewTestLogger(t))
	require.NoError(t, err)

	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, validClaims()).SignedString(key)
	require.NoError(t, err)
	user, err := a.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, "user_abc", user.ID)

	// An HS256 token must not verify against an RS256 configuration.
	_, err = a.Verify(signHS256(t, validClaims()))
	assert.Error(t, err)
}

func TestRequireAuth_Disabled(t *testing.T) {
	a, err := NewAuthenticator(AuthOptions{Disabled: true}, logger.NewTestLogger(t))
	require.NoError(t, err)

	w := httptest.NewRecorder()
	a.RequireAuth()(echoUser).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/agent.stats", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var user AuthenticatedUser
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &user))
	assert.Equal(t, DevUserID, user.ID)
}
