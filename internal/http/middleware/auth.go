package middleware

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Ironclad/ironclad/pkg/logger"
)

type contextKey string

const AuthUserKey contextKey = "auth_user"

// DevUserID is the identity attached to requests when auth is disabled.
const DevUserID = "dev"

// AuthenticatedUser is the caller identity taken from a Clerk session token.
type AuthenticatedUser struct {
	ID        string
	Email     string
	SessionID string
}

// UserFromContext returns the user set by RequireAuth.
func UserFromContext(ctx context.Context) (*AuthenticatedUser, bool) {
	u, ok := ctx.Value(AuthUserKey).(*AuthenticatedUser)
	return u, ok && u != nil
}

// WithUser attaches user to ctx.
func WithUser(ctx context.Context, user *AuthenticatedUser) context.Context {
	return context.WithValue(ctx, AuthUserKey, user)
}

// ClerkClaims are the session token claims read by the API. Clerk puts the
// user id in sub and the session id in sid.
type ClerkClaims struct {
	SessionID string `json:"sid,omitempty"`
	Email     string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// AuthOptions configure token verification. PublicKeyPEM selects RS256,
// otherwise HMACSecret selects HS256.
type AuthOptions struct {
	Issuer       string
	PublicKeyPEM string
	HMACSecret   string
	Disabled     bool
	Leeway       time.Duration
}

type Authenticator struct {
	disabled bool
	method   string
	key      interface{}
	issuer   string
	leeway   time.Duration
	logger   logger.Logger
}

func NewAuthenticator(opts AuthOptions, log logger.Logger) (*Authenticator, error) {
	a := &Authenticator{
		disabled: opts.Disabled,
		issuer:   opts.Issuer,
		leeway:   opts.Leeway,
		logger:   log,
	}
	if a.leeway == 0 {
		a.leeway = 5 * time.Second
	}
	if opts.Disabled {
		return a, nil
	}

	switch {
	case opts.PublicKeyPEM != "":
		key, err := parsePublicKey(opts.PublicKeyPEM)
		if err != nil {
			return nil, err
		}
		a.method = jwt.SigningMethodRS256.Alg()
		a.key = key
	case opts.HMACSecret != "":
		a.method = jwt.SigningMethodHS256.Alg()
		a.key = []byte(opts.HMACSecret)
	default:
		return nil, errors.New("a public key or an HMAC secret is required")
	}
	return a, nil
}

// parsePublicKey accepts a PEM block, with or without literal "\n" escapes
// as they appear in env files.
func parsePublicKey(pem string) (*rsa.PublicKey, error) {
	pem = strings.ReplaceAll(strings.TrimSpace(pem), `\n`, "\n")
	key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(pem))
	if err != nil {
		return nil, fmt.Errorf("failed to parse JWT public key: %w", err)
	}
	return key, nil
}

// Verify validates a bearer token and returns the user it names.
func (a *Authenticator) Verify(tokenString string) (*AuthenticatedUser, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{a.method}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(a.leeway),
	}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}

	claims := &ClerkClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return a.key, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return &AuthenticatedUser{
		ID:        claims.Subject,
		Email:     claims.Email,
		SessionID: claims.SessionID,
	}, nil
}

// RequireAuth rejects requests without a valid bearer token and stores the
// caller in the request context.
func (a *Authenticator) RequireAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if a.disabled {
				ctx := WithUser(r.Context(), &AuthenticatedUser{ID: DevUserID})
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeAuthError(w, "Authorization header is required")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
				writeAuthError(w, "Invalid authorization header format")
				return
			}

			user, err := a.Verify(parts[1])
			if err != nil {
				a.logger.WithFields(map[string]interface{}{
					"path":  r.URL.Path,
					"error": err.Error(),
				}).Warn("Rejected bearer token")
				writeAuthError(w, "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

func writeAuthError(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="ironclad"`)
	writeError(w, http.StatusUnauthorized, message, "not_authenticated", false, "sign_in")
}
