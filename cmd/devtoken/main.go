// Command devtoken mints an HS256 session token accepted by the API when
// CLERK_JWT_SECRET is set, for local testing without Clerk.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Ironclad/ironclad/internal/http/middleware"
)

func mint(secret, subject, email, issuer string, ttl time.Duration, now time.Time) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("a secret is required")
	}
	if subject == "" {
		return "", fmt.Errorf("a subject is required")
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, middleware.ClerkClaims{
		SessionID: "sess_" + uuid.NewString(),
		Email:     email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	return token.SignedString([]byte(secret))
}

func main() {
	subject := flag.String("sub", "user_dev", "user id placed in the sub claim")
	email := flag.String("email", "", "optional email claim")
	issuer := flag.String("iss", os.Getenv("CLERK_ISSUER"), "issuer, defaults to CLERK_ISSUER")
	secret := flag.String("secret", os.Getenv("CLERK_JWT_SECRET"), "signing secret, defaults to CLERK_JWT_SECRET")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	token, err := mint(*secret, *subject, *email, *issuer, *ttl, time.Now())
	if err != nil {
		fmt.Fprintln(os.Stderr, "devtoken:", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
