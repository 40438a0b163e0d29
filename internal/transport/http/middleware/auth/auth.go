package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/viper"
)

type ctxKey struct{}

// Claims are the token claims the POS reads. Tokens are HS256 and must carry an email.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Authenticator validates bearer tokens and checks the email against an allowlist.
// An empty allowlist admits every valid token.
type Authenticator struct {
	secret  []byte
	allowed map[string]struct{}
}

func NewAuthenticator(secret string, allowedEmails []string) *Authenticator {
	allowed := make(map[string]struct{}, len(allowedEmails))
	for _, e := range allowedEmails {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			allowed[e] = struct{}{}
		}
	}

	return &Authenticator{
		secret:  []byte(secret),
		allowed: allowed,
	}
}

// MustNewAuthenticator reads auth.jwt_secret and auth.allowed_emails.
func MustNewAuthenticator() *Authenticator {
	secret := viper.GetString("auth.jwt_secret")
	if secret == "" {
		panic("auth.jwt_secret is required")
	}

	return NewAuthenticator(secret, viper.GetStringSlice("auth.allowed_emails"))
}

var (
	errMissingToken = errors.New("missing bearer token")
	errNoEmail      = errors.New("token has no email")
	errNotAllowed   = errors.New("email not allowed")
)

// Authenticate returns the actor email carried by a valid token.
func (a *Authenticator) Authenticate(header string) (string, error) {
	scheme, raw, ok := strings.Cut(header, " ")
	raw = strings.TrimSpace(raw)
	if !ok || !strings.EqualFold(scheme, "Bearer") || raw == "" {
		return "", errMissingToken
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}

	email := strings.ToLower(strings.TrimSpace(claims.Email))
	if email == "" {
		return "", errNoEmail
	}
	if len(a.allowed) > 0 {
		if _, ok := a.allowed[email]; !ok {
			return "", errNotAllowed
		}
	}

	return email, nil
}

// Middleware rejects unauthenticated requests with 401 and stores the actor in the context.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, err := a.Authenticate(r.Header.Get("Authorization"))
		if err != nil {
			slog.DebugContext(r.Context(), "Request rejected", "path", r.URL.Path, "error", err)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "Não autorizado"})

			return
		}

		next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
	})
}

func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, ctxKey{}, actor)
}

// ActorFromContext returns the authenticated email, or "" when there is none.
func ActorFromContext(ctx context.Context) string {
	actor, _ := ctx.Value(ctxKey{}).(string)
	return actor
}
