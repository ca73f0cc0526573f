package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"hosting-storefront/internal/apperr"
	"hosting-storefront/internal/config"
)

var errProviderRejected = errors.New("identity provider rejected the token")

type supabaseUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// SupabaseResolver verifies HS256 tokens locally when the project JWT secret is known and
// falls back to the auth REST endpoint when a project URL is configured.
type SupabaseResolver struct {
	baseURL    string
	anonKey    string
	jwtSecret  []byte
	httpClient *http.Client
	log        *zap.Logger
}

func NewSupabaseResolver(cfg *config.Supabase, log *zap.Logger) *SupabaseResolver {
	return &SupabaseResolver{
		baseURL:   strings.TrimRight(cfg.URL, "/"),
		anonKey:   cfg.AnonKey,
		jwtSecret: []byte(cfg.JWTSecret),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}
}

func (r *SupabaseResolver) Resolve(ctx context.Context, token string) (*Identity, error) {
	var localErr error
	if len(r.jwtSecret) > 0 {
		id, err := r.resolveLocal(token)
		if err == nil {
			return id, nil
		}
		localErr = err
	}

	if r.baseURL == "" {
		if localErr == nil {
			localErr = errors.New("no identity provider configured")
		}
		return nil, apperr.Unauthenticated("invalid or expired token", localErr)
	}

	id, err := r.resolveRemote(ctx, token)
	if err != nil {
		if !errors.Is(err, errProviderRejected) {
			r.log.Warn("identity provider unreachable", zap.Error(err))
		}
		return nil, apperr.Unauthenticated("invalid or expired token", err)
	}
	return id, nil
}

func (r *SupabaseResolver) resolveLocal(token string) (*Identity, error) {
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return r.jwtSecret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("jwt parse: %w", err)
	}
	if !parsed.Valid {
		return nil, errors.New("jwt invalid")
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, errors.New("jwt has no subject")
	}
	email, _ := claims["email"].(string)
	role, _ := claims["role"].(string)

	return &Identity{UserID: sub, Email: email, Role: role}, nil
}

func (r *SupabaseResolver) resolveRemote(ctx context.Context, token string) (*Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, fmt.Errorf("create user request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("apikey", r.anonKey)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, errProviderRejected
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("identity provider error %d: %s", resp.StatusCode, string(body))
	}

	var user supabaseUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	if user.ID == "" {
		return nil, errProviderRejected
	}

	return &Identity{UserID: user.ID, Email: user.Email, Role: user.Role}, nil
}
