package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/domain"
	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/infra/oidc"
	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/middleware"
)

const defaultTokenTTL = 24 * time.Hour

type UserDeps struct {
	Users       domain.UserRepository
	Pools       domain.PoolRepository
	Tokens      oidc.TokenVerifier
	JWTSecret   string
	TokenTTL    time.Duration
	AdminEmails []string
	Logger      zerolog.Logger
	Now         func() time.Time
}

// UserService exchanges identity-provider tokens for service sessions and edits profiles.
type UserService struct {
	users  domain.UserRepository
	pools  domain.PoolRepository
	tokens oidc.TokenVerifier
	secret string
	ttl    time.Duration
	admins map[string]struct{}
	logger zerolog.Logger
	now    func() time.Time
}

func NewUserService(d UserDeps) *UserService {
	ttl := d.TokenTTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	admins := make(map[string]struct{}, len(d.AdminEmails))
	for _, e := range d.AdminEmails {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			admins[e] = struct{}{}
		}
	}
	return &UserService{
		users:  d.Users,
		pools:  d.Pools,
		tokens: d.Tokens,
		secret: d.JWTSecret,
		ttl:    ttl,
		admins: admins,
		logger: d.Logger,
		now:    clockOrNow(d.Now),
	}
}

// Session is returned by POST /api/auth/session.
type Session struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *domain.User `json:"user"`
}

// Session verifies idToken with the identity provider, upserts the user and signs
// a service token carrying the user's role.
func (s *UserService) Session(ctx context.Context, idToken string) (*Session, error) {
	idToken = strings.TrimSpace(idToken)
	if idToken == "" {
		return nil, domain.Invalid("idToken", "is required")
	}
	if s.tokens == nil {
		return nil, fmt.Errorf("%w: identity provider is not configured", domain.ErrUnauthorized)
	}
	claims, err := s.tokens.VerifyIDToken(ctx, idToken)
	if err != nil {
		if errors.Is(err, oidc.ErrInvalidToken) || errors.Is(err, oidc.ErrExpired) {
			return nil, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
		}
		return nil, fmt.Errorf("verify id token: %w", err)
	}

	candidate := &domain.User{
		AuthSubject: claims.Subject,
		Email:       claims.Email,
		Name:        claims.Name,
		Role:        domain.UserRoleContributor,
	}
	if s.isAdminEmail(claims.Email) && claims.EmailVerified {
		candidate.Role = domain.UserRoleAdmin
	}
	user, err := s.users.UpsertByAuthSubject(ctx, candidate)
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}

	now := s.now()
	exp := now.Add(s.ttl)
	token, err := middleware.SignJWT(s.secret, middleware.TokenClaims{
		Sub:      user.ID,
		Role:     string(user.Role),
		Exp:      exp.Unix(),
		Iat:      now.Unix(),
		Issuer:   middleware.TokenIssuer,
		Audience: middleware.TokenAudience,
	})
	if err != nil {
		return nil, fmt.Errorf("sign session: %w", err)
	}
	s.logger.Info().Str("user_id", user.ID).Str("role", string(user.Role)).Msg("session issued")
	return &Session{Token: token, ExpiresAt: exp.UTC(), User: user}, nil
}

func (s *UserService) isAdminEmail(email string) bool {
	_, ok := s.admins[strings.ToLower(strings.TrimSpace(email))]
	return ok
}

func (s *UserService) Me(ctx context.Context, userID string) (*domain.User, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	return s.users.GetByID(ctx, userID)
}

// ProfilePatch carries the editable profile fields; nil means unchanged.
type ProfilePatch struct {
	Name               *string
	Role               *domain.UserRole
	Location           *domain.Location
	CharityPreferences []string
}

// Patch edits the caller's profile. Admin cannot be self-assigned, and a new
// location binds the user to that location's pool, creating it when needed.
func (s *UserService) Patch(ctx context.Context, userID string, patch ProfilePatch) (*domain.User, *domain.CommunityPool, error) {
	user, err := s.Me(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	if patch.Name != nil {
		user.Name = trimmed(patch.Name)
	}
	if patch.Role != nil && *patch.Role != user.Role {
		role := *patch.Role
		switch {
		case !role.Valid():
			return nil, nil, domain.Invalid("role", "must be contributor or recipient")
		case role == domain.UserRoleAdmin:
			return nil, nil, fmt.Errorf("%w: admin role cannot be self-assigned", domain.ErrForbidden)
		}
		user.Role = role
	}
	if patch.CharityPreferences != nil {
		user.CharityPreferences = dedupe(patch.CharityPreferences)
	}

	var pool *domain.CommunityPool
	if patch.Location != nil {
		loc := patch.Location.Normalize()
		if loc.IsZero() {
			return nil, nil, domain.Invalid("location", "city and province are required")
		}
		pool, err = s.pools.GetOrCreate(ctx, loc)
		if err != nil {
			return nil, nil, fmt.Errorf("bind pool: %w", err)
		}
		user.Location = loc
	}

	updated, err := s.users.Update(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return updated, pool, nil
}

// SetRole changes the role of the account registered with email. It backs the admin CLI.
func (s *UserService) SetRole(ctx context.Context, email string, role domain.UserRole) (*domain.User, error) {
	if strings.TrimSpace(email) == "" {
		return nil, domain.Invalid("email", "is required")
	}
	return s.users.SetRoleByEmail(ctx, email, role)
}

func dedupe(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
