package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/ShubhamGupta2412/vaultboard/internal/access"
	"github.com/ShubhamGupta2412/vaultboard/internal/common"
	"github.com/ShubhamGupta2412/vaultboard/internal/logging"
	"github.com/ShubhamGupta2412/vaultboard/internal/server/auth"
	"github.com/ShubhamGupta2412/vaultboard/internal/server/config"
	"github.com/ShubhamGupta2412/vaultboard/internal/server/models"
	"github.com/ShubhamGupta2412/vaultboard/internal/server/repositories/repomanager"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// SignupResult is a freshly created principal and its first access token.
type SignupResult struct {
	Principal   *models.Principal
	AccessToken string
}

// PrincipalService registers principals and issues access tokens. A role
// is assigned once at signup; there is no operation that changes it.
type PrincipalService struct {
	db                          *sql.DB
	repomanager                 repomanager.RepositoryManager
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
	log                         logging.Logger
}

func NewPrincipalService(db *sql.DB, rm repomanager.RepositoryManager, cfg *config.Config, log logging.Logger) *PrincipalService {
	return &PrincipalService{
		db:                          db,
		repomanager:                 rm,
		jwtSecret:                   []byte(cfg.JWTSecret),
		accessTokenValidityDuration: cfg.AccessTokenTTL,
		log:                         log.With("module", "principals"),
	}
}

func normalizeEmail(email string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil || addr.Name != "" {
		return "", fmt.Errorf("%w: invalid email", common.ErrorValidation)
	}
	return strings.ToLower(addr.Address), nil
}

// SelfSignup is the unauthenticated registration path. Only roles that
// access.CanSelfAssign admits are accepted; anything else is
// common.ErrorForbidden and nothing is stored.
func (s *PrincipalService) SelfSignup(ctx context.Context, email, displayName, role string) (*SignupResult, error) {
	r, err := access.ParseRole(role)
	if err != nil {
		return nil, err
	}
	if !access.CanSelfAssign(r) {
		s.log.Warn(ctx, "privileged self-signup refused", "role", r)
		return nil, fmt.Errorf("%w: role %s is assigned by an operator", common.ErrorForbidden, r)
	}
	return s.Signup(ctx, email, displayName, string(r))
}

// Signup registers a principal with any role. It trusts its caller and is
// reserved for operator tooling; public transports use SelfSignup.
func (s *PrincipalService) Signup(ctx context.Context, email, displayName, role string) (_ *SignupResult, err error) {
	ctx, span := startSpan(ctx, "PrincipalService.Signup", attribute.String(attrRole, role))
	defer func() { endSpan(span, err) }()

	email, err = normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	r, err := access.ParseRole(role)
	if err != nil {
		return nil, err
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName, _, _ = strings.Cut(email, "@")
	}

	p, err := s.repomanager.Principals(s.db).Create(ctx, &models.Principal{
		ID:          uuid.NewString(),
		Email:       email,
		DisplayName: displayName,
		Role:        r,
	})
	if err != nil {
		if errors.Is(err, common.ErrorConflict) {
			return nil, fmt.Errorf("%w: email already registered", common.ErrorConflict)
		}
		return nil, fmt.Errorf("create principal: %w", err)
	}

	token, err := auth.GenerateToken(p.ID, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, common.ErrorInternal
	}

	s.log.Info(ctx, "principal registered", "principal_id", p.ID, "role", p.Role)
	return &SignupResult{Principal: p, AccessToken: token}, nil
}

func (s *PrincipalService) Get(ctx context.Context, id string) (*models.Principal, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: malformed principal id", common.ErrorNotFound)
	}
	p, err := s.repomanager.Principals(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get principal: %w", err)
	}
	return p, nil
}

// GetByID lets the service act as the auth.PrincipalSource.
func (s *PrincipalService) GetByID(ctx context.Context, id string) (*models.Principal, error) {
	return s.Get(ctx, id)
}

// IssueToken mints a new access token for an existing principal.
func (s *PrincipalService) IssueToken(ctx context.Context, id string) (string, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	token, err := auth.GenerateToken(p.ID, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return "", common.ErrorInternal
	}
	return token, nil
}
