package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stemsi/kuisku-participant/internal/config"
)

// Common identity errors.
var (
	ErrNoSession          = errors.New("no active participant session")
	ErrSessionInvalidated = errors.New("participant session invalidated")
)

// TokenTypeParticipant is the only token type this gateway issues.
const TokenTypeParticipant = "participant"

// Claims extends JWT standard claims with participant identity.
// Identity is an opaque display name supplied out-of-band; there is no
// credential and no password.
type Claims struct {
	jwt.RegisteredClaims
	TokenType   string `json:"token_type"`
	DisplayName string `json:"display_name"`
}

// ParticipantID returns the uuid subject of the token.
func (c *Claims) ParticipantID() string {
	return c.Subject
}

// IdentityService issues and validates participant tokens and keeps the
// single-device session registry in Redis: one active token JTI per
// participant, same discipline the classroom backend applies to
// student logins.
type IdentityService struct {
	cfg *config.Config
	rdb *redis.Client
}

// NewIdentityService creates a new IdentityService.
func NewIdentityService(cfg *config.Config, rdb *redis.Client) *IdentityService {
	return &IdentityService{cfg: cfg, rdb: rdb}
}

// participantNamespace seeds the name-based participant ids.
var participantNamespace = uuid.NewSHA1(uuid.NameSpaceDNS, []byte("participant.kuisku"))

// participantIDFor derives a stable id from the display name. Identity
// is the display name itself: the same student re-joining gets the
// same id, so the previous session JTI and runtime get replaced
// instead of orphaned.
func participantIDFor(displayName string) string {
	return uuid.NewSHA1(participantNamespace, []byte(strings.TrimSpace(displayName))).String()
}

// Register signs a token for the display name and stores the session
// JTI in Redis. Re-joining under the same name replaces the previous
// session: the old token stops validating.
func (s *IdentityService) Register(ctx context.Context, displayName string) (participantID, token string, err error) {
	participantID = participantIDFor(displayName)
	jti := uuid.New().String()
	now := time.Now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   participantID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWTExpiry)),
		},
		TokenType:   TokenTypeParticipant,
		DisplayName: displayName,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", "", fmt.Errorf("sign token: %w", err)
	}

	pipe := s.rdb.Pipeline()
	pipe.Set(ctx, config.CacheKey.ParticipantSessionKey(participantID), jti, s.cfg.JWTExpiry)
	pipe.Set(ctx, config.CacheKey.ParticipantNameKey(participantID), displayName, s.cfg.JWTExpiry)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", "", fmt.Errorf("store session: %w", err)
	}

	return participantID, signed, nil
}

// ValidateToken parses and validates a participant JWT.
func (s *IdentityService) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.TokenType != TokenTypeParticipant {
		return nil, errors.New("not a participant token")
	}

	return claims, nil
}

// ValidateSession checks that the token's JTI matches the active
// session in Redis. Fails closed: a missing session means the UI must
// send the participant back through identity capture.
func (s *IdentityService) ValidateSession(ctx context.Context, participantID, jti string) error {
	stored, err := s.rdb.Get(ctx, config.CacheKey.ParticipantSessionKey(participantID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrNoSession
		}
		return fmt.Errorf("check session: %w", err)
	}
	if stored != jti {
		return ErrSessionInvalidated
	}
	return nil
}

// Remove deletes a participant's identity session (leave/teardown).
func (s *IdentityService) Remove(ctx context.Context, participantID string) error {
	pipe := s.rdb.Pipeline()
	pipe.Del(ctx, config.CacheKey.ParticipantSessionKey(participantID))
	pipe.Del(ctx, config.CacheKey.ParticipantNameKey(participantID))
	_, err := pipe.Exec(ctx)
	return err
}
