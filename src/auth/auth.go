package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"coin-control/src/helpers"
	"coin-control/src/logger"
	"coin-control/src/models"
	"coin-control/src/storage"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// -----------------------------------------------------------------------------
// AuthService
//
// Local account backend: owns the users/auth tables, hashes passwords, issues
// and validates the JWT that the client persists as its credential.
// -----------------------------------------------------------------------------

type AuthService struct {
	Accounts  *storage.AccountDB
	Logger    *logger.Logger
	jwtSecret []byte
	tokenTTL  time.Duration
}

// -----------------------------------------------------------------------------

type tokenClaims struct {
	UserID   string `json:"user_id"`
	Nickname string `json:"nickname"`
	jwt.RegisteredClaims
}

// -----------------------------------------------------------------------------

func NewAuthService(cfg *models.MConfig, accounts *storage.AccountDB, log *logger.Logger) *AuthService {
	return &AuthService{
		Accounts:  accounts,
		Logger:    log,
		jwtSecret: []byte(cfg.Auth.JWTSecret),
		tokenTTL:  time.Duration(cfg.Auth.TokenTTLHrs) * time.Hour,
	}
}

// -----------------------------------------------------------------------------
// Password Hashing
// -----------------------------------------------------------------------------

// hashPassword returns "hexhash:hexsalt" with a fresh random salt.
func hashPassword(password string) (string, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	hash := sha256.Sum256(append([]byte(password), salt...))
	return hex.EncodeToString(hash[:]) + ":" + hex.EncodeToString(salt), nil
}

// -----------------------------------------------------------------------------

func verifyPassword(password, hashWithSalt string) bool {
	parts := strings.Split(hashWithSalt, ":")
	if len(parts) != 2 {
		return false
	}

	hash, saltHex := parts[0], parts[1]
	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return false
	}

	expected := sha256.Sum256(append([]byte(password), salt...))
	return hex.EncodeToString(expected[:]) == hash
}

// -----------------------------------------------------------------------------
// Tokens
// -----------------------------------------------------------------------------

func (s *AuthService) generateToken(identity *models.MIdentity) (string, error) {
	claims := &tokenClaims{
		UserID:   identity.UserID,
		Nickname: identity.Nickname,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// -----------------------------------------------------------------------------

// ValidateToken verifies signature and expiry and returns the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.MClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &tokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, helpers.NewInvalidCredential("token validation failed", err)
	}

	claims, ok := token.Claims.(*tokenClaims)
	if !ok || !token.Valid {
		return nil, helpers.NewInvalidCredential("invalid token", nil)
	}

	return &models.MClaims{
		UserID:   claims.UserID,
		Nickname: claims.Nickname,
	}, nil
}

// -----------------------------------------------------------------------------
// Lookups
// -----------------------------------------------------------------------------

type authRow struct {
	ID           string
	Nickname     string
	PasswordHash string
	UserID       string
}

// -----------------------------------------------------------------------------

func (s *AuthService) getAuthByNickname(ctx context.Context, nickname string) (*authRow, error) {
	query := `
		SELECT id, nickname, password_hash, user_id
		FROM auth
		WHERE nickname = $1
	`

	row := &authRow{}
	err := s.Accounts.DB.QueryRowContext(ctx, query, nickname).Scan(
		&row.ID, &row.Nickname, &row.PasswordHash, &row.UserID,
	)
	if err != nil {
		return nil, err
	}

	return row, nil
}

// -----------------------------------------------------------------------------

// GetIdentityByID resolves the identity record behind a user id.
func (s *AuthService) GetIdentityByID(ctx context.Context, userID string) (*models.MIdentity, error) {
	query := `
		SELECT id, nickname, user_id
		FROM auth
		WHERE user_id = $1
	`

	identity := &models.MIdentity{}
	err := s.Accounts.DB.QueryRowContext(ctx, query, userID).Scan(
		&identity.ID, &identity.Nickname, &identity.UserID,
	)
	if err == sql.ErrNoRows {
		return nil, helpers.NewInvalidCredential("identity not found", err)
	}
	if err != nil {
		return nil, helpers.NewBackendUnavailable("failed to get identity", err)
	}

	return identity, nil
}

// -----------------------------------------------------------------------------
// Login
// -----------------------------------------------------------------------------

// Login authenticates nickname/password and returns the identity plus a fresh
// token. Unknown nickname and wrong password are indistinguishable.
func (s *AuthService) Login(ctx context.Context, nickname, password string) (*models.MIdentity, string, error) {
	row, err := s.getAuthByNickname(ctx, nickname)
	if err == sql.ErrNoRows {
		return nil, "", helpers.NewAuthenticationFailed("invalid credentials", nil)
	}
	if err != nil {
		return nil, "", helpers.NewBackendUnavailable("login lookup failed", err)
	}

	if !verifyPassword(password, row.PasswordHash) {
		return nil, "", helpers.NewAuthenticationFailed("invalid credentials", nil)
	}

	identity := &models.MIdentity{
		ID:       row.ID,
		Nickname: row.Nickname,
		UserID:   row.UserID,
	}

	token, err := s.generateToken(identity)
	if err != nil {
		return nil, "", helpers.NewBackendUnavailable("failed to generate token", err)
	}

	return identity, token, nil
}

// -----------------------------------------------------------------------------
// Registration
// -----------------------------------------------------------------------------

// CreateIdentityWithCredential creates the user row and its auth row in one
// transaction: both exist afterwards or neither does. A taken nickname fails
// before anything is written, so a retried registration cannot orphan rows.
func (s *AuthService) CreateIdentityWithCredential(ctx context.Context, nickname, password, firstName, lastName string) (*models.MIdentity, error) {
	passwordHash, err := hashPassword(password)
	if err != nil {
		return nil, helpers.NewBackendUnavailable("failed to hash password", err)
	}

	tx, err := s.Accounts.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, helpers.NewBackendUnavailable("failed to begin transaction", err)
	}
	defer tx.Rollback()

	var existing int
	err = tx.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM auth WHERE nickname = $1", nickname,
	).Scan(&existing)
	if err != nil {
		return nil, helpers.NewBackendUnavailable("nickname lookup failed", err)
	}
	if existing > 0 {
		return nil, helpers.NewAuthenticationFailed("nickname already taken", nil)
	}

	userID := uuid.NewString()
	_, err = tx.ExecContext(ctx,
		"INSERT INTO users (id, first_name, last_name) VALUES ($1, $2, $3)",
		userID, firstName, lastName,
	)
	if err != nil {
		return nil, helpers.NewBackendUnavailable("failed to create user", err)
	}

	authID := uuid.NewString()
	_, err = tx.ExecContext(ctx,
		"INSERT INTO auth (id, nickname, password_hash, user_id) VALUES ($1, $2, $3, $4)",
		authID, nickname, passwordHash, userID,
	)
	if err != nil {
		return nil, helpers.NewBackendUnavailable("failed to create auth record", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, helpers.NewBackendUnavailable("failed to commit registration", err)
	}

	return &models.MIdentity{
		ID:       authID,
		Nickname: nickname,
		UserID:   userID,
	}, nil
}
