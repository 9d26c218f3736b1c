package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"conduit/config"

	jwt "github.com/dgrijalva/jwt-go"
)

var (
	// ErrMissingHeader means no Authorization header (or the wrong scheme)
	// was supplied at all.
	ErrMissingHeader = errors.New("missing authorization header")
	// ErrInvalidToken covers bad signatures, expiry and malformed claims.
	ErrInvalidToken = errors.New("invalid token")
)

// TokenService issues and verifies the signed identity tokens used by the
// API. The secret and algorithm are injected from config; there is no
// package-level state.
type TokenService struct {
	secret    string
	algorithm string
	ttl       time.Duration
}

func NewTokenService(cfg config.AuthConfig) *TokenService {
	return &TokenService{
		secret:    cfg.Secret,
		algorithm: cfg.Algorithm,
		ttl:       cfg.TTL,
	}
}

// CreateToken signs a token whose subject is the user id in decimal.
func (ts *TokenService) CreateToken(userID uint) (string, error) {
	method := jwt.GetSigningMethod(ts.algorithm)
	if method == nil {
		return "", fmt.Errorf("unknown signing algorithm %q", ts.algorithm)
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": strconv.FormatUint(uint64(userID), 10),
		"iat": now.Unix(),
		"exp": now.Add(ts.ttl).Unix(),
	}
	return jwt.NewWithClaims(method, claims).SignedString([]byte(ts.secret))
}

// VerifyToken checks signature and expiry and returns the subject user id.
func (ts *TokenService) VerifyToken(tokenString string) (uint, error) {
	parsed, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != ts.algorithm {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(ts.secret), nil
	})
	if err != nil || !parsed.Valid {
		return 0, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return 0, ErrInvalidToken
	}
	sub, ok := claims["sub"].(string)
	if !ok {
		return 0, ErrInvalidToken
	}
	uid, err := strconv.ParseUint(sub, 10, 32)
	if err != nil {
		return 0, ErrInvalidToken
	}
	return uint(uid), nil
}

// ExtractToken pulls the raw token from the Authorization header. The scheme
// name is the literal "Token", not "Bearer".
func ExtractToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", ErrMissingHeader
	}
	fields := strings.Fields(header)
	if len(fields) != 2 || !strings.EqualFold(fields[0], "Token") {
		return "", ErrMissingHeader
	}
	return fields[1], nil
}

// ExtractTokenID resolves the request's bearer identity in one step.
func (ts *TokenService) ExtractTokenID(r *http.Request) (uint, error) {
	token, err := ExtractToken(r)
	if err != nil {
		return 0, err
	}
	return ts.VerifyToken(token)
}
