package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
)

const (
	TOKEN_KEY     = "Authorization"
	BEARER_PREFIX = "Bearer "
)

type TokenClaims struct {
	Appid      string            `json:"aid"`
	User       string            `json:"sub"` // 对应平台的用户唯一标识
	Fields     map[string]string `json:"f"`   // unsafe
	ExpireTime int64             `json:"exp"` // 过期时间 时间戳
	NotBefore  int64             `json:"nbf"` // 生效时间 时间戳
}

func NewTokenClaims(appid, userID, role string, expireTime int64) TokenClaims {
	return TokenClaims{
		Appid: appid,
		User:  userID,
		Fields: map[string]string{
			ROLE_KEY: role,
		},
		ExpireTime: expireTime,
		NotBefore:  time.Now().Unix() - 1,
	}
}

const (
	ROLE_KEY  = "role"
	EMAIL_KEY = "email"
)

func (t TokenClaims) GetRole() string {
	return t.Field(ROLE_KEY)
}

func (t TokenClaims) Field(key string) string {
	if t.Fields == nil {
		return ""
	}

	return t.Fields[key]
}

var (
	ErrInvalidJWT   = errors.New("invalid token")
	ErrMissingToken = errors.New("missing bearer token")
)

type VerifyOptions struct {
	Secret   []byte
	Issuer   string
	Audience string
}

// GenerateJWT signs the claims with HS256, the scheme the hosted auth provider issues.
func GenerateJWT(info TokenClaims, secret []byte) (string, error) {
	claims := jwt.MapClaims{
		"sub": info.User,
		"exp": info.ExpireTime,
		"nbf": info.NotBefore,
		"iat": time.Now().Unix(),
	}
	if info.Appid != "" {
		claims["aid"] = info.Appid
	}
	for k, v := range info.Fields {
		if v != "" {
			claims[k] = v
		}
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ParseBearer extracts the token from an "Authorization: Bearer <token>" header value.
func ParseBearer(header string) (string, error) {
	header = strings.TrimSpace(header)
	if len(header) < len(BEARER_PREFIX) || !strings.EqualFold(header[:len(BEARER_PREFIX)], BEARER_PREFIX) {
		return "", ErrMissingToken
	}
	token := strings.TrimSpace(header[len(BEARER_PREFIX):])
	if token == "" {
		return "", ErrMissingToken
	}
	return token, nil
}

func VerifyToken(tokenString string, opts VerifyOptions) (*TokenClaims, error) {
	if len(opts.Secret) == 0 {
		return nil, fmt.Errorf("empty jwt secret, %w", ErrInvalidJWT)
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return opts.Secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s, %w", err.Error(), ErrInvalidJWT)
	}

	if _, ok := claims["exp"]; !ok {
		return nil, fmt.Errorf("token without exp, %w", ErrInvalidJWT)
	}
	if opts.Issuer != "" && !claims.VerifyIssuer(opts.Issuer, true) {
		return nil, fmt.Errorf("issuer mismatch, %w", ErrInvalidJWT)
	}
	if opts.Audience != "" && !claims.VerifyAudience(opts.Audience, true) {
		return nil, fmt.Errorf("audience mismatch, %w", ErrInvalidJWT)
	}

	result := &TokenClaims{
		Appid:  stringClaim(claims, "aid"),
		User:   stringClaim(claims, "sub"),
		Fields: map[string]string{},
	}
	if result.User == "" {
		return nil, fmt.Errorf("token without subject, %w", ErrInvalidJWT)
	}
	if exp, ok := claims["exp"].(float64); ok {
		result.ExpireTime = int64(exp)
	}
	if nbf, ok := claims["nbf"].(float64); ok {
		result.NotBefore = int64(nbf)
	}
	for _, k := range []string{ROLE_KEY, EMAIL_KEY} {
		if v := stringClaim(claims, k); v != "" {
			result.Fields[k] = v
		}
	}
	return result, nil
}

func stringClaim(claims jwt.MapClaims, key string) string {
	v, _ := claims[key].(string)
	return v
}
