package jwt

import (
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/vatsinhr/settlement-backend-go/internal/domain/auth"
)

type Service interface {
	GenerateAccessToken(actorID string, email string, name string, role auth.Role) (token string, expiresAt int64, err error)
	GenerateStreamToken(actorID string) (token string, expiresIn int, err error)
	ValidateStreamToken(tokenString string) (actorID string, err error)
	JWTAuth() *jwtauth.JWTAuth
}

type JWTService struct {
	secretKey                 string
	accessTokenExpirationTime string
	tokenAuth                 *jwtauth.JWTAuth
}

func NewJWTService(secretKey string, accessTokenExpirationTime string) Service {
	return &JWTService{
		secretKey:                 secretKey,
		accessTokenExpirationTime: accessTokenExpirationTime,
		tokenAuth:                 jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
	}
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

func (j *JWTService) GenerateAccessToken(actorID string, email string, name string, role auth.Role) (token string, expiresAt int64, err error) {
	expDuration, err := time.ParseDuration(j.accessTokenExpirationTime)
	if err != nil {
		return "", 0, err
	}
	expiresAt = time.Now().Add(expDuration).Unix()

	_, tokenString, err := j.tokenAuth.Encode(map[string]interface{}{
		"actor_id": actorID,
		"email":    email,
		"name":     name,
		"role":     string(role),
		"type":     "access",
		"exp":      expiresAt,
	})
	return tokenString, expiresAt, err
}

// GenerateStreamToken generates a short-lived token for SSE connections,
// which cannot carry an Authorization header.
func (j *JWTService) GenerateStreamToken(actorID string) (token string, expiresIn int, err error) {
	expiresIn = 300 // 5 minutes in seconds
	expiresAt := time.Now().Add(5 * time.Minute).Unix()

	_, tokenString, err := j.tokenAuth.Encode(map[string]interface{}{
		"actor_id": actorID,
		"type":     "stream",
		"exp":      expiresAt,
	})
	if err != nil {
		return "", 0, err
	}

	return tokenString, expiresIn, nil
}

// ValidateStreamToken validates a stream token and returns the actor ID.
func (j *JWTService) ValidateStreamToken(tokenString string) (actorID string, err error) {
	token, err := j.tokenAuth.Decode(tokenString)
	if err != nil {
		return "", err
	}

	tokenType, ok := token.Get("type")
	if !ok || tokenType != "stream" {
		return "", jwt.ErrInvalidJWT()
	}

	actorIDVal, ok := token.Get("actor_id")
	if !ok {
		return "", jwt.ErrInvalidJWT()
	}

	actorID, ok = actorIDVal.(string)
	if !ok {
		return "", jwt.ErrInvalidJWT()
	}

	return actorID, nil
}
