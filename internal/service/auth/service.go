package auth

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"github.com/vatsinhr/settlement-backend-go/internal/config"
	"github.com/vatsinhr/settlement-backend-go/internal/domain/auth"
	"github.com/vatsinhr/settlement-backend-go/internal/pkg/jwt"
)

// credential is one configured login identity with its fixed role.
type credential struct {
	actorID      string
	email        string
	name         string
	passwordHash string
	role         auth.Role
}

type AuthServiceImpl struct {
	credentials []credential
	jwtService  jwt.Service
}

func NewAuthService(admin config.AdminConfig, auditor config.AuditorConfig, jwtService jwt.Service) auth.Service {
	credentials := []credential{
		{
			actorID:      admin.ActorID,
			email:        admin.Email,
			name:         admin.Name,
			passwordHash: admin.PasswordHash,
			role:         auth.RoleAdmin,
		},
	}
	// No hash means the auditor credential is not provisioned.
	if auditor.PasswordHash != "" {
		credentials = append(credentials, credential{
			actorID:      auditor.ActorID,
			email:        auditor.Email,
			name:         auditor.Name,
			passwordHash: auditor.PasswordHash,
			role:         auth.RoleAuditor,
		})
	}

	return &AuthServiceImpl{
		credentials: credentials,
		jwtService:  jwtService,
	}
}

func (s *AuthServiceImpl) Login(_ context.Context, req auth.LoginRequest) (auth.LoginResponse, error) {
	if err := req.Validate(); err != nil {
		return auth.LoginResponse{}, err
	}

	for _, cred := range s.credentials {
		if cred.email != req.Email {
			continue
		}
		if err := bcrypt.CompareHashAndPassword([]byte(cred.passwordHash), []byte(req.Password)); err != nil {
			return auth.LoginResponse{}, auth.ErrInvalidCredentials
		}

		token, expiresAt, err := s.jwtService.GenerateAccessToken(cred.actorID, cred.email, cred.name, cred.role)
		if err != nil {
			return auth.LoginResponse{}, err
		}

		return auth.LoginResponse{
			AccessToken: token,
			ExpiresAt:   expiresAt,
			ActorID:     cred.actorID,
			Name:        cred.name,
			Role:        string(cred.role),
		}, nil
	}

	return auth.LoginResponse{}, auth.ErrInvalidCredentials
}
