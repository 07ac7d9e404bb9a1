package auth

import (
	"strings"

	apperrors "github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/core/common/validation"
)

// LoginDTO is the transport shape used by the HTTP handler to accept login requests.
type LoginDTO struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshTokenDTO struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

func (d *LoginDTO) Validate() *apperrors.AppError {
	d.Email = strings.ToLower(strings.TrimSpace(d.Email))
	return validation.Struct(d)
}

func (d *RefreshTokenDTO) Validate() *apperrors.AppError {
	d.RefreshToken = strings.TrimSpace(d.RefreshToken)
	return validation.Struct(d)
}
