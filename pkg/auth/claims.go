package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"tradepost/pkg/enums"
)

// AccessTokenClaims is the typed JWT this service accepts. Tokens are minted
// by the identity service; this API only verifies them.
type AccessTokenClaims struct {
	UserID uuid.UUID      `json:"user_id"`
	Role   enums.UserRole `json:"role"`
	jwt.RegisteredClaims
}
