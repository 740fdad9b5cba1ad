package transport

import (
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/Skotchmaster/rbac_auth/internal/domain"
	"github.com/Skotchmaster/rbac_auth/internal/models"
)

// Minimum in characters, maximum in bytes (bcrypt's input limit).
var passwordRules = []validation.Rule{
	validation.Required,
	validation.RuneLength(domain.MinPasswordLength, 0).
		Error(fmt.Sprintf("must be at least %d characters", domain.MinPasswordLength)),
	validation.Length(0, domain.MaxPasswordLength).
		Error(fmt.Sprintf("must be at most %d bytes", domain.MaxPasswordLength)),
}

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, notBlank),
		validation.Field(&r.Password, passwordRules...),
	)
}

// LoginRequest binds from JSON or from an OAuth2 password-grant form.
type LoginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

func (r ChangePasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.OldPassword, validation.Required),
		validation.Field(&r.NewPassword, passwordRules...),
	)
}

type RoleCreateRequest struct {
	Name string `json:"name"`
}

func (r RoleCreateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, notBlank),
	)
}

type UserRoleUpdateRequest struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

func (r UserRoleUpdateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required),
		validation.Field(&r.Role, validation.Required),
	)
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type MessageResponse struct {
	Msg string `json:"msg"`
}

type UserResponse struct {
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
}

func NewUserResponses(users []models.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, UserResponse{
			Username: users[i].Username,
			Roles:    users[i].RoleNames(),
		})
	}
	return out
}

var notBlank = validation.NewStringRule(func(s string) bool {
	return strings.TrimSpace(s) != ""
}, "cannot be blank")
