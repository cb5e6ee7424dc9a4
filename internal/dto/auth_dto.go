package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type CreateUserRequest struct {
	Username  string  `json:"username"   validate:"required,min=3,max=64"`
	FirstName string  `json:"first_name" validate:"max=80"`
	LastName  string  `json:"last_name"  validate:"max=80"`
	Email     *string `json:"email"      validate:"omitempty,email"`
	Password  string  `json:"password"   validate:"required,min=8"`
	Role      string  `json:"role"       validate:"required,oneof=counter supervisor admin"`
}

type UpdateUserRequest struct {
	FirstName *string `json:"first_name" validate:"omitempty,max=80"`
	LastName  *string `json:"last_name"  validate:"omitempty,max=80"`
	Email     *string `json:"email"      validate:"omitempty,email"`
	Password  string  `json:"password"   validate:"omitempty,min=8"`
	Role      string  `json:"role"       validate:"omitempty,oneof=counter supervisor admin"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type UserResponse struct {
	ID          string  `json:"id"`
	Username    string  `json:"username"`
	FirstName   string  `json:"first_name"`
	LastName    string  `json:"last_name"`
	DisplayName string  `json:"display_name"`
	Email       *string `json:"email"`
	Role        string  `json:"role"`
	Active      bool    `json:"active"`
}

type LoginResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int          `json:"expires_in"`
	User         UserResponse `json:"user"`
}
