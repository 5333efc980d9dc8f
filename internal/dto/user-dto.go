package dto

import "time"

type CreateUserRequest struct {
	Utorid   string `json:"utorid"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type CreateUserResponse struct {
	ID              uint   `json:"id"`
	Utorid          string `json:"utorid"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	Verified        bool   `json:"verified"`
	DefaultPassword string `json:"defaultPassword,omitempty"`
}

// UpdateProfileRequest is a PATCH body: nil means "leave unchanged".
type UpdateProfileRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Birthday *string `json:"birthday"` // YYYY-MM-DD
	Avatar   *string `json:"avatarUrl"`
}

// AdminUpdateUserRequest is the manager-or-above PATCH body.
type AdminUpdateUserRequest struct {
	Name       *string `json:"name"`
	Email      *string `json:"email"`
	Birthday   *string `json:"birthday"`
	Verified   *bool   `json:"verified"`
	Suspicious *bool   `json:"suspicious"`
	Role       *string `json:"role"`
}

// UserFilter is the typed listing criteria; query-string decoding happens
// at the handler, the service only sees this.
type UserFilter struct {
	Name      string `query:"name"`
	Role      string `query:"role"`
	Verified  *bool  `query:"verified"`
	Activated *bool  `query:"activated"`
	Page      int    `query:"page"`
	Limit     int    `query:"limit"`
}

type UserResponse struct {
	ID        uint       `json:"id"`
	Utorid    string     `json:"utorid"`
	Name      string     `json:"name"`
	Email     string     `json:"email,omitempty"`
	Birthday  string     `json:"birthday,omitempty"`
	Role      string     `json:"role,omitempty"`
	Points    int        `json:"points"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
	Verified  bool       `json:"verified"`
	AvatarURL string     `json:"avatarUrl,omitempty"`

	Promotions []PromotionSummary `json:"promotions,omitempty"`
}

type UserListResponse struct {
	Count   int64          `json:"count"`
	Results []UserResponse `json:"results"`
}
