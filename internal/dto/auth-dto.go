package dto

type TokenRequest struct {
	Utorid   string `json:"utorid"`
	Password string `json:"password"`
}

type TokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expiresAt"`
}

type ResetRequest struct {
	Utorid string `json:"utorid"`
}

type ResetResponse struct {
	ExpiresAt  string `json:"expiresAt"`
	ResetToken string `json:"resetToken"`
}

type ResetApplyRequest struct {
	Utorid   string `json:"utorid"`
	Password string `json:"password"`
}

type PasswordChangeRequest struct {
	Old string `json:"old"`
	New string `json:"new"`
}

// AuthClaims is the decoded token payload attached to the request context.
type AuthClaims struct {
	Utorid string
	Role   string
	Expiry float64
	Iat    float64
}
