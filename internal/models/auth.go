package models

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Username   string     `json:"username" validate:"required"`
	Password   string     `json:"password" validate:"required"`
	TotpCode   string     `json:"totp_code"`
	DeviceType DeviceType `json:"device_type" validate:"omitempty,oneof=DESKTOP MOBILE OTHER"`
	UserAgent  string     `json:"-"`
}

// RegisterRequest creates a new account.
type RegisterRequest struct {
	Username   string     `json:"username" validate:"required,max=64"`
	Password   string     `json:"password" validate:"required"`
	DeviceType DeviceType `json:"device_type" validate:"omitempty,oneof=DESKTOP MOBILE OTHER"`
	UserAgent  string     `json:"-"`
}

// TokenPair is the result of a successful login, registration or refresh.
// Only the access token is returned in the body; the refresh token travels
// in a cookie.
type TokenPair struct {
	AccessToken      string `json:"accessToken"`
	RefreshToken     string `json:"-"`
	RefreshExpiresIn int    `json:"-"`
}

// TotpEnrollRequest confirms a freshly generated secret.
type TotpEnrollRequest struct {
	Secret     string `json:"secret" validate:"required"`
	VerifyCode string `json:"verify_code" validate:"required"`
}

// TotpSecret is a generated, not yet enrolled, second factor.
type TotpSecret struct {
	Secret string `json:"secret"`
	URL    string `json:"url"`
}
