package dto

type SignupRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Bio      string `json:"bio"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type UpdateProfileRequest struct {
	FullName   string `json:"fullName"`
	Bio        string `json:"bio"`
	ProfilePic string `json:"profilePic,omitempty"`
}

type VerifyAccountRequest struct {
	OTP string `json:"otp"`
}

type SendResetOTPRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	NewPassword string `json:"newPassword"`
}

type UserResponse struct {
	UserID            string `json:"userId"`
	Email             string `json:"email"`
	FullName          string `json:"fullName"`
	Bio               string `json:"bio"`
	ProfilePic        string `json:"profilePic,omitempty"`
	IsAccountVerified bool   `json:"isAccountVerified"`
	CreatedAt         string `json:"createdAt"`
}

type AuthResponse struct {
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken,omitempty"`
	User         UserResponse `json:"user"`
}

type TokenResponse struct {
	AccessToken string `json:"accessToken"`
}

type UserEnvelope struct {
	User UserResponse `json:"user"`
}
