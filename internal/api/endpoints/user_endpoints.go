package endpoints

import (
	"net/http"

	"quickchat-backend/internal/dto"
	usersvc "quickchat-backend/internal/service/user"
)

type UserEndpoints interface {
	Signup(http.ResponseWriter, *http.Request) error
	Login(http.ResponseWriter, *http.Request) error
	Refresh(http.ResponseWriter, *http.Request) error
	Logout(http.ResponseWriter, *http.Request) error
	Check(http.ResponseWriter, *http.Request) error
	UpdateProfile(http.ResponseWriter, *http.Request) error
	DeleteProfile(http.ResponseWriter, *http.Request) error
	SendVerifyOTP(http.ResponseWriter, *http.Request) error
	VerifyAccount(http.ResponseWriter, *http.Request) error
	SendResetOTP(http.ResponseWriter, *http.Request) error
	ResetPassword(http.ResponseWriter, *http.Request) error
}

type userEndpoints struct {
	service *usersvc.Service
}

func NewUserEndpoints(service *usersvc.Service) UserEndpoints {
	return &userEndpoints{service: service}
}

func (h *userEndpoints) Signup(w http.ResponseWriter, r *http.Request) error {
	var req dto.SignupRequest
	if err := decodeJSON(r, &req); err != nil {
		return badRequest("signup request", err)
	}

	result, err := h.service.Signup(r.Context(), usersvc.SignupParams{
		FullName: req.FullName,
		Email:    req.Email,
		Password: req.Password,
		Bio:      req.Bio,
	})
	if err != nil {
		return serviceError(err)
	}
	return WriteJSON(w, http.StatusCreated, toAuthResponse(result))
}

func (h *userEndpoints) Login(w http.ResponseWriter, r *http.Request) error {
	var req dto.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		return badRequest("login request", err)
	}

	result, err := h.service.Login(r.Context(), usersvc.LoginParams{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return serviceError(err)
	}
	return WriteJSON(w, http.StatusOK, toAuthResponse(result))
}

func (h *userEndpoints) Refresh(w http.ResponseWriter, r *http.Request) error {
	var req dto.RefreshRequest
	if err := decodeJSON(r, &req); err != nil {
		return badRequest("refresh request", err)
	}

	token, err := h.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		return serviceError(err)
	}
	return WriteJSON(w, http.StatusOK, dto.TokenResponse{AccessToken: token})
}

func (h *userEndpoints) Logout(w http.ResponseWriter, r *http.Request) error {
	var req dto.RefreshRequest
	if err := decodeJSON(r, &req); err != nil {
		return badRequest("logout request", err)
	}

	if err := h.service.Logout(r.Context(), req.RefreshToken); err != nil {
		return serviceError(err)
	}
	return WriteJSON(w, http.StatusOK, ApiMessageResponse{Message: "Logged Out"})
}

func (h *userEndpoints) Check(w http.ResponseWriter, r *http.Request) error {
	identity, err := requestIdentity(r)
	if err != nil {
		return err
	}

	user, err := h.service.Me(r.Context(), identity)
	if err != nil {
		return serviceError(err)
	}
	return WriteJSON(w, http.StatusOK, dto.UserEnvelope{User: toUserResponse(user)})
}

func (h *userEndpoints) UpdateProfile(w http.ResponseWriter, r *http.Request) error {
	identity, err := requestIdentity(r)
	if err != nil {
		return err
	}

	var req dto.UpdateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		return badRequest("update profile request", err)
	}

	user, err := h.service.UpdateProfile(r.Context(), identity, usersvc.UpdateProfileParams{
		FullName:   req.FullName,
		Bio:        req.Bio,
		ProfilePic: req.ProfilePic,
	})
	if err != nil {
		return serviceError(err)
	}
	return WriteJSON(w, http.StatusOK, dto.UserEnvelope{User: toUserResponse(user)})
}

func (h *userEndpoints) DeleteProfile(w http.ResponseWriter, r *http.Request) error {
	identity, err := requestIdentity(r)
	if err != nil {
		return err
	}

	if err := h.service.DeleteProfile(r.Context(), identity); err != nil {
		return serviceError(err)
	}
	return WriteJSON(w, http.StatusOK, ApiMessageResponse{Message: "Profile deleted"})
}

func (h *userEndpoints) SendVerifyOTP(w http.ResponseWriter, r *http.Request) error {
	identity, err := requestIdentity(r)
	if err != nil {
		return err
	}

	if err := h.service.SendVerifyOTP(r.Context(), identity); err != nil {
		return serviceError(err)
	}
	return WriteJSON(w, http.StatusOK, ApiMessageResponse{Message: "Verification OTP sent on email"})
}

func (h *userEndpoints) VerifyAccount(w http.ResponseWriter, r *http.Request) error {
	identity, err := requestIdentity(r)
	if err != nil {
		return err
	}

	var req dto.VerifyAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		return badRequest("verify account request", err)
	}

	user, err := h.service.VerifyAccount(r.Context(), identity, req.OTP)
	if err != nil {
		return serviceError(err)
	}
	return WriteJSON(w, http.StatusOK, dto.UserEnvelope{User: toUserResponse(user)})
}

func (h *userEndpoints) SendResetOTP(w http.ResponseWriter, r *http.Request) error {
	var req dto.SendResetOTPRequest
	if err := decodeJSON(r, &req); err != nil {
		return badRequest("send reset otp request", err)
	}

	if err := h.service.SendResetOTP(r.Context(), req.Email); err != nil {
		return serviceError(err)
	}
	return WriteJSON(w, http.StatusOK, ApiMessageResponse{Message: "OTP sent to your email"})
}

func (h *userEndpoints) ResetPassword(w http.ResponseWriter, r *http.Request) error {
	var req dto.ResetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		return badRequest("reset password request", err)
	}

	err := h.service.ResetPassword(r.Context(), usersvc.ResetPasswordParams{
		Email:       req.Email,
		OTP:         req.OTP,
		NewPassword: req.NewPassword,
	})
	if err != nil {
		return serviceError(err)
	}
	return WriteJSON(w, http.StatusOK, ApiMessageResponse{Message: "Password has been reset successfully"})
}

func toAuthResponse(result usersvc.AuthResult) dto.AuthResponse {
	return dto.AuthResponse{
		AccessToken:  result.Tokens.AccessToken,
		RefreshToken: result.Tokens.RefreshToken,
		User:         toUserResponse(result.User),
	}
}
