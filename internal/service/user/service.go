package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"quickchat-backend/internal/database"
	internaljwt "quickchat-backend/internal/jwt"
	"quickchat-backend/internal/mailer"
	"quickchat-backend/internal/model"
	"quickchat-backend/internal/upload"
	"quickchat-backend/utils"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	VerifyOTPTTL = 24 * time.Hour
	ResetOTPTTL  = 15 * time.Minute
)

type Service struct {
	repo     Repository
	mailer   mailer.Sender
	uploader upload.Uploader
	now      func() time.Time
}

var (
	createTokenWithRefresh = internaljwt.CreateTokenWithRefresh
	refreshAccessToken     = internaljwt.RefreshToken
	revokeRefreshToken     = internaljwt.RevokeRefreshToken
	revokeUserTokens       = internaljwt.RevokeUserTokens
	generateOTP            = utils.GenerateOTP
)

func SetTokenIssuer(issuer func(internaljwt.User, internaljwt.Role, int64) (internaljwt.TokenResponse, error)) {
	if issuer == nil {
		createTokenWithRefresh = internaljwt.CreateTokenWithRefresh
		return
	}
	createTokenWithRefresh = issuer
}

func New(db *database.Database, sender mailer.Sender, uploader upload.Uploader) *Service {
	return NewWithRepository(NewDynamoRepository(db), sender, uploader, time.Now)
}

func NewWithRepository(repo Repository, sender mailer.Sender, uploader upload.Uploader, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	if sender == nil {
		sender = mailer.LogSender{}
	}
	if uploader == nil {
		uploader = upload.Disabled{}
	}

	return &Service{
		repo:     repo,
		mailer:   sender,
		uploader: uploader,
		now:      now,
	}
}

func (s *Service) Signup(ctx context.Context, params SignupParams) (AuthResult, error) {
	fullName := strings.TrimSpace(params.FullName)
	email := normalizeEmail(params.Email)
	password := strings.TrimSpace(params.Password)
	bio := strings.TrimSpace(params.Bio)

	if fullName == "" || email == "" || password == "" || bio == "" {
		return AuthResult{}, newError(ErrorCodeValidation, "Missing Details", nil)
	}

	_, err := s.repo.FindUserByEmail(ctx, email)
	switch {
	case err == nil:
		return AuthResult{}, newError(ErrorCodeConflict, "Account already exists", nil)
	case !errors.Is(err, ErrNotFound):
		return AuthResult{}, newError(ErrorCodeInternal, "failed to look up user", err)
	}

	hash, err := internaljwt.HashPassword(password)
	if err != nil {
		return AuthResult{}, newError(ErrorCodeInternal, "failed to prepare user", err)
	}

	now := s.timestamp()
	user := model.UserItem{
		UserID:       uuid.NewString(),
		Email:        email,
		FullName:     fullName,
		PasswordHash: hash,
		Bio:          bio,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return AuthResult{}, err
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		if revokeErr := revokeRefreshToken(ctx, tokens.RefreshToken); revokeErr != nil {
			log.Warn().Err(revokeErr).Str("user_id", user.UserID).Msg("Failed to revoke refresh token")
		}
		if errors.Is(err, ErrExists) {
			return AuthResult{}, newError(ErrorCodeConflict, "Account already exists", err)
		}
		return AuthResult{}, newError(ErrorCodeInternal, "failed to save user", err)
	}

	log.Info().Str("user_id", user.UserID).Msg("User signed up")
	return AuthResult{User: user, Tokens: tokens}, nil
}

func (s *Service) Login(ctx context.Context, params LoginParams) (AuthResult, error) {
	email := normalizeEmail(params.Email)
	password := strings.TrimSpace(params.Password)

	if email == "" || password == "" {
		return AuthResult{}, newError(ErrorCodeValidation, "Missing Details", nil)
	}

	user, err := s.repo.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return AuthResult{}, newError(ErrorCodeUnauthorized, "Invalid credentials", nil)
		}
		return AuthResult{}, newError(ErrorCodeInternal, "failed to look up user", err)
	}

	if !internaljwt.ValidatePassword(user.PasswordHash, password) {
		return AuthResult{}, newError(ErrorCodeUnauthorized, "Invalid credentials", nil)
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return AuthResult{}, err
	}
	return AuthResult{User: user, Tokens: tokens}, nil
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return "", newError(ErrorCodeValidation, "refresh token is required", nil)
	}

	token, err := refreshAccessToken(refreshToken, internaljwt.RoleUser)
	if err != nil {
		if errors.Is(err, internaljwt.ErrInvalidRefreshToken) {
			return "", newError(ErrorCodeUnauthorized, "invalid refresh token", err)
		}
		return "", newError(ErrorCodeInternal, "failed to refresh token", err)
	}
	return token, nil
}

func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if err := revokeRefreshToken(ctx, strings.TrimSpace(refreshToken)); err != nil {
		return newError(ErrorCodeInternal, "failed to revoke token", err)
	}
	return nil
}

func (s *Service) Me(ctx context.Context, identity internaljwt.Identity) (model.UserItem, error) {
	return s.loadUser(ctx, identity)
}

// UpdateProfile changes the non-empty fields of params. ProfilePic may be a
// data URI, which is uploaded, or an existing URL.
func (s *Service) UpdateProfile(ctx context.Context, identity internaljwt.Identity, params UpdateProfileParams) (model.UserItem, error) {
	user, err := s.loadUser(ctx, identity)
	if err != nil {
		return model.UserItem{}, err
	}

	if fullName := strings.TrimSpace(params.FullName); fullName != "" {
		user.FullName = fullName
	}
	if bio := strings.TrimSpace(params.Bio); bio != "" {
		user.Bio = bio
	}
	if pic := strings.TrimSpace(params.ProfilePic); pic != "" {
		url, err := s.uploader.Upload(ctx, pic)
		if err != nil {
			return model.UserItem{}, uploadError(err)
		}
		user.ProfilePic = url
	}
	user.UpdatedAt = s.timestamp()

	if err := s.save(ctx, user); err != nil {
		return model.UserItem{}, err
	}
	return user, nil
}

// DeleteProfile removes the user, every message they sent or received and
// all of their refresh tokens.
func (s *Service) DeleteProfile(ctx context.Context, identity internaljwt.Identity) error {
	user, err := s.loadUser(ctx, identity)
	if err != nil {
		return err
	}

	deleted, err := s.repo.DeleteUserMessages(ctx, user.UserID)
	if err != nil {
		return newError(ErrorCodeInternal, "failed to delete messages", err)
	}
	if err := s.repo.DeleteUser(ctx, user.UserID); err != nil {
		return newError(ErrorCodeInternal, "failed to delete user", err)
	}
	if err := revokeUserTokens(ctx, user.UserID); err != nil {
		log.Warn().Err(err).Str("user_id", user.UserID).Msg("Failed to revoke refresh tokens")
	}

	log.Info().Str("user_id", user.UserID).Int("messages", deleted).Msg("Profile deleted")
	return nil
}

func (s *Service) SendVerifyOTP(ctx context.Context, identity internaljwt.Identity) error {
	user, err := s.loadUser(ctx, identity)
	if err != nil {
		return err
	}
	if user.IsAccountVerified {
		return newError(ErrorCodeValidation, "Account already verified", nil)
	}

	otp, err := generateOTP()
	if err != nil {
		return newError(ErrorCodeInternal, "failed to generate otp", err)
	}
	user.VerifyOTP = otp
	user.VerifyOTPExpireAt = s.now().Add(VerifyOTPTTL).UnixMilli()
	user.UpdatedAt = s.timestamp()

	if err := s.save(ctx, user); err != nil {
		return err
	}

	return s.mail(ctx, mailer.Message{
		To:      user.Email,
		Subject: "Account Verification OTP",
		Body:    fmt.Sprintf("Your OTP is %s. Verify your account using this OTP.", otp),
	})
}

func (s *Service) VerifyAccount(ctx context.Context, identity internaljwt.Identity, otp string) (model.UserItem, error) {
	otp = strings.TrimSpace(otp)
	if otp == "" {
		return model.UserItem{}, newError(ErrorCodeValidation, "Missing Details", nil)
	}

	user, err := s.loadUser(ctx, identity)
	if err != nil {
		return model.UserItem{}, err
	}
	if err := s.checkOTP(user.VerifyOTP, user.VerifyOTPExpireAt, otp); err != nil {
		return model.UserItem{}, err
	}

	user.IsAccountVerified = true
	user.VerifyOTP = ""
	user.VerifyOTPExpireAt = 0
	user.UpdatedAt = s.timestamp()

	if err := s.save(ctx, user); err != nil {
		return model.UserItem{}, err
	}
	return user, nil
}

func (s *Service) SendResetOTP(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return newError(ErrorCodeValidation, "Email is required", nil)
	}

	user, err := s.findByEmail(ctx, email)
	if err != nil {
		return err
	}

	otp, err := generateOTP()
	if err != nil {
		return newError(ErrorCodeInternal, "failed to generate otp", err)
	}
	user.ResetOTP = otp
	user.ResetOTPExpireAt = s.now().Add(ResetOTPTTL).UnixMilli()
	user.UpdatedAt = s.timestamp()

	if err := s.save(ctx, user); err != nil {
		return err
	}

	return s.mail(ctx, mailer.Message{
		To:      user.Email,
		Subject: "Password Reset OTP",
		Body:    fmt.Sprintf("Your OTP for resetting your password is %s. Use this OTP to proceed with resetting your password.", otp),
	})
}

// ResetPassword replaces the password and revokes every refresh token of the
// account.
func (s *Service) ResetPassword(ctx context.Context, params ResetPasswordParams) error {
	email := normalizeEmail(params.Email)
	otp := strings.TrimSpace(params.OTP)
	password := strings.TrimSpace(params.NewPassword)

	if email == "" || otp == "" || password == "" {
		return newError(ErrorCodeValidation, "Email, OTP, and new password are required", nil)
	}

	user, err := s.findByEmail(ctx, email)
	if err != nil {
		return err
	}
	if err := s.checkOTP(user.ResetOTP, user.ResetOTPExpireAt, otp); err != nil {
		return err
	}

	hash, err := internaljwt.HashPassword(password)
	if err != nil {
		return newError(ErrorCodeInternal, "failed to hash password", err)
	}
	user.PasswordHash = hash
	user.ResetOTP = ""
	user.ResetOTPExpireAt = 0
	user.UpdatedAt = s.timestamp()

	if err := s.save(ctx, user); err != nil {
		return err
	}
	if err := revokeUserTokens(ctx, user.UserID); err != nil {
		log.Warn().Err(err).Str("user_id", user.UserID).Msg("Failed to revoke refresh tokens")
	}
	return nil
}

func (s *Service) issueTokens(user model.UserItem) (internaljwt.TokenResponse, error) {
	tokens, err := createTokenWithRefresh(internaljwt.User{
		Id:           user.UserID,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
	}, internaljwt.RoleUser, 0)
	if err != nil {
		return internaljwt.TokenResponse{}, newError(ErrorCodeInternal, "failed to issue tokens", err)
	}
	return tokens, nil
}

func (s *Service) loadUser(ctx context.Context, identity internaljwt.Identity) (model.UserItem, error) {
	if strings.TrimSpace(identity.UserID) == "" {
		return model.UserItem{}, newError(ErrorCodeUnauthorized, "invalid user identity", nil)
	}

	user, err := s.repo.GetUser(ctx, identity.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return model.UserItem{}, newError(ErrorCodeNotFound, "User not found", err)
		}
		return model.UserItem{}, newError(ErrorCodeInternal, "failed to load user", err)
	}
	return user, nil
}

func (s *Service) findByEmail(ctx context.Context, email string) (model.UserItem, error) {
	user, err := s.repo.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return model.UserItem{}, newError(ErrorCodeNotFound, "User not found", err)
		}
		return model.UserItem{}, newError(ErrorCodeInternal, "failed to look up user", err)
	}
	return user, nil
}

func (s *Service) save(ctx context.Context, user model.UserItem) error {
	if err := s.repo.SaveUser(ctx, user); err != nil {
		if errors.Is(err, ErrNotFound) {
			return newError(ErrorCodeNotFound, "User not found", err)
		}
		return newError(ErrorCodeInternal, "failed to save user", err)
	}
	return nil
}

func (s *Service) mail(ctx context.Context, msg mailer.Message) error {
	if err := s.mailer.Send(ctx, msg); err != nil {
		return newError(ErrorCodeInternal, "failed to send email", err)
	}
	return nil
}

func (s *Service) checkOTP(stored string, expireAt int64, given string) error {
	if stored == "" || stored != given {
		return newError(ErrorCodeValidation, "Invalid OTP", nil)
	}
	if expireAt < s.now().UnixMilli() {
		return newError(ErrorCodeValidation, "OTP Expired", nil)
	}
	return nil
}

func (s *Service) timestamp() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}

func uploadError(err error) error {
	switch {
	case errors.Is(err, upload.ErrInvalidImage), errors.Is(err, upload.ErrImageTooLarge):
		return newError(ErrorCodeValidation, err.Error(), err)
	case errors.Is(err, upload.ErrDisabled):
		return newError(ErrorCodeValidation, "image uploads are not enabled", err)
	default:
		return newError(ErrorCodeInternal, "failed to upload image", err)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
