package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"

	emailService "github.com/quickreceipt/quickreceipt/internal/email"
	"github.com/quickreceipt/quickreceipt/internal/user"
)

const (
	google2FAAuthMethod = "google_authenticator"
	email2FAAuthMethod  = "email"
	codeResendCooldown  = 2 * time.Minute
	CodeVerifyType      = "verify"
	Code2FAType         = "2fa"
	CodePassType        = "password"
)

var (
	ErrUserNotFound             = errors.New("user not found")
	ErrInvalidCredentials       = errors.New("invalid credentials")
	ErrInternalError            = errors.New("internal Server Error")
	ErrInvalidTwoFactorMethod   = errors.New("two factor auth method not supported")
	ErrUser2FANotEnabled        = errors.New("two factor auth is not enabled")
	ErrInvalid2FACode           = errors.New("2fa code is invalid")
	ErrUser2FAAlreadyEnabled    = errors.New("2fa auth already enabled")
	ErrInvalidVerificationCode  = errors.New("invalid verification code")
	ErrVerificationCodeExpired  = errors.New("verification code expired")
	ErrUserNotVerified          = errors.New("user has not been verified")
	ErrTooManyEmailCodeRequests = errors.New("too many email code requests")
	ErrInvalidCodeType          = errors.New("invalid code type")
)

type Service interface {
	Login(email, password string) (*user.User, string, string, error)
	VerifyTwoFactor(sessionToken, code string) (*user.User, string, string, error)
	RegisterTwoFactor(userID string, method string) (string, error)
	VerifyTwoFactorCode(userID, method, code string) error
	DisableTwoFactorAuth(userID, method, verificationCode string) error
	RequestEmail2FACode(userID string) error
	RefreshAccessToken(userID string) (string, string, error)
	RequestPasswordReset(email string) error
	ResetPassword(email, code, newPassword string) error
	JWTRefreshTokenMiddleware() func(http.Handler) http.Handler
	JWTAccessTokenMiddleware() func(http.Handler) http.Handler
}

type service struct {
	repo           UserRepository
	userService    user.Service
	sessionManager SessionManagerInterface
	jwtManager     JWTManagerInterface
	emailService   emailService.EmailSender
	authenticator  Authenticator
}

func NewAuthService(repo UserRepository, userService user.Service, sessionManager SessionManagerInterface, jwtManager JWTManagerInterface, emailService emailService.EmailSender, authenticator Authenticator) Service {
	return &service{
		repo:           repo,
		userService:    userService,
		sessionManager: sessionManager,
		jwtManager:     jwtManager,
		emailService:   emailService,
		authenticator:  authenticator,
	}
}

func GenerateVerificationCode() (string, error) {
	code := make([]byte, 6)
	_, err := rand.Read(code)
	if err != nil {
		return "", fmt.Errorf("could not generate verification code: %v", err)
	}
	for i := range code {
		code[i] = '0' + (code[i] % 10)
	}
	return string(code), nil
}

// sendEmailCode stores a fresh code and queues the matching email. Codes
// of the same type are rate limited by the resend cooldown.
func (s *service) sendEmailCode(u *user.User, codeType string) error {
	_, storedCodeType, _, createdAt, err := s.userService.GetEmailVerificationCode(u.ID)
	if err == nil && storedCodeType == codeType {
		if time.Now().UTC().Sub(createdAt.UTC()) < codeResendCooldown {
			return ErrTooManyEmailCodeRequests
		}
	}

	newCode, err := GenerateVerificationCode()
	if err != nil {
		return fmt.Errorf("could not generate verification code: %v", err)
	}

	expirationTime := time.Now().UTC().Add(10 * time.Minute)
	err = s.userService.SaveEmailVerificationCode(u.ID, newCode, expirationTime, codeType)
	if err != nil {
		return fmt.Errorf("could not save verification code: %v", err)
	}

	switch codeType {
	case Code2FAType:
		s.emailService.QueueEmail(u.Email, emailService.TwoFactorCodeData{
			UserName: u.Name,
			Code:     newCode,
		})
	case CodePassType:
		s.emailService.QueueEmail(u.Email, emailService.ResetPasswordData{
			UserName: u.Name,
			Code:     newCode,
		})
	case CodeVerifyType:
		s.emailService.QueueEmail(u.Email, emailService.RegistrationConfirmationData{
			UserName: u.Name,
			Code:     newCode,
		})
	}

	return nil
}

// Login verifies the password. When 2FA is enabled the caller gets a
// short-lived session token instead of JWTs and must finish with
// VerifyTwoFactor.
func (s *service) Login(email, password string) (*user.User, string, string, error) {
	existingUser, err := s.userService.GetUserByEmail(email)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, "", "", ErrInvalidCredentials
		}
		return nil, "", "", ErrInternalError
	}

	if !doPasswordsMatch(existingUser.PasswordHash, password) {
		return nil, "", "", ErrInvalidCredentials
	}

	if !existingUser.IsActive {
		_ = s.sendEmailCode(existingUser, CodeVerifyType)
		return nil, "", "", ErrUserNotVerified
	}

	if existingUser.TwoFactorEnabled {
		switch existingUser.TwoFactorMethod {
		case email2FAAuthMethod:
			if err := s.sendEmailCode(existingUser, Code2FAType); err != nil && !errors.Is(err, ErrTooManyEmailCodeRequests) {
				return nil, "", "", ErrInternalError
			}
		case google2FAAuthMethod:
			// code comes from the authenticator app
		default:
			return nil, "", "", ErrInvalidTwoFactorMethod
		}
		sessionToken, err := s.sessionManager.GenerateSessionToken(existingUser.ID, defaultSessionTokenDuration)
		if err != nil {
			return nil, "", "", ErrInternalError
		}
		return existingUser, sessionToken, "", nil
	}

	return s.issueTokens(existingUser)
}

func (s *service) VerifyTwoFactor(sessionToken, code string) (*user.User, string, string, error) {
	userID, err := s.sessionManager.VerifySessionToken(sessionToken)
	if err != nil {
		return nil, "", "", err
	}
	existingUser, err := s.userService.GetUserByID(userID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, "", "", ErrUserNotFound
		}
		return nil, "", "", ErrInternalError
	}
	if !existingUser.TwoFactorEnabled {
		return nil, "", "", ErrUser2FANotEnabled
	}

	if err := s.checkTwoFactorCode(existingUser, existingUser.TwoFactorMethod, code); err != nil {
		return nil, "", "", err
	}
	s.sessionManager.DeleteSessionToken(sessionToken)

	return s.issueTokens(existingUser)
}

// RegisterTwoFactor begins 2FA enrollment. For the authenticator method it
// returns the otpauth:// URI to show as a QR code; enrollment finishes
// with VerifyTwoFactorCode.
func (s *service) RegisterTwoFactor(userID string, method string) (string, error) {
	existingUser, err := s.userService.GetUserByID(userID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return "", ErrUserNotFound
		}
		return "", ErrInternalError
	}

	if existingUser.TwoFactorEnabled {
		return "", ErrUser2FAAlreadyEnabled
	}

	switch method {
	case email2FAAuthMethod:
		if err := s.sendEmailCode(existingUser, Code2FAType); err != nil {
			if errors.Is(err, ErrTooManyEmailCodeRequests) {
				return "", ErrTooManyEmailCodeRequests
			}
			return "", ErrInternalError
		}
		return "", nil
	case google2FAAuthMethod:
		otpURI, secret, err := s.authenticator.GenerateSecret(existingUser.Email)
		if err != nil {
			return "", ErrInternalError
		}
		if err := s.repo.SaveTwoFactorSecret(userID, secret); err != nil {
			return "", ErrInternalError
		}
		return otpURI, nil
	default:
		return "", ErrInvalidTwoFactorMethod
	}
}

func (s *service) VerifyTwoFactorCode(userID, method, code string) error {
	existingUser, err := s.userService.GetUserByID(userID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return ErrInternalError
	}

	if existingUser.TwoFactorEnabled {
		return ErrUser2FAAlreadyEnabled
	}

	if err := s.checkTwoFactorCode(existingUser, method, code); err != nil {
		return err
	}

	if err := s.repo.EnableTwoFactor(userID, method); err != nil {
		return ErrInternalError
	}
	return nil
}

func (s *service) DisableTwoFactorAuth(userID, method, verificationCode string) error {
	existingUser, err := s.userService.GetUserByID(userID)
	if err != nil {
		return ErrUserNotFound
	}

	if !existingUser.TwoFactorEnabled {
		return ErrUser2FANotEnabled
	}
	if existingUser.TwoFactorMethod != method {
		return ErrInvalidTwoFactorMethod
	}

	if err := s.checkTwoFactorCode(existingUser, method, verificationCode); err != nil {
		return err
	}

	if err := s.repo.DisableTwoFactor(userID); err != nil {
		return ErrInternalError
	}
	return nil
}

func (s *service) RequestEmail2FACode(userID string) error {
	existingUser, err := s.userService.GetUserByID(userID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return ErrInternalError
	}

	if !existingUser.TwoFactorEnabled {
		return ErrUser2FANotEnabled
	}
	if existingUser.TwoFactorMethod != email2FAAuthMethod {
		return ErrInvalidTwoFactorMethod
	}

	err = s.sendEmailCode(existingUser, Code2FAType)
	if err != nil {
		if errors.Is(err, ErrTooManyEmailCodeRequests) {
			return ErrTooManyEmailCodeRequests
		}
		return ErrInternalError
	}
	return nil
}

// RefreshAccessToken is only reached through the refresh token middleware,
// which already validated the token against the user's hash token.
func (s *service) RefreshAccessToken(userID string) (string, string, error) {
	existingUser, err := s.userService.GetUserByID(userID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return "", "", ErrUserNotFound
		}
		return "", "", ErrInternalError
	}
	jwtToken, err := s.jwtManager.GenerateAccessJWT(userID, defaultJWTDuration)
	if err != nil {
		return "", "", ErrInternalError
	}
	newRefreshToken, err := s.jwtManager.GenerateRefreshJWT(userID, existingUser.HashToken, defaultJWTRefreshDuration)
	if err != nil {
		return "", "", ErrInternalError
	}
	return jwtToken, newRefreshToken, nil
}

func (s *service) RequestPasswordReset(email string) error {
	existingUser, err := s.userService.GetUserByEmail(email)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return ErrInternalError
	}

	codeType := CodePassType
	if existingUser.TwoFactorEnabled {
		switch existingUser.TwoFactorMethod {
		case google2FAAuthMethod:
			// reset is confirmed with the authenticator code, no email needed
			return nil
		case email2FAAuthMethod:
			codeType = Code2FAType
		default:
			return ErrInvalidTwoFactorMethod
		}
	}

	err = s.sendEmailCode(existingUser, codeType)
	if err != nil {
		if errors.Is(err, ErrTooManyEmailCodeRequests) {
			return ErrTooManyEmailCodeRequests
		}
		return ErrInternalError
	}
	return nil
}

func (s *service) ResetPassword(email, verificationCode, newPassword string) error {
	existingUser, err := s.userService.GetUserByEmail(email)
	if err != nil {
		return ErrUserNotFound
	}

	if existingUser.TwoFactorEnabled {
		if err := s.checkTwoFactorCode(existingUser, existingUser.TwoFactorMethod, verificationCode); err != nil {
			return err
		}
	} else {
		storedCode, codeType, expiresAt, _, err := s.userService.GetEmailVerificationCode(existingUser.ID)
		if err != nil {
			if errors.Is(err, user.ErrNoVerificationCodeGenerated) {
				return user.ErrNoVerificationCodeGenerated
			}
			return ErrInternalError
		}
		if codeType != CodePassType {
			return ErrInvalidCodeType
		}
		if storedCode != verificationCode {
			return ErrInvalid2FACode
		}
		if time.Now().After(expiresAt) {
			return ErrVerificationCodeExpired
		}
		if err := s.userService.DeleteEmailVerificationCode(existingUser.ID); err != nil {
			return ErrInternalError
		}
	}

	if err := s.userService.ResetPassword(existingUser.ID, newPassword); err != nil {
		return ErrInternalError
	}
	return nil
}

// checkTwoFactorCode verifies a code against the given method and consumes
// email codes on success.
func (s *service) checkTwoFactorCode(u *user.User, method, code string) error {
	switch method {
	case email2FAAuthMethod:
		storedCode, codeType, expiresAt, _, err := s.userService.GetEmailVerificationCode(u.ID)
		if err != nil {
			return ErrInvalid2FACode
		}
		if codeType != Code2FAType {
			return ErrInvalidCodeType
		}
		if storedCode != code {
			return ErrInvalid2FACode
		}
		if time.Now().After(expiresAt) {
			return ErrVerificationCodeExpired
		}
		if err := s.userService.DeleteEmailVerificationCode(u.ID); err != nil {
			return ErrInternalError
		}
		return nil
	case google2FAAuthMethod:
		secret, err := s.repo.GetTwoFactorSecret(u.ID)
		if err != nil {
			return err
		}
		if !s.authenticator.VerifyCode(secret, code) {
			return ErrInvalid2FACode
		}
		return nil
	default:
		return ErrInvalidTwoFactorMethod
	}
}

func (s *service) issueTokens(u *user.User) (*user.User, string, string, error) {
	jwtToken, err := s.jwtManager.GenerateAccessJWT(u.ID, defaultJWTDuration)
	if err != nil {
		return nil, "", "", ErrInternalError
	}
	refreshToken, err := s.jwtManager.GenerateRefreshJWT(u.ID, u.HashToken, defaultJWTRefreshDuration)
	if err != nil {
		return nil, "", "", ErrInternalError
	}
	return u, jwtToken, refreshToken, nil
}

func doPasswordsMatch(hashedPassword, currPassword string) bool {
	err := bcrypt.CompareHashAndPassword(
		[]byte(hashedPassword), []byte(currPassword))
	return err == nil
}
