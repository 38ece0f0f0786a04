package user

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/badoux/checkmail"
	"golang.org/x/crypto/bcrypt"

	emailService "github.com/quickreceipt/quickreceipt/internal/email"
)

const (
	maxNameLength          = 100
	bcryptCost             = 12
	codeResendCooldown     = 2 * time.Minute
	verificationCodeExpiry = 10 * time.Minute
	CodeVerifyType         = "verify"
)

var (
	ErrInvalidEmail             = errors.New("email address is not valid")
	ErrInvalidName              = fmt.Errorf("name is required, max length: %d", maxNameLength)
	ErrWeakPassword             = errors.New("password must be at least 8 characters")
	ErrEmailAlreadyExists       = errors.New("email already exists")
	ErrInternalError            = errors.New("internal Server Error")
	ErrUserAlreadyVerified      = errors.New("user already verified")
	ErrInvalidVerificationCode  = errors.New("invalid verification code")
	ErrVerificationCodeExpired  = errors.New("verification code expired")
	ErrTooManyEmailCodeRequests = errors.New("too many email code requests")
	ErrInvalidOldPassword       = errors.New("invalid old password")
)

type User struct {
	ID               string    `json:"id"`
	Email            string    `json:"email"`
	Name             string    `json:"name"`
	PasswordHash     string    `json:"-"`
	TwoFactorEnabled bool      `json:"two_factor_enabled"`
	TwoFactorMethod  string    `json:"two_factor_method"`
	HashToken        string    `json:"-"`
	IsActive         bool      `json:"is_active"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type Service interface {
	Register(name, email, password string) (*User, error)
	VerifyRegistrationCode(email, code string) error
	ResendVerificationCode(user *User) error
	GetUserByID(userID string) (*User, error)
	GetUserByEmail(email string) (*User, error)
	ChangePasswordWithOldPassword(userID, oldPassword, newPassword string) error
	ResetPassword(userID, newPassword string) error
	SaveEmailVerificationCode(userID, code string, expiresAt time.Time, codeType string) error
	GetEmailVerificationCode(userID string) (string, string, time.Time, time.Time, error)
	DeleteEmailVerificationCode(userID string) error
}

type service struct {
	repo         Repository
	emailService emailService.EmailSender
}

func NewUserService(repo Repository, emailService emailService.EmailSender) Service {
	return &service{
		repo:         repo,
		emailService: emailService,
	}
}

func hashPassword(password string) (string, error) {
	hashedPasswordBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	return string(hashedPasswordBytes), err
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

func generateHashToken() (string, error) {
	token := make([]byte, 32)
	_, err := rand.Read(token)
	if err != nil {
		return "", fmt.Errorf("could not generate hash token: %v", err)
	}
	return hex.EncodeToString(token), nil
}

func validateEmailAddress(email string) error {
	if err := checkmail.ValidateFormat(email); err != nil {
		return ErrInvalidEmail
	}
	if err := checkmail.ValidateHost(email); err != nil {
		if !strings.Contains(err.Error(), "timeout") {
			return ErrInvalidEmail
		}
	}
	return nil
}

// Register creates an unverified account and emails a verification code.
func (s *service) Register(name, email, password string) (*User, error) {
	if err := validateEmailAddress(email); err != nil {
		return nil, err
	}
	if name == "" || len(name) > maxNameLength {
		return nil, ErrInvalidName
	}
	if len(password) < 8 {
		return nil, ErrWeakPassword
	}

	existing, err := s.repo.getUserByEmail(email)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, ErrInternalError
	}
	if existing != nil {
		return nil, ErrEmailAlreadyExists
	}

	passwordHash, err := hashPassword(password)
	if err != nil {
		return nil, ErrInternalError
	}
	hashToken, err := generateHashToken()
	if err != nil {
		return nil, ErrInternalError
	}

	newUser := &User{
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		HashToken:    hashToken,
	}
	if err := s.repo.createUser(newUser); err != nil {
		return nil, ErrInternalError
	}

	if err := s.sendVerificationCode(newUser); err != nil {
		return nil, ErrInternalError
	}
	return newUser, nil
}

func (s *service) sendVerificationCode(u *User) error {
	code, err := GenerateVerificationCode()
	if err != nil {
		return err
	}
	expiresAt := time.Now().Add(verificationCodeExpiry).UTC()
	if err := s.repo.saveEmailVerificationCode(u.ID, code, expiresAt, CodeVerifyType); err != nil {
		return err
	}

	s.emailService.QueueEmail(u.Email, emailService.RegistrationConfirmationData{
		UserName: u.Name,
		Code:     code,
	})
	return nil
}

func (s *service) VerifyRegistrationCode(email, code string) error {
	u, err := s.repo.getUserByEmail(email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrUserNotFound
		}
		return ErrInternalError
	}
	if u.IsActive {
		return ErrUserAlreadyVerified
	}

	storedCode, codeType, expiresAt, _, err := s.repo.getEmailVerificationCode(u.ID)
	if err != nil {
		return ErrInvalidVerificationCode
	}
	if codeType != CodeVerifyType || storedCode != code {
		return ErrInvalidVerificationCode
	}
	if time.Now().UTC().After(expiresAt) {
		return ErrVerificationCodeExpired
	}

	if err := s.repo.updateEmailVerified(u.ID, true); err != nil {
		return ErrInternalError
	}
	_ = s.repo.deleteEmailVerificationCode(u.ID)
	return nil
}

func (s *service) ResendVerificationCode(u *User) error {
	_, _, _, createdAt, err := s.repo.getEmailVerificationCode(u.ID)
	if err != nil && !errors.Is(err, ErrNoVerificationCodeGenerated) {
		return ErrInternalError
	}
	if err == nil && time.Now().UTC().Sub(createdAt.UTC()) < codeResendCooldown {
		return ErrTooManyEmailCodeRequests
	}
	if err := s.sendVerificationCode(u); err != nil {
		return ErrInternalError
	}
	return nil
}

func (s *service) ChangePasswordWithOldPassword(userID, oldPassword, newPassword string) error {
	u, err := s.repo.getUserByID(userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrUserNotFound
		}
		return ErrInternalError
	}
	if !doPasswordsMatch(u.PasswordHash, oldPassword) {
		return ErrInvalidOldPassword
	}
	return s.changePassword(userID, newPassword)
}

// changePassword also rotates the hash token so outstanding refresh tokens
// stop working.
func (s *service) changePassword(userID, newPassword string) error {
	if len(newPassword) < 8 {
		return ErrWeakPassword
	}
	newPasswordHash, err := hashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("could not hash password: %v", err)
	}
	newHashToken, err := generateHashToken()
	if err != nil {
		return fmt.Errorf("could not generate hash token: %v", err)
	}
	return s.repo.updateUserPasswordAndHashToken(userID, newPasswordHash, newHashToken)
}

func doPasswordsMatch(hashedPassword, currPassword string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(currPassword))
	return err == nil
}

func (s *service) GetUserByID(userID string) (*User, error) {
	return s.repo.getUserByID(userID)
}

func (s *service) GetUserByEmail(email string) (*User, error) {
	return s.repo.getUserByEmail(email)
}

func (s *service) ResetPassword(userID, newPassword string) error {
	return s.changePassword(userID, newPassword)
}

func (s *service) SaveEmailVerificationCode(userID, code string, expiresAt time.Time, codeType string) error {
	return s.repo.saveEmailVerificationCode(userID, code, expiresAt, codeType)
}

func (s *service) GetEmailVerificationCode(userID string) (string, string, time.Time, time.Time, error) {
	return s.repo.getEmailVerificationCode(userID)
}

func (s *service) DeleteEmailVerificationCode(userID string) error {
	return s.repo.deleteEmailVerificationCode(userID)
}
