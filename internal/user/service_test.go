package user

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"

	emailService "github.com/quickreceipt/quickreceipt/internal/email"
)

type storedCode struct {
	code      string
	codeType  string
	expiresAt time.Time
	createdAt time.Time
}

type mockRepository struct {
	usersByID    map[string]*User
	usersByEmail map[string]*User
	codes        map[string]storedCode
	verified     []string
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		usersByID:    make(map[string]*User),
		usersByEmail: make(map[string]*User),
		codes:        make(map[string]storedCode),
	}
}

func (m *mockRepository) addUser(u *User) {
	m.usersByID[u.ID] = u
	m.usersByEmail[u.Email] = u
}

func (m *mockRepository) createUser(u *User) error {
	u.ID = "user-" + u.Email
	m.addUser(u)
	return nil
}

func (m *mockRepository) getUserByEmail(email string) (*User, error) {
	u, ok := m.usersByEmail[email]
	if !ok {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (m *mockRepository) getUserByID(id string) (*User, error) {
	u, ok := m.usersByID[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (m *mockRepository) saveEmailVerificationCode(userID string, code string, expiresAt time.Time, codeType string) error {
	m.codes[userID] = storedCode{code: code, codeType: codeType, expiresAt: expiresAt, createdAt: time.Now().UTC()}
	return nil
}

func (m *mockRepository) updateEmailVerified(userID string, verified bool) error {
	m.verified = append(m.verified, userID)
	if u, ok := m.usersByID[userID]; ok {
		u.IsActive = verified
	}
	return nil
}

func (m *mockRepository) getEmailVerificationCode(userID string) (string, string, time.Time, time.Time, error) {
	stored, ok := m.codes[userID]
	if !ok {
		return "", "", time.Time{}, time.Time{}, ErrNoVerificationCodeGenerated
	}
	return stored.code, stored.codeType, stored.expiresAt, stored.createdAt, nil
}

func (m *mockRepository) deleteEmailVerificationCode(userID string) error {
	delete(m.codes, userID)
	return nil
}

func (m *mockRepository) updateUserPasswordAndHashToken(userID, newPasswordHash, newHashToken string) error {
	u, ok := m.usersByID[userID]
	if !ok {
		return ErrUserNotFound
	}
	u.PasswordHash = newPasswordHash
	u.HashToken = newHashToken
	return nil
}

type mockEmailSender struct {
	sent []string
}

func (m *mockEmailSender) QueueEmail(to string, data emailService.EmailData) {
	m.sent = append(m.sent, to)
}

func newTestUser(t *testing.T, repo *mockRepository, password string) *User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	assert.NoError(t, err)
	u := &User{
		ID:           "user-1",
		Email:        "ada@example.com",
		Name:         "Ada",
		PasswordHash: string(hash),
		HashToken:    "hash-token-1",
	}
	repo.addUser(u)
	return u
}

func TestRegister_RejectsMalformedEmail(t *testing.T) {
	service := NewUserService(newMockRepository(), &mockEmailSender{})

	_, err := service.Register("Ada", "not-an-email", "longenough")
	assert.ErrorIs(t, err, ErrInvalidEmail)
}

func TestVerifyRegistrationCode(t *testing.T) {
	repo := newMockRepository()
	emails := &mockEmailSender{}
	service := NewUserService(repo, emails)
	u := newTestUser(t, repo, "longenough")
	repo.codes[u.ID] = storedCode{
		code:      "123456",
		codeType:  CodeVerifyType,
		expiresAt: time.Now().Add(10 * time.Minute).UTC(),
		createdAt: time.Now().UTC(),
	}

	err := service.VerifyRegistrationCode(u.Email, "654321")
	assert.ErrorIs(t, err, ErrInvalidVerificationCode)

	err = service.VerifyRegistrationCode(u.Email, "123456")
	assert.NoError(t, err)
	assert.True(t, u.IsActive)
	assert.NotContains(t, repo.codes, u.ID)

	err = service.VerifyRegistrationCode(u.Email, "123456")
	assert.ErrorIs(t, err, ErrUserAlreadyVerified)
}

func TestVerifyRegistrationCode_Expired(t *testing.T) {
	repo := newMockRepository()
	service := NewUserService(repo, &mockEmailSender{})
	u := newTestUser(t, repo, "longenough")
	repo.codes[u.ID] = storedCode{
		code:      "123456",
		codeType:  CodeVerifyType,
		expiresAt: time.Now().Add(-time.Minute).UTC(),
		createdAt: time.Now().Add(-11 * time.Minute).UTC(),
	}

	err := service.VerifyRegistrationCode(u.Email, "123456")
	assert.ErrorIs(t, err, ErrVerificationCodeExpired)
}

func TestVerifyRegistrationCode_WrongCodeType(t *testing.T) {
	repo := newMockRepository()
	service := NewUserService(repo, &mockEmailSender{})
	u := newTestUser(t, repo, "longenough")
	repo.codes[u.ID] = storedCode{
		code:      "123456",
		codeType:  "password",
		expiresAt: time.Now().Add(10 * time.Minute).UTC(),
		createdAt: time.Now().UTC(),
	}

	err := service.VerifyRegistrationCode(u.Email, "123456")
	assert.ErrorIs(t, err, ErrInvalidVerificationCode)
}

func TestResendVerificationCode_Cooldown(t *testing.T) {
	repo := newMockRepository()
	emails := &mockEmailSender{}
	service := NewUserService(repo, emails)
	u := newTestUser(t, repo, "longenough")
	repo.codes[u.ID] = storedCode{
		code:      "123456",
		codeType:  CodeVerifyType,
		expiresAt: time.Now().Add(10 * time.Minute).UTC(),
		createdAt: time.Now().UTC(),
	}

	err := service.ResendVerificationCode(u)
	assert.ErrorIs(t, err, ErrTooManyEmailCodeRequests)

	repo.codes[u.ID] = storedCode{
		code:      "123456",
		codeType:  CodeVerifyType,
		expiresAt: time.Now().Add(10 * time.Minute).UTC(),
		createdAt: time.Now().Add(-3 * time.Minute).UTC(),
	}
	err = service.ResendVerificationCode(u)
	assert.NoError(t, err)
	assert.Len(t, emails.sent, 1)
	assert.NotEqual(t, "123456", repo.codes[u.ID].code)
}

func TestChangePasswordWithOldPassword(t *testing.T) {
	repo := newMockRepository()
	service := NewUserService(repo, &mockEmailSender{})
	u := newTestUser(t, repo, "old-password")

	err := service.ChangePasswordWithOldPassword(u.ID, "wrong-password", "new-password")
	assert.ErrorIs(t, err, ErrInvalidOldPassword)

	err = service.ChangePasswordWithOldPassword(u.ID, "old-password", "short")
	assert.ErrorIs(t, err, ErrWeakPassword)

	oldHashToken := u.HashToken
	err = service.ChangePasswordWithOldPassword(u.ID, "old-password", "new-password")
	assert.NoError(t, err)
	assert.NotEqual(t, oldHashToken, u.HashToken)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("new-password")))
}

func TestGenerateVerificationCode(t *testing.T) {
	code, err := GenerateVerificationCode()
	assert.NoError(t, err)
	assert.Len(t, code, 6)
	for _, r := range code {
		assert.True(t, r >= '0' && r <= '9')
	}
}
