package service

import (
	"context"
	"testing"

	"pizza-shop/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func newTestUserService() (UserService, *mockUserRepository, *mockMailer) {
	userRepo := newMockUserRepository()
	mail := newMockMailer()
	svc := NewUserService(userRepo, mail, "test-secret", 60, zap.NewNop())
	return svc, userRepo, mail
}

func TestProperty_RegistrationHashesPasswordAndStoresTokenHash(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("passwords are bcrypt hashed and users start unverified", prop.ForAll(
		func(email string, password string, name string) bool {
			svc, userRepo, _ := newTestUserService()
			ctx := context.Background()

			user, _, err := svc.Register(ctx, name, email, password)
			if err != nil {
				return true // duplicate email in shrunk cases, skip
			}

			if user.PasswordHash == password {
				t.Logf("FAIL: password stored as plaintext for %s", email)
				return false
			}
			if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
				t.Logf("FAIL: stored hash does not match password: %v", err)
				return false
			}
			if user.IsEmailVerified {
				t.Logf("FAIL: freshly registered user is already verified")
				return false
			}

			stored, err := userRepo.FindByID(ctx, user.ID)
			if err != nil {
				t.Logf("FAIL: could not find stored user: %v", err)
				return false
			}
			// only the SHA-256 hex of the token is ever persisted
			if len(stored.EmailVerificationToken) != 64 {
				t.Logf("FAIL: token hash has unexpected length %d", len(stored.EmailVerificationToken))
				return false
			}
			if stored.EmailVerificationExpire == nil {
				t.Logf("FAIL: token stored without expiry")
				return false
			}

			return true
		},
		gen.RegexMatch(`[a-z]{3,10}@[a-z]{3,8}\.(com|org|net)`),
		gen.RegexMatch(`[A-Za-z0-9!@#$%]{8,20}`),
		gen.RegexMatch(`[A-Z][a-z]{2,15}`),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestRegister_StillSucceedsWhenEmailFails(t *testing.T) {
	svc, userRepo, mail := newTestUserService()
	mail.failSend = true
	ctx := context.Background()

	user, emailSent, err := svc.Register(ctx, "Alice", "alice@example.com", "secret123")
	require.NoError(t, err)
	assert.False(t, emailSent)

	_, err = userRepo.FindByID(ctx, user.ID)
	assert.NoError(t, err, "account must exist even though the email failed")
}

func TestLogin(t *testing.T) {
	svc, _, mail := newTestUserService()
	ctx := context.Background()

	_, _, err := svc.Register(ctx, "Bob", "bob@example.com", "secret123")
	require.NoError(t, err)

	t.Run("unverified user is rejected", func(t *testing.T) {
		_, _, err := svc.Login(ctx, "bob@example.com", "secret123")
		assert.ErrorIs(t, err, ErrEmailNotVerified)
	})

	// verify via the emailed token
	emails := mail.sentOfKind("verification")
	require.Len(t, emails, 1)
	require.NoError(t, svc.VerifyEmail(ctx, emails[0].token))

	t.Run("correct credentials succeed after verification", func(t *testing.T) {
		token, user, err := svc.Login(ctx, "bob@example.com", "secret123")
		require.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.Equal(t, "bob@example.com", user.Email)
	})

	t.Run("wrong password is rejected", func(t *testing.T) {
		_, _, err := svc.Login(ctx, "bob@example.com", "wrong-password")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email is rejected with the same error", func(t *testing.T) {
		_, _, err := svc.Login(ctx, "nobody@example.com", "secret123")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestLogin_TokenCarriesUserIDAndRole(t *testing.T) {
	svc, _, mail := newTestUserService()
	ctx := context.Background()

	registered, _, err := svc.Register(ctx, "Carol", "carol@example.com", "secret123")
	require.NoError(t, err)

	emails := mail.sentOfKind("verification")
	require.Len(t, emails, 1)
	require.NoError(t, svc.VerifyEmail(ctx, emails[0].token))

	tokenString, _, err := svc.Login(ctx, "carol@example.com", "secret123")
	require.NoError(t, err)

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	require.True(t, token.Valid)

	claims, ok := token.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, registered.ID.String(), claims["user_id"])
	assert.Equal(t, "user", claims["role"])
	assert.NotNil(t, claims["exp"])
}

func TestVerifyEmail_TokenIsSingleUse(t *testing.T) {
	svc, _, mail := newTestUserService()
	ctx := context.Background()

	_, _, err := svc.Register(ctx, "Dave", "dave@example.com", "secret123")
	require.NoError(t, err)

	emails := mail.sentOfKind("verification")
	require.Len(t, emails, 1)
	token := emails[0].token

	require.NoError(t, svc.VerifyEmail(ctx, token))

	err = svc.VerifyEmail(ctx, token)
	assert.ErrorIs(t, err, repository.ErrTokenInvalid, "second redemption must fail")
}

func TestVerifyEmail_GarbageTokenRejected(t *testing.T) {
	svc, _, _ := newTestUserService()

	err := svc.VerifyEmail(context.Background(), "not-a-real-token")
	assert.ErrorIs(t, err, repository.ErrTokenInvalid)
}

func TestForgotPassword_EmailFailureClearsToken(t *testing.T) {
	svc, userRepo, mail := newTestUserService()
	ctx := context.Background()

	user, _, err := svc.Register(ctx, "Erin", "erin@example.com", "secret123")
	require.NoError(t, err)

	mail.failSend = true
	err = svc.ForgotPassword(ctx, "erin@example.com")
	assert.ErrorIs(t, err, ErrEmailSendFailed)

	stored, err := userRepo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.ResetPasswordToken, "no orphaned reset window may remain")
}

func TestResetPassword_RoundTrip(t *testing.T) {
	svc, _, mail := newTestUserService()
	ctx := context.Background()

	_, _, err := svc.Register(ctx, "Frank", "frank@example.com", "old-password")
	require.NoError(t, err)

	verifications := mail.sentOfKind("verification")
	require.Len(t, verifications, 1)
	require.NoError(t, svc.VerifyEmail(ctx, verifications[0].token))

	require.NoError(t, svc.ForgotPassword(ctx, "frank@example.com"))

	resets := mail.sentOfKind("reset")
	require.Len(t, resets, 1)
	require.NoError(t, svc.ResetPassword(ctx, resets[0].token, "new-password"))

	_, _, err = svc.Login(ctx, "frank@example.com", "old-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, "frank@example.com", "new-password")
	assert.NoError(t, err)

	err = svc.ResetPassword(ctx, resets[0].token, "another-password")
	assert.ErrorIs(t, err, repository.ErrTokenInvalid, "reset token must be single-use")
}

func TestChangePassword_RequiresCurrentPassword(t *testing.T) {
	svc, _, _ := newTestUserService()
	ctx := context.Background()

	user, _, err := svc.Register(ctx, "Grace", "grace@example.com", "secret123")
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, user.ID, "wrong", "new-password")
	assert.ErrorIs(t, err, ErrIncorrectPassword)

	assert.NoError(t, svc.ChangePassword(ctx, user.ID, "secret123", "new-password"))
}

func TestCreateAdmin_IsAutoVerified(t *testing.T) {
	svc, _, _ := newTestUserService()
	ctx := context.Background()

	admin, err := svc.CreateAdmin(ctx, "Root", "root@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "admin", admin.Role)
	assert.True(t, admin.IsEmailVerified)

	// admin can log in without a verification step
	_, _, err = svc.Login(ctx, "root@example.com", "secret123")
	assert.NoError(t, err)
}

func TestListUsers_ExcludesAdmins(t *testing.T) {
	svc, _, _ := newTestUserService()
	ctx := context.Background()

	_, _, err := svc.Register(ctx, "Heidi", "heidi@example.com", "secret123")
	require.NoError(t, err)
	_, err = svc.CreateAdmin(ctx, "Root", "root@example.com", "secret123")
	require.NoError(t, err)

	users, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "heidi@example.com", users[0].Email)

	count, err := svc.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
