package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"refund-service/internal/auth"
	"refund-service/internal/config"
	"refund-service/internal/kv"
	"refund-service/internal/models"
	"refund-service/internal/repositories"
)

const testUserTable = `
users:
  - username: admin01
    password: "1111"
    role: COMMANDER
    name: 커멘더
  - username: a0001
    password: "1234"
    role: BRANCH
    name: 울산 성능장
    branchName: 울산
    mustChangePassword: true
`

type authFixture struct {
	svc   *AuthService
	store *kv.MemoryStore
	users repositories.UserRepository
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	table, err := auth.ParseUserTable([]byte(testUserTable))
	if err != nil {
		t.Fatal(err)
	}
	store := kv.NewMemoryStore()
	users := repositories.NewUserRepository(store)
	svc := NewAuthService(table, users, repositories.NewSessionRepository(store), config.SessionConfig{
		TTL:           7 * 24 * time.Hour,
		RememberMeTTL: 30 * 24 * time.Hour,
	}, testLogger())
	return &authFixture{svc: svc, store: store, users: users}
}

func TestAuthService_GivenFirstLoginWhenPasswordMatchesTableThenCredentialHashed(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	session, err := f.svc.Login(ctx, " a-0001 ", "1234", false)
	if err != nil {
		t.Fatal(err)
	}
	if session.User.Username != "a0001" || session.User.BranchName != "울산" || !session.User.MustChangePassword {
		t.Errorf("user = %+v", session.User)
	}
	if session.TTL != 7*24*time.Hour {
		t.Errorf("TTL = %v", session.TTL)
	}

	cred, err := f.users.GetCredential(ctx, "a0001")
	if err != nil {
		t.Fatal(err)
	}
	if !auth.IsHashed(cred.Password) || !auth.VerifyPassword("1234", cred.Password) {
		t.Errorf("stored password not hashed: %q", cred.Password)
	}

	user, err := f.svc.Authenticate(ctx, session.ID)
	if err != nil {
		t.Fatal(err)
	}
	if user.Role != models.RoleBranch {
		t.Errorf("Authenticate user = %+v", user)
	}
}

func TestAuthService_GivenBadCredentialsWhenLoggingInThenUnauthorized(t *testing.T) {
	f := newAuthFixture(t)

	tests := []struct {
		name, username, password string
		want                     error
	}{
		{"unknown user", "nobody", "1234", ErrUnauthorized},
		{"wrong password", "admin01", "9999", ErrUnauthorized},
		{"missing password", "admin01", "", ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.svc.Login(context.Background(), tt.username, tt.password, false); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestAuthService_GivenLegacyPlaintextCredentialWhenLoggingInThenUpgraded(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	if err := f.users.SaveCredential(ctx, "admin01", &models.StoredCredential{Password: "legacy", Role: models.RoleStaff, Name: "old"}); err != nil {
		t.Fatal(err)
	}

	if _, err := f.svc.Login(ctx, "admin01", "1111", false); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("table password against stored credential err = %v, want ErrUnauthorized", err)
	}

	session, err := f.svc.Login(ctx, "admin01", "legacy", true)
	if err != nil {
		t.Fatal(err)
	}
	if session.User.Role != models.RoleCommander || session.User.Name != "커멘더" {
		t.Errorf("role and name not refreshed from table: %+v", session.User)
	}
	if session.TTL != 30*24*time.Hour {
		t.Errorf("remember-me TTL = %v", session.TTL)
	}

	cred, err := f.users.GetCredential(ctx, "admin01")
	if err != nil {
		t.Fatal(err)
	}
	if !auth.IsHashed(cred.Password) || !auth.VerifyPassword("legacy", cred.Password) {
		t.Errorf("legacy password not upgraded: %q", cred.Password)
	}
}

func TestAuthService_GivenSessionWhenLoggingOutThenExpired(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	session, err := f.svc.Login(ctx, "admin01", "1111", false)
	if err != nil {
		t.Fatal(err)
	}

	me, err := f.svc.Me(ctx, session.ID)
	if err != nil {
		t.Fatal(err)
	}
	if me.TTL <= 0 || me.TTL > 7*24*time.Hour {
		t.Errorf("remaining TTL = %v", me.TTL)
	}

	if err := f.svc.Logout(ctx, session.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Authenticate(ctx, session.ID); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("Authenticate after Logout err = %v, want ErrUnauthorized", err)
	}
	if _, err := f.svc.Authenticate(ctx, ""); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("Authenticate without cookie err = %v, want ErrUnauthorized", err)
	}
	if err := f.svc.Logout(ctx, ""); err != nil {
		t.Errorf("Logout without cookie: %v", err)
	}
}

func TestAuthService_GivenSessionTTLElapsedWhenAuthenticatingThenExpired(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	start := time.Now()
	f.store.SetClock(func() time.Time { return start })

	session, err := f.svc.Login(ctx, "admin01", "1111", false)
	if err != nil {
		t.Fatal(err)
	}
	f.store.SetClock(func() time.Time { return start.Add(7*24*time.Hour + time.Second) })

	var svcErr *Error
	_, err = f.svc.Authenticate(ctx, session.ID)
	if !errors.As(err, &svcErr) || svcErr.Message != "session expired" {
		t.Errorf("err = %v, want session expired", err)
	}
}

func TestAuthService_GivenForcedChangeWhenChangingPasswordThenFlagCleared(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	session, err := f.svc.Login(ctx, "a0001", "1234", false)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name, current, next string
		want                error
	}{
		{"too short", "1234", "123", ErrInvalidInput},
		{"unchanged", "1234", "1234", ErrInvalidInput},
		{"wrong current", "0000", "abcd", ErrUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := f.svc.ChangePassword(ctx, session.ID, session.User, tt.current, tt.next); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}

	if err := f.svc.ChangePassword(ctx, session.ID, session.User, "1234", "new-pass"); err != nil {
		t.Fatal(err)
	}

	user, err := f.svc.Authenticate(ctx, session.ID)
	if err != nil {
		t.Fatal(err)
	}
	if user.MustChangePassword {
		t.Errorf("session still requires a password change")
	}
	if _, err := f.svc.Login(ctx, "a0001", "1234", false); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("old password err = %v, want ErrUnauthorized", err)
	}
	again, err := f.svc.Login(ctx, "a0001", "new-pass", false)
	if err != nil {
		t.Fatal(err)
	}
	if again.User.MustChangePassword {
		t.Errorf("new login still requires a password change")
	}
}
