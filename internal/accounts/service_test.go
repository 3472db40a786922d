package accounts

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/videoportal/backend/internal/auth"
	"github.com/videoportal/backend/internal/models"
	"github.com/videoportal/backend/internal/repositories"
)

type notifierStub struct {
	mu     sync.Mutex
	emails []string
	err    error
}

func (n *notifierStub) NotifyApproved(_ context.Context, email string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.emails = append(n.emails, email)
	return n.err
}

type fixture struct {
	service  *Service
	store    *repositories.MemoryStore
	tokens   *auth.TokenService
	notifier *notifierStub
	gate     *auth.Gate
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := repositories.NewMemoryStore()
	tokens := auth.NewTokenService("test-secret", time.Hour)
	notifier := &notifierStub{}
	base := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	service := &Service{
		Users:    store.Users,
		Hasher:   auth.NewHasher(bcrypt.MinCost),
		Tokens:   tokens,
		Notifier: notifier,
		NowFunc: func() time.Time {
			tick++
			return base.Add(time.Duration(tick) * time.Minute)
		},
	}
	return fixture{
		service:  service,
		store:    store,
		tokens:   tokens,
		notifier: notifier,
		gate:     auth.NewGate(store.Users, tokens),
	}
}

func (f fixture) mustRegister(t *testing.T, email string) models.User {
	t.Helper()
	user, err := f.service.Register(context.Background(), email, "password123", "")
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return user
}

func (f fixture) mustAdmin(t *testing.T, email string) models.Identity {
	t.Helper()
	admin, _, err := f.service.EnsureAdmin(context.Background(), email, "password123")
	if err != nil {
		t.Fatalf("ensure admin: %v", err)
	}
	return models.IdentityFor(admin)
}

func TestRegisterCreatesPendingUser(t *testing.T) {
	f := newFixture(t)

	user, err := f.service.Register(context.Background(), "  New@Example.com ", "password123", "+1 555 0100")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Email != "new@example.com" {
		t.Fatalf("expected normalized email, got %q", user.Email)
	}
	if user.IsAdmin || user.IsApproved {
		t.Fatalf("expected pending user, got %+v", user)
	}
	if user.PasswordHash == "password123" || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("password123")) != nil {
		t.Fatal("expected stored password to be a bcrypt hash")
	}
	if user.PhoneNumber != "+1 555 0100" {
		t.Fatalf("unexpected phone number %q", user.PhoneNumber)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	f.mustRegister(t, "dup@example.com")

	for _, email := range []string{"dup@example.com", "DUP@example.com", " dup@example.com"} {
		if _, err := f.service.Register(context.Background(), email, "password456", ""); !errors.Is(err, ErrEmailAlreadyRegistered) {
			t.Fatalf("expected ErrEmailAlreadyRegistered for %q, got %v", email, err)
		}
	}
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t)

	cases := []struct{ email, password string }{
		{"", "password123"},
		{"a@x.com", ""},
		{"not-an-email", "password123"},
		{"Name <a@x.com>", "password123"},
		{"a@x.com", "short"},
		{"long@example.com", strings.Repeat("a", 80)},
	}
	for _, tc := range cases {
		if _, err := f.service.Register(context.Background(), tc.email, tc.password, ""); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput for %+v, got %v", tc, err)
		}
	}
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	user := f.mustRegister(t, "login@example.com")

	token, loggedIn, err := f.service.Login(context.Background(), "LOGIN@example.com", "password123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if loggedIn.ID != user.ID || token.Subject != user.ID {
		t.Fatalf("unexpected login result: %+v %+v", token, loggedIn)
	}
	subject, err := f.tokens.Validate(token.Token)
	if err != nil || subject != user.ID {
		t.Fatalf("expected token to validate to %s, got %q, %v", user.ID, subject, err)
	}

	_, _, wrongPassword := f.service.Login(context.Background(), "login@example.com", "password124")
	_, _, unknownEmail := f.service.Login(context.Background(), "nobody@example.com", "password123")
	if !errors.Is(wrongPassword, ErrInvalidCredentials) || !errors.Is(unknownEmail, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v and %v", wrongPassword, unknownEmail)
	}
	if wrongPassword.Error() != unknownEmail.Error() {
		t.Fatalf("wrong password and unknown email must be indistinguishable: %q vs %q", wrongPassword, unknownEmail)
	}
}

type countingHasher struct {
	PasswordHasher
	verifies int
}

func (h *countingHasher) Verify(password, hash string) bool {
	h.verifies++
	return h.PasswordHasher.Verify(password, hash)
}

func TestLoginUnknownEmailRunsPasswordCompare(t *testing.T) {
	f := newFixture(t)
	hasher := &countingHasher{PasswordHasher: auth.NewHasher(bcrypt.MinCost)}
	f.service.Hasher = hasher
	f.mustRegister(t, "known@example.com")

	for i := 0; i < 2; i++ {
		if _, _, err := f.service.Login(context.Background(), "nobody@example.com", "password123"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	}
	if hasher.verifies != 2 {
		t.Fatalf("expected a compare per unknown-email login, got %d", hasher.verifies)
	}
	if f.service.unknownUserHash() == "" {
		t.Fatal("expected placeholder hash to be computed")
	}
}

func TestUserListings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	admin := f.mustAdmin(t, "admin@example.com")
	pending := f.mustRegister(t, "pending@example.com")
	approved := f.mustRegister(t, "approved@example.com")
	if err := f.service.Approve(ctx, approved.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}

	list, err := f.service.ListPending(ctx)
	if err != nil || len(list) != 1 || list[0].ID != pending.ID {
		t.Fatalf("unexpected pending list: %+v, %v", list, err)
	}
	list, err = f.service.ListApproved(ctx)
	if err != nil || len(list) != 1 || list[0].ID != approved.ID {
		t.Fatalf("unexpected approved list: %+v, %v", list, err)
	}
	list, err = f.service.ListAdmins(ctx)
	if err != nil || len(list) != 1 || list[0].ID != admin.ID {
		t.Fatalf("unexpected admin list: %+v, %v", list, err)
	}
}

func TestApproveIsIdempotentAndNotifies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.mustRegister(t, "viewer@example.com")

	if err := f.service.Approve(ctx, user.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := f.service.Approve(ctx, user.ID); err != nil {
		t.Fatalf("second approve should succeed: %v", err)
	}

	stored, err := f.store.Users.FindByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if !stored.IsApproved || stored.IsAdmin {
		t.Fatalf("unexpected state after approval: %+v", stored)
	}
	if len(f.notifier.emails) != 2 || f.notifier.emails[0] != "viewer@example.com" {
		t.Fatalf("expected approval notifications, got %v", f.notifier.emails)
	}

	if err := f.service.Approve(ctx, "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestApproveSucceedsWhenNotifierFails(t *testing.T) {
	f := newFixture(t)
	f.notifier.err = errors.New("queue full")
	user := f.mustRegister(t, "viewer@example.com")

	if err := f.service.Approve(context.Background(), user.ID); err != nil {
		t.Fatalf("approval must not fail on notification errors: %v", err)
	}
}

func TestToggleAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	admin := f.mustAdmin(t, "admin@example.com")
	other := f.mustAdmin(t, "other@example.com")
	viewer := f.mustRegister(t, "viewer@example.com")

	if _, err := f.service.ToggleAdmin(ctx, admin, admin.ID); !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("expected self toggle to be forbidden, got %v", err)
	}

	demoted, err := f.service.ToggleAdmin(ctx, admin, other.ID)
	if err != nil {
		t.Fatalf("toggle other admin: %v", err)
	}
	if demoted.IsAdmin {
		t.Fatal("expected other admin to be demoted")
	}

	promoted, err := f.service.ToggleAdmin(ctx, admin, viewer.ID)
	if err != nil {
		t.Fatalf("promote viewer: %v", err)
	}
	if !promoted.IsAdmin || promoted.IsApproved {
		t.Fatalf("expected admin flag only, got %+v", promoted)
	}

	if _, err := f.service.ToggleAdmin(ctx, models.IdentityFor(viewer), other.ID); !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("expected stale non-admin identity to be forbidden, got %v", err)
	}
	if _, err := f.service.ToggleAdmin(ctx, admin, "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.mustRegister(t, "me@example.com")

	got, err := f.service.Profile(ctx, user.ID)
	if err != nil || got.Email != "me@example.com" {
		t.Fatalf("unexpected profile: %+v, %v", got, err)
	}

	updated, err := f.service.UpdateProfile(ctx, user.ID, " +44 20 7946 0000 ")
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if updated.PhoneNumber != "+44 20 7946 0000" {
		t.Fatalf("unexpected phone number %q", updated.PhoneNumber)
	}

	if _, err := f.service.UpdateProfile(ctx, user.ID, "0123456789012345678901234567890123"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for long phone, got %v", err)
	}
	if _, err := f.service.Profile(ctx, "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestEnsureAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	admin, created, err := f.service.EnsureAdmin(ctx, "root@example.com", "password123")
	if err != nil {
		t.Fatalf("ensure admin: %v", err)
	}
	if !created || !admin.IsAdmin || !admin.IsApproved {
		t.Fatalf("expected new approved admin, got %+v (created=%v)", admin, created)
	}

	again, created, err := f.service.EnsureAdmin(ctx, "root@example.com", "password123")
	if err != nil || created || again.ID != admin.ID {
		t.Fatalf("expected existing admin to be reused, got %+v created=%v err=%v", again, created, err)
	}

	viewer := f.mustRegister(t, "viewer@example.com")
	promoted, created, err := f.service.EnsureAdmin(ctx, "viewer@example.com", "ignored-password")
	if err != nil || created || promoted.ID != viewer.ID || !promoted.IsAdmin {
		t.Fatalf("expected existing user to be promoted, got %+v created=%v err=%v", promoted, created, err)
	}
}

func TestRegistrationToApprovalScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.service.Register(ctx, "a@x.com", "pw1-long-enough", ""); err != nil {
		t.Fatalf("register: %v", err)
	}

	token, _, err := f.service.Login(ctx, "a@x.com", "pw1-long-enough")
	if err != nil {
		t.Fatalf("login before approval should succeed: %v", err)
	}

	identity, err := f.gate.ResolveIdentity(ctx, token.Token)
	if err != nil {
		t.Fatalf("resolve identity: %v", err)
	}
	if err := auth.RequireApprovedOrAdmin(identity); !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("expected pending identity to be forbidden, got %v", err)
	}

	if err := f.service.Approve(ctx, identity.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}

	identity, err = f.gate.ResolveIdentity(ctx, token.Token)
	if err != nil {
		t.Fatalf("resolve identity after approval: %v", err)
	}
	if err := auth.RequireApprovedOrAdmin(identity); err != nil {
		t.Fatalf("expected approved identity to pass, got %v", err)
	}
}
