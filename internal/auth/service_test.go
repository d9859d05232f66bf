package auth

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"universe/internal/apperr"
	"universe/internal/db/dbtest"
	"universe/internal/logging"
	"universe/internal/model"
	"universe/internal/notify"
	"universe/internal/repository"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []notify.VerifyEmailEvent
}

func (p *recordingPublisher) PublishVerifyEmail(_ context.Context, e notify.VerifyEmailEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func newTestService(t *testing.T) (*Service, *repository.Store, *recordingPublisher) {
	t.Helper()
	pool := dbtest.Open(t)
	if pool == nil {
		return nil, nil, nil
	}
	store := repository.NewStore(pool)
	pub := &recordingPublisher{}
	svc := NewService(store, nil, pub, nil, logging.Discard(), Options{BcryptCost: 4})
	return svc, store, pub
}

func studentInput() RegisterInput {
	email := dbtest.UniqueEmail("s", "stu.yasar.edu.tr")
	return RegisterInput{
		Email:          email,
		Password:       "password123",
		Role:           "student",
		StudentNumber:  dbtest.UniqueSuffix(),
		StudentName:    "Ayse",
		StudentSurname: "Yilmaz",
		DepartmentID:   json.RawMessage(`1`),
	}
}

func wantKind(t *testing.T, err error, kind apperr.Kind, msg string) {
	t.Helper()
	appErr := apperr.From(err)
	if appErr == nil || appErr.Kind != kind || (msg != "" && appErr.Message != msg) {
		t.Fatalf("expected kind %d %q, got %v", kind, msg, err)
	}
}

func TestRegisterLoginLogout(t *testing.T) {
	svc, _, pub := newTestService(t)
	if svc == nil {
		return
	}
	ctx := context.Background()

	in := studentInput()
	res, err := svc.Register(ctx, in)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if res.UserID == 0 || len(res.EmailToken) != 64 {
		t.Fatalf("unexpected register result %+v", res)
	}
	svc.Wait()
	if len(pub.events) != 1 || pub.events[0].Token != res.EmailToken {
		t.Fatalf("expected one verify email event, got %+v", pub.events)
	}

	dup := studentInput()
	dup.Email = in.Email
	_, err = svc.Register(ctx, dup)
	wantKind(t, err, apperr.KindConflict, "Email already registered")

	_, err = svc.Login(ctx, LoginInput{Email: in.Email, Password: "wrong-password"})
	wantKind(t, err, apperr.KindUnauthorized, "Invalid email or password")

	login, err := svc.Login(ctx, LoginInput{Email: in.Email, Password: "password123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if d := time.Until(login.ExpiresAt); d < 6*24*time.Hour || d > 7*24*time.Hour+time.Minute {
		t.Fatalf("expected ~7 day session, got %s", d)
	}

	for i := 0; i < 2; i++ {
		identity, err := svc.ResolveSession(ctx, login.SessionToken)
		if err != nil {
			t.Fatalf("resolve session: %v", err)
		}
		if identity.UserID != res.UserID || identity.Role != model.RoleStudent {
			t.Fatalf("unexpected identity %+v", identity)
		}
	}

	me, err := svc.CurrentUser(ctx, res.UserID)
	if err != nil {
		t.Fatalf("current user: %v", err)
	}
	student, ok := me.Profile.(model.StudentProfile)
	if !ok || student.StudentName != "Ayse" {
		t.Fatalf("unexpected profile %#v", me.Profile)
	}

	if err := svc.Logout(ctx, login.SessionToken); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if err := svc.Logout(ctx, login.SessionToken); err != nil {
		t.Fatalf("second logout should be a no-op: %v", err)
	}
	_, err = svc.ResolveSession(ctx, login.SessionToken)
	wantKind(t, err, apperr.KindUnauthorized, "Unauthorized: Invalid or expired session")
}

func TestVerifyEmail(t *testing.T) {
	svc, _, _ := newTestService(t)
	if svc == nil {
		return
	}
	ctx := context.Background()

	res, err := svc.Register(ctx, studentInput())
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	err = svc.VerifyEmail(ctx, VerifyEmailInput{Token: "does-not-exist"})
	wantKind(t, err, apperr.KindNotFound, "Invalid verification token")

	if err := svc.VerifyEmail(ctx, VerifyEmailInput{Token: res.EmailToken}); err != nil {
		t.Fatalf("verify: %v", err)
	}
	err = svc.VerifyEmail(ctx, VerifyEmailInput{Token: res.EmailToken})
	wantKind(t, err, apperr.KindBadRequest, "Token already used")

	me, err := svc.CurrentUser(ctx, res.UserID)
	if err != nil || !me.IsEmailVerified {
		t.Fatalf("expected verified user, got %+v err=%v", me, err)
	}

	_, err = svc.ResendVerification(ctx, res.UserID)
	wantKind(t, err, apperr.KindBadRequest, "Email already verified")
}

func TestVerifyEmailExpired(t *testing.T) {
	svc, _, _ := newTestService(t)
	if svc == nil {
		return
	}
	ctx := context.Background()

	svc.now = func() time.Time { return time.Now().Add(-48 * time.Hour) }
	res, err := svc.Register(ctx, studentInput())
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	svc.now = time.Now

	err = svc.VerifyEmail(ctx, VerifyEmailInput{Token: res.EmailToken})
	wantKind(t, err, apperr.KindBadRequest, "Token expired")

	fresh, err := svc.ResendVerification(ctx, res.UserID)
	if err != nil {
		t.Fatalf("resend: %v", err)
	}
	if err := svc.VerifyEmail(ctx, VerifyEmailInput{Token: fresh}); err != nil {
		t.Fatalf("verify fresh token: %v", err)
	}
}

func TestVerifyEmailAcceptsTokenAtExpiry(t *testing.T) {
	svc, store, _ := newTestService(t)
	if svc == nil {
		return
	}
	ctx := context.Background()

	res, err := svc.Register(ctx, studentInput())
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	token, err := store.GetEmailToken(ctx, res.EmailToken)
	if err != nil {
		t.Fatalf("load token: %v", err)
	}
	svc.now = func() time.Time { return token.ExpiresAt }
	if err := svc.VerifyEmail(ctx, VerifyEmailInput{Token: res.EmailToken}); err != nil {
		t.Fatalf("expected token to be valid at its expiry instant: %v", err)
	}
}

type blockingPublisher struct {
	release chan struct{}
	done    chan notify.VerifyEmailEvent
}

func (p *blockingPublisher) PublishVerifyEmail(_ context.Context, e notify.VerifyEmailEvent) error {
	<-p.release
	p.done <- e
	return nil
}

func (p *blockingPublisher) Close() error { return nil }

func TestRegisterDoesNotWaitForPublisher(t *testing.T) {
	pool := dbtest.Open(t)
	if pool == nil {
		return
	}
	pub := &blockingPublisher{release: make(chan struct{}), done: make(chan notify.VerifyEmailEvent, 1)}
	svc := NewService(repository.NewStore(pool), nil, pub, nil, logging.Discard(), Options{BcryptCost: 4})

	type outcome struct {
		res RegisterResult
		err error
	}
	registered := make(chan outcome, 1)
	go func() {
		res, err := svc.Register(context.Background(), studentInput())
		registered <- outcome{res, err}
	}()

	var res RegisterResult
	select {
	case o := <-registered:
		if o.err != nil {
			t.Fatalf("register: %v", o.err)
		}
		res = o.res
	case <-time.After(5 * time.Second):
		close(pub.release)
		t.Fatal("register blocked on the publisher")
	}
	close(pub.release)
	select {
	case e := <-pub.done:
		if e.Token != res.EmailToken {
			t.Fatalf("unexpected event %+v", e)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("verify email event was never published")
	}
	svc.Wait()
}

func TestDeactivatedUserLosesAccess(t *testing.T) {
	svc, store, _ := newTestService(t)
	if svc == nil {
		return
	}
	ctx := context.Background()

	in := studentInput()
	res, err := svc.Register(ctx, in)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	login, err := svc.Login(ctx, LoginInput{Email: in.Email, Password: in.Password})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := store.SetUserActive(ctx, res.UserID, false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	_, err = svc.ResolveSession(ctx, login.SessionToken)
	wantKind(t, err, apperr.KindUnauthorized, "")
	_, err = svc.Login(ctx, LoginInput{Email: in.Email, Password: in.Password})
	wantKind(t, err, apperr.KindForbidden, "Account is deactivated")
	_, err = svc.CurrentUser(ctx, res.UserID)
	wantKind(t, err, apperr.KindNotFound, "User not found")
}

func TestExpiredSessionRejectedAndSwept(t *testing.T) {
	svc, _, _ := newTestService(t)
	if svc == nil {
		return
	}
	ctx := context.Background()

	in := studentInput()
	if _, err := svc.Register(ctx, in); err != nil {
		t.Fatalf("register: %v", err)
	}
	svc.opts.SessionTTL = -time.Minute
	login, err := svc.Login(ctx, LoginInput{Email: in.Email, Password: in.Password})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	_, err = svc.ResolveSession(ctx, login.SessionToken)
	wantKind(t, err, apperr.KindUnauthorized, "Unauthorized: Invalid or expired session")

	swept, _, err := svc.CleanupExpired(ctx, 7*24*time.Hour)
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if swept < 1 {
		t.Fatalf("expected at least one swept session, got %d", swept)
	}
}
