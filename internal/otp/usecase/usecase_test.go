package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	libJWT "github.com/golang-jwt/jwt/v5"
	"github.com/nikstrim/otpgate/internal/otp/entity"
	"github.com/nikstrim/otpgate/internal/pkg/goerror"
	"github.com/nikstrim/otpgate/internal/pkg/instrument"
	"github.com/nikstrim/otpgate/internal/pkg/jwt"
	pkgotp "github.com/nikstrim/otpgate/internal/pkg/otp"
	"github.com/nikstrim/otpgate/internal/pkg/ratelimit"
	"github.com/nikstrim/otpgate/internal/pkg/router"
)

type fakeRepo struct {
	codes       []*entity.Code
	cfg         *entity.Config
	consumeHits int
}

func (f *fakeRepo) config() entity.Config {
	if f.cfg == nil {
		cp := entity.DefaultConfig
		f.cfg = &cp
	}
	return *f.cfg
}

func (f *fakeRepo) IssueCode(_ context.Context, ownerID int64, build func(cfg entity.Config) (entity.Code, error)) (*entity.Code, error) {
	for _, c := range f.codes {
		if c.OwnerID == ownerID && c.Status == entity.StatusActive {
			c.Status = entity.StatusExpired
		}
	}

	code, err := build(f.config())
	if err != nil {
		return nil, err
	}

	f.codes = append(f.codes, &code)
	return &code, nil
}

func (f *fakeRepo) ConsumeCode(_ context.Context, ownerID int64, code string, now time.Time) (entity.VerifyResult, string, error) {
	f.consumeHits++

	for _, c := range f.codes {
		if c.OwnerID != ownerID || c.Code != code || c.Status != entity.StatusActive {
			continue
		}
		if now.After(c.ExpiresAt) {
			c.Status = entity.StatusExpired
			return entity.VerifyExpired, c.OperationID, nil
		}
		c.Status = entity.StatusUsed
		return entity.VerifyOK, c.OperationID, nil
	}

	return entity.VerifyNotFound, "", nil
}

func (f *fakeRepo) SweepExpired(_ context.Context, now time.Time) (int64, error) {
	var n int64
	for _, c := range f.codes {
		if c.Status == entity.StatusActive && now.After(c.ExpiresAt) {
			c.Status = entity.StatusExpired
			n++
		}
	}
	return n, nil
}

func (f *fakeRepo) ListCodesByOwner(_ context.Context, ownerID int64) ([]entity.Record, error) {
	records := make([]entity.Record, 0)
	for _, c := range f.codes {
		if c.OwnerID == ownerID {
			records = append(records, entity.Record{Code: *c, Username: fmt.Sprintf("user-%d", ownerID)})
		}
	}
	return records, nil
}

func (f *fakeRepo) ListAllCodes(_ context.Context) ([]entity.Record, error) {
	records := make([]entity.Record, 0)
	for _, c := range f.codes {
		records = append(records, entity.Record{Code: *c, Username: fmt.Sprintf("user-%d", c.OwnerID)})
	}
	return records, nil
}

func (f *fakeRepo) GetConfig(context.Context) (entity.Config, error) {
	return f.config(), nil
}

func (f *fakeRepo) UpdateConfig(_ context.Context, cfg entity.Config) error {
	f.cfg = &cfg
	return nil
}

func (f *fakeRepo) active(ownerID int64) *entity.Code {
	for _, c := range f.codes {
		if c.OwnerID == ownerID && c.Status == entity.StatusActive {
			return c
		}
	}
	return nil
}

type fakeMQ struct{ events []entity.Event }

func (f *fakeMQ) PublishIssued(_ context.Context, ev entity.Event) error {
	ev.Action = entity.ActionIssued
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeMQ) PublishVerified(_ context.Context, ev entity.Event) error {
	ev.Action = entity.ActionVerified
	f.events = append(f.events, ev)
	return nil
}

type fakeDeliver struct {
	sent []string
	err  error
}

func (f *fakeDeliver) Deliver(_ context.Context, ch entity.Channel, destination, code string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, fmt.Sprintf("%s|%s|%s", ch, destination, code))
	return nil
}

type fakeDirectory struct{ principals map[string]router.Principal }

func (f *fakeDirectory) ResolvePrincipal(_ context.Context, username string) (router.Principal, error) {
	p, ok := f.principals[username]
	if !ok {
		return router.Principal{}, goerror.ErrNotFound
	}
	return p, nil
}

type fakeLimiter struct {
	counts map[string]int
	max    int
}

func newFakeLimiter(max int) *fakeLimiter {
	return &fakeLimiter{counts: make(map[string]int), max: max}
}

func (f *fakeLimiter) Allow(_ context.Context, key string) error {
	if f.counts[key] >= f.max {
		return ratelimit.ErrTooManyAttempts
	}
	return nil
}

func (f *fakeLimiter) Fail(_ context.Context, key string, _ time.Duration) error {
	f.counts[key]++
	return nil
}

func (f *fakeLimiter) Reset(_ context.Context, key string) error {
	delete(f.counts, key)
	return nil
}

type fakeClock struct{ now time.Time }

func (f *fakeClock) Now() time.Time { return f.now }

type fakeUID struct{ next int64 }

func (f *fakeUID) Generate() int64 {
	f.next++
	return f.next
}

type fakeUUID struct{ next int }

func (f *fakeUUID) Generate() string {
	f.next++
	return fmt.Sprintf("op-%d", f.next)
}

type passValidator struct{}

func (passValidator) Validate(any) error { return nil }

type fixture struct {
	uc      *Usecase
	repo    *fakeRepo
	mq      *fakeMQ
	deliver *fakeDeliver
	limiter *fakeLimiter
	dir     *fakeDirectory
	clock   *fakeClock
}

func newFixture() *fixture {
	repo := &fakeRepo{}
	mq := &fakeMQ{}
	del := &fakeDeliver{}
	limiter := newFakeLimiter(5)
	dir := &fakeDirectory{principals: map[string]router.Principal{
		"root": {ID: 99, Username: "root", Roles: []string{"ROLE_ADMIN"}, Enabled: true},
		"bob":  {ID: 7, Username: "bob", Roles: []string{"ROLE_USER"}, Enabled: true},
	}}
	clk := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}

	uc := NewOTP(Dependency{
		RepoDB:     repo,
		RepoMQ:     mq,
		Deliver:    del,
		Directory:  dir,
		Limiter:    limiter,
		Codegen:    pkgotp.NewNumeric(),
		UID:        &fakeUID{},
		UUID:       &fakeUUID{},
		Clock:      clk,
		Validator:  passValidator{},
		Instrument: instrument.NewNoop(),
	})

	return &fixture{uc: uc, repo: repo, mq: mq, deliver: del, limiter: limiter, dir: dir, clock: clk}
}

func authCtx(t *testing.T, userID int64, username string, roles ...string) context.Context {
	t.Helper()

	return jwt.SetAuth(t.Context(), jwt.Claims{
		RegisteredClaims: libJWT.RegisteredClaims{Subject: username},
		UserID:           userID,
		Username:         username,
		Roles:            roles,
	})
}

func mustIssue(t *testing.T, fx *fixture, ctx context.Context, in IssueInput) *IssueOutput {
	t.Helper()

	out, err := fx.uc.Issue(ctx, in)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return out
}

func TestIssue(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		fx := newFixture()
		ctx := authCtx(t, 7, "bob", "ROLE_USER")

		out := mustIssue(t, fx, ctx, IssueInput{Channel: entity.ChannelEmail, Destination: "bob@example.com"})

		if out.OperationID == "" || out.Code != "" {
			t.Fatalf("unexpected output: %+v", out)
		}
		active := fx.repo.active(7)
		if active == nil {
			t.Fatal("expected an active code")
		}
		if len(active.Code) != 6 {
			t.Fatalf("expected 6-digit code, got %q", active.Code)
		}
		if len(fx.deliver.sent) != 1 || !strings.Contains(fx.deliver.sent[0], "bob@example.com") {
			t.Fatalf("unexpected deliveries: %v", fx.deliver.sent)
		}
		if len(fx.mq.events) != 1 || fx.mq.events[0].Action != entity.ActionIssued {
			t.Fatalf("unexpected events: %+v", fx.mq.events)
		}
	})

	t.Run("ReissueExpiresPrevious", func(t *testing.T) {
		fx := newFixture()
		ctx := authCtx(t, 7, "bob", "ROLE_USER")

		mustIssue(t, fx, ctx, IssueInput{Channel: entity.ChannelEmail, Destination: "bob@example.com"})
		first := fx.repo.codes[0]
		mustIssue(t, fx, ctx, IssueInput{Channel: entity.ChannelEmail, Destination: "bob@example.com"})

		if first.Status != entity.StatusExpired {
			t.Fatalf("first code should be expired, got %s", first.Status)
		}
		var actives int
		for _, c := range fx.repo.codes {
			if c.Status == entity.StatusActive {
				actives++
			}
		}
		if actives != 1 {
			t.Fatalf("expected exactly one active code, got %d", actives)
		}
	})

	t.Run("GenerateOnlySkipsDelivery", func(t *testing.T) {
		fx := newFixture()
		ctx := authCtx(t, 7, "bob", "ROLE_USER")

		out := mustIssue(t, fx, ctx, IssueInput{Channel: entity.ChannelTelegram, GenerateOnly: true})

		if out.Code == "" {
			t.Fatal("expected the code in generate-only output")
		}
		if len(fx.deliver.sent) != 0 {
			t.Fatalf("expected no deliveries, got %v", fx.deliver.sent)
		}
	})

	t.Run("DeliveryFailureKeepsCodeActive", func(t *testing.T) {
		fx := newFixture()
		fx.deliver.err = errors.New("gateway down")
		ctx := authCtx(t, 7, "bob", "ROLE_USER")

		_, err := fx.uc.Issue(ctx, IssueInput{Channel: entity.ChannelSMS, Destination: "+123"})

		var gerr *goerror.Error
		if !errors.As(err, &gerr) || gerr.Code() != goerror.CodeUnavailable {
			t.Fatalf("expected unavailable error, got %v", err)
		}
		if fx.repo.active(7) == nil {
			t.Fatal("code should stay active after delivery failure")
		}
	})

	t.Run("MissingDestinationRejected", func(t *testing.T) {
		for _, ch := range []entity.Channel{entity.ChannelEmail, entity.ChannelSMS} {
			fx := newFixture()
			ctx := authCtx(t, 7, "bob", "ROLE_USER")

			mustIssue(t, fx, ctx, IssueInput{Channel: entity.ChannelEmail, Destination: "bob@example.com"})

			_, err := fx.uc.Issue(ctx, IssueInput{Channel: ch})

			var gerr *goerror.Error
			if !errors.As(err, &gerr) || gerr.Code() != goerror.CodeInvalidInput {
				t.Fatalf("%s: expected invalid input, got %v", ch, err)
			}
			if len(fx.repo.codes) != 1 {
				t.Fatalf("%s: no new code may be persisted, got %d", ch, len(fx.repo.codes))
			}
			if fx.repo.active(7) == nil {
				t.Fatalf("%s: existing active code must not be superseded", ch)
			}
		}
	})

	t.Run("ForeignOwnerRejected", func(t *testing.T) {
		fx := newFixture()
		ctx := authCtx(t, 7, "bob", "ROLE_USER")

		_, err := fx.uc.Issue(ctx, IssueInput{OwnerID: 8, Channel: entity.ChannelEmail})

		var gerr *goerror.Error
		if !errors.As(err, &gerr) || gerr.Code() != goerror.CodeForbidden {
			t.Fatalf("expected forbidden, got %v", err)
		}
	})

	t.Run("Unauthenticated", func(t *testing.T) {
		fx := newFixture()

		_, err := fx.uc.Issue(t.Context(), IssueInput{Channel: entity.ChannelEmail})

		var gerr *goerror.Error
		if !errors.As(err, &gerr) || gerr.Code() != goerror.CodeUnauthorized {
			t.Fatalf("expected unauthorized, got %v", err)
		}
	})
}

func TestVerify(t *testing.T) {
	issue := func(t *testing.T, fx *fixture, ctx context.Context) string {
		t.Helper()
		out := mustIssue(t, fx, ctx, IssueInput{Channel: entity.ChannelEmail, GenerateOnly: true})
		return out.Code
	}

	t.Run("Success", func(t *testing.T) {
		fx := newFixture()
		ctx := authCtx(t, 7, "bob", "ROLE_USER")
		code := issue(t, fx, ctx)

		out, err := fx.uc.Verify(ctx, VerifyInput{Code: code})
		if err != nil {
			t.Fatalf("verify: %v", err)
		}
		if out.OperationID == "" {
			t.Fatal("expected operation id")
		}
		if got := fx.repo.codes[0].Status; got != entity.StatusUsed {
			t.Fatalf("expected USED, got %s", got)
		}
		last := fx.mq.events[len(fx.mq.events)-1]
		if last.Action != entity.ActionVerified || last.Outcome != entity.OutcomeSuccess {
			t.Fatalf("unexpected event: %+v", last)
		}
	})

	t.Run("WrongCodeGenericFailure", func(t *testing.T) {
		fx := newFixture()
		ctx := authCtx(t, 7, "bob", "ROLE_USER")
		issue(t, fx, ctx)

		_, err := fx.uc.Verify(ctx, VerifyInput{Code: "000000"})
		if err == nil || !strings.Contains(err.Error(), "invalid or expired code") {
			t.Fatalf("expected generic failure, got %v", err)
		}
		if fx.limiter.counts[limiterKey(7)] != 1 {
			t.Fatalf("expected one recorded failure, got %d", fx.limiter.counts[limiterKey(7)])
		}
	})

	t.Run("UsedCodeCannotBeReplayed", func(t *testing.T) {
		fx := newFixture()
		ctx := authCtx(t, 7, "bob", "ROLE_USER")
		code := issue(t, fx, ctx)

		if _, err := fx.uc.Verify(ctx, VerifyInput{Code: code}); err != nil {
			t.Fatalf("first verify: %v", err)
		}
		if _, err := fx.uc.Verify(ctx, VerifyInput{Code: code}); err == nil {
			t.Fatal("replay should fail")
		}
	})

	t.Run("ExpiredCodeTransitions", func(t *testing.T) {
		fx := newFixture()
		ctx := authCtx(t, 7, "bob", "ROLE_USER")
		code := issue(t, fx, ctx)

		fx.clock.now = fx.clock.now.Add(10 * time.Minute)

		_, err := fx.uc.Verify(ctx, VerifyInput{Code: code})
		if err == nil || !strings.Contains(err.Error(), "invalid or expired code") {
			t.Fatalf("expected generic failure, got %v", err)
		}
		if got := fx.repo.codes[0].Status; got != entity.StatusExpired {
			t.Fatalf("expected EXPIRED, got %s", got)
		}
	})

	t.Run("LockoutStopsStoreAccess", func(t *testing.T) {
		fx := newFixture()
		ctx := authCtx(t, 7, "bob", "ROLE_USER")
		issue(t, fx, ctx)

		for range 5 {
			if _, err := fx.uc.Verify(ctx, VerifyInput{Code: "000000"}); err == nil {
				t.Fatal("wrong code should fail")
			}
		}
		before := fx.repo.consumeHits

		if _, err := fx.uc.Verify(ctx, VerifyInput{Code: "000000"}); err == nil {
			t.Fatal("locked out verify should fail")
		}
		if fx.repo.consumeHits != before {
			t.Fatal("locked out verify must not touch the store")
		}
	})

	t.Run("SuccessResetsCounter", func(t *testing.T) {
		fx := newFixture()
		ctx := authCtx(t, 7, "bob", "ROLE_USER")
		code := issue(t, fx, ctx)

		if _, err := fx.uc.Verify(ctx, VerifyInput{Code: "000000"}); err == nil {
			t.Fatal("wrong code should fail")
		}
		if _, err := fx.uc.Verify(ctx, VerifyInput{Code: code}); err != nil {
			t.Fatalf("verify: %v", err)
		}
		if _, ok := fx.limiter.counts[limiterKey(7)]; ok {
			t.Fatal("counter should be reset after success")
		}
	})
}

func TestValidate(t *testing.T) {
	t.Run("AdminConsumesForAnotherUser", func(t *testing.T) {
		fx := newFixture()
		bobCtx := authCtx(t, 7, "bob", "ROLE_USER")
		out := mustIssue(t, fx, bobCtx, IssueInput{Channel: entity.ChannelEmail, GenerateOnly: true})

		adminCtx := authCtx(t, 99, "root", "ROLE_ADMIN")
		res, err := fx.uc.Validate(adminCtx, ValidateInput{Username: "bob", Code: out.Code})
		if err != nil {
			t.Fatalf("validate: %v", err)
		}
		if res.OperationID != out.OperationID {
			t.Fatalf("operation id mismatch: %s vs %s", res.OperationID, out.OperationID)
		}
		if got := fx.repo.codes[0].Status; got != entity.StatusUsed {
			t.Fatalf("expected USED, got %s", got)
		}
	})

	t.Run("NonAdminForbidden", func(t *testing.T) {
		fx := newFixture()
		ctx := authCtx(t, 7, "bob", "ROLE_USER")

		_, err := fx.uc.Validate(ctx, ValidateInput{Username: "bob", Code: "123456"})

		var gerr *goerror.Error
		if !errors.As(err, &gerr) || gerr.Code() != goerror.CodeForbidden {
			t.Fatalf("expected forbidden, got %v", err)
		}
	})

	t.Run("UnknownAccount", func(t *testing.T) {
		fx := newFixture()
		ctx := authCtx(t, 99, "root", "ROLE_ADMIN")

		_, err := fx.uc.Validate(ctx, ValidateInput{Username: "ghost", Code: "123456"})

		var gerr *goerror.Error
		if !errors.As(err, &gerr) || gerr.Code() != goerror.CodeNotFound {
			t.Fatalf("expected not found, got %v", err)
		}
	})
}

func TestSweep(t *testing.T) {
	fx := newFixture()
	ctx := authCtx(t, 7, "bob", "ROLE_USER")
	mustIssue(t, fx, ctx, IssueInput{Channel: entity.ChannelEmail, GenerateOnly: true})

	fx.clock.now = fx.clock.now.Add(10 * time.Minute)

	count, err := fx.uc.Sweep(t.Context())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 swept code, got %d", count)
	}

	count, err = fx.uc.Sweep(t.Context())
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if count != 0 {
		t.Fatalf("sweep must be idempotent, got %d", count)
	}
}

func TestConfig(t *testing.T) {
	t.Run("DefaultsOnFirstRead", func(t *testing.T) {
		fx := newFixture()
		ctx := authCtx(t, 99, "root", "ROLE_ADMIN")

		out, err := fx.uc.ConfigGet(ctx)
		if err != nil {
			t.Fatalf("config get: %v", err)
		}
		if out.CodeLength != 6 || out.LifetimeMinutes != 5 {
			t.Fatalf("unexpected defaults: %+v", out)
		}
	})

	t.Run("UpdateAffectsNewCodes", func(t *testing.T) {
		fx := newFixture()
		ctx := authCtx(t, 99, "root", "ROLE_ADMIN")

		if _, err := fx.uc.ConfigUpdate(ctx, ConfigInput{CodeLength: 8, LifetimeMinutes: 10}); err != nil {
			t.Fatalf("config update: %v", err)
		}

		bobCtx := authCtx(t, 7, "bob", "ROLE_USER")
		out := mustIssue(t, fx, bobCtx, IssueInput{Channel: entity.ChannelEmail, GenerateOnly: true})
		if len(out.Code) != 8 {
			t.Fatalf("expected 8-digit code, got %q", out.Code)
		}
	})

	t.Run("NonAdminForbidden", func(t *testing.T) {
		fx := newFixture()
		ctx := authCtx(t, 7, "bob", "ROLE_USER")

		_, err := fx.uc.ConfigGet(ctx)

		var gerr *goerror.Error
		if !errors.As(err, &gerr) || gerr.Code() != goerror.CodeForbidden {
			t.Fatalf("expected forbidden, got %v", err)
		}
	})
}

func TestExportCSV(t *testing.T) {
	t.Run("OwnHistory", func(t *testing.T) {
		fx := newFixture()
		ctx := authCtx(t, 7, "bob", "ROLE_USER")
		out := mustIssue(t, fx, ctx, IssueInput{Channel: entity.ChannelEmail, GenerateOnly: true})

		var buf bytes.Buffer
		if err := fx.uc.ExportCSV(ctx, &buf); err != nil {
			t.Fatalf("export: %v", err)
		}

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		if len(lines) != 2 {
			t.Fatalf("expected header plus one row, got %d lines", len(lines))
		}
		if lines[0] != strings.Join(csvHeader, ",") {
			t.Fatalf("unexpected header: %s", lines[0])
		}
		if !strings.Contains(lines[1], out.Code) || !strings.Contains(lines[1], "ACTIVE") {
			t.Fatalf("unexpected row: %s", lines[1])
		}
	})

	t.Run("AllRequiresAdmin", func(t *testing.T) {
		fx := newFixture()
		ctx := authCtx(t, 7, "bob", "ROLE_USER")

		err := fx.uc.ExportAllCSV(ctx, &bytes.Buffer{})

		var gerr *goerror.Error
		if !errors.As(err, &gerr) || gerr.Code() != goerror.CodeForbidden {
			t.Fatalf("expected forbidden, got %v", err)
		}
	})

	t.Run("PerUserByAdmin", func(t *testing.T) {
		fx := newFixture()
		bobCtx := authCtx(t, 7, "bob", "ROLE_USER")
		mustIssue(t, fx, bobCtx, IssueInput{Channel: entity.ChannelEmail, GenerateOnly: true})

		var buf bytes.Buffer
		adminCtx := authCtx(t, 99, "root", "ROLE_ADMIN")
		if err := fx.uc.ExportUserCSV(adminCtx, "bob", &buf); err != nil {
			t.Fatalf("export: %v", err)
		}
		if !strings.Contains(buf.String(), "user-7") {
			t.Fatalf("expected bob's rows, got %s", buf.String())
		}
	})
}

