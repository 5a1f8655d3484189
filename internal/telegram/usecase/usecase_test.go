package usecase

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	libJWT "github.com/golang-jwt/jwt/v5"
	identityEntity "github.com/nikstrim/otpgate/internal/identity/entity"
	otpUsecase "github.com/nikstrim/otpgate/internal/otp/usecase"
	"github.com/nikstrim/otpgate/internal/pkg/config"
	"github.com/nikstrim/otpgate/internal/pkg/goerror"
	"github.com/nikstrim/otpgate/internal/pkg/idempotency"
	"github.com/nikstrim/otpgate/internal/pkg/instrument"
	"github.com/nikstrim/otpgate/internal/pkg/jwt"
	"github.com/nikstrim/otpgate/internal/pkg/kvcache"
	"github.com/nikstrim/otpgate/internal/telegram/entity"
)

type fakeAccounts struct {
	users    map[string]*identityEntity.User
	bindings map[int64]int64 // userID -> chatID
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{
		users:    make(map[string]*identityEntity.User),
		bindings: make(map[int64]int64),
	}
}

func (f *fakeAccounts) add(u identityEntity.User) {
	cp := u
	f.users[u.Username] = &cp
}

func (f *fakeAccounts) FindByUsername(_ context.Context, username string) (*identityEntity.User, error) {
	u, ok := f.users[username]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return u, nil
}

func (f *fakeAccounts) FindByTelegramChatID(_ context.Context, chatID int64) (*identityEntity.User, error) {
	for _, u := range f.users {
		if u.TelegramChatID != nil && *u.TelegramChatID == chatID {
			return u, nil
		}
	}
	return nil, goerror.ErrNotFound
}

func (f *fakeAccounts) BindTelegramChat(_ context.Context, userID, chatID int64) error {
	f.bindings[userID] = chatID
	for _, u := range f.users {
		if u.ID == userID {
			id := chatID
			u.TelegramChatID = &id
		}
	}
	return nil
}

func (f *fakeAccounts) UnbindTelegramChat(_ context.Context, userID int64) error {
	delete(f.bindings, userID)
	for _, u := range f.users {
		if u.ID == userID {
			u.TelegramChatID = nil
		}
	}
	return nil
}

type fakeEngine struct {
	issued   []otpUsecase.IssueInput
	verified []otpUsecase.VerifyInput
	code     string
	badCode  bool
}

func (f *fakeEngine) Issue(ctx context.Context, in otpUsecase.IssueInput) (*otpUsecase.IssueOutput, error) {
	if jwt.GetAuth(ctx) == nil {
		return nil, goerror.NewBusiness("authentication required", goerror.CodeUnauthorized)
	}
	f.issued = append(f.issued, in)
	out := &otpUsecase.IssueOutput{OperationID: "op-1", Channel: in.Channel, ExpiresAt: 1000}
	if in.GenerateOnly {
		out.Code = f.code
	}
	return out, nil
}

func (f *fakeEngine) Verify(ctx context.Context, in otpUsecase.VerifyInput) (*otpUsecase.VerifyOutput, error) {
	if jwt.GetAuth(ctx) == nil {
		return nil, goerror.NewBusiness("authentication required", goerror.CodeUnauthorized)
	}
	f.verified = append(f.verified, in)
	if f.badCode {
		return nil, goerror.NewBusiness("invalid or expired code", goerror.CodeInvalidInput)
	}
	return &otpUsecase.VerifyOutput{OperationID: "op-1"}, nil
}

type fakeBot struct{ messages []string }

func (f *fakeBot) SendMessage(_ context.Context, chatID int64, text string) error {
	f.messages = append(f.messages, fmt.Sprintf("%d|%s", chatID, text))
	return nil
}

func (f *fakeBot) last() string {
	if len(f.messages) == 0 {
		return ""
	}
	return f.messages[len(f.messages)-1]
}

// memIdem is an in-memory stand-in for the Redis state tracker.
type memIdem struct{ done map[string]bool }

func (m *memIdem) Acquire(_ context.Context, key string, _ time.Duration) (idempotency.State, error) {
	if m.done[key] {
		return idempotency.StateCompleted, nil
	}
	return idempotency.StateNone, nil
}

func (m *memIdem) MarkCompleted(_ context.Context, key string, _ time.Duration) error {
	m.done[key] = true
	return nil
}

func (m *memIdem) MarkFailed(_ context.Context, key string, _ time.Duration) error {
	delete(m.done, key)
	return nil
}

func (m *memIdem) Exec(ctx context.Context, key string, fn func(context.Context) error, _ ...idempotency.Option) error {
	if m.done[key] {
		return idempotency.ErrAlreadyCompleted
	}
	if err := fn(ctx); err != nil {
		return err
	}
	m.done[key] = true
	return nil
}

type fakeUUID struct{ next int }

func (f *fakeUUID) Generate() string {
	f.next++
	return fmt.Sprintf("token-%d", f.next)
}

type fakeClock struct{ now time.Time }

func (f *fakeClock) Now() time.Time { return f.now }

type fixture struct {
	uc       *Usecase
	accounts *fakeAccounts
	engine   *fakeEngine
	bot      *fakeBot
	tokens   *kvcache.Cache
}

func newFixture() *fixture {
	accounts := newFakeAccounts()
	accounts.add(identityEntity.User{
		ID: 7, Username: "bob", Enabled: true,
		Roles: []identityEntity.Role{identityEntity.RoleUser},
	})

	engine := &fakeEngine{code: "123456"}
	b := &fakeBot{}
	tokens := kvcache.New(&fakeClock{now: time.Now()})
	cfg, err := config.NewViperFromBytes("yaml", []byte("telegram:\n  link_token:\n    ttl: 10\n"))
	if err != nil {
		panic(err)
	}

	uc := NewTelegram(Dependency{
		Accounts:    accounts,
		Engine:      engine,
		Bot:         b,
		Tokens:      tokens,
		Idempotency: &memIdem{done: make(map[string]bool)},
		Config:      cfg,
		UUID:        &fakeUUID{},
		Instrument:  instrument.NewNoop(),
	})

	return &fixture{uc: uc, accounts: accounts, engine: engine, bot: b, tokens: tokens}
}

func authCtx(t *testing.T, userID int64, username string) context.Context {
	t.Helper()

	return jwt.SetAuth(t.Context(), jwt.Claims{
		RegisteredClaims: libJWT.RegisteredClaims{Subject: username},
		UserID:           userID,
		Username:         username,
		Roles:            []string{"ROLE_USER"},
	})
}

func update(id, chatID int64, text string) entity.Update {
	return entity.Update{
		UpdateID: id,
		Message: &entity.Message{
			MessageID: id,
			Chat:      entity.Chat{ID: chatID},
			Text:      text,
		},
	}
}

func TestLinkFlow(t *testing.T) {
	fx := newFixture()
	ctx := authCtx(t, 7, "bob")

	out, err := fx.uc.LinkToken(ctx)
	if err != nil {
		t.Fatalf("link token: %v", err)
	}
	if out.Token == "" {
		t.Fatal("expected a token")
	}

	if err := fx.uc.HandleWebhook(t.Context(), update(1, 555, "/start "+out.Token)); err != nil {
		t.Fatalf("webhook: %v", err)
	}

	if got := fx.accounts.bindings[7]; got != 555 {
		t.Fatalf("expected chat 555 bound, got %d", got)
	}
	if !strings.Contains(fx.bot.last(), "linked to bob") {
		t.Fatalf("unexpected reply: %s", fx.bot.last())
	}

	status, err := fx.uc.Status(ctx)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !status.Linked {
		t.Fatal("expected linked status")
	}

	// The token is one shot.
	if err := fx.uc.HandleWebhook(t.Context(), update(2, 666, "/start "+out.Token)); err != nil {
		t.Fatalf("webhook: %v", err)
	}
	if !strings.Contains(fx.bot.last(), "invalid or expired") {
		t.Fatalf("reused token should be rejected, got %s", fx.bot.last())
	}
}

func TestWebhookDeduplicates(t *testing.T) {
	fx := newFixture()

	upd := update(42, 555, "/help")
	if err := fx.uc.HandleWebhook(t.Context(), upd); err != nil {
		t.Fatalf("webhook: %v", err)
	}
	if err := fx.uc.HandleWebhook(t.Context(), upd); err != nil {
		t.Fatalf("duplicate webhook: %v", err)
	}

	if len(fx.bot.messages) != 1 {
		t.Fatalf("duplicate update must be dropped, got %d replies", len(fx.bot.messages))
	}
}

func TestCodeCommand(t *testing.T) {
	t.Run("UnlinkedChatPrompted", func(t *testing.T) {
		fx := newFixture()

		if err := fx.uc.HandleWebhook(t.Context(), update(1, 555, "/code")); err != nil {
			t.Fatalf("webhook: %v", err)
		}
		if !strings.Contains(fx.bot.last(), "not linked") {
			t.Fatalf("unexpected reply: %s", fx.bot.last())
		}
		if len(fx.engine.issued) != 0 {
			t.Fatal("no code should be issued for an unlinked chat")
		}
	})

	t.Run("LinkedChatGetsCode", func(t *testing.T) {
		fx := newFixture()
		chatID := int64(555)
		fx.accounts.users["bob"].TelegramChatID = &chatID

		if err := fx.uc.HandleWebhook(t.Context(), update(1, 555, "/code")); err != nil {
			t.Fatalf("webhook: %v", err)
		}

		if len(fx.engine.issued) != 1 || !fx.engine.issued[0].GenerateOnly {
			t.Fatalf("expected one generate-only issue, got %+v", fx.engine.issued)
		}
		if !strings.Contains(fx.bot.last(), "123456") {
			t.Fatalf("expected the code in the reply, got %s", fx.bot.last())
		}
	})
}

func TestVerifyCommand(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		fx := newFixture()
		chatID := int64(555)
		fx.accounts.users["bob"].TelegramChatID = &chatID

		if err := fx.uc.HandleWebhook(t.Context(), update(1, 555, "/verify 123456")); err != nil {
			t.Fatalf("webhook: %v", err)
		}

		if len(fx.engine.verified) != 1 || fx.engine.verified[0].Code != "123456" {
			t.Fatalf("unexpected verify calls: %+v", fx.engine.verified)
		}
		if !strings.Contains(fx.bot.last(), "verified") {
			t.Fatalf("unexpected reply: %s", fx.bot.last())
		}
	})

	t.Run("BadCode", func(t *testing.T) {
		fx := newFixture()
		fx.engine.badCode = true
		chatID := int64(555)
		fx.accounts.users["bob"].TelegramChatID = &chatID

		if err := fx.uc.HandleWebhook(t.Context(), update(1, 555, "/verify 000000")); err != nil {
			t.Fatalf("webhook: %v", err)
		}
		if !strings.Contains(fx.bot.last(), "invalid or expired") {
			t.Fatalf("unexpected reply: %s", fx.bot.last())
		}
	})

	t.Run("MissingArgument", func(t *testing.T) {
		fx := newFixture()

		if err := fx.uc.HandleWebhook(t.Context(), update(1, 555, "/verify")); err != nil {
			t.Fatalf("webhook: %v", err)
		}
		if !strings.Contains(fx.bot.last(), "Usage") {
			t.Fatalf("unexpected reply: %s", fx.bot.last())
		}
	})
}

func TestUnlinkCommand(t *testing.T) {
	t.Run("RemovesBinding", func(t *testing.T) {
		fx := newFixture()
		chatID := int64(555)
		fx.accounts.users["bob"].TelegramChatID = &chatID

		if err := fx.uc.HandleWebhook(t.Context(), update(1, 555, "/unlink")); err != nil {
			t.Fatalf("webhook: %v", err)
		}

		if fx.accounts.users["bob"].TelegramChatID != nil {
			t.Fatal("binding should be removed")
		}
		if !strings.Contains(fx.bot.last(), "no longer linked") {
			t.Fatalf("unexpected reply: %s", fx.bot.last())
		}
	})

	t.Run("UnlinkedChatPrompted", func(t *testing.T) {
		fx := newFixture()

		if err := fx.uc.HandleWebhook(t.Context(), update(1, 555, "/unlink")); err != nil {
			t.Fatalf("webhook: %v", err)
		}
		if !strings.Contains(fx.bot.last(), "not linked") {
			t.Fatalf("unexpected reply: %s", fx.bot.last())
		}
	})
}

func TestSendOTP(t *testing.T) {
	fx := newFixture()
	ctx := authCtx(t, 7, "bob")

	out, err := fx.uc.SendOTP(ctx)
	if err != nil {
		t.Fatalf("send otp: %v", err)
	}
	if out.OperationID == "" {
		t.Fatal("expected operation id")
	}
	if len(fx.engine.issued) != 1 || fx.engine.issued[0].GenerateOnly {
		t.Fatalf("expected one delivered issue, got %+v", fx.engine.issued)
	}
}

func TestUnauthenticated(t *testing.T) {
	fx := newFixture()

	if _, err := fx.uc.LinkToken(t.Context()); err == nil {
		t.Fatal("link token should require auth")
	}
	if _, err := fx.uc.Status(t.Context()); err == nil {
		t.Fatal("status should require auth")
	}
	if _, err := fx.uc.SendOTP(t.Context()); err == nil {
		t.Fatal("send otp should require auth")
	}
}
