package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	libJWT "github.com/golang-jwt/jwt/v5"
	"github.com/nikstrim/otpgate/internal/identity/entity"
	"github.com/nikstrim/otpgate/internal/pkg/goerror"
	"github.com/nikstrim/otpgate/internal/pkg/instrument"
	"github.com/nikstrim/otpgate/internal/pkg/jwt"
)

type fakeRepo struct {
	users       map[string]*entity.User
	byID        map[int64]*entity.User
	createErr   error
	deleted     []int64
	tgBindings  map[int64]*int64
	listedUsers []entity.User
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		users:      make(map[string]*entity.User),
		byID:       make(map[int64]*entity.User),
		tgBindings: make(map[int64]*int64),
	}
}

func (f *fakeRepo) add(u entity.User) {
	cp := u
	f.users[u.Username] = &cp
	f.byID[u.ID] = &cp
}

func (f *fakeRepo) CreateUser(_ context.Context, user entity.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	if _, ok := f.users[user.Username]; ok {
		return goerror.ErrConflict
	}
	f.add(user)
	return nil
}

func (f *fakeRepo) GetUserByUsername(_ context.Context, username string) (*entity.User, error) {
	u, ok := f.users[username]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return u, nil
}

func (f *fakeRepo) GetUserByTelegramChatID(_ context.Context, chatID int64) (*entity.User, error) {
	for _, u := range f.users {
		if u.TelegramChatID != nil && *u.TelegramChatID == chatID {
			return u, nil
		}
	}
	return nil, goerror.ErrNotFound
}

func (f *fakeRepo) ListUsers(_ context.Context, limit, offset int32) ([]entity.User, error) {
	return f.listedUsers, nil
}

func (f *fakeRepo) DeleteUser(_ context.Context, id int64) (bool, error) {
	if _, ok := f.byID[id]; !ok {
		return false, nil
	}
	f.deleted = append(f.deleted, id)
	delete(f.byID, id)
	return true, nil
}

func (f *fakeRepo) SetTelegramChatID(_ context.Context, userID int64, chatID *int64) error {
	if _, ok := f.byID[userID]; !ok {
		return goerror.ErrNotFound
	}
	f.tgBindings[userID] = chatID
	return nil
}

type fakeHash struct{}

func (fakeHash) Hash(plaintext string) ([]byte, error) { return []byte("h:" + plaintext), nil }
func (fakeHash) Verify(hashed, plaintext string) bool  { return hashed == "h:"+plaintext }

type fakeJWT struct{ fail bool }

func (f fakeJWT) Generate(uid int64, username string, roles []string) (string, error) {
	if f.fail {
		return "", errors.New("boom")
	}
	return "token-" + username + "-" + strings.Join(roles, ","), nil
}

func (fakeJWT) Verify(string) (jwt.Claims, error) { return jwt.Claims{}, nil }

type fakeClock struct{ now time.Time }

func (f fakeClock) Now() time.Time { return f.now }

type fakeUID struct{ next int64 }

func (f *fakeUID) Generate() int64 {
	f.next++
	return f.next
}

type passValidator struct{}

func (passValidator) Validate(any) error { return nil }

type fakeMQ struct{ events []entity.LoginEvent }

func (f *fakeMQ) PublishLoggedIn(_ context.Context, evt entity.LoginEvent) error {
	f.events = append(f.events, evt)
	return nil
}

func newTestUsecase(repo *fakeRepo, mq *fakeMQ) *Usecase {
	return NewIdentity(Dependency{
		RepoDB:     repo,
		UID:        &fakeUID{},
		Clock:      fakeClock{now: time.Now()},
		Validator:  passValidator{},
		JWT:        fakeJWT{},
		Hash:       fakeHash{},
		RepoMQ:     mq,
		Instrument: instrument.NewNoop(),
	})
}

func adminCtx(t *testing.T, repo *fakeRepo) context.Context {
	t.Helper()

	repo.add(entity.User{ID: 99, Username: "root", Enabled: true, Roles: []entity.Role{entity.RoleAdmin}})
	return jwt.SetAuth(t.Context(), jwt.Claims{
		RegisteredClaims: registeredClaims("root"),
		UserID:           99,
		Username:         "root",
		Roles:            []string{"ROLE_ADMIN"},
	})
}

func registeredClaims(sub string) libJWT.RegisteredClaims {
	return libJWT.RegisteredClaims{Subject: sub}
}

func TestRegister(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		repo := newFakeRepo()
		uc := newTestUsecase(repo, &fakeMQ{})

		out, err := uc.Register(t.Context(), RegisterInput{Username: "alice", Password: "correcthorse"})
		if err != nil {
			t.Fatalf("register: %v", err)
		}
		if out.AccessToken == "" {
			t.Fatal("expected access token")
		}

		saved, err := repo.GetUserByUsername(t.Context(), "alice")
		if err != nil {
			t.Fatalf("user not persisted: %v", err)
		}
		if !saved.Enabled || !saved.HasRole(entity.RoleUser) {
			t.Fatalf("unexpected persisted user: %+v", saved)
		}
	})

	t.Run("DuplicateUsername", func(t *testing.T) {
		repo := newFakeRepo()
		repo.add(entity.User{ID: 1, Username: "alice", Enabled: true})
		uc := newTestUsecase(repo, &fakeMQ{})

		_, err := uc.Register(t.Context(), RegisterInput{Username: "alice", Password: "correcthorse"})
		var gerr *goerror.Error
		if !errors.As(err, &gerr) || gerr.Code() != goerror.CodeConflict {
			t.Fatalf("expected conflict, got %v", err)
		}
	})
}

func TestLogin(t *testing.T) {
	seed := func(repo *fakeRepo) {
		repo.add(entity.User{
			ID: 7, Username: "bob", PasswordHash: "h:secretpass",
			Enabled: true, Roles: []entity.Role{entity.RoleUser},
		})
	}

	t.Run("Success", func(t *testing.T) {
		repo := newFakeRepo()
		seed(repo)
		mq := &fakeMQ{}
		uc := newTestUsecase(repo, mq)

		out, err := uc.Login(t.Context(), LoginInput{Username: "bob", Password: "secretpass"})
		if err != nil {
			t.Fatalf("login: %v", err)
		}
		if out.AccessToken == "" || out.UserID != 7 {
			t.Fatalf("unexpected output: %+v", out)
		}
		if len(mq.events) != 1 || mq.events[0].Outcome != entity.LoginOutcomeSuccess {
			t.Fatalf("expected success event, got %+v", mq.events)
		}
	})

	t.Run("WrongPassword", func(t *testing.T) {
		repo := newFakeRepo()
		seed(repo)
		mq := &fakeMQ{}
		uc := newTestUsecase(repo, mq)

		_, err := uc.Login(t.Context(), LoginInput{Username: "bob", Password: "wrong"})
		var gerr *goerror.Error
		if !errors.As(err, &gerr) || gerr.Code() != goerror.CodeUnauthorized {
			t.Fatalf("expected unauthorized, got %v", err)
		}
		if len(mq.events) != 1 || mq.events[0].Outcome != entity.LoginOutcomeFailure {
			t.Fatalf("expected failure event, got %+v", mq.events)
		}
	})

	t.Run("UnknownUserSameMessage", func(t *testing.T) {
		repo := newFakeRepo()
		seed(repo)
		uc := newTestUsecase(repo, &fakeMQ{})

		_, errUnknown := uc.Login(t.Context(), LoginInput{Username: "nobody", Password: "x"})
		_, errWrong := uc.Login(t.Context(), LoginInput{Username: "bob", Password: "x"})
		if errUnknown == nil || errWrong == nil || errUnknown.Error() != errWrong.Error() {
			t.Fatalf("expected identical failures, got %v vs %v", errUnknown, errWrong)
		}
	})

	t.Run("DisabledUser", func(t *testing.T) {
		repo := newFakeRepo()
		repo.add(entity.User{ID: 8, Username: "carol", PasswordHash: "h:secretpass", Enabled: false})
		uc := newTestUsecase(repo, &fakeMQ{})

		if _, err := uc.Login(t.Context(), LoginInput{Username: "carol", Password: "secretpass"}); err == nil {
			t.Fatal("expected disabled account to fail login")
		}
	})
}

func TestAdminOps(t *testing.T) {
	t.Run("ListRequiresAdmin", func(t *testing.T) {
		repo := newFakeRepo()
		repo.add(entity.User{ID: 1, Username: "bob", Enabled: true, Roles: []entity.Role{entity.RoleUser}})
		uc := newTestUsecase(repo, &fakeMQ{})

		ctx := jwt.SetAuth(t.Context(), jwt.Claims{
			RegisteredClaims: registeredClaims("bob"),
			UserID:           1, Username: "bob", Roles: []string{"ROLE_USER"},
		})

		_, err := uc.ListUsers(ctx, ListUsersInput{})
		var gerr *goerror.Error
		if !errors.As(err, &gerr) || gerr.Code() != goerror.CodeForbidden {
			t.Fatalf("expected forbidden, got %v", err)
		}
	})

	t.Run("DeleteUser", func(t *testing.T) {
		repo := newFakeRepo()
		repo.add(entity.User{ID: 5, Username: "victim", Enabled: true})
		uc := newTestUsecase(repo, &fakeMQ{})
		ctx := adminCtx(t, repo)

		if err := uc.DeleteUser(ctx, 5); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if len(repo.deleted) != 1 || repo.deleted[0] != 5 {
			t.Fatalf("expected deletion of 5, got %v", repo.deleted)
		}
	})

	t.Run("DeleteSelfRejected", func(t *testing.T) {
		repo := newFakeRepo()
		uc := newTestUsecase(repo, &fakeMQ{})
		ctx := adminCtx(t, repo)

		if err := uc.DeleteUser(ctx, 99); err == nil {
			t.Fatal("expected self-deletion to fail")
		}
	})

	t.Run("DeleteMissing", func(t *testing.T) {
		repo := newFakeRepo()
		uc := newTestUsecase(repo, &fakeMQ{})
		ctx := adminCtx(t, repo)

		err := uc.DeleteUser(ctx, 12345)
		var gerr *goerror.Error
		if !errors.As(err, &gerr) || gerr.Code() != goerror.CodeNotFound {
			t.Fatalf("expected not found, got %v", err)
		}
	})
}

func TestResolvePrincipal(t *testing.T) {
	repo := newFakeRepo()
	repo.add(entity.User{ID: 3, Username: "dave", Enabled: true, Roles: []entity.Role{entity.RoleUser}})
	uc := newTestUsecase(repo, &fakeMQ{})

	p, err := uc.ResolvePrincipal(t.Context(), "dave")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if p.ID != 3 || !p.Enabled || len(p.Roles) != 1 {
		t.Fatalf("unexpected principal: %+v", p)
	}

	if _, err := uc.ResolvePrincipal(t.Context(), "ghost"); !errors.Is(err, goerror.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
