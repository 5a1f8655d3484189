package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/nikstrim/otpgate/internal/audit/entity"
	"github.com/nikstrim/otpgate/internal/pkg/instrument"
)

type fakeRepo struct{ entries []entity.Entry }

func (f *fakeRepo) InsertEntry(_ context.Context, entry entity.Entry) error {
	f.entries = append(f.entries, entry)
	return nil
}

type fakeClock struct{ now time.Time }

func (f *fakeClock) Now() time.Time { return f.now }

type fakeUID struct{ next int64 }

func (f *fakeUID) Generate() int64 {
	f.next++
	return f.next
}

func newTestUsecase(repo *fakeRepo) *Usecase {
	return NewAudit(Dependency{
		RepoDB:     repo,
		UID:        &fakeUID{},
		Clock:      &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)},
		Instrument: instrument.NewNoop(),
	})
}

func TestRecord(t *testing.T) {
	t.Run("PersistsOTPEvent", func(t *testing.T) {
		repo := &fakeRepo{}
		uc := newTestUsecase(repo)

		body := []byte(`{"action":"otp.verified","user_id":7,"username":"bob","operation_id":"op-1","outcome":"success","at":"2025-06-01T11:59:00Z"}`)
		if err := uc.Record(t.Context(), body); err != nil {
			t.Fatalf("record: %v", err)
		}

		if len(repo.entries) != 1 {
			t.Fatalf("expected one entry, got %d", len(repo.entries))
		}
		got := repo.entries[0]
		if got.Action != "otp.verified" || got.Actor != "bob" || got.Outcome != "success" {
			t.Fatalf("unexpected entry: %+v", got)
		}
		if got.ID == 0 || got.CreatedAt.IsZero() {
			t.Fatalf("entry not stamped: %+v", got)
		}
		if got.Metadata.GetString("operation_id") != "op-1" {
			t.Fatalf("metadata should keep the raw payload: %+v", got.Metadata)
		}
	})

	t.Run("DropsUnparseablePayload", func(t *testing.T) {
		repo := &fakeRepo{}
		uc := newTestUsecase(repo)

		if err := uc.Record(t.Context(), []byte("not json")); err != nil {
			t.Fatalf("unparseable payloads must not error: %v", err)
		}
		if len(repo.entries) != 0 {
			t.Fatal("nothing should be persisted")
		}
	})

	t.Run("DropsEventWithoutAction", func(t *testing.T) {
		repo := &fakeRepo{}
		uc := newTestUsecase(repo)

		if err := uc.Record(t.Context(), []byte(`{"user_id":7}`)); err != nil {
			t.Fatalf("record: %v", err)
		}
		if len(repo.entries) != 0 {
			t.Fatal("nothing should be persisted")
		}
	})

	t.Run("DefaultsMissingTimestamp", func(t *testing.T) {
		repo := &fakeRepo{}
		uc := newTestUsecase(repo)

		if err := uc.Record(t.Context(), []byte(`{"action":"auth.login","user_id":7,"username":"bob","outcome":"failure"}`)); err != nil {
			t.Fatalf("record: %v", err)
		}
		if repo.entries[0].At.IsZero() {
			t.Fatal("missing event time should default to receipt time")
		}
	})
}
