package storage

import (
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

func newLocalForTest(t *testing.T) *LocalAdapter {
	t.Helper()

	l, err := NewLocal(LocalOptions{Root: t.TempDir()})
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	return l
}

func TestLocalAdapter(t *testing.T) {
	t.Run("RootRequired", func(t *testing.T) {
		if _, err := NewLocal(LocalOptions{}); !errors.Is(err, ErrLocalRootRequired) {
			t.Fatalf("expected ErrLocalRootRequired, got %v", err)
		}
	})

	t.Run("PutGetRoundTrip", func(t *testing.T) {
		l := newLocalForTest(t)
		ctx := t.Context()

		_, err := l.PutObject(ctx, "otp", "deliveries/42.txt", strings.NewReader("code 123456"), PutOptions{ContentType: "text/plain"})
		if err != nil {
			t.Fatalf("put: %v", err)
		}

		rc, info, err := l.GetObject(ctx, "otp", "deliveries/42.txt")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		defer rc.Close()

		body, err := io.ReadAll(rc)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if string(body) != "code 123456" {
			t.Fatalf("unexpected body %q", body)
		}
		if info.Size != int64(len(body)) {
			t.Fatalf("expected size %d, got %d", len(body), info.Size)
		}
	})

	t.Run("GetMissing", func(t *testing.T) {
		l := newLocalForTest(t)

		if _, _, err := l.GetObject(t.Context(), "otp", "nope.txt"); !errors.Is(err, ErrObjectNotFound) {
			t.Fatalf("expected ErrObjectNotFound, got %v", err)
		}
	})

	t.Run("DeleteIdempotent", func(t *testing.T) {
		l := newLocalForTest(t)
		ctx := t.Context()

		if _, err := l.PutObject(ctx, "otp", "a.txt", strings.NewReader("x"), PutOptions{}); err != nil {
			t.Fatalf("put: %v", err)
		}
		if err := l.DeleteObject(ctx, "otp", "a.txt"); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if err := l.DeleteObject(ctx, "otp", "a.txt"); err != nil {
			t.Fatalf("second delete: %v", err)
		}
	})

	t.Run("ListPrefixAndLimit", func(t *testing.T) {
		l := newLocalForTest(t)
		ctx := t.Context()

		for _, key := range []string{"exports/a.csv", "exports/b.csv", "deliveries/c.txt"} {
			if _, err := l.PutObject(ctx, "otp", key, strings.NewReader("x"), PutOptions{}); err != nil {
				t.Fatalf("put %s: %v", key, err)
			}
		}

		objects, err := l.ListObjects(ctx, "otp", "exports/", ListOptions{})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(objects) != 2 {
			t.Fatalf("expected 2 objects, got %d", len(objects))
		}

		objects, err = l.ListObjects(ctx, "otp", "", ListOptions{Limit: 1})
		if err != nil {
			t.Fatalf("list limited: %v", err)
		}
		if len(objects) != 1 {
			t.Fatalf("expected 1 object, got %d", len(objects))
		}
	})

	t.Run("PresignUnsupported", func(t *testing.T) {
		l := newLocalForTest(t)

		if _, err := l.PresignGet(t.Context(), "otp", "a.txt", time.Minute); !errors.Is(err, ErrPresignUnsupported) {
			t.Fatalf("expected ErrPresignUnsupported, got %v", err)
		}
	})
}
