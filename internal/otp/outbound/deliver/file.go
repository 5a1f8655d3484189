package deliver

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nikstrim/otpgate/internal/pkg/storage"
)

// FileSender writes codes as objects into a storage bucket. The destination
// is used as the object key; empty destinations get a timestamped key.
type FileSender struct {
	store  storage.Storage
	bucket string
	clock  func() time.Time
}

func NewFileSender(store storage.Storage, bucket string) *FileSender {
	return &FileSender{store: store, bucket: bucket, clock: time.Now}
}

func (s *FileSender) Send(ctx context.Context, destination, code string) error {
	key := destination
	if key == "" {
		key = fmt.Sprintf("otp-%d.txt", s.clock().UnixNano())
	}

	body := strings.NewReader(code + "\n")

	_, err := s.store.PutObject(ctx, s.bucket, key, body, storage.PutOptions{
		Size:        int64(body.Len()),
		ContentType: "text/plain",
	})

	return err
}
