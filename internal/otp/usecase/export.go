package usecase

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/nikstrim/otpgate/internal/otp/entity"
	"github.com/nikstrim/otpgate/internal/pkg/goerror"
	"github.com/nikstrim/otpgate/internal/pkg/storage"
)

var csvHeader = []string{"id", "owner", "code", "status", "channel", "created_at", "expires_at", "operation_id"}

// ExportCSV writes the caller's own code history as CSV.
func (s *Usecase) ExportCSV(ctx context.Context, w io.Writer) (err error) {
	ctx, span := s.startSpan(ctx, "ExportCSV")
	defer span.End()

	clm, err := s.requireAuth(ctx)
	if err != nil {
		return err
	}

	records, err := s.repoDB.ListCodesByOwner(ctx, clm.UserID)
	if err != nil {
		return goerror.NewServer(err)
	}

	return s.writeCSV(ctx, w, records, fmt.Sprintf("otp-%s", clm.Subject))
}

// ExportAllCSV writes the full code history across all owners. Admin only.
func (s *Usecase) ExportAllCSV(ctx context.Context, w io.Writer) (err error) {
	ctx, span := s.startSpan(ctx, "ExportAllCSV")
	defer span.End()

	if _, err := s.requireAdmin(ctx); err != nil {
		return err
	}

	records, err := s.repoDB.ListAllCodes(ctx)
	if err != nil {
		return goerror.NewServer(err)
	}

	return s.writeCSV(ctx, w, records, "otp-all")
}

// ExportUserCSV writes one account's code history. Admin only.
func (s *Usecase) ExportUserCSV(ctx context.Context, username string, w io.Writer) (err error) {
	ctx, span := s.startSpan(ctx, "ExportUserCSV")
	defer span.End()

	if _, err := s.requireAdmin(ctx); err != nil {
		return err
	}

	p, err := s.directory.ResolvePrincipal(ctx, username)
	if err != nil {
		if errors.Is(err, goerror.ErrNotFound) {
			return goerror.NewBusiness("account not found", goerror.CodeNotFound)
		}
		return goerror.NewServer(err)
	}

	records, err := s.repoDB.ListCodesByOwner(ctx, p.ID)
	if err != nil {
		return goerror.NewServer(err)
	}

	return s.writeCSV(ctx, w, records, fmt.Sprintf("otp-%s", p.Username))
}

// writeCSV renders the records and, when an export bucket is configured,
// archives a copy in object storage before handing the bytes to the caller.
func (s *Usecase) writeCSV(ctx context.Context, w io.Writer, records []entity.Record, name string) error {
	var buf bytes.Buffer

	cw := csv.NewWriter(&buf)
	if err := cw.Write(csvHeader); err != nil {
		return goerror.NewServer(err)
	}

	for _, r := range records {
		row := []string{
			strconv.FormatInt(r.ID, 10),
			r.Username,
			r.Code.Code,
			r.Status.String(),
			r.Channel.String(),
			r.CreatedAt.UTC().Format(time.RFC3339),
			r.ExpiresAt.UTC().Format(time.RFC3339),
			r.OperationID,
		}
		if err := cw.Write(row); err != nil {
			return goerror.NewServer(err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return goerror.NewServer(err)
	}

	s.archiveExport(ctx, name, buf.Bytes())

	if _, err := w.Write(buf.Bytes()); err != nil {
		return goerror.NewServer(err)
	}

	return nil
}

func (s *Usecase) archiveExport(ctx context.Context, name string, data []byte) {
	if s.store == nil {
		return
	}

	bucket := s.cfg.GetString("otp.export.bucket")
	if bucket == "" {
		return
	}

	key := fmt.Sprintf("%s-%d.csv", name, s.clock.Now().Unix())
	_, err := s.store.PutObject(ctx, bucket, key, bytes.NewReader(data), storage.PutOptions{
		Size:        int64(len(data)),
		ContentType: "text/csv",
	})
	if err != nil {
		slog.WarnContext(ctx, "failed to archive export", "bucket", bucket, "key", key, "error", err)
	}
}
