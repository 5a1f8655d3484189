package inbound

import (
	"fmt"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/nikstrim/otpgate/internal/otp/entity"
	"github.com/nikstrim/otpgate/internal/otp/usecase"
	"github.com/nikstrim/otpgate/internal/pkg/goerror"
	"github.com/nikstrim/otpgate/internal/pkg/router"
)

type HTTPEndpoint struct {
	uc uc
	ro *router.Router
}

// Send issues a fresh code for the caller and dispatches it over the
// requested channel.
func (h *HTTPEndpoint) Send(r *router.Request) (any, error) {
	var req SendRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	ch, ok := entity.ParseChannel(req.Channel)
	if !ok {
		return nil, goerror.NewBusiness("unknown delivery channel", goerror.CodeInvalidInput)
	}

	out, err := h.uc.Issue(r.Context(), usecase.IssueInput{
		Channel:      ch,
		Destination:  req.Destination,
		GenerateOnly: req.GenerateOnly,
	})
	if err != nil {
		return nil, err
	}

	return SendResponse{
		OperationID: out.OperationID,
		Channel:     out.Channel.String(),
		ExpiresAt:   out.ExpiresAt,
		Code:        out.Code,
	}, nil
}

// Verify consumes the caller's active code.
func (h *HTTPEndpoint) Verify(r *router.Request) (any, error) {
	var req VerifyRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	out, err := h.uc.Verify(r.Context(), usecase.VerifyInput{Code: req.Code})
	if err != nil {
		return nil, err
	}

	return VerifyResponse{OperationID: out.OperationID}, nil
}

// Validate consumes any account's active code (admin only).
func (h *HTTPEndpoint) Validate(r *router.Request) (any, error) {
	var req ValidateRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	out, err := h.uc.Validate(r.Context(), usecase.ValidateInput{
		Username: req.Username,
		Code:     req.Code,
	})
	if err != nil {
		return nil, err
	}

	return VerifyResponse{OperationID: out.OperationID}, nil
}

// ConfigGet returns the issuing policy (admin only).
func (h *HTTPEndpoint) ConfigGet(r *router.Request) (any, error) {
	out, err := h.uc.ConfigGet(r.Context())
	if err != nil {
		return nil, err
	}

	return ConfigResponse{CodeLength: out.CodeLength, LifetimeMinutes: out.LifetimeMinutes}, nil
}

// ConfigUpdate replaces the issuing policy (admin only).
func (h *HTTPEndpoint) ConfigUpdate(r *router.Request) (any, error) {
	var req ConfigRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	out, err := h.uc.ConfigUpdate(r.Context(), usecase.ConfigInput{
		CodeLength:      req.CodeLength,
		LifetimeMinutes: req.LifetimeMinutes,
	})
	if err != nil {
		return nil, err
	}

	return ConfigResponse{CodeLength: out.CodeLength, LifetimeMinutes: out.LifetimeMinutes}, nil
}

// ExportCSV streams the caller's own history as a CSV download.
func (h *HTTPEndpoint) ExportCSV(w http.ResponseWriter, r *http.Request) {
	h.streamCSV(w, r, "otp-history.csv", func() error {
		return h.uc.ExportCSV(r.Context(), w)
	})
}

// ExportAllCSV streams the history of every account (admin only).
func (h *HTTPEndpoint) ExportAllCSV(w http.ResponseWriter, r *http.Request) {
	h.streamCSV(w, r, "otp-history-all.csv", func() error {
		return h.uc.ExportAllCSV(r.Context(), w)
	})
}

// ExportUserCSV streams one account's history (admin only).
func (h *HTTPEndpoint) ExportUserCSV(w http.ResponseWriter, r *http.Request) {
	username := httprouter.ParamsFromContext(r.Context()).ByName("username")

	h.streamCSV(w, r, fmt.Sprintf("otp-history-%s.csv", username), func() error {
		return h.uc.ExportUserCSV(r.Context(), username, w)
	})
}

// streamCSV defers the headers until the export succeeds, so failures still
// produce the standard JSON error body.
func (h *HTTPEndpoint) streamCSV(w http.ResponseWriter, r *http.Request, filename string, run func() error) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := run(); err != nil {
		w.Header().Del("Content-Disposition")
		h.ro.WriteError(r.Context(), w, err)
	}
}
