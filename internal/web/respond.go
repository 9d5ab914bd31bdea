package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/vbonduro/multirental/internal/domain"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error     string   `json:"error"`
	Detail    string   `json:"detail"`
	Codes     []string `json:"codes,omitempty"`
	Requested *int     `json:"requested,omitempty"`
	Available *int     `json:"available,omitempty"`
}

var errorKinds = []struct {
	kind   error
	name   string
	status int
}{
	{domain.ErrNotFound, "not_found", http.StatusNotFound},
	{domain.ErrInvalidState, "invalid_state", http.StatusBadRequest},
	{domain.ErrInvalidArgument, "invalid_argument", http.StatusBadRequest},
	{domain.ErrNoOpTransition, "no_op_transition", http.StatusConflict},
	{domain.ErrInsufficientStock, "insufficient_stock", http.StatusConflict},
	{domain.ErrDuplicateCode, "duplicate_code", http.StatusConflict},
	{domain.ErrTransientStoreFailure, "transient_store_failure", http.StatusServiceUnavailable},
	{domain.ErrIntegrityViolation, "integrity_violation", http.StatusInternalServerError},
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err onto a status and a {"error", "detail"} body. Errors
// without a known kind are reported as internal without their text.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	resp := errorResponse{Error: "internal", Detail: "internal error"}
	status := http.StatusInternalServerError
	for _, k := range errorKinds {
		if errors.Is(err, k.kind) {
			resp.Error, status = k.name, k.status
			if status < http.StatusInternalServerError {
				resp.Detail = err.Error()
			} else {
				resp.Detail = k.kind.Error()
			}
			break
		}
	}

	var derr *domain.Error
	if errors.As(err, &derr) && status < http.StatusInternalServerError {
		resp.Codes = derr.Codes
		if errors.Is(derr.Kind, domain.ErrInsufficientStock) {
			resp.Requested, resp.Available = &derr.Requested, &derr.Available
		}
	}

	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "1")
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			"method", r.Method, "path", r.URL.Path, "error", err, "request_id", requestIDFrom(r.Context()))
	}
	writeJSON(w, status, resp)
}

// decode reads a JSON body into dst and validates it.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("empty body")
		}
		return &domain.Error{Kind: domain.ErrInvalidArgument, Field: "body", Err: err}
	}

	if err := s.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return &domain.Error{Kind: domain.ErrInvalidArgument, Field: verrs[0].Field(), Err: verrs[0]}
		}
		return &domain.Error{Kind: domain.ErrInvalidArgument, Field: "body", Err: err}
	}
	return nil
}

// pathID parses the named path variable as a positive int64.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.InvalidArgument(name)
	}
	return id, nil
}

// actingBranch returns the X-Branch-ID header, or 0 when absent.
func actingBranch(r *http.Request) (int64, error) {
	raw := r.Header.Get("X-Branch-ID")
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.InvalidArgument("X-Branch-ID")
	}
	return id, nil
}

// queryInt parses an optional integer query parameter; absent means 0.
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.InvalidArgument(name)
	}
	return n, nil
}

// queryState parses the optional state query parameter; absent means "".
func queryState(r *http.Request) (domain.State, error) {
	raw := r.URL.Query().Get("state")
	if raw == "" {
		return "", nil
	}
	return domain.ParseState(raw)
}
