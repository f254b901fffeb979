package submission

import (
	"errors"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"github.com/goliatone/go-formflow/internal/httpx"
	"github.com/goliatone/go-formflow/pkg/flow"
	"github.com/goliatone/go-formflow/pkg/relay"
	"github.com/goliatone/go-formflow/pkg/validation"
)

type documentInfo struct {
	Filename string `json:"filename"`
	Size     int    `json:"size"`
}

type response struct {
	Valid        bool                    `json:"valid"`
	Errors       []validation.FieldError `json:"errors"`
	Inline       map[string]string       `json:"inline,omitempty"`
	SubmissionID string                  `json:"submissionId,omitempty"`
	Sent         bool                    `json:"sent"`
	Relay        *relay.Response         `json:"relay,omitempty"`
	Document     *documentInfo           `json:"document,omitempty"`
	Redirect     string                  `json:"redirect,omitempty"`
	Error        string                  `json:"error,omitempty"`
}

// Handler builds a net/http handler with default options plus any overrides.
func Handler(fns ...OptionFn) http.Handler {
	return NewHandler(fns...)
}

func NewHandler(fns ...OptionFn) http.Handler {
	return HandlerWithOptions(NewOptions(fns...))
}

// HandlerWithOptions binds POSTed form data to the configured definition and
// runs it through the flow. Validation failures answer 422, a concurrent
// submission 409, and relay failures 502 (the snapshot stays saved).
func HandlerWithOptions(opts Options) http.Handler {
	opts = NewOptions(func(o *Options) { *o = opts })
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r == nil {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}

		if opts.Guard != nil {
			if err := opts.Guard(r); err != nil {
				httpx.WriteGuardError(w, err)
				return
			}
		}

		if opts.Flow == nil {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
			return
		}

		if err := r.ParseMultipartForm(opts.MaxMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		if r.MultipartForm != nil {
			defer r.MultipartForm.RemoveAll()
		}

		form, err := opts.Definition.Bind(r.PostForm, fileHeaders(r))
		if err != nil {
			httpx.WriteJSON(w, http.StatusBadRequest, response{Errors: []validation.FieldError{}, Error: err.Error()})
			return
		}

		out, err := opts.Flow.Submit(r.Context(), form)

		body := response{
			Valid:    out.Validation.Valid,
			Errors:   out.Validation.Errors,
			Inline:   out.Validation.InlineMessages(),
			Sent:     out.Sent,
			Relay:    out.Relay,
			Redirect: out.Redirect,
		}
		if body.Errors == nil {
			body.Errors = []validation.FieldError{}
		}
		if out.Snapshot != nil {
			body.SubmissionID = out.Snapshot.ID
		}
		if out.Filename != "" {
			body.Document = &documentInfo{Filename: out.Filename, Size: len(out.Document)}
		}

		if err != nil {
			body.Error = err.Error()
			httpx.WriteJSON(w, statusFor(err), body)
			return
		}

		if r.URL.Query().Get(opts.FormatParam) == "pdf" && len(out.Document) > 0 {
			w.Header().Set("Content-Type", "application/pdf")
			w.Header().Set("Content-Disposition", `attachment; filename="`+out.Filename+`"`)
			w.Header().Set("Content-Length", strconv.Itoa(len(out.Document)))
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(out.Document)
			return
		}

		httpx.WriteJSON(w, http.StatusOK, body)
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, flow.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, flow.ErrSubmitInProgress):
		return http.StatusConflict
	case errors.Is(err, flow.ErrDeclined):
		return http.StatusPreconditionFailed
	case errors.Is(err, relay.ErrRejected), errors.Is(err, relay.ErrNotConfigured):
		return http.StatusBadGateway
	default:
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			return http.StatusBadGateway
		}
		return http.StatusInternalServerError
	}
}

func fileHeaders(r *http.Request) map[string][]*multipart.FileHeader {
	if r.MultipartForm == nil {
		return nil
	}
	return r.MultipartForm.File
}
