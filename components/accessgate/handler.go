package accessgate

import (
	"net/http"

	"github.com/goliatone/go-formflow/internal/httpx"
)

// StatusError lets guards choose the rejection status.
type StatusError struct {
	Code int
	Err  error
}

func (e StatusError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return http.StatusText(e.Code)
}

func (e StatusError) Unwrap() error { return e.Err }

func (e StatusError) StatusCode() int {
	if e.Code <= 0 {
		return http.StatusInternalServerError
	}
	return e.Code
}

type allowedResponse struct {
	Allowed  bool   `json:"allowed"`
	Redirect string `json:"redirect"`
}

type deniedResponse struct {
	Allowed     bool   `json:"allowed"`
	Error       string `json:"error"`
	ExpiresInMs int64  `json:"expiresInMs"`
}

// Handler builds a net/http handler with default options plus any overrides.
func Handler(fns ...OptionFn) http.Handler {
	return NewHandler(fns...)
}

func NewHandler(fns ...OptionFn) http.Handler {
	opts := NewOptions(fns...)
	return HandlerWithOptions(opts)
}

// HandlerWithOptions builds the access handler from a pre-constructed Options
// value. A matching identifier answers 303 See Other to the gate's next path,
// or a JSON body when the client accepts JSON. A mismatch answers 401 with the
// banner message and its remaining lifetime.
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

		if opts.Gate == nil {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
			return
		}

		if err := r.ParseForm(); err != nil {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		entered := r.PostForm.Get(opts.FieldParam)

		decision, err := opts.Gate.Authorize(r.Context(), entered)
		if err != nil {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		if decision.Allowed {
			if !httpx.WantsJSON(r) {
				http.Redirect(w, r, decision.Redirect, http.StatusSeeOther)
				return
			}
			httpx.WriteJSON(w, http.StatusOK, allowedResponse{Allowed: true, Redirect: decision.Redirect})
			return
		}

		body := deniedResponse{}
		if decision.Banner != nil {
			body.Error = decision.Banner.Message
			body.ExpiresInMs = decision.Banner.TTL.Milliseconds()
		}
		httpx.WriteJSON(w, http.StatusUnauthorized, body)
	})
}
