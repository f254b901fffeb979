package submission

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formflow/pkg/document"
	"github.com/goliatone/go-formflow/pkg/flow"
	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/relay"
	"github.com/goliatone/go-formflow/pkg/snapshot"
	"github.com/goliatone/go-formflow/pkg/store"
	"github.com/goliatone/go-formflow/pkg/validation"
)

var submitAt = time.Date(2024, time.June, 10, 9, 0, 0, 0, time.UTC)

func testDefinition() model.Definition {
	return model.Definition{ID: "application", Controls: []model.Control{
		{Name: "UserID", Type: model.ControlText, Label: "UserID", Required: true},
		{Name: "fullName", Type: model.ControlText, Label: "Full Name", Required: true},
		{Name: "tin1", Type: model.ControlText, Required: true},
		{Name: "tin2", Type: model.ControlText, Required: true},
		{Name: "tin3", Type: model.ControlText, Required: true},
		{Name: "dobMonth", Type: model.ControlText, Required: true},
		{Name: "dobDay", Type: model.ControlText, Required: true},
		{Name: "dobYear", Type: model.ControlText, Required: true},
		{Name: "zip5", Type: model.ControlText, Required: true},
		{Name: "zip4", Type: model.ControlText},
		{Name: "terms", Type: model.ControlCheckbox, Label: "Terms", Required: true},
		{Name: "photo", Type: model.ControlFile, Label: "Photo ID"},
		{Name: "submit", Type: model.ControlSubmit},
	}}
}

func validValues() url.Values {
	return url.Values{
		"UserID":   {"AB123456"},
		"fullName": {"Jane Doe"},
		"tin1":     {"123"},
		"tin2":     {"45"},
		"tin3":     {"6789"},
		"dobMonth": {"05"},
		"dobDay":   {"15"},
		"dobYear":  {"1990"},
		"zip5":     {"02134"},
		"terms":    {"on"},
	}
}

type relayCapture struct {
	fields url.Values
	files  map[string]string
}

func relayServer(t *testing.T, status int, body string, capture *relayCapture) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if capture != nil {
			if err := r.ParseMultipartForm(1 << 20); err == nil {
				capture.fields = r.MultipartForm.Value
				capture.files = map[string]string{}
				for name, headers := range r.MultipartForm.File {
					capture.files[name] = headers[0].Filename
				}
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newHandler(t *testing.T, endpoint string) (http.Handler, *store.Store) {
	t.Helper()
	clock := func() time.Time { return submitAt }
	st := store.New(store.NewMemoryBackend())
	f := flow.New(
		flow.WithClock(clock),
		flow.WithBuilder(snapshot.NewBuilder(snapshot.WithClock(clock), snapshot.WithIDGenerator(func() string { return "sub-1" }))),
		flow.WithRenderer(document.NewPDFRenderer(document.WithClock(clock))),
		flow.WithSaver(st),
		flow.WithSender(relay.New(relay.WithEndpoint(endpoint), relay.WithAccessKey("test-key"))),
		flow.WithNextPath("/account/access"),
	)
	return NewHandler(WithDefinition(testDefinition()), WithFlow(f)), st
}

func multipartRequest(t *testing.T, target string, values url.Values, photo []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for name, vals := range values {
		for _, v := range vals {
			if err := w.WriteField(name, v); err != nil {
				t.Fatalf("write field: %v", err)
			}
		}
	}
	if photo != nil {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", `form-data; name="photo"; filename="id.png"`)
		header.Set("Content-Type", "image/png")
		part, err := w.CreatePart(header)
		if err != nil {
			t.Fatalf("create file: %v", err)
		}
		_, _ = part.Write(photo)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func tinyPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) response {
	t.Helper()
	var got response
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return got
}

func TestHandler_SubmitRelaysAndSaves(t *testing.T) {
	capture := &relayCapture{}
	srv := relayServer(t, http.StatusOK, `{"success":true,"message":"Email sent"}`, capture)
	h, st := newHandler(t, srv.URL)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, multipartRequest(t, "/api/submit", validValues(), tinyPNG(t)))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	got := decode(t, rec)
	want := response{
		Valid:        true,
		Errors:       []validation.FieldError{},
		SubmissionID: "sub-1",
		Sent:         true,
		Relay:        &relay.Response{Success: true, Message: "Email sent"},
		Redirect:     "/account/access",
	}
	if diff := cmp.Diff(want.Relay, got.Relay); diff != "" {
		t.Fatalf("relay response mismatch (-want +got):\n%s", diff)
	}
	if got.Document == nil || got.Document.Filename != "form-submission-2024-06-10.pdf" || got.Document.Size == 0 {
		t.Fatalf("unexpected document info: %+v", got.Document)
	}
	got.Relay, got.Document = want.Relay, nil
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("response mismatch (-want +got):\n%s", diff)
	}

	if v := capture.fields.Get("tin"); v != "123-45-6789" {
		t.Fatalf("relay tin = %q", v)
	}
	if v := capture.fields.Get("access_key"); v != "test-key" {
		t.Fatalf("relay access_key = %q", v)
	}
	if name := capture.files["photo"]; name != "id.png" {
		t.Fatalf("relay photo = %q", name)
	}

	stored, err := st.Load(context.Background())
	if err != nil || stored == nil {
		t.Fatalf("load stored snapshot: %v %v", stored, err)
	}
	if v, _ := stored.String("TIN"); v != "123-45-6789" {
		t.Fatalf("stored TIN = %q", v)
	}
	if _, ok := stored.Get("Photo ID"); ok {
		t.Fatalf("file control leaked into the snapshot")
	}
}

func TestHandler_ValidationFailure(t *testing.T) {
	srv := relayServer(t, http.StatusOK, `{"success":true}`, nil)
	h, st := newHandler(t, srv.URL)

	values := validValues()
	values.Set("dobMonth", "02")
	values.Set("dobDay", "30")
	values.Set("zip5", "1234")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, multipartRequest(t, "/api/submit", values, nil))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", rec.Code)
	}
	got := decode(t, rec)
	wantInline := map[string]string{
		"Date of Birth-error": "Date of Birth is not a valid calendar date",
		"ZIP-error":           "ZIP must be 5 digits",
	}
	if diff := cmp.Diff(wantInline, got.Inline); diff != "" {
		t.Fatalf("inline messages mismatch (-want +got):\n%s", diff)
	}
	if got.Valid || got.Sent {
		t.Fatalf("expected invalid, unsent response: %+v", got)
	}

	if snap, _ := st.Load(context.Background()); snap != nil {
		t.Fatalf("invalid submission must not be saved")
	}
}

func TestHandler_RelayFailureKeepsSnapshot(t *testing.T) {
	srv := relayServer(t, http.StatusInternalServerError, `{"success":false,"message":"boom"}`, nil)
	h, st := newHandler(t, srv.URL)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, multipartRequest(t, "/api/submit", validValues(), nil))

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected status 502, got %d", rec.Code)
	}
	got := decode(t, rec)
	if !strings.Contains(got.Error, "boom") {
		t.Fatalf("expected relay message in error, got %q", got.Error)
	}
	if got.Document == nil {
		t.Fatalf("expected document info despite relay failure")
	}
	if snap, _ := st.Load(context.Background()); snap == nil {
		t.Fatalf("snapshot should remain saved after relay failure")
	}
}

func TestHandler_PDFFormat(t *testing.T) {
	srv := relayServer(t, http.StatusOK, `{"success":true}`, nil)
	h, _ := newHandler(t, srv.URL)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, multipartRequest(t, "/api/submit?format=pdf", validValues(), nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("expected application/pdf, got %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "form-submission-2024-06-10.pdf") {
		t.Fatalf("unexpected content disposition %q", cd)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")) {
		t.Fatalf("expected PDF body")
	}
}

func TestHandler_URLEncodedBody(t *testing.T) {
	srv := relayServer(t, http.StatusOK, `{"success":true}`, nil)
	h, _ := newHandler(t, srv.URL)

	req := httptest.NewRequest(http.MethodPost, "/api/submit", strings.NewReader(validValues().Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandler_MethodAndConfiguration(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/submit", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status 405, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	NewHandler().ServeHTTP(rec, multipartRequest(t, "/api/submit", validValues(), nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503 without flow, got %d", rec.Code)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{flow.ErrValidation, http.StatusUnprocessableEntity},
		{flow.ErrSubmitInProgress, http.StatusConflict},
		{flow.ErrDeclined, http.StatusPreconditionFailed},
		{relay.ErrRejected, http.StatusBadGateway},
		{&url.Error{Op: "Post", URL: "http://relay", Err: io.EOF}, http.StatusBadGateway},
		{io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Fatalf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
