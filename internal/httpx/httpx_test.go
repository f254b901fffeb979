package httpx

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type teapot struct{}

func (teapot) Error() string   { return "teapot" }
func (teapot) StatusCode() int { return http.StatusTeapot }

func TestMountPath(t *testing.T) {
	tests := []struct {
		base, route, want string
	}{
		{"", "/api/access", "/api/access"},
		{"/", "api/access", "/api/access"},
		{"forms/", "/submit", "/forms/submit"},
		{"/forms", "", "/forms/"},
	}
	for _, tt := range tests {
		if got := MountPath(tt.base, tt.route); got != tt.want {
			t.Fatalf("MountPath(%q, %q) = %q, want %q", tt.base, tt.route, got, tt.want)
		}
	}
}

func TestWriteGuardError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: http.StatusForbidden},
		{name: "plain", err: errors.New("nope"), want: http.StatusForbidden},
		{name: "status", err: teapot{}, want: http.StatusTeapot},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteGuardError(rec, tt.err)
			if rec.Code != tt.want {
				t.Fatalf("expected status %d, got %d", tt.want, rec.Code)
			}
		})
	}
}
