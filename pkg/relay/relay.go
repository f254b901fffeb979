package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-formflow/pkg/model"
)

const (
	// DefaultEndpoint is the Web3Forms submission endpoint.
	DefaultEndpoint = "https://api.web3forms.com/submit"
	// DefaultSubject is used when the form carries no subject control.
	DefaultSubject = "Website Form Submission"

	fieldAccessKey = "access_key"
	fieldSubject   = "subject"

	maxResponseBytes = 1 << 20
)

var (
	// ErrNotConfigured is returned by Send when no access key is set.
	ErrNotConfigured = errors.New("relay: access key is not configured")
	// ErrRejected wraps non-2xx or success:false responses.
	ErrRejected = errors.New("relay: submission rejected")
)

// Response is the relay's JSON reply.
type Response struct {
	Success    bool           `json:"success"`
	Message    string         `json:"message,omitempty"`
	Data       map[string]any `json:"data,omitempty"`
	StatusCode int            `json:"-"`
}

// Option customises a Client.
type Option func(*Client)

// WithEndpoint overrides the relay URL.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(endpoint); trimmed != "" {
			c.endpoint = trimmed
		}
	}
}

// WithAccessKey sets the relay credential. Keep it in server configuration.
func WithAccessKey(key string) Option {
	return func(c *Client) {
		c.accessKey = strings.TrimSpace(key)
	}
}

// WithSubject overrides the default subject.
func WithSubject(subject string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(subject); trimmed != "" {
			c.subject = trimmed
		}
	}
}

// WithHTTPClient injects the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithGroups overrides the combined-field groups flattened into the payload.
func WithGroups(groups ...model.Group) Option {
	return func(c *Client) {
		c.groups = append([]model.Group(nil), groups...)
	}
}

// Client posts form submissions to a third-party relay.
type Client struct {
	endpoint  string
	accessKey string
	subject   string
	http      *http.Client
	groups    []model.Group
}

// New constructs a Client with the default endpoint, subject and groups.
func New(options ...Option) *Client {
	c := &Client{
		endpoint: DefaultEndpoint,
		subject:  DefaultSubject,
		http:     &http.Client{Timeout: 30 * time.Second},
		groups:   model.DefaultGroups(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(c)
	}
	return c
}

// Configured reports whether an access key is present.
func (c *Client) Configured() bool {
	return c != nil && c.accessKey != ""
}

// Payload is an encoded multipart body.
type Payload struct {
	Body        []byte
	ContentType string
}

// BuildPayload encodes the form as multipart data: access_key, each present
// group under its flattened key, every other participating control by name,
// files as binary parts, and a subject (defaulted when the form has none).
func (c *Client) BuildPayload(form model.Form) (Payload, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	written := make(map[string]bool)

	writeField := func(name, value string) error {
		written[name] = true
		return w.WriteField(name, value)
	}

	if c.accessKey != "" {
		if err := writeField(fieldAccessKey, c.accessKey); err != nil {
			return Payload{}, err
		}
	}

	constituents := make(map[string]bool)
	for _, group := range c.groups {
		joined := group.Join(form)
		if joined == "" {
			continue
		}
		if err := writeField(group.FieldKey(), joined); err != nil {
			return Payload{}, err
		}
		for _, name := range group.Names {
			constituents[name] = true
		}
	}

	for _, control := range form.Controls {
		name := control.Key()
		if !control.Participates() || constituents[name] || name == fieldAccessKey {
			continue
		}
		switch control.Type {
		case model.ControlFile:
			if control.File == nil {
				continue
			}
			if err := writeFile(w, name, control.File); err != nil {
				return Payload{}, fmt.Errorf("relay: attach %q: %w", name, err)
			}
			written[name] = true
			continue
		case model.ControlCheckbox:
			value := ""
			if control.Checked {
				value = control.Value
				if value == "" {
					value = "on"
				}
			}
			if err := writeField(name, value); err != nil {
				return Payload{}, err
			}
			continue
		case model.ControlRadio:
			if !control.Checked {
				continue
			}
		case model.ControlSelect:
			selected := control.SelectedOptions()
			if len(selected) > 0 {
				for _, opt := range selected {
					if err := writeField(name, opt.Value); err != nil {
						return Payload{}, err
					}
					if !control.Multiple {
						break
					}
				}
				continue
			}
		}
		if err := writeField(name, control.Value); err != nil {
			return Payload{}, err
		}
	}

	if !written[fieldSubject] {
		if err := writeField(fieldSubject, c.subject); err != nil {
			return Payload{}, err
		}
	}

	if err := w.Close(); err != nil {
		return Payload{}, err
	}
	return Payload{Body: buf.Bytes(), ContentType: w.FormDataContentType()}, nil
}

func writeFile(w *multipart.Writer, field string, file *model.File) error {
	filename := file.Name
	if filename == "" {
		filename = field
	}
	part, err := w.CreateFormFile(field, filename)
	if err != nil {
		return err
	}
	_, err = part.Write(file.Data)
	return err
}

// Send posts the form. Non-2xx responses and replies with success=false are
// returned as ErrRejected along with the decoded response. Send never retries.
func (c *Client) Send(ctx context.Context, form model.Form) (Response, error) {
	if !c.Configured() {
		return Response{}, ErrNotConfigured
	}
	payload, err := c.BuildPayload(form)
	if err != nil {
		return Response{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload.Body))
	if err != nil {
		return Response{}, fmt.Errorf("relay: build request: %w", err)
	}
	req.Header.Set("Content-Type", payload.ContentType)
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("relay: send: %w", err)
	}
	defer res.Body.Close()

	var out Response
	body, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		return Response{StatusCode: res.StatusCode}, fmt.Errorf("relay: read response: %w", err)
	}
	// tolerate non-JSON bodies; status drives the outcome
	_ = json.Unmarshal(body, &out)
	out.StatusCode = res.StatusCode

	if res.StatusCode < 200 || res.StatusCode > 299 {
		message := out.Message
		if message == "" {
			message = fmt.Sprintf("request failed: %d", res.StatusCode)
		}
		return out, fmt.Errorf("%w: %s", ErrRejected, message)
	}
	if !out.Success {
		message := out.Message
		if message == "" {
			message = "relay reported failure"
		}
		return out, fmt.Errorf("%w: %s", ErrRejected, message)
	}
	return out, nil
}
