package infopage

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-formflow/pkg/gate"
)

const pageTemplate = `<!doctype html>
<html lang="en">
<head><meta charset="utf-8"><title>{{ page.Header }}</title></head>
<body>
<main id="content">
<h1>{{ page.Header }}</h1>
{% for section in page.Sections %}
<section id="{{ section.ID }}">
  <h2>{{ section.Title }}</h2>
  <div class="dividerline">&nbsp;</div>
  <ul>
  {% if section.Empty %}<li class="empty">{{ section.Empty }}</li>{% endif %}
  {% for field in section.Fields %}<li><strong>{{ field.Label }}:</strong> <pre>{{ field.Value }}</pre></li>
  {% endfor %}
  {% if section.Content %}<li><pre>{{ section.Content }}</pre></li>{% endif %}
  {% for item in section.Items %}<li><strong>{{ item.Label }}:</strong> <pre>{{ item.Status }} {{ item.Note }}</pre></li>
  {% endfor %}
  {% for sub in section.Subsections %}<li><strong>{{ sub.Title }}</strong></li>
    {% for field in sub.Fields %}<li><strong>{{ field.Label }}:</strong> <pre>{{ field.Value }}</pre></li>
    {% endfor %}
  {% endfor %}
  {% if section.Status %}<li><strong>{{ section.Status.Title }}</strong></li>
    {% for option in section.Status.Options %}<span class="status">{% if option.Checked %}&#9745;{% else %}&#9744;{% endif %} {{ option.Label }}</span>
    {% endfor %}
  {% endif %}
  {% if section.Link %}<li><a href="{{ section.Link.Href }}">{{ section.Link.Label }}</a></li>{% endif %}
  </ul>
</section>
{% endfor %}
</main>
</body>
</html>
`

// Renderer renders pages with an embedded pongo2 template. Output is
// autoescaped.
type Renderer struct {
	tpl *pongo2.Template
}

// NewRenderer parses the page template.
func NewRenderer() (*Renderer, error) {
	tpl, err := pongo2.FromString(pageTemplate)
	if err != nil {
		return nil, fmt.Errorf("infopage: parse template: %w", err)
	}
	return &Renderer{tpl: tpl}, nil
}

// Render writes page as HTML.
func (r *Renderer) Render(page Page, w io.Writer) error {
	if err := r.tpl.ExecuteWriter(pongo2.Context{"page": page}, w); err != nil {
		return fmt.Errorf("infopage: render: %w", err)
	}
	return nil
}

// Handler serves page merged with the snapshot read from loader on every GET.
func Handler(page Page, loader gate.Loader, renderer *Renderer) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", http.MethodGet+", "+http.MethodHead)
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		snap, err := loader.Load(r.Context())
		if err != nil {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		var buf bytes.Buffer
		if err := renderer.Render(Merge(page, snap), &buf); err != nil {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodHead {
			return
		}
		_, _ = w.Write(buf.Bytes())
	})
}
