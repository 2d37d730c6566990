package email

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html"
	"html/template"
	"io/fs"
	"path"
	"strings"
	"sync"
)

//go:embed templates/*.html
var templateFS embed.FS

// ErrUnknownTemplate is returned for a template id without a file.
var ErrUnknownTemplate = errors.New("unknown email template")

// Rendered is a message ready for delivery.
type Rendered struct {
	Subject string
	HTML    string
	Text    string
}

// funcs are available to every template. url marks links produced by the
// storage adapters as safe, including file:// links of local storage.
var funcs = template.FuncMap{
	"url": func(s string) template.URL { return template.URL(s) },
}

// Renderer renders templates/<id>.html files. Each file defines "subject",
// "text" and "html" blocks.
type Renderer struct {
	templates map[string]*template.Template
}

// NewRenderer parses every .html file of fsys.
func NewRenderer(fsys fs.FS) (*Renderer, error) {
	files, err := fs.Glob(fsys, "*.html")
	if err != nil {
		return nil, err
	}
	r := &Renderer{templates: make(map[string]*template.Template, len(files))}
	for _, f := range files {
		id := strings.TrimSuffix(path.Base(f), ".html")
		t, err := template.New(id).Funcs(funcs).Option("missingkey=error").ParseFS(fsys, f)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", f, err)
		}
		r.templates[id] = t
	}
	return r, nil
}

var (
	defaultRenderer    *Renderer
	defaultRendererErr error
	defaultRendererMu  sync.Once
)

// DefaultRenderer returns the renderer over the embedded templates.
func DefaultRenderer() (*Renderer, error) {
	defaultRendererMu.Do(func() {
		sub, err := fs.Sub(templateFS, "templates")
		if err != nil {
			defaultRendererErr = err
			return
		}
		defaultRenderer, defaultRendererErr = NewRenderer(sub)
	})
	return defaultRenderer, defaultRendererErr
}

// Render executes the template blocks with props.
func (r *Renderer) Render(id string, props map[string]any) (*Rendered, error) {
	t, ok := r.templates[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTemplate, id)
	}
	out := &Rendered{}
	for name, dst := range map[string]*string{"subject": &out.Subject, "html": &out.HTML, "text": &out.Text} {
		if t.Lookup(name) == nil {
			continue
		}
		var buf bytes.Buffer
		if err := t.ExecuteTemplate(&buf, name, props); err != nil {
			return nil, err
		}
		text := strings.TrimSpace(buf.String())
		if name != "html" {
			text = html.UnescapeString(text)
		}
		*dst = text
	}
	return out, nil
}

// Templates lists the template ids.
func (r *Renderer) Templates() []string {
	ids := make([]string, 0, len(r.templates))
	for id := range r.templates {
		ids = append(ids, id)
	}
	return ids
}
