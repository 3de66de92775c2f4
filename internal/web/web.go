// Package web renders the portal's pages inside the shared layout shell.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/authportal/authportal-go/internal/model"
	"github.com/authportal/authportal-go/internal/notify"
	"github.com/authportal/authportal-go/internal/validation"
)

//go:embed templates/*.html
var templatesFS embed.FS

var pageNames = []string{"home", "about", "login", "register", "error"}

// Page is the data every page template receives.
type Page struct {
	Title   string
	Message string
	Session *model.Session
	Toasts  []notify.Notification
	Form    *FormView
	Year    int
}

// FormView holds what a form page echoes back after a failed submit.
// Passwords are never put into Values.
type FormView struct {
	Values map[string]string
	Errors validation.FieldErrors
}

// NewFormView returns an empty view.
func NewFormView() *FormView {
	return &FormView{Values: map[string]string{}, Errors: validation.FieldErrors{}}
}

// Value returns the echoed value of a field.
func (f *FormView) Value(field string) string {
	if f == nil {
		return ""
	}
	return f.Values[field]
}

// Error returns the first error message of a field.
func (f *FormView) Error(field string) string {
	if f == nil {
		return ""
	}
	return f.Errors.First(field)
}

// Renderer executes the page templates.
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer parses the layout once per page.
func NewRenderer() (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		t, err := template.ParseFS(templatesFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parsing %s template: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

// Render writes page name to w. Output is buffered so a template error
// never leaves a half-written page.
func (r *Renderer) Render(w io.Writer, name string, data Page) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}
	if data.Year == 0 {
		data.Year = time.Now().Year()
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("rendering %s: %w", name, err)
	}
	_, err := buf.WriteTo(w)
	return err
}
