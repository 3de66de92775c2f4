package web

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authportal/authportal-go/internal/model"
	"github.com/authportal/authportal-go/internal/notify"
	"github.com/authportal/authportal-go/internal/validation"
)

func render(t *testing.T, name string, page Page) string {
	t.Helper()
	r, err := NewRenderer()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, name, page))
	return buf.String()
}

func TestLayoutSignedOut(t *testing.T) {
	out := render(t, "home", Page{Title: "Home"})

	assert.Contains(t, out, "<title>Home · Auth Portal</title>")
	assert.Contains(t, out, `href="/login"`)
	assert.Contains(t, out, `href="/register"`)
	assert.NotContains(t, out, "Signed in as")
	assert.NotContains(t, out, "<script>", "no validation script without a form")
}

func TestLayoutSignedIn(t *testing.T) {
	sess := &model.Session{Email: "a@b.com", Name: "Alice", ExpiresAt: time.Now().Add(time.Hour)}
	out := render(t, "home", Page{Title: "Home", Session: sess})

	assert.Contains(t, out, "Signed in as Alice")
	assert.Contains(t, out, `action="/logout"`)
	assert.Contains(t, out, "Welcome, Alice")
}

func TestToasts(t *testing.T) {
	out := render(t, "about", Page{
		Title:  "About",
		Toasts: []notify.Notification{notify.Success("Login successful."), notify.Failure("<b>bad</b>")},
	})

	assert.Contains(t, out, `class="toast toast-success">Login successful.`)
	assert.Contains(t, out, "&lt;b&gt;bad&lt;/b&gt;", "messages are escaped")
}

func TestLoginFormEchoesValuesAndErrors(t *testing.T) {
	form := NewFormView()
	form.Values["email"] = "not-an-email"
	form.Errors = validation.FieldErrors{"email": {"Invalid email format"}}

	out := render(t, "login", Page{Title: "Login", Form: form})

	assert.Contains(t, out, `value="not-an-email"`)
	assert.Contains(t, out, "Invalid email format")
	assert.Contains(t, out, `data-validate="login"`)
	assert.Contains(t, out, "<script>")
}

func TestRegisterForm(t *testing.T) {
	out := render(t, "register", Page{Title: "Register", Form: NewFormView()})

	for _, field := range []string{"username", "email", "password", "confirmPassword"} {
		assert.Contains(t, out, `name="`+field+`"`)
	}
}

func TestUnknownPage(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)
	assert.Error(t, r.Render(&bytes.Buffer{}, "missing", Page{}))
}

func TestNilFormView(t *testing.T) {
	var f *FormView
	assert.Empty(t, f.Value("email"))
	assert.Empty(t, f.Error("email"))
}
