package notify

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFiles embed.FS

var templates = template.Must(template.ParseFS(templateFiles, "templates/*.html"))

// NewPostEmail is the data of templates/new_post.html.
type NewPostEmail struct {
	Author string
	Title  string
	Link   string
}

// PasswordResetEmail is the data of templates/password_reset.html.
type PasswordResetEmail struct {
	Username string
	Link     string
	ValidFor string
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return buf.String(), nil
}

func newPostSubject(author string) string {
	return fmt.Sprintf("New Blog from %s!", author)
}
