// Package pages renders the fixed HTML bodies served by the HTTP and Lambda
// surfaces. All values go through html/template escaping.
package pages

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// DefaultLogoURL is the image shown on the home page.
const DefaultLogoURL = "https://lukach.net/images/lunker.png"

type deniedData struct {
	SignInURL string
}

type homeData struct {
	LogoURL string
	Email   string
}

type rootData struct {
	SignInURL string
}

type tokenData struct {
	IDToken string
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return buf.String(), nil
}

// Denied renders the access denied page. signInURL may be empty.
func Denied(signInURL string) (string, error) {
	return render("denied.html", deniedData{SignInURL: signInURL})
}

// InvalidRequest renders the page for malformed callback requests.
func InvalidRequest() (string, error) {
	return render("invalid.html", nil)
}

// Home renders the landing page for signed-in users.
func Home(email string) (string, error) {
	return render("home.html", homeData{LogoURL: DefaultLogoURL, Email: email})
}

// Root renders the public entry page with a sign-in link.
func Root(signInURL string) (string, error) {
	return render("root.html", rootData{SignInURL: signInURL})
}

// Token renders the final page of html mode. It keeps the id token in
// session storage for the app's own scripts and does not navigate further.
func Token(idToken string) (string, error) {
	return render("token.html", tokenData{IDToken: idToken})
}
