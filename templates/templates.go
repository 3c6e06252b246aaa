// Package templates renders the server-side HTML pages.
package templates

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/ray-remotestate/recipebox/models"
)

//go:embed html/*.html
var htmlFS embed.FS

// Page names.
const (
	Index         = "index.html"
	Home          = "home.html"
	Inventory     = "inventory.html"
	Preferences   = "preferences.html"
	Recipes       = "recipes.html"
	Reviews       = "reviews.html"
	DisplayRecipe = "display_recipe.html"
	Signup        = "signup.html"
	Error         = "error.html"
)

// View is the data every page is executed with. Pages read only the fields
// they need.
type View struct {
	Title   string
	User    *models.Identity
	Message string
	Status  int
	Today   string

	Names           []string
	Pantry          models.Pantry
	Availability    models.Availability
	IgnoreAllergies bool
	Allergies       []models.AllergyPreference
	RecipeNames     []string
	Reviews         []models.Review
	Recipe          models.RecipeDetail
}

var funcs = template.FuncMap{
	"date":  models.FormatDate,
	"stars": func(n int) string { return strings.Repeat("★", n) + strings.Repeat("☆", models.MaxStars-n) },
	"seq": func(from, to int) []int {
		var out []int
		for i := from; i <= to; i++ {
			out = append(out, i)
		}
		return out
	},
}

type Renderer struct {
	tmpl *template.Template
}

func New() (*Renderer, error) {
	tmpl, err := template.New("").Funcs(funcs).ParseFS(htmlFS, "html/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Render executes the named page into a buffer first so a template error
// never leaves a half-written response behind.
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, data any) error {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("failed to render %s: %w", name, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
