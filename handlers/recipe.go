package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ray-remotestate/recipebox/database"
	"github.com/ray-remotestate/recipebox/database/dbhelper"
	"github.com/ray-remotestate/recipebox/templates"
)

func (h *Handler) Recipes(w http.ResponseWriter, r *http.Request) {
	conn, err := database.ConnFromContext(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	names, err := dbhelper.ListRecipeNames(r.Context(), conn)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, templates.Recipes, templates.View{Title: "Recipes", RecipeNames: names})
}

// DisplayRecipe renders /display_recipe?type=<recipe name>.
func (h *Handler) DisplayRecipe(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("type"))
	if name == "" {
		h.NotFound(w, r)
		return
	}

	identity, conn, err := h.user(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	detail, err := dbhelper.RecipeDetail(r.Context(), conn, identity.Username, name)
	if errors.Is(err, dbhelper.ErrRecipeNotFound) {
		h.NotFound(w, r)
		return
	} else if err != nil {
		h.fail(w, r, err)
		return
	}

	h.render(w, r, http.StatusOK, templates.DisplayRecipe, templates.View{Title: detail.Name, Recipe: detail})
}
