package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/ray-remotestate/recipebox/database/dbhelper"
	"github.com/ray-remotestate/recipebox/middlewares"
	"github.com/ray-remotestate/recipebox/models"
	"github.com/ray-remotestate/recipebox/templates"
)

func (h *Handler) Reviews(w http.ResponseWriter, r *http.Request) {
	h.reviewsPage(w, r, http.StatusOK, "")
}

func (h *Handler) reviewsPage(w http.ResponseWriter, r *http.Request, status int, message string) {
	identity, conn, err := h.user(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	pantry, err := dbhelper.LoadPantry(r.Context(), conn, identity.Username, h.now(), models.AllItems)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	reviews, err := dbhelper.ListUserReviews(r.Context(), conn, identity.Username)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	names, err := dbhelper.ListRecipeNames(r.Context(), conn)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.render(w, r, status, templates.Reviews, templates.View{
		Title:       "Reviews",
		Message:     message,
		Pantry:      pantry,
		Reviews:     reviews,
		RecipeNames: names,
	})
}

func (h *Handler) AddReview(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.reviewsPage(w, r, http.StatusBadRequest, msgInvalidEntry)
		return
	}
	recipe := strings.TrimSpace(r.PostForm.Get("recipe"))
	stars, err := strconv.Atoi(r.PostForm.Get("rating"))
	if recipe == "" || err != nil || !models.ValidStars(stars) {
		h.reviewsPage(w, r, http.StatusBadRequest, msgInvalidEntry)
		return
	}
	text := strings.TrimSpace(r.PostForm.Get("review_text"))

	identity, conn, err := h.user(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	_, err = dbhelper.AddReview(r.Context(), conn, identity.Username, recipe, stars, text)
	switch {
	case errors.Is(err, dbhelper.ErrAlreadyReviewed):
		h.reviewsPage(w, r, http.StatusOK, msgAlreadyReviewed)
		return
	case errors.Is(err, dbhelper.ErrRecipeNotFound):
		h.reviewsPage(w, r, http.StatusOK, msgUnknownRecipe)
		return
	case err != nil:
		h.fail(w, r, err)
		return
	}
	http.Redirect(w, r, "/reviews", http.StatusSeeOther)
}

func (h *Handler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.reviewsPage(w, r, http.StatusBadRequest, msgInvalidEntry)
		return
	}
	reviewID, err := strconv.ParseInt(r.PostForm.Get("delete_review"), 10, 64)
	if err != nil {
		h.reviewsPage(w, r, http.StatusBadRequest, msgInvalidEntry)
		return
	}

	identity, conn, err := h.user(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	deleted, err := dbhelper.DeleteReview(r.Context(), conn, identity.Username, reviewID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !deleted {
		middlewares.Logger(r).WithField("review_id", reviewID).Debug("no review of this user to delete")
	}
	http.Redirect(w, r, "/reviews", http.StatusSeeOther)
}
