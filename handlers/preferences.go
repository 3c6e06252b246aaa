package handlers

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/ray-remotestate/recipebox/database/dbhelper"
	"github.com/ray-remotestate/recipebox/middlewares"
	"github.com/ray-remotestate/recipebox/models"
	"github.com/ray-remotestate/recipebox/templates"
)

func (h *Handler) Preferences(w http.ResponseWriter, r *http.Request) {
	h.preferencesPage(w, r, http.StatusOK, "")
}

func (h *Handler) preferencesPage(w http.ResponseWriter, r *http.Request, status int, message string) {
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
	allergies, err := dbhelper.AllergyPreferences(r.Context(), conn, identity.Username)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.render(w, r, status, templates.Preferences, templates.View{
		Title:     "Preferences",
		Message:   message,
		Pantry:    pantry,
		Allergies: allergies,
	})
}

// ChangeAllergies replaces the user's declared allergies with the checked
// allergen boxes. An empty submission clears them all.
func (h *Handler) ChangeAllergies(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.preferencesPage(w, r, http.StatusBadRequest, msgInvalidEntry)
		return
	}

	identity, conn, err := h.user(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	changes, err := dbhelper.SyncUserAllergies(r.Context(), conn, identity.Username, r.PostForm["allergen"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !changes.Empty() {
		middlewares.Logger(r).WithFields(logrus.Fields{
			"username": identity.Username,
			"added":    changes.Add,
			"removed":  changes.Remove,
		}).Info("allergies updated")
	}
	http.Redirect(w, r, "/preferences", http.StatusSeeOther)
}
