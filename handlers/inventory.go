package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ray-remotestate/recipebox/database/dbhelper"
	"github.com/ray-remotestate/recipebox/models"
	"github.com/ray-remotestate/recipebox/templates"
)

const formDateLayout = "2006-01-02"

// Home shows what expires within the configured window and what can be
// cooked with it. ignore_allergies=1 lifts the allergy filter.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	identity, conn, err := h.user(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ignoreAllergies := r.URL.Query().Get("ignore_allergies") == "1"

	pantry, err := dbhelper.LoadPantry(r.Context(), conn, identity.Username, h.now(), h.soonDays)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	availability, err := dbhelper.AvailableRecipes(r.Context(), conn, identity.Username, pantry.Expiring, !ignoreAllergies)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.render(w, r, http.StatusOK, templates.Home, templates.View{
		Title:           "Home",
		Today:           h.today(),
		Pantry:          pantry,
		Availability:    availability,
		IgnoreAllergies: ignoreAllergies,
	})
}

func (h *Handler) Inventory(w http.ResponseWriter, r *http.Request) {
	h.inventoryPage(w, r, http.StatusOK, "")
}

// inventoryPage treats every item as expiring so each one gets a
// priority bucket.
func (h *Handler) inventoryPage(w http.ResponseWriter, r *http.Request, status int, message string) {
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
	availability, err := dbhelper.AvailableRecipes(r.Context(), conn, identity.Username, pantry.Expiring, true)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.render(w, r, status, templates.Inventory, templates.View{
		Title:        "Inventory",
		Message:      message,
		Pantry:       pantry,
		Availability: availability,
	})
}

func parseNewItem(r *http.Request) (dbhelper.NewInventoryItem, error) {
	if err := r.ParseForm(); err != nil {
		return dbhelper.NewInventoryItem{}, err
	}

	var item dbhelper.NewInventoryItem
	item.Description = strings.TrimSpace(r.PostForm.Get("itemname"))
	if item.Description == "" {
		return item, errors.New("item name is required")
	}

	quantity, err := strconv.Atoi(r.PostForm.Get("quantity"))
	if err != nil || quantity < 1 {
		return item, errors.New("quantity must be a positive integer")
	}
	item.Quantity = quantity

	item.ExpirationDate, err = time.Parse(formDateLayout, r.PostForm.Get("exp_date"))
	if err != nil {
		return item, errors.New("expiration date must be YYYY-MM-DD")
	}

	if raw := strings.TrimSpace(r.PostForm.Get("calories")); raw != "" {
		calories, err := strconv.Atoi(raw)
		if err != nil || calories < 0 {
			return item, errors.New("calories must be a non-negative integer")
		}
		item.Calories = calories
	}
	return item, nil
}

func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	item, err := parseNewItem(r)
	if err != nil {
		h.inventoryPage(w, r, http.StatusBadRequest, msgInvalidEntry)
		return
	}

	identity, conn, err := h.user(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	err = dbhelper.AddInventoryItem(r.Context(), conn, identity.Username, item)
	if errors.Is(err, dbhelper.ErrNoInventory) {
		h.inventoryPage(w, r, http.StatusOK, msgNoInventory)
		return
	} else if err != nil {
		h.fail(w, r, err)
		return
	}
	http.Redirect(w, r, "/inventory", http.StatusSeeOther)
}

func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.inventoryPage(w, r, http.StatusBadRequest, msgInvalidEntry)
		return
	}
	ingredientID, err := strconv.ParseInt(r.PostForm.Get("delete_invent_item"), 10, 64)
	if err != nil {
		h.inventoryPage(w, r, http.StatusBadRequest, msgInvalidEntry)
		return
	}

	identity, conn, err := h.user(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := dbhelper.RemoveInventoryItem(r.Context(), conn, identity.Username, ingredientID); err != nil {
		h.fail(w, r, err)
		return
	}
	http.Redirect(w, r, "/inventory", http.StatusSeeOther)
}
