package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ray-remotestate/recipebox/database"
	"github.com/ray-remotestate/recipebox/database/dbhelper"
	"github.com/ray-remotestate/recipebox/middlewares"
	"github.com/ray-remotestate/recipebox/models"
	"github.com/ray-remotestate/recipebox/templates"
	"github.com/ray-remotestate/recipebox/utils"
)

func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	h.indexPage(w, r, http.StatusOK, "")
}

func (h *Handler) indexPage(w http.ResponseWriter, r *http.Request, status int, message string) {
	conn, err := database.ConnFromContext(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	names, err := dbhelper.ListSeedNames(r.Context(), conn)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, status, templates.Index, templates.View{Names: names, Message: message})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.indexPage(w, r, http.StatusBadRequest, msgWrongCredentials)
		return
	}
	username := strings.TrimSpace(r.PostForm.Get("uname"))
	password := r.PostForm.Get("passw")
	if username == "" || password == "" {
		h.indexPage(w, r, http.StatusBadRequest, msgWrongCredentials)
		return
	}

	conn, err := database.ConnFromContext(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	user, err := dbhelper.GetUserByPassword(r.Context(), conn, username, password)
	if errors.Is(err, dbhelper.ErrInvalidCredentials) {
		h.indexPage(w, r, http.StatusOK, msgWrongCredentials)
		return
	} else if err != nil {
		h.fail(w, r, err)
		return
	}

	token, err := utils.GenerateSessionToken(h.secret, models.Identity{Username: user.Username, Email: user.Email}, h.sessionTTL)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	middlewares.SetSession(w, token, h.sessionTTL, h.secureCookie)
	middlewares.Logger(r).WithField("username", user.Username).Info("user logged in")
	http.Redirect(w, r, "/home", http.StatusSeeOther)
}

func (h *Handler) Signout(w http.ResponseWriter, r *http.Request) {
	middlewares.ClearSession(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, templates.Signup, templates.View{Title: "Sign up"})
}

func (h *Handler) AddUser(w http.ResponseWriter, r *http.Request) {
	signup := func(status int, message string) {
		h.render(w, r, status, templates.Signup, templates.View{Title: "Sign up", Message: message})
	}

	if err := r.ParseForm(); err != nil {
		signup(http.StatusBadRequest, msgInvalidEntry)
		return
	}
	username := strings.TrimSpace(r.PostForm.Get("uname"))
	email := strings.TrimSpace(r.PostForm.Get("email"))
	password := r.PostForm.Get("passw")
	if username == "" || email == "" || password == "" {
		signup(http.StatusBadRequest, msgInvalidEntry)
		return
	}

	conn, err := database.ConnFromContext(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	hashedPassword, err := utils.HashPassword(password)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	err = dbhelper.RegisterUser(r.Context(), conn, username, email, hashedPassword)
	if errors.Is(err, dbhelper.ErrUserExists) {
		signup(http.StatusOK, msgUserExists)
		return
	} else if err != nil {
		h.fail(w, r, err)
		return
	}

	middlewares.Logger(r).WithField("username", username).Info("user signed up")
	signup(http.StatusOK, msgSignupOK)
}
