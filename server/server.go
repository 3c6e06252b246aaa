package server

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/ray-remotestate/recipebox/handlers"
	"github.com/ray-remotestate/recipebox/middlewares"
)

type Server struct {
	Router *mux.Router
	server *http.Server
}

const (
	readTimeout       = 5 * time.Minute
	readHeaderTimeout = 30 * time.Second
	writeTimeout      = 5 * time.Minute
)

func SetupRoutes(h *handlers.Handler, db *sql.DB, sessionSecret []byte, metrics *middlewares.Metrics) *Server {
	router := mux.NewRouter()
	router.Use(middlewares.RequestID, middlewares.AccessLog, metrics.Instrument)
	router.NotFoundHandler = middlewares.RequestID(middlewares.AccessLog(http.HandlerFunc(h.NotFound)))

	router.HandleFunc("/health", h.Health).Methods("GET")
	router.Handle("/metrics", metrics.Handler()).Methods("GET")

	// every page checks out a connection and resolves the session cookie
	pages := router.NewRoute().Subrouter()
	pages.Use(
		middlewares.Conn(db, metrics, http.HandlerFunc(h.Unavailable)),
		middlewares.Session(sessionSecret),
	)

	pages.HandleFunc("/", h.Index).Methods("GET")
	pages.HandleFunc("/signup", h.Signup).Methods("GET")
	pages.HandleFunc("/app", h.Login).Methods("POST")
	pages.HandleFunc("/add_user", h.AddUser).Methods("POST")
	pages.HandleFunc("/signout", h.Signout).Methods("GET")
	pages.HandleFunc("/recipes", h.Recipes).Methods("GET")

	// signed in only
	userRoutes := pages.NewRoute().Subrouter()
	userRoutes.Use(middlewares.RequireUser)

	userRoutes.HandleFunc("/home", h.Home).Methods("GET")
	userRoutes.HandleFunc("/inventory", h.Inventory).Methods("GET")
	userRoutes.HandleFunc("/preferences", h.Preferences).Methods("GET")
	userRoutes.HandleFunc("/reviews", h.Reviews).Methods("GET")
	userRoutes.HandleFunc("/display_recipe", h.DisplayRecipe).Methods("GET", "POST")
	userRoutes.HandleFunc("/add_item_to_inventory", h.AddItem).Methods("POST")
	userRoutes.HandleFunc("/remove_item_from_inventory", h.RemoveItem).Methods("POST")
	userRoutes.HandleFunc("/add_review", h.AddReview).Methods("POST")
	userRoutes.HandleFunc("/delete_review", h.DeleteReview).Methods("POST")
	userRoutes.HandleFunc("/change_user_allergy", h.ChangeAllergies).Methods("POST")

	return &Server{
		Router: router,
		server: &http.Server{
			Handler:           router,
			ReadTimeout:       readTimeout,
			ReadHeaderTimeout: readHeaderTimeout,
			WriteTimeout:      writeTimeout,
		},
	}
}

// Run blocks until the server stops. It returns http.ErrServerClosed after
// Shutdown.
func (svr *Server) Run(addr string) error {
	svr.server.Addr = addr
	return svr.server.ListenAndServe()
}

func (svr *Server) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return svr.server.Shutdown(ctx)
}
