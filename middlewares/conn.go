package middlewares

import (
	"database/sql"
	"net/http"

	"github.com/ray-remotestate/recipebox/database"
)

// Conn checks a connection out of the pool for the lifetime of the request
// and releases it when the handler returns. When none can be acquired the
// unavailable handler answers instead.
func Conn(db *sql.DB, metrics *Metrics, unavailable http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			conn, err := db.Conn(r.Context())
			if err != nil {
				Logger(r).WithError(err).Error("failed to acquire database connection")
				if metrics != nil {
					metrics.connFailures.Inc()
				}
				unavailable.ServeHTTP(w, r)
				return
			}
			defer func() {
				if err := conn.Close(); err != nil {
					Logger(r).WithError(err).Warn("failed to release database connection")
				}
			}()

			next.ServeHTTP(w, r.WithContext(database.WithConn(r.Context(), conn)))
		})
	}
}
