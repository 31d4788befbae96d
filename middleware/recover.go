package middleware

import (
	"log"
	"net/http"
	"runtime/debug"

	"github.com/kalp9197/luxe-ecommerce-site/pkg"
)

// Recover turns a handler panic into a 500 envelope. http.ErrAbortHandler
// is re-panicked so net/http can abort the connection as intended.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			log.Printf("[http] panic serving %s %s: %v\n%s", r.Method, r.URL.Path, rec, debug.Stack())
			pkg.ErrorWithMessage(w, http.StatusInternalServerError, "internal server error")
		}()

		next.ServeHTTP(w, r)
	})
}

// NotFound answers every route the mux does not know.
func NotFound(w http.ResponseWriter, r *http.Request) {
	pkg.ErrorWithMessage(w, http.StatusNotFound, "Not Found - "+r.URL.Path)
}
