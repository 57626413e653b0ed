// ABOUTME: Access logging for the session API in the app's key=value log style.
// ABOUTME: Tags each line with the session ID once routing has resolved it.
package webui

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// loggedResponse counts what the handler wrote. The status starts at 200
// because handlers that never call WriteHeader still respond OK.
type loggedResponse struct {
	http.ResponseWriter
	status int
	size   int
}

func (lr *loggedResponse) WriteHeader(code int) {
	lr.status = code
	lr.ResponseWriter.WriteHeader(code)
}

func (lr *loggedResponse) Write(p []byte) (int, error) {
	n, err := lr.ResponseWriter.Write(p)
	lr.size += n
	return n, err
}

// accessLog logs one line per request. The session URL parameter is read
// after the handler ran, when chi has populated the route context; requests
// outside a session log "-".
func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lr := &loggedResponse{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(lr, r)

		session := chi.URLParam(r, "id")
		if session == "" {
			session = "-"
		}
		log.Printf("api %s %s session=%s status=%d size=%d elapsed=%s",
			r.Method,
			r.URL.Path,
			session,
			lr.status,
			lr.size,
			time.Since(start).Round(time.Microsecond),
		)
	})
}
