package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

// Greeting is the body served on GET /.
const Greeting = "hi from shiva .."

// Handler holds shared dependencies for all HTTP handlers.
type Handler struct {
	greeting []byte
}

// New returns a Handler serving the standard greeting.
func New() *Handler {
	return &Handler{greeting: []byte(Greeting)}
}

// NewRouter returns the application router. GET / is its only route; other
// paths get the mux default 404 and other methods on / the default 405.
func NewRouter(h *Handler) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/", h.Hello).Methods(http.MethodGet)
	return r
}

func writeText(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
