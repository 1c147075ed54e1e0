package handlers

import "net/http"

// Hello handles GET /.
// Returns the greeting as plain text.
func (h *Handler) Hello(w http.ResponseWriter, r *http.Request) {
	writeText(w, http.StatusOK, h.greeting)
}
