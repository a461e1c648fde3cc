package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/tasktrackhq/tasktrack-api/internal/api/shared"
)

// dueDateLayouts lists the accepted due date forms, tried in order.
// Clients send either a full timestamp or a bare date.
var dueDateLayouts = []string{time.RFC3339, "2006-01-02"}

const invalidDueDateMessage = "Invalid due_date format. Use YYYY-MM-DD."

// getUserIDFromContext extracts the authenticated user's ID placed in
// the request context by the authentication middleware.
func getUserIDFromContext(r *http.Request) (int64, bool) {
	return shared.UserIDFromContext(r.Context())
}

// requireUserID extracts the authenticated user's ID or writes a 401
// response. A missing ID means the route was wired without the
// authentication middleware.
func requireUserID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		w.Header().Set("WWW-Authenticate", "Bearer")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Could not validate credentials")
		return 0, false
	}
	return userID, true
}

// getPathID extracts a numeric ID from the URL path. A non-integer
// value addresses a resource that cannot exist, so it is answered with
// the same not-found message as an unknown ID.
func getPathID(w http.ResponseWriter, r *http.Request, notFoundMessage string) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusNotFound, notFoundMessage)
		return 0, false
	}
	return id, true
}

// parseDueDate parses a client-supplied due date, accepting an RFC 3339
// timestamp or a bare YYYY-MM-DD date.
func parseDueDate(value string) (time.Time, error) {
	for _, layout := range dueDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported due date %q", value)
}
