package httpapi

import (
	"encoding/json"
	"net/http"

	"beanstand/internal/errs"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"detail": msg})
}

// fail maps a service error onto an HTTP status. Role failures arrive here
// as authorization errors and become 403; missing or bad tokens never reach
// this path, the middleware answers those with 401.
func fail(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch errs.KindOf(err) {
	case errs.KindValidation:
		status = http.StatusBadRequest
	case errs.KindNotFound:
		status = http.StatusNotFound
	case errs.KindAuthorization:
		status = http.StatusForbidden
	case errs.KindConflict:
		status = http.StatusConflict
	}
	writeError(w, status, err.Error())
}
