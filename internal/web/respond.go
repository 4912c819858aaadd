package web

import (
    "encoding/json"
    "errors"
    "net/http"

    "github.com/local/printflow/internal/fetch"
    "github.com/local/printflow/internal/pdf"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
    w.Header().Set("Content-Type", "application/json")
    w.WriteHeader(status)
    _ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
    writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError maps the sentinel error categories onto HTTP codes:
// upstream fetch failures are a bad gateway, malformed documents and bad
// page lists are unprocessable, everything else is a server fault.
func writeDomainError(w http.ResponseWriter, err error) {
    switch {
    case errors.Is(err, fetch.ErrFetch):
        writeError(w, http.StatusBadGateway, err.Error())
    case errors.Is(err, pdf.ErrDecode), errors.Is(err, pdf.ErrExtract):
        writeError(w, http.StatusUnprocessableEntity, err.Error())
    default:
        writeError(w, http.StatusInternalServerError, err.Error())
    }
}
