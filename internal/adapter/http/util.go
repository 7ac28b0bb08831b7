package adapthttp

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"

	"itemboard/internal/app"
	"itemboard/internal/domain"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}

func parseJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	return nil
}

// statusForError maps typed service failures to HTTP status codes.
func statusForError(err error) int {
	var aerr *domain.AuthError
	if errors.As(err, &aerr) {
		switch aerr.Kind {
		case domain.AuthInvalidEmail, domain.AuthWeakPassword:
			return http.StatusBadRequest
		case domain.AuthEmailInUse:
			return http.StatusConflict
		case domain.AuthInvalidCredentials, domain.AuthUserNotFound, domain.AuthPopupClosed:
			return http.StatusUnauthorized
		default:
			return http.StatusInternalServerError
		}
	}

	var serr *domain.StoreError
	if errors.As(err, &serr) {
		switch serr.Kind {
		case domain.StoreNotFound:
			return http.StatusNotFound
		case domain.StorePermissionDenied:
			return http.StatusForbidden
		case domain.StoreNetworkUnavailable:
			return http.StatusServiceUnavailable
		default:
			return http.StatusInternalServerError
		}
	}

	switch {
	case errors.Is(err, app.ErrTitleRequired),
		errors.Is(err, app.ErrDescriptionRequired),
		errors.Is(err, app.ErrOwnerRequired):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func withNoCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

func spaFromDisk(dir string) http.Handler {
	fileServer := http.FileServer(http.Dir(dir))
	indexPath := path.Join(dir, "index.html")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqPath := path.Clean(r.URL.Path)
		if reqPath == "/" {
			http.ServeFile(w, r, indexPath)
			return
		}

		staticPath := path.Join(dir, reqPath)
		if _, err := os.Stat(staticPath); err == nil {
			fileServer.ServeHTTP(w, r)
			return
		}

		http.ServeFile(w, r, indexPath)
	})
}
