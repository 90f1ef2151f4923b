package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/braderie/caisse-backend/api/responses"
	"github.com/braderie/caisse-backend/pkg/config"
	pkgerrors "github.com/braderie/caisse-backend/pkg/errors"
	"github.com/braderie/caisse-backend/pkg/logger"
)

const adminCodeHeader = "X-Admin-Code"

// RequireAdminCode guards privileged operations behind the shared operator
// code from configuration.
func RequireAdminCode(cfg config.AdminConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Code == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "admin code not configured"))
				return
			}

			provided := strings.TrimSpace(r.Header.Get(adminCodeHeader))
			if provided == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "admin code required"))
				return
			}
			if subtle.ConstantTimeCompare([]byte(provided), []byte(cfg.Code)) != 1 {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "invalid admin code"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
