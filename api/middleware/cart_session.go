package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/kynkyro/shaderstore-backend/api/responses"
	"github.com/kynkyro/shaderstore-backend/pkg/auth"
	"github.com/kynkyro/shaderstore-backend/pkg/config"
	pkgerrors "github.com/kynkyro/shaderstore-backend/pkg/errors"
	"github.com/kynkyro/shaderstore-backend/pkg/logger"
)

const cartTokenHeader = "X-Cart-Token"

// CartSession scopes every request to an anonymous shopper. A valid token in
// the X-Cart-Token header is honored; anything else gets a fresh identity. The
// active token is always echoed back so the browser can persist it.
func CartSession(cfg config.CartAuthConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			var shopperID string
			token := strings.TrimSpace(r.Header.Get(cartTokenHeader))
			if token != "" {
				parsed, err := auth.ParseCartToken(cfg, token)
				if err == nil {
					shopperID = parsed
				} else if logg != nil {
					logg.Warn(logg.WithField(ctx, "reason", err.Error()), "cart token rejected, issuing a new session")
				}
			}

			if shopperID == "" {
				minted, id, err := auth.MintCartToken(cfg, time.Now(), "")
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint cart token"))
					return
				}
				token = minted
				shopperID = id
			}

			w.Header().Set(cartTokenHeader, token)
			ctx = WithShopperID(ctx, shopperID)
			if logg != nil {
				ctx = logg.WithShopperID(ctx, shopperID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
