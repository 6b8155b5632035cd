package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/hlog"

	"github.com/madhava-poojari/academy-api/internal/store"
	"github.com/madhava-poojari/academy-api/internal/utils"
)

func HealthHandler(s *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		err := s.Ping(ctx)
		ok := err == nil
		data := map[string]interface{}{
			"db":   ok,
			"time": time.Now().UTC(),
		}
		if !ok {
			hlog.FromRequest(r).Error().Err(err).Msg("health check: database unreachable")
			utils.WriteJSONResponse(w, http.StatusServiceUnavailable, false, "db unreachable", data, nil)
			return
		}
		utils.WriteJSONResponse(w, http.StatusOK, true, "ok", data, nil)
	}
}
