package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
	"github.com/structura-group/pipeline-api/internal/config"
	"go.uber.org/zap"
)

// CORS builds the CORS middleware from configuration. Origin handling
// depends on config and environment: an explicit origin list is enforced as
// given, a "*" entry reflects any origin, and an empty list allows all
// origins in development but denies all cross-origin requests elsewhere.
func CORS(cfg *config.CORSConfig, environment string, logger *zap.Logger) func(http.Handler) http.Handler {
	options := cors.Options{
		AllowedMethods:   cfg.AllowedMethods,
		AllowedHeaders:   cfg.AllowedHeaders,
		ExposedHeaders:   cfg.ExposedHeaders,
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	}

	allowAny := func(r *http.Request, origin string) bool {
		return origin != ""
	}

	switch {
	case containsWildcard(cfg.AllowedOrigins):
		if !isDevLike(environment) {
			logger.Warn("CORS configured with wildcard origin outside development",
				zap.String("environment", environment))
		}
		options.AllowOriginFunc = allowAny

	case len(cfg.AllowedOrigins) > 0:
		options.AllowedOrigins = cfg.AllowedOrigins
		logger.Info("CORS configured with explicit origins",
			zap.Strings("origins", cfg.AllowedOrigins))

	case isDevLike(environment):
		options.AllowOriginFunc = allowAny
		logger.Info("CORS allowing all origins in development mode")

	default:
		// chi/cors treats an empty origin list as "*", so denial has to be
		// explicit
		options.AllowOriginFunc = func(r *http.Request, origin string) bool {
			return false
		}
		logger.Warn("CORS has no allowed origins, all cross-origin requests will be denied",
			zap.String("environment", environment))
	}

	return cors.Handler(options)
}

func containsWildcard(origins []string) bool {
	for _, origin := range origins {
		if origin == "*" {
			return true
		}
	}
	return false
}

func isDevLike(environment string) bool {
	return environment == "development" || environment == "local" || environment == ""
}
