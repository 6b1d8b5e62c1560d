package api

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

type (
	API struct {
		s      *http.Server
		listen string
		ctx    context.Context
	}

	Config struct {
		Listen string
	}
)

func NewApi(ctx context.Context, c *Config, h *Handlers) *API {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	h.Register(mux)
	server := &http.Server{
		Addr:    c.Listen,
		Handler: logMiddleware(mux),
	}
	return &API{
		s:      server,
		listen: c.Listen,
		ctx:    ctx,
	}
}

func (a *API) Start() error {
	log.Debug().Msgf("listening on %v", a.listen)
	return a.s.ListenAndServe()
}

func (a *API) Close() {
	log.Debug().Msg("start graceful server shutdown")
	err := a.s.Shutdown(a.ctx)
	if err != nil {
		log.Error().Err(err).Msg("error while shutdowning server")
		return
	}
	log.Debug().Msg("server graceful shutdowned")
}

func logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := r
		start := time.Now()

		next.ServeHTTP(w, r)
		stop := time.Now()

		log.Debug().
			Str("remote", req.RemoteAddr).
			Str("user_agent", req.UserAgent()).
			Str("method", req.Method).
			Str("request uri", r.RequestURI).
			Dur("duration", stop.Sub(start)).
			Str("duration_human", stop.Sub(start).String()).
			Msgf("called url %s", req.URL)
	})
}
