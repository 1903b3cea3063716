package main

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/mux"
	"github.com/mager/auricle/config"
	"github.com/mager/auricle/dsp"
	"github.com/mager/auricle/handler/analyze"
	"github.com/mager/auricle/handler/health"
	"github.com/mager/auricle/logger"
	"github.com/mager/auricle/recommend"
	"github.com/mager/auricle/spotify"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// Route is an http.Handler that knows the mux pattern
// under which it will be registered.
type Route interface {
	http.Handler

	// Pattern reports the path at which this is registered.
	Pattern() string

	// Methods reports the HTTP methods the route accepts.
	Methods() []string
}

//	@title			Auricle
//	@version		1.0
//	@description	Estimates the tempo of an uploaded track and recommends record labels for its style

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

// @host		localhost:10000
// @BasePath	/
func main() {
	fx.New(
		Options(),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(func(*http.Server) {}),
	).Run()
}

// Options is the full dependency graph of the service.
func Options() fx.Option {
	return fx.Provide(
		NewHTTPServer,
		fx.Annotate(NewRouter, fx.ParamTags(`group:"routes"`)),

		config.Options,
		logger.Options,
		logger.ProvideSugar,
		spotify.Options,
		ProvideCatalog,
		ProvideConfigurer,
		fx.Annotate(dsp.NewAnalyzer, fx.As(new(analyze.Analyzer))),
		fx.Annotate(recommend.NewRecommender, fx.As(new(analyze.Recommender))),

		AsRoute(health.NewHealthHandler),
		AsRoute(analyze.NewAnalyzeHandler),
	)
}

// ProvideCatalog exposes the Spotify client to the recommender.
func ProvideCatalog(c *spotify.SpotifyClient) recommend.Catalog {
	return c
}

// ProvideConfigurer exposes the Spotify client to the health check.
func ProvideConfigurer(c *spotify.SpotifyClient) health.Configurer {
	return c
}

func NewHTTPServer(lc fx.Lifecycle, log *zap.SugaredLogger, cfg config.Config, router *mux.Router) *http.Server {
	handler := corsMiddleware(cfg.CORSOrigins, jsonMiddleware(router))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			log.Infow("starting HTTP server", "addr", srv.Addr)
			go srv.Serve(ln)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})

	return srv
}

// NewRouter registers every route with its methods. Preflight requests are
// answered by corsMiddleware before they reach the router.
func NewRouter(routes []Route) *mux.Router {
	r := mux.NewRouter()
	r.NotFoundHandler = errorHandler(http.StatusNotFound, "Not Found")
	r.MethodNotAllowedHandler = errorHandler(http.StatusMethodNotAllowed, "Method Not Allowed")
	for _, route := range routes {
		r.Handle(route.Pattern(), route).Methods(route.Methods()...)
	}
	return r
}

// AsRoute annotates the given constructor to state that
// it provides a route to the "routes" group.
func AsRoute(f any) any {
	return fx.Annotate(
		f,
		fx.As(new(Route)),
		fx.ResultTags(`group:"routes"`),
	)
}

// errorHandler answers unrouted requests with the same {detail} body the
// handlers use.
func errorHandler(status int, detail string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(analyze.ErrorResponse{Detail: detail})
	})
}

func jsonMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

func corsMiddleware(origins []string, next http.Handler) http.Handler {
	allowAll := len(origins) == 0 || slices.Contains(origins, "*")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		switch {
		case allowAll:
			w.Header().Set("Access-Control-Allow-Origin", "*")
		case origin != "" && slices.Contains(origins, origin):
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
		}

		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
