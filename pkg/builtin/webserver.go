package builtin

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/gantry/pkg/httputil"
	"github.com/platinummonkey/gantry/pkg/lifecycle"
	"github.com/platinummonkey/gantry/pkg/manager"
	"github.com/platinummonkey/gantry/pkg/observability"
	"github.com/platinummonkey/gantry/pkg/plugin"
)

const defaultListenAddr = "127.0.0.1:8677"

// WebServerPlugin serves the host's introspection endpoints for the
// lifetime of the run phase:
//
//	GET /healthz  liveness probe
//	GET /plugins  loaded plugins as JSON
//	GET /metrics  Prometheus metrics, when metrics are wired
//
// The listen address comes from its configuration section ("listen")
// and defaults to 127.0.0.1:8677.
type WebServerPlugin struct {
	*plugin.Static
	log     *logrus.Logger
	metrics *observability.Metrics

	mu    sync.RWMutex
	addr  string
	bound string
}

// NewWebServerPlugin creates the web server plugin. metrics may be
// nil, in which case /metrics is not served.
func NewWebServerPlugin(log *logrus.Logger, metrics *observability.Metrics) *WebServerPlugin {
	if log == nil {
		log = logrus.New()
	}
	w := &WebServerPlugin{
		Static: plugin.NewStatic(&plugin.Descriptor{
			Name:        "webserver",
			Version:     builtinVersion,
			Description: "Serves plugin, health and metrics endpoints over HTTP",
			Config: plugin.Config{
				"listen": defaultListenAddr,
			},
		}),
		log:     log,
		metrics: metrics,
		addr:    defaultListenAddr,
	}
	w.Contribute(lifecycle.OpReceiveConfig, plugin.Step{Name: "webserver.configure", Handler: w.configure})
	w.Contribute(lifecycle.OpRun, plugin.Step{Name: "webserver.serve", Handler: w.serve})
	return w
}

// SetListenAddr changes the default listen address. A "listen" key in
// the plugin's configuration section still takes precedence.
func (w *WebServerPlugin) SetListenAddr(addr string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.addr = addr
	w.Descriptor().Config["listen"] = addr
}

// Addr returns the address the server is bound to, useful when the
// configured address uses port 0.
func (w *WebServerPlugin) Addr() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.bound
}

func (w *WebServerPlugin) configure(ctx context.Context, args ...any) (any, error) {
	if len(args) == 0 {
		return nil, nil
	}
	if section, ok := args[0].(plugin.Config); ok {
		if listen := section.GetString("listen", ""); listen != "" {
			w.mu.Lock()
			w.addr = listen
			w.mu.Unlock()
		}
	}
	return nil, nil
}

func (w *WebServerPlugin) serve(ctx context.Context, args ...any) (any, error) {
	mgr, err := managerArg(args)
	if err != nil {
		return nil, err
	}

	w.mu.RLock()
	addr := w.addr
	w.mu.RUnlock()

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	w.bound = listener.Addr().String()
	w.mu.Unlock()

	server := &http.Server{Handler: w.router(mgr)}
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Serve(listener)
	}()
	w.log.WithField("addr", listener.Addr().String()).Info("Web server listening")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			w.log.WithError(err).Warn("Web server shutdown failed")
		}
		return nil, nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil, nil
		}
		return nil, err
	}
}

func (w *WebServerPlugin) router(mgr *manager.Manager) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(rw http.ResponseWriter, req *http.Request) {
		rw.WriteHeader(http.StatusOK)
		_, _ = rw.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	r.HandleFunc("/plugins", func(rw http.ResponseWriter, req *http.Request) {
		type pluginInfo struct {
			Name        string `json:"name"`
			Version     string `json:"version"`
			Description string `json:"description,omitempty"`
		}
		plugins := mgr.Plugins()
		out := make([]pluginInfo, 0, len(plugins))
		for _, p := range plugins {
			d := p.Descriptor()
			out = append(out, pluginInfo{
				Name:        d.Name,
				Version:     d.Version,
				Description: d.Description,
			})
		}
		if err := httputil.WriteSuccess(rw, out); err != nil {
			w.log.WithError(err).Warn("Failed to encode plugin list")
		}
	}).Methods(http.MethodGet)

	if w.metrics != nil {
		r.Handle("/metrics", w.metrics.Handler()).Methods(http.MethodGet)
	}

	return httputil.Chain(
		httputil.LoggingMiddleware(w.log),
		httputil.RecoveryMiddleware(w.log),
	)(r)
}
