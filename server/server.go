// Package server serves the routes declared by a compiled Angi program.
//
// A program declares its routes in a top-level list:
//
//	{
//	    port = 3030;
//	    routes = [
//	        {path = "/"; handler = "plain text";},
//	        {path = "/home"; handler = () => html("<h1>Home</h1>");},
//	        {path = "/api"; method = "POST"; handler = () => json(42);},
//	    ];
//	}
//
// String handlers are served as text. Function handlers are called for every
// request and must return a handler table whose type field selects the
// response kind.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/angi-lang/angi/errz"
	"github.com/angi-lang/angi/object"
	"github.com/angi-lang/angi/vm"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// DefaultPort is used when neither the program nor the host sets a port.
const DefaultPort = 3030

// Route is one entry of the program's routes list.
type Route struct {
	Method  string
	Path    string
	Handler object.Object
}

// Server hosts a VirtualMachine behind an HTTP router. The machine is not
// safe for concurrent use, so every evaluation holds mu.
type Server struct {
	mu        sync.Mutex
	machine   *vm.VirtualMachine
	logger    zerolog.Logger
	assets    AssetSource
	templates *templateCache
	routes    []Route
	router    chi.Router
	port      int
	host      string
	timeout   time.Duration
}

// New reads the routes and port of the program and builds the router.
func New(machine *vm.VirtualMachine, options ...Option) (*Server, error) {
	s := &Server{
		machine: machine,
		logger:  zerolog.Nop(),
		timeout: 10 * time.Second,
	}
	for _, opt := range options {
		opt(s)
	}
	s.templates = newTemplateCache(s.assets)
	if s.port == 0 {
		port, err := programPort(machine)
		if err != nil {
			return nil, err
		}
		s.port = port
	}
	routes, err := loadRoutes(machine)
	if err != nil {
		return nil, err
	}
	s.routes = routes
	s.router = s.newRouter()
	return s, nil
}

func programPort(machine *vm.VirtualMachine) (int, error) {
	root, err := vm.Eval[*object.Table](machine, "")
	if err != nil {
		return 0, err
	}
	if _, ok := root.Get("port"); !ok {
		return DefaultPort, nil
	}
	port, err := vm.Get[int64](machine, root, "port")
	if err != nil {
		return 0, err
	}
	if port <= 0 || port > 65535 {
		return 0, errz.New(errz.ValueTypeMismatch, "port %d out of range", port)
	}
	return int(port), nil
}

func loadRoutes(machine *vm.VirtualMachine) ([]Route, error) {
	list, err := vm.Eval[*object.List](machine, "routes")
	if err != nil {
		return nil, fmt.Errorf("reading routes: %w", err)
	}
	if err := list.Force(machine); err != nil {
		return nil, err
	}
	routes := make([]Route, 0, list.Len())
	for i, item := range list.Items() {
		entry, err := object.AsTable(item)
		if err != nil {
			return nil, fmt.Errorf("route %d: %w", i, err)
		}
		route := Route{Method: http.MethodGet}
		if route.Path, err = vm.Get[string](machine, entry, "path"); err != nil {
			return nil, fmt.Errorf("route %d path: %w", i, err)
		}
		if !strings.HasPrefix(route.Path, "/") {
			return nil, errz.New(errz.ValueTypeMismatch, "route %d path %q must start with /", i, route.Path)
		}
		if _, ok := entry.Get("method"); ok {
			method, err := vm.Get[string](machine, entry, "method")
			if err != nil {
				return nil, fmt.Errorf("route %d method: %w", i, err)
			}
			route.Method = strings.ToUpper(method)
		}
		if route.Handler, err = vm.Get[object.Object](machine, entry, "handler"); err != nil {
			return nil, fmt.Errorf("route %d handler: %w", i, err)
		}
		switch route.Handler.(type) {
		case *object.String, *object.Function:
		default:
			return nil, errz.New(errz.ValueTypeMismatch,
				"route %d handler must be a string or a function (got %s)", i, route.Handler.Type())
		}
		routes = append(routes, route)
	}
	return routes, nil
}

func (s *Server) newRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(accessLog(s.logger))
	r.Use(middleware.Recoverer)
	for _, route := range s.routes {
		r.Method(route.Method, route.Path, s.handle(route))
		s.logger.Info().Str("method", route.Method).Str("path", route.Path).
			Str("handler", string(route.Handler.Type())).Msg("route registered")
	}
	return r
}

// Handler returns the HTTP handler serving the program's routes.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Routes returns the routes read from the program.
func (s *Server) Routes() []Route {
	return s.routes
}

// Port returns the port the server listens on.
func (s *Server) Port() int {
	return s.port
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.host, strconv.Itoa(s.port))
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: s.timeout,
	}
	errs := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", srv.Addr).Int("routes", len(s.routes)).Msg("listening")
		errs <- srv.ListenAndServe()
	}()
	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	s.logger.Info().Msg("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errs; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// evaluate calls a function handler and returns its fully forced result.
func (s *Server) evaluate(fn *object.Function) (object.Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result, err := s.machine.Call(fn)
	if err != nil {
		return nil, err
	}
	return s.machine.Materialize(result)
}
