// ABOUTME: HTTP server wiring the chi router, session store, inference client cache, and hooks.
// ABOUTME: Routes cover session lifecycle, generation start/cancel, output polling, and SVG files.
package webui

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/2389-research/sketchtex/generate"
	"github.com/2389-research/sketchtex/infer"
	"github.com/2389-research/sketchtex/tikz"
)

// ProducerFactory builds the candidate producer for one generation request.
// Split out so tests can substitute scripted producers for the inference
// backend.
type ProducerFactory func(prompt, imageURL string) generate.Producer

// ServerOption configures optional Server behavior.
type ServerOption func(*Server)

// WithProducerFactory overrides how generation producers are built.
func WithProducerFactory(factory ProducerFactory) ServerOption {
	return func(s *Server) {
		s.producerFor = factory
	}
}

// WithCompiler overrides the TikZ compiler used for candidate documents.
func WithCompiler(compiler tikz.Compiler) ServerOption {
	return func(s *Server) {
		s.compiler = compiler
	}
}

// Server holds the chi router and all collaborators of the web UI.
type Server struct {
	router      chi.Router
	store       *Store
	cfg         *Config
	hooks       *ManagerHooks
	clients     *infer.ClientCache
	compiler    tikz.Compiler
	producerFor ProducerFactory
}

// NewServer creates a Server with all routes configured.
func NewServer(store *Store, cfg *Config, opts ...ServerOption) *Server {
	s := &Server{
		store:   store,
		cfg:     cfg,
		hooks:   NewManagerHooks(cfg.ManagerURL, cfg.ManagerApp, cfg.ManagerToken),
		clients: infer.NewClientCache(),
		compiler: &tikz.LatexCompiler{
			BuildDir: cfg.BuildDir,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.producerFor == nil {
		s.producerFor = s.inferenceProducer
	}

	r := chi.NewRouter()
	r.Use(accessLog)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/", s.handleHelp)

	r.Post("/sessions", s.handleCreateSession)
	r.Delete("/sessions/{id}", s.handleDeleteSession)

	r.Post("/sessions/{id}/generate", s.handleGenerate)
	r.Post("/sessions/{id}/cancel", s.handleCancel)
	r.Get("/sessions/{id}/outputs", s.handleOutputs)
	r.Get("/sessions/{id}/files/{name}", s.handleFile)

	s.router = r
	return s
}

// inferenceProducer is the default ProducerFactory: candidates come from the
// configured OpenAI-compatible backend through the cached client.
func (s *Server) inferenceProducer(prompt, imageURL string) generate.Producer {
	client := s.clients.Acquire(infer.Config{
		APIKey:      s.cfg.APIKey,
		Model:       s.cfg.Model,
		BaseURL:     s.cfg.BaseURL,
		Temperature: s.cfg.Temperature,
	})
	return client.Producer(prompt, imageURL, s.compiler, s.cfg.Attempts)
}

// ServeHTTP implements http.Handler, delegating to the chi router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
