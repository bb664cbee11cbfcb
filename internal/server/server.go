// Package server provides the HTTP API for tenderlens.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hyperjump/tenderlens/internal/config"
	"github.com/hyperjump/tenderlens/internal/inbox"
	"github.com/hyperjump/tenderlens/internal/pipeline"
	"github.com/hyperjump/tenderlens/internal/storage"
	"github.com/hyperjump/tenderlens/internal/summary"
	"github.com/hyperjump/tenderlens/pkg/utils"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"go.uber.org/zap"
)

// Server is the HTTP server for the tenderlens API.
type Server struct {
	processor *pipeline.Processor
	inbox     inbox.Inbox
	extractor pipeline.TextExtractor
	storage   storage.Storage
	config    *config.Config
	logger    *zap.Logger
	server    *http.Server

	parser    summary.Parser
	markdown  goldmark.Markdown
	sanitizer *bluemonday.Policy
}

// NewServer creates a server with the given dependencies. ib may be nil, in which case the
// email routes answer 501.
func NewServer(
	processor *pipeline.Processor,
	ib inbox.Inbox,
	extractor pipeline.TextExtractor,
	storage storage.Storage,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	return &Server{
		processor: processor,
		inbox:     ib,
		extractor: extractor,
		storage:   storage,
		config:    cfg,
		logger:    utils.LoggerOrNop(logger),
		parser:    summary.Parser{KeepDuplicates: cfg.Table.KeepDuplicates},
		markdown:  goldmark.New(goldmark.WithExtensions(extension.GFM)),
		sanitizer: bluemonday.UGCPolicy(),
	}
}

// Routes returns the router. Summaries stream for as long as the model takes, so no request
// timeout is applied.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	r.Get("/health", s.handleHealth)
	r.Get("/api/v1/status", s.handleStatus)

	r.Get("/api/v1/emails", s.handleListEmails)
	r.Post("/api/v1/emails/{id}/summarize", s.handleSummarizeEmail)

	r.Post("/api/v1/extract", s.handleExtract)
	r.Post("/api/v1/table", s.handleTable)

	r.Get("/api/v1/reports", s.handleListReports)
	r.Get("/api/v1/reports/{id}", s.handleGetReport)
	r.Delete("/api/v1/reports/{id}", s.handleDeleteReport)
	r.Get("/api/v1/reports/{id}/docx", s.handleReportDOCX)
	r.Get("/api/v1/reports/{id}/xlsx", s.handleReportXLSX)

	r.Get("/reports/{id}", s.handleReportView)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Routes(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
