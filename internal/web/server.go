// Package web serves the profile edit, display and signup pages and the
// admin endpoints for categories and fields.
package web

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/profilefields/internal/access"
	"github.com/mesh-intelligence/profilefields/internal/i18n"
	"github.com/mesh-intelligence/profilefields/internal/profile"
	"github.com/mesh-intelligence/profilefields/pkg/types"
)

// Store is the storage the server needs: the cupboard plus reordering.
type Store interface {
	types.Cupboard
	MoveCategory(id int64, up bool) (bool, error)
	MoveField(id int64, up bool) (bool, error)
}

// Options configures a Server.
type Options struct {
	Store   Store
	Checker access.Checker
	Bundle  *i18n.Bundle
	Log     *zap.Logger
	// Locale is used when a request sends no Accept-Language.
	Locale string
	// Metrics exposes request metrics at /metrics.
	Metrics bool
}

// Server routes HTTP requests to the profile operations.
type Server struct {
	engine  *gin.Engine
	store   Store
	checker access.Checker
	bundle  *i18n.Bundle
	log     *zap.Logger
}

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// New builds the gin engine and registers all routes.
func New(opts Options) *Server {
	gin.SetMode(gin.ReleaseMode)

	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	locale := opts.Locale
	if locale == "" {
		locale = i18n.BaseLocale
	}

	s := &Server{
		engine:  gin.New(),
		store:   opts.Store,
		checker: opts.Checker,
		bundle:  opts.Bundle,
		log:     log,
	}
	s.engine.Use(requestID(), logRequests(log), gin.Recovery())
	if opts.Metrics {
		ginprometheus.NewPrometheus("profilefields").Use(s.engine)
	}
	s.engine.Use(identifyCaller(locale))
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.GET("/signup", s.signupForm)

	users := s.engine.Group("/users/:id")
	users.GET("", s.showProfile)
	users.GET("/profile", s.userRecord)
	users.GET("/edit", s.editForm)
	users.POST("/edit", s.saveProfile)

	admin := s.engine.Group("/admin", requireCapability(s.checker, access.CapSiteConfig))
	admin.GET("/categories", s.listCategories)
	admin.GET("/categories/edit", s.categoryForm)
	admin.POST("/categories/edit", s.saveCategory)
	admin.POST("/categories/:id/delete", s.deleteCategory)
	admin.POST("/categories/:id/move", s.moveCategory)
	admin.GET("/fields", s.listFields)
	admin.POST("/fields", s.saveField)
	admin.POST("/fields/:id/delete", s.deleteField)
	admin.POST("/fields/:id/move", s.moveField)
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on cfg.Addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context, cfg Config) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.engine,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info("Starting HTTP server", zap.String("address", cfg.Addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		s.log.Info("Stopping HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// page builds the request-scoped collaborators for profile operations.
func (s *Server) page(c *gin.Context) *profile.Page {
	caller := callerOf(c)
	return &profile.Page{
		Cupboard:   s.store,
		Checker:    s.checker,
		Caller:     caller,
		Translator: s.bundle.Printer(caller.Locale),
		Log:        s.log.With(zap.String("request_id", c.GetString(ctxRequestID))),
	}
}

type pageView struct {
	Title string
	Body  template.HTML
}

// html renders body inside the page layout.
func (s *Server) html(c *gin.Context, status int, title string, body *bytes.Buffer) {
	var out bytes.Buffer
	view := pageView{Title: title, Body: template.HTML(body.String())}
	if err := pageTemplate.ExecuteTemplate(&out, "page", view); err != nil {
		s.fail(c, err)
		return
	}
	c.Data(status, "text/html; charset=utf-8", out.Bytes())
}

// fail maps err to a status code and writes it as JSON.
func (s *Server) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.log.Error("request failed",
			zap.String("path", c.Request.URL.Path),
			zap.String("request_id", c.GetString(ctxRequestID)),
			zap.Error(err))
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, types.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, types.ErrDuplicateName),
		errors.Is(err, types.ErrDuplicateShortName),
		errors.Is(err, types.ErrLastCategory):
		return http.StatusConflict
	case errors.Is(err, types.ErrInvalidID),
		errors.Is(err, types.ErrInvalidData),
		errors.Is(err, types.ErrInvalidName),
		errors.Is(err, types.ErrInvalidVisibility),
		errors.Is(err, types.ErrCategoryNotFound),
		errors.Is(err, types.ErrUnknownDatatype):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": types.ErrInvalidID.Error()})
		return 0, false
	}
	return id, true
}
