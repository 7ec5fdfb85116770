// Package devserver serves a store.Table over the slice of the PostgREST
// protocol the rest client speaks, so the client can run against a local
// table without a hosted project.
package devserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Makepad-fr/tabletodo/internal/logging"
	"github.com/Makepad-fr/tabletodo/internal/model"
	"github.com/Makepad-fr/tabletodo/internal/store"
)

const mimeObject = "application/vnd.pgrst.object+json"

// Config configures the server.
type Config struct {
	Table  string      // the only table served
	APIKey string      // required apikey header; empty accepts any request
	Logger *log.Logger // nil discards
}

// Server owns the router and the HTTP listener.
type Server struct {
	cfg    Config
	table  store.Table
	log    *log.Logger
	router *gin.Engine
}

// pgError is the PostgREST error body.
type pgError struct {
	Code    string  `json:"code"`
	Message string  `json:"message"`
	Details *string `json:"details"`
	Hint    *string `json:"hint"`
}

func New(table store.Table, cfg Config) *Server {
	s := &Server{cfg: cfg, table: table, log: cfg.Logger}
	if s.log == nil {
		s.log = logging.Discard()
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	corsCfg.AllowMethods = []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "apikey", "Prefer"}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "table": cfg.Table})
	})

	api := r.Group("/rest/v1", s.requireKey())
	{
		api.GET("/:table", s.withTable(s.handleList))
		api.POST("/:table", s.withTable(s.handleInsert))
		api.PATCH("/:table", s.withTable(s.handleUpdate))
		api.DELETE("/:table", s.withTable(s.handleDelete))
	}
	s.router = r
	return s
}

// Handler returns the HTTP handler, e.g. for httptest.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully. ready, if non-nil, receives the bound address.
func (s *Server) ListenAndServe(ctx context.Context, addr string, ready func(net.Addr)) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if ready != nil {
		ready(ln.Addr())
	}
	s.log.Info("serving table", "addr", ln.Addr().String(), "table", s.cfg.Table)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path += "?" + raw
		}

		c.Next()

		status := c.Writer.Status()
		kv := []any{
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"latency", time.Since(start),
		}
		switch {
		case status >= 500:
			s.log.Error("request", kv...)
		case status >= 400:
			s.log.Warn("request", kv...)
		default:
			s.log.Info("request", kv...)
		}
	}
}

func (s *Server) requireKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.cfg.APIKey == "" {
			c.Next()
			return
		}
		key := c.GetHeader("apikey")
		if key == "" {
			key = strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		}
		if key != s.cfg.APIKey {
			abort(c, http.StatusUnauthorized, "PGRST301", "Invalid API key")
			return
		}
		c.Next()
	}
}

func (s *Server) withTable(h gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if name := c.Param("table"); name != s.cfg.Table {
			abort(c, http.StatusNotFound, "42P01", fmt.Sprintf("relation \"public.%s\" does not exist", name))
			return
		}
		h(c)
	}
}

func abort(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, pgError{Code: code, Message: msg})
}

func (s *Server) tableError(c *gin.Context, err error) {
	_ = c.Error(err)
	abort(c, http.StatusInternalServerError, "XX000", err.Error())
}

// idFilter reads ?id=eq.<id>. ok is false when no filter was given.
func idFilter(c *gin.Context) (model.ID, bool, error) {
	raw, present := c.GetQuery("id")
	if !present {
		return "", false, nil
	}
	v, found := strings.CutPrefix(raw, "eq.")
	if !found {
		return "", false, fmt.Errorf("unsupported filter %q, only eq. is served", raw)
	}
	return model.ID(v), true, nil
}

func (s *Server) handleList(c *gin.Context) {
	id, filtered, err := idFilter(c)
	if err != nil {
		abort(c, http.StatusBadRequest, "PGRST100", err.Error())
		return
	}
	rows, err := s.table.List(c.Request.Context())
	if err != nil {
		s.tableError(c, err)
		return
	}
	out := make([]model.Item, 0, len(rows))
	for _, r := range rows {
		if !filtered || r.ID == id {
			out = append(out, r)
		}
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleInsert(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		abort(c, http.StatusBadRequest, "PGRST102", "could not read body")
		return
	}
	recs, err := decodeRecords(body)
	if err != nil {
		abort(c, http.StatusBadRequest, "PGRST102", err.Error())
		return
	}

	represent := strings.Contains(c.GetHeader("Prefer"), "return=representation")
	single := strings.Contains(c.GetHeader("Accept"), mimeObject)
	if represent && single && len(recs) != 1 {
		abort(c, http.StatusNotAcceptable, "PGRST116", "JSON object requested, multiple (or no) rows returned")
		return
	}

	created := make([]model.Item, 0, len(recs))
	for _, rec := range recs {
		it, err := s.table.Insert(c.Request.Context(), rec)
		if err != nil {
			s.tableError(c, err)
			return
		}
		created = append(created, it)
	}

	switch {
	case !represent:
		c.Status(http.StatusCreated)
	case single:
		c.JSON(http.StatusCreated, created[0])
	default:
		c.JSON(http.StatusCreated, created)
	}
}

// decodeRecords accepts one record or an array of records.
func decodeRecords(body []byte) ([]model.NewItem, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, errors.New("empty body")
	}
	if body[0] == '[' {
		var recs []model.NewItem
		if err := json.Unmarshal(body, &recs); err != nil {
			return nil, fmt.Errorf("invalid records: %w", err)
		}
		return recs, nil
	}
	var rec model.NewItem
	if err := json.Unmarshal(body, &rec); err != nil {
		return nil, fmt.Errorf("invalid record: %w", err)
	}
	return []model.NewItem{rec}, nil
}

func (s *Server) handleUpdate(c *gin.Context) {
	id, ok := s.requireID(c)
	if !ok {
		return
	}
	var p model.Patch
	if err := c.ShouldBindJSON(&p); err != nil {
		abort(c, http.StatusBadRequest, "PGRST102", "invalid patch: "+err.Error())
		return
	}
	if err := s.table.UpdateByID(c.Request.Context(), id, p); err != nil {
		s.tableError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleDelete(c *gin.Context) {
	id, ok := s.requireID(c)
	if !ok {
		return
	}
	if err := s.table.DeleteByID(c.Request.Context(), id); err != nil {
		s.tableError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// requireID refuses unfiltered writes; this server never touches every row.
func (s *Server) requireID(c *gin.Context) (model.ID, bool) {
	id, filtered, err := idFilter(c)
	if err != nil {
		abort(c, http.StatusBadRequest, "PGRST100", err.Error())
		return "", false
	}
	if !filtered {
		abort(c, http.StatusBadRequest, "21000", "UPDATE and DELETE require an id=eq. filter")
		return "", false
	}
	return id, true
}
