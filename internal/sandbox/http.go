package sandbox

import (
	"encoding/json"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/alfredjeanlab/sitenav/internal/model"
)

// Greeting is the message served by GET /.
const Greeting = "Hello from the sitenav sandbox backend"

// Handler returns an http.Handler with all routes registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("POST /scan", s.handleScan)
	mux.HandleFunc("GET /api/v1/tree", s.handleTree)
	mux.HandleFunc("POST /api/v1/reset", s.handleReset)
	mux.HandleFunc("GET /api/v1/render", s.handleRender)
	return RecoveryMiddleware(s.logger, LoggingMiddleware(s.logger, mux))
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": Greeting})
}

// handleScan handles POST /scan. The url may come from the JSON body or,
// for callers of the older form, from the query string.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req model.ScanRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeDetail(w, http.StatusUnprocessableEntity, "invalid JSON body")
			return
		}
	}
	if req.URL == "" {
		req.URL = r.URL.Query().Get("url")
	}
	if err := req.Validate(); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	taskID := s.enqueue(req)
	writeJSON(w, http.StatusOK, model.ScanResponse{TaskID: taskID, Status: "Processing"})
}

// handleTree handles GET /api/v1/tree[?url=X].
func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")
	if url == "" {
		writeJSON(w, http.StatusOK, map[string]any{"nodes": s.Nodes()})
		return
	}
	view, ok := s.focus(url)
	if !ok {
		writeError(w, http.StatusNotFound, "Node not found")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleReset(w http.ResponseWriter, _ *http.Request) {
	s.Reset()
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleRender handles GET /api/v1/render?url=X with a minimal HTML page
// standing in for the crawled document.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")
	s.mu.RLock()
	node, ok := s.nodes[url]
	s.mu.RUnlock()
	if !ok {
		writeError(w, http.StatusNotFound, "Node not found")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(renderPage(node)))
}

func renderPage(n model.NodeItem) string {
	var b strings.Builder
	title := html.EscapeString(n.DisplayLabel())
	fmt.Fprintf(&b, "<!doctype html>\n<html><head><title>%s</title></head><body>\n", title)
	fmt.Fprintf(&b, "<h1>%s</h1>\n<ul>\n", title)
	for _, c := range n.Children {
		esc := html.EscapeString(c)
		fmt.Fprintf(&b, "<li><a href=\"%s\">%s</a></li>\n", esc, esc)
	}
	b.WriteString("</ul>\n</body></html>\n")
	return b.String()
}

// LoggingMiddleware logs the method, path, status and duration of every request.
func LoggingMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		level := slog.LevelInfo
		if rec.status >= 500 {
			level = slog.LevelError
		}
		logger.Log(r.Context(), level, "request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

// RecoveryMiddleware catches panics in downstream handlers, logs the stack
// trace, and returns a 500 instead of crashing the server.
func RecoveryMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				logger.Error("panic recovered in HTTP handler",
					"path", r.URL.Path,
					"panic", fmt.Sprintf("%v", v),
					"stack", string(debug.Stack()),
				)
				writeDetail(w, http.StatusInternalServerError, "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes the {"error": ...} body used by the tree routes.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeDetail writes the {"detail": ...} body used by the scan route.
func writeDetail(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"detail": message})
}
