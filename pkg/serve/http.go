package serve

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/praetorian-inc/testweave/pkg/workspace"
)

// DefaultAddr is where the HTTP API listens unless told otherwise.
const DefaultAddr = "127.0.0.1:7341"

const maxBodySize = 10 << 20

const noScanMessage = "No scan result yet. Call POST /api/scan first."

type handler struct {
	state  *State
	logger *slog.Logger
}

// NewHandler returns the HTTP API for state, wrapped in CORS and request
// logging middleware.
func NewHandler(state *State) http.Handler {
	h := &handler{state: state, logger: state.logger}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.index)
	mux.HandleFunc("GET /api/health", h.health)
	mux.HandleFunc("GET /api/workspace", h.getWorkspace)
	mux.HandleFunc("POST /api/workspace", h.setWorkspace)
	mux.HandleFunc("POST /api/scan", h.scan)
	mux.HandleFunc("GET /api/testcases", h.testCases)
	mux.HandleFunc("POST /api/extract", h.extract)
	mux.HandleFunc("POST /api/validate", h.validate)
	mux.Handle("GET /api/events", state.Events())

	return logRequests(h.logger, cors(mux))
}

// ListenAndServe serves the API on addr until ctx is cancelled.
func ListenAndServe(ctx context.Context, addr string, state *State) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           NewHandler(state),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		state.logger.Info("listening", "addr", addr, "root", state.Root(), "workspace", state.Workspace())
		errChan <- srv.ListenAndServe()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		state.Events().Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		return nil
	}
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:     "ok",
		Product:    "testweave",
		Mode:       "local",
		ServerRoot: h.state.Root(),
	})
}

func (h *handler) getWorkspace(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, WorkspaceResponse{
		Workspace:  h.state.Workspace(),
		ServerRoot: h.state.Root(),
		StoredAt:   workspace.PointerPath(h.state.Root()),
	})
}

func (h *handler) setWorkspace(w http.ResponseWriter, r *http.Request) {
	var req WorkspaceRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ws, err := h.state.SetWorkspace(req.Path)
	if errors.Is(err, ErrInvalidWorkspace) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid workspace path: %s", req.Path))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"workspace": ws})
}

func (h *handler) scan(w http.ResponseWriter, r *http.Request) {
	var req ScanPayload
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.state.Scan(r.Context(), req.Globs)
	if err != nil {
		h.logger.Error("scan failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ScanResponse{Workspace: result.Workspace, Result: result})
}

func (h *handler) testCases(w http.ResponseWriter, r *http.Request) {
	resp := TestCasesResponse{Workspace: h.state.Workspace()}
	if resp.Result = h.state.LastScan(); resp.Result == nil {
		resp.Message = noScanMessage
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) extract(w http.ResponseWriter, r *http.Request) {
	var req ExtractPayload
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, Extract(req.Text))
}

func (h *handler) validate(w http.ResponseWriter, r *http.Request) {
	var req ValidatePayload
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, Validate(req.IDs))
}

// decodeBody reads a JSON body into v. An empty body leaves v untouched.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// cors allows every origin and answers preflight requests.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status for logging.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (rw *statusRecorder) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.status = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

// Hijack lets the websocket upgrade through the recorder.
func (rw *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	rw.status = http.StatusSwitchingProtocols
	rw.wroteHeader = true
	return hj.Hijack()
}

func (rw *statusRecorder) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// logRequests logs method, path, status and duration of every request.
func logRequests(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rw, r)

		logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.status,
			"duration", time.Since(start),
			"remote", r.RemoteAddr,
		)
	})
}
