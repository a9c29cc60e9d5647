// Command ignite-httpd is the REST HTTP front end: GET/PUT/DELETE on
// /api/keys/{key}, POST /api/reset, batch set/get, and a Prometheus
// /metrics endpoint. Every blocking engine call runs on a dedicated pool so
// the HTTP server's own goroutines are never held across an fsync.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/ignitedb/ignite/internal/metrics"
	"github.com/ignitedb/ignite/pkg/ignite"
	"github.com/ignitedb/ignite/pkg/logger"
	"github.com/ignitedb/ignite/pkg/options"
	"github.com/ignitedb/ignite/pkg/pool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type server struct {
	inst     *ignite.Instance
	log      *zap.SugaredLogger
	metrics  *metrics.Metrics
	blocking pool.ThreadPool
}

func main() {
	var (
		addr       string
		dataDir    string
		workers    int
		queueSize  int
		devLogging bool
	)

	flag.StringVar(&addr, "addr", ":8080", "HTTP listen address")
	flag.StringVar(&dataDir, "data-dir", options.DefaultDataDir, "storage directory")
	flag.IntVar(&workers, "blocking-workers", 8, "size of the blocking-call worker pool")
	flag.IntVar(&queueSize, "blocking-queue", 256, "queue size of the blocking-call worker pool")
	flag.BoolVar(&devLogging, "dev", false, "enable human-readable development logging")
	flag.Parse()

	log, err := logger.New("ignite-httpd", logger.Config{Development: devLogging})
	if err != nil {
		fmt.Fprintln(os.Stderr, "building logger:", err)
		os.Exit(1)
	}

	m := metrics.New("ignite_httpd")

	inst, err := ignite.NewInstance(context.Background(), "ignite-httpd", m, options.WithDataDir(dataDir))
	if err != nil {
		log.Fatalw("failed to open storage", "error", err)
	}
	defer inst.Close(context.Background())

	srv := &server{
		inst:     inst,
		log:      log,
		metrics:  m,
		blocking: pool.NewShared(workers, queueSize, log),
	}
	defer srv.blocking.Close()

	mux := http.NewServeMux()
	srv.routes(mux)

	log.Infow("ignite-httpd listening", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalw("http server exited", "error", err)
	}
}

func (s *server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/keys/{key}", s.handleGet)
	mux.HandleFunc("PUT /api/keys/{key}", s.handlePut)
	mux.HandleFunc("DELETE /api/keys/{key}", s.handleDelete)
	mux.HandleFunc("POST /api/reset", s.handleReset)
	mux.HandleFunc("POST /api/batch/set", s.handleBatchSet)
	mux.HandleFunc("POST /api/batch/get", s.handleBatchGet)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
}

// runBlocking submits fn to the blocking pool and waits for it to finish,
// keeping the calling goroutine (an HTTP handler) free of fsync stalls.
func runBlocking[T any](s *server, fn func() (T, error)) (T, error) {
	type result struct {
		value T
		err   error
	}
	done := make(chan result, 1)

	err := s.blocking.Spawn(func() {
		value, err := fn()
		done <- result{value: value, err: err}
	})
	if err != nil {
		var zero T
		return zero, err
	}

	r := <-done
	return r.value, r.err
}

// getResult flattens Get's (value, ok, error) into the single success value
// runBlocking's generic signature expects.
type getResult struct {
	value string
	ok    bool
}

func (s *server) handleGet(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()
	key := r.PathValue("key")

	gr, err := runBlocking(s, func() (getResult, error) {
		v, ok, err := s.inst.Get(r.Context(), key)
		return getResult{value: v, ok: ok}, err
	})
	if err != nil {
		s.writeError(w, requestID, http.StatusInternalServerError, err)
		return
	}
	s.metrics.GetTotal.Inc()
	if !gr.ok {
		s.metrics.GetMissTotal.Inc()
		w.WriteHeader(http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"key": key, "value": gr.value})
}

func (s *server) handlePut(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()
	key := r.PathValue("key")

	var body struct {
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, requestID, http.StatusBadRequest, err)
		return
	}

	_, err := runBlocking(s, func() (struct{}, error) {
		return struct{}{}, s.inst.Set(r.Context(), key, body.Value)
	})
	if err != nil {
		s.writeError(w, requestID, http.StatusInternalServerError, err)
		return
	}

	s.metrics.SetTotal.Inc()
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleDelete(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()
	key := r.PathValue("key")

	existed, err := runBlocking(s, func() (bool, error) {
		return s.inst.Delete(r.Context(), key)
	})
	if err != nil {
		s.writeError(w, requestID, http.StatusInternalServerError, err)
		return
	}

	s.metrics.RemoveTotal.Inc()
	if !existed {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleReset(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()

	_, err := runBlocking(s, func() (struct{}, error) {
		return struct{}{}, s.inst.Reset(r.Context())
	})
	if err != nil {
		s.writeError(w, requestID, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleBatchSet(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()

	var body struct {
		Items map[string]string `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, requestID, http.StatusBadRequest, err)
		return
	}

	_, err := runBlocking(s, func() (struct{}, error) {
		for key, value := range body.Items {
			if err := s.inst.Set(r.Context(), key, value); err != nil {
				return struct{}{}, err
			}
			s.metrics.SetTotal.Inc()
		}
		return struct{}{}, nil
	})
	if err != nil {
		s.writeError(w, requestID, http.StatusInternalServerError, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleBatchGet(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()

	var body struct {
		Keys []string `json:"keys"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, requestID, http.StatusBadRequest, err)
		return
	}

	results, err := runBlocking(s, func() (map[string]string, error) {
		out := make(map[string]string, len(body.Keys))
		for _, key := range body.Keys {
			value, ok, err := s.inst.Get(r.Context(), key)
			if err != nil {
				return nil, err
			}
			s.metrics.GetTotal.Inc()
			if ok {
				out[key] = value
			} else {
				s.metrics.GetMissTotal.Inc()
			}
		}
		return out, nil
	})
	if err != nil {
		s.writeError(w, requestID, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(results)
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)})
}

func (s *server) writeError(w http.ResponseWriter, requestID string, status int, err error) {
	s.log.Warnw("request failed", "requestID", requestID, "status", status, "error", err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error(), "requestId": requestID})
}
