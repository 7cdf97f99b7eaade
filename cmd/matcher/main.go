package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"

	"gomatch/gosm-matcher/config"
	"gomatch/gosm-matcher/geom"
	"gomatch/gosm-matcher/lcss"
	"gomatch/gosm-matcher/matching"
	"gomatch/gosm-matcher/roadnet"
)

// Server holds the graph and matcher for handling requests
type Server struct {
	graph   *roadnet.Graph
	matcher *lcss.Matcher
	log     *logrus.Logger
}

// RuntimeMetrics holds memory and goroutine statistics
type RuntimeMetrics struct {
	Goroutines   int     `json:"goroutines"`
	AllocMB      float64 `json:"alloc_mb"`       // currently allocated heap
	TotalAllocMB float64 `json:"total_alloc_mb"` // cumulative allocated (includes freed)
	SysMB        float64 `json:"sys_mb"`         // total memory from OS
	HeapAllocMB  float64 `json:"heap_alloc_mb"`
	HeapSysMB    float64 `json:"heap_sys_mb"`
	HeapObjects  uint64  `json:"heap_objects"`
	NumGC        uint32  `json:"num_gc"`
}

// getRuntimeMetrics collects current runtime statistics
func getRuntimeMetrics() RuntimeMetrics {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return RuntimeMetrics{
		Goroutines:   runtime.NumGoroutine(),
		AllocMB:      float64(m.Alloc) / 1024 / 1024,
		TotalAllocMB: float64(m.TotalAlloc) / 1024 / 1024,
		SysMB:        float64(m.Sys) / 1024 / 1024,
		HeapAllocMB:  float64(m.HeapAlloc) / 1024 / 1024,
		HeapSysMB:    float64(m.HeapSys) / 1024 / 1024,
		HeapObjects:  m.HeapObjects,
		NumGC:        m.NumGC,
	}
}

// startMetricsLogger starts a background goroutine that logs metrics periodically
func startMetricsLogger(log *logrus.Logger, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for range ticker.C {
			m := getRuntimeMetrics()
			log.WithFields(logrus.Fields{
				"goroutines":   m.Goroutines,
				"alloc_mb":     m.AllocMB,
				"sys_mb":       m.SysMB,
				"heap_objects": m.HeapObjects,
				"gc_cycles":    m.NumGC,
			}).Info("runtime metrics")
		}
	}()
}

// handleMatch processes a GeoJSON request and returns the matched trajectory
func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	var fc geom.GeoJSONFeatureCollection
	if err := json.Unmarshal(body, &fc); err != nil {
		http.Error(w, "Invalid GeoJSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	trace, err := matching.TraceFromGeoJSON(fc)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.log.WithField("points", trace.Len()).Info("processing match request")

	result, err := s.matcher.MatchTrace(trace.ToXY())
	if err != nil {
		http.Error(w, "Matching failed: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result.ToGeoJSON()); err != nil {
		s.log.WithError(err).Error("failed to encode response")
	}
}

func main() {
	configPath := flag.String("config", "config.yml", "path to the YAML config file")
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.WithError(err).Fatal("failed to load config")
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	log.WithField("pbf", cfg.Map.PBFPath).Info("loading road network")
	graph, err := roadnet.LoadPBF(cfg.Map.PBFPath, log)
	if err != nil {
		log.WithError(err).Fatal("failed to load road network")
	}

	matcher := lcss.NewMatcher(graph, log)
	matcher.DistanceEpsilon = cfg.Matcher.DistanceEpsilon
	matcher.SimilarityCutoff = cfg.Matcher.SimilarityCutoff
	matcher.CuttingThreshold = cfg.Matcher.CuttingThreshold
	matcher.RandomCuts = cfg.Matcher.RandomCuts
	matcher.DistanceThreshold = cfg.Matcher.DistanceThreshold

	server := &Server{
		graph:   graph,
		matcher: matcher,
		log:     log,
	}

	http.HandleFunc("/match", server.handleMatch)

	// Health check endpoint
	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Metrics endpoint
	http.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		metrics := getRuntimeMetrics()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(metrics)
	})

	// Background metrics logging (every 30 seconds)
	startMetricsLogger(log, 30*time.Second)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.WithField("addr", addr).Info("listening")
	log.Fatal(http.ListenAndServe(addr, nil))
}
