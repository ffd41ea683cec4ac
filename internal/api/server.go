package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"poolsort/internal/bench"
	"poolsort/internal/events"
	"poolsort/internal/logger"
	"poolsort/internal/metrics"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/websocket"
)

// Server はAPIサーバー
type Server struct {
	addr      string
	registry  *prometheus.Registry
	collector *metrics.PoolCollector
	bus       *events.Bus
	log       logger.Component

	mu        sync.RWMutex
	running   bool
	runID     string
	config    bench.Config
	engine    *bench.Engine
	cancelRun context.CancelFunc
	last      *ResultResponse
	wsClients map[*websocket.Conn]bool

	baseCtx context.Context
	runs    sync.WaitGroup
	server  *http.Server
}

// NewServer は新しいAPIサーバーを作成する
func NewServer(addr string) (*Server, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())

	collector, err := metrics.NewPoolCollector(registry)
	if err != nil {
		return nil, err
	}

	return &Server{
		addr:      addr,
		registry:  registry,
		collector: collector,
		bus:       events.NewBus(),
		log:       logger.For("api"),
		wsClients: make(map[*websocket.Conn]bool),
		baseCtx:   context.Background(),
	}, nil
}

// Handler はAPIのルーティングを返す
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/presets", s.handlePresets)
	mux.HandleFunc("/api/run", s.handleRun)
	mux.HandleFunc("/api/stop", s.handleStop)
	mux.HandleFunc("/api/result", s.handleResult)
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	mux.Handle("/ws", websocket.Handler(s.handleWebSocket))

	return mux
}

// Start はサーバーを開始し、ctx がキャンセルされるまでブロックする
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	s.baseCtx = ctx
	s.mu.Unlock()

	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// バックグラウンドでイベント配信
	go s.broadcastLoop(ctx)

	s.log.Info("API Server starting on http://%s", s.addr)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	if err := s.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.runs.Wait()
	s.bus.Close()
	return nil
}

// Wait は実行中のベンチマークが終わるまで待つ
func (s *Server) Wait() {
	s.runs.Wait()
}

// StatusResponse はステータスレスポンス
type StatusResponse struct {
	Running    bool   `json:"running"`
	RunID      string `json:"run_id,omitempty"`
	BenchName  string `json:"bench_name,omitempty"`
	CurrentRun int    `json:"current_run"`
	TotalRuns  int    `json:"total_runs"`
	Clients    int    `json:"ws_clients"`
}

func (s *Server) status() StatusResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()

	resp := StatusResponse{
		Running: s.running,
		RunID:   s.runID,
		Clients: len(s.wsClients),
	}
	if s.config.Name != "" {
		resp.BenchName = s.config.Name
		resp.TotalRuns = s.config.Runs
	}
	if s.engine != nil {
		resp.CurrentRun = s.engine.CurrentRun()
	}
	return resp
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.writeJSON(w, http.StatusOK, s.status())
}

// PresetInfo はプリセット情報
type PresetInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Elements    int    `json:"elements"`
	Threads     int    `json:"threads"`
	Runs        int    `json:"runs"`
}

func (s *Server) handlePresets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var presets []PresetInfo
	for _, name := range bench.ListPresets() {
		config, _ := bench.GetPreset(name)
		presets = append(presets, PresetInfo{
			Name:        config.Name,
			Description: config.Description,
			Elements:    config.Elements,
			Threads:     config.Threads,
			Runs:        config.Runs,
		})
	}

	s.writeJSON(w, http.StatusOK, presets)
}

// RunRequest はベンチマーク開始リクエスト
type RunRequest struct {
	Preset   string `json:"preset"`
	Target   int    `json:"target"`
	Elements int    `json:"elements,omitempty"`
	Threads  int    `json:"threads,omitempty"`
	Runs     int    `json:"runs,omitempty"`
}

// RunResponse はベンチマーク開始レスポンス
type RunResponse struct {
	RunID  string `json:"run_id"`
	Status string `json:"status"`
	Bench  string `json:"bench"`
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	// プリセット取得
	config, ok := bench.GetPreset(req.Preset)
	if !ok {
		if req.Preset != "" {
			http.Error(w, "Unknown preset", http.StatusBadRequest)
			return
		}
		config = bench.QuickBench()
	}

	// オーバーライド
	if req.Elements > 0 {
		config.Elements = req.Elements
	}
	if req.Threads > 0 {
		config.Threads = req.Threads
	}
	if req.Runs > 0 {
		config.Runs = req.Runs
	}
	if err := config.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		http.Error(w, "Bench already running", http.StatusConflict)
		return
	}

	runID := uuid.New().String()
	ctx, cancel := context.WithCancel(s.baseCtx)
	engine := bench.New(config)
	engine.SetEventBus(s.bus)
	engine.SetObserver(s.collector)

	s.config = config
	s.engine = engine
	s.runID = runID
	s.cancelRun = cancel
	s.running = true
	s.last = &ResultResponse{RunID: runID, Name: config.Name, Status: "running"}
	s.runs.Add(1)
	s.mu.Unlock()

	s.log.Info("Bench '%s' requested (run %s)", config.Name, runID)

	// バックグラウンドで実行
	go s.execute(ctx, cancel, engine, runID, req.Target)

	s.writeJSON(w, http.StatusAccepted, RunResponse{RunID: runID, Status: "started", Bench: config.Name})
}

func (s *Server) execute(ctx context.Context, cancel context.CancelFunc, engine *bench.Engine, runID string, target int) {
	defer s.runs.Done()
	defer cancel()

	result, err := engine.RunData(ctx, runID, engine.Generate(), target)
	resp := newResultResponse(runID, engine.Config().Name, result, err)

	s.mu.Lock()
	s.running = false
	s.cancelRun = nil
	s.last = resp
	s.mu.Unlock()

	if err != nil {
		s.log.Error("Bench failed: %v", err)
	} else {
		s.log.Info("Bench completed: found=%v in %v", result.Found, result.Duration.Round(time.Millisecond))
	}

	s.broadcast(map[string]any{
		"type":   "run_complete",
		"result": resp,
	})
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.mu.Lock()
	if !s.running || s.cancelRun == nil {
		s.mu.Unlock()
		http.Error(w, "No bench running", http.StatusBadRequest)
		return
	}
	s.cancelRun()
	runID := s.runID
	s.mu.Unlock()

	s.writeJSON(w, http.StatusOK, map[string]string{"status": "stop requested", "run_id": runID})
}

// ResultResponse は直近のベンチマーク結果
type ResultResponse struct {
	RunID          string  `json:"run_id"`
	Name           string  `json:"name"`
	Status         string  `json:"status"`
	Error          string  `json:"error,omitempty"`
	Found          bool    `json:"found"`
	Elements       int     `json:"elements,omitempty"`
	Threads        int     `json:"threads,omitempty"`
	Runs           int     `json:"runs,omitempty"`
	SearchAvgMs    float64 `json:"search_avg_ms"`
	SearchStdDevMs float64 `json:"search_stddev_ms"`
	SortAvgMs      float64 `json:"sort_avg_ms"`
	SortStdDevMs   float64 `json:"sort_stddev_ms"`
	TasksSubmitted uint64  `json:"tasks_submitted"`
	Report         string  `json:"report,omitempty"`
}

func newResultResponse(runID, name string, result *bench.Result, err error) *ResultResponse {
	resp := &ResultResponse{RunID: runID, Name: name}
	if err != nil {
		resp.Status = "failed"
		resp.Error = err.Error()
		return resp
	}

	resp.Status = "completed"
	resp.Found = result.Found
	resp.Elements = result.Elements
	resp.Threads = result.Threads
	resp.Runs = result.Runs
	resp.SearchAvgMs = millis(result.Search.Average)
	resp.SearchStdDevMs = millis(result.Search.StdDev)
	resp.SortAvgMs = millis(result.Sort.Average)
	resp.SortStdDevMs = millis(result.Sort.StdDev)
	resp.TasksSubmitted = result.TasksSubmitted
	resp.Report = result.Report()
	return resp
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.mu.RLock()
	last := s.last
	s.mu.RUnlock()

	if last == nil {
		http.Error(w, "No bench has been run", http.StatusNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, last)
}

// WebSocket handling
func (s *Server) handleWebSocket(ws *websocket.Conn) {
	s.mu.Lock()
	s.wsClients[ws] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.wsClients, ws)
		s.mu.Unlock()
		_ = ws.Close()
	}()

	// Keep connection alive
	for {
		var msg string
		if err := websocket.Message.Receive(ws, &msg); err != nil {
			break
		}
	}
}

func (s *Server) broadcast(data any) {
	s.mu.RLock()
	clients := make([]*websocket.Conn, 0, len(s.wsClients))
	for ws := range s.wsClients {
		clients = append(clients, ws)
	}
	s.mu.RUnlock()

	jsonData, err := json.Marshal(data)
	if err != nil {
		return
	}

	for _, ws := range clients {
		_ = websocket.Message.Send(ws, string(jsonData))
	}
}

// broadcastLoop はバスのイベントをWebSocketクライアントへ転送する
func (s *Server) broadcastLoop(ctx context.Context) {
	ch := s.bus.Subscribe()
	defer s.bus.Unsubscribe(ch)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			s.broadcast(map[string]any{
				"type":  "event",
				"event": event,
			})
		}
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error("Failed to encode JSON: %v", err)
	}
}
