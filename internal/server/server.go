// Package server 提供 HTTP 接口：起卦 JSON、卦值查询、AI 解卦（SSE 流式）、HTML 报告与 /metrics。
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"yijing/internal/ai"
	"yijing/internal/divination"
	"yijing/internal/hexagram"
	"yijing/internal/metrics"
	"yijing/internal/report"
	"yijing/internal/trace"
)

// 超时
const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 5 * time.Second
	castTimeout       = 30 * time.Second
	maxBodyBytes      = 1 << 20
)

const defaultRandomCount = 4

const (
	traceHeader = "X-Trace-Id"
	timeNow     = "now"
)

// Caster divination.Service 满足。
type Caster interface {
	Cast(ctx context.Context, req divination.Request) (divination.Reading, error)
}

// Interpreter ai.Client 满足。
type Interpreter interface {
	Stream(ctx context.Context, prompt string, history []ai.Message) (<-chan string, <-chan error)
}

type Server struct {
	Caster  Caster
	AI      Interpreter // 为 nil 时 /api/interpret 返回 503
	Mindmap Interpreter // 为 nil 时沿用 AI
	Metrics *metrics.Metrics
	now     func() time.Time
}

func New(caster Caster, interpreter, mindmap Interpreter, m *metrics.Metrics) *Server {
	return &Server{Caster: caster, AI: interpreter, Mindmap: mindmap, Metrics: m, now: time.Now}
}

// Handler 组装路由。
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(withTrace)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/", s.page)
	r.Route("/api", func(r chi.Router) {
		r.Get("/cast", s.cast)
		r.Get("/hexagrams/random", s.randomHexagrams)
		r.Get("/hexagrams/{value}", s.hexagram)
		r.Get("/trigrams", s.trigrams)
		r.Post("/interpret", s.interpret)
	})
	r.Handle("/metrics", s.Metrics.Handler())
	return r
}

// ListenAndServe 监听 addr，ctx 取消后优雅关闭。
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}
	serverErrors := make(chan error, 1)
	go func() {
		trace.Log(ctx, "server: listening on %s", addr)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
		trace.Log(ctx, "server: shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			trace.Log(ctx, "server: graceful shutdown did not complete in %s: %v", shutdownTimeout, err)
			_ = srv.Close()
			return fmt.Errorf("server: shutdown: %w", err)
		}
		trace.Log(ctx, "server: stopped")
		return nil
	}
}

// withTrace 每个请求一个 trace ID，写入响应头并记录耗时。
func withTrace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(traceHeader))
		if id == "" {
			id = trace.NewTraceID()
		}
		ctx := trace.WithTraceID(r.Context(), id)
		w.Header().Set(traceHeader, id)
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r.WithContext(ctx))
		trace.Log(ctx, "server: %s %s status=%d bytes=%d in %s",
			r.Method, r.URL.Path, ww.Status(), ww.BytesWritten(), time.Since(start).Round(time.Millisecond))
	})
}

// castRequest 解析 seed 与 time 查询参数。time 为 now 或 RFC3339，缺省不做时间起卦。
func (s *Server) castRequest(seedParam, timeParam string) (divination.Request, error) {
	var req divination.Request
	if v := strings.TrimSpace(seedParam); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return req, fmt.Errorf("invalid seed %q", v)
		}
		req.Seed = seed
	}
	switch v := strings.TrimSpace(timeParam); v {
	case "":
	case timeNow:
		at := s.now()
		req.At = &at
	default:
		at, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return req, fmt.Errorf("invalid time %q, want RFC3339 or %q", v, timeNow)
		}
		req.At = &at
	}
	return req, nil
}

func (s *Server) doCast(ctx context.Context, req divination.Request) (divination.Reading, error) {
	ctx, cancel := context.WithTimeout(ctx, castTimeout)
	defer cancel()
	return s.Caster.Cast(ctx, req)
}

func (s *Server) cast(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req, err := s.castRequest(q.Get("seed"), q.Get("time"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	reading, err := s.doCast(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, reading)
}

func (s *Server) page(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	timeParam := timeNow
	if q.Has("time") {
		timeParam = q.Get("time")
	}
	req, err := s.castRequest(q.Get("seed"), timeParam)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	reading, err := s.doCast(r.Context(), req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(report.HTML(reading)))
}

// HexagramInfo /api/hexagrams/{value} 的返回。
type HexagramInfo struct {
	Value   int              `json:"value"`
	Binary  string           `json:"binary"`
	Name    string           `json:"name"`
	Upper   hexagram.Trigram `json:"upper"`
	Lower   hexagram.Trigram `json:"lower"`
	Lines   []bool           `json:"lines"`   // 自下而上，true 为阳
	Toggled map[int]string   `json:"toggled"` // 翻转各爻后得到的卦
}

func (s *Server) hexagram(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "value")
	v, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid hexagram %q", raw))
		return
	}
	info, ok := hexagramInfo(hexagram.Hexagram(v))
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("%w: %d", hexagram.ErrInvalidHexagram, v))
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func hexagramInfo(h hexagram.Hexagram) (HexagramInfo, bool) {
	pair, ok := hexagram.ToTrigrams(h)
	if !ok {
		return HexagramInfo{}, false
	}
	info := HexagramInfo{
		Value:   int(h),
		Binary:  h.String(),
		Name:    hexagram.Name(h),
		Lines:   make([]bool, 0, hexagram.LineCount),
		Toggled: make(map[int]string, hexagram.LineCount),
	}
	info.Upper, _ = hexagram.LookupTrigram(pair.Upper)
	info.Lower, _ = hexagram.LookupTrigram(pair.Lower)
	for line := 1; line <= hexagram.LineCount; line++ {
		info.Lines = append(info.Lines, h.Bit(line))
		t, _ := hexagram.ToggleLine(h, line)
		info.Toggled[line] = hexagram.Name(t)
	}
	return info, true
}

// RandomHexagrams /api/hexagrams/random 的返回。
type RandomHexagrams struct {
	Seed      int64          `json:"seed"`
	Hexagrams []HexagramInfo `json:"hexagrams"`
}

// randomHexagrams 随机抽卦：count 默认 4（1-64），seed 缺省或为 0 时取当前时间。
func (s *Server) randomHexagrams(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	count := defaultRandomCount
	if raw := q.Get("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > int(hexagram.Max)+1 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid count %q, want 1-64", raw))
			return
		}
		count = n
	}
	var seed int64
	if raw := q.Get("seed"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid seed %q", raw))
			return
		}
		seed = n
	}
	if seed == 0 {
		seed = s.now().UnixNano()
	}
	out := RandomHexagrams{Seed: seed}
	for _, h := range divination.RandomHexagrams(seed, count) {
		info, _ := hexagramInfo(h)
		out.Hexagrams = append(out.Hexagrams, info)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) trigrams(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, hexagram.Trigrams())
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorBody{Error: err.Error()})
}
