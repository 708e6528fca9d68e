package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"yijing/internal/ai"
	"yijing/internal/divination"
	"yijing/internal/hexagram"
	"yijing/internal/metrics"
	"yijing/internal/trace"
)

// SSE 事件名
const (
	eventReading = "reading"
	eventDone    = "done"
	eventError   = "error"
)

// InterpretRequest POST /api/interpret 的请求体。
type InterpretRequest struct {
	Seed     int64        `json:"seed"`
	Time     string       `json:"time"`
	Method   string       `json:"method"` // dayan（默认）或 meihua
	Question string       `json:"question"`
	Line     int          `json:"line"` // 1-6 时只解析该爻
	Mindmap  bool         `json:"mindmap"`
	Changed  bool         `json:"changed"` // 思维导图针对变卦
	History  []ai.Message `json:"history"`
}

type textEvent struct {
	Text string `json:"text"`
}

// interpret 先起卦，再把 AI 解卦文本以 SSE 推送：
// event: reading（起卦结果）→ 若干 data（截至当前的完整文本）→ event: done 或 event: error。
func (s *Server) interpret(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, errors.New("streaming not supported"))
		return
	}
	var body InterpretRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid body: %w", err))
		return
	}
	if body.Line < 0 || body.Line > hexagram.LineCount {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %d", hexagram.ErrInvalidChangingLine, body.Line))
		return
	}
	switch body.Method {
	case "", metrics.MethodDayan, metrics.MethodMeihua:
	default:
		writeError(w, http.StatusBadRequest, fmt.Errorf("unknown method %q, want %s or %s", body.Method, metrics.MethodDayan, metrics.MethodMeihua))
		return
	}
	if body.Method == metrics.MethodMeihua && body.Time == "" {
		body.Time = timeNow
	}
	interpreter := s.AI
	if body.Mindmap && s.Mindmap != nil {
		interpreter = s.Mindmap
	}
	if interpreter == nil {
		writeError(w, http.StatusServiceUnavailable, ai.ErrMissingAPIKey)
		return
	}

	req, err := s.castRequest(strconv.FormatInt(body.Seed, 10), body.Time)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	reading, err := s.doCast(ctx, req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	subject := reading.Subject(body.Question)
	if body.Method == metrics.MethodMeihua {
		ts, ok := reading.TimeSubject(body.Question)
		if !ok {
			writeError(w, http.StatusBadGateway, fmt.Errorf("time casting failed: %s", reading.TimeError))
			return
		}
		subject = ts
	}

	prompt, history := buildPrompt(body, subject)
	trace.Log(ctx, "server: interpret method=%q line=%d mindmap=%v history=%d", body.Method, body.Line, body.Mindmap, len(body.History))

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	writeEvent(w, eventReading, readingEvent(reading))
	flusher.Flush()

	text, errs := interpreter.Stream(ctx, prompt, history)
	var last string
	for chunk := range text {
		last = chunk
		writeEvent(w, "", textEvent{Text: chunk})
		flusher.Flush()
	}
	if err := <-errs; err != nil {
		writeEvent(w, eventError, errorBody{Error: err.Error()})
		flusher.Flush()
		return
	}
	writeEvent(w, eventDone, textEvent{Text: last})
	flusher.Flush()
}

func buildPrompt(body InterpretRequest, subject ai.Subject) (string, []ai.Message) {
	switch {
	case body.Mindmap:
		return ai.MindmapPrompt(subject, body.Changed, body.History), nil
	case body.Line > 0:
		return ai.LinePrompt(subject, body.Line), body.History
	default:
		return ai.HexagramPrompt(subject), body.History
	}
}

// readingEvent 推送给前端的起卦摘要，不含逐步推演过程。
func readingEvent(r divination.Reading) map[string]any {
	out := map[string]any{
		"seed":         r.Seed,
		"hexagram":     hexagram.Name(r.Casting.Hexagram),
		"changed":      hexagram.Name(r.Casting.Changed),
		"moving_lines": r.Casting.MovingLines,
		"lines":        r.Casting.Values(),
	}
	if r.Time != nil {
		out["time"] = map[string]any{
			"hexagram":      hexagram.Name(r.Time.Hexagram),
			"changed":       hexagram.Name(r.Time.Changed),
			"changing_line": r.Time.ChangingLine,
		}
	}
	if r.TimeError != "" {
		out["time_error"] = r.TimeError
	}
	return out
}

func writeEvent(w http.ResponseWriter, event string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		data = []byte(`{}`)
	}
	if event != "" {
		fmt.Fprintf(w, "event: %s\n", event)
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
}
