// Package ai 调用兼容 OpenAI chat/completions 的流式接口（默认硅基流动 DeepSeek），
// 把增量内容累积成完整文本，按句读或字数节流后逐次输出。
package ai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"yijing/internal/config"
	"yijing/internal/metrics"
	"yijing/internal/trace"
)

const (
	completionsPath   = "/chat/completions"
	streamDataPrefix  = "data:"
	streamDone        = "[DONE]"
	maxRetries        = 3
	maxErrBodyLen     = 512
	textChannelBuffer = 16
)

var retryDelay = 500 * time.Millisecond

var (
	ErrMissingAPIKey = errors.New("ai: api key is required")
	ErrUpstream      = errors.New("ai: request failed")
)

// SystemPrompt 解卦对话的系统提示。
const SystemPrompt = "你是一位精通易经的专家，你熟读穷通宝典、三命通会、滴天髓、渊海子平、千里命稿、协纪辨方书、果老星宗、子平真栓、神峰通考等一系列书籍。" +
	"擅长解读卦象和爻辞，并能将古老的智慧应用到现代生活中。请直接输出解析内容，不要使用任何特殊标记或标签。"

// MindmapSystemPrompt 生成思维导图时的系统提示。
const MindmapSystemPrompt = "你是一位精通易经的专家，擅长用思维导图的形式展示易经的智慧。请严格按照要求的格式输出思维导图内容，只使用\"-\"作为列表标记。"

// 对话角色
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model            string    `json:"model"`
	Messages         []Message `json:"messages"`
	Temperature      float64   `json:"temperature"`
	MaxTokens        int       `json:"max_tokens"`
	TopP             float64   `json:"top_p,omitempty"`
	FrequencyPenalty float64   `json:"frequency_penalty"`
	PresencePenalty  float64   `json:"presence_penalty"`
	Stream           bool      `json:"stream"`
}

type Client struct {
	HTTPClient   *http.Client
	BaseURL      string
	APIKey       string
	Model        string
	MindmapModel string
	System       string
	Temperature  float64
	TopP         float64
	MaxTokens    int
	Metrics      *metrics.Metrics
}

func NewClient(cfg config.AI, m *metrics.Metrics) *Client {
	return &Client{
		HTTPClient:   &http.Client{Timeout: cfg.Timeout},
		BaseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		APIKey:       cfg.APIKey,
		Model:        cfg.Model,
		MindmapModel: cfg.MindmapModel,
		System:       SystemPrompt,
		Temperature:  cfg.Temperature,
		TopP:         cfg.TopP,
		MaxTokens:    cfg.MaxTokens,
		Metrics:      m,
	}
}

// ForMindmap 返回使用思维导图模型与提示的副本。
func (c *Client) ForMindmap() *Client {
	cp := *c
	if c.MindmapModel != "" {
		cp.Model = c.MindmapModel
	}
	cp.System = MindmapSystemPrompt
	cp.TopP = 0
	return &cp
}

// Stream 发起流式对话。text 上每次给出截至当前的完整文本（已去掉 <think> 段），
// 结束时 text 先关闭；出错时 errs 上有且只有一个错误。
func (c *Client) Stream(ctx context.Context, prompt string, history []Message) (<-chan string, <-chan error) {
	text := make(chan string, textChannelBuffer)
	errs := make(chan error, 1)
	go func() {
		defer close(errs)
		defer close(text)
		start := time.Now()
		err := c.stream(ctx, prompt, history, text)
		if !errors.Is(err, ErrMissingAPIKey) {
			c.Metrics.ObserveUpstream(metrics.UpstreamAI, start, err)
		}
		if err != nil {
			trace.Log(ctx, "ai: stream model=%s err=%v", c.Model, err)
			errs <- err
			return
		}
		trace.Log(ctx, "ai: stream model=%s done in %s", c.Model, time.Since(start).Round(time.Millisecond))
	}()
	return text, errs
}

// Collect 读完整个流，返回最终文本。
func Collect(text <-chan string, errs <-chan error) (string, error) {
	var last string
	for s := range text {
		last = s
	}
	if err := <-errs; err != nil {
		return last, err
	}
	return last, nil
}

func (c *Client) stream(ctx context.Context, prompt string, history []Message, out chan<- string) error {
	if strings.TrimSpace(c.APIKey) == "" {
		return ErrMissingAPIKey
	}
	resp, err := c.open(ctx, prompt, history)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	th := newThrottle()
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, streamDataPrefix) {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, streamDataPrefix))
		if data == "" {
			continue
		}
		if data == streamDone {
			break
		}
		if !gjson.Valid(data) {
			trace.Debug(ctx, "ai: skip malformed chunk %q", data)
			continue
		}
		if msg := gjson.Get(data, "error.message"); msg.Exists() {
			return fmt.Errorf("%w: %s", ErrUpstream, msg.String())
		}
		delta := gjson.Get(data, "choices.0.delta.content").String()
		if delta == "" {
			continue
		}
		if s, ok := th.add(delta); ok {
			if err := send(ctx, out, s); err != nil {
				return err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("ai: read stream: %w", err)
	}
	if s, ok := th.flush(); ok {
		return send(ctx, out, s)
	}
	return nil
}

func send(ctx context.Context, out chan<- string, s string) error {
	select {
	case out <- s:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// open 发出请求；网络错误与 429/5xx 重试，其余非 200 直接返回。
func (c *Client) open(ctx context.Context, prompt string, history []Message) (*http.Response, error) {
	messages := make([]Message, 0, len(history)+2)
	system := c.System
	if strings.TrimSpace(system) == "" {
		system = SystemPrompt
	}
	messages = append(messages, Message{Role: RoleSystem, Content: system})
	messages = append(messages, history...)
	messages = append(messages, Message{Role: RoleUser, Content: prompt})
	payload, err := json.Marshal(chatRequest{
		Model:       c.Model,
		Messages:    messages,
		Temperature: c.Temperature,
		MaxTokens:   c.MaxTokens,
		TopP:        c.TopP,
		Stream:      true,
	})
	if err != nil {
		return nil, fmt.Errorf("ai: marshal request: %w", err)
	}

	base := c.BaseURL
	if base == "" {
		base = config.DefaultAIBaseURL
	}
	client := c.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			backoff := retryDelay * time.Duration(1<<uint(attempt-1))
			trace.Log(ctx, "ai: retry %d/%d after %s", attempt, maxRetries, backoff)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+completionsPath, bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("ai: build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "text/event-stream")
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
		trace.Debug(ctx, "ai: req POST %s model=%s messages=%d", base+completionsPath, c.Model, len(messages))
		resp, err := client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			continue
		}
		if resp.StatusCode == http.StatusOK {
			return resp, nil
		}
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrBodyLen))
		_ = resp.Body.Close()
		lastErr = upstreamError(resp.StatusCode, body)
		if resp.StatusCode != http.StatusTooManyRequests && resp.StatusCode < http.StatusInternalServerError {
			return nil, lastErr
		}
	}
	return nil, lastErr
}

func upstreamError(status int, body []byte) error {
	if msg := gjson.GetBytes(body, "error.message").String(); msg != "" {
		return fmt.Errorf("%w: http %d: %s", ErrUpstream, status, msg)
	}
	if msg := gjson.GetBytes(body, "message").String(); msg != "" {
		return fmt.Errorf("%w: http %d: %s", ErrUpstream, status, msg)
	}
	return fmt.Errorf("%w: http %d", ErrUpstream, status)
}
