// Package lunar 封装天行数据农历接口：按公历日期查年月日干支与农历月日，
// 按钟点推时辰干支，含重试、trace 日志与按日期缓存。
package lunar

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"yijing/internal/config"
	"yijing/internal/ganzhi"
	"yijing/internal/metrics"
	"yijing/internal/model"
	"yijing/internal/trace"
)

// 接口路径与日期格式
const (
	lunarPath  = "/lunar/index"
	dateLayout = "2006-01-02"
	apiCodeOK  = 200
)

// 请求超时与重试
const (
	defaultHTTPTimeout = 5 * time.Second
	maxRetries         = 3
	httpStatusTooMany  = 429
	maxRespLogLen      = 1200
)

// 退避时长，测试中可调小
var (
	retryDelay    = 500 * time.Millisecond
	retryDelay429 = 5 * time.Second
)

// 查询失败时的占位
const (
	Placeholder       = "－"
	PlaceholderNumber = "0"
)

var (
	ErrDisabled     = errors.New("lunar: api key not configured")
	ErrUpstream     = errors.New("lunar: upstream error")
	ErrIncomplete   = errors.New("lunar: ganzhi data missing")
	ErrBadLunarDate = errors.New("lunar: lunar month/day conversion failed")
)

type Client struct {
	HTTPClient *http.Client
	BaseURL    string
	APIKey     string
	Cache      Cache
	Metrics    *metrics.Metrics
}

// NewClient 按配置创建；cache 为 nil 时不缓存。
func NewClient(cfg config.Lunar, cache Cache, m *metrics.Metrics) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	return &Client{
		HTTPClient: &http.Client{Timeout: timeout},
		BaseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		APIKey:     cfg.APIKey,
		Cache:      cache,
		Metrics:    m,
	}
}

// Lookup 查询 t 所在公历日的农历信息，并由 t 的钟点补全时辰干支。
// 出错时返回带占位符与 Error 字段的 LunarInfo 以及错误，调用方可直接展示占位结果。
func (c *Client) Lookup(ctx context.Context, t time.Time) (model.LunarInfo, error) {
	date := t.Format(dateLayout)
	day, err := c.day(ctx, date)
	if err != nil {
		trace.Log(ctx, "lunar: lookup date=%s err=%v", date, err)
		return Failed(date, err), err
	}
	return WithHour(day, t.Hour()), nil
}

// WithHour 由钟点补全时辰地支，再由日干推时干（五鼠遁）。
func WithHour(info model.LunarInfo, hour int) model.LunarInfo {
	info.HourBranch = ganzhi.HourBranch(hour)
	info.HourStem = ganzhi.HourStem(info.DayStem, info.HourBranch)
	return info
}

// Failed 查询失败时的占位结果。
func Failed(date string, err error) model.LunarInfo {
	msg := "获取农历日期失败"
	if err != nil {
		msg = err.Error()
	}
	return model.LunarInfo{
		Date:        date,
		YearStem:    Placeholder,
		YearBranch:  Placeholder,
		MonthStem:   Placeholder,
		MonthBranch: Placeholder,
		DayStem:     Placeholder,
		DayBranch:   Placeholder,
		HourStem:    Placeholder,
		HourBranch:  Placeholder,
		LunarMonth:  PlaceholderNumber,
		LunarDay:    PlaceholderNumber,
		Error:       msg,
	}
}

// day 取某日的干支与农历月日（不含时辰），先查缓存。
func (c *Client) day(ctx context.Context, date string) (model.LunarInfo, error) {
	if c == nil {
		return model.LunarInfo{}, fmt.Errorf("lunar client is nil")
	}
	if strings.TrimSpace(c.APIKey) == "" {
		return model.LunarInfo{}, ErrDisabled
	}
	if c.Cache != nil {
		if info, ok, err := c.Cache.Get(ctx, date); err != nil {
			trace.Log(ctx, "lunar: cache get date=%s err=%v", date, err)
		} else if ok {
			trace.Debug(ctx, "lunar: cache hit date=%s", date)
			return info, nil
		}
	}
	start := time.Now()
	body, err := c.doWithRetry(ctx, c.requestURL(date))
	var info model.LunarInfo
	if err == nil {
		info, err = parseDay(body)
	}
	c.Metrics.ObserveUpstream(metrics.UpstreamLunar, start, err)
	if err != nil {
		return model.LunarInfo{}, err
	}
	info.Date = date
	if c.Cache != nil {
		if err := c.Cache.Set(ctx, date, info); err != nil {
			trace.Log(ctx, "lunar: cache set date=%s err=%v", date, err)
		}
	}
	return info, nil
}

func (c *Client) requestURL(date string) string {
	q := url.Values{}
	q.Set("key", c.APIKey)
	q.Set("date", date)
	base := c.BaseURL
	if base == "" {
		base = config.DefaultLunarBaseURL
	}
	return base + lunarPath + "?" + q.Encode()
}

func (c *Client) doWithRetry(ctx context.Context, rawURL string) ([]byte, error) {
	client := c.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	logURL := redactKey(rawURL)
	var lastErr error
	var lastStatus int
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			backoff := retryDelay
			if lastStatus == httpStatusTooMany {
				backoff = retryDelay429
				trace.Log(ctx, "lunar: 429 限流，等待 %s 后重试", backoff)
			} else {
				trace.Log(ctx, "lunar: retry %d/%d %s", attempt, maxRetries, logURL)
			}
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, fmt.Errorf("lunar: build request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		trace.Debug(ctx, "lunar: req GET %s", logURL)
		resp, err := client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		body, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}
		trace.Debug(ctx, "lunar: resp status=%d len=%d body=%s", resp.StatusCode, len(body), truncateForLog(body))
		if resp.StatusCode != http.StatusOK {
			lastStatus = resp.StatusCode
			lastErr = fmt.Errorf("%w: http %d", ErrUpstream, resp.StatusCode)
			continue
		}
		return body, nil
	}
	trace.Log(ctx, "lunar: doWithRetry fail url=%s err=%v", logURL, lastErr)
	return nil, lastErr
}

// parseDay 解析 result.lunardate（如 "2025-1-16"）与 result.tiangandizhi*。
// lunardate 缺失时退回中文字段 lubarmonth / lunarday。
func parseDay(body []byte) (model.LunarInfo, error) {
	var info model.LunarInfo
	if code := gjson.GetBytes(body, "code").Int(); code != apiCodeOK {
		msg := gjson.GetBytes(body, "msg").String()
		if msg == "" {
			msg = "API返回数据缺失"
		}
		return info, fmt.Errorf("%w: code=%d msg=%s", ErrUpstream, code, msg)
	}
	res := gjson.GetBytes(body, "result")
	if !res.Exists() || !res.IsObject() {
		return info, fmt.Errorf("%w: result missing", ErrUpstream)
	}

	month, day := PlaceholderNumber, PlaceholderNumber
	parts := strings.Split(res.Get("lunardate").String(), "-")
	if len(parts) > 1 && parts[1] != "" {
		month = parts[1]
	}
	if len(parts) > 2 && parts[2] != "" {
		day = parts[2]
	}
	if month == PlaceholderNumber {
		if s := res.Get("lubarmonth").String(); s != "" {
			month = s
		}
	}
	if day == PlaceholderNumber {
		if s := res.Get("lunarday").String(); s != "" {
			day = s
		}
	}

	info.YearStem, info.YearBranch = ganzhi.SplitGanZhi(res.Get("tiangandizhiyear").String())
	info.MonthStem, info.MonthBranch = ganzhi.SplitGanZhi(res.Get("tiangandizhimonth").String())
	info.DayStem, info.DayBranch = ganzhi.SplitGanZhi(res.Get("tiangandizhiday").String())
	if info.YearBranch == "" || info.MonthBranch == "" || info.DayBranch == "" {
		return info, ErrIncomplete
	}
	if ganzhi.ParseNumber(month) <= 0 || ganzhi.ParseNumber(day) <= 0 {
		return info, fmt.Errorf("%w: month=%q day=%q", ErrBadLunarDate, month, day)
	}
	info.LunarMonth = month
	info.LunarDay = day
	return info, nil
}

func redactKey(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	if q.Has("key") {
		q.Set("key", "***")
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func truncateForLog(b []byte) string {
	s := string(b)
	if len(b) > maxRespLogLen {
		s = s[:maxRespLogLen] + "..."
	}
	return strings.ReplaceAll(strings.ReplaceAll(s, "\r", " "), "\n", " ")
}
