// Package openrouter 实现 OpenRouter 模型网关的目录查询与对话调用
package openrouter

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"sync"
)

// maxErrorBody 非 2xx 响应体最多保留的字节数
const maxErrorBody = 64 * 1024

// headerTransport 为每个请求附加网关要求的来源标识头，并在需要时捕获错误响应体
type headerTransport struct {
	base    http.RoundTripper
	referer string
	title   string
}

// NewHTTPClient 创建附带来源标识头的 HTTP 客户端
func NewHTTPClient(referer, title string) *http.Client {
	return &http.Client{
		Transport: &headerTransport{
			base:    http.DefaultTransport,
			referer: referer,
			title:   title,
		},
	}
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	if t.referer != "" {
		r.Header.Set("HTTP-Referer", t.referer)
	}
	if t.title != "" {
		r.Header.Set("X-Title", t.title)
	}

	resp, err := t.base.RoundTrip(r)
	if err != nil || resp.StatusCode/100 == 2 {
		return resp, err
	}

	capture, ok := req.Context().Value(errorCaptureKey{}).(*errorCapture)
	if !ok {
		return resp, nil
	}
	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, readErr
	}
	capture.set(string(body))
	resp.Body = io.NopCloser(bytes.NewReader(body))
	return resp, nil
}

type errorCaptureKey struct{}

// errorCapture 保存一次调用中上游返回的原始错误响应体
type errorCapture struct {
	mu   sync.Mutex
	body string
}

func withErrorCapture(ctx context.Context) (context.Context, *errorCapture) {
	c := &errorCapture{}
	return context.WithValue(ctx, errorCaptureKey{}, c), c
}

func (c *errorCapture) set(body string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.body = body
}

func (c *errorCapture) text() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.body
}
