package openrouter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"schema-assistant-api/internal/application/credential"
	"schema-assistant-api/internal/config"
	"schema-assistant-api/internal/domain/entity"
	apperrors "schema-assistant-api/pkg/errors"
	"schema-assistant-api/pkg/logger"
	"schema-assistant-api/pkg/metrics"
)

// Client 模型目录客户端
type Client struct {
	baseURL     string
	httpClient  *http.Client
	credentials credential.Provider
}

// NewClient 创建目录客户端
func NewClient(cfg *config.Config, httpClient *http.Client, credentials credential.Provider) *Client {
	if httpClient == nil {
		httpClient = NewHTTPClient(cfg.Provider.Referer, cfg.Provider.Title)
	}
	return &Client{
		baseURL:     strings.TrimRight(cfg.Provider.BaseURL, "/"),
		httpClient:  httpClient,
		credentials: credentials,
	}
}

type modelsResponse struct {
	Data []entity.ModelDescriptor `json:"data"`
}

// FetchModels 获取网关当前提供的全部模型，按上游顺序原样返回
func (c *Client) FetchModels(ctx context.Context) ([]entity.ModelDescriptor, error) {
	apiKey, ok, err := c.credentials.Get(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeStorageError, "failed to read credential")
	}
	if !ok {
		return nil, apperrors.ErrUnauthenticated
	}

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.CatalogFetchTotal.WithLabelValues("upstream", "error").Inc()
		return nil, apperrors.ProviderError("Failed to fetch models: " + err.Error()).WithError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		_, _ = io.Copy(io.Discard, resp.Body)
		metrics.CatalogFetchTotal.WithLabelValues("upstream", "error").Inc()
		logger.Warn(ctx, "model catalog request rejected", "status", resp.StatusCode)
		return nil, apperrors.ProviderError("Failed to fetch models: " + statusText(resp))
	}

	var body modelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		metrics.CatalogFetchTotal.WithLabelValues("upstream", "error").Inc()
		return nil, apperrors.ProviderError("Failed to fetch models: " + err.Error()).WithError(err)
	}

	metrics.CatalogFetchTotal.WithLabelValues("upstream", "success").Inc()
	logger.Debug(ctx, "model catalog fetched", "count", len(body.Data), "duration_ms", time.Since(start).Milliseconds())
	if body.Data == nil {
		return []entity.ModelDescriptor{}, nil
	}
	return body.Data, nil
}

// statusText 优先使用响应自带的状态描述
func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		return http.StatusText(resp.StatusCode)
	}
	return text
}
