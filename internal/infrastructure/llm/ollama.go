package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"book-creator-api/internal/config"
	"book-creator-api/pkg/metrics"
)

// OllamaClient 本地 Ollama 文本生成客户端（非流式）
type OllamaClient struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// NewOllamaClient 创建 Ollama 客户端
func NewOllamaClient(cfg *config.OllamaConfig) *OllamaClient {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		// 章节生成是长任务，默认给足余量
		timeout = 300 * time.Second
	}
	return &OllamaClient{
		baseURL: baseURL,
		model:   cfg.Model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Complete 对 prompt 生成一段完整文本
func (c *OllamaClient) Complete(ctx context.Context, prompt string) (string, error) {
	reqBody, err := json.Marshal(&generateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: false,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal generate request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create generate request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	metrics.LLMCallDuration.WithLabelValues("ollama").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.LLMCallTotal.WithLabelValues("ollama", "error").Inc()
		return "", fmt.Errorf("ollama request failed: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		metrics.LLMCallTotal.WithLabelValues("ollama", "error").Inc()
		return "", fmt.Errorf("ollama request failed: status=%d", httpResp.StatusCode)
	}

	var resp generateResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		metrics.LLMCallTotal.WithLabelValues("ollama", "error").Inc()
		return "", fmt.Errorf("failed to decode generate response: %w", err)
	}

	metrics.LLMCallTotal.WithLabelValues("ollama", "ok").Inc()
	return resp.Response, nil
}
