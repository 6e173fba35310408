package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// WebhookNotifier 通过 HTTP Webhook 调用文档生成服务
type WebhookNotifier struct {
	url        string
	httpClient *http.Client
}

// NewWebhookNotifier 创建 Webhook 通知器
func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{
		url:        url,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// GenerateAndDeliver 请求文档生成并返回文档 URL
func (n *WebhookNotifier) GenerateAndDeliver(ctx context.Context, orderID string) (string, error) {
	payload, err := json.Marshal(map[string]string{"order_id": orderID})
	if err != nil {
		return "", fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	var result struct {
		DocumentURL string `json:"document_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode webhook response: %w", err)
	}
	return result.DocumentURL, nil
}

// NoopNotifier 空实现,未配置文档服务时使用
type NoopNotifier struct{}

// GenerateAndDeliver 什么也不做
func (NoopNotifier) GenerateAndDeliver(_ context.Context, _ string) (string, error) {
	return "", nil
}
