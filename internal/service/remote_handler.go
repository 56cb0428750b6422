package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"seed-eval/internal/model"
)

// RemoteHandler 通过 HTTP 调用一个被测实现：POST 输入 JSON，响应 JSON 即输出
type RemoteHandler struct {
	url  string
	http *http.Client
}

func NewRemoteHandler(url string) *RemoteHandler {
	return &RemoteHandler{
		url: strings.TrimSpace(url),
		http: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

func (h *RemoteHandler) Enabled() bool {
	return h != nil && h.url != ""
}

// Invoke 非 2xx 视为失败；响应体不是 JSON 时按纯文本输出
func (h *RemoteHandler) Invoke(ctx context.Context, input model.Value) (model.Value, error) {
	if !h.Enabled() {
		return model.Value{}, fmt.Errorf("remote handler disabled")
	}
	b, err := json.Marshal(input)
	if err != nil {
		return model.Value{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(b))
	if err != nil {
		return model.Value{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := h.http.Do(req)
	if err != nil {
		return model.Value{}, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.Value{}, fmt.Errorf("读取响应失败: %w", err)
	}
	if remoteDebugEnabled() {
		slog.Debug("remote handler response", "url", h.url, "status", resp.StatusCode, "body", truncate(string(raw), 600))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return model.Value{}, fmt.Errorf("handler http=%d body=%s", resp.StatusCode, truncate(string(raw), 300))
	}

	var out model.Value
	if err := json.Unmarshal(raw, &out); err != nil {
		return model.Text(strings.TrimSpace(string(raw))), nil
	}
	return out, nil
}

func remoteDebugEnabled() bool {
	return os.Getenv("SEED_EVAL_HTTP_DEBUG") == "1"
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
