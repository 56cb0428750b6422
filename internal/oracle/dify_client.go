package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"seed-eval/internal/config"
)

// DifyClient 通过 Dify 应用访问 oracle
type DifyClient struct {
	cfg    config.DifyConfig
	user   string
	client *http.Client
}

func NewDifyClient(cfg config.DifyConfig) *DifyClient {
	if cfg.ResponseMode == "" {
		cfg.ResponseMode = "blocking"
	}
	if cfg.WorkflowSystemKey == "" {
		cfg.WorkflowSystemKey = "system"
	}
	if cfg.WorkflowQueryKey == "" {
		cfg.WorkflowQueryKey = "query"
	}
	return &DifyClient{
		cfg:  cfg,
		user: "seed-eval",
		client: &http.Client{
			// 生成类请求较慢；调用方可通过 ctx 更早取消
			Timeout: 120 * time.Second,
		},
	}
}

type messageRequest struct {
	Inputs       map[string]any `json:"inputs"`
	Query        string         `json:"query"`
	ResponseMode string         `json:"response_mode"`
	User         string         `json:"user"`
}

type messageResponse struct {
	MessageID string `json:"message_id"`
	Answer    string `json:"answer"`
}

type workflowRunRequest struct {
	Inputs       map[string]any `json:"inputs"`
	ResponseMode string         `json:"response_mode"`
	User         string         `json:"user"`
}

type workflowRunResponse struct {
	TaskID string `json:"task_id"`
	Data   struct {
		ID      string         `json:"id"`
		Outputs map[string]any `json:"outputs"`
		Status  string         `json:"status"`
		Error   string         `json:"error"`
	} `json:"data"`
}

// Query 实现 Oracle：workflow 应用走 workflows/run，否则 completion 失败后回退到 chat
func (c *DifyClient) Query(ctx context.Context, prompt string) (string, error) {
	if c.cfg.AppType == "workflow" {
		return c.WorkflowRun(ctx, map[string]any{
			c.cfg.WorkflowSystemKey: prompt,
			c.cfg.WorkflowQueryKey:  prompt,
		})
	}

	answer, err := c.Completion(ctx, prompt)
	if err == nil {
		return answer, nil
	}
	completionErr := err

	answer, chatErr := c.Chat(ctx, prompt)
	if chatErr == nil {
		return answer, nil
	}

	return "", fmt.Errorf("oracle 请求失败: app_type=%s, completion(%v), chat(%v)",
		c.cfg.AppType, completionErr, chatErr)
}

// Chat 使用 chat-messages 端点（chat 模式应用）
func (c *DifyClient) Chat(ctx context.Context, prompt string) (string, error) {
	var resp messageResponse
	if err := c.post(ctx, "/chat-messages", messageRequest{
		Inputs:       map[string]any{},
		Query:        prompt,
		ResponseMode: c.cfg.ResponseMode,
		User:         c.user,
	}, &resp); err != nil {
		return "", err
	}
	return resp.Answer, nil
}

// Completion 使用 completion-messages 端点（completion 模式应用）
func (c *DifyClient) Completion(ctx context.Context, prompt string) (string, error) {
	var resp messageResponse
	if err := c.post(ctx, "/completion-messages", messageRequest{
		Inputs:       map[string]any{"query": prompt},
		Query:        prompt,
		ResponseMode: c.cfg.ResponseMode,
		User:         c.user,
	}, &resp); err != nil {
		return "", err
	}
	return resp.Answer, nil
}

func (c *DifyClient) WorkflowRun(ctx context.Context, inputs map[string]any) (string, error) {
	// streaming 模式会返回 SSE；这里不解析 SSE，建议用 blocking
	var resp workflowRunResponse
	if err := c.post(ctx, "/workflows/run", workflowRunRequest{
		Inputs:       inputs,
		ResponseMode: c.cfg.ResponseMode,
		User:         c.user,
	}, &resp); err != nil {
		return "", err
	}
	if resp.Data.Status == "failed" {
		return "", fmt.Errorf("workflow执行失败: %s", resp.Data.Error)
	}
	return extractWorkflowAnswer(resp.Data.Outputs, c.cfg.WorkflowOutputKey), nil
}

func (c *DifyClient) post(ctx context.Context, path string, body, out any) error {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("序列化请求失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(c.cfg.BaseURL, "/")+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		slog.Debug("dify request failed", "path", path, "status", resp.StatusCode)
		var errResp map[string]any
		if json.Unmarshal(raw, &errResp) == nil {
			if msg, ok := errResp["message"].(string); ok {
				return fmt.Errorf("API返回错误: %d, %s", resp.StatusCode, msg)
			}
		}
		return fmt.Errorf("API返回错误: %d, %s", resp.StatusCode, truncate(string(raw), 500))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("解析响应失败: %w", err)
	}
	return nil
}

func extractWorkflowAnswer(outputs map[string]any, outputKey string) string {
	if outputs == nil {
		return ""
	}

	if outputKey != "" {
		if v, ok := outputs[outputKey]; ok {
			return stringify(v)
		}
	}

	for _, k := range []string{"answer", "text", "output", "result"} {
		if v, ok := outputs[k]; ok {
			return stringify(v)
		}
	}

	for _, v := range outputs {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}

	b, _ := json.Marshal(outputs)
	return string(b)
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, _ := json.Marshal(v)
	return string(b)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
