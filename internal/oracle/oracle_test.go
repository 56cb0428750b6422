package oracle

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seed-eval/internal/config"
)

func TestDifyClient_WorkflowAnswer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/workflows/run", r.URL.Path)
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))

		var body struct {
			Inputs map[string]any `json:"inputs"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "hello", body.Inputs["system"])

		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{"status": "succeeded", "outputs": map[string]any{"answer": "[1,2]"}},
		})
	}))
	defer srv.Close()

	c := NewDifyClient(config.DifyConfig{BaseURL: srv.URL, APIKey: "k", AppType: "workflow"})
	got, err := c.Query(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "[1,2]", got)
}

func TestDifyClient_FallsBackToChat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/completion-messages":
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"message":"app mode mismatch"}`))
		case "/chat-messages":
			_, _ = w.Write([]byte(`{"answer":"from chat"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewDifyClient(config.DifyConfig{BaseURL: srv.URL, APIKey: "k", AppType: "chat"})
	got, err := c.Query(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "from chat", got)
}

func TestDifyClient_AllEndpointsFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer srv.Close()

	_, err := NewDifyClient(config.DifyConfig{BaseURL: srv.URL, APIKey: "k", AppType: "chat"}).Query(context.Background(), "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestExtractWorkflowAnswer(t *testing.T) {
	assert.Equal(t, "", extractWorkflowAnswer(nil, ""))
	assert.Equal(t, "x", extractWorkflowAnswer(map[string]any{"custom": "x", "answer": "y"}, "custom"))
	assert.Equal(t, "y", extractWorkflowAnswer(map[string]any{"answer": "y"}, "missing"))
	assert.Equal(t, `{"a":1}`, extractWorkflowAnswer(map[string]any{"result": map[string]any{"a": 1}}, ""))
}

func TestRateLimited_PassesThroughAndHonorsCancel(t *testing.T) {
	calls := 0
	inner := Func(func(ctx context.Context, prompt string) (string, error) {
		calls++
		return "ok:" + prompt, nil
	})
	rl := NewRateLimited(inner, 1, 1)

	got, err := rl.Query(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "ok:a", got)

	// 令牌已用完，取消的 ctx 不会等待
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = rl.Query(ctx, "b")
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New(context.Background(), config.OracleConfig{Provider: "nope"})
	require.Error(t, err)
}

func TestNew_OpenAIRequiresKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	_, err := New(context.Background(), config.OracleConfig{Provider: "openai"})
	require.Error(t, err)
}

func TestNew_DifyWrappedWithLimiter(t *testing.T) {
	o, err := New(context.Background(), config.OracleConfig{Provider: "dify", RatePerSecond: 2})
	require.NoError(t, err)
	_, ok := o.(*RateLimited)
	assert.True(t, ok)

	o, err = New(context.Background(), config.OracleConfig{Provider: "dify"})
	require.NoError(t, err)
	_, ok = o.(*DifyClient)
	assert.True(t, ok)
}
