package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seed-eval/internal/model"
	"seed-eval/internal/oracle"
)

// scriptedOracle 按提示词中的关键字返回预设回复，并记录收到的提示词
type scriptedOracle struct {
	mu      sync.Mutex
	prompts []string
	replies map[string]string
	fail    map[string]bool
}

func newScriptedOracle() *scriptedOracle {
	return &scriptedOracle{replies: map[string]string{}, fail: map[string]bool{}}
}

func (o *scriptedOracle) on(key, reply string) *scriptedOracle {
	o.replies[key] = reply
	return o
}

func (o *scriptedOracle) failOn(key string) *scriptedOracle {
	o.fail[key] = true
	return o
}

func (o *scriptedOracle) Query(ctx context.Context, prompt string) (string, error) {
	o.mu.Lock()
	o.prompts = append(o.prompts, prompt)
	o.mu.Unlock()
	for key := range o.fail {
		if strings.Contains(prompt, key) {
			return "", errors.New("oracle unavailable")
		}
	}
	for key, reply := range o.replies {
		if strings.Contains(prompt, key) {
			return reply, nil
		}
	}
	return "I cannot help with that.", nil
}

func (o *scriptedOracle) calls() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.prompts)
}

var _ oracle.Oracle = (*scriptedOracle)(nil)

func newTestMiner(t *testing.T, o oracle.Oracle) *PatternMiner {
	t.Helper()
	m, err := NewPatternMiner(o, filepath.Join(t.TempDir(), "patterns"), DefaultRegistry())
	require.NoError(t, err)
	m.now = func() time.Time { return time.Date(2026, 5, 1, 8, 9, 10, 0, time.UTC) }
	return m
}

func TestPatternMiner_GenerateSamples(t *testing.T) {
	o := newScriptedOracle().
		on("Input characteristic: simple", `Sure! [{"input":"today tomatoes 100","output":{"item":"tomatoes","price":100},"category":"single_item"}]`).
		on("Input characteristic: typos", "```json\n[{\"input\":\"tomatos 100\",\"output\":\"tomatoes 100 yen\"}, \"garbage\"]\n```").
		failOn("Input characteristic: dialect")
	m := newTestMiner(t, o)

	samples, err := m.GenerateSamples(context.Background(), "shipment_parsing", 7, []string{"simple", "dialect", "typos", "prose"})
	require.NoError(t, err)

	// 每个提示一次请求；失败与无 JSON 的提示被跳过
	assert.Equal(t, 4, o.calls())
	require.Len(t, samples, 2)
	assert.Equal(t, "single_item", samples[0].Category)
	assert.Equal(t, "simple", samples[0].Hint)
	assert.Equal(t, "", samples[1].Category)
	assert.Equal(t, "typos", samples[1].Hint)
	assert.Equal(t, model.DefaultCategory, samples[1].CategoryOrDefault())

	// perHint = max(1, 7/4) = 1
	assert.Contains(t, o.prompts[0], "Generate 1 sample")
	assert.Contains(t, o.prompts[0], "Natural-language parsing of shipment notes")

	path := m.LastBatchPath()
	assert.Equal(t, "samples_shipment_parsing_20260501_080910.json", filepath.Base(path))
	saved, err := ReadJSONFile[[]model.Exemplar](path)
	require.NoError(t, err)
	assert.Len(t, saved, 2)

	assert.Len(t, m.Samples(), 2)
	assert.Equal(t, 2, m.Stats().SampleCount)
}

func TestPatternMiner_GenerateSamples_DefaultHints(t *testing.T) {
	o := newScriptedOracle()
	m := newTestMiner(t, o)

	samples, err := m.GenerateSamples(context.Background(), "feedback_text", 50, nil)
	require.NoError(t, err)
	assert.Empty(t, samples)
	assert.Equal(t, len(DefaultRegistry().DiversityHints()), o.calls())

	// 没有任何样本时也写出空批次
	b, err := os.ReadFile(m.LastBatchPath())
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(b))
}

func TestPatternMiner_ExtractPatterns(t *testing.T) {
	o := newScriptedOracle().
		on("Category: greeting", `[
  {"input_pattern":"hello {name}","output_template":"Hi {name}!","variables":["name"],"confidence":0.9},
  {"input_pattern":"hey","output_template":"Hey!","confidence":"0.4"}
]`).
		on("Category: general", `[{"input_pattern":"{item} {price}","output_template":"{item}: {price}"}]`).
		failOn("Category: broken")
	m := newTestMiner(t, o)

	samples := []model.Exemplar{
		{Input: model.Text("hello bob"), Output: model.Text("Hi bob!"), Category: "greeting"},
		{Input: model.Text("tomatoes 100"), Output: model.Text("tomatoes: 100")},
		{Input: model.Text("x"), Output: model.Text("y"), Category: "broken"},
		{Input: model.Text("hello amy"), Output: model.Text("Hi amy!"), Category: "greeting"},
		{Input: model.Text("hello sam"), Output: model.Text("Hi sam!"), Category: "greeting"},
		{Input: model.Text("hello kim"), Output: model.Text("Hi kim!"), Category: "greeting"},
	}
	patterns := m.ExtractPatterns(context.Background(), samples)

	// 类别按首次出现顺序：greeting, general, broken(失败)
	require.Len(t, patterns, 3)
	assert.Equal(t, "greeting", patterns[0].Category)
	assert.Equal(t, 0.9, patterns[0].Confidence)
	assert.Equal(t, []string{"name"}, patterns[0].Variables)
	assert.Len(t, patterns[0].Examples, 3)
	assert.Equal(t, 0.4, patterns[1].Confidence)
	assert.Equal(t, "general", patterns[2].Category)
	assert.Equal(t, defaultPatternConfidence, patterns[2].Confidence)
	assert.Zero(t, patterns[2].UsageCount)

	st := m.Stats()
	assert.Equal(t, 3, st.PatternCount)
	assert.Equal(t, []string{"greeting", "general"}, st.Categories)
	assert.InDelta(t, (0.9+0.4+0.5)/3, st.AvgConfidence, 1e-9)

	// 新一轮提取替换旧结果
	m.ExtractPatterns(context.Background(), []model.Exemplar{{Input: model.Text("x"), Category: "broken"}})
	assert.Empty(t, m.Patterns())
}

func TestPatternMiner_ExtractPatterns_PromptCapsExemplars(t *testing.T) {
	o := newScriptedOracle().on("Category: bulk", `[{"input_pattern":"sample-{n}","output_template":"{n}","confidence":0.9}]`)
	m := newTestMiner(t, o)

	var samples []model.Exemplar
	for i := 0; i < 12; i++ {
		samples = append(samples, model.Exemplar{
			Input:    model.Text(fmt.Sprintf("sample-%02d", i)),
			Output:   model.Text(fmt.Sprintf("%02d", i)),
			Category: "bulk",
		})
	}
	patterns := m.ExtractPatterns(context.Background(), samples)

	require.Len(t, patterns, 1)
	require.Equal(t, 1, o.calls())
	prompt := o.prompts[0]
	for i := 0; i < patternPromptLimit; i++ {
		assert.Contains(t, prompt, fmt.Sprintf("sample-%02d", i))
	}
	assert.NotContains(t, prompt, "sample-10")
	assert.NotContains(t, prompt, "sample-11")
	assert.Len(t, patterns[0].Examples, patternExampleLimit)
}

func TestPatternMiner_ExtractPatterns_UsesAccumulatedSamples(t *testing.T) {
	o := newScriptedOracle().on("Category: general", `[{"input_pattern":"a","output_template":"b","confidence":0.8}]`)
	m := newTestMiner(t, o)
	m.LoadSamples([]model.Exemplar{{Input: model.Text("a"), Output: model.Text("b")}})

	patterns := m.ExtractPatterns(context.Background(), nil)
	require.Len(t, patterns, 1)
	assert.Contains(t, o.prompts[0], `"input": "a"`)

	// 空样本不发请求，也不清空上一轮的模式
	assert.Empty(t, m.ExtractPatterns(context.Background(), []model.Exemplar{}))
	assert.Equal(t, 1, o.calls())
	assert.Len(t, m.Patterns(), 1)
}

func TestPatternMiner_SaveAsTemplates(t *testing.T) {
	m := newTestMiner(t, newScriptedOracle())
	ex := []model.Exemplar{
		{Input: model.Text("1"), Output: model.Text("1")},
		{Input: model.Text("2"), Output: model.Text("2")},
		{Input: model.Text("3"), Output: model.Text("3")},
	}
	confidences := []float64{0.69, 0.7, 0.95, 0.1, 0.7000001, 0.5}
	for i, c := range confidences {
		m.patterns = append(m.patterns, model.ExtractedPattern{
			Category:     "c",
			InputPattern: strings.Repeat("p", i+1),
			Examples:     ex,
			Confidence:   c,
		})
	}

	out := filepath.Join(t.TempDir(), "templates", "shipment.json")
	path, err := m.SaveAsTemplates(out, 0.7)
	require.NoError(t, err)

	templates, err := ReadJSONFile[[]model.Template](path)
	require.NoError(t, err)
	var kept []string
	for _, tpl := range templates {
		kept = append(kept, tpl.InputPattern)
		assert.Len(t, tpl.Examples, templateExampleLimit)
	}
	assert.Equal(t, []string{"pp", "ppp", "ppppp"}, kept)

	// 全部低于阈值时写出空数组，并覆盖旧文件
	_, err = m.SaveAsTemplates(out, 0.99)
	require.NoError(t, err)
	b, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(b))
}
