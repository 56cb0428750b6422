package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/cast"

	"seed-eval/internal/model"
	"seed-eval/internal/oracle"
)

const (
	taskGenerateSamples = "generate_samples"
	taskExtractPatterns = "extract_patterns"

	// 每个模式最多保留的样本数（审计用）
	patternExampleLimit = 3
	// 导出模板时保留的样本数
	templateExampleLimit = 2
	// oracle 未给出置信度时的默认值
	defaultPatternConfidence = 0.5
	DefaultMinConfidence     = 0.7
)

// PatternMiner 用 oracle 生成多样化样本，再把样本归纳为带置信度的模式
type PatternMiner struct {
	oracle    oracle.Oracle
	outputDir string
	registry  *Registry
	now       func() time.Time

	mu        sync.Mutex
	samples   []model.Exemplar
	patterns  []model.ExtractedPattern
	lastBatch string
}

// NewPatternMiner outputDir 用于保存每次生成的样本批次
func NewPatternMiner(o oracle.Oracle, outputDir string, registry *Registry) (*PatternMiner, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("创建样本目录失败: %w", err)
	}
	if registry == nil {
		registry = DefaultRegistry()
	}
	return &PatternMiner{
		oracle:    o,
		outputDir: outputDir,
		registry:  registry,
		now:       time.Now,
	}, nil
}

type rawExemplar struct {
	Input    model.Value `json:"input"`
	Output   model.Value `json:"output"`
	Category any         `json:"category"`
}

// GenerateSamples 每个多样性提示发一次请求，单个提示失败只记录日志并跳过。
// 本次调用的样本写入一个 samples_<feature>_<时间>.json，每个提示完成后重写。
func (m *PatternMiner) GenerateSamples(ctx context.Context, feature string, count int, hints []string) ([]model.Exemplar, error) {
	if len(hints) == 0 {
		hints = m.registry.DiversityHints()
	}
	if len(hints) == 0 {
		return nil, nil
	}
	perHint := max(1, count/len(hints))
	featureContext := m.registry.FeatureContext(feature)
	batchPath := m.samplesPath(feature, m.now())
	m.mu.Lock()
	m.lastBatch = batchPath
	m.mu.Unlock()

	batch := []model.Exemplar{}
	persisted := false
	for _, hint := range hints {
		accepted, err := m.samplesForHint(ctx, feature, featureContext, hint, perHint)
		if err != nil {
			slog.Error("sample generation failed", "feature", feature, "hint", hint, "error", err)
			continue
		}
		if len(accepted) == 0 {
			continue
		}
		batch = append(batch, accepted...)

		m.mu.Lock()
		m.samples = append(m.samples, accepted...)
		err = writeJSONFile(batchPath, batch)
		m.mu.Unlock()
		if err != nil {
			return batch, fmt.Errorf("保存样本失败: %w", err)
		}
		persisted = true
	}

	if !persisted {
		if err := writeJSONFile(batchPath, batch); err != nil {
			return batch, fmt.Errorf("保存样本失败: %w", err)
		}
	}
	slog.Info("samples generated", "feature", feature, "hints", len(hints), "count", len(batch), "path", batchPath)
	return batch, nil
}

func (m *PatternMiner) samplesForHint(ctx context.Context, feature, featureContext, hint string, perHint int) ([]model.Exemplar, error) {
	reply, err := queryOracle(ctx, m.oracle, taskGenerateSamples, buildSamplePrompt(feature, featureContext, hint, perHint))
	if err != nil {
		return nil, err
	}
	items, err := decodeArray(reply)
	if err != nil {
		return nil, err
	}

	out := make([]model.Exemplar, 0, len(items))
	for i, item := range items {
		var raw rawExemplar
		if err := json.Unmarshal(item, &raw); err != nil {
			slog.Warn("skip malformed sample", "feature", feature, "hint", hint, "index", i, "error", err)
			continue
		}
		out = append(out, model.Exemplar{
			Input:    raw.Input,
			Output:   raw.Output,
			Category: cast.ToString(raw.Category),
			Hint:     hint,
		})
	}
	return out, nil
}

func (m *PatternMiner) samplesPath(feature string, at time.Time) string {
	name := fmt.Sprintf("samples_%s_%s.json", safeFileComponent(feature), at.UTC().Format("20060102_150405"))
	return filepath.Join(m.outputDir, name)
}

// ExtractPatterns samples 为 nil 时使用已累积的样本。按类别（首次出现顺序）
// 各发一次请求；结果替换当前模式集合。没有样本时直接返回空，保留上一轮结果。
func (m *PatternMiner) ExtractPatterns(ctx context.Context, samples []model.Exemplar) []model.ExtractedPattern {
	if samples == nil {
		samples = m.Samples()
	}
	if len(samples) == 0 {
		return []model.ExtractedPattern{}
	}

	var order []string
	groups := make(map[string][]model.Exemplar)
	for _, s := range samples {
		c := s.CategoryOrDefault()
		if _, ok := groups[c]; !ok {
			order = append(order, c)
		}
		groups[c] = append(groups[c], s)
	}

	patterns := []model.ExtractedPattern{}
	for _, category := range order {
		found, err := m.patternsForCategory(ctx, category, groups[category])
		if err != nil {
			slog.Error("pattern extraction failed", "category", category, "error", err)
			continue
		}
		patterns = append(patterns, found...)
	}

	m.mu.Lock()
	m.patterns = patterns
	m.mu.Unlock()

	slog.Info("patterns extracted", "categories", len(order), "patterns", len(patterns))
	return append([]model.ExtractedPattern(nil), patterns...)
}

func (m *PatternMiner) patternsForCategory(ctx context.Context, category string, group []model.Exemplar) ([]model.ExtractedPattern, error) {
	reply, err := queryOracle(ctx, m.oracle, taskExtractPatterns, buildPatternPrompt(category, group))
	if err != nil {
		return nil, err
	}
	items, err := decodeArray(reply)
	if err != nil {
		return nil, err
	}

	examples := group
	if len(examples) > patternExampleLimit {
		examples = examples[:patternExampleLimit]
	}

	out := make([]model.ExtractedPattern, 0, len(items))
	for i, item := range items {
		var fields map[string]any
		if err := json.Unmarshal(item, &fields); err != nil {
			slog.Warn("skip malformed pattern", "category", category, "index", i, "error", err)
			continue
		}
		confidence := defaultPatternConfidence
		if v, ok := fields["confidence"]; ok && v != nil {
			c, err := cast.ToFloat64E(v)
			if err != nil {
				slog.Warn("skip pattern with bad confidence", "category", category, "index", i, "confidence", v)
				continue
			}
			confidence = c
		}
		if confidence < 0 || confidence > 1 {
			slog.Warn("oracle confidence out of range", "category", category, "confidence", confidence)
		}
		out = append(out, model.ExtractedPattern{
			Category:       category,
			InputPattern:   cast.ToString(fields["input_pattern"]),
			OutputTemplate: cast.ToString(fields["output_template"]),
			Variables:      cast.ToStringSlice(fields["variables"]),
			Examples:       append([]model.Exemplar(nil), examples...),
			Confidence:     confidence,
		})
	}
	return out, nil
}

// SaveAsTemplates 导出置信度 >= minConfidence 的模式，覆盖目标文件
func (m *PatternMiner) SaveAsTemplates(path string, minConfidence float64) (string, error) {
	templates := TemplatesOf(m.Patterns(), minConfidence)
	if err := writeJSONFile(path, templates); err != nil {
		return "", fmt.Errorf("保存模板失败: %w", err)
	}
	slog.Info("templates saved", "path", path, "count", len(templates), "min_confidence", minConfidence)
	return path, nil
}

// TemplatesOf 过滤并转换为导出形式；结果非 nil，空集合序列化为 []
func TemplatesOf(patterns []model.ExtractedPattern, minConfidence float64) []model.Template {
	out := []model.Template{}
	for _, p := range patterns {
		if p.Confidence < minConfidence {
			continue
		}
		examples := p.Examples
		if len(examples) > templateExampleLimit {
			examples = examples[:templateExampleLimit]
		}
		out = append(out, model.Template{
			Category:       p.Category,
			InputPattern:   p.InputPattern,
			OutputTemplate: p.OutputTemplate,
			Examples:       append([]model.Exemplar{}, examples...),
		})
	}
	return out
}

// GenerateRuleCode 用当前模式集合生成规则版实现的 Go 源码
func (m *PatternMiner) GenerateRuleCode(feature string) (string, error) {
	return RenderRuleCode(feature, m.Patterns())
}

// LoadSamples 把之前保存的样本批次加入样本集合（离线重放用）
func (m *PatternMiner) LoadSamples(samples []model.Exemplar) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.samples = append(m.samples, samples...)
}

func (m *PatternMiner) OutputDir() string {
	return m.outputDir
}

// LastBatchPath 最近一次 GenerateSamples 写入的文件
func (m *PatternMiner) LastBatchPath() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastBatch
}

func (m *PatternMiner) Samples() []model.Exemplar {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Exemplar(nil), m.samples...)
}

func (m *PatternMiner) Patterns() []model.ExtractedPattern {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.ExtractedPattern(nil), m.patterns...)
}

func (m *PatternMiner) Stats() model.MinerStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := model.MinerStats{
		SampleCount:  len(m.samples),
		PatternCount: len(m.patterns),
		Categories:   []string{},
	}
	seen := make(map[string]bool)
	sum := 0.0
	for _, p := range m.patterns {
		sum += p.Confidence
		if !seen[p.Category] {
			seen[p.Category] = true
			stats.Categories = append(stats.Categories, p.Category)
		}
	}
	if len(m.patterns) > 0 {
		stats.AvgConfidence = sum / float64(len(m.patterns))
	}
	return stats
}

// decodeArray 取回复中第一个 [...] 并拆成元素
func decodeArray(reply string) ([]json.RawMessage, error) {
	span, err := extractJSONArray(reply)
	if err != nil {
		return nil, err
	}
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(span), &items); err != nil {
		return nil, fmt.Errorf("decode array: %w", err)
	}
	return items, nil
}
