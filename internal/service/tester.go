package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/spf13/cast"

	"seed-eval/internal/metrics"
	"seed-eval/internal/model"
	"seed-eval/internal/oracle"
)

const (
	TestLogDir    = "test_logs"
	testLogPrefix = "test"

	taskGenerateTestCases = "generate_test_cases"
	taskGradeOutput       = "evaluate_output"

	DefaultCountPerPersona = 3
	// PassThreshold 低于该分数的结果计入 low_score_cases
	PassThreshold = 0.7

	GradingErrorEvaluation = "grading error"
	missingEvaluation      = "evaluation unavailable"
	defaultGradingScore    = 0.5
)

// PersonaTester 按人设合成测试输入，运行被测实现，再让 oracle 按评分标准打分
type PersonaTester struct {
	oracle   oracle.Oracle
	registry *Registry
	log      *dailyLog
	now      func() time.Time

	mu      sync.Mutex
	results []model.TestResult
}

// NewPersonaTester logDir 不存在时创建；创建失败是致命错误
func NewPersonaTester(o oracle.Oracle, logDir string, registry *Registry) (*PersonaTester, error) {
	l, err := newDailyLog(logDir, testLogPrefix)
	if err != nil {
		return nil, err
	}
	if registry == nil {
		registry = DefaultRegistry()
	}
	return &PersonaTester{oracle: o, registry: registry, log: l, now: time.Now}, nil
}

func (t *PersonaTester) Registry() *Registry {
	return t.registry
}

type rawTestCase struct {
	Scenario         any         `json:"scenario"`
	Input            model.Value `json:"input"`
	ExpectedBehavior any         `json:"expected_behavior"`
}

// GenerateTestCases personaKeys 为空时使用全部人设；countPerPersona <= 0 时取 3。
// 单个人设失败只记录日志。
func (t *PersonaTester) GenerateTestCases(ctx context.Context, feature string, personaKeys []string, countPerPersona int) []model.TestCase {
	if len(personaKeys) == 0 {
		personaKeys = t.registry.PersonaKeys()
	}
	if countPerPersona <= 0 {
		countPerPersona = DefaultCountPerPersona
	}
	description := t.registry.FeatureDescription(feature)

	cases := []model.TestCase{}
	for _, key := range personaKeys {
		persona, known := t.registry.Persona(key)
		if !known {
			slog.Warn("unknown persona, using key as name", "persona", key)
		}
		found, err := t.casesForPersona(ctx, persona, feature, description, countPerPersona)
		if err != nil {
			slog.Error("test case generation failed", "persona", key, "feature", feature, "error", err)
			continue
		}
		cases = append(cases, found...)
	}
	slog.Info("test cases generated", "feature", feature, "personas", len(personaKeys), "count", len(cases))
	return cases
}

func (t *PersonaTester) casesForPersona(ctx context.Context, persona model.Persona, feature, description string, count int) ([]model.TestCase, error) {
	reply, err := queryOracle(ctx, t.oracle, taskGenerateTestCases, buildTestCasePrompt(persona, feature, description, count))
	if err != nil {
		return nil, err
	}
	items, err := decodeArray(reply)
	if err != nil {
		return nil, err
	}

	out := make([]model.TestCase, 0, len(items))
	for i, item := range items {
		var raw rawTestCase
		if err := json.Unmarshal(item, &raw); err != nil {
			slog.Warn("skip malformed test case", "persona", persona.Key, "index", i, "error", err)
			continue
		}
		out = append(out, model.TestCase{
			Persona:          persona.Name,
			Scenario:         cast.ToString(raw.Scenario),
			Input:            wrapTestInput(raw.Input),
			ExpectedBehavior: cast.ToString(raw.ExpectedBehavior),
		})
	}
	return out, nil
}

// wrapTestInput 映射原样保留，其余包装成 {"text": ...}
func wrapTestInput(v model.Value) model.Value {
	if v.Kind() == model.KindMap {
		return v
	}
	text, ok := v.Text()
	if !ok {
		if v.Kind() == model.KindNull {
			text = ""
		} else {
			text = v.String()
		}
	}
	return model.Map(map[string]model.Value{"text": model.Text(text)})
}

// RunTests 逐条执行并打分。被测实现或评分失败都记录为数据；只有日志写入失败才返回 error。
func (t *PersonaTester) RunTests(ctx context.Context, cases []model.TestCase, handler Handler) ([]model.TestResult, error) {
	results := make([]model.TestResult, 0, len(cases))
	for _, tc := range cases {
		output, _ := invokeHandler(ctx, "tested", handler, tc.Input)
		evaluation, score, improvements := t.grade(ctx, tc, output)

		res := model.TestResult{
			TestCase:               tc,
			ActualOutput:           output,
			Evaluation:             evaluation,
			Score:                  score,
			ImprovementSuggestions: improvements,
			CreatedAt:              t.now().UTC(),
		}
		results = append(results, res)

		t.mu.Lock()
		t.results = append(t.results, res)
		err := t.log.append(res.CreatedAt, res)
		t.mu.Unlock()
		if err != nil {
			return results, fmt.Errorf("写入测试日志失败: %w", err)
		}
	}
	return results, nil
}

type gradeReply struct {
	Evaluation   any `json:"evaluation"`
	Score        any `json:"score"`
	Improvements any `json:"improvements"`
}

// grade 任何失败都返回 ("grading error", 0, [])，不向上抛
func (t *PersonaTester) grade(ctx context.Context, tc model.TestCase, output model.Value) (string, float64, []string) {
	evaluation, score, improvements, err := t.tryGrade(ctx, tc, output)
	if err != nil {
		slog.Error("grading failed", "persona", tc.Persona, "scenario", tc.Scenario, "error", err)
		return GradingErrorEvaluation, 0.0, []string{}
	}
	metrics.GradingScore.Observe(score)
	return evaluation, score, improvements
}

func (t *PersonaTester) tryGrade(ctx context.Context, tc model.TestCase, output model.Value) (string, float64, []string, error) {
	reply, err := queryOracle(ctx, t.oracle, taskGradeOutput, buildGradingPrompt(tc, output, t.registry.Rubric()))
	if err != nil {
		return "", 0, nil, err
	}
	span, err := extractJSONObject(reply)
	if err != nil {
		return "", 0, nil, err
	}
	var raw gradeReply
	if err := json.Unmarshal([]byte(span), &raw); err != nil {
		return "", 0, nil, fmt.Errorf("decode grading: %w", err)
	}

	evaluation := missingEvaluation
	if raw.Evaluation != nil {
		evaluation = cast.ToString(raw.Evaluation)
	}
	score := defaultGradingScore
	if raw.Score != nil {
		score, err = cast.ToFloat64E(raw.Score)
		if err != nil {
			return "", 0, nil, fmt.Errorf("bad score %v: %w", raw.Score, err)
		}
	}
	if score < 0 || score > 1 {
		slog.Warn("oracle score out of range", "persona", tc.Persona, "score", score)
	}
	improvements := []string{}
	if raw.Improvements != nil {
		list, err := cast.ToStringSliceE(raw.Improvements)
		if err != nil {
			return "", 0, nil, fmt.Errorf("bad improvements: %w", err)
		}
		improvements = append(improvements, list...)
	}
	return evaluation, score, improvements, nil
}

// ExtractImprovements results 为 nil 时使用本次运行的全部结果
func (t *PersonaTester) ExtractImprovements(results []model.TestResult) model.Improvements {
	if results == nil {
		results = t.Results()
	}
	return ImprovementsOf(results)
}

func (t *PersonaTester) Results() []model.TestResult {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]model.TestResult(nil), t.results...)
}

func (t *PersonaTester) Stats() model.TestStats {
	return TestStatsOf(t.Results())
}

// LogPath 某天的测试日志文件
func (t *PersonaTester) LogPath(at time.Time) string {
	return t.log.path(at)
}
