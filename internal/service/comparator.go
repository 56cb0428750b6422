package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"seed-eval/internal/metrics"
	"seed-eval/internal/model"
)

const (
	ComparisonLogDir    = "comparison_logs"
	comparisonLogPrefix = "comparison"
	DefaultReviewPath   = "review_data.json"
)

// Comparator 对同一输入分别运行 AI 版与规则版，记录耗时与一致度
type Comparator struct {
	mu      sync.Mutex
	log     *dailyLog
	records []model.ComparisonRecord
	now     func() time.Time
}

// NewComparator logDir 不存在时创建；创建失败是致命错误
func NewComparator(logDir string) (*Comparator, error) {
	l, err := newDailyLog(logDir, comparisonLogPrefix)
	if err != nil {
		return nil, err
	}
	return &Comparator{log: l, now: time.Now}, nil
}

// Compare 顺序执行两个实现（不并发，保证耗时可比）。
// 实现或评审者失败都记录为数据；只有日志写入失败才返回 error。
func (c *Comparator) Compare(ctx context.Context, input model.Value, oracleHandler, ruleHandler Handler, grader Grader) (*model.ComparisonRecord, error) {
	oracleOut, oracleMs := invokeHandler(ctx, "oracle", oracleHandler, input)
	ruleOut, ruleMs := invokeHandler(ctx, "rule", ruleHandler, input)

	score := AgreementScore(oracleOut, ruleOut)
	metrics.AgreementScore.Observe(score)

	var note *string
	if grader != nil {
		s := runGrader(ctx, grader, input, oracleOut, ruleOut)
		note = &s
	}

	rec := model.ComparisonRecord{
		ID:              uuid.NewString(),
		Input:           input,
		OracleOutput:    oracleOut,
		RuleOutput:      ruleOut,
		OracleLatencyMs: oracleMs,
		RuleLatencyMs:   ruleMs,
		AgreementScore:  score,
		GradingNote:     note,
		CreatedAt:       c.now().UTC(),
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, rec)
	if err := c.log.append(rec.CreatedAt, rec); err != nil {
		return &rec, fmt.Errorf("写入对照日志失败: %w", err)
	}

	slog.Debug("comparison recorded", "id", rec.ID, "agreement", score,
		"oracle_ms", oracleMs, "rule_ms", ruleMs)
	return &rec, nil
}

func runGrader(ctx context.Context, g Grader, input, a, b model.Value) (note string) {
	defer func() {
		if r := recover(); r != nil {
			note = fmt.Sprintf("grader error: %v", r)
		}
	}()
	s, err := g.Grade(ctx, input, a, b)
	if err != nil {
		slog.Error("grader failed", "error", err)
		return fmt.Sprintf("grader error: %v", err)
	}
	return s
}

// Records 本次运行的记录快照
func (c *Comparator) Records() []model.ComparisonRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.ComparisonRecord(nil), c.records...)
}

// Stats 本次运行的汇总（无副作用）
func (c *Comparator) Stats() model.ComparisonStats {
	return ComparisonStatsOf(c.Records())
}

// Export 把本次运行的全部记录导出为一个 JSON 文件（覆盖）
func (c *Comparator) Export(path string) (string, error) {
	if path == "" {
		path = DefaultReviewPath
	}
	records := c.Records()
	if records == nil {
		records = []model.ComparisonRecord{}
	}
	if err := writeJSONFile(path, records); err != nil {
		return "", err
	}
	return path, nil
}

// LogPath 某天的对照日志文件
func (c *Comparator) LogPath(at time.Time) string {
	return c.log.path(at)
}
