package service

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"seed-eval/internal/model"
)

// DailyReport 跨运行的单日汇总，只读取已写入的日志文件
type DailyReport struct {
	Day          string                `json:"day"`
	Comparison   model.ComparisonStats `json:"comparison"`
	Tests        model.TestStats       `json:"tests"`
	Improvements model.Improvements    `json:"improvements"`
	Conclusion   Conclusion            `json:"conclusion"`
	Sources      []string              `json:"sources"`
}

// BuildDailyReport 读取 baseDir 下某天（UTC）的对照与测试日志；文件不存在视为空
func BuildDailyReport(baseDir string, day time.Time) (*DailyReport, error) {
	cmpPath := DailyLogPath(filepath.Join(baseDir, ComparisonLogDir), comparisonLogPrefix, day)
	testPath := DailyLogPath(filepath.Join(baseDir, TestLogDir), testLogPrefix, day)

	report := &DailyReport{Day: day.UTC().Format("20060102"), Sources: []string{}}

	records, err := ReadJSONL[model.ComparisonRecord](cmpPath)
	switch {
	case err == nil:
		report.Sources = append(report.Sources, cmpPath)
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("读取对照日志失败: %w", err)
	}

	results, err := ReadJSONL[model.TestResult](testPath)
	switch {
	case err == nil:
		report.Sources = append(report.Sources, testPath)
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("读取测试日志失败: %w", err)
	}

	report.Comparison = ComparisonStatsOf(records)
	report.Tests = TestStatsOf(results)
	report.Improvements = ImprovementsOf(results)
	report.Conclusion = Conclude(report)
	return report, nil
}

func RenderReportMarkdown(r *DailyReport) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("# Evaluation report %s\n\n", r.Day))
	if len(r.Sources) == 0 {
		b.WriteString("- no logs for this day\n")
		return b.String()
	}
	for _, s := range r.Sources {
		b.WriteString(fmt.Sprintf("- source: %s\n", s))
	}
	b.WriteString("\n")

	b.WriteString("## Verdict\n\n")
	b.WriteString(fmt.Sprintf("- verdict: %s\n", r.Conclusion.Verdict))
	for _, claim := range r.Conclusion.Claims {
		b.WriteString(fmt.Sprintf("- %s\n", claim))
	}
	if len(r.Conclusion.Caveats) > 0 {
		b.WriteString("\n### Caveats\n\n")
		for _, cv := range r.Conclusion.Caveats {
			b.WriteString(fmt.Sprintf("- %s\n", cv))
		}
	}
	b.WriteString("\n")

	c := r.Comparison
	b.WriteString("## Comparison\n\n")
	b.WriteString("| N | Avg agreement | Min | Max | Oracle ms | Rule ms | Speedup |\n")
	b.WriteString("| ---: | ---: | ---: | ---: | ---: | ---: | ---: |\n")
	b.WriteString(fmt.Sprintf("| %d | %.3f | %.3f | %.3f | %.1f | %.1f | %.1fx |\n\n",
		c.Count, c.AvgAgreement, c.MinAgreement, c.MaxAgreement, c.AvgOracleLatencyMs, c.AvgRuleLatencyMs, c.Speedup))

	t := r.Tests
	b.WriteString("## Persona tests\n\n")
	b.WriteString("| N | Avg score | Min | Max | Pass rate | CI95 |\n")
	b.WriteString("| ---: | ---: | ---: | ---: | ---: | --- |\n")
	b.WriteString(fmt.Sprintf("| %d | %.3f | %.3f | %.3f | %.3f | [%.3f, %.3f] |\n\n",
		t.Count, t.AvgScore, t.MinScore, t.MaxScore, t.PassRate, t.PassRateCI95Low, t.PassRateCI95High))

	imp := r.Improvements
	if len(imp.PersonaIssues) > 0 {
		b.WriteString("### By persona\n\n")
		b.WriteString("| Persona | N | Avg score |\n")
		b.WriteString("| --- | ---: | ---: |\n")
		names := make([]string, 0, len(imp.PersonaIssues))
		for name := range imp.PersonaIssues {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			pi := imp.PersonaIssues[name]
			b.WriteString(fmt.Sprintf("| %s | %d | %.3f |\n", name, pi.Count, pi.AvgScore))
		}
		b.WriteString("\n")
	}

	if len(imp.CommonIssues) > 0 {
		b.WriteString("### Common issues\n\n")
		for _, s := range imp.CommonIssues {
			b.WriteString(fmt.Sprintf("- %s\n", s))
		}
		b.WriteString("\n")
	}

	if len(imp.LowScoreCases) > 0 {
		b.WriteString("### Low-score cases\n\n")
		max := len(imp.LowScoreCases)
		if max > 20 {
			max = 20
		}
		for i := 0; i < max; i++ {
			lc := imp.LowScoreCases[i]
			b.WriteString(fmt.Sprintf("- [%.2f] %s: %s (%s)\n", lc.Score, lc.Persona, lc.Scenario, lc.Evaluation))
		}
		if len(imp.LowScoreCases) > max {
			b.WriteString(fmt.Sprintf("- ...(%d more omitted)\n", len(imp.LowScoreCases)-max))
		}
	}
	return b.String()
}
