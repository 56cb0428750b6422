package service

import (
	"math"

	"seed-eval/internal/model"
)

// ComparisonStatsOf 对照记录的汇总；无记录时只有 Count=0
func ComparisonStatsOf(records []model.ComparisonRecord) model.ComparisonStats {
	st := model.ComparisonStats{Count: len(records)}
	if len(records) == 0 {
		return st
	}

	var sumScore, sumOracle, sumRule float64
	st.MinAgreement = math.Inf(1)
	st.MaxAgreement = math.Inf(-1)
	for _, r := range records {
		sumScore += r.AgreementScore
		sumOracle += r.OracleLatencyMs
		sumRule += r.RuleLatencyMs
		st.MinAgreement = math.Min(st.MinAgreement, r.AgreementScore)
		st.MaxAgreement = math.Max(st.MaxAgreement, r.AgreementScore)
	}
	n := float64(len(records))
	st.AvgAgreement = sumScore / n
	st.AvgOracleLatencyMs = sumOracle / n
	st.AvgRuleLatencyMs = sumRule / n
	// 规则版总耗时为 0 时加速比记为 0
	if sumRule > 0 {
		st.Speedup = sumOracle / sumRule
	}
	return st
}

// TestStatsOf 测试结果的汇总；通过率按 score >= PassThreshold 计算，并附 Wilson 95% 区间
func TestStatsOf(results []model.TestResult) model.TestStats {
	st := model.TestStats{Count: len(results)}
	if len(results) == 0 {
		return st
	}

	var sum float64
	passed := 0
	st.MinScore = math.Inf(1)
	st.MaxScore = math.Inf(-1)
	for _, r := range results {
		sum += r.Score
		st.MinScore = math.Min(st.MinScore, r.Score)
		st.MaxScore = math.Max(st.MaxScore, r.Score)
		if r.Score >= PassThreshold {
			passed++
		}
	}
	st.AvgScore = sum / float64(len(results))
	st.PassRate = float64(passed) / float64(len(results))
	st.PassRateCI95Low, st.PassRateCI95High = wilsonCI(passed, len(results), 1.96)
	return st
}

// ImprovementsOf 低分用例、重复出现（>=2 次）的建议、按人设聚合的建议
func ImprovementsOf(results []model.TestResult) model.Improvements {
	out := model.Improvements{
		LowScoreCases: []model.LowScoreCase{},
		CommonIssues:  []string{},
		PersonaIssues: map[string]*model.PersonaIssues{},
	}

	counts := make(map[string]int)
	var firstSeen []string
	for _, r := range results {
		if r.Score < PassThreshold {
			out.LowScoreCases = append(out.LowScoreCases, model.LowScoreCase{
				Persona:    r.TestCase.Persona,
				Scenario:   r.TestCase.Scenario,
				Score:      r.Score,
				Evaluation: r.Evaluation,
			})
		}
		for _, s := range r.ImprovementSuggestions {
			if counts[s] == 0 {
				firstSeen = append(firstSeen, s)
			}
			counts[s]++
		}

		pi, ok := out.PersonaIssues[r.TestCase.Persona]
		if !ok {
			pi = &model.PersonaIssues{Issues: []string{}}
			out.PersonaIssues[r.TestCase.Persona] = pi
		}
		pi.Count++
		pi.AvgScore += r.Score
		pi.Issues = append(pi.Issues, r.ImprovementSuggestions...)
	}

	for _, s := range firstSeen {
		if counts[s] >= 2 {
			out.CommonIssues = append(out.CommonIssues, s)
		}
	}
	for _, pi := range out.PersonaIssues {
		pi.AvgScore /= float64(pi.Count)
	}
	return out
}

// Wilson score interval for proportion
func wilsonCI(k int, n int, z float64) (float64, float64) {
	if n == 0 {
		return 0, 0
	}
	p := float64(k) / float64(n)
	zz := z * z
	den := 1 + zz/float64(n)
	center := (p + zz/(2*float64(n))) / den
	half := (z / den) * math.Sqrt((p*(1-p)+zz/(4*float64(n)))/float64(n))
	low := math.Max(0, center-half)
	high := math.Min(1, center+half)
	return low, high
}
