package service

import "fmt"

// 结论判定阈值（工程经验值）
const (
	minEvidence     = 30
	readyAgreement  = 0.8
	readyPassRate   = 0.8
	verdictNoData   = "insufficient_data"
	verdictReady    = "ready_to_replace"
	verdictNotReady = "not_ready"
)

// Conclusion 规则版能否替换 AI 版的自动结论，仅供人工决策参考
type Conclusion struct {
	Verdict string   `json:"verdict"`
	Claims  []string `json:"claims"`
	Caveats []string `json:"caveats"`
}

// Conclude 根据对照一致度与人设测试通过率给出结论
func Conclude(r *DailyReport) Conclusion {
	out := Conclusion{Verdict: verdictNoData, Claims: []string{}, Caveats: []string{}}

	c := r.Comparison
	t := r.Tests
	if c.Count < minEvidence {
		out.Caveats = append(out.Caveats, fmt.Sprintf("only %d comparisons; at least %d are needed for a stable agreement estimate", c.Count, minEvidence))
	}
	if t.Count < minEvidence {
		out.Caveats = append(out.Caveats, fmt.Sprintf("only %d persona test results; at least %d are needed", t.Count, minEvidence))
	}

	agreementOK := c.Count > 0 && c.AvgAgreement >= readyAgreement
	passOK := t.Count > 0 && t.PassRate >= readyPassRate

	if c.Count > 0 {
		if agreementOK {
			out.Claims = append(out.Claims, fmt.Sprintf("rule-based output agrees with the model on average %.2f (>= %.2f)", c.AvgAgreement, readyAgreement))
		} else {
			out.Claims = append(out.Claims, fmt.Sprintf("average agreement %.2f is below %.2f", c.AvgAgreement, readyAgreement))
		}
		if c.Speedup > 0 {
			out.Claims = append(out.Claims, fmt.Sprintf("rule-based path is %.1fx faster", c.Speedup))
		}
	}
	if t.Count > 0 {
		if passOK {
			out.Claims = append(out.Claims, fmt.Sprintf("persona pass rate %.2f (>= %.2f), CI95 [%.2f, %.2f]", t.PassRate, readyPassRate, t.PassRateCI95Low, t.PassRateCI95High))
		} else {
			out.Claims = append(out.Claims, fmt.Sprintf("persona pass rate %.2f is below %.2f", t.PassRate, readyPassRate))
		}
	}
	if len(r.Improvements.CommonIssues) > 0 {
		out.Caveats = append(out.Caveats, fmt.Sprintf("%d improvement suggestions recur across test cases", len(r.Improvements.CommonIssues)))
	}

	switch {
	case c.Count < minEvidence || t.Count < minEvidence:
		out.Verdict = verdictNoData
	case agreementOK && passOK:
		out.Verdict = verdictReady
	default:
		out.Verdict = verdictNotReady
	}
	return out
}
