package service

import (
	"context"
	"strings"

	"seed-eval/internal/model"
	"seed-eval/internal/oracle"
)

const taskGradeComparison = "grade_comparison"

// OracleGrader 让 oracle 对两份输出给出文字点评，作为 ComparisonRecord.GradingNote
type OracleGrader struct {
	oracle oracle.Oracle
}

func NewOracleGrader(o oracle.Oracle) *OracleGrader {
	return &OracleGrader{oracle: o}
}

func (g *OracleGrader) Grade(ctx context.Context, input, oracleOutput, ruleOutput model.Value) (string, error) {
	reply, err := queryOracle(ctx, g.oracle, taskGradeComparison, buildComparisonGradingPrompt(input, oracleOutput, ruleOutput))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(reply), nil
}
