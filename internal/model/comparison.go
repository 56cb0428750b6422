package model

import "time"

// ComparisonRecord 一次双实现对照试验（创建后不可变）
type ComparisonRecord struct {
	ID              string    `json:"id"`
	Input           Value     `json:"input"`
	OracleOutput    Value     `json:"oracle_output"`
	RuleOutput      Value     `json:"rule_output"`
	OracleLatencyMs float64   `json:"oracle_latency_ms"`
	RuleLatencyMs   float64   `json:"rule_latency_ms"`
	AgreementScore  float64   `json:"agreement_score"`
	GradingNote     *string   `json:"grading_note"`
	CreatedAt       time.Time `json:"created_at"`
}

// ComparisonStats 对照试验的汇总
type ComparisonStats struct {
	Count              int     `json:"count"`
	AvgAgreement       float64 `json:"avg_agreement_score"`
	MinAgreement       float64 `json:"min_agreement_score"`
	MaxAgreement       float64 `json:"max_agreement_score"`
	AvgOracleLatencyMs float64 `json:"avg_oracle_latency_ms"`
	AvgRuleLatencyMs   float64 `json:"avg_rule_latency_ms"`
	Speedup            float64 `json:"speedup"`
}
