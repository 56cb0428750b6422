package model

import "time"

// Persona 用于引导测试输入生成的行为原型
type Persona struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description"`
	InputStyle  string `json:"input_style"`
}

// TestCase 按人设合成的一条测试场景
type TestCase struct {
	Persona          string `json:"persona"`
	Scenario         string `json:"scenario"`
	Input            Value  `json:"input"`
	ExpectedBehavior string `json:"expected_behavior"`
}

// TestResult 一条测试场景的执行与评分结果
type TestResult struct {
	TestCase               TestCase  `json:"test_case"`
	ActualOutput           Value     `json:"actual_output"`
	Evaluation             string    `json:"evaluation"`
	Score                  float64   `json:"score"`
	ImprovementSuggestions []string  `json:"improvement_suggestions"`
	CreatedAt              time.Time `json:"created_at"`
}

type TestStats struct {
	Count    int     `json:"count"`
	AvgScore float64 `json:"avg_score"`
	MinScore float64 `json:"min_score"`
	MaxScore float64 `json:"max_score"`
	PassRate float64 `json:"pass_rate"`

	// Wilson 95% 区间
	PassRateCI95Low  float64 `json:"pass_rate_ci95_low"`
	PassRateCI95High float64 `json:"pass_rate_ci95_high"`
}

type LowScoreCase struct {
	Persona    string  `json:"persona"`
	Scenario   string  `json:"scenario"`
	Score      float64 `json:"score"`
	Evaluation string  `json:"evaluation"`
}

type PersonaIssues struct {
	AvgScore float64  `json:"avg_score"`
	Count    int      `json:"count"`
	Issues   []string `json:"issues"`
}

// Improvements 跨测试结果聚合出的改进点
type Improvements struct {
	LowScoreCases []LowScoreCase            `json:"low_score_cases"`
	CommonIssues  []string                  `json:"common_issues"`
	PersonaIssues map[string]*PersonaIssues `json:"persona_issues"`
}
