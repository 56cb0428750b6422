package model

// Exemplar AI 生成的一条输入/输出样本
type Exemplar struct {
	Input    Value  `json:"input"`
	Output   Value  `json:"output"`
	Category string `json:"category,omitempty"`
	// 生成时使用的多样性提示
	Hint string `json:"hint,omitempty"`
}

// CategoryOrDefault 未分类的样本归入 general
func (e Exemplar) CategoryOrDefault() string {
	if e.Category == "" {
		return DefaultCategory
	}
	return e.Category
}

const DefaultCategory = "general"

// ExtractedPattern 从同类样本中归纳出的 输入模式 -> 输出模板
type ExtractedPattern struct {
	Category       string     `json:"category"`
	InputPattern   string     `json:"input_pattern"`
	OutputTemplate string     `json:"output_template"`
	Variables      []string   `json:"variables,omitempty"`
	Examples       []Exemplar `json:"examples"`
	Confidence     float64    `json:"confidence"`
	// 预留字段，本系统不递增
	UsageCount int `json:"usage_count"`
}

// Template 导出给人工编写规则版实现的模板
type Template struct {
	Category       string     `json:"category"`
	InputPattern   string     `json:"input_pattern"`
	OutputTemplate string     `json:"output_template"`
	Examples       []Exemplar `json:"examples"`
}

type MinerStats struct {
	SampleCount   int      `json:"sample_count"`
	PatternCount  int      `json:"pattern_count"`
	AvgConfidence float64  `json:"avg_confidence"`
	Categories    []string `json:"categories"`
}
