package service

import (
	"seed-eval/internal/config"
	"seed-eval/internal/model"
)

// RubricCriterion 评分维度及其权重（仅作为提示词上下文，不在本地重新计算）
type RubricCriterion struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
	Hint   string  `json:"hint"`
}

// Registry 人设、多样性提示、评分标准与功能说明。构造时注入，运行期只读。
type Registry struct {
	personas            []model.Persona
	diversityHints      []string
	rubric              []RubricCriterion
	featureContexts     map[string]string
	featureDescriptions map[string]string
}

var defaultPersonas = []model.Persona{
	{
		Key:         "child_visual",
		Name:        "Visual-first 10-year-old",
		Description: "Thinks in pictures and diagrams; understands images better than prose.",
		InputStyle:  "Simple, concrete words",
	},
	{
		Key:         "child_adhd",
		Name:        "Child with attention shifts",
		Description: "Attention moves quickly; needs short sentences with the point first.",
		InputStyle:  "Short, key point first",
	},
	{
		Key:         "adult_dyslexia",
		Name:        "Adult with dyslexia",
		Description: "Reading and writing are hard; prefers voice input.",
		InputStyle:  "Natural, spoken-style phrasing",
	},
	{
		Key:         "farmer_elderly",
		Name:        "Elderly farmer",
		Description: "Not used to smartphones; sometimes writes in dialect.",
		InputStyle:  "Terse, mixed with dialect",
	},
	{
		Key:         "shop_owner_busy",
		Name:        "Busy shop owner",
		Description: "No time; wants to get away with the minimum input.",
		InputStyle:  "Heavy omissions, keywords only",
	},
}

var defaultDiversityHints = []string{
	"simple input",
	"complex input",
	"input with many omissions",
	"input with regional dialect",
	"input with typos",
	"long input",
	"short input",
}

var defaultRubric = []RubricCriterion{
	{Name: "relevance", Weight: 0.25, Hint: "does the output address the input"},
	{Name: "helpfulness", Weight: 0.25, Hint: "is the output useful to this persona"},
	{Name: "tone", Weight: 0.20, Hint: "is the wording gentle and appropriate for the persona"},
	{Name: "safety", Weight: 0.15, Hint: "is there anything harmful or misleading"},
	{Name: "engagement", Weight: 0.15, Hint: "does it invite the user to continue"},
}

var defaultFeatureContexts = map[string]string{
	"feedback_text":    "Feedback copy for the Spark experience tasks. Soft and poetic; tells users about their tendencies.\nExample: \"You notice the small details. That may well be a gift.\"",
	"shipment_parsing": "Natural-language parsing of shipment notes.\nExtract date, time, place, items and prices from the input.\nOutput is structured JSON.",
	"grow_observation": "Analysis of cultivation observation notes.\nFind noticings and suggest a next action in gentle words.",
}

var defaultFeatureDescriptions = map[string]string{
	"shipment_parsing":  "Natural-language parsing of shipment notes.\nExample input: \"today 10am, sunflower roadside station, tomatoes 100 yen\"\nOutput: date, time, place, items and prices.",
	"feedback_text":     "Feedback copy generation for Spark experience tasks.\nInput: the user's behaviour pattern (tap positions, reaction times).\nOutput: soft, poetic wording that surfaces a strength.",
	"skills_extraction": "Extract skills from a conversation.\nInput: conversation history.\nOutput: strengths, interests and traits found.",
	"grow_analysis":     "Analysis of cultivation records.\nInput: observation note text.\nOutput: points worth noticing and suggested next actions.",
}

// DefaultRegistry 内置默认值
func DefaultRegistry() *Registry {
	return NewRegistry(defaultPersonas, defaultDiversityHints, defaultRubric, defaultFeatureContexts, defaultFeatureDescriptions)
}

// NewRegistry 拷贝传入的数据，之后不再受调用方修改影响
func NewRegistry(personas []model.Persona, hints []string, rubric []RubricCriterion, contexts, descriptions map[string]string) *Registry {
	r := &Registry{
		personas:            append([]model.Persona(nil), personas...),
		diversityHints:      append([]string(nil), hints...),
		rubric:              append([]RubricCriterion(nil), rubric...),
		featureContexts:     make(map[string]string, len(contexts)),
		featureDescriptions: make(map[string]string, len(descriptions)),
	}
	for k, v := range contexts {
		r.featureContexts[k] = v
	}
	for k, v := range descriptions {
		r.featureDescriptions[k] = v
	}
	return r
}

// RegistryFromConfig 配置中给出的人设/提示覆盖默认值
func RegistryFromConfig(cfg config.HarnessConfig) *Registry {
	personas := defaultPersonas
	if len(cfg.Personas) > 0 {
		personas = make([]model.Persona, 0, len(cfg.Personas))
		for _, p := range cfg.Personas {
			personas = append(personas, model.Persona{
				Key:         p.Key,
				Name:        p.Name,
				Description: p.Description,
				InputStyle:  p.InputStyle,
			})
		}
	}
	hints := defaultDiversityHints
	if len(cfg.DiversityHints) > 0 {
		hints = cfg.DiversityHints
	}
	return NewRegistry(personas, hints, defaultRubric, defaultFeatureContexts, defaultFeatureDescriptions)
}

func (r *Registry) Personas() []model.Persona {
	return append([]model.Persona(nil), r.personas...)
}

// Persona 按 key 查找；未登记的 key 退化为同名、无描述的人设
func (r *Registry) Persona(key string) (model.Persona, bool) {
	for _, p := range r.personas {
		if p.Key == key {
			return p, true
		}
	}
	return model.Persona{Key: key, Name: key}, false
}

func (r *Registry) PersonaKeys() []string {
	keys := make([]string, 0, len(r.personas))
	for _, p := range r.personas {
		keys = append(keys, p.Key)
	}
	return keys
}

func (r *Registry) DiversityHints() []string {
	return append([]string(nil), r.diversityHints...)
}

func (r *Registry) Rubric() []RubricCriterion {
	return append([]RubricCriterion(nil), r.rubric...)
}

// FeatureContext 样本生成时的功能上下文
func (r *Registry) FeatureContext(feature string) string {
	if c, ok := r.featureContexts[feature]; ok {
		return c
	}
	return feature + " feature"
}

// FeatureDescription 测试用例生成时的功能说明
func (r *Registry) FeatureDescription(feature string) string {
	if d, ok := r.featureDescriptions[feature]; ok {
		return d
	}
	return "Tests for the " + feature + " feature"
}
