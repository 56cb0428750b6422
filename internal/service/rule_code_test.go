package service

import (
	"go/parser"
	"go/token"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seed-eval/internal/model"
)

func TestCompileInputPattern(t *testing.T) {
	tests := []struct {
		name     string
		pattern  string
		input    string
		wantVars []string
		wantCaps []string
	}{
		{
			name:     "中间与末尾占位符",
			pattern:  "today {time} at {place}",
			input:    "today 10am at sunflower station",
			wantVars: []string{"time", "place"},
			wantCaps: []string{"10am", "sunflower station"},
		},
		{
			name:     "字面量中的正则元字符",
			pattern:  "{item} (x{count})?",
			input:    "tomato (x3)?",
			wantVars: []string{"item", "count"},
			wantCaps: []string{"tomato", "3"},
		},
		{
			name:     "非 ASCII 占位符名",
			pattern:  "{品名}を{価格}円",
			input:    "トマトを100円",
			wantVars: []string{"品名", "価格"},
			wantCaps: []string{"トマト", "100"},
		},
		{
			name:     "无占位符",
			pattern:  "hello.",
			input:    "say hello.",
			wantVars: nil,
			wantCaps: []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expr, vars := compileInputPattern(tt.pattern)
			assert.Equal(t, tt.wantVars, vars)
			re, err := regexp.Compile(expr)
			require.NoError(t, err)
			m := re.FindStringSubmatch(tt.input)
			require.NotNil(t, m, expr)
			assert.Equal(t, tt.wantCaps, m[1:])
		})
	}

	expr, _ := compileInputPattern("hello.")
	assert.False(t, regexp.MustCompile(expr).MatchString("helloX"))
}

func TestRenderRuleCode(t *testing.T) {
	patterns := []model.ExtractedPattern{
		{Category: "greeting", InputPattern: `hello {name}`, OutputTemplate: `Hi {name}, "welcome"`, Confidence: 0.9},
		{Category: "empty", InputPattern: "  ", OutputTemplate: "never", Confidence: 0.9},
		{Category: "price", InputPattern: `{item} {price} yen`, OutputTemplate: "{item}: {price}", Confidence: 0.8},
	}

	code, err := RenderRuleCode("shipment_parsing", patterns)
	require.NoError(t, err)

	_, err = parser.ParseFile(token.NewFileSet(), "rules.go", code, parser.AllErrors)
	require.NoError(t, err, code)

	assert.Contains(t, code, "package rules")
	assert.Contains(t, code, "func ShipmentParsingRuleBased(input map[string]any) (string, bool)")
	assert.Contains(t, code, "var shipmentParsingRules = []shipmentParsingRule{")
	assert.Contains(t, code, `"Hi {name}, \"welcome\""`)
	assert.Contains(t, code, `[]string{"item", "price"}`)
	assert.NotContains(t, code, "never")
	assert.Contains(t, code, `return "", false`)

	// 规则顺序与模式顺序一致
	assert.Less(t, strings.Index(code, `"greeting"`), strings.Index(code, `"price"`))
}

func TestRenderRuleCode_NoPatterns(t *testing.T) {
	code, err := RenderRuleCode("3d-preview", nil)
	require.NoError(t, err)
	_, err = parser.ParseFile(token.NewFileSet(), "rules.go", code, 0)
	require.NoError(t, err, code)
	assert.Contains(t, code, "func Feature3dPreviewRuleBased(")
}

func TestGoIdentifier(t *testing.T) {
	assert.Equal(t, "ShipmentParsing", goIdentifier("shipment_parsing"))
	assert.Equal(t, "GrowObservation", goIdentifier("grow-observation"))
	assert.Equal(t, "Feature", goIdentifier("__"))
	assert.Equal(t, "Feature3dPreview", goIdentifier("3d preview"))
}

func TestMatchRules_FirstMatchWins(t *testing.T) {
	greet := model.ExtractedPattern{Category: "greeting", InputPattern: "hello {name}", OutputTemplate: "Hi {name}!"}
	anyBob := model.ExtractedPattern{Category: "greeting", InputPattern: "{word} bob", OutputTemplate: "Yo {word}"}
	price := model.ExtractedPattern{Category: "price", InputPattern: "{item} {price} yen", OutputTemplate: "{item}: {price}"}

	tests := []struct {
		name     string
		patterns []model.ExtractedPattern
		text     string
		want     string
		wantOK   bool
	}{
		{"前一条优先", []model.ExtractedPattern{greet, anyBob}, "hello bob", "Hi bob!", true},
		{"顺序调换后结果随之改变", []model.ExtractedPattern{anyBob, greet}, "hello bob", "Yo hello", true},
		{"只有后一条命中", []model.ExtractedPattern{greet, price}, "tomato 100 yen", "tomato: 100", true},
		{"无命中", []model.ExtractedPattern{greet, price}, "good night", "", false},
		{"无规则", nil, "hello bob", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules := compileRules(tt.patterns)
			compiled := make([]*regexp.Regexp, len(rules))
			for i, r := range rules {
				compiled[i] = regexp.MustCompile(r.Expr)
			}
			got, ok := matchRules(rules, compiled, tt.text)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRuleCoverage(t *testing.T) {
	patterns := []model.ExtractedPattern{
		{Category: "greeting", InputPattern: "hello {name}", OutputTemplate: "Hi {name}!"},
	}
	samples := []model.Exemplar{
		{Input: model.Text("hello bob"), Output: model.Text("Hi bob!")},
		{Input: model.Map(map[string]model.Value{"text": model.Text("hello amy")}), Output: model.Text("Hello amy.")},
		{Input: model.Text("bye"), Output: model.Text("Bye!")},
		{Input: model.Number(3), Output: model.Text("3")},
	}
	matched, reproduced := RuleCoverage(patterns, samples)
	assert.Equal(t, 2, matched)
	assert.Equal(t, 1, reproduced)
}
