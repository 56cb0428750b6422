package service

import (
	"bytes"
	"fmt"
	"go/format"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"seed-eval/internal/model"
)

var (
	placeholderRe = regexp.MustCompile(`\{([^{}\s]+)\}`)
	unsafeFileRe  = regexp.MustCompile(`[^A-Za-z0-9_\-]+`)
)

// compiledRule 一条模式编译后的正则与占位符顺序
type compiledRule struct {
	Category  string
	Expr      string
	Variables []string
	Template  string
}

// compileInputPattern 把 "今天{time}到{place}" 这类模式编译为正则：
// 字面部分转义，每个 {name} 变成一个捕获组。末尾的占位符贪婪匹配，其余非贪婪。
func compileInputPattern(pattern string) (expr string, variables []string) {
	locs := placeholderRe.FindAllStringSubmatchIndex(pattern, -1)
	var b strings.Builder
	last := 0
	for i, loc := range locs {
		b.WriteString(regexp.QuoteMeta(pattern[last:loc[0]]))
		variables = append(variables, pattern[loc[2]:loc[3]])
		if i == len(locs)-1 && loc[1] == len(pattern) {
			b.WriteString("(.+)")
		} else {
			b.WriteString("(.+?)")
		}
		last = loc[1]
	}
	b.WriteString(regexp.QuoteMeta(pattern[last:]))
	return b.String(), variables
}

// compileRules 按模式顺序编译；空模式会匹配任意输入，直接跳过。
// 同一类别的多条模式全部保留，匹配时靠前的优先。
func compileRules(patterns []model.ExtractedPattern) []compiledRule {
	rules := make([]compiledRule, 0, len(patterns))
	for _, p := range patterns {
		if strings.TrimSpace(p.InputPattern) == "" {
			continue
		}
		expr, vars := compileInputPattern(p.InputPattern)
		rules = append(rules, compiledRule{
			Category:  p.Category,
			Expr:      expr,
			Variables: vars,
			Template:  p.OutputTemplate,
		})
	}
	return rules
}

// matchRules 与生成代码相同的匹配语义：按顺序取第一条命中的规则做模板替换
func matchRules(rules []compiledRule, patterns []*regexp.Regexp, text string) (string, bool) {
	for i, r := range rules {
		m := patterns[i].FindStringSubmatch(text)
		if m == nil {
			continue
		}
		out := r.Template
		for j, name := range r.Variables {
			out = strings.ReplaceAll(out, "{"+name+"}", m[j+1])
		}
		return out, true
	}
	return "", false
}

// RuleCoverage 在样本上试跑规则表：matched 为命中任一规则的样本数，
// reproduced 为替换结果与样本输出完全一致的样本数。只统计文本输入。
func RuleCoverage(patterns []model.ExtractedPattern, samples []model.Exemplar) (matched, reproduced int) {
	rules := compileRules(patterns)
	compiled := make([]*regexp.Regexp, len(rules))
	for i, r := range rules {
		compiled[i] = regexp.MustCompile(r.Expr)
	}
	for _, s := range samples {
		text, ok := sampleText(s.Input)
		if !ok {
			continue
		}
		out, ok := matchRules(rules, compiled, text)
		if !ok {
			continue
		}
		matched++
		if want, ok := sampleText(s.Output); ok && want == out {
			reproduced++
		}
	}
	return matched, reproduced
}

// sampleText 取文本本身或映射中的 "text" 字段
func sampleText(v model.Value) (string, bool) {
	if s, ok := v.Text(); ok {
		return s, true
	}
	if field, ok := v.Get("text"); ok {
		return field.Text()
	}
	return "", false
}

// RenderRuleCode 输出一个可独立编译的 Go 文件：有序规则表 + <Feature>RuleBased 匹配函数。
// 无匹配时返回 ("", false)。
func RenderRuleCode(feature string, patterns []model.ExtractedPattern) (string, error) {
	rules := compileRules(patterns)
	exported := goIdentifier(feature)
	unexported := lowerFirst(exported)

	var src bytes.Buffer
	src.WriteString("// Code generated by seed-eval. DO NOT EDIT.\n\n")
	src.WriteString(fmt.Sprintf("// Package rules is the rule-based implementation of %s (%d patterns).\n", feature, len(rules)))
	src.WriteString("package rules\n\n")
	src.WriteString("import (\n\t\"regexp\"\n\t\"strings\"\n)\n\n")

	src.WriteString(fmt.Sprintf("type %sRule struct {\n", unexported))
	src.WriteString("\tcategory string\n\tpattern *regexp.Regexp\n\tvariables []string\n\ttemplate string\n}\n\n")

	src.WriteString(fmt.Sprintf("var %sRules = []%sRule{\n", unexported, unexported))
	for _, r := range rules {
		src.WriteString("\t{\n")
		src.WriteString(fmt.Sprintf("\t\tcategory: %s,\n", strconv.Quote(r.Category)))
		src.WriteString(fmt.Sprintf("\t\tpattern: regexp.MustCompile(%s),\n", strconv.Quote(r.Expr)))
		src.WriteString(fmt.Sprintf("\t\tvariables: %s,\n", stringSliceLiteral(r.Variables)))
		src.WriteString(fmt.Sprintf("\t\ttemplate: %s,\n", strconv.Quote(r.Template)))
		src.WriteString("\t},\n")
	}
	src.WriteString("}\n\n")

	src.WriteString(fmt.Sprintf("// %sRuleBased returns the first matching template, or false when no rule matches.\n", exported))
	src.WriteString(fmt.Sprintf("func %sRuleBased(input map[string]any) (string, bool) {\n", exported))
	src.WriteString("\ttext, _ := input[\"text\"].(string)\n")
	src.WriteString(fmt.Sprintf("\tfor _, r := range %sRules {\n", unexported))
	src.WriteString("\t\tm := r.pattern.FindStringSubmatch(text)\n")
	src.WriteString("\t\tif m == nil {\n\t\t\tcontinue\n\t\t}\n")
	src.WriteString("\t\tout := r.template\n")
	src.WriteString("\t\tfor i, name := range r.variables {\n")
	src.WriteString("\t\t\tout = strings.ReplaceAll(out, \"{\"+name+\"}\", m[i+1])\n")
	src.WriteString("\t\t}\n")
	src.WriteString("\t\treturn out, true\n")
	src.WriteString("\t}\n")
	src.WriteString("\treturn \"\", false\n")
	src.WriteString("}\n")

	formatted, err := format.Source(src.Bytes())
	if err != nil {
		return "", fmt.Errorf("格式化规则代码失败: %w", err)
	}
	return string(formatted), nil
}

func stringSliceLiteral(items []string) string {
	if len(items) == 0 {
		return "nil"
	}
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = strconv.Quote(s)
	}
	return "[]string{" + strings.Join(quoted, ", ") + "}"
}

// goIdentifier shipment_parsing -> ShipmentParsing
func goIdentifier(feature string) string {
	parts := strings.FieldsFunc(feature, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	var b strings.Builder
	for _, p := range parts {
		runes := []rune(p)
		runes[0] = unicode.ToUpper(runes[0])
		b.WriteString(string(runes))
	}
	id := b.String()
	if id == "" || !unicode.IsLetter([]rune(id)[0]) {
		id = "Feature" + id
	}
	return id
}

func lowerFirst(s string) string {
	runes := []rune(s)
	runes[0] = unicode.ToLower(runes[0])
	return string(runes)
}

// safeFileComponent 用于文件名的功能名
func safeFileComponent(s string) string {
	s = unsafeFileRe.ReplaceAllString(strings.TrimSpace(s), "_")
	if s == "" {
		return "feature"
	}
	return s
}
