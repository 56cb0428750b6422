package service

import (
	"encoding/json"
	"fmt"
	"strings"

	"seed-eval/internal/model"
)

// Prompt builders for the oracle. Every prompt asks for strict JSON; replies
// are still scanned tolerantly because models add prose anyway.

func buildSamplePrompt(feature, featureContext, hint string, perHint int) string {
	var prompt strings.Builder
	prompt.WriteString(fmt.Sprintf("Generate %d sample input/output pairs for the %s feature.\n", perHint, feature))
	prompt.WriteString(fmt.Sprintf("Input characteristic: %s\n\n", hint))
	prompt.WriteString(featureContext)
	prompt.WriteString("\n\n")
	prompt.WriteString("Output a JSON array only, in this shape:\n")
	prompt.WriteString(`[
  {
    "input": "input data",
    "output": "expected output",
    "category": "category (optional)"
  }
]`)
	return prompt.String()
}

// patternPromptLimit 每个类别最多带给 oracle 的样本数
const patternPromptLimit = 10

func buildPatternPrompt(category string, samples []model.Exemplar) string {
	if len(samples) > patternPromptLimit {
		samples = samples[:patternPromptLimit]
	}
	var prompt strings.Builder
	prompt.WriteString("Extract reusable patterns from the sample inputs and outputs below.\n\n")
	prompt.WriteString(fmt.Sprintf("Category: %s\n\n", category))
	prompt.WriteString("Samples:\n")
	prompt.WriteString(indentJSON(samples))
	prompt.WriteString("\n\nOutput a JSON array of patterns in this shape:\n")
	prompt.WriteString(`[
  {
    "input_pattern": "input pattern, with {variable} marking replaceable parts",
    "output_template": "output template, with {variable} marking replaceable parts",
    "variables": ["variable1", "variable2"],
    "confidence": 0.8
  }
]`)
	prompt.WriteString("\n\nPrefer patterns that generalise across as many samples as possible.")
	return prompt.String()
}

func buildTestCasePrompt(persona model.Persona, feature, featureDescription string, count int) string {
	var prompt strings.Builder
	prompt.WriteString(fmt.Sprintf("You are \"%s\". Write %d inputs to test the %s feature.\n\n", persona.Name, count, feature))
	prompt.WriteString("Persona traits:\n")
	prompt.WriteString(fmt.Sprintf("- %s\n", persona.Description))
	prompt.WriteString(fmt.Sprintf("- Input style: %s\n\n", persona.InputStyle))
	prompt.WriteString("Feature description:\n")
	prompt.WriteString(featureDescription)
	prompt.WriteString("\n\nOutput a JSON array only, in this shape:\n")
	prompt.WriteString(`[
  {
    "scenario": "what situation the user is in",
    "input": "the actual input text or data",
    "expected_behavior": "what the feature should do"
  }
]`)
	return prompt.String()
}

func buildGradingPrompt(tc model.TestCase, output model.Value, rubric []RubricCriterion) string {
	var prompt strings.Builder
	prompt.WriteString("Evaluate the test case and the actual output below.\n\n")
	prompt.WriteString(fmt.Sprintf("[Persona]\n%s\n\n", tc.Persona))
	prompt.WriteString(fmt.Sprintf("[Scenario]\n%s\n\n", tc.Scenario))
	prompt.WriteString(fmt.Sprintf("[Input]\n%s\n\n", compactJSON(tc.Input)))
	prompt.WriteString(fmt.Sprintf("[Expected behavior]\n%s\n\n", tc.ExpectedBehavior))
	prompt.WriteString(fmt.Sprintf("[Actual output]\n%s\n\n", compactJSON(output)))
	if len(rubric) > 0 {
		prompt.WriteString("[Rubric]\n")
		for _, c := range rubric {
			prompt.WriteString(fmt.Sprintf("- %s (weight %.2f): %s\n", c.Name, c.Weight, c.Hint))
		}
		prompt.WriteString("\n")
	}
	prompt.WriteString("Output a JSON object only, in this shape:\n")
	prompt.WriteString(`{
  "evaluation": "one or two sentences",
  "score": 0.8,
  "improvements": ["improvement 1", "improvement 2"]
}`)
	prompt.WriteString("\nscore is between 0.0 and 1.0.")
	return prompt.String()
}

func buildComparisonGradingPrompt(input, oracleOutput, ruleOutput model.Value) string {
	var prompt strings.Builder
	prompt.WriteString("Two implementations of the same feature received the same input.\n")
	prompt.WriteString("Judge which output serves the input better and note any gaps in the rule-based one.\n\n")
	prompt.WriteString(fmt.Sprintf("[Input]\n%s\n\n", compactJSON(input)))
	prompt.WriteString(fmt.Sprintf("[Model-backed output]\n%s\n\n", compactJSON(oracleOutput)))
	prompt.WriteString(fmt.Sprintf("[Rule-based output]\n%s\n\n", compactJSON(ruleOutput)))
	prompt.WriteString("Answer in two or three sentences of plain text.")
	return prompt.String()
}

func compactJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

func indentJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
