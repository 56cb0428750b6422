package service

import (
	"encoding/json"
	"errors"
	"slices"
)

var (
	ErrNoJSONArray  = errors.New("no JSON array found in reply")
	ErrNoJSONObject = errors.New("no JSON object found in reply")
)

// scanBudget 单次提取最多处理的字节数（扫描加校验），退化回复到此即放弃
const scanBudget = 8 << 20

// extractJSONArray 返回回复中第一个可解析的 [...] 片段，容忍前后的说明文字
func extractJSONArray(text string) (string, error) {
	if s, ok := firstBalanced(text, '[', ']'); ok {
		return s, nil
	}
	return "", ErrNoJSONArray
}

// extractJSONObject 返回回复中第一个可解析的 {...} 片段
func extractJSONObject(text string) (string, error) {
	if s, ok := firstBalanced(text, '{', '}'); ok {
		return s, nil
	}
	return "", ErrNoJSONObject
}

type span struct{ start, end int }

// firstBalanced 一遍扫描配对括号，跳过字符串字面量中的括号与转义；
// 配对完整且是合法 JSON、起点最靠前的片段即为结果。前文中的 "[注]" 之类会被跳过。
// 按字节扫描是安全的：UTF-8 多字节序列中不会出现 ASCII 字节。
func firstBalanced(s string, open, close byte) (string, bool) {
	work := 0
	from := 0
	for from < len(s) {
		found, ok, danglingQuote := scanSpans(s, from, open, close, &work)
		if ok {
			return found, true
		}
		// 说明文字里落单的引号会把后文都当成字符串，跳过它重扫
		if danglingQuote < 0 || work >= scanBudget {
			return "", false
		}
		from = danglingQuote + 1
	}
	return "", false
}

// scanSpans 从 from 开始扫描。每当最外层括号闭合，按起点顺序校验这一组配对。
// 未找到时返回扫描结束时未闭合字符串的起始引号位置（没有则为 -1）。
func scanSpans(s string, from int, open, close byte, work *int) (string, bool, int) {
	var (
		stack    []int
		group    []span
		inString bool
		escaped  bool
	)
	quoteAt := -1
	for i := from; i < len(s); i++ {
		*work++
		if *work >= scanBudget {
			return "", false, -1
		}
		ch := s[i]
		if escaped {
			escaped = false
			continue
		}
		if inString {
			if ch == '\\' {
				escaped = true
			} else if ch == '"' {
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
			quoteAt = i
		case open:
			stack = append(stack, i)
		case close:
			if len(stack) == 0 {
				continue
			}
			start := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			group = append(group, span{start, i})
			if len(stack) == 0 {
				if found, ok := firstValid(s, group, work); ok {
					return found, true, -1
				}
				group = group[:0]
			}
		}
	}
	// 未闭合的外层括号内已配对的片段
	if found, ok := firstValid(s, group, work); ok {
		return found, true, -1
	}
	if inString {
		return "", false, quoteAt
	}
	return "", false, -1
}

func firstValid(s string, group []span, work *int) (string, bool) {
	slices.SortFunc(group, func(a, b span) int { return a.start - b.start })
	for _, sp := range group {
		candidate := s[sp.start : sp.end+1]
		*work += len(candidate)
		if *work >= scanBudget {
			return "", false
		}
		if json.Valid([]byte(candidate)) {
			return candidate, true
		}
	}
	return "", false
}
