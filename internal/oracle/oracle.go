// Package oracle defines the generative collaborator contract and the
// transports used to reach it.
package oracle

import (
	"context"
	"fmt"

	"seed-eval/internal/config"
)

// Oracle 生成式协作者：输入提示词，返回自由文本
type Oracle interface {
	Query(ctx context.Context, prompt string) (string, error)
}

// Func 把普通函数适配为 Oracle（测试与脚本驱动时常用）
type Func func(ctx context.Context, prompt string) (string, error)

func (f Func) Query(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// New 按配置选择 provider，并在配置了速率时套上限流
func New(ctx context.Context, cfg config.OracleConfig) (Oracle, error) {
	var (
		o   Oracle
		err error
	)
	switch cfg.Provider {
	case "", "dify":
		o = NewDifyClient(cfg.Dify)
	case "openai":
		o, err = NewOpenAIClient(cfg.OpenAI)
	case "gemini":
		o, err = NewGeminiClient(ctx, cfg.Gemini)
	default:
		return nil, fmt.Errorf("未知的 oracle provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	if cfg.RatePerSecond > 0 {
		o = NewRateLimited(o, cfg.RatePerSecond, cfg.Burst)
	}
	return o, nil
}
