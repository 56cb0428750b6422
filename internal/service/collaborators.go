package service

import (
	"context"

	"seed-eval/internal/model"
)

// Handler 被测实现（AI 版或规则版）
type Handler interface {
	Invoke(ctx context.Context, input model.Value) (model.Value, error)
}

// HandlerFunc 把普通函数适配为 Handler
type HandlerFunc func(ctx context.Context, input model.Value) (model.Value, error)

func (f HandlerFunc) Invoke(ctx context.Context, input model.Value) (model.Value, error) {
	return f(ctx, input)
}

// Grader 可选的对照评审者，仅 Comparator 使用
type Grader interface {
	Grade(ctx context.Context, input, oracleOutput, ruleOutput model.Value) (string, error)
}

type GraderFunc func(ctx context.Context, input, oracleOutput, ruleOutput model.Value) (string, error)

func (f GraderFunc) Grade(ctx context.Context, input, oracleOutput, ruleOutput model.Value) (string, error) {
	return f(ctx, input, oracleOutput, ruleOutput)
}
