package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"seed-eval/internal/metrics"
	"seed-eval/internal/model"
	"seed-eval/internal/oracle"
)

// invokeHandler 调用被测实现：返回的 error 或 panic 都转成 {error: msg} 输出，不向上抛
func invokeHandler(ctx context.Context, side string, h Handler, input model.Value) (out model.Value, elapsedMs float64) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			out = model.ErrorValue(fmt.Sprint(r))
			metrics.HandlerFailures.WithLabelValues(side).Inc()
			slog.Error("handler panicked", "side", side, "panic", r)
		}
		elapsedMs = float64(time.Since(start).Microseconds()) / 1000
		metrics.HandlerLatency.WithLabelValues(side).Observe(elapsedMs)
	}()

	if h == nil {
		out = model.ErrorValue("handler not configured")
		return
	}
	v, err := h.Invoke(ctx, input)
	if err != nil {
		metrics.HandlerFailures.WithLabelValues(side).Inc()
		slog.Warn("handler failed", "side", side, "error", err)
		out = model.FromError(err)
		return
	}
	out = v
	return
}

// queryOracle 向 oracle 发一次请求；panic 也转为 error
func queryOracle(ctx context.Context, o oracle.Oracle, task, prompt string) (reply string, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("oracle panicked: %v", r)
		}
		status := metrics.StatusOK
		if err != nil {
			status = metrics.StatusError
		}
		metrics.OracleRequests.WithLabelValues(task, status).Inc()
		metrics.OracleLatency.WithLabelValues(task).Observe(time.Since(start).Seconds())
	}()

	if o == nil {
		return "", fmt.Errorf("oracle not configured")
	}
	slog.Debug("oracle request", "task", task, "prompt_len", len(prompt))
	return o.Query(ctx, prompt)
}
