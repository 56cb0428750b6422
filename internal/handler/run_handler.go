package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"

	"seed-eval/internal/model"
	"seed-eval/internal/service"
)

type RunHandler struct {
	runs *service.RunStore
}

func NewRunHandler(runs *service.RunStore) *RunHandler {
	return &RunHandler{runs: runs}
}

// ListRuns 运行登记表（?kind=compare&limit=20）
func (h *RunHandler) ListRuns(c *gin.Context) {
	kind := c.Query("kind")
	limit := cast.ToInt(c.DefaultQuery("limit", "50"))

	runs, err := h.runs.List(c.Request.Context(), kind, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"runs":  runs,
		"total": len(runs),
	})
}

// recordRun 登记失败不影响请求结果
func recordRun(c *gin.Context, runs *service.RunStore, run *model.HarnessRun) {
	if err := runs.Record(c.Request.Context(), run); err != nil {
		slog.Warn("record run failed", "kind", run.Kind, "error", err)
	}
}
