package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"seed-eval/internal/model"
	"seed-eval/internal/service"
)

type ComparisonHandler struct {
	svc *service.ServiceContext
}

func NewComparisonHandler(svc *service.ServiceContext) *ComparisonHandler {
	return &ComparisonHandler{svc: svc}
}

// Compare 对同一输入运行两个实现并记录
func (h *ComparisonHandler) Compare(c *gin.Context) {
	var req struct {
		Capability string      `json:"capability" binding:"required"`
		Input      model.Value `json:"input"`
		Grade      bool        `json:"grade"` // 是否让 oracle 点评
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	capability, ok := h.svc.Capability(req.Capability)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("unknown capability: %s", req.Capability)})
		return
	}

	var grader service.Grader
	if req.Grade {
		grader = service.NewOracleGrader(h.svc.Oracle)
	}

	record, err := h.svc.Comparator.Compare(c.Request.Context(), req.Input, capability.Oracle, capability.Rule, grader)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	recordRun(c, h.svc.Runs, &model.HarnessRun{
		Kind:       model.RunKindCompare,
		Capability: req.Capability,
		ItemCount:  1,
		AvgScore:   record.AgreementScore,
		Note:       record.ID,
	})

	c.JSON(http.StatusOK, gin.H{
		"record": record,
	})
}

// GetStats 本次运行的对照汇总
func (h *ComparisonHandler) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"stats": h.svc.Comparator.Stats(),
	})
}

// Export 导出全部对照记录供人工审阅
func (h *ComparisonHandler) Export(c *gin.Context) {
	var req struct {
		Path string `json:"path"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Path == "" {
		req.Path = service.DefaultReviewPath
	}
	target, err := resolveOutputPath(h.svc.Config.Harness.BaseDir, req.Path)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	path, err := h.svc.Comparator.Export(target)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	stats := h.svc.Comparator.Stats()
	recordRun(c, h.svc.Runs, &model.HarnessRun{
		Kind:       model.RunKindCompare,
		ItemCount:  stats.Count,
		AvgScore:   stats.AvgAgreement,
		OutputPath: path,
		Note:       "export",
	})

	c.JSON(http.StatusOK, gin.H{
		"path":  path,
		"count": stats.Count,
	})
}
