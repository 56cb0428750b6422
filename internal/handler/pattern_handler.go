package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"seed-eval/internal/model"
	"seed-eval/internal/service"
)

const defaultSampleCount = 50

type PatternHandler struct {
	svc *service.ServiceContext
}

func NewPatternHandler(svc *service.ServiceContext) *PatternHandler {
	return &PatternHandler{svc: svc}
}

// GenerateSamples 让 oracle 生成多样化样本
func (h *PatternHandler) GenerateSamples(c *gin.Context) {
	var req struct {
		Feature string   `json:"feature" binding:"required"`
		Count   int      `json:"count" binding:"gte=0"`
		Hints   []string `json:"hints"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Count == 0 {
		req.Count = defaultSampleCount
	}

	samples, err := h.svc.Miner.GenerateSamples(c.Request.Context(), req.Feature, req.Count, req.Hints)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	recordRun(c, h.svc.Runs, &model.HarnessRun{
		Kind:       model.RunKindSamples,
		Feature:    req.Feature,
		ItemCount:  len(samples),
		OutputPath: h.svc.Miner.LastBatchPath(),
	})

	c.JSON(http.StatusOK, gin.H{
		"samples": samples,
		"count":   len(samples),
	})
}

// ExtractPatterns 请求体可省略，省略时使用已累积的样本
func (h *PatternHandler) ExtractPatterns(c *gin.Context) {
	var req struct {
		Feature string           `json:"feature"`
		Samples []model.Exemplar `json:"samples"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	patterns := h.svc.Miner.ExtractPatterns(c.Request.Context(), req.Samples)

	stats := h.svc.Miner.Stats()
	recordRun(c, h.svc.Runs, &model.HarnessRun{
		Kind:      model.RunKindPatterns,
		Feature:   req.Feature,
		ItemCount: len(patterns),
		AvgScore:  stats.AvgConfidence,
	})

	c.JSON(http.StatusOK, gin.H{
		"patterns": patterns,
		"count":    len(patterns),
	})
}

// SaveTemplates 导出高置信度模板
func (h *PatternHandler) SaveTemplates(c *gin.Context) {
	var req struct {
		Feature       string   `json:"feature"`
		Path          string   `json:"path"`
		MinConfidence *float64 `json:"min_confidence" binding:"omitempty,gte=0,lte=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	minConfidence := h.svc.Config.Harness.MinConfidence
	if req.MinConfidence != nil {
		minConfidence = *req.MinConfidence
	}
	if req.Path == "" {
		name := "templates.json"
		if req.Feature != "" {
			name = req.Feature + "_templates.json"
		}
		req.Path = name
	}
	target, err := resolveOutputPath(h.svc.Miner.OutputDir(), req.Path)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	path, err := h.svc.Miner.SaveAsTemplates(target, minConfidence)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	count := len(service.TemplatesOf(h.svc.Miner.Patterns(), minConfidence))
	recordRun(c, h.svc.Runs, &model.HarnessRun{
		Kind:       model.RunKindTemplates,
		Feature:    req.Feature,
		ItemCount:  count,
		OutputPath: path,
	})

	c.JSON(http.StatusOK, gin.H{
		"path":  path,
		"count": count,
	})
}

// GetRuleCode 返回规则版实现的 Go 源码（?feature=shipment_parsing）
func (h *PatternHandler) GetRuleCode(c *gin.Context) {
	feature := c.Query("feature")
	if feature == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "feature is required"})
		return
	}

	code, err := h.svc.Miner.GenerateRuleCode(feature)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Data(http.StatusOK, "text/x-go; charset=utf-8", []byte(code))
}

func (h *PatternHandler) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"stats": h.svc.Miner.Stats(),
	})
}
