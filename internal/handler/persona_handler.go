package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"seed-eval/internal/model"
	"seed-eval/internal/service"
)

type PersonaHandler struct {
	svc *service.ServiceContext
}

func NewPersonaHandler(svc *service.ServiceContext) *PersonaHandler {
	return &PersonaHandler{svc: svc}
}

func (h *PersonaHandler) ListPersonas(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"personas": h.svc.Registry.Personas(),
	})
}

// RunPersonaTests 生成人设用例并对指定实现（默认规则版）逐条测试
func (h *PersonaHandler) RunPersonaTests(c *gin.Context) {
	var req struct {
		Capability      string   `json:"capability" binding:"required"`
		Side            string   `json:"side" binding:"omitempty,oneof=oracle rule"`
		Feature         string   `json:"feature" binding:"required"`
		Personas        []string `json:"personas"`
		CountPerPersona int      `json:"count_per_persona" binding:"gte=0"`
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
	if req.Side == "" {
		req.Side = "rule"
	}

	ctx := c.Request.Context()
	cases := h.svc.Tester.GenerateTestCases(ctx, req.Feature, req.Personas, req.CountPerPersona)
	results, err := h.svc.Tester.RunTests(ctx, cases, capability.Handler(req.Side))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	stats := service.TestStatsOf(results)
	recordRun(c, h.svc.Runs, &model.HarnessRun{
		Kind:       model.RunKindPersona,
		Feature:    req.Feature,
		Capability: req.Capability,
		ItemCount:  len(results),
		AvgScore:   stats.AvgScore,
		Note:       "side=" + req.Side,
	})

	c.JSON(http.StatusOK, gin.H{
		"results": results,
		"stats":   stats,
	})
}

func (h *PersonaHandler) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"stats": h.svc.Tester.Stats(),
	})
}

// GetImprovements 本次运行全部测试结果的改进点
func (h *PersonaHandler) GetImprovements(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"improvements": h.svc.Tester.ExtractImprovements(nil),
	})
}
