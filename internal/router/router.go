package router

import (
	"seed-eval/internal/handler"
	"seed-eval/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRouter(svc *service.ServiceContext) *gin.Engine {
	r := gin.Default()

	// CORS
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// 初始化handlers
	comparisonHandler := handler.NewComparisonHandler(svc)
	patternHandler := handler.NewPatternHandler(svc)
	personaHandler := handler.NewPersonaHandler(svc)
	runHandler := handler.NewRunHandler(svc.Runs)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API路由
	api := r.Group("/api")
	{
		// 双实现对照
		compare := api.Group("/compare")
		{
			compare.POST("", comparisonHandler.Compare)
			compare.GET("/stats", comparisonHandler.GetStats)
			compare.POST("/export", comparisonHandler.Export)
		}

		// 样本与模式
		patterns := api.Group("/patterns")
		{
			patterns.POST("/samples", patternHandler.GenerateSamples)
			patterns.POST("/extract", patternHandler.ExtractPatterns)
			patterns.POST("/templates", patternHandler.SaveTemplates)
			patterns.GET("/code", patternHandler.GetRuleCode)
			patterns.GET("/stats", patternHandler.GetStats)
		}

		// 人设测试
		api.GET("/personas", personaHandler.ListPersonas)
		persona := api.Group("/persona")
		{
			persona.POST("/run", personaHandler.RunPersonaTests)
			persona.GET("/stats", personaHandler.GetStats)
			persona.GET("/improvements", personaHandler.GetImprovements)
		}

		api.GET("/runs", runHandler.ListRuns)
	}

	return r
}
