package api

import (
	"github.com/cloudwego/hertz/pkg/app/server"

	"github.com/mbeoliero/datafactory/internal/engine"
	"github.com/mbeoliero/datafactory/internal/scheduler"
)

// RegisterRoutes 注册所有路由
func RegisterRoutes(h *server.Hertz, eng *engine.Engine, sched *scheduler.Scheduler) {
	handler := NewJobHandler(eng, sched)

	// 服务信息与健康检查
	h.GET("/", handler.ServiceInfo)
	h.GET("/health", handler.HealthCheck)

	// API v1
	v1 := h.Group("/api/v1")
	{
		// 任务管理
		jobs := v1.Group("/jobs")
		{
			jobs.POST("", handler.CreateJob)   // 创建任务
			jobs.GET("", handler.ListJobs)     // 列表, 带 last_run
			jobs.GET("/:id", handler.GetJob)   // 查询任务
			jobs.PUT("/:id", handler.UpdateJob)    // 部分更新
			jobs.DELETE("/:id", handler.DeleteJob) // 删除任务
			jobs.POST("/:id/execute", handler.ExecuteJob)  // 手动执行
			jobs.GET("/:id/history", handler.GetJobHistory) // 执行历史
			jobs.GET("/:id/sink/objects", handler.GetSinkObjects)
			jobs.GET("/:id/sink/preview", handler.GetSinkPreview)
		}

		// 执行历史与日志
		v1.GET("/history", handler.GetAllHistory)
		v1.GET("/logs/:history_id", handler.GetJobLogs)

		// 调度器控制
		sch := v1.Group("/scheduler")
		{
			sch.GET("/jobs", handler.ListScheduledJobs)
			sch.POST("/pause", handler.PauseScheduler)
			sch.POST("/resume", handler.ResumeScheduler)
		}

		// 连接器目录
		v1.GET("/connectors", handler.ListConnectors)
	}
}
