package api

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"github.com/mbeoliero/datafactory/domain/entity"
	"github.com/mbeoliero/datafactory/domain/service"
	"github.com/mbeoliero/datafactory/internal/connector"
	"github.com/mbeoliero/datafactory/internal/engine"
	"github.com/mbeoliero/datafactory/internal/scheduler"
)

type JobHandler struct {
	jobService *service.JobService
	engine     *engine.Engine
	scheduler  *scheduler.Scheduler
}

func NewJobHandler(eng *engine.Engine, sched *scheduler.Scheduler) *JobHandler {
	return &JobHandler{
		jobService: service.NewJobService(),
		engine:     eng,
		scheduler:  sched,
	}
}

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// CreateJobRequest 创建任务请求
type CreateJobRequest struct {
	JobName      string                 `json:"job_name" binding:"required"`
	SourceType   string                 `json:"source_type" binding:"required"`
	SourceConfig entity.ConnectorConfig `json:"source_config" binding:"required"`
	SinkType     string                 `json:"sink_type" binding:"required"`
	SinkConfig   entity.ConnectorConfig `json:"sink_config" binding:"required"`
	Query        string                 `json:"query"`
	Schedule     string                 `json:"schedule"`
	Enabled      *bool                  `json:"enabled"`
}

// CreateJob 创建任务。schedule 非法时任务照常落库, 仅不注册触发器
func (h *JobHandler) CreateJob(ctx context.Context, c *app.RequestContext) {
	var req CreateJobRequest
	if err := c.BindAndValidate(&req); err != nil {
		c.JSON(consts.StatusBadRequest, Response{
			Code:    consts.StatusBadRequest,
			Message: "invalid request: " + err.Error(),
		})
		return
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	job := &entity.Job{
		JobName:      req.JobName,
		SourceType:   req.SourceType,
		SourceConfig: req.SourceConfig,
		SinkType:     req.SinkType,
		SinkConfig:   req.SinkConfig,
		Query:        req.Query,
		Schedule:     req.Schedule,
		Enabled:      enabled,
	}

	if err := h.jobService.CreateJob(ctx, job); err != nil {
		if errors.Is(err, service.ErrJobAlreadyExists) || errors.Is(err, service.ErrInvalidJob) {
			c.JSON(consts.StatusBadRequest, Response{
				Code:    consts.StatusBadRequest,
				Message: err.Error(),
			})
			return
		}
		c.JSON(consts.StatusInternalServerError, Response{
			Code:    consts.StatusInternalServerError,
			Message: "failed to create job: " + err.Error(),
		})
		return
	}

	c.JSON(consts.StatusOK, Response{
		Code:    consts.StatusOK,
		Message: h.syncTrigger(ctx, job),
		Data:    job,
	})
}

// UpdateJob 部分更新任务
func (h *JobHandler) UpdateJob(ctx context.Context, c *app.RequestContext) {
	id, ok := parseId(c, "id")
	if !ok {
		return
	}

	var patch entity.JobPatch
	if err := c.BindAndValidate(&patch); err != nil {
		c.JSON(consts.StatusBadRequest, Response{
			Code:    consts.StatusBadRequest,
			Message: "invalid request: " + err.Error(),
		})
		return
	}

	job, err := h.jobService.UpdateJob(ctx, id, &patch)
	if err != nil {
		if errors.Is(err, service.ErrJobNotFound) {
			notFound(c, "job not found")
			return
		}
		if errors.Is(err, service.ErrJobAlreadyExists) || errors.Is(err, service.ErrInvalidJob) {
			c.JSON(consts.StatusBadRequest, Response{
				Code:    consts.StatusBadRequest,
				Message: err.Error(),
			})
			return
		}
		c.JSON(consts.StatusInternalServerError, Response{
			Code:    consts.StatusInternalServerError,
			Message: "failed to update job: " + err.Error(),
		})
		return
	}

	c.JSON(consts.StatusOK, Response{
		Code:    consts.StatusOK,
		Message: h.syncTrigger(ctx, job),
		Data:    job,
	})
}

// syncTrigger 保存后同步调度器触发器, schedule 解析失败不算保存失败
func (h *JobHandler) syncTrigger(ctx context.Context, job *entity.Job) string {
	if !job.Enabled || job.Schedule == "" {
		h.scheduler.Remove(ctx, job.Id)
		return "success"
	}
	if err := h.scheduler.Upsert(ctx, job.Id, job.JobName, job.Schedule); err != nil {
		h.scheduler.Remove(ctx, job.Id)
		return "job saved but not scheduled: " + err.Error()
	}
	return "success"
}

// GetJob 查询任务, 附带最近一次执行结果
func (h *JobHandler) GetJob(ctx context.Context, c *app.RequestContext) {
	id, ok := parseId(c, "id")
	if !ok {
		return
	}

	job, err := h.jobService.GetJobWithLastRun(ctx, id)
	if err != nil {
		if errors.Is(err, service.ErrJobNotFound) {
			notFound(c, "job not found")
			return
		}
		c.JSON(consts.StatusInternalServerError, Response{
			Code:    consts.StatusInternalServerError,
			Message: "failed to get job: " + err.Error(),
		})
		return
	}

	success(c, job)
}

// ListJobs 列出全部任务
func (h *JobHandler) ListJobs(ctx context.Context, c *app.RequestContext) {
	jobs, err := h.jobService.ListJobsWithLastRun(ctx)
	if err != nil {
		c.JSON(consts.StatusInternalServerError, Response{
			Code:    consts.StatusInternalServerError,
			Message: "failed to list jobs: " + err.Error(),
		})
		return
	}

	success(c, jobs)
}

// DeleteJob 删除任务, 历史记录保留
func (h *JobHandler) DeleteJob(ctx context.Context, c *app.RequestContext) {
	id, ok := parseId(c, "id")
	if !ok {
		return
	}

	if err := h.jobService.DeleteJob(ctx, id); err != nil {
		if errors.Is(err, service.ErrJobNotFound) {
			notFound(c, "job not found")
			return
		}
		c.JSON(consts.StatusInternalServerError, Response{
			Code:    consts.StatusInternalServerError,
			Message: "failed to delete job: " + err.Error(),
		})
		return
	}

	h.scheduler.Remove(ctx, id)

	c.JSON(consts.StatusOK, Response{
		Code:    consts.StatusOK,
		Message: "success",
	})
}

// ExecuteJob 手动触发一次执行, 同步等待执行完成
func (h *JobHandler) ExecuteJob(ctx context.Context, c *app.RequestContext) {
	id, ok := parseId(c, "id")
	if !ok {
		return
	}

	result, err := h.engine.Run(ctx, id)
	if err != nil {
		if errors.Is(err, service.ErrJobNotFound) {
			notFound(c, "job not found")
			return
		}
		if errors.Is(err, service.ErrJobDisabled) {
			c.JSON(consts.StatusBadRequest, Response{
				Code:    consts.StatusBadRequest,
				Message: err.Error(),
			})
			return
		}
		c.JSON(consts.StatusInternalServerError, Response{
			Code:    consts.StatusInternalServerError,
			Message: "failed to execute job: " + err.Error(),
		})
		return
	}

	success(c, result)
}

// GetJobHistory 查询单个任务的执行历史
func (h *JobHandler) GetJobHistory(ctx context.Context, c *app.RequestContext) {
	id, ok := parseId(c, "id")
	if !ok {
		return
	}

	records, err := h.jobService.GetJobHistory(ctx, id, queryInt(c, "limit", 0))
	if err != nil {
		c.JSON(consts.StatusInternalServerError, Response{
			Code:    consts.StatusInternalServerError,
			Message: "failed to get job history: " + err.Error(),
		})
		return
	}

	success(c, records)
}

// GetAllHistory 查询全量执行历史
func (h *JobHandler) GetAllHistory(ctx context.Context, c *app.RequestContext) {
	records, err := h.jobService.GetAllHistory(ctx, queryInt(c, "limit", 0))
	if err != nil {
		c.JSON(consts.StatusInternalServerError, Response{
			Code:    consts.StatusInternalServerError,
			Message: "failed to get history: " + err.Error(),
		})
		return
	}

	success(c, records)
}

// GetJobLogs 查询一次执行的日志
func (h *JobHandler) GetJobLogs(ctx context.Context, c *app.RequestContext) {
	id, ok := parseId(c, "history_id")
	if !ok {
		return
	}

	logs, err := h.jobService.GetJobLogs(ctx, id)
	if err != nil {
		if errors.Is(err, service.ErrHistoryNotFound) {
			notFound(c, "job history not found")
			return
		}
		c.JSON(consts.StatusInternalServerError, Response{
			Code:    consts.StatusInternalServerError,
			Message: "failed to get job logs: " + err.Error(),
		})
		return
	}

	success(c, logs)
}

// GetSinkObjects 列出任务 sink 侧已有的对象
func (h *JobHandler) GetSinkObjects(ctx context.Context, c *app.RequestContext) {
	id, ok := parseId(c, "id")
	if !ok {
		return
	}

	objects, err := h.engine.SinkObjects(ctx, id)
	if err != nil {
		if errors.Is(err, service.ErrJobNotFound) {
			notFound(c, "job not found")
			return
		}
		c.JSON(consts.StatusInternalServerError, Response{
			Code:    consts.StatusInternalServerError,
			Message: "failed to list sink objects: " + err.Error(),
		})
		return
	}

	success(c, objects)
}

// GetSinkPreview 预览 sink 侧某个对象的前若干行
func (h *JobHandler) GetSinkPreview(ctx context.Context, c *app.RequestContext) {
	id, ok := parseId(c, "id")
	if !ok {
		return
	}

	object := c.Query("object")
	if object == "" {
		c.JSON(consts.StatusBadRequest, Response{
			Code:    consts.StatusBadRequest,
			Message: "missing query param: object",
		})
		return
	}

	rows, err := h.engine.SinkPreview(ctx, id, object, queryInt(c, "limit", 10))
	if err != nil {
		if errors.Is(err, service.ErrJobNotFound) {
			notFound(c, "job not found")
			return
		}
		c.JSON(consts.StatusInternalServerError, Response{
			Code:    consts.StatusInternalServerError,
			Message: "failed to preview sink object: " + err.Error(),
		})
		return
	}

	success(c, rows)
}

// ListScheduledJobs 列出当前注册的触发器
func (h *JobHandler) ListScheduledJobs(ctx context.Context, c *app.RequestContext) {
	success(c, h.scheduler.ListActive())
}

// PauseScheduler 暂停全部触发器
func (h *JobHandler) PauseScheduler(ctx context.Context, c *app.RequestContext) {
	h.scheduler.Pause()
	c.JSON(consts.StatusOK, Response{
		Code:    consts.StatusOK,
		Message: "scheduler paused",
	})
}

// ResumeScheduler 恢复全部触发器
func (h *JobHandler) ResumeScheduler(ctx context.Context, c *app.RequestContext) {
	h.scheduler.Resume()
	c.JSON(consts.StatusOK, Response{
		Code:    consts.StatusOK,
		Message: "scheduler resumed",
	})
}

// ListConnectors 已注册连接器类型目录
func (h *JobHandler) ListConnectors(ctx context.Context, c *app.RequestContext) {
	success(c, map[string]interface{}{
		"sources": connector.SourceCatalog(),
		"sinks":   connector.SinkCatalog(),
	})
}

// ServiceInfo 服务信息
func (h *JobHandler) ServiceInfo(ctx context.Context, c *app.RequestContext) {
	success(c, map[string]interface{}{
		"service": "datafactory",
		"docs":    "/api/v1",
	})
}

// HealthCheck 健康检查
func (h *JobHandler) HealthCheck(ctx context.Context, c *app.RequestContext) {
	c.JSON(consts.StatusOK, Response{
		Code:    consts.StatusOK,
		Message: "ok",
		Data: map[string]interface{}{
			"status":            "healthy",
			"scheduler_running": h.scheduler.Running(),
			"timestamp":         time.Now().UnixMilli(),
		},
	})
}

func parseId(c *app.RequestContext, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(consts.StatusBadRequest, Response{
			Code:    consts.StatusBadRequest,
			Message: "invalid " + name,
		})
		return 0, false
	}
	return id, true
}

func queryInt(c *app.RequestContext, name string, def int) int {
	v := c.Query(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func notFound(c *app.RequestContext, msg string) {
	c.JSON(consts.StatusNotFound, Response{
		Code:    consts.StatusNotFound,
		Message: msg,
	})
}

func success(c *app.RequestContext, data interface{}) {
	c.JSON(consts.StatusOK, Response{
		Code:    consts.StatusOK,
		Message: "success",
		Data:    data,
	})
}
