package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/mbeoliero/datafactory/domain/entity"
	"github.com/mbeoliero/datafactory/domain/repo"
	"github.com/mbeoliero/datafactory/domain/service"
	"github.com/mbeoliero/datafactory/internal/connector"
	"github.com/mbeoliero/datafactory/pkg/id_gen"
	"github.com/mbeoliero/datafactory/pkg/log"
)

// defaultQuery 任务未配置 query 时使用
const defaultQuery = "SELECT * FROM source"

// RunResult 一次执行的结果，status 以历史记录为准
type RunResult struct {
	Status           entity.RunStatus `json:"status"`
	HistoryId        uint64           `json:"history_id"`
	RecordsProcessed int64            `json:"records_processed"`
	ErrorMessage     string           `json:"error_message,omitempty"`
	StartedAt        int64            `json:"started_at"`
	CompletedAt      int64            `json:"completed_at"`
}

// Engine 执行引擎：取任务定义、构建连接器、搬运数据、落历史和日志。
// 连接器不跨执行共享，每次 Run 自建自关。
type Engine struct {
	jobRepo     repo.JobRepo
	historyRepo repo.JobHistoryRepo
	logRepo     repo.JobLogRepo
	registry    *connector.Registry
}

func NewEngine(registry *connector.Registry) *Engine {
	return &Engine{
		jobRepo:     repo.GetJobRepo(),
		historyRepo: repo.GetJobHistoryRepo(),
		logRepo:     repo.GetJobLogRepo(),
		registry:    registry,
	}
}

// Run 端到端执行一个任务。
// 任务不存在或被禁用属于预检失败，直接返回错误且不产生历史记录；
// 历史记录创建之后的一切失败都被吸收进 failed 终态，Run 返回 RunResult 而非错误。
func (e *Engine) Run(ctx context.Context, jobId uint64) (*RunResult, error) {
	job, err := e.jobRepo.FindById(ctx, jobId)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, fmt.Errorf("%w: id %d", service.ErrJobNotFound, jobId)
	}
	if !job.Enabled {
		return nil, fmt.Errorf("%w: %s", service.ErrJobDisabled, job.JobName)
	}

	r, err := e.beginRun(ctx, job)
	if err != nil {
		return nil, err
	}

	r.logf(ctx, entity.LogLevelInfo, "Starting job: %s", job.JobName)

	source, err := e.registry.NewSource(job.SourceType, job.SourceConfig)
	if err != nil {
		return r.fail(ctx, nil, nil, err), nil
	}
	r.logf(ctx, entity.LogLevelInfo, "Created source connector: %s", job.SourceType)

	sink, err := e.registry.NewSink(job.SinkType, job.SinkConfig)
	if err != nil {
		return r.fail(ctx, source, nil, err), nil
	}
	r.logf(ctx, entity.LogLevelInfo, "Created sink connector: %s", job.SinkType)

	query := job.Query
	if query == "" {
		query = defaultQuery
	}
	r.logf(ctx, entity.LogLevelInfo, "Executing query: %s", query)

	rows, err := source.Extract(ctx, query)
	if err != nil {
		return r.fail(ctx, source, sink, err), nil
	}
	r.logf(ctx, entity.LogLevelInfo, "Retrieved %d records", len(rows))

	target := service.TargetName(job.JobName)
	records, err := sink.Load(ctx, rows, target)
	if err != nil {
		return r.fail(ctx, source, sink, err), nil
	}
	r.logf(ctx, entity.LogLevelInfo, "Data written to sink: %s", target)

	r.closeQuietly(ctx, source, sink)
	r.logf(ctx, entity.LogLevelInfo, "Job completed successfully")

	return r.complete(ctx, entity.RunStatusSuccess, records, ""), nil
}

// SinkObjects 列出任务 sink 中已有的对象
func (e *Engine) SinkObjects(ctx context.Context, jobId uint64) ([]string, error) {
	sink, err := e.buildSink(ctx, jobId)
	if err != nil {
		return nil, err
	}
	defer func() { _ = sink.Close() }()

	return sink.ListObjects(ctx)
}

// SinkPreview 预览任务 sink 中某个对象的前 limit 行
func (e *Engine) SinkPreview(ctx context.Context, jobId uint64, object string, limit int) ([]connector.Row, error) {
	sink, err := e.buildSink(ctx, jobId)
	if err != nil {
		return nil, err
	}
	defer func() { _ = sink.Close() }()

	return sink.Preview(ctx, object, limit)
}

func (e *Engine) buildSink(ctx context.Context, jobId uint64) (connector.Sink, error) {
	job, err := e.jobRepo.FindById(ctx, jobId)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, fmt.Errorf("%w: id %d", service.ErrJobNotFound, jobId)
	}
	return e.registry.NewSink(job.SinkType, job.SinkConfig)
}

// run 单次执行的状态：历史行ID与终态一次性保证
type run struct {
	engine    *Engine
	job       *entity.Job
	historyId uint64
	startedAt int64
	done      bool
}

func (e *Engine) beginRun(ctx context.Context, job *entity.Job) (*run, error) {
	id, err := id_gen.NextId(ctx)
	if err != nil {
		return nil, err
	}

	record := &entity.JobHistory{
		Id:        id,
		JobId:     job.Id,
		JobName:   job.JobName,
		StartedAt: time.Now().UnixMilli(),
		Status:    entity.RunStatusRunning,
	}
	if err = e.historyRepo.Create(ctx, record); err != nil {
		return nil, err
	}

	return &run{
		engine:    e,
		job:       job,
		historyId: record.Id,
		startedAt: record.StartedAt,
	}, nil
}

// logf 追加一条执行日志，立即落库，运行中即可见。写日志失败不影响执行。
func (r *run) logf(ctx context.Context, level entity.LogLevel, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)

	id, err := id_gen.NextId(ctx)
	if err != nil {
		log.CtxError(ctx, "generate log id failed, historyId: %d, err: %v", r.historyId, err)
		return
	}
	l := &entity.JobLog{
		Id:        id,
		HistoryId: r.historyId,
		JobId:     r.job.Id,
		Timestamp: time.Now().UnixMilli(),
		Level:     level,
		Message:   msg,
	}
	if err = r.engine.logRepo.Create(ctx, l); err != nil {
		log.CtxError(ctx, "append job log failed, historyId: %d, err: %v", r.historyId, err)
	}

	if level == entity.LogLevelError {
		log.CtxError(ctx, "job %s run %d: %s", r.job.JobName, r.historyId, msg)
	} else {
		log.CtxInfo(ctx, "job %s run %d: %s", r.job.JobName, r.historyId, msg)
	}
}

// fail 记录失败原因、尽力关闭已建好的连接器并迁移到 failed 终态
func (r *run) fail(ctx context.Context, source connector.Source, sink connector.Sink, cause error) *RunResult {
	msg := cause.Error()
	r.logf(ctx, entity.LogLevelError, "Job failed: %s", msg)
	r.closeQuietly(ctx, source, sink)
	return r.complete(ctx, entity.RunStatusFailed, 0, msg)
}

// closeQuietly 关闭连接器，失败只记日志
func (r *run) closeQuietly(ctx context.Context, source connector.Source, sink connector.Sink) {
	if source != nil {
		if err := source.Close(); err != nil {
			r.logf(ctx, entity.LogLevelError, "Failed to close source connector: %v", err)
		}
	}
	if sink != nil {
		if err := sink.Close(); err != nil {
			r.logf(ctx, entity.LogLevelError, "Failed to close sink connector: %v", err)
		}
	}
}

// complete 终态迁移，只允许发生一次；重复调用只告警不落库
func (r *run) complete(ctx context.Context, status entity.RunStatus, records int64, errMsg string) *RunResult {
	completedAt := time.Now().UnixMilli()

	if r.done {
		log.CtxWarn(ctx, "run already completed, historyId: %d, status: %s", r.historyId, status)
	} else {
		r.done = true
		ok, err := r.engine.historyRepo.Complete(ctx, r.historyId, status, records, errMsg)
		if err != nil {
			log.CtxError(ctx, "complete run failed, historyId: %d, err: %v", r.historyId, err)
		} else if !ok {
			log.CtxWarn(ctx, "run record not in running state, historyId: %d", r.historyId)
		}
	}

	return &RunResult{
		Status:           status,
		HistoryId:        r.historyId,
		RecordsProcessed: records,
		ErrorMessage:     errMsg,
		StartedAt:        r.startedAt,
		CompletedAt:      completedAt,
	}
}
