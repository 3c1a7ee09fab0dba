package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mbeoliero/datafactory/domain/entity"
	"github.com/mbeoliero/datafactory/domain/repo"
	"github.com/mbeoliero/datafactory/pkg/id_gen"
)

var (
	ErrJobNotFound      = errors.New("job not found")
	ErrJobAlreadyExists = errors.New("job name already exists")
	ErrInvalidJob       = errors.New("invalid job definition")
	ErrInvalidSchedule  = errors.New("invalid schedule expression")
	ErrJobDisabled      = errors.New("job is disabled")
	ErrHistoryNotFound  = errors.New("job history not found")
)

type JobService struct {
	jobRepo     repo.JobRepo
	historyRepo repo.JobHistoryRepo
	logRepo     repo.JobLogRepo
}

func NewJobService() *JobService {
	return &JobService{
		jobRepo:     repo.GetJobRepo(),
		historyRepo: repo.GetJobHistoryRepo(),
		logRepo:     repo.GetJobLogRepo(),
	}
}

// CreateJob 创建任务，名称全局唯一。cron 表达式在这里不校验：
// 任务保存与调度挂载是相互独立的两步，坏表达式不能阻止保存。
func (s *JobService) CreateJob(ctx context.Context, job *entity.Job) error {
	if err := s.validateJob(job); err != nil {
		return err
	}

	existing, err := s.jobRepo.FindByName(ctx, job.JobName)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("%w: %s", ErrJobAlreadyExists, job.JobName)
	}

	id, err := id_gen.NextId(ctx)
	if err != nil {
		return err
	}
	job.Id = id

	now := time.Now().UnixMilli()
	job.CreatedAt = now
	job.UpdatedAt = now

	return s.jobRepo.Create(ctx, job)
}

// UpdateJob 按 patch 更新任务，只应用提供的字段，updated_at 总会刷新。
// 重命名到其它任务已占用的名称会被拒绝。返回更新后的任务。
func (s *JobService) UpdateJob(ctx context.Context, id uint64, patch *entity.JobPatch) (*entity.Job, error) {
	if patch.IsEmpty() {
		return nil, fmt.Errorf("%w: empty patch", ErrInvalidJob)
	}

	existing, err := s.jobRepo.FindById(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrJobNotFound
	}

	fields := map[string]any{}
	if patch.JobName != nil {
		if *patch.JobName == "" {
			return nil, fmt.Errorf("%w: job_name must not be empty", ErrInvalidJob)
		}
		other, err := s.jobRepo.FindByName(ctx, *patch.JobName)
		if err != nil {
			return nil, err
		}
		if other != nil && other.Id != id {
			return nil, fmt.Errorf("%w: %s", ErrJobAlreadyExists, *patch.JobName)
		}
		fields[entity.FieldJobName] = *patch.JobName
	}
	if patch.SourceType != nil {
		fields[entity.FieldSourceType] = *patch.SourceType
	}
	if patch.SourceConfig != nil {
		fields[entity.FieldSourceConf] = *patch.SourceConfig
	}
	if patch.SinkType != nil {
		fields[entity.FieldSinkType] = *patch.SinkType
	}
	if patch.SinkConfig != nil {
		fields[entity.FieldSinkConf] = *patch.SinkConfig
	}
	if patch.Query != nil {
		fields[entity.FieldQuery] = *patch.Query
	}
	if patch.Schedule != nil {
		fields[entity.FieldSchedule] = *patch.Schedule
	}
	if patch.Enabled != nil {
		fields[entity.FieldEnabled] = *patch.Enabled
	}
	fields[entity.FieldUpdatedAt] = time.Now().UnixMilli()

	if _, err = s.jobRepo.UpdateFields(ctx, id, fields); err != nil {
		return nil, err
	}

	return s.jobRepo.FindById(ctx, id)
}

// DeleteJob 硬删除任务，历史记录有意保留（job_id 悬挂引用，审计用）
func (s *JobService) DeleteJob(ctx context.Context, id uint64) error {
	ok, err := s.jobRepo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrJobNotFound
	}
	return nil
}

// GetJob 查询任务
func (s *JobService) GetJob(ctx context.Context, id uint64) (*entity.Job, error) {
	job, err := s.jobRepo.FindById(ctx, id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, ErrJobNotFound
	}
	return job, nil
}

// GetJobByName 根据名称查询任务
func (s *JobService) GetJobByName(ctx context.Context, name string) (*entity.Job, error) {
	job, err := s.jobRepo.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, ErrJobNotFound
	}
	return job, nil
}

// ListJobs 按名称升序列出全部任务
func (s *JobService) ListJobs(ctx context.Context) ([]*entity.Job, error) {
	return s.jobRepo.List(ctx)
}

// GetJobWithLastRun 查询任务并带上最近一次执行信息
func (s *JobService) GetJobWithLastRun(ctx context.Context, id uint64) (*entity.JobWithLastRun, error) {
	job, err := s.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.attachLastRun(ctx, job)
}

// ListJobsWithLastRun 列出全部任务并带上最近一次执行信息
func (s *JobService) ListJobsWithLastRun(ctx context.Context) ([]*entity.JobWithLastRun, error) {
	jobs, err := s.jobRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*entity.JobWithLastRun, 0, len(jobs))
	for _, job := range jobs {
		jr, err := s.attachLastRun(ctx, job)
		if err != nil {
			return nil, err
		}
		out = append(out, jr)
	}
	return out, nil
}

func (s *JobService) attachLastRun(ctx context.Context, job *entity.Job) (*entity.JobWithLastRun, error) {
	last, err := s.historyRepo.LastByJob(ctx, job.Id)
	if err != nil {
		return nil, err
	}

	jr := &entity.JobWithLastRun{Job: *job}
	if last != nil {
		jr.LastRun = &entity.LastRun{
			StartedAt:        last.StartedAt,
			CompletedAt:      last.CompletedAt,
			Status:           last.Status,
			RecordsProcessed: last.RecordsProcessed,
		}
	}
	return jr, nil
}

// GetJobHistory 查询任务执行历史，最近的在前
func (s *JobService) GetJobHistory(ctx context.Context, jobId uint64, limit int) ([]*entity.JobHistory, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.historyRepo.ListByJob(ctx, jobId, limit)
}

// GetAllHistory 查询全部任务的执行历史，最近的在前
func (s *JobService) GetAllHistory(ctx context.Context, limit int) ([]*entity.JobHistory, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.historyRepo.ListAll(ctx, limit)
}

// GetJobLogs 查询一次执行的日志，时间正序
func (s *JobService) GetJobLogs(ctx context.Context, historyId uint64) ([]*entity.JobLog, error) {
	logs, err := s.logRepo.ListByHistory(ctx, historyId)
	if err != nil {
		return nil, err
	}
	if len(logs) == 0 {
		return nil, fmt.Errorf("%w: no logs for history %d", ErrHistoryNotFound, historyId)
	}
	return logs, nil
}

// validateJob 验证任务必填字段
func (s *JobService) validateJob(job *entity.Job) error {
	if job.JobName == "" {
		return fmt.Errorf("%w: job_name is required", ErrInvalidJob)
	}
	if job.SourceType == "" || job.SinkType == "" {
		return fmt.Errorf("%w: source_type and sink_type are required", ErrInvalidJob)
	}
	if job.SourceConfig == nil {
		return fmt.Errorf("%w: source_config is required", ErrInvalidJob)
	}
	if job.SinkConfig == nil {
		return fmt.Errorf("%w: sink_config is required", ErrInvalidJob)
	}
	return nil
}
