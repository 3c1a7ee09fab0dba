package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbeoliero/datafactory/domain/entity"
	"github.com/mbeoliero/datafactory/domain/repo"
)

func setupService(t *testing.T) (*JobService, *MockJobRepo, *MockHistoryRepo, *MockLogRepo) {
	t.Helper()

	jobRepo := NewMockJobRepo()
	historyRepo := NewMockHistoryRepo()
	logRepo := NewMockLogRepo()
	repo.SetJobRepo(jobRepo)
	repo.SetJobHistoryRepo(historyRepo)
	repo.SetJobLogRepo(logRepo)

	return NewJobService(), jobRepo, historyRepo, logRepo
}

func validJob(name string) *entity.Job {
	return &entity.Job{
		JobName:      name,
		SourceType:   "csv",
		SourceConfig: entity.ConnectorConfig{"file_path": "/tmp/in.csv"},
		SinkType:     "memory",
		SinkConfig:   entity.ConnectorConfig{},
		Enabled:      true,
	}
}

func TestCreateJob_Success(t *testing.T) {
	svc, _, _, _ := setupService(t)
	ctx := context.Background()

	job := validJob("t1")
	require.NoError(t, svc.CreateJob(ctx, job))

	assert.NotZero(t, job.Id)
	assert.NotZero(t, job.CreatedAt)
	assert.Equal(t, job.CreatedAt, job.UpdatedAt)

	got, err := svc.GetJob(ctx, job.Id)
	require.NoError(t, err)
	assert.Equal(t, "t1", got.JobName)
}

func TestCreateJob_DuplicateName(t *testing.T) {
	svc, _, _, _ := setupService(t)
	ctx := context.Background()

	require.NoError(t, svc.CreateJob(ctx, validJob("t1")))

	err := svc.CreateJob(ctx, validJob("t1"))
	assert.ErrorIs(t, err, ErrJobAlreadyExists)
}

func TestCreateJob_Validation(t *testing.T) {
	svc, _, _, _ := setupService(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*entity.Job)
	}{
		{"missing name", func(j *entity.Job) { j.JobName = "" }},
		{"missing source type", func(j *entity.Job) { j.SourceType = "" }},
		{"missing sink type", func(j *entity.Job) { j.SinkType = "" }},
		{"nil source config", func(j *entity.Job) { j.SourceConfig = nil }},
		{"nil sink config", func(j *entity.Job) { j.SinkConfig = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := validJob("t1")
			tt.mutate(job)
			assert.ErrorIs(t, svc.CreateJob(ctx, job), ErrInvalidJob)
		})
	}
}

func TestCreateJob_BadScheduleStillSaves(t *testing.T) {
	svc, _, _, _ := setupService(t)
	ctx := context.Background()

	// 保存与调度挂载解耦，坏表达式不影响保存
	job := validJob("t1")
	job.Schedule = "not-a-cron"
	require.NoError(t, svc.CreateJob(ctx, job))

	got, err := svc.GetJob(ctx, job.Id)
	require.NoError(t, err)
	assert.Equal(t, "not-a-cron", got.Schedule)
}

func TestUpdateJob_PartialPatch(t *testing.T) {
	svc, _, _, _ := setupService(t)
	ctx := context.Background()

	job := validJob("t1")
	job.Query = "SELECT 1"
	require.NoError(t, svc.CreateJob(ctx, job))
	createdAt := job.UpdatedAt

	time.Sleep(5 * time.Millisecond)

	schedule := "*/5 * * * *"
	enabled := false
	updated, err := svc.UpdateJob(ctx, job.Id, &entity.JobPatch{
		Schedule: &schedule,
		Enabled:  &enabled,
	})
	require.NoError(t, err)

	// 提供的字段被应用
	assert.Equal(t, "*/5 * * * *", updated.Schedule)
	assert.False(t, updated.Enabled)

	// 未提供的字段保持原样
	assert.Equal(t, "t1", updated.JobName)
	assert.Equal(t, "SELECT 1", updated.Query)

	assert.Greater(t, updated.UpdatedAt, createdAt)
}

func TestUpdateJob_EmptyPatch(t *testing.T) {
	svc, _, _, _ := setupService(t)
	ctx := context.Background()

	job := validJob("t1")
	require.NoError(t, svc.CreateJob(ctx, job))

	_, err := svc.UpdateJob(ctx, job.Id, &entity.JobPatch{})
	assert.ErrorIs(t, err, ErrInvalidJob)
}

func TestUpdateJob_NotFound(t *testing.T) {
	svc, _, _, _ := setupService(t)

	name := "x"
	_, err := svc.UpdateJob(context.Background(), 404, &entity.JobPatch{JobName: &name})
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestUpdateJob_RenameCollision(t *testing.T) {
	svc, _, _, _ := setupService(t)
	ctx := context.Background()

	a := validJob("a")
	b := validJob("b")
	require.NoError(t, svc.CreateJob(ctx, a))
	require.NoError(t, svc.CreateJob(ctx, b))

	// 改成其它任务占用的名称被拒绝
	name := "a"
	_, err := svc.UpdateJob(ctx, b.Id, &entity.JobPatch{JobName: &name})
	assert.ErrorIs(t, err, ErrJobAlreadyExists)

	// 改成自己当前的名称允许
	name = "b"
	_, err = svc.UpdateJob(ctx, b.Id, &entity.JobPatch{JobName: &name})
	assert.NoError(t, err)
}

func TestDeleteJob(t *testing.T) {
	svc, _, historyRepo, _ := setupService(t)
	ctx := context.Background()

	job := validJob("t1")
	require.NoError(t, svc.CreateJob(ctx, job))

	// 任务有历史记录
	_ = historyRepo.Create(ctx, &entity.JobHistory{Id: 100, JobId: job.Id, Status: entity.RunStatusSuccess})

	require.NoError(t, svc.DeleteJob(ctx, job.Id))

	_, err := svc.GetJob(ctx, job.Id)
	assert.ErrorIs(t, err, ErrJobNotFound)

	// 历史不随任务级联删除
	records, err := svc.GetJobHistory(ctx, job.Id, 0)
	require.NoError(t, err)
	assert.Len(t, records, 1)

	assert.ErrorIs(t, svc.DeleteJob(ctx, job.Id), ErrJobNotFound)
}

func TestGetJobWithLastRun(t *testing.T) {
	svc, _, historyRepo, _ := setupService(t)
	ctx := context.Background()

	job := validJob("t1")
	require.NoError(t, svc.CreateJob(ctx, job))

	// 无历史时 last_run 为空
	got, err := svc.GetJobWithLastRun(ctx, job.Id)
	require.NoError(t, err)
	assert.Nil(t, got.LastRun)

	_ = historyRepo.Create(ctx, &entity.JobHistory{
		Id: 1, JobId: job.Id, Status: entity.RunStatusFailed, StartedAt: 100, CompletedAt: 200,
	})
	_ = historyRepo.Create(ctx, &entity.JobHistory{
		Id: 2, JobId: job.Id, Status: entity.RunStatusSuccess, StartedAt: 300, CompletedAt: 400, RecordsProcessed: 7,
	})

	got, err = svc.GetJobWithLastRun(ctx, job.Id)
	require.NoError(t, err)
	require.NotNil(t, got.LastRun)
	assert.Equal(t, entity.RunStatusSuccess, got.LastRun.Status)
	assert.Equal(t, int64(300), got.LastRun.StartedAt)
	assert.Equal(t, int64(7), got.LastRun.RecordsProcessed)
}

func TestListJobsWithLastRun(t *testing.T) {
	svc, _, historyRepo, _ := setupService(t)
	ctx := context.Background()

	a := validJob("a")
	b := validJob("b")
	require.NoError(t, svc.CreateJob(ctx, a))
	require.NoError(t, svc.CreateJob(ctx, b))

	_ = historyRepo.Create(ctx, &entity.JobHistory{Id: 1, JobId: a.Id, Status: entity.RunStatusSuccess})

	jobs, err := svc.ListJobsWithLastRun(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.NotNil(t, jobs[0].LastRun)
	assert.Nil(t, jobs[1].LastRun)
}

func TestGetJobHistory_DefaultLimit(t *testing.T) {
	svc, _, historyRepo, _ := setupService(t)
	ctx := context.Background()

	for i := 0; i < 60; i++ {
		_ = historyRepo.Create(ctx, &entity.JobHistory{Id: uint64(i + 1), JobId: 1})
	}

	records, err := svc.GetJobHistory(ctx, 1, 0)
	require.NoError(t, err)
	assert.Len(t, records, 50)

	records, err = svc.GetJobHistory(ctx, 1, 10)
	require.NoError(t, err)
	assert.Len(t, records, 10)
}

func TestGetJobLogs(t *testing.T) {
	svc, _, _, logRepo := setupService(t)
	ctx := context.Background()

	_, err := svc.GetJobLogs(ctx, 999)
	assert.ErrorIs(t, err, ErrHistoryNotFound)

	_ = logRepo.Create(ctx, &entity.JobLog{Id: 1, HistoryId: 7, Message: "Starting job: t1"})
	_ = logRepo.Create(ctx, &entity.JobLog{Id: 2, HistoryId: 7, Message: "Job completed successfully"})

	logs, err := svc.GetJobLogs(ctx, 7)
	require.NoError(t, err)
	assert.Len(t, logs, 2)
}

func TestValidateSchedule(t *testing.T) {
	assert.NoError(t, ValidateSchedule("*/5 * * * *"))
	assert.NoError(t, ValidateSchedule("0 2 * * 1"))
	assert.NoError(t, ValidateSchedule("@daily"))
	assert.NoError(t, ValidateSchedule("@every 30s"))

	assert.ErrorIs(t, ValidateSchedule(""), ErrInvalidSchedule)
	assert.ErrorIs(t, ValidateSchedule("not-a-cron"), ErrInvalidSchedule)
	assert.ErrorIs(t, ValidateSchedule("61 * * * *"), ErrInvalidSchedule)
	assert.ErrorIs(t, ValidateSchedule("* * * * * *"), ErrInvalidSchedule) // 六段不支持
}

func TestNextRunTime(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 2, 0, 0, time.UTC)

	next, err := NextRunTime("*/5 * * * *", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 10, 5, 0, 0, time.UTC), next)

	_, err = NextRunTime("bad", now)
	assert.ErrorIs(t, err, ErrInvalidSchedule)
}

func TestTargetName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"t1", "t1"},
		{"My Sales Report", "my_sales_report"},
		{"UPPER", "upper"},
		{"a  b", "a__b"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TargetName(tt.in))
	}
}
