package repo

import (
	"context"

	"github.com/mbeoliero/datafactory/domain/entity"
)

// JobHistoryRepo 执行历史仓储接口，只增不删
type JobHistoryRepo interface {
	// Create 创建 running 状态的历史记录
	Create(ctx context.Context, record *entity.JobHistory) error

	// FindById 根据ID查询，未找到返回 nil
	FindById(ctx context.Context, id uint64) (*entity.JobHistory, error)

	// Complete 迁移到终态，只对仍处于 running 的行生效
	Complete(ctx context.Context, id uint64, status entity.RunStatus, records int64, errMsg string) (bool, error)

	// ListByJob 按任务查询历史，started_at 倒序
	ListByJob(ctx context.Context, jobId uint64, limit int) ([]*entity.JobHistory, error)

	// ListAll 跨任务查询历史，started_at 倒序
	ListAll(ctx context.Context, limit int) ([]*entity.JobHistory, error)

	// LastByJob 任务最近一次执行，没有则返回 nil
	LastByJob(ctx context.Context, jobId uint64) (*entity.JobHistory, error)
}

// JobLogRepo 执行日志仓储接口，追加写入
type JobLogRepo interface {
	// Create 追加一条日志，立即可见
	Create(ctx context.Context, l *entity.JobLog) error

	// ListByHistory 按执行查询日志，时间正序，同时间按ID排序
	ListByHistory(ctx context.Context, historyId uint64) ([]*entity.JobLog, error)
}

var (
	jobHistoryRepo JobHistoryRepo
	jobLogRepo     JobLogRepo
)

func SetJobHistoryRepo(r JobHistoryRepo) {
	jobHistoryRepo = r
}

func GetJobHistoryRepo() JobHistoryRepo {
	return jobHistoryRepo
}

func SetJobLogRepo(r JobLogRepo) {
	jobLogRepo = r
}

func GetJobLogRepo() JobLogRepo {
	return jobLogRepo
}
