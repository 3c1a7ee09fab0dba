package repo

import (
	"context"

	"github.com/mbeoliero/datafactory/domain/entity"
)

// JobRepo Job仓储接口
type JobRepo interface {
	// Create 创建任务
	Create(ctx context.Context, job *entity.Job) error

	// UpdateFields 按列更新任务，列名见 entity.Field*
	UpdateFields(ctx context.Context, id uint64, fields map[string]any) (bool, error)

	// Delete 删除任务，不存在时返回 false
	Delete(ctx context.Context, id uint64) (bool, error)

	// FindById 根据ID查询，未找到返回 nil
	FindById(ctx context.Context, id uint64) (*entity.Job, error)

	// FindByName 根据名称查询，未找到返回 nil
	FindByName(ctx context.Context, name string) (*entity.Job, error)

	// List 按 job_name 升序列出全部任务
	List(ctx context.Context) ([]*entity.Job, error)

	// ListScheduled 列出 enabled 且带调度表达式的任务，启动时重建触发器用
	ListScheduled(ctx context.Context) ([]*entity.Job, error)
}

var jobRepo JobRepo

func SetJobRepo(j JobRepo) {
	jobRepo = j
}

func GetJobRepo() JobRepo {
	return jobRepo
}
