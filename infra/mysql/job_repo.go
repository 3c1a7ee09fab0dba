package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/mbeoliero/datafactory/domain/entity"
	"github.com/mbeoliero/datafactory/domain/repo"
	"github.com/mbeoliero/datafactory/pkg/generic"
)

type jobRepo struct {
	db *gorm.DB
}

var getJobRepo = generic.Once(func() repo.JobRepo {
	return &jobRepo{db: GetDB()}
})

func (j *jobRepo) Create(ctx context.Context, job *entity.Job) error {
	return gorm.G[entity.Job](j.db).Create(ctx, job)
}

func (j *jobRepo) UpdateFields(ctx context.Context, id uint64, fields map[string]any) (bool, error) {
	res := j.db.WithContext(ctx).Model(&entity.Job{}).Where("id = ?", id).Updates(fields)
	return res.RowsAffected > 0, res.Error
}

func (j *jobRepo) Delete(ctx context.Context, id uint64) (bool, error) {
	n, err := gorm.G[entity.Job](j.db).Where("id = ?", id).Delete(ctx)
	return n > 0, err
}

func (j *jobRepo) FindById(ctx context.Context, id uint64) (*entity.Job, error) {
	job, err := gorm.G[*entity.Job](j.db).Where("id = ?", id).First(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return job, nil
}

func (j *jobRepo) FindByName(ctx context.Context, name string) (*entity.Job, error) {
	job, err := gorm.G[*entity.Job](j.db).Where("job_name = ?", name).First(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return job, nil
}

func (j *jobRepo) List(ctx context.Context) ([]*entity.Job, error) {
	return gorm.G[*entity.Job](j.db).Order("job_name").Find(ctx)
}

func (j *jobRepo) ListScheduled(ctx context.Context) ([]*entity.Job, error) {
	return gorm.G[*entity.Job](j.db).
		Where("enabled = ? AND schedule <> ''", true).
		Order("job_name").
		Find(ctx)
}
