package scheduler

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	redislock "github.com/go-co-op/gocron-redis-lock/v2"
	"github.com/go-co-op/gocron/v2"
	"github.com/go-redsync/redsync/v4"

	"github.com/mbeoliero/datafactory/domain/repo"
	"github.com/mbeoliero/datafactory/domain/service"
	"github.com/mbeoliero/datafactory/infra/config"
	"github.com/mbeoliero/datafactory/infra/redis"
	"github.com/mbeoliero/datafactory/internal/engine"
	"github.com/mbeoliero/datafactory/pkg/log"
)

// Runner 触发到期时的执行入口
type Runner interface {
	Run(ctx context.Context, jobId uint64) (*engine.RunResult, error)
}

// ScheduledJob 一个处于调度中的任务
type ScheduledJob struct {
	JobId    uint64 `json:"job_id"`
	JobName  string `json:"job_name"`
	Schedule string `json:"schedule"`
	NextRun  int64  `json:"next_run"` // time milli，暂停或未知时为 0
}

type entry struct {
	jobId   uint64
	jobName string
	expr    string
	gj      gocron.Job
}

// Scheduler 维护 jobId -> cron 触发器的映射，到期时把 jobId 交给 Runner。
// 触发器里只存 jobId，任务定义在执行时由 Runner 重新查库，改名不会留下旧闭包。
type Scheduler struct {
	cfg        config.SchedulerConfig
	cron       gocron.Scheduler
	runner     Runner
	queue      *TaskQueue
	mu         sync.RWMutex
	entries    map[uint64]*entry
	paused     atomic.Bool
	started    atomic.Bool
	stopWorker chan struct{}
	stopOnce   sync.Once
	workerPool chan struct{} // 协程池信号量，限制并发执行数
	wg         sync.WaitGroup
}

func NewScheduler(cfg config.SchedulerConfig, runner Runner) (*Scheduler, error) {
	var opts []gocron.SchedulerOption
	if cfg.EnableRunLock {
		// 同一任务跳过重叠执行（redsync 锁），默认关闭：默认允许同任务并发执行
		locker, err := redislock.NewRedisLockerWithOptions(redis.GetClient(),
			redislock.WithKeyPrefix(cfg.SchedulerKeyPrefix),
			redislock.WithRedsyncOptions(redsync.WithExpiry(cfg.LockerExpiry)))
		if err != nil {
			return nil, err
		}
		opts = append(opts, gocron.WithGlobalJobOptions(gocron.WithDistributedJobLocker(locker)))
	}

	cron, err := gocron.NewScheduler(opts...)
	if err != nil {
		return nil, err
	}

	var queue *TaskQueue
	if cfg.EnableTaskQueue {
		queue = NewTaskQueue(redis.GetClient(), cfg.SchedulerKeyPrefix)
	}

	return &Scheduler{
		cfg:        cfg,
		cron:       cron,
		runner:     runner,
		queue:      queue,
		entries:    make(map[uint64]*entry),
		stopWorker: make(chan struct{}),
		workerPool: make(chan struct{}, cfg.MaxWorkers),
	}, nil
}

// Start 启动调度并从 JobStore 重建全部已启用任务的触发器
func (s *Scheduler) Start(ctx context.Context) {
	s.cron.Start()
	s.started.Store(true)

	s.reloadJobs(ctx)

	go s.startWorker(ctx)
	log.CtxInfo(ctx, "scheduler started, %d triggers loaded", s.count())
}

// reloadJobs 进程重启后恢复触发器，单个任务失败不阻塞其它任务
func (s *Scheduler) reloadJobs(ctx context.Context) {
	jobs, err := repo.GetJobRepo().ListScheduled(ctx)
	if err != nil {
		log.CtxError(ctx, "load scheduled jobs failed, err: %v", err)
		return
	}

	for _, job := range jobs {
		if err = s.Upsert(ctx, job.Id, job.JobName, job.Schedule); err != nil {
			log.CtxWarn(ctx, "restore trigger failed, jobId: %d, name: %s, err: %v", job.Id, job.JobName, err)
		}
	}
}

// Upsert 新增或替换一个任务的 cron 触发器。
// 表达式非法时返回 ErrInvalidSchedule，调用方据此报告"已保存但未调度"。
func (s *Scheduler) Upsert(ctx context.Context, jobId uint64, jobName, expr string) error {
	if err := service.ValidateSchedule(expr); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if old, exists := s.entries[jobId]; exists {
		if err := s.cron.RemoveJob(old.gj.ID()); err != nil && !errors.Is(err, gocron.ErrJobNotFound) {
			log.CtxWarn(ctx, "remove old trigger failed, jobId: %d, err: %v", jobId, err)
		}
		delete(s.entries, jobId)
	}

	gj, err := s.cron.NewJob(
		gocron.CronJob(expr, false),
		gocron.NewTask(func() {
			defer func() {
				if r := recover(); r != nil {
					log.CtxError(context.Background(), "trigger fire panic, jobId: %d, err: %v", jobId, r)
				}
			}()
			s.fire(context.Background(), jobId)
		}),
		gocron.WithName(jobName),
	)
	if err != nil {
		return err
	}

	s.entries[jobId] = &entry{jobId: jobId, jobName: jobName, expr: expr, gj: gj}
	log.CtxInfo(ctx, "trigger armed, jobId: %d, name: %s, expr: %s", jobId, jobName, expr)
	return nil
}

// Remove 摘除任务触发器，未调度时为 no-op
func (s *Scheduler) Remove(ctx context.Context, jobId uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, exists := s.entries[jobId]
	if !exists {
		return
	}
	if err := s.cron.RemoveJob(e.gj.ID()); err != nil && !errors.Is(err, gocron.ErrJobNotFound) {
		log.CtxWarn(ctx, "remove trigger failed, jobId: %d, err: %v", jobId, err)
	}
	delete(s.entries, jobId)
}

// Pause 全局暂停触发，触发器定义保留
func (s *Scheduler) Pause() {
	if !s.paused.Swap(true) {
		_ = s.cron.StopJobs()
	}
}

// Resume 恢复触发
func (s *Scheduler) Resume() {
	if s.paused.Swap(false) {
		s.cron.Start()
	}
}

// Running 调度器是否在运行（已启动且未暂停）
func (s *Scheduler) Running() bool {
	return s.started.Load() && !s.paused.Load()
}

// ListActive 列出当前全部触发器，按任务名排序
func (s *Scheduler) ListActive() []ScheduledJob {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ScheduledJob, 0, len(s.entries))
	for _, e := range s.entries {
		sj := ScheduledJob{JobId: e.jobId, JobName: e.jobName, Schedule: e.expr}
		if !s.paused.Load() {
			if nt, err := e.gj.NextRun(); err == nil {
				sj.NextRun = nt.UnixMilli()
			}
		}
		out = append(out, sj)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JobName < out[j].JobName })
	return out
}

func (s *Scheduler) count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// fire 一次到期触发：入队或交给协程池异步执行，慢任务不阻塞触发循环
func (s *Scheduler) fire(ctx context.Context, jobId uint64) {
	if s.queue != nil {
		s.mu.RLock()
		jobName := ""
		if e, ok := s.entries[jobId]; ok {
			jobName = e.jobName
		}
		s.mu.RUnlock()

		msg := &TaskMessage{
			JobId:       int64(jobId),
			JobName:     jobName,
			TriggerTime: time.Now().UnixMilli(),
			CreatedAt:   time.Now(),
		}
		if err := s.queue.PushTask(ctx, msg); err != nil {
			log.CtxError(ctx, "push run request failed, jobId: %d, err: %v", jobId, err)
		}
		return
	}

	s.dispatch(ctx, jobId)
}

// dispatch 在协程池里执行一次任务
func (s *Scheduler) dispatch(ctx context.Context, jobId uint64) {
	select {
	case s.workerPool <- struct{}{}:
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer func() { <-s.workerPool }()
			defer func() {
				if r := recover(); r != nil {
					log.CtxError(ctx, "run panic, jobId: %d, err: %v", jobId, r)
				}
			}()
			s.runJob(context.Background(), jobId)
		}()
	case <-s.stopWorker:
		log.CtxWarn(ctx, "scheduler stopped, run skipped, jobId: %d", jobId)
	}
}

// runJob 调用 Runner 并记录结果。任务被删除或禁用时触发器空转，只告警。
func (s *Scheduler) runJob(ctx context.Context, jobId uint64) {
	result, err := s.runner.Run(ctx, jobId)
	if err != nil {
		log.CtxWarn(ctx, "scheduled run rejected, jobId: %d, err: %v", jobId, err)
		return
	}
	log.CtxInfo(ctx, "scheduled run finished, jobId: %d, historyId: %d, status: %s, records: %d",
		jobId, result.HistoryId, result.Status, result.RecordsProcessed)
}

// startWorker 任务队列消费循环，EnableTaskQueue 关闭时直接退出
func (s *Scheduler) startWorker(ctx context.Context) {
	if s.queue == nil {
		return
	}

	for {
		select {
		case <-s.stopWorker:
			return
		default:
			s.runTaskWorker(ctx)
		}
	}
}

func (s *Scheduler) runTaskWorker(ctx context.Context) {
	msg, err := s.queue.PopTask(ctx, s.cfg.PopTimeout)
	if err != nil {
		log.CtxError(ctx, "pop run request failed, err: %v", err)
		return
	}
	if msg == nil {
		return
	}

	log.CtxInfo(ctx, "run request from queue, jobId: %d, name: %s", msg.JobId, msg.JobName)
	s.dispatch(ctx, uint64(msg.JobId))
}

// Stop 停止触发并等待在途执行结束，ctx 带 deadline 时到点放弃等待
func (s *Scheduler) Stop(ctx context.Context) {
	if !s.started.Load() {
		return
	}

	s.started.Store(false)
	s.stopOnce.Do(func() {
		close(s.stopWorker)
	})

	_ = s.cron.Shutdown()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	if _, ok := ctx.Deadline(); ok {
		select {
		case <-done:
		case <-ctx.Done():
		}
		return
	}
	<-done
}
