package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/urfave/cli/v2"

	"github.com/odyssey-erp/purchase-insights/jobs"
)

// JobsCLI wraps manual management helpers for Asynq jobs.
type JobsCLI struct {
	client    *asynq.Client
	inspector *asynq.Inspector
}

// NewJobsCLI initialises the CLI helpers using the provided Redis address.
func NewJobsCLI(redisAddr string) *JobsCLI {
	opts := asynq.RedisClientOpt{Addr: redisAddr}
	return &JobsCLI{client: asynq.NewClient(opts), inspector: asynq.NewInspector(opts)}
}

// Close releases underlying resources.
func (c *JobsCLI) Close() error {
	var err error
	if c.inspector != nil {
		if closeErr := c.inspector.Close(); closeErr != nil {
			err = closeErr
		}
	}
	if c.client != nil {
		if closeErr := c.client.Close(); closeErr != nil {
			err = closeErr
		}
	}
	return err
}

// TriggerOptions carries the optional payload of a triggered job.
type TriggerOptions struct {
	CompanyCodes []string
	Reason       string
}

// BuildTask prepares the task for a supported job type.
func BuildTask(name string, opts TriggerOptions) (*asynq.Task, []asynq.Option, error) {
	switch name {
	case jobs.TaskReportWarmup:
		task, err := jobs.NewReportWarmupTask(opts.CompanyCodes...)
		return task, []asynq.Option{asynq.MaxRetry(3)}, err
	case jobs.TaskCacheBump:
		reason := opts.Reason
		if reason == "" {
			reason = "purchasectl"
		}
		task, err := jobs.NewCacheBumpTask(reason)
		return task, []asynq.Option{asynq.MaxRetry(5)}, err
	default:
		return nil, nil, fmt.Errorf("jobs cli: unsupported job %s", name)
	}
}

// Trigger enqueues a supported job by name.
func (c *JobsCLI) Trigger(ctx context.Context, name string, opts TriggerOptions) (*asynq.TaskInfo, error) {
	if c == nil || c.client == nil {
		return nil, errors.New("jobs cli: client not configured")
	}
	task, taskOpts, err := BuildTask(name, opts)
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task, append(taskOpts, asynq.Queue(jobs.QueueDefault))...)
}

// QueueStats summarises the current queue state.
type QueueStats struct {
	Queue     string
	Pending   int
	Active    int
	Scheduled int
	Retry     int
}

// InspectQueue reports the queue metrics for the default queue.
func (c *JobsCLI) InspectQueue() (QueueStats, error) {
	if c == nil || c.inspector == nil {
		return QueueStats{}, errors.New("jobs cli: inspector not configured")
	}
	info, err := c.inspector.GetQueueInfo(jobs.QueueDefault)
	if err != nil {
		return QueueStats{}, err
	}
	stats := QueueStats{Queue: jobs.QueueDefault}
	if info != nil {
		stats.Pending = info.Pending
		stats.Active = info.Active
		stats.Scheduled = info.Scheduled
		stats.Retry = info.Retry
	}
	return stats, nil
}

// ListScheduled returns scheduled task infos for observability.
func (c *JobsCLI) ListScheduled(size int) ([]*asynq.TaskInfo, error) {
	if c == nil || c.inspector == nil {
		return nil, errors.New("jobs cli: inspector not configured")
	}
	if size <= 0 {
		size = 10
	}
	return c.inspector.ListScheduledTasks(jobs.QueueDefault, asynq.PageSize(size), asynq.Page(1))
}

func runJobsTrigger(c *cli.Context) error {
	name := c.Args().First()
	if name == "" {
		return cli.Exit("jobs trigger: task type required", 2)
	}
	jc := NewJobsCLI(c.String("redis-addr"))
	defer func() { _ = jc.Close() }()
	info, err := jc.Trigger(c.Context, name, TriggerOptions{
		CompanyCodes: c.StringSlice("company-code"),
		Reason:       c.String("reason"),
	})
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(c.App.Writer, "enqueued %s id=%s queue=%s\n", info.Type, info.ID, info.Queue)
	return nil
}

func runJobsStats(c *cli.Context) error {
	jc := NewJobsCLI(c.String("redis-addr"))
	defer func() { _ = jc.Close() }()
	stats, err := jc.InspectQueue()
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(c.App.Writer, "queue=%s pending=%d active=%d scheduled=%d retry=%d\n",
		stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry)
	return nil
}

func runJobsScheduled(c *cli.Context) error {
	jc := NewJobsCLI(c.String("redis-addr"))
	defer func() { _ = jc.Close() }()
	tasks, err := jc.ListScheduled(c.Int("size"))
	if err != nil {
		return err
	}
	for _, info := range tasks {
		_, _ = fmt.Fprintf(c.App.Writer, "%s\t%s\t%s\n", info.ID, info.Type, info.NextProcessAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}
