package job

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"change-intake-service/internal/client"
	"change-intake-service/internal/metrics"
)

// ProbeJob checks whether the workflow engine answers and publishes the
// result as the external engine up gauge
type ProbeJob struct {
	webhook client.WebhookClient
	metrics *metrics.Metrics
	logger  *zap.Logger
	timeout time.Duration
}

// NewProbeJob creates a new ProbeJob instance
func NewProbeJob(webhook client.WebhookClient, m *metrics.Metrics, logger *zap.Logger, timeout time.Duration) *ProbeJob {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &ProbeJob{
		webhook: webhook,
		metrics: m,
		logger:  logger,
		timeout: timeout,
	}
}

// Run executes one probe
func (j *ProbeJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	err := j.webhook.Probe(ctx)
	j.metrics.SetExternalEngineUp(err == nil)
	if err != nil {
		j.logger.Warn("Workflow engine probe failed",
			zap.String("url", j.webhook.URL()),
			zap.Error(err),
		)
		return
	}
	j.logger.Debug("Workflow engine probe succeeded", zap.String("url", j.webhook.URL()))
}

// Scheduler runs the probe on a cron schedule
type Scheduler struct {
	cron *cron.Cron
	job  *ProbeJob
}

// NewScheduler registers job under schedule, e.g. "@every 1m" or "*/5 * * * *".
func NewScheduler(schedule string, job *ProbeJob, logger *zap.Logger) (*Scheduler, error) {
	c := cron.New(cron.WithChain(cron.Recover(cronLogger{logger})))
	if _, err := c.AddJob(schedule, job); err != nil {
		return nil, fmt.Errorf("schedule probe job %q: %w", schedule, err)
	}
	return &Scheduler{cron: c, job: job}, nil
}

// Start probes once immediately and then on schedule
func (s *Scheduler) Start() {
	s.job.Run()
	s.cron.Start()
}

// Stop waits for a running probe to finish
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// cronLogger adapts zap to cron.Logger
type cronLogger struct {
	logger *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
