package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appsync "github.com/adsync/backend/internal/application/sync"
	"github.com/adsync/backend/internal/domain/campaign"
)

// ---------------------------------------------------------------------------
// Sync Job Types
// ---------------------------------------------------------------------------

// SyncJobKind distinguishes the two background sync drivers
type SyncJobKind string

const (
	// SyncJobKindRetrySweep re-attempts due failed campaign syncs for one tenant
	SyncJobKindRetrySweep SyncJobKind = "RETRY_SWEEP"
	// SyncJobKindDriftPoll compares platform state against one ad account
	SyncJobKindDriftPoll SyncJobKind = "DRIFT_POLL"
)

// SyncJobStatus represents the status of a background sync job
type SyncJobStatus string

const (
	SyncJobStatusPending SyncJobStatus = "PENDING"
	SyncJobStatusRunning SyncJobStatus = "RUNNING"
	SyncJobStatusSuccess SyncJobStatus = "SUCCESS"
	SyncJobStatusFailed  SyncJobStatus = "FAILED"
)

// SyncJob represents one unit of background sync work
type SyncJob struct {
	ID          uuid.UUID
	Kind        SyncJobKind
	TenantID    uuid.UUID
	AdAccountID string
	Status      SyncJobStatus
	Error       string
	StartedAt   *time.Time
	CompletedAt *time.Time
}

// NewRetrySweepJob creates a retry sweep job for a tenant
func NewRetrySweepJob(tenantID uuid.UUID) *SyncJob {
	return &SyncJob{
		ID:       uuid.New(),
		Kind:     SyncJobKindRetrySweep,
		TenantID: tenantID,
		Status:   SyncJobStatusPending,
	}
}

// NewDriftPollJob creates a drift poll job for an ad account
func NewDriftPollJob(ref campaign.AccountRef) *SyncJob {
	return &SyncJob{
		ID:          uuid.New(),
		Kind:        SyncJobKindDriftPoll,
		TenantID:    ref.TenantID,
		AdAccountID: ref.AdAccountID,
		Status:      SyncJobStatusPending,
	}
}

// Start marks the job as running
func (j *SyncJob) Start() {
	now := time.Now()
	j.Status = SyncJobStatusRunning
	j.StartedAt = &now
	j.Error = ""
}

// Complete marks the job as successful
func (j *SyncJob) Complete() {
	now := time.Now()
	j.Status = SyncJobStatusSuccess
	j.CompletedAt = &now
}

// Fail marks the job as failed
func (j *SyncJob) Fail(err string) {
	now := time.Now()
	j.Status = SyncJobStatusFailed
	j.CompletedAt = &now
	j.Error = err
}

// ---------------------------------------------------------------------------
// Executor Interfaces
// ---------------------------------------------------------------------------

// RetrySweeper runs one due-retry sweep for a tenant. Implemented by
// the retry service.
type RetrySweeper interface {
	ProcessDueRetries(ctx context.Context, tenantID uuid.UUID) (*appsync.RetryRunResult, error)
}

// AccountPoller compares platform state against one ad account.
// Implemented by the platform poller.
type AccountPoller interface {
	PollAccount(ctx context.Context, tenantID uuid.UUID, adAccountID string) (*appsync.PollResult, error)
}

// ---------------------------------------------------------------------------
// SyncSchedulerConfig
// ---------------------------------------------------------------------------

// SyncSchedulerConfig holds configuration for the background sync scheduler
type SyncSchedulerConfig struct {
	// Enabled indicates if the scheduler is enabled
	Enabled bool
	// Workers is the number of concurrent job workers
	Workers int
	// JobTimeout is the maximum time a single job can run
	JobTimeout time.Duration
	// RetryInterval is how often due retry sweeps are enqueued
	RetryInterval time.Duration
	// PollInterval is how often drift polls are enqueued
	PollInterval time.Duration
}

// DefaultSyncSchedulerConfig returns default configuration
func DefaultSyncSchedulerConfig() SyncSchedulerConfig {
	return SyncSchedulerConfig{
		Enabled:       true,
		Workers:       4,
		JobTimeout:    5 * time.Minute,
		RetryInterval: 30 * time.Second,
		PollInterval:  5 * time.Minute,
	}
}

// Validate validates the configuration
func (c *SyncSchedulerConfig) Validate() error {
	if c.Workers <= 0 {
		return ErrInvalidConfig
	}
	if c.JobTimeout <= 0 {
		return ErrInvalidConfig
	}
	if c.RetryInterval <= 0 {
		return ErrInvalidConfig
	}
	if c.PollInterval <= 0 {
		return ErrInvalidConfig
	}
	return nil
}

// ---------------------------------------------------------------------------
// SyncScheduler
// ---------------------------------------------------------------------------

// SyncScheduler drives the two recurring sync loops: retry sweeps over
// tenants with due failed campaigns, and drift polls over ad accounts
// with synced campaigns. Work items run on a bounded worker pool.
type SyncScheduler struct {
	config  SyncSchedulerConfig
	targets campaign.SyncTargetSource
	sweeper RetrySweeper
	poller  AccountPoller
	logger  *zap.Logger

	jobs      chan *SyncJob
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool

	// Job history for monitoring (in-memory, limited size)
	historyMu  sync.RWMutex
	history    []*SyncJob
	maxHistory int
}

// NewSyncScheduler creates a new background sync scheduler
func NewSyncScheduler(
	config SyncSchedulerConfig,
	targets campaign.SyncTargetSource,
	sweeper RetrySweeper,
	poller AccountPoller,
	logger *zap.Logger,
) (*SyncScheduler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &SyncScheduler{
		config:     config,
		targets:    targets,
		sweeper:    sweeper,
		poller:     poller,
		logger:     logger,
		jobs:       make(chan *SyncJob, 100),
		history:    make([]*SyncJob, 0, 100),
		maxHistory: 100,
	}, nil
}

// Start starts the worker pool and the two ticker loops
func (s *SyncScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	for i := 0; i < s.config.Workers; i++ {
		s.wg.Add(1)
		go s.worker(ctx, i)
	}

	s.wg.Add(2)
	go s.tickLoop(ctx, s.config.RetryInterval, s.TriggerRetrySweeps)
	go s.tickLoop(ctx, s.config.PollInterval, s.TriggerDriftPolls)

	s.logger.Info("Sync scheduler started",
		zap.Int("workers", s.config.Workers),
		zap.Duration("retry_interval", s.config.RetryInterval),
		zap.Duration("poll_interval", s.config.PollInterval),
	)

	return nil
}

// Stop gracefully stops the scheduler
func (s *SyncScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	// Wait for workers and tickers to finish with timeout
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Sync scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Sync scheduler stop timed out")
		return ctx.Err()
	}
}

// SubmitJob submits a job for execution
func (s *SyncScheduler) SubmitJob(job *SyncJob) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.mu.Unlock()

	select {
	case s.jobs <- job:
		s.logger.Debug("Sync job submitted",
			zap.String("job_id", job.ID.String()),
			zap.String("kind", string(job.Kind)),
			zap.String("tenant_id", job.TenantID.String()),
		)
		return nil
	default:
		return ErrJobQueueFull
	}
}

// TriggerRetrySweeps enqueues a retry sweep job for every tenant holding
// due retry candidates. Also serves manual triggering.
func (s *SyncScheduler) TriggerRetrySweeps(ctx context.Context) error {
	tenantIDs, err := s.targets.ListRetryTenants(ctx)
	if err != nil {
		s.logger.Error("Failed to list retry tenants", zap.Error(err))
		return err
	}

	for _, tenantID := range tenantIDs {
		if err := s.SubmitJob(NewRetrySweepJob(tenantID)); err != nil {
			s.logger.Warn("Failed to enqueue retry sweep",
				zap.String("tenant_id", tenantID.String()),
				zap.Error(err),
			)
		}
	}
	return nil
}

// TriggerDriftPolls enqueues a drift poll job for every ad account with
// synced campaigns. Also serves manual triggering.
func (s *SyncScheduler) TriggerDriftPolls(ctx context.Context) error {
	refs, err := s.targets.ListSyncedAccounts(ctx)
	if err != nil {
		s.logger.Error("Failed to list synced accounts", zap.Error(err))
		return err
	}

	for _, ref := range refs {
		if err := s.SubmitJob(NewDriftPollJob(ref)); err != nil {
			s.logger.Warn("Failed to enqueue drift poll",
				zap.String("tenant_id", ref.TenantID.String()),
				zap.String("ad_account_id", ref.AdAccountID),
				zap.Error(err),
			)
		}
	}
	return nil
}

// tickLoop invokes trigger on every tick until the context is cancelled
func (s *SyncScheduler) tickLoop(ctx context.Context, interval time.Duration, trigger func(context.Context) error) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = trigger(ctx)
		}
	}
}

// worker processes jobs from the queue
func (s *SyncScheduler) worker(ctx context.Context, workerID int) {
	defer s.wg.Done()

	s.logger.Debug("Sync worker started", zap.Int("worker_id", workerID))

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Sync worker stopping", zap.Int("worker_id", workerID))
			return
		case job, ok := <-s.jobs:
			if !ok {
				return
			}
			s.processJob(ctx, job, workerID)
		}
	}
}

// processJob executes a single job
func (s *SyncScheduler) processJob(ctx context.Context, job *SyncJob, workerID int) {
	job.Start()

	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()

	var err error
	switch job.Kind {
	case SyncJobKindRetrySweep:
		var run *appsync.RetryRunResult
		run, err = s.sweeper.ProcessDueRetries(jobCtx, job.TenantID)
		if err == nil {
			s.logger.Info("Retry sweep job completed",
				zap.Int("worker_id", workerID),
				zap.String("tenant_id", job.TenantID.String()),
				zap.Int("attempted", run.Attempted),
				zap.Int("synced", run.Synced),
				zap.Int("permanent", run.Permanent),
			)
		}
	case SyncJobKindDriftPoll:
		var poll *appsync.PollResult
		poll, err = s.poller.PollAccount(jobCtx, job.TenantID, job.AdAccountID)
		if err == nil {
			s.logger.Info("Drift poll job completed",
				zap.Int("worker_id", workerID),
				zap.String("tenant_id", job.TenantID.String()),
				zap.String("ad_account_id", job.AdAccountID),
				zap.Int("checked", poll.Checked),
				zap.Int("updated", poll.Updated),
				zap.Int("conflicts", poll.Conflicts),
				zap.Int("deleted", poll.Deleted),
			)
		}
	}

	if err != nil {
		job.Fail(err.Error())
		s.logger.Error("Sync job failed",
			zap.Int("worker_id", workerID),
			zap.String("job_id", job.ID.String()),
			zap.String("kind", string(job.Kind)),
			zap.String("tenant_id", job.TenantID.String()),
			zap.Error(err),
		)
	} else {
		job.Complete()
	}

	s.addToHistory(job)
}

// addToHistory adds a completed job to history
func (s *SyncScheduler) addToHistory(job *SyncJob) {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()

	// Add to front
	s.history = append([]*SyncJob{job}, s.history...)

	// Trim if over limit
	if len(s.history) > s.maxHistory {
		s.history = s.history[:s.maxHistory]
	}
}

// GetJobHistory returns recent job history
func (s *SyncScheduler) GetJobHistory(limit int) []*SyncJob {
	s.historyMu.RLock()
	defer s.historyMu.RUnlock()

	if limit <= 0 || limit > len(s.history) {
		limit = len(s.history)
	}

	result := make([]*SyncJob, limit)
	copy(result, s.history[:limit])
	return result
}
