// Package scheduler
package scheduler

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/avolkov/robocontest/app/services"
	businessflow "github.com/avolkov/robocontest/business_flow"
	"github.com/avolkov/robocontest/config"
	"github.com/avolkov/robocontest/models"
	"github.com/avolkov/robocontest/repository"
	"github.com/avolkov/robocontest/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var (
	// Per-recipient delivery outcomes across all campaign dispatches
	mailDeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mail_deliveries_total",
			Help: "Total number of campaign email deliveries by outcome",
		},
		[]string{"status"},
	)

	// Finalized campaign dispatch runs
	campaignDispatchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "campaign_dispatches_total",
			Help: "Total number of finalized campaign dispatches",
		},
	)

	// Wall time of a full campaign dispatch run
	dispatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "campaign_dispatch_duration_seconds",
			Help:    "Duration of campaign dispatch runs in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Campaigns waiting in the dispatch queue
	dispatchQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "campaign_dispatch_queue_depth",
			Help: "Number of campaigns waiting in the dispatch queue",
		},
	)
)

// MailDispatcher runs campaign delivery detached from the HTTP request
// path. A trigger acquires a per-campaign redis lock, resolves the
// audience, and places a task on a bounded queue; a fixed pool of workers
// drains the queue and sends with bounded per-campaign concurrency. One
// recipient failing never aborts the rest, and the outcome counters land
// on the campaign exactly once through a conditional finalize.
//
// Known limitation: if the process dies after some deliveries went out
// but before the campaign is finalized, the campaign stays unsent in the
// store. A later re-trigger resolves the audience from scratch, so the
// recipients already delivered to get the message a second time. Closing
// that gap would take a per-recipient check against existing delivery
// records at send time.
type MailDispatcher struct {
	campaignRepo repository.MailingCampaignRepository
	emailLogRepo repository.EmailLogRepository
	resolver     businessflow.RecipientResolver
	mailer       services.Mailer
	rc           *redis.Client
	mailingCfg   config.MailingConfig
	cacheCfg     config.CacheConfig
	logger       *log.Logger

	tasks chan dispatchTask
	wg    sync.WaitGroup

	logFile *os.File
}

// dispatchTask carries one accepted trigger to the worker pool. The
// audience travels with the task so what the workers send matches what
// the trigger acknowledged.
type dispatchTask struct {
	campaign    *models.MailingCampaign
	recipients  []businessflow.Recipient
	triggeredBy *uint
	lockKey     string
}

func NewMailDispatcher(
	campaignRepo repository.MailingCampaignRepository,
	emailLogRepo repository.EmailLogRepository,
	resolver businessflow.RecipientResolver,
	mailer services.Mailer,
	rc *redis.Client,
	mailingCfg config.MailingConfig,
	cacheCfg config.CacheConfig,
) *MailDispatcher {
	if mailingCfg.WorkerCount <= 0 {
		mailingCfg.WorkerCount = 2
	}
	if mailingCfg.QueueSize <= 0 {
		mailingCfg.QueueSize = 16
	}
	if mailingCfg.SendConcurrency <= 0 {
		mailingCfg.SendConcurrency = 5
	}
	if mailingCfg.DispatchLockTTL <= 0 {
		mailingCfg.DispatchLockTTL = 10 * time.Minute
	}
	if mailingCfg.SchedulerInterval <= 0 {
		mailingCfg.SchedulerInterval = time.Minute
	}

	d := &MailDispatcher{
		campaignRepo: campaignRepo,
		emailLogRepo: emailLogRepo,
		resolver:     resolver,
		mailer:       mailer,
		rc:           rc,
		mailingCfg:   mailingCfg,
		cacheCfg:     cacheCfg,
		tasks:        make(chan dispatchTask, mailingCfg.QueueSize),
	}

	// Initialize dispatcher-specific logger (to stdout and persistent file)
	if err := d.initDispatcherLogger(); err != nil {
		d.logger = log.Default()
		d.logger.Printf("dispatcher: failed to initialize file logger: %v", err)
	}

	return d
}

// initDispatcherLogger configures a logger that writes to both stdout and a persistent file under data/ (or /data)
func (d *MailDispatcher) initDispatcherLogger() error {
	candidates := []string{
		filepath.Join("data"),
		"/data",
	}
	for _, dir := range candidates {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			continue
		}
		logPath := filepath.Join(dir, "dispatcher.log")
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			continue
		}
		d.logFile = f
		mw := io.MultiWriter(os.Stdout, f)
		// log.Logger is goroutine-safe; include timestamps with microseconds and UTC
		d.logger = log.New(mw, "dispatcher ", log.LstdFlags|log.Lmicroseconds|log.LUTC)
		return nil
	}
	return fmt.Errorf("could not create dispatcher log file in any candidate directory")
}

// Start launches the worker pool and the scheduled-campaign loop in
// background goroutines and returns a stop function. The stop function
// waits for in-flight dispatch runs to settle.
func (d *MailDispatcher) Start(parent context.Context) func() {
	ctx, cancel := context.WithCancel(parent)

	for i := 0; i < d.mailingCfg.WorkerCount; i++ {
		d.wg.Add(1)
		go d.worker(ctx, i)
	}
	go d.scheduledLoop(ctx)

	d.logger.Printf("dispatcher: started workers=%d queue=%d send_concurrency=%d",
		d.mailingCfg.WorkerCount, cap(d.tasks), d.mailingCfg.SendConcurrency)

	return func() {
		cancel()
		d.wg.Wait()
		if d.logFile != nil {
			_ = d.logFile.Close()
		}
	}
}

// Dispatch validates and queues a campaign for background delivery. The
// audience is resolved here, at send time, not at campaign creation; the
// stored recipient total is overwritten with the resolved count before
// the task is accepted.
func (d *MailDispatcher) Dispatch(ctx context.Context, campaignID uint, triggeredBy *uint) (*businessflow.DispatchReceipt, error) {
	lockKey := d.lockKey(campaignID)

	// One dispatch per campaign at a time (SETNX with TTL). Without redis
	// the conditional recipient-total write below is the only guard.
	if d.rc != nil {
		ok, err := d.rc.SetNX(ctx, lockKey, "1", d.mailingCfg.DispatchLockTTL).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire dispatch lock: %w", err)
		}
		if !ok {
			return nil, businessflow.ErrDispatchInProgress
		}
	}

	accepted := false
	defer func() {
		if !accepted {
			d.releaseLock(lockKey)
		}
	}()

	campaign, err := d.campaignRepo.ByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if campaign == nil {
		return nil, businessflow.ErrCampaignNotFound
	}
	if utils.IsTrue(campaign.IsSent) {
		return nil, businessflow.ErrCampaignAlreadySent
	}

	resolved, err := d.resolver.Resolve(ctx, businessflow.RecipientSelection{
		TargetType:      campaign.TargetType,
		TargetSeasonID:  campaign.TargetSeasonID,
		CustomEmails:    []string(campaign.CustomEmails),
		RecipientsLimit: campaign.RecipientsLimit,
	})
	if err != nil {
		return nil, err
	}

	updated, err := d.campaignRepo.SetTotalRecipients(ctx, campaignID, len(resolved.Recipients))
	if err != nil {
		return nil, err
	}
	if !updated {
		// Sent or deleted since the read above
		return nil, businessflow.ErrCampaignAlreadySent
	}

	select {
	case d.tasks <- dispatchTask{
		campaign:    campaign,
		recipients:  resolved.Recipients,
		triggeredBy: triggeredBy,
		lockKey:     lockKey,
	}:
	default:
		return nil, businessflow.ErrDispatcherBusy
	}
	accepted = true
	dispatchQueueDepth.Set(float64(len(d.tasks)))

	d.logger.Printf("dispatcher: campaign id=%d queued recipients=%d", campaignID, len(resolved.Recipients))

	return &businessflow.DispatchReceipt{
		CampaignID:      campaignID,
		TotalRecipients: len(resolved.Recipients),
	}, nil
}

func (d *MailDispatcher) worker(ctx context.Context, workerNum int) {
	defer d.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case task := <-d.tasks:
			dispatchQueueDepth.Set(float64(len(d.tasks)))
			d.logger.Printf("dispatcher: worker %d picked campaign id=%d", workerNum, task.campaign.ID)
			d.run(ctx, task)
		}
	}
}

// run delivers one campaign to its resolved audience and finalizes the
// outcome. An empty audience finalizes immediately with zero counters.
func (d *MailDispatcher) run(ctx context.Context, task dispatchTask) {
	defer d.releaseLock(task.lockKey)

	campaign := task.campaign
	start := time.Now()

	var sentCount, failedCount int64

	if len(task.recipients) > 0 {
		sem := make(chan struct{}, d.mailingCfg.SendConcurrency)
		var wg sync.WaitGroup

		for _, recipient := range task.recipients {
			r := recipient
			sem <- struct{}{}
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer func() { <-sem }()

				if err := d.deliver(ctx, campaign, r, task.triggeredBy); err != nil {
					atomic.AddInt64(&failedCount, 1)
					mailDeliveriesTotal.WithLabelValues("failed").Inc()
					return
				}
				atomic.AddInt64(&sentCount, 1)
				mailDeliveriesTotal.WithLabelValues("sent").Inc()
			}()
		}
		wg.Wait()
	}

	sent := int(atomic.LoadInt64(&sentCount))
	failed := int(atomic.LoadInt64(&failedCount))

	// Finalize outside the worker context so a graceful shutdown mid-run
	// still records the outcome of the deliveries that were attempted.
	finalized, err := d.campaignRepo.FinalizeDispatch(context.Background(), campaign.ID, sent, failed, utils.UTCNow())
	if err != nil {
		d.logger.Printf("dispatcher: finalize campaign id=%d failed: %v", campaign.ID, err)
		return
	}
	if !finalized {
		d.logger.Printf("dispatcher: campaign id=%d was already finalized", campaign.ID)
		return
	}

	campaignDispatchesTotal.Inc()
	dispatchDuration.Observe(time.Since(start).Seconds())
	d.logger.Printf("dispatcher: campaign id=%d finished total=%d sent=%d failed=%d in %s",
		campaign.ID, len(task.recipients), sent, failed, time.Since(start))
}

// deliver sends to a single recipient through the shared logged-delivery
// path, so every attempt leaves a delivery record regardless of outcome.
func (d *MailDispatcher) deliver(ctx context.Context, campaign *models.MailingCampaign, r businessflow.Recipient, triggeredBy *uint) error {
	mail := &services.OutgoingMail{
		To:      r.Email,
		Subject: campaign.Subject,
		Body:    campaign.Body,
	}
	if r.Name != nil {
		mail.ToName = *r.Name
	}
	if campaign.HTML != nil {
		mail.HTML = *campaign.HTML
	}

	_, err := businessflow.SendLoggedMail(ctx, d.mailer, d.emailLogRepo, mail, models.EmailTypeMassMailing, businessflow.DeliveryRef{
		TeamID:     r.TeamID,
		CampaignID: &campaign.ID,
		SentBy:     triggeredBy,
	})
	return err
}

// scheduledLoop periodically dispatches scheduled campaigns whose send
// time has passed
func (d *MailDispatcher) scheduledLoop(ctx context.Context) {
	ticker := time.NewTicker(d.mailingCfg.SchedulerInterval)
	defer ticker.Stop()

	d.dispatchDue(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.dispatchDue(ctx)
		}
	}
}

func (d *MailDispatcher) dispatchDue(ctx context.Context) {
	due, err := d.campaignRepo.ListDueScheduled(ctx, utils.UTCNow(), 10)
	if err != nil {
		d.logger.Printf("dispatcher: list due scheduled campaigns failed: %v", err)
		return
	}

	for _, campaign := range due {
		receipt, err := d.Dispatch(ctx, campaign.ID, nil)
		if err != nil {
			// Busy queues and concurrent triggers resolve themselves on the next tick
			d.logger.Printf("dispatcher: scheduled campaign id=%d not dispatched: %v", campaign.ID, err)
			continue
		}
		d.logger.Printf("dispatcher: scheduled campaign id=%d queued recipients=%d", receipt.CampaignID, receipt.TotalRecipients)
	}
}

func (d *MailDispatcher) lockKey(campaignID uint) string {
	return d.cacheCfg.RedisPrefix + utils.DispatchLockKeyPrefix + strconv.FormatUint(uint64(campaignID), 10)
}

func (d *MailDispatcher) releaseLock(lockKey string) {
	if d.rc == nil {
		return
	}
	_ = d.rc.Del(context.Background(), lockKey).Err()
}
