package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/use-agent/fetchmcp/models"
	"github.com/use-agent/fetchmcp/webhook"
)

// CrawlClient is the subset of remote.Client the crawl operation needs.
// Execution itself is delegated entirely to the remote service; this
// pipeline is a job-lifecycle and response-shape concern only.
type CrawlClient interface {
	StartCrawl(ctx context.Context, req *models.CrawlRequest) (string, error)
	GetCrawlStatus(ctx context.Context, jobID string) (*models.CrawlStatus, error)
	CancelCrawl(ctx context.Context, jobID string) error
}

const crawlPollInterval = 3 * time.Second

// crawlJob tracks the webhook delivery bookkeeping for one job; nothing
// about crawl progress itself lives here, that's the remote service's job.
type crawlJob struct {
	webhookURL    string
	webhookSecret string
	stopPolling   context.CancelFunc
}

// CrawlPipeline runs the crawl tool: start/status/cancel against the remote
// job, plus a local poller that fires webhook deliveries on state
// transitions when the caller asked for one.
type CrawlPipeline struct {
	client CrawlClient
	jobs   sync.Map // jobID -> *crawlJob
}

func NewCrawlPipeline(client CrawlClient) *CrawlPipeline {
	return &CrawlPipeline{client: client}
}

// Start begins a new crawl job and returns its initial status. When the
// request carries a webhook URL, a background poller watches the job until
// it reaches a terminal state and delivers the corresponding event.
func (p *CrawlPipeline) Start(ctx context.Context, req *models.CrawlRequest) (*models.CrawlStatus, error) {
	jobID, err := p.client.StartCrawl(ctx, req)
	if err != nil {
		return nil, err
	}

	if req.WebhookURL != "" {
		pollCtx, cancel := context.WithCancel(context.Background())
		p.jobs.Store(jobID, &crawlJob{
			webhookURL:    req.WebhookURL,
			webhookSecret: req.WebhookSecret,
			stopPolling:   cancel,
		})
		go p.poll(pollCtx, jobID)
	}

	return p.client.GetCrawlStatus(ctx, jobID)
}

// Status fetches a job's current progress and results.
func (p *CrawlPipeline) Status(ctx context.Context, jobID string) (*models.CrawlStatus, error) {
	return p.client.GetCrawlStatus(ctx, jobID)
}

// Cancel requests cancellation of a running job and stops this process's
// local poller for it, if any.
func (p *CrawlPipeline) Cancel(ctx context.Context, jobID string) error {
	if v, ok := p.jobs.Load(jobID); ok {
		v.(*crawlJob).stopPolling()
		p.jobs.Delete(jobID)
	}
	return p.client.CancelCrawl(ctx, jobID)
}

// poll watches jobID until it reaches a terminal state or pollCtx is
// cancelled, delivering one webhook event on arrival.
func (p *CrawlPipeline) poll(pollCtx context.Context, jobID string) {
	defer p.jobs.Delete(jobID)

	ticker := time.NewTicker(crawlPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-pollCtx.Done():
			return
		case <-ticker.C:
		}

		status, err := p.client.GetCrawlStatus(pollCtx, jobID)
		if err != nil {
			continue
		}
		if !terminal(status.State) {
			continue
		}

		v, ok := p.jobs.Load(jobID)
		if !ok {
			return
		}
		job := v.(*crawlJob)
		webhook.DeliverAsync(job.webhookURL, job.webhookSecret, &webhook.Event{
			Type:      "crawl." + string(status.State),
			JobID:     jobID,
			Timestamp: time.Now().Unix(),
			Data:      status,
		})
		return
	}
}

func terminal(s models.CrawlState) bool {
	switch s {
	case models.CrawlCompleted, models.CrawlFailed, models.CrawlCancelled:
		return true
	default:
		return false
	}
}
