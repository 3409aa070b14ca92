// Package notify delivers contract notifications off the request path.
package notify

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/nurpe/carmate-contracts/internal/email"
	"github.com/nurpe/carmate-contracts/internal/model"
)

var (
	ErrQueueFull = errors.New("notification queue full")
	ErrClosed    = errors.New("dispatcher closed")
)

type Mailer interface {
	Send(ctx context.Context, to, subject, html string) error
}

type GrantIssuer interface {
	Issue(contractID, customerID uint, documentIDs []uint) (string, time.Time, error)
}

// ContractCompleted is enqueued once a successful contract has its final
// document set committed.
type ContractCompleted struct {
	CustomerEmail string
	CustomerName  string
	CustomerID    uint
	ContractID    uint
	CarName       string
	Documents     []model.DocumentRef
}

type Options struct {
	Workers     int
	QueueSize   int
	BaseURL     string
	SendTimeout time.Duration
}

// Dispatcher runs a fixed pool of workers draining a bounded queue. Failures
// are logged and dropped; nothing is retried.
type Dispatcher struct {
	mailer  Mailer
	grants  GrantIssuer
	log     zerolog.Logger
	opts    Options
	queue   chan ContractCompleted
	group   *errgroup.Group
	mu      sync.RWMutex
	closed  bool
	started bool
}

func NewDispatcher(mailer Mailer, grants GrantIssuer, opts Options, log zerolog.Logger) *Dispatcher {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 1
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = 30 * time.Second
	}
	return &Dispatcher{
		mailer: mailer,
		grants: grants,
		log:    log.With().Str("component", "notify").Logger(),
		opts:   opts,
		queue:  make(chan ContractCompleted, opts.QueueSize),
	}
}

// Start launches the workers. They stop when ctx is cancelled or after Close
// has drained the queue.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return
	}
	d.started = true

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < d.opts.Workers; i++ {
		worker := i
		g.Go(func() error {
			d.run(gctx, worker)
			return nil
		})
	}
	d.group = g
}

// Enqueue never blocks the caller.
func (d *Dispatcher) Enqueue(job ContractCompleted) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrClosed
	}
	select {
	case d.queue <- job:
		return nil
	default:
		d.log.Warn().Uint("contract_id", job.ContractID).Msg("notification queue full, dropping email")
		return ErrQueueFull
	}
}

// Close stops accepting jobs and waits for queued ones to be handled.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	group := d.group
	d.mu.Unlock()

	if group != nil {
		_ = group.Wait()
	}
}

func (d *Dispatcher) run(ctx context.Context, worker int) {
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-d.queue:
			if !ok {
				return
			}
			if err := d.deliver(ctx, job); err != nil {
				d.log.Error().
					Err(err).
					Int("worker", worker).
					Uint("contract_id", job.ContractID).
					Uint("customer_id", job.CustomerID).
					Msg("contract email failed")
				continue
			}
			d.log.Info().
				Uint("contract_id", job.ContractID).
				Int("documents", len(job.Documents)).
				Msg("contract email sent")
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, job ContractCompleted) error {
	if job.CustomerEmail == "" {
		return fmt.Errorf("customer %d has no email address", job.CustomerID)
	}
	if len(job.Documents) == 0 {
		return fmt.Errorf("no documents to send")
	}

	ids := make([]uint, 0, len(job.Documents))
	for _, doc := range job.Documents {
		ids = append(ids, doc.ID)
	}
	token, expiresAt, err := d.grants.Issue(job.ContractID, job.CustomerID, ids)
	if err != nil {
		return err
	}

	links := make([]email.DocumentLink, 0, len(job.Documents))
	for _, doc := range job.Documents {
		links = append(links, email.DocumentLink{
			FileName: doc.FileName,
			URL:      DownloadURL(d.opts.BaseURL, token, doc.ID),
		})
	}

	subject, html, err := email.RenderContractCompleted(email.ContractCompletedData{
		CustomerName: job.CustomerName,
		ContractID:   job.ContractID,
		CarName:      job.CarName,
		Links:        links,
		ValidDays:    validDays(time.Until(expiresAt)),
	})
	if err != nil {
		return err
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.opts.SendTimeout)
	defer cancel()
	return d.mailer.Send(sendCtx, job.CustomerEmail, subject, html)
}

func DownloadURL(baseURL, token string, documentID uint) string {
	q := url.Values{}
	q.Set("token", token)
	q.Set("docId", fmt.Sprint(documentID))
	return baseURL + "/contractDocuments/download?" + q.Encode()
}

func validDays(remaining time.Duration) int {
	days := int((remaining + 12*time.Hour) / (24 * time.Hour))
	if days < 1 {
		return 1
	}
	return days
}
