package notify

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/user/bloghub-go/posts"
)

// FollowerDirectory resolves the email addresses of an author's followers.
type FollowerDirectory interface {
	FollowerEmails(ctx context.Context, username string) ([]string, error)
}

// PostCreatedNotice asks for one email per follower of Author.
type PostCreatedNotice struct {
	PostID string
	Title  string
	Author string
}

// Report summarises one fan-out.
type Report struct {
	BatchID   string
	Attempted int
	Failed    int
}

// Options configures a Dispatcher.
type Options struct {
	Workers     int
	QueueSize   int
	FrontendURL string
	// SendTimeout bounds each individual email. Zero means 30s.
	SendTimeout time.Duration
	// ResetValidFor is shown in password reset emails.
	ResetValidFor time.Duration
}

// Dispatcher fans out new-post notices on a pool of background workers.
// Enqueueing never blocks the caller: when the queue is full the notice is
// dropped and logged. One failed email never stops the remaining followers
// and nothing is retried.
type Dispatcher struct {
	mailer    Mailer
	followers FollowerDirectory
	opts      Options

	queue    chan PostCreatedNotice
	stopChan chan struct{}
	wg       sync.WaitGroup

	mu      sync.RWMutex
	started bool
	stopped bool
}

func NewDispatcher(mailer Mailer, followers FollowerDirectory, opts Options) *Dispatcher {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 1
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = 30 * time.Second
	}
	if opts.ResetValidFor <= 0 {
		opts.ResetValidFor = 30 * time.Minute
	}
	return &Dispatcher{
		mailer:    mailer,
		followers: followers,
		opts:      opts,
		queue:     make(chan PostCreatedNotice, opts.QueueSize),
		stopChan:  make(chan struct{}),
	}
}

var _ posts.CreatedNotifier = (*Dispatcher)(nil)

// Start launches the workers. Calling Start more than once has no effect.
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.stopped {
		return
	}
	d.started = true
	log.Printf("[notify] dispatcher starting with %d workers", d.opts.Workers)
	for i := 0; i < d.opts.Workers; i++ {
		d.wg.Add(1)
		go d.worker(i + 1)
	}
}

// Stop refuses new notices, lets the workers drain the queue and waits for
// them until ctx is done.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return nil
	}
	d.stopped = true
	close(d.stopChan)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		log.Println("[notify] dispatcher stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("notify dispatcher did not drain in time: %w", ctx.Err())
	}
}

// NotifyPostCreated queues a fan-out for post.
func (d *Dispatcher) NotifyPostCreated(_ context.Context, post *posts.Post) {
	d.Enqueue(PostCreatedNotice{PostID: post.ID, Title: post.Title, Author: post.Username})
}

// Enqueue queues n without blocking and reports whether it was accepted.
func (d *Dispatcher) Enqueue(n PostCreatedNotice) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		log.Printf("[notify] dispatcher stopped, dropping notice for post %s", n.PostID)
		return false
	}
	select {
	case d.queue <- n:
		return true
	default:
		log.Printf("[notify] queue full, dropping notice for post %s", n.PostID)
		return false
	}
}

func (d *Dispatcher) worker(id int) {
	defer d.wg.Done()
	for {
		select {
		case n := <-d.queue:
			d.run(n)
		case <-d.stopChan:
			// Drain what was accepted before Stop.
			for {
				select {
				case n := <-d.queue:
					d.run(n)
				default:
					log.Printf("[notify] worker %d exiting", id)
					return
				}
			}
		}
	}
}

func (d *Dispatcher) run(n PostCreatedNotice) {
	rep, err := d.Dispatch(context.Background(), n)
	if err != nil {
		log.Printf("[notify] post %s: %v", n.PostID, err)
		return
	}
	if rep.Attempted > 0 {
		log.Printf("[notify] batch %s post %s: %d attempted, %d failed",
			rep.BatchID, n.PostID, rep.Attempted, rep.Failed)
	}
}

// Dispatch sends one email per follower of n.Author and reports how many were
// attempted and how many failed. The only error returned is a failure to list
// the followers or render the email.
func (d *Dispatcher) Dispatch(ctx context.Context, n PostCreatedNotice) (Report, error) {
	rep := Report{BatchID: uuid.NewString()}

	emails, err := d.followers.FollowerEmails(ctx, n.Author)
	if err != nil {
		return rep, fmt.Errorf("failed to list followers of %s: %w", n.Author, err)
	}
	if len(emails) == 0 {
		return rep, nil
	}

	body, err := render("new_post.html", NewPostEmail{
		Author: n.Author,
		Title:  n.Title,
		Link:   fmt.Sprintf("%s/login?redirect=/blogs/posts/%s", d.opts.FrontendURL, n.PostID),
	})
	if err != nil {
		return rep, err
	}
	subject := newPostSubject(n.Author)

	for _, to := range emails {
		rep.Attempted++
		sendCtx, cancel := context.WithTimeout(ctx, d.opts.SendTimeout)
		err := d.mailer.Send(sendCtx, to, subject, body)
		cancel()
		if err != nil {
			rep.Failed++
			log.Printf("[notify] batch %s: failed to email %s: %v", rep.BatchID, to, err)
		}
	}
	return rep, nil
}

// SendPasswordReset emails a reset link synchronously.
func (d *Dispatcher) SendPasswordReset(ctx context.Context, email, username, link string) error {
	body, err := render("password_reset.html", PasswordResetEmail{
		Username: username,
		Link:     link,
		ValidFor: humanDuration(d.opts.ResetValidFor),
	})
	if err != nil {
		return err
	}
	sendCtx, cancel := context.WithTimeout(ctx, d.opts.SendTimeout)
	defer cancel()
	return d.mailer.Send(sendCtx, email, "Password Reset Request", body)
}

func humanDuration(dur time.Duration) string {
	if dur%time.Hour == 0 {
		h := int(dur / time.Hour)
		if h == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", h)
	}
	m := int(dur / time.Minute)
	if m == 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", m)
}
