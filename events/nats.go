// Package events publishes post domain events to NATS for downstream consumers
// such as search indexers and analytics.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/user/bloghub-go/posts"
)

const (
	SubjectPostCreated = "post.created"
	SubjectPostToggled = "post.toggled"
	SubjectPostDeleted = "post.deleted"
)

// PostCreatedEvent is published after a post is stored.
type PostCreatedEvent struct {
	PostID     string   `json:"post_id"`
	Title      string   `json:"title"`
	Category   string   `json:"category"`
	Tags       []string `json:"tags"`
	Visibility string   `json:"visibility"`
	AuthorName string   `json:"author_name"`
	Timestamp  string   `json:"timestamp"`
}

// PostToggledEvent is published after a like or save flips.
type PostToggledEvent struct {
	PostID     string `json:"post_id"`
	Username   string `json:"username"`
	Kind       string `json:"kind"`
	Active     bool   `json:"active"`
	LikesCount int    `json:"likes_count"`
	Timestamp  string `json:"timestamp"`
}

// PostDeletedEvent is published after a post is removed.
type PostDeletedEvent struct {
	PostID     string `json:"post_id"`
	AuthorName string `json:"author_name"`
	Timestamp  string `json:"timestamp"`
}

// Conn is the subset of *nats.Conn the publisher uses.
type Conn interface {
	Publish(subject string, data []byte) error
}

// Connect dials NATS with reconnects enabled.
func Connect(url string) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("bloghub"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Printf("[events] NATS disconnected: %v", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("[events] NATS reconnected to %s", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}
	log.Printf("[events] NATS connected at %s", url)
	return nc, nil
}

// Publisher implements posts.Events on top of a NATS connection.
type Publisher struct {
	conn Conn
	now  func() time.Time
}

func NewPublisher(conn Conn) *Publisher {
	return &Publisher{conn: conn, now: time.Now}
}

var _ posts.Events = (*Publisher)(nil)

func (p *Publisher) PostCreated(_ context.Context, post *posts.Post) error {
	return p.publish(SubjectPostCreated, PostCreatedEvent{
		PostID:     post.ID,
		Title:      post.Title,
		Category:   string(post.Category),
		Tags:       post.Tags,
		Visibility: string(post.Visibility),
		AuthorName: post.Username,
		Timestamp:  post.CreatedAt.UTC().Format(time.RFC3339),
	})
}

func (p *Publisher) PostToggled(_ context.Context, post *posts.Post, viewer string, kind posts.ToggleKind, active bool) error {
	return p.publish(SubjectPostToggled, PostToggledEvent{
		PostID:     post.ID,
		Username:   viewer,
		Kind:       kind.String(),
		Active:     active,
		LikesCount: post.LikesCount,
		Timestamp:  p.now().UTC().Format(time.RFC3339),
	})
}

func (p *Publisher) PostDeleted(_ context.Context, post *posts.Post) error {
	return p.publish(SubjectPostDeleted, PostDeletedEvent{
		PostID:     post.ID,
		AuthorName: post.Username,
		Timestamp:  p.now().UTC().Format(time.RFC3339),
	})
}

func (p *Publisher) publish(subject string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", subject, err)
	}
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish %s: %w", subject, err)
	}
	return nil
}
