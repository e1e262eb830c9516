package events

import (
	"context"
	"errors"

	"github.com/user/bloghub-go/posts"
)

// Multi delivers every event to each of its sinks in order. A failing sink does
// not stop the others; their errors are joined.
type Multi []posts.Events

var _ posts.Events = Multi(nil)

func (m Multi) PostCreated(ctx context.Context, post *posts.Post) error {
	var errs []error
	for _, sink := range m {
		errs = append(errs, sink.PostCreated(ctx, post))
	}
	return errors.Join(errs...)
}

func (m Multi) PostToggled(ctx context.Context, post *posts.Post, viewer string, kind posts.ToggleKind, active bool) error {
	var errs []error
	for _, sink := range m {
		errs = append(errs, sink.PostToggled(ctx, post, viewer, kind, active))
	}
	return errors.Join(errs...)
}

func (m Multi) PostDeleted(ctx context.Context, post *posts.Post) error {
	var errs []error
	for _, sink := range m {
		errs = append(errs, sink.PostDeleted(ctx, post))
	}
	return errors.Join(errs...)
}
