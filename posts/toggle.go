package posts

import (
	"context"
	"log"
	"slices"

	"github.com/user/bloghub-go/apperror"
)

// Toggle flips viewer's like or save on a post. The post set (and likes_count for
// likes) and the viewer's liked/saved list change in one transaction: if the
// viewer record is missing nothing is written and NotFound is returned.
// Calling Toggle twice restores the original state.
func (s *Service) Toggle(ctx context.Context, postID, viewer string, kind ToggleKind) (*Post, error) {
	if viewer == "" {
		return nil, apperror.NewAuthError("authentication required", nil)
	}
	id, err := ParseID(postID)
	if err != nil {
		return nil, err
	}

	var (
		updated *Post
		active  bool
	)
	err = s.store.InToggleTx(ctx, func(tx ToggleTx) error {
		post, err := tx.LockPost(ctx, id)
		if err != nil {
			return err
		}
		if !post.VisibleTo(viewer) {
			return apperror.NewNotFoundError("post not found", nil)
		}

		active = slices.Contains(post.members(kind), viewer)
		updated, err = tx.SetPostMember(ctx, id, kind, viewer, !active)
		if err != nil {
			return err
		}

		found, err := tx.SetUserRef(ctx, viewer, kind, id, !active)
		if err != nil {
			return err
		}
		if !found {
			return apperror.NewNotFoundError("user not found", nil)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.events.PostToggled(context.WithoutCancel(ctx), updated, viewer, kind, !active); err != nil {
		log.Printf("[posts] publish post.toggled %s: %v", updated.ID, err)
	}
	return updated, nil
}
