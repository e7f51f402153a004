// Package reddit submits replies to platform items.
package reddit

import (
	"context"
	"errors"
	"log/slog"
)

var (
	ErrRateLimited = errors.New("reply rate limited")
	ErrReplyFailed = errors.New("reply failed")
)

// Poster submits a reply to the item with the given fullname.
type Poster interface {
	PostReply(ctx context.Context, itemID, text string) error
}

// DryRunPoster logs replies instead of submitting them.
type DryRunPoster struct{}

func (DryRunPoster) PostReply(ctx context.Context, itemID, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	slog.Info("Dry run reply", "item_id", itemID, "text", text)
	return nil
}
