// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"errors"

	"github.com/luckcash/luckcash-server/internal/domain/profile"
	"github.com/luckcash/luckcash-server/internal/domain/shared"
	"github.com/luckcash/luckcash-server/pkg/retry"
)

// casAttempts is how many times a command replays on a version conflict.
// Conflicts are rare (a user racing their own requests), so a small
// budget is enough.
const casAttempts = 3

// withProfileCAS runs fn against the freshest copy of a profile and
// retries the whole computation when the optimistic-lock write loses.
// fn must call repo.Update(ctx, p) before any dependent writes and
// propagate its error unchanged.
func withProfileCAS(ctx context.Context, repo profile.Repository, profileID string, fn func(ctx context.Context, p *profile.Profile) error) error {
	return retry.Do(ctx, func(ctx context.Context) error {
		p, err := repo.GetByID(ctx, profileID)
		if err != nil {
			return retry.Permanent(err)
		}

		err = fn(ctx, p)
		if err != nil && !errors.Is(err, shared.ErrOptimisticLock) {
			return retry.Permanent(err)
		}
		return err
	},
		retry.WithMaxAttempts(casAttempts),
		retry.WithRetryIf(func(err error) bool {
			return errors.Is(err, shared.ErrOptimisticLock)
		}),
	)
}

// publishAll publishes events, ignoring individual failures: команды не
// должны падать из-за недоставленного события.
func publishAll(publisher shared.EventPublisher, events ...shared.Event) {
	if publisher == nil {
		return
	}
	for _, event := range events {
		if event == nil {
			continue
		}
		_ = publisher.Publish(event)
	}
}
