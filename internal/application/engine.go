package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/thedoctorjtd/lemmy-migrate/internal/domain"
	"github.com/thedoctorjtd/lemmy-migrate/internal/ports"
)

// Report summarizes one directed sync between two accounts.
type Report struct {
	Source      int                   `json:"source"`
	Destination int                   `json:"destination"`
	Missing     []domain.CommunityRef `json:"missing"`
}

// Deficit is the number of communities the destination lacked before the
// subscribe pass.
func (r Report) Deficit() int {
	return len(r.Missing)
}

// Engine computes the subscription deficit between two accounts and
// subscribes the destination to what it lacks. It is direction-agnostic:
// which side is the main account is the caller's policy.
type Engine struct {
	logger *slog.Logger
}

func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}

	return &Engine{logger: logger}
}

// Sync brings destination up to a superset of the source set. When override
// is non-nil it stands in for the source account's live subscriptions and
// source is never queried (it may be nil).
func (e *Engine) Sync(ctx context.Context, source, destination ports.CommunityService, override *domain.SubscriptionSet) (Report, error) {
	sourceSet := override
	if sourceSet == nil {
		var err error
		sourceSet, err = source.Subscriptions(ctx)
		if err != nil {
			return Report{}, fmt.Errorf("fetch source subscriptions: %w", err)
		}
	}

	destinationSet, err := destination.Subscriptions(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("fetch destination subscriptions: %w", err)
	}

	missing := sourceSet.Difference(destinationSet)
	report := Report{
		Source:      sourceSet.Len(),
		Destination: destinationSet.Len(),
		Missing:     missing.Refs(),
	}

	e.logger.Info("computed subscription deficit",
		"source_count", report.Source,
		"destination_count", report.Destination,
		"missing", missing.Len())

	if missing.Len() == 0 {
		return report, nil
	}

	if err := destination.Subscribe(ctx, report.Missing); err != nil {
		return report, fmt.Errorf("subscribe destination: %w", err)
	}

	return report, nil
}
