package ports

import (
	"context"

	"github.com/thedoctorjtd/lemmy-migrate/internal/domain"
)

// CommunityService is the slice of a platform client the sync engine
// needs: enumerate what an account follows, and follow more.
type CommunityService interface {
	Subscriptions(ctx context.Context) (*domain.SubscriptionSet, error)
	Subscribe(ctx context.Context, refs []domain.CommunityRef) error
}

// AccountClient is a CommunityService bound to one account that still has
// to authenticate before use. Comments is not part of the sync path; it
// rounds out the client surface for the inspection command.
type AccountClient interface {
	CommunityService
	Login(ctx context.Context, user, password string) error
	Comments(ctx context.Context, postID domain.PostID, maxDepth, limit int) ([]domain.Comment, error)
}
