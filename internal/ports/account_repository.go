package ports

import (
	"context"

	"github.com/thedoctorjtd/lemmy-migrate/internal/domain"
)

type AccountRepository interface {
	List(ctx context.Context) ([]domain.Account, error)
	Main(ctx context.Context) (domain.Account, error)
	Secondaries(ctx context.Context) ([]domain.Account, error)
	Save(ctx context.Context, account domain.Account) error
}
