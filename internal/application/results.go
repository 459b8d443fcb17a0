package application

import (
	"encoding/json"

	"github.com/thedoctorjtd/lemmy-migrate/internal/domain"
)

// RunOptions selects the sync direction and an optional pre-loaded source
// set (backup-driven sync). UpdateMain and Override are mutually
// exclusive; the CLI enforces that before the runner is reached.
type RunOptions struct {
	UpdateMain bool
	Override   *domain.SubscriptionSet
}

// PairResult is the outcome of one directed sync between two accounts.
// Skipped means the secondary could not be logged in (or had unusable
// credentials) and the pair was never synced; Err carries the cause.
type PairResult struct {
	Source      string
	Destination string
	Report      Report
	Err         error
	Skipped     bool
}

// pairResultJSON mirrors PairResult with the error flattened to text so
// the --json output stays readable.
type pairResultJSON struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
	Report      Report `json:"report"`
	Error       string `json:"error,omitempty"`
	Skipped     bool   `json:"skipped,omitempty"`
}

func (p PairResult) MarshalJSON() ([]byte, error) {
	out := pairResultJSON{
		Source:      p.Source,
		Destination: p.Destination,
		Report:      p.Report,
		Skipped:     p.Skipped,
	}
	if p.Err != nil {
		out.Error = p.Err.Error()
	}

	return json.Marshal(out)
}

// RunResult collects the per-pair outcomes of one invocation, in the
// order the accounts were processed.
type RunResult struct {
	Pairs []PairResult `json:"pairs"`
}

// Skipped counts the pairs that never synced because of account-level
// failures.
func (r RunResult) Skipped() int {
	count := 0
	for _, pair := range r.Pairs {
		if pair.Skipped {
			count++
		}
	}

	return count
}
