package market

import (
	"fmt"

	"github.com/alanyoungcy/hashpredict/internal/domain"
)

// ValidateSnapshot checks the counter invariants that must hold on every
// fetched prediction snapshot. A violation means the read was torn or the
// adapter decoded the account wrong; callers should discard the snapshot.
func ValidateSnapshot(p domain.Prediction) error {
	if p.TotalVotes != p.YesVotes+p.NoVotes {
		return fmt.Errorf("%w: prediction %d: total_votes %d != yes %d + no %d",
			domain.ErrInvalidSnapshot, p.ID, p.TotalVotes, p.YesVotes, p.NoVotes)
	}
	if p.TotalAmount != p.YesAmount+p.NoAmount {
		return fmt.Errorf("%w: prediction %d: total_amount %d != yes %d + no %d",
			domain.ErrInvalidSnapshot, p.ID, p.TotalAmount, p.YesAmount, p.NoAmount)
	}
	if p.EndTime <= p.StartTime {
		return fmt.Errorf("%w: prediction %d: end_time %d <= start_time %d",
			domain.ErrInvalidSnapshot, p.ID, p.EndTime, p.StartTime)
	}
	if p.State != domain.StateResolved && p.Result != domain.ResultUndefined {
		return fmt.Errorf("%w: prediction %d: result %q set while state %q",
			domain.ErrInvalidSnapshot, p.ID, p.Result, p.State)
	}
	return nil
}
