package sale

import (
	"github.com/cockroachdb/errors"
	"github.com/ovl-network/ido-engine/core/types"
)

// SalePhase opens a priority tier at a timestamp. Phases are kept sorted by
// OpenAt; several phases may carry the same tier.
type SalePhase struct {
	OpenAt types.Timestamp `json:"openAt"`
	Tier   Tier            `json:"tier"`
}

// VestingTranche unlocks a percentage of the total allocation at
// vestingStart + Duration. Percentages across a schedule sum to exactly 100.
type VestingTranche struct {
	Duration types.Duration   `json:"duration"`
	Percent  types.Percentage `json:"percent"`
}

// SaleSchedule is the time model of the sale: deposit phases, the close
// timestamp, and the vesting unlock plan. VestingStart is the only field
// mutated after construction, and only once.
type SaleSchedule struct {
	OpenAt        []SalePhase      `json:"openAt"`
	CloseAt       types.Timestamp  `json:"closeAt"`
	VestingStart  *types.Timestamp `json:"vestingStart,omitempty"`
	VestingPeriod []VestingTranche `json:"vestingPeriod"`
}

// NewSaleSchedule validates the full ordering invariant set: phases must be
// non-empty and strictly increasing, strictly in the future, strictly before
// closeAt, and vesting percentages must sum to exactly 100. Fails closed.
func NewSaleSchedule(now types.Timestamp, openAt []SalePhase, closeAt types.Timestamp, vestingPeriod []VestingTranche) (*SaleSchedule, error) {
	if len(openAt) == 0 {
		return nil, errors.Wrap(ErrInvalidSchedule, "no sale phases")
	}
	if now >= openAt[0].OpenAt {
		return nil, errors.Wrap(ErrInvalidSchedule, "first phase must be strictly in the future")
	}
	for i := range openAt {
		if !openAt[i].Tier.IsValid() {
			return nil, errors.Wrapf(ErrInvalidSchedule, "phase %d carries invalid tier", i)
		}
		if i > 0 && openAt[i-1].OpenAt >= openAt[i].OpenAt {
			return nil, errors.Wrap(ErrInvalidSchedule, "phases must be strictly increasing")
		}
	}
	if openAt[len(openAt)-1].OpenAt >= closeAt {
		return nil, errors.Wrap(ErrInvalidSchedule, "last phase must be strictly before close")
	}

	if len(vestingPeriod) == 0 {
		return nil, errors.Wrap(ErrInvalidSchedule, "no vesting tranches")
	}
	var percentSum uint32
	for i := range vestingPeriod {
		if i > 0 && vestingPeriod[i-1].Duration >= vestingPeriod[i].Duration {
			return nil, errors.Wrap(ErrInvalidSchedule, "vesting tranches must be strictly increasing")
		}
		percentSum += uint32(vestingPeriod[i].Percent)
	}
	if percentSum != 100 {
		return nil, errors.Wrapf(ErrInvalidSchedule, "vesting percentages sum to %d, expected 100", percentSum)
	}

	return &SaleSchedule{
		OpenAt:        openAt,
		CloseAt:       closeAt,
		VestingPeriod: vestingPeriod,
	}, nil
}

func (s *SaleSchedule) IsOnSale(now types.Timestamp) bool {
	return now >= s.OpenAt[0].OpenAt && now < s.CloseAt
}

func (s *SaleSchedule) IsSaleClosed(now types.Timestamp) bool {
	return now >= s.CloseAt
}

// CheckSalePriority returns the tier of the phase active at `now`. Phases are
// walked in ascending order with distinct-tier coalescing: a timestamp whose
// tier equals the one already tracked does not start a new phase, so several
// timestamps may share one tier.
func (s *SaleSchedule) CheckSalePriority(now types.Timestamp) (Tier, bool) {
	if !s.IsOnSale(now) {
		return 0, false
	}
	var (
		current Tier
		found   bool
	)
	for _, phase := range s.OpenAt {
		if found && phase.Tier == current {
			continue
		}
		if phase.OpenAt > now {
			break
		}
		current = phase.Tier
		found = true
	}
	return current, found
}

// SetVestingStart records the TGE timestamp. Setting it twice is an error.
func (s *SaleSchedule) SetVestingStart(start types.Timestamp) error {
	if s.VestingStart != nil {
		return errors.Wrap(ErrAlreadySet, "vesting start")
	}
	s.VestingStart = &start
	return nil
}
