package sale

import (
	"testing"

	"github.com/ovl-network/ido-engine/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPhases() []SalePhase {
	return []SalePhase{
		{OpenAt: 10, Tier: TierTop},
		{OpenAt: 20, Tier: TierSecond},
		{OpenAt: 25, Tier: TierAny},
	}
}

func testVesting() []VestingTranche {
	return []VestingTranche{
		{Duration: 10, Percent: 25},
		{Duration: 20, Percent: 75},
	}
}

func TestNewSaleSchedule(t *testing.T) {
	schedule, err := NewSaleSchedule(0, testPhases(), 30, testVesting())
	require.NoError(t, err)
	assert.Equal(t, types.Timestamp(30), schedule.CloseAt)
	assert.Nil(t, schedule.VestingStart)
}

func TestNewSaleScheduleRejectsBadInput(t *testing.T) {
	cases := []struct {
		name    string
		now     types.Timestamp
		phases  []SalePhase
		closeAt types.Timestamp
		vesting []VestingTranche
	}{
		{"no phases", 0, nil, 30, testVesting()},
		{"first phase in the past", 10, testPhases(), 30, testVesting()},
		{"first phase exactly now", 10, []SalePhase{{OpenAt: 10, Tier: TierTop}}, 30, testVesting()},
		{"phases not increasing", 0, []SalePhase{{OpenAt: 10, Tier: TierTop}, {OpenAt: 10, Tier: TierAny}}, 30, testVesting()},
		{"invalid tier", 0, []SalePhase{{OpenAt: 10, Tier: Tier(9)}}, 30, testVesting()},
		{"last phase at close", 0, testPhases(), 25, testVesting()},
		{"no tranches", 0, testPhases(), 30, nil},
		{"tranches not increasing", 0, testPhases(), 30, []VestingTranche{{Duration: 10, Percent: 50}, {Duration: 10, Percent: 50}}},
		{"percent sum below 100", 0, testPhases(), 30, []VestingTranche{{Duration: 10, Percent: 99}}},
		{"percent sum above 100", 0, testPhases(), 30, []VestingTranche{{Duration: 10, Percent: 60}, {Duration: 20, Percent: 60}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewSaleSchedule(tc.now, tc.phases, tc.closeAt, tc.vesting)
			assert.ErrorIs(t, err, ErrInvalidSchedule)
		})
	}
}

func TestSaleWindow(t *testing.T) {
	schedule, err := NewSaleSchedule(0, testPhases(), 30, testVesting())
	require.NoError(t, err)

	assert.False(t, schedule.IsOnSale(9))
	assert.True(t, schedule.IsOnSale(10))
	assert.True(t, schedule.IsOnSale(29))
	assert.False(t, schedule.IsOnSale(30))

	assert.False(t, schedule.IsSaleClosed(29))
	assert.True(t, schedule.IsSaleClosed(30))
}

func TestCheckSalePriority(t *testing.T) {
	schedule, err := NewSaleSchedule(0, testPhases(), 30, testVesting())
	require.NoError(t, err)

	_, ok := schedule.CheckSalePriority(9)
	assert.False(t, ok)

	tier, ok := schedule.CheckSalePriority(10)
	require.True(t, ok)
	assert.Equal(t, TierTop, tier)

	tier, ok = schedule.CheckSalePriority(19)
	require.True(t, ok)
	assert.Equal(t, TierTop, tier)

	tier, ok = schedule.CheckSalePriority(20)
	require.True(t, ok)
	assert.Equal(t, TierSecond, tier)

	tier, ok = schedule.CheckSalePriority(25)
	require.True(t, ok)
	assert.Equal(t, TierAny, tier)

	_, ok = schedule.CheckSalePriority(30)
	assert.False(t, ok)
}

func TestCheckSalePriorityCoalescesRepeatedTiers(t *testing.T) {
	phases := []SalePhase{
		{OpenAt: 10, Tier: TierTop},
		{OpenAt: 15, Tier: TierTop},
		{OpenAt: 20, Tier: TierAny},
	}
	schedule, err := NewSaleSchedule(0, phases, 30, testVesting())
	require.NoError(t, err)

	// The second TOP timestamp does not start a new phase.
	tier, ok := schedule.CheckSalePriority(17)
	require.True(t, ok)
	assert.Equal(t, TierTop, tier)

	tier, ok = schedule.CheckSalePriority(20)
	require.True(t, ok)
	assert.Equal(t, TierAny, tier)
}

func TestSetVestingStartOnce(t *testing.T) {
	schedule, err := NewSaleSchedule(0, testPhases(), 30, testVesting())
	require.NoError(t, err)

	require.NoError(t, schedule.SetVestingStart(40))
	require.NotNil(t, schedule.VestingStart)
	assert.Equal(t, types.Timestamp(40), *schedule.VestingStart)

	assert.ErrorIs(t, schedule.SetVestingStart(50), ErrAlreadySet)
}

func TestTierAllowsPhase(t *testing.T) {
	assert.True(t, TierTop.AllowsPhase(TierTop))
	assert.True(t, TierTop.AllowsPhase(TierAny))
	assert.False(t, TierSecond.AllowsPhase(TierTop))
	assert.True(t, TierSecond.AllowsPhase(TierSecond))
	assert.False(t, TierAny.AllowsPhase(TierSecond))
	assert.True(t, TierAny.AllowsPhase(TierAny))
}
