package sale

import (
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/ovl-network/ido-engine/common/errs"
)

// Tier is the priority class a participant deposits under. Lower value means
// earlier access: TOP opens first, SECOND next, ANY last.
type Tier uint8

const (
	TierTop Tier = iota
	TierSecond
	TierAny
)

var tierNames = map[Tier]string{
	TierTop:    "TOP",
	TierSecond: "SECOND",
	TierAny:    "ANY",
}

var tierValues = map[string]Tier{
	"TOP":    TierTop,
	"SECOND": TierSecond,
	"ANY":    TierAny,
}

func NewTierFromString(str string) (Tier, error) {
	tier, ok := tierValues[str]
	if !ok {
		return 0, errors.Wrapf(errs.InvalidArgument, "unknown tier %q", str)
	}
	return tier, nil
}

func (t Tier) IsValid() bool {
	_, ok := tierNames[t]
	return ok
}

// AllowsPhase reports whether a participant of this tier may deposit while a
// phase of tier `phase` is the active one. Higher-priority participants stay
// eligible once their own phase has opened.
func (t Tier) AllowsPhase(phase Tier) bool {
	return t <= phase
}

func (t Tier) String() string {
	name, ok := tierNames[t]
	if !ok {
		return "UNKNOWN"
	}
	return name
}

func (t Tier) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *Tier) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return errors.WithStack(err)
	}
	tier, err := NewTierFromString(str)
	if err != nil {
		return err
	}
	*t = tier
	return nil
}
