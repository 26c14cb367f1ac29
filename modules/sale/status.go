package sale

import (
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/ovl-network/ido-engine/common/errs"
)

// SaleStatus is the lifecycle phase of the sale contract.
//
//	Prepare --whitelisting(ready)--> Ready --setFixed--> Fixed | Suspend
//
// Fixed is the only status from which claims succeed. No transition leaves
// Fixed or Suspend.
type SaleStatus uint8

const (
	StatusPrepare SaleStatus = iota
	StatusReady
	StatusFixed
	StatusSuspend
)

var statusNames = map[SaleStatus]string{
	StatusPrepare: "Prepare",
	StatusReady:   "Ready",
	StatusFixed:   "Fixed",
	StatusSuspend: "Suspend",
}

var statusValues = map[string]SaleStatus{
	"Prepare": StatusPrepare,
	"Ready":   StatusReady,
	"Fixed":   StatusFixed,
	"Suspend": StatusSuspend,
}

func NewSaleStatusFromString(str string) (SaleStatus, error) {
	status, ok := statusValues[str]
	if !ok {
		return 0, errors.Wrapf(errs.InvalidArgument, "unknown sale status %q", str)
	}
	return status, nil
}

func (s SaleStatus) IsValid() bool {
	_, ok := statusNames[s]
	return ok
}

func (s SaleStatus) String() string {
	name, ok := statusNames[s]
	if !ok {
		return "UNKNOWN"
	}
	return name
}

func (s SaleStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *SaleStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return errors.WithStack(err)
	}
	status, err := NewSaleStatusFromString(str)
	if err != nil {
		return err
	}
	*s = status
	return nil
}
