// Package memory is the in-memory SaleDataGateway used by the simulated
// chain host. Snapshot/Restore round-trip through JSON so the host can roll
// back failed calls and persist state between scenario steps.
package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"slices"

	"github.com/cockroachdb/errors"
	"github.com/ovl-network/ido-engine/common/errs"
	"github.com/ovl-network/ido-engine/core/types"
	"github.com/ovl-network/ido-engine/modules/sale/datagateway"
	"github.com/ovl-network/ido-engine/modules/sale/internal/entity"
	"github.com/samber/lo"
)

type Repository struct {
	saleState    []byte
	participants map[types.AccountAddress]entity.UserState
}

func NewRepository() *Repository {
	return &Repository{
		participants: make(map[types.AccountAddress]entity.UserState),
	}
}

func (r *Repository) GetSaleState(_ context.Context) ([]byte, error) {
	if r.saleState == nil {
		return nil, errors.Wrap(errs.NotFound, "sale state is not initialized")
	}
	return bytes.Clone(r.saleState), nil
}

func (r *Repository) SaveSaleState(_ context.Context, state []byte) error {
	r.saleState = bytes.Clone(state)
	return nil
}

func (r *Repository) GetParticipant(_ context.Context, address types.AccountAddress) (*entity.UserState, error) {
	state, ok := r.participants[address]
	if !ok {
		return nil, errors.Wrapf(errs.NotFound, "participant %s", address)
	}
	return &state, nil
}

func (r *Repository) PutParticipant(_ context.Context, address types.AccountAddress, state entity.UserState) error {
	r.participants[address] = state
	return nil
}

func (r *Repository) DeleteParticipant(_ context.Context, address types.AccountAddress) error {
	delete(r.participants, address)
	return nil
}

func (r *Repository) ListParticipants(_ context.Context) ([]entity.Participant, error) {
	participants := lo.MapToSlice(r.participants, func(address types.AccountAddress, state entity.UserState) entity.Participant {
		return entity.Participant{Address: address, State: state}
	})
	slices.SortFunc(participants, func(a, b entity.Participant) int {
		return bytes.Compare(a.Address[:], b.Address[:])
	})
	return participants, nil
}

type snapshot struct {
	SaleState    json.RawMessage      `json:"saleState,omitempty"`
	Participants []entity.Participant `json:"participants"`
}

func (r *Repository) Snapshot() ([]byte, error) {
	participants, err := r.ListParticipants(context.Background())
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(snapshot{
		SaleState:    bytes.Clone(r.saleState),
		Participants: participants,
	})
	if err != nil {
		return nil, errors.Wrap(err, "can't marshal sale repository snapshot")
	}
	return data, nil
}

func (r *Repository) Restore(data []byte) error {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return errors.Wrap(err, "can't unmarshal sale repository snapshot")
	}
	r.saleState = bytes.Clone(snap.SaleState)
	r.participants = make(map[types.AccountAddress]entity.UserState, len(snap.Participants))
	for _, participant := range snap.Participants {
		r.participants[participant.Address] = participant.State
	}
	return nil
}

var _ datagateway.SaleDataGateway = (*Repository)(nil)
