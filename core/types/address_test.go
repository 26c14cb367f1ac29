package types

import (
	"encoding/json"
	"testing"

	"github.com/ovl-network/ido-engine/common/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountAddressStringRoundTrip(t *testing.T) {
	var addr AccountAddress
	for i := range addr {
		addr[i] = byte(i + 1)
	}
	parsed, err := NewAccountAddressFromString(addr.String())
	require.NoError(t, err)
	assert.Equal(t, addr, parsed)
}

func TestNewAccountAddressFromStringInvalid(t *testing.T) {
	_, err := NewAccountAddressFromString("0OIl")
	assert.ErrorIs(t, err, ErrInvalidAddressFormat)

	// Valid base58 but wrong decoded length.
	_, err = NewAccountAddressFromString("abc")
	assert.ErrorIs(t, err, ErrInvalidAddressLength)
}

func TestAccountAddressJSON(t *testing.T) {
	var addr AccountAddress
	addr[0] = 42
	data, err := json.Marshal(addr)
	require.NoError(t, err)

	var decoded AccountAddress
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, addr, decoded)
}

func TestAddressUnion(t *testing.T) {
	var account AccountAddress
	account[0] = 1
	contract := ContractAddress{Index: 3, Subindex: 0}

	a := NewAccountAddress(account)
	assert.True(t, a.IsAccount())
	assert.False(t, a.IsContract())

	b := NewContractAddress(contract)
	assert.True(t, b.IsContract())
	assert.Equal(t, "<3,0>", b.String())

	assert.False(t, a.Equal(b))
	assert.True(t, a.Equal(NewAccountAddress(account)))
}

func TestReceiverResolve(t *testing.T) {
	var account AccountAddress
	account[0] = 1

	call, err := NewAccountReceiver(account).Resolve()
	require.NoError(t, err)
	require.NotNil(t, call.ToAccount)
	assert.Equal(t, account, *call.ToAccount)
	assert.Nil(t, call.ToContract)

	contract := ContractAddress{Index: 7}
	call, err = NewContractReceiver(contract, "onReceivingCIS2").Resolve()
	require.NoError(t, err)
	require.NotNil(t, call.ToContract)
	assert.Equal(t, contract, *call.ToContract)
	assert.Equal(t, "onReceivingCIS2", call.Entrypoint)

	// Contract receivers must name an entrypoint.
	_, err = Receiver{Address: NewContractAddress(contract)}.Resolve()
	assert.ErrorIs(t, err, errs.InvalidArgument)
}
