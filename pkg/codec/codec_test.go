package codec

import (
	"testing"

	"github.com/ovl-network/ido-engine/common/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterReaderRoundTrip(t *testing.T) {
	w := NewWriter()
	w.WriteU8(7)
	w.WriteU16(65534)
	w.WriteU32(1 << 30)
	w.WriteU64(1 << 60)
	w.WriteBool(true)
	w.WriteBool(false)
	w.WriteBytes([]byte{1, 2, 3})
	w.WriteFixedBytes([]byte{9, 9})
	w.WriteString("userDeposit")

	r := NewReader(w.Bytes())
	u8, err := r.ReadU8()
	require.NoError(t, err)
	assert.Equal(t, uint8(7), u8)
	u16, err := r.ReadU16()
	require.NoError(t, err)
	assert.Equal(t, uint16(65534), u16)
	u32, err := r.ReadU32()
	require.NoError(t, err)
	assert.Equal(t, uint32(1<<30), u32)
	u64, err := r.ReadU64()
	require.NoError(t, err)
	assert.Equal(t, uint64(1<<60), u64)
	b, err := r.ReadBool()
	require.NoError(t, err)
	assert.True(t, b)
	b, err = r.ReadBool()
	require.NoError(t, err)
	assert.False(t, b)
	raw, err := r.ReadBytes()
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, raw)
	fixed, err := r.ReadFixedBytes(2)
	require.NoError(t, err)
	assert.Equal(t, []byte{9, 9}, fixed)
	str, err := r.ReadString()
	require.NoError(t, err)
	assert.Equal(t, "userDeposit", str)
	assert.NoError(t, r.ExpectEOF())
}

func TestReaderTruncated(t *testing.T) {
	r := NewReader([]byte{1, 2})
	_, err := r.ReadU32()
	assert.ErrorIs(t, err, errs.ParseError)

	r = NewReader([]byte{5, 0, 0, 0, 1, 2})
	_, err = r.ReadBytes()
	assert.ErrorIs(t, err, errs.ParseError)

	r = NewReader([]byte{1})
	_, err = r.ReadFixedBytes(32)
	assert.ErrorIs(t, err, errs.ParseError)
}

func TestReaderInvalidBool(t *testing.T) {
	r := NewReader([]byte{2})
	_, err := r.ReadBool()
	assert.ErrorIs(t, err, errs.ParseError)
}

func TestReaderOversizedCollection(t *testing.T) {
	w := NewWriter()
	w.WriteU32(maxCollectionLen + 1)
	r := NewReader(w.Bytes())
	_, err := r.ReadBytes()
	assert.ErrorIs(t, err, errs.ParseError)
}

func TestExpectEOFTrailingGarbage(t *testing.T) {
	w := NewWriter()
	w.WriteU8(1)
	w.WriteU8(2)
	r := NewReader(w.Bytes())
	_, err := r.ReadU8()
	require.NoError(t, err)
	assert.ErrorIs(t, r.ExpectEOF(), errs.ParseError)
}
