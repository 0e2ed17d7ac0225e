package codec

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestFieldRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := rapid.String().Draw(t, "text")
		assert.Equal(t, s, DecodeField(EncodeField(s)))
		assert.Equal(t, s, DecodeBase64Field(EncodeBase64Key(s)))
	})
}

func TestUint64RoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.Uint64().Draw(t, "n")
		got, err := DecodeUint64(EncodeUint64(n))
		require.NoError(t, err)
		assert.Equal(t, n, got)
	})
}

func TestEncodeUint64_StrategiesAgree(t *testing.T) {
	for _, n := range []uint64{0, 1, MaxExactInteger - 1, MaxExactInteger, MaxExactInteger + 1, 1 << 60, math.MaxUint64} {
		assert.Equal(t, encodeSplit(make([]byte, 8), n), EncodeUint64(n), "n=%d", n)
	}
}

func TestEncodeUint64_BigEndian(t *testing.T) {
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0x0f, 0x42, 0x40}, EncodeUint64(1000000))
	assert.Equal(t, []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}, EncodeUint64(math.MaxUint64))
}

func TestDecodeUint64_BadLength(t *testing.T) {
	_, err := DecodeUint64([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrInvalidLength)
}

func TestDecodeField_MalformedIsEmpty(t *testing.T) {
	assert.Equal(t, "", DecodeField([]byte{0xff, 0xfe}))
	assert.Equal(t, "", DecodeBase64Field("%%%not-base64"))
}

func TestParseUint64(t *testing.T) {
	cases := []struct {
		in   any
		want uint64
	}{
		{uint64(7), 7},
		{42, 42},
		{float64(1500000), 1500000},
		{json.Number("18446744073709551615"), math.MaxUint64},
		{" 12 ", 12},
	}
	for _, c := range cases {
		got, err := ParseUint64(c.in)
		require.NoError(t, err, "in=%v", c.in)
		assert.Equal(t, c.want, got)
	}
}

func TestParseUint64_Rejects(t *testing.T) {
	for _, in := range []any{-1, float64(-3), 1.5, math.NaN(), math.Inf(1), "abc", "", "-4", nil, float64(1 << 60), true} {
		_, err := ParseUint64(in)
		assert.ErrorIs(t, err, ErrInvalidNumber, "in=%v", in)
	}
}

func TestFormatMicroAlgos(t *testing.T) {
	assert.Equal(t, "0.000000", FormatMicroAlgos(0))
	assert.Equal(t, "1.500000", FormatMicroAlgos(1_500_000))
	assert.Equal(t, "0.000001", FormatMicroAlgos(1))
	assert.Equal(t, "18446744073709.551615", FormatMicroAlgos(math.MaxUint64))
}
