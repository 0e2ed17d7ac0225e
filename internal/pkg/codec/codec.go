package codec

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// MaxExactInteger is the largest integer a float64 (and so a JSON number in most clients)
// holds exactly: 2^53 - 1. EncodeUint64 switches strategy above it.
const MaxExactInteger uint64 = 1<<53 - 1

var (
	ErrInvalidNumber = errors.New("Value must be a non-negative whole number")
	ErrInvalidLength = errors.New("uint64 value must be exactly 8 bytes")
)

// EncodeField returns the UTF-8 bytes of text. Length is not checked here; the chain rejects oversize values.
func EncodeField(text string) []byte {
	return []byte(text)
}

// DecodeField is the inverse of EncodeField. Malformed UTF-8 yields "".
func DecodeField(b []byte) string {
	if !utf8.Valid(b) {
		return ""
	}
	return string(b)
}

// DecodeBase64Field decodes a base64 state value into text. Malformed input yields "".
func DecodeBase64Field(s string) string {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return ""
	}
	return DecodeField(b)
}

// EncodeBase64Key returns the base64 form a state key is reported under by the indexer.
func EncodeBase64Key(name string) string {
	return base64.StdEncoding.EncodeToString(EncodeField(name))
}

// EncodeUint64 writes n as 8 big-endian bytes.
//
// Values up to MaxExactInteger are written as a single 64-bit word. Larger values are split
// into high and low 32-bit halves and written separately. Both paths yield the same bytes.
func EncodeUint64(n uint64) []byte {
	buf := make([]byte, 8)
	if n <= MaxExactInteger {
		binary.BigEndian.PutUint64(buf, n)
		return buf
	}
	return encodeSplit(buf, n)
}

func encodeSplit(buf []byte, n uint64) []byte {
	high := uint32(n >> 32)
	low := uint32(n & math.MaxUint32)
	binary.BigEndian.PutUint32(buf[0:4], high)
	binary.BigEndian.PutUint32(buf[4:8], low)
	return buf
}

// DecodeUint64 reads an 8-byte big-endian unsigned integer.
func DecodeUint64(b []byte) (uint64, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidLength, len(b))
	}
	return binary.BigEndian.Uint64(b), nil
}

// ParseUint64 converts loosely typed input (JSON values, CLI strings) into a uint64.
// Negative, fractional and non-numeric input is rejected with ErrInvalidNumber.
func ParseUint64(v any) (uint64, error) {
	switch x := v.(type) {
	case uint64:
		return x, nil
	case uint:
		return uint64(x), nil
	case uint32:
		return uint64(x), nil
	case int:
		return fromSigned(int64(x))
	case int64:
		return fromSigned(x)
	case int32:
		return fromSigned(int64(x))
	case float64:
		return fromFloat(x)
	case json.Number:
		return parseString(x.String())
	case string:
		return parseString(x)
	case nil:
		return 0, fmt.Errorf("%w: missing", ErrInvalidNumber)
	}
	return 0, fmt.Errorf("%w: unsupported type %T", ErrInvalidNumber, v)
}

func fromSigned(n int64) (uint64, error) {
	if n < 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidNumber, n)
	}
	return uint64(n), nil
}

func fromFloat(f float64) (uint64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f != math.Trunc(f) {
		return 0, fmt.Errorf("%w: %v", ErrInvalidNumber, f)
	}
	if f > float64(MaxExactInteger) {
		return 0, fmt.Errorf("%w: %v is not exactly representable", ErrInvalidNumber, f)
	}
	return uint64(f), nil
}

func parseString(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidNumber)
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNumber, s)
	}
	return n, nil
}
