package coerce

import (
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sieve/internal/errors"
	"github.com/roach88/sieve/internal/sample"
	"github.com/roach88/sieve/internal/testutil"
)

type label string

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

func TestTo_Success(t *testing.T) {
	id := uuid.MustParse("6f1c2a8e-1b7d-4c1e-9a53-0b1f3c2d4e5f")
	when := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		raw    any
		target reflect.Type
		want   any
	}{
		{"same type", 42, typeOf[int](), 42},
		{"pointer raw", testutil.Ptr(42), typeOf[int](), 42},
		{"pointer target", "42", typeOf[*int](), 42},
		{"text to int", "42", typeOf[int](), 42},
		{"text to int with spaces", " -7 ", typeOf[int](), -7},
		{"text to int8", "127", typeOf[int8](), int8(127)},
		{"text to uint16", "65535", typeOf[uint16](), uint16(65535)},
		{"text to float", "92.5", typeOf[float64](), 92.5},
		{"text to float32", "0.5", typeOf[float32](), float32(0.5)},
		{"text to bool", "true", typeOf[bool](), true},
		{"text to bool numeric", "0", typeOf[bool](), false},
		{"text to string", "x", typeOf[string](), "x"},
		{"text to named string", "x", typeOf[label](), label("x")},
		{"text to time", "2024-03-01T12:00:00Z", typeOf[time.Time](), when},
		{"text to date", "2024-03-01", typeOf[time.Time](), time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"text to duration", "90m", typeOf[time.Duration](), 90 * time.Minute},
		{"text to duration days", "1d12h", typeOf[time.Duration](), 36 * time.Hour},
		{"text to duration nanos", "1500", typeOf[time.Duration](), 1500 * time.Nanosecond},
		{"text to decimal", "1250.75", typeOf[decimal.Decimal](), decimal.RequireFromString("1250.75")},
		{"text to uuid", "6f1c2a8e-1b7d-4c1e-9a53-0b1f3c2d4e5f", typeOf[uuid.UUID](), id},
		{"bytes to uuid", id[:], typeOf[uuid.UUID](), id},
		{"array to uuid", [16]byte(id), typeOf[uuid.UUID](), id},
		{"enum by name", "Suspended", typeOf[sample.Status](), sample.StatusSuspended},
		{"enum by ordinal", "3", typeOf[sample.Status](), sample.StatusClosed},
		{"stringer enum by name", "ENTERPRISE", typeOf[sample.Tier](), sample.TierEnterprise},
		{"stringer enum by ordinal", "1", typeOf[sample.Tier](), sample.TierPro},
		{"boxed int to enum", 2, typeOf[sample.Status](), sample.StatusSuspended},
		{"int to float", 3, typeOf[float64](), 3.0},
		{"float to int", 3.0, typeOf[int](), 3},
		{"int to int64", 3, typeOf[int64](), int64(3)},
		{"int64 to uint8", int64(200), typeOf[uint8](), uint8(200)},
		{"int to string", 5, typeOf[string](), "5"},
		{"bool to int", true, typeOf[int](), 1},
		{"bytes to string", []byte("hi"), typeOf[string](), "hi"},
		{"int to decimal", 5, typeOf[decimal.Decimal](), decimal.NewFromInt(5)},
		{"float to decimal", 0.25, typeOf[decimal.Decimal](), decimal.NewFromFloat(0.25)},
		{"int to duration", int64(1000), typeOf[time.Duration](), time.Microsecond},
		{"value to interface", 5, typeOf[any](), 5},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := To(tc.raw, tc.target)
			require.NoError(t, err)
			if want, ok := tc.want.(decimal.Decimal); ok {
				assert.True(t, want.Equal(got.(decimal.Decimal)), "got %v", got)
				return
			}
			if want, ok := tc.want.(time.Time); ok {
				assert.True(t, want.Equal(got.(time.Time)), "got %v", got)
				return
			}
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestTo_Null(t *testing.T) {
	got, err := To(nil, typeOf[int]())
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = To((*int)(nil), typeOf[int]())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestTo_Errors(t *testing.T) {
	tests := []struct {
		name   string
		raw    any
		target reflect.Type
		kind   Kind
	}{
		{"malformed int", "abc", typeOf[int](), KindFormat},
		{"int overflow in text", "128", typeOf[int8](), KindFormat},
		{"negative uint", "-1", typeOf[uint](), KindFormat},
		{"malformed float", "1.2.3", typeOf[float64](), KindFormat},
		{"malformed bool", "maybe", typeOf[bool](), KindFormat},
		{"malformed time", "yesterday", typeOf[time.Time](), KindFormat},
		{"malformed duration", "soon", typeOf[time.Duration](), KindFormat},
		{"malformed decimal", "1,5", typeOf[decimal.Decimal](), KindFormat},
		{"unknown enum name", "deleted", typeOf[sample.Status](), KindFormat},
		{"unknown stringer enum name", "gold", typeOf[sample.Tier](), KindFormat},
		{"malformed 36-char uuid", "zzzzzzzz-zzzz-zzzz-zzzz-zzzzzzzzzzzz", typeOf[uuid.UUID](), KindFormat},
		{"short uuid text", "6f1c2a8e", typeOf[uuid.UUID](), KindInvalidOperation},
		{"braced uuid text", "{6f1c2a8e-1b7d-4c1e-9a53-0b1f3c2d4e5f}", typeOf[uuid.UUID](), KindInvalidOperation},
		{"short uuid bytes", []byte{1, 2, 3}, typeOf[uuid.UUID](), KindInvalidOperation},
		{"int to uuid", 5, typeOf[uuid.UUID](), KindInvalidOperation},
		{"nil target", 5, nil, KindInvalidOperation},
		{"text to struct", "x", typeOf[sample.Address](), KindInvalidCast},
		{"text to slice", "x", typeOf[[]string](), KindInvalidCast},
		{"overflow", 300, typeOf[uint8](), KindInvalidCast},
		{"negative to uint", -1, typeOf[uint](), KindInvalidCast},
		{"time to int", time.Now(), typeOf[int](), KindInvalidCast},
		{"struct to bool", sample.Address{}, typeOf[bool](), KindInvalidCast},
		{"value to unrelated interface", 5, typeOf[error](), KindInvalidCast},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := To(tc.raw, tc.target)
			require.Error(t, err)

			var cerr *Error
			require.True(t, errors.As(err, &cerr))
			assert.Equal(t, tc.kind, cerr.Kind)
			assert.True(t, errors.Is(err, tc.kind.sentinel()))
		})
	}
}

func TestError_Is(t *testing.T) {
	err := NewError(KindFormat, "x", typeOf[int](), nil)

	assert.ErrorIs(t, err, ErrFormat)
	assert.NotErrorIs(t, err, ErrInvalidCast)
	assert.NotErrorIs(t, err, ErrInvalidOperation)
	assert.Contains(t, err.Error(), `cannot coerce "x" (string) to int: format`)
}

func TestError_UnwrapsCause(t *testing.T) {
	_, err := To("abc", typeOf[int]())
	require.Error(t, err)

	var cerr *Error
	require.True(t, errors.As(err, &cerr))
	require.Error(t, cerr.Unwrap())
	assert.Contains(t, err.Error(), "invalid syntax")
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "format", KindFormat.String())
	assert.Equal(t, "invalid operation", KindInvalidOperation.String())
	assert.Equal(t, "invalid cast", KindInvalidCast.String())
	assert.Equal(t, "Kind(9)", Kind(9).String())
}

func TestValue(t *testing.T) {
	v, err := Value("7", typeOf[int]())
	require.NoError(t, err)
	assert.Equal(t, int64(7), v.Int())

	v, err = Value(nil, typeOf[int]())
	require.NoError(t, err)
	assert.False(t, v.IsValid())
}

func TestNullable(t *testing.T) {
	assert.False(t, Nullable(typeOf[int]()))
	assert.False(t, Nullable(typeOf[string]()))
	assert.False(t, Nullable(typeOf[time.Time]()))
	assert.True(t, Nullable(typeOf[*int]()))
	assert.True(t, Nullable(typeOf[[]int]()))
	assert.True(t, Nullable(typeOf[map[string]int]()))
	assert.True(t, Nullable(typeOf[any]()))
	assert.True(t, Nullable(nil))
}

func TestText(t *testing.T) {
	id := uuid.MustParse("6f1c2a8e-1b7d-4c1e-9a53-0b1f3c2d4e5f")

	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"string", "abc", "abc"},
		{"named string", label("x"), "x"},
		{"bytes", []byte("b"), "b"},
		{"int", 42, "42"},
		{"negative", int64(-3), "-3"},
		{"float", 92.5, "92.5"},
		{"integral float", 100.0, "100"},
		{"float32", float32(0.1), "0.1"},
		{"bool", true, "true"},
		{"time", time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), "2024-03-01T12:00:00Z"},
		{"duration", 90 * time.Minute, "1h30m0s"},
		{"decimal", decimal.RequireFromString("1.50"), "1.5"},
		{"uuid", id, "6f1c2a8e-1b7d-4c1e-9a53-0b1f3c2d4e5f"},
		{"enum", sample.StatusActive, "active"},
		{"pointer", testutil.Ptr(7), "7"},
		{"nil pointer", (*int)(nil), ""},
		{"struct", struct{ A int }{1}, "{1}"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Text(tc.in))
		})
	}
}
