package tcid

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Valid(t *testing.T) {
	tests := []struct {
		in   string
		want ID
	}{
		{"TC-007", ID{Value: "TC-007", Form: FormLong, Prefix: "TC", Number: "007"}},
		{"TC-0", ID{Value: "TC-0", Form: FormLong, Prefix: "TC", Number: "0"}},
		{"TC-TS02-001", ID{Value: "TC-TS02-001", Form: FormLong, Prefix: "TC", Segment: "TS02", Number: "001"}},
		{"TC-TS1-1", ID{Value: "TC-TS1-1", Form: FormLong, Prefix: "TC", Segment: "TS1", Number: "1"}},
		{"C02", ID{Value: "C02", Form: FormShort, Prefix: "C", Number: "02"}},
		{"ABCD123", ID{Value: "ABCD123", Form: FormShort, Prefix: "ABCD", Number: "123"}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.in, got.String())
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		in     string
		reason string
	}{
		{"", "empty identifier"},
		{"tc-001", `identifiers are case-sensitive, did you mean "TC-001"`},
		{" TC-001", "surrounding whitespace is not allowed"},
		{"TC131", "long form needs a hyphen after TC"},
		{"TCA1", "short form prefix may not start with TC"},
		{"TC--001", "empty segment"},
		{"TC-TS-001", "segment must contain at least one digit"},
		{"TC-ABCDEF1-001", "segment longer than 6 characters"},
		{"TC-1-2-3", "too many hyphen-separated fields"},
		{"TC-", "missing numeric field"},
		{"TC-1234", "numeric field must be 1 to 3 digits long"},
		{"C", "missing trailing number"},
		{"C1234", "trailing number must be 1 to 3 digits long"},
		{"ABCDE1", "prefix longer than 4 letters"},
		{"1ABC", "must start with an uppercase letter"},
		{"C1x", `unexpected character 'x'`},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			_, err := Parse(tt.in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalid))

			var invalid *InvalidError
			require.True(t, errors.As(err, &invalid))
			assert.Equal(t, tt.in, invalid.Input)
			assert.Equal(t, tt.reason, invalid.Reason)
		})
	}
}

func TestParse_AgreesWithIsValid(t *testing.T) {
	candidates := []string{"TC-0", "TC-TS1-1", "TC-1A-1", "C02", "TC131", "tc-1", "ABCDE1", "TC-TS-001", "", "TC-12-3"}
	for _, c := range candidates {
		_, err := Parse(c)
		assert.Equal(t, IsValid(c), err == nil, "candidate %q", c)
	}
}

func TestMustParse(t *testing.T) {
	assert.Equal(t, "C1", MustParse("C1").Value)
	assert.Panics(t, func() { MustParse("TC131") })
}

func TestForm_JSON(t *testing.T) {
	data, err := json.Marshal(MustParse("TC-TS02-001"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"value":"TC-TS02-001","form":"long","prefix":"TC","segment":"TS02","number":"001"}`, string(data))

	assert.Equal(t, "short", FormShort.String())
	assert.Equal(t, "unknown", FormUnknown.String())
}

func TestInvalidError_Message(t *testing.T) {
	_, err := Parse("TC-TS-001")
	require.Error(t, err)
	assert.Equal(t, `invalid test case identifier "TC-TS-001": segment must contain at least one digit`, err.Error())
}
