package address

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Address
		wantErr error
	}{
		{name: "simple", in: "0*example.com", want: Address{ID: "0", Domain: "example.com"}},
		{name: "dashes and digits", in: "12345*mail-1.example.org", want: Address{ID: "12345", Domain: "mail-1.example.org"}},
		{name: "no separator", in: "0example.com", wantErr: ErrMalformed},
		{name: "two separators", in: "0*a*example.com", wantErr: ErrMalformed},
		{name: "empty", in: "", wantErr: ErrMalformed},
		{name: "non numeric id", in: "a1*example.com", wantErr: ErrInvalidID},
		{name: "empty id", in: "*example.com", wantErr: ErrInvalidID},
		{name: "signed id", in: "-1*example.com", wantErr: ErrInvalidID},
		{name: "empty domain", in: "1*", wantErr: ErrInvalidDomain},
		{name: "domain with path", in: "1*example.com/x", wantErr: ErrInvalidDomain},
		{name: "domain with port", in: "1*example.com:443", wantErr: ErrInvalidDomain},
		{name: "domain with space", in: "1*exa mple.com", wantErr: ErrInvalidDomain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.in, got.String())
		})
	}
}

func TestNew(t *testing.T) {
	a, err := New("7", "example.com")
	require.NoError(t, err)
	assert.Equal(t, "7*example.com", a.String())

	_, err = New("x", "example.com")
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestIsNumeric(t *testing.T) {
	assert.True(t, IsNumeric("000123"))
	assert.False(t, IsNumeric(""))
	assert.False(t, IsNumeric("12 3"))
	assert.False(t, IsNumeric("١٢٣"))
}

func TestIsHex(t *testing.T) {
	assert.True(t, IsHex("00ff", 2))
	assert.True(t, IsHex("00ff", 0))
	assert.False(t, IsHex("00ff", 3))
	assert.False(t, IsHex("00FF", 2))
	assert.False(t, IsHex("0f0", 0))
	assert.False(t, IsHex("", 0))
}
