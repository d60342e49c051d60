package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIdentifier_CPF(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		digits  string
		wantErr bool
	}{
		{name: "formatted", in: "529.982.247-25", digits: "52998224725"},
		{name: "bare digits", in: "52998224725", digits: "52998224725"},
		{name: "spaces around", in: "  529 982 247 25 ", digits: "52998224725"},
		{name: "wrong check digit", in: "529.982.247-26", wantErr: true},
		{name: "all same digits", in: "111.111.111-11", wantErr: true},
		{name: "too short", in: "1234567890", wantErr: true},
		{name: "no digits", in: "quero boleto", wantErr: true},
		{name: "empty", in: "", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			id, err := ParseIdentifier(tc.in)
			if tc.wantErr {
				require.Error(t, err)
				var verr *ValidationError
				assert.ErrorAs(t, err, &verr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.digits, id.Digits)
		})
	}
}

func TestParseIdentifier_CNPJ(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		digits  string
		wantErr bool
	}{
		{name: "formatted", in: "11.222.333/0001-81", digits: "11222333000181"},
		{name: "bare digits", in: "11222333000181", digits: "11222333000181"},
		{name: "wrong check digit", in: "11.222.333/0001-82", wantErr: true},
		{name: "all same digits", in: "11111111111111", wantErr: true},
		{name: "13 digits", in: "1122233300018", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			id, err := ParseIdentifier(tc.in)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.digits, id.Digits)
		})
	}
}

func TestIdentifierHash(t *testing.T) {
	id, err := ParseIdentifier("529.982.247-25")
	require.NoError(t, err)

	h1 := id.Hash("pepper-a")
	h2 := id.Hash("pepper-a")
	h3 := id.Hash("pepper-b")

	assert.Len(t, h1, 64)
	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
	assert.NotContains(t, h1, id.Digits)
}

func TestIdentifierMask(t *testing.T) {
	cpf, err := ParseIdentifier("529.982.247-25")
	require.NoError(t, err)
	assert.Equal(t, "***.982.247-**", cpf.Mask())

	cnpj, err := ParseIdentifier("11.222.333/0001-81")
	require.NoError(t, err)
	assert.Equal(t, "**.222.333/****-**", cnpj.Mask())
}
