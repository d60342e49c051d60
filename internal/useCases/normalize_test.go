package useCases

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCommand(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  Segunda Via  ", "segunda via"},
		{"SEGUNDA VÍA", "segunda via"},
		{"código de barras", "codigo de barras"},
		{"Linha  Digitável", "linha digitavel"},
		{"MENU", "menu"},
		{"Olá", "ola"},
		{"apagar   meus    dados", "apagar meus dados"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeCommand(tt.in), "input %q", tt.in)
	}
}
