// Copyright (c) 2026 Twinlook. All rights reserved.
// Author: park.jiho.dev@gmail.com

package textfold_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/parkjiho/twinlook/pkg/textfold"
)

func TestFold(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercase", "JiHo", "jiho"},
		{"accents_stripped", "Zoë Müller", "zoe muller"},
		{"trimmed", "  jiho  ", "jiho"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, textfold.Fold(tt.in))
		})
	}
}

func TestContains(t *testing.T) {
	assert.True(t, textfold.Contains("Zoë Müller", "muller"))
	assert.True(t, textfold.Contains("jiho", "IH"))
	assert.False(t, textfold.Contains("jiho", "park"))
}
