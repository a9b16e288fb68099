package hash

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSum(t *testing.T) {
	t.Run("is deterministic", func(t *testing.T) {
		require.Equal(t, Sum([]byte("hi"), 80), Sum([]byte("hi"), 80))
	})

	t.Run("differs for different content", func(t *testing.T) {
		require.NotEqual(t, Sum([]byte("hi"), 80), Sum([]byte("ho"), 80))
	})

	t.Run("encodes bits/4 hex characters", func(t *testing.T) {
		require.Len(t, Sum([]byte("hi"), 80), 20)
		require.Len(t, Sum([]byte("hi"), 256), 64)
		require.Len(t, Sum([]byte("hi"), 4), 1)
	})

	t.Run("is lowercase hex", func(t *testing.T) {
		require.Regexp(t, "^[0-9a-f]{20}$", Sum([]byte("hello world"), 80))
	})

	t.Run("truncates the full digest", func(t *testing.T) {
		full := Sum([]byte("hi"), 256)
		require.Equal(t, full[:20], Sum([]byte("hi"), 80))
	})
}

func TestValidBits(t *testing.T) {
	tests := []struct {
		name    string
		bits    int
		wantErr bool
	}{
		{name: "default", bits: 80},
		{name: "full digest", bits: 256},
		{name: "minimal", bits: 4},
		{name: "zero", bits: 0, wantErr: true},
		{name: "negative", bits: -4, wantErr: true},
		{name: "not a multiple of 4", bits: 81, wantErr: true},
		{name: "too large", bits: 260, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidBits(tt.bits)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
