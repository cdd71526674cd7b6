package version

import (
	"testing"

	"github.com/rxtech-lab/argo-marketdata/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckCompatibility(t *testing.T) {
	tests := []struct {
		name          string
		writer        string
		reader        string
		expectedCode  errors.ErrorCode
		errorContains string
	}{
		{name: "exact match", writer: "1.2.0", reader: "1.2.0"},
		{name: "reader patch higher", writer: "1.2.0", reader: "1.2.5"},
		{name: "reader patch lower", writer: "1.2.5", reader: "1.2.0"},
		{name: "reader minor higher", writer: "1.2.0", reader: "1.4.0"},
		{name: "v prefix", writer: "v1.2.0", reader: "1.2.3"},
		{name: "writer main", writer: "main", reader: "1.2.0"},
		{name: "reader main", writer: "3.0.0", reader: "main"},
		{
			name:          "reader minor lower",
			writer:        "1.4.0",
			reader:        "1.2.0",
			expectedCode:  errors.ErrCodeVersionMismatch,
			errorContains: "upgrade",
		},
		{
			name:          "major differs",
			writer:        "2.0.0",
			reader:        "1.9.0",
			expectedCode:  errors.ErrCodeVersionMismatch,
			errorContains: "major version mismatch",
		},
		{
			name:          "invalid writer",
			writer:        "not-a-version",
			reader:        "1.0.0",
			expectedCode:  errors.ErrCodeInvalidVersion,
			errorContains: "invalid writer version",
		},
		{
			name:          "invalid reader",
			writer:        "1.0.0",
			reader:        "x.y",
			expectedCode:  errors.ErrCodeInvalidVersion,
			errorContains: "invalid reader version",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckCompatibility(tt.writer, tt.reader)
			if tt.expectedCode == 0 {
				assert.NoError(t, err)

				return
			}

			require.Error(t, err)
			assert.True(t, errors.HasCode(err, tt.expectedCode))
			assert.Contains(t, err.Error(), tt.errorContains)
		})
	}
}

func TestGetVersion(t *testing.T) {
	original := Version
	defer func() { Version = original }()

	Version = "1.5.0"
	assert.Equal(t, "1.5.0", GetVersion())
}
