package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCode(t *testing.T) {
	seen := make(map[string]struct{})
	for range 100 {
		code := NewCode()
		parsed, ok := ParseCode(code)
		require.True(t, ok, code)
		assert.Equal(t, code, parsed)
		seen[code] = struct{}{}
	}
	assert.Greater(t, len(seen), 90)
}

func TestParseCode(t *testing.T) {
	tests := []struct {
		value string
		code  string
		ok    bool
	}{
		{"DR-ABC123", "DR-ABC123", true},
		{"  dr-abc123 ", "DR-ABC123", true},
		{"DR-ABC12", "", false},
		{"cardiology", "", false},
		{"DR-ABC1234", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			code, ok := ParseCode(tt.value)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.code, code)
			}
		})
	}
}

func TestDoctor_Lifecycle(t *testing.T) {
	doctor := &Doctor{Status: StatusActive}
	by := uuid.Must(uuid.NewV7())
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.ErrorIs(t, doctor.Reactivate(), ErrDoctorAlreadyActive)

	require.NoError(t, doctor.Deactivate(by, at))
	assert.Equal(t, StatusInactive, doctor.Status)
	require.NotNil(t, doctor.DeactivatedAt)
	assert.Equal(t, at, *doctor.DeactivatedAt)
	assert.Equal(t, by, *doctor.DeactivatedBy)

	assert.ErrorIs(t, doctor.Deactivate(by, at), ErrDoctorAlreadyInactive)

	require.NoError(t, doctor.Reactivate())
	assert.Equal(t, StatusActive, doctor.Status)
	assert.Nil(t, doctor.DeactivatedAt)
	assert.Nil(t, doctor.DeactivatedBy)
}

func TestParseStatusFilter(t *testing.T) {
	status, err := ParseStatusFilter("")
	require.NoError(t, err)
	assert.Equal(t, StatusActive, *status)

	status, err = ParseStatusFilter("Inactive")
	require.NoError(t, err)
	assert.Equal(t, StatusInactive, *status)

	status, err = ParseStatusFilter("All")
	require.NoError(t, err)
	assert.Nil(t, status)

	_, err = ParseStatusFilter("inactive")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}
