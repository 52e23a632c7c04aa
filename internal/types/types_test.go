package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewID(t *testing.T) {
	id := NewID()

	require.NoError(t, id.Validate())
	assert.False(t, id.IsZero())

	// Two generated IDs must not collide
	assert.NotEqual(t, id, NewID())
}

func TestParseID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{
			name:    "valid UUID",
			input:   "6ba7b810-9dad-11d1-80b4-00c04fd430c8",
			wantErr: false,
		},
		{
			name:    "empty string",
			input:   "",
			wantErr: true,
		},
		{
			name:    "not a UUID",
			input:   "not-a-uuid",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := ParseID(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.input, id.String())
		})
	}
}

func TestIDJSONRoundTrip(t *testing.T) {
	id := NewID()

	data, err := json.Marshal(id)
	require.NoError(t, err)

	var decoded ID
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, id, decoded)
}

func TestIDMarshalZero(t *testing.T) {
	var id ID

	data, err := json.Marshal(id)
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))
}

func TestDraftflowErrorFormat(t *testing.T) {
	err := NewError(CONFIG_LOAD_FAILED, "cannot read config")
	assert.Equal(t, "[CONFIG_LOAD_FAILED] cannot read config", err.Error())

	wrapped := WrapError(DATA_PARSE_FAILED, "bad csv", fmt.Errorf("line 3"))
	assert.Equal(t, "[DATA_PARSE_FAILED] bad csv: line 3", wrapped.Error())
}

func TestDraftflowErrorUnwrap(t *testing.T) {
	cause := errors.New("underlying")
	err := WrapError(LLM_COMPLETION_FAILED, "completion failed", cause)

	assert.ErrorIs(t, err, cause)
}

func TestDraftflowErrorIs(t *testing.T) {
	a := NewError(RUN_STAGE_FAILED, "stage one failed")
	b := NewError(RUN_STAGE_FAILED, "different message, same code")
	c := NewError(RUN_CANCELLED, "cancelled")

	assert.ErrorIs(t, a, b)
	assert.NotErrorIs(t, a, c)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(NewRetryableError(LLM_COMPLETION_FAILED, "timeout")))
	assert.False(t, IsRetryable(NewError(LLM_COMPLETION_FAILED, "bad request")))
	assert.False(t, IsRetryable(errors.New("plain error")))

	// Retryability is visible through wrapping
	wrapped := fmt.Errorf("outer: %w", NewRetryableError(LLM_COMPLETION_FAILED, "timeout"))
	assert.True(t, IsRetryable(wrapped))
}
