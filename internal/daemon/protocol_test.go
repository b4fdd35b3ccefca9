package daemon

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mesh-intelligence/engram/pkg/types"
)

func TestErrorCodeRoundtrip(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		wantCode string
	}{
		{name: "unknown item", err: types.ErrUnknownItem, sentinel: types.ErrUnknownItem, wantCode: CodeUnknownItem},
		{name: "wrapped unknown item", err: fmt.Errorf("getting: %w", types.ErrUnknownItem), sentinel: types.ErrUnknownItem, wantCode: CodeUnknownItem},
		{name: "cycle", err: types.ErrWouldCreateCycle, sentinel: types.ErrWouldCreateCycle, wantCode: CodeCycle},
		{name: "invalid transition", err: types.ErrInvalidTransition, sentinel: types.ErrInvalidTransition, wantCode: CodeInvalidTransition},
		{name: "invalid title", err: types.ErrInvalidTitle, sentinel: types.ErrInvalidTitle, wantCode: CodeInvalidTitle},
		{name: "timeout", err: types.ErrTimeout, sentinel: types.ErrTimeout, wantCode: CodeTimeout},
		{name: "session failed", err: types.ErrSessionFailed, sentinel: types.ErrSessionFailed, wantCode: CodeSessionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code := codeForError(tt.err)
			assert.Equal(t, tt.wantCode, code)

			// The client-side error matches the same sentinel and keeps the
			// server's message.
			rebuilt := errorForCode(code, tt.err.Error())
			assert.ErrorIs(t, rebuilt, tt.sentinel)
			assert.EqualError(t, rebuilt, tt.err.Error())
		})
	}
}

func TestErrorCodeUnclassified(t *testing.T) {
	err := errors.New("disk on fire")
	code := codeForError(err)
	assert.Equal(t, CodeInternal, code)
	assert.EqualError(t, errorForCode(code, err.Error()), "disk on fire")
}

func TestErrorCodeOK(t *testing.T) {
	assert.NoError(t, errorForCode(CodeOK, ""))
}
