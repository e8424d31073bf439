package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorString(t *testing.T) {
	assert.Equal(t, "[INVALID_INPUT] weight must be greater than 0", Input("weight must be greater than 0").Error())

	err := Config("invalid rate table", stderrors.New("unexpected EOF"))
	assert.Equal(t, "[CONFIG_ERROR] invalid rate table: unexpected EOF", err.Error())
}

func TestIsTypeThroughWrapping(t *testing.T) {
	base := Distance("lookup failed", stderrors.New("timeout"))
	wrapped := fmt.Errorf("row 3: %w", base)

	assert.True(t, IsType(wrapped, TypeDistance))
	assert.False(t, IsType(wrapped, TypeInput))
	assert.False(t, IsType(stderrors.New("plain"), TypeInput))
	assert.False(t, IsType(nil, TypeInput))
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "lookup failed", Message(fmt.Errorf("ctx: %w", Distance("lookup failed", nil))))
	assert.Equal(t, "plain", Message(stderrors.New("plain")))
}

func TestWithContext(t *testing.T) {
	err := Parsing("file is empty", nil).WithContext("file", "moves.csv").WithContext("rows", 0)
	assert.Equal(t, map[string]interface{}{"file": "moves.csv", "rows": 0}, err.Context)
	assert.True(t, err.Is(TypeParsing))
}
