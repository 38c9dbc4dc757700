package observability

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	lg, err := NewLogger("debug")
	require.NoError(t, err)
	require.NotNil(t, lg)

	_, err = NewLogger("loud")
	require.Error(t, err)
}
