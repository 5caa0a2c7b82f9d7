package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCodeOfUnwrapsChains(t *testing.T) {
	base := Wrap(CodeProviderUnavailable, "weather request failed", fmt.Errorf("dial tcp: timeout"))
	wrapped := fmt.Errorf("weather advice: %w", base)

	require.True(t, IsCode(wrapped, CodeProviderUnavailable))
	require.Equal(t, CodeProviderUnavailable, CodeOf(wrapped))
	require.Equal(t, CodeInternal, CodeOf(fmt.Errorf("boom")))
}

func TestInvalidCarriesFields(t *testing.T) {
	err := Invalid("invalid chat message", map[string]string{"content": "must be 1-2000 characters"})

	require.True(t, IsCode(err, CodeInvalidInput))
	require.Equal(t, "must be 1-2000 characters", FieldsOf(err)["content"])
	require.Nil(t, FieldsOf(fmt.Errorf("plain")))
}
