package entitlement

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAtLeast(t *testing.T) {
	require.True(t, RoleFree.AtLeast(RoleFree))
	require.True(t, RolePro.AtLeast(RoleFree))
	require.True(t, RolePro.AtLeast(RolePro))
	require.False(t, RoleFree.AtLeast(RolePro))

	// unknown roles rank as free
	require.False(t, Role("staff").AtLeast(RolePro))
	require.True(t, Role("staff").AtLeast(RoleFree))
}
