package logging

import (
	"testing"

	logging "github.com/ipfs/go-log/v2"
	"github.com/stretchr/testify/require"
)

func TestSetup(t *testing.T) {
	_ = logging.Logger("vm")
	require.NoError(t, Setup("warn,vm=debug"))
	require.NoError(t, Setup(""))
	require.Error(t, Setup("loud"))
	require.Error(t, Setup("info,vm"))
}
