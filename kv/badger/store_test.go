package badger

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pdlfs/tablefs/kv/conformance"
)

func TestConformance(t *testing.T) {
	store, err := Open("", Options{InMemory: true})
	require.NoError(t, err)
	defer store.Close()

	conformance.Run(t, store)
}
