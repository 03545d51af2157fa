package memory

import (
	"testing"

	"github.com/pdlfs/tablefs/kv/conformance"
)

func TestConformance(t *testing.T) {
	conformance.Run(t, New())
}
