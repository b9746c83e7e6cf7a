package osmdigest_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/osmdigest/osmdigest"
)

// Scenario E from spec §8.
func TestScenarioE_CoordCodec(t *testing.T) {
	require.Equal(t, int32(-1), osmdigest.EncodeCoord(-0.0000001))
	require.Equal(t, int32(1), osmdigest.EncodeCoord(0.0000001))
	require.InDelta(t, 12.2482632, osmdigest.DecodeCoord(osmdigest.EncodeCoord(12.2482632)), 5e-8)
}

func TestCoordRoundTripWithinContract(t *testing.T) {
	cases := []float64{0, 90, -90, 180, -180, 54.0901746, -122.4194155, 0.0000001, -0.0000001}
	for _, f := range cases {
		got := osmdigest.DecodeCoord(osmdigest.EncodeCoord(f))
		require.InDeltaf(t, f, got, 5e-8, "round trip for %v", f)
	}
}
