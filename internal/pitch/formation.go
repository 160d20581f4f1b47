package pitch

import (
	"math"

	"github.com/hexfoot/engine/internal/hexboard"
)

// formation lists kick-off spots for a side attacking towards +X on the
// standard board: goalkeeper, four defenders, four midfielders, two forwards.
var formation = []hexboard.Coord{
	{X: -17, Z: 0},
	{X: -12, Z: -6}, {X: -12, Z: -2}, {X: -12, Z: 2}, {X: -12, Z: 6},
	{X: -6, Z: -7}, {X: -6, Z: -2}, {X: -6, Z: 2}, {X: -6, Z: 7},
	{X: -2, Z: -3}, {X: -2, Z: 3},
}

// FormationSize is the number of tokens a side fields.
const FormationSize = 11

// KickOffSpots returns the kick-off cells on b for a side attacking end.
// The standard formation is scaled to the board's half extents, so every
// spot stays in bounds on the smallest board NewBoard accepts. When
// kicking is set the last forward starts on the centre spot.
func KickOffSpots(b *hexboard.Board, end int, kicking bool) []hexboard.Coord {
	std, cfg := hexboard.DefaultConfig(), b.Config()
	out := make([]hexboard.Coord, len(formation))
	for i, c := range formation {
		x := scale(c.X, cfg.HalfWidth, std.HalfWidth)
		z := scale(c.Z, cfg.HalfHeight, std.HalfHeight)
		out[i] = b.Clamp(hexboard.Coord{X: x * end, Z: z})
	}
	if kicking {
		out[len(out)-1] = b.Centre()
	}
	return out
}

func scale(v, to, from int) int {
	return int(math.Round(float64(v) * float64(to) / float64(from)))
}
