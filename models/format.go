package models

// MatchFormat is the tagged variant driving team sizes: singles teams
// hold one player, doubles teams hold two on court (team size 2), and
// anything else carries its declared size.
type MatchFormat string

const (
	FormatSingles MatchFormat = "singles"
	FormatDoubles MatchFormat = "doubles"
	FormatOpen    MatchFormat = "open"
)

// TeamSize returns the roster size implied by the format. Open format
// falls back to the declared size, so callers pass it through.
func (f MatchFormat) TeamSize(declared int) int {
	switch f {
	case FormatSingles:
		return 1
	case FormatDoubles:
		return 2
	default:
		return declared
	}
}

func (f MatchFormat) Valid() bool {
	switch f {
	case FormatSingles, FormatDoubles, FormatOpen:
		return true
	}
	return false
}
