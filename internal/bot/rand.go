package bot

import "math/rand/v2"

// botRng is the package-level random source used by the random strategy.
// When nil, the functions below delegate to the global math/rand/v2 default.
// Use SeedBotRng to set a deterministic source for reproducible tests.
var botRng *rand.Rand

// SeedBotRng sets a deterministic random source for reproducible bot behavior.
func SeedBotRng(seed uint64) {
	botRng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// ResetBotRng reverts to the default (non-deterministic) global random source.
func ResetBotRng() {
	botRng = nil
}

func botFloat64() float64 {
	if botRng != nil {
		return botRng.Float64()
	}
	return rand.Float64()
}

func botIntn(n int) int {
	if botRng != nil {
		return botRng.IntN(n)
	}
	return rand.IntN(n)
}
