package consensus

// InitialSubsidy is the block 0 coinbase reward in satoshis.
const InitialSubsidy Satoshi = 5_000_000_000

// HalvingInterval is the number of blocks between subsidy halvings.
const HalvingInterval = 210_000

// Subsidy returns the block subsidy at height h: InitialSubsidy right
// -shifted once per halving interval elapsed, reaching zero after 64
// halvings (matching Bitcoin's actual integer-shift behavior, not a
// continuous decay).
func Subsidy(h Height) Satoshi {
	halvings := uint32(h) / HalvingInterval
	if halvings >= 64 {
		return 0
	}
	return InitialSubsidy >> halvings
}
