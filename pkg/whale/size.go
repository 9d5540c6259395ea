package whale

// SizeCategory buckets a single transfer by its USD value.
type SizeCategory string

const (
	SizeUltra   SizeCategory = "ULTRA WHALE"
	SizeMega    SizeCategory = "MEGA WHALE"
	SizeLarge   SizeCategory = "LARGE WHALE"
	SizeRegular SizeCategory = "Regular"
)

func ClassifySize(valueUSD float64) SizeCategory {
	switch {
	case valueUSD >= 1_000_000:
		return SizeUltra
	case valueUSD >= 500_000:
		return SizeMega
	case valueUSD >= 100_000:
		return SizeLarge
	}
	return SizeRegular
}

func (c SizeCategory) Emoji() string {
	switch c {
	case SizeUltra:
		return "🐋"
	case SizeMega:
		return "🦈"
	case SizeLarge:
		return "🐟"
	}
	return "💧"
}
