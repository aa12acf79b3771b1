// Package score rates outfit candidates. Every factor is a pure function of
// the candidate and the request context; the style bonus additionally reads
// a preference snapshot.
package score

// Factor bounds. Raw factors sum to at most RawMax.
const (
	WeatherMax   = 25.0
	ColorMax     = 25.0
	PatternMax   = 15.0
	VarietyMax   = 20.0
	FormalityMax = 15.0
	RawMax       = WeatherMax + ColorMax + PatternMax + VarietyMax + FormalityMax
	FinalMax     = 115.0
)

// Config holds the tunable scoring constants.
type Config struct {
	// ColdBelowC and HotAboveC split temperatures into cold, mild and hot.
	ColdBelowC float64
	HotAboveC  float64

	// NeutralChroma is the HCL chroma below which a color reads as gray.
	NeutralChroma float64

	// NeutralDarkL and NeutralLightL mark near-black and near-white.
	NeutralDarkL  float64
	NeutralLightL float64

	// NeutralRefDistance is the CIEDE2000 distance within which a color
	// counts as one of the named neutrals (navy, beige).
	NeutralRefDistance float64

	// SameHueDegrees is the hue distance under which two colors share a hue.
	SameHueDegrees float64

	// ComplementToleranceDeg is how far from 180 degrees a pair may be and
	// still count as complementary.
	ComplementToleranceDeg float64

	// MonochromeDistance is the CIEDE2000 distance under which two colors
	// are the same shade.
	MonochromeDistance float64

	// PatternPenalty is subtracted for each busy pattern beyond the first.
	PatternPenalty float64

	// FreqHalfLife is the wear count at which the frequency term halves.
	FreqHalfLife float64

	// RecencyFullDays is how many days since the last wear restore full
	// recency credit.
	RecencyFullDays float64

	// NeutralWeight is the preference weight that contributes no bonus.
	NeutralWeight float64

	// Per-type multipliers for the style bonus.
	ColorScale     float64
	FormalityScale float64
	PatternScale   float64
	OccasionScale  float64

	// BonusMin and BonusMax bound the style bonus.
	BonusMin float64
	BonusMax float64
}

// DefaultConfig returns the default scoring constants.
func DefaultConfig() Config {
	return Config{
		ColdBelowC:             18,
		HotAboveC:              28,
		NeutralChroma:          0.12,
		NeutralDarkL:           0.12,
		NeutralLightL:          0.95,
		NeutralRefDistance:     0.12,
		SameHueDegrees:         20,
		ComplementToleranceDeg: 30,
		MonochromeDistance:     0.08,
		PatternPenalty:         5,
		FreqHalfLife:           5,
		RecencyFullDays:        14,
		NeutralWeight:          1.0,
		ColorScale:             3,
		FormalityScale:         2,
		PatternScale:           2,
		OccasionScale:          1,
		BonusMin:               -10,
		BonusMax:               15,
	}
}
