package quality

import "fmt"

// Band is an inclusive [Min, Max] range.
type Band[T int | float64] struct {
	Min T `mapstructure:"min" json:"min" yaml:"min"`
	Max T `mapstructure:"max" json:"max" yaml:"max"`
}

// Contains reports whether v lies inside the band.
func (b Band[T]) Contains(v T) bool {
	return v >= b.Min && v <= b.Max
}

// Thresholds configures every axis.
type Thresholds struct {
	LengthBand        Band[int]     `mapstructure:"length_band" json:"length_band"`
	LengthCeiling     int           `mapstructure:"length_ceiling" json:"length_ceiling"`
	TagBand           Band[int]     `mapstructure:"tag_band" json:"tag_band"`
	TagCeiling        int           `mapstructure:"tag_ceiling" json:"tag_ceiling"`
	SymbolDensityBand Band[float64] `mapstructure:"symbol_density_band" json:"symbol_density_band"`
}

// DefaultThresholds returns the stock post thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		LengthBand:        Band[int]{Min: 1300, Max: 1600},
		LengthCeiling:     3000,
		TagBand:           Band[int]{Min: 3, Max: 5},
		TagCeiling:        10,
		SymbolDensityBand: Band[float64]{Min: 0.5, Max: 5},
	}
}

// Validate rejects inverted bands and ceilings below their band.
func (t Thresholds) Validate() error {
	if t.LengthBand.Min < 0 || t.LengthBand.Min > t.LengthBand.Max {
		return fmt.Errorf("invalid length band [%d,%d]", t.LengthBand.Min, t.LengthBand.Max)
	}
	if t.LengthCeiling < t.LengthBand.Max {
		return fmt.Errorf("length ceiling %d is below length band max %d", t.LengthCeiling, t.LengthBand.Max)
	}
	if t.TagBand.Min < 1 || t.TagBand.Min > t.TagBand.Max {
		return fmt.Errorf("invalid tag band [%d,%d]", t.TagBand.Min, t.TagBand.Max)
	}
	if t.TagCeiling < t.TagBand.Max {
		return fmt.Errorf("tag ceiling %d is below tag band max %d", t.TagCeiling, t.TagBand.Max)
	}
	if t.SymbolDensityBand.Min < 0 || t.SymbolDensityBand.Min > t.SymbolDensityBand.Max {
		return fmt.Errorf("invalid symbol density band [%g,%g]", t.SymbolDensityBand.Min, t.SymbolDensityBand.Max)
	}
	return nil
}
