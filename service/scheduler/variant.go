package scheduler

import (
	"fmt"
	"strings"

	"github.com/viant/safealloc/service/pool"
)

// Variant selects the scheduling policy.
type Variant string

const (
	// VariantA ignores the CPU ceiling and leaves a record queued when its
	// dispatch cannot be granted.
	VariantA Variant = "A"
	// VariantB enforces the CPU ceiling and blocks records whose dispatch
	// cannot be granted.
	VariantB Variant = "B"
)

// ParseVariant accepts "A" or "B" in any case.
func ParseVariant(name string) (Variant, error) {
	switch Variant(strings.ToUpper(strings.TrimSpace(name))) {
	case VariantA:
		return VariantA, nil
	case VariantB:
		return VariantB, nil
	}
	return "", fmt.Errorf("unknown scheduler variant %q", name)
}

// Apply sets the variant-dependent switches on the pool and scheduler configs.
func (v Variant) Apply(poolConfig *pool.Config, config *Config) {
	enabled := v == VariantB
	poolConfig.EnforceCeiling = enabled
	config.BlockOnExhaustion = enabled
}

// VariantOf reports the variant matching the switches, or "" when they mix
// both variants.
func VariantOf(poolConfig pool.Config, config Config) Variant {
	switch {
	case !poolConfig.EnforceCeiling && !config.BlockOnExhaustion:
		return VariantA
	case poolConfig.EnforceCeiling && config.BlockOnExhaustion:
		return VariantB
	}
	return ""
}
