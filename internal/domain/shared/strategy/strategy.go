// Package strategy defines the contract for interchangeable domain
// algorithms.
package strategy

// StrategyType groups strategies by the concern they implement
type StrategyType string

// StrategyTypeAllocation marks strategies that split an amount across
// funding sources.
const StrategyTypeAllocation StrategyType = "allocation"

func (t StrategyType) String() string { return string(t) }

// IsValid reports whether t names a known strategy type
func (t StrategyType) IsValid() bool {
	return t == StrategyTypeAllocation
}

// Strategy is implemented by every interchangeable algorithm. Concrete
// strategies embed BaseStrategy and extend the interface with their own
// planning methods.
type Strategy interface {
	Name() string
	Type() StrategyType
	Description() string
}

// BaseStrategy supplies the identity half of Strategy
type BaseStrategy struct {
	name         string
	strategyType StrategyType
	description  string
}

// NewBaseStrategy builds the embedded identity for a concrete strategy
func NewBaseStrategy(name string, strategyType StrategyType, description string) BaseStrategy {
	return BaseStrategy{
		name:         name,
		strategyType: strategyType,
		description:  description,
	}
}

func (s BaseStrategy) Name() string { return s.name }

func (s BaseStrategy) Type() StrategyType { return s.strategyType }

func (s BaseStrategy) Description() string { return s.description }
