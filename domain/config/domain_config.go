package config

import "fmt"

// DomainConfig holds configurable business rules and limits.
type DomainConfig struct {
	// Flow graph constraints
	MaxNodesPerFlow int
	MaxEdgesPerFlow int

	// Flow runner limits
	MaxTraversalSteps int

	// Plan constraints
	MaxPlanNameLength int
	MaxBodyLength     int

	// Rate limiting
	TokenRequestsPerMinute int
}

// DefaultDomainConfig returns the default configuration.
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		MaxNodesPerFlow:        500,
		MaxEdgesPerFlow:        2000,
		MaxTraversalSteps:      5000,
		MaxPlanNameLength:      200,
		MaxBodyLength:          50000,
		TokenRequestsPerMinute: 10,
	}
}

// ProductionDomainConfig tightens limits for production.
func ProductionDomainConfig() *DomainConfig {
	c := DefaultDomainConfig()
	c.MaxNodesPerFlow = 200
	c.MaxEdgesPerFlow = 500
	c.MaxBodyLength = 20000
	return c
}

// DevelopmentDomainConfig loosens limits for local work.
func DevelopmentDomainConfig() *DomainConfig {
	c := DefaultDomainConfig()
	c.MaxNodesPerFlow = 10000
	c.MaxEdgesPerFlow = 50000
	c.TokenRequestsPerMinute = 1000
	return c
}

// LoadDomainConfig selects the configuration for an environment.
func LoadDomainConfig(environment string) *DomainConfig {
	switch environment {
	case "production":
		return ProductionDomainConfig()
	case "development":
		return DevelopmentDomainConfig()
	default:
		return DefaultDomainConfig()
	}
}

// Validate checks the configuration for nonsense values.
func (c *DomainConfig) Validate() error {
	if c.MaxNodesPerFlow <= 0 {
		return fmt.Errorf("MaxNodesPerFlow must be positive, got %d", c.MaxNodesPerFlow)
	}
	if c.MaxEdgesPerFlow <= 0 {
		return fmt.Errorf("MaxEdgesPerFlow must be positive, got %d", c.MaxEdgesPerFlow)
	}
	if c.MaxTraversalSteps <= 0 {
		return fmt.Errorf("MaxTraversalSteps must be positive, got %d", c.MaxTraversalSteps)
	}
	return nil
}
