package core

import (
	"fmt"
	"strings"
	"time"
)

type Generation string

const (
	// GenerationLegacy tolerates asset attachment failures and leaves the
	// address setters open.
	GenerationLegacy Generation = "legacy"
	// GenerationHardened aborts on attachment failures and gates the setters
	// behind the owner.
	GenerationHardened Generation = "hardened"
)

const (
	defaultServiceName    = "lazymint"
	defaultOrchestratorID = "default"
	DefaultCallGasLimit   = uint64(5_000_000_000)
	defaultCallTimeout    = 30 * time.Second
)

type Config struct {
	ServiceName       string        `koanf:"service_name" mapstructure:"service_name"`
	OrchestratorID    string        `koanf:"orchestrator_id" mapstructure:"orchestrator_id"`
	Generation        Generation    `koanf:"generation" mapstructure:"generation"`
	AttachFailure     FailureAction `koanf:"attach_failure" mapstructure:"attach_failure"`
	CollectionAddress string        `koanf:"collection_address" mapstructure:"collection_address"`
	CatalogAddress    string        `koanf:"catalog_address" mapstructure:"catalog_address"`
	OwnerAddress      string        `koanf:"owner_address" mapstructure:"owner_address"`
	CallGasLimit      uint64        `koanf:"call_gas_limit" mapstructure:"call_gas_limit"`
	CallTimeout       time.Duration `koanf:"call_timeout" mapstructure:"call_timeout"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName:    defaultServiceName,
		OrchestratorID: defaultOrchestratorID,
		Generation:     GenerationHardened,
		CallGasLimit:   DefaultCallGasLimit,
		CallTimeout:    defaultCallTimeout,
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if strings.TrimSpace(c.OrchestratorID) == "" {
		return fmt.Errorf("core: orchestrator_id is required")
	}
	switch c.Generation {
	case GenerationLegacy, GenerationHardened:
	default:
		return fmt.Errorf("core: invalid generation %q", c.Generation)
	}
	switch c.AttachFailure {
	case "", FailureActionAbort, FailureActionContinue:
	default:
		return fmt.Errorf("core: invalid attach_failure %q", c.AttachFailure)
	}
	for key, value := range map[string]string{
		"collection_address": c.CollectionAddress,
		"catalog_address":    c.CatalogAddress,
		"owner_address":      c.OwnerAddress,
	} {
		if strings.TrimSpace(value) == "" {
			continue
		}
		if _, err := ParseAccountID(value); err != nil {
			return fmt.Errorf("core: invalid %s: %w", key, err)
		}
	}
	if c.CallGasLimit == 0 {
		return fmt.Errorf("core: call_gas_limit is required")
	}
	if c.CallTimeout < 0 {
		return fmt.Errorf("core: invalid call_timeout %s", c.CallTimeout)
	}
	return nil
}

// FailurePolicy resolves the sequencer policy table for this configuration.
// An explicit attach_failure wins over the generation preset.
func (c Config) FailurePolicy() FailurePolicy {
	policy := HardenedFailurePolicy()
	if c.Generation == GenerationLegacy {
		policy = LegacyFailurePolicy()
	}
	if c.AttachFailure != "" {
		policy = policy.With(StepAddAsset, c.AttachFailure)
	}
	return policy
}

func (c Config) gatesSetters() bool {
	return c.Generation != GenerationLegacy
}

func optionalAccountID(raw string) (AccountID, error) {
	if strings.TrimSpace(raw) == "" {
		return AccountID{}, nil
	}
	return ParseAccountID(raw)
}
