// Package core contains the lazy-mint orchestration domain: the registry
// gateway contracts, the deterministic asset selector, the step sequencer and
// the Orchestrator service that ties them together. Transport and storage
// adapters depend on this package; core must not depend on them.
package core
