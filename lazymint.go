package lazymint

import "github.com/goliatone/go-lazymint/core"

type Config = core.Config

type Option = core.Option

type Orchestrator = core.Orchestrator

type OrchestratorDependencies = core.OrchestratorDependencies

type AccountID = core.AccountID
type TokenID = core.TokenID
type Generation = core.Generation
type FailurePolicy = core.FailurePolicy
type RegistryDialer = core.RegistryDialer
type StateStore = core.StateStore
type ReceiptStore = core.ReceiptStore
type BlockClock = core.BlockClock
type ReentrancyGuard = core.ReentrancyGuard
type AccessPolicy = core.AccessPolicy

type MintRequest = core.MintRequest

type MintResult = core.MintResult

type MintReceipt = core.MintReceipt

var (
	WithLogger          = core.WithLogger
	WithLoggerProvider  = core.WithLoggerProvider
	WithMetricsRecorder = core.WithMetricsRecorder
	WithErrorFactory    = core.WithErrorFactory
	WithErrorMapper     = core.WithErrorMapper
	WithConfigProvider  = core.WithConfigProvider
	WithOptionsResolver = core.WithOptionsResolver
	WithRegistryDialer  = core.WithRegistryDialer
	WithStateStore      = core.WithStateStore
	WithReceiptStore    = core.WithReceiptStore
	WithBlockClock      = core.WithBlockClock
	WithReentrancyGuard = core.WithReentrancyGuard
	WithAccessPolicy    = core.WithAccessPolicy
)

func ParseAccountID(raw string) (AccountID, error) {
	return core.ParseAccountID(raw)
}

func DefaultConfig() Config {
	return core.DefaultConfig()
}

func NewOrchestrator(cfg Config, opts ...Option) (*Orchestrator, error) {
	return core.NewOrchestrator(cfg, opts...)
}

func Setup(cfg Config, opts ...Option) (*Orchestrator, error) {
	return core.Setup(cfg, opts...)
}
