package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
)

type Orchestrator struct {
	config          Config
	logger          Logger
	loggerProvider  LoggerProvider
	metricsRecorder MetricsRecorder
	errorFactory    ErrorFactory
	errorMapper     ErrorMapper
	configProvider  ConfigProvider
	optionsResolver OptionsResolver
	dialer          RegistryDialer
	stateStore      StateStore
	receiptStore    ReceiptStore
	clock           BlockClock
	guard           ReentrancyGuard
	accessPolicy    AccessPolicy
	owner           AccountID
	gateway         *Gateway
	selector        *Selector
	sequencer       *Sequencer
}

type OrchestratorDependencies struct {
	Logger          Logger
	LoggerProvider  LoggerProvider
	MetricsRecorder MetricsRecorder
	ErrorFactory    ErrorFactory
	ErrorMapper     ErrorMapper
	ConfigProvider  ConfigProvider
	OptionsResolver OptionsResolver
	RegistryDialer  RegistryDialer
	StateStore      StateStore
	ReceiptStore    ReceiptStore
	BlockClock      BlockClock
	ReentrancyGuard ReentrancyGuard
	AccessPolicy    AccessPolicy
}

func NewOrchestrator(cfg Config, opts ...Option) (*Orchestrator, error) {
	builder := defaultOrchestratorBuilder(cfg)
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve(defaultServiceName, builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger(defaultServiceName); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.errorFactory == nil {
		builder.errorFactory = goerrors.New
	}
	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.errorMapper == nil {
		builder.errorMapper = defaultErrorMapper
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}
	if builder.clock == nil {
		builder.clock = SystemBlockClock{}
	}
	if builder.guard == nil {
		builder.guard = NewMemoryReentrancyGuard()
	}
	if builder.stateStore == nil {
		builder.stateStore = NewMemoryStateStore()
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	collection, err := optionalAccountID(finalConfig.CollectionAddress)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	catalog, err := optionalAccountID(finalConfig.CatalogAddress)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	owner, err := optionalAccountID(finalConfig.OwnerAddress)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	if builder.accessPolicy == nil {
		if finalConfig.gatesSetters() {
			builder.accessPolicy = OwnerPolicy{Owner: owner}
		} else {
			builder.accessPolicy = AllowAllPolicy{}
		}
	}

	if _, err := builder.stateStore.Ensure(context.Background(), OrchestratorState{
		ID:                finalConfig.OrchestratorID,
		CollectionAddress: collection,
		CatalogAddress:    catalog,
	}); err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	gateway := NewGateway(builder.dialer, finalConfig.CallGasLimit, finalConfig.CallTimeout)
	selector := NewSelector(StoreSequence{Store: builder.stateStore, ID: finalConfig.OrchestratorID})
	sequencer := NewSequencer(gateway, selector, builder.clock, finalConfig.FailurePolicy())

	orchestrator := &Orchestrator{
		config:          finalConfig,
		logger:          logger,
		loggerProvider:  provider,
		metricsRecorder: builder.metricsRecorder,
		errorFactory:    builder.errorFactory,
		errorMapper:     builder.errorMapper,
		configProvider:  builder.configProvider,
		optionsResolver: builder.optionsResolver,
		dialer:          builder.dialer,
		stateStore:      builder.stateStore,
		receiptStore:    builder.receiptStore,
		clock:           builder.clock,
		guard:           builder.guard,
		accessPolicy:    builder.accessPolicy,
		owner:           owner,
		gateway:         gateway,
		selector:        selector,
		sequencer:       sequencer,
	}
	sequencer.OnTolerated(orchestrator.onToleratedFailure)
	return orchestrator, nil
}

func Setup(cfg Config, opts ...Option) (*Orchestrator, error) {
	return NewOrchestrator(cfg, opts...)
}

func mapBuildError(mapper ErrorMapper, err error) error {
	if err == nil {
		return nil
	}
	if mapper == nil {
		return err
	}
	mapped := mapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

func (o *Orchestrator) Config() Config {
	if o == nil {
		return Config{}
	}
	return o.config
}

func (o *Orchestrator) Owner() AccountID {
	if o == nil {
		return AccountID{}
	}
	return o.owner
}

func (o *Orchestrator) FailurePolicy() FailurePolicy {
	if o == nil {
		return HardenedFailurePolicy()
	}
	return o.sequencer.Policy()
}

func (o *Orchestrator) Dependencies() OrchestratorDependencies {
	if o == nil {
		return OrchestratorDependencies{}
	}
	return OrchestratorDependencies{
		Logger:          o.logger,
		LoggerProvider:  o.loggerProvider,
		MetricsRecorder: o.metricsRecorder,
		ErrorFactory:    o.errorFactory,
		ErrorMapper:     o.errorMapper,
		ConfigProvider:  o.configProvider,
		OptionsResolver: o.optionsResolver,
		RegistryDialer:  o.dialer,
		StateStore:      o.stateStore,
		ReceiptStore:    o.receiptStore,
		BlockClock:      o.clock,
		ReentrancyGuard: o.guard,
		AccessPolicy:    o.accessPolicy,
	}
}

// Mint runs the full sequence for the caller: read the asset count, mint with
// the attached payment, attach a selected asset and hand the token over.
func (o *Orchestrator) Mint(ctx context.Context, req MintRequest) (result MintResult, err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"orchestrator_id": o.orchestratorID(),
		"caller":          req.Caller.String(),
		"payment":         paymentString(req.Payment),
	}
	defer func() {
		fields["state"] = string(result.State)
		if result.Reached == StateMinted || result.Reached == StateAssetAttached || result.Reached == StateCompleted {
			fields["token_id"] = uint64(result.TokenID)
		}
		if result.Drawn {
			fields["asset_index"] = result.AssetIndex
		}
		if result.AttachSkipped {
			fields["attach_skipped"] = true
		}
		o.observeOperation(ctx, startedAt, "mint", err, fields)
	}()

	if o == nil || o.sequencer == nil {
		return MintResult{}, NewError(ErrorInternal, "core: orchestrator is not configured")
	}
	if req.Caller.IsZero() {
		err = NewError(ErrorBadInput, "core: mint caller is required")
		return MintResult{}, err
	}
	if req.Payment != nil && req.Payment.Sign() < 0 {
		err = NewError(ErrorBadInput, "core: mint payment must not be negative")
		return MintResult{}, err
	}

	handle, err := o.enter(ctx)
	if err != nil {
		return MintResult{}, err
	}
	defer func() {
		_ = handle.Exit(ctx)
	}()

	state, err := o.stateStore.Load(ctx, o.config.OrchestratorID)
	if err != nil {
		err = o.mapError(err)
		return MintResult{}, err
	}
	fields["collection_address"] = state.CollectionAddress.String()

	result, err = o.sequencer.Run(ctx, SequenceInput{
		CollectionAddress: state.CollectionAddress,
		Caller:            req.Caller,
		Payment:           req.Payment,
	})
	o.appendReceipt(ctx, req, state.CollectionAddress, result, err)
	if err != nil {
		err = o.mapError(err)
		return result, err
	}
	return result, nil
}

func (o *Orchestrator) CollectionAddress(ctx context.Context) (AccountID, error) {
	state, err := o.loadState(ctx)
	if err != nil {
		return AccountID{}, err
	}
	return state.CollectionAddress, nil
}

func (o *Orchestrator) CatalogAddress(ctx context.Context) (AccountID, error) {
	state, err := o.loadState(ctx)
	if err != nil {
		return AccountID{}, err
	}
	return state.CatalogAddress, nil
}

func (o *Orchestrator) SetCollectionAddress(ctx context.Context, caller AccountID, address AccountID) error {
	return o.updateAddresses(ctx, "set_collection_address", caller, address, func(state *OrchestratorState) {
		state.CollectionAddress = address
	})
}

func (o *Orchestrator) SetCatalogAddress(ctx context.Context, caller AccountID, address AccountID) error {
	return o.updateAddresses(ctx, "set_catalog_address", caller, address, func(state *OrchestratorState) {
		state.CatalogAddress = address
	})
}

// CatalogPartsCount reads the part count of the configured catalog. Setup and
// health checks use it; Mint never does.
func (o *Orchestrator) CatalogPartsCount(ctx context.Context) (uint32, error) {
	state, err := o.loadState(ctx)
	if err != nil {
		return 0, err
	}
	count, outcome := o.gateway.CatalogPartsCount(ctx, state.CatalogAddress)
	if !outcome.Succeeded() {
		return 0, o.mapError(WrapError(outcome.Err, ErrorRegistryUnreachable, "core: read catalog parts count"))
	}
	return count, nil
}

func (o *Orchestrator) MintReceipt(ctx context.Context, id string) (MintReceipt, error) {
	if o == nil || o.receiptStore == nil {
		return MintReceipt{}, NewError(ErrorInternal, "core: receipt store is not configured")
	}
	if strings.TrimSpace(id) == "" {
		return MintReceipt{}, NewError(ErrorBadInput, "core: receipt id is required")
	}
	receipt, err := o.receiptStore.Get(ctx, strings.TrimSpace(id))
	if err != nil {
		return MintReceipt{}, o.mapError(err)
	}
	return receipt, nil
}

// MintReceipts lists receipts for caller, newest first.
func (o *Orchestrator) MintReceipts(ctx context.Context, caller AccountID, limit int) ([]MintReceipt, error) {
	if o == nil || o.receiptStore == nil {
		return nil, NewError(ErrorInternal, "core: receipt store is not configured")
	}
	if caller.IsZero() {
		return nil, NewError(ErrorBadInput, "core: receipt caller is required")
	}
	receipts, err := o.receiptStore.ListByCaller(ctx, caller, limit)
	if err != nil {
		return nil, o.mapError(err)
	}
	return receipts, nil
}

func (o *Orchestrator) updateAddresses(
	ctx context.Context,
	operation string,
	caller AccountID,
	address AccountID,
	apply func(state *OrchestratorState),
) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"orchestrator_id": o.orchestratorID(),
		"caller":          caller.String(),
		"address":         address.String(),
	}
	defer func() {
		o.observeOperation(ctx, startedAt, operation, err, fields)
	}()

	if o == nil || o.stateStore == nil {
		return NewError(ErrorInternal, "core: orchestrator is not configured")
	}
	if address.IsZero() {
		err = NewError(ErrorBadInput, fmt.Sprintf("core: %s requires a non-zero address", strings.ReplaceAll(operation, "_", " ")))
		return err
	}
	if err = o.accessPolicy.Authorize(ctx, caller, operation); err != nil {
		err = o.mapError(err)
		return err
	}

	handle, err := o.enter(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = handle.Exit(ctx)
	}()

	state, err := o.stateStore.Load(ctx, o.config.OrchestratorID)
	if err != nil {
		err = o.mapError(err)
		return err
	}
	apply(&state)
	if _, err = o.stateStore.SaveAddresses(ctx, state.ID, state.CollectionAddress, state.CatalogAddress); err != nil {
		err = o.mapError(err)
		return err
	}
	return nil
}

func (o *Orchestrator) enter(ctx context.Context) (GuardHandle, error) {
	handle, err := o.guard.Enter(ctx, "orchestrator:"+o.config.OrchestratorID)
	if err != nil {
		return nil, o.mapError(err)
	}
	return handle, nil
}

func (o *Orchestrator) loadState(ctx context.Context) (OrchestratorState, error) {
	if o == nil || o.stateStore == nil {
		return OrchestratorState{}, NewError(ErrorInternal, "core: orchestrator is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	state, err := o.stateStore.Load(ctx, o.config.OrchestratorID)
	if err != nil {
		return OrchestratorState{}, o.mapError(err)
	}
	return state, nil
}

func (o *Orchestrator) onToleratedFailure(ctx context.Context, record StepRecord) {
	o.logWarn(ctx, string(record.Step)+" failed; continuing without asset", map[string]any{
		"orchestrator_id": o.orchestratorID(),
		"step":            string(record.Step),
		"call_status":     string(record.Outcome.Status),
		"reason":          record.Outcome.Reason,
	})
	o.recordCounter(ctx, "lazymint.mint.tolerated_failures", 1, map[string]string{
		"step": string(record.Step),
	})
}

func (o *Orchestrator) appendReceipt(
	ctx context.Context,
	req MintRequest,
	collection AccountID,
	result MintResult,
	runErr error,
) {
	if o.receiptStore == nil {
		return
	}
	receipt := MintReceipt{
		OrchestratorID:    o.config.OrchestratorID,
		Caller:            req.Caller,
		CollectionAddress: collection,
		Payment:           paymentString(req.Payment),
		Status:            MintReceiptCompleted,
		State:             result.Reached,
		TotalAssets:       result.TotalAssets,
		AttachSkipped:     result.AttachSkipped,
		Metadata:          copyAnyMap(req.Metadata),
		CreatedAt:         time.Now().UTC(),
	}
	if runErr != nil {
		receipt.Status = MintReceiptAborted
		receipt.ErrorCode = string(KindOf(runErr))
	}
	switch result.Reached {
	case StateMinted, StateAssetAttached, StateCompleted:
		tokenID := result.TokenID
		receipt.TokenID = &tokenID
	}
	if result.Drawn {
		index := result.AssetIndex
		sequence := result.Sequence
		receipt.AssetIndex = &index
		receipt.Sequence = &sequence
	}
	if _, err := o.receiptStore.Append(ctx, receipt); err != nil {
		o.logWarn(ctx, "mint receipt not recorded", map[string]any{
			"orchestrator_id": o.config.OrchestratorID,
			"caller":          req.Caller.String(),
			"error":           err.Error(),
		})
	}
}

func (o *Orchestrator) orchestratorID() string {
	if o == nil {
		return ""
	}
	return o.config.OrchestratorID
}

func (o *Orchestrator) mapError(err error) error {
	if err == nil {
		return nil
	}
	if o == nil || o.errorMapper == nil {
		return err
	}
	mapped := o.errorMapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

var (
	_ Minter         = (*Orchestrator)(nil)
	_ AddressManager = (*Orchestrator)(nil)
	_ AddressReader  = (*Orchestrator)(nil)
	_ ReceiptReader  = (*Orchestrator)(nil)
)
