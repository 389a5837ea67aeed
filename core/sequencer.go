package core

import (
	"context"
	"fmt"
	"math/big"
	"time"
)

type Step string

const (
	StepReadTotalAssets Step = "read_total_assets"
	StepMint            Step = "mint"
	StepAddAsset        Step = "add_asset"
	StepTransfer        Step = "transfer"
)

// Steps lists the mint sequence in execution order.
var Steps = []Step{StepReadTotalAssets, StepMint, StepAddAsset, StepTransfer}

type SequenceState string

const (
	StateStart         SequenceState = "start"
	StateCountRead     SequenceState = "count_read"
	StateMinted        SequenceState = "minted"
	StateAssetAttached SequenceState = "asset_attached"
	StateCompleted     SequenceState = "completed"
	StateAborted       SequenceState = "aborted"
)

type FailureAction string

const (
	FailureActionAbort    FailureAction = "abort"
	FailureActionContinue FailureAction = "continue"
)

// stepAbortKinds is the error surfaced when a step fails under an abort
// action.
var stepAbortKinds = map[Step]ErrorKind{
	StepReadTotalAssets: ErrorRegistryUnreachable,
	StepMint:            ErrorMinting,
	StepAddAsset:        ErrorAddTokenAsset,
	StepTransfer:        ErrorOwnershipTransfer,
}

// FailurePolicy is the abort-or-continue table consulted after each step.
// Only the asset attachment step may be configured to continue; the count
// read, the mint and the transfer always abort.
type FailurePolicy struct {
	actions map[Step]FailureAction
}

func HardenedFailurePolicy() FailurePolicy {
	return FailurePolicy{actions: map[Step]FailureAction{
		StepReadTotalAssets: FailureActionAbort,
		StepMint:            FailureActionAbort,
		StepAddAsset:        FailureActionAbort,
		StepTransfer:        FailureActionAbort,
	}}
}

func LegacyFailurePolicy() FailurePolicy {
	return HardenedFailurePolicy().With(StepAddAsset, FailureActionContinue)
}

// With returns a copy of p with step mapped to action. Requests to make a
// fixed step continue are ignored.
func (p FailurePolicy) With(step Step, action FailureAction) FailurePolicy {
	next := p.Table()
	if action != FailureActionContinue {
		action = FailureActionAbort
	}
	if step != StepAddAsset {
		action = FailureActionAbort
	}
	next[step] = action
	return FailurePolicy{actions: next}
}

func (p FailurePolicy) Action(step Step) FailureAction {
	if action, ok := p.actions[step]; ok {
		return action
	}
	return FailureActionAbort
}

func (p FailurePolicy) Table() map[Step]FailureAction {
	out := make(map[Step]FailureAction, len(Steps))
	for _, step := range Steps {
		out[step] = p.Action(step)
	}
	return out
}

type SequenceInput struct {
	CollectionAddress AccountID
	Caller            AccountID
	Payment           *big.Int
}

// ToleratedFailureFunc observes a step failure the policy chose to swallow.
type ToleratedFailureFunc func(ctx context.Context, record StepRecord)

type Sequencer struct {
	gateway     *Gateway
	selector    *Selector
	clock       BlockClock
	policy      FailurePolicy
	onTolerated ToleratedFailureFunc
	nowFn       func() time.Time
}

func NewSequencer(gateway *Gateway, selector *Selector, clock BlockClock, policy FailurePolicy) *Sequencer {
	if clock == nil {
		clock = SystemBlockClock{}
	}
	if policy.actions == nil {
		policy = HardenedFailurePolicy()
	}
	return &Sequencer{
		gateway:  gateway,
		selector: selector,
		clock:    clock,
		policy:   policy,
		nowFn:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *Sequencer) OnTolerated(fn ToleratedFailureFunc) {
	if s != nil {
		s.onTolerated = fn
	}
}

func (s *Sequencer) Policy() FailurePolicy {
	if s == nil {
		return HardenedFailurePolicy()
	}
	return FailurePolicy{actions: s.policy.Table()}
}

// Run executes read-count, mint, select+attach and transfer in order. On
// abort the returned result still describes how far the sequence got; effects
// already committed on the registry are not compensated.
func (s *Sequencer) Run(ctx context.Context, in SequenceInput) (MintResult, error) {
	result := MintResult{State: StateStart, Reached: StateStart}
	if s == nil || s.gateway == nil || s.selector == nil {
		result.State = StateAborted
		return result, NewError(ErrorInternal, "core: sequencer is not configured")
	}

	timestamp, err := s.clock.BlockTimestamp(ctx)
	if err != nil {
		result.State = StateAborted
		return result, WrapError(err, ErrorInternal, "core: read block timestamp")
	}
	result.Timestamp = timestamp

	var total uint32
	outcome := s.step(ctx, &result, StepReadTotalAssets, func() CallOutcome {
		var callOutcome CallOutcome
		total, callOutcome = s.gateway.ReadTotalAssets(ctx, in.CollectionAddress)
		return callOutcome
	})
	if !outcome.Succeeded() {
		return s.abort(&result, StepReadTotalAssets, StateStart, outcome)
	}
	result.TotalAssets = total
	if err := validateAssetCount(total); err != nil {
		result.State = StateAborted
		return result, err
	}
	result.advance(StateCountRead)

	var tokenID TokenID
	outcome = s.step(ctx, &result, StepMint, func() CallOutcome {
		var callOutcome CallOutcome
		tokenID, callOutcome = s.gateway.MintToken(ctx, in.CollectionAddress, in.Payment)
		return callOutcome
	})
	if !outcome.Succeeded() {
		return s.abort(&result, StepMint, StateCountRead, outcome)
	}
	result.TokenID = tokenID
	result.advance(StateMinted)

	draw, err := s.selector.Draw(ctx, timestamp, total)
	if err != nil {
		result.State = StateAborted
		return result, withSequenceMetadata(err, StepAddAsset, StateMinted, &result)
	}
	result.AssetIndex = draw.Index
	result.Sequence = draw.Sequence
	result.Drawn = true

	outcome = s.step(ctx, &result, StepAddAsset, func() CallOutcome {
		return s.gateway.AddAssetToToken(ctx, in.CollectionAddress, tokenID, draw.Index)
	})
	if !outcome.Succeeded() {
		if s.policy.Action(StepAddAsset) == FailureActionAbort {
			return s.abort(&result, StepAddAsset, StateMinted, outcome)
		}
		result.AttachSkipped = true
		if s.onTolerated != nil {
			s.onTolerated(ctx, result.Steps[len(result.Steps)-1])
		}
	}
	result.advance(StateAssetAttached)

	outcome = s.step(ctx, &result, StepTransfer, func() CallOutcome {
		return s.gateway.TransferToken(ctx, in.CollectionAddress, tokenID, in.Caller)
	})
	if !outcome.Succeeded() {
		return s.abort(&result, StepTransfer, StateAssetAttached, outcome)
	}
	result.advance(StateCompleted)
	return result, nil
}

func (r *MintResult) advance(state SequenceState) {
	r.State = state
	r.Reached = state
}

func (s *Sequencer) step(ctx context.Context, result *MintResult, step Step, call func() CallOutcome) CallOutcome {
	startedAt := s.nowFn()
	var outcome CallOutcome
	if err := ctx.Err(); err != nil {
		outcome = classifyCall(err)
	} else {
		outcome = call()
	}
	result.Steps = append(result.Steps, StepRecord{
		Step:      step,
		Outcome:   outcome,
		StartedAt: startedAt,
		Duration:  s.nowFn().Sub(startedAt),
	})
	return outcome
}

func (s *Sequencer) abort(result *MintResult, step Step, reached SequenceState, outcome CallOutcome) (MintResult, error) {
	kind, ok := stepAbortKinds[step]
	if !ok {
		kind = ErrorInternal
	}
	message := fmt.Sprintf("core: %s failed (%s)", step, outcome.Status)
	if outcome.Reason != "" {
		message = fmt.Sprintf("%s: %s", message, outcome.Reason)
	}
	err := WrapError(outcome.Err, kind, message)
	result.State = StateAborted
	return *result, withSequenceMetadata(err, step, reached, result)
}

func withSequenceMetadata(err error, step Step, reached SequenceState, result *MintResult) error {
	richErr := lazymintErrorMapper(err)
	if richErr == nil {
		return err
	}
	metadata := map[string]any{
		"step":          string(step),
		"reached_state": string(reached),
		"total_assets":  result.TotalAssets,
	}
	if reached == StateMinted || reached == StateAssetAttached {
		metadata["token_id"] = uint64(result.TokenID)
	}
	if result.Drawn {
		metadata["asset_index"] = result.AssetIndex
		metadata["sequence"] = result.Sequence
	}
	richErr.WithMetadata(metadata)
	return richErr
}
