package gojob

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strings"
	"time"

	"github.com/goliatone/go-lazymint/adapters/gologger"
	"github.com/goliatone/go-lazymint/core"
	glog "github.com/goliatone/go-logger/glog"
)

const (
	ParamCaller   = "caller"
	ParamPayment  = "payment"
	ParamMetadata = "metadata"

	mintScriptPath = "lazymint/mint"
)

// NewMintJobMessage encodes req as a queue message. Payment travels as a
// decimal string so values above 2^53 survive JSON transports.
func NewMintJobMessage(req core.MintRequest, idempotencyKey string) (*core.JobExecutionMessage, error) {
	if req.Caller.IsZero() {
		return nil, core.NewError(core.ErrorBadInput, "gojob: mint caller is required")
	}
	payment := "0"
	if req.Payment != nil {
		if req.Payment.Sign() < 0 {
			return nil, core.NewError(core.ErrorBadInput, "gojob: mint payment must not be negative")
		}
		payment = req.Payment.String()
	}
	params := map[string]any{
		ParamCaller:  req.Caller.String(),
		ParamPayment: payment,
	}
	if len(req.Metadata) > 0 {
		params[ParamMetadata] = copyAnyMap(req.Metadata)
	}
	return &core.JobExecutionMessage{
		JobID:          JobIDMint,
		ScriptPath:     mintScriptPath,
		Parameters:     params,
		IdempotencyKey: strings.TrimSpace(idempotencyKey),
	}, nil
}

// DecodeMintRequest reads the caller, payment and metadata parameters of a
// mint job.
func DecodeMintRequest(msg *core.JobExecutionMessage) (core.MintRequest, error) {
	if msg == nil {
		return core.MintRequest{}, core.NewError(core.ErrorBadInput, "gojob: execution message is required")
	}
	if strings.TrimSpace(msg.JobID) != JobIDMint {
		return core.MintRequest{}, core.NewError(core.ErrorBadInput, fmt.Sprintf("gojob: unexpected job id %q", msg.JobID))
	}
	rawCaller, _ := msg.Parameters[ParamCaller].(string)
	caller, err := core.ParseAccountID(rawCaller)
	if err != nil {
		return core.MintRequest{}, core.WrapError(err, core.ErrorBadInput, "gojob: invalid mint caller")
	}
	payment, err := decodePayment(msg.Parameters[ParamPayment])
	if err != nil {
		return core.MintRequest{}, core.WrapError(err, core.ErrorBadInput, "gojob: invalid mint payment")
	}
	req := core.MintRequest{Caller: caller, Payment: payment}
	if metadata, ok := msg.Parameters[ParamMetadata].(map[string]any); ok {
		req.Metadata = copyAnyMap(metadata)
	}
	return req, nil
}

func decodePayment(raw any) (*big.Int, error) {
	out := new(big.Int)
	switch value := raw.(type) {
	case nil:
		return out, nil
	case string:
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			return out, nil
		}
		if _, ok := out.SetString(trimmed, 10); !ok {
			return nil, fmt.Errorf("payment %q is not a decimal integer", value)
		}
	case json.Number:
		if _, ok := out.SetString(value.String(), 10); !ok {
			return nil, fmt.Errorf("payment %q is not a decimal integer", value)
		}
	case int:
		out.SetInt64(int64(value))
	case int64:
		out.SetInt64(value)
	case uint64:
		out.SetUint64(value)
	case float64:
		if value != math.Trunc(value) || value > 1<<53 {
			return nil, fmt.Errorf("payment %v is not an exact integer", value)
		}
		out.SetInt64(int64(value))
	default:
		return nil, fmt.Errorf("unsupported payment type %T", raw)
	}
	if out.Sign() < 0 {
		return nil, fmt.Errorf("payment must not be negative")
	}
	return out, nil
}

type attemptNacker interface {
	NackForAttempt(ctx context.Context, opts core.JobNackOptions, attempt int) error
}

// MintJobHandler runs queued mint jobs against a Minter.
type MintJobHandler struct {
	minter     core.Minter
	policy     RetryPolicy
	logger     glog.Logger
	claims     core.IdempotencyClaimStore
	claimLease time.Duration
}

type MintJobOption func(*MintJobHandler)

// WithClaimStore deduplicates deliveries that carry an idempotency key. A key
// whose mint completed, or failed after the registry minted, is acked without
// minting again until the claim lease expires.
func WithClaimStore(store core.IdempotencyClaimStore, lease time.Duration) MintJobOption {
	return func(h *MintJobHandler) {
		h.claims = store
		h.claimLease = lease
	}
}

func NewMintJobHandler(minter core.Minter, policy RetryPolicy, logger glog.Logger, opts ...MintJobOption) *MintJobHandler {
	_, resolved := gologger.Resolve(gologger.DefaultLoggerName+".jobs", nil, logger)
	handler := &MintJobHandler{
		minter:     minter,
		policy:     policy,
		logger:     glog.Ensure(resolved),
		claimLease: core.DefaultClaimLease,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(handler)
		}
	}
	return handler
}

// Handle decodes the delivery, mints and settles the delivery. The mint error
// is returned after the delivery has been nacked.
func (h *MintJobHandler) Handle(ctx context.Context, delivery core.JobDelivery, attempt int) (core.MintResult, error) {
	if h == nil || h.minter == nil {
		return core.MintResult{}, core.NewError(core.ErrorInternal, "gojob: mint handler is not configured")
	}
	if delivery == nil {
		return core.MintResult{}, core.NewError(core.ErrorBadInput, "gojob: delivery is required")
	}

	msg := delivery.Message()
	req, err := DecodeMintRequest(msg)
	if err != nil {
		h.logger.Error("mint job rejected", "attempt", attempt, "error", err.Error())
		return core.MintResult{}, h.nack(ctx, delivery, core.JobNackOptions{
			DeadLetter: true,
			Reason:     err.Error(),
		}, attempt, err)
	}

	claimID, duplicate, err := h.claim(ctx, msg)
	if err != nil {
		opts := core.JobNackOptions{Requeue: true, Delay: h.policy.backoff(attempt), Reason: err.Error()}
		return core.MintResult{}, h.nack(ctx, delivery, opts, attempt, err)
	}
	if duplicate {
		h.logger.Info("mint job deduplicated",
			"attempt", attempt,
			"caller", req.Caller.String(),
			"idempotency_key", msg.IdempotencyKey,
		)
		if ackErr := delivery.Ack(ctx); ackErr != nil {
			return core.MintResult{}, fmt.Errorf("gojob: ack duplicate mint delivery: %w", ackErr)
		}
		return core.MintResult{}, nil
	}

	result, err := h.minter.Mint(ctx, req)
	if err != nil {
		opts := h.policy.Classify(err, attempt)
		h.logger.Warn("mint job failed",
			"attempt", attempt,
			"caller", req.Caller.String(),
			"dead_letter", opts.DeadLetter,
			"error_code", string(core.KindOf(err)),
			"requeue", opts.Requeue,
		)
		h.settleFailure(ctx, claimID, result, err)
		return result, h.nack(ctx, delivery, opts, attempt, err)
	}

	h.settle(ctx, claimID)
	if ackErr := delivery.Ack(ctx); ackErr != nil {
		return result, fmt.Errorf("gojob: ack mint delivery: %w", ackErr)
	}
	h.logger.Info("mint job completed",
		"asset_index", result.AssetIndex,
		"attempt", attempt,
		"caller", req.Caller.String(),
		"token_id", uint64(result.TokenID),
	)
	return result, nil
}

func (h *MintJobHandler) claim(ctx context.Context, msg *core.JobExecutionMessage) (string, bool, error) {
	if h.claims == nil || msg == nil {
		return "", false, nil
	}
	key := strings.TrimSpace(msg.IdempotencyKey)
	if key == "" {
		return "", false, nil
	}
	claimID, accepted, err := h.claims.Claim(ctx, JobIDMint+":"+key, h.claimLease)
	if err != nil {
		return "", false, fmt.Errorf("gojob: claim mint delivery: %w", err)
	}
	return claimID, !accepted, nil
}

func (h *MintJobHandler) settle(ctx context.Context, claimID string) {
	if h.claims == nil || claimID == "" {
		return
	}
	if err := h.claims.Complete(ctx, claimID); err != nil {
		h.logger.Warn("mint job claim completion failed", "claim_id", claimID, "error", err.Error())
	}
}

// settleFailure keeps the claim when the registry already minted, so a
// replay of the same key cannot mint a second token.
func (h *MintJobHandler) settleFailure(
	ctx context.Context,
	claimID string,
	result core.MintResult,
	cause error,
) {
	if h.claims == nil || claimID == "" {
		return
	}
	switch result.Reached {
	case core.StateMinted, core.StateAssetAttached, core.StateCompleted:
		h.settle(ctx, claimID)
		return
	}
	if err := h.claims.Fail(ctx, claimID, cause, time.Time{}); err != nil {
		h.logger.Warn("mint job claim release failed", "claim_id", claimID, "error", err.Error())
	}
}

func (h *MintJobHandler) nack(
	ctx context.Context,
	delivery core.JobDelivery,
	opts core.JobNackOptions,
	attempt int,
	cause error,
) error {
	var nackErr error
	if bounded, ok := delivery.(attemptNacker); ok {
		nackErr = bounded.NackForAttempt(ctx, opts, attempt)
	} else {
		nackErr = delivery.Nack(ctx, h.policy.NormalizeAttempt(opts, attempt))
	}
	if nackErr != nil {
		return fmt.Errorf("gojob: nack mint delivery: %w (cause: %v)", nackErr, cause)
	}
	return cause
}
