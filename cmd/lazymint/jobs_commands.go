package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/goliatone/go-lazymint/adapters/gojob"
	"github.com/goliatone/go-lazymint/core"
	"github.com/spf13/cobra"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Queue mints and run the mint worker",
	}
	jobsCmd.AddCommand(newJobsEnqueueCommand(ctx))
	jobsCmd.AddCommand(newJobsWorkCommand(ctx))
	return jobsCmd
}

func newJobsEnqueueCommand(ctx *commandContext) *cobra.Command {
	var callerFlag string
	var paymentFlag string
	var metadataFlags []string
	var keyFlag string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "enqueue",
		Short: "Queue a mint for the worker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := core.ParseAccountID(callerFlag)
			if err != nil {
				return fmt.Errorf("invalid --caller: %w", err)
			}
			payment, err := parsePayment(paymentFlag)
			if err != nil {
				return err
			}
			metadata, err := parseMetadata(metadataFlags)
			if err != nil {
				return err
			}
			msg, err := gojob.NewMintJobMessage(core.MintRequest{
				Caller:   caller,
				Payment:  payment,
				Metadata: metadata,
			}, keyFlag)
			if err != nil {
				return err
			}

			return ctx.withRuntime(cmd.Context(), func(rt *runtime) error {
				jobQueue, err := rt.jobQueue(cmd.Context())
				if err != nil {
					return err
				}
				receipt, err := gojob.NewEnqueuerAdapter(jobQueue).EnqueueWithReceipt(cmd.Context(), msg)
				if err != nil {
					return err
				}
				view := enqueueView{
					DispatchID:     receipt.DispatchID,
					IdempotencyKey: msg.IdempotencyKey,
					EnqueuedAt:     receipt.EnqueuedAt,
				}
				if jsonOutput {
					return writeJSON(cmd, view)
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderFields(view.fields()))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&callerFlag, "caller", "", "Account that pays for and receives the token")
	cmd.Flags().StringVar(&paymentFlag, "payment", "0", "Payment forwarded to the collection, in base units")
	cmd.Flags().StringArrayVar(&metadataFlags, "metadata", nil, "Receipt metadata as key=value (repeatable)")
	cmd.Flags().StringVar(&keyFlag, "key", "", "Idempotency key; queued mints sharing a key mint once")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output JSON")
	_ = cmd.MarkFlagRequired("caller")
	return cmd
}

func newJobsWorkCommand(ctx *commandContext) *cobra.Command {
	policy := gojob.DefaultRetryPolicy()
	var once bool
	var idle time.Duration

	cmd := &cobra.Command{
		Use:   "work",
		Short: "Run queued mints",
		Long: "Run queued mints until interrupted. With --once the worker stops " +
			"as soon as no job is ready.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if policy.MaxAttempts < 1 {
				return fmt.Errorf("invalid --max-attempts %d: expected at least 1", policy.MaxAttempts)
			}
			if policy.BaseDelay < 0 {
				return fmt.Errorf("invalid --retry-delay %s: expected a non-negative duration", policy.BaseDelay)
			}
			return ctx.withRuntime(cmd.Context(), func(rt *runtime) error {
				jobQueue, err := rt.jobQueue(cmd.Context())
				if err != nil {
					return err
				}
				handler := gojob.NewMintJobHandler(rt.orchestrator, policy, nil,
					gojob.WithClaimStore(core.NewMemoryClaimStore(), core.DefaultClaimLease),
				)
				report := &workReport{out: cmd.OutOrStdout()}
				worker := gojob.NewMintWorker(gojob.NewDequeuerAdapter(jobQueue, policy), handler,
					gojob.WithWorkerHooks(report),
					gojob.WithIdleDelay(idle),
				)

				if !once {
					return worker.Run(cmd.Context())
				}
				handled, err := worker.Drain(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Handled %d job(s): %d completed, %d retrying, %d failed\n",
					handled, report.completed, report.retrying, report.failed)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "Stop when no job is ready")
	cmd.Flags().DurationVar(&idle, "idle", time.Second, "Wait between polls of an empty queue")
	cmd.Flags().IntVar(&policy.MaxAttempts, "max-attempts", policy.MaxAttempts, "Attempts before a retryable job is dead-lettered")
	cmd.Flags().DurationVar(&policy.BaseDelay, "retry-delay", policy.BaseDelay, "Delay before the first retry; doubles per attempt")
	return cmd
}

// workReport prints one line per settled job.
type workReport struct {
	out       io.Writer
	completed int
	retrying  int
	failed    int
}

func (r *workReport) OnStart(context.Context, core.JobWorkerEvent) {}

func (r *workReport) OnSuccess(_ context.Context, event core.JobWorkerEvent) {
	r.completed++
	fmt.Fprintf(r.out, "%s attempt %d: completed\n", jobLabel(event), event.Attempt)
}

func (r *workReport) OnRetry(_ context.Context, event core.JobWorkerEvent) {
	r.retrying++
	fmt.Fprintf(r.out, "%s attempt %d: retry in %s: %v\n", jobLabel(event), event.Attempt, event.Delay, event.Err)
}

func (r *workReport) OnFailure(_ context.Context, event core.JobWorkerEvent) {
	r.failed++
	fmt.Fprintf(r.out, "%s attempt %d: dead-lettered: %v\n", jobLabel(event), event.Attempt, event.Err)
}

func jobLabel(event core.JobWorkerEvent) string {
	if event.Message != nil && event.Message.IdempotencyKey != "" {
		return "job " + event.Message.IdempotencyKey
	}
	return "job"
}

type enqueueView struct {
	DispatchID     string    `json:"dispatch_id"`
	IdempotencyKey string    `json:"idempotency_key,omitempty"`
	EnqueuedAt     time.Time `json:"enqueued_at"`
}

func (v enqueueView) fields() [][2]string {
	key := v.IdempotencyKey
	if key == "" {
		key = "-"
	}
	return [][2]string{
		{"Dispatch", v.DispatchID},
		{"Key", key},
		{"Enqueued", v.EnqueuedAt.Format(time.RFC3339)},
	}
}
