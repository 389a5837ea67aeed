package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-lazymint/core"
)

// ContractCall is the JSON body posted to a registry node.
type ContractCall struct {
	Selector string         `json:"selector"`
	Args     map[string]any `json:"args,omitempty"`
	GasLimit uint64         `json:"gas_limit"`
	Value    string         `json:"value,omitempty"`
}

// ContractReply is the node answer. OK=false means the contract ran and
// rejected the call.
type ContractReply struct {
	OK    bool            `json:"ok"`
	Value json.RawMessage `json:"value,omitempty"`
	Error string          `json:"error,omitempty"`
}

// RevertError is a call the registry executed and refused.
type RevertError struct {
	Selector string
	Address  core.AccountID
	Reason   string
}

func (e *RevertError) Error() string {
	reason := e.Reason
	if reason == "" {
		reason = "rejected"
	}
	return fmt.Sprintf("transport: %s on %s: %s", e.Selector, e.Address, reason)
}

// MissingValueError reports an accepted call whose reply lacks the value the
// caller needs, such as a mint reply without the new token id. The node
// accepted the call, so the error is a failure and never unreachable.
type MissingValueError struct {
	Selector string
	Address  core.AccountID
	Reason   string
}

func (e *MissingValueError) Error() string {
	return fmt.Sprintf("transport: %s on %s accepted: %s", e.Selector, e.Address, e.Reason)
}

// RPCDialer reaches collection and catalog contracts through a node endpoint.
type RPCDialer struct {
	Endpoint string
	Adapter  core.TransportAdapter
	Headers  map[string]string
}

func NewRPCDialer(endpoint string, adapter core.TransportAdapter) *RPCDialer {
	if adapter == nil {
		adapter = NewRESTAdapter(nil)
	}
	return &RPCDialer{
		Endpoint: strings.TrimRight(strings.TrimSpace(endpoint), "/"),
		Adapter:  adapter,
		Headers:  map[string]string{},
	}
}

// NewRPCDialerFromRegistry builds the dialer on the adapter registered for
// kind.
func NewRPCDialerFromRegistry(registry *Registry, kind string, endpoint string, config map[string]any) (*RPCDialer, error) {
	adapter, err := registry.Build(kind, config)
	if err != nil {
		return nil, err
	}
	return NewRPCDialer(endpoint, adapter), nil
}

func (d *RPCDialer) Collection(address core.AccountID) (core.CollectionRegistry, error) {
	if err := d.validate(address); err != nil {
		return nil, err
	}
	return &rpcCollection{contract: rpcContract{dialer: d, address: address}}, nil
}

func (d *RPCDialer) Catalog(address core.AccountID) (core.CatalogRegistry, error) {
	if err := d.validate(address); err != nil {
		return nil, err
	}
	return &rpcCatalog{contract: rpcContract{dialer: d, address: address}}, nil
}

func (d *RPCDialer) validate(address core.AccountID) error {
	if d == nil || d.Adapter == nil {
		return fmt.Errorf("transport: rpc dialer is not configured")
	}
	if d.Endpoint == "" {
		return fmt.Errorf("transport: rpc endpoint is required")
	}
	if address.IsZero() {
		return fmt.Errorf("transport: contract address is required")
	}
	return nil
}

type rpcContract struct {
	dialer  *RPCDialer
	address core.AccountID
}

func (c rpcContract) call(ctx context.Context, opts core.CallOptions, args map[string]any, out any) error {
	payload := ContractCall{
		Selector: opts.Selector,
		Args:     args,
		GasLimit: opts.GasLimit,
	}
	if opts.Value != nil && opts.Value.Sign() > 0 {
		payload.Value = opts.Value.String()
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return transportWrapError(err, goerrors.CategoryBadInput, "transport: encode contract call", http.StatusBadRequest, map[string]any{
			"selector": opts.Selector,
		})
	}

	res, err := c.dialer.Adapter.Do(ctx, core.TransportRequest{
		Method:  http.MethodPost,
		URL:     fmt.Sprintf("%s/contracts/%s/call", c.dialer.Endpoint, c.address),
		Headers: c.dialer.Headers,
		Body:    body,
		Timeout: opts.Timeout,
		Metadata: map[string]any{
			"selector": opts.Selector,
		},
	})
	if err != nil {
		return unreachable(err)
	}
	metadata := map[string]any{
		"selector":    opts.Selector,
		"address":     c.address.String(),
		"status_code": res.StatusCode,
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return unreachable(transportError(
			fmt.Sprintf("transport: %s returned status %d", opts.Selector, res.StatusCode),
			goerrors.CategoryExternal,
			http.StatusBadGateway,
			metadata,
		))
	}

	var reply ContractReply
	if err := json.Unmarshal(res.Body, &reply); err != nil {
		return unreachable(transportWrapError(err, goerrors.CategoryExternal, "transport: decode contract reply", http.StatusBadGateway, metadata))
	}
	if !reply.OK {
		return &RevertError{Selector: opts.Selector, Address: c.address, Reason: strings.TrimSpace(reply.Error)}
	}
	if out == nil {
		return nil
	}
	if len(reply.Value) == 0 {
		return &MissingValueError{Selector: opts.Selector, Address: c.address, Reason: "reply has no value"}
	}
	if err := json.Unmarshal(reply.Value, out); err != nil {
		return &MissingValueError{Selector: opts.Selector, Address: c.address, Reason: "decode value: " + err.Error()}
	}
	return nil
}

type rpcCollection struct {
	contract rpcContract
}

func (c *rpcCollection) TotalAssets(ctx context.Context, opts core.CallOptions) (uint32, error) {
	var total uint32
	if err := c.contract.call(ctx, opts, nil, &total); err != nil {
		return 0, err
	}
	return total, nil
}

func (c *rpcCollection) Mint(ctx context.Context, opts core.CallOptions) (core.TokenID, error) {
	var tokenID uint64
	if err := c.contract.call(ctx, opts, nil, &tokenID); err != nil {
		return 0, err
	}
	return core.TokenID(tokenID), nil
}

func (c *rpcCollection) AddAssetToToken(ctx context.Context, opts core.CallOptions, tokenID core.TokenID, assetID uint32) error {
	return c.contract.call(ctx, opts, map[string]any{
		"token_id": uint64(tokenID),
		"asset_id": assetID,
	}, nil)
}

func (c *rpcCollection) Transfer(ctx context.Context, opts core.CallOptions, to core.AccountID, tokenID core.TokenID) error {
	return c.contract.call(ctx, opts, map[string]any{
		"to":       to.String(),
		"token_id": uint64(tokenID),
		"data":     "",
	}, nil)
}

type rpcCatalog struct {
	contract rpcContract
}

func (c *rpcCatalog) PartsCount(ctx context.Context, opts core.CallOptions) (uint32, error) {
	var count uint32
	if err := c.contract.call(ctx, opts, nil, &count); err != nil {
		return 0, err
	}
	return count, nil
}

var (
	_ core.RegistryDialer     = (*RPCDialer)(nil)
	_ core.CollectionRegistry = (*rpcCollection)(nil)
	_ core.CatalogRegistry    = (*rpcCatalog)(nil)
)
