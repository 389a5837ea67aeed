package core

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"time"
)

// AccountID is a 32 byte registry account address.
type AccountID [32]byte

var ZeroAccountID AccountID

func ParseAccountID(raw string) (AccountID, error) {
	trimmed := strings.TrimSpace(raw)
	trimmed = strings.TrimPrefix(strings.TrimPrefix(trimmed, "0x"), "0X")
	if trimmed == "" {
		return AccountID{}, fmt.Errorf("core: account id is required")
	}
	if len(trimmed) != hex.EncodedLen(len(AccountID{})) {
		return AccountID{}, fmt.Errorf("core: invalid account id length %d", len(trimmed))
	}
	var out AccountID
	if _, err := hex.Decode(out[:], []byte(trimmed)); err != nil {
		return AccountID{}, fmt.Errorf("core: invalid account id: %w", err)
	}
	return out, nil
}

func MustParseAccountID(raw string) AccountID {
	id, err := ParseAccountID(raw)
	if err != nil {
		panic(err)
	}
	return id
}

// AccountIDFromByte returns an address with every byte set to b. Handy for
// fixtures.
func AccountIDFromByte(b byte) AccountID {
	var out AccountID
	for i := range out {
		out[i] = b
	}
	return out
}

func (a AccountID) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

func (a AccountID) IsZero() bool {
	return a == ZeroAccountID
}

func (a AccountID) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *AccountID) UnmarshalText(text []byte) error {
	parsed, err := ParseAccountID(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

type TokenID uint64

type OrchestratorState struct {
	ID                string
	CollectionAddress AccountID
	CatalogAddress    AccountID
	SequenceCounter   uint64
	UpdatedAt         time.Time
}

type MintRequest struct {
	Caller   AccountID
	Payment  *big.Int
	Metadata map[string]any
}

type CallStatus string

const (
	CallStatusSuccess     CallStatus = "success"
	CallStatusFailure     CallStatus = "failure"
	CallStatusUnreachable CallStatus = "unreachable"
)

// CallOutcome is the tagged result of a single registry call.
type CallOutcome struct {
	Status CallStatus
	Reason string
	Err    error
}

func (o CallOutcome) Succeeded() bool {
	return o.Status == CallStatusSuccess
}

type StepRecord struct {
	Step      Step
	Outcome   CallOutcome
	StartedAt time.Time
	Duration  time.Duration
}

// MintResult describes one run of the mint sequence. State is terminal;
// Reached is the last state entered, which differs from State after an abort.
type MintResult struct {
	TokenID       TokenID
	AssetIndex    uint32
	TotalAssets   uint32
	Sequence      uint64
	Timestamp     uint64
	Drawn         bool
	AttachSkipped bool
	State         SequenceState
	Reached       SequenceState
	Steps         []StepRecord
}

type MintReceiptStatus string

const (
	MintReceiptCompleted MintReceiptStatus = "completed"
	MintReceiptAborted   MintReceiptStatus = "aborted"
)

// MintReceipt is the durable trace of one mint attempt. Aborts that happen
// after the token was minted leave registry side effects behind; the receipt
// keeps enough context to reconcile them.
type MintReceipt struct {
	ID                string
	OrchestratorID    string
	Caller            AccountID
	CollectionAddress AccountID
	Payment           string
	Status            MintReceiptStatus
	State             SequenceState
	ErrorCode         string
	TokenID           *TokenID
	AssetIndex        *uint32
	TotalAssets       uint32
	Sequence          *uint64
	AttachSkipped     bool
	Metadata          map[string]any
	CreatedAt         time.Time
}

func copyAnyMap(in map[string]any) map[string]any {
	if len(in) == 0 {
		return map[string]any{}
	}
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}

func paymentString(payment *big.Int) string {
	if payment == nil {
		return "0"
	}
	return payment.String()
}
