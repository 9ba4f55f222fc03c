package configure

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/fil-builders/onramp-configurator/configs"
	"github.com/fil-builders/onramp-configurator/internal/domain"
)

type (
	BindingAction string

	// BindingResult is the outcome for one intended binding.
	BindingResult struct {
		Binding domain.ChainBinding
		Action  BindingAction
	}

	// TransactionRecord is a confirmed transaction of the run.
	TransactionRecord struct {
		Chain    string
		Contract common.Address
		Method   string
		TxHash   common.Hash
		Block    uint64
		GasUsed  uint64
	}

	SourceResult struct {
		OnRamp common.Address
		Bridge common.Address
		Pair   domain.SenderReceiverPair
	}

	GasResult struct {
		Deposit domain.GasDeposit
		Before  *big.Int
		After   *big.Int
	}

	// Run is the record of one invocation. It is returned for failed runs too.
	Run struct {
		ID           uuid.UUID
		Phase        Phase
		Network      configs.NetworkName
		Target       domain.ChainDescriptor
		Sender       common.Address
		State        State
		StartedAt    time.Time
		FinishedAt   time.Time
		Transitions  []Transition
		Bindings     []BindingResult
		Source       *SourceResult
		Gas          *GasResult
		Transactions []TransactionRecord
		Err          error
	}
)

const (
	BindingSubmitted BindingAction = "submitted"
	BindingUnchanged BindingAction = "unchanged"
	BindingRebound   BindingAction = "rebound"
)

func newRun(phase Phase, network configs.NetworkName, now time.Time) *Run {
	return &Run{
		ID:        uuid.New(),
		Phase:     phase,
		Network:   network,
		State:     StateIdle,
		StartedAt: now,
	}
}

func (r *Run) transition(to State, at time.Time) error {
	if !canTransition(r.State, to) {
		return fmt.Errorf("illegal transition %s -> %s", r.State, to)
	}
	r.Transitions = append(r.Transitions, Transition{From: r.State, To: to, At: at})
	r.State = to
	return nil
}

// Submitted returns the methods of every confirmed transaction, in order.
func (r *Run) Submitted() []string {
	methods := make([]string, 0, len(r.Transactions))
	for _, tx := range r.Transactions {
		methods = append(methods, tx.Method)
	}
	return methods
}
