package configure

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fil-builders/onramp-configurator/internal/output"
)

// Report converts the run into the YAML report model.
func (r *Run) Report() *output.Report {
	report := &output.Report{
		RunID:      r.ID.String(),
		Phase:      string(r.Phase),
		Dependency: r.Phase.Dependency(),
		Network:    string(r.Network),
		Target: output.Chain{
			Name:    r.Target.Name,
			ChainID: r.Target.ChainID,
			Role:    r.Target.Role(),
		},
		State:      r.State.String(),
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Duration:   r.FinishedAt.Sub(r.StartedAt).String(),
	}
	if r.Target.Name == "" {
		report.Target.Role = ""
	}
	if r.Sender != (common.Address{}) {
		report.Sender = output.HexString(r.Sender.Hex())
	}

	for _, t := range r.Transitions {
		report.Transitions = append(report.Transitions, output.Transition{From: t.From.String(), To: t.To.String(), At: t.At})
	}

	for _, b := range r.Bindings {
		report.Bindings = append(report.Bindings, output.Binding{
			ChainID: b.Binding.SourceChainID,
			Name:    b.Binding.SourceChainName,
			Oracle:  output.HexString(b.Binding.OracleAddress.Hex()),
			Action:  string(b.Action),
		})
	}

	if r.Source != nil {
		report.Source = &output.Source{
			OnRamp:   output.HexString(r.Source.OnRamp.Hex()),
			Bridge:   output.HexString(r.Source.Bridge.Hex()),
			Sender:   output.HexString(r.Source.Pair.Sender.Hex()),
			Receiver: output.HexString(r.Source.Pair.Receiver.Hex()),
		}
	}

	if r.Gas != nil {
		report.Gas = &output.Gas{
			ProviderID:    r.Gas.Deposit.ProviderID.String(),
			ProviderIDHex: output.HexString(r.Gas.Deposit.ProviderID.Hex()),
			AmountAtto:    r.Gas.Deposit.Amount.String(),
		}
		if r.Gas.Before != nil {
			report.Gas.Before = r.Gas.Before.String()
		}
		if r.Gas.After != nil {
			report.Gas.After = r.Gas.After.String()
		}
	}

	report.Transactions = make([]output.Transaction, 0, len(r.Transactions))
	for _, tx := range r.Transactions {
		report.Transactions = append(report.Transactions, output.Transaction{
			Chain:    tx.Chain,
			Contract: output.HexString(tx.Contract.Hex()),
			Method:   tx.Method,
			TxHash:   output.HexString(tx.TxHash.Hex()),
			Block:    tx.Block,
			GasUsed:  tx.GasUsed,
		})
	}

	if r.Err != nil {
		report.Error = &output.Error{Kind: ErrorKind(r.Err), Message: r.Err.Error()}
		var runErr *RunError
		if errors.As(r.Err, &runErr) {
			report.Error.State = runErr.State.String()
			report.Error.Chain = runErr.Chain
		}
	}

	return report
}
