package contracts

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fil-builders/onramp-configurator/internal/chain"
	"github.com/fil-builders/onramp-configurator/internal/domain"
)

const (
	MethodSetSourceChains  = "setSourceChains"
	MethodGetSourceChain   = "getSourceChain"
	MethodAddGasFunds      = "addGasFunds"
	MethodProviderGasFunds = "providerGasFunds"
)

// Prover is the destination-chain DealClientAxl contract.
type Prover struct {
	client  chain.Client
	address common.Address
}

func NewProver(client chain.Client, address common.Address) *Prover {
	return &Prover{client: client, address: address}
}

func (p *Prover) Address() common.Address {
	return p.address
}

// SetSourceChainsCall registers every binding in one batched call.
func (p *Prover) SetSourceChainsCall(bindings []domain.ChainBinding) chain.Call {
	ids := make([]*big.Int, 0, len(bindings))
	names := make([]string, 0, len(bindings))
	oracles := make([]common.Address, 0, len(bindings))
	for _, b := range bindings {
		ids = append(ids, new(big.Int).SetUint64(b.SourceChainID))
		names = append(names, b.SourceChainName)
		oracles = append(oracles, b.OracleAddress)
	}

	return p.call(MethodSetSourceChains, nil, ids, names, oracles)
}

// AddGasFundsCall deposits deposit.Amount for the provider. The contract adds
// to the existing balance.
func (p *Prover) AddGasFundsCall(deposit domain.GasDeposit) chain.Call {
	return p.call(MethodAddGasFunds, deposit.Amount, [32]byte(deposit.ProviderID))
}

// GetSourceChain reads the binding stored for chainID. Unbound ids come back
// as a zero binding carrying only the id.
func (p *Prover) GetSourceChain(ctx context.Context, chainID uint64) (domain.ChainBinding, error) {
	values, err := p.client.Read(ctx, p.call(MethodGetSourceChain, nil, new(big.Int).SetUint64(chainID)))
	if err != nil {
		return domain.ChainBinding{}, err
	}
	if len(values) != 2 {
		return domain.ChainBinding{}, fmt.Errorf("%s returned %d values, expected 2", MethodGetSourceChain, len(values))
	}

	name, ok := values[0].(string)
	if !ok {
		return domain.ChainBinding{}, fmt.Errorf("%s returned %T as chain name", MethodGetSourceChain, values[0])
	}
	oracle, ok := values[1].(common.Address)
	if !ok {
		return domain.ChainBinding{}, fmt.Errorf("%s returned %T as oracle", MethodGetSourceChain, values[1])
	}

	return domain.ChainBinding{SourceChainID: chainID, SourceChainName: name, OracleAddress: oracle}, nil
}

func (p *Prover) ProviderGasFunds(ctx context.Context, id domain.ProviderID) (*big.Int, error) {
	values, err := p.client.Read(ctx, p.call(MethodProviderGasFunds, nil, [32]byte(id)))
	if err != nil {
		return nil, err
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("%s returned %d values, expected 1", MethodProviderGasFunds, len(values))
	}

	funds, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%s returned %T", MethodProviderGasFunds, values[0])
	}

	return funds, nil
}

func (p *Prover) call(method string, value *big.Int, args ...any) chain.Call {
	return chain.Call{
		Contract: p.address,
		ABI:      MustABI(ContractNameProver),
		Method:   method,
		Args:     args,
		Value:    value,
	}
}
