package contracts

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fil-builders/onramp-configurator/internal/chain"
	"github.com/fil-builders/onramp-configurator/internal/domain"
)

const (
	MethodSetSenderReceiver = "setSenderReceiver"
	MethodSender            = "sender"
	MethodReceiver          = "receiver"
	MethodSetOracle         = "setOracle"
	MethodOracle            = "oracle"
)

// Bridge is the source-chain AxelarBridge contract.
type Bridge struct {
	client  chain.Client
	address common.Address
}

func NewBridge(client chain.Client, address common.Address) *Bridge {
	return &Bridge{client: client, address: address}
}

func (b *Bridge) Address() common.Address {
	return b.address
}

func (b *Bridge) SetSenderReceiverCall(pair domain.SenderReceiverPair) chain.Call {
	return chain.Call{
		Contract: b.address,
		ABI:      MustABI(ContractNameBridge),
		Method:   MethodSetSenderReceiver,
		Args:     []any{pair.Sender, pair.Receiver},
	}
}

// SenderReceiver reads both addresses.
func (b *Bridge) SenderReceiver(ctx context.Context) (domain.SenderReceiverPair, error) {
	sender, err := readAddress(ctx, b.client, b.address, ContractNameBridge, MethodSender)
	if err != nil {
		return domain.SenderReceiverPair{}, err
	}
	receiver, err := readAddress(ctx, b.client, b.address, ContractNameBridge, MethodReceiver)
	if err != nil {
		return domain.SenderReceiverPair{}, err
	}

	return domain.SenderReceiverPair{Sender: sender, Receiver: receiver}, nil
}

// OnRamp is the source-chain OnRampContract.
type OnRamp struct {
	client  chain.Client
	address common.Address
}

func NewOnRamp(client chain.Client, address common.Address) *OnRamp {
	return &OnRamp{client: client, address: address}
}

func (o *OnRamp) Address() common.Address {
	return o.address
}

func (o *OnRamp) SetOracleCall(oracle common.Address) chain.Call {
	return chain.Call{
		Contract: o.address,
		ABI:      MustABI(ContractNameOnRamp),
		Method:   MethodSetOracle,
		Args:     []any{oracle},
	}
}

func (o *OnRamp) Oracle(ctx context.Context) (common.Address, error) {
	return readAddress(ctx, o.client, o.address, ContractNameOnRamp, MethodOracle)
}

func readAddress(ctx context.Context, client chain.Client, address common.Address, contract ContractName, method string) (common.Address, error) {
	values, err := client.Read(ctx, chain.Call{Contract: address, ABI: MustABI(contract), Method: method})
	if err != nil {
		return common.Address{}, err
	}
	if len(values) != 1 {
		return common.Address{}, fmt.Errorf("%s.%s returned %d values, expected 1", contract, method, len(values))
	}

	addr, ok := values[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("%s.%s returned %T", contract, method, values[0])
	}

	return addr, nil
}
