package domain

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

type (
	// ChainDescriptor describes one chain of the selected network table.
	ChainDescriptor struct {
		Name              string
		ChainID           uint64
		RPCEndpoint       string
		IsSourceChain     bool
		GatewayAddress    common.Address
		GasServiceAddress common.Address
	}

	// ChainBinding is the tuple registered on the destination prover for one source chain.
	ChainBinding struct {
		SourceChainID   uint64
		SourceChainName string
		OracleAddress   common.Address
	}

	// SenderReceiverPair is held by every source-chain bridge contract.
	// Sender is the destination prover, receiver is the local on-ramp.
	SenderReceiverPair struct {
		Sender   common.Address
		Receiver common.Address
	}

	// ProviderID is a bytes32 storage provider identifier, encoded like
	// ethers.encodeBytes32String.
	ProviderID [32]byte

	// GasDeposit is an additive deposit into the prover's gas funds.
	GasDeposit struct {
		ProviderID ProviderID
		Amount     *big.Int
	}
)

// Role returns "source" or "destination"
func (d ChainDescriptor) Role() string {
	if d.IsSourceChain {
		return "source"
	}
	return "destination"
}

func (d ChainDescriptor) String() string {
	return fmt.Sprintf("%s (%d)", d.Name, d.ChainID)
}

// IsZero reports whether nothing is registered for the chain id.
func (b ChainBinding) IsZero() bool {
	return b.SourceChainName == "" && b.OracleAddress == (common.Address{})
}

// Equal compares names and oracle addresses byte for byte.
func (b ChainBinding) Equal(other ChainBinding) bool {
	return b.SourceChainID == other.SourceChainID &&
		b.SourceChainName == other.SourceChainName &&
		b.OracleAddress == other.OracleAddress
}

func (b ChainBinding) String() string {
	return fmt.Sprintf("%s(%d)=>%s", b.SourceChainName, b.SourceChainID, b.OracleAddress.Hex())
}

func (p SenderReceiverPair) Equal(other SenderReceiverPair) bool {
	return p.Sender == other.Sender && p.Receiver == other.Receiver
}

// NewProviderID encodes a short string into a right-padded bytes32.
// The last byte is reserved for the terminator, so at most 31 bytes are accepted.
func NewProviderID(value string) (ProviderID, error) {
	var id ProviderID
	if value == "" {
		return id, fmt.Errorf("provider id must not be empty")
	}
	if len(value) > 31 {
		return id, fmt.Errorf("provider id '%s' is too long: %d bytes, at most 31 allowed", value, len(value))
	}

	copy(id[:], value)

	return id, nil
}

// String decodes the identifier back, dropping the zero padding.
func (p ProviderID) String() string {
	return strings.TrimRight(string(p[:]), "\x00")
}

// Hex returns the 0x-prefixed bytes32 representation
func (p ProviderID) Hex() string {
	return hexutil.Encode(p[:])
}
