package output

import (
	"time"

	"gopkg.in/yaml.v3"
)

type (
	// Report is the YAML document written after every configuration run,
	// successful or not.
	Report struct {
		RunID        string        `yaml:"run-id"`
		Phase        string        `yaml:"phase"`
		Dependency   string        `yaml:"dependency"`
		Network      string        `yaml:"network"`
		Target       Chain         `yaml:"target"`
		State        string        `yaml:"state"`
		StartedAt    time.Time     `yaml:"started-at"`
		FinishedAt   time.Time     `yaml:"finished-at"`
		Duration     string        `yaml:"duration"`
		Sender       HexString     `yaml:"sender,omitempty"`
		Transitions  []Transition  `yaml:"transitions"`
		Bindings     []Binding     `yaml:"bindings,omitempty"`
		Source       *Source       `yaml:"source,omitempty"`
		Gas          *Gas          `yaml:"gas,omitempty"`
		Transactions []Transaction `yaml:"transactions"`
		Error        *Error        `yaml:"error,omitempty"`
	}

	Chain struct {
		Name    string `yaml:"name"`
		ChainID uint64 `yaml:"chain-id"`
		Role    string `yaml:"role"`
	}

	Transition struct {
		From string    `yaml:"from"`
		To   string    `yaml:"to"`
		At   time.Time `yaml:"at"`
	}

	// Binding is one source chain registered on the prover.
	// Action is "submitted", "unchanged" or "rebound".
	Binding struct {
		ChainID uint64    `yaml:"chain-id"`
		Name    string    `yaml:"name"`
		Oracle  HexString `yaml:"oracle"`
		Action  string    `yaml:"action"`
	}

	Source struct {
		OnRamp   HexString `yaml:"on-ramp"`
		Bridge   HexString `yaml:"bridge"`
		Sender   HexString `yaml:"sender"`
		Receiver HexString `yaml:"receiver"`
	}

	Gas struct {
		ProviderID    string    `yaml:"provider-id"`
		ProviderIDHex HexString `yaml:"provider-id-hex"`
		AmountAtto    string    `yaml:"amount-atto"`
		Before        string    `yaml:"before,omitempty"`
		After         string    `yaml:"after,omitempty"`
	}

	Transaction struct {
		Chain    string    `yaml:"chain"`
		Contract HexString `yaml:"contract"`
		Method   string    `yaml:"method"`
		TxHash   HexString `yaml:"tx-hash"`
		Block    uint64    `yaml:"block"`
		GasUsed  uint64    `yaml:"gas-used"`
	}

	Error struct {
		Kind    string `yaml:"kind"`
		State   string `yaml:"state"`
		Chain   string `yaml:"chain,omitempty"`
		Message string `yaml:"message"`
	}

	// HexString is always emitted single-quoted so 0x values stay strings for any YAML reader.
	HexString string
)

func (s HexString) MarshalYAML() (any, error) {
	node := &yaml.Node{
		Kind:  yaml.ScalarNode,
		Style: yaml.SingleQuotedStyle,
		Value: string(s),
	}
	return node, nil
}
