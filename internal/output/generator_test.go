package output

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/fil-builders/onramp-configurator/internal/infra/filesystem/json"
)

func sampleReport() *Report {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return &Report{
		RunID:   "6f1c2a4e-0000-4000-8000-000000000001",
		Phase:   "ConfigFilecoin",
		Network: "testnet",
		Target:  Chain{Name: "filecoin", ChainID: 314159, Role: "destination"},
		State:   "Complete",
		Transitions: []Transition{
			{From: "Idle", To: "Discovering", At: at},
		},
		Bindings: []Binding{
			{ChainID: 43113, Name: "avalanche", Oracle: "0x3333333333333333333333333333333333333333", Action: "submitted"},
		},
		Gas: &Gas{ProviderID: "t017840", AmountAtto: "1000000000000000000"},
		Transactions: []Transaction{
			{Chain: "filecoin", Method: "setSourceChains", TxHash: "0xabc", Block: 12},
		},
	}
}

func TestMarshalQuotesHex(t *testing.T) {
	data, err := Marshal(sampleReport())
	require.NoError(t, err)

	text := string(data)
	assert.Contains(t, text, "oracle: '0x3333333333333333333333333333333333333333'")
	assert.Contains(t, text, "tx-hash: '0xabc'")
	assert.NotContains(t, text, "error:")

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(data, &decoded))
	assert.Equal(t, "Complete", decoded["state"])
}

func TestGenerate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "run.yaml")
	report := sampleReport()
	report.State = "Failed"
	report.Error = &Error{Kind: "transaction", State: "BindingDestination", Chain: "filecoin", Message: "reverted"}

	require.NoError(t, NewGenerator(json.NewWriter()).Generate(path, report))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "kind: transaction"))
}

func TestGenerateDisabled(t *testing.T) {
	require.NoError(t, NewGenerator(json.NewWriter()).Generate("", sampleReport()))
}
