package domain

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// DeploymentRecord is the persisted address of one contract deployed on one chain.
// NOTE: hardhat-deploy artifacts carry more fields (abi, receipt, args); only the
// ones the configurator consumes are kept here.
type DeploymentRecord struct {
	ChainName    string
	ContractName string
	Address      common.Address
	DeployTxHash *common.Hash
}

// ArtifactFile is the on-disk representation of a deployment artifact
// (deployments/<chain>/<Contract>.json)
type ArtifactFile struct {
	Address         string `json:"address"`
	TransactionHash string `json:"transactionHash,omitempty"`
}

// ToRecord validates the artifact file and converts it into a DeploymentRecord
func (f ArtifactFile) ToRecord(chainName, contractName string) (DeploymentRecord, error) {
	if !common.IsHexAddress(f.Address) {
		return DeploymentRecord{}, fmt.Errorf("artifact %s/%s has invalid address '%s'", chainName, contractName, f.Address)
	}

	record := DeploymentRecord{
		ChainName:    chainName,
		ContractName: contractName,
		Address:      common.HexToAddress(f.Address),
	}

	if f.TransactionHash != "" {
		hash := common.HexToHash(f.TransactionHash)
		record.DeployTxHash = &hash
	}

	return record, nil
}

// ArtifactFileFromRecord is the inverse of ArtifactFile.ToRecord
func ArtifactFileFromRecord(record DeploymentRecord) ArtifactFile {
	file := ArtifactFile{Address: record.Address.Hex()}
	if record.DeployTxHash != nil {
		file.TransactionHash = record.DeployTxHash.Hex()
	}
	return file
}
