package domain

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Sentinel errors, one per failure kind. Typed errors below match them through errors.Is.
var (
	ErrConfiguration        = errors.New("configuration error")
	ErrMissingArtifact      = errors.New("missing deployment artifact")
	ErrTransaction          = errors.New("transaction error")
	ErrVerificationMismatch = errors.New("verification mismatch")
	ErrConflictingBinding   = errors.New("conflicting binding")
)

// ConfigurationError reports an invalid run target, environment selector or chain name.
type ConfigurationError struct {
	Reason string
	Err    error
}

func NewConfigurationError(format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration error: %s: %v", e.Reason, e.Err)
	}
	return "configuration error: " + e.Reason
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// MissingArtifactError reports an absent deployment record.
type MissingArtifactError struct {
	ChainName    string
	ContractName string
}

func (e *MissingArtifactError) Error() string {
	return fmt.Sprintf("deployment artifact '%s' not found for chain '%s'", e.ContractName, e.ChainName)
}

func (e *MissingArtifactError) Is(target error) bool { return target == ErrMissingArtifact }

// TransactionError reports a failed submission, a reverted receipt or a confirmation timeout.
type TransactionError struct {
	ChainName string
	Contract  common.Address
	Method    string
	TxHash    common.Hash
	Err       error
}

func (e *TransactionError) Error() string {
	msg := fmt.Sprintf("transaction %s on %s (contract %s)", e.Method, e.ChainName, e.Contract.Hex())
	if e.TxHash != (common.Hash{}) {
		msg += " tx " + e.TxHash.Hex()
	}
	return fmt.Sprintf("%s failed: %v", msg, e.Err)
}

func (e *TransactionError) Unwrap() error { return e.Err }

func (e *TransactionError) Is(target error) bool { return target == ErrTransaction }

// VerificationMismatchError reports on-chain state that differs from the intended configuration.
type VerificationMismatchError struct {
	ChainName string
	Contract  common.Address
	Field     string
	Expected  string
	Actual    string
}

func (e *VerificationMismatchError) Error() string {
	return fmt.Sprintf("verification of %s on %s (contract %s) failed: expected '%s', got '%s'",
		e.Field, e.ChainName, e.Contract.Hex(), e.Expected, e.Actual)
}

func (e *VerificationMismatchError) Is(target error) bool { return target == ErrVerificationMismatch }

// ConflictingBindingError reports an attempt to re-register a bound chain id with different values.
type ConflictingBindingError struct {
	Existing  ChainBinding
	Requested ChainBinding
}

func (e *ConflictingBindingError) Error() string {
	return fmt.Sprintf("source chain %d is already bound to %s, refusing to overwrite with %s",
		e.Requested.SourceChainID, e.Existing, e.Requested)
}

func (e *ConflictingBindingError) Is(target error) bool { return target == ErrConflictingBinding }
