package service

import (
	"context"
	"strconv"

	"github.com/rs/zerolog/log"

	apperrors "github.com/omarespejel/starknet-unity-clicker-demo/internal/errors"
	"github.com/omarespejel/starknet-unity-clicker-demo/internal/model"
	"github.com/omarespejel/starknet-unity-clicker-demo/internal/starknet"
)

// Ledger submits fee-sponsored calls to the chain. Satisfied by
// *starknet.Provider.
type Ledger interface {
	Execute(ctx context.Context, account starknet.Account, calls []starknet.Call) (string, error)
	WaitForTransaction(ctx context.Context, txHash string) error
}

// DispatchService turns an authorized system call into a sponsored world
// transaction. It holds no mutable state: dispatches for different players
// are fully independent.
type DispatchService struct {
	ledger  Ledger
	account starknet.Account
	policy  model.WorldPolicy
}

func NewDispatchService(ledger Ledger, account starknet.Account, policy model.WorldPolicy) *DispatchService {
	return &DispatchService{
		ledger:  ledger,
		account: account,
		policy:  policy,
	}
}

// Dispatch executes a named world system (namespace::system) with the given
// calldata on behalf of a player whose session key has already been
// authorized. Any downstream failure is terminal for this call; the caller
// may resubmit the whole action.
func (s *DispatchService) Dispatch(
	ctx context.Context,
	systemName string,
	calldata []string,
	key *model.SessionKey,
) (*model.TransactionResult, error) {
	result := &model.TransactionResult{Status: model.TxStatusPending}

	if !s.account.Configured() {
		result.Status = model.TxStatusFailed
		return result, apperrors.AccountUnavailable()
	}

	// The policy is checked per call, not only at issuance.
	if !key.Allows(systemName) {
		result.Status = model.TxStatusFailed
		return result, apperrors.PolicyDenied(systemName)
	}

	// World execute payload: [system_selector, calldata_len, ...calldata].
	executeCalldata := make([]string, 0, len(calldata)+2)
	executeCalldata = append(executeCalldata, starknet.SelectorFromName(systemName))
	executeCalldata = append(executeCalldata, itoh(len(calldata)))
	executeCalldata = append(executeCalldata, calldata...)

	calls := []starknet.Call{{
		ContractAddress: s.policy.WorldAddress,
		Entrypoint:      "execute",
		Calldata:        executeCalldata,
	}}

	txHash, err := s.ledger.Execute(ctx, s.account, calls)
	if err != nil {
		result.Status = model.TxStatusFailed
		return result, apperrors.DispatchFailed(systemName, err)
	}
	result.TxHash = txHash
	result.Status = model.TxStatusSubmitted

	if err := s.ledger.WaitForTransaction(ctx, txHash); err != nil {
		result.Status = model.TxStatusFailed
		return result, apperrors.DispatchFailed(systemName, err)
	}

	result.Status = model.TxStatusAccepted
	result.Gasless = true

	log.Info().
		Str("system", systemName).
		Str("player", key.PlayerAddress).
		Str("txHash", txHash).
		Msg("sponsored transaction accepted")

	return result, nil
}

func itoh(n int) string {
	return "0x" + strconv.FormatInt(int64(n), 16)
}
