package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/omarespejel/starknet-unity-clicker-demo/internal/errors"
	"github.com/omarespejel/starknet-unity-clicker-demo/internal/model"
	"github.com/omarespejel/starknet-unity-clicker-demo/internal/starknet"
)

type mockLedger struct {
	mock.Mock
}

func (m *mockLedger) Execute(ctx context.Context, account starknet.Account, calls []starknet.Call) (string, error) {
	args := m.Called(ctx, account, calls)
	return args.String(0), args.Error(1)
}

func (m *mockLedger) WaitForTransaction(ctx context.Context, txHash string) error {
	args := m.Called(ctx, txHash)
	return args.Error(0)
}

func testSessionKey() *model.SessionKey {
	return &model.SessionKey{
		Secret:        "0xsecret",
		PlayerAddress: "0xABC",
		CreatedAt:     time.Now(),
		ExpiresAt:     time.Now().Add(24 * time.Hour),
		Policies:      []string{model.SystemClick, model.SystemBuyUpgrade},
		Gasless:       true,
	}
}

func TestDispatch(t *testing.T) {
	ctx := context.Background()
	account := starknet.Account{Address: "0xACCT", PrivateKey: "0xKEY"}
	policy := model.NewWorldPolicy(testWorldAddress)

	t.Run("submits a sponsored world call", func(t *testing.T) {
		ledger := new(mockLedger)
		svc := NewDispatchService(ledger, account, policy)

		ledger.On("Execute", ctx, account, mock.MatchedBy(func(calls []starknet.Call) bool {
			if len(calls) != 1 {
				return false
			}
			call := calls[0]
			return call.ContractAddress == testWorldAddress &&
				call.Entrypoint == "execute" &&
				len(call.Calldata) == 2 &&
				call.Calldata[0] == starknet.SelectorFromName(model.SystemClick) &&
				call.Calldata[1] == "0x0"
		})).Return("0xTXHASH", nil)
		ledger.On("WaitForTransaction", ctx, "0xTXHASH").Return(nil)

		result, err := svc.Dispatch(ctx, model.SystemClick, nil, testSessionKey())
		require.NoError(t, err)

		assert.Equal(t, "0xTXHASH", result.TxHash)
		assert.True(t, result.Gasless)
		assert.Equal(t, model.TxStatusAccepted, result.Status)
		ledger.AssertExpectations(t)
	})

	t.Run("includes calldata in the execute payload", func(t *testing.T) {
		ledger := new(mockLedger)
		svc := NewDispatchService(ledger, account, policy)

		ledger.On("Execute", ctx, account, mock.MatchedBy(func(calls []starknet.Call) bool {
			call := calls[0]
			return len(call.Calldata) == 4 &&
				call.Calldata[1] == "0x2" &&
				call.Calldata[2] == "0x1" &&
				call.Calldata[3] == "0x5"
		})).Return("0xTXHASH", nil)
		ledger.On("WaitForTransaction", ctx, "0xTXHASH").Return(nil)

		_, err := svc.Dispatch(ctx, model.SystemBuyUpgrade, []string{"0x1", "0x5"}, testSessionKey())
		require.NoError(t, err)
		ledger.AssertExpectations(t)
	})

	t.Run("fails with AccountUnavailable when no service account is configured", func(t *testing.T) {
		ledger := new(mockLedger)
		svc := NewDispatchService(ledger, starknet.Account{}, policy)

		result, err := svc.Dispatch(ctx, model.SystemClick, nil, testSessionKey())
		require.Error(t, err)

		assert.Equal(t, apperrors.ErrCodeAccountUnavailable, apperrors.GetCode(err))
		assert.Equal(t, model.TxStatusFailed, result.Status)
		ledger.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("denies a system outside the key policy", func(t *testing.T) {
		ledger := new(mockLedger)
		svc := NewDispatchService(ledger, account, policy)

		key := testSessionKey()
		key.Policies = []string{model.SystemClick}

		result, err := svc.Dispatch(ctx, model.SystemBuyUpgrade, nil, key)
		require.Error(t, err)

		assert.Equal(t, apperrors.ErrCodePolicyDenied, apperrors.GetCode(err))
		assert.Equal(t, model.TxStatusFailed, result.Status)
		ledger.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("surfaces submission failures as DispatchFailed", func(t *testing.T) {
		ledger := new(mockLedger)
		svc := NewDispatchService(ledger, account, policy)

		cause := errors.New("connection refused")
		ledger.On("Execute", ctx, account, mock.Anything).Return("", cause)

		result, err := svc.Dispatch(ctx, model.SystemClick, nil, testSessionKey())
		require.Error(t, err)

		assert.Equal(t, apperrors.ErrCodeDispatchFailed, apperrors.GetCode(err))
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, model.TxStatusFailed, result.Status)
	})

	t.Run("fails when the transaction is not accepted", func(t *testing.T) {
		ledger := new(mockLedger)
		svc := NewDispatchService(ledger, account, policy)

		ledger.On("Execute", ctx, account, mock.Anything).Return("0xTXHASH", nil)
		ledger.On("WaitForTransaction", ctx, "0xTXHASH").Return(errors.New("transaction reverted"))

		result, err := svc.Dispatch(ctx, model.SystemClick, nil, testSessionKey())
		require.Error(t, err)

		assert.Equal(t, apperrors.ErrCodeDispatchFailed, apperrors.GetCode(err))
		assert.Equal(t, model.TxStatusFailed, result.Status)
		assert.Equal(t, "0xTXHASH", result.TxHash)
	})
}
