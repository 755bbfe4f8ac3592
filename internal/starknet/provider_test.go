package starknet

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rpcCall struct {
	Method string
	Params []json.RawMessage
}

func rpcServer(t *testing.T, handler func(call rpcCall) (any, *rpcError)) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string            `json:"method"`
			Params []json.RawMessage `json:"params"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		result, rpcErr := handler(rpcCall{Method: req.Method, Params: req.Params})

		resp := map[string]any{"jsonrpc": "2.0", "id": 1}
		if rpcErr != nil {
			resp["error"] = map[string]any{"code": rpcErr.Code, "message": rpcErr.Message}
		} else {
			resp["result"] = result
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestExecute(t *testing.T) {
	ctx := context.Background()
	account := Account{Address: "0xACCT", PrivateKey: "0xKEY"}

	t.Run("fetches nonce and submits the invoke", func(t *testing.T) {
		var submitted invokeTransaction

		srv := rpcServer(t, func(call rpcCall) (any, *rpcError) {
			switch call.Method {
			case "starknet_getNonce":
				return "0x7", nil
			case "starknet_addInvokeTransaction":
				require.NoError(t, json.Unmarshal(call.Params[0], &submitted))
				return map[string]string{"transaction_hash": "0xTXHASH"}, nil
			default:
				return nil, &rpcError{Code: -32601, Message: "method not found"}
			}
		})

		p := NewProvider(srv.URL)
		txHash, err := p.Execute(ctx, account, []Call{{
			ContractAddress: "0xWORLD",
			Entrypoint:      "execute",
			Calldata:        []string{"0xsel", "0x0"},
		}})
		require.NoError(t, err)

		assert.Equal(t, "0xTXHASH", txHash)
		assert.Equal(t, "INVOKE", submitted.Type)
		assert.Equal(t, "0xACCT", submitted.SenderAddress)
		assert.Equal(t, "0x0", submitted.MaxFee)
		assert.Equal(t, "0x7", submitted.Nonce)
		// [n_calls, to, selector, data_len, data...]
		assert.Equal(t, []string{
			"0x1", "0xWORLD", SelectorFromName("execute"), "0x2", "0xsel", "0x0",
		}, submitted.Calldata)
	})

	t.Run("propagates rpc errors", func(t *testing.T) {
		srv := rpcServer(t, func(call rpcCall) (any, *rpcError) {
			return nil, &rpcError{Code: -32603, Message: "internal error"}
		})

		p := NewProvider(srv.URL)
		_, err := p.Execute(ctx, account, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "internal error")
	})
}

func TestWaitForTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("returns once accepted", func(t *testing.T) {
		calls := 0
		srv := rpcServer(t, func(call rpcCall) (any, *rpcError) {
			calls++
			if calls == 1 {
				return nil, &rpcError{Code: 29, Message: "Transaction hash not found"}
			}
			return map[string]string{
				"finality_status":  "ACCEPTED_ON_L2",
				"execution_status": "SUCCEEDED",
			}, nil
		})

		p := NewProvider(srv.URL)
		require.NoError(t, p.WaitForTransaction(ctx, "0xTXHASH"))
		assert.GreaterOrEqual(t, calls, 2)
	})

	t.Run("fails on revert", func(t *testing.T) {
		srv := rpcServer(t, func(call rpcCall) (any, *rpcError) {
			return map[string]string{
				"finality_status":  "ACCEPTED_ON_L2",
				"execution_status": "REVERTED",
				"revert_reason":    "not enough points",
			}, nil
		})

		p := NewProvider(srv.URL)
		err := p.WaitForTransaction(ctx, "0xTXHASH")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not enough points")
	})

	t.Run("fails on unexpected rpc error", func(t *testing.T) {
		srv := rpcServer(t, func(call rpcCall) (any, *rpcError) {
			return nil, &rpcError{Code: -32603, Message: "internal error"}
		})

		p := NewProvider(srv.URL)
		err := p.WaitForTransaction(ctx, "0xTXHASH")
		require.Error(t, err)
	})
}
