package starknet

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/omarespejel/starknet-unity-clicker-demo/internal/config"
)

// Call addresses one entrypoint on one contract.
type Call struct {
	ContractAddress string
	Entrypoint      string
	Calldata        []string
}

// Provider is a JSON-RPC 2.0 client for a Starknet endpoint. Pointing it at a
// Cartridge RPC URL makes submitted transactions fee-sponsored; sponsorship is
// a property of the endpoint, not something the provider computes.
type Provider struct {
	rpcURL string
	client *http.Client
}

func NewProvider(rpcURL string) *Provider {
	return &Provider{
		rpcURL: rpcURL,
		client: &http.Client{Timeout: config.RPCRequestTimeout},
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
	ID      int    `json:"id"`
}

type rpcError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

func (p *Provider) call(ctx context.Context, method string, params any, result any) error {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      1,
	})
	if err != nil {
		return fmt.Errorf("encode rpc request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.rpcURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build rpc request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: unexpected status %d", method, resp.StatusCode)
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return fmt.Errorf("decode rpc response: %w", err)
	}
	if rpcResp.Error != nil {
		return fmt.Errorf("%s: %w", method, rpcResp.Error)
	}

	if result != nil {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return fmt.Errorf("decode rpc result: %w", err)
		}
	}
	return nil
}

// Nonce returns the pending nonce for an account address.
func (p *Provider) Nonce(ctx context.Context, address string) (string, error) {
	var nonce string
	if err := p.call(ctx, "starknet_getNonce", []any{"pending", address}, &nonce); err != nil {
		return "", err
	}
	return nonce, nil
}

type invokeTransaction struct {
	Type          string   `json:"type"`
	SenderAddress string   `json:"sender_address"`
	Calldata      []string `json:"calldata"`
	MaxFee        string   `json:"max_fee"`
	Version       string   `json:"version"`
	Signature     []string `json:"signature"`
	Nonce         string   `json:"nonce"`
}

type addInvokeResult struct {
	TransactionHash string `json:"transaction_hash"`
}

// Execute submits the calls as a single invoke from the service account and
// returns the transaction hash. Max fee stays zero: the paymaster on the RPC
// endpoint picks up the bill.
func (p *Provider) Execute(ctx context.Context, account Account, calls []Call) (string, error) {
	nonce, err := p.Nonce(ctx, account.Address)
	if err != nil {
		return "", fmt.Errorf("get nonce: %w", err)
	}

	txn := invokeTransaction{
		Type:          "INVOKE",
		SenderAddress: account.Address,
		Calldata:      flattenCalls(calls),
		MaxFee:        "0x0",
		Version:       "0x1",
		// The Cartridge endpoint authenticates the registered service
		// account; no local transaction signing happens in this dev-mode
		// trust model.
		Signature: []string{},
		Nonce:     nonce,
	}

	var result addInvokeResult
	err = p.call(ctx, "starknet_addInvokeTransaction", []any{txn}, &result)
	if err != nil {
		return "", err
	}

	log.Debug().
		Str("txHash", result.TransactionHash).
		Str("sender", account.Address).
		Msg("invoke transaction submitted")

	return result.TransactionHash, nil
}

type transactionReceipt struct {
	FinalityStatus  string `json:"finality_status"`
	ExecutionStatus string `json:"execution_status"`
	RevertReason    string `json:"revert_reason,omitempty"`
}

// WaitForTransaction polls the endpoint until the transaction is accepted,
// reverted, or the wait times out.
func (p *Provider) WaitForTransaction(ctx context.Context, txHash string) error {
	ctx, cancel := context.WithTimeout(ctx, config.ReceiptWaitTimeout)
	defer cancel()

	ticker := time.NewTicker(config.ReceiptPollInterval)
	defer ticker.Stop()

	for {
		var receipt transactionReceipt
		err := p.call(ctx, "starknet_getTransactionReceipt", []any{txHash}, &receipt)
		if err == nil {
			switch receipt.ExecutionStatus {
			case "REVERTED":
				return fmt.Errorf("transaction reverted: %s", receipt.RevertReason)
			}
			switch receipt.FinalityStatus {
			case "ACCEPTED_ON_L2", "ACCEPTED_ON_L1":
				return nil
			case "REJECTED":
				return fmt.Errorf("transaction rejected")
			}
		} else if !isTxNotFound(err) {
			return err
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for transaction %s: %w", txHash, ctx.Err())
		case <-ticker.C:
		}
	}
}

// isTxNotFound matches the "transaction hash not found" rpc error, which just
// means the node has not seen the transaction yet.
func isTxNotFound(err error) bool {
	var rpcErr *rpcError
	return errors.As(err, &rpcErr) && rpcErr.Code == 29
}

// flattenCalls serializes calls into the account __execute__ calldata layout:
// [n_calls, (to, selector, data_len, data...)*].
func flattenCalls(calls []Call) []string {
	out := []string{itoh(len(calls))}
	for _, c := range calls {
		out = append(out, c.ContractAddress, SelectorFromName(c.Entrypoint), itoh(len(c.Calldata)))
		out = append(out, c.Calldata...)
	}
	return out
}

func itoh(n int) string {
	return "0x" + strconv.FormatInt(int64(n), 16)
}
