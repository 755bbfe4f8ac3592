package model

// TxStatus tracks a single dispatch through its lifecycle.
type TxStatus string

const (
	TxStatusPending   TxStatus = "pending"
	TxStatusSubmitted TxStatus = "submitted"
	TxStatusAccepted  TxStatus = "accepted"
	TxStatusFailed    TxStatus = "failed"
)

// TransactionResult is the outcome of a dispatched system call.
type TransactionResult struct {
	TxHash  string   `json:"txHash"`
	Gasless bool     `json:"gasless"`
	Status  TxStatus `json:"status"`
}

// PlayerState is the read model for a player, as served by Torii.
// Points is kept as a decimal string because the on-chain value is a felt
// that can exceed int64.
type PlayerState struct {
	Points        string `json:"points"`
	TotalClicks   int64  `json:"total_clicks"`
	ClickPower    int64  `json:"click_power"`
	LastClickTime int64  `json:"last_click_time"`
}

// ZeroPlayerState is the documented default for players the indexer has not
// seen yet.
func ZeroPlayerState() PlayerState {
	return PlayerState{
		Points:        "0",
		TotalClicks:   0,
		ClickPower:    1,
		LastClickTime: 0,
	}
}
