package api

// Request and response shapes for the operator's REST and WebSocket
// surfaces. Byte fields travel as lowercase hex; uint64 amounts travel as
// decimal strings so JavaScript clients never round them.

// SubmitOrderRequest carries one signed order as its canonical hex
// encoding (450 hex chars = 225 bytes).
type SubmitOrderRequest struct {
	Order string `json:"order"`
}

// SubmitOrderResponse acknowledges an accepted order.
type SubmitOrderResponse struct {
	Status string `json:"status"` // "accepted"
	Hash   string `json:"hash"`
}

// OrderInfo is one decoded order.
type OrderInfo struct {
	Hash        string `json:"hash"`
	Nonce       uint64 `json:"nonce"`
	Maker       string `json:"maker"`
	Market      string `json:"market"`
	BaseMint    string `json:"baseMint"`
	QuoteMint   string `json:"quoteMint"`
	Side        string `json:"side"` // "bid" or "ask"
	MakerAmount string `json:"makerAmount"`
	TakerAmount string `json:"takerAmount"`
	Expiration  uint64 `json:"expiration"`
	Signature   string `json:"signature"`
}

// CancelOrderRequest names an order hash to cancel.
type CancelOrderRequest struct {
	Hash string `json:"hash"`
}

// MatchRequest asks the operator to plan and build a settlement
// transaction for a stored taker order.
type MatchRequest struct {
	TakerHash string `json:"takerHash"`
	BaseMint  string `json:"baseMint"`
	QuoteMint string `json:"quoteMint"`
}

// MatchResponse summarizes the built transaction.
type MatchResponse struct {
	Status       string            `json:"status"` // "built"
	TakerHash    string            `json:"takerHash"`
	MakerHashes  []string          `json:"makerHashes"`
	MakerFills   []string          `json:"makerFills"`
	TakerFills   []string          `json:"takerFills"`
	Bitmask      uint8             `json:"bitmask"`
	Instructions []InstructionInfo `json:"instructions"`
}

// InstructionInfo is one instruction of a built transaction.
type InstructionInfo struct {
	ProgramID string `json:"programId"`
	Accounts  int    `json:"accounts"`
	Data      string `json:"data"` // hex
}

// WSSubscribeRequest is sent by clients to manage channel subscriptions.
// Channels: "orders" (all events) or "orders:<market-hex>".
type WSSubscribeRequest struct {
	Op       string   `json:"op"` // "subscribe" or "unsubscribe"
	Channels []string `json:"channels"`
}

// ErrorResponse is returned for all errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
