package solana

import (
	"encoding/json"
	"fmt"
)

// ErrCodeRateLimit is the JSON-RPC error code Solana nodes return when
// a subscription is rejected due to rate limiting.
const ErrCodeRateLimit = -32003

// LogsFilter configures a logs subscription.
type LogsFilter struct {
	// Mentions filters logs to transactions mentioning these addresses.
	Mentions []string
}

// LogNotification is a single logs notification from the WebSocket.
type LogNotification struct {
	Signature string
	Slot      int64
	Logs      []string
	Err       interface{} // nil if transaction succeeded
}

// RPCError is a JSON-RPC error frame received over the WebSocket.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// MessageKind classifies a parsed WebSocket frame.
type MessageKind int

const (
	MessageUnknown MessageKind = iota
	MessageSubscribeAck
	MessageError
	MessageLogs
)

// Message is one parsed WebSocket frame.
type Message struct {
	Kind           MessageKind
	SubscriptionID int64            // set for MessageSubscribeAck
	Err            *RPCError        // set for MessageError
	Logs           *LogNotification // set for MessageLogs
}

// wsEnvelope covers the three frame shapes a logs subscription
// produces: error responses, subscription acks (integer result), and
// logsNotification frames.
type wsEnvelope struct {
	Error  *RPCError       `json:"error"`
	Method string          `json:"method"`
	Result json.RawMessage `json:"result"`
	Params *wsParams       `json:"params"`
}

type wsParams struct {
	Result wsNotificationResult `json:"result"`
}

type wsNotificationResult struct {
	Context wsContext   `json:"context"`
	Value   wsLogsValue `json:"value"`
}

type wsContext struct {
	Slot int64 `json:"slot"`
}

type wsLogsValue struct {
	Signature string      `json:"signature"`
	Logs      []string    `json:"logs"`
	Err       interface{} `json:"err"`
}

// ParseLogsMessage classifies a raw WebSocket frame. Frames that fit
// none of the known shapes come back as MessageUnknown, not an error,
// so callers can skip them without tearing down the connection.
func ParseLogsMessage(data []byte) (Message, error) {
	var env wsEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Message{}, fmt.Errorf("unmarshal ws frame: %w", err)
	}

	if env.Error != nil {
		return Message{Kind: MessageError, Err: env.Error}, nil
	}

	if env.Method == "logsNotification" && env.Params != nil {
		v := env.Params.Result.Value
		return Message{
			Kind: MessageLogs,
			Logs: &LogNotification{
				Signature: v.Signature,
				Slot:      env.Params.Result.Context.Slot,
				Logs:      v.Logs,
				Err:       v.Err,
			},
		}, nil
	}

	if len(env.Result) > 0 {
		var subID int64
		if err := json.Unmarshal(env.Result, &subID); err == nil {
			return Message{Kind: MessageSubscribeAck, SubscriptionID: subID}, nil
		}
	}

	return Message{Kind: MessageUnknown}, nil
}
