// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package output

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
)

// mediaFrame is the wire shape of the one abstract media WebSocket (§6):
// {call_id, payload} where payload is base64-encoded audio.
type mediaFrame struct {
	CallID  string `json:"call_id"`
	Payload string `json:"payload"`
}

// WSSink adapts a gorilla/websocket connection to the Sink interface.
// Writes are serialized with a mutex since gorilla/websocket connections
// are not safe for concurrent writers.
type WSSink struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

// NewWSSink wraps an already-established connection.
func NewWSSink(conn *websocket.Conn) *WSSink {
	return &WSSink{conn: conn}
}

// Send writes one media frame as a JSON text message.
func (s *WSSink) Send(ctx context.Context, callID string, payload []byte) error {
	frame := mediaFrame{
		CallID:  callID,
		Payload: base64.StdEncoding.EncodeToString(payload),
	}
	raw, err := json.Marshal(frame)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteMessage(websocket.TextMessage, raw)
}

// Close sends the normal-closure frame (code 1000) and closes the
// underlying connection.
func (s *WSSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return s.conn.Close()
}
