package timeline

import (
	"time"
)

// Exchange is one half of a chat interaction: the inbound user message or
// the outbound reply.
type Exchange struct {
	ID        int64     `json:"id"`
	TraceID   string    `json:"trace_id"`  // End-to-end trace identifier
	Channel   string    `json:"channel"`   // Transport name (whatsapp, console)
	ChatID    string    `json:"chat_id"`   // Chat/channel identifier
	Mode      string    `json:"mode"`      // plain or rules
	Direction string    `json:"direction"` // in or out
	Content   string    `json:"content"`   // Message text
	CreatedAt time.Time `json:"created_at"`
}

const Schema = `
CREATE TABLE IF NOT EXISTS exchanges (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	trace_id TEXT,
	channel TEXT NOT NULL,
	chat_id TEXT NOT NULL,
	mode TEXT NOT NULL,
	direction TEXT NOT NULL,
	content TEXT,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_exchanges_chat ON exchanges(chat_id, created_at);
CREATE INDEX IF NOT EXISTS idx_exchanges_trace ON exchanges(trace_id);

CREATE TABLE IF NOT EXISTS settings (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at DATETIME
);
`
