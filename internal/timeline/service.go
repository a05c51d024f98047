package timeline

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Service persists exchanges and runtime settings in a local sqlite file.
type Service struct {
	db *sql.DB
}

func NewService(dbPath string) (*Service, error) {
	db, err := sql.Open("sqlite", "file:"+dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open timeline db: %w", err)
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Service{db: db}, nil
}

func (s *Service) DB() *sql.DB { return s.db }

func (s *Service) Close() error {
	return s.db.Close()
}

func (s *Service) AddExchange(ex Exchange) error {
	if ex.CreatedAt.IsZero() {
		ex.CreatedAt = time.Now()
	}
	_, err := s.db.Exec(`
	INSERT INTO exchanges (trace_id, channel, chat_id, mode, direction, content, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		ex.TraceID,
		ex.Channel,
		ex.ChatID,
		ex.Mode,
		ex.Direction,
		ex.Content,
		ex.CreatedAt,
	)
	return err
}

type FilterArgs struct {
	ChatID  string
	TraceID string
	Limit   int
	Offset  int
}

func (s *Service) GetExchanges(filter FilterArgs) ([]Exchange, error) {
	query := `SELECT id, COALESCE(trace_id,''), channel, chat_id, mode, direction, COALESCE(content,''), created_at FROM exchanges WHERE 1=1`
	args := []interface{}{}

	if filter.ChatID != "" {
		query += " AND chat_id = ?"
		args = append(args, filter.ChatID)
	}
	if filter.TraceID != "" {
		query += " AND trace_id = ?"
		args = append(args, filter.TraceID)
	}

	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, filter.Offset)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exchanges []Exchange
	for rows.Next() {
		var e Exchange
		err := rows.Scan(
			&e.ID,
			&e.TraceID,
			&e.Channel,
			&e.ChatID,
			&e.Mode,
			&e.Direction,
			&e.Content,
			&e.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		exchanges = append(exchanges, e)
	}
	return exchanges, nil
}

// GetSetting returns a setting value by key.
func (s *Service) GetSetting(key string) (string, error) {
	var val string
	err := s.db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&val)
	if err != nil {
		return "", err
	}
	return val, nil
}

// SetSetting persists a setting value.
func (s *Service) SetSetting(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, datetime('now'))
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value)
	return err
}

// IsSilentMode checks if silent mode is enabled. Defaults to false so a
// fresh install replies normally.
func (s *Service) IsSilentMode() bool {
	val, err := s.GetSetting("silent_mode")
	if err != nil {
		return false
	}
	return val == "true"
}
