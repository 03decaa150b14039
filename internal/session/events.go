package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Event types emitted by the service.
const (
	EventSessionStarted = "session_started"
	EventExerciseServed = "exercise_served"
	EventAnswerGraded   = "answer_graded"
	EventHintRevealed   = "hint_revealed"
	EventSessionEnded   = "session_ended"
)

const dbTimeout = 5 * time.Second

// EventsSchema creates the analytics table used by PostgresEventLogger.
const EventsSchema = `CREATE TABLE IF NOT EXISTS quiz_events (
	id          BIGSERIAL PRIMARY KEY,
	session_id  TEXT        NOT NULL,
	learner_id  TEXT        NOT NULL DEFAULT '',
	exercise_id TEXT        NOT NULL DEFAULT '',
	question_id TEXT        NOT NULL DEFAULT '',
	event_type  TEXT        NOT NULL,
	data        JSONB       NOT NULL DEFAULT '{}'::jsonb,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// EventsIndex speeds up per-session lookups.
const EventsIndex = `CREATE INDEX IF NOT EXISTS quiz_events_session_idx ON quiz_events (session_id, created_at)`

// Event is an analytics record of something that happened in a session.
type Event struct {
	SessionID  string
	LearnerID  string
	ExerciseID string
	QuestionID string
	Type       string
	Data       map[string]any
	CreatedAt  time.Time
}

// EventLogger records session events.
type EventLogger interface {
	LogEvent(ctx context.Context, event Event) error
}

// NopEventLogger ignores all events.
type NopEventLogger struct{}

func (NopEventLogger) LogEvent(context.Context, Event) error {
	return nil
}

// MemoryEventLogger stores events in memory for tests.
type MemoryEventLogger struct {
	mu     sync.Mutex
	events []Event
}

func NewMemoryEventLogger() *MemoryEventLogger {
	return &MemoryEventLogger{
		events: []Event{},
	}
}

func (l *MemoryEventLogger) LogEvent(_ context.Context, event Event) error {
	if event.Type == "" {
		return fmt.Errorf("event type is required")
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	l.mu.Lock()
	l.events = append(l.events, event)
	l.mu.Unlock()

	return nil
}

func (l *MemoryEventLogger) Events() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Event{}, l.events...)
}

// PostgresEventLogger inserts events into the quiz_events table.
type PostgresEventLogger struct {
	pool *pgxpool.Pool
}

func NewPostgresEventLogger(pool *pgxpool.Pool) *PostgresEventLogger {
	return &PostgresEventLogger{pool: pool}
}

func (l *PostgresEventLogger) LogEvent(ctx context.Context, event Event) error {
	if l == nil || l.pool == nil {
		return fmt.Errorf("event logger pool is nil")
	}
	if event.Type == "" {
		return fmt.Errorf("event type is required")
	}
	if event.SessionID == "" {
		return fmt.Errorf("session_id is required")
	}

	payload := event.Data
	if payload == nil {
		payload = map[string]any{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event data: %w", err)
	}

	createdAt := event.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err = l.pool.Exec(ctx,
		`INSERT INTO quiz_events (session_id, learner_id, exercise_id, question_id, event_type, data, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7)`,
		event.SessionID,
		event.LearnerID,
		event.ExerciseID,
		event.QuestionID,
		event.Type,
		string(data),
		createdAt,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}

	slog.Debug("event logged",
		"type", event.Type,
		"session_id", event.SessionID,
		"exercise_id", event.ExerciseID,
	)
	return nil
}

// SessionEvents returns the events of one session in insertion order.
func (l *PostgresEventLogger) SessionEvents(ctx context.Context, sessionID string) ([]Event, error) {
	if l == nil || l.pool == nil {
		return nil, fmt.Errorf("event logger pool is nil")
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := l.pool.Query(ctx,
		`SELECT session_id, learner_id, exercise_id, question_id, event_type, data, created_at
		 FROM quiz_events WHERE session_id = $1 ORDER BY id`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []Event{}
	for rows.Next() {
		var (
			e   Event
			raw []byte
		)
		if err := rows.Scan(&e.SessionID, &e.LearnerID, &e.ExerciseID, &e.QuestionID, &e.Type, &raw, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if err := json.Unmarshal(raw, &e.Data); err != nil {
			return nil, fmt.Errorf("decode event data: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}
