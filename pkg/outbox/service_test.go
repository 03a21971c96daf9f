package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/sheikhshariarnehal/nesttask-edge/pkg/enums"
	"github.com/sheikhshariarnehal/nesttask-edge/pkg/logger"
)

func newOutboxTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	schema := `CREATE TABLE outbox_events (
		id TEXT PRIMARY KEY,
		event_type TEXT NOT NULL,
		aggregate_type TEXT NOT NULL,
		aggregate_id TEXT NOT NULL,
		payload TEXT NOT NULL,
		created_at DATETIME,
		published_at DATETIME,
		attempt_count INTEGER NOT NULL DEFAULT 0,
		last_error TEXT
	)`
	if err := conn.Exec(schema).Error; err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
	return conn
}

func newOutboxTestService(t *testing.T) (*Service, *Repository, *gorm.DB) {
	t.Helper()
	conn := newOutboxTestDB(t)
	repo := NewRepository(conn)
	logg := logger.New(logger.Options{ServiceName: "outbox-test", Output: io.Discard})
	return NewService(repo, logg), repo, conn
}

func TestEmitQueuesEnvelopedEvent(t *testing.T) {
	svc, repo, conn := newOutboxTestService(t)
	taskID := uuid.New()
	actorID := uuid.New()

	err := svc.Emit(context.Background(), conn, DomainEvent{
		EventType:     enums.EventTaskCreated,
		AggregateType: enums.AggregateTask,
		AggregateID:   taskID,
		Actor:         &ActorRef{UserID: actorID, Role: "admin"},
		Data:          map[string]string{"title": "Prepare lab report"},
		Version:       1,
	})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}

	rows, err := repo.FetchUnpublished(10, 5)
	if err != nil {
		t.Fatalf("fetch unpublished: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 unpublished row, got %d", len(rows))
	}
	row := rows[0]
	if row.ID == uuid.Nil {
		t.Fatalf("expected an assigned event id")
	}
	if row.EventType != enums.EventTaskCreated || row.AggregateID != taskID {
		t.Fatalf("unexpected row: %+v", row)
	}

	var envelope PayloadEnvelope
	if err := json.Unmarshal(row.Payload, &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if envelope.Version != 1 || envelope.EventID == "" || envelope.OccurredAt.IsZero() {
		t.Fatalf("incomplete envelope: %+v", envelope)
	}
	if envelope.Actor == nil || envelope.Actor.UserID != actorID {
		t.Fatalf("actor not carried: %+v", envelope.Actor)
	}
	var data map[string]string
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if data["title"] != "Prepare lab report" {
		t.Fatalf("unexpected data: %v", data)
	}
}

func TestEmitRequiresTransaction(t *testing.T) {
	svc, _, _ := newOutboxTestService(t)
	err := svc.Emit(context.Background(), nil, DomainEvent{
		EventType:     enums.EventTaskCreated,
		AggregateType: enums.AggregateTask,
		AggregateID:   uuid.New(),
		Data:          map[string]string{},
	})
	if err == nil {
		t.Fatalf("expected error for nil transaction")
	}
}

func TestEmitIfNotExistsSkipsPendingDuplicate(t *testing.T) {
	svc, repo, conn := newOutboxTestService(t)
	taskID := uuid.New()
	event := DomainEvent{
		EventType:     enums.EventTaskUpdated,
		AggregateType: enums.AggregateTask,
		AggregateID:   taskID,
		Data:          map[string]string{"title": "Updated"},
		Version:       1,
	}

	if err := svc.EmitIfNotExists(context.Background(), conn, event); err != nil {
		t.Fatalf("first emit: %v", err)
	}
	if err := svc.EmitIfNotExists(context.Background(), conn, event); err != nil {
		t.Fatalf("second emit: %v", err)
	}

	rows, err := repo.FetchUnpublished(10, 5)
	if err != nil {
		t.Fatalf("fetch unpublished: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected the duplicate to be skipped, got %d rows", len(rows))
	}

	// Once the pending row publishes, a fresh change for the same aggregate
	// queues again.
	if err := repo.MarkPublished(rows[0].ID); err != nil {
		t.Fatalf("mark published: %v", err)
	}
	if err := svc.EmitIfNotExists(context.Background(), conn, event); err != nil {
		t.Fatalf("third emit: %v", err)
	}
	rows, err = repo.FetchUnpublished(10, 5)
	if err != nil {
		t.Fatalf("fetch unpublished: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected a new pending row after publish, got %d", len(rows))
	}
}
