package archive

import (
	"context"
	"database/sql"
	"time"

	"github.com/kienquocIT/mis-api-sub003/internal/config"
	"github.com/kienquocIT/mis-api-sub003/internal/features/engine"

	_ "github.com/lib/pq"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const createTableStmt = `
CREATE TABLE IF NOT EXISTS workflow_outcomes (
	document_id TEXT PRIMARY KEY,
	tenant_id   TEXT NOT NULL,
	app_code    TEXT NOT NULL,
	workflow_id TEXT NOT NULL,
	node_id     TEXT NOT NULL,
	actor       TEXT NOT NULL,
	action      TEXT NOT NULL,
	outcome     TEXT NOT NULL,
	status      INT  NOT NULL,
	closed_at   TIMESTAMPTZ NOT NULL
)`

const upsertStmt = `
INSERT INTO workflow_outcomes
	(document_id, tenant_id, app_code, workflow_id, node_id, actor, action, outcome, status, closed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (document_id) DO UPDATE SET
	node_id = $5, actor = $6, action = $7, outcome = $8, status = $9, closed_at = $10`

// ArchiveService copies terminal workflow outcomes into an external Postgres
// warehouse for reporting. It is best effort: failures are logged, never
// surfaced to the advance path. Without a configured DSN the sink is inert.
type ArchiveService struct {
	db     *sql.DB
	Logger *zap.Logger
}

func NewArchiveService(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) (*ArchiveService, error) {
	svc := &ArchiveService{Logger: logger}
	if cfg.ArchivePgDSN == "" {
		logger.Info("outcome archive disabled, no postgres dsn configured")
		return svc, nil
	}

	db, err := sql.Open("postgres", cfg.ArchivePgDSN)
	if err != nil {
		return nil, err
	}
	svc.db = db

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := db.PingContext(ctx); err != nil {
				return err
			}
			_, err := db.ExecContext(ctx, createTableStmt)
			return err
		},
		OnStop: func(ctx context.Context) error {
			return db.Close()
		},
	})
	return svc, nil
}

// ArchiveTerminal implements the engine's archive sink.
func (s *ArchiveService) ArchiveTerminal(ctx context.Context, event engine.AdvanceEvent) {
	if s.db == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := s.db.ExecContext(ctx, upsertStmt,
		event.DocumentID, event.TenantID, event.AppCode, event.WorkflowID,
		event.NodeID, event.Actor, string(event.Action), string(event.Outcome),
		int(event.Status), event.Timestamp,
	)
	if err != nil {
		s.Logger.Error("failed to archive workflow outcome",
			zap.String("document_id", event.DocumentID),
			zap.Error(err),
		)
		return
	}

	s.Logger.Debug("workflow outcome archived",
		zap.String("document_id", event.DocumentID),
		zap.String("outcome", string(event.Outcome)),
	)
}
