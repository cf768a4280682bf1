package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

type migrationStep struct {
	Name string
	SQL  string
}

// expirableColumns are shared by every table the sweep reads.
const expirableColumns = `
  expiry_date        DATE,
  file_path          TEXT        NOT NULL DEFAULT '',
  issuing_authority  TEXT        NOT NULL DEFAULT '',
  active             BOOLEAN     NOT NULL DEFAULT true,
  notified_6_months  BOOLEAN     NOT NULL DEFAULT false,
  notified_3_months  BOOLEAN     NOT NULL DEFAULT false,
  notified_1_month   BOOLEAN     NOT NULL DEFAULT false,
  notified_1_week    BOOLEAN     NOT NULL DEFAULT false,
  created_at         TIMESTAMPTZ NOT NULL DEFAULT now()`

var steps = []migrationStep{
	{
		Name: "create_extension_uuid_ossp",
		SQL:  `CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	},
	{
		Name: "create_table_companies",
		SQL: `CREATE TABLE IF NOT EXISTS companies (
  id         UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  name       TEXT        NOT NULL,
  email      TEXT        NOT NULL DEFAULT '',
  phone      TEXT        NOT NULL DEFAULT '',
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_users",
		SQL: `CREATE TABLE IF NOT EXISTS users (
  id         UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  company_id UUID        REFERENCES companies (id) ON DELETE SET NULL,
  full_name  TEXT        NOT NULL,
  email      TEXT        NOT NULL DEFAULT '',
  phone      TEXT        NOT NULL DEFAULT '',
  role       TEXT        NOT NULL DEFAULT 'user',
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_company_documents",
		SQL: `CREATE TABLE IF NOT EXISTS company_documents (
  id         UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
  company_id UUID NOT NULL REFERENCES companies (id) ON DELETE CASCADE,
  user_id    UUID REFERENCES users (id) ON DELETE SET NULL,
  doc_type   TEXT NOT NULL,` + expirableColumns + `
);`,
	},
	{
		Name: "create_table_licenses",
		SQL: `CREATE TABLE IF NOT EXISTS licenses (
  id             UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
  company_id     UUID NOT NULL REFERENCES companies (id) ON DELETE CASCADE,
  user_id        UUID REFERENCES users (id) ON DELETE SET NULL,
  license_type   TEXT NOT NULL,
  license_number TEXT NOT NULL DEFAULT '',` + expirableColumns + `
);`,
	},
	{
		Name: "create_table_archived_contracts",
		SQL: `CREATE TABLE IF NOT EXISTS archived_contracts (
  id              UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
  company_id      UUID NOT NULL REFERENCES companies (id) ON DELETE CASCADE,
  user_id         UUID REFERENCES users (id) ON DELETE SET NULL,
  contract_type   TEXT NOT NULL,
  contract_number TEXT NOT NULL DEFAULT '',` + expirableColumns + `
);`,
	},
	{
		Name: "create_index_company_documents_expiry",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_company_documents_expiry ON company_documents (expiry_date) WHERE expiry_date IS NOT NULL;`,
	},
	{
		Name: "create_index_licenses_expiry",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_licenses_expiry ON licenses (expiry_date) WHERE expiry_date IS NOT NULL;`,
	},
	{
		Name: "create_index_archived_contracts_expiry",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_archived_contracts_expiry ON archived_contracts (expiry_date) WHERE expiry_date IS NOT NULL;`,
	},
	{
		Name: "create_table_notifications",
		SQL: `CREATE TABLE IF NOT EXISTS notifications (
  id              UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  title           TEXT        NOT NULL DEFAULT '',
  message         TEXT        NOT NULL,
  type            TEXT        NOT NULL,
  user_id         UUID,
  owner_id        UUID,
  document_id     UUID,
  document_kind   TEXT        NOT NULL DEFAULT '',
  alert_type      TEXT        NOT NULL DEFAULT '',
  created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
  read            BOOLEAN     NOT NULL DEFAULT false,
  expires_at      TIMESTAMPTZ,
  group_key       TEXT        NOT NULL DEFAULT '',
  archived        BOOLEAN     NOT NULL DEFAULT false,
  allowed_roles   JSONB       NOT NULL DEFAULT '[]'::jsonb,
  attachment      TEXT        NOT NULL DEFAULT '',
  scheduled_at    TIMESTAMPTZ,
  sent            BOOLEAN     NOT NULL DEFAULT true,
  action_required BOOLEAN     NOT NULL DEFAULT false,
  action_status   TEXT        NOT NULL DEFAULT '',
  icon            TEXT        NOT NULL DEFAULT '',
  color           TEXT        NOT NULL DEFAULT ''
);`,
	},
	{
		Name: "create_index_notifications_due",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_notifications_due ON notifications (scheduled_at) WHERE sent = false AND scheduled_at IS NOT NULL;`,
	},
	{
		Name: "create_index_notifications_group",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_notifications_group ON notifications (type, user_id, group_key, created_at DESC);`,
	},
	{
		Name: "create_index_notifications_user_created",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_notifications_user_created ON notifications (user_id, created_at DESC);`,
	},
}

// EnsureMigrated checks if the 'notifications' table exists and runs migrations if it doesn't.
func EnsureMigrated(ctx context.Context, db *sql.DB, log zerolog.Logger, dbHost string) error {
	start := time.Now()
	log = log.With().Str("component", "database").Str("db_host", dbHost).Logger()

	log.Info().Str("event", "db_migration_check").Str("status", "starting").Send()

	var exists bool
	query := "SELECT to_regclass('public.notifications') IS NOT NULL"
	if err := db.QueryRowContext(ctx, query).Scan(&exists); err != nil {
		log.Error().
			Str("event", "db_migration_failed").
			Str("status", "error").
			Str("error_message", fmt.Sprintf("failed to check sentinel table: %v", err)).
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Send()
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		log.Info().
			Str("event", "db_migration_skip").
			Str("status", "success").
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Msg("schema already exists, skipping migration")
		return nil
	}

	log.Info().Str("event", "db_migration_start").Str("status", "in_progress").Int("steps", len(steps)).Send()

	for _, step := range steps {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			log.Error().
				Str("event", "db_migration_failed").
				Str("status", "error").
				Str("migration_step", step.Name).
				Str("error_message", err.Error()).
				Int64("duration_ms", time.Since(start).Milliseconds()).
				Int64("step_duration_ms", time.Since(stepStart).Milliseconds()).
				Send()
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		log.Debug().
			Str("event", "db_migration_step").
			Str("status", "success").
			Str("migration_step", step.Name).
			Int64("step_duration_ms", time.Since(stepStart).Milliseconds()).
			Send()
	}

	log.Info().
		Str("event", "db_migration_success").
		Str("status", "success").
		Int64("duration_ms", time.Since(start).Milliseconds()).
		Send()

	return nil
}
