package postgres

import (
	"cmp"
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
)

// Схема orderdesk: products, orders и order_items с позициями-вариантами.
// Миграции встроены в бинарник и применяются под advisory lock.

const (
	migrationsTable  = "schema_migrations"
	migrationLockKey = int64(58010427)
	migrationTimeout = 5 * time.Second

	createMigrationsTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
    version BIGINT PRIMARY KEY,
    name TEXT NOT NULL,
    applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`
)

var (
	//go:embed sql/migrations/*.sql
	migrationsFS embed.FS

	migrationFileRe = regexp.MustCompile(`^(\d+)_(\w+)\.(up|down)\.sql$`)

	psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	errStoreNotInitialized = errors.New("postgres store is not initialized")
)

// MigrationInfo - встроенная миграция схемы.
type MigrationInfo struct {
	Version int64
	Name    string
}

type schemaMigration struct {
	MigrationInfo
	up   string
	down string
}

func (m schemaMigration) String() string {
	return fmt.Sprintf("%04d_%s", m.Version, m.Name)
}

// schemaPlan - встроенные миграции по возрастанию версии.
type schemaPlan []schemaMigration

// pending отбирает неприменённые миграции. steps <= 0 означает "все".
func (p schemaPlan) pending(applied map[int64]bool, steps int) schemaPlan {
	var out schemaPlan
	for _, m := range p {
		if applied[m.Version] {
			continue
		}
		out = append(out, m)
		if steps > 0 && len(out) == steps {
			break
		}
	}
	return out
}

func (p schemaPlan) find(version int64) (schemaMigration, bool) {
	i, ok := slices.BinarySearchFunc(p, version, func(m schemaMigration, v int64) int {
		return cmp.Compare(m.Version, v)
	})
	if !ok {
		return schemaMigration{}, false
	}
	return p[i], true
}

// AvailableMigrations возвращает встроенные миграции по возрастанию версии.
func AvailableMigrations() ([]MigrationInfo, error) {
	plan, err := parseMigrations(migrationsFS)
	if err != nil {
		return nil, err
	}
	infos := make([]MigrationInfo, len(plan))
	for i, m := range plan {
		infos[i] = m.MigrationInfo
	}
	return infos, nil
}

// MigrateUp применяет неприменённые миграции. steps=0 применяет все.
func (s *Store) MigrateUp(ctx context.Context, steps int) error {
	return s.withMigrationLock(ctx, func(conn *sql.Conn, plan schemaPlan) error {
		applied, err := appliedVersions(ctx, conn)
		if err != nil {
			return err
		}
		for _, m := range plan.pending(applied, steps) {
			if err := runMigration(ctx, conn, m, true); err != nil {
				return err
			}
		}
		return nil
	})
}

// MigrateDown откатывает последние миграции. steps<=0 откатывает одну.
func (s *Store) MigrateDown(ctx context.Context, steps int) error {
	if steps <= 0 {
		steps = 1
	}
	return s.withMigrationLock(ctx, func(conn *sql.Conn, plan schemaPlan) error {
		versions, err := latestVersions(ctx, conn, steps)
		if err != nil {
			return err
		}
		for _, v := range versions {
			m, ok := plan.find(v)
			if !ok {
				return fmt.Errorf("cannot roll back unknown migration version %d", v)
			}
			if err := runMigration(ctx, conn, m, false); err != nil {
				return err
			}
		}
		return nil
	})
}

// MigrationStatus возвращает текущую версию схемы и число применённых миграций.
func (s *Store) MigrationStatus(ctx context.Context) (version int64, applied int, err error) {
	if s == nil || s.db == nil {
		return 0, 0, errStoreNotInitialized
	}

	ctx, cancel := context.WithTimeout(ctx, migrationTimeout)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, createMigrationsTable); err != nil {
		return 0, 0, fmt.Errorf("ensure %s: %w", migrationsTable, err)
	}

	query, args, err := psql.Select("COALESCE(MAX(version), 0)", "COUNT(*)").From(migrationsTable).ToSql()
	if err != nil {
		return 0, 0, fmt.Errorf("build migration status: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&version, &applied); err != nil {
		return 0, 0, fmt.Errorf("query migration status: %w", err)
	}
	return version, applied, nil
}

// withMigrationLock держит advisory lock на выделенном соединении, пока выполняется fn.
func (s *Store) withMigrationLock(ctx context.Context, fn func(conn *sql.Conn, plan schemaPlan) error) error {
	if s == nil || s.db == nil {
		return errStoreNotInitialized
	}

	plan, err := parseMigrations(migrationsFS)
	if err != nil {
		return err
	}

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire db connection: %w", err)
	}
	defer conn.Close()

	lockCtx, cancel := context.WithTimeout(ctx, migrationTimeout)
	defer cancel()
	if _, err := conn.ExecContext(lockCtx, "SELECT pg_advisory_lock($1)", migrationLockKey); err != nil {
		return fmt.Errorf("acquire migration lock: %w", err)
	}
	defer func() {
		_, _ = conn.ExecContext(context.Background(), "SELECT pg_advisory_unlock($1)", migrationLockKey)
	}()

	if _, err := conn.ExecContext(ctx, createMigrationsTable); err != nil {
		return fmt.Errorf("ensure %s: %w", migrationsTable, err)
	}
	return fn(conn, plan)
}

// runMigration выполняет тело миграции и запись в schema_migrations в одной транзакции.
func runMigration(ctx context.Context, conn *sql.Conn, m schemaMigration, up bool) (err error) {
	direction, body := "down", m.down
	var record sq.Sqlizer = psql.Delete(migrationsTable).Where(sq.Eq{"version": m.Version})
	if up {
		direction, body = "up", m.up
		record = psql.Insert(migrationsTable).Columns("version", "name").Values(m.Version, m.Name)
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin %s %s: %w", direction, m, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, body); err != nil {
		return fmt.Errorf("execute %s %s: %w", direction, m, err)
	}

	query, args, err := record.ToSql()
	if err != nil {
		return fmt.Errorf("build %s record for %s: %w", direction, m, err)
	}
	if _, err = tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("record %s %s: %w", direction, m, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit %s %s: %w", direction, m, err)
	}
	return nil
}

func appliedVersions(ctx context.Context, conn *sql.Conn) (map[int64]bool, error) {
	versions, err := selectVersions(ctx, conn, psql.Select("version").From(migrationsTable))
	if err != nil {
		return nil, err
	}
	applied := make(map[int64]bool, len(versions))
	for _, v := range versions {
		applied[v] = true
	}
	return applied, nil
}

func latestVersions(ctx context.Context, conn *sql.Conn, limit int) ([]int64, error) {
	return selectVersions(ctx, conn, psql.Select("version").
		From(migrationsTable).
		OrderBy("version DESC").
		Limit(uint64(limit)))
}

func selectVersions(ctx context.Context, conn *sql.Conn, b sq.SelectBuilder) ([]int64, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build applied migrations query: %w", err)
	}
	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query applied migrations: %w", err)
	}
	defer rows.Close()

	var versions []int64
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan applied migration: %w", err)
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate applied migrations: %w", err)
	}
	return versions, nil
}

// parseMigrations собирает пары up/down из sql/migrations. Миграция без пары - ошибка.
func parseMigrations(fsys fs.FS) (schemaPlan, error) {
	files, err := fs.Glob(fsys, "sql/migrations/*.sql")
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}
	if len(files) == 0 {
		return nil, errors.New("no migration files found")
	}

	byVersion := make(map[int64]*schemaMigration)
	for _, file := range files {
		base := path.Base(file)
		m := migrationFileRe.FindStringSubmatch(base)
		if m == nil {
			return nil, fmt.Errorf("invalid migration file name: %s", base)
		}
		version, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse migration version from %s: %w", base, err)
		}

		raw, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", base, err)
		}
		body := strings.TrimSpace(string(raw))
		if body == "" {
			return nil, fmt.Errorf("migration file is empty: %s", base)
		}

		sm, ok := byVersion[version]
		switch {
		case !ok:
			sm = &schemaMigration{MigrationInfo: MigrationInfo{Version: version, Name: m[2]}}
			byVersion[version] = sm
		case sm.Name != m[2]:
			return nil, fmt.Errorf("migration name mismatch for version %d: %s vs %s", version, sm.Name, m[2])
		}

		target := &sm.up
		if m[3] == "down" {
			target = &sm.down
		}
		if *target != "" {
			return nil, fmt.Errorf("duplicate %s migration for version %d", m[3], version)
		}
		*target = body
	}

	plan := make(schemaPlan, 0, len(byVersion))
	for _, sm := range byVersion {
		if sm.up == "" || sm.down == "" {
			return nil, fmt.Errorf("migration %s must have both up and down files", sm)
		}
		plan = append(plan, *sm)
	}
	slices.SortFunc(plan, func(a, b schemaMigration) int {
		return cmp.Compare(a.Version, b.Version)
	})
	return plan, nil
}
