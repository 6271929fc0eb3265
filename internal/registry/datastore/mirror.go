package datastore

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/scylladb/gocqlx/v2/qb"

	"github.com/trigg3rX/triggerx-registry/internal/registry/store"
	"github.com/trigg3rX/triggerx-registry/pkg/logging"
	"github.com/trigg3rX/triggerx-registry/pkg/retry"
	"github.com/trigg3rX/triggerx-registry/pkg/types"
)

const (
	TasksTable   = "registry_tasks"
	DedupTable   = "registry_dedup_keys"
	GlobalsTable = "registry_globals"

	globalsRowID = "registry"
)

var taskColumns = []string{
	"task_id", "target", "admin", "pending_admin", "balance", "amount_spent", "execute_gas_limit",
	"check_data", "trigger_type", "trigger_config", "offchain_config", "paused", "max_valid_height",
	"last_performed_height", "last_cron_tick",
}

var globalsColumns = []string{"id", "owner", "paused", "config_count", "task_counter", "state"}

// Mirror keeps a copy of the registry state in ScyllaDB.
type Mirror struct {
	session     Session
	keyspace    string
	retryConfig *retry.RetryConfig
	logger      logging.Logger
}

func NewMirror(session Session, keyspace string, logger logging.Logger) *Mirror {
	return &Mirror{
		session:     session,
		keyspace:    keyspace,
		retryConfig: retry.DefaultRetryConfig(),
		logger:      logger,
	}
}

// WithRetryConfig replaces the retry policy used for each statement.
func (m *Mirror) WithRetryConfig(cfg *retry.RetryConfig) *Mirror {
	m.retryConfig = cfg
	return m
}

func (m *Mirror) table(name string) string {
	if m.keyspace == "" {
		return name
	}
	return m.keyspace + "." + name
}

// CreateSchema creates the mirror tables if they do not exist.
func (m *Mirror) CreateSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ` + m.table(TasksTable) + ` (
			task_id bigint PRIMARY KEY,
			target text,
			admin text,
			pending_admin text,
			balance varint,
			amount_spent varint,
			execute_gas_limit bigint,
			check_data blob,
			trigger_type tinyint,
			trigger_config blob,
			offchain_config blob,
			paused boolean,
			max_valid_height varint,
			last_performed_height varint,
			last_cron_tick varint
		)`,
		`CREATE TABLE IF NOT EXISTS ` + m.table(DedupTable) + ` (
			dedup_key blob PRIMARY KEY
		)`,
		`CREATE TABLE IF NOT EXISTS ` + m.table(GlobalsTable) + ` (
			id text PRIMARY KEY,
			owner text,
			paused boolean,
			config_count bigint,
			task_counter varint,
			state blob
		)`,
	}
	for _, stmt := range stmts {
		if err := m.exec(ctx, stmt, nil, nil); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	m.logger.Info("Mirror schema ready", "keyspace", m.keyspace)
	return nil
}

// Apply writes a committed change set.
func (m *Mirror) Apply(ctx context.Context, cs *store.ChangeSet) error {
	if cs == nil {
		return nil
	}
	insertTask, taskNames := qb.Insert(m.table(TasksTable)).Columns(taskColumns...).ToCql()
	for _, t := range cs.Upserted {
		if err := m.exec(ctx, insertTask, taskNames, taskRow(t)); err != nil {
			return fmt.Errorf("failed to upsert task %d: %w", t.ID, err)
		}
	}

	deleteTask, deleteNames := qb.Delete(m.table(TasksTable)).Where(qb.Eq("task_id")).ToCql()
	for _, id := range cs.Deleted {
		if err := m.exec(ctx, deleteTask, deleteNames, map[string]interface{}{"task_id": int64(id)}); err != nil {
			return fmt.Errorf("failed to delete task %d: %w", id, err)
		}
	}

	insertKey, keyNames := qb.Insert(m.table(DedupTable)).Columns("dedup_key").ToCql()
	for _, key := range cs.Dedup {
		if err := m.exec(ctx, insertKey, keyNames, map[string]interface{}{"dedup_key": key.Bytes()}); err != nil {
			return fmt.Errorf("failed to insert dedup key %s: %w", key.Hex(), err)
		}
	}

	if cs.Globals != nil {
		row, err := globalsRow(cs.Globals)
		if err != nil {
			return err
		}
		insertGlobals, globalsNames := qb.Insert(m.table(GlobalsTable)).Columns(globalsColumns...).ToCql()
		if err := m.exec(ctx, insertGlobals, globalsNames, row); err != nil {
			return fmt.Errorf("failed to write globals: %w", err)
		}
	}

	m.logger.Debug("Change set mirrored",
		"upserted", len(cs.Upserted),
		"deleted", len(cs.Deleted),
		"dedup_keys", len(cs.Dedup),
	)
	return nil
}

// LoadTasks reads every mirrored task.
func (m *Mirror) LoadTasks(ctx context.Context) ([]*types.Task, error) {
	stmt, names := qb.Select(m.table(TasksTable)).Columns(taskColumns...).ToCql()
	var rows []TaskRow
	if err := m.query(ctx, stmt, names, nil).SelectRelease(&rows); err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}
	out := make([]*types.Task, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.Task())
	}
	return out, nil
}

// LoadDedupKeys reads every recorded log dedup key.
func (m *Mirror) LoadDedupKeys(ctx context.Context) ([]common.Hash, error) {
	stmt, names := qb.Select(m.table(DedupTable)).Columns("dedup_key").ToCql()
	var rows []DedupRow
	if err := m.query(ctx, stmt, names, nil).SelectRelease(&rows); err != nil {
		return nil, fmt.Errorf("failed to load dedup keys: %w", err)
	}
	out := make([]common.Hash, len(rows))
	for i, row := range rows {
		out[i] = common.BytesToHash(row.DedupKey)
	}
	return out, nil
}

// LoadGlobals reads the registry wide state. It returns false if nothing was
// mirrored yet.
func (m *Mirror) LoadGlobals(ctx context.Context) (*store.Globals, bool, error) {
	stmt, names := qb.Select(m.table(GlobalsTable)).Columns(globalsColumns...).Where(qb.Eq("id")).ToCql()
	var rows []GlobalsRow
	if err := m.query(ctx, stmt, names, map[string]interface{}{"id": globalsRowID}).SelectRelease(&rows); err != nil {
		return nil, false, fmt.Errorf("failed to load globals: %w", err)
	}
	if len(rows) == 0 {
		return nil, false, nil
	}
	g := &store.Globals{}
	if err := json.Unmarshal(rows[0].State, g); err != nil {
		return nil, false, fmt.Errorf("failed to decode globals: %w", err)
	}
	return normalize(g), true, nil
}

func (m *Mirror) query(ctx context.Context, stmt string, names []string, values map[string]interface{}) Queryer {
	q := m.session.Query(stmt, names).WithContext(ctx)
	if values != nil {
		q = q.BindMap(values)
	}
	return q
}

func (m *Mirror) exec(ctx context.Context, stmt string, names []string, values map[string]interface{}) error {
	return retry.RetryFunc(ctx, func() error {
		return m.query(ctx, stmt, names, values).ExecRelease()
	}, m.retryConfig, m.logger)
}

// normalize fills the maps and amounts a decoded Globals may lack.
func normalize(g *store.Globals) *store.Globals {
	fresh := store.NewGlobals(g.Owner)
	if g.Signers == nil {
		g.Signers = fresh.Signers
	}
	if g.Transmitters == nil {
		g.Transmitters = fresh.Transmitters
	}
	if g.PeerPermissions == nil {
		g.PeerPermissions = fresh.PeerPermissions
	}
	for _, v := range []**big.Int{&g.TotalPremium, &g.OwnerBalance, &g.ExpectedBalance} {
		if *v == nil {
			*v = new(big.Int)
		}
	}
	return g
}
