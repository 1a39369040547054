// Package sqlite 提供基于SQLite的工作流状态存储实现
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/Eugenepoly/market-agent/pkg/core/state"
	"github.com/Eugenepoly/market-agent/pkg/storage"
)

// workflowStateDAO 数据库行映射（内部结构）
// steps/options/approval以JSON列存储
type workflowStateDAO struct {
	ID        string         `db:"id"`
	Kind      string         `db:"kind"`
	Status    string         `db:"status"`
	Steps     string         `db:"steps"`
	Options   string         `db:"options"`
	Approval  sql.NullString `db:"approval"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}

// StateStore SQLite版工作流状态存储（对外导出）
type StateStore struct {
	db *sqlx.DB
}

// NewStateStore 创建SQLite状态存储（对外导出的工厂方法）
// dsn: 数据库连接字符串（如"./market-agent.db"）
func NewStateStore(dsn string) (*StateStore, error) {
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("打开数据库失败: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("数据库连接失败: %w", err)
	}

	s := &StateStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("初始化表结构失败: %w", err)
	}
	return s, nil
}

// initSchema 初始化数据库表结构（内部方法）
func (s *StateStore) initSchema() error {
	createTableSQL := `
	CREATE TABLE IF NOT EXISTS workflow_state (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		status TEXT NOT NULL,
		steps TEXT NOT NULL,
		options TEXT NOT NULL,
		approval TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_workflow_state_status ON workflow_state(status);
	CREATE INDEX IF NOT EXISTS idx_workflow_state_kind ON workflow_state(kind);
	`
	_, err := s.db.Exec(createTableSQL)
	return err
}

// Save 保存状态记录（INSERT OR REPLACE，调用方视角原子）
func (s *StateStore) Save(ctx context.Context, w *state.WorkflowState) error {
	dao, err := toDAO(w)
	if err != nil {
		return err
	}

	query := `
	INSERT OR REPLACE INTO workflow_state
	(id, kind, status, steps, options, approval, created_at, updated_at)
	VALUES (:id, :kind, :status, :steps, :options, :approval, :created_at, :updated_at)
	`
	if _, err := s.db.NamedExecContext(ctx, query, dao); err != nil {
		return fmt.Errorf("保存工作流状态失败: %w", err)
	}
	return nil
}

// Load 根据ID加载状态
func (s *StateStore) Load(ctx context.Context, id string) (*state.WorkflowState, error) {
	var dao workflowStateDAO
	query := `SELECT id, kind, status, steps, options, approval, created_at, updated_at FROM workflow_state WHERE id = ?`
	if err := s.db.GetContext(ctx, &dao, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("查询工作流状态失败: %w", err)
	}
	return fromDAO(&dao)
}

// List 列出状态，按created_at升序
func (s *StateStore) List(ctx context.Context, filter storage.Filter) ([]*state.WorkflowState, error) {
	query := `SELECT id, kind, status, steps, options, approval, created_at, updated_at FROM workflow_state WHERE 1=1`
	args := make([]interface{}, 0, 2)
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.Kind != "" {
		query += ` AND kind = ?`
		args = append(args, filter.Kind)
	}
	query += ` ORDER BY created_at ASC`

	var daos []workflowStateDAO
	if err := s.db.SelectContext(ctx, &daos, query, args...); err != nil {
		return nil, fmt.Errorf("查询工作流状态列表失败: %w", err)
	}

	items := make([]*state.WorkflowState, 0, len(daos))
	for i := range daos {
		w, err := fromDAO(&daos[i])
		if err != nil {
			return nil, err
		}
		items = append(items, w)
	}
	return items, nil
}

// Close 关闭数据库连接（对外导出）
func (s *StateStore) Close() error {
	return s.db.Close()
}

// toDAO 业务实体转数据库行（内部函数）
func toDAO(w *state.WorkflowState) (*workflowStateDAO, error) {
	stepsJSON, err := json.Marshal(w.Steps)
	if err != nil {
		return nil, fmt.Errorf("序列化步骤记录失败: %w", err)
	}
	optionsJSON, err := json.Marshal(w.Options)
	if err != nil {
		return nil, fmt.Errorf("序列化运行配置失败: %w", err)
	}

	dao := &workflowStateDAO{
		ID:        w.ID,
		Kind:      w.Kind,
		Status:    string(w.Status),
		Steps:     string(stepsJSON),
		Options:   string(optionsJSON),
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}
	if w.Approval != nil {
		approvalJSON, err := json.Marshal(w.Approval)
		if err != nil {
			return nil, fmt.Errorf("序列化审批记录失败: %w", err)
		}
		dao.Approval.Valid = true
		dao.Approval.String = string(approvalJSON)
	}
	return dao, nil
}

// fromDAO 数据库行转业务实体（内部函数）
func fromDAO(dao *workflowStateDAO) (*state.WorkflowState, error) {
	w := &state.WorkflowState{
		ID:        dao.ID,
		Kind:      dao.Kind,
		Status:    state.Status(dao.Status),
		CreatedAt: dao.CreatedAt,
		UpdatedAt: dao.UpdatedAt,
	}
	if err := json.Unmarshal([]byte(dao.Steps), &w.Steps); err != nil {
		return nil, fmt.Errorf("反序列化步骤记录失败: %w", err)
	}
	if err := json.Unmarshal([]byte(dao.Options), &w.Options); err != nil {
		return nil, fmt.Errorf("反序列化运行配置失败: %w", err)
	}
	if dao.Approval.Valid && dao.Approval.String != "" {
		var approval state.Approval
		if err := json.Unmarshal([]byte(dao.Approval.String), &approval); err != nil {
			return nil, fmt.Errorf("反序列化审批记录失败: %w", err)
		}
		w.Approval = &approval
	}
	return w, nil
}
