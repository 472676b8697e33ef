package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rl1809/teleshop-ledger/internal/core/domain"
)

// SQLAdapter implements the ledger, SIM and regs repositories over
// database/sql. It works unchanged against the sqlite and mysql drivers.
type SQLAdapter struct {
	db *sql.DB
}

func NewSQLAdapter(db *sql.DB) *SQLAdapter {
	return &SQLAdapter{db: db}
}

func (a *SQLAdapter) GetQuantity(ctx context.Context, agentID string, itemType domain.ItemType) (int, error) {
	var qty int
	err := a.db.QueryRowContext(ctx, `
		SELECT quantity FROM inventory WHERE agent_id = ? AND item_type = ?`,
		agentID, itemType,
	).Scan(&qty)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("query inventory: %w", err)
	}
	return qty, nil
}

// AppendJournal inserts entries and moves the materialized quantities in a
// single transaction. Either the whole set lands or none of it does.
func (a *SQLAdapter) AppendJournal(ctx context.Context, entries []domain.JournalEntry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, e := range entries {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO journal (agent_id, period, item_type, quantity_delta, external_ref, batch_id, applied_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			e.AgentID, e.Period, e.ItemType, e.QuantityDelta, e.ExternalRef, e.BatchID, e.AppliedAt,
		)
		if err != nil {
			return fmt.Errorf("insert journal entry: %w", err)
		}
		if err := adjustQuantity(ctx, tx, e.AgentID, e.ItemType, e.QuantityDelta, e.AppliedAt); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (a *SQLAdapter) DeleteBatch(ctx context.Context, agentID, period string) (int, error) {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	// Reverse the materialized effect before dropping the entries.
	rows, err := tx.QueryContext(ctx, `
		SELECT item_type, SUM(quantity_delta) FROM journal
		WHERE agent_id = ? AND period = ? GROUP BY item_type`,
		agentID, period,
	)
	if err != nil {
		return 0, fmt.Errorf("sum batch deltas: %w", err)
	}
	sums := make(map[domain.ItemType]int)
	for rows.Next() {
		var it domain.ItemType
		var sum int
		if err := rows.Scan(&it, &sum); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scan batch delta: %w", err)
		}
		sums[it] = sum
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("iterate batch deltas: %w", err)
	}

	now := time.Now()
	for it, sum := range sums {
		if err := adjustQuantity(ctx, tx, agentID, it, -sum, now); err != nil {
			return 0, err
		}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM journal WHERE agent_id = ? AND period = ?`, agentID, period)
	if err != nil {
		return 0, fmt.Errorf("delete journal entries: %w", err)
	}
	removed, _ := res.RowsAffected()

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return int(removed), nil
}

func (a *SQLAdapter) FindExternalRef(ctx context.Context, agentID string, itemType domain.ItemType, ref string) (bool, error) {
	var one int
	err := a.db.QueryRowContext(ctx, `
		SELECT 1 FROM journal
		WHERE agent_id = ? AND item_type = ? AND external_ref = ? LIMIT 1`,
		agentID, itemType, ref,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query external ref: %w", err)
	}
	return true, nil
}

func (a *SQLAdapter) GetLevels(ctx context.Context, agentID string) ([]domain.InventoryLevel, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT agent_id, item_type, quantity, updated_at FROM inventory
		WHERE agent_id = ? ORDER BY item_type`,
		agentID,
	)
	if err != nil {
		return nil, fmt.Errorf("query levels: %w", err)
	}
	defer rows.Close()

	var levels []domain.InventoryLevel
	for rows.Next() {
		var lv domain.InventoryLevel
		if err := rows.Scan(&lv.AgentID, &lv.ItemType, &lv.Quantity, &lv.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan level: %w", err)
		}
		levels = append(levels, lv)
	}
	return levels, rows.Err()
}

func (a *SQLAdapter) SumLevels(ctx context.Context) (map[domain.ItemType]int, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT item_type, SUM(quantity) FROM inventory GROUP BY item_type`)
	if err != nil {
		return nil, fmt.Errorf("query totals: %w", err)
	}
	defer rows.Close()

	totals := make(map[domain.ItemType]int)
	for rows.Next() {
		var it domain.ItemType
		var sum int
		if err := rows.Scan(&it, &sum); err != nil {
			return nil, fmt.Errorf("scan total: %w", err)
		}
		totals[it] = sum
	}
	return totals, rows.Err()
}

func (a *SQLAdapter) JournalForBatch(ctx context.Context, agentID, period string) ([]domain.JournalEntry, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT id, agent_id, period, item_type, quantity_delta, external_ref, batch_id, applied_at
		FROM journal WHERE agent_id = ? AND period = ? ORDER BY id`,
		agentID, period,
	)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	var entries []domain.JournalEntry
	for rows.Next() {
		var e domain.JournalEntry
		if err := rows.Scan(&e.ID, &e.AgentID, &e.Period, &e.ItemType, &e.QuantityDelta, &e.ExternalRef, &e.BatchID, &e.AppliedAt); err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// adjustQuantity applies a delta to one materialized level inside tx,
// creating the row on first reference. Quantities never go below zero; the
// engine validates before writing and the CHECK constraint backs it up.
func adjustQuantity(ctx context.Context, tx *sql.Tx, agentID string, itemType domain.ItemType, delta int, at time.Time) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE inventory SET quantity = quantity + ?, updated_at = ?
		WHERE agent_id = ? AND item_type = ?`,
		delta, at, agentID, itemType,
	)
	if err != nil {
		return fmt.Errorf("update inventory: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO inventory (agent_id, item_type, quantity, updated_at)
			VALUES (?, ?, ?, ?)`,
			agentID, itemType, delta, at,
		)
		if err != nil {
			return fmt.Errorf("insert inventory row: %w", err)
		}
	}
	return nil
}

func (a *SQLAdapter) InsertSim(ctx context.Context, card domain.SimCard) (bool, error) {
	var one int
	err := a.db.QueryRowContext(ctx,
		`SELECT 1 FROM sim_registry WHERE gsm_number = ?`, card.GSM,
	).Scan(&one)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("query sim: %w", err)
	}

	_, err = a.db.ExecContext(ctx, `
		INSERT INTO sim_registry (gsm_number, carton_no, box_no, iccid, sim_type, location, status, note, added_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		card.GSM, card.CartonNo, card.BoxNo, card.ICCID, card.SimType, card.Location, card.Status, card.Note, time.Now(),
	)
	if err != nil {
		return false, fmt.Errorf("insert sim: %w", err)
	}
	return true, nil
}

func (a *SQLAdapter) MarkSold(ctx context.Context, gsm string) (bool, error) {
	res, err := a.db.ExecContext(ctx,
		`UPDATE sim_registry SET status = ?, location = ? WHERE gsm_number = ?`,
		domain.SimStatusSold, "Sold", gsm,
	)
	if err != nil {
		return false, fmt.Errorf("mark sold: %w", err)
	}
	affected, _ := res.RowsAffected()
	return affected > 0, nil
}

func (a *SQLAdapter) GetByGSM(ctx context.Context, gsm string) (*domain.SimCard, error) {
	var card domain.SimCard
	err := a.db.QueryRowContext(ctx, `
		SELECT id, gsm_number, carton_no, box_no, iccid, sim_type, location, status, note, added_at
		FROM sim_registry WHERE gsm_number = ?`, gsm,
	).Scan(&card.ID, &card.GSM, &card.CartonNo, &card.BoxNo, &card.ICCID, &card.SimType, &card.Location, &card.Status, &card.Note, &card.AddedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query sim: %w", err)
	}
	return &card, nil
}

func (a *SQLAdapter) CountByStatus(ctx context.Context, field, value string) (map[domain.SimStatus]int, error) {
	var query string
	switch field {
	case "box_no":
		query = `SELECT status, COUNT(*) FROM sim_registry WHERE box_no = ? GROUP BY status`
	case "carton_no":
		query = `SELECT status, COUNT(*) FROM sim_registry WHERE carton_no = ? GROUP BY status`
	default:
		return nil, fmt.Errorf("unsupported field %q", field)
	}
	rows, err := a.db.QueryContext(ctx, query, value)
	if err != nil {
		return nil, fmt.Errorf("count sims: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.SimStatus]int)
	for rows.Next() {
		var st domain.SimStatus
		var n int
		if err := rows.Scan(&st, &n); err != nil {
			return nil, fmt.Errorf("scan sim count: %w", err)
		}
		counts[st] = n
	}
	return counts, rows.Err()
}

// UpsertDailyRegs keeps one registration row per (agent, period): the
// previous one is dropped so recorded_at reflects the latest upload.
func (a *SQLAdapter) UpsertDailyRegs(ctx context.Context, agentID, period string, count int) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM daily_regs WHERE agent_id = ? AND period = ?`, agentID, period); err != nil {
		return fmt.Errorf("delete daily regs: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO daily_regs (agent_id, period, reg_count, recorded_at) VALUES (?, ?, ?, ?)`,
		agentID, period, count, time.Now(),
	); err != nil {
		return fmt.Errorf("insert daily regs: %w", err)
	}
	return tx.Commit()
}

func (a *SQLAdapter) SumRegsBetween(ctx context.Context, start, end string) (map[string]int, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT agent_id, SUM(reg_count) FROM daily_regs
		WHERE period BETWEEN ? AND ? GROUP BY agent_id`,
		start, end,
	)
	if err != nil {
		return nil, fmt.Errorf("query regs: %w", err)
	}
	defer rows.Close()

	totals := make(map[string]int)
	for rows.Next() {
		var agentID string
		var sum int
		if err := rows.Scan(&agentID, &sum); err != nil {
			return nil, fmt.Errorf("scan regs: %w", err)
		}
		totals[agentID] = sum
	}
	return totals, rows.Err()
}
