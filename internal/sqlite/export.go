package sqlite

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/profilefields/pkg/types"
)

// jsonlTables maps JSONL files to tables and their columns. Categories load
// before fields and fields before data.
var jsonlTables = []struct {
	file    string
	table   string
	columns string
}{
	{"categories.jsonl", "categories", categoryColumns},
	{"fields.jsonl", "fields", fieldColumns},
	{"field_data.jsonl", "field_data", fieldDataColumns},
}

// Export writes every category, field definition and field data row to
// JSONL files in dir, one file per table.
func (b *Backend) Export(dir string) error {
	db, err := b.conn()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating export dir: %w", err)
	}

	for _, m := range jsonlTables {
		records, err := tableRecords(db, m.table, m.columns)
		if err != nil {
			return err
		}
		if err := writeJSONL(filepath.Join(dir, m.file), records); err != nil {
			return fmt.Errorf("writing %s: %w", m.file, err)
		}
		b.log.Debug("exported table", zap.String("table", m.table), zap.Int("rows", len(records)))
	}
	return nil
}

func tableRecords(db *sqlx.DB, table, columns string) ([]json.RawMessage, error) {
	rows, err := db.Queryx("SELECT " + columns + " FROM " + table + " ORDER BY id ASC")
	if err != nil {
		return nil, fmt.Errorf("querying %s for JSONL: %w", table, err)
	}
	defer rows.Close()

	var records []json.RawMessage
	for rows.Next() {
		rec := make(map[string]any)
		if err := rows.MapScan(rec); err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", table, err)
		}
		for k, v := range rec {
			if raw, ok := v.([]byte); ok {
				rec[k] = string(raw)
			}
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return nil, fmt.Errorf("marshaling %s row: %w", table, err)
		}
		records = append(records, data)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s for JSONL: %w", table, err)
	}
	return records, nil
}

// Import replaces the contents of all tables with the JSONL files in dir.
// Missing files import as empty tables; malformed lines and records
// rejected by the database are skipped. The replacement is transactional.
// The default category is seeded again when the import leaves none.
func (b *Backend) Import(dir string) error {
	db, err := b.conn()
	if err != nil {
		return err
	}

	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("beginning import transaction: %w", err)
	}
	defer tx.Rollback()

	for i := len(jsonlTables) - 1; i >= 0; i-- {
		if _, err := tx.Exec("DELETE FROM " + jsonlTables[i].table); err != nil {
			return fmt.Errorf("clearing %s: %w", jsonlTables[i].table, err)
		}
	}

	for _, m := range jsonlTables {
		records, err := readJSONL(filepath.Join(dir, m.file))
		if err != nil {
			return fmt.Errorf("reading %s: %w", m.file, err)
		}
		n, err := insertRecords(tx, m.table, strings.Split(m.columns, ", "), records)
		if err != nil {
			return fmt.Errorf("loading %s into %s: %w", m.file, m.table, err)
		}
		b.log.Debug("imported table", zap.String("table", m.table), zap.Int("rows", n), zap.Int("skipped", len(records)-n))
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing import: %w", err)
	}
	return seedDefaultCategory(db, types.ObjectUser, b.defaultCategory)
}

// insertRecords inserts parsed JSONL records, taking only the listed
// columns from each object so unknown keys are ignored. It returns how many
// rows were inserted.
func insertRecords(tx *sqlx.Tx, table string, columns []string, records []json.RawMessage) (int, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	stmt, err := tx.Preparex(fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(columns, ", "), placeholders,
	))
	if err != nil {
		return 0, fmt.Errorf("preparing insert for %s: %w", table, err)
	}
	defer stmt.Close()

	inserted := 0
	for _, rec := range records {
		var obj map[string]any
		if err := json.Unmarshal(rec, &obj); err != nil {
			continue
		}
		args := make([]any, len(columns))
		for i, col := range columns {
			v := obj[col]
			// JSON numbers decode as float64; the columns hold integers.
			if f, ok := v.(float64); ok && f == float64(int64(f)) {
				v = int64(f)
			}
			args[i] = v
		}
		if _, err := stmt.Exec(args...); err != nil {
			continue
		}
		inserted++
	}
	return inserted, nil
}
