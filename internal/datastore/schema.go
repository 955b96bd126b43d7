package datastore

import (
	"context"
	"strings"

	"github.com/tphakala/wildlife-alert/internal/errors"
	"github.com/tphakala/wildlife-alert/internal/logger"
)

// InitDB creates the alerts table when missing and adds any upgrade column
// an older table lacks. Running it again is a no-op.
func (s *Store) InitDB(ctx context.Context) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	m := db.Migrator()

	if !m.HasTable(&Alert{}) {
		if err := m.CreateTable(&Alert{}); err != nil {
			return dbError(err, "create_table", errors.PriorityHigh, "table", "alerts")
		}
		s.logger.Info("created alerts table")
	}

	for _, field := range upgradeColumns {
		if m.HasColumn(&Alert{}, field) {
			continue
		}
		if err := m.AddColumn(&Alert{}, field); err != nil {
			return dbError(err, "add_column", errors.PriorityHigh, "column", field)
		}
		s.logger.Info("added missing column", logger.String("column", field))
	}

	columns, err := s.Columns(ctx)
	if err != nil {
		return err
	}
	s.logger.Info("database schema ready",
		logger.String("columns", strings.Join(columns, ",")),
		logger.Int("column_count", len(columns)))
	return nil
}

// Columns lists the column names of the alerts table in table order.
func (s *Store) Columns(ctx context.Context) ([]string, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	types, err := db.Migrator().ColumnTypes(&Alert{})
	if err != nil {
		return nil, dbError(err, "column_types", "", "table", "alerts")
	}
	names := make([]string, 0, len(types))
	for _, ct := range types {
		names = append(names, ct.Name())
	}
	return names, nil
}
