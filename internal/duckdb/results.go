package duckdb

import (
	"context"
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/sveval/internal/metrics"
	"github.com/inodb/sveval/internal/sv"
)

// Run identifies one evaluation invocation.
type Run struct {
	ID        string
	Mode      string // trio, replicate or somatic
	Inputs    []string
	Params    string
	CreatedAt time.Time
}

// NewRun creates a run with a fresh ID.
func NewRun(mode string, params string, inputs ...string) Run {
	return Run{
		ID:        uuid.NewString(),
		Mode:      mode,
		Inputs:    inputs,
		Params:    params,
		CreatedAt: time.Now().UTC(),
	}
}

// MetricRow is one stored TP/FP/FN line.
type MetricRow struct {
	Tool   string
	SVType string
	metrics.Counts
}

// ConcordanceRow is one stored concordance line.
type ConcordanceRow struct {
	Callset string
	SVType  string
	metrics.Concordance
}

// append runs fn with an Appender on table and flushes it.
func (s *Store) append(table string, fn func(a *goduckdb.Appender) error) error {
	conn, err := s.db.Conn(context.Background())
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", table)
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}
	defer appender.Close()

	if err := fn(appender); err != nil {
		return err
	}
	return appender.Flush()
}

// WriteRun records a run.
func (s *Store) WriteRun(run Run) error {
	_, err := s.db.Exec(`INSERT INTO runs VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.Mode, strings.Join(run.Inputs, ","), run.Params, run.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// Runs returns all stored runs, oldest first.
func (s *Store) Runs() ([]Run, error) {
	rows, err := s.db.Query(`SELECT run_id, mode, inputs, params, created_at FROM runs ORDER BY created_at, run_id`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var inputs string
		if err := rows.Scan(&r.ID, &r.Mode, &inputs, &r.Params, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if inputs != "" {
			r.Inputs = strings.Split(inputs, ",")
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// WriteMetrics batch-inserts metric rows of a run using the Appender API.
func (s *Store) WriteMetrics(runID string, rows []MetricRow) error {
	if len(rows) == 0 {
		return nil
	}
	return s.append("metrics", func(a *goduckdb.Appender) error {
		for _, r := range rows {
			if err := a.AppendRow(
				runID, r.Tool, r.SVType,
				int64(r.TP), int64(r.FP), int64(r.FN),
				r.Precision(), r.Recall(), r.F1(),
			); err != nil {
				return fmt.Errorf("append metric: %w", err)
			}
		}
		return nil
	})
}

// RunMetrics returns the metric rows of a run in insertion order.
func (s *Store) RunMetrics(runID string) ([]MetricRow, error) {
	rows, err := s.db.Query(`SELECT tool, svtype, tp, fp, fn FROM metrics WHERE run_id=? ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("query metrics: %w", err)
	}
	defer rows.Close()

	var out []MetricRow
	for rows.Next() {
		var r MetricRow
		var tp, fp, fn int64
		if err := rows.Scan(&r.Tool, &r.SVType, &tp, &fp, &fn); err != nil {
			return nil, fmt.Errorf("scan metric: %w", err)
		}
		r.Counts = metrics.Counts{TP: int(tp), FP: int(fp), FN: int(fn)}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate metrics: %w", err)
	}
	return out, nil
}

// WriteConcordance batch-inserts concordance rows of a run.
func (s *Store) WriteConcordance(runID string, rows []ConcordanceRow) error {
	if len(rows) == 0 {
		return nil
	}
	return s.append("concordance", func(a *goduckdb.Appender) error {
		for _, r := range rows {
			if err := a.AppendRow(
				runID, r.Callset, r.SVType,
				int64(r.Total), int64(r.Confirmed), int64(r.Unconfirmed), r.Rate,
			); err != nil {
				return fmt.Errorf("append concordance: %w", err)
			}
		}
		return nil
	})
}

// RunConcordance returns the concordance rows of a run in insertion order.
func (s *Store) RunConcordance(runID string) ([]ConcordanceRow, error) {
	rows, err := s.db.Query(`SELECT callset, svtype, total, confirmed FROM concordance WHERE run_id=? ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("query concordance: %w", err)
	}
	defer rows.Close()

	var out []ConcordanceRow
	for rows.Next() {
		var r ConcordanceRow
		var total, confirmed int64
		if err := rows.Scan(&r.Callset, &r.SVType, &total, &confirmed); err != nil {
			return nil, fmt.Errorf("scan concordance: %w", err)
		}
		r.Concordance = metrics.NewConcordance(int(total), int(confirmed))
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate concordance: %w", err)
	}
	return out, nil
}

// WriteDiscordant stores unmatched records of a run. kind names the side,
// e.g. "fn", "fp" or "unconfirmed".
func (s *Store) WriteDiscordant(runID, tool, kind string, records []*sv.Record) error {
	if len(records) == 0 {
		return nil
	}
	return s.append("discordant", func(a *goduckdb.Appender) error {
		for _, r := range records {
			if err := a.AppendRow(
				runID, tool, kind,
				r.Chrom, r.Pos, r.End, r.Length,
				string(r.Type), r.PartnerChrom, string(r.Zygosity),
			); err != nil {
				return fmt.Errorf("append discordant record: %w", err)
			}
		}
		return nil
	})
}

// CountDiscordant returns the number of stored discordant records of a run
// and kind.
func (s *Store) CountDiscordant(runID, kind string) (int, error) {
	var n int64
	err := s.db.QueryRow(`SELECT count(*) FROM discordant WHERE run_id=? AND kind=?`, runID, kind).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count discordant: %w", err)
	}
	return int(n), nil
}
