// Package ledger persists batch run records in a local SQLite database.
//
// Every batch gets a random batch id; its runs are stored under that id with
// enough detail (seed, options of the failing step, error kind) to replay a
// failure without re-running the batch.
package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/gogpu/geofuzz"
)

// ErrClosed is returned by operations on a nil or closed ledger.
var ErrClosed = errors.New("ledger: not open")

// Ledger is a SQLite-backed run ledger. It is safe for concurrent use.
type Ledger struct {
	db *sql.DB
}

// Open opens or creates the ledger database at path, creating its parent
// directory if needed.
func Open(path string) (*Ledger, error) {
	p := filepath.Clean(strings.TrimSpace(path))
	if p == "" || p == "." {
		return nil, errors.New("ledger: missing path")
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return nil, fmt.Errorf("ledger: %w", err)
	}

	db, err := sql.Open("sqlite", p)
	if err != nil {
		return nil, fmt.Errorf("ledger: open %s: %w", p, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ledger: %w", err)
	}
	return &Ledger{db: db}, nil
}

// Close closes the database.
func (l *Ledger) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}

// BatchInfo describes a recorded batch.
type BatchInfo struct {
	ID        string
	Seed      uint32
	InputDir  string
	OutputDir string
	Runs      int // planned runs
	Started   time.Time

	// Set by Finish.
	Finished time.Time
	Passed   int
	Failed   int
	Canceled int
}

// Writer records the runs of one batch. It implements geofuzz.RecordSink.
type Writer struct {
	l  *Ledger
	id string
}

// ID returns the batch id.
func (w *Writer) ID() string { return w.id }

// StartBatch registers a new batch and returns the writer for its runs.
// info.ID and info.Started are filled in when empty.
func (l *Ledger) StartBatch(ctx context.Context, info BatchInfo) (*Writer, error) {
	if l == nil || l.db == nil {
		return nil, ErrClosed
	}
	if info.ID == "" {
		info.ID = uuid.NewString()
	}
	if info.Started.IsZero() {
		info.Started = time.Now()
	}

	_, err := l.db.ExecContext(ctx, `
INSERT INTO batches(batch_id, seed, input_dir, output_dir, planned_runs, started_unix_ms)
VALUES(?, ?, ?, ?, ?, ?)
`, info.ID, int64(info.Seed), info.InputDir, info.OutputDir, info.Runs, info.Started.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("ledger: start batch: %w", err)
	}
	return &Writer{l: l, id: info.ID}, nil
}

// Record stores one run record. Recording the same run index twice replaces
// the earlier row.
func (w *Writer) Record(ctx context.Context, r geofuzz.RunRecord) error {
	if w == nil || w.l == nil || w.l.db == nil {
		return ErrClosed
	}
	assets, err := json.Marshal(r.Assets)
	if err != nil {
		return fmt.Errorf("ledger: encode assets: %w", err)
	}
	o := r.LastOptions
	_, err = w.l.db.ExecContext(ctx, `
INSERT OR REPLACE INTO runs(
  batch_id, run_index, kind, assets, shapes, composite_id, seed, steps, output_path,
  status, error_kind, error, fail_step,
  opt_shapes, opt_alpha, opt_candidates, opt_mutations, opt_seed, opt_workers,
  results, min_score, max_score, bytes, started_unix_ms, duration_ms
) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`,
		w.id, r.Index, string(r.Kind), string(assets), r.Shapes.String(), r.CompositeID,
		int64(r.Seed), r.Steps, r.OutputPath,
		string(r.Status), errorKindName(r.ErrorKind), r.Error, r.FailStep,
		o.Shapes.String(), int(o.Alpha), o.CandidateCount, o.MaxMutations, int64(o.Seed), o.MaxWorkers,
		r.Results, r.MinScore, r.MaxScore, r.Bytes, r.Started.UnixMilli(), r.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("ledger: record run %d: %w", r.Index, err)
	}
	return nil
}

// Finish stores the outcome counts of the batch.
func (w *Writer) Finish(ctx context.Context, s *geofuzz.Summary) error {
	if w == nil || w.l == nil || w.l.db == nil {
		return ErrClosed
	}
	_, err := w.l.db.ExecContext(ctx, `
UPDATE batches SET finished_unix_ms = ?, passed = ?, failed = ?, canceled = ?
WHERE batch_id = ?
`, time.Now().UnixMilli(), s.Passed, s.Failed, s.Canceled, w.id)
	if err != nil {
		return fmt.Errorf("ledger: finish batch: %w", err)
	}
	return nil
}

// Batches returns every recorded batch, most recent first.
func (l *Ledger) Batches(ctx context.Context) ([]BatchInfo, error) {
	if l == nil || l.db == nil {
		return nil, ErrClosed
	}
	rows, err := l.db.QueryContext(ctx, `
SELECT batch_id, seed, input_dir, output_dir, planned_runs, started_unix_ms,
       finished_unix_ms, passed, failed, canceled
FROM batches
ORDER BY started_unix_ms DESC, rowid DESC
`)
	if err != nil {
		return nil, fmt.Errorf("ledger: list batches: %w", err)
	}
	defer rows.Close()

	var out []BatchInfo
	for rows.Next() {
		var b BatchInfo
		var seed, started, finished int64
		if err := rows.Scan(&b.ID, &seed, &b.InputDir, &b.OutputDir, &b.Runs, &started,
			&finished, &b.Passed, &b.Failed, &b.Canceled); err != nil {
			return nil, fmt.Errorf("ledger: scan batch: %w", err)
		}
		b.Seed = uint32(seed)
		b.Started = time.UnixMilli(started)
		if finished > 0 {
			b.Finished = time.UnixMilli(finished)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Runs returns the records of batch id ordered by run index.
// With failedOnly set, passed runs are skipped.
func (l *Ledger) Runs(ctx context.Context, id string, failedOnly bool) ([]geofuzz.RunRecord, error) {
	if l == nil || l.db == nil {
		return nil, ErrClosed
	}
	query := `
SELECT run_index, kind, assets, shapes, composite_id, seed, steps, output_path,
       status, error_kind, error, fail_step,
       opt_shapes, opt_alpha, opt_candidates, opt_mutations, opt_seed, opt_workers,
       results, min_score, max_score, bytes, started_unix_ms, duration_ms
FROM runs
WHERE batch_id = ?`
	if failedOnly {
		query += ` AND status <> 'passed'`
	}
	query += ` ORDER BY run_index ASC`

	rows, err := l.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("ledger: list runs: %w", err)
	}
	defer rows.Close()

	var out []geofuzz.RunRecord
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("ledger: scan run: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanRun(rows *sql.Rows) (geofuzz.RunRecord, error) {
	var (
		r                                geofuzz.RunRecord
		kind, assets, shapes, status     string
		errKind, optShapes               string
		seed, optSeed, started, duration int64
		alpha                            int
	)
	err := rows.Scan(&r.Index, &kind, &assets, &shapes, &r.CompositeID, &seed, &r.Steps, &r.OutputPath,
		&status, &errKind, &r.Error, &r.FailStep,
		&optShapes, &alpha, &r.LastOptions.CandidateCount, &r.LastOptions.MaxMutations, &optSeed, &r.LastOptions.MaxWorkers,
		&r.Results, &r.MinScore, &r.MaxScore, &r.Bytes, &started, &duration)
	if err != nil {
		return r, err
	}
	if err := json.Unmarshal([]byte(assets), &r.Assets); err != nil {
		return r, fmt.Errorf("decode assets: %w", err)
	}
	if r.Shapes, err = parseShapes(shapes); err != nil {
		return r, err
	}
	if r.LastOptions.Shapes, err = parseShapes(optShapes); err != nil {
		return r, err
	}
	r.Kind = geofuzz.RunKind(kind)
	r.Status = geofuzz.RunStatus(status)
	r.ErrorKind = parseErrorKind(errKind)
	r.Seed = uint64(seed)
	r.LastOptions.Alpha = uint8(alpha)
	r.LastOptions.Seed = uint32(optSeed)
	r.Started = time.UnixMilli(started)
	r.Duration = time.Duration(duration) * time.Millisecond
	return r, nil
}

func parseShapes(s string) (geofuzz.ShapeSet, error) {
	if s == "none" {
		return geofuzz.ShapeSet{}, nil
	}
	return geofuzz.ParseShapeSet(s)
}

var errorKinds = []geofuzz.ErrorKind{
	geofuzz.KindConfig,
	geofuzz.KindLoad,
	geofuzz.KindValidation,
	geofuzz.KindWrite,
	geofuzz.KindEngine,
	geofuzz.KindCanceled,
}

func errorKindName(k geofuzz.ErrorKind) string {
	if k == 0 {
		return ""
	}
	return k.String()
}

func parseErrorKind(s string) geofuzz.ErrorKind {
	for _, k := range errorKinds {
		if k.String() == s {
			return k
		}
	}
	return 0
}
