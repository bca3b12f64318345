package leads

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	errx "github.com/eduzen-bot/server/internal/core/error"
	logx "github.com/eduzen-bot/server/pkg/logger"
)

// CSVStore keeps each lead kind in its own headed CSV file under a directory.
// Appends are serialized per table and rewrite the file atomically (temp file
// plus rename), so concurrent callers cannot drop each other's rows.
type CSVStore struct {
	dir    string
	tables map[Kind]*csvTable
}

type csvTable struct {
	mu      sync.Mutex
	path    string
	columns []string
}

// NewCSVStore creates the storage directory if needed. Table files are only
// created on first append.
func NewCSVStore(dir string) (*CSVStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errx.WrapStorage(err)
	}
	return &CSVStore{
		dir: dir,
		tables: map[Kind]*csvTable{
			KindStudents:  {path: filepath.Join(dir, "students_leads.csv"), columns: studentColumns},
			KindWorkshops: {path: filepath.Join(dir, "workshops_leads.csv"), columns: workshopColumns},
			KindFeedback:  {path: filepath.Join(dir, "feedback.csv"), columns: feedbackColumns},
		},
	}, nil
}

func (s *CSVStore) AppendStudent(ctx context.Context, lead StudentLead) error {
	if err := lead.validate(); err != nil {
		return err
	}
	return s.append(ctx, KindStudents, lead.row(stamp()))
}

func (s *CSVStore) AppendWorkshop(ctx context.Context, lead WorkshopLead) error {
	if err := lead.validate(); err != nil {
		return err
	}
	return s.append(ctx, KindWorkshops, lead.row(stamp()))
}

func (s *CSVStore) AppendFeedback(ctx context.Context, fb Feedback) error {
	if err := fb.validate(); err != nil {
		return err
	}
	return s.append(ctx, KindFeedback, fb.row(stamp()))
}

func (s *CSVStore) Students(ctx context.Context) ([]StudentLead, error) {
	rows, err := s.readAll(ctx, KindStudents)
	if err != nil {
		return nil, err
	}
	out := make([]StudentLead, 0, len(rows))
	for _, r := range rows {
		out = append(out, studentFromRow(r))
	}
	return out, nil
}

func (s *CSVStore) Workshops(ctx context.Context) ([]WorkshopLead, error) {
	rows, err := s.readAll(ctx, KindWorkshops)
	if err != nil {
		return nil, err
	}
	out := make([]WorkshopLead, 0, len(rows))
	for _, r := range rows {
		out = append(out, workshopFromRow(r))
	}
	return out, nil
}

func (s *CSVStore) Feedback(ctx context.Context) ([]Feedback, error) {
	rows, err := s.readAll(ctx, KindFeedback)
	if err != nil {
		return nil, err
	}
	out := make([]Feedback, 0, len(rows))
	for _, r := range rows {
		out = append(out, feedbackFromRow(r))
	}
	return out, nil
}

func (s *CSVStore) Close() error { return nil }

func (s *CSVStore) append(ctx context.Context, kind Kind, row []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t := s.tables[kind]
	t.mu.Lock()
	defer t.mu.Unlock()

	rows, err := t.read()
	if err != nil {
		logx.Error().Err(err).Str("table", string(kind)).Msg("failed to read lead table before append")
		return errx.WrapStorage(err)
	}
	rows = append(rows, row)

	if err := t.rewrite(s.dir, rows); err != nil {
		logx.Error().Err(err).Str("table", string(kind)).Msg("failed to rewrite lead table")
		return errx.WrapStorage(err)
	}
	return nil
}

func (s *CSVStore) readAll(ctx context.Context, kind Kind) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t := s.tables[kind]
	t.mu.Lock()
	defer t.mu.Unlock()

	rows, err := t.read()
	if err != nil {
		logx.Error().Err(err).Str("table", string(kind)).Msg("failed to read lead table")
		return nil, errx.WrapStorage(err)
	}
	return rows, nil
}

// read returns the data rows of the table, excluding the header. A missing
// file is an empty table, not an error. Caller holds the table lock.
func (t *csvTable) read() ([][]string, error) {
	f, err := os.Open(t.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(t.columns)
	all, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(t.path), err)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all[1:], nil
}

// rewrite replaces the table file with header plus rows via temp file and
// rename so readers never observe a partial write. Caller holds the table lock.
func (t *csvTable) rewrite(dir string, rows [][]string) error {
	tmp, err := os.CreateTemp(dir, filepath.Base(t.path)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(t.columns); err != nil {
		tmp.Close()
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		tmp.Close()
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), t.path)
}

var _ Store = (*CSVStore)(nil)
