package leads

import (
	"context"
	"database/sql"
	"fmt"

	errx "github.com/eduzen-bot/server/internal/core/error"
	logx "github.com/eduzen-bot/server/pkg/logger"
	_ "modernc.org/sqlite"
)

// SQLiteStore is the embedded-database lead backend. Appends are single
// INSERTs, so they are atomic with respect to concurrent callers without any
// locking on our side.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at dbPath and applies the
// schema.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set pragmas: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS students_leads (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		language TEXT NOT NULL,
		subjects TEXT NOT NULL,
		grade TEXT NOT NULL,
		location TEXT NOT NULL,
		contact_info TEXT NOT NULL DEFAULT '',
		timestamp TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS workshops_leads (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		organization_name TEXT NOT NULL,
		contact_person TEXT NOT NULL,
		email TEXT NOT NULL,
		phone TEXT NOT NULL,
		program_type TEXT NOT NULL,
		program_name TEXT NOT NULL,
		description TEXT NOT NULL,
		target_audience TEXT NOT NULL,
		duration TEXT NOT NULL,
		location TEXT NOT NULL,
		expected_participants TEXT NOT NULL,
		timestamp TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS feedback (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_question TEXT NOT NULL,
		category TEXT NOT NULL,
		urgency TEXT NOT NULL,
		contact_info TEXT NOT NULL DEFAULT '',
		timestamp TEXT NOT NULL
	);`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) AppendStudent(ctx context.Context, lead StudentLead) error {
	if err := lead.validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO students_leads (name, email, language, subjects, grade, location, contact_info, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		lead.Name, lead.Email, lead.Language, lead.Subjects, lead.Grade, lead.Location, lead.ContactInfo, stamp())
	if err != nil {
		logx.Error().Err(err).Msg("failed to insert student lead")
		return errx.WrapStorage(err)
	}
	return nil
}

func (s *SQLiteStore) AppendWorkshop(ctx context.Context, lead WorkshopLead) error {
	if err := lead.validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO workshops_leads (organization_name, contact_person, email, phone, program_type,
		 program_name, description, target_audience, duration, location, expected_participants, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		lead.OrganizationName, lead.ContactPerson, lead.Email, lead.Phone, lead.ProgramType,
		lead.ProgramName, lead.Description, lead.TargetAudience, lead.Duration, lead.Location,
		lead.ExpectedParticipants, stamp())
	if err != nil {
		logx.Error().Err(err).Msg("failed to insert workshop lead")
		return errx.WrapStorage(err)
	}
	return nil
}

func (s *SQLiteStore) AppendFeedback(ctx context.Context, fb Feedback) error {
	if err := fb.validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO feedback (user_question, category, urgency, contact_info, timestamp)
		 VALUES (?, ?, ?, ?, ?)`,
		fb.UserQuestion, fb.Category, fb.Urgency, fb.ContactInfo, stamp())
	if err != nil {
		logx.Error().Err(err).Msg("failed to insert feedback")
		return errx.WrapStorage(err)
	}
	return nil
}

func (s *SQLiteStore) Students(ctx context.Context) ([]StudentLead, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, email, language, subjects, grade, location, contact_info, timestamp
		 FROM students_leads ORDER BY id`)
	if err != nil {
		logx.Error().Err(err).Msg("failed to query student leads")
		return nil, errx.WrapStorage(err)
	}
	defer rows.Close()

	var out []StudentLead
	for rows.Next() {
		var l StudentLead
		if err := rows.Scan(&l.Name, &l.Email, &l.Language, &l.Subjects, &l.Grade, &l.Location, &l.ContactInfo, &l.Timestamp); err != nil {
			return nil, errx.WrapStorage(err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, errx.WrapStorage(err)
	}
	return out, nil
}

func (s *SQLiteStore) Workshops(ctx context.Context) ([]WorkshopLead, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT organization_name, contact_person, email, phone, program_type, program_name,
		 description, target_audience, duration, location, expected_participants, timestamp
		 FROM workshops_leads ORDER BY id`)
	if err != nil {
		logx.Error().Err(err).Msg("failed to query workshop leads")
		return nil, errx.WrapStorage(err)
	}
	defer rows.Close()

	var out []WorkshopLead
	for rows.Next() {
		var l WorkshopLead
		if err := rows.Scan(&l.OrganizationName, &l.ContactPerson, &l.Email, &l.Phone, &l.ProgramType,
			&l.ProgramName, &l.Description, &l.TargetAudience, &l.Duration, &l.Location,
			&l.ExpectedParticipants, &l.Timestamp); err != nil {
			return nil, errx.WrapStorage(err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, errx.WrapStorage(err)
	}
	return out, nil
}

func (s *SQLiteStore) Feedback(ctx context.Context) ([]Feedback, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_question, category, urgency, contact_info, timestamp FROM feedback ORDER BY id`)
	if err != nil {
		logx.Error().Err(err).Msg("failed to query feedback")
		return nil, errx.WrapStorage(err)
	}
	defer rows.Close()

	var out []Feedback
	for rows.Next() {
		var f Feedback
		if err := rows.Scan(&f.UserQuestion, &f.Category, &f.Urgency, &f.ContactInfo, &f.Timestamp); err != nil {
			return nil, errx.WrapStorage(err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, errx.WrapStorage(err)
	}
	return out, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

var _ Store = (*SQLiteStore)(nil)
