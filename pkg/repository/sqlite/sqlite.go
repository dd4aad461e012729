package sqlite

import (
	"context"
	"database/sql"
	"embed"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/jobrisk/pkg/domain/interfaces"
	_ "modernc.org/sqlite"
)

//go:embed sql/*
var schemaFS embed.FS

// InMemory is the DSN of a private in-memory database
const InMemory = ":memory:"

type SQLite struct {
	db          *sql.DB
	trainingRun *trainingRunRepository
}

var _ interfaces.Repository = &SQLite{}

// New opens (and creates if needed) the database at path and applies the schema
func New(ctx context.Context, path string) (*SQLite, error) {
	if path == "" {
		return nil, goerr.New("sqlite path is required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open database", goerr.V("path", path))
	}
	// A second connection to :memory: would see an empty database
	db.SetMaxOpenConns(1)

	ddl, err := schemaFS.ReadFile("sql/ddl.sql")
	if err != nil {
		_ = db.Close()
		return nil, goerr.Wrap(err, "failed to read the schema creation file")
	}
	if _, err := db.ExecContext(ctx, string(ddl)); err != nil {
		_ = db.Close()
		return nil, goerr.Wrap(err, "failed to create database schema", goerr.V("path", path))
	}

	return &SQLite{
		db:          db,
		trainingRun: newTrainingRunRepository(db),
	}, nil
}

func (s *SQLite) TrainingRun() interfaces.TrainingRunRepository {
	return s.trainingRun
}

func (s *SQLite) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
