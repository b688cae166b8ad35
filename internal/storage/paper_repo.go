package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"papercast/internal/models"

	"github.com/jackc/pgx/v5"
)

// ErrPaperNotFound is returned when a lookup misses.
var ErrPaperNotFound = errors.New("paper not found")

type PaperRepo struct {
	db *DB
}

func NewPaperRepo(db *DB) *PaperRepo {
	return &PaperRepo{db: db}
}

const paperColumns = `id, paper_id, url, COALESCE(title,''), COALESCE(abstract,''), authors,
       target_date, sections, status, COALESCE(script,''), script_file_count, created_at, updated_at`

func (r *PaperRepo) Find(ctx context.Context, id int64) (models.Paper, error) {
	row := r.db.Pool.QueryRow(ctx, `SELECT `+paperColumns+` FROM papers WHERE id=$1`, id)
	p, err := scanPaper(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Paper{}, fmt.Errorf("paper id %d: %w", id, ErrPaperNotFound)
	}
	if err != nil {
		return models.Paper{}, fmt.Errorf("find paper: %w", err)
	}
	return p, nil
}

func (r *PaperRepo) SelectAll(ctx context.Context) ([]models.Paper, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT `+paperColumns+` FROM papers ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("select papers: %w", err)
	}
	defer rows.Close()
	return collectPapers(rows)
}

func (r *PaperRepo) SelectByDateAndStatus(ctx context.Context, targetDate string, status models.Status) ([]models.Paper, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+paperColumns+` FROM papers WHERE target_date=$1 AND status=$2 ORDER BY id`,
		targetDate, string(status))
	if err != nil {
		return nil, fmt.Errorf("select papers by date and status: %w", err)
	}
	defer rows.Close()
	return collectPapers(rows)
}

func (r *PaperRepo) Create(ctx context.Context, p models.Paper) (models.Paper, error) {
	sections, err := json.Marshal(p.Sections)
	if err != nil {
		return models.Paper{}, fmt.Errorf("marshal sections: %w", err)
	}
	row := r.db.Pool.QueryRow(ctx, `
INSERT INTO papers (paper_id, url, title, abstract, authors, target_date, sections, status, script, script_file_count)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9,''), $10)
RETURNING `+paperColumns,
		p.PaperID, p.URL, p.Title, p.Abstract, p.Authors, p.TargetDate, sections,
		string(p.Status), p.Script, p.ScriptFileCount)
	created, err := scanPaper(row)
	if err != nil {
		return models.Paper{}, fmt.Errorf("create paper: %w", err)
	}
	return created, nil
}

func (r *PaperRepo) Update(ctx context.Context, p models.Paper) (models.Paper, error) {
	sections, err := json.Marshal(p.Sections)
	if err != nil {
		return models.Paper{}, fmt.Errorf("marshal sections: %w", err)
	}
	row := r.db.Pool.QueryRow(ctx, `
UPDATE papers SET
  paper_id=$2, url=$3, title=$4, abstract=$5, authors=$6, target_date=$7,
  sections=$8, status=$9, script=NULLIF($10,''), script_file_count=$11, updated_at=NOW()
WHERE id=$1
RETURNING `+paperColumns,
		p.ID, p.PaperID, p.URL, p.Title, p.Abstract, p.Authors, p.TargetDate, sections,
		string(p.Status), p.Script, p.ScriptFileCount)
	updated, err := scanPaper(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Paper{}, fmt.Errorf("paper id %d: %w", p.ID, ErrPaperNotFound)
	}
	if err != nil {
		return models.Paper{}, fmt.Errorf("update paper: %w", err)
	}
	return updated, nil
}

func (r *PaperRepo) UpdateStatus(ctx context.Context, id int64, status models.Status) error {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE papers SET status=$2, updated_at=NOW() WHERE id=$1`, id, string(status))
	if err != nil {
		return fmt.Errorf("update paper status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("paper id %d: %w", id, ErrPaperNotFound)
	}
	return nil
}

func scanPaper(row pgx.Row) (models.Paper, error) {
	var (
		p        models.Paper
		status   string
		sections []byte
	)
	if err := row.Scan(&p.ID, &p.PaperID, &p.URL, &p.Title, &p.Abstract, &p.Authors,
		&p.TargetDate, &sections, &status, &p.Script, &p.ScriptFileCount,
		&p.CreatedAt, &p.UpdatedAt); err != nil {
		return models.Paper{}, err
	}
	p.Status = models.Status(status)
	if len(sections) > 0 {
		if err := json.Unmarshal(sections, &p.Sections); err != nil {
			return models.Paper{}, fmt.Errorf("decode sections: %w", err)
		}
	}
	return p, nil
}

func collectPapers(rows pgx.Rows) ([]models.Paper, error) {
	out := make([]models.Paper, 0)
	for rows.Next() {
		p, err := scanPaper(rows)
		if err != nil {
			return nil, fmt.Errorf("scan paper: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate papers: %w", err)
	}
	return out, nil
}
