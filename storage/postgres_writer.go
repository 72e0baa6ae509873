package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"mp-watch/models"
)

// PostgresWriter persists the per-MP summary to PostgreSQL so the
// presentation layer can query it without touching the CSVs.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema
// migrations, and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(dsn string) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	pw := &PostgresWriter{db: db}
	if err := pw.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate() error {
	_, err := pw.db.Exec(`
		CREATE TABLE IF NOT EXISTS mp_summary (
			mp_id                  INTEGER PRIMARY KEY,
			name                   TEXT         NOT NULL,
			party                  TEXT         NOT NULL DEFAULT '',
			constituency           TEXT         NOT NULL DEFAULT '',
			gender                 VARCHAR(10)  NOT NULL DEFAULT '',
			is_landlord            BOOLEAN      NOT NULL DEFAULT FALSE,
			rental_properties      INTEGER      NOT NULL DEFAULT 0,
			expenses_total         NUMERIC(12,2) NOT NULL DEFAULT 0,
			hospitality_total      NUMERIC(12,2) NOT NULL DEFAULT 0,
			outside_earnings       NUMERIC(12,2) NOT NULL DEFAULT 0,
			property_score         NUMERIC(8,2) NOT NULL DEFAULT 0,
			hospitality_score      NUMERIC(8,2) NOT NULL DEFAULT 0,
			other_score            NUMERIC(8,2) NOT NULL DEFAULT 0,
			earnings_score         NUMERIC(8,2) NOT NULL DEFAULT 0,
			interesting_score      NUMERIC(8,2) NOT NULL DEFAULT 0,
			infobox_html           TEXT         NOT NULL DEFAULT '',
			created_at             TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_mp_summary_party ON mp_summary(party);
		CREATE INDEX IF NOT EXISTS idx_mp_summary_score ON mp_summary(interesting_score);
	`)
	return err
}

// Clear deletes all existing summary rows. The table is rebuilt from
// scratch on every run.
func (pw *PostgresWriter) Clear() error {
	_, err := pw.db.Exec("DELETE FROM mp_summary")
	if err != nil {
		return fmt.Errorf("postgres: clear: %w", err)
	}
	return nil
}

// WriteSummary batch-inserts the full dataset, clearing old rows first.
func (pw *PostgresWriter) WriteSummary(ds *models.Dataset) error {
	mps := ds.All()
	if len(mps) == 0 {
		return nil
	}

	if err := pw.Clear(); err != nil {
		return err
	}

	const batchSize = 50
	for i := 0; i < len(mps); i += batchSize {
		end := i + batchSize
		if end > len(mps) {
			end = len(mps)
		}
		if err := pw.insertBatch(mps[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (pw *PostgresWriter) insertBatch(batch []*models.MP) error {
	const cols = 16
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*cols)

	for idx, mp := range batch {
		base := idx * cols
		placeholders := make([]string, cols)
		for p := 0; p < cols; p++ {
			placeholders[p] = fmt.Sprintf("$%d", base+p+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")

		scores := domainScores(mp)
		valueArgs = append(valueArgs,
			mp.ID, mp.Name, mp.Party, mp.Constituency, mp.Gender,
			mp.IsLandlord, mp.RentalProperties,
			mp.ExpensesTotal, mp.Hospitality.Total, mp.OutsideEarnings,
			scores["Property"], scores["Hospitality"], scores["Other"],
			scores["Outside Earnings"],
			mp.InterestingScore, mp.InfoboxHTML)
	}

	query := fmt.Sprintf(`
		INSERT INTO mp_summary (
			mp_id, name, party, constituency, gender,
			is_landlord, rental_properties,
			expenses_total, hospitality_total, outside_earnings,
			property_score, hospitality_score, other_score, earnings_score,
			interesting_score, infobox_html
		)
		VALUES %s
		ON CONFLICT (mp_id) DO NOTHING
	`, strings.Join(valueStrings, ","))

	_, err := pw.db.Exec(query, valueArgs...)
	return err
}

func domainScores(mp *models.MP) map[string]float64 {
	out := make(map[string]float64, len(mp.Analyses))
	for _, d := range mp.Analyses {
		out[d.Name] = d.Score
	}
	return out
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}

// FetchTop retrieves the n highest-scoring MPs for the console report.
func (pw *PostgresWriter) FetchTop(n int) ([]*models.MP, error) {
	rows, err := pw.db.Query(`
		SELECT mp_id, name, party, constituency, interesting_score
		FROM mp_summary
		ORDER BY interesting_score DESC, mp_id
		LIMIT $1
	`, n)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch top: %w", err)
	}
	defer rows.Close()

	var mps []*models.MP
	for rows.Next() {
		mp := models.NewMP(0)
		if err := rows.Scan(&mp.ID, &mp.Name, &mp.Party, &mp.Constituency, &mp.InterestingScore); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		mps = append(mps, mp)
	}
	return mps, rows.Err()
}
