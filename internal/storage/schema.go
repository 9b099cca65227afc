package storage

// schema creates the mirror tables. Statements run one by one so the
// migration works under the extended protocol too.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS countries (
		code     CHAR(3) PRIMARY KEY,
		name     TEXT    NOT NULL,
		region   TEXT    NOT NULL DEFAULT '',
		position INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS country_stats (
		code      CHAR(3) NOT NULL REFERENCES countries (code) ON DELETE CASCADE,
		year      INTEGER NOT NULL,
		gdp       DOUBLE PRECISION,
		ineq_comb DOUBLE PRECISION,
		ineq_edu  DOUBLE PRECISION,
		ineq_inc  DOUBLE PRECISION,
		ineq_life DOUBLE PRECISION,
		PRIMARY KEY (code, year)
	)`,
	`CREATE TABLE IF NOT EXISTS dataset_meta (
		id          BOOLEAN PRIMARY KEY DEFAULT TRUE CHECK (id),
		fingerprint TEXT        NOT NULL,
		countries   INTEGER     NOT NULL,
		loaded_at   TIMESTAMPTZ NOT NULL,
		saved_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

var (
	countryColumns = []string{"code", "name", "region", "position"}
	statColumns    = []string{"code", "year", "gdp", "ineq_comb", "ineq_edu", "ineq_inc", "ineq_life"}
)

const upsertMeta = `INSERT INTO dataset_meta (id, fingerprint, countries, loaded_at, saved_at)
VALUES (TRUE, $1, $2, $3, now())
ON CONFLICT (id) DO UPDATE SET
	fingerprint = EXCLUDED.fingerprint,
	countries   = EXCLUDED.countries,
	loaded_at   = EXCLUDED.loaded_at,
	saved_at    = EXCLUDED.saved_at`
