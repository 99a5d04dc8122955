package storage

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/mattn/go-sqlite3"
)

const trajectorySchema = `
CREATE TABLE samples (
	sample   INTEGER,
	particle INTEGER,
	t  REAL,
	x  REAL,
	y  REAL,
	z  REAL,
	vx REAL,
	vy REAL,
	vz REAL);
CREATE INDEX idx_sample ON samples (sample, particle);
CREATE INDEX idx_particle ON samples (particle);
`

const insertSample = `INSERT INTO samples VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);`
const querySample = `SELECT particle, t, x, y, z, vx, vy, vz FROM samples WHERE sample = ? ORDER BY particle ASC;`

// ExportSQLite writes a trajectory into a fresh SQLite database, one row per
// (sample, particle). Refuses to overwrite an existing file. Journaling and
// fsync are off: the database is a derived artifact, regenerate it on
// corruption.
func ExportSQLite(path string, particles int, states [][]float64, times []float64) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("refusing to overwrite %s", path)
	}
	if len(states) != len(times) {
		return fmt.Errorf("got %d states for %d times", len(states), len(times))
	}

	db, err := sql.Open("sqlite3", "file:"+path+"?_journal_mode=OFF&_synchronous=OFF")
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.Exec(trajectorySchema); err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(insertSample)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for k, state := range states {
		if len(state) != 6*particles {
			tx.Rollback()
			return fmt.Errorf("sample %d has %d components, want %d", k, len(state), 6*particles)
		}
		for i := 0; i < particles; i++ {
			_, err := stmt.Exec(k, i, times[k],
				state[3*i], state[3*i+1], state[3*i+2],
				state[3*particles+3*i], state[3*particles+3*i+1], state[3*particles+3*i+2])
			if err != nil {
				tx.Rollback()
				return err
			}
		}
	}

	return tx.Commit()
}

// ReadSQLiteSample reads one sample back as a flattened state vector.
func ReadSQLiteSample(path string, particles, sample int) ([]float64, float64, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, 0, err
	}
	defer db.Close()

	rows, err := db.Query(querySample, sample)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	state := make([]float64, 6*particles)
	var t float64
	count := 0
	for rows.Next() {
		var i int
		var x, y, z, vx, vy, vz float64
		if err := rows.Scan(&i, &t, &x, &y, &z, &vx, &vy, &vz); err != nil {
			return nil, 0, err
		}
		if i < 0 || i >= particles {
			return nil, 0, fmt.Errorf("particle index %d out of range", i)
		}
		state[3*i], state[3*i+1], state[3*i+2] = x, y, z
		state[3*particles+3*i], state[3*particles+3*i+1], state[3*particles+3*i+2] = vx, vy, vz
		count++
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if count != particles {
		return nil, 0, fmt.Errorf("sample %d has %d particles, want %d", sample, count, particles)
	}
	return state, t, nil
}
