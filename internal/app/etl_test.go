package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFeed(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "fr-en-calendrier-scolaire.csv")
	require.NoError(t, os.WriteFile(path, []byte(menjSample), 0644))
	return path
}

func TestPipelineBuildAndLoad(t *testing.T) {
	dir := t.TempDir()

	cfg := DefaultConfig()
	cfg.Driver = DriverSQLite
	cfg.DSN = filepath.Join(dir, "vacances.db")
	cfg.Inputs = []string{writeFeed(t, dir)}
	cfg.ColumnPrefix = "vac_"
	cfg.StagingTable = "t_vacances_raw"
	require.NoError(t, cfg.Validate())

	p, err := NewPipeline(cfg)
	require.NoError(t, err)

	res, err := p.Build()
	require.NoError(t, err)
	assert.Equal(t, 2, res.Stats.Records)
	// Toussaint zone A: 16 days; Noël Corse: 16 days
	assert.Equal(t, 32, res.Stats.Rows)
	assert.Equal(t, "vac_fr_zone_a", res.Table.Columns[1].Name)

	ctx := context.Background()
	store, err := OpenStore(ctx, cfg.Driver, cfg.DataSource())
	require.NoError(t, err)
	defer store.Close()

	run, err := p.Load(ctx, store, res)
	require.NoError(t, err)
	assert.Equal(t, 32, run.Rows)
	assert.Equal(t, res.Sources.Digest, run.Digest)
	assert.Equal(t, "2025-2026.1", run.ZoneVersion)
	assert.Equal(t, res.Built, run.BuiltAt)
	assert.False(t, run.BuiltAt.Before(run.StartedAt))

	assert.Equal(t, 32, count(t, store, `SELECT COUNT(*) FROM t_vacances`))
	assert.Equal(t, 16, count(t, store, `SELECT SUM("vac_fr_corse") FROM t_vacances`))
	assert.Equal(t, 2, count(t, store, `SELECT COUNT(*) FROM t_vacances_raw`))

	var id string
	require.NoError(t, store.db.QueryRow(`SELECT id FROM etl_runs`).Scan(&id))
	assert.Equal(t, run.ID.String(), id)
	assert.Equal(t, 1, count(t, store, `SELECT COUNT(*) FROM etl_runs WHERE built_at IS NOT NULL`))
}

func TestPipelineDateColumnAndNoSchoolYear(t *testing.T) {
	dir := t.TempDir()

	cfg := DefaultConfig()
	cfg.Inputs = []string{writeFeed(t, dir)}
	cfg.DateColumn = "vc_date"
	cfg.SchoolYear = false
	cfg.Year = 2026

	p, err := NewPipeline(cfg)
	require.NoError(t, err)

	res, err := p.Build()
	require.NoError(t, err)

	names := res.Table.Names()
	assert.Equal(t, "vc_date", names[0])
	assert.NotContains(t, names, "school_year")
	// only Noël ends in 2026
	assert.Equal(t, 1, res.Stats.OtherYear)
	assert.Equal(t, 16, res.Stats.Rows)
}

func TestPipelineBadZoneFile(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ZonesFile = filepath.Join(t.TempDir(), "missing.yaml")

	_, err := NewPipeline(cfg)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestPipelineRunsPostLoadScripts(t *testing.T) {
	dir := t.TempDir()
	sqlDir := filepath.Join(dir, "sql")
	require.NoError(t, os.MkdirAll(sqlDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(sqlDir, "t_vacances.sql"), []byte(
		`CREATE TABLE IF NOT EXISTS t_corse AS SELECT "date" FROM t_vacances WHERE "fr_corse" = 1`), 0644))

	cfg := DefaultConfig()
	cfg.Inputs = []string{writeFeed(t, dir)}
	cfg.SQLDir = sqlDir

	p, err := NewPipeline(cfg)
	require.NoError(t, err)
	res, err := p.Build()
	require.NoError(t, err)

	store := testStore(t)
	_, err = p.Load(context.Background(), store, res)
	require.NoError(t, err)
	assert.Equal(t, 16, count(t, store, `SELECT COUNT(*) FROM t_corse`))
}
