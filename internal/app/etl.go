package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/Alexvc23/ETL-vacantions-France-and-neighboors/internal/matrix"
)

// Pipeline turns configured inputs into a vacation matrix
type Pipeline struct {
	cfg      Config
	zones    matrix.ZoneTable
	resolver *matrix.Resolver
	layout   matrix.Layout
}

// Result is one built matrix together with the inputs it came from
type Result struct {
	Table   *matrix.Table
	Stats   matrix.Stats
	Sources *Sources
	Started time.Time
	Built   time.Time
}

// NewPipeline loads the zone table and prepares the column layout
func NewPipeline(cfg Config) (*Pipeline, error) {
	zones, err := LoadZoneTable(cfg.ZonesFile)
	if err != nil {
		return nil, err
	}
	resolver, err := matrix.NewResolver(zones)
	if err != nil {
		return nil, err
	}

	layout := matrix.NewLayout(zones)
	layout.ColumnPrefix = cfg.ColumnPrefix
	if cfg.DateColumn != "" {
		layout.DateColumn = cfg.DateColumn
	}
	layout.SchoolYear = cfg.SchoolYear

	return &Pipeline{cfg: cfg, zones: zones, resolver: resolver, layout: layout}, nil
}

// Zones returns the zone table in use
func (p *Pipeline) Zones() matrix.ZoneTable {
	return p.zones
}

// Layout returns the output column layout
func (p *Pipeline) Layout() matrix.Layout {
	return p.layout
}

// Build reads the inputs and builds the matrix
func (p *Pipeline) Build() (*Result, error) {
	started := time.Now()

	src, err := ReadSources(p.cfg.Inputs)
	if err != nil {
		return nil, err
	}

	table, stats, err := matrix.Build(src.Records, p.resolver, p.layout, matrix.Options{
		DateMode: p.cfg.DateMode,
		Year:     p.cfg.Year,
		FillGaps: p.cfg.FillGaps,
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Built matrix: %d records, %d unmapped, %d malformed, %d outside year, %d day entries, %d rows, %d columns",
		stats.Records, stats.Unmapped, stats.Malformed, stats.OtherYear, stats.Entries, stats.Rows, len(table.Columns))
	if src.Skipped > 0 {
		log.Printf("⚠️  %d short CSV rows skipped", src.Skipped)
	}

	return &Result{Table: table, Stats: stats, Sources: src, Started: started, Built: time.Now()}, nil
}

// Load writes a built result to the store and runs the post-load scripts
func (p *Pipeline) Load(ctx context.Context, store *Store, res *Result) (Run, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return Run{}, fmt.Errorf("failed to generate run id: %w", err)
	}

	run := Run{
		ID:          id,
		StartedAt:   res.Started,
		BuiltAt:     res.Built,
		Table:       p.cfg.Table,
		Mode:        p.cfg.Mode,
		Rows:        len(res.Table.Rows),
		Files:       len(res.Sources.Files),
		Digest:      res.Sources.Digest,
		ZoneVersion: p.zones.Version,
	}

	req := LoadRequest{
		Table:        p.cfg.Table,
		Mode:         p.cfg.Mode,
		Matrix:       res.Table,
		StagingTable: p.cfg.StagingTable,
		Run:          run,
	}
	if p.cfg.StagingTable != "" {
		req.Staging = res.Sources.Records
	}
	if err := store.Load(ctx, req); err != nil {
		return run, err
	}
	log.Printf("✅ Run %s: %d rows written to %s (%s)", run.ID, run.Rows, run.Table, run.Mode)

	if p.cfg.SQLDir != "" {
		n, err := store.ExecScripts(ctx, p.cfg.SQLDir)
		if err != nil {
			return run, err
		}
		if n == 0 {
			log.Printf("⚠️  No post-load scripts found in %s", p.cfg.SQLDir)
		}
	}
	return run, nil
}
