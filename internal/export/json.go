// Package export moves the attendance database in and out of interchange
// formats: a validated JSON dump for backup and migration, an Excel
// workbook for mentors, and an iCalendar feed of recorded events.
package export

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cuejson "cuelang.org/go/encoding/json"

	"github.com/frcattend/attend/internal/model"
	"github.com/frcattend/attend/internal/store"
)

//go:embed schema.cue
var schemaCUE string

// WriteJSON dumps the entire database as indented JSON.
func WriteJSON(ctx context.Context, db *store.Store, w io.Writer) error {
	dump, err := db.Dump(ctx)
	if err != nil {
		return err
	}
	normalize(dump)

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(dump); err != nil {
		return fmt.Errorf("encode dump: %w", err)
	}
	return nil
}

// ImportJSON validates a JSON dump against the embedded schema and bulk
// loads it. Load bypasses the intake dedup logic: restore is a trusted
// path, but only after the shape and every enumeration value have been
// checked, so a hand-edited file cannot plant rows the application could
// never have written.
func ImportJSON(ctx context.Context, db *store.Store, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read dump: %w", err)
	}
	if err := Validate(data); err != nil {
		return err
	}

	var dump store.Dump
	if err := json.Unmarshal(data, &dump); err != nil {
		return fmt.Errorf("decode dump: %w", err)
	}
	return db.Load(ctx, &dump)
}

// Validate checks raw dump JSON against the #Dump schema.
func Validate(data []byte) error {
	cctx := cuecontext.New()
	schema := cctx.CompileString(schemaCUE)
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile dump schema: %w", err)
	}
	dumpDef := schema.LookupPath(cue.ParsePath("#Dump"))
	if err := dumpDef.Err(); err != nil {
		return fmt.Errorf("lookup #Dump: %w", err)
	}

	expr, err := cuejson.Extract("dump.json", data)
	if err != nil {
		return fmt.Errorf("invalid dump: %w", err)
	}
	value := cctx.BuildExpr(expr)
	if err := value.Err(); err != nil {
		return fmt.Errorf("invalid dump: %w", err)
	}

	unified := dumpDef.Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("dump failed validation: %w", err)
	}
	return nil
}

// normalize replaces nil collections so empty tables export as [] rather
// than null.
func normalize(d *store.Dump) {
	if d.Students == nil {
		d.Students = []model.Student{}
	}
	if d.Events == nil {
		d.Events = []model.Event{}
	}
	if d.Checkins == nil {
		d.Checkins = []model.Checkin{}
	}
	if d.Surveys == nil {
		d.Surveys = []model.Survey{}
	}
	if d.Answers == nil {
		d.Answers = []model.Answer{}
	}
}
