package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/keyframe/internal/fcurve"
	"github.com/roach88/keyframe/internal/keying"
	"github.com/roach88/keyframe/internal/scene"
)

// ErrNoScene is returned by LoadScene when nothing has been saved yet.
var ErrNoScene = errors.New("no scene stored")

type curveRow struct {
	id     int64
	owner  string
	source keying.CurveSource
	curve  *fcurve.Curve
}

// LoadScene rebuilds the stored scene.
//
// Rows are read to completion before the next query runs; the store uses
// a single connection.
func (s *Store) LoadScene(ctx context.Context) (*scene.Document, error) {
	doc := scene.New()

	var handle, interp string
	err := s.db.QueryRowContext(ctx, `SELECT handle, interpolation FROM scenes WHERE id = 1`).Scan(&handle, &interp)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoScene
	}
	if err != nil {
		return nil, fmt.Errorf("load scene: %w", err)
	}
	if doc.Preferences.Handle, err = fcurve.ParseHandleType(handle); err != nil {
		return nil, fmt.Errorf("load scene: %w", err)
	}
	if doc.Preferences.Interpolation, err = fcurve.ParseInterpolation(interp); err != nil {
		return nil, fmt.Errorf("load scene: %w", err)
	}

	if err := s.readObjects(ctx, doc); err != nil {
		return nil, fmt.Errorf("load scene: %w", err)
	}
	if err := s.readProperties(ctx, doc); err != nil {
		return nil, fmt.Errorf("load scene: %w", err)
	}
	curves, err := s.readCurves(ctx)
	if err != nil {
		return nil, fmt.Errorf("load scene: %w", err)
	}
	if err := s.readKeyframes(ctx, curves); err != nil {
		return nil, fmt.Errorf("load scene: %w", err)
	}

	for _, row := range curves {
		obj := doc.Object(row.owner)
		if obj == nil {
			return nil, fmt.Errorf("load scene: curve for unknown object %q", row.owner)
		}
		if obj.Anim == nil {
			obj.Anim = &scene.AnimData{}
		}
		if row.source == keying.SourceDriver {
			obj.Anim.Drivers = append(obj.Anim.Drivers, row.curve)
			continue
		}
		if obj.Anim.Action == nil {
			obj.Anim.Action = &scene.Action{Name: obj.Name + "Action"}
		}
		obj.Anim.Action.Curves = append(obj.Anim.Action.Curves, row.curve)
	}
	return doc, nil
}

func (s *Store) readObjects(ctx context.Context, doc *scene.Document) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, has_anim, action, nla
		FROM objects
		ORDER BY name COLLATE BINARY ASC
	`)
	if err != nil {
		return fmt.Errorf("query objects: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			name    string
			hasAnim bool
			action  sql.NullString
			nlaJSON sql.NullString
		)
		if err := rows.Scan(&name, &hasAnim, &action, &nlaJSON); err != nil {
			return fmt.Errorf("scan object: %w", err)
		}
		obj := scene.NewObject(name)
		if hasAnim {
			obj.Anim = &scene.AnimData{}
			if err := unmarshalJSON("nla", nlaJSON, &obj.Anim.NLA); err != nil {
				return err
			}
			if action.Valid {
				obj.Anim.Action = &scene.Action{Name: action.String}
			}
		}
		doc.Add(obj)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate objects: %w", err)
	}
	return nil
}

func (s *Store) readProperties(ctx context.Context, doc *scene.Document) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT object, path, vals, kind, subtype, animatable, visual
		FROM properties
		ORDER BY object COLLATE BINARY ASC, path COLLATE BINARY ASC
	`)
	if err != nil {
		return fmt.Errorf("query properties: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			owner, path   string
			vals, visual  sql.NullString
			kind, subtype int
			animatable    bool
		)
		if err := rows.Scan(&owner, &path, &vals, &kind, &subtype, &animatable, &visual); err != nil {
			return fmt.Errorf("scan property: %w", err)
		}
		p := &keying.Property{
			Path:       path,
			Kind:       keying.PropertyKind(kind),
			Subtype:    keying.Subtype(subtype),
			Animatable: animatable,
		}
		if err := unmarshalJSON("values", vals, &p.Values); err != nil {
			return err
		}

		obj := doc.Object(owner)
		if obj == nil {
			return fmt.Errorf("property %s for unknown object %q", path, owner)
		}
		obj.AddProperty(p)
		if visual.Valid {
			var v []float64
			if err := unmarshalJSON("visual", visual, &v); err != nil {
				return err
			}
			obj.Visual[p.Path] = v
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate properties: %w", err)
	}
	return nil
}

func (s *Store) readCurves(ctx context.Context) ([]curveRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, object, source, path, idx, flags, extrapolation, smoothing, cycle, samples, active
		FROM curves
		ORDER BY object COLLATE BINARY ASC, source ASC, position ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query curves: %w", err)
	}
	defer rows.Close()

	var out []curveRow
	for rows.Next() {
		var (
			row                              curveRow
			source, flags, extrap, smoothing int
			path                             string
			idx, active                      int
			cycle, samples                   sql.NullString
		)
		if err := rows.Scan(&row.id, &row.owner, &source, &path, &idx, &flags, &extrap, &smoothing, &cycle, &samples, &active); err != nil {
			return nil, fmt.Errorf("scan curve: %w", err)
		}
		c := fcurve.NewCurve(path, idx)
		c.Flags = fcurve.ValueFlags(flags)
		c.Extrapolation = fcurve.Extrapolation(extrap)
		c.Smoothing = fcurve.Smoothing(smoothing)
		c.Active = active
		if cycle.Valid {
			c.Cycle = &fcurve.Cycle{}
			if err := unmarshalJSON("cycle", cycle, c.Cycle); err != nil {
				return nil, err
			}
		}
		if samples.Valid {
			c.Samples = []fcurve.Vec2{}
			if err := unmarshalJSON("samples", samples, &c.Samples); err != nil {
				return nil, err
			}
		}
		row.source = keying.CurveSource(source)
		row.curve = c
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate curves: %w", err)
	}
	return out, nil
}

func (s *Store) readKeyframes(ctx context.Context, curves []curveRow) error {
	byID := make(map[int64]*fcurve.Curve, len(curves))
	for _, row := range curves {
		byID[row.id] = row.curve
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT curve_id, point
		FROM keyframes
		ORDER BY curve_id ASC, position ASC
	`)
	if err != nil {
		return fmt.Errorf("query keyframes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			curveID int64
			point   sql.NullString
		)
		if err := rows.Scan(&curveID, &point); err != nil {
			return fmt.Errorf("scan keyframe: %w", err)
		}
		c, ok := byID[curveID]
		if !ok {
			return fmt.Errorf("keyframe for unknown curve %d", curveID)
		}
		var p fcurve.Point
		if err := unmarshalJSON("point", point, &p); err != nil {
			return err
		}
		c.Points = append(c.Points, p)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate keyframes: %w", err)
	}
	return nil
}

// ReadLog returns the keying log of owner, or of every owner when owner is
// empty. Results are ordered deterministically: ORDER BY seq ASC,
// batch_id ASC COLLATE BINARY.
//
// Returns an empty slice (not nil) if no batches exist.
func (s *Store) ReadLog(ctx context.Context, owner string) ([]LogEntry, error) {
	query := `
		SELECT batch_id, seq, owner, time, local_time, targets, flags, key_type, counts, entries
		FROM keying_log
	`
	var args []any
	if owner != "" {
		query += ` WHERE owner = ?`
		args = append(args, owner)
	}
	query += ` ORDER BY seq ASC, batch_id COLLATE BINARY ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query keying log: %w", err)
	}
	defer rows.Close()

	entries := []LogEntry{}
	for rows.Next() {
		e, err := scanLogEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate keying log: %w", err)
	}
	return entries, nil
}

func scanLogEntry(rows *sql.Rows) (LogEntry, error) {
	var (
		e                               LogEntry
		targets, flags, counts, entries sql.NullString
	)
	if err := rows.Scan(&e.BatchID, &e.Seq, &e.Owner, &e.Time, &e.LocalTime, &targets, &flags, &e.KeyType, &counts, &entries); err != nil {
		return e, fmt.Errorf("scan keying log: %w", err)
	}
	e.Targets = []string{}
	e.Flags = []string{}
	e.Counts = map[keying.Outcome]int{}
	e.Entries = []keying.Entry{}
	for _, f := range []struct {
		what string
		data sql.NullString
		dst  any
	}{
		{"targets", targets, &e.Targets},
		{"flags", flags, &e.Flags},
		{"counts", counts, &e.Counts},
		{"entries", entries, &e.Entries},
	} {
		if err := unmarshalJSON(f.what, f.data, f.dst); err != nil {
			return e, err
		}
	}
	return e, nil
}

// LastSeq returns the highest logged seq, 0 for an empty log. A dispatcher
// resuming a log starts its clock here.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	var seq int64
	if err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM keying_log`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	return seq, nil
}
