package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/keyframe/internal/fcurve"
	"github.com/roach88/keyframe/internal/keying"
	"github.com/roach88/keyframe/internal/scene"
)

// execer is the subset of *sql.DB and *sql.Tx used to write rows.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// SaveScene replaces the stored scene with doc in a single transaction.
// The keying log is left untouched.
func (s *Store) SaveScene(ctx context.Context, doc *scene.Document) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		return saveScene(ctx, tx, doc)
	})
	if err != nil {
		return fmt.Errorf("save scene: %w", err)
	}
	return nil
}

// SaveBatch saves doc and appends e to the keying log in one transaction,
// so the stored scene never runs ahead of the log that replays it.
func (s *Store) SaveBatch(ctx context.Context, doc *scene.Document, e LogEntry) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := saveScene(ctx, tx, doc); err != nil {
			return err
		}
		return writeBatch(ctx, tx, e)
	})
	if err != nil {
		return fmt.Errorf("save batch %s: %w", e.BatchID, err)
	}
	return nil
}

func saveScene(ctx context.Context, tx *sql.Tx, doc *scene.Document) error {
	// Deleting objects cascades to properties, curves and keyframes.
	for _, stmt := range []string{"DELETE FROM objects", "DELETE FROM scenes"} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("clear: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO scenes (id, handle, interpolation) VALUES (1, ?, ?)`,
		doc.Preferences.Handle.String(),
		doc.Preferences.Interpolation.String(),
	); err != nil {
		return err
	}

	for _, name := range doc.ObjectNames() {
		if err := writeObject(ctx, tx, doc.Object(name)); err != nil {
			return fmt.Errorf("object %s: %w", name, err)
		}
	}
	return nil
}

func writeObject(ctx context.Context, tx *sql.Tx, obj *scene.Object) error {
	var (
		hasAnim bool
		action  sql.NullString
		nlaJSON = "{}"
	)
	if obj.Anim != nil {
		hasAnim = true
		if obj.Anim.Action != nil {
			action = sql.NullString{String: obj.Anim.Action.Name, Valid: true}
		}
		var err error
		if nlaJSON, err = marshalJSON("nla", obj.Anim.NLA); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO objects (name, has_anim, action, nla) VALUES (?, ?, ?, ?)`,
		obj.Name, hasAnim, action, nlaJSON,
	); err != nil {
		return err
	}

	for _, path := range obj.PropertyPaths() {
		p := obj.Properties[path]
		vals, err := marshalJSON("values", p.Values)
		if err != nil {
			return err
		}
		var visual sql.NullString
		if v, ok := obj.Visual[path]; ok {
			if visual.String, err = marshalJSON("visual", v); err != nil {
				return err
			}
			visual.Valid = true
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO properties (object, path, vals, kind, subtype, animatable, visual)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, obj.Name, p.Path, vals, int(p.Kind), int(p.Subtype), p.Animatable, visual); err != nil {
			return err
		}
	}

	if obj.Anim == nil {
		return nil
	}
	if obj.Anim.Action != nil {
		for i, c := range obj.Anim.Action.Curves {
			if err := writeCurve(ctx, tx, obj.Name, keying.SourceAction, i, c); err != nil {
				return err
			}
		}
	}
	for i, c := range obj.Anim.Drivers {
		if err := writeCurve(ctx, tx, obj.Name, keying.SourceDriver, i, c); err != nil {
			return err
		}
	}
	return nil
}

func writeCurve(ctx context.Context, tx *sql.Tx, owner string, src keying.CurveSource, position int, c *fcurve.Curve) error {
	var cycle, samples sql.NullString
	var err error
	if c.Cycle != nil {
		if cycle.String, err = marshalJSON("cycle", c.Cycle); err != nil {
			return err
		}
		cycle.Valid = true
	}
	if len(c.Samples) > 0 {
		if samples.String, err = marshalJSON("samples", c.Samples); err != nil {
			return err
		}
		samples.Valid = true
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO curves
		(object, source, position, path, idx, flags, extrapolation, smoothing, cycle, samples, active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		owner, int(src), position, c.Path, c.Index,
		int(c.Flags), int(c.Extrapolation), int(c.Smoothing),
		cycle, samples, c.Active,
	)
	if err != nil {
		return fmt.Errorf("curve %s[%d]: %w", c.Path, c.Index, err)
	}
	curveID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("curve %s[%d]: %w", c.Path, c.Index, err)
	}

	for i := range c.Points {
		p := &c.Points[i]
		point, err := marshalJSON("point", p)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO keyframes (curve_id, position, time, value, point)
			VALUES (?, ?, ?, ?, ?)
		`, curveID, i, p.Time(), p.Value(), point); err != nil {
			return fmt.Errorf("curve %s[%d] key %d: %w", c.Path, c.Index, i, err)
		}
	}
	return nil
}

// LogEntry is one row of the keying log: the request of an InsertKeys
// batch together with its outcomes.
type LogEntry struct {
	BatchID   string                 `json:"batch_id"`
	Seq       int64                  `json:"seq"`
	Owner     string                 `json:"owner"`
	Time      float64                `json:"time"`
	LocalTime float64                `json:"local_time"`
	Targets   []string               `json:"targets"`
	Flags     []string               `json:"flags"`
	KeyType   string                 `json:"key_type"`
	Counts    map[keying.Outcome]int `json:"counts"`
	Entries   []keying.Entry         `json:"entries"`
}

// NewLogEntry builds the log row for a finished batch.
func NewLogEntry(targets []keying.Target, keyType fcurve.KeyType, res *keying.CombinedResult) LogEntry {
	names := make([]string, len(targets))
	for i, t := range targets {
		names[i] = t.String()
	}
	flags := res.Flags
	if flags == nil {
		flags = []string{}
	}
	return LogEntry{
		BatchID:   res.BatchID,
		Seq:       res.Seq,
		Owner:     res.Owner,
		Time:      res.Time,
		LocalTime: res.LocalTime,
		Targets:   names,
		Flags:     flags,
		KeyType:   keyType.String(),
		Counts:    res.Counts,
		Entries:   res.Entries,
	}
}

// WriteBatch appends a keying log entry.
// Uses ON CONFLICT(batch_id) DO NOTHING for idempotency - writing the same
// batch twice is silently ignored.
func (s *Store) WriteBatch(ctx context.Context, e LogEntry) error {
	if err := writeBatch(ctx, s.db, e); err != nil {
		return fmt.Errorf("write batch: %w", err)
	}
	return nil
}

func writeBatch(ctx context.Context, db execer, e LogEntry) error {
	targets, err := marshalJSON("targets", e.Targets)
	if err != nil {
		return err
	}
	flags, err := marshalJSON("flags", e.Flags)
	if err != nil {
		return err
	}
	counts, err := marshalJSON("counts", e.Counts)
	if err != nil {
		return err
	}
	entries, err := marshalJSON("entries", e.Entries)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO keying_log
		(batch_id, seq, owner, time, local_time, targets, flags, key_type, counts, entries)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(batch_id) DO NOTHING
	`,
		e.BatchID, e.Seq, e.Owner, e.Time, e.LocalTime,
		targets, flags, e.KeyType, counts, entries,
	)
	return err
}
