package store

import (
	"context"
	"database/sql"
	"iter"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/osmdigest/osmdigest"
	"github.com/osmdigest/osmdigest/ctxlog"
)

// Convert is the one-shot ingestion operation from spec §4.4: it
// consumes records and writes a fresh store at dst inside a single
// transaction, returning a lazy sequence of progress reports. A
// non-nil error from the input sequence, or early termination by the
// consumer, rolls back and removes the partial file; a clean run
// commits and yields one final report. The logger attached to ctx (via
// ctxlog.WithLogger) receives one line per progress report; ctx itself
// carries no cancellation signal, since the consumer's own pull/stop
// over the yielded sequence is the cancellation mechanism (spec §5).
func Convert(ctx context.Context, dst string, records iter.Seq2[osmdigest.Record, error]) iter.Seq2[osmdigest.Progress, error] {
	logger := ctxlog.LoggerFromContext(ctx)
	return func(yield func(osmdigest.Progress, error) bool) {
		st, err := create(dst)
		if err != nil {
			yield(osmdigest.Progress{}, err)
			return
		}

		progress := osmdigest.Progress{RunID: uuid.NewString()}
		logger.Info("convert started", "run_id", progress.RunID, "dst", dst)
		ok, err := convert(st, records, &progress, logger, yield)
		closeErr := st.db.Close()

		if !ok {
			os.Remove(dst)
			if err != nil {
				logger.Error("convert failed", "run_id", progress.RunID, "error", err)
				yield(osmdigest.Progress{}, err)
			}
			return
		}
		if closeErr != nil {
			os.Remove(dst)
			yield(osmdigest.Progress{}, &osmdigest.IoError{Op: "close new store", Err: closeErr})
			return
		}
		logger.Info("convert finished", "run_id", progress.RunID, "primitives", progress.Primitives, "tags", progress.Tags)
		yield(progress, nil)
	}
}

// convert runs the schema + transactional insert loop. The returned
// bool is false on any failure or consumer-driven early stop, in which
// case the caller discards the partial file; true means the
// transaction committed.
func convert(st *Store, records iter.Seq2[osmdigest.Record, error], progress *osmdigest.Progress, logger *slog.Logger, yield func(osmdigest.Progress, error) bool) (bool, error) {
	if _, err := st.db.Exec(schemaSQL); err != nil {
		return false, &osmdigest.IoError{Op: "install schema", Err: err}
	}

	tx, err := st.db.Begin()
	if err != nil {
		return false, &osmdigest.IoError{Op: "begin transaction", Err: err}
	}

	insertOsm, err := tx.Prepare(`INSERT INTO osm (version, generator, gentime) VALUES (?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return false, &osmdigest.IoError{Op: "prepare osm insert", Err: err}
	}
	insertBounds, err := tx.Prepare(`INSERT INTO bounds (min_lat, max_lat, min_lon, max_lon) VALUES (?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return false, &osmdigest.IoError{Op: "prepare bounds insert", Err: err}
	}
	insertNode, err := tx.Prepare(`INSERT INTO nodes (osm_id, lon, lat) VALUES (?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return false, &osmdigest.IoError{Op: "prepare node insert", Err: err}
	}
	insertNodeTag, err := tx.Prepare(`INSERT INTO node_tags (osm_id, key, value) VALUES (?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return false, &osmdigest.IoError{Op: "prepare node tag insert", Err: err}
	}
	insertWay, err := tx.Prepare(`INSERT INTO ways (osm_id, position, noderef) VALUES (?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return false, &osmdigest.IoError{Op: "prepare way insert", Err: err}
	}
	insertWayTag, err := tx.Prepare(`INSERT INTO way_tags (osm_id, key, value) VALUES (?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return false, &osmdigest.IoError{Op: "prepare way tag insert", Err: err}
	}
	insertRelation, err := tx.Prepare(`INSERT INTO relations (osm_id, member, memberref, role) VALUES (?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return false, &osmdigest.IoError{Op: "prepare relation insert", Err: err}
	}
	insertRelationTag, err := tx.Prepare(`INSERT INTO relation_tags (osm_id, key, value) VALUES (?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return false, &osmdigest.IoError{Op: "prepare relation tag insert", Err: err}
	}

	stmts := []*sql.Stmt{insertOsm, insertBounds, insertNode, insertNodeTag, insertWay, insertWayTag, insertRelation, insertRelationTag}
	closeStmts := func() {
		for _, s := range stmts {
			s.Close()
		}
	}

	consumerStopped := false
	for rec, recErr := range records {
		if recErr != nil {
			closeStmts()
			tx.Rollback()
			return false, recErr
		}

		var tags osmdigest.Tags
		switch e := rec.Element.(type) {
		case osmdigest.Osm:
			if _, err := insertOsm.Exec(e.Version, e.Generator, toGentime(e.Timestamp)); err != nil {
				closeStmts()
				tx.Rollback()
				return false, &osmdigest.IoError{Op: "insert osm header", Err: err}
			}
			continue
		case osmdigest.Bounds:
			if _, err := insertBounds.Exec(
				osmdigest.EncodeCoord(e.MinLat), osmdigest.EncodeCoord(e.MaxLat),
				osmdigest.EncodeCoord(e.MinLon), osmdigest.EncodeCoord(e.MaxLon),
			); err != nil {
				closeStmts()
				tx.Rollback()
				return false, &osmdigest.IoError{Op: "insert bounds", Err: err}
			}
			continue
		case osmdigest.Node:
			if _, err := insertNode.Exec(e.ID, osmdigest.EncodeCoord(e.Lon), osmdigest.EncodeCoord(e.Lat)); err != nil {
				closeStmts()
				tx.Rollback()
				return false, &osmdigest.IoError{Op: "insert node", Err: err}
			}
			for k, v := range e.Tags {
				if _, err := insertNodeTag.Exec(e.ID, k, v); err != nil {
					closeStmts()
					tx.Rollback()
					return false, &osmdigest.IoError{Op: "insert node tag", Err: err}
				}
			}
			tags = e.Tags
		case osmdigest.Way:
			for i, ref := range e.Nodes {
				if _, err := insertWay.Exec(e.ID, i, ref); err != nil {
					closeStmts()
					tx.Rollback()
					return false, &osmdigest.IoError{Op: "insert way node", Err: err}
				}
			}
			for k, v := range e.Tags {
				if _, err := insertWayTag.Exec(e.ID, k, v); err != nil {
					closeStmts()
					tx.Rollback()
					return false, &osmdigest.IoError{Op: "insert way tag", Err: err}
				}
			}
			tags = e.Tags
		case osmdigest.Relation:
			for _, m := range e.Members {
				if _, err := insertRelation.Exec(e.ID, string(m.Type), m.Ref, m.Role); err != nil {
					closeStmts()
					tx.Rollback()
					return false, &osmdigest.IoError{Op: "insert relation member", Err: err}
				}
			}
			for k, v := range e.Tags {
				if _, err := insertRelationTag.Exec(e.ID, k, v); err != nil {
					closeStmts()
					tx.Rollback()
					return false, &osmdigest.IoError{Op: "insert relation tag", Err: err}
				}
			}
			tags = e.Tags
		default:
			continue
		}

		progress.Primitives++
		progress.Tags += int64(len(tags))
		if progress.Primitives > 0 && progress.Primitives%osmdigest.ProgressInterval == 0 {
			logger.Info("convert progress", "run_id", progress.RunID, "primitives", progress.Primitives, "tags", progress.Tags)
			if !yield(*progress, nil) {
				consumerStopped = true
				break
			}
		}
	}

	closeStmts()

	if consumerStopped {
		tx.Rollback()
		return false, nil
	}

	if err := tx.Commit(); err != nil {
		return false, &osmdigest.IoError{Op: "commit transaction", Err: err}
	}
	return true, nil
}
