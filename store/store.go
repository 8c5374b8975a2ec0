package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	"github.com/ttpr0/go-hybrid-routing/attr"
	"github.com/ttpr0/go-hybrid-routing/geo"
	"github.com/ttpr0/go-hybrid-routing/graph"
	. "github.com/ttpr0/go-hybrid-routing/util"
	"golang.org/x/exp/slog"
	_ "modernc.org/sqlite"
)

var (
	ErrNoGraph      = errors.New("store contains no graph")
	ErrCorruptGraph = errors.New("stored graph is inconsistent")
)

// Store persists the routing graph, the segment mapping and the live edge
// costs in a SQLite database.
type Store struct {
	conn *sql.DB
	path string
}

// Opens or creates the database at path. ":memory:" gives a private
// in-memory database.
func Open(path string) (*Store, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one connection keeps temp tables and in-memory databases visible to
	// every statement
	conn.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA cache_size=-16000",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	store := &Store{
		conn: conn,
		path: path,
	}
	if err := store.initializeSchema(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (self *Store) initializeSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS nodes (
			id INTEGER PRIMARY KEY,
			lon REAL NOT NULL,
			lat REAL NOT NULL
		);

		CREATE TABLE IF NOT EXISTS edges (
			id INTEGER PRIMARY KEY,
			way_id INTEGER NOT NULL,
			source INTEGER NOT NULL,
			target INTEGER NOT NULL,
			road_class INTEGER NOT NULL,
			length_m REAL NOT NULL,
			speed_limit REAL NOT NULL,
			current_speed REAL NOT NULL,
			cost_time REAL NOT NULL,
			reverse_cost_time REAL NOT NULL,
			geometry BLOB NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_edges_way ON edges(way_id);

		CREATE TABLE IF NOT EXISTS segment_mapping (
			edge_id INTEGER PRIMARY KEY,
			segment_id INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_mapping_segment ON segment_mapping(segment_id);

		CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`
	_, err := self.conn.Exec(schema)
	return err
}

func (self *Store) Close() error {
	if self.conn != nil {
		return self.conn.Close()
	}
	return nil
}

//*******************************************
// graph tables
//*******************************************

// Replaces all stored graph tables with the given graph.
func (self *Store) SaveGraph(ctx context.Context, g *graph.Graph) error {
	topology := g.Topology()
	costs := g.Costs()
	return self.withTx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"nodes", "edges", "segment_mapping"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return err
			}
		}
		if err := insertNodes(ctx, tx, topology.Nodes()); err != nil {
			return err
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO edges (id, way_id, source, target, road_class, length_m, speed_limit,
				current_speed, cost_time, reverse_cost_time, geometry)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for i, edge := range topology.Edges() {
			id := int32(i)
			blob, err := wkb.Marshal(orb.LineString(edge.Geometry))
			if err != nil {
				return fmt.Errorf("edge %d: %w", id, err)
			}
			if _, err := stmt.ExecContext(ctx, id, edge.WayID, edge.NodeA, edge.NodeB, int(edge.Type),
				edge.Length, edge.Maxspeed, costs.GetCurrentSpeed(id), costs.GetForwardCost(id),
				costs.GetBackwardCost(id), blob); err != nil {
				return err
			}
		}

		if _, err := insertMappings(ctx, tx, g.Mappings()); err != nil {
			return err
		}
		return setTolerance(ctx, tx, topology.Tolerance())
	})
}

// Loads the stored graph. Edges are classified against the given service
// area.
func (self *Store) LoadGraph(ctx context.Context, area orb.Bound) (*graph.Graph, error) {
	tolerance, err := self.getTolerance(ctx)
	if err != nil {
		return nil, err
	}

	nodes := NewList[graph.Node](1000)
	rows, err := self.conn.QueryContext(ctx, "SELECT id, lon, lat FROM nodes ORDER BY id")
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var id int64
		var lon, lat float64
		if err := rows.Scan(&id, &lon, &lat); err != nil {
			rows.Close()
			return nil, err
		}
		if id != int64(nodes.Length()) {
			rows.Close()
			return nil, fmt.Errorf("%w: node ids are not contiguous at %d", ErrCorruptGraph, id)
		}
		nodes.Add(graph.Node{Loc: geo.Coord{lon, lat}})
	}
	if err := closeRows(rows); err != nil {
		return nil, err
	}

	edges := NewList[graph.Edge](1000)
	speeds := NewList[float64](1000)
	forward := NewList[float64](1000)
	backward := NewList[float64](1000)
	rows, err = self.conn.QueryContext(ctx, `
		SELECT id, way_id, source, target, road_class, length_m, speed_limit,
			current_speed, cost_time, reverse_cost_time, geometry
		FROM edges ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var id, way_id int64
		var source, target int32
		var road_class int
		var length, limit, speed, cost, reverse_cost float64
		var blob []byte
		if err := rows.Scan(&id, &way_id, &source, &target, &road_class, &length, &limit,
			&speed, &cost, &reverse_cost, &blob); err != nil {
			rows.Close()
			return nil, err
		}
		if id != int64(edges.Length()) {
			rows.Close()
			return nil, fmt.Errorf("%w: edge ids are not contiguous at %d", ErrCorruptGraph, id)
		}
		if int(source) >= nodes.Length() || int(target) >= nodes.Length() {
			// dangling references are repaired by the healer
			source = graph.NO_NODE
			target = graph.NO_NODE
		}
		line, err := decodeLine(blob)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("edge %d: %w", id, err)
		}
		edges.Add(graph.Edge{
			NodeA:    source,
			NodeB:    target,
			WayID:    way_id,
			Type:     attr.RoadType(road_class),
			Geometry: line,
			Length:   length,
			Maxspeed: limit,
		})
		speeds.Add(speed)
		forward.Add(cost)
		backward.Add(reverse_cost)
	}
	if err := closeRows(rows); err != nil {
		return nil, err
	}
	if edges.Length() == 0 {
		return nil, ErrNoGraph
	}

	mappings, err := self.LoadMappings(ctx)
	if err != nil {
		return nil, err
	}

	costs := graph.LoadCosts(Array[float64](speeds), Array[float64](forward), Array[float64](backward))
	g := graph.FromTables(Array[graph.Node](nodes), Array[graph.Edge](edges), costs, mappings, tolerance, area)
	slog.Info("graph loaded", "path", self.path, "nodes", nodes.Length(), "edges", edges.Length(), "mapped", len(mappings))
	return g, nil
}

// Rewrites the node table and the derived edge columns after healing.
func (self *Store) WriteTopology(ctx context.Context, g *graph.Graph) error {
	topology := g.Topology()
	costs := g.Costs()
	return self.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM nodes"); err != nil {
			return err
		}
		if err := insertNodes(ctx, tx, topology.Nodes()); err != nil {
			return err
		}
		stmt, err := tx.PrepareContext(ctx, `
			UPDATE edges
			SET source = ?, target = ?, length_m = ?, cost_time = ?, reverse_cost_time = ?
			WHERE id = ?
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for i, edge := range topology.Edges() {
			id := int32(i)
			if _, err := stmt.ExecContext(ctx, edge.NodeA, edge.NodeB, edge.Length,
				costs.GetForwardCost(id), costs.GetBackwardCost(id), id); err != nil {
				return err
			}
		}
		return setTolerance(ctx, tx, topology.Tolerance())
	})
}

//*******************************************
// segment mapping
//*******************************************

// Inserts mappings for edges that are not mapped yet. Returns the number of
// rows added.
func (self *Store) InsertMappings(ctx context.Context, mappings []graph.Mapping) (int, error) {
	added := 0
	err := self.withTx(ctx, func(tx *sql.Tx) error {
		n, err := insertMappings(ctx, tx, mappings)
		added = n
		return err
	})
	return added, err
}

func (self *Store) LoadMappings(ctx context.Context) ([]graph.Mapping, error) {
	rows, err := self.conn.QueryContext(ctx, "SELECT edge_id, segment_id FROM segment_mapping ORDER BY edge_id")
	if err != nil {
		return nil, err
	}
	mappings := make([]graph.Mapping, 0, 100)
	for rows.Next() {
		var m graph.Mapping
		if err := rows.Scan(&m.EdgeID, &m.SegmentID); err != nil {
			rows.Close()
			return nil, err
		}
		mappings = append(mappings, m)
	}
	return mappings, closeRows(rows)
}

//*******************************************
// live traffic
//*******************************************

// Writes the sampled speeds to all mapped edges and recomputes their time
// costs in one transaction. Speeds are expected to be clamped already.
// Returns the number of updated edges.
func (self *Store) ApplySpeeds(ctx context.Context, samples []graph.SpeedSample) (int64, error) {
	var updated int64
	err := self.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			CREATE TEMP TABLE IF NOT EXISTS traffic_updates (
				segment_id INTEGER PRIMARY KEY,
				speed REAL NOT NULL
			)
		`); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM traffic_updates"); err != nil {
			return err
		}
		stmt, err := tx.PrepareContext(ctx, "INSERT OR REPLACE INTO traffic_updates (segment_id, speed) VALUES (?, ?)")
		if err != nil {
			return err
		}
		for _, s := range samples {
			if _, err := stmt.ExecContext(ctx, s.SegmentID, s.Speed); err != nil {
				stmt.Close()
				return err
			}
		}
		stmt.Close()

		res, err := tx.ExecContext(ctx, `
			UPDATE edges
			SET current_speed = u.speed,
				cost_time = MAX(edges.length_m / (MAX(u.speed, ?) / 3.6), ?),
				reverse_cost_time = MAX(edges.length_m / (MAX(u.speed, ?) / 3.6), ?)
			FROM (
				SELECT m.edge_id AS edge_id, t.speed AS speed
				FROM segment_mapping m
				JOIN traffic_updates t ON t.segment_id = m.segment_id
			) AS u
			WHERE edges.id = u.edge_id
		`, attr.FLOOR_SPEED, graph.MIN_COST, attr.FLOOR_SPEED, graph.MIN_COST)
		if err != nil {
			return err
		}
		updated, err = res.RowsAffected()
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, "DROP TABLE traffic_updates")
		return err
	})
	return updated, err
}

//*******************************************
// helpers
//*******************************************

func (self *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := self.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func insertNodes(ctx context.Context, tx *sql.Tx, nodes Array[graph.Node]) error {
	stmt, err := tx.PrepareContext(ctx, "INSERT INTO nodes (id, lon, lat) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, node := range nodes {
		if _, err := stmt.ExecContext(ctx, i, node.Loc[0], node.Loc[1]); err != nil {
			return err
		}
	}
	return nil
}

func insertMappings(ctx context.Context, tx *sql.Tx, mappings []graph.Mapping) (int, error) {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO segment_mapping (edge_id, segment_id) VALUES (?, ?)
		ON CONFLICT(edge_id) DO NOTHING
	`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()
	added := 0
	for _, m := range mappings {
		res, err := stmt.ExecContext(ctx, m.EdgeID, m.SegmentID)
		if err != nil {
			return added, err
		}
		if n, err := res.RowsAffected(); err == nil {
			added += int(n)
		}
	}
	return added, nil
}

func setTolerance(ctx context.Context, tx *sql.Tx, tolerance float64) error {
	_, err := tx.ExecContext(ctx, "INSERT OR REPLACE INTO meta (key, value) VALUES ('snap_tolerance', ?)",
		strconv.FormatFloat(tolerance, 'g', -1, 64))
	return err
}

func (self *Store) getTolerance(ctx context.Context) (float64, error) {
	var value string
	err := self.conn.QueryRowContext(ctx, "SELECT value FROM meta WHERE key = 'snap_tolerance'").Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseFloat(value, 64)
}

func decodeLine(blob []byte) (geo.CoordArray, error) {
	geom, err := wkb.Unmarshal(blob)
	if err != nil {
		return nil, err
	}
	line, ok := geom.(orb.LineString)
	if !ok {
		return nil, fmt.Errorf("%w: geometry is %s", ErrCorruptGraph, geom.GeoJSONType())
	}
	return geo.CoordArray(line), nil
}

func closeRows(rows *sql.Rows) error {
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	return rows.Close()
}
