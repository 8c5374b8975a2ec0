package parser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/paulmach/osm/osmxml"
	"github.com/ttpr0/go-hybrid-routing/geo"
	"github.com/ttpr0/go-hybrid-routing/graph"
	. "github.com/ttpr0/go-hybrid-routing/util"
	"golang.org/x/exp/slog"
)

var ErrUnknownFormat = errors.New("unknown osm file format")

// Reads all ways tagged as highway from an OSM XML (.osm) or PBF (.pbf) file
// and resolves their node references into coordinates.
func ParseRoads(ctx context.Context, filename string) ([]graph.RoadGeometry, error) {
	open, err := _ScannerFactory(ctx, filename)
	if err != nil {
		return nil, err
	}

	ways := NewList[TempWay](10000)
	refs := NewDict[int64, geo.Coord](10000)
	if err := _WithScanner(open, func(scanner osm.Scanner) error {
		return _WayHandler(scanner, &ways, &refs)
	}); err != nil {
		return nil, err
	}
	if err := _WithScanner(open, func(scanner osm.Scanner) error {
		return _NodeHandler(scanner, &refs)
	}); err != nil {
		return nil, err
	}

	roads := make([]graph.RoadGeometry, 0, ways.Length())
	missing := 0
	for _, way := range ways {
		coords := make(geo.CoordArray, 0, len(way.Refs))
		for _, ref := range way.Refs {
			c, ok := refs[ref]
			if !ok || !geo.IsValidCoord(c) {
				missing += 1
				continue
			}
			coords = append(coords, c)
		}
		roads = append(roads, graph.RoadGeometry{
			WayID:  way.ID,
			Coords: coords,
			Tags:   way.Tags,
		})
	}
	slog.Info("osm parsed", "file", filename, "ways", len(roads), "missing_refs", missing)
	return roads, nil
}

type scannerFactory func() (osm.Scanner, *os.File, error)

func _ScannerFactory(ctx context.Context, filename string) (scannerFactory, error) {
	switch {
	case strings.HasSuffix(filename, ".pbf"):
		return func() (osm.Scanner, *os.File, error) {
			file, err := os.Open(filename)
			if err != nil {
				return nil, nil, err
			}
			return osmpbf.New(ctx, file, runtime.GOMAXPROCS(-1)), file, nil
		}, nil
	case strings.HasSuffix(filename, ".osm"), strings.HasSuffix(filename, ".xml"):
		return func() (osm.Scanner, *os.File, error) {
			file, err := os.Open(filename)
			if err != nil {
				return nil, nil, err
			}
			return osmxml.New(ctx, file), file, nil
		}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, filename)
}

func _WithScanner(open scannerFactory, handler func(osm.Scanner) error) error {
	scanner, file, err := open()
	if err != nil {
		return err
	}
	defer file.Close()
	defer scanner.Close()
	if err := handler(scanner); err != nil {
		return err
	}
	return scanner.Err()
}

//*******************************************
// osm handler methods
//*******************************************

func _WayHandler(scanner osm.Scanner, ways *List[TempWay], refs *Dict[int64, geo.Coord]) error {
	if pbf, ok := scanner.(*osmpbf.Scanner); ok {
		pbf.SkipNodes = true
		pbf.SkipRelations = true
	}
	for scanner.Scan() {
		way, ok := scanner.Object().(*osm.Way)
		if !ok {
			continue
		}
		tags := Dict[string, string](way.TagMap())
		if !tags.ContainsKey("highway") {
			continue
		}
		ids := way.Nodes.NodeIDs()
		temp := TempWay{
			ID:   int64(way.ID),
			Refs: make([]int64, len(ids)),
			Tags: tags,
		}
		for i, id := range ids {
			ref := int64(id)
			temp.Refs[i] = ref
			if !refs.ContainsKey(ref) {
				refs.Set(ref, geo.Coord{})
			}
		}
		ways.Add(temp)
		if ways.Length()%10000 == 0 {
			slog.Debug(fmt.Sprintf("ways: %v", ways.Length()))
		}
	}
	return nil
}

func _NodeHandler(scanner osm.Scanner, refs *Dict[int64, geo.Coord]) error {
	if pbf, ok := scanner.(*osmpbf.Scanner); ok {
		pbf.SkipWays = true
		pbf.SkipRelations = true
	}
	for scanner.Scan() {
		node, ok := scanner.Object().(*osm.Node)
		if !ok {
			continue
		}
		id := int64(node.ID)
		if !refs.ContainsKey(id) {
			continue
		}
		refs.Set(id, geo.Coord{node.Lon, node.Lat})
	}
	return nil
}
