package matcher

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/ttpr0/go-hybrid-routing/geo"
	. "github.com/ttpr0/go-hybrid-routing/util"
	"golang.org/x/exp/slog"
)

var ErrNoReferences = errors.New("no valid reference geometries")

// Reference is a segment of the live-traffic provider with its geometry.
type Reference struct {
	SegmentID int64
	Coords    geo.CoordArray
}

// raw record of the provider's static segment dump; G holds [[lat, lon], ...]
// either as nested array or as a JSON encoded string
type referenceRecord struct {
	S *int64          `json:"S"`
	G json.RawMessage `json:"G"`
}

func LoadReferences(filename string) ([]Reference, error) {
	records, err := ReadJSONFromFile[[]referenceRecord](filename)
	if err != nil {
		return nil, err
	}
	return decodeRecords(records)
}

// Decodes reference records, skipping malformed ones. The result is ordered by
// segment id.
func ParseReferences(data []byte) ([]Reference, error) {
	var records []referenceRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to decode references: %w", err)
	}
	return decodeRecords(records)
}

func decodeRecords(records []referenceRecord) ([]Reference, error) {
	refs := make([]Reference, 0, len(records))
	skipped := 0
	for _, record := range records {
		ref, err := decodeRecord(record)
		if err != nil {
			skipped += 1
			continue
		}
		refs = append(refs, ref)
	}
	if skipped > 0 {
		slog.Warn("skipped malformed references", "skipped", skipped, "valid", len(refs))
	}
	if len(refs) == 0 {
		return nil, ErrNoReferences
	}
	sort.SliceStable(refs, func(i, j int) bool {
		return refs[i].SegmentID < refs[j].SegmentID
	})
	return refs, nil
}

func decodeRecord(record referenceRecord) (Reference, error) {
	if record.S == nil || len(record.G) == 0 {
		return Reference{}, errors.New("missing field")
	}
	raw := []byte(record.G)
	var encoded string
	if err := json.Unmarshal(raw, &encoded); err == nil {
		raw = []byte(encoded)
	}
	var pairs [][]float64
	if err := json.Unmarshal(raw, &pairs); err != nil {
		return Reference{}, err
	}
	coords := make(geo.CoordArray, 0, len(pairs))
	for _, pair := range pairs {
		if len(pair) < 2 {
			return Reference{}, errors.New("invalid coordinate")
		}
		c := geo.Coord{pair[1], pair[0]}
		if !geo.IsValidCoord(c) {
			return Reference{}, errors.New("invalid coordinate")
		}
		coords = append(coords, c)
	}
	if len(coords) < 2 {
		return Reference{}, errors.New("reference needs two coordinates")
	}
	return Reference{SegmentID: *record.S, Coords: coords}, nil
}
