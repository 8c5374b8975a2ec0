package routing

import (
	"encoding/json"
	"errors"
	"strings"
)

//*******************************************
// cost mode
//*******************************************

type CostMode byte

const (
	FASTEST  CostMode = 0
	SHORTEST CostMode = 1
)

func (self CostMode) String() string {
	switch self {
	case FASTEST:
		return "fastest"
	case SHORTEST:
		return "shortest"
	}
	panic("unknown cost mode")
}

var ErrUnknownCostMode = errors.New("unknown cost mode")

func CostModeFromString(mode string) (CostMode, error) {
	switch strings.ToLower(mode) {
	case "", "fastest":
		return FASTEST, nil
	case "shortest":
		return SHORTEST, nil
	}
	return 0, ErrUnknownCostMode
}

func (self CostMode) MarshalJSON() ([]byte, error) {
	return json.Marshal(self.String())
}
func (self *CostMode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	mode, err := CostModeFromString(s)
	if err != nil {
		return err
	}
	*self = mode
	return nil
}

//*******************************************
// provenance
//*******************************************

type Provenance byte

const (
	LOCAL  Provenance = 0
	REMOTE Provenance = 1
)

func (self Provenance) String() string {
	switch self {
	case LOCAL:
		return "local"
	case REMOTE:
		return "remote"
	}
	panic("unknown provenance")
}

func (self Provenance) MarshalJSON() ([]byte, error) {
	return json.Marshal(self.String())
}
