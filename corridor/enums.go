package corridor

import (
	"encoding/json"
)

type Tier byte

const (
	ON_ROUTE Tier = 1
	DETOUR   Tier = 2
)

func (self Tier) String() string {
	switch self {
	case ON_ROUTE:
		return "on_route"
	case DETOUR:
		return "detour"
	}
	panic("unknown tier")
}

func (self Tier) MarshalJSON() ([]byte, error) {
	return json.Marshal(self.String())
}
