package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ttpr0/go-hybrid-routing/geo"
	"golang.org/x/exp/slog"
)

var (
	ErrRemoteNoRoute      = errors.New("remote router found no route")
	ErrAllProvidersFailed = errors.New("all remote routing providers failed")
)

type RemoteRoute struct {
	Coordinates geo.CoordArray
	Distance    float64
	Duration    float64
}

// RemoteRouter plans routes with an external routing provider.
type RemoteRouter interface {
	Route(ctx context.Context, origin, destination geo.Coord) (RemoteRoute, error)
}

//*******************************************
// osrm router
//*******************************************

// OSRMRouter queries an OSRM compatible route service.
type OSRMRouter struct {
	base_url string
	profile  string
	client   *http.Client
}

func NewOSRMRouter(base_url string, timeout time.Duration) *OSRMRouter {
	return &OSRMRouter{
		base_url: strings.TrimRight(base_url, "/"),
		profile:  "driving",
		client:   &http.Client{Timeout: timeout},
	}
}

type osrmResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
		Geometry string  `json:"geometry"`
	} `json:"routes"`
}

func (self *OSRMRouter) Route(ctx context.Context, origin, destination geo.Coord) (RemoteRoute, error) {
	url := fmt.Sprintf("%s/route/v1/%s/%f,%f;%f,%f?overview=full&geometries=polyline",
		self.base_url, self.profile, origin[0], origin[1], destination[0], destination[1])
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return RemoteRoute{}, err
	}
	resp, err := self.client.Do(req)
	if err != nil {
		return RemoteRoute{}, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return RemoteRoute{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return RemoteRoute{}, fmt.Errorf("osrm returned status %d", resp.StatusCode)
	}

	var data osrmResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return RemoteRoute{}, fmt.Errorf("failed to decode osrm response: %w", err)
	}
	if data.Code != "Ok" || len(data.Routes) == 0 {
		return RemoteRoute{}, fmt.Errorf("%w: %s", ErrRemoteNoRoute, data.Code)
	}
	route := data.Routes[0]
	coords, err := geo.DecodePolyline(route.Geometry)
	if err != nil {
		return RemoteRoute{}, err
	}
	return RemoteRoute{
		Coordinates: coords,
		Distance:    route.Distance,
		Duration:    route.Duration,
	}, nil
}

//*******************************************
// provider chain
//*******************************************

type Provider struct {
	Name    string
	Router  RemoteRouter
	Timeout time.Duration
}

// ProviderChain tries its providers in order and returns the first success.
type ProviderChain struct {
	providers []Provider
}

func NewProviderChain(providers ...Provider) *ProviderChain {
	return &ProviderChain{providers: providers}
}

func (self *ProviderChain) Route(ctx context.Context, origin, destination geo.Coord) (RemoteRoute, error) {
	errs := make([]error, 0, len(self.providers))
	for _, provider := range self.providers {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		route, err := self.try(ctx, provider, origin, destination)
		if err == nil {
			return route, nil
		}
		slog.Warn("remote provider failed", "provider", provider.Name, "error", err)
		errs = append(errs, fmt.Errorf("%s: %w", provider.Name, err))
	}
	if len(errs) == 0 {
		return RemoteRoute{}, ErrAllProvidersFailed
	}
	return RemoteRoute{}, fmt.Errorf("%w: %w", ErrAllProvidersFailed, errors.Join(errs...))
}

func (self *ProviderChain) try(ctx context.Context, provider Provider, origin, destination geo.Coord) (RemoteRoute, error) {
	if provider.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, provider.Timeout)
		defer cancel()
	}
	return provider.Router.Route(ctx, origin, destination)
}
