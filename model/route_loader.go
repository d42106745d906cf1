package model

import (
	"encoding/json"
	"io"

	"github.com/pkg/errors"
)

// rawRoute mirrors the on-disk route topology file.
type rawRoute struct {
	Name      string    `json:"route"`
	Direction string    `json:"direction"`
	Stops     []rawStop `json:"stops"`
}

type rawStop struct {
	StopID         int     `json:"stop_id"`
	StopName       string  `json:"stop_name"`
	DistanceNext   float64 `json:"distance_next_stop"`
	AllowLayover   bool    `json:"allow_layover"`
}

// LoadRouteFromReader parses a route topology JSON document and builds
// a Route, assigning cumulative distance to each stop.
func LoadRouteFromReader(r io.Reader, id int) (*Route, error) {
	dec := json.NewDecoder(r)
	var raw rawRoute
	if err := dec.Decode(&raw); err != nil {
		return nil, errors.Wrap(err, "decode route")
	}
	route := &Route{
		ID:        id,
		Name:      raw.Name,
		Direction: raw.Direction,
		Stops:     make([]*BusStop, 0, len(raw.Stops)),
	}
	var cumulative float64
	for _, s := range raw.Stops {
		bs := &BusStop{
			ID:             s.StopID,
			Name:           s.StopName,
			RouteID:        id,
			DistanceToNext: s.DistanceNext,
			CumulativeDist: cumulative,
			AllowLayover:   s.AllowLayover,
		}
		cumulative += s.DistanceNext
		route.Stops = append(route.Stops, bs)
	}
	if err := route.Validate(); err != nil {
		return nil, err
	}
	return route, nil
}
