// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package osrm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/wneessen/waybar-tracker/internal/directions"
	"github.com/wneessen/waybar-tracker/internal/geo"
	"github.com/wneessen/waybar-tracker/internal/http"
	"github.com/wneessen/waybar-tracker/internal/polyline"
)

const (
	APIEndpoint = "https://router.project-osrm.org"
	APITimeout  = time.Second * 10
	name        = "osrm"

	codeOK      = "Ok"
	codeNoRoute = "NoRoute"
)

type OSRM struct {
	endpoint string
	http     *http.Client
}

type Response struct {
	Code    string  `json:"code"`
	Message string  `json:"message"`
	Routes  []Route `json:"routes"`
}

type Route struct {
	Geometry string  `json:"geometry"`
	Distance float64 `json:"distance"`
	Duration float64 `json:"duration"`
}

// New returns an OSRM provider. An empty endpoint selects the public OSRM demo server.
func New(client *http.Client, endpoint string) *OSRM {
	if endpoint == "" {
		endpoint = APIEndpoint
	}
	return &OSRM{
		endpoint: strings.TrimRight(endpoint, "/"),
		http:     client,
	}
}

func (o *OSRM) Name() string {
	return name
}

// Route requests a driving route through every waypoint but the last one, ending at destination.
func (o *OSRM) Route(ctx context.Context, waypoints []geo.Coordinate, destination geo.Coordinate) (directions.Route, error) {
	var response Response

	if _, err := directions.Origin(waypoints, destination); err != nil {
		return directions.Route{}, err
	}

	// OSRM expects "lon,lat" pairs separated by ";"
	stops := make([]geo.Coordinate, 0, len(waypoints))
	stops = append(stops, directions.Intermediate(waypoints)...)
	stops = append(stops, destination)
	parts := make([]string, 0, len(stops))
	for _, stop := range stops {
		parts = append(parts, strconv.FormatFloat(stop.Lon, 'f', -1, 64)+","+
			strconv.FormatFloat(stop.Lat, 'f', -1, 64))
	}
	endpoint := o.endpoint + "/route/v1/driving/" + strings.Join(parts, ";")

	query := url.Values{}
	query.Set("overview", "full")
	query.Set("geometries", "polyline")

	_, err := o.http.GetWithTimeout(ctx, endpoint, &response, query, nil, APITimeout)
	if err != nil {
		// OSRM reports routing errors like NoRoute with a 400 status and a JSON body
		var statusErr *http.StatusError
		if !errors.As(err, &statusErr) || json.Unmarshal(statusErr.Body, &response) != nil || response.Code == "" {
			return directions.Route{}, fmt.Errorf("failed to retrieve route from OSRM API: %w", err)
		}
	}

	switch response.Code {
	case codeOK:
		if err != nil {
			return directions.Route{}, fmt.Errorf("failed to retrieve route from OSRM API: %w", err)
		}
	case codeNoRoute:
		return directions.Route{}, fmt.Errorf("%w: %s", directions.ErrNoRoute, response.Message)
	default:
		if err != nil {
			return directions.Route{}, fmt.Errorf("OSRM API returned code %s: %s: %w", response.Code,
				response.Message, err)
		}
		return directions.Route{}, fmt.Errorf("OSRM API returned code %s: %s", response.Code, response.Message)
	}
	if len(response.Routes) == 0 {
		return directions.Route{}, directions.ErrNoRoute
	}

	first := response.Routes[0]
	path, err := polyline.Decode(first.Geometry)
	if err != nil {
		return directions.Route{}, err
	}
	return directions.Route{
		Path:     path,
		Distance: first.Distance,
		Duration: time.Duration(first.Duration * float64(time.Second)),
		Source:   name,
	}, nil
}
