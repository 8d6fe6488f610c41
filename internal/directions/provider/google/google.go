// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package google

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/wneessen/waybar-tracker/internal/directions"
	"github.com/wneessen/waybar-tracker/internal/geo"
	"github.com/wneessen/waybar-tracker/internal/http"
	"github.com/wneessen/waybar-tracker/internal/polyline"
)

const (
	APIEndpoint = "https://maps.googleapis.com/maps/api/directions/json"
	APITimeout  = time.Second * 10
	name        = "google"

	statusOK          = "OK"
	statusZeroResults = "ZERO_RESULTS"
	statusNotFound    = "NOT_FOUND"
)

type Google struct {
	apikey   string
	endpoint string
	http     *http.Client
}

type Response struct {
	Status       string  `json:"status"`
	ErrorMessage string  `json:"error_message"`
	Routes       []Route `json:"routes"`
}

type Route struct {
	Summary          string   `json:"summary"`
	OverviewPolyline Polyline `json:"overview_polyline"`
	Legs             []Leg    `json:"legs"`
}

type Polyline struct {
	Points string `json:"points"`
}

type Leg struct {
	Distance Value `json:"distance"`
	Duration Value `json:"duration"`
}

type Value struct {
	Text  string  `json:"text"`
	Value float64 `json:"value"`
}

// New returns a Google Directions API provider. An empty endpoint selects the public API.
func New(client *http.Client, apikey, endpoint string) *Google {
	if endpoint == "" {
		endpoint = APIEndpoint
	}
	return &Google{
		apikey:   apikey,
		endpoint: endpoint,
		http:     client,
	}
}

func (g *Google) Name() string {
	return name
}

// Route requests a driving route from the first waypoint to destination, passing every waypoint
// but the last one as intermediate stop.
func (g *Google) Route(ctx context.Context, waypoints []geo.Coordinate, destination geo.Coordinate) (directions.Route, error) {
	var response Response

	origin, err := directions.Origin(waypoints, destination)
	if err != nil {
		return directions.Route{}, err
	}

	query := url.Values{}
	query.Set("origin", origin.String())
	query.Set("destination", destination.String())
	query.Set("waypoints", directions.JoinWaypoints(directions.Intermediate(waypoints)))
	query.Set("key", g.apikey)

	if _, err = g.http.GetWithTimeout(ctx, g.endpoint, &response, query, nil, APITimeout); err != nil {
		return directions.Route{}, fmt.Errorf("failed to retrieve route from Google Directions API: %w", err)
	}

	switch response.Status {
	case statusOK, "":
	case statusZeroResults, statusNotFound:
		return directions.Route{}, fmt.Errorf("%w: %s", directions.ErrNoRoute, response.Status)
	default:
		return directions.Route{}, fmt.Errorf("Google Directions API returned status %s: %s",
			response.Status, response.ErrorMessage)
	}
	if len(response.Routes) == 0 {
		return directions.Route{}, directions.ErrNoRoute
	}

	first := response.Routes[0]
	path, err := polyline.Decode(first.OverviewPolyline.Points)
	if err != nil {
		return directions.Route{}, err
	}
	route := directions.Route{Path: path, Source: name}
	for _, leg := range first.Legs {
		route.Distance += leg.Distance.Value
		route.Duration += time.Duration(leg.Duration.Value) * time.Second
	}
	if route.Distance == 0 {
		route.Distance = geo.Length(path)
	}

	return route, nil
}
