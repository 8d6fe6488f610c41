// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package presenter

import "github.com/vorlif/spreak/localize"

// i18nVars maps the keys usable with the loc template function to their message IDs.
var i18nVars = map[string]localize.MsgID{
	"battery":   "Battery",
	"waypoints": "Waypoints",
	"route":     "Route",
	"lastfix":   "Last fix",
	"location":  "Location",
	"sunrise":   "Sunrise",
	"sunset":    "Sunset",
	"markers":   "Markers",
	"fetching":  "Fetching...",
	"charging":  "Charging",
	"unknown":   "unknown",
}
