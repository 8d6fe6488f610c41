// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package presenter

import (
	"fmt"
	"math"
	"strings"
	"text/template"
	"time"

	"github.com/mattn/go-runewidth"
)

func (p *Presenter) templateFuncMap() template.FuncMap {
	return template.FuncMap{
		"timeFormat":  p.timeFormat,
		"floatFormat": p.floatFormat,
		"loc":         p.loc,
		"lc":          strings.ToLower,
		"uc":          strings.ToUpper,
		"hum":         p.hum,
		"pad":         pad,
		"div":         div,
	}
}

func (p *Presenter) loc(val string) string {
	val = strings.ToLower(val)
	if raw, ok := i18nVars[val]; ok {
		return p.localizer.Get(raw)
	}
	return val
}

// hum returns the time relative to now, e.g. "2 minutes ago".
func (p *Presenter) hum(val time.Time) string {
	if val.IsZero() {
		return p.localizer.Get(i18nVars["unknown"])
	}
	return p.humanizer.NaturalTime(val)
}

func (p *Presenter) timeFormat(val time.Time, fmt string) string {
	if val.IsZero() {
		return "--:--"
	}
	return val.Format(fmt)
}

func (p *Presenter) floatFormat(val float64, precision int) string {
	pow := math.Pow(10, float64(precision))
	return fmt.Sprintf("%.*f", precision, math.Trunc(val*pow)/pow)
}

// pad fills val with spaces up to the given display width. Wide runes like emoji count twice.
func pad(val string, width int) string {
	return runewidth.FillRight(val, width)
}

func div(val, divisor float64) float64 {
	if divisor == 0 {
		return 0
	}
	return val / divisor
}
