// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package presenter

import (
	"bytes"
	"fmt"
	"text/template"
	"time"

	"github.com/nathan-osman/go-sunrise"
	"github.com/vorlif/humanize"
	"github.com/vorlif/spreak"

	"github.com/wneessen/waybar-tracker/internal/battery"
	"github.com/wneessen/waybar-tracker/internal/config"
	"github.com/wneessen/waybar-tracker/internal/geo"
	"github.com/wneessen/waybar-tracker/internal/i18n"
	"github.com/wneessen/waybar-tracker/internal/track"
	"github.com/wneessen/waybar-tracker/internal/vartype"
)

const (
	OutputClass = "waybar-tracker"

	ClassCharging    = "charging"
	ClassDischarging = "discharging"
	ClassAlert       = "alert"
	ClassNight       = "night"
)

// BatteryCard is the presentation of the battery state.
type BatteryCard struct {
	Available  bool
	Percentage float64
	Charging   bool
	Icon       string
	Level      string
	Status     string
}

// AlertView is the presentation of a recent alert.
type AlertView struct {
	Title   string
	Message string
	At      time.Time
}

type TemplateContext struct {
	SessionID   string
	UpdateTime  time.Time
	Location    geo.Coordinate
	HasLocation bool
	LastFix     time.Time
	Source      string

	Waypoints     []geo.Coordinate
	WaypointCount int
	Markers       []track.Marker

	Route         []geo.Coordinate
	RouteLength   float64
	RouteDuration time.Duration
	RouteSource   string

	Battery     BatteryCard
	Alert       *AlertView
	SunriseTime time.Time
	SunsetTime  time.Time
	IsNight     bool
}

// Output is a single line of waybar custom module output.
type Output struct {
	Text    string   `json:"text"`
	Tooltip string   `json:"tooltip"`
	Class   []string `json:"class"`
}

type Presenter struct {
	localizer *spreak.Localizer
	humanizer *humanize.Humanizer
	alertFor  time.Duration
	now       func() time.Time

	text       *template.Template
	altText    *template.Template
	tooltip    *template.Template
	altTooltip *template.Template
}

// New parses the configured templates and verifies that they render against an empty context.
func New(conf *config.Config, loc *spreak.Localizer) (*Presenter, error) {
	humanizer, err := i18n.NewHumanizer(loc.Language())
	if err != nil {
		return nil, err
	}
	pres := &Presenter{
		localizer: loc,
		humanizer: humanizer,
		alertFor:  conf.Alerts.ShowFor,
		now:       time.Now,
	}

	templates := []struct {
		name   string
		text   string
		target **template.Template
	}{
		{"text", conf.Templates.Text, &pres.text},
		{"alt_text", conf.Templates.AltText, &pres.altText},
		{"tooltip", conf.Templates.Tooltip, &pres.tooltip},
		{"alt_tooltip", conf.Templates.AltTooltip, &pres.altTooltip},
	}
	for _, tpl := range templates {
		parsed, err := template.New(tpl.name).Funcs(pres.templateFuncMap()).Parse(tpl.text)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s template: %w", tpl.name, err)
		}
		*tpl.target = parsed
	}

	if _, err = pres.Render(pres.BuildContext(track.Snapshot{})); err != nil {
		return nil, err
	}
	return pres, nil
}

// BuildContext turns a session snapshot into the context the templates are rendered with.
func (p *Presenter) BuildContext(snap track.Snapshot) TemplateContext {
	now := p.now()
	tplCtx := TemplateContext{
		SessionID:     snap.ID,
		UpdateTime:    now,
		Location:      snap.Location,
		HasLocation:   snap.HasLocation,
		LastFix:       snap.LastFix,
		Source:        snap.Source,
		Waypoints:     snap.Waypoints,
		WaypointCount: len(snap.Waypoints),
		Markers:       snap.Markers,
		Route:         snap.Route.Path,
		RouteLength:   snap.Route.Distance,
		RouteDuration: snap.Route.Duration,
		RouteSource:   snap.Route.Source,
		Battery:       p.batteryCard(snap.Battery),
	}
	if tplCtx.Markers == nil {
		tplCtx.Markers = []track.Marker{}
	}

	if snap.HasAlert && (p.alertFor <= 0 || now.Sub(snap.Alert.At) <= p.alertFor) {
		tplCtx.Alert = &AlertView{
			Title:   p.localizer.Get(snap.Alert.Title),
			Message: p.localizer.Get(snap.Alert.Message),
			At:      snap.Alert.At,
		}
	}

	if snap.HasLocation {
		rise, set := sunrise.SunriseSunset(snap.Location.Lat, snap.Location.Lon, now.Year(), now.Month(), now.Day())
		if !rise.IsZero() && !set.IsZero() {
			tplCtx.SunriseTime = rise.Local()
			tplCtx.SunsetTime = set.Local()
			tplCtx.IsNight = now.Before(rise) || now.After(set)
		}
	}

	return tplCtx
}

func (p *Presenter) batteryCard(state vartype.Variable[battery.State]) BatteryCard {
	value, ok := state.Get()
	if !ok {
		fetching := p.localizer.Get(vartype.Placeholder)
		return BatteryCard{Level: fetching, Status: fetching}
	}
	return BatteryCard{
		Available:  true,
		Percentage: value.Percentage,
		Charging:   value.IsCharging,
		Icon:       value.Icon(),
		Level:      value.Level(),
		Status:     p.localizer.Get(value.Status()),
	}
}

// Render executes all templates and returns their output keyed by template name.
func (p *Presenter) Render(tplCtx TemplateContext) (map[string]string, error) {
	out := make(map[string]string, 4)
	for name, tpl := range map[string]*template.Template{
		"text":        p.text,
		"alt_text":    p.altText,
		"tooltip":     p.tooltip,
		"alt_tooltip": p.altTooltip,
	} {
		buf := bytes.NewBuffer(nil)
		if err := tpl.Execute(buf, tplCtx); err != nil {
			return nil, fmt.Errorf("failed to render %s template: %w", name, err)
		}
		out[name] = buf.String()
	}
	return out, nil
}

// Output renders the waybar module line. If alt is true, the alternative text and tooltip are used.
func (p *Presenter) Output(tplCtx TemplateContext, alt bool) (Output, error) {
	rendered, err := p.Render(tplCtx)
	if err != nil {
		return Output{}, err
	}
	output := Output{
		Text:    rendered["text"],
		Tooltip: rendered["tooltip"],
		Class:   p.Classes(tplCtx),
	}
	if alt {
		output.Text = rendered["alt_text"]
		output.Tooltip = rendered["alt_tooltip"]
	}
	return output, nil
}

// Classes returns the CSS classes for the module.
func (p *Presenter) Classes(tplCtx TemplateContext) []string {
	classes := []string{OutputClass}
	if tplCtx.Battery.Available {
		if tplCtx.Battery.Charging {
			classes = append(classes, ClassCharging)
		} else {
			classes = append(classes, ClassDischarging)
		}
	}
	if tplCtx.Alert != nil {
		classes = append(classes, ClassAlert)
	}
	if tplCtx.IsNight {
		classes = append(classes, ClassNight)
	}
	return classes
}
