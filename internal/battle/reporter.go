package battle

import (
	"fmt"
	"strings"
)

// TeamSample aggregates one army at one point in time.
type TeamSample struct {
	Units     int
	Strength  float64
	Exhausted int
	Fleeing   int
	Reloading int
	InMelee   int
}

// ReportSample is a reading of both armies at one sample point.
type ReportSample struct {
	Tick     int
	GameTime float64
	Red      TeamSample
	Blue     TeamSample
}

// Reporter samples the field at a fixed game-time interval. Headless runs
// feed one from their tick loop and render the samples afterwards.
type Reporter struct {
	interval float64
	nextAt   float64
	samples  []ReportSample
}

// NewReporter creates a reporter sampling every interval seconds of game
// time.
func NewReporter(interval float64) *Reporter {
	if interval <= 0 {
		interval = 1.0
	}
	return &Reporter{interval: interval}
}

// Observe samples the world when the next interval is due. Call once per
// tick.
func (r *Reporter) Observe(w *World) {
	if w.GameTime() < r.nextAt {
		return
	}
	r.nextAt = w.GameTime() + r.interval
	r.samples = append(r.samples, ReportSample{
		Tick:     w.Tick(),
		GameTime: w.GameTime(),
		Red:      measureTeam(w, TeamRed),
		Blue:     measureTeam(w, TeamBlue),
	})
}

func measureTeam(w *World, team Team) TeamSample {
	var ts TeamSample
	for _, u := range w.Units() {
		if u.Team != team || !u.Alive() {
			continue
		}
		ts.Units++
		ts.Strength += u.EntityCount
		if u.Exhausted() {
			ts.Exhausted++
		}
		if u.Fleeing {
			ts.Fleeing++
		}
		if u.Reloading {
			ts.Reloading++
		}
		if u.MeleeLocked {
			ts.InMelee++
		}
	}
	return ts
}

// Samples returns every collected sample in order.
func (r *Reporter) Samples() []ReportSample {
	return r.samples
}

// Latest returns the most recent sample, or false if none collected yet.
func (r *Reporter) Latest() (ReportSample, bool) {
	if len(r.samples) == 0 {
		return ReportSample{}, false
	}
	return r.samples[len(r.samples)-1], true
}

// Format renders the sampled run as a plain-text strength timeline.
func (r *Reporter) Format() string {
	var sb strings.Builder
	sb.WriteString("=== Strength Timeline ===\n")
	sb.WriteString("   t(s)  red units  red str  blue units  blue str\n")
	for _, s := range r.samples {
		fmt.Fprintf(&sb, "%7.1f  %9d  %7.0f  %10d  %8.0f\n",
			s.GameTime, s.Red.Units, s.Red.Strength, s.Blue.Units, s.Blue.Strength)
	}
	return sb.String()
}
