// Copyright 2016 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package gizmo

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// TimeZoneSuffix is appended to submission timestamps, which the
// remote API reports as naive local times in a single fixed zone.
const TimeZoneSuffix = "EST"

// TimeZone is the fixed zone the remote API reports times in.
var TimeZone = time.FixedZone(TimeZoneSuffix, -5*60*60)

// TimeLayout is the layout of timestamps sent to the remote API.
const TimeLayout = "2006-01-02 15:04:05"

// zonedLayout is TimeLayout followed by a zone abbreviation.
const zonedLayout = TimeLayout + " MST"

// FormatTime renders t in the remote API's zone and layout.
func FormatTime(t time.Time) string {
	return t.In(TimeZone).Format(TimeLayout)
}

// ParseTime parses a timestamp from the remote API.  Timestamps
// carrying the TimeZoneSuffix are read in TimeZone; anything else
// is parsed as loosely as possible, defaulting to TimeZone for
// naive values.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, " "+TimeZoneSuffix) {
		if t, err := time.ParseInLocation(zonedLayout, s, TimeZone); err == nil {
			return t, nil
		}
	}
	return dateparse.ParseIn(s, TimeZone)
}
