// Package xcode patches version metadata into an Xcode project and builds the xcodebuild invocations used to
// archive and export the Safari extension.
package xcode

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"time"
)

// Origin is the instant of the first Safari build. Project versions count whole days since then.
var Origin = time.Date(2022, time.September, 6, 17, 47, 52, 0, time.UTC)

const secondsPerDay = 24 * 60 * 60

var manifestVersionRegex = regexp.MustCompile(`^(\d+)\.(\d+)\.(\d+)$`)

// Version is the pair of identifiers written into the project
type Version struct {
	Major     int    // Whole days between Origin and the release timestamp
	Minor     string // DAYMINUTES component of the manifest version, as written
	Marketing string // Manifest version, verbatim
}

// ProjectVersion renders CURRENT_PROJECT_VERSION
func (v Version) ProjectVersion() string {
	return fmt.Sprintf("%d.%s", v.Major, v.Minor)
}

// Timestamp is a decoded MAJOR.MONTHDAY.DAYMINUTES manifest version
type Timestamp struct {
	Year, Month, Day, Hours, Minutes int
}

// ParseTimestamp decodes a manifest version. MONTHDAY packs month*100+day and DAYMINUTES packs hours*100+minutes.
func ParseTimestamp(manifestVersion string) (Timestamp, string, error) {
	var ts Timestamp

	match := manifestVersionRegex.FindStringSubmatch(manifestVersion)
	if match == nil {
		return ts, "", fmt.Errorf("version %q is not of the form MAJOR.MONTHDAY.DAYMINUTES", manifestVersion)
	}

	fields := make([]int, 3)
	for i := range fields {
		n, err := strconv.Atoi(match[i+1])
		if err != nil {
			return ts, "", fmt.Errorf("version %q: %w", manifestVersion, err)
		}
		fields[i] = n
	}

	ts = Timestamp{
		Year:    fields[0],
		Month:   fields[1] / 100,
		Day:     fields[1] % 100,
		Hours:   fields[2] / 100,
		Minutes: fields[2] % 100,
	}

	if ts.Month < 1 || ts.Month > 12 {
		return ts, "", fmt.Errorf("version %q: month %02d out of range", manifestVersion, ts.Month)
	}
	if ts.Day < 1 || ts.Day > daysIn(ts.Year, ts.Month) {
		return ts, "", fmt.Errorf("version %q: day %02d out of range", manifestVersion, ts.Day)
	}
	if ts.Hours > 23 {
		return ts, "", fmt.Errorf("version %q: hour %02d out of range", manifestVersion, ts.Hours)
	}
	if ts.Minutes > 59 {
		return ts, "", fmt.Errorf("version %q: minute %02d out of range", manifestVersion, ts.Minutes)
	}

	return ts, match[3], nil
}

// Time places the timestamp in loc
func (ts Timestamp) Time(loc *time.Location) time.Time {
	return time.Date(ts.Year, time.Month(ts.Month), ts.Day, ts.Hours, ts.Minutes, 0, 0, loc)
}

// DeriveVersion computes the project and marketing versions for a manifest version. The release timestamp is
// interpreted in loc, UTC when nil.
func DeriveVersion(manifestVersion string, loc *time.Location) (Version, error) {
	if loc == nil {
		loc = time.UTC
	}

	ts, minor, err := ParseTimestamp(manifestVersion)
	if err != nil {
		return Version{}, err
	}

	// Unix seconds, since time.Duration saturates about 292 years away from Origin
	daysSinceOrigin := float64(ts.Time(loc).Unix()-Origin.Unix()) / secondsPerDay

	return Version{
		Major:     int(math.Floor(daysSinceOrigin)),
		Minor:     minor,
		Marketing: manifestVersion,
	}, nil
}

func daysIn(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
