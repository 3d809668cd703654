package utils

import "time"

// Korea Standard Time (+09:00); billing periods and cooldown dates are
// rendered in KST.
var krLoc = func() *time.Location {
	if loc, err := time.LoadLocation("Asia/Seoul"); err == nil {
		return loc
	}
	return time.FixedZone("KST", 9*3600)
}()

func KSTLocation() *time.Location { return krLoc }

func NowUnixSeconds() int64 { return time.Now().Unix() }

// FromUnixSecondsKST returns zero time for t<=0 so callers decide rendering.
func FromUnixSecondsKST(t int64) time.Time {
	if t <= 0 {
		return time.Time{}
	}
	return time.Unix(t, 0).In(krLoc)
}

func FormatRFC3339KST(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(krLoc).Format(time.RFC3339)
}
