package amf

import "time"

// GetTimestamp returns the UTC Unix timestamp, in seconds with fractional
// microsecond precision, for t. Mirrors util.get_timestamp.
func GetTimestamp(t time.Time) float64 {
	u := t.UTC()
	return float64(u.Unix()) + float64(u.Nanosecond())/1e9
}

// GetDatetime is the inverse of GetTimestamp: given seconds since the
// Unix epoch, returns the corresponding UTC time.Time. Mirrors
// util.get_datetime.
func GetDatetime(secs float64) time.Time {
	whole := int64(secs)
	frac := secs - float64(whole)
	return time.Unix(whole, int64(frac*1e9)).UTC()
}

// applyTimezoneOffsetEncode subtracts the configured offset before
// encoding, per §3: "a caller-supplied timezone offset is subtracted on
// encode and added on decode".
func applyTimezoneOffsetEncode(t time.Time, offsetSeconds int) time.Time {
	return t.Add(-time.Duration(offsetSeconds) * time.Second)
}

func applyTimezoneOffsetDecode(t time.Time, offsetSeconds int) time.Time {
	return t.Add(time.Duration(offsetSeconds) * time.Second)
}
