package amf

import (
	"testing"
	"time"
)

func TestGetTimestampGetDatetimeRoundTrip(t *testing.T) {
	in := time.Date(2024, 3, 15, 10, 30, 0, 500_000_000, time.UTC)
	ts := GetTimestamp(in)
	out := GetDatetime(ts)
	if !out.Equal(in) {
		t.Errorf("got %v, want %v", out, in)
	}
}

func TestApplyTimezoneOffset_EncodeDecodeInverse(t *testing.T) {
	in := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	encoded := applyTimezoneOffsetEncode(in, 3600)
	decoded := applyTimezoneOffsetDecode(encoded, 3600)
	if !decoded.Equal(in) {
		t.Errorf("got %v, want %v", decoded, in)
	}
}
