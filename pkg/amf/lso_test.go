package amf

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSOL_EncodeDecodeRoundTrip(t *testing.T) {
	sol := NewSOL("settings")
	sol.Set("volume", float64(0.8))
	sol.Set("name", "player one")

	data, err := EncodeSOL(sol, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}

	got, err := DecodeSOL(data, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "settings" {
		t.Errorf("Name = %q", got.Name)
	}
	if v, _ := got.Get("volume"); v != float64(0.8) {
		t.Errorf("volume = %v", v)
	}
	if v, _ := got.Get("name"); v != "player one" {
		t.Errorf("name = %v", v)
	}
}

func TestSOL_EncodeDecodeRoundTripAMF3(t *testing.T) {
	sol := NewSOL("settings")
	sol.Encoding = SOLEncodingAMF3
	sol.Set("volume", float64(0.8))
	sol.Set("name", "player one")

	data, err := EncodeSOL(sol, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}

	got, err := DecodeSOL(data, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if got.Encoding != SOLEncodingAMF3 {
		t.Errorf("Encoding = %v, want SOLEncodingAMF3", got.Encoding)
	}
	if v, _ := got.Get("volume"); v != float64(0.8) {
		t.Errorf("volume = %v", v)
	}
	if v, _ := got.Get("name"); v != "player one" {
		t.Errorf("name = %v", v)
	}
}

func TestSOL_DecodeRejectsBadSignature(t *testing.T) {
	data, err := EncodeSOL(NewSOL("x"), DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	data[8] = 'Z' // corrupt a signature byte (signature starts at offset 6)
	if _, err := DecodeSOL(data, DefaultOptions()); err == nil {
		t.Fatal("expected signature mismatch error")
	}
}

func TestSOL_LoadSaveFile(t *testing.T) {
	sol := NewSOL("file-round-trip")
	sol.Set("score", float64(100))

	path := filepath.Join(t.TempDir(), "test.sol")
	if err := SaveSOL(sol, path, DefaultOptions()); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatal(err)
	}

	got, err := LoadSOL(path, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "file-round-trip" {
		t.Errorf("Name = %q", got.Name)
	}
	if v, _ := got.Get("score"); v != float64(100) {
		t.Errorf("score = %v", v)
	}
}
