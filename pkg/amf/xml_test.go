package amf

import "testing"

func TestIsXML(t *testing.T) {
	if !IsXML("<root><child/></root>") {
		t.Error("expected well-formed XML to be detected")
	}
	if IsXML("not xml at all") {
		t.Error("expected plain text to be rejected")
	}
}

func TestParseXML_ForbidsDTDByDefault(t *testing.T) {
	opts := DefaultOptions()
	_, err := ParseXML(`<!DOCTYPE root SYSTEM "x.dtd"><root/>`, opts)
	if err == nil {
		t.Fatal("expected DTD to be rejected under ForbidDTD")
	}
}

func TestParseXML_ForbidsEntitiesByDefault(t *testing.T) {
	opts := DefaultOptions()
	_, err := ParseXML(`<!ENTITY foo "bar"><root/>`, opts)
	if err == nil {
		t.Fatal("expected entity declaration to be rejected under ForbidEntities")
	}
}

func TestParseXML_AllowsPlainDocument(t *testing.T) {
	opts := DefaultOptions()
	got, err := ParseXML(`<root><child>text</child></root>`, opts)
	if err != nil {
		t.Fatal(err)
	}
	if got == "" {
		t.Error("expected non-empty parsed document")
	}
}
