package amf

import "testing"

func TestContext_ClearResetsReferenceTables(t *testing.T) {
	ctx := NewContext(DefaultOptions())
	ctx.Strings.Add("hello")
	ctx.Objects.Add(NewObject())

	ctx.Clear()

	if ctx.Strings.GetReference("hello") != -1 {
		t.Error("expected string table cleared")
	}
	if ctx.Objects.Len() != 0 {
		t.Error("expected object table cleared")
	}
}

func TestContext_SubContextIsIsolated(t *testing.T) {
	ctx := NewContext(DefaultOptions())
	ctx.Strings.Add("outer")

	sub := ctx.SubContext()
	if sub.Strings.GetReference("outer") != -1 {
		t.Error("sub-context must not see the parent's reference table")
	}
	if sub.Options.Strict != ctx.Options.Strict {
		t.Error("sub-context must inherit Options")
	}
}

func TestContext_EnterExitElementDepth(t *testing.T) {
	ctx := NewContext(DefaultOptions())
	ctx.enterElement()
	ctx.enterElement()
	if ctx.exitElement() {
		t.Error("exitElement should report false while depth > 0")
	}
	if !ctx.exitElement() {
		t.Error("exitElement should report true when depth returns to 0")
	}
}
