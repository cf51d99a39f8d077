package model

import "testing"

func TestMarshalTaggedRoundTrip(t *testing.T) {
	tagged, err := MarshalTagged(RenderLayoutKindMessage, MessageLayout{Text: "hello"})
	if err != nil {
		t.Fatalf("MarshalTagged: %v", err)
	}
	if tagged.Kind != RenderLayoutKindMessage {
		t.Errorf("Kind = %q, want %q", tagged.Kind, RenderLayoutKindMessage)
	}

	var out MessageLayout
	if err := tagged.Decode(&out); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out.Text != "hello" {
		t.Errorf("Text = %q, want %q", out.Text, "hello")
	}
}

func TestMarshalTaggedNoContent(t *testing.T) {
	tagged, err := MarshalTagged(RenderLayoutKindClear, nil)
	if err != nil {
		t.Fatalf("MarshalTagged: %v", err)
	}
	if len(tagged.Content) != 0 {
		t.Errorf("Content = %q, want empty", tagged.Content)
	}
	if !tagged.Is(RenderLayoutKindClear) {
		t.Errorf("Is(%q) = false", RenderLayoutKindClear)
	}
}

func TestTaggedDecodeEmptyContentErrors(t *testing.T) {
	tagged := ClearTag()
	var out MessageLayout
	if err := tagged.Decode(&out); err == nil {
		t.Error("Decode on empty-content tag should error")
	}
}
