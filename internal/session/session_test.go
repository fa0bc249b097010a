package session

import (
	"reflect"
	"testing"
)

func TestSelection(t *testing.T) {
	s := NewSelection()
	s.Select("b")
	s.Select("a")
	s.Select("a")

	if !s.Has("a") || !s.Has("b") || s.Has("c") {
		t.Fatalf("membership wrong: %v", s.IDs())
	}
	if got := s.IDs(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("IDs = %v", got)
	}

	if s.Toggle("a") {
		t.Fatal("Toggle(a) = true, want deselected")
	}
	if !s.Toggle("c") {
		t.Fatal("Toggle(c) = false, want selected")
	}

	s.Deselect("c", "missing")
	if s.Len() != 1 {
		t.Fatalf("Len = %d, want 1", s.Len())
	}

	s.Clear()
	if s.Len() != 0 {
		t.Fatalf("Len after Clear = %d", s.Len())
	}
}

func TestDeselectAbsentIsHarmless(t *testing.T) {
	s := NewSelection()
	s.Select("x")
	s.Deselect("gone")
	s.Deselect("gone")
	if !s.Has("x") || s.Len() != 1 {
		t.Fatalf("selection corrupted: %v", s.IDs())
	}
}

func TestPlaybackToggle(t *testing.T) {
	p := NewPlayback()
	var changes [][2]string
	p.OnChange(func(prev, next string) { changes = append(changes, [2]string{prev, next}) })

	if got := p.Toggle("a"); got != "a" {
		t.Fatalf("Toggle(a) = %q", got)
	}
	if got := p.Toggle("b"); got != "b" {
		t.Fatalf("Toggle(b) = %q, want switch to b", got)
	}
	if got := p.Toggle("b"); got != "" {
		t.Fatalf("Toggle(b) again = %q, want paused", got)
	}

	want := [][2]string{{"", "a"}, {"a", "b"}, {"b", ""}}
	if !reflect.DeepEqual(changes, want) {
		t.Fatalf("changes = %v, want %v", changes, want)
	}
}

func TestPlaybackStopIf(t *testing.T) {
	p := NewPlayback()
	p.Toggle("a")

	if p.StopIf("b", "c") {
		t.Fatal("StopIf stopped an unrelated track")
	}
	if !p.IsPlaying("a") {
		t.Fatal("a should still be playing")
	}
	if !p.StopIf("c", "a") {
		t.Fatal("StopIf did not stop the playing track")
	}
	if p.Playing() != "" {
		t.Fatalf("Playing = %q, want stopped", p.Playing())
	}
}
