package core

import (
	"bytes"
	"testing"
)

func TestNewArtifact(t *testing.T) {
	a := NewArtifact("report.pdf", []byte{0x25, 0x50}, "application/pdf")

	if a.Name != "report.pdf" {
		t.Fatalf("name %q", a.Name)
	}
	if a.MimeType != "application/pdf" {
		t.Fatalf("mime type %q", a.MimeType)
	}
	if a.Version != 0 {
		t.Fatalf("version %d before save, want 0", a.Version)
	}

	a = NewArtifact("blob", []byte("x"), "")
	if a.MimeType != DefaultMimeType {
		t.Fatalf("mime type %q, want %q", a.MimeType, DefaultMimeType)
	}
}

func TestNewTextArtifact(t *testing.T) {
	a := NewTextArtifact("notes.md", "# Notes", "text/markdown")

	if a.Text() != "# Notes" {
		t.Fatalf("text %q", a.Text())
	}
	if a.MimeType != "text/markdown" {
		t.Fatalf("mime type %q", a.MimeType)
	}

	a = NewTextArtifact("plain.txt", "hi", "")
	if a.MimeType != DefaultTextMimeType {
		t.Fatalf("mime type %q, want %q", a.MimeType, DefaultTextMimeType)
	}
}

func TestArtifact_Clone(t *testing.T) {
	original := NewArtifact("blob", []byte("abc"), "")
	dup := original.Clone()

	dup.Data[0] = 'z'

	if !bytes.Equal(original.Data, []byte("abc")) {
		t.Fatal("clone shares the data slice")
	}

	empty := Artifact{Name: "empty"}
	if dup := empty.Clone(); len(dup.Data) != 0 {
		t.Fatalf("clone of empty data has %d bytes", len(dup.Data))
	}
}
