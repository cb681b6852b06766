// Authgate - Request Authentication and Session Integrity Engine
// Copyright 2026 Authgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/govportal/authgate

package upload

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"
)

// pngBytes returns a minimal payload the type sniffer identifies as PNG,
// padded with neutral bytes to the requested size.
func pngBytes(size int) []byte {
	header := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
	data := make([]byte, size)
	copy(data, header)
	for i := len(header); i < size; i++ {
		data[i] = 0xAA
	}
	return data
}

func newTestValidator() *Validator {
	return NewValidator(Config{
		MaxImageSize:    1 << 20,
		MaxDocumentSize: 1 << 20,
		MaxVideoSize:    1 << 20,
		TailScanBytes:   4096,
	})
}

func TestValidateAcceptsCleanImage(t *testing.T) {
	v := newTestValidator()

	if err := v.Validate(pngBytes(512), "image/png", CategoryImage, "photo.png"); err != nil {
		t.Errorf("clean PNG must be accepted: %v", err)
	}

	accepted, rejections := v.Stats()
	if accepted != 1 {
		t.Errorf("accepted = %d, want 1", accepted)
	}
	if len(rejections) != 0 {
		t.Errorf("rejections = %v, want none", rejections)
	}
}

func TestValidateRejectsELFNamedAsImage(t *testing.T) {
	v := newTestValidator()

	elf := append([]byte{0x7f, 'E', 'L', 'F', 2, 1, 1, 0}, make([]byte, 120)...)
	err := v.Validate(elf, "image/png", CategoryImage, "photo.png")
	if err == nil {
		t.Fatal("ELF content declared as PNG must be rejected")
	}
	if !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("expected ErrTypeMismatch, got %v", err)
	}
}

func TestValidateRejectsEmbeddedExecutable(t *testing.T) {
	v := newTestValidator()

	data := pngBytes(256)
	copy(data[100:], []byte{0x7f, 'E', 'L', 'F'})

	err := v.Validate(data, "image/png", CategoryImage, "photo.png")
	if !errors.Is(err, ErrExecutableContent) {
		t.Errorf("expected ErrExecutableContent, got %v", err)
	}
}

func TestValidateRejectsTailPayload(t *testing.T) {
	v := newTestValidator()

	// Valid image body with a script marker appended in the final window.
	data := pngBytes(8192)
	copy(data[len(data)-64:], []byte("<script>fetch('/steal')</script>"))

	err := v.Validate(data, "image/png", CategoryImage, "photo.png")
	if !errors.Is(err, ErrInjectionContent) {
		t.Fatalf("expected ErrInjectionContent, got %v", err)
	}

	_, rejections := v.Stats()
	if rejections["tail_injection"] != 1 {
		t.Errorf("rejections = %v, want tail_injection counted", rejections)
	}
}

func TestValidateRejectsInjectionMarkers(t *testing.T) {
	v := newTestValidator()

	tests := []string{
		"<?php system($_GET['c']); ?>",
		"<SCRIPT>alert(1)</SCRIPT>",
		"data:text/html;base64,PHNjcmlwdD4=",
		"#!/bin/sh\nrm -rf /",
	}

	for _, payload := range tests {
		data := pngBytes(128)
		copy(data[32:], payload)
		if err := v.Validate(data, "image/png", CategoryImage, "photo.png"); err == nil {
			t.Errorf("payload %q must be rejected", payload)
		}
	}
}

func TestValidateSizeLimit(t *testing.T) {
	v := NewValidator(Config{MaxImageSize: 100, TailScanBytes: 4096})

	err := v.Validate(pngBytes(101), "image/png", CategoryImage, "photo.png")
	if !errors.Is(err, ErrTooLarge) {
		t.Errorf("expected ErrTooLarge, got %v", err)
	}
}

func TestValidateUnknownCategory(t *testing.T) {
	v := newTestValidator()

	err := v.Validate(pngBytes(64), "image/png", Category("archive"), "a.png")
	if !errors.Is(err, ErrUnknownCategory) {
		t.Errorf("expected ErrUnknownCategory, got %v", err)
	}
}

func TestValidateFilename(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"photo.png", false},
		{"report-2026_final.pdf", false},
		{"", true},
		{"evil\x00.png", true},
		{"../../etc/passwd", true},
		{`..\windows\system32`, true},
		{"shell.php.png", true},
		{"run.sh", true},
		{"page.html.exe", true},
		{"a;rm -rf.png", true},
		{"a.b.c.d.png", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFilename(tt.name)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFilename(%q) = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"photo.png", "photo.png"},
		{"my photo (1).png", "my_photo_1_.png"},
		{"répôrt.pdf", "r_p_rt.pdf"},
		{"???", "upload"},
	}

	for _, tt := range tests {
		if got := SanitizeFilename(tt.in); got != tt.expected {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.expected)
		}
	}
}

func TestStoreSaveNonExecutable(t *testing.T) {
	s := NewStore(t.TempDir())

	path, err := s.Save(CategoryImage, "photo.png", pngBytes(64))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o644 {
		t.Errorf("mode = %o, want 644", perm)
	}
	if !strings.HasSuffix(path, "photo.png") {
		t.Errorf("stored name should keep the sanitized original: %s", path)
	}

	stored, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back failed: %v", err)
	}
	if !bytes.Equal(stored, pngBytes(64)) {
		t.Error("stored content differs from input")
	}
}

func TestStoreSaveUniqueNames(t *testing.T) {
	s := NewStore(t.TempDir())

	first, err := s.Save(CategoryImage, "photo.png", pngBytes(64))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	second, err := s.Save(CategoryImage, "photo.png", pngBytes(64))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if first == second {
		t.Error("two uploads of the same name must not collide")
	}
}
