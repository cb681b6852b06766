// Authgate - Request Authentication and Session Integrity Engine
// Copyright 2026 Authgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/govportal/authgate

package upload

import (
	"bytes"
	"errors"
	"fmt"
	"sync"

	"github.com/gabriel-vasile/mimetype"

	"github.com/govportal/authgate/internal/logging"
)

// Validation errors. Each maps to a stable rejection reason in the stats.
var (
	ErrTooLarge          = errors.New("file exceeds the size limit for its category")
	ErrTypeMismatch      = errors.New("file content does not match the declared type")
	ErrExecutableContent = errors.New("file contains an embedded executable signature")
	ErrInjectionContent  = errors.New("file contains code-injection markers")
	ErrBadFilename       = errors.New("unsafe filename")
	ErrUnknownCategory   = errors.New("unknown upload category")
)

// Category is the target upload category.
type Category string

const (
	CategoryImage    Category = "image"
	CategoryDocument Category = "document"
	CategoryVideo    Category = "video"
)

// allowedMIME lists the detected MIME types each category accepts.
var allowedMIME = map[Category][]string{
	CategoryImage:    {"image/png", "image/jpeg", "image/gif", "image/webp"},
	CategoryDocument: {"application/pdf", "application/msword", "application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
	CategoryVideo:    {"video/mp4", "video/webm", "video/quicktime"},
}

// executableSignatures are binary markers scanned for anywhere in the
// stream, not just at offset zero: an appended payload is as dangerous as a
// mislabeled file.
var executableSignatures = [][]byte{
	{0x7f, 'E', 'L', 'F'},       // ELF
	{'P', 'E', 0x00, 0x00},      // PE header
	{0xfe, 0xed, 0xfa, 0xce},    // Mach-O 32-bit
	{0xfe, 0xed, 0xfa, 0xcf},    // Mach-O 64-bit
	{0xcf, 0xfa, 0xed, 0xfe},    // Mach-O 64-bit little endian
	{'M', 'Z', 0x90, 0x00},      // DOS/PE stub
	{'#', '!', '/', 'b', 'i'},   // shebang /bin
	{'#', '!', '/', 'u', 's'},   // shebang /usr
}

// injectionMarkers are lowercase textual patterns indicating script or
// encoded payloads.
var injectionMarkers = [][]byte{
	[]byte("<script"),
	[]byte("<?php"),
	[]byte("<%"),
	[]byte("javascript:"),
	[]byte("eval("),
	[]byte("exec("),
	[]byte("system("),
	[]byte("passthru("),
	[]byte("shell_exec"),
	[]byte("base64_decode"),
	[]byte(";base64,"),
	[]byte("cmd.exe"),
	[]byte("powershell"),
	[]byte("document.cookie"),
	[]byte("onerror="),
}

// Config holds validation limits.
type Config struct {
	MaxImageSize    int64
	MaxDocumentSize int64
	MaxVideoSize    int64

	// TailScanBytes is the size of the dedicated tail window.
	TailScanBytes int
}

// Validator checks upload content, declared type, and filename.
type Validator struct {
	config Config

	mu         sync.Mutex
	rejections map[string]int64
	accepted   int64
}

// NewValidator creates a Validator.
func NewValidator(config Config) *Validator {
	return &Validator{
		config:     config,
		rejections: make(map[string]int64),
	}
}

func (v *Validator) sizeLimit(category Category) (int64, error) {
	switch category {
	case CategoryImage:
		return v.config.MaxImageSize, nil
	case CategoryDocument:
		return v.config.MaxDocumentSize, nil
	case CategoryVideo:
		return v.config.MaxVideoSize, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
}

// Validate checks raw content against a target category and filename. The
// declared MIME type is logged for forensics but the detected signature is
// authoritative.
func (v *Validator) Validate(data []byte, declaredMIME string, category Category, filename string) error {
	if err := ValidateFilename(filename); err != nil {
		return v.reject("filename", filename, declaredMIME, err)
	}

	limit, err := v.sizeLimit(category)
	if err != nil {
		return v.reject("category", filename, declaredMIME, err)
	}
	if int64(len(data)) > limit {
		return v.reject("size", filename, declaredMIME,
			fmt.Errorf("%w: %d bytes over %d limit", ErrTooLarge, len(data), limit))
	}

	detected := mimetype.Detect(data)
	if !v.categoryAccepts(category, detected) {
		return v.reject("type_mismatch", filename, declaredMIME,
			fmt.Errorf("%w: detected %s for category %s", ErrTypeMismatch, detected.String(), category))
	}

	// The tail window is scanned first: payloads appended after a valid
	// body are the common smuggling technique, and the distinct rejection
	// reason makes them visible in the stats.
	if tail := tailWindow(data, v.config.TailScanBytes); len(tail) > 0 {
		if sig := findExecutable(tail); sig != "" {
			return v.reject("tail_executable", filename, declaredMIME,
				fmt.Errorf("%w: %s in tail", ErrExecutableContent, sig))
		}
		if marker := findInjection(tail); marker != "" {
			return v.reject("tail_injection", filename, declaredMIME,
				fmt.Errorf("%w: %s in tail", ErrInjectionContent, marker))
		}
	}

	if sig := findExecutable(data); sig != "" {
		return v.reject("executable", filename, declaredMIME,
			fmt.Errorf("%w: %s", ErrExecutableContent, sig))
	}
	if marker := findInjection(data); marker != "" {
		return v.reject("injection", filename, declaredMIME,
			fmt.Errorf("%w: %s", ErrInjectionContent, marker))
	}

	v.mu.Lock()
	v.accepted++
	v.mu.Unlock()
	acceptedTotal.Inc()
	return nil
}

func (v *Validator) categoryAccepts(category Category, detected *mimetype.MIME) bool {
	for _, allowed := range allowedMIME[category] {
		if detected.Is(allowed) {
			return true
		}
	}
	return false
}

func (v *Validator) reject(reason, filename, declaredMIME string, err error) error {
	v.mu.Lock()
	v.rejections[reason]++
	v.mu.Unlock()

	rejectedTotal.WithLabelValues(reason).Inc()
	logging.Warn().
		Str("reason", reason).
		Str("filename", filename).
		Str("declared_mime", declaredMIME).
		Msg("Upload rejected")
	return err
}

func tailWindow(data []byte, size int) []byte {
	if size <= 0 || len(data) <= size {
		return nil
	}
	return data[len(data)-size:]
}

func findExecutable(data []byte) string {
	for _, sig := range executableSignatures {
		if bytes.Contains(data, sig) {
			return fmt.Sprintf("signature %x", sig)
		}
	}
	return ""
}

func findInjection(data []byte) string {
	lower := bytes.ToLower(data)
	for _, marker := range injectionMarkers {
		if bytes.Contains(lower, marker) {
			return fmt.Sprintf("marker %q", marker)
		}
	}
	return ""
}

// Stats reports acceptance and per-reason rejection counts for the admin
// endpoint.
func (v *Validator) Stats() (accepted int64, rejections map[string]int64) {
	v.mu.Lock()
	defer v.mu.Unlock()

	out := make(map[string]int64, len(v.rejections))
	for reason, n := range v.rejections {
		out[reason] = n
	}
	return v.accepted, out
}
