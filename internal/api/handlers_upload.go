// Authgate - Request Authentication and Session Integrity Engine
// Copyright 2026 Authgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/govportal/authgate

package api

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"

	"github.com/govportal/authgate/internal/audit"
	"github.com/govportal/authgate/internal/logging"
	"github.com/govportal/authgate/internal/upload"
)

// multipartOverhead covers boundaries and part headers beyond the payload.
const multipartOverhead = 1 << 20

// Upload validates and persists a multipart file upload. The request body
// is capped before parsing so an oversized upload never buffers fully.
func (h *Handlers) Upload(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	reqCtx := audit.ContextFromRequest(r, sess.Username, sess.ID)

	maxSize := h.config.Upload.MaxVideoSize + multipartOverhead
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, CodeUploadTooLarge, "Upload exceeds the size limit")
		return
	}

	category := upload.Category(r.FormValue("category"))
	if category == "" {
		category = upload.CategoryDocument
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeMalformedRequest, `Multipart field "file" is required`)
		return
	}
	defer file.Close() //nolint:errcheck // read-only handle

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeMalformedRequest, "Failed to read upload")
		return
	}

	declared := header.Header.Get("Content-Type")
	if err := h.uploads.Validate(data, declared, category, header.Filename); err != nil {
		h.record(audit.EventUploadRejected, audit.SeverityHigh, audit.StatusFailure, map[string]interface{}{
			"filename":      header.Filename,
			"declared_mime": declared,
			"category":      string(category),
			"reason":        err.Error(),
		}, reqCtx)
		h.rejectUpload(w, err)
		return
	}

	storedPath, err := h.files.Save(category, header.Filename, data)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to persist upload")
		writeError(w, http.StatusInternalServerError, CodeInternal, "Failed to store upload")
		return
	}

	h.record(audit.EventUploadAccepted, audit.SeverityLow, audit.StatusSuccess, map[string]interface{}{
		"filename": header.Filename,
		"category": string(category),
		"size":     len(data),
	}, reqCtx)

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message":  "Upload accepted",
		"storedAs": filepath.Base(storedPath),
		"category": string(category),
		"size":     len(data),
	})
}

// rejectUpload maps a validation failure to its status code. The reason
// strings are safe to echo; they name the check, not the content.
func (h *Handlers) rejectUpload(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, upload.ErrTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, CodeUploadTooLarge, err.Error())
	case errors.Is(err, upload.ErrUnknownCategory):
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
	default:
		writeError(w, http.StatusBadRequest, CodeUploadRejected, err.Error())
	}
}
