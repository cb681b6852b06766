// Authgate - Request Authentication and Session Integrity Engine
// Copyright 2026 Authgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/govportal/authgate

package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/govportal/authgate/internal/audit"
	"github.com/govportal/authgate/internal/logging"
)

// LockedAccounts lists accounts currently under lockout.
func (h *Handlers) LockedAccounts(w http.ResponseWriter, r *http.Request) {
	accounts := h.lockout.LockedAccounts()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"lockedAccounts": accounts,
		"count":          len(accounts),
	})
}

// UnlockAccount clears the lockout for one account.
func (h *Handlers) UnlockAccount(w http.ResponseWriter, r *http.Request) {
	var req unlockRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	identifier := strings.ToLower(req.Username)
	unlocked := h.lockout.Unlock(identifier)

	sess := SessionFromContext(r.Context())
	h.record(audit.EventAccountUnlock, audit.SeverityMedium, audit.StatusSuccess, map[string]interface{}{
		"target":   identifier,
		"unlocked": unlocked,
	}, audit.ContextFromRequest(r, sess.Username, sess.ID))

	if !unlocked {
		writeError(w, http.StatusNotFound, CodeNotFound, "Account is not locked")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Account unlocked"})
}

// UnlockAllAccounts clears every active lockout.
func (h *Handlers) UnlockAllAccounts(w http.ResponseWriter, r *http.Request) {
	n := h.lockout.UnlockAll()

	sess := SessionFromContext(r.Context())
	h.record(audit.EventAccountUnlock, audit.SeverityMedium, audit.StatusSuccess, map[string]interface{}{
		"target":   "*",
		"unlocked": n,
	}, audit.ContextFromRequest(r, sess.Username, sess.ID))

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":  "All accounts unlocked",
		"unlocked": n,
	})
}

// AuditEvents queries the in-memory audit window with optional filters.
func (h *Handlers) AuditEvents(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}

	entries := h.audit.Query(filter)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"events": entries,
		"count":  len(entries),
		"total":  h.audit.Count(filter),
	})
}

// AuditExport streams matching entries as JSON or CEF for SIEM ingestion.
func (h *Handlers) AuditExport(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}

	entries := h.audit.Query(filter)
	format := r.URL.Query().Get("format")

	switch format {
	case "cef":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="audit-export.cef"`)
		err = audit.ExportCEF(w, entries)
	case "", "json":
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", `attachment; filename="audit-export.json"`)
		err = audit.ExportJSON(w, entries)
	default:
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "format must be json or cef")
		return
	}
	if err != nil {
		logging.Error().Err(err).Str("format", format).Msg("Audit export failed")
	}
}

// AuditStats reports counters by event, severity, and status.
func (h *Handlers) AuditStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.audit.Stats())
}

// UploadStats reports accepted/rejected upload counters by reason.
func (h *Handlers) UploadStats(w http.ResponseWriter, r *http.Request) {
	accepted, rejections := h.uploads.Stats()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"accepted":   accepted,
		"rejections": rejections,
	})
}

// filterFromQuery builds an audit filter from URL query parameters. Limits
// are clamped; time bounds must be RFC3339.
func filterFromQuery(r *http.Request) (audit.QueryFilter, error) {
	q := r.URL.Query()
	filter := audit.DefaultQueryFilter()

	if events := q.Get("event"); events != "" {
		filter.Events = strings.Split(events, ",")
	}
	if sev := q.Get("min_severity"); sev != "" {
		filter.MinSeverity = audit.Severity(strings.ToUpper(sev))
	}
	if status := q.Get("status"); status != "" {
		for _, s := range strings.Split(status, ",") {
			filter.Statuses = append(filter.Statuses, audit.Status(strings.ToUpper(s)))
		}
	}
	filter.Username = q.Get("username")
	filter.IP = q.Get("ip")

	if raw := q.Get("start"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, err
		}
		filter.StartTime = &t
	}
	if raw := q.Get("end"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, err
		}
		filter.EndTime = &t
	}

	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return filter, err
		}
		if n > 0 && n <= 1000 {
			filter.Limit = n
		}
	}
	if raw := q.Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return filter, err
		}
		if n >= 0 {
			filter.Offset = n
		}
	}

	return filter, nil
}
