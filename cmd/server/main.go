// Authgate - Request Authentication and Session Integrity Engine
// Copyright 2026 Authgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/govportal/authgate

// Package main is the entry point for the Authgate server.
//
// Authgate is a request-authentication and session-integrity engine for
// public-facing portals. It fronts login with a CAPTCHA challenge, accepts
// passwords only inside encrypted one-time envelopes, enforces account
// lockout and strict session lifecycle rules (including a replay blacklist
// for terminated session ids), validates uploaded file content, and records
// every security decision to a tamper-evident audit trail.
//
// # Startup Order
//
//  1. Configuration: Koanf v2 layering defaults, config.yaml, environment
//  2. Logging: zerolog, configured via LOG_LEVEL / LOG_FORMAT
//  3. Stores: session store and blacklist (memory or BadgerDB), nonce
//     registry, in-memory user store seeded from ADMIN_USERNAME
//  4. Engines: CAPTCHA, credential decoder (RSA keys loaded or generated),
//     password hasher, lockout tracker, upload validator, audit logger
//  5. HTTP surface: gatekeeper chain, chi router, handlers
//  6. Supervision: suture tree running the HTTP server and the periodic
//     maintenance sweepers
//
// # Configuration
//
// See internal/config for the full set. The most load-bearing environment
// variables:
//
//	APP_ENV=production        # strict binding, HTTPS-only credentials
//	TRUSTED_HOSTS=portal.example.gov
//	CORS_ALLOWED_ORIGINS=https://portal.example.gov
//	SESSION_SECRET=...        # required
//	SESSION_STORE=badger      # survive restarts
//	ADMIN_USERNAME/ADMIN_PASSWORD/ADMIN_EMAIL
//
// # Signal Handling
//
// SIGINT and SIGTERM trigger graceful shutdown: the listener drains within
// the configured timeout, then stores and the audit trail are closed.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/govportal/authgate/internal/api"
	"github.com/govportal/authgate/internal/audit"
	"github.com/govportal/authgate/internal/captcha"
	"github.com/govportal/authgate/internal/config"
	"github.com/govportal/authgate/internal/credential"
	"github.com/govportal/authgate/internal/gatekeeper"
	"github.com/govportal/authgate/internal/lockout"
	"github.com/govportal/authgate/internal/logging"
	"github.com/govportal/authgate/internal/password"
	"github.com/govportal/authgate/internal/session"
	"github.com/govportal/authgate/internal/supervisor"
	"github.com/govportal/authgate/internal/supervisor/services"
	"github.com/govportal/authgate/internal/upload"
	"github.com/govportal/authgate/internal/users"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	if err := cfg.Validate(); err != nil {
		logging.Fatal().Err(err).Msg("Configuration invalid")
	}

	logging.Info().
		Str("environment", cfg.Server.Environment).
		Str("session_store", cfg.Session.Store).
		Bool("credential_encryption", cfg.Credential.Enabled).
		Bool("strict_binding", cfg.StrictBindingEnabled()).
		Msg("Starting Authgate")

	// Session storage. The factory shares one BadgerDB handle between the
	// session store, the blacklist, and the nonce registry.
	factory, err := session.NewStoreFactory(session.StoreType(cfg.Session.Store), cfg.Session.StorePath)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open session store")
	}
	defer func() {
		if err := factory.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing session store")
		}
	}()

	manager := session.NewManager(
		factory.CreateStore(),
		factory.CreateBlacklist(cfg.Session.BlacklistRetention),
		session.Config{
			Timeout:       cfg.Session.Timeout,
			WarningWindow: cfg.Session.WarningWindow,
			StrictBinding: cfg.StrictBindingEnabled(),
		},
	)

	// Credential transport.
	keys, err := credential.LoadOrGenerateKeys(cfg.Credential.KeysDir)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load credential keys")
	}
	var nonces credential.NonceRegistry
	if cfg.Credential.NonceStore == "badger" && factory.DB() != nil {
		nonces = credential.NewBadgerNonceRegistry(factory.DB(), "nonce:")
	} else {
		nonces = credential.NewMemoryNonceRegistry()
	}
	defer nonces.Close() //nolint:errcheck // process exit path
	decoder := credential.NewDecoder(keys, nonces, cfg.Credential.MaxAge, cfg.Credential.NonceRetention)

	// Audit trail.
	auditCfg := audit.DefaultConfig(cfg.Audit.Dir)
	if cfg.Audit.MaxFileSize > 0 {
		auditCfg.MaxFileSize = cfg.Audit.MaxFileSize
	}
	if cfg.Audit.MaxRotations > 0 {
		auditCfg.MaxRotations = cfg.Audit.MaxRotations
	}
	auditLogger, err := audit.NewLogger(auditCfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open audit log")
	}
	defer func() {
		if err := auditLogger.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing audit log")
		}
	}()

	// Users and passwords.
	hasher := password.NewHasher(cfg.Password.Iterations)
	userStore := users.NewMemoryStore()
	if err := userStore.SeedAdmin(hasher, cfg.Users.AdminUsername, cfg.Users.AdminPassword, cfg.Users.AdminEmail); err != nil {
		logging.Fatal().Err(err).Msg("Failed to seed admin account")
	}

	tracker := lockout.NewTracker(lockout.Config{
		Threshold:  cfg.Lockout.Threshold,
		Duration:   cfg.Lockout.Duration,
		PurgeAfter: cfg.Lockout.PurgeAfter,
	})

	// CAPTCHA. Generation rate limiting applies in production only.
	captchaRate := cfg.Captcha.RateLimit
	if !cfg.IsProduction() {
		captchaRate = 0
	}
	engine := captcha.New(captcha.Config{
		Secret:      cfg.Session.Secret,
		Expiry:      cfg.Captcha.Expiry,
		MaxAttempts: cfg.Captcha.MaxAttempts,
		RateLimit:   captchaRate,
		RateWindow:  cfg.Captcha.RateWindow,
	})

	// Request gatekeeper.
	hostWl, err := gatekeeper.NewWhitelist(cfg.Security.TrustedHosts, cfg.Security.TrustedHostPatterns)
	if err != nil {
		logging.Fatal().Err(err).Msg("Invalid trusted host configuration")
	}
	originWl, err := gatekeeper.NewWhitelist(cfg.Security.CORSAllowedOrigins, cfg.Security.CORSOriginPatterns)
	if err != nil {
		logging.Fatal().Err(err).Msg("Invalid CORS origin configuration")
	}
	inspector := gatekeeper.NewConnectionSecurityInspector(true)
	gate := gatekeeper.New(gatekeeper.Config{
		HostWhitelist:     hostWl,
		OriginWhitelist:   originWl,
		Inspector:         inspector,
		Production:        cfg.IsProduction(),
		AllowHTTPSessions: cfg.Security.AllowHTTPSessions,
	}, auditLogger)

	// Uploads.
	uploadValidator := upload.NewValidator(upload.Config{
		MaxImageSize:    cfg.Upload.MaxImageSize,
		MaxDocumentSize: cfg.Upload.MaxDocumentSize,
		MaxVideoSize:    cfg.Upload.MaxVideoSize,
		TailScanBytes:   cfg.Upload.TailScanBytes,
	})

	handlers := api.NewHandlers(api.Deps{
		Config:   cfg,
		Users:    userStore,
		Hasher:   hasher,
		Sessions: manager,
		Cookies: &session.CookiePolicy{
			Name:          cfg.Session.CookieName,
			Path:          cfg.Session.CookiePath,
			Domain:        cfg.Session.CookieDomain,
			SameSite:      session.ParseSameSite(cfg.Session.CookieSameSite),
			AllowInsecure: cfg.Session.AllowInsecureCookies,
			Inspector:     inspector,
		},
		Captcha: engine,
		Decoder: decoder,
		Lockout: tracker,
		Audit:   auditLogger,
		Uploads: uploadValidator,
		Files:   upload.NewStore(cfg.Upload.Dir),
	})

	router := api.NewRouter(cfg, gate, handlers)
	server := api.NewServer(cfg, router.Handler())

	// Supervision tree: the HTTP server plus the periodic maintenance jobs.
	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	tree.AddAPIService(server)
	tree.AddMaintenanceService(services.NewSweeper("session-sweeper", cfg.Session.SweepInterval, manager.Sweep))
	tree.AddMaintenanceService(services.NewSweeper("captcha-sweeper", cfg.Captcha.SweepInterval, engine.Sweep))
	tree.AddMaintenanceService(services.NewSweeper("nonce-sweeper", cfg.Credential.NonceSweepInterval, nonces.Sweep))
	tree.AddMaintenanceService(services.NewSweeper("lockout-purger", cfg.Lockout.SweepInterval, tracker.Purge))
	tree.AddMaintenanceService(services.NewTask("audit-rotation", cfg.Audit.RotateCheckInterval, func(ctx context.Context) error {
		return auditLogger.RotateIfNeeded()
	}))
	tree.AddMaintenanceService(services.NewTask("audit-report", cfg.Audit.ReportInterval, func(ctx context.Context) error {
		path, err := auditLogger.WriteReport(cfg.Audit.ReportInterval)
		if err != nil {
			return err
		}
		logging.Info().Str("path", path).Msg("Audit summary report written")
		return nil
	}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().Int("port", cfg.Server.Port).Msg("Supervisor tree starting")
	if err := tree.Serve(ctx); err != nil && ctx.Err() == nil {
		logging.Error().Err(err).Msg("Supervisor tree exited with error")
		os.Exit(1)
	}

	if report, err := tree.UnstoppedServiceReport(); err == nil && len(report) > 0 {
		for _, svc := range report {
			logging.Warn().Str("service", svc.Name).Msg("Service did not stop in time")
		}
	}
	logging.Info().Msg("Shutdown complete")
}
