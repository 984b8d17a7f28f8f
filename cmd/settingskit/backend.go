package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/benaskins/settingskit/internal/audit"
	"github.com/benaskins/settingskit/internal/config"
	"github.com/benaskins/settingskit/internal/credential"
	"github.com/benaskins/settingskit/internal/keychain"
)

// session holds the stores opened for one command.
type session struct {
	cfg     *config.Config
	repo    *credential.Repository
	closers []func() error
}

func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	}
	if serviceName != "" {
		cfg.Service = serviceName
	}
	if accessGroup != "" {
		cfg.AccessGroup = accessGroup
	}
	return cfg, nil
}

// openSession builds the credential repository for the configured backend.
func openSession() (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	s := &session{cfg: cfg}

	items, err := s.openManager()
	if err != nil {
		s.Close()
		return nil, err
	}

	if cfg.AuditLog != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.AuditLog), 0700); err != nil {
			s.Close()
			return nil, fmt.Errorf("creating audit log dir: %w", err)
		}
		auditLog, err := audit.NewLogger(cfg.AuditLog)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.closers = append(s.closers, auditLog.Close)
		items = keychain.NewAuditedManager(items, auditLog, "cli")
	}

	s.repo = credential.New(items, credential.Config{
		Service:     cfg.Service,
		AccessGroup: cfg.AccessGroup,
	})
	slog.Debug("credential repository ready",
		"backend", cfg.Backend,
		"service", s.repo.DefaultScope().Service,
		"access_group", s.repo.DefaultScope().AccessGroup)
	return s, nil
}

func (s *session) openManager() (keychain.Manager, error) {
	switch s.cfg.Backend {
	case config.BackendMemory:
		return keychain.NewMemoryManager(), nil
	case config.BackendSQLite:
		keyService := s.cfg.Service
		if keyService == "" {
			keyService = credential.DefaultService()
		}
		key, err := keychain.KeyringKey(keyService)
		if err != nil {
			return nil, err
		}
		sealer, err := keychain.NewAEADSealer(key)
		if err != nil {
			return nil, err
		}
		if err := os.MkdirAll(filepath.Dir(s.cfg.DatabasePath), 0700); err != nil {
			return nil, fmt.Errorf("creating database dir: %w", err)
		}
		m, err := keychain.OpenSQLite(s.cfg.DatabasePath, sealer)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, m.Close)
		return m, nil
	default:
		return keychain.NewSystemManager(), nil
	}
}

// Close releases everything the session opened, newest first.
func (s *session) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			slog.Warn("closing session resource", "error", err)
		}
	}
	s.closers = nil
}
