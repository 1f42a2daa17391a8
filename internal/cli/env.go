package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/pwm/internal/config"
	"github.com/roach88/pwm/internal/manager"
	"github.com/roach88/pwm/internal/record"
)

// loadConfig resolves the config path from the flags and loads it.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	path := opts.ConfigPath
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	slog.Debug("loading config", "path", path)
	return config.Load(path)
}

// openStore loads the config and opens the store it names. A store that has
// not been initialised yields an Unbootstrapped manager, so record
// operations on it fail with manager.ErrNotReady.
func openStore(ctx context.Context, opts *RootOptions, formatter *OutputFormatter) (*config.Config, *manager.Manager, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, nil, formatter.FailWith(ErrCodeConfig, ExitCommandError, err)
	}

	formatter.VerboseLog("Opening store %s", cfg.Database)
	m, err := manager.Open(ctx, cfg.Database)
	if err != nil {
		return nil, nil, formatter.Fail(err)
	}
	return cfg, m, nil
}

// closeStore releases the manager, logging any failure.
func closeStore(m *manager.Manager) {
	if err := m.Close(); err != nil {
		slog.Error("error closing store", "error", err)
	}
}

// recordView is the JSON shape of a record in command output. The salt is
// never included.
type recordView struct {
	Name      string  `json:"name"`
	Username  string  `json:"username,omitempty"`
	Alphabet  string  `json:"alphabet"`
	KeyLength int     `json:"key_length"`
	Entropy   float64 `json:"entropy_bits"`
	Key       string  `json:"key,omitempty"`
}

func (v recordView) String() string {
	if v.Username == "" {
		return v.Name
	}
	return fmt.Sprintf("%s (%s)", v.Name, v.Username)
}

func newRecordView(r *record.Record, key string) recordView {
	return recordView{
		Name:      r.Name,
		Username:  r.Username,
		Alphabet:  r.Alphabet,
		KeyLength: r.KeyLength,
		Entropy:   r.Entropy(),
		Key:       key,
	}
}
