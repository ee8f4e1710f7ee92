package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/aristath/tradeadvisor/internal/clients/alpaca"
	"github.com/aristath/tradeadvisor/internal/clients/paper"
	"github.com/aristath/tradeadvisor/internal/clients/yahoo"
	"github.com/aristath/tradeadvisor/internal/config"
	"github.com/aristath/tradeadvisor/internal/database"
	"github.com/aristath/tradeadvisor/internal/domain"
	"github.com/aristath/tradeadvisor/internal/modules/advisor"
	"github.com/aristath/tradeadvisor/internal/modules/features"
	"github.com/aristath/tradeadvisor/internal/modules/journal"
	"github.com/aristath/tradeadvisor/internal/modules/scoring"
	"github.com/aristath/tradeadvisor/pkg/logger"
)

// app holds the wired collaborators shared by every command
type app struct {
	cfg       *config.Config
	log       zerolog.Logger
	gateway   domain.BrokerGateway
	advisor   *advisor.Service
	journalDB *database.DB
	journal   *journal.Repository
}

// newApp loads configuration, authenticates with the broker and opens the
// journal when enabled
func newApp(configPath string, paperMode bool) (*app, error) {
	if paperMode {
		// Must be set before Load so Validate skips the credential check
		if err := os.Setenv("PAPER_MODE", "true"); err != nil {
			return nil, fmt.Errorf("failed to enable paper mode: %w", err)
		}
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	logger.SetGlobalLogger(log)

	a := &app{cfg: cfg, log: log}

	a.gateway, err = buildGateway(cfg, log)
	if err != nil {
		return nil, err
	}

	a.advisor = advisor.NewService(
		a.gateway,
		features.NewExtractor(features.DefaultConfig()),
		scoring.NewScorer(cfg.SignalThreshold),
		cfg.HistoryWindow(),
		log,
	)

	if cfg.JournalEnabled {
		if err := a.openJournal(); err != nil {
			return nil, err
		}
	}

	return a, nil
}

func buildGateway(cfg *config.Config, log zerolog.Logger) (domain.BrokerGateway, error) {
	if cfg.PaperMode {
		path := cfg.PaperAccountFile
		if !filepath.IsAbs(path) {
			path = filepath.Join(cfg.DataDir, path)
		}
		account, err := paper.LoadAccount(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load paper account: %w", err)
		}
		log.Info().Str("account_file", path).Msg("Using paper broker")
		return paper.NewGateway(account, log), nil
	}

	session, err := alpaca.NewSession(alpaca.Credentials{
		APIKey:    cfg.AlpacaAPIKey,
		APISecret: cfg.AlpacaSecretKey,
		BaseURL:   cfg.AlpacaBaseURL,
		DataFeed:  cfg.AlpacaDataFeed,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate with broker: %w", err)
	}

	var opts []alpaca.Option
	if cfg.HistorySource == config.HistorySourceYahoo {
		opts = append(opts, alpaca.WithHistorySource(yahoo.NewClient("", log)))
	}
	return alpaca.NewGateway(session, log, opts...), nil
}

func (a *app) openJournal() error {
	db, err := database.New(database.Config{
		Path:    a.cfg.JournalPath(),
		Profile: database.ProfileJournal,
		Name:    "journal",
	})
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	if err := db.Migrate(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to migrate journal: %w", err)
	}
	a.journalDB = db
	a.journal = journal.NewRepository(db.Conn(), a.log)
	return nil
}

func (a *app) Close() {
	if a.journalDB != nil {
		if err := a.journalDB.Close(); err != nil {
			a.log.Warn().Err(err).Msg("Failed to close journal")
		}
	}
}
