// Package scrape implements the navigation-and-extraction pipeline: address
// selection, category pagination, per-card extraction, all under a uniform
// fault-containment policy.
package scrape

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenozavr/okey-delivery-scraper/internal/driver"
	"github.com/cenozavr/okey-delivery-scraper/internal/metrics"
	"github.com/cenozavr/okey-delivery-scraper/internal/models"
	"github.com/cenozavr/okey-delivery-scraper/internal/parser"
)

// Config carries the run parameters for one pipeline execution.
type Config struct {
	BaseURL    string
	Address    string
	Categories []string
	Pages      int

	// FindTimeout bounds generic presence waits; AddressTimeout bounds the
	// clickability waits of the address flow.
	FindTimeout    time.Duration
	AddressTimeout time.Duration
	// SettleTimeout bounds the condition waits that replace the fixed
	// settle delays around hover-rendered panels.
	SettleTimeout time.Duration
	// PageDelay is the pause between pages. There is no observable
	// page-settled signal, so this stays a plain delay.
	PageDelay time.Duration
}

// Scraper owns one session for one sequential run.
type Scraper struct {
	session driver.Session
	cfg     Config
	logger  *slog.Logger
	metrics *metrics.Metrics
	parser  *parser.CardParser
}

// New builds a scraper around an already-created session.
func New(session driver.Session, cfg Config, logger *slog.Logger, m *metrics.Metrics) *Scraper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scraper{
		session: session,
		cfg:     cfg,
		logger:  logger.With("component", "scrape"),
		metrics: m,
		parser:  parser.New(cfg.BaseURL, logger),
	}
}

// Run executes the full pipeline: address selection, then every configured
// category. The session is closed exactly once on every exit path. Records
// accumulated before a fatal fault are returned alongside the error.
func (s *Scraper) Run(ctx context.Context) (records []*models.ProductRecord, err error) {
	defer func() {
		if closeErr := AttemptDo(s.logger, s.metrics, "session.close", s.session.Close); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	confirmed, err := s.SelectAddress(ctx)
	if err != nil {
		return nil, err
	}
	if !confirmed {
		// Extraction without a confirmed address is best-effort: the site
		// may serve a default assortment.
		s.logger.Warn("address not confirmed, extraction is best-effort")
	}

	return s.CollectProducts(ctx)
}

func (s *Scraper) navigateRoot(ctx context.Context) error {
	return AttemptDo(s.logger, s.metrics, "navigate", func() error {
		return s.session.Navigate(ctx, s.cfg.BaseURL)
	})
}

// clickFound resolves a locator within the timeout and clicks it, as one
// contained step. It reports whether the click happened.
func (s *Scraper) clickFound(ctx context.Context, step string, loc driver.Locator, timeout time.Duration) (bool, error) {
	return Attempt(s.logger, s.metrics, step, func() (bool, error) {
		el, err := s.session.Find(ctx, loc, timeout)
		if err != nil {
			return false, err
		}
		if err := el.Click(); err != nil {
			return false, err
		}
		return true, nil
	})
}
