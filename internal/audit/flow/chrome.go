package flow

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/sirupsen/logrus"
)

const defaultStepTimeout = 30 * time.Second

// ChromeConfig configures headless Chrome sessions.
type ChromeConfig struct {
	// ExecPath overrides Chrome auto-detection.
	ExecPath string
	// Headful shows the browser window.
	Headful bool
	// StepTimeout bounds each browser action.
	StepTimeout time.Duration
}

type chromeFactory struct {
	cfg ChromeConfig
	log logrus.FieldLogger
}

// NewChromeSessionFactory returns a SessionFactory that launches a separate
// Chrome process per session.
func NewChromeSessionFactory(log logrus.FieldLogger, cfg ChromeConfig) SessionFactory {
	if cfg.StepTimeout <= 0 {
		cfg.StepTimeout = defaultStepTimeout
	}

	return &chromeFactory{
		cfg: cfg,
		log: log.WithField("component", "chrome_sessions"),
	}
}

func (f *chromeFactory) NewSession(ctx context.Context) (Session, error) {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	if f.cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(f.cfg.ExecPath))
	}

	if f.cfg.Headful {
		opts = append(opts, chromedp.Flag("headless", false))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)

	// Running with no actions starts the browser.
	if err := chromedp.Run(tabCtx); err != nil {
		cancelTab()
		cancelAlloc()

		return nil, fmt.Errorf("starting chrome: %w", err)
	}

	f.log.Debug("browser session started")

	return &chromeSession{
		ctx:         tabCtx,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
		timeout:     f.cfg.StepTimeout,
		log:         f.log,
	}, nil
}

type chromeSession struct {
	ctx         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
	timeout     time.Duration
	log         logrus.FieldLogger
}

// run executes actions on the tab, bounded by the step timeout and the caller's ctx.
func (s *chromeSession) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

func (s *chromeSession) Navigate(ctx context.Context, url string) error {
	return s.run(ctx, chromedp.Navigate(url))
}

func (s *chromeSession) Click(ctx context.Context, selector string) error {
	return s.run(ctx, chromedp.Click(selector, chromedp.ByQuery))
}

func (s *chromeSession) Type(ctx context.Context, selector, text string) error {
	return s.run(ctx, chromedp.SendKeys(selector, text, chromedp.ByQuery))
}

func (s *chromeSession) WaitVisible(ctx context.Context, selector string) error {
	return s.run(ctx, chromedp.WaitVisible(selector, chromedp.ByQuery))
}

func (s *chromeSession) Text(ctx context.Context, selector string) (string, error) {
	var text string
	err := s.run(ctx, chromedp.Text(selector, &text, chromedp.ByQuery, chromedp.NodeVisible))

	return text, err
}

func (s *chromeSession) Title(ctx context.Context) (string, error) {
	var title string
	err := s.run(ctx, chromedp.Title(&title))

	return title, err
}

func (s *chromeSession) Location(ctx context.Context) (string, error) {
	var location string
	err := s.run(ctx, chromedp.Location(&location))

	return location, err
}

func (s *chromeSession) Close() error {
	s.cancelTab()
	s.cancelAlloc()
	s.log.Debug("browser session closed")

	return nil
}

// Compile-time interface compliance checks
var (
	_ SessionFactory = (*chromeFactory)(nil)
	_ Session        = (*chromeSession)(nil)
)
