package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"signal-backend/internal/domain"
)

// RunState is the terminal state of one pipeline invocation.
type RunState string

const (
	StateDone     RunState = "done"
	StateDegraded RunState = "done_with_degraded_phase"
	StateFailed   RunState = "failed"
)

// Phase names used in RunReport.Degraded.
const (
	PhaseResolveSettings  = "resolve_settings"
	PhasePersistSignal    = "persist_signal"
	PhaseDetectTransition = "detect_transition"
	PhaseTrade            = "trade"
	PhaseRecordTrade      = "record_trade"
	PhaseNotify           = "notify"
)

// RunReport summarises one invocation.
type RunReport struct {
	RunID        string                    `json:"runId"`
	StartedAt    time.Time                 `json:"startedAt"`
	Duration     time.Duration             `json:"duration"`
	State        RunState                  `json:"state"`
	Settings     domain.Settings           `json:"settings"`
	Signal       *domain.Signal            `json:"signal,omitempty"`
	Previous     *domain.Signal            `json:"previous,omitempty"`
	Transitioned bool                      `json:"transitioned"`
	Trade        *domain.TradeRecord       `json:"trade,omitempty"`
	FailedTrade  *domain.FailedTradeRecord `json:"failedTrade,omitempty"`
	TradeSkipped string                    `json:"tradeSkipped,omitempty"`
	Notified     bool                      `json:"notified"`
	Degraded     []string                  `json:"degraded,omitempty"`
}

func (r *RunReport) degrade(phase string) {
	r.Degraded = append(r.Degraded, phase)
	r.State = StateDegraded
}

// PipelineConfig holds the knobs that are not part of the settings document.
type PipelineConfig struct {
	PriceLookback time.Duration
	CallTimeout   time.Duration
}

// Pipeline runs one signal evaluation end to end: settings, signal,
// transition, trade and notification.
type Pipeline struct {
	cfg      PipelineConfig
	settings *SettingsResolver
	prices   domain.PriceRepository
	signals  domain.SignalRepository
	trades   domain.TradeRepository
	executor *TradeExecutor
	notifier *NotificationDispatcher
	log      log.FieldLogger
	now      func() time.Time
	newRunID func() string
}

func NewPipeline(
	cfg PipelineConfig,
	settings *SettingsResolver,
	prices domain.PriceRepository,
	signals domain.SignalRepository,
	trades domain.TradeRepository,
	executor *TradeExecutor,
	notifier *NotificationDispatcher,
	logger log.FieldLogger,
) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		settings: settings,
		prices:   prices,
		signals:  signals,
		trades:   trades,
		executor: executor,
		notifier: notifier,
		log:      logger,
		now:      time.Now,
		newRunID: uuid.NewString,
	}
}

// Run executes one invocation. The returned error is non-nil only when the
// run failed before a signal could be computed; degraded phases are reported
// in the RunReport.
func (p *Pipeline) Run(ctx context.Context) (*RunReport, error) {
	report := &RunReport{
		RunID:     p.newRunID(),
		StartedAt: p.now().UTC(),
		State:     StateDone,
	}
	logger := p.log.WithField("run_id", report.RunID)
	defer func() {
		report.Duration = p.now().Sub(report.StartedAt)
	}()

	settings, err := p.settings.Resolve(ctx)
	if err != nil {
		var cfgErr *domain.ConfigurationError
		if errors.As(err, &cfgErr) {
			logger.WithError(err).Warn("invalid settings, using defaults")
			settings = DefaultSettings()
		}
		report.degrade(PhaseResolveSettings)
	}
	report.Settings = settings

	samples, err := p.readPrices(ctx, settings)
	if err != nil {
		report.State = StateFailed
		logger.WithError(err).Error("price read failed")
		return report, err
	}

	signal := ComputeSignal(samples, settings, p.now())
	report.Signal = &signal

	if err := p.persistSignal(ctx, &signal); err != nil {
		logger.WithError(err).Error("signal not persisted, skipping transition")
		report.degrade(PhasePersistSignal)
		return report, nil
	}
	logger = logger.WithField("signal_id", signal.ID)
	logger.WithFields(log.Fields{
		"type":       signal.Type,
		"price":      signal.Price.String(),
		"confidence": signal.Confidence.String(),
	}).Info("signal computed")

	previous, err := p.previousSignal(ctx, &signal)
	if err != nil {
		logger.WithError(err).Error("previous signal read failed, skipping trade")
		report.degrade(PhaseDetectTransition)
		return report, nil
	}
	tr := DetectTransition(previous, &signal)
	report.Previous = previous
	report.Transitioned = tr.Transitioned
	if tr.Transitioned {
		logger.WithField("from", previous.Type).Info("signal transition")
	}

	p.trade(ctx, logger, settings, tr, report)
	p.notify(ctx, logger, settings, tr, report)

	logger.WithField("state", report.State).Debug("run finished")
	return report, nil
}

// RunEvery runs the pipeline immediately and then on every tick until ctx is
// done. Runs never overlap.
func (p *Pipeline) RunEvery(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := p.Run(ctx); err != nil {
			p.log.WithError(err).Warn("run failed")
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (p *Pipeline) readPrices(ctx context.Context, settings domain.Settings) ([]domain.PriceSample, error) {
	lookback := p.cfg.PriceLookback
	if window := time.Duration(settings.LongPeriod+1) * time.Minute; lookback < window {
		lookback = window
	}
	ctx, cancel := context.WithTimeout(ctx, p.cfg.CallTimeout)
	defer cancel()

	samples, err := p.prices.Since(ctx, p.now().Add(-lookback))
	if err != nil {
		return nil, &domain.PersistenceError{Op: "read prices", Err: err}
	}
	return samples, nil
}

func (p *Pipeline) persistSignal(ctx context.Context, signal *domain.Signal) error {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.CallTimeout)
	defer cancel()
	if err := p.signals.Create(ctx, signal); err != nil {
		return &domain.PersistenceError{Op: "create signal", Err: err}
	}
	return nil
}

func (p *Pipeline) previousSignal(ctx context.Context, signal *domain.Signal) (*domain.Signal, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.CallTimeout)
	defer cancel()
	return p.signals.Previous(ctx, signal)
}

func (p *Pipeline) trade(ctx context.Context, logger log.FieldLogger, settings domain.Settings, tr Transition, report *RunReport) {
	if p.executor == nil {
		return
	}
	var outcome *TradeOutcome
	err := guard(func() error {
		var err error
		outcome, err = p.executor.Execute(ctx, settings, tr)
		return err
	})
	if err != nil {
		logger.WithError(err).Warn("trade skipped")
		report.degrade(PhaseTrade)
		return
	}
	if outcome == nil {
		return
	}
	report.TradeSkipped = outcome.SkipReason

	storeCtx, cancel := context.WithTimeout(ctx, p.cfg.CallTimeout)
	defer cancel()
	switch {
	case outcome.Trade != nil:
		report.Trade = outcome.Trade
		err = p.trades.CreateTrade(storeCtx, outcome.Trade)
	case outcome.Failed != nil:
		report.FailedTrade = outcome.Failed
		err = p.trades.CreateFailedTrade(storeCtx, outcome.Failed)
	}
	if err != nil {
		logger.WithError(err).Error("trade audit record not stored")
		report.degrade(PhaseRecordTrade)
	}
}

func (p *Pipeline) notify(ctx context.Context, logger log.FieldLogger, settings domain.Settings, tr Transition, report *RunReport) {
	if !tr.Transitioned || !tr.Current.Type.Tradable() || !settings.NotificationsEnabled || !p.notifier.Enabled() {
		return
	}
	err := guard(func() error {
		var err error
		report.Notified, err = p.notifier.Dispatch(ctx, tr.Current)
		return err
	})
	if err != nil {
		logger.WithError(err).Warn("notification phase degraded")
		report.degrade(PhaseNotify)
	}
}

// guard turns a panic in fn into an error so one phase cannot abort the run.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}
