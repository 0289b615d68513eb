// Package acquire runs the per-parcel acquisition: session, adapter steps,
// classification, normalization and assembly, under one retry policy.
package acquire

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/law-makers/taxcert/internal/browser"
	"github.com/law-makers/taxcert/internal/reqctx"
	"github.com/law-makers/taxcert/internal/retry"
	"github.com/law-makers/taxcert/internal/taxes"
	"github.com/law-makers/taxcert/pkg/models"
)

// Pipeline is safe for concurrent use; it holds no per-request state.
type Pipeline struct {
	provider browser.Provider
	retry    retry.Config
	now      func() time.Time
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithClock fixes the processed date, for tests.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// New creates a pipeline acquiring sessions from provider.
func New(provider browser.Provider, cfg retry.Config, opts ...Option) *Pipeline {
	p := &Pipeline{provider: provider, retry: cfg, now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run acquires one parcel. Every attempt uses a fresh session that is
// released before the attempt returns. When every attempt fails, Run returns
// a degraded record together with the error, so callers can choose to render
// the record or report the error.
func (p *Pipeline) Run(ctx context.Context, a Adapter, account string) (models.ParcelTaxRecord, error) {
	j := a.Jurisdiction()
	ctx = reqctx.WithRequestContext(ctx, j.ID(), account)
	logger := reqctx.Logger(ctx, log.Logger)

	var rec models.ParcelTaxRecord
	attempts := 0
	err := retry.WithRetry(ctx, p.retry, func(attempt int) error {
		attempts = attempt
		r, err := p.attempt(ctx, logger.With().Int("attempt", attempt).Logger(), a, account)
		if err != nil {
			return classify(err)
		}
		rec = r
		return nil
	})

	if err != nil {
		logger.Error().Err(err).Int("attempts", attempts).Msg("Acquisition failed")
		degraded := taxes.Degraded(account, j.TaxingAuthority, attempts, reason(err), p.now())
		return degraded, reqctx.NewRequestError(ctx, err)
	}

	logger.Info().
		Str("delinquent", string(rec.Delinquent)).
		Int("history", len(rec.TaxHistory)).
		Dur("elapsed", reqctx.GetRequestContext(ctx).Elapsed()).
		Msg("Acquisition completed")
	return rec, nil
}

func (p *Pipeline) attempt(ctx context.Context, logger zerolog.Logger, a Adapter, account string) (models.ParcelTaxRecord, error) {
	j := a.Jurisdiction()

	session, err := p.provider.Acquire(ctx, j.Profile)
	if err != nil {
		return models.ParcelTaxRecord{}, err
	}
	defer p.provider.Release(session)

	logger.Debug().Msg("Locating parcel")
	located, err := a.Locate(ctx, session, account)
	if err != nil {
		return models.ParcelTaxRecord{}, err
	}

	switch located {
	case NotFound:
		logger.Info().Msg("Parcel not found")
		return taxes.NotFound(account, j.TaxingAuthority, p.now()), nil
	case NoTaxHistory:
		logger.Info().Msg("Parcel has no tax history")
		return p.noTaxHistory(ctx, logger, a, session, account), nil
	}

	status, err := a.Classify(ctx, session)
	if err != nil {
		return models.ParcelTaxRecord{}, err
	}
	logger.Debug().Str("status", string(status)).Msg("Parcel classified")
	if status == taxes.StatusNoTaxHistory {
		return p.noTaxHistory(ctx, logger, a, session, account), nil
	}

	valuation, err := a.ExtractValuation(ctx, session)
	if err != nil {
		return models.ParcelTaxRecord{}, err
	}

	ledger, err := a.ExtractHistory(ctx, session, status)
	if err != nil {
		return models.ParcelTaxRecord{}, err
	}

	latest, _ := ledger.Latest()
	return taxes.Assemble(taxes.Assembly{
		Account:         account,
		TaxingAuthority: j.TaxingAuthority,
		Calendar:        j.Calendar,
		Status:          status,
		Year:            latest.Year,
		Valuation:       valuation,
		History:         taxes.Normalize(status, ledger, j.Calendar, j.Matcher),
		Now:             p.now(),
	}), nil
}

// noTaxHistory still reports the parcel's valuation when the page has it.
func (p *Pipeline) noTaxHistory(ctx context.Context, logger zerolog.Logger, a Adapter, page browser.Page, account string) models.ParcelTaxRecord {
	j := a.Jurisdiction()
	valuation, err := a.ExtractValuation(ctx, page)
	if err != nil {
		logger.Debug().Err(err).Msg("No valuation available for parcel without tax history")
		valuation = taxes.Valuation{}
	}
	return taxes.Assemble(taxes.Assembly{
		Account:         account,
		TaxingAuthority: j.TaxingAuthority,
		Calendar:        j.Calendar,
		Status:          taxes.StatusNoTaxHistory,
		Valuation:       valuation,
		Now:             p.now(),
	})
}

func reason(err error) string {
	var exhausted *retry.ExhaustedError
	if errors.As(err, &exhausted) {
		err = exhausted.Last
	}
	var ae *Error
	if errors.As(err, &ae) {
		if ae.Underlying != nil {
			return ae.Message + ": " + ae.Underlying.Error()
		}
		return ae.Message
	}
	return err.Error()
}
