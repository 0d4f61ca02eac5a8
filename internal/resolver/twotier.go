package resolver

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// TwoTier runs the rule parser first and falls back to the external
// classifier only when the rules come up empty. The fallback call carries a
// timeout budget; on timeout or error the phrase stays unresolved and the
// engine re-prompts, the session never blocks on the classifier.
type TwoTier struct {
	rules      Strategy
	classifier Classifier
	timeout    time.Duration
	logger     *zap.Logger
}

var _ Strategy = (*TwoTier)(nil)

// NewTwoTier builds the resolution chain. classifier may be nil, leaving
// only the deterministic tier.
func NewTwoTier(classifier Classifier, timeout time.Duration, logger *zap.Logger) *TwoTier {
	return &TwoTier{
		rules:      Rules{},
		classifier: classifier,
		timeout:    timeout,
		logger:     logger,
	}
}

func (t *TwoTier) Resolve(ctx context.Context, phrase string, today time.Time) Resolution {
	if r := t.rules.Resolve(ctx, phrase, today); r.Kind != KindUnresolved {
		return r
	}

	if t.classifier == nil {
		return Unresolved
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	r, err := t.classifier.ClassifyPeriodOrDate(ctx, phrase, today)
	if err != nil {
		t.logger.Warn("classifier fallback failed, treating phrase as unresolved",
			zap.String("phrase", phrase),
			zap.Error(err))
		return Unresolved
	}

	return r
}
