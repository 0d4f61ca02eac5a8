package resolver

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

// Wednesday.
var ruleToday = time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)

func resolve(t *testing.T, phrase string) Resolution {
	t.Helper()
	return Rules{}.Resolve(context.Background(), phrase, ruleToday)
}

func TestRulesResolveDates(t *testing.T) {
	tests := []struct {
		phrase string
		want   time.Time
	}{
		{"today", ruleToday},
		{"how about tomorrow", ruleToday.AddDate(0, 0, 1)},
		{"monday", time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)},
		{"next friday", time.Date(2025, 1, 17, 0, 0, 0, 0, time.UTC)},
		{"next week monday", time.Date(2025, 1, 27, 0, 0, 0, 0, time.UTC)},
		{"2025-02-03", time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC)},
		{"february 3rd", time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC)},
		{"march 15th please", time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"2/3", time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC)},
		{"2/3/2025", time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC)},
		// Already passed this year: rolls to next year.
		{"january 2nd", time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.phrase, func(t *testing.T) {
			r := resolve(t, tt.phrase)
			require.Equal(t, KindDate, r.Kind)
			assert.Equal(t, tt.want, r.Date)
		})
	}
}

func TestRulesResolvePeriods(t *testing.T) {
	r := resolve(t, "sometime next week")
	require.Equal(t, KindPeriod, r.Kind)
	assert.Equal(t, time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC), r.Period.Start)
	assert.Equal(t, time.Date(2025, 1, 24, 0, 0, 0, 0, time.UTC), r.Period.End)

	r = resolve(t, "next month")
	require.Equal(t, KindPeriod, r.Kind)
	assert.Equal(t, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), r.Period.Start)
	assert.Equal(t, time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC), r.Period.End)
}

func TestRulesResolveClocks(t *testing.T) {
	tests := []struct {
		phrase string
		hour   int
		minute int
	}{
		{"2pm", 14, 0},
		{"2:30 pm", 14, 30},
		{"9 am", 9, 0},
		{"12 pm", 12, 0},
		{"12 am", 0, 0},
		{"14:30", 14, 30},
		{"2 o'clock", 14, 0},
		{"9 oclock", 9, 0},
	}

	for _, tt := range tests {
		t.Run(tt.phrase, func(t *testing.T) {
			r := resolve(t, tt.phrase)
			require.Equal(t, KindClock, r.Kind)
			assert.Equal(t, tt.hour, r.Hour)
			assert.Equal(t, tt.minute, r.Minute)
		})
	}
}

func TestRulesResolveBuckets(t *testing.T) {
	tests := []struct {
		phrase string
		want   TimeBucket
	}{
		{"sometime in the morning", BucketMorning},
		{"afternoon works", BucketAfternoon},
		{"in the evening", BucketEvening},
		{"anytime is fine", BucketAny},
		{"whenever", BucketAny},
		{"whenever works", BucketAny},
	}

	for _, tt := range tests {
		t.Run(tt.phrase, func(t *testing.T) {
			r := resolve(t, tt.phrase)
			require.Equal(t, KindBucket, r.Kind)
			assert.Equal(t, tt.want, r.Bucket)
		})
	}
}

func TestRulesUnresolved(t *testing.T) {
	for _, phrase := range []string{
		"",
		"whenever the stars align favourably",
		"anytime after my internship interview wraps up",
		"maybe",         // must not match the month "may"
		"february 30th", // impossible date
		"25:99",
	} {
		t.Run(phrase, func(t *testing.T) {
			assert.Equal(t, KindUnresolved, resolve(t, phrase).Kind)
		})
	}
}

func TestValidateDate(t *testing.T) {
	tests := []struct {
		name       string
		date       time.Time
		constraint string
	}{
		{"weekday in range", time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC), ""},
		{"today is fine", ruleToday, ""},
		{"yesterday", ruleToday.AddDate(0, 0, -1), "date is in the past"},
		{"saturday", time.Date(2025, 1, 18, 0, 0, 0, 0, time.UTC), "advising is not available on weekends"},
		{"sunday", time.Date(2025, 1, 19, 0, 0, 0, 0, time.UTC), "advising is not available on weekends"},
		// Monday 2025-02-17; a weekday, so only the horizon can reject it.
		{"beyond horizon", ruleToday.AddDate(0, 0, 33), "date is more than 30 days out"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDate(tt.date, ruleToday)
			if tt.constraint == "" {
				assert.Nil(t, err)
				return
			}
			require.NotNil(t, err)
			assert.Equal(t, tt.constraint, err.Constraint)
		})
	}
}

type stubClassifier struct {
	res   Resolution
	err   error
	calls int
}

func (s *stubClassifier) ClassifyPeriodOrDate(_ context.Context, _ string, _ time.Time) (Resolution, error) {
	s.calls++
	return s.res, s.err
}

func TestTwoTierPrefersRules(t *testing.T) {
	stub := &stubClassifier{res: Resolution{Kind: KindDate, Date: ruleToday}}
	tt := NewTwoTier(stub, time.Second, testLogger())

	r := tt.Resolve(context.Background(), "tomorrow", ruleToday)

	assert.Equal(t, KindDate, r.Kind)
	assert.Equal(t, ruleToday.AddDate(0, 0, 1), r.Date)
	assert.Zero(t, stub.calls, "classifier must not run when rules resolve")
}

func TestTwoTierFallsBack(t *testing.T) {
	want := time.Date(2025, 1, 24, 0, 0, 0, 0, time.UTC)
	stub := &stubClassifier{res: Resolution{Kind: KindDate, Date: want}}
	tt := NewTwoTier(stub, time.Second, testLogger())

	r := tt.Resolve(context.Background(), "the day after my exam", ruleToday)

	require.Equal(t, 1, stub.calls)
	assert.Equal(t, KindDate, r.Kind)
	assert.Equal(t, want, r.Date)
}

func TestTwoTierClassifierErrorMeansUnresolved(t *testing.T) {
	stub := &stubClassifier{err: context.DeadlineExceeded}
	tt := NewTwoTier(stub, time.Millisecond, testLogger())

	r := tt.Resolve(context.Background(), "gibberish phrase", ruleToday)

	assert.Equal(t, KindUnresolved, r.Kind)
}

func TestTwoTierNilClassifier(t *testing.T) {
	tt := NewTwoTier(nil, time.Second, testLogger())

	r := tt.Resolve(context.Background(), "gibberish phrase", ruleToday)

	assert.Equal(t, KindUnresolved, r.Kind)
}
