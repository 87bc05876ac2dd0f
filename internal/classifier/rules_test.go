package classifier

import (
	"context"
	"testing"
	"time"

	"clockwise.service/internal/core"
	"clockwise.service/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shiftAt(t *testing.T, in, out string) model.ShiftInput {
	t.Helper()
	clockIn, err := time.Parse("2006-01-02T15:04:05", in)
	require.NoError(t, err)
	clockOut, err := time.Parse("2006-01-02T15:04:05", out)
	require.NoError(t, err)
	return model.ShiftInput{EmployeeID: "emp-1", ClockInTime: clockIn, ClockOutTime: clockOut}
}

func TestRuleClassifier_Classify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		in, out     string
		wantAnomaly bool
		wantType    string
	}{
		{"normal day", "2024-07-30T09:01:00", "2024-07-30T17:05:00", false, ""},
		{"short shift wins over early finish", "2024-07-30T08:55:00", "2024-07-30T12:30:00", true, TypeShortShift},
		{"long shift", "2024-07-29T09:00:00", "2024-07-29T21:00:00", true, TypeLongShift},
		{"exactly six hours is not short", "2024-07-30T09:00:00", "2024-07-30T15:00:00", true, TypeEarlyFinish},
		{"exactly nine hours is not long", "2024-07-30T08:30:00", "2024-07-30T17:30:00", false, ""},
		{"late start", "2024-07-30T10:00:00", "2024-07-30T18:00:00", true, TypeLateStart},
		{"start at 09:30 is on time", "2024-07-30T09:30:00", "2024-07-30T17:30:00", false, ""},
		{"early finish", "2024-07-30T08:00:00", "2024-07-30T16:30:00", true, TypeEarlyFinish},
		{"late start wins over early finish", "2024-07-30T09:45:00", "2024-07-30T16:50:00", true, TypeLateStart},
	}

	c := NewRuleClassifier(DefaultPolicy())
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			verdict, err := c.Classify(context.Background(), shiftAt(t, tc.in, tc.out))
			require.NoError(t, err)
			assert.Equal(t, tc.wantAnomaly, verdict.IsAnomaly)
			assert.Equal(t, tc.wantType, verdict.AnomalyType)
			assert.NoError(t, core.ValidateVerdict(verdict), "explanation %q", verdict.Explanation)
		})
	}
}

func TestRuleClassifier_ExplanationMentionsOtherFindings(t *testing.T) {
	t.Parallel()

	c := NewRuleClassifier(DefaultPolicy())
	verdict, err := c.Classify(context.Background(), shiftAt(t, "2024-07-30T08:55:00", "2024-07-30T12:30:00"))
	require.NoError(t, err)

	assert.Contains(t, verdict.Explanation, "3.6 hours")
	assert.Contains(t, verdict.Explanation, "also flagged: Early Finish")
	assert.True(t, core.IsSingleSentence(verdict.Explanation))
}

func TestRuleClassifier_UsesPolicyLocation(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("UTC+2", 2*60*60)
	policy := DefaultPolicy()
	policy.Location = loc
	c := NewRuleClassifier(policy)

	// 07:00-15:00 UTC is 09:00-17:00 at UTC+2.
	verdict, err := c.Classify(context.Background(), shiftAt(t, "2024-07-30T07:00:00", "2024-07-30T15:00:00"))
	require.NoError(t, err)
	assert.False(t, verdict.IsAnomaly)

	utc := NewRuleClassifier(DefaultPolicy())
	verdict, err = utc.Classify(context.Background(), shiftAt(t, "2024-07-30T07:00:00", "2024-07-30T15:00:00"))
	require.NoError(t, err)
	assert.Equal(t, TypeEarlyFinish, verdict.AnomalyType)
}

func TestRuleClassifier_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRuleClassifier(DefaultPolicy()).Classify(ctx, shiftAt(t, "2024-07-30T09:00:00", "2024-07-30T17:00:00"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRuleClassifier_IsDeterministic(t *testing.T) {
	t.Parallel()

	c := NewRuleClassifier(DefaultPolicy())
	shift := shiftAt(t, "2024-07-29T09:00:00", "2024-07-29T21:00:00")

	first, err := c.Classify(context.Background(), shift)
	require.NoError(t, err)
	second, err := c.Classify(context.Background(), shift)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
