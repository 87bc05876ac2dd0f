package classifier

import (
	"context"
	"fmt"
	"strings"
	"time"

	"clockwise.service/internal/core"
	"clockwise.service/internal/core/model"
)

var _ core.Classifier = (*RuleClassifier)(nil)

const (
	TypeShortShift  = "Short Shift"
	TypeLongShift   = "Long Shift"
	TypeLateStart   = "Late Start"
	TypeEarlyFinish = "Early Finish"
)

// Policy holds the thresholds of a standard 9-to-5 workday.
type Policy struct {
	MinShift time.Duration
	MaxShift time.Duration
	// LatestStart and EarliestFinish are offsets from local midnight.
	LatestStart    time.Duration
	EarliestFinish time.Duration
	Location       *time.Location
}

// DefaultPolicy is an 8 hour shift tolerated between 6 and 9 hours, starting
// no later than 09:30 and finishing no earlier than 17:00.
func DefaultPolicy() Policy {
	return Policy{
		MinShift:       6 * time.Hour,
		MaxShift:       9 * time.Hour,
		LatestStart:    9*time.Hour + 30*time.Minute,
		EarliestFinish: 17 * time.Hour,
		Location:       time.UTC,
	}
}

// RuleClassifier is the deterministic classifier. It needs no network and
// backs tests and deployments without a model key.
type RuleClassifier struct {
	policy Policy
}

// NewRuleClassifier creates a rule classifier; a nil location means UTC.
func NewRuleClassifier(policy Policy) *RuleClassifier {
	if policy.Location == nil {
		policy.Location = time.UTC
	}
	return &RuleClassifier{policy: policy}
}

type finding struct {
	anomalyType string
	reason      string
}

// Classify applies the rules in precedence order: duration first, then start
// time, then finish time. Every rule that fires makes the shift anomalous; the
// first one names it.
func (c *RuleClassifier) Classify(ctx context.Context, shift model.ShiftInput) (model.AnomalyVerdict, error) {
	if err := ctx.Err(); err != nil {
		return model.AnomalyVerdict{}, err
	}

	findings := c.evaluate(shift)
	hours := shift.Duration().Hours()

	if len(findings) == 0 {
		return model.AnomalyVerdict{
			IsAnomaly: false,
			Explanation: fmt.Sprintf("Shift lasted %.1f hours and stayed within the %s start and %s finish window, so it is a normal shift.",
				hours, clockLabel(c.policy.LatestStart), clockLabel(c.policy.EarliestFinish)),
		}, nil
	}

	primary := findings[0]
	explanation := primary.reason
	if len(findings) > 1 {
		others := make([]string, 0, len(findings)-1)
		for _, f := range findings[1:] {
			others = append(others, f.anomalyType)
		}
		explanation += fmt.Sprintf(" (also flagged: %s)", strings.Join(others, ", "))
	}

	return model.AnomalyVerdict{
		IsAnomaly:   true,
		AnomalyType: primary.anomalyType,
		Explanation: explanation + ".",
	}, nil
}

func (c *RuleClassifier) evaluate(shift model.ShiftInput) []finding {
	var findings []finding
	duration := shift.Duration()
	hours := duration.Hours()

	switch {
	case duration < c.policy.MinShift:
		findings = append(findings, finding{
			anomalyType: TypeShortShift,
			reason: fmt.Sprintf("Shift lasted only %.1f hours, which is shorter than the %s minimum",
				hours, hoursLabel(c.policy.MinShift)),
		})
	case duration > c.policy.MaxShift:
		findings = append(findings, finding{
			anomalyType: TypeLongShift,
			reason: fmt.Sprintf("Shift lasted %.1f hours, which is longer than the %s maximum",
				hours, hoursLabel(c.policy.MaxShift)),
		})
	}

	clockIn := shift.ClockInTime.In(c.policy.Location)
	if sinceMidnight(clockIn) > c.policy.LatestStart {
		findings = append(findings, finding{
			anomalyType: TypeLateStart,
			reason: fmt.Sprintf("Clock-in at %s is later than the %s start",
				clockIn.Format("15:04"), clockLabel(c.policy.LatestStart)),
		})
	}

	clockOut := shift.ClockOutTime.In(c.policy.Location)
	if sinceMidnight(clockOut) < c.policy.EarliestFinish {
		findings = append(findings, finding{
			anomalyType: TypeEarlyFinish,
			reason: fmt.Sprintf("Clock-out at %s is earlier than the %s finish",
				clockOut.Format("15:04"), clockLabel(c.policy.EarliestFinish)),
		})
	}

	return findings
}

func sinceMidnight(t time.Time) time.Duration {
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second +
		time.Duration(t.Nanosecond())
}

func clockLabel(offset time.Duration) string {
	return fmt.Sprintf("%02d:%02d", int(offset.Hours()), int(offset.Minutes())%60)
}

func hoursLabel(d time.Duration) string {
	return fmt.Sprintf("%g-hour", d.Hours())
}
