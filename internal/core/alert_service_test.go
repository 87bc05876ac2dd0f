package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSES struct {
	input *ses.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.input = params
	return &ses.SendEmailOutput{}, f.err
}

func TestSESAlertService_SendAnomalyAlert(t *testing.T) {
	t.Parallel()

	client := &fakeSES{}
	svc := NewSESAlertService(client, "alerts@clockwise.local", "hr@clockwise.local")
	in := time.Date(2024, 7, 29, 9, 0, 0, 0, time.UTC)
	out := in.Add(12 * time.Hour)

	err := svc.SendAnomalyAlert(context.Background(), AnomalyAlert{
		LogID:        "log-1",
		EmployeeID:   "emp-1",
		EmployeeName: "Ada Lovelace",
		ClockInTime:  in,
		ClockOutTime: &out,
		HoursWorked:  12,
		AnomalyType:  "Long Shift",
		Explanation:  "Worked 12 hours.",
	})
	require.NoError(t, err)

	require.NotNil(t, client.input)
	assert.Equal(t, "alerts@clockwise.local", *client.input.Source)
	assert.Equal(t, []string{"hr@clockwise.local"}, client.input.Destination.ToAddresses)
	assert.Equal(t, "Clocking anomaly: Long Shift for Ada Lovelace", *client.input.Message.Subject.Data)

	body := *client.input.Message.Body.Text.Data
	assert.Contains(t, body, "Hours worked: 12.00")
	assert.Contains(t, body, "Reason: Worked 12 hours.")
	assert.Contains(t, body, "log-1")
}

func TestSESAlertService_PropagatesError(t *testing.T) {
	t.Parallel()

	svc := NewSESAlertService(&fakeSES{err: errors.New("MessageRejected")}, "a@b.c", "d@e.f")
	err := svc.SendAnomalyAlert(context.Background(), AnomalyAlert{LogID: "log-1", ClockInTime: time.Now()})
	assert.ErrorContains(t, err, "MessageRejected")
}
