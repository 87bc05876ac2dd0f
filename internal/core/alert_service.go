package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// AnomalyAlert is what a supervisor is told about a flagged shift.
type AnomalyAlert struct {
	LogID        string
	EmployeeID   string
	EmployeeName string
	ClockInTime  time.Time
	ClockOutTime *time.Time
	HoursWorked  float64
	AnomalyType  string
	Explanation  string
}

type AlertService interface {
	SendAnomalyAlert(ctx context.Context, alert AnomalyAlert) error
}

// SESClient is the subset of the SES API used for alerts.
type SESClient interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SESAlertService struct {
	client    SESClient
	sender    string
	recipient string
}

func NewSESAlertService(client SESClient, sender, recipient string) *SESAlertService {
	return &SESAlertService{client: client, sender: sender, recipient: recipient}
}

func (s *SESAlertService) SendAnomalyAlert(ctx context.Context, alert AnomalyAlert) error {
	tracer := otel.Tracer("ses-alert-service")
	ctx, span := tracer.Start(ctx, "send_anomaly_alert", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	span.SetAttributes(
		attribute.String("app.employeeId", alert.EmployeeID),
		attribute.String("app.logId", alert.LogID),
	)

	input := &ses.SendEmailInput{
		Source: aws.String(s.sender),
		Destination: &types.Destination{
			ToAddresses: []string{s.recipient},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String(fmt.Sprintf("Clocking anomaly: %s for %s", alert.AnomalyType, alert.EmployeeName)),
			},
			Body: &types.Body{
				Text: &types.Content{
					Data: aws.String(alertBody(alert)),
				},
			},
		},
	}

	_, err := s.client.SendEmail(ctx, input)
	return err
}

func alertBody(alert AnomalyAlert) string {
	var b strings.Builder
	b.WriteString("Hello,\n\nA clocking event was flagged as an anomaly.\n\n")
	fmt.Fprintf(&b, "Employee: %s (%s)\n", alert.EmployeeName, alert.EmployeeID)
	fmt.Fprintf(&b, "Clock-in: %s\n", alert.ClockInTime.UTC().Format(time.RFC1123))
	if alert.ClockOutTime != nil {
		fmt.Fprintf(&b, "Clock-out: %s\n", alert.ClockOutTime.UTC().Format(time.RFC1123))
		fmt.Fprintf(&b, "Hours worked: %.2f\n", alert.HoursWorked)
	}
	fmt.Fprintf(&b, "Anomaly: %s\n", alert.AnomalyType)
	fmt.Fprintf(&b, "Reason: %s\n", alert.Explanation)
	fmt.Fprintf(&b, "\nLog reference: %s\n", alert.LogID)
	return b.String()
}
