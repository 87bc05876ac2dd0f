package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"clockwise.service/internal/core"
	"clockwise.service/internal/core/model"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/genai"
)

var _ core.Classifier = (*GeminiClassifier)(nil)

const DefaultGeminiModel = "gemini-2.0-flash"

const systemPrompt = `You review employee clocking data for a company where a standard shift is 8 hours on a 9-to-5 schedule.

Decide whether a single clock-in/clock-out pair is an anomaly using these rules:
- A shift shorter than 6 hours is a "Short Shift" anomaly.
- A shift longer than 9 hours is a "Long Shift" anomaly.
- Clocking in after 09:30 local time is a "Late Start" anomaly.
- Clocking out before 17:00 local time is an "Early Finish" anomaly.
- When several rules apply, name the duration anomaly first, then Late Start, then Early Finish.

Answer with JSON only:
- isAnomaly: true when any rule applies.
- anomalyType: only when isAnomaly is true, a 2-3 word category such as "Short Shift".
- explanation: exactly one sentence explaining the decision; for a normal shift say it is a normal shift.`

// ContentGenerator is the subset of genai.Models used by the classifier.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiClassifier asks a hosted Gemini model for a verdict and validates the
// answer against a strict schema. Calls go through a circuit breaker so a
// failing backend is not hammered by every submission.
type GeminiClassifier struct {
	generator ContentGenerator
	model     string
	location  *time.Location
	cb        *gobreaker.CircuitBreaker
}

// NewGeminiClient creates the genai client for the Gemini API backend.
func NewGeminiClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return client, nil
}

// NewGeminiClassifier wraps generator (usually client.Models).
func NewGeminiClassifier(generator ContentGenerator, modelName string, loc *time.Location) *GeminiClassifier {
	if modelName == "" {
		modelName = DefaultGeminiModel
	}
	if loc == nil {
		loc = time.UTC
	}

	settings := gobreaker.Settings{
		Name:        "Gemini-Classifier",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// Trip if failure rate is at least 50% after at least 10 requests
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 10 && failureRatio >= 0.5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("Circuit breaker state changed")
		},
	}

	return &GeminiClassifier{
		generator: generator,
		model:     modelName,
		location:  loc,
		cb:        gobreaker.NewCircuitBreaker(settings),
	}
}

// geminiVerdict mirrors the response schema. Pointers tell a missing field
// apart from a zero value.
type geminiVerdict struct {
	IsAnomaly   *bool   `json:"isAnomaly"`
	AnomalyType *string `json:"anomalyType"`
	Explanation *string `json:"explanation"`
}

func responseSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"isAnomaly": {
				Type:        genai.TypeBoolean,
				Description: "Whether the clocking event is an anomaly.",
			},
			"anomalyType": {
				Type:        genai.TypeString,
				Description: "A 2-3 word category, only when isAnomaly is true.",
			},
			"explanation": {
				Type:        genai.TypeString,
				Description: "One sentence explaining why the event is or is not an anomaly.",
			},
		},
		Required:         []string{"isAnomaly", "explanation"},
		PropertyOrdering: []string{"isAnomaly", "anomalyType", "explanation"},
	}
}

// Classify sends the shift to the model and returns the decoded verdict.
func (c *GeminiClassifier) Classify(ctx context.Context, shift model.ShiftInput) (model.AnomalyVerdict, error) {
	tracer := otel.Tracer("gemini-classifier")
	ctx, span := tracer.Start(ctx, "classify_shift", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("app.employeeId", shift.EmployeeID),
		attribute.String("gen_ai.request.model", c.model),
	)

	result, err := c.cb.Execute(func() (interface{}, error) {
		return c.generate(ctx, shift)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return model.AnomalyVerdict{}, fmt.Errorf("gemini backend unavailable: %w", err)
		}
		return model.AnomalyVerdict{}, err
	}

	return result.(model.AnomalyVerdict), nil
}

func (c *GeminiClassifier) generate(ctx context.Context, shift model.ShiftInput) (model.AnomalyVerdict, error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    responseSchema(),
		Temperature:       genai.Ptr[float32](0.1),
		MaxOutputTokens:   256,
	}

	resp, err := c.generator.GenerateContent(ctx, c.model, []*genai.Content{
		genai.NewContentFromText(c.prompt(shift), genai.RoleUser),
	}, config)
	if err != nil {
		if ctx.Err() != nil {
			return model.AnomalyVerdict{}, fmt.Errorf("gemini call cancelled: %w", ctx.Err())
		}
		return model.AnomalyVerdict{}, fmt.Errorf("gemini call failed: %w", err)
	}
	if resp == nil {
		return model.AnomalyVerdict{}, errors.New("gemini returned no response")
	}

	return DecodeVerdict(resp.Text())
}

func (c *GeminiClassifier) prompt(shift model.ShiftInput) string {
	return fmt.Sprintf("Employee ID: %s\nClock-in Time: %s\nClock-out Time: %s\nLocal time zone: %s",
		shift.EmployeeID,
		shift.ClockInTime.UTC().Format(time.RFC3339),
		shift.ClockOutTime.UTC().Format(time.RFC3339),
		c.location.String(),
	)
}

// DecodeVerdict strictly decodes a model answer. Unknown fields, missing
// required fields and wrong types are errors.
func DecodeVerdict(raw string) (model.AnomalyVerdict, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return model.AnomalyVerdict{}, errors.New("gemini returned an empty answer")
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	dec.DisallowUnknownFields()

	var payload geminiVerdict
	if err := dec.Decode(&payload); err != nil {
		return model.AnomalyVerdict{}, fmt.Errorf("gemini answer does not match the verdict schema: %w", err)
	}
	if dec.More() {
		return model.AnomalyVerdict{}, errors.New("gemini answer has trailing data")
	}

	if payload.IsAnomaly == nil {
		return model.AnomalyVerdict{}, errors.New("gemini answer is missing isAnomaly")
	}
	if payload.Explanation == nil {
		return model.AnomalyVerdict{}, errors.New("gemini answer is missing explanation")
	}

	verdict := model.AnomalyVerdict{
		IsAnomaly:   *payload.IsAnomaly,
		Explanation: *payload.Explanation,
	}
	if payload.AnomalyType != nil {
		verdict.AnomalyType = *payload.AnomalyType
	}

	verdict = core.NormalizeVerdict(verdict)
	if err := core.ValidateVerdict(verdict); err != nil {
		return model.AnomalyVerdict{}, err
	}
	return verdict, nil
}
