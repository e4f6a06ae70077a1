package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stwalsh4118/proptax/internal/llm"
	"github.com/stwalsh4118/proptax/internal/logger"
	"github.com/stwalsh4118/proptax/internal/models"
)

// estimationTemperature keeps the model close to the rate table arithmetic.
const estimationTemperature = 0.3

const estimationSystemPrompt = `You are an expert property tax calculator for Indian municipalities, specifically for Rajasthan state.

You calculate property tax based on:
1. Unit Area Value (UAV) method used in Rajasthan
2. Property type factors: Residential (1.0), Commercial (1.5), Industrial (1.3), Agricultural (0.5), Mixed Use (1.2)
3. Location factors for cities: Jaipur (1.2), Jodhpur (1.0), Udaipur (1.1), Other (0.8)
4. Age depreciation: Properties older than 10 years get 10% reduction, 20+ years get 20% reduction
5. Base rate: ₹5 per sq.ft for residential, ₹8 for commercial

Return your response as a valid JSON object with these exact fields:
{
  "base_tax": <number - base tax amount in INR>,
  "location_factor": <number - multiplier based on city>,
  "property_type_factor": <number - multiplier based on property type>,
  "age_depreciation": <number - percentage reduction for old properties>,
  "total_tax": <number - final calculated tax in INR>,
  "reasoning": "<string - brief explanation of calculation>"
}`

// TaxEstimate is a parsed model answer plus any plausibility warnings.
type TaxEstimate struct {
	Breakdown models.TaxBreakdown `json:"data"`
	Warnings  []string            `json:"warnings,omitempty"`
}

// TaxEstimator asks the upstream model for a tax breakdown.
type TaxEstimator interface {
	// Estimate returns the model's breakdown with numeric fields unmodified.
	// Returns ErrAIUnavailable when no client is configured, the llm errors
	// for upstream failures, and ErrUnparseableResponse when the reply holds
	// no JSON object.
	Estimate(ctx context.Context, attrs models.PropertyAttributes) (*TaxEstimate, error)
}

type taxEstimator struct {
	client   llm.Client
	log      *logger.Logger
	now      func() time.Time
	validate *validator.Validate
}

// NewTaxEstimator creates a TaxEstimator. client may be nil when no API key is
// configured. now defaults to time.Now.
func NewTaxEstimator(client llm.Client, log *logger.Logger, now func() time.Time) TaxEstimator {
	if now == nil {
		now = time.Now
	}

	v := validator.New()
	v.RegisterTagNameFunc(jsonFieldName)

	return &taxEstimator{
		client:   client,
		log:      log,
		now:      now,
		validate: v,
	}
}

func (e *taxEstimator) Estimate(ctx context.Context, attrs models.PropertyAttributes) (*TaxEstimate, error) {
	if e.client == nil {
		return nil, ErrAIUnavailable
	}

	temperature := estimationTemperature
	req := llm.ChatRequest{
		Messages:       BuildEstimationMessages(attrs, e.now().Year()),
		Temperature:    &temperature,
		ResponseFormat: llm.JSONObject,
	}

	e.log.Info("Requesting tax estimate", map[string]interface{}{
		"property_type": attrs.Type,
		"city":          attrs.City,
	})

	content, err := e.client.Complete(ctx, req)
	if err != nil {
		if errors.Is(err, llm.ErrUnreachable) {
			err = fmt.Errorf("%w: %w", llm.ErrEmptyResponse, err)
		}
		e.log.Error("Tax estimate request failed", err, nil)
		return nil, err
	}

	breakdown, hasTotal, err := parseBreakdown(content)
	if err != nil {
		e.log.Warn("Unparseable tax estimate", map[string]interface{}{
			"content_length": len(content),
		})
		return nil, err
	}

	warnings := e.plausibilityWarnings(breakdown)
	if !hasTotal {
		warnings = append(warnings, "total_tax missing from AI response (reported as 0)")
	}
	if len(warnings) > 0 {
		e.log.Warn("Tax estimate outside plausible bounds", map[string]interface{}{
			"warnings": warnings,
		})
	}

	return &TaxEstimate{Breakdown: *breakdown, Warnings: warnings}, nil
}

// plausibilityWarnings flags out-of-range values without changing them.
func (e *taxEstimator) plausibilityWarnings(b *models.TaxBreakdown) []string {
	err := e.validate.Struct(b)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}

	warnings := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		warnings = append(warnings, describeBound(fe))
	}
	return warnings
}

func describeBound(fe validator.FieldError) string {
	switch fe.Tag() {
	case "gte":
		return fmt.Sprintf("%s should be at least %s (got %v)", fe.Field(), fe.Param(), fe.Value())
	case "lte":
		return fmt.Sprintf("%s should be at most %s (got %v)", fe.Field(), fe.Param(), fe.Value())
	default:
		return fmt.Sprintf("%s failed %s check (got %v)", fe.Field(), fe.Tag(), fe.Value())
	}
}

func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return fld.Name
	}
	return name
}

// BuildEstimationMessages renders the system and user messages for attrs.
// Age is computed against currentYear and is zero when the year is unknown.
func BuildEstimationMessages(attrs models.PropertyAttributes, currentYear int) []llm.Message {
	age := 0
	constructionYear := "Unknown"
	if attrs.ConstructionYear != nil && *attrs.ConstructionYear > 0 {
		constructionYear = fmt.Sprintf("%d", *attrs.ConstructionYear)
		if a := currentYear - *attrs.ConstructionYear; a > 0 {
			age = a
		}
	}

	builtUp := attrs.AreaSqft
	if attrs.BuiltUpAreaSqft != nil && *attrs.BuiltUpAreaSqft > 0 {
		builtUp = *attrs.BuiltUpAreaSqft
	}

	floors := 1
	if attrs.FloorCount != nil && *attrs.FloorCount > 0 {
		floors = *attrs.FloorCount
	}

	var b strings.Builder
	b.WriteString("Calculate property tax for:\n")
	fmt.Fprintf(&b, "- Property Type: %s\n", attrs.Type.Label())
	fmt.Fprintf(&b, "- Total Area: %s sq.ft\n", formatNumber(attrs.AreaSqft))
	fmt.Fprintf(&b, "- Built-up Area: %s sq.ft\n", formatNumber(builtUp))
	fmt.Fprintf(&b, "- Property Value: ₹%s\n", formatINR(attrs.Value))
	fmt.Fprintf(&b, "- City: %s, %s\n", attrs.City, models.DefaultState)
	fmt.Fprintf(&b, "- Construction Year: %s\n", constructionYear)
	fmt.Fprintf(&b, "- Property Age: %d years\n", age)
	fmt.Fprintf(&b, "- Number of Floors: %d\n", floors)
	b.WriteString("\nCalculate the annual property tax using UAV method and return the JSON response.")

	return []llm.Message{
		{Role: llm.RoleSystem, Content: estimationSystemPrompt},
		{Role: llm.RoleUser, Content: b.String()},
	}
}

// parseBreakdown decodes the model reply. A reply that is itself a JSON object
// is decoded directly. Otherwise the first balanced object embedded in the
// text that carries a total_tax value wins, falling back to the first object
// that decodes at all. hasTotal reports whether total_tax was present and
// not null.
func parseBreakdown(content string) (b *models.TaxBreakdown, hasTotal bool, err error) {
	var fallback *models.TaxBreakdown

	consider := func(obj string) bool {
		decoded, withTotal, ok := decodeBreakdown(obj)
		if !ok {
			return false
		}
		if withTotal {
			b, hasTotal = decoded, true
			return true
		}
		if fallback == nil {
			fallback = decoded
		}
		return false
	}

	trimmed := strings.TrimSpace(content)
	if strings.HasPrefix(trimmed, "{") && consider(trimmed) {
		return b, true, nil
	}

	for start := 0; start < len(content); {
		obj, next, ok := nextJSONObject(content, start)
		if !ok {
			break
		}
		if consider(obj) {
			return b, true, nil
		}
		start = next
	}

	if fallback != nil {
		return fallback, false, nil
	}
	return nil, false, ErrUnparseableResponse
}

// decodeBreakdown decodes obj as a breakdown. withTotal is false when
// total_tax is absent or null.
func decodeBreakdown(obj string) (b *models.TaxBreakdown, withTotal bool, ok bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(obj), &fields); err != nil {
		return nil, false, false
	}

	var decoded models.TaxBreakdown
	if err := json.Unmarshal([]byte(obj), &decoded); err != nil {
		return nil, false, false
	}

	raw, present := fields["total_tax"]
	withTotal = present && strings.TrimSpace(string(raw)) != "null"
	return &decoded, withTotal, true
}

// nextJSONObject finds the first balanced {...} span at or after from. Braces
// inside string literals are ignored. It returns the span and the index just
// past its opening brace so callers can resume the search.
func nextJSONObject(s string, from int) (string, int, bool) {
	for i := from; i < len(s); i++ {
		if s[i] != '{' {
			continue
		}
		if end, ok := matchBrace(s, i); ok {
			return s[i : end+1], i + 1, true
		}
	}
	return "", len(s), false
}

func matchBrace(s string, open int) (int, bool) {
	depth := 0
	inString := false
	escaped := false

	for i := open; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}
