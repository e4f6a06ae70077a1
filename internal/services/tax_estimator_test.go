package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/proptax/internal/llm"
	"github.com/stwalsh4118/proptax/internal/logger"
	"github.com/stwalsh4118/proptax/internal/models"
)

const sampleBreakdown = `{"base_tax":5000,"location_factor":1.2,"property_type_factor":1.0,"age_depreciation":10,"total_tax":5400,"reasoning":"..."}`

var estimatorNow = time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)

func newTestEstimator(client llm.Client) TaxEstimator {
	return NewTaxEstimator(client, logger.New("test"), fixedClock(estimatorNow))
}

func sampleAttributes() models.PropertyAttributes {
	return models.PropertyAttributes{
		Type:     models.PropertyTypeResidential,
		AreaSqft: 1500,
		Value:    5000000,
		City:     "Jaipur",
	}
}

func TestBuildEstimationMessages_IncludesCoreAttributes(t *testing.T) {
	tests := []struct {
		name    string
		attrs   models.PropertyAttributes
		wantAge string
	}{
		{
			name:    "only required fields",
			attrs:   sampleAttributes(),
			wantAge: "- Property Age: 0 years",
		},
		{
			name: "all optional fields",
			attrs: models.PropertyAttributes{
				Type:             models.PropertyTypeMixedUse,
				AreaSqft:         2400.5,
				BuiltUpAreaSqft:  floatPtr(1800),
				Value:            12345678,
				City:             "Udaipur",
				ConstructionYear: intPtr(2001),
				FloorCount:       intPtr(3),
			},
			wantAge: "- Property Age: 24 years",
		},
		{
			name: "industrial in another city",
			attrs: models.PropertyAttributes{
				Type:             models.PropertyTypeIndustrial,
				AreaSqft:         10000,
				Value:            900000,
				City:             "Kota",
				ConstructionYear: intPtr(2025),
			},
			wantAge: "- Property Age: 0 years",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msgs := BuildEstimationMessages(tt.attrs, 2025)
			require.Len(t, msgs, 2)
			assert.Equal(t, llm.RoleSystem, msgs[0].Role)
			assert.Equal(t, llm.RoleUser, msgs[1].Role)

			prompt := msgs[1].Content
			assert.Contains(t, prompt, "- Property Type: "+tt.attrs.Type.Label())
			assert.Contains(t, prompt, "- Total Area: "+formatNumber(tt.attrs.AreaSqft)+" sq.ft")
			assert.Contains(t, prompt, "- Property Value: ₹"+formatINR(tt.attrs.Value))
			assert.Contains(t, prompt, "- City: "+tt.attrs.City+", Rajasthan")
			assert.Contains(t, prompt, tt.wantAge)
		})
	}
}

func TestBuildEstimationMessages_Fallbacks(t *testing.T) {
	msgs := BuildEstimationMessages(sampleAttributes(), 2025)
	prompt := msgs[1].Content

	assert.Contains(t, prompt, "- Built-up Area: 1500 sq.ft")
	assert.Contains(t, prompt, "- Property Value: ₹50,00,000")
	assert.Contains(t, prompt, "- Construction Year: Unknown")
	assert.Contains(t, prompt, "- Number of Floors: 1")
	assert.True(t, strings.HasSuffix(prompt, "return the JSON response."))

	system := msgs[0].Content
	assert.Contains(t, system, "Jaipur (1.2)")
	assert.Contains(t, system, "Mixed Use (1.2)")
	assert.Contains(t, system, `"total_tax"`)
}

func TestEstimate_SendsStructuredLowTemperatureRequest(t *testing.T) {
	client := new(MockLLMClient)
	estimator := newTestEstimator(client)

	client.On("Complete", mock.Anything, mock.MatchedBy(func(req llm.ChatRequest) bool {
		return req.Temperature != nil && *req.Temperature == 0.3 &&
			req.ResponseFormat != nil && req.ResponseFormat.Type == "json_object" &&
			!req.Stream && len(req.Messages) == 2
	})).Return(sampleBreakdown, nil)

	_, err := estimator.Estimate(context.Background(), sampleAttributes())
	require.NoError(t, err)
	client.AssertExpectations(t)
}

func TestEstimate_ReturnsSampleFieldsUnmodified(t *testing.T) {
	client := new(MockLLMClient)
	estimator := newTestEstimator(client)
	client.On("Complete", mock.Anything, mock.Anything).Return(sampleBreakdown, nil)

	estimate, err := estimator.Estimate(context.Background(), sampleAttributes())
	require.NoError(t, err)

	b := estimate.Breakdown
	assert.Equal(t, 5000.0, b.BaseTax)
	assert.Equal(t, 1.2, b.LocationFactor)
	assert.Equal(t, 1.0, b.PropertyTypeFactor)
	assert.Equal(t, 10.0, b.AgeDepreciation)
	assert.Equal(t, 5400.0, b.TotalTax)
	assert.Equal(t, "...", b.Reasoning)
	assert.Empty(t, estimate.Warnings)
}

func TestEstimate_ExtractsEmbeddedObject(t *testing.T) {
	tests := map[string]string{
		"prose around object": "Here is the calculation:\n" + sampleBreakdown + "\nLet me know if you need more.",
		"markdown fence":      "```json\n" + sampleBreakdown + "\n```",
		"braces inside reasoning": `Result: {"base_tax":5000,"location_factor":1.2,"property_type_factor":1.0,` +
			`"age_depreciation":10,"total_tax":5400,"reasoning":"rate {5/sqft} applied, see \"note}\""} thanks`,
		"leading non-json braces": "Using {UAV} method: " + sampleBreakdown,
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			client := new(MockLLMClient)
			estimator := newTestEstimator(client)
			client.On("Complete", mock.Anything, mock.Anything).Return(content, nil)

			estimate, err := estimator.Estimate(context.Background(), sampleAttributes())
			require.NoError(t, err)
			assert.Equal(t, 5400.0, estimate.Breakdown.TotalTax)
			assert.Equal(t, 1.2, estimate.Breakdown.LocationFactor)
		})
	}
}

func TestEstimate_Unparseable(t *testing.T) {
	tests := map[string]string{
		"no object":        "I cannot compute that right now.",
		"unbalanced":       `{"base_tax": 5000, "total_tax": 5400`,
		"wrong field type": `{"total_tax": "lots"}`,
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			client := new(MockLLMClient)
			estimator := newTestEstimator(client)
			client.On("Complete", mock.Anything, mock.Anything).Return(content, nil)

			estimate, err := estimator.Estimate(context.Background(), sampleAttributes())
			assert.Nil(t, estimate)
			assert.ErrorIs(t, err, ErrUnparseableResponse)
		})
	}
}

func TestEstimate_MissingTotalIsFlaggedNotRejected(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		wantBase  float64
		wantTotal float64
	}{
		{
			name:     "total_tax absent",
			content:  `{"base_tax":5000,"location_factor":1.2,"property_type_factor":1.0,"age_depreciation":10,"reasoning":"x"}`,
			wantBase: 5000,
		},
		{
			name:    "total_tax null",
			content: `{"total_tax": null}`,
		},
		{
			name:     "object with total preferred over earlier object without",
			content:  `Inputs: {"base_tax":1} Result: ` + sampleBreakdown,
			wantBase: 5000, wantTotal: 5400,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := new(MockLLMClient)
			estimator := newTestEstimator(client)
			client.On("Complete", mock.Anything, mock.Anything).Return(tt.content, nil)

			estimate, err := estimator.Estimate(context.Background(), sampleAttributes())
			require.NoError(t, err)
			assert.Equal(t, tt.wantBase, estimate.Breakdown.BaseTax)
			assert.Equal(t, tt.wantTotal, estimate.Breakdown.TotalTax)

			joined := strings.Join(estimate.Warnings, "; ")
			if tt.wantTotal == 0 {
				assert.Contains(t, joined, "total_tax missing")
			} else {
				assert.NotContains(t, joined, "total_tax missing")
			}
		})
	}
}

func TestParseBreakdown_AnyDecodableObjectIsKept(t *testing.T) {
	b, hasTotal, err := parseBreakdown(`Sure! {"answer": 42}`)
	require.NoError(t, err)
	assert.False(t, hasTotal)
	assert.Equal(t, models.TaxBreakdown{}, *b)
}

func TestEstimate_FlagsImplausibleValues(t *testing.T) {
	client := new(MockLLMClient)
	estimator := newTestEstimator(client)
	client.On("Complete", mock.Anything, mock.Anything).Return(
		`{"base_tax":-5,"location_factor":12,"property_type_factor":1,"age_depreciation":150,"total_tax":100,"reasoning":"odd"}`, nil)

	estimate, err := estimator.Estimate(context.Background(), sampleAttributes())
	require.NoError(t, err)

	// Values are kept as returned; only flagged.
	assert.Equal(t, -5.0, estimate.Breakdown.BaseTax)
	assert.Equal(t, 150.0, estimate.Breakdown.AgeDepreciation)

	require.Len(t, estimate.Warnings, 3)
	joined := strings.Join(estimate.Warnings, "; ")
	assert.Contains(t, joined, "base_tax")
	assert.Contains(t, joined, "location_factor")
	assert.Contains(t, joined, "age_depreciation")
}

func TestEstimate_NoClientConfigured(t *testing.T) {
	estimator := newTestEstimator(nil)

	_, err := estimator.Estimate(context.Background(), sampleAttributes())
	assert.ErrorIs(t, err, ErrAIUnavailable)
}

func TestEstimate_UpstreamErrorsPassThrough(t *testing.T) {
	upstream := &llm.UpstreamError{Status: http.StatusInternalServerError}

	tests := []struct {
		name    string
		err     error
		wantErr error
	}{
		{name: "rate limited", err: llm.ErrRateLimited, wantErr: llm.ErrRateLimited},
		{name: "quota", err: llm.ErrQuotaExhausted, wantErr: llm.ErrQuotaExhausted},
		{name: "upstream", err: upstream, wantErr: upstream},
		{name: "empty", err: llm.ErrEmptyResponse, wantErr: llm.ErrEmptyResponse},
		{name: "unreachable", err: fmt.Errorf("%w: dial", llm.ErrUnreachable), wantErr: llm.ErrEmptyResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := new(MockLLMClient)
			estimator := newTestEstimator(client)
			client.On("Complete", mock.Anything, mock.Anything).Return("", tt.err)

			_, err := estimator.Estimate(context.Background(), sampleAttributes())
			assert.ErrorIs(t, err, tt.wantErr)
			assert.False(t, errors.Is(err, ErrUnparseableResponse))
		})
	}
}

func TestEstimate_RateLimitedBodyIsNeverParsed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"choices":[{"message":{"content":`+strconvQuote(sampleBreakdown)+`}}]}`)
	}))
	defer server.Close()

	client := llm.NewClient(llm.Config{
		APIKey:      "sk-test",
		BaseURL:     server.URL,
		Model:       "test-model",
		Timeout:     time.Second,
		MaxAttempts: 1,
	}, logger.New("test"))

	estimate, err := newTestEstimator(client).Estimate(context.Background(), sampleAttributes())
	assert.Nil(t, estimate)
	assert.ErrorIs(t, err, llm.ErrRateLimited)
}

func strconvQuote(s string) string {
	return fmt.Sprintf("%q", s)
}

func TestFormatINR(t *testing.T) {
	tests := map[float64]string{
		0:         "0",
		999:       "999",
		1000:      "1,000",
		100000:    "1,00,000",
		5000000:   "50,00,000",
		1234567.5: "12,34,567.5",
		123456789: "12,34,56,789",
		-12345:    "-12,345",
		1500.256:  "1,500.26",
	}

	for in, want := range tests {
		assert.Equal(t, want, formatINR(in), "formatINR(%v)", in)
	}
}
