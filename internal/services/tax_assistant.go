package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/stwalsh4118/proptax/internal/llm"
	"github.com/stwalsh4118/proptax/internal/logger"
	"github.com/stwalsh4118/proptax/internal/models"
	"github.com/stwalsh4118/proptax/internal/repository"
)

// recentCalculationLimit bounds how many stored calculations are summarised
// when the assistant builds context from the caller's records.
const recentCalculationLimit = 10

const assistantSystemPrompt = `You are STMS AI Assistant, an expert on Indian property tax laws, specifically for Rajasthan state. You help citizens understand:
- Property tax calculation methods (Unit Area Value)
- Tax exemptions and rebates
- Payment deadlines and penalties
- Required documents for property registration
- Appeal procedures
- Government schemes for tax relief

Be helpful, concise, and provide actionable advice. If the user has property data, reference it in your answers.`

// AssistantQuery is a question plus optional record context.
type AssistantQuery struct {
	Question        string
	Properties      []models.PropertySummary
	TaxCalculations []models.TaxCalculationSummary
	// IncludeRecords replaces the supplied summaries with the owner's stored records.
	IncludeRecords bool
}

// TaxAssistant relays questions to the upstream model as a stream.
type TaxAssistant interface {
	// Ask opens a streaming completion and returns the raw event-stream body.
	// Rate-limit and quota errors are returned before any byte is available.
	// The caller must close the body.
	Ask(ctx context.Context, ownerID uuid.UUID, q AssistantQuery) (io.ReadCloser, error)
}

type taxAssistant struct {
	client       llm.Client
	properties   repository.PropertyRepository
	calculations repository.TaxCalculationRepository
	log          *logger.Logger
}

// NewTaxAssistant creates a TaxAssistant. client may be nil when no API key is configured.
func NewTaxAssistant(client llm.Client, properties repository.PropertyRepository, calculations repository.TaxCalculationRepository, log *logger.Logger) TaxAssistant {
	return &taxAssistant{
		client:       client,
		properties:   properties,
		calculations: calculations,
		log:          log,
	}
}

func (a *taxAssistant) Ask(ctx context.Context, ownerID uuid.UUID, q AssistantQuery) (io.ReadCloser, error) {
	if a.client == nil {
		return nil, ErrAIUnavailable
	}

	if q.IncludeRecords {
		if err := a.loadRecords(ctx, ownerID, &q); err != nil {
			return nil, err
		}
	}

	a.log.Info("Opening assistant stream", map[string]interface{}{
		"properties":       len(q.Properties),
		"tax_calculations": len(q.TaxCalculations),
	})

	body, err := a.client.Stream(ctx, llm.ChatRequest{Messages: BuildAssistantMessages(q)})
	if err != nil {
		a.log.Error("Assistant stream failed to open", err, nil)
		if errors.Is(err, llm.ErrRateLimited) || errors.Is(err, llm.ErrQuotaExhausted) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrRelayFailed, err)
	}
	return body, nil
}

func (a *taxAssistant) loadRecords(ctx context.Context, ownerID uuid.UUID, q *AssistantQuery) error {
	props, err := a.properties.ListByOwner(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("failed to load properties for assistant: %w", err)
	}
	calcs, err := a.calculations.ListByOwner(ctx, ownerID, recentCalculationLimit)
	if err != nil {
		return fmt.Errorf("failed to load tax calculations for assistant: %w", err)
	}

	q.Properties = make([]models.PropertySummary, 0, len(props))
	for i := range props {
		q.Properties = append(q.Properties, props[i].Summary())
	}
	q.TaxCalculations = make([]models.TaxCalculationSummary, 0, len(calcs))
	for i := range calcs {
		q.TaxCalculations = append(q.TaxCalculations, calcs[i].Summary())
	}
	return nil
}

// BuildAssistantMessages renders the system prompt and the question with a
// digest of the supplied records appended.
func BuildAssistantMessages(q AssistantQuery) []llm.Message {
	var b strings.Builder
	b.WriteString(q.Question)

	if len(q.Properties) > 0 {
		b.WriteString("\n\nUser's Properties:\n")
		for i, p := range q.Properties {
			fmt.Fprintf(&b, "%d. %s - %s, %s sq.ft, ₹%s, %s\n",
				i+1, p.Name, p.Type, formatNumber(p.AreaSqft), formatINR(p.Value), p.City)
		}
	}

	if len(q.TaxCalculations) > 0 {
		b.WriteString("\n\nRecent Tax Calculations:\n")
		for i, t := range q.TaxCalculations {
			fmt.Fprintf(&b, "%d. FY %s: ₹%s (%s)\n", i+1, t.FiscalYear, formatINR(t.TotalTax), t.PaymentStatus)
		}
	}

	return []llm.Message{
		{Role: llm.RoleSystem, Content: assistantSystemPrompt},
		{Role: llm.RoleUser, Content: b.String()},
	}
}
