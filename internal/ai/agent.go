package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"fleet-costing/internal/core"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"
	"github.com/openai/openai-go/shared/constant"
)

// AgentService turns a free-text toll expense description into a structured
// payment draft, or into a clarification question when detail is missing.
// Nothing is written to the ledger here; the caller confirms the draft.
type AgentService interface {
	InterpretExpense(ctx context.Context, naturalLanguage string, stationList string) (*core.DraftResponse, error)
}

type Agent struct {
	client *openai.Client
}

func NewAgent(apiKey string) *Agent {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &Agent{client: &client}
}

func (a *Agent) InterpretExpense(ctx context.Context, naturalLanguage string, stationList string) (*core.DraftResponse, error) {
	prompt := fmt.Sprintf(`You are a logistics back-office clerk for a truck fleet.
Your goal is to interpret a toll expense described in natural language and propose a toll payment draft.
Rules:
1. The vehicle type MUST be one of: FLATBED, TIPPER.
2. station_name MUST be an exact name from the station list below, or empty if none matches.
3. Amounts must be exact strings (e.g. "250.00") and always positive.
4. Dates are YYYY-MM-DD. Today is %s.
5. Provide a confidence score (0.0-1.0) and explain your reasoning.
6. If the amount, date, or vehicle type cannot be determined, return a clarification request instead of guessing.

Known toll stations:
%s

Expense: %s`, time.Now().Format("2006-01-02"), stationList, naturalLanguage)

	// Dynamically generate the JSON schema from the Go struct
	schemaStruct := generateSchema()
	schemaJSON, err := json.Marshal(schemaStruct)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	var schemaMap map[string]any
	if err := json.Unmarshal(schemaJSON, &schemaMap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schema to map: %w", err)
	}

	params := responses.ResponseNewParams{
		Model: shared.ResponsesModel(shared.ChatModelGPT4o),
		Input: responses.ResponseNewParamsInputUnion{
			OfString: param.NewOpt(prompt),
		},
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Type:        constant.JSONSchema("json_schema"),
					Name:        "toll_payment_draft",
					Strict:      param.NewOpt(true),
					Schema:      schemaMap,
					Description: param.NewOpt("A proposed toll payment draft or a clarification request"),
				},
			},
		},
	}

	resp, err := a.client.Responses.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai responses error: %w", err)
	}

	content := resp.OutputText()
	if content == "" {
		return nil, fmt.Errorf("empty response content")
	}

	var response core.DraftResponse
	if err := json.Unmarshal([]byte(content), &response); err != nil {
		return nil, fmt.Errorf("failed to parse completion: %w", err)
	}

	if response.IsClarificationRequest {
		if response.Clarification == nil {
			return nil, fmt.Errorf("clarification flagged but no message provided")
		}
		return &response, nil
	}

	if response.Draft == nil {
		return nil, fmt.Errorf("no draft in agent response")
	}
	response.Draft.Normalize()
	if err := response.Draft.Validate(); err != nil {
		return nil, fmt.Errorf("draft validation failed: %w", err)
	}

	return &response, nil
}

func generateSchema() interface{} {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v core.DraftResponse
	return reflector.Reflect(v)
}
