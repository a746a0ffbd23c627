package mcp

import (
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// UnknownField is an argument the tool did not recognize
type UnknownField struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// collectUnknownFields returns the arguments outside known
func collectUnknownFields(data []byte, known map[string]struct{}) ([]UnknownField, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	var warnings []UnknownField
	for key, value := range raw {
		if _, ok := known[key]; ok {
			continue
		}
		var v any
		if err := json.Unmarshal(value, &v); err != nil {
			v = string(value)
		}
		warnings = append(warnings, UnknownField{Name: key, Value: v})
	}
	return warnings, nil
}

func createTextResponse(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

// createJSONResponse creates a JSON text result
func createJSONResponse(data any) (*mcp.CallToolResult, error) {
	content, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response data: %v", err)
	}
	return createTextResponse(string(content)), nil
}

// createErrorResponse reports a tool failure inside the result with
// IsError set, so the client model sees it and can correct its call.
func createErrorResponse(operation string, err error) (*mcp.CallToolResult, error) {
	response, marshalErr := createJSONResponse(map[string]any{
		"success":   false,
		"error":     err.Error(),
		"operation": operation,
	})
	if marshalErr != nil {
		return nil, marshalErr
	}
	response.IsError = true
	return response, nil
}
