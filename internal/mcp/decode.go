package mcp

import (
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/opoerator/drop/internal/errors"
)

// validator is implemented by request types that carry required fields.
type validator interface {
	validate() *errors.DropError
}

// decodeArgs maps a tool call's arguments onto the typed request struct
// and runs its required-field checks. Every failure comes back as a
// CONFIG error ready to hand to errorResult, so handlers only branch
// once.
func decodeArgs[T any](req mcp.CallToolRequest) (T, *errors.DropError) {
	var result T
	raw, err := json.Marshal(req.GetArguments())
	if err != nil {
		return result, errors.NewConfig("invalid arguments: " + err.Error())
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return result, errors.NewConfig("invalid arguments: " + err.Error())
	}
	if v, ok := any(result).(validator); ok {
		if vErr := v.validate(); vErr != nil {
			return result, vErr
		}
	}
	return result, nil
}
