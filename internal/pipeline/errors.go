package pipeline

import (
	"bytes"
	"encoding/json"
	"errors"
)

// Error codes follow JSON-RPC where one applies
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	// CodeAssessmentUnavailable accompanies a hold outcome
	CodeAssessmentUnavailable = -32001
)

// MaxIDBytes bounds the echoed request id
const MaxIDBytes = 256

var (
	ErrIDTooLarge    = errors.New("request id exceeds maximum size")
	ErrIDInvalidType = errors.New("request id must be a string, number or null")
	ErrNoAssessment  = errors.New("no assessment provided")
)

// ErrorBody is the error member of a Response
type ErrorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func invalidRequest(id json.RawMessage, reason string) Response {
	return Response{ID: id, Error: &ErrorBody{Code: CodeInvalidRequest, Message: "Invalid Request: " + reason}}
}

func parseError(reason string) Response {
	return Response{Error: &ErrorBody{Code: CodeParseError, Message: "Parse error: " + reason}}
}

// validateID accepts JSON scalars up to MaxIDBytes
func validateID(id json.RawMessage) error {
	trimmed := bytes.TrimSpace(id)
	if len(trimmed) == 0 {
		return nil
	}
	if len(trimmed) > MaxIDBytes {
		return ErrIDTooLarge
	}
	switch trimmed[0] {
	case '{', '[', 't', 'f':
		return ErrIDInvalidType
	}
	return nil
}
