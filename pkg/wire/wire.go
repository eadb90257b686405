// Package wire implements the JSON request/response protocol shared by the
// command-line and WebAssembly entrypoints.
//
//	request:  { "expression": "a * b", "parameters": { "a": 2, "b": 3 }, "tolerance": { "float_range": 0.01 } }
//	response: { "result": 6, "type": "integer", "text": "6" }
//	          { "error": "<message>", "code": "D2001" }
//
// Numbers without a fraction or exponent bind as integers. Byte array
// results are reported as their "#" hex text.
package wire

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/sandrolain/gomathex/pkg/computed"
	"github.com/sandrolain/gomathex/pkg/evaluator"
	"github.com/sandrolain/gomathex/pkg/types"
)

// Request is one evaluation request.
type Request struct {
	Expression string           `json:"expression"`
	Parameters map[string]any   `json:"parameters,omitempty"`
	Tolerance  *types.Tolerance `json:"tolerance,omitempty"`
}

// Response is the outcome of a Request.
type Response struct {
	Result any    `json:"result,omitempty"`
	Type   string `json:"type,omitempty"`
	Text   string `json:"text,omitempty"`
	Error  string `json:"error,omitempty"`
	Code   string `json:"code,omitempty"`
}

// Decode reads a Request from r, keeping numbers exact.
func Decode(r io.Reader) (Request, error) {
	var req Request
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		return Request{}, fmt.Errorf("invalid request JSON: %w", err)
	}
	if req.Expression == "" {
		return Request{}, errors.New("invalid request: missing expression")
	}
	return req, nil
}

// DecodeParameters parses a JSON object of parameter bindings.
func DecodeParameters(data []byte) (map[string]any, error) {
	params := map[string]any{}
	if len(bytes.TrimSpace(data)) == 0 {
		return params, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&params); err != nil {
		return nil, fmt.Errorf("invalid parameters JSON: %w", err)
	}
	return params, nil
}

// Handle interprets and evaluates req with ev. Failures are reported in the
// Response, never as a Go error.
func Handle(ctx context.Context, ev *evaluator.Evaluator, req Request) Response {
	var opts []computed.EvalOption
	if req.Tolerance != nil {
		opts = append(opts, computed.WithTolerance(*req.Tolerance))
	}
	v, err := ev.EvaluateText(ctx, req.Expression, req.Parameters, opts...)
	if err != nil {
		return Failure(err)
	}
	return Success(ev, v)
}

// Success builds the response for v, rendering Text with ev's formatters.
func Success(ev *evaluator.Evaluator, v types.Value) Response {
	resp := Response{Type: v.Type.String(), Text: ev.Format(v), Result: v.Interface()}
	if v.Type == types.TypeByteArray {
		resp.Result = v.String()
	}
	return resp
}

// Failure builds the response for err.
func Failure(err error) Response {
	resp := Response{Error: err.Error()}
	if e, ok := types.AsError(err); ok {
		resp.Code = string(e.Code)
	}
	return resp
}
