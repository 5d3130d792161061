// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package action

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/rapidaai/pkg/commons"
	pkgerrors "github.com/rapidaai/pkg/errors"
)

// ParameterLocation is where an argument gets placed on the outgoing HTTP
// request.
type ParameterLocation string

const (
	LocationPath  ParameterLocation = "path"
	LocationQuery ParameterLocation = "query"
	LocationBody  ParameterLocation = "body"
)

// ProcessingMode controls whether the agent's transcriber input is muted
// for the duration of the call.
type ProcessingMode string

const (
	ModeMuteAgent ProcessingMode = "MUTE_AGENT"
	ModeDoNotMute ProcessingMode = "DO_NOT_MUTE"
)

// Config describes one externally callable action, the schema annotations
// the runner needs beyond a bare JSON Schema: where each argument goes,
// how it should be formatted, and how the call should be signed and
// dispatched.
type Config struct {
	Name        string
	Description string
	URL         string

	// ParameterLocations maps an argument name to where it is placed on
	// the request; a name absent from this map defaults to LocationBody.
	ParameterLocations map[string]ParameterLocation
	// ParameterFormats maps an argument name to a formatter (epoch_s,
	// epoch_ms, ...), applied before routing.
	ParameterFormats map[string]string

	SignatureSecret string
	Headers         map[string]string

	ProcessingMode ProcessingMode
	SpeakOnSend    bool
	SpeakOnReceive bool
	AsyncExecution bool
	WrapArguments  bool
}

// Agent is the call-session surface the runner needs around dispatch: a
// way to speak a canned message and to mute/unmute the caller-facing
// transcriber input while the action is in flight.
type Agent interface {
	Speak(text string)
	Mute()
	Unmute()
}

// Result is the outcome handed back to the LLM loop.
type Result struct {
	Success      bool
	Result       any
	AgentMessage string
}

// actionResponse is the expected shape of a successful action endpoint
// response body.
type actionResponse struct {
	Success      bool   `json:"success"`
	Result       any    `json:"result"`
	AgentMessage string `json:"agent_message"`
}

// Runner dispatches external actions over HTTP. It is stateless beyond
// the http client it wraps.
type Runner struct {
	http   *resty.Client
	logger commons.Logger
}

// NewRunner constructs a Runner around an existing resty client (so
// callers can share connection pooling/timeouts/retries across actions).
func NewRunner(client *resty.Client, logger commons.Logger) *Runner {
	return &Runner{http: client, logger: logger}
}

// Execute formats, routes, signs, and dispatches one action call. preamble
// is the LLM-authored message spoken to the caller before dispatch when
// cfg.SpeakOnSend is set. Transport failures are absorbed into a
// {success: false} Result and never returned as an error; schema/path
// violations (a missing path placeholder) return ArgumentError and the
// call aborts.
func (r *Runner) Execute(cfg Config, agent Agent, payload map[string]any, extraContext map[string]any, preamble string) (Result, error) {
	formatted := ApplyParameterFormats(r.logger, payload, cfg.ParameterFormats, extraContext)

	pathParams, queryParams, bodyParams := partition(formatted, cfg.ParameterLocations)

	requestURL, err := substitutePathParams(cfg.URL, pathParams)
	if err != nil {
		return Result{}, err
	}
	requestURL = appendQueryParams(requestURL, queryParams)

	if cfg.SpeakOnSend && preamble != "" {
		agent.Speak(preamble)
	}
	if cfg.ProcessingMode != ModeDoNotMute {
		agent.Mute()
	}
	defer agent.Unmute()

	body, err := buildBody(bodyParams, cfg.WrapArguments)
	if err != nil {
		return Result{}, fmt.Errorf("%w: encoding action body: %v", pkgerrors.ErrArgument, err)
	}

	if cfg.AsyncExecution {
		go r.dispatch(requestURL, cfg, body)
		return Result{Success: true, Result: map[string]any{"info": "success"}}, nil
	}

	res := r.dispatch(requestURL, cfg, body)
	if res.Success && res.AgentMessage != "" && cfg.SpeakOnReceive {
		agent.Speak(res.AgentMessage)
	}
	return res, nil
}

// dispatch performs the signed HTTP POST and translates any transport or
// protocol failure into a {success: false} Result rather than an error, so
// the agent loop can continue regardless of the endpoint's health.
func (r *Runner) dispatch(requestURL string, cfg Config, body []byte) Result {
	req := r.http.R().SetBody(body)
	for k, v := range cfg.Headers {
		req.SetHeader(k, v)
	}
	if cfg.SignatureSecret != "" {
		req.SetHeader("signature", signBody(cfg.SignatureSecret, body))
	}

	resp, err := req.Post(requestURL)
	if err != nil {
		if r.logger != nil {
			r.logger.Warnf("action %q transport error: %v", cfg.Name, err)
		}
		return Result{Success: false, Result: nil}
	}
	if resp.IsError() {
		if r.logger != nil {
			r.logger.Warnf("action %q returned status %d", cfg.Name, resp.StatusCode())
		}
		return Result{Success: false, Result: nil}
	}

	var parsed actionResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		if r.logger != nil {
			r.logger.Warnf("action %q returned malformed response: %v", cfg.Name, err)
		}
		return Result{Success: false, Result: nil}
	}
	return Result{Success: parsed.Success, Result: parsed.Result, AgentMessage: parsed.AgentMessage}
}

// partition splits payload into path/query/body buckets per locations,
// defaulting any unlisted key to the body.
func partition(payload map[string]any, locations map[string]ParameterLocation) (path, query, body map[string]any) {
	path = map[string]any{}
	query = map[string]any{}
	body = map[string]any{}
	for k, v := range payload {
		switch locations[k] {
		case LocationPath:
			path[k] = v
		case LocationQuery:
			query[k] = v
		default:
			body[k] = v
		}
	}
	return path, query, body
}

// substitutePathParams replaces every "{name}" placeholder in rawURL with
// its pathParams value. A placeholder with no matching param is an
// ArgumentError: the schema promised a value this payload never supplied.
func substitutePathParams(rawURL string, pathParams map[string]any) (string, error) {
	result := rawURL
	for name, value := range pathParams {
		placeholder := "{" + name + "}"
		result = strings.ReplaceAll(result, placeholder, toString(value))
	}
	if strings.Contains(result, "{") && strings.Contains(result, "}") {
		start := strings.Index(result, "{")
		end := strings.Index(result[start:], "}")
		if end >= 0 {
			missing := result[start+1 : start+end]
			return "", fmt.Errorf("%w: missing path parameter %q for action url %q", pkgerrors.ErrArgument, missing, rawURL)
		}
	}
	return result, nil
}

// appendQueryParams percent-encodes and appends query to url, choosing "?"
// or "&" depending on whether url already carries a query string.
func appendQueryParams(rawURL string, query map[string]any) string {
	if len(query) == 0 {
		return rawURL
	}

	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	values := make(url.Values, len(query))
	for _, k := range keys {
		values.Set(k, toString(query[k]))
	}
	encoded := values.Encode()

	separator := "?"
	if strings.Contains(rawURL, "?") {
		separator = "&"
	}
	return rawURL + separator + encoded
}

// buildBody serializes bodyParams, optionally wrapped as {"args": ...} per
// cfg.WrapArguments.
func buildBody(bodyParams map[string]any, wrap bool) ([]byte, error) {
	if wrap {
		return json.Marshal(map[string]any{"args": bodyParams})
	}
	return json.Marshal(bodyParams)
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	encoded, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return strings.Trim(string(encoded), `"`)
}
