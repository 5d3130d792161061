// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package action

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/rapidaai/pkg/errors"
)

type fakeAgent struct {
	spoken      []string
	muted       bool
	muteCalls   int
	unmuteCalls int
}

func (a *fakeAgent) Speak(text string) { a.spoken = append(a.spoken, text) }
func (a *fakeAgent) Mute()             { a.muted = true; a.muteCalls++ }
func (a *fakeAgent) Unmute()           { a.muted = false; a.unmuteCalls++ }

func TestPartition_RoutesByLocation(t *testing.T) {
	locations := map[string]ParameterLocation{"id": LocationPath, "q": LocationQuery}
	payload := map[string]any{"id": "7", "q": "a b", "body": "hi"}

	path, query, body := partition(payload, locations)

	assert.Equal(t, map[string]any{"id": "7"}, path)
	assert.Equal(t, map[string]any{"q": "a b"}, query)
	assert.Equal(t, map[string]any{"body": "hi"}, body, "unlisted keys default to the body")
}

func TestSubstitutePathParams_ScenarioS5(t *testing.T) {
	got, err := substitutePathParams("https://x/v1/users/{id}", map[string]any{"id": "7"})
	require.NoError(t, err)
	assert.Equal(t, "https://x/v1/users/7", got)
}

func TestSubstitutePathParams_MissingPlaceholderIsArgumentError(t *testing.T) {
	_, err := substitutePathParams("https://x/v1/users/{id}", map[string]any{})
	require.Error(t, err)
	assert.ErrorIs(t, err, pkgerrors.ErrArgument)
}

func TestAppendQueryParams_ScenarioS5(t *testing.T) {
	got := appendQueryParams("https://x/v1/users/7", map[string]any{"q": "a b"})
	assert.Equal(t, "https://x/v1/users/7?q=a+b", got)
}

func TestAppendQueryParams_UsesAmpersandWhenURLAlreadyHasQuery(t *testing.T) {
	got := appendQueryParams("https://x/y?existing=1", map[string]any{"q": "v"})
	assert.Equal(t, "https://x/y?existing=1&q=v", got)
}

func TestAppendQueryParams_NoQueryParamsReturnsURLUnchanged(t *testing.T) {
	got := appendQueryParams("https://x/y", map[string]any{})
	assert.Equal(t, "https://x/y", got)
}

func TestBuildBody_ScenarioS5_PlainAndWrapped(t *testing.T) {
	plain, err := buildBody(map[string]any{"body": "hi"}, false)
	require.NoError(t, err)
	assert.JSONEq(t, `{"body":"hi"}`, string(plain))

	wrapped, err := buildBody(map[string]any{"body": "hi"}, true)
	require.NoError(t, err)
	assert.JSONEq(t, `{"args":{"body":"hi"}}`, string(wrapped))
}

func TestSignBody_IsDeterministicAndKeyDependent(t *testing.T) {
	body := []byte(`{"a":1}`)
	s1 := signBody("secret-a", body)
	s2 := signBody("secret-a", body)
	s3 := signBody("secret-b", body)

	assert.Equal(t, s1, s2)
	assert.NotEqual(t, s1, s3)
}

func newTestRunner(t *testing.T, handler http.HandlerFunc) (*Runner, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	client := resty.New()
	return NewRunner(client, nil), server
}

func TestExecute_SyncDispatch_SignsAndRoutesArguments(t *testing.T) {
	var gotQuery, gotSignature string
	var gotBody map[string]any

	runner, server := newTestRunner(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		gotSignature = r.Header.Get("signature")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"result":{"ok":true}}`))
	})
	defer server.Close()

	cfg := Config{
		Name:               "lookup_user",
		URL:                server.URL + "/v1/users/{id}",
		ParameterLocations: map[string]ParameterLocation{"id": LocationPath, "q": LocationQuery},
		SignatureSecret:    "shh",
	}
	agent := &fakeAgent{}

	res, err := runner.Execute(cfg, agent, map[string]any{"id": "7", "q": "a b", "body": "hi"}, nil, "")

	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "q=a+b", gotQuery)
	assert.NotEmpty(t, gotSignature)
	assert.Equal(t, map[string]any{"body": "hi"}, gotBody)
	assert.Equal(t, 1, agent.muteCalls)
	assert.Equal(t, 1, agent.unmuteCalls)
	assert.False(t, agent.muted, "must be unmuted by the time Execute returns")
}

func TestExecute_TransportErrorYieldsFailureResultNotError(t *testing.T) {
	runner, server := newTestRunner(t, func(w http.ResponseWriter, r *http.Request) {})
	server.Close() // force a connection error

	cfg := Config{Name: "broken", URL: server.URL + "/x"}
	agent := &fakeAgent{}

	res, err := runner.Execute(cfg, agent, map[string]any{}, nil, "")

	require.NoError(t, err, "transport failures never surface as an error")
	assert.False(t, res.Success)
	assert.Nil(t, res.Result)
	assert.Equal(t, 1, agent.unmuteCalls, "must still unmute on failure")
}

func TestExecute_AsyncExecutionReturnsImmediately(t *testing.T) {
	reached := make(chan struct{}, 1)
	runner, server := newTestRunner(t, func(w http.ResponseWriter, r *http.Request) {
		reached <- struct{}{}
		w.Write([]byte(`{"success":true,"result":null}`))
	})
	defer server.Close()

	cfg := Config{Name: "fire_and_forget", URL: server.URL, AsyncExecution: true}
	agent := &fakeAgent{}

	res, err := runner.Execute(cfg, agent, map[string]any{}, nil, "")

	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, map[string]any{"info": "success"}, res.Result)

	select {
	case <-reached:
	case <-time.After(2 * time.Second):
		t.Fatal("async request never reached the server")
	}
}

func TestExecute_SpeaksPreambleOnSendAndAgentMessageOnReceive(t *testing.T) {
	runner, server := newTestRunner(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"result":null,"agent_message":"all set"}`))
	})
	defer server.Close()

	cfg := Config{Name: "book_it", URL: server.URL, SpeakOnSend: true, SpeakOnReceive: true}
	agent := &fakeAgent{}

	res, err := runner.Execute(cfg, agent, map[string]any{}, nil, "One moment while I book that.")

	require.NoError(t, err)
	assert.True(t, res.Success)
	require.Len(t, agent.spoken, 2)
	assert.Equal(t, "One moment while I book that.", agent.spoken[0])
	assert.Equal(t, "all set", agent.spoken[1])
}

func TestExecute_DoNotMuteModeSkipsMuting(t *testing.T) {
	runner, server := newTestRunner(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"result":null}`))
	})
	defer server.Close()

	cfg := Config{Name: "passive", URL: server.URL, ProcessingMode: ModeDoNotMute}
	agent := &fakeAgent{}

	_, err := runner.Execute(cfg, agent, map[string]any{}, nil, "")

	require.NoError(t, err)
	assert.Equal(t, 0, agent.muteCalls)
	assert.Equal(t, 1, agent.unmuteCalls, "unmute still fires unconditionally")
}
