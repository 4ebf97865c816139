package harness

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/launchdarkly/go-test-helpers/v2/httphelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sfgbrewery/beer-contract-tests/framework"
	"github.com/sfgbrewery/beer-contract-tests/framework/helpers"
)

const scenarioTestTimeout = time.Second * 5

func withScenario(t *testing.T, handler http.Handler, expected int, action func(*Scenario)) {
	httphelpers.WithServer(handler, func(server *httptest.Server) {
		action(NewScenario(newTestClient(t, server.URL), expected, framework.NullLogger()))
	})
}

func beerHandler() http.Handler {
	return httphelpers.HandlerWithJSONResponse(map[string]interface{}{"id": 1, "beerName": "Mango Bobs"}, nil)
}

func TestScenarioExpectedSuccess(t *testing.T) {
	withScenario(t, beerHandler(), 1, func(s *Scenario) {
		assert.Equal(t, ScenarioIdle, s.State())
		call := s.Dispatch(Get("/api/v2/beer/1"))
		s.OnSuccess(call, func(t helpers.TestContext, resp Response) {
			assert.Equal(t, "Mango Bobs", resp.JSONValue().GetByKey("beerName").StringValue())
		})

		var tr helpers.TestRecorder
		assert.True(t, s.Verify(&tr, scenarioTestTimeout))
		assert.Len(t, tr.ErrorMessages(), 0)
		assert.Equal(t, ScenarioVerified, s.State())
		assert.Equal(t, 0, s.Remaining())
	})
}

func TestScenarioExpectedFailure(t *testing.T) {
	withScenario(t, httphelpers.HandlerWithStatus(404), 1, func(s *Scenario) {
		call := s.Dispatch(Get("/api/v2/beer/1333"))
		s.OnFailure(call, func(t helpers.TestContext, err error) {
			assert.True(t, IsNotFound(err))
		})
		require.True(t, s.Await(scenarioTestTimeout))
		assert.Equal(t, ScenarioCompletedFailure, s.State())

		var tr helpers.TestRecorder
		assert.True(t, s.Verify(&tr, scenarioTestTimeout))
		assert.Len(t, tr.ErrorMessages(), 0)
	})
}

func TestScenarioCheckFailureIsReported(t *testing.T) {
	withScenario(t, beerHandler(), 1, func(s *Scenario) {
		call := s.Dispatch(Get("/api/v2/beer/1"))
		s.OnSuccess(call, func(t helpers.TestContext, resp Response) {
			assert.Equal(t, "JTs beer", resp.JSONValue().GetByKey("beerName").StringValue())
		})

		var tr helpers.TestRecorder
		assert.False(t, s.Verify(&tr, scenarioTestTimeout))
		failures := tr.ErrorMessages()
		require.Len(t, failures, 1)
		assert.Contains(t, failures[0], "Not equal")
		assert.Contains(t, failures[0], "GET /api/v2/beer/1 ("+call.ID()+")")
		assert.Equal(t, ScenarioVerified, s.State())
	})
}

func TestScenarioCheckFailNowStillCountsDown(t *testing.T) {
	withScenario(t, beerHandler(), 1, func(s *Scenario) {
		call := s.Dispatch(Get("/api/v2/beer/1"))
		s.OnSuccess(call, func(t helpers.TestContext, resp Response) {
			require.Equal(t, 201, resp.StatusCode)
			panic("not reached")
		})

		var tr helpers.TestRecorder
		assert.False(t, s.Verify(&tr, scenarioTestTimeout))
		assert.Equal(t, 0, s.Remaining())
		failures := tr.ErrorMessages()
		require.Len(t, failures, 1)
		assert.NotContains(t, failures[0], "not reached")
	})
}

func TestScenarioCheckPanicIsReported(t *testing.T) {
	withScenario(t, beerHandler(), 1, func(s *Scenario) {
		call := s.Dispatch(Get("/api/v2/beer/1"))
		s.OnSuccess(call, func(t helpers.TestContext, resp Response) {
			panic("boom")
		})

		var tr helpers.TestRecorder
		assert.False(t, s.Verify(&tr, scenarioTestTimeout))
		failures := tr.ErrorMessages()
		require.Len(t, failures, 1)
		assert.Contains(t, failures[0], "unexpected panic in completion check: boom")
	})
}

func TestScenarioWrongOutcomeDoesNotCountDown(t *testing.T) {
	withScenario(t, httphelpers.HandlerWithStatus(200), 1, func(s *Scenario) {
		call := s.Dispatch(Get("/api/v2/beer/1333"))
		s.OnFailure(call, nil)
		call.Await(scenarioTestTimeout)

		var tr helpers.TestRecorder
		assert.False(t, s.Verify(&tr, time.Millisecond*100))
		assert.Equal(t, ScenarioTimedOut, s.State())
		assert.Equal(t, 1, s.Remaining())
		failures := tr.ErrorMessages()
		require.Len(t, failures, 2)
		assert.Contains(t, failures[0], "expected GET /api/v2/beer/1333 to fail, but it succeeded with HTTP 200")
		assert.Equal(t, "timed out after 100ms with 1 of 1 expected completion(s) outstanding", failures[1])
	})
}

func TestScenarioTimesOutAndDiscardsLateCompletion(t *testing.T) {
	release := make(chan struct{})
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.WriteHeader(404)
	})
	server := httptest.NewServer(handler)
	defer server.Close()

	logger := &framework.CapturingLogger{}
	s := NewScenario(newTestClient(t, server.URL), 1, logger)
	call := s.Dispatch(Get("/api/v2/beer/1"))
	s.OnSuccess(call, func(t helpers.TestContext, resp Response) {})
	assert.Equal(t, ScenarioDispatched, s.State())

	var tr helpers.TestRecorder
	assert.False(t, s.Verify(&tr, time.Millisecond*50))
	assert.Equal(t, ScenarioTimedOut, s.State())
	assert.Equal(t, []string{"timed out after 50ms with 1 of 1 expected completion(s) outstanding"}, tr.ErrorMessages())

	close(release)
	require.True(t, call.Await(scenarioTestTimeout).IsDefined())
	logged := helpers.PollForSpecificResultValue(func() bool {
		for _, m := range logger.Output() {
			if m.Message == "["+call.ID()+"] Discarding late completion of GET /api/v2/beer/1" {
				return true
			}
		}
		return false
	}, scenarioTestTimeout, time.Millisecond*10, true)
	require.True(t, logged, "late completion was not logged")
	assert.Len(t, s.Failures(), 0)
	assert.Equal(t, ScenarioTimedOut, s.State())
}

func TestScenarioSequentialDispatchOnSameGate(t *testing.T) {
	handler := httphelpers.SequentialHandler(httphelpers.HandlerWithStatus(204), beerHandler())
	withScenario(t, handler, 2, func(s *Scenario) {
		put := s.Dispatch(Put("/api/v2/beer/1", map[string]string{"beerName": "JTs beer"}))
		s.OnSuccess(put, nil)
		require.True(t, s.AwaitCall(put, scenarioTestTimeout))

		get := s.Dispatch(Get("/api/v2/beer/1"))
		s.OnSuccess(get, func(t helpers.TestContext, resp Response) {
			assert.Equal(t, 200, resp.StatusCode)
		})

		var tr helpers.TestRecorder
		assert.True(t, s.Verify(&tr, scenarioTestTimeout))
		assert.Len(t, tr.ErrorMessages(), 0)
	})
}

func TestScenarioChainedDispatchOnSameGate(t *testing.T) {
	handler := httphelpers.SequentialHandler(httphelpers.HandlerWithStatus(204), httphelpers.HandlerWithStatus(404))
	withScenario(t, handler, 2, func(s *Scenario) {
		del := s.Dispatch(Delete("/api/v2/beer/3"))
		s.OnSuccess(del, nil)
		fetch := del.Then(func(Response) *Call {
			return s.Dispatch(Get("/api/v2/beer/3"))
		})
		s.OnFailure(fetch, func(t helpers.TestContext, err error) {
			assert.True(t, IsNotFound(err))
		})

		var tr helpers.TestRecorder
		assert.True(t, s.Verify(&tr, scenarioTestTimeout))
		assert.Len(t, tr.ErrorMessages(), 0)
	})
}

func TestScenarioStaysDispatchedWhileSecondRequestIsInFlight(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	handler := httphelpers.SequentialHandler(
		httphelpers.HandlerWithStatus(204),
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-release
			w.WriteHeader(200)
		}),
	)
	withScenario(t, handler, 2, func(s *Scenario) {
		put := s.Dispatch(Put("/api/v2/beer/1", map[string]string{"beerName": "JTs beer"}))
		s.OnSuccess(put, nil)
		require.True(t, s.AwaitCall(put, scenarioTestTimeout))

		get := s.Dispatch(Get("/api/v2/beer/1"))
		s.OnSuccess(get, nil)
		assert.False(t, s.Await(time.Millisecond*50))
		assert.Equal(t, ScenarioDispatched, s.State())

		release <- struct{}{}
		var tr helpers.TestRecorder
		assert.True(t, s.Verify(&tr, scenarioTestTimeout))
		assert.Equal(t, ScenarioVerified, s.State())
	})
}

func TestScenarioChainedFailureNamesDependentRequest(t *testing.T) {
	handler := httphelpers.SequentialHandler(httphelpers.HandlerWithStatus(204), beerHandler())
	withScenario(t, handler, 2, func(s *Scenario) {
		del := s.Dispatch(Delete("/api/v2/beer/3"))
		s.OnSuccess(del, nil)
		fetch := del.Then(func(Response) *Call {
			return s.Dispatch(Get("/api/v2/beer/3"))
		})
		s.OnFailure(fetch, nil)

		var tr helpers.TestRecorder
		assert.False(t, s.Verify(&tr, time.Millisecond*500))
		failures := tr.ErrorMessages()
		require.Len(t, failures, 2)
		assert.Contains(t, failures[0], "expected GET /api/v2/beer/3 to fail, but it succeeded with HTTP 200")
		assert.NotEqual(t, del.ID(), fetch.ID())
		assert.Contains(t, failures[0], "Request:\tGET /api/v2/beer/3 ("+fetch.ID()+")")
		assert.NotContains(t, failures[0], del.ID())
	})
}

func TestScenarioStateString(t *testing.T) {
	assert.Equal(t, "idle", ScenarioIdle.String())
	assert.Equal(t, "timed out", ScenarioTimedOut.String())
	assert.Equal(t, "ScenarioState(99)", ScenarioState(99).String())
}
