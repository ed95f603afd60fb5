package httputils

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"boscoin.io/benor/lib/errors"
)

func TestStatusCode(t *testing.T) {
	require.Equal(t, http.StatusServiceUnavailable, StatusCode(errors.NodeStopped))
	require.Equal(t, http.StatusConflict, StatusCode(errors.NodeNotReady))
	require.Equal(t, http.StatusBadRequest, StatusCode(errors.InvalidPacketType.Clone().SetData("type", "X")))
	require.Equal(t, http.StatusInternalServerError, StatusCode(errors.StorageCoreError))
	require.Equal(t, http.StatusInternalServerError, StatusCode(fmt.Errorf("showme")))
}

func TestWriteJSONError(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, WriteJSONError(rec, errors.InvalidPacketRound.Clone().SetData("iteration", 0)))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, ContentTypeProblem, rec.Header().Get("Content-Type"))

	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	require.Equal(t, ProblemTypeError+"-108", m["type"])
	require.Equal(t, errors.InvalidPacketRound.Message, m["title"])
	require.Equal(t, float64(400), m["status"])
	require.Equal(t, map[string]interface{}{"iteration": float64(0)}, m["data"])
}

func TestProblem(t *testing.T) {
	p := NewDetailedStatusProblem(http.StatusBadRequest, "paramaters are not enough").
		SetInstance("http://boscoin.io/httperror/details/1")

	rec := httptest.NewRecorder()
	require.NoError(t, WriteJSON(rec, p.Status, p))
	require.Equal(t, ContentTypeProblem, rec.Header().Get("Content-Type"))

	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	require.Equal(t, ProblemTypeDefault, m["type"])
	require.Equal(t, "Bad Request", m["title"])
	require.Equal(t, p.Detail, m["detail"])
	require.Equal(t, p.Instance, m["instance"])
	require.Nil(t, m["data"])
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, WriteJSON(rec, http.StatusOK, map[string]int{"round": 3}))

	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.JSONEq(t, `{"round":3}`, rec.Body.String())
}

func TestProblemToError(t *testing.T) {
	{
		p := NewErrorProblem(errors.NodeStopped, http.StatusServiceUnavailable)
		err := p.ToError()
		require.True(t, errors.NodeStopped.Equal(err))
		require.Equal(t, errors.NodeStopped.Message, err.(*errors.Error).Message)
	}

	{
		p := NewErrorProblem(errors.InvalidPacketType.Clone().SetData("type", "X"), http.StatusBadRequest)
		err := p.ToError()
		require.True(t, errors.InvalidPacketType.Equal(err))
		require.Equal(t, "X", err.(*errors.Error).Data["type"])
	}

	{
		err := NewStatusProblem(http.StatusNotFound).ToError()
		_, ok := err.(*errors.Error)
		require.False(t, ok)
		require.Equal(t, "404: Not Found", err.Error())
	}
}
