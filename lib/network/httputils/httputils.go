package httputils

import (
	"encoding/json"
	"net/http"
	"strconv"

	"boscoin.io/benor/lib/errors"
)

const ContentTypeProblem = "application/problem+json"

var (
	ErrorsToStatus = map[uint]int{
		errors.NodeStopped.Code:           http.StatusServiceUnavailable,
		errors.NodeNotReady.Code:          http.StatusConflict,
		errors.UnknownNode.Code:           http.StatusNotFound,
		errors.PacketFromUnknownNode.Code: http.StatusBadRequest,
		errors.InvalidPacketFormat.Code:   http.StatusBadRequest,
		errors.InvalidPacketType.Code:     http.StatusBadRequest,
		errors.InvalidPacketContent.Code:  http.StatusBadRequest,
		errors.InvalidPacketRound.Code:    http.StatusBadRequest,
		errors.UnknownMessageType.Code:    http.StatusBadRequest,
	}
)

func StatusCode(err error) int {
	if e, ok := err.(*errors.Error); ok {
		if status, found := ErrorsToStatus[e.Code]; found {
			return status
		}
	}
	return http.StatusInternalServerError
}

// WriteJSON writes the value v to the http response as json encoding. An
// error value is rendered as a `Problem`.
func WriteJSON(w http.ResponseWriter, code int, v interface{}) error {
	if e, ok := v.(error); ok {
		w.Header().Set("Content-Type", ContentTypeProblem)
		v = NewErrorProblem(e, code)
	} else if _, ok := v.(Problem); ok {
		w.Header().Set("Content-Type", ContentTypeProblem)
	} else {
		w.Header().Set("Content-Type", "application/json")
	}

	bs, err := json.Marshal(v)
	if err != nil {
		return err
	}

	w.WriteHeader(code)
	if _, err := w.Write(bs); err != nil {
		return err
	}

	return nil
}

func WriteJSONError(w http.ResponseWriter, err error) error {
	return WriteJSON(w, StatusCode(err), err)
}

func uintToString(i uint) string {
	return strconv.FormatUint(uint64(i), 10)
}
