package handler

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stemsi/kuisku-participant/internal/response"
	"github.com/stemsi/kuisku-participant/internal/session"
)

func TestMapSessionError(t *testing.T) {
	cases := []struct {
		err        error
		wantStatus int
		wantCode   response.ErrCode
	}{
		{session.ErrRuntimeClosed, http.StatusNotFound, response.ErrNoRuntime},
		{session.ErrSessionCompleted, http.StatusConflict, response.ErrSessionCompleted},
		{session.ErrPhaseMismatch, http.StatusConflict, response.ErrPhaseMismatch},
		{session.ErrQuestionNotReady, http.StatusConflict, response.ErrQuestionNotReady},
		{session.ErrAlreadySubmitted, http.StatusConflict, response.ErrAlreadySubmitted},
		{session.ErrSubmissionGated, http.StatusUnprocessableEntity, response.ErrSubmissionGated},
		{session.ErrNavigationDenied, http.StatusForbidden, response.ErrNavigationDenied},
		{session.ErrActionInFlight, http.StatusConflict, response.ErrActionInFlight},
		{session.ErrNotCodeQuestion, http.StatusConflict, response.ErrNotCodeQuestion},
		{session.ErrAnalysisDenied, http.StatusConflict, response.ErrAnalysisDenied},
		{session.ErrInvalidOption, http.StatusBadRequest, response.ErrInvalidPayload},
		{errors.New("anything else"), http.StatusInternalServerError, response.ErrInternal},
		// Wrapped sentinels must still map.
		{fmt.Errorf("op: %w", session.ErrSubmissionGated), http.StatusUnprocessableEntity, response.ErrSubmissionGated},
	}
	for _, tc := range cases {
		status, code := mapSessionError(tc.err)
		if status != tc.wantStatus || code != tc.wantCode {
			t.Errorf("mapSessionError(%v) = (%d, %s), want (%d, %s)",
				tc.err, status, code, tc.wantStatus, tc.wantCode)
		}
	}
}
