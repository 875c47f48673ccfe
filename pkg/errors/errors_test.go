package errors

import (
	"errors"
	"net/http"
	"testing"
)

func TestAppError_ErrorAndUnwrap(t *testing.T) {
	err := New(ErrStillIndexing, http.StatusServiceUnavailable, "index is not yet installed")
	if err.Error() != "still-indexing: index is not yet installed" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, ErrStillIndexing) {
		t.Errorf("expected errors.Is to unwrap to ErrStillIndexing")
	}
}

func TestNewf_FormatsMessage(t *testing.T) {
	err := Newf(ErrQueryTooLong, http.StatusBadRequest, "query has %d terms, maximum is %d", 12, 10)
	if err.Message != "query has 12 terms, maximum is 10" {
		t.Errorf("Message = %q", err.Message)
	}
}

func TestHTTPStatusCode_AppErrorUsesItsOwnCode(t *testing.T) {
	err := New(ErrBacklogExceeded, http.StatusServiceUnavailable, "worker backlog exceeded")
	if got := HTTPStatusCode(err); got != http.StatusServiceUnavailable {
		t.Errorf("HTTPStatusCode = %d, want %d", got, http.StatusServiceUnavailable)
	}
}

func TestHTTPStatusCode_BareSentinels(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{ErrStillIndexing, http.StatusServiceUnavailable},
		{ErrBacklogExceeded, http.StatusServiceUnavailable},
		{ErrPoolUnavailable, http.StatusServiceUnavailable},
		{ErrQueryTooLong, http.StatusBadRequest},
		{ErrEmptyQuery, http.StatusBadRequest},
		{ErrAlreadyIndexing, http.StatusOK},
		{ErrUnauthorized, http.StatusUnauthorized},
		{ErrRateLimited, http.StatusTooManyRequests},
		{ErrWorkerNotRunning, http.StatusInternalServerError},
		{errors.New("unrecognized"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		if got := HTTPStatusCode(c.err); got != c.want {
			t.Errorf("HTTPStatusCode(%v) = %d, want %d", c.err, got, c.want)
		}
	}
}
