package directory

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetUserByUsername(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/users/padimaster", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"username":"padimaster","wallet_address":"0x1fb249bfa4ffB9fa98529692889d38359a57294D"}`))
	}))
	defer srv.Close()

	d := NewHTTPDirectory(srv.URL)
	user, err := d.GetUserByUsername(context.Background(), "padimaster")
	require.NoError(t, err)
	assert.Equal(t, "padimaster", user.Username)
	assert.Equal(t, "0x1fb249bfa4ffB9fa98529692889d38359a57294D", user.Address)
}

func TestGetUserInfoRetriesTransientFailures(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"username":"tester","wallet_address":"0xabc"}`))
	}))
	defer srv.Close()

	d := NewHTTPDirectory(srv.URL)
	user, err := d.GetUserInfo(context.Background(), "0xabc")
	require.NoError(t, err)
	assert.Equal(t, "tester", user.Username)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestGetUserGivesUpAfterRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	d := NewHTTPDirectory(srv.URL)
	_, err := d.GetUserByUsername(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, int32(maxRetries+1), atomic.LoadInt32(&calls))
}
