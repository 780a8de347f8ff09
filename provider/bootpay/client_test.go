package bootpay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	readme "github.com/readmecorp/readme-server"
)

type fakeGateway struct {
	tokenRequests     int
	subscribeRequests int
	cancelledRefs     []string
	failSubscribe     bool
}

func (f *fakeGateway) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/request/token", func(w http.ResponseWriter, r *http.Request) {
		f.tokenRequests++

		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["application_id"] != "app-1" || body["private_key"] != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "access-token-1",
		})
	})

	mux.HandleFunc("/request/subscribe", func(w http.ResponseWriter, r *http.Request) {
		f.subscribeRequests++

		if r.Header.Get("Authorization") != "Bearer access-token-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if f.failSubscribe {
			w.WriteHeader(http.StatusBadGateway)
			return
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"billing_key": "billing-key-1",
		})
	})

	mux.HandleFunc("/subscribe/billing_key/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		f.cancelledRefs = append(f.cancelledRefs, r.URL.Path)
		w.WriteHeader(http.StatusOK)
	})

	return mux
}

func newTestClient(t *testing.T, gw *fakeGateway) (*Client, func()) {
	t.Helper()

	server := httptest.NewServer(gw.handler())

	client, err := NewClient(Config{
		BaseURL:       server.URL,
		ApplicationID: "app-1",
		PrivateKey:    "secret",
	})
	require.NoError(t, err)

	return client, server.Close
}

func testUserAndPlan() (*readme.User, *readme.Membership) {
	return &readme.User{ID: uuid.New(), Username: "reader@example.com"},
		&readme.Membership{ID: 1, Name: "premium", Price: 9900}
}

func TestClientRegisterRecurring(t *testing.T) {
	gw := &fakeGateway{}
	client, closeFn := newTestClient(t, gw)
	defer closeFn()

	user, plan := testUserAndPlan()

	ref, err := client.RegisterRecurring(context.Background(), user, plan)
	require.NoError(t, err)
	assert.Equal(t, "billing-key-1", ref)
	assert.Equal(t, 1, gw.tokenRequests)
}

func TestClientReusesAccessToken(t *testing.T) {
	gw := &fakeGateway{}
	client, closeFn := newTestClient(t, gw)
	defer closeFn()

	user, plan := testUserAndPlan()

	_, err := client.RegisterRecurring(context.Background(), user, plan)
	require.NoError(t, err)
	_, err = client.RegisterRecurring(context.Background(), user, plan)
	require.NoError(t, err)

	assert.Equal(t, 1, gw.tokenRequests)
	assert.Equal(t, 2, gw.subscribeRequests)
}

func TestClientRegisterRecurringGatewayError(t *testing.T) {
	gw := &fakeGateway{failSubscribe: true}
	client, closeFn := newTestClient(t, gw)
	defer closeFn()

	user, plan := testUserAndPlan()

	_, err := client.RegisterRecurring(context.Background(), user, plan)
	require.Error(t, err)

	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	assert.Equal(t, goerrors.CategoryExternal, richErr.Category)
	assert.Equal(t, http.StatusBadGateway, richErr.Metadata["status"])
}

func TestClientCancelRecurring(t *testing.T) {
	gw := &fakeGateway{}
	client, closeFn := newTestClient(t, gw)
	defer closeFn()

	err := client.CancelRecurring(context.Background(), "billing-key-1")
	require.NoError(t, err)
	require.Len(t, gw.cancelledRefs, 1)
	assert.Equal(t, "/subscribe/billing_key/billing-key-1", gw.cancelledRefs[0])
}

func TestClientCancelRecurringRequiresRef(t *testing.T) {
	gw := &fakeGateway{}
	client, closeFn := newTestClient(t, gw)
	defer closeFn()

	err := client.CancelRecurring(context.Background(), "")
	require.Error(t, err)
	assert.Zero(t, gw.tokenRequests)
}

func TestNewClientRequiresCredentials(t *testing.T) {
	_, err := NewClient(Config{})
	require.Error(t, err)
}
