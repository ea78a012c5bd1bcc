package email

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Send(t *testing.T) {
	var got Message
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/emails", r.URL.Path)
		assert.Equal(t, "Bearer re_test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":"email-123"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "re_test")
	id, err := c.Send(context.Background(), Message{
		From:    "B2BNest <n@b2bnest.com>",
		To:      []string{"a@example.com"},
		Subject: "Hello",
		HTML:    "<p>hi</p>",
	})
	require.NoError(t, err)
	assert.Equal(t, "email-123", id)
	assert.Equal(t, []string{"a@example.com"}, got.To)
	assert.Equal(t, "Hello", got.Subject)
}

func TestClient_SendErrors(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		_, err := NewClient("http://unused", "").Send(context.Background(), Message{})
		assert.ErrorIs(t, err, ErrNotConfigured)
	})

	t.Run("provider rejects", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"message":"invalid to"}`))
		}))
		defer srv.Close()

		_, err := NewClient(srv.URL, "key").Send(context.Background(), Message{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "422")
	})
}
