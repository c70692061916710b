package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type NotifierSuite struct {
	suite.Suite
}

func TestNotifierSuite(t *testing.T) {
	suite.Run(t, new(NotifierSuite))
}

func (s *NotifierSuite) TestSendConfirmation() {
	var got sendRequest
	var gotAuth, gotPath string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.Method + " " + r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		s.Require().NoError(json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(Config{
		BaseURL:   server.URL,
		Sender:    "newsletter@missive.test",
		AuthToken: "secret-token",
		Timeout:   time.Second,
	})

	link := "https://missive.test/subscriptions/confirm?subscription_token=tok123"
	err := client.SendConfirmation(context.Background(), "alice@example.com", "Alice", link)
	s.Require().NoError(err)

	s.Equal("POST /email", gotPath)
	s.Equal("Bearer secret-token", gotAuth)
	s.Equal("newsletter@missive.test", got.From)
	s.Equal("alice@example.com", got.To)
	s.Equal(confirmationSubject, got.Subject)
	s.Contains(got.HTMLBody, link)
	s.Contains(got.HTMLBody, "Alice")
	s.Contains(got.TextBody, link)
}

func (s *NotifierSuite) TestSendConfirmationEscapesName() {
	var got sendRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.Require().NoError(json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, Sender: "newsletter@missive.test"})

	err := client.SendConfirmation(context.Background(), "alice@example.com", "Alice & Bob", "https://missive.test/c")
	s.Require().NoError(err)
	s.Contains(got.HTMLBody, "Alice &amp; Bob")
}

func (s *NotifierSuite) TestProviderErrorSurfaces() {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "invalid recipient"})
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, Sender: "newsletter@missive.test"})

	err := client.SendConfirmation(context.Background(), "alice@example.com", "Alice", "https://missive.test/c")
	s.Require().Error(err)
	s.Contains(err.Error(), "422")
	s.Contains(err.Error(), "invalid recipient")
}

func (s *NotifierSuite) TestTimeout() {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, Sender: "newsletter@missive.test", Timeout: 20 * time.Millisecond})

	err := client.SendConfirmation(context.Background(), "alice@example.com", "Alice", "https://missive.test/c")
	s.Require().Error(err)
}
