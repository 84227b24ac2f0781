package classifier

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/leadbasehq/leadbase/shared"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	var gotAuth string

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"status":"interested","confidence":0.92,"reasoning":"asked for an offer"}`))
	}))
	defer ts.Close()

	client := NewClient(shared.ClassifierConfig{URL: ts.URL, APIKey: "secret"})
	assert.True(t, client.Enabled())

	analysis, err := client.Classify(context.Background(), "Sure, what's your offer?")
	assert.Nil(t, err)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "interested", analysis.Status)
	assert.True(t, analysis.Conclusive())
}

func TestClassifyNonOKStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	client := NewClient(shared.ClassifierConfig{URL: ts.URL})

	_, err := client.Classify(context.Background(), "stop texting me")
	assert.NotNil(t, err)
}

func TestConclusive(t *testing.T) {
	assert.False(t, (&Analysis{Status: "interested", Confidence: 0.7}).Conclusive(),
		"The threshold itself is not conclusive")
	assert.True(t, (&Analysis{Status: "interested", Confidence: 0.71}).Conclusive())
	assert.False(t, (&Analysis{Status: "", Confidence: 0.99}).Conclusive())
}

func TestEnabled(t *testing.T) {
	assert.False(t, NewClient(shared.ClassifierConfig{}).Enabled())
}
