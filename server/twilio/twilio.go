package twilio

import (
	"net/url"
	"strings"

	"github.com/leadbasehq/leadbase/server/logger"
	"github.com/leadbasehq/leadbase/shared"
	"github.com/twilio/twilio-go"
	twilioUtil "github.com/twilio/twilio-go/client"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

var logg = logger.NewLogger()

type ClientWrapper struct {
	client           *twilio.RestClient
	config           shared.TwilioConfig
	requestValidator twilioUtil.RequestValidator
	webhookBaseURL   string
	testMode         bool
}

// NewClient wraps the twilio sdk client. With 'testMode' set, SendMessage
// only logs - no real API calls are made.
func NewClient(config shared.TwilioConfig, appURL string, testMode bool) *ClientWrapper {
	client := twilio.NewRestClientWithParams(twilio.RestClientParams{
		Username: config.AccountSid,
		Password: config.AuthToken,
	})

	return &ClientWrapper{
		client:           client,
		config:           config,
		webhookBaseURL:   appURL,
		requestValidator: twilioUtil.NewRequestValidator(config.AuthToken),
		testMode:         testMode,
	}
}

// SendMessage sends 'msg' to the 'to' number. When 'from' is blank the
// messaging service picks the sender.
func (cw *ClientWrapper) SendMessage(from, to, msg string) error {
	if cw.testMode {
		logg.Infof("test mode - skipping sms to %v: %v", to, msg)
		return nil
	}

	params := &openapi.CreateMessageParams{}
	params.SetMessagingServiceSid(cw.config.MessagingServiceSid)
	if from != "" {
		params.SetFrom(from)
	}
	params.SetTo(to)
	params.SetBody(msg)

	resp, err := cw.client.ApiV2010.CreateMessage(params)
	if err != nil {
		return err
	}

	if resp.ErrorMessage != nil && *resp.ErrorMessage != "" {
		logg.Warnf("sms to %v accepted with error message: %v", to, *resp.ErrorMessage)
	}

	return nil
}

// ValidateRequest verifies the signature on an inbound sms webhook.
func (cw *ClientWrapper) ValidateRequest(path string, urlValues url.Values, expectedSignature string) bool {
	if cw.testMode {
		return true
	}

	// Get 'urlValues' as map[string]string so it's compatible with twilio request validator
	params := make(map[string]string)
	for key, val := range urlValues {
		params[key] = strings.Join(val, ",")
	}

	return cw.requestValidator.Validate(fullRequestURL(cw.webhookBaseURL, path), params, expectedSignature)
}

func fullRequestURL(appURL, path string) string {
	refinedURL := strings.TrimSuffix(appURL, "/")

	// Set default scheme to https
	if !strings.HasPrefix(refinedURL, "http") {
		refinedURL = "https://" + refinedURL
	}

	return refinedURL + path
}
