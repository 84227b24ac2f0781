package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator"
	"github.com/golang-jwt/jwt"
	"github.com/leadbasehq/leadbase/server/auth"
	"github.com/leadbasehq/leadbase/server/models"
	"github.com/leadbasehq/leadbase/server/work"
)

type RequestContextKey string

type DecodedJWT struct {
	Claims   *auth.LeadbaseTokenClaims
	ErrorMsg string
}

// ---------------------------------------------------------------------------------//
// Handler Helper functions
// --------------------------------------------------------------------------------//

func writeResponse(rw http.ResponseWriter, payLoad ResponsePayload, statusCode int) {
	if statusCode >= http.StatusInternalServerError {
		logg.Error(payLoad.Errors)
	}

	if statusCode >= http.StatusBadRequest {
		logg.Info(payLoad.Errors)
	}

	rw.WriteHeader(statusCode)
	json.NewEncoder(rw).Encode(payLoad)
}

func removeUnknownFields(args map[string]interface{}, validFields map[string]bool) {
	for key := range args {
		if !validFields[key] {
			delete(args, key)
		}
	}
}

func parseUint(value string) uint {
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0
	}
	return uint(parsed)
}

func parsePage(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// requestUserID resolves the id of the user making the request from the
// decoded token stashed in the request context.
func requestUserID(r *http.Request) uint {
	decodedJWT, ok := r.Context().Value(RequestContextKey("decodedJWT")).(DecodedJWT)
	if !ok || decodedJWT.Claims == nil {
		return 0
	}
	return parseUint(decodedJWT.Claims.Subject)
}

func jwtStandardClaims(subject string) jwt.StandardClaims {
	return jwt.StandardClaims{
		Subject:   subject,
		IssuedAt:  time.Now().Unix(),
		ExpiresAt: time.Now().Add(TOKEN_TTL).Unix(),
	}
}

// pickGatewayNumber selects the outbound number for the user's next
// send, rotating through the configured gateway numbers based on how
// many messages have gone out since local midnight.
func pickGatewayNumber(userID uint) (string, error) {
	setting, err := models.FindMessageSetting(userID)
	if err != nil {
		return "", err
	}

	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	priorSends, err := models.OutboundMessageCountSince(userID, midnight)
	if err != nil {
		return "", err
	}

	number := setting.PickGatewayNumber(priorSends)
	if number == "" {
		return "", fmt.Errorf("no gateway number configured for user %v", userID)
	}

	return number, nil
}

// classifyInboundMessage runs the reply through the classifier & applies
// a conclusive verdict to the sender's most recently linked property.
// Classification failures are logged, never surfaced to the webhook.
func classifyInboundMessage(r *http.Request, contact *models.Contact, message *models.Message) {
	if !classifierClient.Enabled() {
		return
	}

	analysis, err := classifierClient.Classify(r.Context(), message.Body)
	if err != nil {
		logg.Errorf("classifyInboundMessage: %v", err)
		return
	}

	if !analysis.Conclusive() || !models.IsLeadStatus(analysis.Status) {
		return
	}

	err = message.RecordAnalysis(analysis.Status, analysis.Confidence, analysis.Reasoning)
	if err != nil {
		logg.Errorf("classifyInboundMessage: %v", err)
		return
	}

	properties, err := contact.Properties()
	if err != nil || len(properties) == 0 {
		return
	}

	err = models.SetPropertyStatus(
		contact.WorkspaceID, properties[0].ID, analysis.Status, models.AI_STATUS_SOURCE, analysis.Confidence)
	if err != nil {
		logg.Errorf("classifyInboundMessage: %v", err)
	}
}

func importJobParams(batch *models.ImportBatch) work.JobParams {
	return work.JobParams{
		Name:    fmt.Sprintf("import_batch_%v", batch.ID),
		Handler: IMPORT_BATCH_HANDLER,
		Unique:  true,
		Args:    map[string]interface{}{"batch_id": float64(batch.ID)},
	}
}

func lastNDates(n int) []string {
	dates := make([]string, 0, n)
	for i := n - 1; i >= 0; i-- {
		dates = append(dates, time.Now().AddDate(0, 0, -i).Format("2006-01-02"))
	}
	return dates
}

func RegisterValidators(validate *validator.Validate) error {
	err := validate.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		// if whitespace in password return false
		err := validate.Var(fl.Field().String(), "contains= ")
		if err == nil {
			return false
		}
		return len(fl.Field().String()) > 0
	})
	if err != nil {
		return err
	}

	err = validate.RegisterValidation("time_stamp", func(fl validator.FieldLevel) bool {
		timeSegments := strings.Split(fl.Field().String(), ":")
		if len(timeSegments) < 2 {
			return false
		}

		hour, err := strconv.Atoi(timeSegments[0])
		if err != nil {
			return false
		}

		minute, err := strconv.Atoi(timeSegments[1])
		if err != nil {
			return false
		}

		err = validate.Var(hour, "min=0,max=23")
		if err != nil {
			return false
		}

		err = validate.Var(minute, "min=0,max=59")
		return err == nil
	})
	if err != nil {
		return err
	}

	return nil
}

// ---------------------------------------------------------------------------------//
// Middleware Helper functions
// --------------------------------------------------------------------------------//

func decodeAndVerifyAuthHeader(authHeaderValue string) DecodedJWT {
	authHeaderList := strings.Split(authHeaderValue, "Bearer ")
	if len(authHeaderList) < 2 {
		return DecodedJWT{ErrorMsg: "no token provided"}
	}

	tokenClaims, err := auth.DecodeJWT(authHeaderList[1], authKeyPair)
	if err != nil {
		return DecodedJWT{ErrorMsg: "invalid token provided"}
	}

	// validate that the user account still exists
	_, err = models.FindUserBy("id", tokenClaims.Subject)
	if err != nil {
		return DecodedJWT{ErrorMsg: "invalid token provided"}
	}

	return DecodedJWT{Claims: tokenClaims}
}
