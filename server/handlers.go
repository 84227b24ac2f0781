package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/leadbasehq/leadbase/server/auth"
	"github.com/leadbasehq/leadbase/server/auth/key"
	"github.com/leadbasehq/leadbase/server/models"
	"gorm.io/gorm"
)

type ResponsePayload struct {
	Errors  []string    `json:"errors,omitempty"`
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Paging  interface{} `json:"paging,omitempty"`
}

const TOKEN_TTL = 15 * time.Minute

// ---------------------------------------------------------------------------------//
// Auth & user handlers
// --------------------------------------------------------------------------------//

func logIn(rw http.ResponseWriter, r *http.Request) {
	data := make(map[string]string)
	decoder := json.NewDecoder(r.Body)
	decoder.Decode(&data)

	passwordHash, err := models.FindUserPassword(data["email"])
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	if !auth.CheckPasswordHash(data["password"], passwordHash) {
		writeResponse(rw, ResponsePayload{Errors: []string{"email/password is invalid"}}, http.StatusUnauthorized)
		return
	}

	user, err := models.FindUserBy("email", data["email"])
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	isAdmin, err := user.IsAdmin()
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	token, err := auth.EncodeJWT(auth.LeadbaseTokenClaims{
		FirstName:      user.FirstName,
		LastName:       user.LastName,
		WorkspaceID:    user.WorkspaceID,
		IsAdmin:        isAdmin,
		StandardClaims: jwtStandardClaims(fmt.Sprint(user.ID)),
	}, authKeyPair)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	json.NewEncoder(rw).Encode(ResponsePayload{Success: true, Data: map[string]string{"token": token}})
}

func jwks(rw http.ResponseWriter, r *http.Request) {
	keyPairJWK, err := authKeyPair.JWK()
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	json.NewEncoder(rw).Encode(key.ExportJWKAsJWKS(keyPairJWK))
}

func createUser(rw http.ResponseWriter, r *http.Request) {
	data := models.User{}
	decoder := json.NewDecoder(r.Body)

	err := decoder.Decode(&data)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	errs := validate.Struct(data)
	if errs != nil {
		writeResponse(rw, ResponsePayload{Errors: strings.Split(errs.Error(), "\n")}, http.StatusBadRequest)
		return
	}

	err = models.CreateUser(&data)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	json.NewEncoder(rw).Encode(ResponsePayload{Success: true})
}

func findUser(rw http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	user, err := models.FindUserWithMessageSetting(vars["id"])
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusNotFound)
		return
	}

	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	json.NewEncoder(rw).Encode(ResponsePayload{Success: true, Data: user})
}

func updateUser(rw http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	data := make(map[string]interface{})
	decoder := json.NewDecoder(r.Body)

	err := decoder.Decode(&data)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	removeUnknownFields(data, map[string]bool{"first_name": true, "last_name": true, "password": true})
	if len(data) <= 0 {
		writeResponse(rw, ResponsePayload{Errors: []string{"valid fields required"}}, http.StatusBadRequest)
		return
	}

	if data["password"] != nil && strings.TrimSpace(fmt.Sprintf("%v", data["password"])) == "" {
		writeResponse(rw, ResponsePayload{Errors: []string{"password cannot be empty"}}, http.StatusBadRequest)
		return
	}

	user := models.User{}
	user.ID = parseUint(vars["id"])
	err = user.Update(data)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	json.NewEncoder(rw).Encode(ResponsePayload{Success: true})
}

func deleteUser(rw http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	err := models.DeleteUser(vars["id"])
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	json.NewEncoder(rw).Encode(ResponsePayload{Success: true})
}

// ---------------------------------------------------------------------------------//
// Message settings & eligibility handlers
// --------------------------------------------------------------------------------//

func findMessageSettings(rw http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	setting, err := models.FindMessageSetting(vars["id"])
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusNotFound)
		return
	}

	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	json.NewEncoder(rw).Encode(ResponsePayload{Success: true, Data: setting})
}

func updateMessageSettings(rw http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var errs []string
	data := make(map[string]interface{})
	decoder := json.NewDecoder(r.Body)

	err := decoder.Decode(&data)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	removeUnknownFields(data, map[string]bool{
		"daily_message_limit": true,
		"window_start":        true,
		"window_end":          true,
		"gateway_number_1":    true,
		"gateway_number_2":    true,
		"gateway_number_3":    true,
		"gateway_number_4":    true,
		"number_selection":    true,
		"webhook_url":         true,
	})
	if len(data) <= 0 {
		writeResponse(rw, ResponsePayload{Errors: []string{"valid fields required"}}, http.StatusBadRequest)
		return
	}

	for _, field := range []string{"window_start", "window_end"} {
		if data[field] != nil && validate.Var(fmt.Sprintf("%v", data[field]), "time_stamp") != nil {
			errs = append(errs, fmt.Sprintf("%v must be a valid HH:MM value", field))
		}
	}

	if data["number_selection"] != nil {
		selection := fmt.Sprintf("%v", data["number_selection"])
		if selection != models.SEQUENTIAL_SELECTION && selection != models.RANDOM_SELECTION {
			errs = append(errs, "number_selection must be 'sequential' or 'random'")
		}
	}

	if len(errs) > 0 {
		writeResponse(rw, ResponsePayload{Errors: errs}, http.StatusBadRequest)
		return
	}

	user := models.User{}
	user.ID = parseUint(vars["id"])
	err = user.UpdateMessageSettings(data)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	json.NewEncoder(rw).Encode(ResponsePayload{Success: true})
}

func canSend(rw http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	decision := gate.CanSend(parseUint(vars["id"]))

	json.NewEncoder(rw).Encode(ResponsePayload{Success: true, Data: decision})
}

// ---------------------------------------------------------------------------------//
// Contact & property handlers
// --------------------------------------------------------------------------------//

func createContact(rw http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	data := models.Contact{}
	decoder := json.NewDecoder(r.Body)

	err := decoder.Decode(&data)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	errs := validate.Struct(data)
	if errs != nil {
		writeResponse(rw, ResponsePayload{Errors: strings.Split(errs.Error(), "\n")}, http.StatusBadRequest)
		return
	}

	data.WorkspaceID = parseUint(vars["wid"])
	for i := range data.PhoneNumbers {
		data.PhoneNumbers[i].WorkspaceID = data.WorkspaceID
	}

	err = models.SaveContact(&data)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	rw.WriteHeader(http.StatusCreated)
	json.NewEncoder(rw).Encode(ResponsePayload{Success: true, Data: data})
}

func fetchContacts(rw http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	contacts, paging, err := models.FetchContacts(parseUint(vars["wid"]), parsePage(r))
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	json.NewEncoder(rw).Encode(ResponsePayload{Success: true, Data: contacts, Paging: paging})
}

func findContact(rw http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	contact, err := models.FindContact(parseUint(vars["wid"]), vars["id"])
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusNotFound)
		return
	}

	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	properties, err := contact.Properties()
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	json.NewEncoder(rw).Encode(ResponsePayload{Success: true, Data: map[string]interface{}{
		"contact":    contact,
		"properties": properties,
	}})
}

func fetchProperties(rw http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	query := r.URL.Query()

	properties, paging, err := models.FetchProperties(
		parseUint(vars["wid"]), query.Get("status"), query.Get("tag"), parsePage(r))
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	json.NewEncoder(rw).Encode(ResponsePayload{Success: true, Data: properties, Paging: paging})
}

func findProperty(rw http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	workspaceID := parseUint(vars["wid"])

	property, err := models.FindProperty(workspaceID, vars["id"])
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusNotFound)
		return
	}

	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	history, err := models.PropertyStatusHistory(workspaceID, property.ID)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	json.NewEncoder(rw).Encode(ResponsePayload{Success: true, Data: map[string]interface{}{
		"property":       property,
		"tags":           property.TagList(),
		"status_history": history,
	}})
}

func updatePropertyStatus(rw http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	data := make(map[string]string)
	decoder := json.NewDecoder(r.Body)
	decoder.Decode(&data)

	if !models.IsLeadStatus(data["status"]) {
		writeResponse(rw, ResponsePayload{Errors: []string{"status must be one of: interested, not_interested, dnc"}},
			http.StatusBadRequest)
		return
	}

	err := models.SetPropertyStatus(
		parseUint(vars["wid"]), parseUint(vars["id"]), data["status"], models.USER_STATUS_SOURCE, 0)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	json.NewEncoder(rw).Encode(ResponsePayload{Success: true})
}

func fetchTags(rw http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	tagCounts, err := models.TagCounts(parseUint(vars["wid"]))
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	json.NewEncoder(rw).Encode(ResponsePayload{Success: true, Data: tagCounts})
}

// ---------------------------------------------------------------------------------//
// Import handlers
// --------------------------------------------------------------------------------//

// createImport accepts a csv upload, stashes it under the data dir &
// hands the reconciliation off to the job queue.
func createImport(rw http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	workspaceID := parseUint(vars["wid"])

	filePath := filepath.Join(appDataDir, "uploads", fmt.Sprintf("import-%v-%v.csv", workspaceID, time.Now().UnixNano()))
	file, err := os.Create(filePath)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	_, err = file.ReadFrom(r.Body)
	file.Close()
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	batch := models.ImportBatch{WorkspaceID: workspaceID, FilePath: filePath, Status: models.PENDING_IMPORT}
	err = models.CreateImportBatch(&batch)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	err = workerAdapter.Perform(importJobParams(&batch))
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	rw.WriteHeader(http.StatusAccepted)
	json.NewEncoder(rw).Encode(ResponsePayload{Success: true, Data: batch})
}

func findImport(rw http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	batch, err := models.FindImportBatch(parseUint(vars["wid"]), vars["id"])
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusNotFound)
		return
	}

	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	json.NewEncoder(rw).Encode(ResponsePayload{Success: true, Data: batch})
}

// ---------------------------------------------------------------------------------//
// Messaging handlers
// --------------------------------------------------------------------------------//

func threadMessages(rw http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	messages, err := models.ThreadMessages(parseUint(vars["wid"]), vars["id"])
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	json.NewEncoder(rw).Encode(ResponsePayload{Success: true, Data: messages})
}

// sendMessage sends an sms to the contact IF the eligibility gate allows
// it. The gate's reason is surfaced verbatim when it doesn't.
func sendMessage(rw http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	workspaceID := parseUint(vars["wid"])
	userID := requestUserID(r)

	data := make(map[string]string)
	decoder := json.NewDecoder(r.Body)
	decoder.Decode(&data)

	if strings.TrimSpace(data["body"]) == "" {
		writeResponse(rw, ResponsePayload{Errors: []string{"message body is required"}}, http.StatusBadRequest)
		return
	}

	decision := gate.CanSend(userID)
	if !decision.Allowed {
		writeResponse(rw, ResponsePayload{Errors: []string{decision.Reason}, Data: decision}, http.StatusForbidden)
		return
	}

	contact, err := models.FindContact(workspaceID, vars["id"])
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusNotFound)
		return
	}

	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	if len(contact.PhoneNumbers) == 0 {
		writeResponse(rw, ResponsePayload{Errors: []string{"no phone number available for this contact"}},
			http.StatusUnprocessableEntity)
		return
	}

	from, err := pickGatewayNumber(userID)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	err = smsClient.SendMessage(from, contact.PhoneNumbers[0].Number, strings.TrimSpace(data["body"]))
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusBadGateway)
		return
	}

	message := models.Message{
		WorkspaceID: workspaceID,
		ContactID:   contact.ID,
		UserID:      userID,
		Direction:   models.OUTBOUND_MESSAGE,
		Body:        strings.TrimSpace(data["body"]),
		Status:      models.MESSAGE_SENT,
	}
	err = models.CreateMessage(&message)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	json.NewEncoder(rw).Encode(ResponsePayload{Success: true, Data: message})
}

// smsWebhook records an inbound sms & runs it through the classifier.
// A conclusive verdict updates the lead status on the sender's most
// recently linked property.
func smsWebhook(rw http.ResponseWriter, r *http.Request) {
	err := r.ParseForm()
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusBadRequest)
		return
	}

	if !smsClient.ValidateRequest(r.URL.Path, r.PostForm, r.Header.Get("X-Twilio-Signature")) {
		writeResponse(rw, ResponsePayload{Errors: []string{"invalid webhook signature"}}, http.StatusUnauthorized)
		return
	}

	from := r.PostForm.Get("From")
	body := r.PostForm.Get("Body")

	contact, err := models.FindContactByPhone(from)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		logg.Warnf("inbound sms from unknown number %v dropped", from)
		rw.WriteHeader(http.StatusOK)
		return
	}

	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	message := models.Message{
		WorkspaceID: contact.WorkspaceID,
		ContactID:   contact.ID,
		Direction:   models.INBOUND_MESSAGE,
		Body:        body,
		Status:      models.MESSAGE_DELIVERED,
	}
	err = models.CreateMessage(&message)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	classifyInboundMessage(r, contact, &message)

	rw.WriteHeader(http.StatusOK)
	json.NewEncoder(rw).Encode(ResponsePayload{Success: true})
}

// ---------------------------------------------------------------------------------//
// Stats handler
// --------------------------------------------------------------------------------//

func workspaceStats(rw http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	workspaceID := parseUint(vars["wid"])

	propertyCounts, err := models.PropertyCountsByStatus(workspaceID)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	firstOfMonth := time.Now().AddDate(0, 0, 1-time.Now().Day()).Format("2006-01-02")
	contactTotal, contactsThisMonth, err := models.ContactCountsByCreationSince(workspaceID, firstOfMonth)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	activity, err := models.MessageActivity(workspaceID, lastNDates(30))
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	json.NewEncoder(rw).Encode(ResponsePayload{Success: true, Data: map[string]interface{}{
		"properties": propertyCounts,
		"contacts": map[string]int64{
			"total":          contactTotal,
			"new_this_month": contactsThisMonth,
		},
		"message_activity": activity,
	}})
}
