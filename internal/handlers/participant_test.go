package handlers

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meetman/internal/models"
)

func postCSV(t *testing.T, router http.Handler, target, content string) *httptest.ResponseRecorder {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	part, err := mw.CreateFormFile("file", "participants.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, target, body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	router.ServeHTTP(w, req)
	return w
}

func TestImportParticipants(t *testing.T) {
	router, _, db, _ := setupHandlerTest(t)

	existing := models.Participant{Name: "Old Name", PhoneNumber: "628222", Division: "finance", Active: true}
	require.NoError(t, db.Create(&existing).Error)

	content := "name,phone_number,division,active\n" +
		"Dana,628111,secretariat,true\n" +
		"Eko Renamed,628222,operations,false\n" +
		",628333,secretariat,true\n"

	w := postCSV(t, router, "/api/participants/import", content)
	require.Equal(t, http.StatusOK, w.Code)

	var result struct {
		Created int `json:"created"`
		Updated int `json:"updated"`
		Skipped int `json:"skipped"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 1, result.Skipped, "a row without a name is skipped")

	var dana models.Participant
	require.NoError(t, db.Where("phone_number = ?", "628111").First(&dana).Error)
	assert.Equal(t, "Dana", dana.Name)
	assert.Equal(t, "secretariat", dana.Division)
	assert.True(t, dana.Active)

	// The existing phone number was updated in place, not duplicated.
	var renamed models.Participant
	require.NoError(t, db.Where("phone_number = ?", "628222").First(&renamed).Error)
	assert.Equal(t, "Eko Renamed", renamed.Name)
	assert.Equal(t, "operations", renamed.Division)
	assert.False(t, renamed.Active)

	var total int64
	require.NoError(t, db.Model(&models.Participant{}).Count(&total).Error)
	assert.Equal(t, int64(2), total)
}

func TestImportParticipantsRejectsBadHeader(t *testing.T) {
	router, _, _, _ := setupHandlerTest(t)

	w := postCSV(t, router, "/api/participants/import", "full_name,phone\nDana,628111\n")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestImportParticipantsMissingFile(t *testing.T) {
	router, _, _, _ := setupHandlerTest(t)

	w := doRequest(router, http.MethodPost, "/api/participants/import")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExportParticipants(t *testing.T) {
	router, _, db, _ := setupHandlerTest(t)

	for _, p := range []models.Participant{
		{Name: "Dana", PhoneNumber: "628111", Division: "secretariat", Active: true},
		{Name: "Eko", PhoneNumber: "628222", Division: "finance", Active: false},
	} {
		require.NoError(t, db.Create(&p).Error)
	}

	w := doRequest(router, http.MethodGet, "/api/participants/export")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")

	records, err := csv.NewReader(w.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"name", "phone_number", "division", "active"}, records[0])
	assert.Equal(t, []string{"Dana", "628111", "secretariat", "true"}, records[1])
	assert.Equal(t, []string{"Eko", "628222", "finance", "false"}, records[2])
}

func TestExportImportRoundTrip(t *testing.T) {
	router, _, db, _ := setupHandlerTest(t)

	require.NoError(t, db.Create(&models.Participant{
		Name: "Dana", PhoneNumber: "628111", Division: "secretariat", Active: true,
	}).Error)

	export := doRequest(router, http.MethodGet, "/api/participants/export")
	require.Equal(t, http.StatusOK, export.Code)

	// Re-importing an export changes nothing.
	w := postCSV(t, router, "/api/participants/import", export.Body.String())
	require.Equal(t, http.StatusOK, w.Code)

	var result struct {
		Created int `json:"created"`
		Updated int `json:"updated"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, 0, result.Created)
	assert.Equal(t, 1, result.Updated)

	var total int64
	require.NoError(t, db.Model(&models.Participant{}).Count(&total).Error)
	assert.Equal(t, int64(1), total)
}
