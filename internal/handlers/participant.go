package handlers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"meetman/internal/database"
	"meetman/internal/models"
)

// CreateParticipant handles the creation of a new participant
func CreateParticipant(c *gin.Context) {
	var request models.CreateParticipantRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		handleError(c, http.StatusBadRequest, fmt.Sprintf("Invalid input: %s", err.Error()), err)
		return
	}

	participant := models.Participant{
		Name:        request.Name,
		PhoneNumber: request.PhoneNumber,
		Division:    request.Division,
		Active:      true,
	}
	if request.Active != nil {
		participant.Active = *request.Active
	}

	if err := database.GetDB().Create(&participant).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to create participant", err)
		return
	}
	c.JSON(http.StatusCreated, participant)
}

// GetParticipants lists participants with filtering and pagination
func GetParticipants(c *gin.Context) {
	db := database.GetDB()
	query := db.Model(&models.Participant{})

	if division := c.Query("division"); division != "" {
		query = query.Where("division = ?", division)
	}
	if active := c.Query("active"); active != "" {
		query = query.Where("active = ?", active == "true")
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to count participants", err)
		return
	}

	var participants []models.Participant
	err := query.Order("name").
		Limit(pageSize).Offset((page - 1) * pageSize).
		Find(&participants).Error
	if err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to fetch participants", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"participants": participants,
		"total":        total,
		"page":         page,
		"page_size":    pageSize,
	})
}

// GetParticipant returns a single participant by ID
func GetParticipant(c *gin.Context) {
	var participant models.Participant
	err := database.GetDB().First(&participant, c.Param("id")).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Participant not found"})
			return
		}
		handleError(c, http.StatusInternalServerError, "Failed to fetch participant", err)
		return
	}
	c.JSON(http.StatusOK, participant)
}

// SearchParticipants performs free-text search over participants
func SearchParticipants(c *gin.Context) {
	term := c.Query("q")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	participants, err := searchService.SearchParticipants(term, limit, offset)
	if err != nil {
		handleError(c, http.StatusInternalServerError, "Search failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"participants": participants})
}

// UpdateParticipant updates participant fields in place
func UpdateParticipant(c *gin.Context) {
	var request models.UpdateParticipantRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		handleError(c, http.StatusBadRequest, fmt.Sprintf("Invalid input: %s", err.Error()), err)
		return
	}

	db := database.GetDB()
	var participant models.Participant
	if err := db.First(&participant, c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Participant not found"})
			return
		}
		handleError(c, http.StatusInternalServerError, "Failed to fetch participant", err)
		return
	}

	updates := map[string]interface{}{}
	if request.Name != nil {
		updates["name"] = *request.Name
	}
	if request.PhoneNumber != nil {
		updates["phone_number"] = *request.PhoneNumber
	}
	if request.Division != nil {
		updates["division"] = *request.Division
	}
	if request.Active != nil {
		updates["active"] = *request.Active
	}

	if len(updates) > 0 {
		if err := db.Model(&participant).Updates(updates).Error; err != nil {
			handleError(c, http.StatusInternalServerError, "Failed to update participant", err)
			return
		}
	}
	c.JSON(http.StatusOK, participant)
}

// ImportParticipants bulk-loads participants from an uploaded CSV with
// a header row of name,phone_number[,division][,active]. Rows whose
// phone number already exists update that participant in place instead
// of creating a duplicate.
func ImportParticipants(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		handleError(c, http.StatusBadRequest, "Missing file", err)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to read upload", err)
		return
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		handleError(c, http.StatusBadRequest, "Empty or unreadable CSV", err)
		return
	}
	columns := map[string]int{}
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	nameIdx, hasName := columns["name"]
	phoneIdx, hasPhone := columns["phone_number"]
	if !hasName || !hasPhone {
		c.JSON(http.StatusBadRequest, gin.H{"error": "CSV must have name and phone_number columns"})
		return
	}

	field := func(record []string, idx int, ok bool) string {
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}
	divisionIdx, hasDivision := columns["division"]
	activeIdx, hasActive := columns["active"]

	db := database.GetDB()
	var created, updated, skipped int
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			skipped++
			continue
		}

		name := field(record, nameIdx, true)
		phone := field(record, phoneIdx, true)
		if name == "" || phone == "" {
			skipped++
			continue
		}
		division := field(record, divisionIdx, hasDivision)
		active := true
		if raw := field(record, activeIdx, hasActive); raw != "" {
			if parsed, err := strconv.ParseBool(raw); err == nil {
				active = parsed
			}
		}

		var existing models.Participant
		err = db.Where("phone_number = ?", phone).First(&existing).Error
		switch {
		case err == nil:
			updates := map[string]interface{}{
				"name":     name,
				"division": division,
				"active":   active,
			}
			if db.Model(&existing).Updates(updates).Error != nil {
				skipped++
				continue
			}
			updated++
		case errors.Is(err, gorm.ErrRecordNotFound):
			participant := models.Participant{
				Name:        name,
				PhoneNumber: phone,
				Division:    division,
				Active:      active,
			}
			if db.Create(&participant).Error != nil {
				skipped++
				continue
			}
			created++
		default:
			handleError(c, http.StatusInternalServerError, "Failed to import participants", err)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"created": created,
		"updated": updated,
		"skipped": skipped,
	})
}

// ExportParticipants streams every participant as a CSV download in
// the same column layout the import accepts.
func ExportParticipants(c *gin.Context) {
	var participants []models.Participant
	if err := database.GetDB().Order("name").Find(&participants).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to fetch participants", err)
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="participants.csv"`)

	writer := csv.NewWriter(c.Writer)
	writer.Write([]string{"name", "phone_number", "division", "active"})
	for _, p := range participants {
		writer.Write([]string{p.Name, p.PhoneNumber, p.Division, strconv.FormatBool(p.Active)})
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		log.WithError(err).Error("failed to write participant export")
	}
}

// DeleteParticipant soft-deletes a participant. Meetings referencing it
// keep the reference; the reminder sweep treats a deleted participant
// as an unresolvable recipient.
func DeleteParticipant(c *gin.Context) {
	db := database.GetDB()
	var participant models.Participant
	if err := db.First(&participant, c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Participant not found"})
			return
		}
		handleError(c, http.StatusInternalServerError, "Failed to fetch participant", err)
		return
	}

	if err := db.Delete(&participant).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to delete participant", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Participant deleted"})
}
