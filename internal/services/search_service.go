package services

import (
	"strings"

	"gorm.io/gorm"

	"meetman/internal/models"
)

// SearchService implements the free-text search endpoints for meetings
// and participants. Matching is a case-insensitive substring match over
// the human-facing fields; good enough for a few thousand rows.
type SearchService struct {
	db *gorm.DB
}

func NewSearchService(db *gorm.DB) *SearchService {
	return &SearchService{db: db}
}

// SearchMeetings finds meetings whose title, location, description or
// designated attendee matches the term, newest first.
func (s *SearchService) SearchMeetings(searchTerm string, limit int, offset int) ([]models.Meeting, error) {
	term := strings.TrimSpace(searchTerm)
	if term == "" {
		return []models.Meeting{}, nil
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	pattern := "%" + term + "%"
	var meetings []models.Meeting
	err := s.db.
		Where("title ILIKE ? OR location ILIKE ? OR description ILIKE ? OR designated_attendee ILIKE ?",
			pattern, pattern, pattern, pattern).
		Preload("Participant").
		Order("date DESC, start_time").
		Limit(limit).
		Offset(offset).
		Find(&meetings).Error
	return meetings, err
}

// SearchParticipants finds participants by name, phone number or
// division.
func (s *SearchService) SearchParticipants(searchTerm string, limit int, offset int) ([]models.Participant, error) {
	term := strings.TrimSpace(searchTerm)
	if term == "" {
		return []models.Participant{}, nil
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	pattern := "%" + term + "%"
	var participants []models.Participant
	err := s.db.
		Where("name ILIKE ? OR phone_number ILIKE ? OR division ILIKE ?",
			pattern, pattern, pattern).
		Order("name").
		Limit(limit).
		Offset(offset).
		Find(&participants).Error
	return participants, err
}
