// ABOUTME: Repository interface for PepMetrics data storage.
// ABOUTME: Defines the contract for daily rows, activities, protocols and dose logs.
package storage

import (
	"time"

	"github.com/djtroymx1/PepMetrics-sub000/internal/models"
	"github.com/google/uuid"
)

// Repository defines the storage interface for PepMetrics data.
// This interface allows swapping implementations (e.g., for testing).
type Repository interface {
	// Daily summary operations
	UpsertDailySummaries(userID string, patches []models.DailyHealthSummary) (int, error)
	GetDailySummary(userID, date string) (*models.DailyHealthSummary, error)
	ListDailySummaries(userID string, from, to time.Time) ([]models.DailyHealthSummary, error)

	// Activity operations
	SaveActivities(userID string, activities []*models.ParsedActivity) (*SaveResult, error)
	ListActivities(userID string, limit int) ([]*models.ParsedActivity, error)

	// Protocol operations
	CreateProtocol(p *models.Protocol) error
	GetProtocol(idOrPrefix string) (*models.Protocol, error)
	ListProtocols(userID string, activeOnly bool) ([]*models.Protocol, error)
	SetProtocolStatus(idOrPrefix string, status models.ProtocolStatus) error
	DeleteProtocol(idOrPrefix string) error

	// Dose log operations
	LogDose(d *models.DoseLog) error
	UndoDose(protocolID uuid.UUID, day time.Time, doseNumber int) error
	ListDoseLogs(userID string, from, to time.Time) ([]models.DoseLog, error)

	// Export/Import
	GetAllData() (*ExportData, error)
	ImportData(data *ExportData) error

	// Lifecycle
	Close() error
}

// SaveResult counts how activities were written.
type SaveResult struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
}

var _ Repository = (*DB)(nil)
