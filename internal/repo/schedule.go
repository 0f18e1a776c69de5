package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/crucial707/irrigation-dashboard/internal/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ErrScheduleNotFound is returned by Delete when no row matched.
var ErrScheduleNotFound = models.ErrScheduleNotFound

var timeNow = time.Now

// ScheduleRepo persists irrigation schedules.
type ScheduleRepo struct {
	DB *sql.DB

	// newID assigns permanent identifiers; replaced in tests.
	newID func() string
}

// NewScheduleRepo returns a new ScheduleRepo.
func NewScheduleRepo(db *sql.DB) *ScheduleRepo {
	return &ScheduleRepo{DB: db, newID: uuid.NewString}
}

const scheduleColumns = `id, soil_type, vegetation, start_date, end_date, windows, created_at`

// List returns every schedule, most recent first.
func (r *ScheduleRepo) List(ctx context.Context) ([]models.Schedule, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+scheduleColumns+` FROM schedules ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []models.Schedule{}
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// GetByID returns one schedule by id, or nil if none exists.
func (r *ScheduleRepo) GetByID(ctx context.Context, id string) (*models.Schedule, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+scheduleColumns+` FROM schedules WHERE id = $1`, id)
	s, err := scanSchedule(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Create inserts s under a freshly generated id and returns the stored row.
// Any id already on s (such as a temporary client id) is ignored.
func (r *ScheduleRepo) Create(ctx context.Context, s models.Schedule) (models.Schedule, error) {
	windows, err := json.Marshal(s.Windows)
	if err != nil {
		return models.Schedule{}, fmt.Errorf("encode windows: %w", err)
	}
	createdAt := s.CreatedAt
	if createdAt.IsZero() {
		createdAt = timeNow()
	}

	query := `
		INSERT INTO schedules (id, soil_type, vegetation, start_date, end_date, windows, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + scheduleColumns
	row := r.DB.QueryRowContext(ctx, query,
		r.newID(), string(s.SoilType), string(s.Vegetation), s.StartDate, s.EndDate, windows, createdAt,
	)
	saved, err := scanSchedule(row)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return models.Schedule{}, fmt.Errorf("schedule id collision: %w", err)
		}
		return models.Schedule{}, err
	}
	return saved, nil
}

// Delete removes a schedule by id.
func (r *ScheduleRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM schedules WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrScheduleNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSchedule(row scanner) (models.Schedule, error) {
	var (
		s          models.Schedule
		soil, veg  string
		rawWindows []byte
	)
	if err := row.Scan(&s.ID, &soil, &veg, &s.StartDate, &s.EndDate, &rawWindows, &s.CreatedAt); err != nil {
		return models.Schedule{}, err
	}
	s.SoilType = models.SoilType(soil)
	s.Vegetation = models.Vegetation(veg)
	if len(rawWindows) > 0 {
		if err := json.Unmarshal(rawWindows, &s.Windows); err != nil {
			return models.Schedule{}, fmt.Errorf("decode windows of schedule %s: %w", s.ID, err)
		}
	}
	if s.Windows == nil {
		s.Windows = []models.Window{}
	}
	return s, nil
}
