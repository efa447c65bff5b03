package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/stationery_backend/config"
	"bitbucket.org/mmdatafocus/stationery_backend/utils"
	"gorm.io/gorm"
)

type Attendance struct {
	ID         int              `gorm:"primary_key" json:"id"`
	EmployeeId int              `gorm:"index;not null" json:"employee_id" binding:"required"`
	CheckIn    time.Time        `gorm:"not null" json:"check_in"`
	CheckOut   *time.Time       `gorm:"default:null" json:"check_out"`
	Status     AttendanceStatus `gorm:"type:enum('Open','Closed','Auto Closed');default:Open" json:"status"`
	Notes      string           `gorm:"size:255" json:"notes"`
	CreatedAt  time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewAttendance struct {
	EmployeeId int    `json:"employee_id" binding:"required"`
	Notes      string `json:"notes"`
}

// AttendanceCorrection is the admin fix-up shape for a stored attendance.
type AttendanceCorrection struct {
	CheckIn  time.Time        `json:"check_in" binding:"required"`
	CheckOut *time.Time       `json:"check_out"`
	Status   AttendanceStatus `json:"status" binding:"required"`
	Notes    string           `json:"notes"`
}

// CheckInEmployee opens an attendance for the employee. An employee can hold
// at most one open attendance at a time.
func CheckInEmployee(ctx context.Context, input *NewAttendance) (*Attendance, error) {
	db := config.GetDB()

	// exists employee
	if err := utils.ValidateResourceId[Employee](ctx, input.EmployeeId); err != nil {
		return nil, err
	}

	count, err := utils.ResourceCountWhere[Attendance](ctx, "employee_id = ? AND status = ?", input.EmployeeId, AttendanceStatusOpen)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, utils.NewValidationError("employee_id", "an open attendance already exists")
	}

	attendance := Attendance{
		EmployeeId: input.EmployeeId,
		CheckIn:    time.Now().UTC(),
		Status:     AttendanceStatusOpen,
		Notes:      input.Notes,
	}
	if err := db.WithContext(ctx).Create(&attendance).Error; err != nil {
		return nil, err
	}
	return &attendance, nil
}

// CheckOutEmployee closes the employee's open attendance.
func CheckOutEmployee(ctx context.Context, employeeId int) (*Attendance, error) {
	db := config.GetDB()

	// exists employee
	if err := utils.ValidateResourceId[Employee](ctx, employeeId); err != nil {
		return nil, err
	}

	var attendance Attendance
	err := db.WithContext(ctx).
		Where("employee_id = ? AND status = ?", employeeId, AttendanceStatusOpen).
		Order("check_in DESC").
		First(&attendance).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NewValidationError("employee_id", "no open attendance to close")
		}
		return nil, err
	}

	now := time.Now().UTC()
	err = db.WithContext(ctx).Model(&attendance).Updates(map[string]interface{}{
		"CheckOut": &now,
		"Status":   AttendanceStatusClosed,
	}).Error
	if err != nil {
		return nil, err
	}
	return &attendance, nil
}

func GetAttendance(ctx context.Context, id int) (*Attendance, error) {
	return utils.FetchModel[Attendance](ctx, id)
}

func GetAttendances(
	ctx context.Context,
	employeeId *int,
	status *AttendanceStatus,
	startDate *MyDateString,
	endDate *MyDateString,
) ([]*Attendance, error) {

	timezone := config.Timezone()
	if err := startDate.StartOfDayUTCTime(timezone); err != nil {
		return nil, err
	}
	if err := endDate.EndOfDayUTCTime(timezone); err != nil {
		return nil, err
	}

	db := config.GetDB()
	var results []*Attendance

	dbCtx := db.WithContext(ctx)
	if employeeId != nil && *employeeId > 0 {
		dbCtx = dbCtx.Where("employee_id = ?", *employeeId)
	}
	if status != nil {
		dbCtx = dbCtx.Where("status = ?", *status)
	}
	if startDate != nil && endDate != nil {
		dbCtx = dbCtx.Where("check_in BETWEEN ? AND ?", startDate, endDate)
	}

	err := dbCtx.
		Order("check_in DESC").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func UpdateAttendance(ctx context.Context, id int, input *AttendanceCorrection) (*Attendance, error) {
	db := config.GetDB()

	attendance, err := utils.FetchModel[Attendance](ctx, id)
	if err != nil {
		return nil, err
	}

	if input.CheckOut != nil && !input.CheckOut.After(input.CheckIn) {
		return nil, utils.NewValidationError("check_out", "must be after check in")
	}
	if input.Status != AttendanceStatusOpen && input.CheckOut == nil {
		return nil, utils.NewValidationError("check_out", "required when attendance is closed")
	}

	err = db.WithContext(ctx).Model(attendance).Updates(map[string]interface{}{
		"CheckIn":  input.CheckIn,
		"CheckOut": input.CheckOut,
		"Status":   input.Status,
		"Notes":    input.Notes,
	}).Error
	if err != nil {
		return nil, err
	}
	return attendance, nil
}

func DeleteAttendance(ctx context.Context, id int) (*Attendance, error) {
	db := config.GetDB()

	attendance, err := utils.FetchModel[Attendance](ctx, id)
	if err != nil {
		return nil, err
	}

	if err := db.WithContext(ctx).Delete(attendance).Error; err != nil {
		return nil, err
	}
	return attendance, nil
}

// CloseStaleOpenAttendances closes every open attendance whose check-in
// predates the cutoff. The checkout time records when the closer ran, not a
// guessed departure.
func CloseStaleOpenAttendances(ctx context.Context, cutoff time.Time, closedAt time.Time) (int64, error) {
	db := config.GetDB()

	result := db.WithContext(ctx).Model(&Attendance{}).
		Where("status = ? AND check_in < ?", AttendanceStatusOpen, cutoff).
		Updates(map[string]interface{}{
			"Status":   AttendanceStatusAutoClosed,
			"CheckOut": closedAt,
		})
	return result.RowsAffected, result.Error
}
