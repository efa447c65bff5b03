package workflow

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/stationery_backend/models"
	"bitbucket.org/mmdatafocus/stationery_backend/utils"
	"github.com/sirupsen/logrus"
)

// AttendanceCloser sweeps open attendances that were never checked out.
// Anything still open from a previous day is closed as "Auto Closed".
type AttendanceCloser struct {
	Logger   *logrus.Logger
	Timezone string
	Interval time.Duration
}

func NewAttendanceCloser(logger *logrus.Logger, timezone string) *AttendanceCloser {
	return &AttendanceCloser{
		Logger:   logger,
		Timezone: timezone,
		Interval: 15 * time.Minute,
	}
}

// StaleCutoff returns the auto-close boundary: check-ins earlier than the
// start of the current day in the given timezone are stale.
func StaleCutoff(now time.Time, timezone string) time.Time {
	dateOnly, err := utils.ConvertToDate(now, timezone)
	if err != nil {
		u := now.UTC()
		return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	}
	return dateOnly.UTC()
}

func (p *AttendanceCloser) Run(ctx context.Context) {
	if p == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		p.closeOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-time.After(p.Interval):
		}
	}
}

func (p *AttendanceCloser) closeOnce(ctx context.Context) {
	now := time.Now().UTC()
	closed, err := models.CloseStaleOpenAttendances(ctx, StaleCutoff(now, p.Timezone), now)
	if err != nil {
		if p.Logger != nil {
			p.Logger.WithFields(logrus.Fields{
				"field": "AttendanceCloser",
			}).Error("auto close sweep failed: " + err.Error())
		}
		return
	}
	if closed > 0 && p.Logger != nil {
		p.Logger.WithFields(logrus.Fields{
			"field":  "AttendanceCloser",
			"closed": closed,
		}).Info("auto closed stale attendances")
	}
}
