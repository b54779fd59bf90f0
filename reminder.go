package main

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/jackc/pgx/v5"
	"github.com/samber/lo"
)

// startScheduler launches the background appointment jobs and returns the
// scheduler so main can stop it on shutdown. Both jobs are bookkeeping:
// consent expiry is never decided here — it is evaluated per request by
// authorizePatientAccess.
func (h *Handler) startScheduler() *gocron.Scheduler {
	scheduler := gocron.NewScheduler(time.UTC)

	scheduler.Every(1).Minutes().Do(func() {
		if err := h.sendAppointmentReminders(); err != nil {
			log.Printf("[reminders] run failed: %v", err)
		}
	})
	scheduler.Every(15).Minutes().Do(func() {
		if err := h.sweepCompletedAppointments(); err != nil {
			log.Printf("[reminders] completion sweep failed: %v", err)
		}
	})

	scheduler.StartAsync()
	log.Println("[reminders] appointment jobs started")
	return scheduler
}

// sendAppointmentReminders logs a reminder for every accepted appointment
// starting inside the reminder window and marks it so the next run skips it.
func (h *Handler) sendAppointmentReminders() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	now := time.Now().UTC()
	due, err := queryMany[appointment](h.db, ctx,
		`SELECT * FROM appointments
		 WHERE status = @accepted AND reminder_sent = false AND completed = false
		   AND (date + time::time) BETWEEN @from AND @until`,
		pgx.NamedArgs{
			"accepted": apptAccepted,
			"from":     now,
			"until":    now.Add(h.cfg.ReminderWindow),
		})
	if err != nil {
		return err
	}
	if len(due) == 0 {
		return nil
	}

	for _, appt := range due {
		log.Printf("[reminders] appointment=%d patient=%d doctor=%d at %s %s",
			appt.ID, appt.PatientID, appt.DoctorID, appt.Date.Format("2006-01-02"), appt.Time)
	}

	ids := lo.Map(due, func(appt appointment, _ int) int { return appt.ID })
	_, err = h.db.Exec(ctx,
		"UPDATE appointments SET reminder_sent = true WHERE id = ANY(@ids)",
		pgx.NamedArgs{"ids": ids})
	return err
}

// sweepCompletedAppointments flags accepted appointments whose visit window
// has fully passed. Keeps dashboards honest; nothing reads the flag on the
// authorization path.
func (h *Handler) sweepCompletedAppointments() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cutoff := time.Now().UTC().Add(-h.cfg.VisitDuration)
	tag, err := h.db.Exec(ctx,
		`UPDATE appointments SET completed = true
		 WHERE status = @accepted AND completed = false AND (date + time::time) < @cutoff`,
		pgx.NamedArgs{"accepted": apptAccepted, "cutoff": cutoff})
	if err != nil {
		return err
	}
	if n := tag.RowsAffected(); n > 0 {
		log.Printf("[reminders] marked %d appointment(s) completed", n)
	}
	return nil
}
