package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/clinic-booking/internal/model"
	"github.com/jwalitptl/clinic-booking/internal/repository"
)

type patientRepository struct {
	BaseRepository
}

func NewPatientRepository(base BaseRepository) repository.PatientRepository {
	return &patientRepository{base}
}

const patientColumns = `id, first_name, last_name, email, phone, date_of_birth, blood_type,
	allergies, chronic_conditions, emergency_contact, emergency_phone, general_notes,
	created_at, updated_at`

func insertPatient(ctx context.Context, ext sqlx.ExtContext, p *model.Patient) error {
	query := `
		INSERT INTO patients (` + patientColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := ext.ExecContext(ctx, query,
		p.ID, p.FirstName, p.LastName, p.Email, p.Phone, p.DateOfBirth, p.BloodType,
		p.Allergies, p.ChronicConditions, p.EmergencyContact, p.EmergencyPhone, p.GeneralNotes,
		p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create patient: %w", err)
	}
	return nil
}

func (r *patientRepository) Create(ctx context.Context, p *model.Patient) error {
	return r.observe("create_patient", mapError(insertPatient(ctx, r.db, p)))
}

func (r *patientRepository) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	var p model.Patient
	if err := r.db.GetContext(ctx, &p, `SELECT `+patientColumns+` FROM patients WHERE id = $1`, id); err != nil {
		return nil, mapError(err)
	}
	return &p, nil
}

func (r *patientRepository) UpdateMedical(ctx context.Context, p *model.Patient) error {
	query := `
		UPDATE patients
		SET date_of_birth = $1, blood_type = $2, allergies = $3, chronic_conditions = $4,
			emergency_contact = $5, emergency_phone = $6, general_notes = $7, updated_at = $8
		WHERE id = $9
	`
	res, err := r.db.ExecContext(ctx, query,
		p.DateOfBirth, p.BloodType, p.Allergies, p.ChronicConditions,
		p.EmergencyContact, p.EmergencyPhone, p.GeneralNotes, p.UpdatedAt, p.ID)
	if err != nil {
		return r.observe("update_patient", mapError(err))
	}
	return r.observe("update_patient", requireAffected(res))
}

func (r *patientRepository) ListWithCounts(ctx context.Context) ([]*model.PatientWithCount, error) {
	query := `
		SELECT p.id, p.first_name, p.last_name, p.email, p.phone, p.date_of_birth, p.blood_type,
			p.allergies, p.chronic_conditions, p.emergency_contact, p.emergency_phone,
			p.general_notes, p.created_at, p.updated_at, COUNT(b.id) AS booking_count
		FROM patients p
		LEFT JOIN bookings b ON b.patient_id = p.id
		GROUP BY p.id
		ORDER BY p.created_at DESC
	`
	var patients []*model.PatientWithCount
	if err := r.db.SelectContext(ctx, &patients, query); err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	return patients, nil
}

// Search matches names case-insensitively and phone numbers by substring.
// Emails are only searched when the query looks like one.
func (r *patientRepository) Search(ctx context.Context, q string, limit int) ([]*model.Patient, error) {
	pattern := "%" + escapeLike(q) + "%"
	query := `
		SELECT ` + patientColumns + `
		FROM patients
		WHERE first_name ILIKE $1 OR last_name ILIKE $1 OR phone LIKE $1`
	if strings.Contains(q, "@") {
		query += ` OR email ILIKE $1`
	}
	query += ` ORDER BY created_at DESC LIMIT $2`

	var patients []*model.Patient
	if err := r.db.SelectContext(ctx, &patients, query, pattern, limit); err != nil {
		return nil, fmt.Errorf("failed to search patients: %w", err)
	}
	return patients, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
