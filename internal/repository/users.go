package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"universe/internal/model"
)

func (q *Queries) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := q.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	return exists, err
}

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	var user model.User
	row := q.db.QueryRow(ctx, `
		SELECT user_id, email, password_hash, role, is_email_verified, is_active, profile_image_url
		FROM users
		WHERE email = $1
	`, email)
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.IsEmailVerified,
		&user.IsActive,
		&user.ProfileImageURL,
	)
	return user, err
}

func (q *Queries) GetActiveUser(ctx context.Context, userID int64) (model.User, error) {
	var user model.User
	row := q.db.QueryRow(ctx, `
		SELECT user_id, email, role, is_email_verified, is_active, profile_image_url
		FROM users
		WHERE user_id = $1 AND is_active = true
	`, userID)
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Role,
		&user.IsEmailVerified,
		&user.IsActive,
		&user.ProfileImageURL,
	)
	return user, err
}

func (q *Queries) CreateUser(ctx context.Context, email, passwordHash string, role model.Role) (int64, error) {
	var userID int64
	err := q.db.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, role, is_email_verified, is_active)
		VALUES ($1, $2, $3, false, true)
		RETURNING user_id
	`, email, passwordHash, string(role)).Scan(&userID)
	return userID, err
}

// CreateProfile inserts the single role row for userID.
func (q *Queries) CreateProfile(ctx context.Context, userID int64, email string, profile model.Profile) error {
	var err error
	switch p := profile.(type) {
	case model.StudentProfile:
		_, err = q.db.Exec(ctx, `
			INSERT INTO students (user_id, student_number, student_name, student_surname, department_id)
			VALUES ($1, $2, $3, $4, $5)
		`, userID, p.StudentNumber, p.StudentName, p.StudentSurname, p.DepartmentID)
	case model.StaffProfile:
		_, err = q.db.Exec(ctx, `
			INSERT INTO staff (user_id, staff_name, staff_surname, department_id)
			VALUES ($1, $2, $3, $4)
		`, userID, p.StaffName, p.StaffSurname, p.DepartmentID)
	case model.AdminProfile:
		_, err = q.db.Exec(ctx, `
			INSERT INTO admins (user_id, admin_name, admin_surname)
			VALUES ($1, $2, $3)
		`, userID, p.AdminName, p.AdminSurname)
	case model.CommunityProfile:
		_, err = q.db.Exec(ctx, `
			INSERT INTO communities (user_id, community_name, description, contact_email)
			VALUES ($1, $2, $3, $4)
		`, userID, p.CommunityName, p.Description, email)
	default:
		return fmt.Errorf("unsupported profile type %T", profile)
	}
	return err
}

// GetProfile loads the role row for a user. It returns (nil, nil) when the
// role has no profile table or the row is missing.
func (q *Queries) GetProfile(ctx context.Context, userID int64, role model.Role) (model.Profile, error) {
	var (
		profile model.Profile
		err     error
	)
	switch role {
	case model.RoleStudent:
		var p model.StudentProfile
		err = q.db.QueryRow(ctx, `
			SELECT student_id, student_number, student_name, student_surname,
			       department_id, current_semester, phone_number, birth_date
			FROM students
			WHERE user_id = $1
		`, userID).Scan(&p.StudentID, &p.StudentNumber, &p.StudentName, &p.StudentSurname,
			&p.DepartmentID, &p.CurrentSemester, &p.PhoneNumber, &p.BirthDate)
		profile = p
	case model.RoleStaff:
		var p model.StaffProfile
		err = q.db.QueryRow(ctx, `
			SELECT s.staff_id, s.staff_name, s.staff_surname, s.department_id, s.staff_title,
			       s.phone_number, s.office_id, s.office_hours,
			       o.office_name, o.office_code, o.room_id AS office_room_id
			FROM staff s
			LEFT JOIN offices o ON o.office_id = s.office_id
			WHERE s.user_id = $1
		`, userID).Scan(&p.StaffID, &p.StaffName, &p.StaffSurname, &p.DepartmentID, &p.StaffTitle,
			&p.PhoneNumber, &p.OfficeID, &p.OfficeHours,
			&p.OfficeName, &p.OfficeCode, &p.OfficeRoomID)
		profile = p
	case model.RoleAdmin:
		var p model.AdminProfile
		err = q.db.QueryRow(ctx, `
			SELECT admin_id, admin_name, admin_surname
			FROM admins
			WHERE user_id = $1
		`, userID).Scan(&p.AdminID, &p.AdminName, &p.AdminSurname)
		profile = p
	case model.RoleCommunity:
		var p model.CommunityProfile
		var contact *string
		err = q.db.QueryRow(ctx, `
			SELECT community_id, community_name, description, contact_email
			FROM communities
			WHERE user_id = $1
		`, userID).Scan(&p.CommunityID, &p.CommunityName, &p.Description, &contact)
		if contact != nil {
			p.ContactEmail = *contact
		}
		profile = p
	default:
		return nil, nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return profile, nil
}

func (q *Queries) SetUserActive(ctx context.Context, userID int64, active bool) error {
	_, err := q.db.Exec(ctx, `UPDATE users SET is_active = $1 WHERE user_id = $2`, active, userID)
	return err
}

func (q *Queries) UserExists(ctx context.Context, userID int64) (bool, error) {
	var exists bool
	err := q.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE user_id = $1)`, userID).Scan(&exists)
	return exists, err
}
