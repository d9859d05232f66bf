package auth

import (
	"bytes"
	"encoding/json"
	"net/mail"
	"strconv"
	"strings"

	"universe/internal/apperr"
	"universe/internal/model"
)

const (
	studentEmailSuffix = "@stu.yasar.edu.tr"
	staffEmailSuffix   = "@yasar.edu.tr"
	minPasswordLen     = 8
)

type RegisterInput struct {
	Email          string          `json:"email"`
	Password       string          `json:"password"`
	Role           string          `json:"role"`
	StudentNumber  string          `json:"studentNumber"`
	StudentName    string          `json:"studentName"`
	StudentSurname string          `json:"studentSurname"`
	DepartmentID   json.RawMessage `json:"departmentId"`
	StaffName      string          `json:"staffName"`
	StaffSurname   string          `json:"staffSurname"`
	AdminName      string          `json:"adminName"`
	AdminSurname   string          `json:"adminSurname"`
	CommunityName  string          `json:"communityName"`
	Description    string          `json:"description"`
}

// Validate checks every field and returns the profile variant matching the
// requested role. All failures are reported together.
func (in *RegisterInput) Validate() (model.Profile, error) {
	in.Email = normalizeEmail(in.Email)
	fields := apperr.NewFields("Validation error")

	fields.Check(validEmail(in.Email), "email", "Invalid email format")
	fields.Check(len(in.Password) >= minPasswordLen, "password", "Password must be at least 8 characters")

	role := model.Role(in.Role)
	if !role.Valid() {
		fields.Add("role", "Role must be student, staff, admin, or community")
		return nil, fields.Err()
	}

	departmentID, deptSet, deptOK := parsePositiveInt(in.DepartmentID)
	if deptSet && !deptOK {
		fields.Add("departmentId", "departmentId must be a positive integer")
	}

	var profile model.Profile
	switch role {
	case model.RoleStudent:
		fields.Check(strings.HasSuffix(in.Email, studentEmailSuffix), "email", "Student email must end with "+studentEmailSuffix)
		requireField(fields, in.StudentNumber, "studentNumber", role)
		requireField(fields, in.StudentName, "studentName", role)
		requireField(fields, in.StudentSurname, "studentSurname", role)
		if !deptSet {
			fields.Add("departmentId", "departmentId is required for student role")
		}
		profile = model.StudentProfile{
			StudentNumber:  strings.TrimSpace(in.StudentNumber),
			StudentName:    strings.TrimSpace(in.StudentName),
			StudentSurname: strings.TrimSpace(in.StudentSurname),
			DepartmentID:   &departmentID,
		}
	case model.RoleStaff:
		fields.Check(strings.HasSuffix(in.Email, staffEmailSuffix), "email", "Staff email must end with "+staffEmailSuffix)
		requireField(fields, in.StaffName, "staffName", role)
		requireField(fields, in.StaffSurname, "staffSurname", role)
		if !deptSet {
			fields.Add("departmentId", "departmentId is required for staff role")
		}
		profile = model.StaffProfile{
			StaffName:    strings.TrimSpace(in.StaffName),
			StaffSurname: strings.TrimSpace(in.StaffSurname),
			DepartmentID: &departmentID,
		}
	case model.RoleAdmin:
		requireField(fields, in.AdminName, "adminName", role)
		requireField(fields, in.AdminSurname, "adminSurname", role)
		profile = model.AdminProfile{
			AdminName:    strings.TrimSpace(in.AdminName),
			AdminSurname: strings.TrimSpace(in.AdminSurname),
		}
	case model.RoleCommunity:
		requireField(fields, in.CommunityName, "communityName", role)
		p := model.CommunityProfile{
			CommunityName: strings.TrimSpace(in.CommunityName),
			ContactEmail:  in.Email,
		}
		if desc := strings.TrimSpace(in.Description); desc != "" {
			p.Description = &desc
		}
		profile = p
	}

	if err := fields.Err(); err != nil {
		return nil, err
	}
	return profile, nil
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (in *LoginInput) Validate() error {
	in.Email = normalizeEmail(in.Email)
	fields := apperr.NewFields("Validation error")
	fields.Check(validEmail(in.Email), "email", "Invalid email format")
	fields.Check(in.Password != "", "password", "Password is required")
	return fields.Err()
}

type VerifyEmailInput struct {
	Token string `json:"token"`
}

func (in *VerifyEmailInput) Validate() error {
	in.Token = strings.TrimSpace(in.Token)
	fields := apperr.NewFields("Validation error")
	fields.Check(in.Token != "", "token", "Token is required")
	return fields.Err()
}

func requireField(fields *apperr.Fields, value, name string, role model.Role) {
	fields.Check(strings.TrimSpace(value) != "", name, name+" is required for "+string(role)+" role")
}

// normalizeEmail only trims; stored addresses are matched exactly.
func normalizeEmail(email string) string {
	return strings.TrimSpace(email)
}

func validEmail(email string) bool {
	if email == "" {
		return false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return false
	}
	at := strings.LastIndex(email, "@")
	return at > 0 && strings.Contains(email[at+1:], ".")
}

// parsePositiveInt accepts a JSON number or numeric string. set is false
// when the field is absent or null.
func parsePositiveInt(raw json.RawMessage) (value int64, set, ok bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, false, false
	}
	text := string(raw)
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, true, false
		}
		text = strings.TrimSpace(s)
	}
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil || n <= 0 {
		return 0, true, false
	}
	return n, true, true
}
