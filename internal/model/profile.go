package model

import "time"

// Profile is the role-specific half of an account. Exactly one variant
// exists per user, matching User.Role.
type Profile interface {
	ProfileRole() Role
	isProfile()
}

type StudentProfile struct {
	StudentID       int64      `json:"student_id,omitempty"`
	StudentNumber   string     `json:"student_number"`
	StudentName     string     `json:"student_name"`
	StudentSurname  string     `json:"student_surname"`
	DepartmentID    *int64     `json:"department_id"`
	CurrentSemester *int32     `json:"current_semester"`
	PhoneNumber     *string    `json:"phone_number"`
	BirthDate       *time.Time `json:"birth_date"`
}

type StaffProfile struct {
	StaffID      int64   `json:"staff_id,omitempty"`
	StaffName    string  `json:"staff_name"`
	StaffSurname string  `json:"staff_surname"`
	DepartmentID *int64  `json:"department_id"`
	StaffTitle   *string `json:"staff_title"`
	PhoneNumber  *string `json:"phone_number"`
	OfficeID     *int64  `json:"office_id"`
	OfficeHours  *string `json:"office_hours"`
	OfficeName   *string `json:"office_name"`
	OfficeCode   *string `json:"office_code"`
	OfficeRoomID *int64  `json:"office_room_id"`
}

type AdminProfile struct {
	AdminID      int64  `json:"admin_id,omitempty"`
	AdminName    string `json:"admin_name"`
	AdminSurname string `json:"admin_surname"`
}

type CommunityProfile struct {
	CommunityID   int64   `json:"community_id,omitempty"`
	CommunityName string  `json:"community_name"`
	Description   *string `json:"description"`
	ContactEmail  string  `json:"contact_email"`
}

func (StudentProfile) ProfileRole() Role   { return RoleStudent }
func (StaffProfile) ProfileRole() Role     { return RoleStaff }
func (AdminProfile) ProfileRole() Role     { return RoleAdmin }
func (CommunityProfile) ProfileRole() Role { return RoleCommunity }

func (StudentProfile) isProfile()   {}
func (StaffProfile) isProfile()     {}
func (AdminProfile) isProfile()     {}
func (CommunityProfile) isProfile() {}
