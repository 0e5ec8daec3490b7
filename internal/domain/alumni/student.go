package alumni

import "database/sql"

// DidNotGraduateYear is stored in students.graduation_year for DidNotGraduate.
const DidNotGraduateYear = -1

// Student is an alumni-network directory entry, created only when a request is approved.
type Student struct {
	ID             int64
	SchoolID       int64
	FullName       string
	GraduationYear int           // DidNotGraduateYear for non-graduates
	AdmissionYear  sql.NullInt32 // NULL when the submitted admission year is not numeric
	ProfileImage   sql.NullString
}
