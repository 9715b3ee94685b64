package normalize

// Legacy sources disagree about field names and casing. Each canonical
// field resolves through an ordered alias list; the first key present
// in the input wins. New legacy shapes are supported by extending these
// tables, not by adding branches.

var employeeFields = map[string][]string{
	"id":           {"id", "employee_id", "employeeId", "emp_id"},
	"employeeCode": {"employeeCode", "employee_code", "code", "employee_number", "badge"},
	"firstName":    {"firstName", "first_name", "fname", "givenName"},
	"lastName":     {"lastName", "last_name", "lname", "surname"},
	"fullName":     {"fullName", "full_name", "name", "displayName"},
	"department":   {"department", "dept", "division"},
	"position":     {"position", "jobTitle", "job_title", "title"},
	"email":        {"email", "e_mail", "mail"},
	"phone":        {"phone", "phone_number", "phoneNumber", "mobile"},
	"hireDate":     {"hireDate", "hire_date", "startDate", "start_date"},
	"hourlyRate":   {"hourlyRate", "hourly_rate", "rate", "wage"},
	"salaryType":   {"salaryType", "salary_type", "pay_type", "payType"},
	"status":       {"status", "state", "employment_status"},
	"role":         {"role", "access_level", "accessLevel"},
	"schedule":     {"schedule", "work_schedule", "workSchedule"},
	"createdAt":    {"createdAt", "created_at", "dateCreated"},
}

var recordFields = map[string][]string{
	"id":            {"id", "record_id", "recordId", "attendance_id"},
	"employeeId":    {"employeeId", "employee_id", "emp_id", "employee"},
	"date":          {"date", "attendance_date", "attendanceDate", "work_date", "day"},
	"clockIn":       {"clockIn", "clock_in", "timeIn", "time_in", "check_in", "come_time"},
	"clockOut":      {"clockOut", "clock_out", "timeOut", "time_out", "check_out", "leave_time"},
	"status":        {"status", "attendance_status"},
	"hours":         {"hours", "total_hours", "totalHours", "worked_hours"},
	"overtimeHours": {"overtimeHours", "overtime_hours", "overtime"},
	"notes":         {"notes", "note", "remarks", "comment"},
	"lastModified":  {"lastModified", "last_modified", "updated_at", "updatedAt"},
}

// lookup resolves a canonical field against an input object through
// the alias table. Returns nil when no alias key is present.
func lookup(obj map[string]any, table map[string][]string, field string) any {
	for _, alias := range table[field] {
		if v, ok := obj[alias]; ok && v != nil {
			return v
		}
	}
	return nil
}
