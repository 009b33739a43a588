package db

import "time"

// ===========================
// PRINCIPAL MODELS
// ===========================

// Role is the coarse principal kind.
type Role string

const (
	RoleUser       Role = "user"
	RoleSupervisor Role = "supervisor"
	RoleAdmin      Role = "admin"
)

// RoleType refines admins into main admins and department admins.
type RoleType string

const (
	RoleTypeMain            RoleType = "main"
	RoleTypeDepartmentAdmin RoleType = "departmentAdmin"
)

// ValidRole reports whether r is a known role.
func ValidRole(r Role) bool {
	return r == RoleUser || r == RoleSupervisor || r == RoleAdmin
}

// ValidRoleType reports whether t is a known admin role type.
func ValidRoleType(t RoleType) bool {
	return t == RoleTypeMain || t == RoleTypeDepartmentAdmin
}

// Principal is the single shape all authorization code is written
// against. RoleType is set for admins only; Departments holds the ids
// of the departments the principal belongs to.
type Principal struct {
	ID           string    `json:"id"`
	UserName     string    `json:"user_name"`
	FullName     string    `json:"full_name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	RoleType     RoleType  `json:"role_type,omitempty"`
	Departments  []string  `json:"departments,omitempty"`
	FCMToken     string    `json:"-"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsMainAdmin reports whether p is an admin with global scope.
func (p *Principal) IsMainAdmin() bool {
	return p.Role == RoleAdmin && p.RoleType == RoleTypeMain
}

// IsDepartmentAdmin reports whether p is an admin scoped to the
// departments they head.
func (p *Principal) IsDepartmentAdmin() bool {
	return p.Role == RoleAdmin && p.RoleType == RoleTypeDepartmentAdmin
}

// ===========================
// DEPARTMENT MODELS
// ===========================

// Department is an organizational unit. Head references are
// single-valued: a supervisor or admin heads at most one department.
type Department struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	HeadSupervisorID *string   `json:"head_supervisor_id,omitempty"`
	HeadAdminID      *string   `json:"head_admin_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// DepartmentResponse includes resolved head names for API responses.
type DepartmentResponse struct {
	Department
	HeadSupervisorName string `json:"head_supervisor_name,omitempty"`
	HeadAdminName      string `json:"head_admin_name,omitempty"`
}

// ===========================
// COMPLAINT MODELS
// ===========================

// Category classifies a complaint.
type Category string

const (
	CategoryRagging    Category = "ragging"
	CategoryHarassment Category = "harassment"
	CategoryOther      Category = "other"
)

// ValidCategory reports whether c is a known category.
func ValidCategory(c Category) bool {
	return c == CategoryRagging || c == CategoryHarassment || c == CategoryOther
}

// MediaRef points at a blob held by the external media store. PublicID
// is the delete-capable identifier.
type MediaRef struct {
	URL      string `json:"url"`
	PublicID string `json:"public_id"`
}

// Complaint is the central entity. SubmittedBy is immutable after
// creation and status changes only through the validated transition
// path. Deletion is soft: IsDeleted rows are filtered from every read.
type Complaint struct {
	ID                   string    `json:"id"`
	Title                string    `json:"title"`
	Description          string    `json:"description"`
	Category             Category  `json:"category"`
	DepartmentID         string    `json:"department_id"`
	SubmittedBy          string    `json:"submitted_by"`
	IsAnonymous          bool      `json:"is_anonymous"`
	Status               Status    `json:"status"`
	Image                *MediaRef `json:"image,omitempty"`
	Video                *MediaRef `json:"video,omitempty"`
	AssignedSupervisorID *string   `json:"assigned_supervisor_id,omitempty"`
	IsDeleted            bool      `json:"-"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// SubmitterInfo is the submitter identity embedded in responses. It is
// always a pointer field so anonymity redaction can drop the key
// entirely rather than emit null.
type SubmitterInfo struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

// ComplaintResponse is the serialized complaint with joined names.
type ComplaintResponse struct {
	ID                   string         `json:"id"`
	Title                string         `json:"title"`
	Description          string         `json:"description"`
	Category             Category       `json:"category"`
	DepartmentID         string         `json:"department_id"`
	DepartmentName       string         `json:"department_name,omitempty"`
	SubmittedBy          *SubmitterInfo `json:"submitted_by,omitempty"`
	IsAnonymous          bool           `json:"is_anonymous"`
	Status               Status         `json:"status"`
	Image                *MediaRef      `json:"image,omitempty"`
	Video                *MediaRef      `json:"video,omitempty"`
	AssignedSupervisorID *string        `json:"assigned_supervisor_id,omitempty"`
	AssignedSupervisor   string         `json:"assigned_supervisor_name,omitempty"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
}

// ComplaintFilter carries list parameters for complaint queries. Zero
// values mean "no filter"; Page/Limit are normalized by the service.
type ComplaintFilter struct {
	DepartmentID string
	Category     string
	Status       string
	IsAnonymous  *bool
	StartDate    *time.Time
	EndDate      *time.Time
	Page         int
	Limit        int
}

// ComplaintPage is a paginated complaint listing.
type ComplaintPage struct {
	Complaints []ComplaintResponse `json:"complaints"`
	Total      int                 `json:"total"`
	Page       int                 `json:"page"`
	TotalPages int                 `json:"total_pages"`
}

// SupervisorAssignments groups a supervisor with their assigned
// complaints for the admin overview endpoint.
type SupervisorAssignments struct {
	Supervisor Principal           `json:"supervisor"`
	Complaints []ComplaintResponse `json:"complaints"`
}

// CreateComplaintRequest is the complaint creation payload. IsAnonymous
// carries the raw form literal so the service can reject anything other
// than "true", "false" or empty instead of silently defaulting.
type CreateComplaintRequest struct {
	Title        string `form:"title" json:"title"`
	Description  string `form:"description" json:"description"`
	Category     string `form:"category" json:"category"`
	DepartmentID string `form:"department" json:"department"`
	IsAnonymous  string `form:"is_anonymous" json:"is_anonymous"`
}

// UpdateComplaintRequest is the owner-edit payload. Nil fields are
// left untouched.
type UpdateComplaintRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Category    *string `json:"category,omitempty"`
}

// ===========================
// STATUS LOG MODELS
// ===========================

// StatusLog is one append-only audit entry per successful transition.
type StatusLog struct {
	ID            string    `json:"id"`
	ComplaintID   string    `json:"complaint_id"`
	ChangedBy     string    `json:"changed_by"`
	ChangedByRole Role      `json:"changed_by_role"`
	OldStatus     Status    `json:"old_status"`
	NewStatus     Status    `json:"new_status"`
	CreatedAt     time.Time `json:"created_at"`
}

// StatusLogResponse embeds the complaint summary, redaction-aware.
type StatusLogResponse struct {
	StatusLog
	ChangedByName  string         `json:"changed_by_name,omitempty"`
	ComplaintTitle string         `json:"complaint_title,omitempty"`
	IsAnonymous    bool           `json:"is_anonymous"`
	SubmittedBy    *SubmitterInfo `json:"submitted_by,omitempty"`
}

// ===========================
// NOTIFICATION MODELS
// ===========================

// Notification is a record addressed to a complaint's submitter on a
// status transition. Its lifecycle is independent of the complaint
// after creation.
type Notification struct {
	ID          string     `json:"id"`
	RecipientID string     `json:"recipient_id"`
	Message     string     `json:"message"`
	IsRead      bool       `json:"is_read"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}
