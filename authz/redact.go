package authz

import "github.com/campusgrid/grievance/db"

// CanSeeSubmitter reports whether viewer may see the submitter identity
// of a complaint on a regular read. Non-anonymous complaints are always
// visible. For anonymous ones only the submitter themselves sees the
// identity; every other viewer, admins included, gets the redacted
// form.
func CanSeeSubmitter(viewer *db.Principal, c *db.Complaint) bool {
	if c == nil {
		return false
	}
	if !c.IsAnonymous {
		return true
	}
	return viewer != nil && viewer.ID == c.SubmittedBy
}

// CanAuditSubmitter is the rule for queries explicitly scoped as audit
// lookups, where main admins additionally see the identity behind an
// anonymous complaint. Department admins and supervisors never do.
func CanAuditSubmitter(viewer *db.Principal, c *db.Complaint) bool {
	if CanSeeSubmitter(viewer, c) {
		return true
	}
	return c != nil && viewer != nil && viewer.IsMainAdmin()
}

func submitterVisible(viewer *db.Principal, c *db.Complaint, audit bool) bool {
	if audit {
		return CanAuditSubmitter(viewer, c)
	}
	return CanSeeSubmitter(viewer, c)
}

// RedactComplaint drops the submitter identity from a response when the
// viewer is not entitled to it. audit selects the audit rule and is set
// only by queries explicitly scoped as audit lookups. The field is
// removed entirely, not set to null, so redacted and absent are
// indistinguishable on the wire.
func RedactComplaint(viewer *db.Principal, c *db.Complaint, resp *db.ComplaintResponse, audit bool) {
	if resp == nil {
		return
	}
	if !submitterVisible(viewer, c, audit) {
		resp.SubmittedBy = nil
	}
}

// RedactStatusLog drops the embedded submitter identity from a status
// log response under the same rule as complaints.
func RedactStatusLog(viewer *db.Principal, c *db.Complaint, resp *db.StatusLogResponse, audit bool) {
	if resp == nil {
		return
	}
	if !submitterVisible(viewer, c, audit) {
		resp.SubmittedBy = nil
	}
}
