package ledger

import "fmt"

// Role is a registered user's role on the chain.
type Role string

const (
	RolePatient Role = "PATIENT"
	RoleDoctor  Role = "DOCTOR"
	RoleAdmin   Role = "ADMIN"
)

// Operation is a clinical record operation.
type Operation string

const (
	OpAdd    Operation = "Add"
	OpUpdate Operation = "Update"
	OpShare  Operation = "Share"
)

// Party identifies an organization or person referenced by a transaction.
type Party struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RecordRef points at a clinical record. Type is a free-form tag
// ("Diagnosis", "Prescription", ...), deliberately not a closed enum.
type RecordRef struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// User is a registered chain participant.
type User struct {
	ID         string `json:"id"`
	Role       Role   `json:"role"`
	Name       string `json:"name"`
	PubKeyHex  string `json:"pubKeyHex"`
	HospitalID string `json:"hospitalId"`
	Active     *bool  `json:"active,omitempty"` // defaults to true when absent
	CreatedAt  string `json:"createdAt"`
}

// Node is a member of the validator network.
type Node struct {
	NodeID    string `json:"nodeId"`
	OrgName   string `json:"orgName"`
	PubKeyHex string `json:"pubKeyHex"`
	Endpoint  string `json:"endpoint"`
	JoinedAt  string `json:"joinedAt"`
	Active    *bool  `json:"active,omitempty"` // defaults to false when absent
}

// Consent records a patient granting a doctor access to record types.
type Consent struct {
	ConsentTxID string   `json:"consentTxId"`
	PatientID   string   `json:"patientId"`
	DoctorID    string   `json:"doctorId"`
	Scope       []string `json:"scope"` // order-preserving, at least one record type
	ExpiresAt   string   `json:"expiresAt"`
}

func validateParty(field string, p *Party) error {
	if p == nil {
		return rejectf(field, "is required")
	}
	if err := checkNonEmpty(joinPath(field, "id"), p.ID); err != nil {
		return err
	}
	return checkNonEmpty(joinPath(field, "name"), p.Name)
}

func validateRecordRef(field string, r *RecordRef) error {
	if r == nil {
		return rejectf(field, "is required")
	}
	if err := checkNonEmpty(joinPath(field, "id"), r.ID); err != nil {
		return err
	}
	return checkNonEmpty(joinPath(field, "type"), r.Type)
}

func validateUser(field string, u *User) error {
	if u == nil {
		return rejectf(field, "is required")
	}
	if err := checkNonEmpty(joinPath(field, "id"), u.ID); err != nil {
		return err
	}
	switch u.Role {
	case RolePatient, RoleDoctor, RoleAdmin:
	default:
		return rejectf(joinPath(field, "role"), "must be one of PATIENT, DOCTOR, ADMIN")
	}
	if err := checkNonEmpty(joinPath(field, "name"), u.Name); err != nil {
		return err
	}
	if err := checkHexN(joinPath(field, "pubKeyHex"), u.PubKeyHex, HashHexLen); err != nil {
		return err
	}
	if err := checkNonEmpty(joinPath(field, "hospitalId"), u.HospitalID); err != nil {
		return err
	}
	if u.Active == nil {
		active := true
		u.Active = &active
	}
	return checkTimestamp(joinPath(field, "createdAt"), u.CreatedAt)
}

// ValidateNode checks a network member's shape and applies the active
// default. Exported for callers materializing members from a genesis
// config or an admitted join application.
func ValidateNode(field string, n *Node) error {
	if n == nil {
		return rejectf(field, "is required")
	}
	if err := checkNonEmpty(joinPath(field, "nodeId"), n.NodeID); err != nil {
		return err
	}
	if err := checkNonEmpty(joinPath(field, "orgName"), n.OrgName); err != nil {
		return err
	}
	if err := checkHexN(joinPath(field, "pubKeyHex"), n.PubKeyHex, HashHexLen); err != nil {
		return err
	}
	if err := checkURL(joinPath(field, "endpoint"), n.Endpoint); err != nil {
		return err
	}
	if err := checkTimestamp(joinPath(field, "joinedAt"), n.JoinedAt); err != nil {
		return err
	}
	if n.Active == nil {
		active := false
		n.Active = &active
	}
	return nil
}

func validateConsent(field string, c *Consent) error {
	if c == nil {
		return rejectf(field, "is required")
	}
	if err := checkNonEmpty(joinPath(field, "consentTxId"), c.ConsentTxID); err != nil {
		return err
	}
	if err := checkNonEmpty(joinPath(field, "patientId"), c.PatientID); err != nil {
		return err
	}
	if err := checkNonEmpty(joinPath(field, "doctorId"), c.DoctorID); err != nil {
		return err
	}
	if len(c.Scope) == 0 {
		return rejectf(joinPath(field, "scope"), "must list at least one record type")
	}
	for i, s := range c.Scope {
		if s == "" {
			return rejectf(fmt.Sprintf("%s[%d]", joinPath(field, "scope"), i), "must not be empty")
		}
	}
	return checkTimestamp(joinPath(field, "expiresAt"), c.ExpiresAt)
}
