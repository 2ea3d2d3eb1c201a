package ledger

import (
	"encoding/json"
	"fmt"
)

// TxType discriminates the six transaction variants. The set is closed
// and case-sensitive: any other value is rejected by every node, since
// a node that admits an unknown tag forks away from the rest.
type TxType string

const (
	TxRegister     TxType = "REGISTER"
	TxConsentGrant TxType = "CONSENT_GRANT"
	TxRecord       TxType = "RECORD"
	TxAccessLog    TxType = "ACCESS_LOG"
	TxNodeJoin     TxType = "NODE_JOIN"
	TxStakeAdjust  TxType = "STAKE_ADJUST"
)

// CommonTx is the envelope embedded in every transaction variant.
// Optional fields stay nil when neither present nor needed; "present
// with null" and "absent" collapse to nil on decode.
type CommonTx struct {
	Hospital     *Party     `json:"hospital"`
	Doctor       *Party     `json:"doctor,omitempty"`
	Patient      *Party     `json:"patient,omitempty"`
	Insurance    *Party     `json:"insurance,omitempty"`
	Record       *RecordRef `json:"record,omitempty"`
	Operation    *Operation `json:"operation,omitempty"`
	Prescription *string    `json:"prescription,omitempty"`
	Amount       *float64   `json:"amount,omitempty"` // defaults to 0 when absent
	Timestamp    string     `json:"timestamp"`
	PayloadHash  *string    `json:"payloadHash,omitempty"` // anchors an off-chain encrypted artifact
	ConsentRef   *string    `json:"consentRef,omitempty"`  // consentTxId of a prior CONSENT_GRANT
	Signer       string     `json:"signer,omitempty"`      // 32-byte hex pubkey, set at signing
	Sig          string     `json:"sig,omitempty"`         // 64-byte hex signature, set at signing
	TxID         string     `json:"txId,omitempty"`        // 32-byte hex, computed after signing
}

// AccessInfo is the payload of an ACCESS_LOG transaction: a record of an
// access decision made by the policy layer, not the decision itself.
type AccessInfo struct {
	Who       string `json:"who"`
	Op        string `json:"op"`      // READ | WRITE
	Outcome   string `json:"outcome"` // ALLOW | DENY
	Reason    string `json:"reason,omitempty"`
	PatientID string `json:"patientId,omitempty"`
	RecordID  string `json:"recordId,omitempty"`
}

// NodeApplication is a Node candidate in a NODE_JOIN transaction before
// the network assigns joinedAt/active.
type NodeApplication struct {
	NodeID    string `json:"nodeId"`
	OrgName   string `json:"orgName"`
	PubKeyHex string `json:"pubKeyHex"`
	Endpoint  string `json:"endpoint"`
}

// Approval is an admin's endorsement of a NODE_JOIN applicant. Whether
// SigHex actually signs the applicant data is verified by the signing
// collaborator, not here.
type Approval struct {
	AdminID string `json:"adminId"`
	SigHex  string `json:"sigHex"`
}

// Tx is the tagged union of all transaction variants: the envelope plus
// one set of variant fields selected by Type.
type Tx struct {
	Type TxType `json:"type"`
	CommonTx

	User         *User            `json:"user,omitempty"`         // REGISTER
	Consent      *Consent         `json:"consent,omitempty"`      // CONSENT_GRANT
	Access       *AccessInfo      `json:"access,omitempty"`       // ACCESS_LOG
	Applicant    *NodeApplication `json:"applicant,omitempty"`    // NODE_JOIN
	Approvals    []Approval       `json:"approvals,omitempty"`    // NODE_JOIN
	TargetNodeID string           `json:"targetNodeId,omitempty"` // STAKE_ADJUST
	Delta        *float64         `json:"delta,omitempty"`        // STAKE_ADJUST
}

// ValidateTx decodes untrusted bytes into a transaction and validates it.
// It is total over arbitrary input: anything that is not a well-formed,
// invariant-satisfying transaction comes back as a Rejection.
func ValidateTx(data []byte) (*Tx, error) {
	var tx Tx
	if err := json.Unmarshal(data, &tx); err != nil {
		return nil, rejectf("", "not a decodable transaction: %v", err)
	}
	if err := tx.Validate(); err != nil {
		return nil, err
	}
	return &tx, nil
}

// Validate checks the envelope and the variant selected by Type,
// applying envelope defaults in place.
func (tx *Tx) Validate() error {
	return tx.validate("")
}

func (tx *Tx) validate(prefix string) error {
	if err := tx.validateEnvelope(prefix); err != nil {
		return err
	}
	switch tx.Type {
	case TxRegister:
		return tx.validateRegister(prefix)
	case TxConsentGrant:
		return tx.validateConsentGrant(prefix)
	case TxRecord:
		return tx.validateRecord(prefix)
	case TxAccessLog:
		return tx.validateAccessLog(prefix)
	case TxNodeJoin:
		return tx.validateNodeJoin(prefix)
	case TxStakeAdjust:
		return tx.validateStakeAdjust(prefix)
	case "":
		return rejectf(joinPath(prefix, "type"), "is required")
	default:
		return rejectf(joinPath(prefix, "type"), "unknown transaction type %q", string(tx.Type))
	}
}

func (tx *Tx) validateEnvelope(prefix string) error {
	if err := validateParty(joinPath(prefix, "hospital"), tx.Hospital); err != nil {
		return err
	}
	for _, opt := range []struct {
		name string
		p    *Party
	}{{"doctor", tx.Doctor}, {"patient", tx.Patient}, {"insurance", tx.Insurance}} {
		if opt.p != nil {
			if err := validateParty(joinPath(prefix, opt.name), opt.p); err != nil {
				return err
			}
		}
	}
	if tx.Record != nil {
		if err := validateRecordRef(joinPath(prefix, "record"), tx.Record); err != nil {
			return err
		}
	}
	if tx.Operation != nil {
		switch *tx.Operation {
		case OpAdd, OpUpdate, OpShare:
		default:
			return rejectf(joinPath(prefix, "operation"), "must be one of Add, Update, Share")
		}
	}
	if tx.Amount == nil {
		zero := 0.0
		tx.Amount = &zero
	} else if *tx.Amount < 0 {
		return rejectf(joinPath(prefix, "amount"), "must not be negative")
	}
	if err := checkTimestamp(joinPath(prefix, "timestamp"), tx.Timestamp); err != nil {
		return err
	}
	if tx.PayloadHash != nil {
		if err := checkHexN(joinPath(prefix, "payloadHash"), *tx.PayloadHash, HashHexLen); err != nil {
			return err
		}
	}
	if tx.Signer != "" {
		if err := checkHexN(joinPath(prefix, "signer"), tx.Signer, HashHexLen); err != nil {
			return err
		}
	}
	if tx.Sig != "" {
		if err := checkHexN(joinPath(prefix, "sig"), tx.Sig, SigHexLen); err != nil {
			return err
		}
	}
	if tx.TxID != "" {
		if err := checkHexN(joinPath(prefix, "txId"), tx.TxID, HashHexLen); err != nil {
			return err
		}
	}
	return nil
}

// variantField names a variant-specific field when it carries a value.
type variantField struct {
	name    string
	present bool
}

func (tx *Tx) variantFields() []variantField {
	return []variantField{
		{"user", tx.User != nil},
		{"consent", tx.Consent != nil},
		{"access", tx.Access != nil},
		{"applicant", tx.Applicant != nil},
		{"approvals", tx.Approvals != nil},
		{"targetNodeId", tx.TargetNodeID != ""},
		{"delta", tx.Delta != nil},
	}
}

// rejectForeign refuses variant payload fields that belong to another
// tag. Envelope fields are shared and not restricted here.
func (tx *Tx) rejectForeign(prefix string, allowed ...string) error {
	for _, f := range tx.variantFields() {
		if !f.present {
			continue
		}
		ok := false
		for _, a := range allowed {
			if f.name == a {
				ok = true
				break
			}
		}
		if !ok {
			return rejectf(joinPath(prefix, f.name), "not a %s field", string(tx.Type))
		}
	}
	return nil
}

func (tx *Tx) validateRegister(prefix string) error {
	if err := tx.rejectForeign(prefix, "user"); err != nil {
		return err
	}
	return validateUser(joinPath(prefix, "user"), tx.User)
}

func (tx *Tx) validateConsentGrant(prefix string) error {
	if err := tx.rejectForeign(prefix, "consent"); err != nil {
		return err
	}
	if err := validateConsent(joinPath(prefix, "consent"), tx.Consent); err != nil {
		return err
	}
	// The granting patient is required on the envelope for this variant.
	return validateParty(joinPath(prefix, "patient"), tx.Patient)
}

func (tx *Tx) validateRecord(prefix string) error {
	if err := tx.rejectForeign(prefix); err != nil {
		return err
	}
	if err := validateParty(joinPath(prefix, "doctor"), tx.Doctor); err != nil {
		return err
	}
	if err := validateParty(joinPath(prefix, "patient"), tx.Patient); err != nil {
		return err
	}
	if err := validateRecordRef(joinPath(prefix, "record"), tx.Record); err != nil {
		return err
	}
	// The envelope allows a null operation; RECORD does not.
	if tx.Operation == nil {
		return rejectf(joinPath(prefix, "operation"), "is required for RECORD")
	}
	// Existence of the referenced CONSENT_GRANT on the ledger is the
	// caller's lookup; only presence and shape are checked here.
	if tx.ConsentRef == nil || *tx.ConsentRef == "" {
		return rejectf(joinPath(prefix, "consentRef"), "is required for RECORD")
	}
	return nil
}

func (tx *Tx) validateAccessLog(prefix string) error {
	if err := tx.rejectForeign(prefix, "access"); err != nil {
		return err
	}
	a := tx.Access
	if a == nil {
		return rejectf(joinPath(prefix, "access"), "is required")
	}
	if err := checkNonEmpty(joinPath(prefix, "access.who"), a.Who); err != nil {
		return err
	}
	if a.Op != "READ" && a.Op != "WRITE" {
		return rejectf(joinPath(prefix, "access.op"), "must be READ or WRITE")
	}
	if a.Outcome != "ALLOW" && a.Outcome != "DENY" {
		return rejectf(joinPath(prefix, "access.outcome"), "must be ALLOW or DENY")
	}
	return nil
}

func (tx *Tx) validateNodeJoin(prefix string) error {
	if err := tx.rejectForeign(prefix, "applicant", "approvals"); err != nil {
		return err
	}
	app := tx.Applicant
	if app == nil {
		return rejectf(joinPath(prefix, "applicant"), "is required")
	}
	if err := checkNonEmpty(joinPath(prefix, "applicant.nodeId"), app.NodeID); err != nil {
		return err
	}
	if err := checkNonEmpty(joinPath(prefix, "applicant.orgName"), app.OrgName); err != nil {
		return err
	}
	if err := checkHexN(joinPath(prefix, "applicant.pubKeyHex"), app.PubKeyHex, HashHexLen); err != nil {
		return err
	}
	if err := checkURL(joinPath(prefix, "applicant.endpoint"), app.Endpoint); err != nil {
		return err
	}
	if len(tx.Approvals) == 0 {
		return rejectf(joinPath(prefix, "approvals"), "at least one admin approval is required")
	}
	for i, ap := range tx.Approvals {
		p := fmt.Sprintf("%s[%d]", joinPath(prefix, "approvals"), i)
		if err := checkNonEmpty(joinPath(p, "adminId"), ap.AdminID); err != nil {
			return err
		}
		if err := checkHexN(joinPath(p, "sigHex"), ap.SigHex, SigHexLen); err != nil {
			return err
		}
	}
	return nil
}

func (tx *Tx) validateStakeAdjust(prefix string) error {
	if err := tx.rejectForeign(prefix, "targetNodeId", "delta"); err != nil {
		return err
	}
	if err := checkNonEmpty(joinPath(prefix, "targetNodeId"), tx.TargetNodeID); err != nil {
		return err
	}
	// Delta may be any signed number; economic bounds are policy, not schema.
	if tx.Delta == nil {
		return rejectf(joinPath(prefix, "delta"), "is required")
	}
	return nil
}
