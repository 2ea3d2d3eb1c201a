package ledger

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

var (
	hash64   = strings.Repeat("ab", 32)
	sig128   = strings.Repeat("cd", 64)
	ts       = "2025-06-01T10:00:00Z"
	hospital = map[string]interface{}{"id": "hosp-1", "name": "St. Jude"}
)

// minimalTx returns the smallest valid wire form of the given variant.
func minimalTx(typ TxType) map[string]interface{} {
	tx := map[string]interface{}{
		"type":      string(typ),
		"hospital":  hospital,
		"timestamp": ts,
	}
	switch typ {
	case TxRegister:
		tx["user"] = map[string]interface{}{
			"id": "u-1", "role": "PATIENT", "name": "Ana",
			"pubKeyHex": hash64, "hospitalId": "hosp-1", "createdAt": ts,
		}
	case TxConsentGrant:
		tx["patient"] = map[string]interface{}{"id": "p-1", "name": "Ana"}
		tx["consent"] = map[string]interface{}{
			"consentTxId": "ct-1", "patientId": "p-1", "doctorId": "d-1",
			"scope": []string{"Diagnosis"}, "expiresAt": ts,
		}
	case TxRecord:
		tx["doctor"] = map[string]interface{}{"id": "d-1", "name": "Dr. Sousa"}
		tx["patient"] = map[string]interface{}{"id": "p-1", "name": "Ana"}
		tx["record"] = map[string]interface{}{"id": "r-1", "type": "Diagnosis"}
		tx["operation"] = "Add"
		tx["consentRef"] = "ct-1"
	case TxAccessLog:
		tx["access"] = map[string]interface{}{"who": "d-1", "op": "READ", "outcome": "ALLOW"}
	case TxNodeJoin:
		tx["applicant"] = map[string]interface{}{
			"nodeId": "n-2", "orgName": "Clinic B",
			"pubKeyHex": hash64, "endpoint": "ws://clinic-b.example:9090",
		}
		tx["approvals"] = []map[string]interface{}{{"adminId": "admin-1", "sigHex": sig128}}
	case TxStakeAdjust:
		tx["targetNodeId"] = "n-2"
		tx["delta"] = -12.5
	}
	return tx
}

func mustJSON(t *testing.T, v interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	return data
}

func TestValidateTx_MinimalVariants(t *testing.T) {
	for _, typ := range []TxType{TxRegister, TxConsentGrant, TxRecord, TxAccessLog, TxNodeJoin, TxStakeAdjust} {
		tx, err := ValidateTx(mustJSON(t, minimalTx(typ)))
		if err != nil {
			t.Errorf("%s: expected minimal tx to validate, got %v", typ, err)
			continue
		}
		if tx.Type != typ {
			t.Errorf("%s: wrong type on accepted tx: %s", typ, tx.Type)
		}
	}
}

func TestValidateTx_RemovingRequiredFieldFails(t *testing.T) {
	required := map[TxType][]string{
		TxRegister:     {"hospital", "timestamp", "user"},
		TxConsentGrant: {"hospital", "timestamp", "consent", "patient"},
		TxRecord:       {"hospital", "timestamp", "doctor", "patient", "record", "operation", "consentRef"},
		TxAccessLog:    {"hospital", "timestamp", "access"},
		TxNodeJoin:     {"hospital", "timestamp", "applicant", "approvals"},
		TxStakeAdjust:  {"hospital", "timestamp", "targetNodeId", "delta"},
	}
	for typ, fields := range required {
		for _, field := range fields {
			tx := minimalTx(typ)
			delete(tx, field)
			if _, err := ValidateTx(mustJSON(t, tx)); err == nil {
				t.Errorf("%s without %s should fail", typ, field)
			}
		}
	}
}

func TestValidateTx_UnknownTypeAlwaysFails(t *testing.T) {
	for _, typ := range []string{"", "TRANSFER", "record", "REGISTER ", "CONSENT"} {
		tx := minimalTx(TxRegister)
		tx["type"] = typ
		if _, err := ValidateTx(mustJSON(t, tx)); err == nil {
			t.Errorf("type %q should be rejected", typ)
		}
	}
	tx := minimalTx(TxRegister)
	delete(tx, "type")
	if _, err := ValidateTx(mustJSON(t, tx)); err == nil {
		t.Error("missing type should be rejected")
	}
}

func TestValidateTx_OperationNullability(t *testing.T) {
	// RECORD requires an operation even though the envelope default is null.
	rec := minimalTx(TxRecord)
	delete(rec, "operation")
	if _, err := ValidateTx(mustJSON(t, rec)); err == nil {
		t.Error("RECORD without operation should fail")
	}
	// REGISTER falls back to the envelope default and passes.
	reg := minimalTx(TxRegister)
	if _, err := ValidateTx(mustJSON(t, reg)); err != nil {
		t.Errorf("REGISTER without operation should pass, got %v", err)
	}
	rec = minimalTx(TxRecord)
	rec["operation"] = "Delete"
	if _, err := ValidateTx(mustJSON(t, rec)); err == nil {
		t.Error("unknown operation should be rejected")
	}
}

func TestValidateTx_NodeJoinApprovals(t *testing.T) {
	tx := minimalTx(TxNodeJoin)
	tx["approvals"] = []map[string]interface{}{}
	if _, err := ValidateTx(mustJSON(t, tx)); err == nil {
		t.Error("empty approvals should fail")
	}
	tx = minimalTx(TxNodeJoin)
	tx["approvals"] = []map[string]interface{}{{"adminId": "admin-1", "sigHex": sig128[:126]}}
	if _, err := ValidateTx(mustJSON(t, tx)); err == nil {
		t.Error("short approval signature should fail")
	}
}

func TestValidateTx_ForeignVariantFields(t *testing.T) {
	tx := minimalTx(TxRegister)
	tx["delta"] = 100.0
	if _, err := ValidateTx(mustJSON(t, tx)); err == nil {
		t.Error("REGISTER carrying a STAKE_ADJUST field should fail")
	}
	tx = minimalTx(TxStakeAdjust)
	tx["consent"] = minimalTx(TxConsentGrant)["consent"]
	if _, err := ValidateTx(mustJSON(t, tx)); err == nil {
		t.Error("STAKE_ADJUST carrying a CONSENT_GRANT field should fail")
	}
}

func TestValidateTx_EnvelopeDefaults(t *testing.T) {
	tx, err := ValidateTx(mustJSON(t, minimalTx(TxAccessLog)))
	if err != nil {
		t.Fatalf("minimal tx should validate, got %v", err)
	}
	if tx.Amount == nil || *tx.Amount != 0 {
		t.Error("absent amount should default to 0")
	}

	withAmount := minimalTx(TxAccessLog)
	withAmount["amount"] = -1.0
	if _, err := ValidateTx(mustJSON(t, withAmount)); err == nil {
		t.Error("negative amount should be rejected")
	}

	reg := minimalTx(TxRegister)
	got, err := ValidateTx(mustJSON(t, reg))
	if err != nil {
		t.Fatalf("minimal REGISTER should validate, got %v", err)
	}
	if got.User.Active == nil || !*got.User.Active {
		t.Error("User.active should default to true when absent")
	}
	reg = minimalTx(TxRegister)
	reg["user"].(map[string]interface{})["active"] = false
	got, err = ValidateTx(mustJSON(t, reg))
	if err != nil {
		t.Fatalf("explicit active=false should validate, got %v", err)
	}
	if got.User.Active == nil || *got.User.Active {
		t.Error("explicit active=false must not be overridden by the default")
	}
}

func TestValidateTx_PayloadHashShape(t *testing.T) {
	tx := minimalTx(TxAccessLog)
	tx["payloadHash"] = hash64
	if _, err := ValidateTx(mustJSON(t, tx)); err != nil {
		t.Errorf("64-char payloadHash should pass, got %v", err)
	}
	tx["payloadHash"] = hash64[:62]
	if _, err := ValidateTx(mustJSON(t, tx)); err == nil {
		t.Error("62-char payloadHash should fail")
	}
	tx["payloadHash"] = strings.Repeat("zz", 32)
	if _, err := ValidateTx(mustJSON(t, tx)); err == nil {
		t.Error("non-hex payloadHash should fail")
	}
}

func TestValidateTx_ConsentScopeEntries(t *testing.T) {
	tx := minimalTx(TxConsentGrant)
	tx["consent"].(map[string]interface{})["scope"] = []string{"Diagnosis", ""}
	_, err := ValidateTx(mustJSON(t, tx))
	if err == nil {
		t.Fatal("empty scope entry should fail")
	}
	r, ok := AsRejection(err)
	if !ok {
		t.Fatalf("expected a Rejection, got %v", err)
	}
	if r.Field != "consent.scope[1]" {
		t.Errorf("rejection should name the offending entry, got %q", r.Field)
	}
}

func TestValidateTx_SignedEnvelopeShape(t *testing.T) {
	tx := minimalTx(TxAccessLog)
	tx["signer"] = hash64
	tx["sig"] = sig128
	tx["txId"] = hash64
	if _, err := ValidateTx(mustJSON(t, tx)); err != nil {
		t.Errorf("well-formed signed tx should pass, got %v", err)
	}
	tx["sig"] = sig128 + "00"
	if _, err := ValidateTx(mustJSON(t, tx)); err == nil {
		t.Error("130-char sig should fail")
	}
}

func TestValidateTx_RoundTripIdempotent(t *testing.T) {
	for _, typ := range []TxType{TxRegister, TxConsentGrant, TxRecord, TxAccessLog, TxNodeJoin, TxStakeAdjust} {
		first, err := ValidateTx(mustJSON(t, minimalTx(typ)))
		if err != nil {
			t.Fatalf("%s: first validation failed: %v", typ, err)
		}
		reserialized, err := json.Marshal(first)
		if err != nil {
			t.Fatalf("%s: re-serialize: %v", typ, err)
		}
		second, err := ValidateTx(reserialized)
		if err != nil {
			t.Errorf("%s: re-validation of accepted tx failed: %v", typ, err)
			continue
		}
		if !reflect.DeepEqual(first, second) {
			t.Errorf("%s: round-trip changed the accepted value", typ)
		}
	}
}
