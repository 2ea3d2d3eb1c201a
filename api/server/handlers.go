package server

import (
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
	log "github.com/sirupsen/logrus"

	"medledger/core"
	"medledger/core/audit"
	"medledger/core/ledger"
)

const maxBodySize = 1 << 20

// TxReceipt is returned on submission, before the tx reaches a block.
type TxReceipt struct {
	ReceiptID string `json:"receiptId"`
	TxID      string `json:"txId"`
	Status    string `json:"status"` // "pending"
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "could not read request body"})
		return nil, false
	}
	return body, true
}

func (s *Server) handleValidateTx(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	tx, err := ledger.ValidateTx(body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"valid": true, "type": tx.Type, "txId": tx.TxID})
}

func (s *Server) handleValidateBlock(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	b, err := ledger.ValidateBlock(body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"valid": true, "height": b.Height, "txCount": len(b.Txs),
	})
}

func (s *Server) handleSubmitTx(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	tx, err := ledger.ValidateTx(body)
	if err != nil {
		reason := err.Error()
		s.audit.LogEvent(audit.NewEvent("TxAdmission", "", "rejected", reason))
		writeError(w, err)
		return
	}
	if tx.TxID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "transaction must be signed before submission",
			"field": "txId",
		})
		return
	}
	// Schema validation only checks the hex shape of signer/sig/txId;
	// the signature itself is verified here, before the pool or any
	// peer ever sees the transaction.
	if err := core.VerifyTxSignature(tx); err != nil {
		s.audit.LogEvent(audit.NewEvent("TxAdmission", tx.TxID, "rejected", err.Error()))
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "signature verification failed",
			"field": "sig",
		})
		return
	}
	// RECORD consent references must point at an admitted CONSENT_GRANT.
	// The schema validator only checks shape; the lookup happens here.
	if tx.Type == ledger.TxRecord && s.store != nil {
		has, err := s.store.HasConsent(*tx.ConsentRef)
		if err != nil {
			writeError(w, err)
			return
		}
		if !has {
			writeJSON(w, http.StatusConflict, map[string]string{
				"error": "consentRef does not reference an admitted CONSENT_GRANT",
				"field": "consentRef",
			})
			return
		}
	}
	if !s.pool.AddTx(*tx) {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "transaction already pending"})
		return
	}
	if s.gossip != nil {
		go s.gossip.BroadcastTx(*tx)
	}
	s.audit.LogEvent(audit.NewEvent("TxAdmission", tx.TxID, "accepted", ""))
	log.WithFields(log.Fields{"txId": tx.TxID, "type": tx.Type}).Info("tx admitted to mempool")
	writeJSON(w, http.StatusAccepted, TxReceipt{
		ReceiptID: uuid.NewString(),
		TxID:      tx.TxID,
		Status:    "pending",
	})
}

func (s *Server) handleGetBlock(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	b, err := s.store.GetBlock(ps.ByName("hash"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "block not found"})
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
