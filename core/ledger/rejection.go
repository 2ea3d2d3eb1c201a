// Package ledger defines the canonical data model for the medledger chain
// and the validation contract every node applies to incoming transactions
// and blocks. Validation is fail-fast: the first violated field wins and is
// reported as a Rejection carrying the path to the offending value. No
// partially validated value is ever returned.
package ledger

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Rejection describes why a candidate transaction or block was refused.
type Rejection struct {
	Field      string // dot/bracket path to the offending value, e.g. "txs[3].user.pubKeyHex"
	Constraint string // human-readable description of the violated constraint
}

func (r *Rejection) Error() string {
	if r.Field == "" {
		return r.Constraint
	}
	return fmt.Sprintf("%s: %s", r.Field, r.Constraint)
}

// AsRejection unwraps err into a *Rejection if one is in the chain.
func AsRejection(err error) (*Rejection, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}

// rejectf builds a Rejection for the given field path.
func rejectf(field, format string, args ...interface{}) error {
	return errors.WithStack(&Rejection{Field: field, Constraint: fmt.Sprintf(format, args...)})
}

// joinPath appends a field segment to a path prefix. Bracket segments
// ("[3]") attach without a dot.
func joinPath(prefix, field string) string {
	switch {
	case prefix == "":
		return field
	case field == "":
		return prefix
	case strings.HasPrefix(field, "["):
		return prefix + field
	default:
		return prefix + "." + field
	}
}
