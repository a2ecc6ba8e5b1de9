package domain

import (
	"fmt"
	"strings"
)

// Field enumerates the transaction attributes the reconciliation diff tracks.
// Using an enum instead of string-keyed property names keeps the update path
// exhaustive at compile time.
type Field string

const (
	FieldPayee              Field = "payee"
	FieldAmount             Field = "amount"
	FieldDate               Field = "date"
	FieldNotes              Field = "notes"
	FieldIsPending          Field = "pending"
	FieldClassificationCode Field = "classification code"
	FieldClassificationName Field = "classification name"
	FieldRemoteCategoryID   Field = "remote category id"
	FieldRemoteCategoryName Field = "remote category name"
)

// FieldChange records one attribute transition detected during reconciliation,
// with both values rendered for the change history.
type FieldChange struct {
	Field Field
	From  string
	To    string
}

func (c FieldChange) String() string {
	return fmt.Sprintf("%s: %s -> %s", c.Field, c.From, c.To)
}

// SummarizeChanges renders a set of field transitions as a single history
// note, e.g. "payee: A -> B, amount: $1.00 -> $2.00".
func SummarizeChanges(changes []FieldChange) string {
	parts := make([]string, 0, len(changes))
	for _, c := range changes {
		parts = append(parts, c.String())
	}
	return strings.Join(parts, ", ")
}
