package lunchmoney

// User identifies the budget the token belongs to.
type User struct {
	UserID      int64  `json:"user_id"`
	UserName    string `json:"user_name"`
	Email       string `json:"user_email"`
	BudgetName  string `json:"budget_name"`
	APIKeyLabel string `json:"api_key_label"`
}

// Category is one remote budgeting category.
type Category struct {
	ID                int64  `json:"id"`
	Name              string `json:"name"`
	Description       string `json:"description"`
	IsIncome          bool   `json:"is_income"`
	ExcludeFromBudget bool   `json:"exclude_from_budget"`
	ExcludeFromTotals bool   `json:"exclude_from_totals"`
}

// Asset is one manually-managed remote account.
type Asset struct {
	ID              int64  `json:"id"`
	TypeName        string `json:"type_name"`
	SubtypeName     string `json:"subtype_name"`
	Name            string `json:"name"`
	Balance         string `json:"balance"`
	BalanceAsOf     string `json:"balance_as_of"`
	Currency        string `json:"currency"`
	InstitutionName string `json:"institution_name"`
}

// Transaction is one remote ledger transaction.
type Transaction struct {
	ID         int64  `json:"id"`
	Date       string `json:"date"`
	Payee      string `json:"payee"`
	Amount     string `json:"amount"`
	Currency   string `json:"currency"`
	CategoryID *int64 `json:"category_id"`
	AssetID    *int64 `json:"asset_id"`
	Notes      string `json:"notes"`
	Status     string `json:"status"`
	// ExternalID carries the local transaction id and is the sole dedupe
	// mechanism against the remote store.
	ExternalID string `json:"external_id"`
	IsPending  bool   `json:"is_pending"`
}

// TransactionFilters narrows GET /transactions. Only string and integer
// scalar fields reach the query string; anything else a future field adds is
// silently dropped by the encoder.
type TransactionFilters struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	AssetID   int64  `json:"asset_id"`
	Limit     int    `json:"limit"`
	Offset    int    `json:"offset"`
}

// InsertTransaction is one transaction in a create batch.
type InsertTransaction struct {
	Date       string `json:"date"`
	Payee      string `json:"payee"`
	Amount     string `json:"amount"`
	CategoryID *int64 `json:"category_id,omitempty"`
	AssetID    *int64 `json:"asset_id,omitempty"`
	Notes      string `json:"notes,omitempty"`
	Status     string `json:"status,omitempty"`
	ExternalID string `json:"external_id,omitempty"`
	IsPending  bool   `json:"is_pending"`
}

// InsertRequest is the POST /transactions body: a batch plus the server-side
// behavior flags.
type InsertRequest struct {
	Transactions      []InsertTransaction `json:"transactions"`
	ApplyRules        bool                `json:"apply_rules"`
	SkipDuplicates    bool                `json:"skip_duplicates"`
	CheckForRecurring bool                `json:"check_for_recurring"`
	SkipBalanceUpdate bool                `json:"skip_balance_update"`
}

// InsertResponse carries the ids of created transactions.
type InsertResponse struct {
	IDs []int64 `json:"ids"`
}

// UpdateFields is a partial transaction update; nil fields are left untouched
// remotely.
type UpdateFields struct {
	Date       *string `json:"date,omitempty"`
	Payee      *string `json:"payee,omitempty"`
	Amount     *string `json:"amount,omitempty"`
	CategoryID *int64  `json:"category_id,omitempty"`
	AssetID    *int64  `json:"asset_id,omitempty"`
	Notes      *string `json:"notes,omitempty"`
	Status     *string `json:"status,omitempty"`
	// IsPending is always sent false: the remote service does not allow
	// re-marking a cleared transaction as pending.
	IsPending *bool `json:"is_pending,omitempty"`
}

// Ptr returns a pointer to v, for building UpdateFields literals.
func Ptr[T any](v T) *T {
	return &v
}
