package ledger

import (
	"time"

	"github.com/billbatista/acasinha-finance/currency"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	EventGroupCreated          = "group.created"
	EventGroupRenamed          = "group.renamed"
	EventGroupDeleted          = "group.deleted"
	EventMembersAdded          = "group.members_added"
	EventSharedExpenseRecorded = "group.shared_expense_recorded"
	EventBalancesReconciled    = "group.balances_reconciled"
)

type GroupCreatedEvent struct {
	GroupID   uuid.UUID     `json:"group_id"`
	Name      string        `json:"name"`
	Members   []string      `json:"members"`
	Currency  currency.Code `json:"currency"`
	CreatedAt time.Time     `json:"created_at"`
}

type SharedExpenseRecordedEvent struct {
	GroupID     uuid.UUID       `json:"group_id"`
	ExpenseID   uuid.UUID       `json:"expense_id"`
	PaidBy      uuid.UUID       `json:"paid_by"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Changes     []BalanceChange `json:"changes"`
}

type BalancesReconciledEvent struct {
	GroupID uuid.UUID                     `json:"group_id"`
	Drift   map[uuid.UUID]decimal.Decimal `json:"drift"`
}
