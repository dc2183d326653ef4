package ledger

import (
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/billbatista/acasinha-finance/currency"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CalculateSplits divides amount equally among memberIDs in the currency's
// minor unit. Leftover units go one each to the first members.
func CalculateSplits(expenseID uuid.UUID, amount decimal.Decimal, code currency.Code, memberIDs []uuid.UUID) ([]Split, error) {
	numMembers := int64(len(memberIDs))
	if numMembers == 0 {
		return nil, ErrNoMembers
	}

	digits := code.Digits()
	units := amount.Round(digits).Shift(digits).IntPart()
	if units <= 0 {
		return nil, ErrNonPositiveAmount
	}

	baseUnits := units / numMembers
	remainder := units % numMembers

	splits := make([]Split, 0, numMembers)
	for i, memberID := range memberIDs {
		share := baseUnits
		if int64(i) < remainder {
			share++
		}
		splits = append(splits, Split{
			ExpenseID: expenseID,
			MemberID:  memberID,
			Amount:    decimal.New(share, -digits),
		})
	}
	return splits, nil
}

// Plan validates a shared expense against g and computes the balance change
// of every member without touching g.
func Plan(g Group, description string, amount decimal.Decimal, payerID uuid.UUID) (SharedExpense, []BalanceChange, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return SharedExpense{}, nil, ErrEmptyDescription
	}
	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		return SharedExpense{}, nil, ErrDescriptionTooLong
	}
	if !amount.IsPositive() {
		return SharedExpense{}, nil, ErrNonPositiveAmount
	}
	if len(g.Members) == 0 {
		return SharedExpense{}, nil, ErrNoMembers
	}
	if _, ok := g.Member(payerID); !ok {
		return SharedExpense{}, nil, ErrInvalidPayer
	}

	expense := SharedExpense{
		ID:          uuid.New(),
		GroupID:     g.ID,
		Description: description,
		Amount:      amount.Round(g.Currency.Digits()),
		PaidBy:      payerID,
		CreatedAt:   time.Now().UTC(),
	}

	splits, err := CalculateSplits(expense.ID, expense.Amount, g.Currency, g.MemberIDs())
	if err != nil {
		return SharedExpense{}, nil, err
	}
	expense.Splits = splits

	changes := make([]BalanceChange, 0, len(splits))
	for _, split := range splits {
		delta := split.Amount.Neg()
		if split.MemberID == payerID {
			delta = expense.Amount.Sub(split.Amount)
		}
		changes = append(changes, BalanceChange{MemberID: split.MemberID, Delta: delta})
	}
	return expense, changes, nil
}

// Apply appends expense to g and applies changes to its members. Every change
// is checked before any balance is touched.
func (g *Group) Apply(expense SharedExpense, changes []BalanceChange) error {
	for _, c := range changes {
		if _, ok := g.Member(c.MemberID); !ok {
			return ErrMemberNotFound
		}
	}
	for _, c := range changes {
		m, _ := g.Member(c.MemberID)
		m.Balance = m.Balance.Add(c.Delta)
	}
	g.Expenses = append(g.Expenses, expense)
	return nil
}

// RecordSharedExpense splits amount equally among the members of g, credits
// the payer and debits everybody else.
func RecordSharedExpense(g *Group, description string, amount decimal.Decimal, payerID uuid.UUID) (SharedExpense, error) {
	expense, changes, err := Plan(*g, description, amount, payerID)
	if err != nil {
		return SharedExpense{}, err
	}
	if err := g.Apply(expense, changes); err != nil {
		return SharedExpense{}, err
	}
	return expense, nil
}

// CalculateBalances computes net balances for all members from shared
// expenses and their splits.
func CalculateBalances(memberIDs []uuid.UUID, expenses []SharedExpense) map[uuid.UUID]decimal.Decimal {
	balances := make(map[uuid.UUID]decimal.Decimal, len(memberIDs))
	for _, id := range memberIDs {
		balances[id] = decimal.Zero
	}

	for _, expense := range expenses {
		balances[expense.PaidBy] = balances[expense.PaidBy].Add(expense.Amount)
		for _, split := range expense.Splits {
			balances[split.MemberID] = balances[split.MemberID].Sub(split.Amount)
		}
	}
	return balances
}

type Summary struct {
	GroupID       uuid.UUID                     `json:"group_id"`
	OwnerID       uuid.UUID                     `json:"owner_id"`
	Currency      currency.Code                 `json:"currency"`
	MemberCount   int                           `json:"member_count"`
	TotalExpenses decimal.Decimal               `json:"total_expenses"`
	Balances      map[uuid.UUID]decimal.Decimal `json:"balances"`
	Settlements   []Settlement                  `json:"settlements"`
}

// GroupSummary is a read-only view of g.
func GroupSummary(g Group) Summary {
	total := decimal.Zero
	for _, e := range g.Expenses {
		total = total.Add(e.Amount)
	}

	balances := make(map[uuid.UUID]decimal.Decimal, len(g.Members))
	for _, m := range g.Members {
		balances[m.ID] = m.Balance
	}

	return Summary{
		GroupID:       g.ID,
		OwnerID:       g.OwnerID,
		Currency:      g.Currency,
		MemberCount:   len(g.Members),
		TotalExpenses: total,
		Balances:      balances,
		Settlements:   SuggestSettlements(balances),
	}
}

// Settlement is a payment that moves a debtor towards zero.
type Settlement struct {
	From   uuid.UUID       `json:"from"`
	To     uuid.UUID       `json:"to"`
	Amount decimal.Decimal `json:"amount"`
}

// SuggestSettlements pairs the largest debtor with the largest creditor until
// every balance is settled.
func SuggestSettlements(balances map[uuid.UUID]decimal.Decimal) []Settlement {
	type entry struct {
		id     uuid.UUID
		amount decimal.Decimal
	}
	var debtors, creditors []entry
	for id, b := range balances {
		switch {
		case b.IsNegative():
			debtors = append(debtors, entry{id, b.Neg()})
		case b.IsPositive():
			creditors = append(creditors, entry{id, b})
		}
	}
	byAmount := func(s []entry) func(i, j int) bool {
		return func(i, j int) bool {
			if c := s[i].amount.Cmp(s[j].amount); c != 0 {
				return c > 0
			}
			return s[i].id.String() < s[j].id.String()
		}
	}
	sort.Slice(debtors, byAmount(debtors))
	sort.Slice(creditors, byAmount(creditors))

	settlements := make([]Settlement, 0)
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		amount := decimal.Min(debtors[i].amount, creditors[j].amount)
		settlements = append(settlements, Settlement{
			From:   debtors[i].id,
			To:     creditors[j].id,
			Amount: amount,
		})
		debtors[i].amount = debtors[i].amount.Sub(amount)
		creditors[j].amount = creditors[j].amount.Sub(amount)
		if debtors[i].amount.IsZero() {
			i++
		}
		if creditors[j].amount.IsZero() {
			j++
		}
	}
	return settlements
}
