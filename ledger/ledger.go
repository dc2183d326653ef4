package ledger

import (
	"errors"
	"strings"
	"time"

	"github.com/billbatista/acasinha-finance/currency"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Group struct {
	ID        uuid.UUID       `json:"id"`
	OwnerID   uuid.UUID       `json:"owner_id"`
	Name      string          `json:"name"`
	Currency  currency.Code   `json:"currency"`
	CreatedAt time.Time       `json:"created_at"`
	Members   []Member        `json:"members"`
	Expenses  []SharedExpense `json:"shared_expenses"` // oldest first
}

type Member struct {
	ID       uuid.UUID       `json:"id"`
	GroupID  uuid.UUID       `json:"group_id"`
	UserRef  string          `json:"user_ref"` // email or opaque id
	Balance  decimal.Decimal `json:"balance"`  // Positive = owed money, Negative = owes money
	JoinedAt time.Time       `json:"joined_at"`
}

type SharedExpense struct {
	ID          uuid.UUID       `json:"id"`
	GroupID     uuid.UUID       `json:"group_id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	PaidBy      uuid.UUID       `json:"paid_by"`
	CreatedAt   time.Time       `json:"created_at"`
	Splits      []Split         `json:"splits,omitempty"`
}

// Split is the share of one shared expense owed by a member.
type Split struct {
	ExpenseID uuid.UUID       `json:"expense_id"`
	MemberID  uuid.UUID       `json:"member_id"`
	Amount    decimal.Decimal `json:"amount"`
}

// BalanceChange is the delta applied to one member by a shared expense.
type BalanceChange struct {
	MemberID uuid.UUID       `json:"member_id"`
	Delta    decimal.Decimal `json:"delta"`
}

// MaxDescriptionLength bounds a shared expense description, in runes.
const MaxDescriptionLength = 200

var (
	ErrEmptyName          = errors.New("name can't be empty")
	ErrEmptyDescription   = errors.New("description can't be empty")
	ErrDescriptionTooLong = errors.New("description is too long")
	ErrNoMembers          = errors.New("group has no members")
	ErrInvalidPayer       = errors.New("payer is not a member of the group")
	ErrNonPositiveAmount  = currency.ErrNonPositiveAmount
	ErrGroupNotFound      = errors.New("group not found")
	ErrMemberNotFound     = errors.New("member not found")
	ErrPartialApply       = errors.New("balance changes were only partially applied")
	ErrBalanceConflict    = errors.New("balance changed concurrently")
)

func NewGroup(ownerID uuid.UUID, name string, code currency.Code, memberRefs []string) (Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Group{}, ErrEmptyName
	}
	if code == "" {
		code = currency.USD
	}
	if err := code.Validate(); err != nil {
		return Group{}, err
	}

	g := Group{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Name:      name,
		Currency:  code,
		CreatedAt: time.Now().UTC(),
	}
	g.Members = NewMembers(g.ID, nil, memberRefs)
	return g, nil
}

// NewMembers creates zero-balance members for refs, skipping blanks and refs
// already present in existing.
func NewMembers(groupID uuid.UUID, existing []Member, refs []string) []Member {
	seen := make(map[string]bool, len(existing)+len(refs))
	for _, m := range existing {
		seen[strings.ToLower(m.UserRef)] = true
	}

	now := time.Now().UTC()
	members := make([]Member, 0, len(refs))
	for i, ref := range refs {
		ref = strings.TrimSpace(ref)
		key := strings.ToLower(ref)
		if ref == "" || seen[key] {
			continue
		}
		seen[key] = true
		members = append(members, Member{
			ID:      uuid.New(),
			GroupID: groupID,
			UserRef: ref,
			Balance: decimal.Zero,
			// keep join order stable for members created in the same call
			JoinedAt: now.Add(time.Duration(i) * time.Microsecond),
		})
	}
	return members
}

func (g *Group) Member(id uuid.UUID) (*Member, bool) {
	for i := range g.Members {
		if g.Members[i].ID == id {
			return &g.Members[i], true
		}
	}
	return nil, false
}

func (g *Group) MemberIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(g.Members))
	for _, m := range g.Members {
		ids = append(ids, m.ID)
	}
	return ids
}
