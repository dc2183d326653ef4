package category

import (
	"errors"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const Other = "Other"

const maxNameLength = 50

type Category struct {
	ID        uuid.UUID `json:"id,omitempty"`
	UserID    uuid.UUID `json:"-"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	Default   bool      `json:"default"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

var (
	ErrEmptyName       = errors.New("category name can't be empty")
	ErrNameTooLong     = errors.New("category name is too long")
	ErrExists          = errors.New("category already exists")
	ErrDefaultCategory = errors.New("default categories can't be removed")
	ErrNotFound        = errors.New("category not found")
)

var defaults = []Category{
	{Name: "Food & Dining", Color: "#ef4444", Default: true},
	{Name: "Transportation", Color: "#3b82f6", Default: true},
	{Name: "Shopping", Color: "#a855f7", Default: true},
	{Name: "Entertainment", Color: "#ec4899", Default: true},
	{Name: "Bills & Utilities", Color: "#eab308", Default: true},
	{Name: "Healthcare", Color: "#22c55e", Default: true},
	{Name: "Travel", Color: "#6366f1", Default: true},
	{Name: "Education", Color: "#14b8a6", Default: true},
	{Name: "Personal", Color: "#6b7280", Default: true},
	{Name: Other, Color: "#f97316", Default: true},
}

// palette colors custom categories in order.
var palette = []string{
	"#f43f5e", // rose
	"#f59e0b", // amber
	"#84cc16", // lime
	"#10b981", // emerald
	"#06b6d4", // cyan
	"#0ea5e9", // sky
	"#8b5cf6", // violet
	"#d946ef", // fuchsia
	"#78716c", // stone
	"#71717a", // zinc
}

func Defaults() []Category {
	return slices.Clone(defaults)
}

func IsDefault(name string) bool {
	return slices.ContainsFunc(defaults, func(c Category) bool {
		return strings.EqualFold(c.Name, name)
	})
}

// NextColor returns the first palette color nobody uses yet, or the first
// palette color once all are taken.
func NextColor(used []Category) string {
	for _, color := range palette {
		if !slices.ContainsFunc(used, func(c Category) bool { return c.Color == color }) {
			return color
		}
	}
	return palette[0]
}

func NormalizeName(name string) (string, error) {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return "", ErrEmptyName
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return "", ErrNameTooLong
	}
	return name, nil
}

func Names(categories []Category) []string {
	names := make([]string, 0, len(categories))
	for _, c := range categories {
		names = append(names, c.Name)
	}
	return names
}
