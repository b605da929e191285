package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// RowType discriminates the row variants on the wire
type RowType string

const (
	RowTypeItem     RowType = "item"
	RowTypeSection  RowType = "section"
	RowTypeSubtotal RowType = "subtotal"
)

// DefaultSubtotalTitle is the label a subtotal row falls back to when none is given
const DefaultSubtotalTitle = "Totale:"

// Row is one line in an offer's itemized table.
// Only ItemRow carries numeric fields; section and subtotal rows are structural.
type Row interface {
	RowID() string
	Type() RowType
}

// ItemRow is a priced line contributing quantity * price to the subtotal
type ItemRow struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Quantity    float64 `json:"quantity"`
	Price       float64 `json:"price"`
	Unit        string  `json:"unit,omitempty"`
}

func (r ItemRow) RowID() string { return r.ID }
func (r ItemRow) Type() RowType { return RowTypeItem }

// Amount returns the line's contribution to the subtotal
func (r ItemRow) Amount() float64 { return r.Quantity * r.Price }

// SectionRow is a header grouping the item rows that follow it.
// It contributes nothing numerically but bounds subtotal-row scoping.
type SectionRow struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func (r SectionRow) RowID() string { return r.ID }
func (r SectionRow) Type() RowType { return RowTypeSection }

// SubtotalRow displays the sum of item rows since the nearest preceding section.
// The displayed value is derived at render time and never stored.
type SubtotalRow struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func (r SubtotalRow) RowID() string { return r.ID }
func (r SubtotalRow) Type() RowType { return RowTypeSubtotal }

// NewItemRow creates an item row with a fresh identifier
func NewItemRow(title string, quantity, price float64) ItemRow {
	return ItemRow{
		ID:       uuid.New().String(),
		Title:    title,
		Quantity: quantity,
		Price:    price,
	}
}

// NewSectionRow creates a section header row with a fresh identifier
func NewSectionRow(title string) SectionRow {
	return SectionRow{ID: uuid.New().String(), Title: title}
}

// NewSubtotalRow creates a subtotal row with a fresh identifier.
// An empty title falls back to the default label.
func NewSubtotalRow(title string) SubtotalRow {
	if title == "" {
		title = DefaultSubtotalTitle
	}
	return SubtotalRow{ID: uuid.New().String(), Title: title}
}

// RowList is the ordered row sequence of an offer.
// Order is semantically meaningful: it drives subtotal scoping and display order.
type RowList []Row

// rowEnvelope is the wire form of a row; optional numeric fields stay pointers
// so section/subtotal rows never emit quantity/price keys.
type rowEnvelope struct {
	Type        RowType  `json:"type"`
	ID          string   `json:"id"`
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Quantity    *float64 `json:"quantity,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Unit        string   `json:"unit,omitempty"`
}

// MarshalJSON encodes the sequence with a type discriminant per row
func (rl RowList) MarshalJSON() ([]byte, error) {
	envelopes := make([]rowEnvelope, len(rl))
	for i, row := range rl {
		switch r := row.(type) {
		case ItemRow:
			q, p := r.Quantity, r.Price
			envelopes[i] = rowEnvelope{
				Type:        RowTypeItem,
				ID:          r.ID,
				Title:       r.Title,
				Description: r.Description,
				Quantity:    &q,
				Price:       &p,
				Unit:        r.Unit,
			}
		case SectionRow:
			envelopes[i] = rowEnvelope{Type: RowTypeSection, ID: r.ID, Title: r.Title}
		case SubtotalRow:
			envelopes[i] = rowEnvelope{Type: RowTypeSubtotal, ID: r.ID, Title: r.Title}
		default:
			return nil, fmt.Errorf("unknown row variant at index %d: %T", i, row)
		}
	}
	return json.Marshal(envelopes)
}

// UnmarshalJSON decodes the sequence, rejecting unknown row types
func (rl *RowList) UnmarshalJSON(data []byte) error {
	var envelopes []rowEnvelope
	if err := json.Unmarshal(data, &envelopes); err != nil {
		return err
	}

	rows := make(RowList, 0, len(envelopes))
	for i, env := range envelopes {
		switch env.Type {
		case RowTypeItem:
			row := ItemRow{
				ID:          env.ID,
				Title:       env.Title,
				Description: env.Description,
				Unit:        env.Unit,
			}
			if env.Quantity != nil {
				row.Quantity = *env.Quantity
			}
			if env.Price != nil {
				row.Price = *env.Price
			}
			rows = append(rows, row)
		case RowTypeSection:
			rows = append(rows, SectionRow{ID: env.ID, Title: env.Title})
		case RowTypeSubtotal:
			rows = append(rows, SubtotalRow{ID: env.ID, Title: env.Title})
		default:
			return fmt.Errorf("unknown row type %q at index %d", env.Type, i)
		}
	}
	*rl = rows
	return nil
}

// Value serializes the sequence for the document column
func (rl RowList) Value() (driver.Value, error) {
	if rl == nil {
		return "[]", nil
	}
	data, err := json.Marshal(rl)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan deserializes the sequence from the document column
func (rl *RowList) Scan(value interface{}) error {
	if value == nil {
		*rl = RowList{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return rl.UnmarshalJSON(v)
	case string:
		return rl.UnmarshalJSON([]byte(v))
	default:
		return fmt.Errorf("cannot scan %T into RowList", value)
	}
}

// Clone returns a deep copy of the sequence; row identifiers are preserved
func (rl RowList) Clone() RowList {
	if rl == nil {
		return nil
	}
	out := make(RowList, len(rl))
	copy(out, rl) // variants are value types, so element copies share nothing
	return out
}
