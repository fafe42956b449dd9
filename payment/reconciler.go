// Package payment keeps amount paid and due amount consistent with an invoice total.
//
// A Reconciler is a small state machine driven by named triggers. Every trigger
// settles the pair so that amountPaid + dueAmount equals the whole-unit total,
// and returns the writes it made. Callers forward only the writes flagged
// Propagate; the rest are silent, so no trigger can re-enter another one.
package payment

import (
	"github.com/shopspring/decimal"

	"invoicing-backend/utils"
)

type Field string

const (
	FieldAmountPaid Field = "amount_paid"
	FieldDueAmount  Field = "due_amount"
)

// ParseField maps a route segment to a Field.
func ParseField(s string) (Field, bool) {
	switch Field(s) {
	case FieldAmountPaid, FieldDueAmount:
		return Field(s), true
	}
	return "", false
}

// Write is one change to a payment field made while settling.
type Write struct {
	Field     Field           `json:"field"`
	Value     decimal.Decimal `json:"value"`
	Propagate bool            `json:"propagate"`
}

// State is a read-only snapshot of the settled pair.
type State struct {
	Total      decimal.Decimal `json:"total"` // whole units
	AmountPaid decimal.Decimal `json:"amount_paid"`
	DueAmount  decimal.Decimal `json:"due_amount"`
}

type Reconciler struct {
	total      decimal.Decimal
	amountPaid decimal.Decimal
	dueAmount  decimal.Decimal

	// pinned is set once amountPaid reflects something the user entered (or
	// a loaded invoice). Until then the form assumes the invoice is fully paid.
	pinned bool
}

// NewForCreate starts a fresh invoice: fully paid against the starting total.
func NewForCreate(total decimal.Decimal) *Reconciler {
	rounded := utils.RoundUnit(utils.NonNegative(total))
	return &Reconciler{
		total:      rounded,
		amountPaid: rounded,
		dueAmount:  decimal.Zero,
	}
}

// NewForEdit loads a persisted invoice. A nil amountPaid means the invoice
// predates payment tracking and is treated as paid in full.
func NewForEdit(total decimal.Decimal, amountPaid *decimal.Decimal) *Reconciler {
	rounded := utils.RoundUnit(utils.NonNegative(total))
	paid := total
	if amountPaid != nil {
		paid = *amountPaid
	}
	paid = utils.RoundUnit(paid)
	return &Reconciler{
		total:      rounded,
		amountPaid: paid,
		dueAmount:  rounded.Sub(paid),
		pinned:     true,
	}
}

func (r *Reconciler) State() State {
	return State{Total: r.total, AmountPaid: r.amountPaid, DueAmount: r.dueAmount}
}

// ItemsChanged re-settles against a new total. A zero total clears both fields.
// Otherwise the user's amountPaid is kept and dueAmount absorbs the difference;
// before the user has touched payment, amountPaid follows the total.
func (r *Reconciler) ItemsChanged(total decimal.Decimal) []Write {
	r.total = utils.RoundUnit(utils.NonNegative(total))

	var w writes
	switch {
	case r.total.IsZero():
		w.set(r, FieldAmountPaid, decimal.Zero, false)
		w.set(r, FieldDueAmount, decimal.Zero, false)
	case !r.pinned:
		w.set(r, FieldAmountPaid, r.total, false)
		w.set(r, FieldDueAmount, decimal.Zero, false)
	default:
		w.set(r, FieldDueAmount, r.total.Sub(r.amountPaid), false)
	}
	return w
}

// EditAmountPaid applies a user edit of amountPaid and silently derives dueAmount.
func (r *Reconciler) EditAmountPaid(v decimal.Decimal) []Write {
	return r.editAmountPaid(v)
}

// EditDueAmount applies a user edit of dueAmount. The derived amountPaid is
// written with propagation, since amountPaid is what other views observe.
func (r *Reconciler) EditDueAmount(v decimal.Decimal) []Write {
	return r.editDueAmount(v)
}

// Commit handles blur on a payment field: the value is rounded to whole units
// and, only if that changed it, written back as a normal edit.
func (r *Reconciler) Commit(f Field) []Write {
	current := r.amountPaid
	if f == FieldDueAmount {
		current = r.dueAmount
	}
	rounded := utils.RoundUnit(current)
	if rounded.Equal(current) {
		return nil
	}

	w := writes{{Field: f, Value: rounded, Propagate: true}}
	if f == FieldAmountPaid {
		w = append(w, r.editAmountPaid(rounded)...)
	} else {
		w = append(w, r.editDueAmount(rounded)...)
	}
	return w
}

func (r *Reconciler) editAmountPaid(v decimal.Decimal) writes {
	r.amountPaid = v
	r.pinned = true

	var w writes
	w.set(r, FieldDueAmount, r.total.Sub(v), false)
	return w
}

func (r *Reconciler) editDueAmount(v decimal.Decimal) writes {
	r.dueAmount = v
	r.pinned = true

	var w writes
	w.set(r, FieldAmountPaid, r.total.Sub(v), true)
	return w
}

type writes []Write

// set records a write only when the value actually changes.
func (w *writes) set(r *Reconciler, f Field, v decimal.Decimal, propagate bool) {
	target := &r.amountPaid
	if f == FieldDueAmount {
		target = &r.dueAmount
	}
	if target.Equal(v) {
		return
	}
	*target = v
	*w = append(*w, Write{Field: f, Value: v, Propagate: propagate})
}
