package order

import (
    "errors"
    "fmt"
    "time"
)

// Status tracks an order through the print workflow.
type Status string

const (
    StatusReceived     Status = "received"
    StatusInProduction Status = "in_production"
    StatusShipped      Status = "shipped"
    StatusCancelled    Status = "cancelled"
)

// ValidStatus reports whether s is one of the known workflow states.
func ValidStatus(s Status) bool {
    switch s {
    case StatusReceived, StatusInProduction, StatusShipped, StatusCancelled:
        return true
    }
    return false
}

// validTransitions holds the allowed forward moves. Cancel is reachable
// from any non-terminal state.
var validTransitions = map[Status][]Status{
    StatusReceived:     {StatusInProduction, StatusCancelled},
    StatusInProduction: {StatusShipped, StatusCancelled},
}

// CanTransition reports whether an order may move from to next.
func CanTransition(from, next Status) bool {
    for _, s := range validTransitions[from] {
        if s == next {
            return true
        }
    }
    return false
}

// CustomerContact is captured at order time. Name, email and phone are
// mandatory; the rest is passed through to the print shop as-is.
type CustomerContact struct {
    Name    string `json:"name"`
    Email   string `json:"email"`
    Phone   string `json:"phone"`
    Company string `json:"company,omitempty"`
    Address string `json:"address,omitempty"`
    Notes   string `json:"notes,omitempty"`
}

// Validate checks the mandatory contact fields.
func (c *CustomerContact) Validate() error {
    if c.Name == "" {
        return errors.New("contact name is required")
    }
    if c.Email == "" {
        return errors.New("contact email is required")
    }
    if c.Phone == "" {
        return errors.New("contact phone is required")
    }
    return nil
}

// Order is a print request for a page subset of one catalogue. The
// document name is snapshotted so later catalogue renames do not rewrite
// order history.
type Order struct {
    ID                   string          `json:"id"`
    DocumentID           string          `json:"document_id"`
    DocumentNameSnapshot string          `json:"document_name"`
    SelectedPages        []int           `json:"selected_pages"`
    Contact              CustomerContact `json:"contact"`
    Status               Status          `json:"status"`
    ResultRef            string          `json:"result_ref,omitempty"`
    CreatedAt            time.Time       `json:"created_at"`
    UpdatedAt            time.Time       `json:"updated_at"`
}

// Validate checks the order against the document's page count. Pages must
// be non-empty, strictly ascending and inside [1, totalPages].
func (o *Order) Validate(totalPages int) error {
    if o.ID == "" {
        return errors.New("order id is required")
    }
    if o.DocumentID == "" {
        return errors.New("document id is required")
    }
    if err := o.Contact.Validate(); err != nil {
        return err
    }
    if !ValidStatus(o.Status) {
        return fmt.Errorf("unknown status %q", o.Status)
    }
    if len(o.SelectedPages) == 0 {
        return errors.New("selected pages must not be empty")
    }
    prev := 0
    for _, p := range o.SelectedPages {
        if p < 1 || p > totalPages {
            return fmt.Errorf("page %d out of range [1,%d]", p, totalPages)
        }
        if p <= prev {
            return fmt.Errorf("pages must be strictly ascending, got %d after %d", p, prev)
        }
        prev = p
    }
    return nil
}
