// Package dashboard is the MedShelf view layer: the card list, the
// create/edit form and the summary counters. It holds no durable state.
// Every successful mutation re-fetches the full list from the API.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ghuser/medshelf/pkg/client"
	"github.com/ghuser/medshelf/pkg/logger"
	"github.com/ghuser/medshelf/pkg/optional"
	"github.com/ghuser/medshelf/pkg/validator"
)

const (
	LowStockThreshold = 5
	ExpiringSoonDays  = 30

	// loadPageSize is the server's pageSize clamp.
	loadPageSize = 200
	dateLayout   = "2006-01-02"
)

// API is the part of *client.Client the dashboard drives.
type API interface {
	List(ctx context.Context, p client.ListParams) (*client.Page, error)
	Create(ctx context.Context, in client.MedicineInput) (*client.Medicine, error)
	Update(ctx context.Context, id int64, in client.MedicineInput) (*client.Medicine, error)
	Delete(ctx context.Context, id int64) error
}

var _ API = (*client.Client)(nil)

type Mode int

const (
	ModeList Mode = iota
	ModeCreate
	ModeEdit
)

func (m Mode) String() string {
	switch m {
	case ModeCreate:
		return "create"
	case ModeEdit:
		return "edit"
	default:
		return "list"
	}
}

// Card is the view model of one medicine.
type Card struct {
	ID        int64
	Name      string
	Brand     string
	Dosage    string
	Quantity  int
	Lot       string
	Notes     string
	ExpiresAt time.Time // zero when the medicine has no expiry
	UpdatedAt time.Time
}

func cardOf(m client.Medicine) Card {
	c := Card{
		ID:        m.ID,
		Name:      m.Name,
		Brand:     deref(m.Brand),
		Dosage:    deref(m.Dosage),
		Quantity:  m.Quantity,
		Lot:       deref(m.Lot),
		Notes:     deref(m.Notes),
		UpdatedAt: m.UpdatedAt,
	}
	if m.ExpiresAt != nil {
		// A malformed date from the server renders as "no expiry".
		if t, err := time.Parse(dateLayout, *m.ExpiresAt); err == nil {
			c.ExpiresAt = t
		}
	}
	return c
}

func (c Card) IsLowStock() bool { return c.Quantity <= LowStockThreshold }

// ExpiresSoon reports an expiry on or before the calendar day ExpiringSoonDays
// after now. Already expired medicines count.
func (c Card) ExpiresSoon(now time.Time) bool {
	if c.ExpiresAt.IsZero() {
		return false
	}
	y, m, d := now.AddDate(0, 0, ExpiringSoonDays).Date()
	cutoff := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return !c.ExpiresAt.After(cutoff)
}

// Expiry is the YYYY-MM-DD expiry or "".
func (c Card) Expiry() string {
	if c.ExpiresAt.IsZero() {
		return ""
	}
	return c.ExpiresAt.Format(dateLayout)
}

// FormData is the create/edit form. Empty optional strings are sent as
// null.
type FormData struct {
	Name      string `json:"name" validate:"required,max=255"`
	Brand     string `json:"brand" validate:"max=255"`
	Dosage    string `json:"dosage" validate:"max=255"`
	Quantity  int    `json:"quantity" validate:"gte=0"`
	Lot       string `json:"lot" validate:"max=255"`
	ExpiresAt string `json:"expires_at" validate:"omitempty,datetime=2006-01-02"`
	Notes     string `json:"notes"`
}

// FormOf fills the edit form from c.
func FormOf(c Card) FormData {
	return FormData{
		Name:      c.Name,
		Brand:     c.Brand,
		Dosage:    c.Dosage,
		Quantity:  c.Quantity,
		Lot:       c.Lot,
		ExpiresAt: c.Expiry(),
		Notes:     c.Notes,
	}
}

func (f FormData) normalized() FormData {
	f.Name = strings.TrimSpace(f.Name)
	f.Brand = strings.TrimSpace(f.Brand)
	f.Dosage = strings.TrimSpace(f.Dosage)
	f.Lot = strings.TrimSpace(f.Lot)
	f.ExpiresAt = strings.TrimSpace(f.ExpiresAt)
	f.Notes = strings.TrimSpace(f.Notes)
	return f
}

// Validate returns the first form problem, e.g. "name is required".
func (f FormData) Validate() error {
	if err := validator.Validate(f.normalized()); err != nil {
		if msg := validator.FirstError(err); msg != "" {
			return errors.New(msg)
		}
		return err
	}
	return nil
}

// input always names every field, so an edit overwrites the whole record.
func (f FormData) input() client.MedicineInput {
	f = f.normalized()
	return client.MedicineInput{
		Name:      optional.Of(f.Name),
		Brand:     nullable(f.Brand),
		Dosage:    nullable(f.Dosage),
		Quantity:  optional.Of(f.Quantity),
		Lot:       nullable(f.Lot),
		ExpiresAt: nullable(f.ExpiresAt),
		Notes:     nullable(f.Notes),
	}
}

type NoticeKind int

const (
	NoticeSuccess NoticeKind = iota
	NoticeError
)

// Notice is a transient message for the user.
type Notice struct {
	Kind    NoticeKind
	Title   string
	Message string
}

func (n Notice) String() string {
	return n.Title + ": " + n.Message
}

// Notifier receives every notice as it is raised.
type Notifier func(Notice)

// Summary are the counters above the card grid. They cover the visible
// (filtered) cards.
type Summary struct {
	Total        int
	LowStock     int
	ExpiringSoon int
}

// Dashboard is not safe for concurrent use; it models a single screen.
type Dashboard struct {
	api    API
	log    logger.Logger
	notify Notifier

	cards   []Card
	search  string
	mode    Mode
	editing *Card
	last    *Notice
}

type Option func(*Dashboard)

func WithLogger(log logger.Logger) Option {
	return func(d *Dashboard) { d.log = log }
}

func WithNotifier(n Notifier) Option {
	return func(d *Dashboard) { d.notify = n }
}

func New(api API, opts ...Option) *Dashboard {
	d := &Dashboard{api: api, log: logger.Nop()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Load replaces the cards with the full list from the API, walking every
// page. On failure the previous cards are kept and an error notice is
// raised.
func (d *Dashboard) Load(ctx context.Context) error {
	var cards []Card
	for page := 1; ; page++ {
		p, err := d.api.List(ctx, client.ListParams{Page: page, PageSize: loadPageSize})
		if err != nil {
			return d.fail(ctx, "Load failed", "Could not load medicines.", err)
		}
		for _, m := range p.Items {
			cards = append(cards, cardOf(m))
		}
		if len(p.Items) == 0 || len(cards) >= p.Total {
			break
		}
	}
	d.cards = cards
	return nil
}

// Search sets the client-side name filter.
func (d *Dashboard) Search(term string) { d.search = term }

func (d *Dashboard) SearchTerm() string { return d.search }

// Cards returns every loaded card, unfiltered.
func (d *Dashboard) Cards() []Card { return d.cards }

// Visible returns the cards whose name contains the search term,
// ignoring case.
func (d *Dashboard) Visible() []Card {
	term := strings.ToLower(strings.TrimSpace(d.search))
	if term == "" {
		return d.cards
	}
	var out []Card
	for _, c := range d.cards {
		if strings.Contains(strings.ToLower(c.Name), term) {
			out = append(out, c)
		}
	}
	return out
}

func (d *Dashboard) Mode() Mode { return d.mode }

// Editing is the card open in the edit form, or nil.
func (d *Dashboard) Editing() *Card { return d.editing }

// LastNotice is the most recent notice, or nil.
func (d *Dashboard) LastNotice() *Notice { return d.last }

func (d *Dashboard) OpenAdd() {
	d.mode = ModeCreate
	d.editing = nil
}

func (d *Dashboard) OpenEdit(c Card) {
	d.mode = ModeEdit
	d.editing = &c
}

func (d *Dashboard) Close() {
	d.mode = ModeList
	d.editing = nil
}

// Submit creates or updates depending on the mode, then closes the form
// and reloads. A validation or API failure leaves the form open.
func (d *Dashboard) Submit(ctx context.Context, f FormData) error {
	if d.mode == ModeList {
		return errors.New("dashboard: no form is open")
	}
	if err := f.Validate(); err != nil {
		d.raise(Notice{Kind: NoticeError, Title: "Invalid medicine", Message: err.Error()})
		return err
	}

	if d.mode == ModeEdit {
		if _, err := d.api.Update(ctx, d.editing.ID, f.input()); err != nil {
			return d.fail(ctx, "Update failed", "Could not update.", err)
		}
		d.raise(Notice{Kind: NoticeSuccess, Title: "Success", Message: "Medicine updated."})
	} else {
		if _, err := d.api.Create(ctx, f.input()); err != nil {
			return d.fail(ctx, "Create failed", "Could not save.", err)
		}
		d.raise(Notice{Kind: NoticeSuccess, Title: "Success", Message: "Medicine added."})
	}

	d.Close()
	return d.Load(ctx)
}

func (d *Dashboard) Delete(ctx context.Context, id int64) error {
	if err := d.api.Delete(ctx, id); err != nil {
		return d.fail(ctx, "Delete failed", "Could not remove.", err)
	}
	d.raise(Notice{Kind: NoticeSuccess, Title: "Medicine removed", Message: "Removal complete."})
	return d.Load(ctx)
}

// Summary derives the counters from the visible cards at now.
func (d *Dashboard) Summary(now time.Time) Summary {
	visible := d.Visible()
	s := Summary{Total: len(visible)}
	for _, c := range visible {
		if c.IsLowStock() {
			s.LowStock++
		}
		if c.ExpiresSoon(now) {
			s.ExpiringSoon++
		}
	}
	return s
}

// fail raises an error notice with the server's text, or fallback when
// err did not come from the API, and returns err wrapped with title.
func (d *Dashboard) fail(ctx context.Context, title, fallback string, err error) error {
	msg := fallback
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		msg = apiErr.Message
	}
	d.log.WarnContext(ctx, "dashboard request failed", "action", title, "error", err)
	d.raise(Notice{Kind: NoticeError, Title: title, Message: msg})
	return fmt.Errorf("%s: %w", strings.ToLower(title), err)
}

func (d *Dashboard) raise(n Notice) {
	d.last = &n
	if d.notify != nil {
		d.notify(n)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nullable(s string) optional.Value[string] {
	if s == "" {
		return optional.Null[string]()
	}
	return optional.Of(s)
}
