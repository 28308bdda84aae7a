// Package filestore reads and writes the whole ledger as one JSON document
// keyed by member email.
package filestore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/smallbiznis/corpsledger/internal/calendar"
	"github.com/smallbiznis/corpsledger/internal/history"
	memberdomain "github.com/smallbiznis/corpsledger/internal/member/domain"
	"github.com/smallbiznis/corpsledger/internal/money"
	txdomain "github.com/smallbiznis/corpsledger/internal/transaction/domain"
)

var ErrInvalidDocument = errors.New("invalid_document")

type memberDoc struct {
	Email           string            `json:"email"`
	LastName        string            `json:"last_name"`
	FirstName       string            `json:"first_name"`
	StartBalance    money.Money       `json:"start_balance"`
	CreatedAt       string            `json:"created_at"`
	TitleHistory    map[string]string `json:"title_history"`
	ResidentHistory map[string]bool   `json:"resident_history"`
	Transactions    []transactionDoc  `json:"transactions"`
}

type transactionDoc struct {
	Date        string      `json:"date"`
	Description string      `json:"description"`
	Amount      money.Money `json:"amount"`
	Type        string      `json:"type"`
}

// Decode parses a ledger document. Members come back sorted by email.
func Decode(r io.Reader) ([]*memberdomain.Member, error) {
	var doc map[string]memberDoc
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]*memberdomain.Member, 0, len(keys))
	for _, key := range keys {
		m, err := toMember(key, doc[key])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		out = append(out, m)
	}
	return out, nil
}

func toMember(key string, d memberDoc) (*memberdomain.Member, error) {
	email := d.Email
	if strings.TrimSpace(email) == "" {
		email = key
	}
	m := &memberdomain.Member{
		Email:        memberdomain.NormalizeEmail(email),
		LastName:     d.LastName,
		FirstName:    d.FirstName,
		StartBalance: d.StartBalance,
	}
	if d.CreatedAt != "" {
		createdAt, err := calendar.ParseISO(d.CreatedAt)
		if err != nil {
			return nil, err
		}
		m.CreatedAt = createdAt
	}

	for raw, code := range d.TitleHistory {
		date, err := calendar.ParseISO(raw)
		if err != nil {
			return nil, err
		}
		title, err := memberdomain.ParseTitle(code)
		if err != nil {
			return nil, err
		}
		m.TitleHistory.Set(date, title)
	}
	for raw, resident := range d.ResidentHistory {
		date, err := calendar.ParseISO(raw)
		if err != nil {
			return nil, err
		}
		m.ResidencyHistory.Set(date, resident)
	}

	for _, t := range d.Transactions {
		date, err := calendar.ParseISO(t.Date)
		if err != nil {
			return nil, err
		}
		typ := txdomain.TypeCustom
		if strings.TrimSpace(t.Type) != "" {
			if typ, err = txdomain.ParseType(t.Type); err != nil {
				return nil, err
			}
		}
		m.Transactions = append(m.Transactions, txdomain.Transaction{
			MemberEmail: m.Email,
			Date:        date,
			Description: t.Description,
			Amount:      t.Amount,
			Type:        typ,
		})
	}
	return m, nil
}

// Encode writes members as an indented ledger document.
func Encode(w io.Writer, members []*memberdomain.Member) error {
	doc := make(map[string]memberDoc, len(members))
	for _, m := range members {
		if m == nil {
			continue
		}
		d := memberDoc{
			Email:           m.Email,
			LastName:        m.LastName,
			FirstName:       m.FirstName,
			StartBalance:    m.StartBalance,
			TitleHistory:    entriesToMap(m.TitleHistory.Entries(), func(t memberdomain.Title) string { return string(t) }),
			ResidentHistory: entriesToMap(m.ResidencyHistory.Entries(), func(b bool) bool { return b }),
			Transactions:    make([]transactionDoc, 0, len(m.Transactions)),
		}
		if !m.CreatedAt.IsZero() {
			d.CreatedAt = calendar.FormatISO(m.CreatedAt)
		}
		for _, tx := range m.Transactions {
			d.Transactions = append(d.Transactions, transactionDoc{
				Date:        calendar.FormatISO(tx.Date),
				Description: tx.Description,
				Amount:      tx.Amount,
				Type:        string(tx.Type),
			})
		}
		doc[m.Email] = d
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func entriesToMap[T comparable, V any](entries []history.Entry[T], conv func(T) V) map[string]V {
	out := make(map[string]V, len(entries))
	for _, e := range entries {
		out[calendar.FormatISO(e.Date)] = conv(e.Value)
	}
	return out
}
