package email

import (
	"context"
	"net/smtp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type subjectData struct {
	Subject        string
	Title          string
	LastName       string
	BalanceText    string
	TreasurerPhone string
	GeneratedText  string
	Rows           []struct{ DateText, AmountText, Description string }
}

func (d subjectData) EmailSubject() string { return d.Subject }

func TestSendTemplateUsesDataSubject(t *testing.T) {
	var (
		gotAddr string
		gotTo   []string
		gotMsg  string
	)
	p := NewSMTP(Config{Host: "mail.local", Port: 2525, From: "kasse@corps.de"})
	p.send = func(addr string, _ smtp.Auth, _ string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, string(msg)
		return nil
	}

	data := subjectData{
		Subject:     "Kontostand vom 07.05.2025",
		Title:       "CB",
		LastName:    "Muster",
		BalanceText: "-30,00 €",
		Rows: []struct{ DateText, AmountText, Description string }{
			{DateText: "01.04.25", AmountText: "-15,00 €", Description: "Monatsbeitrag (April 2025)"},
		},
	}
	require.NoError(t, p.SendTemplate(context.Background(), []string{"m@corps.de"}, "balance_report", data))

	assert.Equal(t, "mail.local:2525", gotAddr)
	assert.Equal(t, []string{"m@corps.de"}, gotTo)
	assert.Contains(t, gotMsg, "Subject: Kontostand vom 07.05.2025\r\n")
	assert.Contains(t, gotMsg, "Monatsbeitrag (April 2025)")
	assert.True(t, strings.Contains(gotMsg, "Hallo CB Muster"))
	assert.NotContains(t, gotMsg, "Kassenwart unter")
}

func TestSendWithoutRecipients(t *testing.T) {
	p := NewSMTP(Config{Host: "mail.local", Port: 25})
	assert.Error(t, p.Send(context.Background(), nil, "x", "y"))
}
