package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/smallbiznis/corpsledger/internal/clock"
	"github.com/smallbiznis/corpsledger/internal/config"
	"github.com/smallbiznis/corpsledger/internal/history"
	memberdomain "github.com/smallbiznis/corpsledger/internal/member/domain"
	"github.com/smallbiznis/corpsledger/internal/money"
	"github.com/smallbiznis/corpsledger/internal/providers/pdf"
	"github.com/smallbiznis/corpsledger/internal/report/domain"
	txdomain "github.com/smallbiznis/corpsledger/internal/transaction/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockEmail struct {
	mock.Mock
}

func (m *mockEmail) Send(ctx context.Context, to []string, subject, body string) error {
	return m.Called(ctx, to, subject, body).Error(0)
}

func (m *mockEmail) SendTemplate(ctx context.Context, to []string, name string, data interface{}) error {
	return m.Called(ctx, to, name, data).Error(0)
}

type stubMembers struct {
	memberdomain.Service
	members []*memberdomain.Member
}

func (s stubMembers) LoadMember(_ context.Context, email string) (*memberdomain.Member, error) {
	for _, m := range s.members {
		if m.Email == email {
			return m, nil
		}
	}
	return nil, memberdomain.ErrNotFound
}

func (s stubMembers) LoadAllMembers(context.Context) ([]*memberdomain.Member, error) {
	return s.members, nil
}

func member(email, lastName string) *memberdomain.Member {
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return &memberdomain.Member{
		Email:        email,
		LastName:     lastName,
		CreatedAt:    created,
		TitleHistory: history.New(history.Entry[memberdomain.Title]{Date: created, Value: memberdomain.TitleFox}),
		Transactions: []txdomain.Transaction{
			{Date: created, Amount: money.MustParse("-15.00"), Description: "Monatsbeitrag (Januar 2025)", Type: txdomain.TypeMonthlyFee},
		},
	}
}

func newService(mailer *mockEmail, members ...*memberdomain.Member) *Service {
	cfg := config.Config{Email: config.EmailConfig{TreasurerPhone: "0170 1234567"}}
	return New(Params{
		Log:     zap.NewNop(),
		Clock:   clock.NewFakeClock(time.Date(2025, 5, 7, 9, 0, 0, 0, time.UTC)),
		Config:  cfg,
		Ledger:  config.NewStaticLedgerConfigHolder(config.DefaultLedgerConfig()),
		Members: stubMembers{members: members},
		Email:   mailer,
		PDF:     pdf.New(),
	}).(*Service)
}

func TestSendUsesBalanceTemplate(t *testing.T) {
	mailer := &mockEmail{}
	mailer.On("SendTemplate", mock.Anything, []string{"a@corps.de"}, domain.TemplateBalanceReport, mock.MatchedBy(func(r domain.BalanceReport) bool {
		return r.Subject == "Kontostand vom 07.05.2025" && r.BalanceText == "-15,00 €" && r.TreasurerPhone == "0170 1234567"
	})).Return(nil)

	svc := newService(mailer, member("a@corps.de", "Alpha"))
	require.NoError(t, svc.Send(context.Background(), "a@corps.de"))
	mailer.AssertExpectations(t)

	assert.ErrorIs(t, svc.Send(context.Background(), "ghost@corps.de"), memberdomain.ErrNotFound)
}

func TestSendAllCollectsFailures(t *testing.T) {
	mailer := &mockEmail{}
	mailer.On("SendTemplate", mock.Anything, []string{"a@corps.de"}, mock.Anything, mock.Anything).Return(nil)
	mailer.On("SendTemplate", mock.Anything, []string{"b@corps.de"}, mock.Anything, mock.Anything).Return(errors.New("mailbox full"))

	svc := newService(mailer, member("a@corps.de", "Alpha"), member("b@corps.de", "Beta"))
	result := svc.SendAll(context.Background())

	assert.Equal(t, []string{"a@corps.de"}, result.Succeeded)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "b@corps.de", result.Failed[0].ID)
}

func TestStatementRendersPDF(t *testing.T) {
	svc := newService(&mockEmail{}, member("a@corps.de", "Alpha"))

	st, err := svc.Statement(context.Background(), "a@corps.de")
	require.NoError(t, err)
	assert.Equal(t, "kontoauszug-f-alpha-2025-05-07.pdf", st.Filename)
	assert.Equal(t, "%PDF", string(st.Content[:4]))
}
