package pdf

import (
	"bytes"
	"context"
	"io"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// StatementData is a member's account statement with every value preformatted.
type StatementData struct {
	Heading        string
	MemberName     string
	MemberEmail    string
	Balance        string
	GeneratedAt    string
	TreasurerPhone string

	Rows []StatementRow
}

type StatementRow struct {
	Date        string
	Amount      string
	Description string
}

type PDFProvider struct{}

func New() Provider {
	return &PDFProvider{}
}

func (p *PDFProvider) GenerateStatement(ctx context.Context, data StatementData) (io.Reader, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Seite {current} von {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(20,
		text.NewCol(8, data.Heading, props.Text{
			Size:  18,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
		text.NewCol(4, data.GeneratedAt, props.Text{
			Size:  9,
			Align: align.Right,
		}),
	)

	m.AddRow(20,
		col.New(8).Add(
			text.New(data.MemberName, props.Text{Style: fontstyle.Bold}),
			text.New(data.MemberEmail, props.Text{Top: 5, Size: 9}),
		),
		col.New(4).Add(
			text.New("Kontostand", props.Text{Size: 9, Align: align.Right}),
			text.New(data.Balance, props.Text{Top: 5, Style: fontstyle.Bold, Align: align.Right}),
		),
	)

	m.AddRow(10,
		text.NewCol(2, "Datum", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(7, "Beschreibung", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(3, "Betrag", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	for _, row := range data.Rows {
		m.AddRow(7,
			text.NewCol(2, row.Date, props.Text{Size: 9}),
			text.NewCol(7, row.Description, props.Text{Size: 9}),
			text.NewCol(3, row.Amount, props.Text{Size: 9, Align: align.Right}),
		)
	}

	if data.TreasurerPhone != "" {
		m.AddRow(15,
			text.NewCol(12, "Kassenwart: "+data.TreasurerPhone, props.Text{Size: 8, Top: 6}),
		)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}

	return bytes.NewReader(doc.GetBytes()), nil
}
