// Package pdf renders printable invoice documents.
package pdf

import (
	"context"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"go.uber.org/fx"
)

// InvoiceDocument carries the already-formatted fields printed on the
// invoice. Formatting (currency, dates) is the caller's concern.
type InvoiceDocument struct {
	InvoiceNumber string
	IssueDate     string
	BillingPeriod string

	CustomerName    string
	CustomerAddress string
	CustomerNIF     string

	MeterSerial string
	Reading     string
	Volume      string
	UnitPrice   string
	Total       string
}

// Renderer produces the bytes of a printable invoice.
type Renderer interface {
	RenderInvoice(ctx context.Context, doc InvoiceDocument) ([]byte, error)
}

// Module provides the invoice renderer.
var Module = fx.Module("providers.pdf",
	fx.Provide(New),
)

type renderer struct{}

func New() Renderer {
	return &renderer{}
}

func (r *renderer) RenderInvoice(_ context.Context, doc InvoiceDocument) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(12,
		text.NewCol(12, "Water Invoice", props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)

	m.AddRow(20,
		col.New(6).Add(
			text.New("Invoice number: "+doc.InvoiceNumber, props.Text{Top: 0}),
			text.New("Date of issue: "+doc.IssueDate, props.Text{Top: 4}),
			text.New("Billing period: "+doc.BillingPeriod, props.Text{Top: 8}),
		),
		col.New(6),
	)

	m.AddRow(30,
		col.New(6).Add(
			text.New("Bill to", props.Text{Style: fontstyle.Bold}),
			text.New(doc.CustomerName, props.Text{Top: 5}),
			text.New(doc.CustomerAddress, props.Text{Top: 9}),
			text.New("NIF: "+doc.CustomerNIF, props.Text{Top: 13}),
		),
		col.New(6).Add(
			text.New("Meter", props.Text{Style: fontstyle.Bold}),
			text.New(doc.MeterSerial, props.Text{Top: 5}),
			text.New("Counter reading: "+doc.Reading, props.Text{Top: 9}),
		),
	)

	m.AddRow(10,
		text.NewCol(6, "Description", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Volume (m³)", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Unit price", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	m.AddRow(15,
		text.NewCol(6, "Water consumption "+doc.BillingPeriod, props.Text{Size: 9}),
		text.NewCol(2, doc.Volume, props.Text{Size: 9, Align: align.Right}),
		text.NewCol(2, doc.UnitPrice, props.Text{Size: 9, Align: align.Right}),
		text.NewCol(2, doc.Total, props.Text{Size: 9, Align: align.Right}),
	)

	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Total due", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, doc.Total, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	generated, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return generated.GetBytes(), nil
}
