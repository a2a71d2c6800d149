package service

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"
	auditdomain "github.com/smallbiznis/cardsynth/internal/audit/domain"
)

const monthLayout = "Jan 2006"

func money(d decimal.Decimal) string {
	return "$" + humanize.FormatFloat("#,###.##", d.InexactFloat64())
}

func ratio(r *decimal.Decimal) string {
	if r == nil {
		return "n/a"
	}
	return r.StringFixed(2) + "x"
}

func monthSpend(m *auditdomain.MonthlySpend) (string, string) {
	if m == nil {
		return "n/a", "n/a"
	}
	return m.Month.Format(monthLayout), money(m.Spend)
}

// WriteText prints the summary as plain sections, one per concern.
func (s *Service) WriteText(w io.Writer, sum auditdomain.Summary) error {
	section := func(title string) {
		fmt.Fprintf(w, "--- %s ---\n", title)
	}

	section("PORTFOLIO FINANCIALS")
	fmt.Fprintf(w, "Total Portfolio Spend: %s\n", money(sum.TotalSpend))
	fmt.Fprintf(w, "Average Transaction Value (ATV): %s\n\n", money(sum.AverageTransactionValue))

	section("SEGMENT PERFORMANCE")
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Segment\tTotal Spend\tTxn Count\tAvg Spend Per Txn")
	for _, seg := range sum.Segments {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", seg.Segment, money(seg.TotalSpend), seg.Transactions, money(seg.AverageSpend))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(w)

	section("TREND ANALYSIS")
	prevMonth, prevSpend := monthSpend(sum.Trend.PreviousMonth)
	lastMonth, lastSpend := monthSpend(sum.Trend.LastMonth)
	fmt.Fprintf(w, "%s Spend: %s\n", prevMonth, prevSpend)
	fmt.Fprintf(w, "%s Spend: %s\n", lastMonth, lastSpend)
	fmt.Fprintf(w, "Spike Intensity (last/previous): %s\n\n", ratio(sum.Trend.SpikeRatio))

	section("INTEGRITY & HYGIENE")
	fmt.Fprintf(w, "Duplicate Transaction IDs: %d\n", sum.Hygiene.DuplicateTransactionIDs)
	fmt.Fprintf(w, "Missing/Null Amounts: %d\n", sum.Hygiene.NullAmounts)
	fmt.Fprintf(w, "Missing/Null Dates: %d\n", sum.Hygiene.NullDates)
	if err := sum.Integrity.Err(); err != nil {
		_, err = fmt.Fprintf(w, "Referential Integrity: %v\n", err)
		return err
	}
	_, err := fmt.Fprintln(w, "Referential Integrity: ok")
	return err
}

func (s *Service) RenderPDF(ctx context.Context, sum auditdomain.Summary) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(12,
		text.NewCol(12, "Portfolio Audit", props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)
	m.AddRow(8,
		text.NewCol(12, "Generated "+sum.GeneratedAt.Format("2006-01-02 15:04 MST"), props.Text{Size: 9}),
	)

	heading := func(title string) {
		m.AddRow(12, text.NewCol(12, title, props.Text{Size: 13, Style: fontstyle.Bold, Top: 4}))
	}
	pair := func(label, value string) {
		m.AddRow(6,
			text.NewCol(8, label, props.Text{Size: 9}),
			text.NewCol(4, value, props.Text{Size: 9, Align: align.Right}),
		)
	}

	heading("Financials")
	pair("Total portfolio spend", money(sum.TotalSpend))
	pair("Average transaction value", money(sum.AverageTransactionValue))

	heading("Segments")
	m.AddRow(7,
		text.NewCol(4, "Segment", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(3, "Total spend", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Txns", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(3, "Avg per txn", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
	for _, seg := range sum.Segments {
		m.AddRow(6,
			text.NewCol(4, string(seg.Segment), props.Text{Size: 9}),
			text.NewCol(3, money(seg.TotalSpend), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, strconv.Itoa(seg.Transactions), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(3, money(seg.AverageSpend), props.Text{Size: 9, Align: align.Right}),
		)
	}

	heading("Monthly spend")
	for _, month := range sum.Monthly {
		m.AddRow(5,
			text.NewCol(4, month.Month.Format(monthLayout), props.Text{Size: 8}),
			text.NewCol(3, money(month.Spend), props.Text{Size: 8, Align: align.Right}),
			text.NewCol(2, strconv.Itoa(month.Transactions), props.Text{Size: 8, Align: align.Right}),
			col.New(3),
		)
	}

	heading("Trend")
	prevMonth, prevSpend := monthSpend(sum.Trend.PreviousMonth)
	lastMonth, lastSpend := monthSpend(sum.Trend.LastMonth)
	pair(prevMonth+" spend", prevSpend)
	pair(lastMonth+" spend", lastSpend)
	pair("Spike intensity", ratio(sum.Trend.SpikeRatio))

	heading("Integrity & hygiene")
	pair("Duplicate transaction ids", strconv.Itoa(sum.Hygiene.DuplicateTransactionIDs))
	pair("Null amounts", strconv.Itoa(sum.Hygiene.NullAmounts))
	pair("Null dates", strconv.Itoa(sum.Hygiene.NullDates))
	integrity := "ok"
	if err := sum.Integrity.Err(); err != nil {
		integrity = err.Error()
	}
	pair("Referential integrity", integrity)

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return doc.GetBytes(), nil
}
