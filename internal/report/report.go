// internal/report/report.go
package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/tamzrod/modbus-scanner/internal/register"
	"github.com/tamzrod/modbus-scanner/internal/session"
)

// plainStyle is the default style without the outer box and with headers as written.
var plainStyle = func() table.Style {
	s := table.StyleDefault
	s.Name = "Plain"
	s.Format.Header = text.FormatDefault
	s.Options.DrawBorder = false
	s.Options.SeparateColumns = true
	s.Options.SeparateHeader = true
	s.Options.SeparateRows = false
	return s
}()

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(plainStyle)
	return t
}

// ReferenceTable describes the four categories: address ranges, raw range, function code.
// Static: it never depends on scan results.
func ReferenceTable() string {
	t := newTable()
	t.AppendHeader(table.Row{"Register Type", "Modbus Address", "RAW Address (without offset)", "Modbus Function"})

	raw := fmt.Sprintf("0-%d", register.RawAddressCount-1)
	for _, c := range register.All {
		s, err := register.Lookup(c)
		if err != nil {
			continue
		}
		first, last, _ := c.ModbusRange()
		t.AppendRow(table.Row{
			s.Description,
			fmt.Sprintf("%05d-%05d", first, last),
			raw,
			fmt.Sprintf("%02d", s.FunctionCode),
		})
	}
	return t.Render()
}

// Render produces the final summary for s.
// Deterministic: same session, same bytes. No timestamps here.
func Render(s *session.Session) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Modbus Scan Report for %s:%d (Slave ID: %d)\n", s.Host, s.Port, s.UnitID)
	b.WriteString(strings.Repeat("=", 60) + "\n")
	b.WriteString("Modbus Register Categories Table:\n")
	b.WriteString(ReferenceTable() + "\n\n")

	for _, c := range s.Scanned() {
		res, _ := s.Result(c)
		title := c.String()
		if info, err := register.Lookup(c); err == nil {
			title = info.Title
		}

		fmt.Fprintf(&b, "Category: %s\n", title)
		if len(res.Readings) == 0 {
			b.WriteString("No data found.\n\n")
			continue
		}

		t := newTable()
		t.AppendHeader(table.Row{"Modbus Address", "Value"})
		t.SetColumnConfigs([]table.ColumnConfig{
			{Number: 1, Align: text.AlignLeft},
			{Number: 2, Align: text.AlignLeft},
		})
		for _, r := range res.Readings {
			t.AppendRow(table.Row{r.Address, r.Value.String()})
		}
		b.WriteString(t.Render() + "\n\n")
	}

	if s.Interrupted {
		b.WriteString("Scan interrupted by user: results are partial.\n")
	}
	fmt.Fprintf(&b, "(Scan performed with blocks of %d registers and a delay of %s seconds per block)", s.BlockSize, seconds(s.Delay))

	return b.String()
}

// seconds formats d as decimal seconds, always with a fractional part: 4.0, 1.5, 0.25.
func seconds(d time.Duration) string {
	v := strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
	if !strings.Contains(v, ".") {
		v += ".0"
	}
	return v
}
