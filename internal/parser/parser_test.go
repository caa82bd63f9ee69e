package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/goscreener/internal/domain"
	"github.com/jonesrussell/goscreener/internal/parser"
)

// screenerTableHTML is a two-row screener table with the markup shape the
// production page renders.
const screenerTableHTML = `<table>
<tbody>
<tr data-testid="data-table-v2-row">
  <td data-testid-cell="ticker"><span class="symbol">GGAL.BA</span></td>
  <td data-testid-cell="companyshortname.raw"><div title="Grupo Financiero Galicia S.A.">Grupo Financiero Galicia</div></td>
  <td data-testid-cell="intradayprice"><span data-testid="change">7,251.00</span></td>
</tr>
<tr data-testid="data-table-v2-row">
  <td data-testid-cell="ticker"><a data-testid="table-cell-ticker">YPFD.BA</a></td>
  <td data-testid-cell="companyshortname.raw"><div>YPF Sociedad Anonima</div></td>
  <td data-testid-cell="intradayprice">42&#160;500.50</td>
</tr>
</tbody>
</table>`

// incompleteRowsHTML mixes valid rows with rows missing required fields.
const incompleteRowsHTML = `<table>
<tbody>
<tr data-testid="data-table-v2-row">
  <td data-testid-cell="ticker"><span class="symbol"></span></td>
  <td data-testid-cell="companyshortname.raw"><div>No Symbol Corp</div></td>
</tr>
<tr data-testid="data-table-v2-row">
  <td data-testid-cell="ticker"><span class="symbol">ONLY.SY</span></td>
</tr>
<tr data-testid="data-table-v2-row">
  <td data-testid-cell="ticker"><span class="symbol">OK.BA</span></td>
  <td data-testid-cell="companyshortname.raw"><div title="Valid Company">Valid</div></td>
  <td data-testid-cell="intradayprice"><span data-testid="change">--</span></td>
</tr>
</tbody>
</table>`

func TestParse_ExtractsRows(t *testing.T) {
	t.Parallel()

	p := parser.NewScreenerParser()
	quotes := p.Parse(screenerTableHTML)

	require.Len(t, quotes, 2)
	assert.Equal(t, domain.EquityQuote{
		Symbol: "GGAL.BA",
		Name:   "Grupo Financiero Galicia S.A.",
		Price:  "7251.00",
	}, quotes[0])
	assert.Equal(t, "YPFD.BA", quotes[1].Symbol)
	assert.Equal(t, "YPF Sociedad Anonima", quotes[1].Name)
	assert.Equal(t, "42 500.50", quotes[1].Price)
}

func TestParse_SkipsRowsMissingRequiredFields(t *testing.T) {
	t.Parallel()

	p := parser.NewScreenerParser()
	quotes := p.Parse(incompleteRowsHTML)

	require.Len(t, quotes, 1)
	assert.Equal(t, "OK.BA", quotes[0].Symbol)
	assert.Equal(t, "Valid Company", quotes[0].Name)
}

func TestParse_PlaceholderPriceIsEmpty(t *testing.T) {
	t.Parallel()

	p := parser.NewScreenerParser()
	quotes := p.Parse(incompleteRowsHTML)

	require.Len(t, quotes, 1)
	assert.Empty(t, quotes[0].Price)
}

func TestParse_EmptyContent(t *testing.T) {
	t.Parallel()

	p := parser.NewScreenerParser()
	assert.Empty(t, p.Parse(""))
	assert.Empty(t, p.Parse("<div>no table here</div>"))
}

func TestParse_Pure(t *testing.T) {
	t.Parallel()

	p := parser.NewScreenerParser()
	first := p.Parse(screenerTableHTML)
	second := p.Parse(screenerTableHTML)
	assert.Equal(t, first, second)
}
