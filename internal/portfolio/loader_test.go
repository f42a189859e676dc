package portfolio

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const header = "Symbol,Name,Exchange,Currency,Quantity,Book Value (Market)\n"

func TestLoad_SkipsBlankSymbols(t *testing.T) {
	csv := header +
		"AAPL,Apple,NASDAQ,USD,5,500\n" +
		",Ghost Row,NASDAQ,USD,10,100\n" +
		"nan,Spreadsheet Artifact,,,3,30\n"

	p, err := Load(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, p.Holdings, 1)

	h := p.Holdings[0]
	assert.Equal(t, "AAPL", h.Symbol)
	assert.Equal(t, 100.0, h.AvgCost)
	assert.Equal(t, 5.0, h.Quantity)
}

func TestLoad_SkipsNonPositiveQuantity(t *testing.T) {
	csv := header +
		"AAPL,Apple,NASDAQ,USD,5,500\n" +
		"MSFT,Microsoft,NASDAQ,USD,0,0\n" +
		"GOOG,Alphabet,NASDAQ,USD,-2,100\n"

	p, err := Load(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, p.Holdings, 1)
	assert.Equal(t, "AAPL", p.Holdings[0].Symbol)
}

func TestLoad_AvgCostDefaultsToZero(t *testing.T) {
	csv := header + "AAPL,Apple,NASDAQ,USD,5,not-a-number\n"

	p, err := Load(strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, 0.0, p.Holdings[0].AvgCost)
}

func TestLoad_ResolvesSymbols(t *testing.T) {
	csv := header +
		"ENB,Enbridge,TSX,CAD,10,450\n" +
		"NVDA,NVIDIA CDR,TSX,CAD,4,200\n" +
		"BTC,Bitcoin,,,0.5,20000\n" +
		"GOLD,Gold Bullion,,,2,4000\n"

	p, err := Load(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, p.Holdings, 4)

	assert.Equal(t, "ENB.TO", p.Holdings[0].Symbol)
	assert.Equal(t, "NVDA.NE", p.Holdings[1].Symbol)
	assert.Equal(t, "BTC-USD", p.Holdings[2].Symbol)
	assert.Equal(t, "GC=F", p.Holdings[3].Symbol)
}

func TestLoad_MissingSymbolColumn(t *testing.T) {
	csv := "Name,Quantity\nApple,5\n"

	_, err := Load(strings.NewReader(csv))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Symbol")
}

func TestLoad_EmptyFile(t *testing.T) {
	_, err := Load(strings.NewReader(""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}

func TestLoad_ZeroValidRows(t *testing.T) {
	csv := header + ",Empty,NASDAQ,USD,1,10\n"

	_, err := Load(strings.NewReader(csv))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no usable rows")
}

func TestLoad_TrimsHeaderWhitespace(t *testing.T) {
	csv := " Symbol , Name , Exchange , Currency , Quantity , Book Value (Market) \n" +
		"AAPL,Apple,NASDAQ,USD,5,500\n"

	p, err := Load(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, p.Holdings, 1)
	assert.Equal(t, 100.0, p.Holdings[0].AvgCost)
}

func TestLoad_QuantityColumnAbsent(t *testing.T) {
	csv := "Symbol,Name\nAAPL,Apple\n"

	p, err := Load(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, p.Holdings, 1)
	assert.Equal(t, 0.0, p.Holdings[0].Quantity)
}

func TestPortfolio_SymbolsDeduplicated(t *testing.T) {
	csv := header +
		"AAPL,Apple,NASDAQ,USD,5,500\n" +
		"AAPL,Apple Again,NASDAQ,USD,3,300\n" +
		"MSFT,Microsoft,NASDAQ,USD,1,100\n"

	p, err := Load(strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT"}, p.Symbols())
}
