package qif

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fjacquet/dkb-qif/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tx(booking, valuta, description, amount, info string) models.Transaction {
	value, err := models.ParseAmount(amount)
	if err != nil {
		panic(err)
	}
	return models.Transaction{
		BookingDate: booking,
		ValutaDate:  valuta,
		Description: description,
		Amount:      value,
		Info:        info,
	}
}

func TestWriteHeaderAndRecordOrder(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, Options{AccountName: "Visa Card"}, []models.Transaction{
		tx("01.03.2021", "02.03.2021", "Coffee Shop", "-4,50", ""),
	})
	require.NoError(t, err)

	expected := strings.Join([]string{
		"!Account",
		"NVisa Card",
		"^",
		"!Type:Bank",
		"D03/02/2021",
		"T-4.50",
		"MCoffee Shop",
		"^",
		"",
	}, "\n")
	assert.Equal(t, expected, buf.String())
}

func TestWriteDefaultAccountName(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, Options{}, nil))
	assert.Contains(t, buf.String(), "NVISA\n")
}

func TestWriteOneBlockPerRetainedRow(t *testing.T) {
	transactions := []models.Transaction{
		tx("01.03.2021", "02.03.2021", "A", "-1,00", ""),
		tx("03.03.2021", "04.03.2021", "B", "2,00", ""),
		tx("05.03.2021", "06.03.2021", "C", "-3,00", ""),
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, Options{}, transactions))

	// one header separator plus one per record
	assert.Equal(t, 4, strings.Count(buf.String(), "^\n"))
}

func TestWriteMemoOnlyWhenPresent(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, Options{}, []models.Transaction{
		tx("01.03.2021", "02.03.2021", "Abroad", "-10,00", "9,50 USD"),
		tx("03.03.2021", "04.03.2021", "Home", "-5,00", ""),
	}))

	lines := strings.Split(buf.String(), "\n")
	assert.Contains(t, lines, "MAbroad")
	assert.Contains(t, lines, "M9,50 USD")

	// the record without info has exactly one M line
	body := buf.String()
	homeBlock := body[strings.Index(body, "MHome"):]
	homeBlock = homeBlock[:strings.Index(homeBlock, "^")]
	assert.Equal(t, 1, strings.Count(homeBlock, "M"))
}

func TestWriteCategory(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, Options{Category: "Aktiva:VISA"}, []models.Transaction{
		tx("01.03.2021", "02.03.2021", "Coffee Shop", "-4,50", ""),
	}))
	assert.Contains(t, buf.String(), "LAktiva:VISA\n")

	buf.Reset()
	require.NoError(t, Write(&buf, Options{}, []models.Transaction{
		tx("01.03.2021", "02.03.2021", "Coffee Shop", "-4,50", ""),
	}))
	assert.NotContains(t, buf.String(), "\nL")
}

func TestWriteFallsBackToBookingDate(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, Options{}, []models.Transaction{
		tx("20.03.2021", "vorgemerkt", "Fallback", "-1,00", ""),
	}))
	assert.Contains(t, buf.String(), "D03/20/2021\n")
}

func TestWriteAmountScalePreserved(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, Options{}, []models.Transaction{
		{BookingDate: "01.03.2021", ValutaDate: "01.03.2021", Description: "x", Amount: decimal.RequireFromString("-45.00")},
		{BookingDate: "01.03.2021", ValutaDate: "01.03.2021", Description: "y", Amount: decimal.RequireFromString("1234.56")},
	}))
	assert.Contains(t, buf.String(), "T-45.00\n")
	assert.Contains(t, buf.String(), "T1234.56\n")
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "export.qif")
	err := WriteFile(path, Options{AccountName: "VISA"}, []models.Transaction{
		tx("01.03.2021", "02.03.2021", "Coffee Shop", "-4,50", ""),
	})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "!Account\n"))
}
