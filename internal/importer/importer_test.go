package importer

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/lead-finder/internal/model"
)

func createTestXLSX(t *testing.T, rows [][]string) *bytes.Buffer {
	t.Helper()
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Subscribers")
	require.NoError(t, err)
	for _, rowData := range rows {
		row := sheet.AddRow()
		for _, cellData := range rowData {
			row.AddCell().SetString(cellData)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return &buf
}

func TestImportCSV_CountsInvalidRows(t *testing.T) {
	summary, subs, err := ImportCSV(context.Background(), strings.NewReader("email\njohn@x.com\nnot-an-email\n"), Options{})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 1, summary.Success)
	assert.Equal(t, 1, summary.Failed)
	require.Len(t, summary.Errors, 1)
	assert.Equal(t, RowError{Row: 3, Email: "not-an-email", Reason: "invalid email"}, summary.Errors[0])

	require.Len(t, subs, 1)
	assert.Equal(t, "john@x.com", subs[0].Email)
	assert.Equal(t, model.StatusActive, subs[0].Status)
}

func TestImportCSV_HeaderAliases(t *testing.T) {
	input := "E-Mail,First Name,last_name,Phone Number,Organization,Tags,Favourite Color\n" +
		"Ada@Example.com,Ada,Lovelace,555-0100,Engines Ltd,\"vip; beta\",green\n"

	summary, subs, err := ImportCSV(context.Background(), strings.NewReader(input), Options{Tags: []string{"newsletter"}})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Success)

	require.Len(t, subs, 1)
	sub := subs[0]
	assert.Equal(t, "ada@example.com", sub.Email)
	assert.Equal(t, "Ada", sub.FirstName)
	assert.Equal(t, "Lovelace", sub.LastName)
	assert.Equal(t, []string{"newsletter", "vip", "beta"}, sub.Tags)
	assert.Equal(t, "555-0100", sub.Metadata["phone"])
	assert.Equal(t, "Engines Ltd", sub.Metadata["company"])
	assert.Equal(t, "green", sub.Metadata["Favourite Color"])
	assert.Equal(t, "import", sub.Metadata["source"])
}

func TestImportCSV_FullNameSplit(t *testing.T) {
	_, subs, err := ImportCSV(context.Background(), strings.NewReader("name,email\nGrace Brewster Hopper,grace@navy.mil\n"), Options{})
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "Grace", subs[0].FirstName)
	assert.Equal(t, "Brewster Hopper", subs[0].LastName)
}

func TestImportCSV_DuplicateLastWins(t *testing.T) {
	input := "email,first_name\na@x.com,First\nb@x.com,Other\nA@X.com,Second\n"

	summary, subs, err := ImportCSV(context.Background(), strings.NewReader(input), Options{})
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 3, summary.Success)

	require.Len(t, subs, 2)
	assert.Equal(t, "a@x.com", subs[0].Email)
	assert.Equal(t, "Second", subs[0].FirstName)
	assert.Equal(t, "b@x.com", subs[1].Email)
}

func TestImportCSV_BlankRowsSkipped(t *testing.T) {
	input := "email\n\na@x.com\n,\nb@x.com\n"

	summary, subs, err := ImportCSV(context.Background(), strings.NewReader(input), Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Total)
	assert.Len(t, subs, 2)
}

func TestImportCSV_MissingEmailValue(t *testing.T) {
	summary, _, err := ImportCSV(context.Background(), strings.NewReader("email,name\n,Nobody\n"), Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, "missing email", summary.Errors[0].Reason)
}

func TestImportCSV_TabSeparated(t *testing.T) {
	input := "email\tstatus\na@x.com\tUnsubscribed\n"

	_, subs, err := ImportCSV(context.Background(), strings.NewReader(input), Options{})
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "unsubscribed", subs[0].Status)
}

func TestImportCSV_ByteOrderMark(t *testing.T) {
	input := "\ufeffemail,first_name,Favourite Color\njohn@x.com,John,blue\nbad\n"

	summary, subs, err := ImportCSV(context.Background(), strings.NewReader(input), Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 1, summary.Success)
	require.Len(t, summary.Errors, 1)
	assert.Equal(t, 3, summary.Errors[0].Row)
	require.Len(t, subs, 1)
	assert.Equal(t, "john@x.com", subs[0].Email)
	assert.Equal(t, "John", subs[0].FirstName)
	assert.Equal(t, "blue", subs[0].Metadata["Favourite Color"])
}

func TestImportCSV_NoEmailColumn(t *testing.T) {
	_, _, err := ImportCSV(context.Background(), strings.NewReader("name,phone\nBob,555\n"), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no email column")
}

func TestImportCSV_EmptyInput(t *testing.T) {
	_, _, err := ImportCSV(context.Background(), strings.NewReader(""), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no header row")
}

func TestImportCSV_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := ImportCSV(ctx, strings.NewReader("email\na@x.com\n"), Options{})
	assert.Error(t, err)
}

func TestImportXLSX(t *testing.T) {
	buf := createTestXLSX(t, [][]string{
		{"Email", "First Name", "Last Name", "Tags"},
		{"ada@example.com", "Ada", "Lovelace", "vip"},
		{"", "", "", ""},
		{"broken", "No", "Body", ""},
	})

	summary, subs, err := ImportXLSX(context.Background(), buf, Options{Status: "pending"})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 1, summary.Success)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 4, summary.Errors[0].Row)

	require.Len(t, subs, 1)
	assert.Equal(t, "Ada", subs[0].FirstName)
	assert.Equal(t, "pending", subs[0].Status)
	assert.Equal(t, []string{"vip"}, subs[0].Tags)
}

func TestImportXLSX_NotAWorkbook(t *testing.T) {
	_, _, err := ImportXLSX(context.Background(), strings.NewReader("email\na@x.com\n"), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open xlsx")
}

func TestSniffDelimiter(t *testing.T) {
	assert.Equal(t, ',', sniffDelimiter([]byte("a,b,c\n1;2")))
	assert.Equal(t, '\t', sniffDelimiter([]byte("a\tb\tc")))
	assert.Equal(t, ';', sniffDelimiter([]byte("a;b;c,d")))
	assert.Equal(t, ',', sniffDelimiter(nil))
}

func TestCanonical(t *testing.T) {
	assert.Equal(t, "first_name", canonical(" FirstName "))
	assert.Equal(t, "first_name", canonical("first-name"))
	assert.Equal(t, "email", canonical("Email Address"))
	assert.Equal(t, "", canonical("Favourite Color"))
	assert.Equal(t, "email", canonical("\ufeffEmail"))
}

func TestImportCSV_RowNumbersCountBlankLines(t *testing.T) {
	summary, _, err := ImportCSV(context.Background(), strings.NewReader("email\n\n\nbroken\n"), Options{})
	require.NoError(t, err)
	require.Len(t, summary.Errors, 1)
	assert.Equal(t, 4, summary.Errors[0].Row)
}
