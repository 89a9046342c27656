package tablefmt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToMarkdown(t *testing.T) {
	tests := []struct {
		name string
		rows [][]string
		want string
	}{
		{
			name: "header and one row",
			rows: [][]string{{"A", "B"}, {"1", "2"}},
			want: "| A | B |\n| --- | --- |\n| 1 | 2 |",
		},
		{
			name: "header only",
			rows: [][]string{{"Name"}},
			want: "| Name |\n| --- |",
		},
		{
			name: "ragged body keeps its own width",
			rows: [][]string{{"A", "B"}, {"1"}},
			want: "| A | B |\n| --- | --- |\n| 1 |",
		},
		{
			name: "empty",
			rows: nil,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToMarkdown(tt.rows))
		})
	}
}

func TestFromHTMLWithHeadAndBody(t *testing.T) {
	src := `<p>intro</p>
<table>
<thead><tr><th>Name</th><th>Qty</th></tr></thead>
<tbody>
<tr><td> apple </td><td>3</td></tr>
<tr></tr>
<tr><td>pear</td><td>5</td></tr>
</tbody>
</table>`

	tables, err := FromHTML(src)
	require.NoError(t, err)
	require.Len(t, tables, 1)

	assert.Equal(t, [][]string{{"Name", "Qty"}, {"apple", "3"}, {"pear", "5"}}, tables[0].Rows)
	assert.Equal(t, "| Name | Qty |\n| --- | --- |\n| apple | 3 |\n| pear | 5 |", tables[0].Markdown())
	assert.Contains(t, tables[0].Text, "Name")
	assert.Contains(t, tables[0].Text, " apple ")
}

func TestFromHTMLFirstRowIsHeader(t *testing.T) {
	src := `<table><tr><td>k</td><th>v</th></tr><tr><td>a</td><td>1</td></tr></table>`

	tables, err := FromHTML(src)
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, [][]string{{"k", "v"}, {"a", "1"}}, tables[0].Rows)
}

func TestFromHTMLMultipleTables(t *testing.T) {
	src := `<table><tr><td>one</td></tr></table><div><table><tr><td>two</td></tr></table></div>`

	tables, err := FromHTML(src)
	require.NoError(t, err)
	require.Len(t, tables, 2)
	assert.Equal(t, "one", tables[0].Text)
	assert.Equal(t, "two", tables[1].Text)
}

func TestFromHTMLNoTables(t *testing.T) {
	tables, err := FromHTML("<p>just text</p>")
	require.NoError(t, err)
	assert.Empty(t, tables)
}
