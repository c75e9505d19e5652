// Package table defines the in-memory representation of a decoded tabular file.
//
// A Table is created once per file by the tabular decoder and is treated as immutable
// afterwards. It is shared by reference between the parsed-table cache and any
// reconciliation run that holds it.
//
// # Records
//
// A Record maps a header name to the formatted string value of the cell. Empty cells are
// not stored, so reading an absent field and reading an empty field both yield "".
//
// # Usage
//
//	t := table.New("bank.csv", []string{"id", "amount"})
//	t.AppendRow([]string{"1", "100"})
//	fmt.Println(t.Records[0]["amount"])
package table
