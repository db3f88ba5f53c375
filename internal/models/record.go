// Package models holds the dataset record types shared across villabot.
package models

import "strings"

// Attribute names as they appear in partition headers.
const (
	AttrName        = "Nama"
	AttrType        = "Jenis"
	AttrLocation    = "Lokasi"
	AttrSubdistrict = "Kecamatan"
	AttrVillage     = "Desa"
	AttrYearBuilt   = "Tahun Terbangun"
	AttrRoomCount   = "Jumlah Kamar"
	AttrContact     = "Contact Person"
	AttrITReview    = "Ulasan Review IT"
)

// RecordKey identifies one property row: (Name, Village) is the
// compound key within a partition.
type RecordKey struct {
	Partition string
	Name      string
	Village   string
}

// Record is one property's row of attributes. Attributes may be empty
// strings; the record is mutated only through the commit service.
type Record struct {
	Key     RecordKey
	Row     int // 1-based sheet row (header row is 1)
	Headers []string
	Values  []string
}

// NewRecord builds a Record from a raw row, deriving the key from the
// Name and Village columns. Row is the 1-based sheet row.
func NewRecord(partition string, row int, headers, values []string) Record {
	r := Record{
		Key:     RecordKey{Partition: partition},
		Row:     row,
		Headers: headers,
		Values:  values,
	}
	r.Key.Name = r.Attr(AttrName)
	r.Key.Village = r.Attr(AttrVillage)
	return r
}

// Attr returns the value of the named attribute, "" when the column is
// absent or the row is short.
func (r Record) Attr(name string) string {
	for i, h := range r.Headers {
		if h == name {
			if i < len(r.Values) {
				return r.Values[i]
			}
			return ""
		}
	}
	return ""
}

// IsEmpty reports whether the named attribute is blank (or missing).
func (r Record) IsEmpty(name string) bool {
	return strings.TrimSpace(r.Attr(name)) == ""
}

// EmptyAttrs returns the attributes from candidates that are blank on
// this record, preserving order.
func (r Record) EmptyAttrs(candidates []string) []string {
	var out []string
	for _, name := range candidates {
		if r.IsEmpty(name) {
			out = append(out, name)
		}
	}
	return out
}
