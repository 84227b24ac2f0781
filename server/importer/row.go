package importer

import (
	"encoding/csv"
	"io"
	"strings"
)

// Column names matched literally(case-sensitive) against the upload's
// header row.
const (
	FIRST_NAME_COLUMN       = "First Name"
	LAST_NAME_COLUMN        = "Last Name"
	PROPERTY_ADDRESS_COLUMN = "Property Address"
	PROPERTY_CITY_COLUMN    = "Property City"
	PROPERTY_STATE_COLUMN   = "Property State"
	PROPERTY_ZIP_COLUMN     = "Property Zip"
	BUSINESS_NAME_COLUMN    = "Business Name"
	MAILING_ADDRESS_COLUMN  = "Mailing Address"
	TAGS_COLUMN             = "tags"

	PHONE_COLUMN_PREFIX = "Phone"
)

// Row is one uploaded record. Phone-bearing columns are kept as an
// ordered list so "first phone match wins" follows the file's column
// order, not map iteration order.
type Row struct {
	values map[string]string
	phones []string
}

func NewRow(header, record []string) Row {
	row := Row{values: make(map[string]string, len(header))}

	for i, column := range header {
		if i >= len(record) {
			break
		}
		row.values[column] = record[i]

		if strings.HasPrefix(column, PHONE_COLUMN_PREFIX) {
			if phone := strings.TrimSpace(record[i]); phone != "" {
				row.phones = append(row.phones, phone)
			}
		}
	}

	return row
}

func (row Row) Get(column string) string {
	return row.values[column]
}

// PhoneNumbers returns the row's phone numbers - trimmed, empties
// excluded, in column order.
func (row Row) PhoneNumbers() []string {
	return row.phones
}

// ReadRows parses csv content into rows, using the first record as the
// header.
func ReadRows(reader io.Reader) ([]Row, error) {
	csvReader := csv.NewReader(reader)
	csvReader.FieldsPerRecord = -1

	header, err := csvReader.Read()
	if err == io.EOF {
		return []Row{}, nil
	}
	if err != nil {
		return nil, err
	}

	rows := []Row{}
	for {
		record, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		rows = append(rows, NewRow(header, record))
	}

	return rows, nil
}
