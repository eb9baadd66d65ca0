package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCrmRecord_StringField(t *testing.T) {
	record := CrmRecord{
		"Name":     "Acme Corp",
		"Industry": nil,
		"Revenue":  12.5,
	}

	assert.Equal(t, "Acme Corp", record.StringField("Name"))
	assert.Equal(t, MissingFieldPlaceholder, record.StringField("Industry"))
	assert.Equal(t, MissingFieldPlaceholder, record.StringField("Revenue"))
	assert.Equal(t, MissingFieldPlaceholder, record.StringField("Phone"))
}

func TestCrmRecord_ID(t *testing.T) {
	assert.Equal(t, "001xx000003DHPGAA4", CrmRecord{"Id": "001xx000003DHPGAA4"}.ID())
	assert.Empty(t, CrmRecord{}.ID())
}

func TestCrmRecord_FieldsStripsAttributes(t *testing.T) {
	record := CrmRecord{
		"attributes": map[string]interface{}{"type": "Account"},
		"Id":         "001",
		"Name":       "Acme Corp",
	}

	fields := record.Fields()
	assert.NotContains(t, fields, "attributes")
	assert.Equal(t, "001", fields["Id"])

	// Fields returns a copy; mutations do not touch the record.
	fields["Name"] = "changed"
	assert.Equal(t, "Acme Corp", record["Name"])
}
